package ecommerce

import (
	"encoding/json"
	"strings"
)

// shopifyGraphQLRequest is the body posted to the Admin GraphQL endpoint
type shopifyGraphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// shopifyGraphQLResponse is the envelope of every GraphQL reply
type shopifyGraphQLResponse struct {
	Data   json.RawMessage       `json:"data"`
	Errors []shopifyGraphQLError `json:"errors,omitempty"`
}

// shopifyGraphQLError is a top-level GraphQL error
type shopifyGraphQLError struct {
	Message string `json:"message"`
}

// ShopifyUserError is a validation error returned inside a mutation payload
type ShopifyUserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

func joinUserErrors(errs []ShopifyUserError) string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		if len(e.Field) > 0 {
			msgs = append(msgs, strings.Join(e.Field, ".")+": "+e.Message)
			continue
		}
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

func joinGraphQLErrors(errs []shopifyGraphQLError) string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

type shopifyCalculatedOrder struct {
	ID string `json:"id"`
}

type orderEditBeginData struct {
	OrderEditBegin struct {
		CalculatedOrder *shopifyCalculatedOrder `json:"calculatedOrder"`
		UserErrors      []ShopifyUserError      `json:"userErrors"`
	} `json:"orderEditBegin"`
}

type orderEditAddVariantData struct {
	OrderEditAddVariant struct {
		CalculatedLineItem *struct {
			ID string `json:"id"`
		} `json:"calculatedLineItem"`
		CalculatedOrder *shopifyCalculatedOrder `json:"calculatedOrder"`
		UserErrors      []ShopifyUserError      `json:"userErrors"`
	} `json:"orderEditAddVariant"`
}

type orderEditCommitData struct {
	OrderEditCommit struct {
		Order *struct {
			ID string `json:"id"`
		} `json:"order"`
		UserErrors []ShopifyUserError `json:"userErrors"`
	} `json:"orderEditCommit"`
}

// ---------------------------------------------------------------------------
// GraphQL documents
// ---------------------------------------------------------------------------

const orderEditBeginMutation = `
mutation orderEditBegin($id: ID!) {
  orderEditBegin(id: $id) {
    calculatedOrder {
      id
    }
    userErrors {
      field
      message
    }
  }
}`

const orderEditAddVariantMutation = `
mutation orderEditAddVariant($id: ID!, $variantId: ID!, $quantity: Int!, $properties: [AttributeInput!]) {
  orderEditAddVariant(id: $id, variantId: $variantId, quantity: $quantity, properties: $properties) {
    calculatedLineItem {
      id
    }
    calculatedOrder {
      id
    }
    userErrors {
      field
      message
    }
  }
}`

const orderEditCommitMutation = `
mutation orderEditCommit($id: ID!, $notifyCustomer: Boolean, $staffNote: String) {
  orderEditCommit(id: $id, notifyCustomer: $notifyCustomer, staffNote: $staffNote) {
    order {
      id
    }
    userErrors {
      field
      message
    }
  }
}`
