package ecommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/skuswap/backend/internal/domain/integration"
)

// maxShopifyResponseSize limits the response body size to prevent memory exhaustion
const maxShopifyResponseSize = 2 * 1024 * 1024

// ShopifyOrderEditor implements integration.OrderEditor with the Shopify
// order-editing mutations: begin, add variant, commit.
type ShopifyOrderEditor struct {
	config     *ShopifyConfig
	httpClient *http.Client
	endpoint   string
}

// ShopifyOption configures a ShopifyOrderEditor
type ShopifyOption func(*ShopifyOrderEditor)

// WithHTTPClient sets the HTTP client used for GraphQL requests
func WithHTTPClient(c *http.Client) ShopifyOption {
	return func(e *ShopifyOrderEditor) {
		e.httpClient = c
	}
}

// NewShopifyOrderEditor creates an editor for the configured shop.
// It fails if the configuration is incomplete or a mutation document does not parse.
func NewShopifyOrderEditor(cfg *ShopifyConfig, opts ...ShopifyOption) (*ShopifyOrderEditor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for name, doc := range map[string]string{
		"orderEditBegin":      orderEditBeginMutation,
		"orderEditAddVariant": orderEditAddVariantMutation,
		"orderEditCommit":     orderEditCommitMutation,
	} {
		if err := validateMutation(name, doc); err != nil {
			return nil, err
		}
	}

	e := &ShopifyOrderEditor{
		config:     cfg,
		httpClient: &http.Client{},
		endpoint:   cfg.GraphQLEndpoint(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// validateMutation checks that doc parses and holds exactly one mutation named name
func validateMutation(name, doc string) error {
	parsed, err := parser.ParseQuery(&ast.Source{Name: name, Input: doc})
	if err != nil {
		return fmt.Errorf("shopify: invalid %s document: %w", name, err)
	}
	if len(parsed.Operations) != 1 {
		return fmt.Errorf("shopify: %s document must contain one operation", name)
	}
	op := parsed.Operations[0]
	if op.Operation != ast.Mutation || op.Name != name {
		return fmt.Errorf("shopify: %s document must be a mutation named %s", name, name)
	}
	return nil
}

// ApplyLineItemEdit adds the replacement variant to the order and commits the edit.
// The request is not retried; the first failing step aborts the edit.
func (e *ShopifyOrderEditor) ApplyLineItemEdit(ctx context.Context, req integration.OrderEditRequest) (*integration.OrderEditResult, error) {
	if req.OrderID.IsZero() {
		return nil, integration.ErrOrderMissingID
	}
	if req.VariantID.IsZero() {
		return nil, fmt.Errorf("%w: variant id is required", integration.ErrPlatformRequestFailed)
	}
	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	// Begin
	var begin orderEditBeginData
	if err := e.do(ctx, orderEditBeginMutation, map[string]any{
		"id": OrderGID(req.OrderID),
	}, &begin); err != nil {
		return nil, fmt.Errorf("shopify: orderEditBegin: %w", err)
	}
	if len(begin.OrderEditBegin.UserErrors) > 0 {
		return nil, fmt.Errorf("%w: orderEditBegin: %s", integration.ErrOrderEditRejected, joinUserErrors(begin.OrderEditBegin.UserErrors))
	}
	if begin.OrderEditBegin.CalculatedOrder == nil || begin.OrderEditBegin.CalculatedOrder.ID == "" {
		return nil, fmt.Errorf("%w: orderEditBegin returned no calculated order", integration.ErrPlatformInvalidResponse)
	}
	calculatedID := begin.OrderEditBegin.CalculatedOrder.ID

	// Add variant
	properties := req.Properties
	if properties == nil {
		properties = []integration.LineItemProperty{}
	}
	var add orderEditAddVariantData
	if err := e.do(ctx, orderEditAddVariantMutation, map[string]any{
		"id":         calculatedID,
		"variantId":  VariantGID(req.VariantID),
		"quantity":   quantity,
		"properties": properties,
	}, &add); err != nil {
		return nil, fmt.Errorf("shopify: orderEditAddVariant: %w", err)
	}
	if len(add.OrderEditAddVariant.UserErrors) > 0 {
		return nil, fmt.Errorf("%w: orderEditAddVariant: %s", integration.ErrOrderEditRejected, joinUserErrors(add.OrderEditAddVariant.UserErrors))
	}

	// Commit
	var commit orderEditCommitData
	if err := e.do(ctx, orderEditCommitMutation, map[string]any{
		"id":             calculatedID,
		"notifyCustomer": false,
		"staffNote":      staffNote(req.Properties),
	}, &commit); err != nil {
		return nil, fmt.Errorf("shopify: orderEditCommit: %w", err)
	}
	if len(commit.OrderEditCommit.UserErrors) > 0 {
		return nil, fmt.Errorf("%w: orderEditCommit: %s", integration.ErrOrderEditRejected, joinUserErrors(commit.OrderEditCommit.UserErrors))
	}

	result := &integration.OrderEditResult{
		CalculatedOrderID: calculatedID,
		CommittedAt:       time.Now(),
	}
	if commit.OrderEditCommit.Order != nil {
		result.CommittedOrderID = commit.OrderEditCommit.Order.ID
	}
	return result, nil
}

func staffNote(props []integration.LineItemProperty) string {
	for _, p := range props {
		if p.Key == integration.ReplacementNoteKey {
			return p.Value
		}
	}
	return ""
}

// do posts one GraphQL document under its own timeout and decodes data into out
func (e *ShopifyOrderEditor) do(ctx context.Context, query string, variables map[string]any, out any) error {
	ctx, cancel := context.WithTimeout(ctx, e.config.MutationTimeout)
	defer cancel()

	body, err := json.Marshal(shopifyGraphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(ShopifyAccessTokenHeader, e.config.AccessToken)

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", integration.ErrPlatformUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxShopifyResponseSize))
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", integration.ErrPlatformUnavailable, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%w: HTTP %d: %s", integration.ErrPlatformRequestFailed, resp.StatusCode, truncate(respBody, 512))
	}

	var envelope shopifyGraphQLResponse
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("%w: %s", integration.ErrPlatformRequestFailed, joinGraphQLErrors(envelope.Errors))
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return fmt.Errorf("%w: empty data", integration.ErrPlatformInvalidResponse)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

var _ integration.OrderEditor = (*ShopifyOrderEditor)(nil)
