package integration

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// TagSet
// ---------------------------------------------------------------------------

// TagSet is a set of lowercase, trimmed order tags
type TagSet map[string]struct{}

// ParseOrderTags parses the platform's comma-separated tag string.
// Tokens are trimmed and lowercased; empty tokens are discarded.
func ParseOrderTags(raw string) TagSet {
	set := make(TagSet)
	for _, token := range strings.Split(raw, ",") {
		token = strings.ToLower(strings.TrimSpace(token))
		if token == "" {
			continue
		}
		set[token] = struct{}{}
	}
	return set
}

// Contains reports whether the set holds tag, ignoring case and surrounding spaces
func (s TagSet) Contains(tag string) bool {
	_, ok := s[strings.ToLower(strings.TrimSpace(tag))]
	return ok
}

// Slice returns the tags in sorted order
func (s TagSet) Slice() []string {
	out := make([]string, 0, len(s))
	for tag := range s {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// ---------------------------------------------------------------------------
// IncomingOrder
// ---------------------------------------------------------------------------

// LineItem is one product/quantity entry within an incoming order
type LineItem struct {
	ID        PlatformID      `json:"id"`
	SKU       string          `json:"sku"`
	Price     decimal.Decimal `json:"price"`
	ProductID PlatformID      `json:"product_id"`
	VariantID PlatformID      `json:"variant_id"`
	Quantity  int             `json:"quantity"`
}

// IncomingOrder is the order payload delivered by an order-creation webhook
type IncomingOrder struct {
	ID        PlatformID `json:"id"`
	Name      string     `json:"name"`
	Tags      string     `json:"tags"`
	LineItems []LineItem `json:"line_items"`
}

// DecodeIncomingOrder decodes a webhook body into an IncomingOrder
func DecodeIncomingOrder(payload []byte) (*IncomingOrder, error) {
	var order IncomingOrder
	if err := json.Unmarshal(payload, &order); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderInvalidPayload, err)
	}
	if order.ID.IsZero() {
		return nil, ErrOrderMissingID
	}
	return &order, nil
}

// TagSet returns the parsed order tags
func (o *IncomingOrder) TagSet() TagSet {
	return ParseOrderTags(o.Tags)
}

// FindLineItem returns the line item with the given id
func (o *IncomingOrder) FindLineItem(id PlatformID) (*LineItem, bool) {
	for i := range o.LineItems {
		if o.LineItems[i].ID == id {
			return &o.LineItems[i], true
		}
	}
	return nil, false
}
