package integration

// Replacement is one line-item rewrite selected for an order
type Replacement struct {
	LineItemID      PlatformID `json:"lineItemId"`
	OriginalSku     string     `json:"originalSku"`
	ReplacementSku  string     `json:"replacementSku"`
	ProductID       PlatformID `json:"productId"`
	VariantID       PlatformID `json:"variantId"`
	TriggeredByTags []string   `json:"triggeredByTags,omitempty"`
}

// ReplacementPlan is the ordered set of rewrites computed for one order event.
// It is built per event and never persisted directly.
type ReplacementPlan struct {
	Replacements []Replacement
}

// IsEmpty returns true if no line item needs rewriting
func (p *ReplacementPlan) IsEmpty() bool {
	return p == nil || len(p.Replacements) == 0
}

// Len returns the number of planned rewrites
func (p *ReplacementPlan) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Replacements)
}

// ResolveReplacements selects the line items of order that must be rewritten
// according to mappings. Only active mappings whose original SKU equals the
// line item SKU and whose tags intersect the order tags are considered. When
// several apply, the most recently updated mapping wins.
//
// The result never aliases mappings and an order without matches yields an
// empty plan.
func ResolveReplacements(order *IncomingOrder, mappings []SkuMapping) *ReplacementPlan {
	plan := &ReplacementPlan{Replacements: make([]Replacement, 0)}
	if order == nil || len(order.LineItems) == 0 || len(mappings) == 0 {
		return plan
	}

	orderTags := order.TagSet()
	if len(orderTags) == 0 {
		return plan
	}

	// Index candidates by original SKU in precedence order
	ordered := make([]SkuMapping, len(mappings))
	copy(ordered, mappings)
	SortByPrecedence(ordered)

	bySku := make(map[string][]*SkuMapping, len(ordered))
	for i := range ordered {
		m := &ordered[i]
		if !m.Active || len(m.Tags) == 0 {
			continue
		}
		bySku[m.OriginalSku] = append(bySku[m.OriginalSku], m)
	}

	for _, item := range order.LineItems {
		if item.SKU == "" {
			continue
		}
		for _, m := range bySku[item.SKU] {
			if !m.AppliesTo(item.SKU, orderTags) {
				continue
			}
			plan.Replacements = append(plan.Replacements, Replacement{
				LineItemID:      item.ID,
				OriginalSku:     item.SKU,
				ReplacementSku:  m.ReplacementSku,
				ProductID:       item.ProductID,
				VariantID:       item.VariantID,
				TriggeredByTags: append([]string(nil), m.Tags...),
			})
			break
		}
	}

	return plan
}
