package integration

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// SkuMapping Entity
// ---------------------------------------------------------------------------

// SkuMapping is an operator-defined substitution rule. A mapping only triggers
// for orders carrying at least one of its tags; a mapping without tags never
// triggers.
type SkuMapping struct {
	// ID is the unique identifier of this mapping
	ID uuid.UUID
	// OriginalSku is the SKU to look for on incoming line items (unique)
	OriginalSku string
	// ReplacementSku is the SKU written in its place
	ReplacementSku string
	// Active indicates if the mapping participates in resolution
	Active bool
	// Tags are the order tags that trigger this mapping
	Tags []string
	// CreatedAt is when this mapping was created
	CreatedAt time.Time
	// UpdatedAt is when this mapping was last written
	UpdatedAt time.Time
}

// NewSkuMapping creates a new active mapping
func NewSkuMapping(originalSku, replacementSku string, tags []string) (*SkuMapping, error) {
	now := time.Now()
	m := &SkuMapping{
		ID:             uuid.New(),
		OriginalSku:    strings.TrimSpace(originalSku),
		ReplacementSku: strings.TrimSpace(replacementSku),
		Active:         true,
		Tags:           CleanTags(tags),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate validates the mapping
func (m *SkuMapping) Validate() error {
	if m.OriginalSku == "" {
		return ErrMappingInvalidOriginalSku
	}
	if m.ReplacementSku == "" {
		return ErrMappingInvalidReplacement
	}
	if m.OriginalSku == m.ReplacementSku {
		return ErrMappingSameSku
	}
	return nil
}

// Update rewrites the SKU pair. Empty values keep the current value.
func (m *SkuMapping) Update(originalSku, replacementSku string) error {
	next := *m
	if s := strings.TrimSpace(originalSku); s != "" {
		next.OriginalSku = s
	}
	if s := strings.TrimSpace(replacementSku); s != "" {
		next.ReplacementSku = s
	}
	if err := next.Validate(); err != nil {
		return err
	}
	m.OriginalSku = next.OriginalSku
	m.ReplacementSku = next.ReplacementSku
	m.touch()
	return nil
}

// SetTags replaces the trigger tags
func (m *SkuMapping) SetTags(tags []string) {
	m.Tags = CleanTags(tags)
	m.touch()
}

// Activate activates this mapping
func (m *SkuMapping) Activate() {
	m.Active = true
	m.touch()
}

// Deactivate deactivates this mapping
func (m *SkuMapping) Deactivate() {
	m.Active = false
	m.touch()
}

// MatchesTags reports whether any of the mapping tags is present in the order
// tag set. Comparison is case-insensitive; an untagged mapping never matches.
func (m *SkuMapping) MatchesTags(orderTags TagSet) bool {
	if len(m.Tags) == 0 || len(orderTags) == 0 {
		return false
	}
	for _, tag := range m.Tags {
		if orderTags.Contains(tag) {
			return true
		}
	}
	return false
}

// AppliesTo reports whether the mapping rewrites the given SKU for an order with the given tags
func (m *SkuMapping) AppliesTo(sku string, orderTags TagSet) bool {
	return m.Active && sku != "" && m.OriginalSku == sku && m.MatchesTags(orderTags)
}

func (m *SkuMapping) touch() {
	m.UpdatedAt = time.Now()
}

// CleanTags trims tags and drops empty and duplicate (case-insensitive) entries,
// preserving the operator's spelling of the first occurrence.
func CleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// SortByPrecedence orders mappings so the preferred one for a SKU comes first:
// most recently updated, then by original SKU and ID for stability.
func SortByPrecedence(mappings []SkuMapping) {
	sort.SliceStable(mappings, func(i, j int) bool {
		a, b := mappings[i], mappings[j]
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		if a.OriginalSku != b.OriginalSku {
			return a.OriginalSku < b.OriginalSku
		}
		return a.ID.String() < b.ID.String()
	})
}

// ---------------------------------------------------------------------------
// SkuMapping Repository
// ---------------------------------------------------------------------------

// SkuMappingFilter narrows mapping listings
type SkuMappingFilter struct {
	Active *bool
	Search string
	Tag    string
}

// SkuMappingReader is the read side used by the replacement pipeline
type SkuMappingReader interface {
	// FindActive returns all active mappings, most recently updated first
	FindActive(ctx context.Context) ([]SkuMapping, error)
}

// SkuMappingRepository is the full persistence port for mappings
type SkuMappingRepository interface {
	SkuMappingReader
	FindByID(ctx context.Context, id uuid.UUID) (*SkuMapping, error)
	FindByOriginalSku(ctx context.Context, originalSku string) (*SkuMapping, error)
	FindAll(ctx context.Context, filter SkuMappingFilter) ([]SkuMapping, error)
	ExistsByOriginalSku(ctx context.Context, originalSku string) (bool, error)
	Save(ctx context.Context, mapping *SkuMapping) error
	Delete(ctx context.Context, id uuid.UUID) error
}
