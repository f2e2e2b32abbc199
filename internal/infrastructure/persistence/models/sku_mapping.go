package models

import (
	"encoding/json"

	"github.com/skuswap/backend/internal/domain/integration"
)

// SkuMappingModel is the persistence model for the SkuMapping domain entity.
type SkuMappingModel struct {
	BaseModel
	OriginalSku    string `gorm:"type:varchar(255);not null;uniqueIndex:idx_sku_mappings_original_sku"`
	ReplacementSku string `gorm:"type:varchar(255);not null"`
	Active         bool   `gorm:"not null;index:idx_sku_mappings_active"`
	TagsJSON       string `gorm:"type:text;column:tags;not null"`
}

// TableName returns the table name for GORM
func (SkuMappingModel) TableName() string {
	return "sku_mappings"
}

// ToDomain converts the persistence model to a domain SkuMapping entity.
// Unreadable tags decode as an empty set, which never triggers.
func (m *SkuMappingModel) ToDomain() *integration.SkuMapping {
	mapping := &integration.SkuMapping{
		ID:             m.ID,
		OriginalSku:    m.OriginalSku,
		ReplacementSku: m.ReplacementSku,
		Active:         m.Active,
		Tags:           make([]string, 0),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}

	if m.TagsJSON != "" {
		var tags []string
		if err := json.Unmarshal([]byte(m.TagsJSON), &tags); err == nil {
			mapping.Tags = integration.CleanTags(tags)
		}
	}

	return mapping
}

// FromDomain populates the persistence model from a domain SkuMapping entity.
func (m *SkuMappingModel) FromDomain(sm *integration.SkuMapping) {
	m.ID = sm.ID
	m.OriginalSku = sm.OriginalSku
	m.ReplacementSku = sm.ReplacementSku
	m.Active = sm.Active
	m.CreatedAt = sm.CreatedAt
	m.UpdatedAt = sm.UpdatedAt

	m.TagsJSON = "[]"
	if len(sm.Tags) > 0 {
		if jsonBytes, err := json.Marshal(sm.Tags); err == nil {
			m.TagsJSON = string(jsonBytes)
		}
	}
}

// SkuMappingModelFromDomain creates a new persistence model from a domain SkuMapping entity.
func SkuMappingModelFromDomain(sm *integration.SkuMapping) *SkuMappingModel {
	m := &SkuMappingModel{}
	m.FromDomain(sm)
	return m
}
