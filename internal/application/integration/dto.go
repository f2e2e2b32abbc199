package integration

import (
	"time"

	"github.com/google/uuid"

	"github.com/skuswap/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// SKU Mapping DTOs
// ---------------------------------------------------------------------------

// SkuMappingResponse represents a SKU mapping in API responses
type SkuMappingResponse struct {
	ID             uuid.UUID `json:"id"`
	OriginalSku    string    `json:"originalSku"`
	ReplacementSku string    `json:"replacementSku"`
	Active         bool      `json:"active"`
	Tags           []string  `json:"tags"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// CreateSkuMappingRequest represents a request to create a SKU mapping
type CreateSkuMappingRequest struct {
	OriginalSku    string   `json:"originalSku" binding:"required,max=255"`
	ReplacementSku string   `json:"replacementSku" binding:"required,max=255"`
	Tags           []string `json:"tags" binding:"omitempty,dive,max=100"`
	Active         *bool    `json:"active,omitempty"`
}

// UpdateSkuMappingRequest represents a partial update of a SKU mapping
type UpdateSkuMappingRequest struct {
	OriginalSku    *string  `json:"originalSku,omitempty" binding:"omitempty,max=255"`
	ReplacementSku *string  `json:"replacementSku,omitempty" binding:"omitempty,max=255"`
	Tags           []string `json:"tags,omitempty" binding:"omitempty,dive,max=100"`
	Active         *bool    `json:"active,omitempty"`
}

// BulkUpsertSkuMappingsRequest carries the mappings of a bulk import
type BulkUpsertSkuMappingsRequest struct {
	Mappings []CreateSkuMappingRequest `json:"mappings" binding:"required,min=1,max=1000"`
}

// BulkUpsertError describes one rejected entry of a bulk import
type BulkUpsertError struct {
	Index       int    `json:"index"`
	OriginalSku string `json:"originalSku"`
	Error       string `json:"error"`
}

// BulkUpsertResult summarizes a bulk import
type BulkUpsertResult struct {
	Success int               `json:"success"`
	Failed  int               `json:"failed"`
	Errors  []BulkUpsertError `json:"errors"`
}

// ToSkuMappingResponse converts a domain mapping to its response
func ToSkuMappingResponse(m *integration.SkuMapping) SkuMappingResponse {
	tags := m.Tags
	if tags == nil {
		tags = []string{}
	}
	return SkuMappingResponse{
		ID:             m.ID,
		OriginalSku:    m.OriginalSku,
		ReplacementSku: m.ReplacementSku,
		Active:         m.Active,
		Tags:           tags,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// ToSkuMappingResponses converts a slice of mappings
func ToSkuMappingResponses(mappings []integration.SkuMapping) []SkuMappingResponse {
	out := make([]SkuMappingResponse, len(mappings))
	for i := range mappings {
		out[i] = ToSkuMappingResponse(&mappings[i])
	}
	return out
}

// ---------------------------------------------------------------------------
// Processing Log DTOs
// ---------------------------------------------------------------------------

// ProcessingLogResponse represents a processing log entry in API responses
type ProcessingLogResponse struct {
	ID           uuid.UUID                    `json:"id"`
	OrderID      string                       `json:"orderId"`
	OrderName    string                       `json:"orderName"`
	ProcessedAt  time.Time                    `json:"processedAt"`
	Status       integration.ProcessingStatus `json:"status"`
	Message      string                       `json:"message"`
	Replacements []integration.Replacement    `json:"replacements"`
	ErrorDetails string                       `json:"errorDetails,omitempty"`
}

// ToProcessingLogResponse converts a domain log entry to its response
func ToProcessingLogResponse(l *integration.ProcessingLog) ProcessingLogResponse {
	replacements := l.Replacements
	if replacements == nil {
		replacements = []integration.Replacement{}
	}
	return ProcessingLogResponse{
		ID:           l.ID,
		OrderID:      l.OrderID,
		OrderName:    l.OrderName,
		ProcessedAt:  l.ProcessedAt,
		Status:       l.Status,
		Message:      l.Message,
		Replacements: replacements,
		ErrorDetails: l.ErrorDetails,
	}
}

// ToProcessingLogResponses converts a slice of log entries
func ToProcessingLogResponses(logs []integration.ProcessingLog) []ProcessingLogResponse {
	out := make([]ProcessingLogResponse, len(logs))
	for i := range logs {
		out[i] = ToProcessingLogResponse(&logs[i])
	}
	return out
}
