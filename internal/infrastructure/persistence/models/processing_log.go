package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/skuswap/backend/internal/domain/integration"
)

// ProcessingLogModel is the persistence model for the ProcessingLog domain entity.
// Rows are only ever inserted.
type ProcessingLogModel struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key"`
	OrderID          string    `gorm:"type:varchar(64);not null;index:idx_processing_logs_order_id"`
	OrderName        string    `gorm:"type:varchar(255)"`
	ProcessedAt      time.Time `gorm:"not null;index:idx_processing_logs_processed_at"`
	Status           string    `gorm:"type:varchar(16);not null;index:idx_processing_logs_status"`
	Message          string    `gorm:"type:text"`
	ReplacementsJSON string    `gorm:"type:text;column:replacements;not null"`
	ErrorDetails     string    `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ProcessingLogModel) TableName() string {
	return "processing_logs"
}

// ToDomain converts the persistence model to a domain ProcessingLog entity.
func (m *ProcessingLogModel) ToDomain() *integration.ProcessingLog {
	log := &integration.ProcessingLog{
		ID:           m.ID,
		OrderID:      m.OrderID,
		OrderName:    m.OrderName,
		ProcessedAt:  m.ProcessedAt,
		Status:       integration.ProcessingStatus(m.Status),
		Message:      m.Message,
		Replacements: make([]integration.Replacement, 0),
		ErrorDetails: m.ErrorDetails,
	}

	if m.ReplacementsJSON != "" {
		var replacements []integration.Replacement
		if err := json.Unmarshal([]byte(m.ReplacementsJSON), &replacements); err == nil && replacements != nil {
			log.Replacements = replacements
		}
	}

	return log
}

// FromDomain populates the persistence model from a domain ProcessingLog entity.
func (m *ProcessingLogModel) FromDomain(l *integration.ProcessingLog) error {
	m.ID = l.ID
	m.OrderID = l.OrderID
	m.OrderName = l.OrderName
	m.ProcessedAt = l.ProcessedAt
	m.Status = l.Status.String()
	m.Message = l.Message
	m.ErrorDetails = l.ErrorDetails

	replacements := l.Replacements
	if replacements == nil {
		replacements = make([]integration.Replacement, 0)
	}
	jsonBytes, err := json.Marshal(replacements)
	if err != nil {
		return err
	}
	m.ReplacementsJSON = string(jsonBytes)
	return nil
}
