package integration

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ProcessingStatus is the outcome of processing one webhook event
type ProcessingStatus string

const (
	// ProcessingStatusSuccess indicates the event was handled without error
	ProcessingStatusSuccess ProcessingStatus = "success"
	// ProcessingStatusError indicates the event failed, possibly after partial rewrites
	ProcessingStatusError ProcessingStatus = "error"
)

// IsValid returns true if the status is valid
func (s ProcessingStatus) IsValid() bool {
	switch s {
	case ProcessingStatusSuccess, ProcessingStatusError:
		return true
	default:
		return false
	}
}

// String returns the string representation of ProcessingStatus
func (s ProcessingStatus) String() string {
	return string(s)
}

// UnknownOrderValue is recorded when the payload carried no usable order id or name
const UnknownOrderValue = "unknown"

// Messages recorded on processing logs
const (
	MessageNoReplacements    = "No SKUs found that need replacement for the order tags"
	MessageUpdateFailed      = "Error updating order SKUs"
	MessageProcessingFailed  = "Error processing webhook"
	MessageDuplicateDelivery = "Webhook delivery already processed"
)

// ReplacedMessage is the success message for an event with n applied rewrites
func ReplacedMessage(n int) string {
	return fmt.Sprintf("Successfully replaced %d SKUs", n)
}

// ProcessingLog is the durable audit record of one webhook event.
// It is created once per verified delivery and never mutated afterwards.
type ProcessingLog struct {
	ID           uuid.UUID
	OrderID      string
	OrderName    string
	ProcessedAt  time.Time
	Status       ProcessingStatus
	Message      string
	Replacements []Replacement
	ErrorDetails string
}

// NewProcessingLog creates a processing log stamped with the current time.
// Error details are dropped unless the status is error.
func NewProcessingLog(
	orderID string,
	orderName string,
	status ProcessingStatus,
	message string,
	replacements []Replacement,
	errorDetails string,
) (*ProcessingLog, error) {
	if orderID == "" {
		return nil, ErrLogInvalidOrderID
	}
	if !status.IsValid() {
		return nil, ErrLogInvalidStatus
	}
	if replacements == nil {
		replacements = make([]Replacement, 0)
	}
	if status != ProcessingStatusError {
		errorDetails = ""
	}
	return &ProcessingLog{
		ID:           uuid.New(),
		OrderID:      orderID,
		OrderName:    orderName,
		ProcessedAt:  time.Now(),
		Status:       status,
		Message:      message,
		Replacements: replacements,
		ErrorDetails: errorDetails,
	}, nil
}

// IsError returns true if the event failed
func (l *ProcessingLog) IsError() bool {
	return l.Status == ProcessingStatusError
}

// ProcessingLogFilter narrows log queries
type ProcessingLogFilter struct {
	OrderID string
	Status  ProcessingStatus
	Limit   int
}

// ProcessingLogRepository is the append-only persistence port for processing logs
type ProcessingLogRepository interface {
	// Save appends a log entry
	Save(ctx context.Context, log *ProcessingLog) error
	// FindRecent returns entries most recent first
	FindRecent(ctx context.Context, filter ProcessingLogFilter) ([]ProcessingLog, error)
	// FindByOrderID returns all entries for an order, most recent first
	FindByOrderID(ctx context.Context, orderID string) ([]ProcessingLog, error)
}
