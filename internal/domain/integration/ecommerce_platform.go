package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Integration Errors
// ---------------------------------------------------------------------------

var (
	// Platform errors
	ErrPlatformNotConfigured    = errors.New("integration: platform not configured")
	ErrPlatformUnavailable      = errors.New("integration: platform temporarily unavailable")
	ErrPlatformRequestFailed    = errors.New("integration: platform request failed")
	ErrPlatformInvalidResponse  = errors.New("integration: invalid platform response")
	ErrPlatformInvalidSignature = errors.New("integration: invalid platform signature")
	ErrOrderEditRejected        = errors.New("integration: order edit rejected by platform")

	// Order payload errors
	ErrOrderInvalidPayload = errors.New("integration: invalid order payload")
	ErrOrderMissingID      = errors.New("integration: order ID is required")

	// Mapping errors
	ErrMappingNotFound           = errors.New("integration: SKU mapping not found")
	ErrMappingAlreadyExists      = errors.New("integration: a mapping for this original SKU already exists")
	ErrMappingInvalidOriginalSku = errors.New("integration: original SKU is required")
	ErrMappingInvalidReplacement = errors.New("integration: replacement SKU is required")
	ErrMappingSameSku            = errors.New("integration: replacement SKU must differ from original SKU")

	// Processing log errors
	ErrLogInvalidOrderID = errors.New("integration: processing log requires an order ID")
	ErrLogInvalidStatus  = errors.New("integration: invalid processing log status")

	// Lock errors
	ErrOrderLockTimeout = errors.New("integration: timed out waiting for order lock")
)

// ---------------------------------------------------------------------------
// PlatformID
// ---------------------------------------------------------------------------

// PlatformID is an identifier assigned by the commerce platform. The platform
// sends ids as JSON numbers that do not fit in a float64, so they are kept as
// their decimal string form.
type PlatformID string

// UnmarshalJSON accepts a JSON number, a JSON string or null.
func (id *PlatformID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = PlatformID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: id must be a number or string", ErrOrderInvalidPayload)
	}
	*id = PlatformID(n.String())
	return nil
}

// MarshalJSON encodes the id as a JSON string
func (id PlatformID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(id))
}

// String returns the string representation of PlatformID
func (id PlatformID) String() string {
	return string(id)
}

// IsZero returns true if the id is empty
func (id PlatformID) IsZero() bool {
	return id == ""
}

// ---------------------------------------------------------------------------
// OrderEditor port
// ---------------------------------------------------------------------------

// ReplacementNoteKey is the line item property key attached to substituted items
const ReplacementNoteKey = "SKU_Replacement"

// ReplacementNote returns the human-readable property value describing a substitution
func ReplacementNote(originalSku, replacementSku string) string {
	return fmt.Sprintf("Original SKU (%s) replaced with %s", originalSku, replacementSku)
}

// LineItemProperty is a key/value attribute attached to an edited line item
type LineItemProperty struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// OrderEditRequest describes a single line-item rewrite on a remote order.
// The platform applies it as begin-edit, add-variant, commit.
type OrderEditRequest struct {
	OrderID    PlatformID
	VariantID  PlatformID
	Quantity   int
	Properties []LineItemProperty
}

// OrderEditResult is the outcome reported by the platform for a committed edit
type OrderEditResult struct {
	CalculatedOrderID string
	CommittedOrderID  string
	CommittedAt       time.Time
}

// OrderEditor is the port for rewriting line items on the platform.
// Implementations must treat one call as one edit transaction and must not retry.
type OrderEditor interface {
	ApplyLineItemEdit(ctx context.Context, req OrderEditRequest) (*OrderEditResult, error)
}

// ---------------------------------------------------------------------------
// OrderLocker port
// ---------------------------------------------------------------------------

// OrderLocker serializes processing of the same platform order across
// concurrent webhook deliveries. The returned release function is safe to call
// more than once.
type OrderLocker interface {
	Acquire(ctx context.Context, orderID PlatformID, ttl time.Duration) (release func(), err error)
}

// ---------------------------------------------------------------------------
// IdempotencyStore port
// ---------------------------------------------------------------------------

// IdempotencyStore remembers webhook deliveries that have already been
// processed, keyed on the platform's delivery id.
type IdempotencyStore interface {
	// MarkProcessed records deliveryID for ttl. It returns true if the
	// delivery was newly marked and false if it had been seen already.
	MarkProcessed(ctx context.Context, deliveryID string, ttl time.Duration) (bool, error)

	// Close releases resources held by the store
	Close() error
}
