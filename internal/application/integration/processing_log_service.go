package integration

import (
	"context"
	"strings"

	"github.com/skuswap/backend/internal/domain/integration"
	"github.com/skuswap/backend/internal/domain/shared"
)

// Processing log listing limits
const (
	DefaultLogLimit = 100
	MaxLogLimit     = 500
)

// ProcessingLogService serves read queries over the processing log
type ProcessingLogService struct {
	repo integration.ProcessingLogRepository
}

// NewProcessingLogService creates a new ProcessingLogService
func NewProcessingLogService(repo integration.ProcessingLogRepository) *ProcessingLogService {
	return &ProcessingLogService{repo: repo}
}

// ListRecent returns the most recent entries. A non-positive limit uses the
// default; limits above the maximum are clamped.
func (s *ProcessingLogService) ListRecent(ctx context.Context, limit int, status integration.ProcessingStatus) ([]ProcessingLogResponse, error) {
	if status != "" && !status.IsValid() {
		return nil, shared.WrapDomainError("INVALID_INPUT", integration.ErrLogInvalidStatus, "")
	}
	logs, err := s.repo.FindRecent(ctx, integration.ProcessingLogFilter{
		Status: status,
		Limit:  clampLimit(limit),
	})
	if err != nil {
		return nil, err
	}
	return ToProcessingLogResponses(logs), nil
}

// ListByOrder returns every entry recorded for an order, most recent first
func (s *ProcessingLogService) ListByOrder(ctx context.Context, orderID string) ([]ProcessingLogResponse, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, shared.WrapDomainError("INVALID_INPUT", integration.ErrLogInvalidOrderID, "")
	}
	logs, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return ToProcessingLogResponses(logs), nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLogLimit
	case limit > MaxLogLimit:
		return MaxLogLimit
	default:
		return limit
	}
}
