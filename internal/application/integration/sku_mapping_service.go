package integration

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skuswap/backend/internal/domain/integration"
	"github.com/skuswap/backend/internal/domain/shared"
	"github.com/skuswap/backend/internal/infrastructure/logger"
)

// SkuMappingService manages the operator-defined SKU mappings
type SkuMappingService struct {
	repo integration.SkuMappingRepository
}

// NewSkuMappingService creates a new SkuMappingService
func NewSkuMappingService(repo integration.SkuMappingRepository) *SkuMappingService {
	return &SkuMappingService{repo: repo}
}

// ---------------------------------------------------------------------------
// CRUD Operations
// ---------------------------------------------------------------------------

// ListMappings returns all mappings, newest first
func (s *SkuMappingService) ListMappings(ctx context.Context, filter integration.SkuMappingFilter) ([]SkuMappingResponse, error) {
	mappings, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	return ToSkuMappingResponses(mappings), nil
}

// GetMapping retrieves a mapping by ID
func (s *SkuMappingService) GetMapping(ctx context.Context, id uuid.UUID) (*SkuMappingResponse, error) {
	mapping, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, toDomainError(err)
	}
	resp := ToSkuMappingResponse(mapping)
	return &resp, nil
}

// CreateMapping creates a new mapping. The original SKU must not be mapped yet.
func (s *SkuMappingService) CreateMapping(ctx context.Context, req CreateSkuMappingRequest) (*SkuMappingResponse, error) {
	mapping, err := integration.NewSkuMapping(req.OriginalSku, req.ReplacementSku, req.Tags)
	if err != nil {
		return nil, toDomainError(err)
	}
	if req.Active != nil && !*req.Active {
		mapping.Deactivate()
	}

	exists, err := s.repo.ExistsByOriginalSku(ctx, mapping.OriginalSku)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, toDomainError(integration.ErrMappingAlreadyExists)
	}

	if err := s.repo.Save(ctx, mapping); err != nil {
		return nil, toDomainError(err)
	}

	logger.L(ctx).Info("SKU mapping created",
		zap.String("mapping_id", mapping.ID.String()),
		zap.String("original_sku", mapping.OriginalSku),
		zap.String("replacement_sku", mapping.ReplacementSku),
	)
	resp := ToSkuMappingResponse(mapping)
	return &resp, nil
}

// UpdateMapping applies a partial update to a mapping
func (s *SkuMappingService) UpdateMapping(ctx context.Context, id uuid.UUID, req UpdateSkuMappingRequest) (*SkuMappingResponse, error) {
	mapping, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, toDomainError(err)
	}

	var originalSku, replacementSku string
	if req.OriginalSku != nil {
		originalSku = *req.OriginalSku
	}
	if req.ReplacementSku != nil {
		replacementSku = *req.ReplacementSku
	}
	if err := mapping.Update(originalSku, replacementSku); err != nil {
		return nil, toDomainError(err)
	}
	if req.Tags != nil {
		mapping.SetTags(req.Tags)
	}
	if req.Active != nil {
		if *req.Active {
			mapping.Activate()
		} else {
			mapping.Deactivate()
		}
	}

	if err := s.repo.Save(ctx, mapping); err != nil {
		return nil, toDomainError(err)
	}

	logger.L(ctx).Info("SKU mapping updated", zap.String("mapping_id", mapping.ID.String()))
	resp := ToSkuMappingResponse(mapping)
	return &resp, nil
}

// DeleteMapping deletes a mapping
func (s *SkuMappingService) DeleteMapping(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return toDomainError(err)
	}
	logger.L(ctx).Info("SKU mapping deleted", zap.String("mapping_id", id.String()))
	return nil
}

// ---------------------------------------------------------------------------
// Bulk Operations
// ---------------------------------------------------------------------------

// BulkUpsert creates or updates mappings keyed by original SKU. Invalid entries
// are reported and skipped; the remaining entries are still written.
func (s *SkuMappingService) BulkUpsert(ctx context.Context, req BulkUpsertSkuMappingsRequest) (*BulkUpsertResult, error) {
	result := &BulkUpsertResult{Errors: make([]BulkUpsertError, 0)}

	for i, item := range req.Mappings {
		if err := s.upsertOne(ctx, item); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			result.Failed++
			result.Errors = append(result.Errors, BulkUpsertError{
				Index:       i,
				OriginalSku: item.OriginalSku,
				Error:       err.Error(),
			})
			continue
		}
		result.Success++
	}

	logger.L(ctx).Info("SKU mappings bulk upsert",
		zap.Int("success", result.Success),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func (s *SkuMappingService) upsertOne(ctx context.Context, item CreateSkuMappingRequest) error {
	existing, err := s.repo.FindByOriginalSku(ctx, strings.TrimSpace(item.OriginalSku))
	switch {
	case errors.Is(err, integration.ErrMappingNotFound):
		mapping, err := integration.NewSkuMapping(item.OriginalSku, item.ReplacementSku, item.Tags)
		if err != nil {
			return err
		}
		if item.Active != nil && !*item.Active {
			mapping.Deactivate()
		}
		return s.repo.Save(ctx, mapping)
	case err != nil:
		return err
	}

	if strings.TrimSpace(item.ReplacementSku) == "" {
		return integration.ErrMappingInvalidReplacement
	}
	if err := existing.Update("", item.ReplacementSku); err != nil {
		return err
	}
	if item.Tags != nil {
		existing.SetTags(item.Tags)
	}
	if item.Active != nil {
		if *item.Active {
			existing.Activate()
		} else {
			existing.Deactivate()
		}
	}
	return s.repo.Save(ctx, existing)
}

// toDomainError maps mapping sentinels to coded domain errors for the HTTP layer
func toDomainError(err error) error {
	switch {
	case errors.Is(err, integration.ErrMappingNotFound):
		return shared.WrapDomainError("NOT_FOUND", err, "SKU mapping not found")
	case errors.Is(err, integration.ErrMappingAlreadyExists):
		return shared.WrapDomainError("ALREADY_EXISTS", err, "A mapping for this original SKU already exists")
	case errors.Is(err, integration.ErrMappingInvalidOriginalSku),
		errors.Is(err, integration.ErrMappingInvalidReplacement),
		errors.Is(err, integration.ErrMappingSameSku):
		return shared.WrapDomainError("INVALID_INPUT", err, "")
	default:
		return err
	}
}
