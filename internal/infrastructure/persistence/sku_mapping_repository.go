package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/skuswap/backend/internal/domain/integration"
	"github.com/skuswap/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSkuMappingRepository implements SkuMappingRepository using GORM
type GormSkuMappingRepository struct {
	db *gorm.DB
}

// NewGormSkuMappingRepository creates a new GormSkuMappingRepository
func NewGormSkuMappingRepository(db *gorm.DB) *GormSkuMappingRepository {
	return &GormSkuMappingRepository{db: db}
}

// ---------------------------------------------------------------------------
// SkuMappingReader implementation
// ---------------------------------------------------------------------------

// FindActive returns all active mappings, most recently updated first
func (r *GormSkuMappingRepository) FindActive(ctx context.Context) ([]integration.SkuMapping, error) {
	var mappingModels []models.SkuMappingModel
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("updated_at DESC").
		Order("original_sku ASC").
		Find(&mappingModels).Error; err != nil {
		return nil, err
	}
	return toDomainMappings(mappingModels), nil
}

// ---------------------------------------------------------------------------
// SkuMappingRepository implementation
// ---------------------------------------------------------------------------

// FindByID finds a mapping by its ID
func (r *GormSkuMappingRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.SkuMapping, error) {
	var model models.SkuMappingModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrMappingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOriginalSku finds the mapping for an original SKU
func (r *GormSkuMappingRepository) FindByOriginalSku(ctx context.Context, originalSku string) (*integration.SkuMapping, error) {
	var model models.SkuMappingModel
	if err := r.db.WithContext(ctx).
		Where("original_sku = ?", originalSku).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrMappingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns mappings matching the filter, newest first
func (r *GormSkuMappingRepository) FindAll(ctx context.Context, filter integration.SkuMappingFilter) ([]integration.SkuMapping, error) {
	var mappingModels []models.SkuMappingModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.SkuMappingModel{}), filter)

	if err := query.Order("created_at DESC").Order("original_sku ASC").Find(&mappingModels).Error; err != nil {
		return nil, err
	}
	return toDomainMappings(mappingModels), nil
}

// ExistsByOriginalSku checks if a mapping exists for an original SKU
func (r *GormSkuMappingRepository) ExistsByOriginalSku(ctx context.Context, originalSku string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.SkuMappingModel{}).
		Where("original_sku = ?", originalSku).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a mapping.
// A conflicting original SKU is reported as ErrMappingAlreadyExists.
func (r *GormSkuMappingRepository) Save(ctx context.Context, mapping *integration.SkuMapping) error {
	model := models.SkuMappingModelFromDomain(mapping)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		if isUniqueViolation(err) {
			return integration.ErrMappingAlreadyExists
		}
		return err
	}
	return nil
}

// Delete deletes a mapping
func (r *GormSkuMappingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.SkuMappingModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return integration.ErrMappingNotFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// Filter helpers
// ---------------------------------------------------------------------------

func (r *GormSkuMappingRepository) applyFilter(query *gorm.DB, filter integration.SkuMappingFilter) *gorm.DB {
	if filter.Active != nil {
		query = query.Where("active = ?", *filter.Active)
	}

	if filter.Search != "" {
		pattern := "%" + escapeLikePattern(strings.ToLower(strings.TrimSpace(filter.Search))) + "%"
		query = query.Where("(LOWER(original_sku) LIKE ? ESCAPE '\\' OR LOWER(replacement_sku) LIKE ? ESCAPE '\\')", pattern, pattern)
	}

	// Tags are stored as a JSON array; match the quoted element
	if tag := strings.ToLower(strings.TrimSpace(filter.Tag)); tag != "" {
		if quoted, err := json.Marshal(tag); err == nil {
			pattern := "%" + escapeLikePattern(string(quoted)) + "%"
			query = query.Where("LOWER(tags) LIKE ? ESCAPE '\\'", pattern)
		}
	}

	return query
}

func toDomainMappings(mappingModels []models.SkuMappingModel) []integration.SkuMapping {
	mappings := make([]integration.SkuMapping, len(mappingModels))
	for i := range mappingModels {
		mappings[i] = *mappingModels[i].ToDomain()
	}
	return mappings
}

// escapeLikePattern escapes LIKE wildcards in user input
func escapeLikePattern(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}

// isUniqueViolation reports whether err is a unique constraint violation
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "SQLSTATE 23505")
}
