package persistence

import (
	"context"

	"github.com/skuswap/backend/internal/domain/integration"
	"github.com/skuswap/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormProcessingLogRepository implements ProcessingLogRepository using GORM.
// Entries are append-only: there is no update or delete.
type GormProcessingLogRepository struct {
	db *gorm.DB
}

// NewGormProcessingLogRepository creates a new GormProcessingLogRepository
func NewGormProcessingLogRepository(db *gorm.DB) *GormProcessingLogRepository {
	return &GormProcessingLogRepository{db: db}
}

// Save appends a log entry
func (r *GormProcessingLogRepository) Save(ctx context.Context, log *integration.ProcessingLog) error {
	var model models.ProcessingLogModel
	if err := model.FromDomain(log); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

// FindRecent returns entries matching the filter, most recent first
func (r *GormProcessingLogRepository) FindRecent(ctx context.Context, filter integration.ProcessingLogFilter) ([]integration.ProcessingLog, error) {
	query := r.db.WithContext(ctx).Model(&models.ProcessingLogModel{})
	if filter.OrderID != "" {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status.String())
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var logModels []models.ProcessingLogModel
	if err := query.Order("processed_at DESC").Find(&logModels).Error; err != nil {
		return nil, err
	}
	return toDomainLogs(logModels), nil
}

// FindByOrderID returns all entries for an order, most recent first
func (r *GormProcessingLogRepository) FindByOrderID(ctx context.Context, orderID string) ([]integration.ProcessingLog, error) {
	return r.FindRecent(ctx, integration.ProcessingLogFilter{OrderID: orderID})
}

func toDomainLogs(logModels []models.ProcessingLogModel) []integration.ProcessingLog {
	logs := make([]integration.ProcessingLog, len(logModels))
	for i := range logModels {
		logs[i] = *logModels[i].ToDomain()
	}
	return logs
}

// ensure interface compliance
var (
	_ integration.ProcessingLogRepository = (*GormProcessingLogRepository)(nil)
	_ integration.SkuMappingRepository    = (*GormSkuMappingRepository)(nil)
)
