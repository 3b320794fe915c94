package persistence

import (
	"context"

	"github.com/factory/backend/internal/domain/production"
	"github.com/factory/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormConsumptionRecordRepository implements ConsumptionRecordRepository
// using GORM. The ledger is append-only; there is no update path.
type GormConsumptionRecordRepository struct {
	db *gorm.DB
}

// NewGormConsumptionRecordRepository creates a new GormConsumptionRecordRepository
func NewGormConsumptionRecordRepository(db *gorm.DB) *GormConsumptionRecordRepository {
	return &GormConsumptionRecordRepository{db: db}
}

// CreateBatch appends records to the ledger
func (r *GormConsumptionRecordRepository) CreateBatch(ctx context.Context, records []production.StockConsumptionRecord) error {
	if len(records) == 0 {
		return nil
	}
	recordModels := make([]models.StockConsumptionRecordModel, len(records))
	for i := range records {
		recordModels[i] = *models.StockConsumptionRecordModelFromDomain(records[i])
	}
	return r.db.WithContext(ctx).Create(&recordModels).Error
}

// FindByBatch returns all records of a batch in consumption order
func (r *GormConsumptionRecordRepository) FindByBatch(ctx context.Context, batchID uuid.UUID) ([]production.StockConsumptionRecord, error) {
	var recordModels []models.StockConsumptionRecordModel
	if err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("created_at ASC, id ASC").
		Find(&recordModels).Error; err != nil {
		return nil, err
	}
	records := make([]production.StockConsumptionRecord, len(recordModels))
	for i := range recordModels {
		records[i] = recordModels[i].ToDomain()
	}
	return records, nil
}

// DeleteByBatch removes all records of a batch (privileged cascade only)
func (r *GormConsumptionRecordRepository) DeleteByBatch(ctx context.Context, batchID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.StockConsumptionRecordModel{}, "batch_id = ?", batchID).Error
}

// Ensure GormConsumptionRecordRepository implements ConsumptionRecordRepository
var _ production.ConsumptionRecordRepository = (*GormConsumptionRecordRepository)(nil)
