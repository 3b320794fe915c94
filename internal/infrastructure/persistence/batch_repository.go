package persistence

import (
	"context"
	"errors"

	"github.com/factory/backend/internal/domain/production"
	"github.com/factory/backend/internal/domain/shared"
	"github.com/factory/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBatchRepository implements BatchRepository using GORM
type GormBatchRepository struct {
	db *gorm.DB
}

// NewGormBatchRepository creates a new GormBatchRepository
func NewGormBatchRepository(db *gorm.DB) *GormBatchRepository {
	return &GormBatchRepository{db: db}
}

// FindByID finds a batch by its ID
func (r *GormBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*production.ProductionBatch, error) {
	var model models.ProductionBatchModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate locks the batch row for the duration of the surrounding
// transaction before returning it
func (r *GormBatchRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*production.ProductionBatch, error) {
	var model models.ProductionBatchModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCode finds a batch by its unique batch code
func (r *GormBatchRepository) FindByCode(ctx context.Context, code string) (*production.ProductionBatch, error) {
	var model models.ProductionBatchModel
	if err := r.db.WithContext(ctx).First(&model, "batch_code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ExistsByCode checks whether a batch code is already taken
func (r *GormBatchRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ProductionBatchModel{}).
		Where("batch_code = ?", code).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindAll lists batches matching the filter
func (r *GormBatchRepository) FindAll(ctx context.Context, filter shared.Filter) ([]production.ProductionBatch, error) {
	var batchModels []models.ProductionBatchModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ProductionBatchModel{}), filter, true)
	if err := query.Find(&batchModels).Error; err != nil {
		return nil, err
	}
	batches := make([]production.ProductionBatch, len(batchModels))
	for i := range batchModels {
		batches[i] = *batchModels[i].ToDomain()
	}
	return batches, nil
}

// Count counts batches matching the filter
func (r *GormBatchRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ProductionBatchModel{}), filter, false)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a batch
func (r *GormBatchRepository) Save(ctx context.Context, batch *production.ProductionBatch) error {
	model := models.ProductionBatchModelFromDomain(batch)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete hard-deletes a batch
func (r *GormBatchRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ProductionBatchModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// applyFilter applies filter options to the query. Pagination and ordering
// are skipped for count queries.
func (r *GormBatchRepository) applyFilter(query *gorm.DB, filter shared.Filter, paginate bool) *gorm.DB {
	if paginate {
		if filter.Page > 0 && filter.PageSize > 0 {
			offset := (filter.Page - 1) * filter.PageSize
			query = query.Offset(offset).Limit(filter.PageSize)
		}

		orderBy := ValidateSortField(filter.OrderBy, BatchSortFields, "created_at")
		orderDir := ValidateSortOrder(filter.OrderDir)
		query = query.Order(orderBy + " " + orderDir)
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "product_id":
			query = query.Where("product_id = ?", value)
		case "planned_from":
			query = query.Where("planned_date >= ?", value)
		case "planned_to":
			query = query.Where("planned_date <= ?", value)
		}
	}

	return query
}

// Ensure GormBatchRepository implements BatchRepository
var _ production.BatchRepository = (*GormBatchRepository)(nil)
