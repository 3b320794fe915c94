package persistence

import (
	"context"

	"github.com/factory/backend/internal/domain/production"
	"github.com/factory/backend/internal/domain/shared"
	"github.com/factory/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormFinishedGoodsRepository implements FinishedGoodsRepository using GORM
type GormFinishedGoodsRepository struct {
	db *gorm.DB
}

// NewGormFinishedGoodsRepository creates a new GormFinishedGoodsRepository
func NewGormFinishedGoodsRepository(db *gorm.DB) *GormFinishedGoodsRepository {
	return &GormFinishedGoodsRepository{db: db}
}

// CreateBatch inserts finished goods rows
func (r *GormFinishedGoodsRepository) CreateBatch(ctx context.Context, goods []production.FinishedGood) error {
	if len(goods) == 0 {
		return nil
	}
	goodModels := make([]models.FinishedGoodModel, len(goods))
	for i := range goods {
		goodModels[i] = *models.FinishedGoodModelFromDomain(&goods[i])
	}
	return r.db.WithContext(ctx).Create(&goodModels).Error
}

// FindByBatch returns the finished goods of a batch
func (r *GormFinishedGoodsRepository) FindByBatch(ctx context.Context, batchID uuid.UUID) ([]production.FinishedGood, error) {
	var goodModels []models.FinishedGoodModel
	if err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("created_at ASC, id ASC").
		Find(&goodModels).Error; err != nil {
		return nil, err
	}
	return toDomainFinishedGoods(goodModels), nil
}

// FindByProduct lists finished goods of a product
func (r *GormFinishedGoodsRepository) FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]production.FinishedGood, error) {
	var goodModels []models.FinishedGoodModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.FinishedGoodModel{}).
			Where("product_id = ?", productID),
		filter,
	)
	if err := query.Find(&goodModels).Error; err != nil {
		return nil, err
	}
	return toDomainFinishedGoods(goodModels), nil
}

// DeleteByBatch removes the finished goods of a batch (privileged cascade only)
func (r *GormFinishedGoodsRepository) DeleteByBatch(ctx context.Context, batchID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.FinishedGoodModel{}, "batch_id = ?", batchID).Error
}

// applyFilter applies filter options to the query
func (r *GormFinishedGoodsRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, FinishedGoodSortFields, "manufactured_date")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(orderBy + " " + orderDir)

	for key, value := range filter.Filters {
		switch key {
		case "bottle_type_id":
			query = query.Where("bottle_type_id = ?", value)
		case "manufactured_from":
			query = query.Where("manufactured_date >= ?", value)
		case "manufactured_to":
			query = query.Where("manufactured_date <= ?", value)
		}
	}

	return query
}

func toDomainFinishedGoods(goodModels []models.FinishedGoodModel) []production.FinishedGood {
	goods := make([]production.FinishedGood, len(goodModels))
	for i := range goodModels {
		goods[i] = *goodModels[i].ToDomain()
	}
	return goods
}

// Ensure GormFinishedGoodsRepository implements FinishedGoodsRepository
var _ production.FinishedGoodsRepository = (*GormFinishedGoodsRepository)(nil)
