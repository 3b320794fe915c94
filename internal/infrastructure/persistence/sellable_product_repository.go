package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/factory/backend/internal/domain/catalog"
	"github.com/factory/backend/internal/domain/shared"
	"github.com/factory/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSellableProductRepository implements SellableProductRepository using GORM
type GormSellableProductRepository struct {
	db *gorm.DB
}

// NewGormSellableProductRepository creates a new GormSellableProductRepository
func NewGormSellableProductRepository(db *gorm.DB) *GormSellableProductRepository {
	return &GormSellableProductRepository{db: db}
}

// FindByID finds a sellable product by its ID
func (r *GormSellableProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.SellableProduct, error) {
	var model models.SellableProductModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindVariation finds a product variation by its ID
func (r *GormSellableProductRepository) FindVariation(ctx context.Context, id uuid.UUID) (*catalog.ProductVariation, error) {
	var model models.ProductVariationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Ensure GormSellableProductRepository implements SellableProductRepository
var _ catalog.SellableProductRepository = (*GormSellableProductRepository)(nil)

// GormOrderItemReader implements OrderItemReader using GORM. It is a pure
// read projection over the dashboard's order items table.
type GormOrderItemReader struct {
	db *gorm.DB
}

// NewGormOrderItemReader creates a new GormOrderItemReader
func NewGormOrderItemReader(db *gorm.DB) *GormOrderItemReader {
	return &GormOrderItemReader{db: db}
}

// ConfirmedInRange returns confirmed order item lines whose delivery date
// falls within [from, to]
func (r *GormOrderItemReader) ConfirmedInRange(ctx context.Context, from, to time.Time) ([]catalog.OrderItemLine, error) {
	var itemModels []models.OrderItemModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", "confirmed").
		Where("delivery_date >= ? AND delivery_date <= ?", from, to).
		Order("delivery_date ASC, created_at ASC").
		Find(&itemModels).Error; err != nil {
		return nil, err
	}
	lines := make([]catalog.OrderItemLine, len(itemModels))
	for i := range itemModels {
		lines[i] = itemModels[i].ToDomain()
	}
	return lines, nil
}

// Ensure GormOrderItemReader implements OrderItemReader
var _ catalog.OrderItemReader = (*GormOrderItemReader)(nil)
