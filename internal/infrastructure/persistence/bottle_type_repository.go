package persistence

import (
	"context"
	"errors"

	"github.com/factory/backend/internal/domain/catalog"
	"github.com/factory/backend/internal/domain/shared"
	"github.com/factory/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBottleTypeRepository implements BottleTypeRepository using GORM
type GormBottleTypeRepository struct {
	db *gorm.DB
}

// NewGormBottleTypeRepository creates a new GormBottleTypeRepository
func NewGormBottleTypeRepository(db *gorm.DB) *GormBottleTypeRepository {
	return &GormBottleTypeRepository{db: db}
}

// FindByID finds a bottle type by its ID
func (r *GormBottleTypeRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.BottleType, error) {
	var model models.BottleTypeModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds multiple bottle types by their IDs
func (r *GormBottleTypeRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.BottleType, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var bottleModels []models.BottleTypeModel
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&bottleModels).Error; err != nil {
		return nil, err
	}
	bottles := make([]catalog.BottleType, len(bottleModels))
	for i := range bottleModels {
		bottles[i] = *bottleModels[i].ToDomain()
	}
	return bottles, nil
}

// FindByIDForUpdate locks the bottle type row for the duration of the
// surrounding transaction before returning it
func (r *GormBottleTypeRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*catalog.BottleType, error) {
	var model models.BottleTypeModel
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

// FindAll lists bottle types
func (r *GormBottleTypeRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.BottleType, error) {
	var bottleModels []models.BottleTypeModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.BottleTypeModel{}), filter)
	if err := query.Find(&bottleModels).Error; err != nil {
		return nil, err
	}
	bottles := make([]catalog.BottleType, len(bottleModels))
	for i := range bottleModels {
		bottles[i] = *bottleModels[i].ToDomain()
	}
	return bottles, nil
}

// Save creates or updates a bottle type
func (r *GormBottleTypeRepository) Save(ctx context.Context, bottle *catalog.BottleType) error {
	model := models.BottleTypeModelFromDomain(bottle)
	return r.db.WithContext(ctx).Save(model).Error
}

// applyFilter applies filter options to the query
func (r *GormBottleTypeRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, BottleTypeSortFields, "capacity_ml")
	orderDir := ValidateSortOrder(filter.OrderDir)
	if filter.OrderBy == "" {
		orderDir = "ASC"
	}
	query = query.Order(orderBy + " " + orderDir)

	for key, value := range filter.Filters {
		switch key {
		case "size":
			query = query.Where("size = ?", value)
		case "has_stock":
			if value == true {
				query = query.Where("stock > 0")
			}
		}
	}

	return query
}

// Ensure GormBottleTypeRepository implements BottleTypeRepository
var _ catalog.BottleTypeRepository = (*GormBottleTypeRepository)(nil)
