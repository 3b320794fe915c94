package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/factory/backend/internal/domain/material"
	"github.com/factory/backend/internal/domain/shared"
	"github.com/factory/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRawMaterialRepository implements RawMaterialRepository using GORM
type GormRawMaterialRepository struct {
	db *gorm.DB
}

// NewGormRawMaterialRepository creates a new GormRawMaterialRepository
func NewGormRawMaterialRepository(db *gorm.DB) *GormRawMaterialRepository {
	return &GormRawMaterialRepository{db: db}
}

// FindByID finds a raw material by its ID
func (r *GormRawMaterialRepository) FindByID(ctx context.Context, id uuid.UUID) (*material.RawMaterial, error) {
	var model models.RawMaterialModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds multiple raw materials by their IDs
func (r *GormRawMaterialRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]material.RawMaterial, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var materialModels []models.RawMaterialModel
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&materialModels).Error; err != nil {
		return nil, err
	}
	materials := make([]material.RawMaterial, len(materialModels))
	for i := range materialModels {
		materials[i] = *materialModels[i].ToDomain()
	}
	return materials, nil
}

// FindByIDForUpdate locks the material row for the duration of the
// surrounding transaction before returning it
func (r *GormRawMaterialRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*material.RawMaterial, error) {
	var model models.RawMaterialModel
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

// FindAll lists raw materials
func (r *GormRawMaterialRepository) FindAll(ctx context.Context, filter shared.Filter) ([]material.RawMaterial, error) {
	var materialModels []models.RawMaterialModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.RawMaterialModel{}), filter)
	if err := query.Find(&materialModels).Error; err != nil {
		return nil, err
	}
	materials := make([]material.RawMaterial, len(materialModels))
	for i := range materialModels {
		materials[i] = *materialModels[i].ToDomain()
	}
	return materials, nil
}

// Save persists a raw material
func (r *GormRawMaterialRepository) Save(ctx context.Context, m *material.RawMaterial) error {
	model := models.RawMaterialModelFromDomain(m)
	return r.db.WithContext(ctx).Save(model).Error
}

// applyFilter applies filter options to the query
func (r *GormRawMaterialRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, RawMaterialSortFields, "name")
	orderDir := ValidateSortOrder(filter.OrderDir)
	if filter.OrderBy == "" {
		orderDir = "ASC"
	}
	query = query.Order(orderBy + " " + orderDir)

	for key, value := range filter.Filters {
		switch key {
		case "name":
			query = query.Where("name ILIKE ?", fmt.Sprintf("%%%v%%", value))
		case "has_stock":
			if value == true {
				query = query.Where("current_stock > 0")
			}
		}
	}

	return query
}

// Ensure GormRawMaterialRepository implements RawMaterialRepository
var _ material.RawMaterialRepository = (*GormRawMaterialRepository)(nil)
