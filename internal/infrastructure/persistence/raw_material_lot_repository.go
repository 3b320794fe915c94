package persistence

import (
	"context"

	"github.com/factory/backend/internal/domain/material"
	"github.com/factory/backend/internal/domain/shared"
	"github.com/factory/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// fifoOrder is the canonical consumption order of the lot ledger. The lot ID
// tiebreak keeps the order deterministic for lots acquired at the same
// instant.
const fifoOrder = "acquired_at ASC, id ASC"

// GormRawMaterialLotRepository implements RawMaterialLotRepository using GORM
type GormRawMaterialLotRepository struct {
	db *gorm.DB
}

// NewGormRawMaterialLotRepository creates a new GormRawMaterialLotRepository
func NewGormRawMaterialLotRepository(db *gorm.DB) *GormRawMaterialLotRepository {
	return &GormRawMaterialLotRepository{db: db}
}

// FindOpenByMaterial returns lots with remaining quantity for a material in
// FIFO order
func (r *GormRawMaterialLotRepository) FindOpenByMaterial(ctx context.Context, materialID uuid.UUID) ([]material.RawMaterialLot, error) {
	var lotModels []models.RawMaterialLotModel
	if err := r.db.WithContext(ctx).
		Where("material_id = ? AND quantity_remaining > 0", materialID).
		Order(fifoOrder).
		Find(&lotModels).Error; err != nil {
		return nil, err
	}
	return toDomainLots(lotModels), nil
}

// FindOpenByMaterialForUpdate locks and returns the open lots of a material
// in FIFO order
func (r *GormRawMaterialLotRepository) FindOpenByMaterialForUpdate(ctx context.Context, materialID uuid.UUID) ([]material.RawMaterialLot, error) {
	var lotModels []models.RawMaterialLotModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("material_id = ? AND quantity_remaining > 0", materialID).
		Order(fifoOrder).
		Find(&lotModels).Error; err != nil {
		return nil, err
	}
	return toDomainLots(lotModels), nil
}

// FindByMaterial lists all lots of a material, consumed ones included
func (r *GormRawMaterialLotRepository) FindByMaterial(ctx context.Context, materialID uuid.UUID, filter shared.Filter) ([]material.RawMaterialLot, error) {
	var lotModels []models.RawMaterialLotModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.RawMaterialLotModel{}).
			Where("material_id = ?", materialID),
		filter,
	)
	if err := query.Find(&lotModels).Error; err != nil {
		return nil, err
	}
	return toDomainLots(lotModels), nil
}

// Create appends a new lot to the ledger
func (r *GormRawMaterialLotRepository) Create(ctx context.Context, lot *material.RawMaterialLot) error {
	model := models.RawMaterialLotModelFromDomain(lot)
	return r.db.WithContext(ctx).Create(model).Error
}

// Save persists an updated lot remainder
func (r *GormRawMaterialLotRepository) Save(ctx context.Context, lot *material.RawMaterialLot) error {
	model := models.RawMaterialLotModelFromDomain(lot)
	return r.db.WithContext(ctx).Save(model).Error
}

// applyFilter applies filter options to the query
func (r *GormRawMaterialLotRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	// Listing follows the same order the FIFO engine consumes in.
	query = query.Order(fifoOrder)

	for key, value := range filter.Filters {
		switch key {
		case "open":
			if value == true {
				query = query.Where("quantity_remaining > 0")
			}
		case "consumed":
			if value == true {
				query = query.Where("quantity_remaining = 0")
			}
		}
	}

	return query
}

func toDomainLots(lotModels []models.RawMaterialLotModel) []material.RawMaterialLot {
	lots := make([]material.RawMaterialLot, len(lotModels))
	for i := range lotModels {
		lots[i] = *lotModels[i].ToDomain()
	}
	return lots
}

// Ensure GormRawMaterialLotRepository implements RawMaterialLotRepository
var _ material.RawMaterialLotRepository = (*GormRawMaterialLotRepository)(nil)
