package models

import (
	"time"

	"github.com/factory/backend/internal/domain/material"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RawMaterialModel is the persistence model for a raw material and its
// aggregate stock counter.
type RawMaterialModel struct {
	BaseModel
	Name         string          `gorm:"type:varchar(200);not null;uniqueIndex"`
	Unit         string          `gorm:"type:varchar(20);not null"`
	CurrentStock decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	AveragePrice decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (RawMaterialModel) TableName() string {
	return "raw_materials"
}

// ToDomain converts the persistence model to a domain RawMaterial entity.
func (m *RawMaterialModel) ToDomain() *material.RawMaterial {
	return &material.RawMaterial{
		BaseEntity:   m.BaseModel.ToDomain(),
		Name:         m.Name,
		Unit:         m.Unit,
		CurrentStock: m.CurrentStock,
		AveragePrice: m.AveragePrice,
	}
}

// FromDomain populates the persistence model from a domain RawMaterial entity.
func (m *RawMaterialModel) FromDomain(r *material.RawMaterial) {
	m.FromDomainBaseEntity(r.BaseEntity)
	m.Name = r.Name
	m.Unit = r.Unit
	m.CurrentStock = r.CurrentStock
	m.AveragePrice = r.AveragePrice
}

// RawMaterialModelFromDomain creates a new persistence model from a domain RawMaterial entity.
func RawMaterialModelFromDomain(r *material.RawMaterial) *RawMaterialModel {
	m := &RawMaterialModel{}
	m.FromDomain(r)
	return m
}

// RawMaterialLotModel is the persistence model for one acquisition lot.
// The FIFO order of the ledger is acquired_at ascending with the lot ID as
// the deterministic tiebreaker.
type RawMaterialLotModel struct {
	BaseModel
	MaterialID        uuid.UUID       `gorm:"type:uuid;not null;index:idx_lot_material_acquired,priority:1"`
	AcquiredAt        time.Time       `gorm:"not null;index:idx_lot_material_acquired,priority:2"`
	QuantityRemaining decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitCost          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (RawMaterialLotModel) TableName() string {
	return "raw_material_lots"
}

// ToDomain converts the persistence model to a domain RawMaterialLot entity.
func (m *RawMaterialLotModel) ToDomain() *material.RawMaterialLot {
	return &material.RawMaterialLot{
		BaseEntity:        m.BaseModel.ToDomain(),
		MaterialID:        m.MaterialID,
		AcquiredAt:        m.AcquiredAt,
		QuantityRemaining: m.QuantityRemaining,
		UnitCost:          m.UnitCost,
	}
}

// FromDomain populates the persistence model from a domain RawMaterialLot entity.
func (m *RawMaterialLotModel) FromDomain(l *material.RawMaterialLot) {
	m.FromDomainBaseEntity(l.BaseEntity)
	m.MaterialID = l.MaterialID
	m.AcquiredAt = l.AcquiredAt
	m.QuantityRemaining = l.QuantityRemaining
	m.UnitCost = l.UnitCost
}

// RawMaterialLotModelFromDomain creates a new persistence model from a domain RawMaterialLot entity.
func RawMaterialLotModelFromDomain(l *material.RawMaterialLot) *RawMaterialLotModel {
	m := &RawMaterialLotModel{}
	m.FromDomain(l)
	return m
}
