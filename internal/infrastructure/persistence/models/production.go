package models

import (
	"time"

	"github.com/factory/backend/internal/domain/production"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductionBatchModel is the persistence model for a production batch.
// The plan, the realized output and the availability snapshot are variable
// length lists and persist as jsonb documents on the batch row.
type ProductionBatchModel struct {
	BaseModel
	BatchCode   string    `gorm:"type:varchar(50);not null;uniqueIndex"`
	ProductID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Status      string    `gorm:"type:varchar(20);not null;index"`
	PlannedDate time.Time `gorm:"type:date;not null;index"`

	PlannedItemsJSON string `gorm:"column:planned_items;type:jsonb;not null;default:'[]'"`
	PlannedNotes     string `gorm:"type:text"`

	InsufficientMaterialsJSON string `gorm:"column:insufficient_materials;type:jsonb;default:'[]'"`

	ActualItemsJSON     string `gorm:"column:actual_items;type:jsonb;default:'[]'"`
	ActualMaterialsJSON string `gorm:"column:actual_materials;type:jsonb;default:'[]'"`

	MaterialCost      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	BottleCost        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalCost         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UnitCostPerML     decimal.Decimal `gorm:"type:decimal(18,8);not null;default:0"`
	CostBreakdownJSON string          `gorm:"column:cost_breakdown;type:jsonb"`

	CreatedBy    string     `gorm:"type:varchar(100)"`
	StartedBy    string     `gorm:"type:varchar(100)"`
	StartedAt    *time.Time `gorm:""`
	CompletedBy  string     `gorm:"type:varchar(100)"`
	CompletedAt  *time.Time `gorm:""`
	CancelledBy  string     `gorm:"type:varchar(100)"`
	CancelledAt  *time.Time `gorm:""`
	CancelReason string     `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ProductionBatchModel) TableName() string {
	return "production_batches"
}

// ToDomain converts the persistence model to a domain ProductionBatch entity.
func (m *ProductionBatchModel) ToDomain() *production.ProductionBatch {
	batch := &production.ProductionBatch{
		BaseEntity:    m.BaseModel.ToDomain(),
		BatchCode:     m.BatchCode,
		ProductID:     m.ProductID,
		Status:        production.BatchStatus(m.Status),
		PlannedDate:   m.PlannedDate,
		PlannedNotes:  m.PlannedNotes,
		MaterialCost:  m.MaterialCost,
		BottleCost:    m.BottleCost,
		TotalCost:     m.TotalCost,
		UnitCostPerML: m.UnitCostPerML,
		CreatedBy:     m.CreatedBy,
		StartedBy:     m.StartedBy,
		StartedAt:     m.StartedAt,
		CompletedBy:   m.CompletedBy,
		CompletedAt:   m.CompletedAt,
		CancelledBy:   m.CancelledBy,
		CancelledAt:   m.CancelledAt,
		CancelReason:  m.CancelReason,
	}
	unmarshalJSON(m.PlannedItemsJSON, &batch.PlannedItems)
	unmarshalJSON(m.InsufficientMaterialsJSON, &batch.InsufficientMaterials)
	unmarshalJSON(m.ActualItemsJSON, &batch.ActualItems)
	unmarshalJSON(m.ActualMaterialsJSON, &batch.ActualMaterials)
	if m.CostBreakdownJSON != "" {
		var breakdown production.CostBreakdown
		unmarshalJSON(m.CostBreakdownJSON, &breakdown)
		batch.CostBreakdown = &breakdown
	}
	return batch
}

// FromDomain populates the persistence model from a domain ProductionBatch entity.
func (m *ProductionBatchModel) FromDomain(b *production.ProductionBatch) {
	m.FromDomainBaseEntity(b.BaseEntity)
	m.BatchCode = b.BatchCode
	m.ProductID = b.ProductID
	m.Status = b.Status.String()
	m.PlannedDate = b.PlannedDate
	m.PlannedItemsJSON = marshalJSON(b.PlannedItems)
	m.PlannedNotes = b.PlannedNotes
	m.InsufficientMaterialsJSON = marshalJSON(b.InsufficientMaterials)
	m.ActualItemsJSON = marshalJSON(b.ActualItems)
	m.ActualMaterialsJSON = marshalJSON(b.ActualMaterials)
	m.MaterialCost = b.MaterialCost
	m.BottleCost = b.BottleCost
	m.TotalCost = b.TotalCost
	m.UnitCostPerML = b.UnitCostPerML
	if b.CostBreakdown != nil {
		m.CostBreakdownJSON = marshalJSON(b.CostBreakdown)
	} else {
		m.CostBreakdownJSON = ""
	}
	m.CreatedBy = b.CreatedBy
	m.StartedBy = b.StartedBy
	m.StartedAt = b.StartedAt
	m.CompletedBy = b.CompletedBy
	m.CompletedAt = b.CompletedAt
	m.CancelledBy = b.CancelledBy
	m.CancelledAt = b.CancelledAt
	m.CancelReason = b.CancelReason
}

// ProductionBatchModelFromDomain creates a new persistence model from a domain ProductionBatch entity.
func ProductionBatchModelFromDomain(b *production.ProductionBatch) *ProductionBatchModel {
	m := &ProductionBatchModel{}
	m.FromDomain(b)
	return m
}

// StockConsumptionRecordModel is the persistence model for one consumption
// ledger entry. Rows are insert-only; the only delete path is the privileged
// batch cascade.
type StockConsumptionRecordModel struct {
	ID                    uuid.UUID       `gorm:"type:uuid;primary_key"`
	BatchID               uuid.UUID       `gorm:"type:uuid;not null;index"`
	LotID                 uuid.UUID       `gorm:"type:uuid;not null;index"`
	MaterialID            uuid.UUID       `gorm:"type:uuid;not null;index"`
	QuantityConsumed      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitCostAtConsumption decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt             time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StockConsumptionRecordModel) TableName() string {
	return "stock_consumption_records"
}

// ToDomain converts the persistence model to a domain StockConsumptionRecord.
func (m *StockConsumptionRecordModel) ToDomain() production.StockConsumptionRecord {
	return production.StockConsumptionRecord{
		ID:                    m.ID,
		BatchID:               m.BatchID,
		LotID:                 m.LotID,
		MaterialID:            m.MaterialID,
		QuantityConsumed:      m.QuantityConsumed,
		UnitCostAtConsumption: m.UnitCostAtConsumption,
		CreatedAt:             m.CreatedAt,
	}
}

// StockConsumptionRecordModelFromDomain creates a persistence model from a domain record.
func StockConsumptionRecordModelFromDomain(r production.StockConsumptionRecord) *StockConsumptionRecordModel {
	return &StockConsumptionRecordModel{
		ID:                    r.ID,
		BatchID:               r.BatchID,
		LotID:                 r.LotID,
		MaterialID:            r.MaterialID,
		QuantityConsumed:      r.QuantityConsumed,
		UnitCostAtConsumption: r.UnitCostAtConsumption,
		CreatedAt:             r.CreatedAt,
	}
}

// FinishedGoodModel is the persistence model for a finished goods row.
type FinishedGoodModel struct {
	BaseModel
	ProductID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	BottleTypeID     uuid.UUID       `gorm:"type:uuid;not null"`
	BatchID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity         int64           `gorm:"not null"`
	UnitCost         decimal.Decimal `gorm:"type:decimal(18,8);not null"`
	TotalCost        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ManufacturedDate time.Time       `gorm:"type:date;not null;index"`
}

// TableName returns the table name for GORM
func (FinishedGoodModel) TableName() string {
	return "finished_goods"
}

// ToDomain converts the persistence model to a domain FinishedGood entity.
func (m *FinishedGoodModel) ToDomain() *production.FinishedGood {
	return &production.FinishedGood{
		BaseEntity:       m.BaseModel.ToDomain(),
		ProductID:        m.ProductID,
		BottleTypeID:     m.BottleTypeID,
		BatchID:          m.BatchID,
		Quantity:         m.Quantity,
		UnitCost:         m.UnitCost,
		TotalCost:        m.TotalCost,
		ManufacturedDate: m.ManufacturedDate,
	}
}

// FromDomain populates the persistence model from a domain FinishedGood entity.
func (m *FinishedGoodModel) FromDomain(g *production.FinishedGood) {
	m.FromDomainBaseEntity(g.BaseEntity)
	m.ProductID = g.ProductID
	m.BottleTypeID = g.BottleTypeID
	m.BatchID = g.BatchID
	m.Quantity = g.Quantity
	m.UnitCost = g.UnitCost
	m.TotalCost = g.TotalCost
	m.ManufacturedDate = g.ManufacturedDate
}

// FinishedGoodModelFromDomain creates a new persistence model from a domain FinishedGood entity.
func FinishedGoodModelFromDomain(g *production.FinishedGood) *FinishedGoodModel {
	m := &FinishedGoodModel{}
	m.FromDomain(g)
	return m
}
