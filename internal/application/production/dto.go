package production

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/factory/backend/internal/domain/production"
	"github.com/factory/backend/internal/domain/shared"
)

// Actor identifies who is performing an operation. Privileged actors may
// delete completed batches; everyone else is limited to non-terminal ones.
type Actor struct {
	Name       string
	Privileged bool
}

// PlannedItemInput is one bottle line of a batch plan.
type PlannedItemInput struct {
	BottleTypeID uuid.UUID `json:"bottle_type_id" binding:"required"`
	Quantity     int64     `json:"quantity" binding:"required,gt=0"`
}

// CreateBatchInput carries the data required to plan a new production batch.
type CreateBatchInput struct {
	BatchCode   string             `json:"batch_code" binding:"required"`
	ProductID   uuid.UUID          `json:"product_id" binding:"required"`
	PlannedDate time.Time          `json:"planned_date" binding:"required"`
	Items       []PlannedItemInput `json:"items" binding:"required,min=1,dive"`
	Notes       string             `json:"notes"`
}

// ActualItemInput reports the real bottle output of a completed batch.
type ActualItemInput struct {
	BottleTypeID uuid.UUID `json:"bottle_type_id" binding:"required"`
	Quantity     int64     `json:"quantity" binding:"required,gt=0"`
	Defects      int64     `json:"defects" binding:"gte=0"`
}

// ActualMaterialInput reports the real material usage of a completed batch.
type ActualMaterialInput struct {
	MaterialID   uuid.UUID       `json:"material_id" binding:"required"`
	QuantityUsed decimal.Decimal `json:"quantity_used" binding:"required"`
}

// CompleteBatchInput carries actual output and usage for batch completion.
// IdempotencyKey, when set, makes retried completions safe.
type CompleteBatchInput struct {
	Items          []ActualItemInput     `json:"items" binding:"required,min=1,dive"`
	Materials      []ActualMaterialInput `json:"materials" binding:"required,min=1,dive"`
	IdempotencyKey string                `json:"idempotency_key"`
}

// CancelBatchInput carries the reason a batch is being cancelled.
type CancelBatchInput struct {
	Reason string `json:"reason"`
}

// ListFilter narrows batch listings.
type ListFilter struct {
	Status string
	shared.Filter
}

// BatchResponse is the API-facing view of a production batch.
type BatchResponse struct {
	ID                    uuid.UUID                     `json:"id"`
	BatchCode             string                        `json:"batch_code"`
	ProductID             uuid.UUID                     `json:"product_id"`
	Status                production.BatchStatus        `json:"status"`
	PlannedDate           time.Time                     `json:"planned_date"`
	PlannedItems          []production.PlannedItem      `json:"planned_items"`
	ActualItems           []production.ActualItem       `json:"actual_items,omitempty"`
	ActualMaterials       []production.ActualMaterial   `json:"actual_materials,omitempty"`
	InsufficientMaterials []production.InsufficientLine `json:"insufficient_materials,omitempty"`
	MaterialCost          decimal.Decimal               `json:"material_cost"`
	BottleCost            decimal.Decimal               `json:"bottle_cost"`
	TotalCost             decimal.Decimal               `json:"total_cost"`
	UnitCostPerML         decimal.Decimal               `json:"unit_cost_per_ml"`
	CostBreakdown         *production.CostBreakdown     `json:"cost_breakdown,omitempty"`
	Notes                 string                        `json:"notes,omitempty"`
	CreatedBy             string                        `json:"created_by,omitempty"`
	StartedBy             string                        `json:"started_by,omitempty"`
	StartedAt             *time.Time                    `json:"started_at,omitempty"`
	CompletedBy           string                        `json:"completed_by,omitempty"`
	CompletedAt           *time.Time                    `json:"completed_at,omitempty"`
	CancelledBy           string                        `json:"cancelled_by,omitempty"`
	CancelledAt           *time.Time                    `json:"cancelled_at,omitempty"`
	CancelReason          string                        `json:"cancel_reason,omitempty"`
	CreatedAt             time.Time                     `json:"created_at"`
	UpdatedAt             time.Time                     `json:"updated_at"`
}

// AvailabilityResponse reports whether planned volume is coverable by the
// current aggregate stock counters.
type AvailabilityResponse struct {
	BatchID           uuid.UUID                     `json:"batch_id"`
	PlannedVolumeL    decimal.Decimal               `json:"planned_volume_liters"`
	IsSufficient      bool                          `json:"is_sufficient"`
	InsufficientLines []production.InsufficientLine `json:"insufficient_lines,omitempty"`
}

// ConsumptionResponse is one row of the batch consumption ledger.
type ConsumptionResponse struct {
	ID                    uuid.UUID       `json:"id"`
	BatchID               uuid.UUID       `json:"batch_id"`
	LotID                 uuid.UUID       `json:"lot_id"`
	MaterialID            uuid.UUID       `json:"material_id"`
	QuantityConsumed      decimal.Decimal `json:"quantity_consumed"`
	UnitCostAtConsumption decimal.Decimal `json:"unit_cost_at_consumption"`
	CreatedAt             time.Time       `json:"created_at"`
}

// FinishedGoodResponse is one finished goods row produced by a batch.
type FinishedGoodResponse struct {
	ID               uuid.UUID       `json:"id"`
	ProductID        uuid.UUID       `json:"product_id"`
	BottleTypeID     uuid.UUID       `json:"bottle_type_id"`
	BatchID          uuid.UUID       `json:"batch_id"`
	Quantity         int64           `json:"quantity"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	TotalCost        decimal.Decimal `json:"total_cost"`
	ManufacturedDate time.Time       `json:"manufactured_date"`
}

func toBatchResponse(b *production.ProductionBatch) *BatchResponse {
	return &BatchResponse{
		ID:                    b.ID,
		BatchCode:             b.BatchCode,
		ProductID:             b.ProductID,
		Status:                b.Status,
		PlannedDate:           b.PlannedDate,
		PlannedItems:          b.PlannedItems,
		ActualItems:           b.ActualItems,
		ActualMaterials:       b.ActualMaterials,
		InsufficientMaterials: b.InsufficientMaterials,
		MaterialCost:          b.MaterialCost,
		BottleCost:            b.BottleCost,
		TotalCost:             b.TotalCost,
		UnitCostPerML:         b.UnitCostPerML,
		CostBreakdown:         b.CostBreakdown,
		Notes:                 b.PlannedNotes,
		CreatedBy:             b.CreatedBy,
		StartedBy:             b.StartedBy,
		StartedAt:             b.StartedAt,
		CompletedBy:           b.CompletedBy,
		CompletedAt:           b.CompletedAt,
		CancelledBy:           b.CancelledBy,
		CancelledAt:           b.CancelledAt,
		CancelReason:          b.CancelReason,
		CreatedAt:             b.CreatedAt,
		UpdatedAt:             b.UpdatedAt,
	}
}

func toConsumptionResponses(records []production.StockConsumptionRecord) []ConsumptionResponse {
	out := make([]ConsumptionResponse, 0, len(records))
	for _, r := range records {
		out = append(out, ConsumptionResponse{
			ID:                    r.ID,
			BatchID:               r.BatchID,
			LotID:                 r.LotID,
			MaterialID:            r.MaterialID,
			QuantityConsumed:      r.QuantityConsumed,
			UnitCostAtConsumption: r.UnitCostAtConsumption,
			CreatedAt:             r.CreatedAt,
		})
	}
	return out
}

func toFinishedGoodResponses(goods []production.FinishedGood) []FinishedGoodResponse {
	out := make([]FinishedGoodResponse, 0, len(goods))
	for _, g := range goods {
		out = append(out, FinishedGoodResponse{
			ID:               g.ID,
			ProductID:        g.ProductID,
			BottleTypeID:     g.BottleTypeID,
			BatchID:          g.BatchID,
			Quantity:         g.Quantity,
			UnitCost:         g.UnitCost,
			TotalCost:        g.TotalCost,
			ManufacturedDate: g.ManufacturedDate,
		})
	}
	return out
}
