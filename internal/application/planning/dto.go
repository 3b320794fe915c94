package planning

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ManualLineInput is one caller-supplied demand line for a manual plan.
type ManualLineInput struct {
	SellableProductID uuid.UUID  `json:"sellable_product_id" binding:"required"`
	VariationID       *uuid.UUID `json:"variation_id"`
	Quantity          int64      `json:"quantity" binding:"required,gt=0"`
}

// HistoricalPlanInput selects the confirmed-order demand window to plan for.
type HistoricalPlanInput struct {
	From time.Time `json:"from" binding:"required"`
	To   time.Time `json:"to" binding:"required"`
}

// ManualPlanInput carries an arbitrary demand list to plan for.
type ManualPlanInput struct {
	Lines []ManualLineInput `json:"lines" binding:"required,min=1,dive"`
}

// PlanLine is the aggregated forecast for one (sellable product, bottle type)
// pair.
type PlanLine struct {
	SellableProductID   uuid.UUID       `json:"sellable_product_id"`
	SellableProductName string          `json:"sellable_product_name"`
	BottleTypeID        uuid.UUID       `json:"bottle_type_id"`
	BottleSize          string          `json:"bottle_size"`
	TotalQuantity       int64           `json:"total_quantity"`
	VolumeLiters        decimal.Decimal `json:"volume_liters"`
	TotalMaterialCost   decimal.Decimal `json:"total_material_cost"`
	TotalBottleCost     decimal.Decimal `json:"total_bottle_cost"`
	TotalCost           decimal.Decimal `json:"total_cost"`
}

// MaterialUsage is the forecast demand for one raw material across the whole
// plan. Sufficiency is only evaluated in manual mode.
type MaterialUsage struct {
	MaterialID   uuid.UUID       `json:"material_id"`
	MaterialName string          `json:"material_name"`
	Unit         string          `json:"unit"`
	Quantity     decimal.Decimal `json:"quantity"`
	Cost         decimal.Decimal `json:"cost"`
	CurrentStock decimal.Decimal `json:"current_stock,omitempty"`
	IsSufficient *bool           `json:"is_sufficient,omitempty"`
}

// BottleUsage is the forecast demand for one bottle type across the whole
// plan. Sufficiency is only evaluated in manual mode.
type BottleUsage struct {
	BottleTypeID uuid.UUID       `json:"bottle_type_id"`
	BottleSize   string          `json:"bottle_size"`
	Quantity     int64           `json:"quantity"`
	Cost         decimal.Decimal `json:"cost"`
	CurrentStock decimal.Decimal `json:"current_stock,omitempty"`
	IsSufficient *bool           `json:"is_sufficient,omitempty"`
}

// DateGroup is the same plan aggregation restricted to one delivery date.
// Only historical plans carry date groups.
type DateGroup struct {
	Date  time.Time  `json:"date"`
	Lines []PlanLine `json:"lines"`
}

// PlanResponse is the full production plan forecast. Every figure is derived
// from average prices; the plan mutates nothing and promises nothing.
type PlanResponse struct {
	Mode              string          `json:"mode"`
	Lines             []PlanLine      `json:"lines"`
	Materials         []MaterialUsage `json:"materials"`
	Bottles           []BottleUsage   `json:"bottles"`
	ByDate            []DateGroup     `json:"by_date,omitempty"`
	TotalQuantity     int64           `json:"total_quantity"`
	TotalVolumeLiters decimal.Decimal `json:"total_volume_liters"`
	TotalMaterialCost decimal.Decimal `json:"total_material_cost"`
	TotalBottleCost   decimal.Decimal `json:"total_bottle_cost"`
	TotalCost         decimal.Decimal `json:"total_cost"`
}
