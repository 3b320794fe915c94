package production

import (
	"fmt"
	"sort"

	"github.com/factory/backend/internal/domain/catalog"
	"github.com/factory/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LotCostLine is the per-lot detail inside a material cost line.
type LotCostLine struct {
	LotID    uuid.UUID       `json:"lot_id"`
	Quantity decimal.Decimal `json:"quantity"`
	UnitCost decimal.Decimal `json:"unit_cost"`
	Cost     decimal.Decimal `json:"cost"`
}

// MaterialCostLine is the rolled-up cost of one material across all lots the
// batch consumed.
type MaterialCostLine struct {
	MaterialID uuid.UUID       `json:"material_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	Cost       decimal.Decimal `json:"cost"`
	Lots       []LotCostLine   `json:"lots"`
}

// BottleCostLine is the cost of one bottle type at its completion-time price.
type BottleCostLine struct {
	BottleTypeID uuid.UUID       `json:"bottle_type_id"`
	Quantity     int64           `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Cost         decimal.Decimal `json:"cost"`
}

// CostBreakdown is the persisted per-material and per-bottle cost detail.
type CostBreakdown struct {
	Materials []MaterialCostLine `json:"materials"`
	Bottles   []BottleCostLine   `json:"bottles"`
}

// CostSummary is the rollup of a completed batch: material cost from the
// consumption ledger, bottle cost at completion-time prices, and the derived
// unit cost per milliliter. All figures are kept at full precision; rounding
// is a display concern.
type CostSummary struct {
	MaterialCost  decimal.Decimal
	BottleCost    decimal.Decimal
	TotalCost     decimal.Decimal
	TotalVolumeML decimal.Decimal
	UnitCostPerML decimal.Decimal
	Breakdown     CostBreakdown
}

// RollupCosts computes the cost summary of a batch from its consumption
// records and actual bottle usage. Every bottle type referenced by the items
// must be present in the lookup.
func RollupCosts(records []StockConsumptionRecord, items []ActualItem, bottles map[uuid.UUID]catalog.BottleType) (CostSummary, error) {
	summary := CostSummary{}

	byMaterial := make(map[uuid.UUID]*MaterialCostLine)
	order := make([]uuid.UUID, 0)
	for _, rec := range records {
		cost := rec.QuantityConsumed.Mul(rec.UnitCostAtConsumption)
		line, ok := byMaterial[rec.MaterialID]
		if !ok {
			line = &MaterialCostLine{MaterialID: rec.MaterialID}
			byMaterial[rec.MaterialID] = line
			order = append(order, rec.MaterialID)
		}
		line.Quantity = line.Quantity.Add(rec.QuantityConsumed)
		line.Cost = line.Cost.Add(cost)
		line.Lots = append(line.Lots, LotCostLine{
			LotID:    rec.LotID,
			Quantity: rec.QuantityConsumed,
			UnitCost: rec.UnitCostAtConsumption,
			Cost:     cost,
		})
		summary.MaterialCost = summary.MaterialCost.Add(cost)
	}
	sort.Slice(order, func(i, j int) bool { return order[i].String() < order[j].String() })
	for _, id := range order {
		summary.Breakdown.Materials = append(summary.Breakdown.Materials, *byMaterial[id])
	}

	for _, item := range items {
		bottle, ok := bottles[item.BottleTypeID]
		if !ok {
			return CostSummary{}, shared.NewDomainError("NOT_FOUND", fmt.Sprintf("bottle type %s not found", item.BottleTypeID))
		}
		qty := decimal.NewFromInt(item.Quantity)
		cost := bottle.Price.Mul(qty)
		summary.Breakdown.Bottles = append(summary.Breakdown.Bottles, BottleCostLine{
			BottleTypeID: item.BottleTypeID,
			Quantity:     item.Quantity,
			UnitPrice:    bottle.Price,
			Cost:         cost,
		})
		summary.BottleCost = summary.BottleCost.Add(cost)
		summary.TotalVolumeML = summary.TotalVolumeML.Add(bottle.CapacityML.Mul(qty))
	}

	summary.TotalCost = summary.MaterialCost.Add(summary.BottleCost)
	if summary.TotalVolumeML.GreaterThan(decimal.Zero) {
		summary.UnitCostPerML = summary.TotalCost.Div(summary.TotalVolumeML)
	}
	return summary, nil
}
