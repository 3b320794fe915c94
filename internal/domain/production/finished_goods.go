package production

import (
	"fmt"
	"time"

	"github.com/factory/backend/internal/domain/catalog"
	"github.com/factory/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FinishedGood is warehouse-ready inventory materialized from a completed
// batch: one row per bottle type, quantity net of defects.
type FinishedGood struct {
	shared.BaseEntity
	ProductID        uuid.UUID
	BottleTypeID     uuid.UUID
	BatchID          uuid.UUID
	Quantity         int64
	UnitCost         decimal.Decimal
	TotalCost        decimal.Decimal
	ManufacturedDate time.Time
}

// BuildFinishedGoods derives the finished goods rows for a completed batch.
// Unit cost loads the batch's material cost onto each bottle by capacity
// share, then adds the bottle's own price. Lines whose good quantity is zero
// or negative produce no row: defects stay on the batch record, they are
// never costed into sellable inventory.
func BuildFinishedGoods(batch *ProductionBatch, summary CostSummary, bottles map[uuid.UUID]catalog.BottleType, manufacturedAt time.Time) ([]FinishedGood, error) {
	var goods []FinishedGood
	for _, item := range batch.ActualItems {
		good := item.GoodQuantity()
		if good <= 0 {
			continue
		}
		bottle, ok := bottles[item.BottleTypeID]
		if !ok {
			return nil, shared.NewDomainError("NOT_FOUND", fmt.Sprintf("bottle type %s not found", item.BottleTypeID))
		}
		materialCostPerML := decimal.Zero
		if summary.TotalVolumeML.GreaterThan(decimal.Zero) {
			materialCostPerML = summary.MaterialCost.Div(summary.TotalVolumeML)
		}
		unitCost := materialCostPerML.Mul(bottle.CapacityML).Add(bottle.Price)
		goods = append(goods, FinishedGood{
			BaseEntity:       shared.NewBaseEntity(),
			ProductID:        batch.ProductID,
			BottleTypeID:     item.BottleTypeID,
			BatchID:          batch.ID,
			Quantity:         good,
			UnitCost:         unitCost,
			TotalCost:        unitCost.Mul(decimal.NewFromInt(good)),
			ManufacturedDate: manufacturedAt,
		})
	}
	return goods, nil
}
