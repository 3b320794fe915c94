package production

import (
	"time"

	"github.com/factory/backend/internal/domain/material"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockConsumptionRecord is one append-only ledger entry tying a batch to the
// lot it drew from, at the lot's unit cost as of consumption. Records are
// immutable once written and are the sole basis for costing a batch.
type StockConsumptionRecord struct {
	ID                    uuid.UUID
	BatchID               uuid.UUID
	LotID                 uuid.UUID
	MaterialID            uuid.UUID
	QuantityConsumed      decimal.Decimal
	UnitCostAtConsumption decimal.Decimal
	CreatedAt             time.Time
}

// RecordsFromPlan turns a FIFO consumption plan into the audit records the
// batch will carry.
func RecordsFromPlan(batchID uuid.UUID, plan *material.ConsumptionPlan, at time.Time) []StockConsumptionRecord {
	records := make([]StockConsumptionRecord, 0, len(plan.Deductions))
	for _, d := range plan.Deductions {
		records = append(records, StockConsumptionRecord{
			ID:                    uuid.New(),
			BatchID:               batchID,
			LotID:                 d.LotID,
			MaterialID:            plan.MaterialID,
			QuantityConsumed:      d.Quantity,
			UnitCostAtConsumption: d.UnitCost,
			CreatedAt:             at,
		})
	}
	return records
}
