package material

import (
	"fmt"
	"sort"
	"strings"

	"github.com/factory/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LotDeduction is one step of a FIFO consumption plan: take Quantity from the
// lot at the lot's own unit cost.
type LotDeduction struct {
	LotID            uuid.UUID
	Quantity         decimal.Decimal
	UnitCost         decimal.Decimal
	TotalCost        decimal.Decimal
	RemainingInLot   decimal.Decimal
	FullyConsumed    bool
}

// ConsumptionPlan is the result of planning a FIFO deduction across the lot
// ledger of one material.
type ConsumptionPlan struct {
	MaterialID    uuid.UUID
	Deductions    []LotDeduction
	TotalQuantity decimal.Decimal
	TotalCost     decimal.Decimal
}

// WeightedAverageCost returns the blended unit cost of the planned
// consumption, zero when nothing is consumed.
func (p *ConsumptionPlan) WeightedAverageCost() decimal.Decimal {
	if p.TotalQuantity.IsZero() {
		return decimal.Zero
	}
	return p.TotalCost.Div(p.TotalQuantity)
}

// PlanFIFOConsumption walks the material's lots oldest-first (AcquiredAt
// ascending, ties broken by lot ID ascending) and takes
// min(lot remainder, still needed) from each until the requested quantity is
// satisfied. It never mutates the lots; the caller applies the plan inside
// its transaction.
//
// When the ledger holds less than requested the plan fails with
// shared.ErrInsufficientLots even if the aggregate stock counter implied
// sufficiency: counter/ledger drift must surface, not be absorbed.
func PlanFIFOConsumption(materialID uuid.UUID, requested decimal.Decimal, lots []RawMaterialLot) (*ConsumptionPlan, error) {
	if requested.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Requested quantity must be positive")
	}

	open := make([]RawMaterialLot, 0, len(lots))
	for _, lot := range lots {
		if lot.MaterialID == materialID && lot.HasStock() {
			open = append(open, lot)
		}
	}
	sort.Slice(open, func(i, j int) bool {
		if !open[i].AcquiredAt.Equal(open[j].AcquiredAt) {
			return open[i].AcquiredAt.Before(open[j].AcquiredAt)
		}
		return strings.Compare(open[i].ID.String(), open[j].ID.String()) < 0
	})

	available := decimal.Zero
	for _, lot := range open {
		available = available.Add(lot.QuantityRemaining)
	}
	if available.LessThan(requested) {
		return nil, shared.NewDomainError("INSUFFICIENT_LOTS",
			fmt.Sprintf("lot ledger for material %s holds %s but %s was requested", materialID, available, requested))
	}

	plan := &ConsumptionPlan{
		MaterialID: materialID,
		Deductions: make([]LotDeduction, 0, len(open)),
	}
	remaining := requested
	for _, lot := range open {
		if remaining.IsZero() {
			break
		}
		take := decimal.Min(remaining, lot.QuantityRemaining)
		left := lot.QuantityRemaining.Sub(take)
		plan.Deductions = append(plan.Deductions, LotDeduction{
			LotID:          lot.ID,
			Quantity:       take,
			UnitCost:       lot.UnitCost,
			TotalCost:      take.Mul(lot.UnitCost),
			RemainingInLot: left,
			FullyConsumed:  left.IsZero(),
		})
		plan.TotalQuantity = plan.TotalQuantity.Add(take)
		plan.TotalCost = plan.TotalCost.Add(take.Mul(lot.UnitCost))
		remaining = remaining.Sub(take)
	}
	return plan, nil
}
