package material

import (
	"time"

	"github.com/factory/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RawMaterial is a purchased input to production. CurrentStock is an
// aggregate counter maintained alongside the lot ledger; both are written in
// the same transaction so they cannot drift silently, and the FIFO engine
// surfaces INSUFFICIENT_LOTS if they ever do.
type RawMaterial struct {
	shared.BaseEntity
	Name         string
	Unit         string
	CurrentStock decimal.Decimal
	AveragePrice decimal.Decimal
}

// Deduct removes quantity from the aggregate counter.
func (m *RawMaterial) Deduct(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.ErrInvalidInput
	}
	if m.CurrentStock.LessThan(quantity) {
		return shared.ErrInsufficientStock
	}
	m.CurrentStock = m.CurrentStock.Sub(quantity)
	return nil
}

// Receive adds a new acquisition to the aggregate counter and folds its cost
// into the rolling average price.
func (m *RawMaterial) Receive(quantity, unitCost decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) || unitCost.IsNegative() {
		return shared.ErrInvalidInput
	}
	newStock := m.CurrentStock.Add(quantity)
	if !newStock.IsZero() {
		totalValue := m.CurrentStock.Mul(m.AveragePrice).Add(quantity.Mul(unitCost))
		m.AveragePrice = totalValue.Div(newStock)
	}
	m.CurrentStock = newStock
	return nil
}

// RawMaterialLot is one dated acquisition of a raw material with its own unit
// cost. Lots form an append-only ledger consumed oldest-first.
type RawMaterialLot struct {
	shared.BaseEntity
	MaterialID        uuid.UUID
	AcquiredAt        time.Time
	QuantityRemaining decimal.Decimal
	UnitCost          decimal.Decimal
}

// NewLot creates a lot for a fresh acquisition.
func NewLot(materialID uuid.UUID, acquiredAt time.Time, quantity, unitCost decimal.Decimal) *RawMaterialLot {
	return &RawMaterialLot{
		BaseEntity:        shared.NewBaseEntity(),
		MaterialID:        materialID,
		AcquiredAt:        acquiredAt,
		QuantityRemaining: quantity,
		UnitCost:          unitCost,
	}
}

// HasStock reports whether the lot still has quantity to give.
func (l *RawMaterialLot) HasStock() bool {
	return l.QuantityRemaining.GreaterThan(decimal.Zero)
}

// Deduct reduces the lot's remaining quantity. Returns the quantity actually
// deducted, which is capped at the remainder so it can never go negative.
func (l *RawMaterialLot) Deduct(quantity decimal.Decimal) decimal.Decimal {
	if quantity.GreaterThan(l.QuantityRemaining) {
		deducted := l.QuantityRemaining
		l.QuantityRemaining = decimal.Zero
		l.UpdatedAt = time.Now()
		return deducted
	}
	l.QuantityRemaining = l.QuantityRemaining.Sub(quantity)
	l.UpdatedAt = time.Now()
	return quantity
}
