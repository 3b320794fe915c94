package catalog

import (
	"github.com/factory/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

var millilitersPerLiter = decimal.NewFromInt(1000)

// BottleType is a packaging unit. Bottles are a simple counted stock, not a
// lot ledger: Price is the cost applied when a batch consumes bottles,
// AveragePrice is the rolling purchase average used by planning forecasts.
type BottleType struct {
	shared.BaseEntity
	Size         string
	CapacityML   decimal.Decimal
	Price        decimal.Decimal
	AveragePrice decimal.Decimal
	Stock        decimal.Decimal
}

// CapacityLiters returns the bottle capacity in liters.
func (b *BottleType) CapacityLiters() decimal.Decimal {
	return b.CapacityML.Div(millilitersPerLiter)
}

// HasStock reports whether at least quantity bottles are on hand.
func (b *BottleType) HasStock(quantity decimal.Decimal) bool {
	return b.Stock.GreaterThanOrEqual(quantity)
}

// Deduct removes quantity bottles from stock. The caller must have verified
// availability; Deduct returns shared.ErrInsufficientStock otherwise so a
// racing writer can never push the counter negative.
func (b *BottleType) Deduct(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.ErrInvalidInput
	}
	if b.Stock.LessThan(quantity) {
		return shared.ErrInsufficientStock
	}
	b.Stock = b.Stock.Sub(quantity)
	return nil
}

// Restock adds quantity bottles to stock.
func (b *BottleType) Restock(quantity decimal.Decimal) {
	b.Stock = b.Stock.Add(quantity)
}
