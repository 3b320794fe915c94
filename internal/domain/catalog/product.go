package catalog

import (
	"github.com/factory/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a manufactured product. A product owns a recipe that states how
// much of each raw material one liter of finished product consumes.
type Product struct {
	shared.BaseEntity
	Code        string
	Name        string
	Description string
	Active      bool
}

// RecipeLine states the consumption rate of one raw material for a product.
// QuantityPerLiter is expressed in the material's own unit per liter of
// finished product.
type RecipeLine struct {
	shared.BaseEntity
	ProductID        uuid.UUID
	MaterialID       uuid.UUID
	QuantityPerLiter decimal.Decimal
}

// RequiredFor returns the material quantity needed to produce the given
// volume in liters.
func (l RecipeLine) RequiredFor(volumeLiters decimal.Decimal) decimal.Decimal {
	return l.QuantityPerLiter.Mul(volumeLiters)
}
