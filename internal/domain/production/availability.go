package production

import (
	"github.com/factory/backend/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InsufficientLine describes one material shortfall found by an availability
// check.
type InsufficientLine struct {
	MaterialID uuid.UUID       `json:"material_id"`
	Required   decimal.Decimal `json:"required"`
	Available  decimal.Decimal `json:"available"`
	Shortage   decimal.Decimal `json:"shortage"`
}

// AvailabilityResult is the outcome of projecting recipe demand against the
// aggregate stock counters.
type AvailabilityResult struct {
	IsSufficient      bool               `json:"is_sufficient"`
	InsufficientLines []InsufficientLine `json:"insufficient_lines,omitempty"`
}

// CheckAvailability projects the recipe demand for volumeLiters of product
// against the aggregate stock of each material. Only the counters are
// consulted; lot-level detail is irrelevant to a yes/no availability answer.
// Materials missing from the stock lookup count as zero available.
func CheckAvailability(recipe []catalog.RecipeLine, volumeLiters decimal.Decimal, stock map[uuid.UUID]decimal.Decimal) AvailabilityResult {
	result := AvailabilityResult{IsSufficient: true}
	for _, line := range recipe {
		required := line.RequiredFor(volumeLiters)
		if required.LessThanOrEqual(decimal.Zero) {
			continue
		}
		available := stock[line.MaterialID]
		if available.GreaterThanOrEqual(required) {
			continue
		}
		result.IsSufficient = false
		result.InsufficientLines = append(result.InsufficientLines, InsufficientLine{
			MaterialID: line.MaterialID,
			Required:   required,
			Available:  available,
			Shortage:   required.Sub(available),
		})
	}
	return result
}
