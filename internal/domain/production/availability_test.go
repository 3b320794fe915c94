package production

import (
	"testing"

	"github.com/factory/backend/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recipeLine(materialID uuid.UUID, perLiter float64) catalog.RecipeLine {
	return catalog.RecipeLine{
		MaterialID:       materialID,
		QuantityPerLiter: decimal.NewFromFloat(perLiter),
	}
}

func TestCheckAvailability(t *testing.T) {
	matX := uuid.New()
	matY := uuid.New()

	t.Run("Reports exact shortage", func(t *testing.T) {
		// 2 units per liter over 10 L needs 20; 15 on hand leaves 5 short.
		recipe := []catalog.RecipeLine{recipeLine(matX, 2)}
		stock := map[uuid.UUID]decimal.Decimal{matX: decimal.NewFromInt(15)}

		result := CheckAvailability(recipe, decimal.NewFromInt(10), stock)
		assert.False(t, result.IsSufficient)
		require.Len(t, result.InsufficientLines, 1)
		line := result.InsufficientLines[0]
		assert.Equal(t, matX, line.MaterialID)
		assert.True(t, line.Required.Equal(decimal.NewFromInt(20)))
		assert.True(t, line.Available.Equal(decimal.NewFromInt(15)))
		assert.True(t, line.Shortage.Equal(decimal.NewFromInt(5)))
	})

	t.Run("Sufficient stock yields no lines", func(t *testing.T) {
		recipe := []catalog.RecipeLine{recipeLine(matX, 2), recipeLine(matY, 0.5)}
		stock := map[uuid.UUID]decimal.Decimal{
			matX: decimal.NewFromInt(20),
			matY: decimal.NewFromInt(5),
		}

		result := CheckAvailability(recipe, decimal.NewFromInt(10), stock)
		assert.True(t, result.IsSufficient)
		assert.Empty(t, result.InsufficientLines)
	})

	t.Run("Unknown material counts as zero available", func(t *testing.T) {
		recipe := []catalog.RecipeLine{recipeLine(matX, 1)}

		result := CheckAvailability(recipe, decimal.NewFromInt(3), map[uuid.UUID]decimal.Decimal{})
		assert.False(t, result.IsSufficient)
		require.Len(t, result.InsufficientLines, 1)
		assert.True(t, result.InsufficientLines[0].Shortage.Equal(decimal.NewFromInt(3)))
	})

	t.Run("Zero volume is trivially sufficient", func(t *testing.T) {
		recipe := []catalog.RecipeLine{recipeLine(matX, 2)}
		result := CheckAvailability(recipe, decimal.Zero, map[uuid.UUID]decimal.Decimal{})
		assert.True(t, result.IsSufficient)
	})
}
