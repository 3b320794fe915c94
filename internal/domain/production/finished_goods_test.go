package production

import (
	"testing"
	"time"

	"github.com/factory/backend/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFinishedGoods(t *testing.T) {
	now := time.Now()

	completedBatch := func(t *testing.T, items []ActualItem) *ProductionBatch {
		t.Helper()
		batch := newTestBatch(t)
		require.NoError(t, batch.Start("alice", now))
		materials := []ActualMaterial{{MaterialID: uuid.New(), QuantityUsed: decimal.NewFromInt(8)}}
		require.NoError(t, batch.Complete("bob", now, items, materials, CostSummary{}))
		return batch
	}

	t.Run("One row per bottle type, net of defects", func(t *testing.T) {
		bottle := testBottle(250, 2)
		items := []ActualItem{{BottleTypeID: bottle.ID, Quantity: 100, Defects: 5}}
		batch := completedBatch(t, items)
		summary := CostSummary{
			MaterialCost:  decimal.NewFromInt(74),
			TotalVolumeML: decimal.NewFromInt(25000),
		}

		goods, err := BuildFinishedGoods(batch, summary, map[uuid.UUID]catalog.BottleType{bottle.ID: bottle}, now)
		require.NoError(t, err)
		require.Len(t, goods, 1)

		g := goods[0]
		assert.Equal(t, int64(95), g.Quantity)
		assert.Equal(t, batch.ID, g.BatchID)
		assert.Equal(t, batch.ProductID, g.ProductID)

		// 74/25000 per ml loaded onto 250ml, plus the bottle price
		expectedUnit := decimal.NewFromInt(74).Div(decimal.NewFromInt(25000)).
			Mul(decimal.NewFromInt(250)).Add(decimal.NewFromInt(2))
		assert.True(t, g.UnitCost.Equal(expectedUnit))
		assert.True(t, g.TotalCost.Equal(expectedUnit.Mul(decimal.NewFromInt(95))))
	})

	t.Run("All-defect lines produce no row", func(t *testing.T) {
		bottle := testBottle(250, 2)
		good := testBottle(500, 3)
		items := []ActualItem{
			{BottleTypeID: bottle.ID, Quantity: 10, Defects: 10},
			{BottleTypeID: good.ID, Quantity: 20, Defects: 1},
		}
		batch := completedBatch(t, items)

		goods, err := BuildFinishedGoods(batch, CostSummary{TotalVolumeML: decimal.NewFromInt(12500)},
			map[uuid.UUID]catalog.BottleType{bottle.ID: bottle, good.ID: good}, now)
		require.NoError(t, err)
		require.Len(t, goods, 1)
		assert.Equal(t, good.ID, goods[0].BottleTypeID)
		assert.Equal(t, int64(19), goods[0].Quantity)
	})

	t.Run("Unknown bottle type fails", func(t *testing.T) {
		bottle := testBottle(250, 2)
		items := []ActualItem{{BottleTypeID: bottle.ID, Quantity: 10}}
		batch := completedBatch(t, items)

		_, err := BuildFinishedGoods(batch, CostSummary{}, map[uuid.UUID]catalog.BottleType{}, now)
		assert.Error(t, err)
	})
}
