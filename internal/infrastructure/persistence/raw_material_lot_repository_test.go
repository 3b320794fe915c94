package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/factory/backend/internal/domain/material"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormRawMaterialLotRepository_FindOpenByMaterial(t *testing.T) {
	t.Run("queries open lots in acquisition order", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormRawMaterialLotRepository(gormDB)

		materialID := uuid.New()
		firstID := uuid.New()
		secondID := uuid.New()
		day1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		day2 := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

		rows := sqlmock.NewRows([]string{
			"id", "material_id", "acquired_at", "quantity_remaining", "unit_cost",
		}).
			AddRow(firstID, materialID, day1, decimal.NewFromInt(10), decimal.NewFromInt(10)).
			AddRow(secondID, materialID, day2, decimal.NewFromInt(5), decimal.NewFromInt(12))

		mock.ExpectQuery(`SELECT \* FROM "raw_material_lots" WHERE material_id = \$1 AND quantity_remaining > 0 ORDER BY acquired_at ASC, id ASC`).
			WithArgs(materialID).
			WillReturnRows(rows)

		lots, err := repo.FindOpenByMaterial(context.Background(), materialID)
		require.NoError(t, err)
		require.Len(t, lots, 2)
		assert.Equal(t, firstID, lots[0].ID)
		assert.Equal(t, secondID, lots[1].ID)
		assert.True(t, lots[0].UnitCost.Equal(decimal.NewFromInt(10)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("locking variant appends FOR UPDATE", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormRawMaterialLotRepository(gormDB)

		materialID := uuid.New()
		rows := sqlmock.NewRows([]string{
			"id", "material_id", "acquired_at", "quantity_remaining", "unit_cost",
		})

		mock.ExpectQuery(`SELECT \* FROM "raw_material_lots" WHERE material_id = \$1 AND quantity_remaining > 0 ORDER BY acquired_at ASC, id ASC FOR UPDATE`).
			WithArgs(materialID).
			WillReturnRows(rows)

		lots, err := repo.FindOpenByMaterialForUpdate(context.Background(), materialID)
		require.NoError(t, err)
		assert.Empty(t, lots)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func materialLotFixture(materialID uuid.UUID) *material.RawMaterialLot {
	return material.NewLot(
		materialID,
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		decimal.NewFromInt(10),
		decimal.NewFromInt(10),
	)
}

func TestGormRawMaterialLotRepository_Create(t *testing.T) {
	t.Run("inserts a ledger row", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormRawMaterialLotRepository(gormDB)

		lot := materialLotFixture(uuid.New())
		mock.ExpectExec(`INSERT INTO "raw_material_lots"`).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := repo.Create(context.Background(), lot)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
