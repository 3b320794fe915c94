package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	materialapp "github.com/factory/backend/internal/application/material"
	productionapp "github.com/factory/backend/internal/application/production"
	"github.com/factory/backend/internal/domain/catalog"
	"github.com/factory/backend/internal/domain/material"
	"github.com/factory/backend/internal/domain/production"
	"github.com/factory/backend/internal/domain/shared"
	"github.com/factory/backend/internal/infrastructure/persistence"
	"github.com/factory/backend/internal/infrastructure/persistence/models"
)

// harness wires real repositories and services against a containerized
// PostgreSQL instance.
type harness struct {
	db           *TestDB
	batchService *productionapp.BatchService
	matService   *materialapp.MaterialService
	lotRepo      *persistence.GormRawMaterialLotRepository
	materialRepo *persistence.GormRawMaterialRepository
	bottleRepo   *persistence.GormBottleTypeRepository
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	tdb := NewSharedTestDB(t)
	tdb.CleanTables()

	log := zap.NewNop()
	batchRepo := persistence.NewGormBatchRepository(tdb.DB)
	productRepo := persistence.NewGormProductRepository(tdb.DB)
	bottleRepo := persistence.NewGormBottleTypeRepository(tdb.DB)
	materialRepo := persistence.NewGormRawMaterialRepository(tdb.DB)
	lotRepo := persistence.NewGormRawMaterialLotRepository(tdb.DB)
	consumptionRepo := persistence.NewGormConsumptionRecordRepository(tdb.DB)
	finishedRepo := persistence.NewGormFinishedGoodsRepository(tdb.DB)

	batchService := productionapp.NewBatchService(
		batchRepo, productRepo, bottleRepo, materialRepo,
		consumptionRepo, finishedRepo,
		persistence.NewGormTransactionScope(tdb.DB),
		log,
	)
	matService := materialapp.NewMaterialService(
		materialRepo, lotRepo,
		persistence.NewGormMaterialTransactionScope(tdb.DB),
		log,
	)

	return &harness{
		db:           tdb,
		batchService: batchService,
		matService:   matService,
		lotRepo:      lotRepo,
		materialRepo: materialRepo,
		bottleRepo:   bottleRepo,
	}
}

func (h *harness) seedProduct(t *testing.T, code string) *catalog.Product {
	t.Helper()
	p := &catalog.Product{
		BaseEntity: shared.NewBaseEntity(),
		Code:       code,
		Name:       "Lavender Cleaner",
		Active:     true,
	}
	require.NoError(t, h.db.DB.Create(models.ProductModelFromDomain(p)).Error)
	return p
}

func (h *harness) seedRecipeLine(t *testing.T, productID, materialID uuid.UUID, perLiter string) {
	t.Helper()
	line := &catalog.RecipeLine{
		BaseEntity:       shared.NewBaseEntity(),
		ProductID:        productID,
		MaterialID:       materialID,
		QuantityPerLiter: decimal.RequireFromString(perLiter),
	}
	m := &models.RecipeLineModel{}
	m.FromDomain(line)
	require.NoError(t, h.db.DB.Create(m).Error)
}

func (h *harness) seedBottleType(t *testing.T, size, capacityML, price, stock string) *catalog.BottleType {
	t.Helper()
	b := &catalog.BottleType{
		BaseEntity:   shared.NewBaseEntity(),
		Size:         size,
		CapacityML:   decimal.RequireFromString(capacityML),
		Price:        decimal.RequireFromString(price),
		AveragePrice: decimal.RequireFromString(price),
		Stock:        decimal.RequireFromString(stock),
	}
	require.NoError(t, h.db.DB.Create(models.BottleTypeModelFromDomain(b)).Error)
	return b
}

func (h *harness) seedMaterial(t *testing.T, name, stock, avgPrice string) *material.RawMaterial {
	t.Helper()
	m := &material.RawMaterial{
		BaseEntity:   shared.NewBaseEntity(),
		Name:         name,
		Unit:         "kg",
		CurrentStock: decimal.RequireFromString(stock),
		AveragePrice: decimal.RequireFromString(avgPrice),
	}
	require.NoError(t, h.db.DB.Create(models.RawMaterialModelFromDomain(m)).Error)
	return m
}

func (h *harness) seedLot(t *testing.T, materialID uuid.UUID, acquiredAt time.Time, quantity, unitCost string) *material.RawMaterialLot {
	t.Helper()
	lot := material.NewLot(materialID, acquiredAt,
		decimal.RequireFromString(quantity), decimal.RequireFromString(unitCost))
	require.NoError(t, h.db.DB.Create(models.RawMaterialLotModelFromDomain(lot)).Error)
	return lot
}

func TestProductionFlow_CompleteWithFIFOCosting(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	h := newHarness(t)
	ctx := context.Background()
	actor := productionapp.Actor{Name: "tester"}

	product := h.seedProduct(t, "LAV-001")
	bottle := h.seedBottleType(t, "500ml", "500", "1.5", "100")
	mat := h.seedMaterial(t, "lavender oil", "25", "2.8")
	h.seedRecipeLine(t, product.ID, mat.ID, "2")

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	older := h.seedLot(t, mat.ID, base, "5", "2")
	newer := h.seedLot(t, mat.ID, base.Add(48*time.Hour), "20", "3")

	created, err := h.batchService.Create(ctx, actor, productionapp.CreateBatchInput{
		BatchCode:   "B-2026-001",
		ProductID:   product.ID,
		PlannedDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Items: []productionapp.PlannedItemInput{
			{BottleTypeID: bottle.ID, Quantity: 10},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, production.BatchStatusPlanned, created.Status)

	_, err = h.batchService.Start(ctx, actor, created.ID)
	require.NoError(t, err)

	// 10 bottles of 500ml = 5 liters, recipe needs 2 kg/l = 10 kg.
	// FIFO: 5 kg from the older lot at 2.00, 5 kg from the newer at 3.00.
	completed, err := h.batchService.Complete(ctx, actor, created.ID, productionapp.CompleteBatchInput{
		Items: []productionapp.ActualItemInput{
			{BottleTypeID: bottle.ID, Quantity: 10},
		},
		Materials: []productionapp.ActualMaterialInput{
			{MaterialID: mat.ID, QuantityUsed: decimal.RequireFromString("10")},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, production.BatchStatusCompleted, completed.Status)
	assert.True(t, completed.MaterialCost.Equal(decimal.RequireFromString("25")),
		"material cost = 5*2 + 5*3, got %s", completed.MaterialCost)
	assert.True(t, completed.BottleCost.Equal(decimal.RequireFromString("15")),
		"bottle cost = 10*1.5, got %s", completed.BottleCost)
	assert.True(t, completed.TotalCost.Equal(decimal.RequireFromString("40")))
	assert.True(t, completed.UnitCostPerML.Equal(decimal.RequireFromString("0.008")),
		"unit cost = 40/5000, got %s", completed.UnitCostPerML)

	// Lots drained in acquisition order
	lots, err := h.lotRepo.FindByMaterial(ctx, mat.ID, shared.DefaultFilter())
	require.NoError(t, err)
	require.Len(t, lots, 2)
	assert.Equal(t, older.ID, lots[0].ID)
	assert.True(t, lots[0].QuantityRemaining.IsZero())
	assert.Equal(t, newer.ID, lots[1].ID)
	assert.True(t, lots[1].QuantityRemaining.Equal(decimal.RequireFromString("15")))

	// Aggregate counters
	gotMat, err := h.materialRepo.FindByID(ctx, mat.ID)
	require.NoError(t, err)
	assert.True(t, gotMat.CurrentStock.Equal(decimal.RequireFromString("15")))

	gotBottle, err := h.bottleRepo.FindByID(ctx, bottle.ID)
	require.NoError(t, err)
	assert.True(t, gotBottle.Stock.Equal(decimal.RequireFromString("90")))

	// Consumption ledger lists both lots in FIFO order
	consumptions, err := h.batchService.ListConsumptions(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, consumptions, 2)
	assert.Equal(t, older.ID, consumptions[0].LotID)
	assert.Equal(t, newer.ID, consumptions[1].LotID)

	// Finished goods carry the per-bottle cost: 25/5000*500 + 1.5 = 4.00
	goods, err := h.batchService.ListFinishedGoods(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, goods, 1)
	assert.Equal(t, int64(10), goods[0].Quantity)
	assert.True(t, goods[0].UnitCost.Equal(decimal.RequireFromString("4")))
	assert.True(t, goods[0].TotalCost.Equal(decimal.RequireFromString("40")))
}

func TestProductionFlow_DoubleCompleteConflicts(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	h := newHarness(t)
	ctx := context.Background()
	actor := productionapp.Actor{Name: "tester"}

	product := h.seedProduct(t, "LAV-002")
	bottle := h.seedBottleType(t, "250ml", "250", "1", "50")
	mat := h.seedMaterial(t, "citrus oil", "100", "1")
	h.seedRecipeLine(t, product.ID, mat.ID, "1")
	h.seedLot(t, mat.ID, time.Now().Add(-time.Hour), "100", "1")

	created, err := h.batchService.Create(ctx, actor, productionapp.CreateBatchInput{
		BatchCode:   "B-2026-002",
		ProductID:   product.ID,
		PlannedDate: time.Now(),
		Items:       []productionapp.PlannedItemInput{{BottleTypeID: bottle.ID, Quantity: 4}},
	})
	require.NoError(t, err)
	_, err = h.batchService.Start(ctx, actor, created.ID)
	require.NoError(t, err)

	input := productionapp.CompleteBatchInput{
		Items:     []productionapp.ActualItemInput{{BottleTypeID: bottle.ID, Quantity: 4}},
		Materials: []productionapp.ActualMaterialInput{{MaterialID: mat.ID, QuantityUsed: decimal.NewFromInt(1)}},
	}
	_, err = h.batchService.Complete(ctx, actor, created.ID, input)
	require.NoError(t, err)

	_, err = h.batchService.Complete(ctx, actor, created.ID, input)
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "CONFLICT", domainErr.Code)

	// The second attempt must not have consumed anything further
	gotMat, err := h.materialRepo.FindByID(ctx, mat.ID)
	require.NoError(t, err)
	assert.True(t, gotMat.CurrentStock.Equal(decimal.NewFromInt(99)))
}

func TestProductionFlow_InsufficientLotsRollsBack(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	h := newHarness(t)
	ctx := context.Background()
	actor := productionapp.Actor{Name: "tester"}

	product := h.seedProduct(t, "LAV-003")
	bottle := h.seedBottleType(t, "1000ml", "1000", "2", "30")
	// Counter says 10 in stock, but the only lot holds 4: ledger drift.
	mat := h.seedMaterial(t, "pine oil", "10", "5")
	h.seedRecipeLine(t, product.ID, mat.ID, "1")
	h.seedLot(t, mat.ID, time.Now().Add(-time.Hour), "4", "5")

	created, err := h.batchService.Create(ctx, actor, productionapp.CreateBatchInput{
		BatchCode:   "B-2026-003",
		ProductID:   product.ID,
		PlannedDate: time.Now(),
		Items:       []productionapp.PlannedItemInput{{BottleTypeID: bottle.ID, Quantity: 8}},
	})
	require.NoError(t, err)
	_, err = h.batchService.Start(ctx, actor, created.ID)
	require.NoError(t, err)

	_, err = h.batchService.Complete(ctx, actor, created.ID, productionapp.CompleteBatchInput{
		Items:     []productionapp.ActualItemInput{{BottleTypeID: bottle.ID, Quantity: 8}},
		Materials: []productionapp.ActualMaterialInput{{MaterialID: mat.ID, QuantityUsed: decimal.NewFromInt(8)}},
	})
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INSUFFICIENT_LOTS", domainErr.Code)

	// Whole transaction rolled back: bottles untouched, batch still running
	gotBottle, err := h.bottleRepo.FindByID(ctx, bottle.ID)
	require.NoError(t, err)
	assert.True(t, gotBottle.Stock.Equal(decimal.NewFromInt(30)))

	got, err := h.batchService.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, production.BatchStatusInProgress, got.Status)
}

func TestMaterialIntake_UpdatesCountersAndCreatesLot(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	h := newHarness(t)
	ctx := context.Background()

	mat := h.seedMaterial(t, "mint extract", "10", "10")

	lot, err := h.matService.Intake(ctx, mat.ID, materialapp.IntakeInput{
		Quantity: decimal.RequireFromString("10"),
		UnitCost: decimal.RequireFromString("20"),
	})
	require.NoError(t, err)
	assert.Equal(t, mat.ID, lot.MaterialID)

	got, err := h.matService.Get(ctx, mat.ID)
	require.NoError(t, err)
	assert.True(t, got.CurrentStock.Equal(decimal.NewFromInt(20)))
	assert.True(t, got.AveragePrice.Equal(decimal.NewFromInt(15)),
		"moving average = (10*10 + 10*20) / 20, got %s", got.AveragePrice)

	lots, err := h.lotRepo.FindOpenByMaterial(ctx, mat.ID)
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.True(t, lots[0].QuantityRemaining.Equal(decimal.NewFromInt(10)))
	assert.True(t, lots[0].UnitCost.Equal(decimal.NewFromInt(20)))
}
