package production

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/factory/backend/internal/domain/catalog"
	"github.com/factory/backend/internal/domain/material"
	"github.com/factory/backend/internal/domain/production"
	"github.com/factory/backend/internal/domain/shared"
)

// fakeBatchRepository is an in-memory BatchRepository.
type fakeBatchRepository struct {
	batches map[uuid.UUID]*production.ProductionBatch
}

func newFakeBatchRepository() *fakeBatchRepository {
	return &fakeBatchRepository{batches: make(map[uuid.UUID]*production.ProductionBatch)}
}

func (r *fakeBatchRepository) FindByID(_ context.Context, id uuid.UUID) (*production.ProductionBatch, error) {
	b, ok := r.batches[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := *b
	return &clone, nil
}

func (r *fakeBatchRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*production.ProductionBatch, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeBatchRepository) FindByCode(_ context.Context, code string) (*production.ProductionBatch, error) {
	for _, b := range r.batches {
		if b.BatchCode == code {
			clone := *b
			return &clone, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeBatchRepository) ExistsByCode(_ context.Context, code string) (bool, error) {
	for _, b := range r.batches {
		if b.BatchCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeBatchRepository) FindAll(_ context.Context, filter shared.Filter) ([]production.ProductionBatch, error) {
	var out []production.ProductionBatch
	status, _ := filter.Filters["status"].(string)
	for _, b := range r.batches {
		if status != "" && string(b.Status) != status {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BatchCode < out[j].BatchCode })
	return out, nil
}

func (r *fakeBatchRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	all, err := r.FindAll(ctx, filter)
	return int64(len(all)), err
}

func (r *fakeBatchRepository) Save(_ context.Context, batch *production.ProductionBatch) error {
	clone := *batch
	r.batches[batch.ID] = &clone
	return nil
}

func (r *fakeBatchRepository) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.batches, id)
	return nil
}

// fakeProductRepository is an in-memory ProductRepository.
type fakeProductRepository struct {
	products map[uuid.UUID]*catalog.Product
	recipes  map[uuid.UUID][]catalog.RecipeLine
}

func newFakeProductRepository() *fakeProductRepository {
	return &fakeProductRepository{
		products: make(map[uuid.UUID]*catalog.Product),
		recipes:  make(map[uuid.UUID][]catalog.RecipeLine),
	}
}

func (r *fakeProductRepository) FindByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *fakeProductRepository) RecipeFor(_ context.Context, productID uuid.UUID) ([]catalog.RecipeLine, error) {
	return r.recipes[productID], nil
}

// fakeBottleTypeRepository is an in-memory BottleTypeRepository.
type fakeBottleTypeRepository struct {
	bottles map[uuid.UUID]*catalog.BottleType
}

func newFakeBottleTypeRepository() *fakeBottleTypeRepository {
	return &fakeBottleTypeRepository{bottles: make(map[uuid.UUID]*catalog.BottleType)}
}

func (r *fakeBottleTypeRepository) FindByID(_ context.Context, id uuid.UUID) (*catalog.BottleType, error) {
	b, ok := r.bottles[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := *b
	return &clone, nil
}

func (r *fakeBottleTypeRepository) FindByIDs(_ context.Context, ids []uuid.UUID) ([]catalog.BottleType, error) {
	var out []catalog.BottleType
	for _, id := range ids {
		if b, ok := r.bottles[id]; ok {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *fakeBottleTypeRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*catalog.BottleType, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeBottleTypeRepository) FindAll(_ context.Context, _ shared.Filter) ([]catalog.BottleType, error) {
	var out []catalog.BottleType
	for _, b := range r.bottles {
		out = append(out, *b)
	}
	return out, nil
}

func (r *fakeBottleTypeRepository) Save(_ context.Context, bottle *catalog.BottleType) error {
	clone := *bottle
	r.bottles[bottle.ID] = &clone
	return nil
}

// fakeMaterialRepository is an in-memory RawMaterialRepository.
type fakeMaterialRepository struct {
	materials map[uuid.UUID]*material.RawMaterial
}

func newFakeMaterialRepository() *fakeMaterialRepository {
	return &fakeMaterialRepository{materials: make(map[uuid.UUID]*material.RawMaterial)}
}

func (r *fakeMaterialRepository) FindByID(_ context.Context, id uuid.UUID) (*material.RawMaterial, error) {
	m, ok := r.materials[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := *m
	return &clone, nil
}

func (r *fakeMaterialRepository) FindByIDs(_ context.Context, ids []uuid.UUID) ([]material.RawMaterial, error) {
	var out []material.RawMaterial
	for _, id := range ids {
		if m, ok := r.materials[id]; ok {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *fakeMaterialRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*material.RawMaterial, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeMaterialRepository) FindAll(_ context.Context, _ shared.Filter) ([]material.RawMaterial, error) {
	var out []material.RawMaterial
	for _, m := range r.materials {
		out = append(out, *m)
	}
	return out, nil
}

func (r *fakeMaterialRepository) Save(_ context.Context, m *material.RawMaterial) error {
	clone := *m
	r.materials[m.ID] = &clone
	return nil
}

// fakeLotRepository is an in-memory RawMaterialLotRepository.
type fakeLotRepository struct {
	lots map[uuid.UUID]*material.RawMaterialLot
}

func newFakeLotRepository() *fakeLotRepository {
	return &fakeLotRepository{lots: make(map[uuid.UUID]*material.RawMaterialLot)}
}

func (r *fakeLotRepository) FindOpenByMaterial(_ context.Context, materialID uuid.UUID) ([]material.RawMaterialLot, error) {
	var out []material.RawMaterialLot
	for _, lot := range r.lots {
		if lot.MaterialID == materialID && lot.HasStock() {
			out = append(out, *lot)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AcquiredAt.Equal(out[j].AcquiredAt) {
			return out[i].AcquiredAt.Before(out[j].AcquiredAt)
		}
		return strings.Compare(out[i].ID.String(), out[j].ID.String()) < 0
	})
	return out, nil
}

func (r *fakeLotRepository) FindOpenByMaterialForUpdate(ctx context.Context, materialID uuid.UUID) ([]material.RawMaterialLot, error) {
	return r.FindOpenByMaterial(ctx, materialID)
}

func (r *fakeLotRepository) FindByMaterial(_ context.Context, materialID uuid.UUID, _ shared.Filter) ([]material.RawMaterialLot, error) {
	var out []material.RawMaterialLot
	for _, lot := range r.lots {
		if lot.MaterialID == materialID {
			out = append(out, *lot)
		}
	}
	return out, nil
}

func (r *fakeLotRepository) Create(_ context.Context, lot *material.RawMaterialLot) error {
	clone := *lot
	r.lots[lot.ID] = &clone
	return nil
}

func (r *fakeLotRepository) Save(_ context.Context, lot *material.RawMaterialLot) error {
	clone := *lot
	r.lots[lot.ID] = &clone
	return nil
}

// fakeConsumptionRepository is an in-memory ConsumptionRecordRepository.
type fakeConsumptionRepository struct {
	records []production.StockConsumptionRecord
}

func (r *fakeConsumptionRepository) CreateBatch(_ context.Context, records []production.StockConsumptionRecord) error {
	r.records = append(r.records, records...)
	return nil
}

func (r *fakeConsumptionRepository) FindByBatch(_ context.Context, batchID uuid.UUID) ([]production.StockConsumptionRecord, error) {
	var out []production.StockConsumptionRecord
	for _, rec := range r.records {
		if rec.BatchID == batchID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakeConsumptionRepository) DeleteByBatch(_ context.Context, batchID uuid.UUID) error {
	kept := r.records[:0]
	for _, rec := range r.records {
		if rec.BatchID != batchID {
			kept = append(kept, rec)
		}
	}
	r.records = kept
	return nil
}

// fakeFinishedGoodsRepository is an in-memory FinishedGoodsRepository.
type fakeFinishedGoodsRepository struct {
	goods []production.FinishedGood
}

func (r *fakeFinishedGoodsRepository) CreateBatch(_ context.Context, goods []production.FinishedGood) error {
	r.goods = append(r.goods, goods...)
	return nil
}

func (r *fakeFinishedGoodsRepository) FindByBatch(_ context.Context, batchID uuid.UUID) ([]production.FinishedGood, error) {
	var out []production.FinishedGood
	for _, g := range r.goods {
		if g.BatchID == batchID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *fakeFinishedGoodsRepository) FindByProduct(_ context.Context, productID uuid.UUID, _ shared.Filter) ([]production.FinishedGood, error) {
	var out []production.FinishedGood
	for _, g := range r.goods {
		if g.ProductID == productID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *fakeFinishedGoodsRepository) DeleteByBatch(_ context.Context, batchID uuid.UUID) error {
	kept := r.goods[:0]
	for _, g := range r.goods {
		if g.BatchID != batchID {
			kept = append(kept, g)
		}
	}
	r.goods = kept
	return nil
}

// fakeIdempotencyStore is an in-memory IdempotencyStore.
type fakeIdempotencyStore struct {
	keys map[string]bool
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{keys: make(map[string]bool)}
}

func (s *fakeIdempotencyStore) MarkProcessed(_ context.Context, key string, _ time.Duration) (bool, error) {
	if s.keys[key] {
		return false, nil
	}
	s.keys[key] = true
	return true, nil
}

func (s *fakeIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	return s.keys[key], nil
}

func (s *fakeIdempotencyStore) Close() error { return nil }

// testFixture wires a BatchService against in-memory fakes.
type testFixture struct {
	service      *BatchService
	batches      *fakeBatchRepository
	products     *fakeProductRepository
	bottles      *fakeBottleTypeRepository
	materials    *fakeMaterialRepository
	lots         *fakeLotRepository
	consumptions *fakeConsumptionRepository
	finished     *fakeFinishedGoodsRepository
}

func newTestFixture() *testFixture {
	f := &testFixture{
		batches:      newFakeBatchRepository(),
		products:     newFakeProductRepository(),
		bottles:      newFakeBottleTypeRepository(),
		materials:    newFakeMaterialRepository(),
		lots:         newFakeLotRepository(),
		consumptions: &fakeConsumptionRepository{},
		finished:     &fakeFinishedGoodsRepository{},
	}
	scope := &NoOpTransactionScope{
		BatchRepo:        f.batches,
		BottleRepo:       f.bottles,
		MaterialRepo:     f.materials,
		LotRepo:          f.lots,
		ConsumptionRepo:  f.consumptions,
		FinishedGoodRepo: f.finished,
	}
	f.service = NewBatchService(
		f.batches, f.products, f.bottles, f.materials,
		f.consumptions, f.finished, scope, zap.NewNop())
	return f
}

func (f *testFixture) addProduct(active bool) *catalog.Product {
	p := &catalog.Product{BaseEntity: shared.NewBaseEntity(), Code: "SYRUP-1", Name: "Classic Syrup", Active: active}
	f.products.products[p.ID] = p
	return p
}

func (f *testFixture) addRecipeLine(productID, materialID uuid.UUID, perLiter string) {
	f.products.recipes[productID] = append(f.products.recipes[productID], catalog.RecipeLine{
		BaseEntity:       shared.NewBaseEntity(),
		ProductID:        productID,
		MaterialID:       materialID,
		QuantityPerLiter: decimal.RequireFromString(perLiter),
	})
}

func (f *testFixture) addBottle(size string, capacityML, price, stock string) *catalog.BottleType {
	b := &catalog.BottleType{
		BaseEntity: shared.NewBaseEntity(),
		Size:       size,
		CapacityML: decimal.RequireFromString(capacityML),
		Price:      decimal.RequireFromString(price),
		Stock:      decimal.RequireFromString(stock),
	}
	f.bottles.bottles[b.ID] = b
	return b
}

func (f *testFixture) addMaterial(name, stock string) *material.RawMaterial {
	m := &material.RawMaterial{
		BaseEntity:   shared.NewBaseEntity(),
		Name:         name,
		Unit:         "kg",
		CurrentStock: decimal.RequireFromString(stock),
	}
	f.materials.materials[m.ID] = m
	return m
}

func (f *testFixture) addLot(materialID uuid.UUID, acquiredAt time.Time, quantity, unitCost string) *material.RawMaterialLot {
	lot := material.NewLot(materialID, acquiredAt, decimal.RequireFromString(quantity), decimal.RequireFromString(unitCost))
	f.lots.lots[lot.ID] = lot
	return lot
}

var testActor = Actor{Name: "operator"}

func TestBatchService_Create(t *testing.T) {
	t.Run("plans a batch with an availability snapshot", func(t *testing.T) {
		f := newTestFixture()
		product := f.addProduct(true)
		mat := f.addMaterial("Sugar", "3")
		f.addRecipeLine(product.ID, mat.ID, "2") // 2 kg per liter
		bottle := f.addBottle("1L", "1000", "0.50", "100")

		// 10 bottles of 1L need 10 L -> 20 kg sugar, only 3 on hand.
		resp, err := f.service.Create(context.Background(), testActor, CreateBatchInput{
			BatchCode:   "B-001",
			ProductID:   product.ID,
			PlannedDate: time.Now(),
			Items:       []PlannedItemInput{{BottleTypeID: bottle.ID, Quantity: 10}},
		})
		require.NoError(t, err)
		assert.Equal(t, production.BatchStatusPlanned, resp.Status)
		require.Len(t, resp.InsufficientMaterials, 1)
		line := resp.InsufficientMaterials[0]
		assert.Equal(t, mat.ID, line.MaterialID)
		assert.True(t, line.Shortage.Equal(decimal.RequireFromString("17")),
			"expected shortage 17, got %s", line.Shortage)
	})

	t.Run("shortage never blocks creation", func(t *testing.T) {
		f := newTestFixture()
		product := f.addProduct(true)
		mat := f.addMaterial("Sugar", "0")
		f.addRecipeLine(product.ID, mat.ID, "2")
		bottle := f.addBottle("1L", "1000", "0.50", "100")

		resp, err := f.service.Create(context.Background(), testActor, CreateBatchInput{
			BatchCode:   "B-002",
			ProductID:   product.ID,
			PlannedDate: time.Now(),
			Items:       []PlannedItemInput{{BottleTypeID: bottle.ID, Quantity: 10}},
		})
		require.NoError(t, err)
		assert.Equal(t, production.BatchStatusPlanned, resp.Status)
	})

	t.Run("rejects duplicate batch codes", func(t *testing.T) {
		f := newTestFixture()
		product := f.addProduct(true)
		bottle := f.addBottle("1L", "1000", "0.50", "100")
		input := CreateBatchInput{
			BatchCode:   "B-003",
			ProductID:   product.ID,
			PlannedDate: time.Now(),
			Items:       []PlannedItemInput{{BottleTypeID: bottle.ID, Quantity: 5}},
		}
		_, err := f.service.Create(context.Background(), testActor, input)
		require.NoError(t, err)

		_, err = f.service.Create(context.Background(), testActor, input)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "ALREADY_EXISTS", domainErr.Code)
	})

	t.Run("rejects unknown products", func(t *testing.T) {
		f := newTestFixture()
		bottle := f.addBottle("1L", "1000", "0.50", "100")
		_, err := f.service.Create(context.Background(), testActor, CreateBatchInput{
			BatchCode:   "B-004",
			ProductID:   uuid.New(),
			PlannedDate: time.Now(),
			Items:       []PlannedItemInput{{BottleTypeID: bottle.ID, Quantity: 5}},
		})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "NOT_FOUND", domainErr.Code)
	})

	t.Run("rejects inactive products", func(t *testing.T) {
		f := newTestFixture()
		product := f.addProduct(false)
		bottle := f.addBottle("1L", "1000", "0.50", "100")
		_, err := f.service.Create(context.Background(), testActor, CreateBatchInput{
			BatchCode:   "B-005",
			ProductID:   product.ID,
			PlannedDate: time.Now(),
			Items:       []PlannedItemInput{{BottleTypeID: bottle.ID, Quantity: 5}},
		})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "VALIDATION_ERROR", domainErr.Code)
	})
}

func TestBatchService_Start(t *testing.T) {
	t.Run("starts when stock covers the plan", func(t *testing.T) {
		f := newTestFixture()
		product := f.addProduct(true)
		mat := f.addMaterial("Sugar", "10")
		f.addRecipeLine(product.ID, mat.ID, "2")
		bottle := f.addBottle("500ml", "500", "0.40", "200")

		created, err := f.service.Create(context.Background(), testActor, CreateBatchInput{
			BatchCode:   "B-050",
			ProductID:   product.ID,
			PlannedDate: time.Now(),
			Items:       []PlannedItemInput{{BottleTypeID: bottle.ID, Quantity: 10}},
		})
		require.NoError(t, err)

		started, err := f.service.Start(context.Background(), testActor, created.ID)
		require.NoError(t, err)
		assert.Equal(t, production.BatchStatusInProgress, started.Status)
		assert.Equal(t, testActor.Name, started.StartedBy)
	})

	t.Run("blocks on a material shortfall", func(t *testing.T) {
		f := newTestFixture()
		product := f.addProduct(true)
		mat := f.addMaterial("Sugar", "4")
		f.addRecipeLine(product.ID, mat.ID, "2")
		bottle := f.addBottle("500ml", "500", "0.40", "200")

		// 10 bottles of 500ml = 5 L -> 10 kg needed, 4 on hand.
		created, err := f.service.Create(context.Background(), testActor, CreateBatchInput{
			BatchCode:   "B-051",
			ProductID:   product.ID,
			PlannedDate: time.Now(),
			Items:       []PlannedItemInput{{BottleTypeID: bottle.ID, Quantity: 10}},
		})
		require.NoError(t, err)

		_, err = f.service.Start(context.Background(), testActor, created.ID)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INSUFFICIENT_STOCK", domainErr.Code)
		assert.Contains(t, domainErr.Message, mat.ID.String())

		got, err := f.service.Get(context.Background(), created.ID)
		require.NoError(t, err)
		assert.Equal(t, production.BatchStatusPlanned, got.Status)
	})

	t.Run("starting a cancelled batch is INVALID_STATE", func(t *testing.T) {
		f := newTestFixture()
		product := f.addProduct(true)
		bottle := f.addBottle("500ml", "500", "0.40", "200")

		created, err := f.service.Create(context.Background(), testActor, CreateBatchInput{
			BatchCode:   "B-052",
			ProductID:   product.ID,
			PlannedDate: time.Now(),
			Items:       []PlannedItemInput{{BottleTypeID: bottle.ID, Quantity: 10}},
		})
		require.NoError(t, err)
		_, err = f.service.Cancel(context.Background(), testActor, created.ID, CancelBatchInput{Reason: "slot freed"})
		require.NoError(t, err)

		_, err = f.service.Start(context.Background(), testActor, created.ID)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_STATE", domainErr.Code)
	})
}

// completeFixture prepares a started batch with one material carrying two
// lots: 5 kg at 10.00 acquired first, 5 kg at 12.00 acquired a day later.
func completeFixture(t *testing.T) (*testFixture, *BatchResponse, *material.RawMaterial, *catalog.BottleType) {
	t.Helper()
	f := newTestFixture()
	product := f.addProduct(true)
	mat := f.addMaterial("Sugar", "10")
	f.addRecipeLine(product.ID, mat.ID, "2")
	bottle := f.addBottle("500ml", "500", "0.40", "200")

	day1 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	f.addLot(mat.ID, day1, "5", "10.00")
	f.addLot(mat.ID, day1.Add(24*time.Hour), "5", "12.00")

	created, err := f.service.Create(context.Background(), testActor, CreateBatchInput{
		BatchCode:   "B-100",
		ProductID:   product.ID,
		PlannedDate: day1,
		Items:       []PlannedItemInput{{BottleTypeID: bottle.ID, Quantity: 10}},
	})
	require.NoError(t, err)
	started, err := f.service.Start(context.Background(), testActor, created.ID)
	require.NoError(t, err)
	return f, started, mat, bottle
}

func TestBatchService_Complete(t *testing.T) {
	t.Run("deducts stock FIFO and costs the batch from the ledger", func(t *testing.T) {
		f, batch, mat, bottle := completeFixture(t)

		// Consume 7 kg: 5 from the 10.00 lot, 2 from the 12.00 lot = 74.00.
		resp, err := f.service.Complete(context.Background(), testActor, batch.ID, CompleteBatchInput{
			Items:     []ActualItemInput{{BottleTypeID: bottle.ID, Quantity: 100, Defects: 5}},
			Materials: []ActualMaterialInput{{MaterialID: mat.ID, QuantityUsed: decimal.RequireFromString("7")}},
		})
		require.NoError(t, err)
		assert.Equal(t, production.BatchStatusCompleted, resp.Status)
		assert.True(t, resp.MaterialCost.Equal(decimal.RequireFromString("74")),
			"expected material cost 74, got %s", resp.MaterialCost)
		// 100 bottles at 0.40 on top.
		assert.True(t, resp.TotalCost.Equal(decimal.RequireFromString("114")),
			"expected total cost 114, got %s", resp.TotalCost)

		// Aggregate counter and lot ledger both moved.
		gotMat, err := f.materials.FindByID(context.Background(), mat.ID)
		require.NoError(t, err)
		assert.True(t, gotMat.CurrentStock.Equal(decimal.RequireFromString("3")))

		open, err := f.lots.FindOpenByMaterial(context.Background(), mat.ID)
		require.NoError(t, err)
		require.Len(t, open, 1)
		assert.True(t, open[0].QuantityRemaining.Equal(decimal.RequireFromString("3")))
		assert.True(t, open[0].UnitCost.Equal(decimal.RequireFromString("12.00")))

		// Bottles were spent, defects included.
		gotBottle, err := f.bottles.FindByID(context.Background(), bottle.ID)
		require.NoError(t, err)
		assert.True(t, gotBottle.Stock.Equal(decimal.RequireFromString("100")))

		// Ledger carries one record per lot drawn from.
		records, err := f.service.ListConsumptions(context.Background(), batch.ID)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.True(t, records[0].UnitCostAtConsumption.Equal(decimal.RequireFromString("10.00")))
		assert.True(t, records[1].UnitCostAtConsumption.Equal(decimal.RequireFromString("12.00")))

		// Finished goods carry quantity net of defects.
		goods, err := f.service.ListFinishedGoods(context.Background(), batch.ID)
		require.NoError(t, err)
		require.Len(t, goods, 1)
		assert.Equal(t, int64(95), goods[0].Quantity)
	})

	t.Run("second completion gets CONFLICT and deducts nothing", func(t *testing.T) {
		f, batch, mat, bottle := completeFixture(t)
		input := CompleteBatchInput{
			Items:     []ActualItemInput{{BottleTypeID: bottle.ID, Quantity: 100}},
			Materials: []ActualMaterialInput{{MaterialID: mat.ID, QuantityUsed: decimal.RequireFromString("7")}},
		}
		_, err := f.service.Complete(context.Background(), testActor, batch.ID, input)
		require.NoError(t, err)

		_, err = f.service.Complete(context.Background(), testActor, batch.ID, input)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "CONFLICT", domainErr.Code)

		gotMat, err := f.materials.FindByID(context.Background(), mat.ID)
		require.NoError(t, err)
		assert.True(t, gotMat.CurrentStock.Equal(decimal.RequireFromString("3")),
			"stock must be deducted exactly once, got %s", gotMat.CurrentStock)
	})

	t.Run("idempotency key makes retries return the completed batch", func(t *testing.T) {
		f, batch, mat, bottle := completeFixture(t)
		f.service.SetIdempotencyStore(newFakeIdempotencyStore(), shared.DefaultIdempotencyConfig())

		input := CompleteBatchInput{
			Items:          []ActualItemInput{{BottleTypeID: bottle.ID, Quantity: 100}},
			Materials:      []ActualMaterialInput{{MaterialID: mat.ID, QuantityUsed: decimal.RequireFromString("7")}},
			IdempotencyKey: "req-abc",
		}
		first, err := f.service.Complete(context.Background(), testActor, batch.ID, input)
		require.NoError(t, err)

		second, err := f.service.Complete(context.Background(), testActor, batch.ID, input)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, production.BatchStatusCompleted, second.Status)

		gotMat, err := f.materials.FindByID(context.Background(), mat.ID)
		require.NoError(t, err)
		assert.True(t, gotMat.CurrentStock.Equal(decimal.RequireFromString("3")))
	})

	t.Run("ledger drift surfaces as INSUFFICIENT_LOTS", func(t *testing.T) {
		f := newTestFixture()
		product := f.addProduct(true)
		// Counter says 10 but the ledger only holds 6.
		mat := f.addMaterial("Sugar", "10")
		f.addRecipeLine(product.ID, mat.ID, "2")
		bottle := f.addBottle("500ml", "500", "0.40", "200")
		f.addLot(mat.ID, time.Now(), "6", "10.00")

		created, err := f.service.Create(context.Background(), testActor, CreateBatchInput{
			BatchCode:   "B-101",
			ProductID:   product.ID,
			PlannedDate: time.Now(),
			Items:       []PlannedItemInput{{BottleTypeID: bottle.ID, Quantity: 10}},
		})
		require.NoError(t, err)
		_, err = f.service.Start(context.Background(), testActor, created.ID)
		require.NoError(t, err)

		_, err = f.service.Complete(context.Background(), testActor, created.ID, CompleteBatchInput{
			Items:     []ActualItemInput{{BottleTypeID: bottle.ID, Quantity: 10}},
			Materials: []ActualMaterialInput{{MaterialID: mat.ID, QuantityUsed: decimal.RequireFromString("7")}},
		})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INSUFFICIENT_LOTS", domainErr.Code)
	})

	t.Run("insufficient bottle stock aborts completion", func(t *testing.T) {
		f := newTestFixture()
		product := f.addProduct(true)
		mat := f.addMaterial("Sugar", "10")
		f.addRecipeLine(product.ID, mat.ID, "2")
		bottle := f.addBottle("500ml", "500", "0.40", "50")
		f.addLot(mat.ID, time.Now(), "10", "10.00")

		created, err := f.service.Create(context.Background(), testActor, CreateBatchInput{
			BatchCode:   "B-102",
			ProductID:   product.ID,
			PlannedDate: time.Now(),
			Items:       []PlannedItemInput{{BottleTypeID: bottle.ID, Quantity: 10}},
		})
		require.NoError(t, err)
		_, err = f.service.Start(context.Background(), testActor, created.ID)
		require.NoError(t, err)

		_, err = f.service.Complete(context.Background(), testActor, created.ID, CompleteBatchInput{
			Items:     []ActualItemInput{{BottleTypeID: bottle.ID, Quantity: 100}},
			Materials: []ActualMaterialInput{{MaterialID: mat.ID, QuantityUsed: decimal.RequireFromString("7")}},
		})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INSUFFICIENT_STOCK", domainErr.Code)

		got, err := f.batches.FindByID(context.Background(), created.ID)
		require.NoError(t, err)
		assert.Equal(t, production.BatchStatusInProgress, got.Status)
	})

	t.Run("completing a planned batch is INVALID_STATE", func(t *testing.T) {
		f := newTestFixture()
		product := f.addProduct(true)
		mat := f.addMaterial("Sugar", "10")
		bottle := f.addBottle("500ml", "500", "0.40", "200")
		f.addLot(mat.ID, time.Now(), "10", "10.00")

		created, err := f.service.Create(context.Background(), testActor, CreateBatchInput{
			BatchCode:   "B-103",
			ProductID:   product.ID,
			PlannedDate: time.Now(),
			Items:       []PlannedItemInput{{BottleTypeID: bottle.ID, Quantity: 10}},
		})
		require.NoError(t, err)

		_, err = f.service.Complete(context.Background(), testActor, created.ID, CompleteBatchInput{
			Items:     []ActualItemInput{{BottleTypeID: bottle.ID, Quantity: 10}},
			Materials: []ActualMaterialInput{{MaterialID: mat.ID, QuantityUsed: decimal.RequireFromString("1")}},
		})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_STATE", domainErr.Code)
	})
}

func TestBatchService_Cancel(t *testing.T) {
	t.Run("cancels a planned batch without touching stock", func(t *testing.T) {
		f := newTestFixture()
		product := f.addProduct(true)
		mat := f.addMaterial("Sugar", "10")
		bottle := f.addBottle("500ml", "500", "0.40", "200")

		created, err := f.service.Create(context.Background(), testActor, CreateBatchInput{
			BatchCode:   "B-200",
			ProductID:   product.ID,
			PlannedDate: time.Now(),
			Items:       []PlannedItemInput{{BottleTypeID: bottle.ID, Quantity: 10}},
		})
		require.NoError(t, err)

		resp, err := f.service.Cancel(context.Background(), testActor, created.ID, CancelBatchInput{Reason: "line maintenance"})
		require.NoError(t, err)
		assert.Equal(t, production.BatchStatusCancelled, resp.Status)
		assert.Equal(t, "line maintenance", resp.CancelReason)

		gotMat, err := f.materials.FindByID(context.Background(), mat.ID)
		require.NoError(t, err)
		assert.True(t, gotMat.CurrentStock.Equal(decimal.RequireFromString("10")))
	})

	t.Run("cancelling a completed batch is INVALID_STATE", func(t *testing.T) {
		f, batch, mat, bottle := completeFixture(t)
		_, err := f.service.Complete(context.Background(), testActor, batch.ID, CompleteBatchInput{
			Items:     []ActualItemInput{{BottleTypeID: bottle.ID, Quantity: 100}},
			Materials: []ActualMaterialInput{{MaterialID: mat.ID, QuantityUsed: decimal.RequireFromString("7")}},
		})
		require.NoError(t, err)

		_, err = f.service.Cancel(context.Background(), testActor, batch.ID, CancelBatchInput{Reason: "oops"})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_STATE", domainErr.Code)
	})
}

func TestBatchService_Delete(t *testing.T) {
	t.Run("completed batches need a privileged actor", func(t *testing.T) {
		f, batch, mat, bottle := completeFixture(t)
		_, err := f.service.Complete(context.Background(), testActor, batch.ID, CompleteBatchInput{
			Items:     []ActualItemInput{{BottleTypeID: bottle.ID, Quantity: 100}},
			Materials: []ActualMaterialInput{{MaterialID: mat.ID, QuantityUsed: decimal.RequireFromString("7")}},
		})
		require.NoError(t, err)

		err = f.service.Delete(context.Background(), testActor, batch.ID)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "FORBIDDEN", domainErr.Code)

		err = f.service.Delete(context.Background(), Actor{Name: "admin", Privileged: true}, batch.ID)
		require.NoError(t, err)

		// The ledger and finished goods rows went with it; stock stayed spent.
		assert.Empty(t, f.consumptions.records)
		assert.Empty(t, f.finished.goods)
		gotMat, err := f.materials.FindByID(context.Background(), mat.ID)
		require.NoError(t, err)
		assert.True(t, gotMat.CurrentStock.Equal(decimal.RequireFromString("3")))
	})

	t.Run("planned batches can be deleted by anyone", func(t *testing.T) {
		f := newTestFixture()
		product := f.addProduct(true)
		bottle := f.addBottle("500ml", "500", "0.40", "200")
		created, err := f.service.Create(context.Background(), testActor, CreateBatchInput{
			BatchCode:   "B-300",
			ProductID:   product.ID,
			PlannedDate: time.Now(),
			Items:       []PlannedItemInput{{BottleTypeID: bottle.ID, Quantity: 10}},
		})
		require.NoError(t, err)

		require.NoError(t, f.service.Delete(context.Background(), testActor, created.ID))
		_, err = f.service.Get(context.Background(), created.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestBatchService_List(t *testing.T) {
	f := newTestFixture()
	product := f.addProduct(true)
	bottle := f.addBottle("500ml", "500", "0.40", "200")
	for _, code := range []string{"B-400", "B-401", "B-402"} {
		_, err := f.service.Create(context.Background(), testActor, CreateBatchInput{
			BatchCode:   code,
			ProductID:   product.ID,
			PlannedDate: time.Now(),
			Items:       []PlannedItemInput{{BottleTypeID: bottle.ID, Quantity: 10}},
		})
		require.NoError(t, err)
	}
	created, err := f.service.GetByCode(context.Background(), "B-401")
	require.NoError(t, err)
	_, err = f.service.Start(context.Background(), testActor, created.ID)
	require.NoError(t, err)

	page, err := f.service.List(context.Background(), ListFilter{Status: "in_progress"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "B-401", page.Items[0].BatchCode)
	assert.Equal(t, int64(1), page.Total)

	_, err = f.service.List(context.Background(), ListFilter{Status: "bogus"})
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "VALIDATION_ERROR", domainErr.Code)
}
