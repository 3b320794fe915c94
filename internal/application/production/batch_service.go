package production

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/factory/backend/internal/domain/catalog"
	"github.com/factory/backend/internal/domain/material"
	"github.com/factory/backend/internal/domain/production"
	"github.com/factory/backend/internal/domain/shared"
)

// BatchService orchestrates the production batch lifecycle: planning,
// availability checks, the FIFO stock deduction at completion, and the
// resulting cost rollup and finished goods.
type BatchService struct {
	batchRepo        production.BatchRepository
	productRepo      catalog.ProductRepository
	bottleRepo       catalog.BottleTypeRepository
	materialRepo     material.RawMaterialRepository
	consumptionRepo  production.ConsumptionRecordRepository
	finishedRepo     production.FinishedGoodsRepository
	txScope          TransactionScope
	idempotencyStore shared.IdempotencyStore
	idempotencyCfg   shared.IdempotencyConfig
	logger           *zap.Logger
}

// NewBatchService creates a new BatchService.
func NewBatchService(
	batchRepo production.BatchRepository,
	productRepo catalog.ProductRepository,
	bottleRepo catalog.BottleTypeRepository,
	materialRepo material.RawMaterialRepository,
	consumptionRepo production.ConsumptionRecordRepository,
	finishedRepo production.FinishedGoodsRepository,
	txScope TransactionScope,
	logger *zap.Logger,
) *BatchService {
	return &BatchService{
		batchRepo:       batchRepo,
		productRepo:     productRepo,
		bottleRepo:      bottleRepo,
		materialRepo:    materialRepo,
		consumptionRepo: consumptionRepo,
		finishedRepo:    finishedRepo,
		txScope:         txScope,
		idempotencyCfg:  shared.DefaultIdempotencyConfig(),
		logger:          logger,
	}
}

// SetIdempotencyStore enables idempotency-key handling for batch completion.
func (s *BatchService) SetIdempotencyStore(store shared.IdempotencyStore, cfg shared.IdempotencyConfig) {
	s.idempotencyStore = store
	s.idempotencyCfg = cfg
}

// Create plans a new batch after validating the product and the batch code.
// An availability snapshot is attached to the batch but never blocks creation:
// material may well arrive before production starts.
func (s *BatchService) Create(ctx context.Context, actor Actor, input CreateBatchInput) (*BatchResponse, error) {
	product, err := s.productRepo.FindByID(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.Active {
		return nil, shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("product %s is not active", product.Code))
	}

	exists, err := s.batchRepo.ExistsByCode(ctx, input.BatchCode)
	if err != nil {
		s.logger.Error("Failed to check batch code existence", zap.Error(err))
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", fmt.Sprintf("batch code %s is already taken", input.BatchCode))
	}

	items := make([]production.PlannedItem, 0, len(input.Items))
	for _, item := range input.Items {
		items = append(items, production.PlannedItem{
			BottleTypeID: item.BottleTypeID,
			Quantity:     item.Quantity,
		})
	}

	batch, err := production.NewProductionBatch(input.BatchCode, input.ProductID, input.PlannedDate, items, input.Notes, actor.Name)
	if err != nil {
		return nil, err
	}

	availability, err := s.checkAvailability(ctx, batch)
	if err != nil {
		return nil, err
	}
	batch.InsufficientMaterials = availability.InsufficientLines

	if err := s.batchRepo.Save(ctx, batch); err != nil {
		s.logger.Error("Failed to save batch", zap.Error(err), zap.String("batch_code", batch.BatchCode))
		return nil, err
	}

	s.logger.Info("Production batch planned",
		zap.String("batch_id", batch.ID.String()),
		zap.String("batch_code", batch.BatchCode),
		zap.Bool("materials_sufficient", availability.IsSufficient))
	return toBatchResponse(batch), nil
}

// Get retrieves a batch by ID.
func (s *BatchService) Get(ctx context.Context, id uuid.UUID) (*BatchResponse, error) {
	batch, err := s.batchRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toBatchResponse(batch), nil
}

// GetByCode retrieves a batch by its batch code.
func (s *BatchService) GetByCode(ctx context.Context, code string) (*BatchResponse, error) {
	batch, err := s.batchRepo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return toBatchResponse(batch), nil
}

// List retrieves batches with filtering and pagination.
func (s *BatchService) List(ctx context.Context, filter ListFilter) (shared.Paginated[BatchResponse], error) {
	domainFilter := filter.Filter
	if domainFilter.Page <= 0 {
		domainFilter.Page = 1
	}
	if domainFilter.PageSize <= 0 {
		domainFilter.PageSize = 20
	}
	if domainFilter.OrderBy == "" {
		domainFilter.OrderBy = "created_at"
	}
	if domainFilter.OrderDir == "" {
		domainFilter.OrderDir = "desc"
	}
	if domainFilter.Filters == nil {
		domainFilter.Filters = make(map[string]interface{})
	}
	if filter.Status != "" {
		if !production.BatchStatus(filter.Status).IsValid() {
			return shared.Paginated[BatchResponse]{}, shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("unknown batch status %q", filter.Status))
		}
		domainFilter.Filters["status"] = filter.Status
	}

	batches, err := s.batchRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return shared.Paginated[BatchResponse]{}, err
	}
	total, err := s.batchRepo.Count(ctx, domainFilter)
	if err != nil {
		return shared.Paginated[BatchResponse]{}, err
	}

	responses := make([]BatchResponse, 0, len(batches))
	for i := range batches {
		responses = append(responses, *toBatchResponse(&batches[i]))
	}
	return shared.NewPaginated(responses, total, domainFilter.Page, domainFilter.PageSize), nil
}

// CheckAvailability re-projects the batch's planned demand against the
// current aggregate material stock. Advisory only; it takes no locks and
// deducts nothing.
func (s *BatchService) CheckAvailability(ctx context.Context, id uuid.UUID) (*AvailabilityResponse, error) {
	batch, err := s.batchRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.checkAvailability(ctx, batch)
}

func (s *BatchService) checkAvailability(ctx context.Context, batch *production.ProductionBatch) (*AvailabilityResponse, error) {
	recipe, err := s.productRepo.RecipeFor(ctx, batch.ProductID)
	if err != nil {
		return nil, err
	}

	bottles, err := s.bottleLookup(ctx, s.bottleRepo, plannedBottleIDs(batch))
	if err != nil {
		return nil, err
	}
	volume, err := batch.PlannedVolumeLiters(bottles)
	if err != nil {
		return nil, err
	}

	stock, err := s.materialStock(ctx, recipe)
	if err != nil {
		return nil, err
	}

	result := production.CheckAvailability(recipe, volume, stock)
	return &AvailabilityResponse{
		BatchID:           batch.ID,
		PlannedVolumeL:    volume,
		IsSufficient:      result.IsSufficient,
		InsufficientLines: result.InsufficientLines,
	}, nil
}

// Start moves a batch into production. Availability is re-checked against
// the live counters and any shortfall blocks the start. Stock itself is not
// touched; deduction happens once, at completion, against actual usage.
func (s *BatchService) Start(ctx context.Context, actor Actor, id uuid.UUID) (*BatchResponse, error) {
	var response *BatchResponse
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		batch, err := repos.Batches().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		availability, err := s.checkAvailability(ctx, batch)
		if err != nil {
			return err
		}
		if !availability.IsSufficient {
			return shared.NewDomainError("INSUFFICIENT_STOCK",
				insufficientStockMessage(availability.InsufficientLines))
		}
		if err := batch.Start(actor.Name, time.Now()); err != nil {
			return err
		}
		if err := repos.Batches().Save(ctx, batch); err != nil {
			return err
		}
		response = toBatchResponse(batch)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Production batch started",
		zap.String("batch_id", id.String()),
		zap.String("actor", actor.Name))
	return response, nil
}

// Complete finishes a batch in one transaction: it locks the batch row,
// deducts bottle stock, runs the FIFO deduction across each material's lot
// ledger, appends the consumption records, rolls up costing and materializes
// the finished goods. Any failure rolls the whole thing back, so stock can
// never be deducted without the batch being marked completed, or vice versa.
//
// Concurrency is handled twice over: the row lock serializes concurrent
// completions so the loser sees status completed and gets CONFLICT, and the
// optional idempotency key short-circuits retried requests before they even
// open a transaction.
func (s *BatchService) Complete(ctx context.Context, actor Actor, id uuid.UUID, input CompleteBatchInput) (*BatchResponse, error) {
	if input.IdempotencyKey != "" && s.idempotencyStore != nil && s.idempotencyCfg.Enabled {
		processed, err := s.idempotencyStore.IsProcessed(ctx, s.idempotencyKeyFor(id, input.IdempotencyKey))
		if err != nil {
			s.logger.Warn("Idempotency lookup failed, proceeding without it",
				zap.Error(err), zap.String("batch_id", id.String()))
		} else if processed {
			batch, err := s.batchRepo.FindByID(ctx, id)
			if err != nil {
				return nil, err
			}
			return toBatchResponse(batch), nil
		}
	}

	now := time.Now()
	var response *BatchResponse
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		batch, err := repos.Batches().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if batch.Status == production.BatchStatusCompleted {
			return shared.NewDomainError("CONFLICT", fmt.Sprintf("batch %s is already completed", batch.BatchCode))
		}
		if !batch.CanTransition(production.BatchStatusCompleted) {
			return shared.NewDomainError("INVALID_STATE",
				fmt.Sprintf("batch %s cannot be completed from status %s", batch.BatchCode, batch.Status))
		}

		items := make([]production.ActualItem, 0, len(input.Items))
		for _, item := range input.Items {
			items = append(items, production.ActualItem{
				BottleTypeID: item.BottleTypeID,
				Quantity:     item.Quantity,
				Defects:      item.Defects,
			})
		}
		materials := make([]production.ActualMaterial, 0, len(input.Materials))
		for _, m := range input.Materials {
			materials = append(materials, production.ActualMaterial{
				MaterialID:   m.MaterialID,
				QuantityUsed: m.QuantityUsed,
			})
		}

		bottles, err := s.deductBottles(ctx, repos, items)
		if err != nil {
			return err
		}

		records, err := s.consumeMaterials(ctx, repos, batch.ID, materials, now)
		if err != nil {
			return err
		}

		summary, err := production.RollupCosts(records, items, bottles)
		if err != nil {
			return err
		}

		if err := batch.Complete(actor.Name, now, items, materials, summary); err != nil {
			return err
		}
		if err := repos.Consumptions().CreateBatch(ctx, records); err != nil {
			return err
		}
		if err := repos.Batches().Save(ctx, batch); err != nil {
			return err
		}

		goods, err := production.BuildFinishedGoods(batch, summary, bottles, now)
		if err != nil {
			return err
		}
		if len(goods) > 0 {
			if err := repos.FinishedGoods().CreateBatch(ctx, goods); err != nil {
				return err
			}
		}

		response = toBatchResponse(batch)
		return nil
	})
	if err != nil {
		if _, ok := err.(*shared.DomainError); !ok {
			s.logger.Error("Batch completion failed",
				zap.Error(err), zap.String("batch_id", id.String()))
		}
		return nil, err
	}

	if input.IdempotencyKey != "" && s.idempotencyStore != nil && s.idempotencyCfg.Enabled {
		if _, err := s.idempotencyStore.MarkProcessed(ctx, s.idempotencyKeyFor(id, input.IdempotencyKey), s.idempotencyCfg.TTL); err != nil {
			// The row lock and status check already guarantee at-most-once;
			// a failed mark only costs a retry one extra CONFLICT.
			s.logger.Warn("Failed to mark completion as processed",
				zap.Error(err), zap.String("batch_id", id.String()))
		}
	}

	s.logger.Info("Production batch completed",
		zap.String("batch_id", id.String()),
		zap.String("actor", actor.Name),
		zap.String("total_cost", response.TotalCost.String()))
	return response, nil
}

// deductBottles locks each bottle type in a stable order and deducts the
// actual usage (defects included, broken bottles are still spent bottles).
// Returns the locked bottle types keyed by ID for costing.
func (s *BatchService) deductBottles(ctx context.Context, repos TransactionalRepositories, items []production.ActualItem) (map[uuid.UUID]catalog.BottleType, error) {
	usage := make(map[uuid.UUID]int64)
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if _, seen := usage[item.BottleTypeID]; !seen {
			ids = append(ids, item.BottleTypeID)
		}
		usage[item.BottleTypeID] += item.Quantity
	}
	// Stable lock order prevents deadlocks between concurrent completions.
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	bottles := make(map[uuid.UUID]catalog.BottleType, len(ids))
	for _, id := range ids {
		bottle, err := repos.Bottles().FindByIDForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		needed := decimal.NewFromInt(usage[id])
		if err := bottle.Deduct(needed); err != nil {
			return nil, shared.NewDomainError("INSUFFICIENT_STOCK",
				fmt.Sprintf("bottle type %s has %s in stock but %d are needed", bottle.Size, bottle.Stock, usage[id]))
		}
		if err := repos.Bottles().Save(ctx, bottle); err != nil {
			return nil, err
		}
		bottles[id] = *bottle
	}
	return bottles, nil
}

// consumeMaterials deducts each material's aggregate counter and walks its
// lot ledger oldest-first, persisting the new lot remainders and returning
// the consumption records for the ledger.
func (s *BatchService) consumeMaterials(ctx context.Context, repos TransactionalRepositories, batchID uuid.UUID, materials []production.ActualMaterial, at time.Time) ([]production.StockConsumptionRecord, error) {
	sorted := make([]production.ActualMaterial, len(materials))
	copy(sorted, materials)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].MaterialID.String() < sorted[j].MaterialID.String()
	})

	var records []production.StockConsumptionRecord
	for _, usage := range sorted {
		mat, err := repos.Materials().FindByIDForUpdate(ctx, usage.MaterialID)
		if err != nil {
			return nil, err
		}
		if err := mat.Deduct(usage.QuantityUsed); err != nil {
			return nil, shared.NewDomainError("INSUFFICIENT_STOCK",
				fmt.Sprintf("material %s has %s %s in stock but %s is needed",
					mat.Name, mat.CurrentStock, mat.Unit, usage.QuantityUsed))
		}

		lots, err := repos.Lots().FindOpenByMaterialForUpdate(ctx, usage.MaterialID)
		if err != nil {
			return nil, err
		}
		plan, err := material.PlanFIFOConsumption(usage.MaterialID, usage.QuantityUsed, lots)
		if err != nil {
			return nil, err
		}

		byID := make(map[uuid.UUID]*material.RawMaterialLot, len(lots))
		for i := range lots {
			byID[lots[i].ID] = &lots[i]
		}
		for _, deduction := range plan.Deductions {
			lot := byID[deduction.LotID]
			lot.Deduct(deduction.Quantity)
			if err := repos.Lots().Save(ctx, lot); err != nil {
				return nil, err
			}
		}

		if err := repos.Materials().Save(ctx, mat); err != nil {
			return nil, err
		}
		records = append(records, production.RecordsFromPlan(batchID, plan, at)...)
	}
	return records, nil
}

// Cancel moves a batch to cancelled. No stock is ever returned because none
// was taken: deduction only happens at completion.
func (s *BatchService) Cancel(ctx context.Context, actor Actor, id uuid.UUID, input CancelBatchInput) (*BatchResponse, error) {
	var response *BatchResponse
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		batch, err := repos.Batches().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := batch.Cancel(actor.Name, input.Reason, time.Now()); err != nil {
			return err
		}
		if err := repos.Batches().Save(ctx, batch); err != nil {
			return err
		}
		response = toBatchResponse(batch)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Production batch cancelled",
		zap.String("batch_id", id.String()),
		zap.String("actor", actor.Name),
		zap.String("reason", input.Reason))
	return response, nil
}

// Delete removes a batch. Non-terminal and cancelled batches may be deleted
// by anyone; completed batches carry costing history and require a privileged
// actor, who also takes the consumption ledger and finished goods rows with
// them. Completed-batch deletion does NOT restore stock: it is an audit
// cleanup, not an undo.
func (s *BatchService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		batch, err := repos.Batches().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if batch.Status == production.BatchStatusCompleted {
			if !actor.Privileged {
				return shared.NewDomainError("FORBIDDEN", "completed batches can only be deleted by a privileged actor")
			}
			if err := repos.Consumptions().DeleteByBatch(ctx, id); err != nil {
				return err
			}
			if err := repos.FinishedGoods().DeleteByBatch(ctx, id); err != nil {
				return err
			}
		}
		return repos.Batches().Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.logger.Info("Production batch deleted",
		zap.String("batch_id", id.String()),
		zap.String("actor", actor.Name))
	return nil
}

// ListConsumptions returns the append-only consumption ledger of a batch.
func (s *BatchService) ListConsumptions(ctx context.Context, id uuid.UUID) ([]ConsumptionResponse, error) {
	if _, err := s.batchRepo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	records, err := s.consumptionRepo.FindByBatch(ctx, id)
	if err != nil {
		return nil, err
	}
	return toConsumptionResponses(records), nil
}

// ListFinishedGoods returns the finished goods a batch produced.
func (s *BatchService) ListFinishedGoods(ctx context.Context, id uuid.UUID) ([]FinishedGoodResponse, error) {
	if _, err := s.batchRepo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	goods, err := s.finishedRepo.FindByBatch(ctx, id)
	if err != nil {
		return nil, err
	}
	return toFinishedGoodResponses(goods), nil
}

func (s *BatchService) idempotencyKeyFor(batchID uuid.UUID, key string) string {
	return fmt.Sprintf("batch:complete:%s:%s", batchID, key)
}

func (s *BatchService) bottleLookup(ctx context.Context, repo catalog.BottleTypeRepository, ids []uuid.UUID) (map[uuid.UUID]catalog.BottleType, error) {
	bottles, err := repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	lookup := make(map[uuid.UUID]catalog.BottleType, len(bottles))
	for _, b := range bottles {
		lookup[b.ID] = b
	}
	return lookup, nil
}

// materialStock loads the aggregate stock counters for every material the
// recipe references. Materials missing from storage read as zero.
func (s *BatchService) materialStock(ctx context.Context, recipe []catalog.RecipeLine) (map[uuid.UUID]decimal.Decimal, error) {
	ids := make([]uuid.UUID, 0, len(recipe))
	for _, line := range recipe {
		ids = append(ids, line.MaterialID)
	}
	materials, err := s.materialRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	stock := make(map[uuid.UUID]decimal.Decimal, len(materials))
	for _, m := range materials {
		stock[m.ID] = m.CurrentStock
	}
	return stock, nil
}

func insufficientStockMessage(lines []production.InsufficientLine) string {
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		parts = append(parts, fmt.Sprintf("material %s short by %s (required %s, available %s)",
			line.MaterialID, line.Shortage, line.Required, line.Available))
	}
	return "insufficient material stock: " + strings.Join(parts, "; ")
}

func plannedBottleIDs(batch *production.ProductionBatch) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(batch.PlannedItems))
	ids := make([]uuid.UUID, 0, len(batch.PlannedItems))
	for _, item := range batch.PlannedItems {
		if _, ok := seen[item.BottleTypeID]; ok {
			continue
		}
		seen[item.BottleTypeID] = struct{}{}
		ids = append(ids, item.BottleTypeID)
	}
	return ids
}
