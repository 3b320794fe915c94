package planning

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/factory/backend/internal/domain/catalog"
	"github.com/factory/backend/internal/domain/material"
	"github.com/factory/backend/internal/domain/shared"
)

// PlanService forecasts material and bottle demand plus cost for upcoming
// production. It is strictly read-only and prices everything at rolling
// averages: no consumption has happened yet, so there are no lots to cost
// against. Plans may run concurrently with batch execution against a
// possibly stale snapshot; they are advisory.
type PlanService struct {
	sellableRepo catalog.SellableProductRepository
	productRepo  catalog.ProductRepository
	bottleRepo   catalog.BottleTypeRepository
	materialRepo material.RawMaterialRepository
	orderReader  catalog.OrderItemReader
	logger       *zap.Logger
}

// NewPlanService creates a new PlanService.
func NewPlanService(
	sellableRepo catalog.SellableProductRepository,
	productRepo catalog.ProductRepository,
	bottleRepo catalog.BottleTypeRepository,
	materialRepo material.RawMaterialRepository,
	orderReader catalog.OrderItemReader,
	logger *zap.Logger,
) *PlanService {
	return &PlanService{
		sellableRepo: sellableRepo,
		productRepo:  productRepo,
		bottleRepo:   bottleRepo,
		materialRepo: materialRepo,
		orderReader:  orderReader,
		logger:       logger,
	}
}

// demandLine is one resolved unit of demand: which sellable, which bottle,
// how many, and optionally for which delivery date.
type demandLine struct {
	sellable *catalog.SellableProduct
	bottle   *catalog.BottleType
	quantity int64
	date     *time.Time
}

// HistoricalPlan expands the confirmed order items whose delivery date falls
// within [from, to] and aggregates them, overall and regrouped per delivery
// date. Sufficiency is not evaluated: the window usually reaches past the
// next stock intake.
func (s *PlanService) HistoricalPlan(ctx context.Context, input HistoricalPlanInput) (*PlanResponse, error) {
	if input.To.Before(input.From) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "plan range end precedes its start")
	}

	items, err := s.orderReader.ConfirmedInRange(ctx, input.From, input.To)
	if err != nil {
		return nil, err
	}

	resolver := newLineResolver(s)
	lines := make([]demandLine, 0, len(items))
	for _, item := range items {
		line, err := resolver.resolve(ctx, item.SellableProductID, item.VariationID, item.Quantity)
		if err != nil {
			return nil, err
		}
		date := item.DeliveryDate
		line.date = &date
		lines = append(lines, line)
	}

	response, err := s.aggregate(ctx, lines, false)
	if err != nil {
		return nil, err
	}
	response.Mode = "historical"
	response.ByDate, err = s.groupByDate(ctx, lines)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Historical plan built",
		zap.Time("from", input.From),
		zap.Time("to", input.To),
		zap.Int("order_items", len(items)))
	return response, nil
}

// ManualPlan aggregates an arbitrary caller-supplied demand list and flags
// per-material and per-bottle sufficiency against current stock.
func (s *PlanService) ManualPlan(ctx context.Context, input ManualPlanInput) (*PlanResponse, error) {
	resolver := newLineResolver(s)
	lines := make([]demandLine, 0, len(input.Lines))
	for _, in := range input.Lines {
		if in.Quantity <= 0 {
			return nil, shared.NewDomainError("VALIDATION_ERROR", "plan line quantity must be positive")
		}
		line, err := resolver.resolve(ctx, in.SellableProductID, in.VariationID, in.Quantity)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	response, err := s.aggregate(ctx, lines, true)
	if err != nil {
		return nil, err
	}
	response.Mode = "manual"
	return response, nil
}

// lineResolver resolves and memoizes the reference data a plan touches, so a
// hundred order items for the same SKU cost one round of lookups.
type lineResolver struct {
	svc       *PlanService
	sellables map[uuid.UUID]*catalog.SellableProduct
	bottles   map[uuid.UUID]*catalog.BottleType
}

func newLineResolver(svc *PlanService) *lineResolver {
	return &lineResolver{
		svc:       svc,
		sellables: make(map[uuid.UUID]*catalog.SellableProduct),
		bottles:   make(map[uuid.UUID]*catalog.BottleType),
	}
}

func (r *lineResolver) resolve(ctx context.Context, sellableID uuid.UUID, variationID *uuid.UUID, quantity int64) (demandLine, error) {
	sellable, ok := r.sellables[sellableID]
	if !ok {
		var err error
		sellable, err = r.svc.sellableRepo.FindByID(ctx, sellableID)
		if err != nil {
			return demandLine{}, err
		}
		r.sellables[sellableID] = sellable
	}

	bottleID := sellable.DefaultBottleTypeID
	if variationID != nil {
		variation, err := r.svc.sellableRepo.FindVariation(ctx, *variationID)
		if err != nil {
			return demandLine{}, err
		}
		if variation.SellableProductID != sellableID {
			return demandLine{}, shared.NewDomainError("VALIDATION_ERROR",
				fmt.Sprintf("variation %s does not belong to sellable product %s", variation.ID, sellableID))
		}
		bottleID = variation.BottleTypeID
	}

	bottle, ok := r.bottles[bottleID]
	if !ok {
		var err error
		bottle, err = r.svc.bottleRepo.FindByID(ctx, bottleID)
		if err != nil {
			return demandLine{}, err
		}
		r.bottles[bottleID] = bottle
	}

	return demandLine{sellable: sellable, bottle: bottle, quantity: quantity}, nil
}

type planKey struct {
	sellableID uuid.UUID
	bottleID   uuid.UUID
}

// aggregate folds resolved demand lines into the plan response: per
// (sellable, bottle) lines, the materials usage table, bottle usage, and
// grand totals. With sufficiency enabled, usage rows are compared against
// current stock.
func (s *PlanService) aggregate(ctx context.Context, lines []demandLine, withSufficiency bool) (*PlanResponse, error) {
	response := &PlanResponse{}

	planLines := make(map[planKey]*PlanLine)
	materialUsage := make(map[uuid.UUID]*MaterialUsage)
	bottleUsage := make(map[uuid.UUID]*BottleUsage)
	recipes := make(map[uuid.UUID][]catalog.RecipeLine)
	materials := make(map[uuid.UUID]*material.RawMaterial)

	for _, line := range lines {
		recipe, ok := recipes[line.sellable.ProductID]
		if !ok {
			var err error
			recipe, err = s.productRepo.RecipeFor(ctx, line.sellable.ProductID)
			if err != nil {
				return nil, err
			}
			recipes[line.sellable.ProductID] = recipe
		}
		if err := s.loadMaterials(ctx, recipe, materials); err != nil {
			return nil, err
		}

		qty := decimal.NewFromInt(line.quantity)
		volume := line.bottle.CapacityLiters().Mul(qty)

		costPerLiter := decimal.Zero
		for _, rl := range recipe {
			mat := materials[rl.MaterialID]
			costPerLiter = costPerLiter.Add(rl.QuantityPerLiter.Mul(mat.AveragePrice))

			usage, ok := materialUsage[rl.MaterialID]
			if !ok {
				usage = &MaterialUsage{
					MaterialID:   rl.MaterialID,
					MaterialName: mat.Name,
					Unit:         mat.Unit,
				}
				materialUsage[rl.MaterialID] = usage
			}
			needed := rl.QuantityPerLiter.Mul(volume)
			usage.Quantity = usage.Quantity.Add(needed)
			usage.Cost = usage.Cost.Add(needed.Mul(mat.AveragePrice))
		}

		materialCost := costPerLiter.Mul(volume)
		bottleCost := line.bottle.AveragePrice.Mul(qty)

		key := planKey{sellableID: line.sellable.ID, bottleID: line.bottle.ID}
		pl, ok := planLines[key]
		if !ok {
			pl = &PlanLine{
				SellableProductID:   line.sellable.ID,
				SellableProductName: line.sellable.Name,
				BottleTypeID:        line.bottle.ID,
				BottleSize:          line.bottle.Size,
			}
			planLines[key] = pl
		}
		pl.TotalQuantity += line.quantity
		pl.VolumeLiters = pl.VolumeLiters.Add(volume)
		pl.TotalMaterialCost = pl.TotalMaterialCost.Add(materialCost)
		pl.TotalBottleCost = pl.TotalBottleCost.Add(bottleCost)
		pl.TotalCost = pl.TotalCost.Add(materialCost).Add(bottleCost)

		bu, ok := bottleUsage[line.bottle.ID]
		if !ok {
			bu = &BottleUsage{BottleTypeID: line.bottle.ID, BottleSize: line.bottle.Size}
			bottleUsage[line.bottle.ID] = bu
		}
		bu.Quantity += line.quantity
		bu.Cost = bu.Cost.Add(bottleCost)

		response.TotalQuantity += line.quantity
		response.TotalVolumeLiters = response.TotalVolumeLiters.Add(volume)
		response.TotalMaterialCost = response.TotalMaterialCost.Add(materialCost)
		response.TotalBottleCost = response.TotalBottleCost.Add(bottleCost)
	}
	response.TotalCost = response.TotalMaterialCost.Add(response.TotalBottleCost)

	if withSufficiency {
		for id, usage := range materialUsage {
			mat := materials[id]
			usage.CurrentStock = mat.CurrentStock
			sufficient := mat.CurrentStock.GreaterThanOrEqual(usage.Quantity)
			usage.IsSufficient = &sufficient
		}
		for id, usage := range bottleUsage {
			bottle, err := s.bottleRepo.FindByID(ctx, id)
			if err != nil {
				return nil, err
			}
			usage.CurrentStock = bottle.Stock
			sufficient := bottle.Stock.GreaterThanOrEqual(decimal.NewFromInt(usage.Quantity))
			usage.IsSufficient = &sufficient
		}
	}

	response.Lines = sortedPlanLines(planLines)
	for _, usage := range materialUsage {
		response.Materials = append(response.Materials, *usage)
	}
	sort.Slice(response.Materials, func(i, j int) bool {
		return response.Materials[i].MaterialName < response.Materials[j].MaterialName
	})
	for _, usage := range bottleUsage {
		response.Bottles = append(response.Bottles, *usage)
	}
	sort.Slice(response.Bottles, func(i, j int) bool {
		return response.Bottles[i].BottleSize < response.Bottles[j].BottleSize
	})
	return response, nil
}

// groupByDate reruns the line aggregation per delivery date. Materials and
// sufficiency are omitted from date groups; they only matter plan-wide.
func (s *PlanService) groupByDate(ctx context.Context, lines []demandLine) ([]DateGroup, error) {
	byDate := make(map[time.Time][]demandLine)
	for _, line := range lines {
		if line.date == nil {
			continue
		}
		day := line.date.Truncate(24 * time.Hour)
		byDate[day] = append(byDate[day], line)
	}

	dates := make([]time.Time, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	groups := make([]DateGroup, 0, len(dates))
	for _, date := range dates {
		agg, err := s.aggregate(ctx, byDate[date], false)
		if err != nil {
			return nil, err
		}
		groups = append(groups, DateGroup{Date: date, Lines: agg.Lines})
	}
	return groups, nil
}

func (s *PlanService) loadMaterials(ctx context.Context, recipe []catalog.RecipeLine, cache map[uuid.UUID]*material.RawMaterial) error {
	var missing []uuid.UUID
	for _, rl := range recipe {
		if _, ok := cache[rl.MaterialID]; !ok {
			missing = append(missing, rl.MaterialID)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	found, err := s.materialRepo.FindByIDs(ctx, missing)
	if err != nil {
		return err
	}
	for i := range found {
		cache[found[i].ID] = &found[i]
	}
	for _, id := range missing {
		if _, ok := cache[id]; !ok {
			return shared.NewDomainError("NOT_FOUND", fmt.Sprintf("raw material %s not found", id))
		}
	}
	return nil
}

func sortedPlanLines(planLines map[planKey]*PlanLine) []PlanLine {
	out := make([]PlanLine, 0, len(planLines))
	for _, pl := range planLines {
		out = append(out, *pl)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SellableProductName != out[j].SellableProductName {
			return out[i].SellableProductName < out[j].SellableProductName
		}
		return out[i].BottleSize < out[j].BottleSize
	})
	return out
}
