package production

import (
	"fmt"
	"strings"
	"time"

	"github.com/factory/backend/internal/domain/catalog"
	"github.com/factory/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BatchStatus is the lifecycle state of a production batch
type BatchStatus string

const (
	// BatchStatusPlanned is the initial state after creation
	BatchStatusPlanned BatchStatus = "planned"
	// BatchStatusInProgress means production has started
	BatchStatusInProgress BatchStatus = "in_progress"
	// BatchStatusCompleted is terminal; stock has been deducted exactly once
	BatchStatusCompleted BatchStatus = "completed"
	// BatchStatusCancelled is terminal; no stock was deducted
	BatchStatusCancelled BatchStatus = "cancelled"
)

// IsValid checks if the status is a known lifecycle state
func (s BatchStatus) IsValid() bool {
	switch s {
	case BatchStatusPlanned, BatchStatusInProgress, BatchStatusCompleted, BatchStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed
func (s BatchStatus) IsTerminal() bool {
	return s == BatchStatusCompleted || s == BatchStatusCancelled
}

// String returns the string representation
func (s BatchStatus) String() string {
	return string(s)
}

// PlannedItem is one bottle line of the production plan.
type PlannedItem struct {
	BottleTypeID uuid.UUID `json:"bottle_type_id"`
	Quantity     int64     `json:"quantity"`
}

// ActualItem is one bottle line of the realized output, defects included.
type ActualItem struct {
	BottleTypeID uuid.UUID `json:"bottle_type_id"`
	Quantity     int64     `json:"quantity"`
	Defects      int64     `json:"defects"`
}

// GoodQuantity returns the sellable output of the line, quantity net of
// defects, floored at zero.
func (i ActualItem) GoodQuantity() int64 {
	if good := i.Quantity - i.Defects; good > 0 {
		return good
	}
	return 0
}

// ActualMaterial is the realized consumption of one raw material.
type ActualMaterial struct {
	MaterialID   uuid.UUID       `json:"material_id"`
	QuantityUsed decimal.Decimal `json:"quantity_used"`
}

// ProductionBatch is one production run converting raw materials and bottles
// into finished goods of one product. Status only ever moves forward:
// planned -> in_progress -> completed, with cancellation allowed from the two
// non-terminal states.
type ProductionBatch struct {
	shared.BaseEntity
	BatchCode   string
	ProductID   uuid.UUID
	Status      BatchStatus
	PlannedDate time.Time

	PlannedItems []PlannedItem
	PlannedNotes string

	// InsufficientMaterials is the non-blocking availability snapshot taken
	// at planning time. It is advisory; start re-checks against live stock.
	InsufficientMaterials []InsufficientLine

	ActualItems     []ActualItem
	ActualMaterials []ActualMaterial

	MaterialCost  decimal.Decimal
	BottleCost    decimal.Decimal
	TotalCost     decimal.Decimal
	UnitCostPerML decimal.Decimal
	CostBreakdown *CostBreakdown

	CreatedBy    string
	StartedBy    string
	StartedAt    *time.Time
	CompletedBy  string
	CompletedAt  *time.Time
	CancelledBy  string
	CancelledAt  *time.Time
	CancelReason string
}

// NewProductionBatch creates a batch in the planned state.
func NewProductionBatch(batchCode string, productID uuid.UUID, plannedDate time.Time, items []PlannedItem, notes, createdBy string) (*ProductionBatch, error) {
	if strings.TrimSpace(batchCode) == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "batch code is required")
	}
	hasQuantity := false
	for _, item := range items {
		if item.Quantity < 0 {
			return nil, shared.NewDomainError("VALIDATION_ERROR", "planned item quantity cannot be negative")
		}
		if item.Quantity > 0 {
			hasQuantity = true
		}
	}
	if !hasQuantity {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "at least one planned item must have a positive quantity")
	}
	return &ProductionBatch{
		BaseEntity:   shared.NewBaseEntity(),
		BatchCode:    strings.TrimSpace(batchCode),
		ProductID:    productID,
		Status:       BatchStatusPlanned,
		PlannedDate:  plannedDate,
		PlannedItems: items,
		PlannedNotes: notes,
		CreatedBy:    createdBy,
	}, nil
}

// PlannedVolumeLiters sums the planned bottle volume in liters. Bottle types
// missing from the lookup yield an error rather than a silent zero.
func (b *ProductionBatch) PlannedVolumeLiters(bottles map[uuid.UUID]catalog.BottleType) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, item := range b.PlannedItems {
		bottle, ok := bottles[item.BottleTypeID]
		if !ok {
			return decimal.Zero, shared.NewDomainError("NOT_FOUND", fmt.Sprintf("bottle type %s not found", item.BottleTypeID))
		}
		total = total.Add(bottle.CapacityLiters().Mul(decimal.NewFromInt(item.Quantity)))
	}
	return total, nil
}

// Start moves the batch from planned to in_progress.
func (b *ProductionBatch) Start(actor string, at time.Time) error {
	if err := b.ensureTransition(BatchStatusInProgress); err != nil {
		return err
	}
	b.Status = BatchStatusInProgress
	b.StartedBy = actor
	b.StartedAt = &at
	b.UpdatedAt = at
	return nil
}

// Complete moves the batch from in_progress to completed, recording the
// realized output, consumption and costing. The caller is responsible for
// stock deduction and the finished goods rows; Complete only guards the state
// machine and the payload shape.
func (b *ProductionBatch) Complete(actor string, at time.Time, items []ActualItem, materials []ActualMaterial, summary CostSummary) error {
	if b.Status == BatchStatusCompleted {
		return shared.NewDomainError("CONFLICT", fmt.Sprintf("batch %s is already completed", b.BatchCode))
	}
	if err := b.ensureTransition(BatchStatusCompleted); err != nil {
		return err
	}
	if len(items) == 0 {
		return shared.NewDomainError("VALIDATION_ERROR", "completion requires at least one actual item")
	}
	if len(materials) == 0 {
		return shared.NewDomainError("VALIDATION_ERROR", "completion requires at least one actual material")
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return shared.NewDomainError("VALIDATION_ERROR", "actual item quantity must be positive")
		}
		if item.Defects < 0 || item.Defects > item.Quantity {
			return shared.NewDomainError("VALIDATION_ERROR", "defects must be between zero and the item quantity")
		}
	}
	for _, m := range materials {
		if m.QuantityUsed.LessThanOrEqual(decimal.Zero) {
			return shared.NewDomainError("VALIDATION_ERROR", "actual material quantity must be positive")
		}
	}

	b.Status = BatchStatusCompleted
	b.ActualItems = items
	b.ActualMaterials = materials
	b.MaterialCost = summary.MaterialCost
	b.BottleCost = summary.BottleCost
	b.TotalCost = summary.TotalCost
	b.UnitCostPerML = summary.UnitCostPerML
	breakdown := summary.Breakdown
	b.CostBreakdown = &breakdown
	b.CompletedBy = actor
	b.CompletedAt = &at
	b.UpdatedAt = at
	return nil
}

// Cancel moves the batch to cancelled from either non-terminal state.
func (b *ProductionBatch) Cancel(actor, reason string, at time.Time) error {
	if err := b.ensureTransition(BatchStatusCancelled); err != nil {
		return err
	}
	b.Status = BatchStatusCancelled
	b.CancelledBy = actor
	b.CancelledAt = &at
	b.CancelReason = reason
	b.UpdatedAt = at
	return nil
}

// CanTransition reports whether the batch may move to the target status.
func (b *ProductionBatch) CanTransition(target BatchStatus) bool {
	switch target {
	case BatchStatusInProgress:
		return b.Status == BatchStatusPlanned
	case BatchStatusCompleted:
		return b.Status == BatchStatusInProgress
	case BatchStatusCancelled:
		return b.Status == BatchStatusPlanned || b.Status == BatchStatusInProgress
	}
	return false
}

func (b *ProductionBatch) ensureTransition(target BatchStatus) error {
	if b.CanTransition(target) {
		return nil
	}
	return shared.NewDomainError("INVALID_STATE",
		fmt.Sprintf("batch %s cannot move from %s to %s", b.BatchCode, b.Status, target))
}
