package production

import (
	"context"

	"github.com/factory/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// BatchRepository persists production batches.
type BatchRepository interface {
	// FindByID finds a batch by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*ProductionBatch, error)

	// FindByIDForUpdate locks the batch row for the duration of the
	// surrounding transaction before returning it
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*ProductionBatch, error)

	// FindByCode finds a batch by its unique batch code
	FindByCode(ctx context.Context, code string) (*ProductionBatch, error)

	// ExistsByCode checks whether a batch code is already taken
	ExistsByCode(ctx context.Context, code string) (bool, error)

	// FindAll lists batches; the filter supports status and planned-date
	// range constraints plus pagination
	FindAll(ctx context.Context, filter shared.Filter) ([]ProductionBatch, error)

	// Count counts batches matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Save creates or updates a batch
	Save(ctx context.Context, batch *ProductionBatch) error

	// Delete hard-deletes a batch
	Delete(ctx context.Context, id uuid.UUID) error
}

// ConsumptionRecordRepository persists the append-only consumption ledger.
type ConsumptionRecordRepository interface {
	// CreateBatch appends records to the ledger
	CreateBatch(ctx context.Context, records []StockConsumptionRecord) error

	// FindByBatch returns all records of a batch
	FindByBatch(ctx context.Context, batchID uuid.UUID) ([]StockConsumptionRecord, error)

	// DeleteByBatch removes all records of a batch (privileged cascade only)
	DeleteByBatch(ctx context.Context, batchID uuid.UUID) error
}

// FinishedGoodsRepository persists finished goods inventory rows.
type FinishedGoodsRepository interface {
	// CreateBatch inserts finished goods rows
	CreateBatch(ctx context.Context, goods []FinishedGood) error

	// FindByBatch returns the finished goods of a batch
	FindByBatch(ctx context.Context, batchID uuid.UUID) ([]FinishedGood, error)

	// FindByProduct lists finished goods of a product
	FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]FinishedGood, error)

	// DeleteByBatch removes the finished goods of a batch (privileged cascade only)
	DeleteByBatch(ctx context.Context, batchID uuid.UUID) error
}
