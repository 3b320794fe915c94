package material

import (
	"context"

	"github.com/factory/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// RawMaterialRepository provides access to raw materials and their aggregate
// stock counters.
type RawMaterialRepository interface {
	// FindByID finds a raw material by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*RawMaterial, error)

	// FindByIDs finds multiple raw materials by their IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]RawMaterial, error)

	// FindByIDForUpdate locks the material row for the duration of the
	// surrounding transaction before returning it
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*RawMaterial, error)

	// FindAll lists raw materials
	FindAll(ctx context.Context, filter shared.Filter) ([]RawMaterial, error)

	// Save persists a raw material
	Save(ctx context.Context, m *RawMaterial) error
}

// RawMaterialLotRepository provides access to the lot ledger.
type RawMaterialLotRepository interface {
	// FindOpenByMaterial returns lots with remaining quantity for a material,
	// ordered by acquisition time ascending, lot ID ascending
	FindOpenByMaterial(ctx context.Context, materialID uuid.UUID) ([]RawMaterialLot, error)

	// FindOpenByMaterialForUpdate locks and returns the open lots of a
	// material in FIFO order
	FindOpenByMaterialForUpdate(ctx context.Context, materialID uuid.UUID) ([]RawMaterialLot, error)

	// FindByMaterial lists all lots of a material, consumed ones included
	FindByMaterial(ctx context.Context, materialID uuid.UUID, filter shared.Filter) ([]RawMaterialLot, error)

	// Create appends a new lot to the ledger
	Create(ctx context.Context, lot *RawMaterialLot) error

	// Save persists an updated lot remainder
	Save(ctx context.Context, lot *RawMaterialLot) error
}
