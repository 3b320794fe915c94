package catalog

import (
	"context"
	"time"

	"github.com/factory/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ProductRepository reads manufactured products and their recipes. Product
// CRUD belongs to the surrounding dashboard; the production core only reads.
type ProductRepository interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// RecipeFor returns the recipe lines for a product
	RecipeFor(ctx context.Context, productID uuid.UUID) ([]RecipeLine, error)
}

// BottleTypeRepository provides access to bottle types. Mutation is limited
// to the stock counter, which batch completion decrements under a row lock.
type BottleTypeRepository interface {
	// FindByID finds a bottle type by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*BottleType, error)

	// FindByIDs finds multiple bottle types by their IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]BottleType, error)

	// FindByIDForUpdate locks the bottle type row for the duration of the
	// surrounding transaction before returning it
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*BottleType, error)

	// FindAll lists bottle types
	FindAll(ctx context.Context, filter shared.Filter) ([]BottleType, error)

	// Save persists a bottle type
	Save(ctx context.Context, bottle *BottleType) error
}

// SellableProductRepository reads sellable products and their variations.
type SellableProductRepository interface {
	// FindByID finds a sellable product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*SellableProduct, error)

	// FindVariation finds a product variation by its ID
	FindVariation(ctx context.Context, id uuid.UUID) (*ProductVariation, error)
}

// OrderItemReader exposes confirmed order demand to the plan aggregator.
type OrderItemReader interface {
	// ConfirmedInRange returns confirmed order item lines whose delivery date
	// falls within [from, to]
	ConfirmedInRange(ctx context.Context, from, to time.Time) ([]OrderItemLine, error)
}
