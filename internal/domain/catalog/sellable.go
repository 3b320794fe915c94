package catalog

import (
	"time"

	"github.com/factory/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// SellableProduct is the commercial SKU sold to customers. It references the
// manufactured product whose recipe drives material demand, and a default
// bottle used when an order line does not name a variation.
type SellableProduct struct {
	shared.BaseEntity
	Name                string
	ProductID           uuid.UUID
	DefaultBottleTypeID uuid.UUID
}

// ProductVariation is a packaging variant of a sellable product, binding it
// to a specific bottle type.
type ProductVariation struct {
	shared.BaseEntity
	SellableProductID uuid.UUID
	BottleTypeID      uuid.UUID
	Name              string
}

// OrderItemLine is a read projection of a confirmed order item, the unit of
// demand the production plan aggregator works from.
type OrderItemLine struct {
	SellableProductID uuid.UUID
	VariationID       *uuid.UUID
	Quantity          int64
	DeliveryDate      time.Time
}
