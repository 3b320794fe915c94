package models

import (
	"time"

	"github.com/factory/backend/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for a manufactured product.
type ProductModel struct {
	BaseModel
	Code        string `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name        string `gorm:"type:varchar(200);not null"`
	Description string `gorm:"type:text"`
	Active      bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseEntity:  m.BaseModel.ToDomain(),
		Code:        m.Code,
		Name:        m.Name,
		Description: m.Description,
		Active:      m.Active,
	}
}

// FromDomain populates the persistence model from a domain Product entity.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.Code = p.Code
	m.Name = p.Name
	m.Description = p.Description
	m.Active = p.Active
}

// ProductModelFromDomain creates a new persistence model from a domain Product entity.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}

// RecipeLineModel is the persistence model for one recipe line of a product.
type RecipeLineModel struct {
	BaseModel
	ProductID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_recipe_product_material,priority:1"`
	MaterialID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_recipe_product_material,priority:2"`
	QuantityPerLiter decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (RecipeLineModel) TableName() string {
	return "recipe_lines"
}

// ToDomain converts the persistence model to a domain RecipeLine entity.
func (m *RecipeLineModel) ToDomain() *catalog.RecipeLine {
	return &catalog.RecipeLine{
		BaseEntity:       m.BaseModel.ToDomain(),
		ProductID:        m.ProductID,
		MaterialID:       m.MaterialID,
		QuantityPerLiter: m.QuantityPerLiter,
	}
}

// FromDomain populates the persistence model from a domain RecipeLine entity.
func (m *RecipeLineModel) FromDomain(l *catalog.RecipeLine) {
	m.FromDomainBaseEntity(l.BaseEntity)
	m.ProductID = l.ProductID
	m.MaterialID = l.MaterialID
	m.QuantityPerLiter = l.QuantityPerLiter
}

// BottleTypeModel is the persistence model for a bottle type.
type BottleTypeModel struct {
	BaseModel
	Size         string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	CapacityML   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Price        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	AveragePrice decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Stock        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (BottleTypeModel) TableName() string {
	return "bottle_types"
}

// ToDomain converts the persistence model to a domain BottleType entity.
func (m *BottleTypeModel) ToDomain() *catalog.BottleType {
	return &catalog.BottleType{
		BaseEntity:   m.BaseModel.ToDomain(),
		Size:         m.Size,
		CapacityML:   m.CapacityML,
		Price:        m.Price,
		AveragePrice: m.AveragePrice,
		Stock:        m.Stock,
	}
}

// FromDomain populates the persistence model from a domain BottleType entity.
func (m *BottleTypeModel) FromDomain(b *catalog.BottleType) {
	m.FromDomainBaseEntity(b.BaseEntity)
	m.Size = b.Size
	m.CapacityML = b.CapacityML
	m.Price = b.Price
	m.AveragePrice = b.AveragePrice
	m.Stock = b.Stock
}

// BottleTypeModelFromDomain creates a new persistence model from a domain BottleType entity.
func BottleTypeModelFromDomain(b *catalog.BottleType) *BottleTypeModel {
	m := &BottleTypeModel{}
	m.FromDomain(b)
	return m
}

// SellableProductModel is the persistence model for a commercial SKU.
type SellableProductModel struct {
	BaseModel
	Name                string    `gorm:"type:varchar(200);not null"`
	ProductID           uuid.UUID `gorm:"type:uuid;not null;index"`
	DefaultBottleTypeID uuid.UUID `gorm:"type:uuid;not null"`
}

// TableName returns the table name for GORM
func (SellableProductModel) TableName() string {
	return "sellable_products"
}

// ToDomain converts the persistence model to a domain SellableProduct entity.
func (m *SellableProductModel) ToDomain() *catalog.SellableProduct {
	return &catalog.SellableProduct{
		BaseEntity:          m.BaseModel.ToDomain(),
		Name:                m.Name,
		ProductID:           m.ProductID,
		DefaultBottleTypeID: m.DefaultBottleTypeID,
	}
}

// FromDomain populates the persistence model from a domain SellableProduct entity.
func (m *SellableProductModel) FromDomain(s *catalog.SellableProduct) {
	m.FromDomainBaseEntity(s.BaseEntity)
	m.Name = s.Name
	m.ProductID = s.ProductID
	m.DefaultBottleTypeID = s.DefaultBottleTypeID
}

// ProductVariationModel is the persistence model for a packaging variation.
type ProductVariationModel struct {
	BaseModel
	SellableProductID uuid.UUID `gorm:"type:uuid;not null;index"`
	BottleTypeID      uuid.UUID `gorm:"type:uuid;not null"`
	Name              string    `gorm:"type:varchar(200);not null"`
}

// TableName returns the table name for GORM
func (ProductVariationModel) TableName() string {
	return "product_variations"
}

// ToDomain converts the persistence model to a domain ProductVariation entity.
func (m *ProductVariationModel) ToDomain() *catalog.ProductVariation {
	return &catalog.ProductVariation{
		BaseEntity:        m.BaseModel.ToDomain(),
		SellableProductID: m.SellableProductID,
		BottleTypeID:      m.BottleTypeID,
		Name:              m.Name,
	}
}

// FromDomain populates the persistence model from a domain ProductVariation entity.
func (m *ProductVariationModel) FromDomain(v *catalog.ProductVariation) {
	m.FromDomainBaseEntity(v.BaseEntity)
	m.SellableProductID = v.SellableProductID
	m.BottleTypeID = v.BottleTypeID
	m.Name = v.Name
}

// OrderItemModel is the persistence model for a confirmed order item line.
// The plan aggregator only reads this table; order lifecycle writes belong to
// the surrounding dashboard.
type OrderItemModel struct {
	BaseModel
	SellableProductID uuid.UUID  `gorm:"type:uuid;not null;index"`
	VariationID       *uuid.UUID `gorm:"type:uuid"`
	Quantity          int64      `gorm:"not null"`
	Status            string     `gorm:"type:varchar(20);not null;index"`
	DeliveryDate      time.Time  `gorm:"type:date;not null;index"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to the demand line projection.
func (m *OrderItemModel) ToDomain() catalog.OrderItemLine {
	return catalog.OrderItemLine{
		SellableProductID: m.SellableProductID,
		VariationID:       m.VariationID,
		Quantity:          m.Quantity,
		DeliveryDate:      m.DeliveryDate,
	}
}
