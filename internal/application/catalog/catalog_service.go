package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/factory/backend/internal/domain/catalog"
	"github.com/factory/backend/internal/domain/shared"
)

// CatalogService serves the reference-data reads the dashboard needs when
// planning batches: products with their recipes and the bottle type list.
// All catalog mutation belongs to the surrounding dashboard.
type CatalogService struct {
	productRepo catalog.ProductRepository
	bottleRepo  catalog.BottleTypeRepository
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(productRepo catalog.ProductRepository, bottleRepo catalog.BottleTypeRepository) *CatalogService {
	return &CatalogService{
		productRepo: productRepo,
		bottleRepo:  bottleRepo,
	}
}

// RecipeLineResponse is one material consumption rate of a product.
type RecipeLineResponse struct {
	MaterialID       uuid.UUID       `json:"material_id"`
	QuantityPerLiter decimal.Decimal `json:"quantity_per_liter"`
}

// ProductResponse is the read model of a product with its recipe.
type ProductResponse struct {
	ID          uuid.UUID            `json:"id"`
	Code        string               `json:"code"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Active      bool                 `json:"active"`
	Recipe      []RecipeLineResponse `json:"recipe"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// BottleTypeResponse is the read model of a bottle type.
type BottleTypeResponse struct {
	ID           uuid.UUID       `json:"id"`
	Size         string          `json:"size"`
	CapacityML   decimal.Decimal `json:"capacity_ml"`
	Price        decimal.Decimal `json:"price"`
	AveragePrice decimal.Decimal `json:"average_price"`
	Stock        decimal.Decimal `json:"stock"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// GetProduct returns a product together with its recipe.
func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	recipe, err := s.productRepo.RecipeFor(ctx, id)
	if err != nil {
		return nil, err
	}

	lines := make([]RecipeLineResponse, 0, len(recipe))
	for _, line := range recipe {
		lines = append(lines, RecipeLineResponse{
			MaterialID:       line.MaterialID,
			QuantityPerLiter: line.QuantityPerLiter,
		})
	}

	return &ProductResponse{
		ID:          product.ID,
		Code:        product.Code,
		Name:        product.Name,
		Description: product.Description,
		Active:      product.Active,
		Recipe:      lines,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}, nil
}

// ListBottles returns bottle types matching the filter.
func (s *CatalogService) ListBottles(ctx context.Context, filter shared.Filter) ([]BottleTypeResponse, error) {
	bottles, err := s.bottleRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	out := make([]BottleTypeResponse, 0, len(bottles))
	for i := range bottles {
		b := bottles[i]
		out = append(out, BottleTypeResponse{
			ID:           b.ID,
			Size:         b.Size,
			CapacityML:   b.CapacityML,
			Price:        b.Price,
			AveragePrice: b.AveragePrice,
			Stock:        b.Stock,
			CreatedAt:    b.CreatedAt,
			UpdatedAt:    b.UpdatedAt,
		})
	}
	return out, nil
}
