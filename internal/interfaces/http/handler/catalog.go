package handler

import (
	catalogapp "github.com/factory/backend/internal/application/catalog"
	"github.com/gin-gonic/gin"
)

// CatalogHandler handles reference-data API endpoints
type CatalogHandler struct {
	BaseHandler
	catalogService *catalogapp.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalogService *catalogapp.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// RegisterRoutes registers all catalog routes
func (h *CatalogHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/products/:id", h.GetProduct)
	rg.GET("/bottle-types", h.ListBottles)
}

// GetProduct returns a product with its recipe
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid product ID")
		return
	}

	product, err := h.catalogService.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// ListBottles returns the bottle type list
func (h *CatalogHandler) ListBottles(c *gin.Context) {
	bottles, err := h.catalogService.ListBottles(c.Request.Context(), parseFilter(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bottles)
}
