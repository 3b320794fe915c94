package handler

import (
	materialapp "github.com/factory/backend/internal/application/material"
	"github.com/gin-gonic/gin"
)

// MaterialHandler handles raw material API endpoints
type MaterialHandler struct {
	BaseHandler
	materialService *materialapp.MaterialService
}

// NewMaterialHandler creates a new MaterialHandler
func NewMaterialHandler(materialService *materialapp.MaterialService) *MaterialHandler {
	return &MaterialHandler{materialService: materialService}
}

// RegisterRoutes registers all raw material routes
func (h *MaterialHandler) RegisterRoutes(rg *gin.RouterGroup) {
	materials := rg.Group("/materials")
	{
		materials.GET("", h.List)
		materials.GET("/:id", h.Get)
		materials.GET("/:id/lots", h.ListLots)
		materials.POST("/:id/lots", h.Intake)
	}
}

// List returns raw materials
func (h *MaterialHandler) List(c *gin.Context) {
	materials, err := h.materialService.List(c.Request.Context(), parseFilter(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, materials)
}

// Get returns one raw material
func (h *MaterialHandler) Get(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid material ID")
		return
	}

	m, err := h.materialService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, m)
}

// ListLots returns the lots of a material in FIFO order
func (h *MaterialHandler) ListLots(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid material ID")
		return
	}

	lots, err := h.materialService.ListLots(c.Request.Context(), id, parseFilter(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, lots)
}

// Intake receives a new acquisition lot
func (h *MaterialHandler) Intake(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid material ID")
		return
	}

	var input materialapp.IntakeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	lot, err := h.materialService.Intake(c.Request.Context(), id, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, lot)
}
