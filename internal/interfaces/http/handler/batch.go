package handler

import (
	productionapp "github.com/factory/backend/internal/application/production"
	"github.com/factory/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// IdempotencyKeyHeader carries the client retry token for batch completion.
const IdempotencyKeyHeader = "X-Idempotency-Key"

// BatchHandler handles production batch API endpoints
type BatchHandler struct {
	BaseHandler
	batchService *productionapp.BatchService
}

// NewBatchHandler creates a new BatchHandler
func NewBatchHandler(batchService *productionapp.BatchService) *BatchHandler {
	return &BatchHandler{batchService: batchService}
}

// RegisterRoutes registers all production batch routes
func (h *BatchHandler) RegisterRoutes(rg *gin.RouterGroup) {
	batches := rg.Group("/production/batches")
	{
		batches.POST("", h.Create)
		batches.GET("", h.List)
		batches.GET("/:id", h.Get)
		batches.GET("/code/:code", h.GetByCode)
		batches.GET("/:id/availability", h.CheckAvailability)
		batches.POST("/:id/start", h.Start)
		batches.POST("/:id/complete", h.Complete)
		batches.POST("/:id/cancel", h.Cancel)
		batches.DELETE("/:id", h.Delete)
		batches.GET("/:id/consumptions", h.ListConsumptions)
		batches.GET("/:id/finished-goods", h.ListFinishedGoods)
	}
}

func actorFrom(c *gin.Context) productionapp.Actor {
	return productionapp.Actor{
		Name:       middleware.GetActor(c),
		Privileged: middleware.HasCapability(c, middleware.CapabilityProductionAdmin),
	}
}

// Create plans a new production batch
func (h *BatchHandler) Create(c *gin.Context) {
	var input productionapp.CreateBatchInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	batch, err := h.batchService.Create(c.Request.Context(), actorFrom(c), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, batch)
}

// List returns batches, optionally narrowed by status
func (h *BatchHandler) List(c *gin.Context) {
	filter := productionapp.ListFilter{
		Status: c.Query("status"),
		Filter: parseFilter(c),
	}

	page, err := h.batchService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Get returns one batch by ID
func (h *BatchHandler) Get(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid batch ID")
		return
	}

	batch, err := h.batchService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, batch)
}

// GetByCode returns one batch by its batch code
func (h *BatchHandler) GetByCode(c *gin.Context) {
	batch, err := h.batchService.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, batch)
}

// CheckAvailability projects the batch plan against live stock
func (h *BatchHandler) CheckAvailability(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid batch ID")
		return
	}

	result, err := h.batchService.CheckAvailability(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Start moves a batch to in_progress
func (h *BatchHandler) Start(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid batch ID")
		return
	}

	batch, err := h.batchService.Start(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, batch)
}

// Complete finishes a batch: deducts stock FIFO, rolls up costs and creates
// finished goods. An idempotency key in the header or the body makes retries
// safe.
func (h *BatchHandler) Complete(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid batch ID")
		return
	}

	var input productionapp.CompleteBatchInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if key := c.GetHeader(IdempotencyKeyHeader); key != "" {
		input.IdempotencyKey = key
	}

	batch, err := h.batchService.Complete(c.Request.Context(), actorFrom(c), id, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, batch)
}

// Cancel cancels a batch without touching stock
func (h *BatchHandler) Cancel(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid batch ID")
		return
	}

	var input productionapp.CancelBatchInput
	if err := c.ShouldBindJSON(&input); err != nil && c.Request.ContentLength > 0 {
		h.BadRequest(c, err.Error())
		return
	}

	batch, err := h.batchService.Cancel(c.Request.Context(), actorFrom(c), id, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, batch)
}

// Delete removes a batch. Completed batches require the production admin
// capability and cascade to the consumption ledger and finished goods.
func (h *BatchHandler) Delete(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid batch ID")
		return
	}

	if err := h.batchService.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListConsumptions returns the consumption ledger of a batch
func (h *BatchHandler) ListConsumptions(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid batch ID")
		return
	}

	records, err := h.batchService.ListConsumptions(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, records)
}

// ListFinishedGoods returns the finished goods produced by a batch
func (h *BatchHandler) ListFinishedGoods(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid batch ID")
		return
	}

	goods, err := h.batchService.ListFinishedGoods(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, goods)
}
