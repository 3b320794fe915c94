package handler

import (
	planningapp "github.com/factory/backend/internal/application/planning"
	"github.com/gin-gonic/gin"
)

// PlanHandler handles production plan aggregation endpoints. Both modes are
// strictly read-only: a plan is a forecast, never a reservation.
type PlanHandler struct {
	BaseHandler
	planService *planningapp.PlanService
}

// NewPlanHandler creates a new PlanHandler
func NewPlanHandler(planService *planningapp.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// RegisterRoutes registers the production plan routes
func (h *PlanHandler) RegisterRoutes(rg *gin.RouterGroup) {
	plans := rg.Group("/production/plans")
	{
		plans.POST("/historical", h.Historical)
		plans.POST("/manual", h.Manual)
	}
}

// Historical aggregates confirmed order demand in a delivery date window
func (h *PlanHandler) Historical(c *gin.Context) {
	var input planningapp.HistoricalPlanInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	plan, err := h.planService.HistoricalPlan(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, plan)
}

// Manual aggregates a hand-entered demand list
func (h *PlanHandler) Manual(c *gin.Context) {
	var input planningapp.ManualPlanInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	plan, err := h.planService.ManualPlan(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, plan)
}
