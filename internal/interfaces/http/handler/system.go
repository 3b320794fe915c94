package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/factory/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// HealthChecker reports whether a dependency is reachable.
type HealthChecker func() error

// SystemHandler handles system-related API endpoints
type SystemHandler struct {
	BaseHandler
	startTime time.Time
	checkers  map[string]HealthChecker
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler() *SystemHandler {
	return &SystemHandler{
		startTime: time.Now(),
		checkers:  make(map[string]HealthChecker),
	}
}

// AddHealthCheck registers a named dependency check
func (h *SystemHandler) AddHealthCheck(name string, check HealthChecker) {
	h.checkers[name] = check
}

// RegisterRoutes registers the system routes
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	system := rg.Group("/system")
	{
		system.GET("/ping", h.Ping)
		system.GET("/info", h.GetSystemInfo)
		system.GET("/health", h.GetHealth)
	}
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// GetSystemInfo returns basic system information including version and uptime
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	info := SystemInfoResponse{
		Name:      "Factory Backend API",
		Version:   "1.0.0",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(info))
}

// PingResponse represents the ping response
type PingResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Ping checks if the API is responsive
func (h *SystemHandler) Ping(c *gin.Context) {
	response := PingResponse{
		Message:   "pong",
		Timestamp: time.Now().Format(time.RFC3339),
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(response))
}

// HealthResponse reports the health of the service and its dependencies
type HealthResponse struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies"`
}

// GetHealth runs the registered dependency checks. Any failing dependency
// degrades the overall status and the response code becomes 503.
func (h *SystemHandler) GetHealth(c *gin.Context) {
	response := HealthResponse{
		Status:       "healthy",
		Dependencies: make(map[string]string, len(h.checkers)),
	}

	status := http.StatusOK
	for name, check := range h.checkers {
		if err := check(); err != nil {
			response.Status = "degraded"
			response.Dependencies[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		response.Dependencies[name] = "ok"
	}

	c.JSON(status, dto.NewSuccessResponse(response))
}
