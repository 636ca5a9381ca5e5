package weather

import (
	"log/slog"
	"net/http"

	"orderpulse/internal/common"

	"github.com/gin-gonic/gin"
)

// knownServices are the credentials the key endpoints accept.
var knownServices = map[string]bool{
	"openweather": true,
	"gemini":      true,
	"openai":      true,
}

// Handler handles HTTP requests for the weather notification domain.
type Handler struct {
	workflow  *Workflow
	scheduler *Scheduler
	keys      KeyStore
}

// NewHandler creates a new weather handler.
func NewHandler(workflow *Workflow, scheduler *Scheduler, keys KeyStore) *Handler {
	return &Handler{workflow: workflow, scheduler: scheduler, keys: keys}
}

// SendWeather handles POST /api/v1/notifications/weather
// Runs the weather notification workflow once, optionally overriding
// the configured city and text provider.
func (h *Handler) SendWeather(c *gin.Context) {
	var req struct {
		City     string `json:"city"`
		Provider string `json:"provider"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		common.Error(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	report, err := h.workflow.RunFor(c.Request.Context(), req.City, req.Provider)
	if err != nil {
		slog.Error("weather notification failed",
			"city", req.City,
			"provider", req.Provider,
			"error", err,
		)
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusOK, report)
}

// GetKeys handles GET /api/v1/keys
// Returns the stored provider credentials, masked.
func (h *Handler) GetKeys(c *gin.Context) {
	all, err := h.keys.All(c.Request.Context())
	if err != nil {
		slog.Error("listing API keys failed", "error", err)
		common.HandleError(c, err)
		return
	}

	masked := make(map[string]string, len(all))
	configured := 0
	for service, key := range all {
		masked[service] = maskKey(key)
		if key != "" {
			configured++
		}
	}

	common.Success(c, http.StatusOK, gin.H{
		"keys":       masked,
		"configured": configured,
	})
}

// PutKeys handles PUT /api/v1/keys
// Stores or rotates provider credentials.
func (h *Handler) PutKeys(c *gin.Context) {
	var req map[string]string
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req) == 0 {
		common.Error(c, http.StatusBadRequest, "no keys provided")
		return
	}
	for service := range req {
		if !knownServices[service] {
			common.Error(c, http.StatusBadRequest, "unknown service: "+service)
			return
		}
	}

	if err := h.keys.SetAll(c.Request.Context(), req); err != nil {
		slog.Error("storing API keys failed", "error", err)
		common.HandleError(c, err)
		return
	}

	updated := make([]string, 0, len(req))
	for service := range req {
		updated = append(updated, service)
	}
	common.Success(c, http.StatusOK, gin.H{"updated": updated})
}

// SchedulerStatus handles GET /api/v1/scheduler/status
func (h *Handler) SchedulerStatus(c *gin.Context) {
	common.Success(c, http.StatusOK, h.scheduler.GetStatus())
}

// StartScheduler handles POST /api/v1/scheduler/start
func (h *Handler) StartScheduler(c *gin.Context) {
	h.scheduler.Start()
	common.Success(c, http.StatusOK, h.scheduler.GetStatus())
}

// StopScheduler handles POST /api/v1/scheduler/stop
func (h *Handler) StopScheduler(c *gin.Context) {
	h.scheduler.Stop()
	common.Success(c, http.StatusOK, h.scheduler.GetStatus())
}

// TriggerScheduler handles POST /api/v1/scheduler/trigger
// Fires the workflow immediately, ignoring the active window.
func (h *Handler) TriggerScheduler(c *gin.Context) {
	if err := h.scheduler.Trigger(c.Request.Context()); err != nil {
		slog.Error("manual scheduler trigger failed", "error", err)
		common.HandleError(c, err)
		return
	}
	common.Success(c, http.StatusOK, h.scheduler.GetStatus())
}

// ResetSchedulerCount handles POST /api/v1/scheduler/reset
func (h *Handler) ResetSchedulerCount(c *gin.Context) {
	h.scheduler.ResetCount()
	common.Success(c, http.StatusOK, h.scheduler.GetStatus())
}

// RegisterRoutes registers weather routes to the given router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/notifications/weather", h.SendWeather)
	rg.GET("/keys", h.GetKeys)
	rg.PUT("/keys", h.PutKeys)
	rg.GET("/scheduler/status", h.SchedulerStatus)
	rg.POST("/scheduler/start", h.StartScheduler)
	rg.POST("/scheduler/stop", h.StopScheduler)
	rg.POST("/scheduler/trigger", h.TriggerScheduler)
	rg.POST("/scheduler/reset", h.ResetSchedulerCount)
}

// maskKey hides the middle of a credential for display.
func maskKey(key string) string {
	if len(key) <= 12 {
		return "********"
	}
	return key[:8] + "..." + key[len(key)-4:]
}
