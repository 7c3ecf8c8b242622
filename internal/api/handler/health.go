package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "ActionFigure Image Search"

// CacheCounter reports cached entry counts without fetching.
type CacheCounter interface {
	Counts() (map[string]int, int)
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	cache CacheCounter
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(cache CacheCounter) *HealthHandler {
	return &HealthHandler{cache: cache}
}

// Health returns the health status of the service and the cached figure counts.
func (h *HealthHandler) Health(c *gin.Context) {
	counts, total := h.cache.Counts()
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"service":       ServiceName,
		"cache":         counts,
		"total_figures": total,
	})
}
