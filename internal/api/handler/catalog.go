package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/timmy/figureimg/internal/domain"
)

// CatalogAdmin refreshes and describes the catalog cache.
type CatalogAdmin interface {
	Refresh(ctx context.Context) *domain.RefreshResult
	Status() []domain.CatalogStatus
}

// CatalogHandler handles catalog maintenance endpoints.
type CatalogHandler struct {
	catalogService CatalogAdmin
}

// NewCatalogHandler creates a new catalog handler.
// Parameters:
//   - catalogService: catalog service instance.
// Returns:
//   - *CatalogHandler: initialized handler.
func NewCatalogHandler(catalogService CatalogAdmin) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// RefreshCache handles POST /refresh-cache. It blocks until every catalog
// has been refetched or has failed.
func (h *CatalogHandler) RefreshCache(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalogService.Refresh(c.Request.Context()))
}

// Catalogs handles GET /catalogs.
func (h *CatalogHandler) Catalogs(c *gin.Context) {
	status := h.catalogService.Status()
	c.JSON(http.StatusOK, gin.H{
		"catalogs": status,
		"count":    len(status),
	})
}
