package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/timmy/figureimg/internal/domain"
)

// Searcher runs one aggregated search.
type Searcher interface {
	Search(ctx context.Context, q domain.SearchQuery) (*domain.SearchResponse, error)
}

// SearchHandler handles search-related endpoints.
type SearchHandler struct {
	searchService Searcher
}

// NewSearchHandler creates a new search handler.
// Parameters:
//   - searchService: search service instance.
// Returns:
//   - *SearchHandler: initialized handler.
func NewSearchHandler(searchService Searcher) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
	}
}

// Search handles GET /search?q=<text>&sources=<list>&line=<line>.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *SearchHandler) Search(c *gin.Context) {
	q := domain.SearchQuery{
		Text:         c.Query("q"),
		SourceFilter: domain.ParseSourceFilter(c.DefaultQuery("sources", "all")),
		LineHint:     c.Query("line"),
	}

	result, err := h.searchService.Search(c.Request.Context(), q)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
