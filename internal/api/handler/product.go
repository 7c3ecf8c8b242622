package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/timmy/figureimg/internal/domain"
)

// ProductResolver resolves a single item page.
type ProductResolver interface {
	Lookup(ctx context.Context, itemURL string) (*domain.ProductResult, error)
}

// ProductHandler handles single item lookups.
type ProductHandler struct {
	productService ProductResolver
}

// NewProductHandler creates a new product handler.
func NewProductHandler(productService ProductResolver) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// Product handles GET /product?url=<item-page-url>.
// A failed resolution answers 422 with the partial title when one was found.
func (h *ProductHandler) Product(c *gin.Context) {
	result, err := h.productService.Lookup(c.Request.Context(), c.Query("url"))
	if err != nil {
		var resErr *domain.ResolutionError
		if errors.As(err, &resErr) {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
				"error": "no images found",
				"title": resErr.Title,
			})
			return
		}
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
