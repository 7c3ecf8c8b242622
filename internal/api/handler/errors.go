package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/timmy/figureimg/internal/domain"
)

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrHostNotAllowed):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnknownCatalog):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrResolutionFailed):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes err as {"error": ...} with its mapped status.
func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusFor(err), gin.H{
		"error": err.Error(),
	})
}
