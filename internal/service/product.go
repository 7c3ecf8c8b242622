package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/timmy/figureimg/internal/domain"
	"github.com/timmy/figureimg/internal/logger"
	"github.com/timmy/figureimg/internal/source"
)

// ProductService resolves single item pages.
type ProductService struct {
	lookup source.LookupSource
	logger *logger.Logger
}

// NewProductService creates a new product service.
func NewProductService(lookup source.LookupSource, log *logger.Logger) *ProductService {
	return &ProductService{lookup: lookup, logger: log}
}

func (s *ProductService) log(ctx context.Context) *logger.Logger {
	return logger.FromContextOr(ctx, s.logger)
}

// Lookup validates itemURL and resolves it.
// Parameters:
//   - ctx: request context.
//   - itemURL: caller-supplied item page URL.
// Returns:
//   - *domain.ProductResult: title and images on success.
//   - error: ErrInvalidRequest for a missing or disallowed URL (no request is
//     sent), ErrResolutionFailed when no image was found.
func (s *ProductService) Lookup(ctx context.Context, itemURL string) (*domain.ProductResult, error) {
	itemURL = strings.TrimSpace(itemURL)
	if itemURL == "" {
		return nil, domain.NewInvalidRequest("query parameter \"url\" is required")
	}
	if !s.lookup.Allowed(itemURL) {
		return nil, errors.Join(domain.NewInvalidRequest("url is not on an allowed host"), domain.ErrHostNotAllowed)
	}

	ctx = s.log(ctx).Scope(ctx, "product", s.lookup.GetSourceID())
	start := time.Now()

	result, err := s.lookup.Lookup(ctx, itemURL)
	if err != nil {
		s.log(ctx).WithError(err).Warnf("Product lookup failed: url=%s", itemURL)
		return nil, err
	}

	logger.Outcome(len(result.Images), start).Info(ctx, "Product resolved: url=%s", itemURL)
	return result, nil
}
