package service

import (
	"context"
	"time"

	"github.com/timmy/figureimg/internal/domain"
	"github.com/timmy/figureimg/internal/logger"
)

// CatalogMaintainer is the maintenance side of the catalog cache.
type CatalogMaintainer interface {
	ForceRefreshAll(ctx context.Context) map[string]int
	Counts() map[string]int
	Status() []domain.CatalogStatus
}

// CatalogService exposes cache maintenance and status to the API.
type CatalogService struct {
	cache  CatalogMaintainer
	logger *logger.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(cache CatalogMaintainer, log *logger.Logger) *CatalogService {
	return &CatalogService{cache: cache, logger: log}
}

func (s *CatalogService) log(ctx context.Context) *logger.Logger {
	return logger.FromContextOr(ctx, s.logger)
}

// Refresh refetches every catalog and reports the resulting counts.
func (s *CatalogService) Refresh(ctx context.Context) *domain.RefreshResult {
	ctx = s.log(ctx).Scope(ctx, "catalog_refresh", "")
	start := time.Now()
	counts := s.cache.ForceRefreshAll(ctx)
	total := sum(counts)

	logger.Outcome(total, start).Info(ctx, "Catalog cache refreshed: catalogs=%d", len(counts))
	return &domain.RefreshResult{Status: "ok", Counts: counts, Total: total}
}

// Counts returns cached counts per catalog and their total. It never fetches.
func (s *CatalogService) Counts() (map[string]int, int) {
	counts := s.cache.Counts()
	return counts, sum(counts)
}

// Status describes every configured catalog. It never fetches.
func (s *CatalogService) Status() []domain.CatalogStatus {
	return s.cache.Status()
}

func sum(counts map[string]int) int {
	total := 0
	for _, n := range counts {
		total += n
	}
	return total
}
