// Package app wires configuration into the adapters, cache and services
// shared by the API server and the CLI.
package app

import (
	"context"
	"fmt"

	"github.com/timmy/figureimg/internal/api"
	"github.com/timmy/figureimg/internal/catalog"
	"github.com/timmy/figureimg/internal/config"
	"github.com/timmy/figureimg/internal/logger"
	"github.com/timmy/figureimg/internal/ranking"
	"github.com/timmy/figureimg/internal/service"
	"github.com/timmy/figureimg/internal/source"
	"github.com/timmy/figureimg/internal/source/imagesearch"
	"github.com/timmy/figureimg/internal/source/legendsverse"
	"github.com/timmy/figureimg/internal/source/productpage"
	"github.com/timmy/figureimg/internal/source/visualguide"
)

// App holds every long-lived component of the process.
type App struct {
	Config  *config.Config
	Cache   *catalog.Cache
	Search  *service.SearchService
	Product *service.ProductService
	Catalog *service.CatalogService
}

// New builds the components described by cfg.
// Parameters:
//   - cfg: loaded configuration.
//   - log: base logger handed to services.
// Returns:
//   - *App: wired components; nothing is fetched yet.
//   - error: non-nil if the ranking rules cannot be loaded.
func New(cfg *config.Config, log *logger.Logger) (*App, error) {
	rules, err := ranking.LoadRules(cfg.Ranking.RulesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load ranking rules: %w", err)
	}
	ranker := ranking.NewRanker(rules.Compile(), cfg.Search.MaxResults)

	client := source.NewClient(&source.ClientConfig{
		UserAgent:     cfg.HTTP.UserAgent,
		Timeout:       cfg.HTTP.Timeout,
		RatePerSecond: cfg.HTTP.RatePerSecond,
		Burst:         cfg.HTTP.Burst,
	})

	bulk := visualguide.NewAdapter(client, cfg.HTTP.Timeout)
	cache := catalog.NewCache(bulk, catalog.Config{
		Catalogs: cfg.Catalog.Catalogs,
		TTL:      cfg.Catalog.TTL,
	})

	searchers := make([]source.SearchSource, 0, 2)
	if cfg.Search.Enabled(imagesearch.SourceID) {
		searchers = append(searchers, imagesearch.NewAdapter(client, cfg.HTTP.SearchTimeout, ""))
	}
	if cfg.Search.Enabled(legendsverse.SourceID) {
		searchers = append(searchers, legendsverse.NewAdapter(client, cfg.HTTP.SearchTimeout, ""))
	}

	var catalogs service.CatalogReader
	if cfg.Search.Enabled(visualguide.SourceID) {
		catalogs = cache
	}

	lookup := productpage.NewAdapter(client, cfg.HTTP.SearchTimeout, cfg.Lookup.AllowedHosts)

	return &App{
		Config: cfg,
		Cache:  cache,
		Search: service.NewSearchService(catalogs, bulk, searchers, ranker, log, &service.SearchConfig{
			Workers:       cfg.Search.Workers,
			SearchTimeout: cfg.HTTP.SearchTimeout,
		}),
		Product: service.NewProductService(lookup, log),
		Catalog: service.NewCatalogService(cache, log),
	}, nil
}

// Services returns the components the HTTP surface calls into.
func (a *App) Services() api.Services {
	return api.Services{
		Search:  a.Search,
		Product: a.Product,
		Catalog: a.Catalog,
	}
}

// Warm loads every catalog once when configured to.
func (a *App) Warm(ctx context.Context) {
	if !a.Config.Catalog.WarmOnStart {
		return
	}
	counts := a.Cache.Warm(logger.SetComponent(ctx, "warmup"))
	total := 0
	for _, n := range counts {
		total += n
	}
	if total == 0 {
		logger.CtxWarn(ctx, "Catalog warm-up found no figures: catalogs=%d", len(counts))
		return
	}
	logger.CtxInfo(ctx, "Catalog warm-up finished: catalogs=%d, figures=%d", len(counts), total)
}
