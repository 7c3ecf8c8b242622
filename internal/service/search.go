package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/timmy/figureimg/internal/domain"
	"github.com/timmy/figureimg/internal/logger"
	"github.com/timmy/figureimg/internal/ranking"
	"github.com/timmy/figureimg/internal/source"
)

const (
	// DefaultWorkers caps how many adapters one search calls at once.
	DefaultWorkers = 4
	// DefaultSearchTimeout bounds each live search adapter call.
	DefaultSearchTimeout = 15 * time.Second
)

// CatalogReader is the read side of the catalog cache used by searches.
type CatalogReader interface {
	// Get returns the entries of one catalog, refreshing them if stale.
	Get(ctx context.Context, id string) ([]domain.CatalogEntry, error)
	// Catalogs returns the configured catalog ids in order.
	Catalogs() []string
}

// SearchConfig holds configuration for search service.
type SearchConfig struct {
	Workers       int
	SearchTimeout time.Duration
}

// SearchService fans one query out to the cached catalogs and the live
// search adapters, then merges the ranked results.
type SearchService struct {
	catalogs  CatalogReader
	bulk      source.Source
	searchers []source.SearchSource
	ranker    *ranking.Ranker
	logger    *logger.Logger
	workers   int64
	timeout   time.Duration
}

// NewSearchService creates a new search service.
// Parameters:
//   - catalogs: catalog cache read by the bulk task.
//   - bulk: adapter behind the catalogs; its id selects the bulk task in filters.
//   - searchers: live search adapters in merge order.
//   - ranker: ranker applied to every partial result set.
//   - log: logger instance.
//   - cfg: worker cap and per-adapter timeout.
//
// Returns:
//   - *SearchService: initialized search service.
func NewSearchService(
	catalogs CatalogReader,
	bulk source.Source,
	searchers []source.SearchSource,
	ranker *ranking.Ranker,
	log *logger.Logger,
	cfg *SearchConfig,
) *SearchService {
	workers := DefaultWorkers
	timeout := DefaultSearchTimeout
	if cfg != nil {
		if cfg.Workers > 0 {
			workers = cfg.Workers
		}
		if cfg.SearchTimeout > 0 {
			timeout = cfg.SearchTimeout
		}
	}
	if ranker == nil {
		ranker = ranking.NewRanker(nil, 0)
	}
	return &SearchService{
		catalogs:  catalogs,
		bulk:      bulk,
		searchers: searchers,
		ranker:    ranker,
		logger:    log,
		workers:   int64(workers),
		timeout:   timeout,
	}
}

// log prefers the request-scoped logger and falls back to the service's own.
func (s *SearchService) log(ctx context.Context) *logger.Logger {
	return logger.FromContextOr(ctx, s.logger)
}

// searchTask produces one ranked partial result set.
type searchTask struct {
	sourceID string
	run      func(ctx context.Context) ([]domain.CatalogEntry, error)
}

// Search runs q against every selected adapter and merges their results.
// Adapter failures are logged and contribute nothing; only an invalid query
// is an error.
func (s *SearchService) Search(ctx context.Context, q domain.SearchQuery) (*domain.SearchResponse, error) {
	if err := q.Normalize(); err != nil {
		return nil, err
	}

	ctx = logger.SetSearchID(s.log(ctx).Scope(ctx, "search", ""), uuid.NewString())
	start := time.Now()

	tasks := s.tasks(q)
	partials := make([][]domain.CatalogEntry, len(tasks))
	done := make(chan struct{}, len(tasks))
	sem := semaphore.NewWeighted(s.workers)

	for i, task := range tasks {
		go func() {
			defer func() { done <- struct{}{} }()
			taskCtx := logger.Scope(ctx, "search", task.sourceID)
			if err := sem.Acquire(taskCtx, 1); err != nil {
				s.log(taskCtx).WithError(err).Warn("Search task not started")
				return
			}
			defer sem.Release(1)

			entries, err := runTask(taskCtx, task)
			if err != nil {
				s.log(taskCtx).WithError(err).Warn("Source unavailable, continuing without it")
				return
			}
			partials[i] = entries
		}()
	}
	for range tasks {
		<-done
	}

	results := mergeByURL(partials)
	logger.Outcome(len(results), start).
		Info(ctx, "Search completed: query=%q, sources=%d", q.Text, len(tasks))

	return &domain.SearchResponse{
		Query:   q.Text,
		Count:   len(results),
		Results: results,
	}, nil
}

// tasks lists the selected adapters in merge order: the cached catalogs
// first, then the live searchers as configured.
func (s *SearchService) tasks(q domain.SearchQuery) []searchTask {
	var tasks []searchTask
	if s.catalogs != nil && s.bulk != nil && q.Wants(s.bulk.GetSourceID()) {
		tasks = append(tasks, searchTask{
			sourceID: s.bulk.GetSourceID(),
			run: func(ctx context.Context) ([]domain.CatalogEntry, error) {
				return s.searchCatalogs(ctx, q)
			},
		})
	}
	for _, searcher := range s.searchers {
		if !q.Wants(searcher.GetSourceID()) {
			continue
		}
		tasks = append(tasks, searchTask{
			sourceID: searcher.GetSourceID(),
			run: func(ctx context.Context) ([]domain.CatalogEntry, error) {
				ctx, cancel := context.WithTimeout(ctx, s.timeout)
				defer cancel()
				entries, err := searcher.Search(ctx, q.Text)
				if err != nil {
					return nil, err
				}
				candidates := make([]ranking.Candidate, 0, len(entries))
				for _, e := range entries {
					candidates = append(candidates, ranking.Candidate{Entry: e})
				}
				return s.ranker.Rank(q.Text, candidates, ""), nil
			},
		})
	}
	return tasks
}

// searchCatalogs ranks every cached catalog together, visiting the catalogs
// preferred for the line hint first.
func (s *SearchService) searchCatalogs(ctx context.Context, q domain.SearchQuery) ([]domain.CatalogEntry, error) {
	var candidates []ranking.Candidate
	for _, id := range s.catalogOrder(q.LineHint) {
		entries, err := s.catalogs.Get(logger.SetCatalog(ctx, id), id)
		if err != nil {
			s.log(ctx).WithError(err).Warnf("Catalog skipped: catalog=%s", id)
			continue
		}
		for _, e := range entries {
			candidates = append(candidates, ranking.Candidate{Entry: e, CatalogID: id})
		}
	}
	return s.ranker.Rank(q.Text, candidates, q.LineHint), nil
}

func (s *SearchService) catalogOrder(lineHint string) []string {
	all := s.catalogs.Catalogs()
	known := make(map[string]bool, len(all))
	for _, id := range all {
		known[id] = true
	}

	order := make([]string, 0, len(all))
	taken := make(map[string]bool, len(all))
	for _, id := range s.ranker.Tables().PreferredCatalogs(lineHint) {
		if known[id] && !taken[id] {
			order = append(order, id)
			taken[id] = true
		}
	}
	for _, id := range all {
		if !taken[id] {
			order = append(order, id)
		}
	}
	return order
}

func runTask(ctx context.Context, task searchTask) (entries []domain.CatalogEntry, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: task panicked: %v", task.sourceID, r)
		}
	}()
	return task.run(ctx)
}

// mergeByURL concatenates the partial results in task order and keeps the
// first entry per image URL.
func mergeByURL(partials [][]domain.CatalogEntry) []domain.CatalogEntry {
	seen := make(map[string]struct{})
	merged := make([]domain.CatalogEntry, 0)
	for _, part := range partials {
		for _, e := range part {
			if !e.HasImage() {
				continue
			}
			if _, ok := seen[e.ImageURL]; ok {
				continue
			}
			seen[e.ImageURL] = struct{}{}
			merged = append(merged, e)
		}
	}
	return merged
}
