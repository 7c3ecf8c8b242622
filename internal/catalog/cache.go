// Package catalog keeps one time-bounded snapshot per bulk catalog in memory
// and refreshes it through a bulk source on demand.
package catalog

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/timmy/figureimg/internal/domain"
	"github.com/timmy/figureimg/internal/logger"
	"github.com/timmy/figureimg/internal/source"
)

const (
	// DefaultTTL is how long a snapshot is served before a read refetches it.
	DefaultTTL = time.Hour
	// refreshAllWorkers bounds concurrent fetches during ForceRefreshAll.
	refreshAllWorkers = 4
)

// Config configures a Cache.
type Config struct {
	// Catalogs is the ordered set of catalogs the cache owns.
	Catalogs []domain.CatalogSource
	// TTL defaults to DefaultTTL.
	TTL time.Duration
	// Now overrides the clock; tests inject a fake one.
	Now func() time.Time
}

// slot holds the state of one catalog. mu serializes refreshes of the slot;
// readers only ever load snap.
type slot struct {
	catalog domain.CatalogSource
	mu      sync.Mutex
	snap    atomic.Pointer[domain.CatalogSnapshot]
}

// Cache owns every catalog snapshot of the process.
type Cache struct {
	fetcher source.BulkSource
	ttl     time.Duration
	now     func() time.Time

	order []string
	slots map[string]*slot
	group singleflight.Group
}

// NewCache creates a cache over cfg.Catalogs. Every catalog starts with an
// empty, never-fetched snapshot; duplicate ids keep their first URL.
func NewCache(fetcher source.BulkSource, cfg Config) *Cache {
	c := &Cache{
		fetcher: fetcher,
		ttl:     cfg.TTL,
		now:     cfg.Now,
		slots:   make(map[string]*slot, len(cfg.Catalogs)),
	}
	if c.ttl <= 0 {
		c.ttl = DefaultTTL
	}
	if c.now == nil {
		c.now = time.Now
	}
	for _, cat := range cfg.Catalogs {
		if _, ok := c.slots[cat.ID]; ok || cat.ID == "" {
			continue
		}
		s := &slot{catalog: cat}
		s.snap.Store(&domain.CatalogSnapshot{CatalogID: cat.ID, Entries: []domain.CatalogEntry{}})
		c.slots[cat.ID] = s
		c.order = append(c.order, cat.ID)
	}
	return c
}

// Get returns the entries of catalog id, refetching them first when the
// snapshot is older than the TTL. A failed refetch is logged and the previous
// entries are returned unchanged, so the only error is ErrUnknownCatalog.
//
// Concurrent misses on the same id share one fetch. The fetch is detached
// from ctx cancellation so one departing caller cannot fail the others; the
// client timeout still bounds it.
func (c *Cache) Get(ctx context.Context, id string) ([]domain.CatalogEntry, error) {
	s, ok := c.slots[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownCatalog, id)
	}

	snap := s.snap.Load()
	if !snap.IsFresh(c.now(), c.ttl) {
		shared := context.WithoutCancel(ctx)
		v, _, _ := c.group.Do(id, func() (interface{}, error) {
			next, _ := c.refresh(shared, s, false)
			return next, nil
		})
		snap = v.(*domain.CatalogSnapshot)
	}
	return slices.Clone(snap.Entries), nil
}

// Snapshot returns the installed snapshot of id without fetching.
func (c *Cache) Snapshot(id string) (*domain.CatalogSnapshot, bool) {
	s, ok := c.slots[id]
	if !ok {
		return nil, false
	}
	return s.snap.Load(), true
}

// ForceRefresh refetches id regardless of its age and returns the entry count
// now held. On fetch failure the old snapshot is kept and the error returned
// alongside its count.
func (c *Cache) ForceRefresh(ctx context.Context, id string) (int, error) {
	s, ok := c.slots[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", domain.ErrUnknownCatalog, id)
	}
	snap, err := c.refresh(ctx, s, true)
	return snap.Count(), err
}

// ForceRefreshAll refetches every catalog and returns the resulting count per
// catalog id. Failed catalogs report the count of the snapshot they kept.
func (c *Cache) ForceRefreshAll(ctx context.Context) map[string]int {
	counts := make([]int, len(c.order))

	var g errgroup.Group
	g.SetLimit(refreshAllWorkers)
	for i, id := range c.order {
		g.Go(func() error {
			counts[i], _ = c.ForceRefresh(ctx, id)
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]int, len(c.order))
	for i, id := range c.order {
		out[id] = counts[i]
	}
	return out
}

// Warm loads every catalog that is not fresh yet.
func (c *Cache) Warm(ctx context.Context) map[string]int {
	var g errgroup.Group
	g.SetLimit(refreshAllWorkers)
	for _, id := range c.order {
		g.Go(func() error {
			_, err := c.Get(ctx, id)
			return err
		})
	}
	_ = g.Wait()
	return c.Counts()
}

// Counts returns the cached entry count per catalog without fetching.
func (c *Cache) Counts() map[string]int {
	out := make(map[string]int, len(c.order))
	for _, id := range c.order {
		out[id] = c.slots[id].snap.Load().Count()
	}
	return out
}

// Status describes every catalog in configuration order without fetching.
func (c *Cache) Status() []domain.CatalogStatus {
	now := c.now()
	out := make([]domain.CatalogStatus, 0, len(c.order))
	for _, id := range c.order {
		s := c.slots[id]
		snap := s.snap.Load()
		st := domain.CatalogStatus{
			ID:    id,
			URL:   s.catalog.URL,
			Count: snap.Count(),
			Fresh: snap.IsFresh(now, c.ttl),
		}
		if !snap.FetchedAt.IsZero() {
			st.FetchedAt = snap.FetchedAt.UTC().Format(time.RFC3339)
		}
		out = append(out, st)
	}
	return out
}

// Catalogs returns the configured catalog ids in order.
func (c *Cache) Catalogs() []string {
	return slices.Clone(c.order)
}

// refresh fetches and installs a new snapshot for s. Unless force is set, a
// snapshot that became fresh while waiting for the lock is returned as is.
func (c *Cache) refresh(ctx context.Context, s *slot, force bool) (*domain.CatalogSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx = logger.SetCatalog(logger.Scope(ctx, "catalog_cache", c.fetcher.GetSourceID()), s.catalog.ID)
	current := s.snap.Load()
	if !force && current.IsFresh(c.now(), c.ttl) {
		return current, nil
	}

	start := c.now()
	entries, err := c.fetcher.FetchCatalog(ctx, s.catalog)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Warn("Catalog fetch failed")
		if current.Count() > 0 {
			logger.With(logger.Fields{logger.FieldCount: current.Count()}).
				Info(ctx, "Serving stale catalog snapshot")
		}
		return current, err
	}

	fetchedAt := c.now()
	if !fetchedAt.After(current.FetchedAt) {
		fetchedAt = current.FetchedAt.Add(time.Nanosecond)
	}
	next := &domain.CatalogSnapshot{
		CatalogID: s.catalog.ID,
		Entries:   dedupe(entries),
		FetchedAt: fetchedAt,
	}
	s.snap.Store(next)

	logger.With(logger.Fields{logger.FieldCount: next.Count()}).
		WithDuration(fetchedAt.Sub(start).Milliseconds()).
		Info(ctx, "Catalog snapshot refreshed")
	return next, nil
}

// dedupe keeps the first entry per case-insensitive title and drops entries
// without an image.
func dedupe(entries []domain.CatalogEntry) []domain.CatalogEntry {
	seen := make(map[string]struct{}, len(entries))
	out := make([]domain.CatalogEntry, 0, len(entries))
	for _, e := range entries {
		if !e.HasImage() {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(e.Title))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, e)
	}
	return out
}
