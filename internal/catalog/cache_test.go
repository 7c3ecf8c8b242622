package catalog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timmy/figureimg/internal/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

type fakeFetcher struct {
	mu       sync.Mutex
	entries  map[string][]domain.CatalogEntry
	fail     map[string]bool
	delay    time.Duration
	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		entries: make(map[string][]domain.CatalogEntry),
		fail:    make(map[string]bool),
	}
}

func (f *fakeFetcher) GetSourceID() string     { return "fake" }
func (f *fakeFetcher) GetDisplayName() string  { return "Fake" }
func (f *fakeFetcher) Kind() domain.SourceKind { return domain.SourceKindBulk }

func (f *fakeFetcher) set(id string, entries []domain.CatalogEntry, fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[id] = entries
	f.fail[id] = fail
}

func (f *fakeFetcher) FetchCatalog(ctx context.Context, cat domain.CatalogSource) ([]domain.CatalogEntry, error) {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if n <= seen || f.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[cat.ID] {
		return nil, domain.NewUpstreamError("fake", errors.New("status 503"))
	}
	return append([]domain.CatalogEntry(nil), f.entries[cat.ID]...), nil
}

func entry(title, url string) domain.CatalogEntry {
	return domain.CatalogEntry{Title: title, ImageURL: url, SourceName: "Fake", SourceIcon: "star.fill"}
}

func newTestCache(f *fakeFetcher, clock *fakeClock, ids ...string) *Cache {
	cats := make([]domain.CatalogSource, 0, len(ids))
	for _, id := range ids {
		cats = append(cats, domain.CatalogSource{ID: id, URL: "https://example.com/" + id})
	}
	return NewCache(f, Config{Catalogs: cats, TTL: time.Hour, Now: clock.Now})
}

func TestGet_IdempotentWithinTTL(t *testing.T) {
	f := newFakeFetcher()
	f.set("multiverse", []domain.CatalogEntry{entry("Batman", "https://img/1.jpg")}, false)
	clock := newFakeClock()
	c := newTestCache(f, clock, "multiverse")
	ctx := context.Background()

	first, err := c.Get(ctx, "multiverse")
	require.NoError(t, err)

	f.set("multiverse", []domain.CatalogEntry{entry("Superman", "https://img/2.jpg")}, false)
	clock.Advance(59 * time.Minute)
	second, err := c.Get(ctx, "multiverse")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), f.calls.Load())

	clock.Advance(time.Minute)
	third, err := c.Get(ctx, "multiverse")
	require.NoError(t, err)
	assert.Equal(t, "Superman", third[0].Title)
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestGet_ServesStaleOnFailure(t *testing.T) {
	f := newFakeFetcher()
	f.set("retro", []domain.CatalogEntry{entry("Joker", "https://img/j.jpg")}, false)
	clock := newFakeClock()
	c := newTestCache(f, clock, "retro")
	ctx := context.Background()

	_, err := c.Get(ctx, "retro")
	require.NoError(t, err)
	before, _ := c.Snapshot("retro")

	f.set("retro", nil, true)
	clock.Advance(2 * time.Hour)
	got, err := c.Get(ctx, "retro")

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Joker", got[0].Title)
	after, _ := c.Snapshot("retro")
	assert.Same(t, before, after)
}

func TestGet_EmptyOnFirstFailure(t *testing.T) {
	f := newFakeFetcher()
	f.set("origins", nil, true)
	c := newTestCache(f, newFakeClock(), "origins")

	got, err := c.Get(context.Background(), "origins")

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGet_UnknownCatalog(t *testing.T) {
	c := newTestCache(newFakeFetcher(), newFakeClock(), "multiverse")

	_, err := c.Get(context.Background(), "nope")
	assert.True(t, errors.Is(err, domain.ErrUnknownCatalog))

	_, err = c.ForceRefresh(context.Background(), "nope")
	assert.True(t, errors.Is(err, domain.ErrUnknownCatalog))
}

func TestForceRefresh_StrictlyIncreasesFetchedAt(t *testing.T) {
	f := newFakeFetcher()
	f.set("multiverse", []domain.CatalogEntry{entry("Batman", "https://img/1.jpg")}, false)
	clock := newFakeClock()
	c := newTestCache(f, clock, "multiverse")
	ctx := context.Background()

	_, err := c.ForceRefresh(ctx, "multiverse")
	require.NoError(t, err)
	first, _ := c.Snapshot("multiverse")

	// The clock does not move between refreshes.
	n, err := c.ForceRefresh(ctx, "multiverse")
	require.NoError(t, err)
	second, _ := c.Snapshot("multiverse")

	assert.Equal(t, 1, n)
	assert.True(t, second.FetchedAt.After(first.FetchedAt))
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestForceRefresh_FailureKeepsSnapshot(t *testing.T) {
	f := newFakeFetcher()
	f.set("multiverse", []domain.CatalogEntry{entry("Batman", "https://img/1.jpg")}, false)
	c := newTestCache(f, newFakeClock(), "multiverse")
	ctx := context.Background()

	_, err := c.ForceRefresh(ctx, "multiverse")
	require.NoError(t, err)

	f.set("multiverse", nil, true)
	n, err := c.ForceRefresh(ctx, "multiverse")

	assert.True(t, errors.Is(err, domain.ErrUpstreamUnavailable))
	assert.Equal(t, 1, n)
}

func TestRefresh_DedupesBeforeCommit(t *testing.T) {
	f := newFakeFetcher()
	f.set("multiverse", []domain.CatalogEntry{
		entry("Batman (Hush)", "https://img/1.jpg"),
		entry("batman (hush)", "https://img/2.jpg"),
		entry("Nightwing", ""),
		entry("Robin", "https://img/3.jpg"),
	}, false)
	c := newTestCache(f, newFakeClock(), "multiverse")

	got, err := c.Get(context.Background(), "multiverse")

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "https://img/1.jpg", got[0].ImageURL)
	assert.Equal(t, "Robin", got[1].Title)
}

func TestGet_OneRefreshInFlightPerCatalog(t *testing.T) {
	f := newFakeFetcher()
	f.delay = 50 * time.Millisecond
	f.set("multiverse", []domain.CatalogEntry{entry("Batman", "https://img/1.jpg")}, false)
	c := newTestCache(f, newFakeClock(), "multiverse")
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := c.Get(ctx, "multiverse")
			assert.NoError(t, err)
			assert.Len(t, got, 1)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = c.ForceRefresh(ctx, "multiverse")
	}()
	wg.Wait()

	assert.Equal(t, int32(1), f.maxSeen.Load())
	assert.LessOrEqual(t, f.calls.Load(), int32(2))
}

func TestForceRefreshAll(t *testing.T) {
	f := newFakeFetcher()
	f.set("multiverse", []domain.CatalogEntry{entry("Batman", "https://img/1.jpg"), entry("Robin", "https://img/2.jpg")}, false)
	f.set("retro", []domain.CatalogEntry{entry("Joker", "https://img/3.jpg")}, false)
	f.set("origins", nil, true)
	c := newTestCache(f, newFakeClock(), "multiverse", "retro", "origins")

	counts := c.ForceRefreshAll(context.Background())

	assert.Equal(t, map[string]int{"multiverse": 2, "retro": 1, "origins": 0}, counts)
	assert.Equal(t, counts, c.Counts())
}

func TestStatus_NeverFetches(t *testing.T) {
	f := newFakeFetcher()
	f.set("multiverse", []domain.CatalogEntry{entry("Batman", "https://img/1.jpg")}, false)
	clock := newFakeClock()
	c := newTestCache(f, clock, "multiverse", "retro")

	st := c.Status()
	require.Len(t, st, 2)
	assert.Equal(t, "multiverse", st[0].ID)
	assert.False(t, st[0].Fresh)
	assert.Empty(t, st[0].FetchedAt)
	assert.Equal(t, int32(0), f.calls.Load())

	_, _ = c.Get(context.Background(), "multiverse")
	st = c.Status()
	assert.True(t, st[0].Fresh)
	assert.Equal(t, 1, st[0].Count)
	assert.Equal(t, "2024-05-01T12:00:00Z", st[0].FetchedAt)
	assert.Equal(t, []string{"multiverse", "retro"}, c.Catalogs())
}

func TestWarm(t *testing.T) {
	f := newFakeFetcher()
	f.set("multiverse", []domain.CatalogEntry{entry("Batman", "https://img/1.jpg")}, false)
	f.set("retro", []domain.CatalogEntry{entry("Joker", "https://img/3.jpg")}, false)
	c := newTestCache(f, newFakeClock(), "multiverse", "retro")

	counts := c.Warm(context.Background())
	assert.Equal(t, map[string]int{"multiverse": 1, "retro": 1}, counts)

	c.Warm(context.Background())
	assert.Equal(t, int32(2), f.calls.Load())
}
