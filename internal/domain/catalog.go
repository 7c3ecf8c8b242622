package domain

import (
	"strings"
	"time"
)

// CatalogEntry is one discoverable image candidate produced by a source adapter.
// An empty ImageURL means the name is known but the image has not been resolved.
type CatalogEntry struct {
	Title      string `json:"title"`
	ImageURL   string `json:"url"`
	SourceName string `json:"source"`
	SourceIcon string `json:"source_icon"`
}

// HasImage reports whether the entry carries a resolved image URL.
func (e CatalogEntry) HasImage() bool {
	return strings.TrimSpace(e.ImageURL) != ""
}

// CatalogSnapshot is the cached state of one bulk catalog at a point in time.
// A snapshot is never mutated after it is installed; a refresh replaces it wholesale.
type CatalogSnapshot struct {
	CatalogID string
	Entries   []CatalogEntry
	FetchedAt time.Time
}

// Count returns the number of entries held by the snapshot.
func (s *CatalogSnapshot) Count() int {
	if s == nil {
		return 0
	}
	return len(s.Entries)
}

// IsFresh reports whether the snapshot was fetched less than ttl before now.
// A snapshot that was never fetched is never fresh.
func (s *CatalogSnapshot) IsFresh(now time.Time, ttl time.Duration) bool {
	if s == nil || s.FetchedAt.IsZero() {
		return false
	}
	return now.Sub(s.FetchedAt) < ttl
}

// SearchQuery is the input to one aggregated search.
type SearchQuery struct {
	Text string
	// SourceFilter names the adapters to query; empty means all of them.
	SourceFilter []string
	// LineHint names a product line used only to bias catalog ordering.
	LineHint string
}

// Normalize trims the query and validates it.
func (q *SearchQuery) Normalize() error {
	q.Text = strings.TrimSpace(q.Text)
	q.LineHint = strings.TrimSpace(q.LineHint)
	if q.Text == "" {
		return NewInvalidRequest("query parameter \"q\" is required")
	}
	return nil
}

// Wants reports whether the adapter with the given id is selected by the filter.
func (q *SearchQuery) Wants(sourceID string) bool {
	if len(q.SourceFilter) == 0 {
		return true
	}
	for _, s := range q.SourceFilter {
		if s == "all" || strings.EqualFold(s, sourceID) {
			return true
		}
	}
	return false
}

// ParseSourceFilter splits a comma separated source list. "all" or an empty
// value selects every adapter.
func ParseSourceFilter(raw string) []string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" || raw == "all" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if part == "all" {
			return nil
		}
		out = append(out, part)
	}
	return out
}

// SearchResponse is the payload returned for one search.
type SearchResponse struct {
	Query   string         `json:"query"`
	Count   int            `json:"count"`
	Results []CatalogEntry `json:"results"`
}

// ProductResult is the outcome of a single item page lookup.
type ProductResult struct {
	Title  string   `json:"title"`
	Images []string `json:"images"`
}

// RefreshResult reports per-catalog entry counts after a forced refresh.
type RefreshResult struct {
	Status string         `json:"status"`
	Counts map[string]int `json:"counts"`
	Total  int            `json:"total"`
}
