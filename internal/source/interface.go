package source

import (
	"context"

	"github.com/timmy/figureimg/internal/domain"
)

// Source describes an adapter to logs and to source filters.
type Source interface {
	// GetSourceID returns the stable identifier used in source filters.
	GetSourceID() string

	// GetDisplayName returns the human-readable label copied into entries.
	GetDisplayName() string

	// Kind reports how the adapter obtains entries.
	Kind() domain.SourceKind
}

// BulkSource fetches every entry of one enumerable catalog listing.
type BulkSource interface {
	Source

	// FetchCatalog fetches and parses the listing of catalog.
	// Parameters:
	//   - ctx: context for cancellation and deadlines.
	//   - catalog: catalog id and its remote listing URL.
	// Returns:
	//   - entries: every entry that could be extracted, never with an empty title.
	//   - err: non-nil if the listing could not be fetched at all.
	FetchCatalog(ctx context.Context, catalog domain.CatalogSource) ([]domain.CatalogEntry, error)
}

// SearchSource queries an external search surface with free text.
type SearchSource interface {
	Source

	// Search returns best-effort image candidates for query.
	Search(ctx context.Context, query string) ([]domain.CatalogEntry, error)
}

// LookupSource resolves a single item page.
type LookupSource interface {
	Source

	// Allowed reports whether itemURL may be fetched at all.
	Allowed(itemURL string) bool

	// Lookup resolves the title and images of the page at itemURL.
	Lookup(ctx context.Context, itemURL string) (*domain.ProductResult, error)
}
