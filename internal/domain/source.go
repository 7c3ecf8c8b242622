package domain

// SourceKind classifies how an adapter obtains its entries.
// Values include SourceKindBulk, SourceKindLookup, and SourceKindSearch.
type SourceKind string

const (
	// SourceKindBulk adapters fetch a whole enumerable catalog listing.
	SourceKindBulk SourceKind = "bulk"
	// SourceKindLookup adapters resolve a single item page on demand.
	SourceKindLookup SourceKind = "lookup"
	// SourceKindSearch adapters query an external search surface with free text.
	SourceKindSearch SourceKind = "search"
)

// CatalogSource maps a catalog identifier to its remote listing.
type CatalogSource struct {
	ID  string `mapstructure:"id" json:"id"`
	URL string `mapstructure:"url" json:"url"`
}

// CatalogStatus describes the cached state of a catalog without triggering a fetch.
type CatalogStatus struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Count     int    `json:"count"`
	FetchedAt string `json:"fetched_at,omitempty"`
	Fresh     bool   `json:"fresh"`
}
