// Package imagesearch queries a generic web image search and keeps the
// third-party image URLs embedded in its result page.
package imagesearch

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/timmy/figureimg/internal/domain"
	"github.com/timmy/figureimg/internal/source"
)

const (
	SourceID   = "google"
	SourceName = "Google"
	SourceIcon = "magnifyingglass"

	// DefaultEndpoint is the image search URL; the escaped query is appended.
	DefaultEndpoint = "https://www.google.com/search?tbm=isch&q="
	// QuerySuffix narrows generic results to the product line.
	QuerySuffix = " mcfarlane action figure"
	// MaxCandidates caps how many matched URLs are considered.
	MaxCandidates = 15
)

var (
	quotedImage = regexp.MustCompile(`"(https://[^"]+\.(?:jpg|jpeg|png|webp))"`)
	ownHosts    = []string{"google", "gstatic"}
)

// Adapter implements source.SearchSource.
type Adapter struct {
	client   *source.Client
	timeout  time.Duration
	endpoint string
}

// NewAdapter creates a new image search adapter. An empty endpoint uses
// DefaultEndpoint.
func NewAdapter(client *source.Client, timeout time.Duration, endpoint string) *Adapter {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Adapter{client: client, timeout: timeout, endpoint: endpoint}
}

// GetSourceID returns the unique identifier for this source
func (a *Adapter) GetSourceID() string {
	return SourceID
}

// GetDisplayName returns a human-readable name for this source
func (a *Adapter) GetDisplayName() string {
	return SourceName
}

// Kind returns domain.SourceKindSearch.
func (a *Adapter) Kind() domain.SourceKind {
	return domain.SourceKindSearch
}

// Search runs query against the image search and returns one entry per
// distinct third-party image URL.
func (a *Adapter) Search(ctx context.Context, query string) ([]domain.CatalogEntry, error) {
	body, err := a.client.Get(ctx, a.endpoint+url.QueryEscape(query+QuerySuffix), a.timeout)
	if err != nil {
		return nil, domain.NewUpstreamError(SourceID, err)
	}
	return Parse(body, query), nil
}

// Parse extracts candidate entries from a result page.
func Parse(body []byte, query string) []domain.CatalogEntry {
	matches := quotedImage.FindAllSubmatch(body, -1)
	if len(matches) > MaxCandidates {
		matches = matches[:MaxCandidates]
	}

	title := fmt.Sprintf("%s - Google Image", query)
	seen := make(map[string]struct{})
	entries := make([]domain.CatalogEntry, 0, len(matches))
	for _, m := range matches {
		u := string(m[1])
		if isOwnHost(u) {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		entries = append(entries, domain.CatalogEntry{
			Title:      title,
			ImageURL:   u,
			SourceName: SourceName,
			SourceIcon: SourceIcon,
		})
	}
	return entries
}

func isOwnHost(u string) bool {
	for _, h := range ownHosts {
		if strings.Contains(u, h) {
			return true
		}
	}
	return false
}
