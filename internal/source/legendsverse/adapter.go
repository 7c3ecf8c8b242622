// Package legendsverse searches a collector site whose media host serves
// figure card images.
package legendsverse

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/timmy/figureimg/internal/domain"
	"github.com/timmy/figureimg/internal/source"
)

const (
	SourceID   = "legendsverse"
	SourceName = "LegendsVerse"
	SourceIcon = "globe"

	DefaultEndpoint = "https://legendsverse.com/?s="
	MediaHost       = "media.legendsverse.com"

	maxImages    = 20
	maxTitle     = 80
	minTitle     = 4
	defaultTitle = "LegendsVerse Figure"
)

// Adapter implements source.SearchSource.
type Adapter struct {
	client   *source.Client
	timeout  time.Duration
	endpoint string
}

// NewAdapter creates a new LegendsVerse adapter. An empty endpoint uses
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

// Search queries the site search and returns its media images.
func (a *Adapter) Search(ctx context.Context, query string) ([]domain.CatalogEntry, error) {
	body, err := a.client.Get(ctx, a.endpoint+url.QueryEscape(query), a.timeout)
	if err != nil {
		return nil, domain.NewUpstreamError(SourceID, err)
	}
	entries, err := Parse(body)
	if err != nil {
		return nil, domain.NewUpstreamError(SourceID, err)
	}
	return entries, nil
}

// Parse extracts entries from a search result page. Image URLs are kept as
// served; the card and thumb renditions are the only ones that exist.
func Parse(body []byte) (entries []domain.CatalogEntry, err error) {
	defer source.Recover(&err, SourceID)

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	seen := make(map[string]struct{})
	entries = make([]domain.CatalogEntry, 0)
	doc.Find("img").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(s.AttrOr("src", ""), MediaHost)
	}).EachWithBreak(func(i int, img *goquery.Selection) bool {
		if i >= maxImages {
			return false
		}
		src := img.AttrOr("src", "")
		if _, ok := seen[src]; ok {
			return true
		}
		seen[src] = struct{}{}

		title := imageTitle(img)
		if len([]rune(title)) < minTitle {
			return true
		}
		entries = append(entries, domain.CatalogEntry{
			Title:      source.Truncate(title, maxTitle),
			ImageURL:   src,
			SourceName: SourceName,
			SourceIcon: SourceIcon,
		})
		return true
	})
	return entries, nil
}

func imageTitle(img *goquery.Selection) string {
	alt := img.AttrOr("alt", "")
	if alt == "" {
		alt = img.AttrOr("title", "")
	}
	if link := img.Closest("a"); link.Length() > 0 {
		if t := source.CleanText(link.AttrOr("title", "")); t != "" {
			return t
		}
		if t := source.CleanText(link.Text()); t != "" {
			return t
		}
		return source.CleanText(alt)
	}
	if t := source.CleanText(alt); t != "" {
		return t
	}
	return defaultTitle
}
