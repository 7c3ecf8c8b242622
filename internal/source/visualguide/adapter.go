// Package visualguide fetches whole catalog listings ("visual guides") in one
// request and extracts every named figure image it can find.
package visualguide

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/timmy/figureimg/internal/domain"
	"github.com/timmy/figureimg/internal/source"
)

const (
	SourceID   = "actionfigure411"
	SourceName = "ActionFigure411"
	SourceIcon = "star.fill"

	minContainerName = 4
	minImageName     = 6
	minTextName      = 11
)

var (
	imageExt = regexp.MustCompile(`(?i)\.(jpe?g|png|webp)$`)
	// trailer strips the link captions that follow a figure name.
	trailer = regexp.MustCompile(`(?is)(enlarge|add to collection).*`)
	// textEntry finds figure names written inline before their captions.
	textEntry  = regexp.MustCompile(`(DC (?:Multiverse|McFarlane DC Page Punchers) [^|]+?)(?:enlarge|add to collection)`)
	linePrefix = regexp.MustCompile(`^dc (?:multiverse|mcfarlane dc page punchers)\s*`)
	slugChars  = regexp.MustCompile(`[^a-z0-9]+`)
)

// Adapter implements source.BulkSource for visual guide listings.
type Adapter struct {
	client  *source.Client
	timeout time.Duration
}

// NewAdapter creates a new visual guide adapter.
// Parameters:
//   - client: shared HTTP client.
//   - timeout: per-fetch timeout; zero uses the client default.
// Returns:
//   - *Adapter: initialized adapter.
func NewAdapter(client *source.Client, timeout time.Duration) *Adapter {
	return &Adapter{client: client, timeout: timeout}
}

// GetSourceID returns the unique identifier for this source
func (a *Adapter) GetSourceID() string {
	return SourceID
}

// GetDisplayName returns a human-readable name for this source
func (a *Adapter) GetDisplayName() string {
	return SourceName
}

// Kind returns domain.SourceKindBulk.
func (a *Adapter) Kind() domain.SourceKind {
	return domain.SourceKindBulk
}

// FetchCatalog downloads the catalog listing and extracts its entries.
func (a *Adapter) FetchCatalog(ctx context.Context, catalog domain.CatalogSource) ([]domain.CatalogEntry, error) {
	if catalog.URL == "" {
		return nil, fmt.Errorf("%w: %s has no listing url", domain.ErrUnknownCatalog, catalog.ID)
	}
	body, err := a.client.Get(ctx, catalog.URL, a.timeout)
	if err != nil {
		return nil, domain.NewUpstreamError(SourceID, err)
	}
	entries, err := Parse(body, catalog.URL)
	if err != nil {
		return nil, domain.NewUpstreamError(SourceID, err)
	}
	return entries, nil
}

// Parse extracts entries from a listing page. Parts of the page that match no
// extraction rule are skipped; only an unreadable document is an error.
func Parse(body []byte, pageURL string) (entries []domain.CatalogEntry, err error) {
	defer source.Recover(&err, SourceID)

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid listing url %q: %w", pageURL, err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing: %w", err)
	}

	entries, pool := extractImages(doc, base)
	entries = append(entries, extractTextEntries(doc, entries, pool)...)
	return entries, nil
}

// extractImages reads every figure image tag and names it from its alt text
// or the text of its enclosing container. pool holds every figure image URL,
// named or not.
func extractImages(doc *goquery.Document, base *url.URL) (entries []domain.CatalogEntry, pool []string) {
	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		src := img.AttrOr("src", "")
		if src == "" {
			src = img.AttrOr("data-src", "")
		}
		if !strings.Contains(src, "/images/") || !imageExt.MatchString(src) {
			return
		}
		imageURL := source.Absolute(base, src)
		if imageURL == "" {
			return
		}
		imageURL = strings.Replace(imageURL, "/images/thumbs/", "/images/", 1)
		pool = append(pool, imageURL)

		name := img.AttrOr("alt", "")
		if name == "" {
			name = img.AttrOr("title", "")
		}
		if parent := img.Closest("td, div, li, article"); parent.Length() > 0 {
			text := strings.TrimSpace(trailer.ReplaceAllString(spacedText(parent), ""))
			if len(text) >= minContainerName {
				name = text
			}
		}

		name = source.CleanText(name)
		if len(name) < minImageName {
			return
		}
		entries = append(entries, newEntry(name, imageURL))
	})
	return entries, pool
}

// extractTextEntries finds figures named only in running text and resolves
// their image by matching the name's slug against the page's image pool.
func extractTextEntries(doc *goquery.Document, found []domain.CatalogEntry, pool []string) []domain.CatalogEntry {
	var entries []domain.CatalogEntry
	for _, m := range textEntry.FindAllStringSubmatch(doc.Text(), -1) {
		name := source.CleanText(m[1])
		if len(name) < minTextName {
			continue
		}
		lower := strings.ToLower(name)
		if containsTitle(found, lower) || containsTitle(entries, lower) {
			continue
		}
		entries = append(entries, newEntry(name, imageForSlug(pool, slugify(lower))))
	}
	return entries
}

func newEntry(title, imageURL string) domain.CatalogEntry {
	return domain.CatalogEntry{
		Title:      title,
		ImageURL:   imageURL,
		SourceName: SourceName,
		SourceIcon: SourceIcon,
	}
}

func containsTitle(entries []domain.CatalogEntry, lowerName string) bool {
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Title), lowerName) {
			return true
		}
	}
	return false
}

func slugify(lowerName string) string {
	slug := linePrefix.ReplaceAllString(lowerName, "")
	return strings.Trim(slugChars.ReplaceAllString(slug, "-"), "-")
}

// imageForSlug returns the first image whose file name starts with slug
// followed by its numeric id, or "" if none does.
func imageForSlug(pool []string, slug string) string {
	if slug == "" {
		return ""
	}
	for _, imageURL := range pool {
		u, err := url.Parse(imageURL)
		if err != nil {
			continue
		}
		file := strings.TrimSuffix(path.Base(u.Path), path.Ext(u.Path))
		if strings.HasPrefix(file, slug+"-") || file == slug {
			return imageURL
		}
	}
	return ""
}

// spacedText returns the text of sel with a single space between text nodes.
func spacedText(sel *goquery.Selection) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.Join(parts, " ")
}
