// Package productpage resolves the title and images of a single item page on
// an allow-listed host.
package productpage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/timmy/figureimg/internal/domain"
	"github.com/timmy/figureimg/internal/source"
)

const (
	SourceID   = "productpage"
	SourceName = "Product Page"
)

// Adapter implements source.LookupSource.
type Adapter struct {
	client     *source.Client
	timeout    time.Duration
	allowed    []*url.URL
	strategies []Strategy
}

// NewAdapter creates a new product page adapter. Entries of allowedHosts
// that do not parse as absolute http(s) URLs are ignored, so an adapter with
// no valid prefix rejects every URL.
func NewAdapter(client *source.Client, timeout time.Duration, allowedHosts []string) *Adapter {
	a := &Adapter{
		timeout:    timeout,
		strategies: DefaultStrategies(),
	}
	for _, raw := range allowedHosts {
		u, err := url.Parse(strings.TrimSpace(raw))
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			continue
		}
		a.allowed = append(a.allowed, u)
	}
	// Every redirect hop is held to the same allow-list as the item URL.
	a.client = client.WithRedirectCheck(a.allowedURL)
	return a
}

// GetSourceID returns the unique identifier for this source
func (a *Adapter) GetSourceID() string {
	return SourceID
}

// GetDisplayName returns a human-readable name for this source
func (a *Adapter) GetDisplayName() string {
	return SourceName
}

// Kind returns domain.SourceKindLookup.
func (a *Adapter) Kind() domain.SourceKind {
	return domain.SourceKindLookup
}

// Allowed reports whether itemURL has the scheme and host of an allow-listed
// prefix and a cleaned path at or below the prefix path.
func (a *Adapter) Allowed(itemURL string) bool {
	u, err := url.Parse(strings.TrimSpace(itemURL))
	if err != nil {
		return false
	}
	return a.allowedURL(u)
}

func (a *Adapter) allowedURL(u *url.URL) bool {
	if u.Host == "" || u.User != nil {
		return false
	}
	for _, prefix := range a.allowed {
		if !strings.EqualFold(u.Scheme, prefix.Scheme) || !strings.EqualFold(u.Host, prefix.Host) {
			continue
		}
		if underPath(u.Path, prefix.Path) {
			return true
		}
	}
	return false
}

// underPath reports whether p, after dot segments are resolved, equals
// prefix or lies below it on a segment boundary.
func underPath(p, prefix string) bool {
	prefix = strings.TrimSuffix(path.Clean("/"+prefix), "/")
	if prefix == "" {
		return true
	}
	p = path.Clean("/" + p)
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

// Lookup fetches itemURL and runs every extraction strategy over it.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - itemURL: item page URL; must pass Allowed.
// Returns:
//   - *domain.ProductResult: page title and de-duplicated image URLs.
//   - error: ErrHostNotAllowed before any network access or when a redirect
//     leaves the allow-list, or a *domain.ResolutionError when no image
//     was recovered.
func (a *Adapter) Lookup(ctx context.Context, itemURL string) (*domain.ProductResult, error) {
	itemURL = strings.TrimSpace(itemURL)
	if !a.Allowed(itemURL) {
		return nil, fmt.Errorf("%w: %w: %s", domain.ErrInvalidRequest, domain.ErrHostNotAllowed, itemURL)
	}

	body, err := a.client.Get(ctx, itemURL, a.timeout)
	if errors.Is(err, domain.ErrHostNotAllowed) {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	if err != nil {
		return nil, &domain.ResolutionError{URL: itemURL, Cause: domain.NewUpstreamError(SourceID, err)}
	}

	result, err := a.Parse(body, itemURL)
	if err != nil {
		return nil, &domain.ResolutionError{URL: itemURL, Cause: err}
	}
	if len(result.Images) == 0 {
		return nil, &domain.ResolutionError{URL: itemURL, Title: result.Title}
	}
	return result, nil
}

// Parse extracts the title and images from an item page. A strategy that
// panics contributes nothing; the others still run.
func (a *Adapter) Parse(body []byte, pageURL string) (*domain.ProductResult, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	page := &Page{Doc: doc, Base: base}
	seen := make(map[string]struct{})
	images := make([]string, 0)
	for _, s := range a.strategies {
		found, _ := runStrategy(s, page)
		for _, u := range found {
			if u == "" {
				continue
			}
			if _, ok := seen[u]; ok {
				continue
			}
			seen[u] = struct{}{}
			images = append(images, u)
		}
	}

	return &domain.ProductResult{Title: pageTitle(doc), Images: images}, nil
}

func runStrategy(s Strategy, p *Page) (urls []string, err error) {
	defer source.Recover(&err, s.Name)
	return s.Extract(p), nil
}

func pageTitle(doc *goquery.Document) string {
	candidates := []string{
		doc.Find(`meta[property="og:title"]`).AttrOr("content", ""),
		doc.Find("title").First().Text(),
		doc.Find("h1").First().Text(),
	}
	for _, c := range candidates {
		if t := source.CleanText(c); t != "" {
			return t
		}
	}
	return ""
}
