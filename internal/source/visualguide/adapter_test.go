package visualguide

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timmy/figureimg/internal/domain"
	"github.com/timmy/figureimg/internal/source"
)

const listingHTML = `<html><body>
<table><tr>
  <td><img src="/dc/images/thumbs/batman-flashpoint-4950.jpg" alt=""><br>
      DC Multiverse Batman (Flashpoint) enlarge | add to collection</td>
  <td><img src="https://cdn.example.com/dc/images/superman-hush-17.jpg" alt="DC Multiverse Superman (Hush)"></td>
  <td><img src="/dc/images/logo.gif" alt="Site logo"></td>
  <td><img src="/assets/banner.jpg" alt="A banner image"></td>
  <td><img src="/dc/images/x-1.jpg" alt="abc"></td>
</tr></table>
<p>DC Multiverse Green Lantern (Hal Jordan) enlarge</p>
<p>DC Multiverse Jay Garrick add to collection</p>
<img src="/dc/images/jay-garrick-88.jpg" alt="">
</body></html>`

func TestParse_ExtractsImagesAndNames(t *testing.T) {
	entries, err := Parse([]byte(listingHTML), "https://www.actionfigure411.com/dc/multiverse-visual-guide.php")
	require.NoError(t, err)

	byTitle := map[string]domain.CatalogEntry{}
	for _, e := range entries {
		assert.NotEmpty(t, e.Title)
		assert.Equal(t, SourceName, e.SourceName)
		assert.Equal(t, SourceIcon, e.SourceIcon)
		byTitle[e.Title] = e
	}

	flashpoint, ok := byTitle["DC Multiverse Batman (Flashpoint)"]
	require.True(t, ok, "container text names the image: %v", entries)
	assert.Equal(t, "https://www.actionfigure411.com/dc/images/batman-flashpoint-4950.jpg", flashpoint.ImageURL)

	hush, ok := byTitle["DC Multiverse Superman (Hush)"]
	require.True(t, ok)
	assert.Equal(t, "https://cdn.example.com/dc/images/superman-hush-17.jpg", hush.ImageURL)

	// Text-only names are kept; a matching image slug resolves them.
	lantern, ok := byTitle["DC Multiverse Green Lantern (Hal Jordan)"]
	require.True(t, ok)
	assert.Empty(t, lantern.ImageURL)

	jay, ok := byTitle["DC Multiverse Jay Garrick"]
	require.True(t, ok)
	assert.Equal(t, "https://www.actionfigure411.com/dc/images/jay-garrick-88.jpg", jay.ImageURL)

	for _, e := range entries {
		assert.NotContains(t, e.ImageURL, "logo.gif")
		assert.NotContains(t, e.ImageURL, "banner.jpg")
		assert.NotContains(t, e.ImageURL, "x-1.jpg")
	}
}

func TestParse_ToleratesUnknownStructure(t *testing.T) {
	entries, err := Parse([]byte(`<div><span>nothing to see</span>`), "https://www.actionfigure411.com/")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAdapter_FetchCatalog(t *testing.T) {
	var userAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(listingHTML))
	}))
	defer srv.Close()

	a := NewAdapter(source.NewClient(&source.ClientConfig{Timeout: 5 * time.Second}), time.Second)
	assert.Equal(t, SourceID, a.GetSourceID())
	assert.Equal(t, domain.SourceKindBulk, a.Kind())

	entries, err := a.FetchCatalog(context.Background(), domain.CatalogSource{ID: "multiverse", URL: srv.URL + "/guide.php"})
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
	assert.Equal(t, source.DefaultUserAgent, userAgent)

	_, err = a.FetchCatalog(context.Background(), domain.CatalogSource{ID: "multiverse", URL: srv.URL + "/missing"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUpstreamUnavailable))

	_, err = a.FetchCatalog(context.Background(), domain.CatalogSource{ID: "nowhere"})
	assert.True(t, errors.Is(err, domain.ErrUnknownCatalog))
}
