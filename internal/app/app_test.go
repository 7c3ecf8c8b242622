package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timmy/figureimg/internal/config"
	"github.com/timmy/figureimg/internal/domain"
	"github.com/timmy/figureimg/internal/logger"
)

const guideHTML = `<html><body><table><tr>
<td><img src="/images/thumbs/batman-hush-101.jpg" alt="Batman (Hush)"> DC Multiverse Batman (Hush) enlarge</td>
<td><img src="/images/thumbs/flash-jay-garrick-102.jpg" alt="Flash (Jay Garrick)"> DC Multiverse Flash (Jay Garrick) enlarge</td>
<td><img src="/images/thumbs/flash-barry-allen-103.jpg" alt="Flash (Barry Allen)"> DC Multiverse Flash (Barry Allen) enlarge</td>
</tr></table></body></html>`

func testConfig(listingURL string) *config.Config {
	return &config.Config{
		HTTP: config.HTTPConfig{Timeout: 5 * time.Second, SearchTimeout: time.Second},
		Catalog: config.CatalogConfig{
			TTL:         time.Hour,
			WarmOnStart: true,
			Catalogs:    []domain.CatalogSource{{ID: "multiverse", URL: listingURL}},
		},
		Search: config.SearchConfig{
			Workers:    4,
			MaxResults: 30,
			Sources:    map[string]bool{"actionfigure411": true},
		},
	}
}

func TestApp_SearchEndToEnd(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(guideHTML))
	}))
	defer srv.Close()

	a, err := New(testConfig(srv.URL+"/dc/multiverse-visual-guide.php"), logger.GetDefault())
	require.NoError(t, err)

	ctx := context.Background()
	a.Warm(ctx)
	require.Equal(t, int32(1), hits.Load())

	resp, err := a.Search.Search(ctx, domain.SearchQuery{Text: "Flash Jay Garrick"})
	require.NoError(t, err)

	require.NotEmpty(t, resp.Results)
	assert.Equal(t, srv.URL+"/images/flash-jay-garrick-102.jpg", resp.Results[0].ImageURL)
	for _, r := range resp.Results {
		assert.NotContains(t, r.Title, "Barry", "confusable identity leaked into results")
	}
	assert.Equal(t, int32(1), hits.Load(), "search within the TTL must not refetch")
}

func TestApp_DisabledSourcesAreNotQueried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(guideHTML))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL + "/guide.php")
	cfg.Search.Sources = map[string]bool{}
	a, err := New(cfg, nil)
	require.NoError(t, err)

	resp, err := a.Search.Search(context.Background(), domain.SearchQuery{Text: "batman"})
	require.NoError(t, err)
	assert.Zero(t, resp.Count)
	assert.Zero(t, hits.Load())
}

func TestApp_BadRulesPath(t *testing.T) {
	cfg := testConfig("https://example.com/guide.php")
	cfg.Ranking.RulesPath = "/nonexistent/rules.yaml"

	_, err := New(cfg, nil)
	assert.Error(t, err)
}
