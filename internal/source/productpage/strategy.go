package productpage

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"

	"github.com/timmy/figureimg/internal/source"
)

// Page is the parsed item page handed to each extraction strategy.
type Page struct {
	Doc  *goquery.Document
	Base *url.URL
}

// Strategy extracts image URLs from a page using one technique. It returns
// nil when the technique finds nothing.
type Strategy struct {
	Name    string
	Extract func(p *Page) []string
}

// DefaultStrategies returns the extraction strategies in priority order.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{Name: "meta", Extract: metaImages},
		{Name: "media", Extract: mediaImages},
		{Name: "jsonld", Extract: jsonLDImages},
		{Name: "script", Extract: scriptImages},
	}
}

var (
	metaSelectors = []string{
		`meta[property="og:image:secure_url"]`,
		`meta[property="og:image"]`,
		`meta[name="og:image"]`,
		`meta[name="twitter:image"]`,
		`meta[property="twitter:image"]`,
		`meta[itemprop="image"]`,
	}
	imageExt     = regexp.MustCompile(`(?i)\.(jpe?g|png|webp|gif)(\?.*)?$`)
	scriptURL    = regexp.MustCompile(`https?:\\?/\\?/[^"'\s<>()]+?\.(?:jpe?g|png|webp)(?:\?[^"'\s<>()\\]*)?`)
	uiAssetWords = []string{"logo", "icon", "sprite", "favicon", "placeholder", "spinner"}
)

func metaImages(p *Page) []string {
	var out []string
	for _, sel := range metaSelectors {
		p.Doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			out = append(out, source.Absolute(p.Base, s.AttrOr("content", "")))
		})
	}
	p.Doc.Find(`link[rel="image_src"]`).Each(func(_ int, s *goquery.Selection) {
		out = append(out, source.Absolute(p.Base, s.AttrOr("href", "")))
	})
	return out
}

// mediaImages reads visible img and picture elements, skipping UI assets.
func mediaImages(p *Page) []string {
	var out []string
	p.Doc.Find("img, picture source").Each(func(_ int, s *goquery.Selection) {
		candidates := []string{
			s.AttrOr("data-zoom-image", ""),
			s.AttrOr("data-large_image", ""),
			s.AttrOr("data-src", ""),
			s.AttrOr("src", ""),
			largestSrcset(s.AttrOr("srcset", "")),
		}
		for _, c := range candidates {
			u := source.Absolute(p.Base, c)
			if u == "" || isUIAsset(u) || !imageExt.MatchString(stripQuery(u)) {
				continue
			}
			out = append(out, u)
			return
		}
	})
	return out
}

// jsonLDImages walks embedded structured-data blocks for image fields.
func jsonLDImages(p *Page) []string {
	var out []string
	p.Doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		raw := strings.TrimSpace(s.Text())
		if !gjson.Valid(raw) {
			return
		}
		collectImages(gjson.Parse(raw), p.Base, &out)
	})
	return out
}

func collectImages(v gjson.Result, base *url.URL, out *[]string) {
	switch {
	case v.IsArray():
		v.ForEach(func(_, item gjson.Result) bool {
			collectImages(item, base, out)
			return true
		})
	case v.IsObject():
		v.ForEach(func(key, value gjson.Result) bool {
			if key.String() == "image" || key.String() == "thumbnailUrl" {
				appendImageValue(value, base, out)
				return true
			}
			if value.IsObject() || value.IsArray() {
				collectImages(value, base, out)
			}
			return true
		})
	}
}

// appendImageValue accepts the shapes schema.org allows for an image: a URL,
// an ImageObject, or a list of either.
func appendImageValue(v gjson.Result, base *url.URL, out *[]string) {
	switch {
	case v.IsArray():
		v.ForEach(func(_, item gjson.Result) bool {
			appendImageValue(item, base, out)
			return true
		})
	case v.IsObject():
		for _, key := range []string{"url", "contentUrl"} {
			if u := v.Get(key); u.Exists() {
				*out = append(*out, source.Absolute(base, u.String()))
				return
			}
		}
	default:
		*out = append(*out, source.Absolute(base, v.String()))
	}
}

// scriptImages sweeps inline script text for anything shaped like an image URL.
func scriptImages(p *Page) []string {
	var out []string
	p.Doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if s.AttrOr("src", "") != "" {
			return
		}
		for _, m := range scriptURL.FindAllString(s.Text(), -1) {
			u := strings.ReplaceAll(m, `\/`, "/")
			if isUIAsset(u) {
				continue
			}
			out = append(out, source.Absolute(p.Base, u))
		}
	})
	return out
}

func largestSrcset(srcset string) string {
	if srcset == "" {
		return ""
	}
	parts := strings.Split(srcset, ",")
	last := strings.Fields(strings.TrimSpace(parts[len(parts)-1]))
	if len(last) == 0 {
		return ""
	}
	return last[0]
}

func isUIAsset(u string) bool {
	lower := strings.ToLower(u)
	if strings.HasSuffix(stripQuery(lower), ".svg") {
		return true
	}
	for _, w := range uiAssetWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func stripQuery(u string) string {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		return u[:i]
	}
	return u
}
