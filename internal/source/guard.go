package source

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Recover converts a panic raised by best-effort extraction into an error.
// Use it as: defer source.Recover(&err, "visualguide").
func Recover(err *error, name string) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%s: extraction panicked: %v", name, r)
	}
}

var whitespace = regexp.MustCompile(`\s+`)

// CleanText collapses runs of whitespace and trims s.
func CleanText(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// Absolute resolves ref against base. Protocol-relative and root-relative
// references are supported; unparsable references yield "".
func Absolute(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "data:") {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
