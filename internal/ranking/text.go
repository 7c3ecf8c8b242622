package ranking

import (
	"regexp"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

var (
	tokenPattern = regexp.MustCompile(`[A-Za-z0-9]+`)
	// headSplit marks where a name's variant description begins.
	headSplit = regexp.MustCompile(`\s*[\(\-]`)
)

// tokenize lower-cases s and returns its alphanumeric runs in order.
func tokenize(s string) []string {
	return tokenPattern.FindAllString(strings.ToLower(s), -1)
}

func tokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	return set
}

// normalize reduces s to its lower-case tokens joined by single spaces, so
// punctuation never prevents a phrase match.
func normalize(s string) string {
	return strings.Join(tokenize(s), " ")
}

// head returns the lower-cased text before the first parenthesis or dash.
func head(s string) string {
	lower := strings.ToLower(s)
	if loc := headSplit.FindStringIndex(lower); loc != nil {
		lower = lower[:loc[0]]
	}
	return strings.TrimSpace(lower)
}

// similarity is the character-level sequence-similarity ratio of a and b,
// 2*M/T where M is the number of matched characters and T the total length.
func similarity(a, b string) float64 {
	m := difflib.NewMatcher(chars(a), chars(b))
	return m.Ratio()
}

func chars(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
