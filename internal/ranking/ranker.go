// Package ranking scores catalog entries against a free-text query.
//
// Ranking is a pure function of its inputs: it never performs I/O and
// produces the same order for the same query, candidates and line hint.
package ranking

import (
	"sort"
	"strings"

	"github.com/timmy/figureimg/internal/domain"
)

// Tunable matching constants. They were chosen empirically against one
// catalog's naming conventions.
const (
	DefaultMaxResults   = 30
	SimilarityThreshold = 0.7
	MinTokenOverlap     = 1
	ShortQueryMaxTokens = 2
)

// Candidate is an entry offered to the ranker together with the catalog it
// came from. CatalogID is empty for entries with no catalog, such as generic
// image search hits.
type Candidate struct {
	Entry     domain.CatalogEntry
	CatalogID string
}

// Ranker orders candidates by relevance to a query.
type Ranker struct {
	tables     *Tables
	maxResults int
}

// NewRanker creates a ranker over the given tables. maxResults <= 0 uses
// DefaultMaxResults.
func NewRanker(tables *Tables, maxResults int) *Ranker {
	if tables == nil {
		tables = MustDefaultTables()
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return &Ranker{tables: tables, maxResults: maxResults}
}

// Tables returns the rule tables the ranker consults.
func (r *Ranker) Tables() *Tables {
	return r.tables
}

// scored carries the ranking-only attributes of a candidate. They never leave
// this package.
type scored struct {
	entry      domain.CatalogEntry
	priority   int
	matchCount int
	fullMatch  bool
}

// queryTerms is the pre-processed form of a query.
type queryTerms struct {
	normalized  string
	tokens      map[string]struct{}
	significant map[string]struct{}
	head        string
}

func (r *Ranker) prepare(query string) queryTerms {
	tokens := tokenize(query)
	q := queryTerms{
		normalized:  strings.Join(tokens, " "),
		tokens:      tokenSet(tokens),
		significant: make(map[string]struct{}, len(tokens)),
		head:        head(query),
	}
	for _, tok := range tokens {
		if !r.tables.IsStopWord(tok) {
			q.significant[tok] = struct{}{}
		}
	}
	return q
}

// Rank returns the candidates relevant to query, most relevant first,
// without duplicate image URLs and capped at the ranker's maximum.
func (r *Ranker) Rank(query string, candidates []Candidate, lineHint string) []domain.CatalogEntry {
	q := r.prepare(query)
	if q.normalized == "" || len(candidates) == 0 {
		return []domain.CatalogEntry{}
	}

	preferred := make(map[string]struct{})
	for _, id := range r.tables.PreferredCatalogs(lineHint) {
		preferred[id] = struct{}{}
	}

	kept := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		if strings.TrimSpace(c.Entry.Title) == "" || !c.Entry.HasImage() {
			continue
		}
		s, ok := r.match(q, c.Entry)
		if !ok {
			continue
		}
		s.priority = 1
		if _, ok := preferred[c.CatalogID]; ok && c.CatalogID != "" {
			s.priority = 0
		}
		kept = append(kept, s)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		a, b := kept[i], kept[j]
		if a.matchCount != b.matchCount {
			return a.matchCount > b.matchCount
		}
		if a.fullMatch != b.fullMatch {
			return a.fullMatch
		}
		return a.priority < b.priority
	})

	results := make([]domain.CatalogEntry, 0, min(len(kept), r.maxResults))
	seen := make(map[string]struct{}, len(kept))
	for _, s := range kept {
		if len(results) >= r.maxResults {
			break
		}
		if _, dup := seen[s.entry.ImageURL]; dup {
			continue
		}
		seen[s.entry.ImageURL] = struct{}{}
		results = append(results, s.entry)
	}
	return results
}

// match applies the confusable-identity guard and the inclusion test.
func (r *Ranker) match(q queryTerms, entry domain.CatalogEntry) (scored, bool) {
	titleTokens := tokenize(entry.Title)
	titleSet := tokenSet(titleTokens)

	if r.tables.Conflicts(q.tokens, titleSet) {
		return scored{}, false
	}

	s := scored{entry: entry}
	s.fullMatch = strings.Contains(strings.Join(titleTokens, " "), q.normalized)
	for tok := range q.significant {
		if _, ok := titleSet[tok]; ok {
			s.matchCount++
		}
	}

	switch {
	case s.fullMatch:
		return s, true
	case s.matchCount >= MinTokenOverlap:
		return s, true
	case len(q.significant) <= ShortQueryMaxTokens:
		titleHead := head(entry.Title)
		if q.head != "" && titleHead != "" && similarity(q.head, titleHead) > SimilarityThreshold {
			return s, true
		}
	}
	return scored{}, false
}
