package ranking

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// Rules is the static rule data the ranker consults. It is loaded from YAML so
// the tables can be extended without touching the ranking algorithm.
type Rules struct {
	StopWords        []string            `yaml:"stop_words"`
	Lines            map[string][]string `yaml:"lines"`
	ConfusableGroups []ConfusableGroup   `yaml:"confusable_groups"`
}

// ConfusableGroup is a set of identities sharing one role name.
type ConfusableGroup struct {
	Role    string     `yaml:"role"`
	Members []Identity `yaml:"members"`
}

// Identity is one member of a confusable group, recognised by its tokens.
type Identity struct {
	Name   string   `yaml:"name"`
	Tokens []string `yaml:"tokens"`
}

// DefaultRules returns the built-in rule tables.
func DefaultRules() (*Rules, error) {
	return ParseRules(defaultRulesYAML)
}

// LoadRules reads rule tables from path. An empty path yields the built-in tables.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return DefaultRules()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ranking rules: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes YAML rule tables.
func ParseRules(data []byte) (*Rules, error) {
	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse ranking rules: %w", err)
	}
	return &rules, nil
}

// Tables is the compiled, read-only form of Rules.
type Tables struct {
	stopWords map[string]struct{}
	lines     map[string][]string
	groups    []compiledGroup
}

type compiledGroup struct {
	role    string
	members []map[string]struct{}
	// identity holds every distinguishing token of the group.
	identity map[string]struct{}
}

// Compile builds lookup tables from the rules. Tokens appearing in more than
// one member of a group are dropped from that group since they identify no one.
func (r *Rules) Compile() *Tables {
	t := &Tables{
		stopWords: make(map[string]struct{}, len(r.StopWords)),
		lines:     make(map[string][]string, len(r.Lines)),
	}
	for _, w := range r.StopWords {
		t.stopWords[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	for line, catalogs := range r.Lines {
		t.lines[normalizeLine(line)] = append([]string(nil), catalogs...)
	}

	for _, g := range r.ConfusableGroups {
		seen := make(map[string]int)
		for _, m := range g.Members {
			for tok := range tokenSet(tokenize(strings.Join(m.Tokens, " "))) {
				seen[tok]++
			}
		}

		cg := compiledGroup{role: g.Role, identity: make(map[string]struct{})}
		for _, m := range g.Members {
			member := make(map[string]struct{})
			for tok := range tokenSet(tokenize(strings.Join(m.Tokens, " "))) {
				if seen[tok] > 1 {
					continue
				}
				member[tok] = struct{}{}
				cg.identity[tok] = struct{}{}
			}
			if len(member) > 0 {
				cg.members = append(cg.members, member)
			}
		}
		if len(cg.members) > 1 {
			t.groups = append(t.groups, cg)
		}
	}
	return t
}

// MustDefaultTables compiles the built-in rules and panics if they are malformed.
func MustDefaultTables() *Tables {
	rules, err := DefaultRules()
	if err != nil {
		panic(err)
	}
	return rules.Compile()
}

// IsStopWord reports whether tok never counts towards an overlap.
func (t *Tables) IsStopWord(tok string) bool {
	_, ok := t.stopWords[tok]
	return ok
}

// PreferredCatalogs returns the catalogs preferred for a product line, in order.
func (t *Tables) PreferredCatalogs(line string) []string {
	if line == "" {
		return nil
	}
	return t.lines[normalizeLine(line)]
}

// Conflicts reports whether the query clearly names one member of a confusable
// group while the title clearly names a different member and shares none of
// the query's identity tokens.
func (t *Tables) Conflicts(query, title map[string]struct{}) bool {
	for _, g := range t.groups {
		qm := g.identify(query)
		if qm < 0 {
			continue
		}
		tm := g.identify(title)
		if tm < 0 || tm == qm {
			continue
		}
		shared := false
		for tok := range query {
			if _, isIdentity := g.identity[tok]; !isIdentity {
				continue
			}
			if _, ok := title[tok]; ok {
				shared = true
				break
			}
		}
		if !shared {
			return true
		}
	}
	return false
}

// identify returns the index of the only member named by tokens, or -1 when
// no member or more than one member is named.
func (g compiledGroup) identify(tokens map[string]struct{}) int {
	found := -1
	for i, member := range g.members {
		for tok := range member {
			if _, ok := tokens[tok]; ok {
				if found >= 0 && found != i {
					return -1
				}
				found = i
				break
			}
		}
	}
	return found
}

func normalizeLine(line string) string {
	return strings.Join(strings.Fields(strings.ToLower(line)), " ")
}
