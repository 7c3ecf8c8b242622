package ranking

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRules(t *testing.T) {
	rules, err := DefaultRules()
	require.NoError(t, err)

	assert.Contains(t, rules.StopWords, "multiverse")
	assert.Equal(t, []string{"multiverse", "page_punchers"}, rules.Lines["DC Multiverse"])
	assert.NotEmpty(t, rules.ConfusableGroups)

	tables := rules.Compile()
	assert.True(t, tables.IsStopWord("the"))
	assert.False(t, tables.IsStopWord("batman"))
	assert.Equal(t, []string{"multiverse", "page_punchers"}, tables.PreferredCatalogs("dc  MULTIVERSE"))
	assert.Nil(t, tables.PreferredCatalogs(""))
	assert.Nil(t, tables.PreferredCatalogs("Unknown Line"))
}

func TestCompile_DropsSharedTokens(t *testing.T) {
	rules := &Rules{ConfusableGroups: []ConfusableGroup{{
		Role: "flash",
		Members: []Identity{
			{Name: "Barry Allen", Tokens: []string{"barry", "allen"}},
			{Name: "Bart Allen", Tokens: []string{"bart", "allen"}},
		},
	}}}
	tables := rules.Compile()

	// "allen" names both members, so it identifies nobody.
	assert.False(t, tables.Conflicts(tokenSet([]string{"barry", "allen"}), tokenSet([]string{"flash", "allen"})))
	assert.True(t, tables.Conflicts(tokenSet([]string{"barry", "allen"}), tokenSet([]string{"bart", "allen"})))
	assert.False(t, tables.Conflicts(tokenSet([]string{"barry"}), tokenSet([]string{"barry", "bart"})))
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
stop_words: [motu]
lines:
  MOTU Origins: [motu_origins]
`), 0o644))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"motu"}, rules.StopWords)
	assert.Equal(t, []string{"motu_origins"}, rules.Compile().PreferredCatalogs("motu origins"))

	_, err = LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = ParseRules([]byte("stop_words: {"))
	assert.Error(t, err)

	defaults, err := LoadRules("")
	require.NoError(t, err)
	assert.NotEmpty(t, defaults.Lines)
}
