package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchPattern(t *testing.T) {
	cases := []struct {
		pattern string
		name    string
		stem    string
		ok      bool
	}{
		{"dist/%.js", "dist/main.js", "main", true},
		{"dist/%.js", "dist/sub/main.js", "sub/main", true},
		{"dist/%.js", "dist/.js", "", false},
		{"dist/%.js", "main.js", "", false},
		{"dist/%.js", "dist/main.css", "", false},
		{"%.o", "foo.o", "foo", true},
		{"no-wildcard", "no-wildcard", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.pattern+"/"+tc.name, func(t *testing.T) {
			stem, ok := matchPattern(tc.pattern, tc.name)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.stem, stem)
		})
	}
}

func TestResolveExplicit(t *testing.T) {
	rules := NewRuleSet()
	clean := &Target{Name: "clean", Phony: true}
	rules.Add(clean)

	target, err := rules.Resolve("clean")
	require.NoError(t, err)
	assert.Same(t, clean, target)
}

func TestResolvePattern(t *testing.T) {
	rules := NewRuleSet()
	rules.Add(&Target{
		Name: "dist/%.js",
		Deps: []string{"%.js", "lib/shim.js"},
		Cmds: []TargetCmd{
			CmdScript{TargetName: "dist/%.js", Content: "transpile %.js > dist/%.js"},
		},
	})

	target, err := rules.Resolve("dist/main.js")
	require.NoError(t, err)
	require.NotNil(t, target)

	assert.Equal(t, "dist/main.js", target.Name)
	assert.True(t, target.Hidden)
	assert.Equal(t, []string{"main.js", "lib/shim.js"}, target.Deps)

	script, ok := target.Cmds[0].(CmdScript)
	require.True(t, ok)
	assert.Equal(t, "transpile main.js > dist/main.js", script.Content)
}

func TestResolvePatternDeclarationOrder(t *testing.T) {
	rules := NewRuleSet()
	first := &Target{Name: "out/%.txt", Deps: []string{"%.txt"}}
	second := &Target{Name: "out/%", Deps: []string{"%"}}
	rules.Add(first)
	rules.Add(second)

	// both patterns match, the first declared rule wins
	target, err := rules.Resolve("out/a.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, target.Deps)
}

func TestResolvePlainFile(t *testing.T) {
	rules := NewRuleSet()
	rules.Root = t.TempDir()

	err := os.WriteFile(filepath.Join(rules.Root, "input.txt"), []byte("hi"), 0660)
	require.NoError(t, err)

	target, err := rules.Resolve("input.txt")
	require.NoError(t, err)
	assert.Nil(t, target)
}

func TestResolveUnknown(t *testing.T) {
	rules := NewRuleSet()
	rules.Root = t.TempDir()

	_, err := rules.Resolve("no-such-thing")
	require.Error(t, err)

	var unknownErr *UnknownTargetError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "no-such-thing", unknownErr.Name)
}

func TestAddLastWins(t *testing.T) {
	rules := NewRuleSet()
	rules.Add(&Target{Name: "dist", Desc: "old"})
	rules.Add(&Target{Name: "dist", Desc: "new"})

	target, err := rules.Resolve("dist")
	require.NoError(t, err)
	assert.Equal(t, "new", target.Desc)
}
