package engine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheRoundtrip(t *testing.T) {
	root := t.TempDir()
	cachePath := filepath.Join(root, CacheName)

	rules := NewRuleSet()
	rules.Root = root
	rules.Add(&Target{
		Name:  "clean",
		Phony: true,
		Desc:  "remove build output",
		Env:   map[string]string{"LANG": "C"},
		Cmds:  []TargetCmd{CmdScript{TargetName: "clean", Content: "rm -rf dist"}},
	})
	rules.Add(&Target{
		Name: "dist/%.js",
		Deps: []string{"%.js"},
		Cmds: []TargetCmd{CmdScript{TargetName: "dist/%.js", Content: "transpile %.js"}},
	})

	options := map[string]string{"transpiler": "babel"}

	err := WriteCache(cachePath, options, rules)
	require.NoError(t, err)

	readOptions, readRules, err := ReadCache(cachePath)
	require.NoError(t, err)
	assert.Equal(t, options, readOptions)
	require.NotNil(t, readRules)

	clean, ok := readRules.Targets["clean"]
	require.True(t, ok)
	assert.True(t, clean.Phony)
	assert.Equal(t, "C", clean.Env["LANG"])

	cmd, ok := clean.Cmds[0].(CmdScript)
	require.True(t, ok)
	assert.Equal(t, "rm -rf dist", cmd.Content)

	require.Len(t, readRules.Patterns, 1)
	target, err := readRules.Resolve("dist/app.js")
	require.NoError(t, err)
	assert.Equal(t, []string{"app.js"}, target.Deps)
}

func TestCacheFresh(t *testing.T) {
	root := t.TempDir()
	scriptPath := filepath.Join(root, "build.star")
	cachePath := filepath.Join(root, CacheName)

	err := os.WriteFile(scriptPath, []byte("# rules"), 0660)
	require.NoError(t, err)

	t.Run("missing cache", func(t *testing.T) {
		assert.False(t, CacheFresh(cachePath, scriptPath))
	})

	err = os.WriteFile(cachePath, []byte("cache"), 0660)
	require.NoError(t, err)

	past := time.Now().Add(-time.Hour)

	t.Run("cache newer", func(t *testing.T) {
		require.NoError(t, os.Chtimes(scriptPath, past, past))
		assert.True(t, CacheFresh(cachePath, scriptPath))
	})

	t.Run("script newer", func(t *testing.T) {
		require.NoError(t, os.Chtimes(cachePath, past.Add(-time.Hour), past.Add(-time.Hour)))
		assert.False(t, CacheFresh(cachePath, scriptPath))
	})
}
