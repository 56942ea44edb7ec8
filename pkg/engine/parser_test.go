package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestScript(t *testing.T, content string, options map[string]string) (*RuleSet, map[string]ScriptOption, error) {
	t.Helper()

	root := t.TempDir()
	scriptPath := filepath.Join(root, "build.star")
	err := os.WriteFile(scriptPath, []byte(content), 0660)
	require.NoError(t, err)

	return LoadRules(testContext(), scriptPath, root, options)
}

func TestLoadRulesBasic(t *testing.T) {
	rules, _, err := loadTestScript(t, `
target(
    name="dist",
    phony=True,
    desc="build all bundles",
    deps=["dist/main.js", "dist/worker.js"],
)

target(
    name="dist/%.js",
    deps=["%.js"],
    cmds=["transpile %.js > dist/%.js"],
)
`, nil)
	require.NoError(t, err)

	dist, ok := rules.Targets["dist"]
	require.True(t, ok)
	assert.True(t, dist.Phony)
	assert.Equal(t, "build all bundles", dist.Desc)
	assert.Equal(t, []string{"dist/main.js", "dist/worker.js"}, dist.Deps)

	require.Len(t, rules.Patterns, 1)
	assert.Equal(t, "dist/%.js", rules.Patterns[0].Name)

	target, err := rules.Resolve("dist/worker.js")
	require.NoError(t, err)
	assert.Equal(t, []string{"worker.js"}, target.Deps)
}

func TestLoadRulesOptions(t *testing.T) {
	script := `
cc = option("cc", default="gcc", help="compiler to use")

target(name="compiler", phony=True, cmds=[cc + " --version"])
`

	t.Run("default value", func(t *testing.T) {
		rules, options, err := loadTestScript(t, script, nil)
		require.NoError(t, err)

		require.Contains(t, options, "cc")
		assert.Equal(t, "gcc", options["cc"].Default())

		cmd := rules.Targets["compiler"].Cmds[0].(CmdScript)
		assert.Equal(t, "gcc --version", cmd.Content)
	})

	t.Run("override", func(t *testing.T) {
		rules, _, err := loadTestScript(t, script, map[string]string{"cc": "clang"})
		require.NoError(t, err)

		cmd := rules.Targets["compiler"].Cmds[0].(CmdScript)
		assert.Equal(t, "clang --version", cmd.Content)
	})
}

func TestLoadRulesEnv(t *testing.T) {
	rules, _, err := loadTestScript(t, `
setenv("GLOBAL", "1")

target(name="a", phony=True, env={"LOCAL": "2"}, cmds=["true"])
`, nil)
	require.NoError(t, err)

	target := rules.Targets["a"]
	assert.Equal(t, "1", target.Env["GLOBAL"])
	assert.Equal(t, "2", target.Env["LOCAL"])
}

func TestLoadRulesTargetRef(t *testing.T) {
	rules, _, err := loadTestScript(t, `
helper = target(cmds=["echo helper"])

target(name="main", phony=True, cmds=[helper, "echo done"])
`, nil)
	require.NoError(t, err)

	main := rules.Targets["main"]
	require.Len(t, main.Cmds, 2)

	ref, ok := main.Cmds[0].(CmdTargetRef)
	require.True(t, ok)
	assert.True(t, ref.Target.Hidden)
	assert.Contains(t, ref.Target.Name, "auto#")
}

func TestLoadRulesAnonymousHidden(t *testing.T) {
	rules, _, err := loadTestScript(t, `
target(cmds=["echo hi"])
target(name="visible", phony=True)
`, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"visible"}, rules.Visible())
}

func TestLoadRulesRejectsDoubleWildcard(t *testing.T) {
	_, _, err := loadTestScript(t, `
target(name="%/%.js")
`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than one")
}

func TestLoadRulesRejectsPhonyPattern(t *testing.T) {
	_, _, err := loadTestScript(t, `
target(name="dist/%.js", phony=True)
`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "phony")
}

func TestLoadRulesDuplicateLastWins(t *testing.T) {
	rules, _, err := loadTestScript(t, `
target(name="dist", phony=True, desc="old")
target(name="dist", phony=True, desc="new")
`, nil)
	require.NoError(t, err)
	assert.Equal(t, "new", rules.Targets["dist"].Desc)
}

func TestLoadRulesCmdTuple(t *testing.T) {
	rules, _, err := loadTestScript(t, `
target(name="greet", phony=True, cmds=[("echo", "hello world")])
`, nil)
	require.NoError(t, err)

	cmd := rules.Targets["greet"].Cmds[0].(CmdScript)
	assert.Equal(t, "echo 'hello world'", cmd.Content)
}

func TestLoadRulesScriptError(t *testing.T) {
	_, _, err := loadTestScript(t, `
error("boom")
`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestPrependPathArgCount(t *testing.T) {
	_, _, err := loadTestScript(t, `prepend_path("bin", "sbin")`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "got 2 arguments, want 1")
}
