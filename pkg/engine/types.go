package engine

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.starlark.net/starlark"
	"mvdan.cc/sh/v3/syntax"
)

// CmdScript is a shell snippet that is part of a target's recipe.
type CmdScript struct {
	TargetName string
	Content    string
	Index      int
}

func (s CmdScript) ToTarget() (*Target, error) {
	return nil, nil
}

func (s CmdScript) ToShellStmts(parser *syntax.Parser) ([]*syntax.Stmt, error) {
	reader := strings.NewReader(s.Content)
	result, err := parser.Parse(reader, fmt.Sprintf("%s:%d", s.TargetName, s.Index))
	if err != nil {
		return nil, eris.Wrapf(err, "failed to parse command %s", s.Content)
	}

	return result.Stmts, nil
}

// CmdTargetRef runs another target as part of a recipe.
type CmdTargetRef struct {
	Target *Target
}

func (t CmdTargetRef) ToTarget() (*Target, error) {
	return t.Target, nil
}

func (t CmdTargetRef) ToShellStmts(*syntax.Parser) ([]*syntax.Stmt, error) {
	return nil, nil
}

type TargetCmd interface {
	ToTarget() (*Target, error)
	ToShellStmts(*syntax.Parser) ([]*syntax.Stmt, error)
}

// Target contains the processed values passed to target() by the rule script.
// A non-phony target's name is also the path of the file it produces. A name
// containing the % wildcard declares a pattern rule; it never runs itself but
// is instantiated for every concrete name it matches.
type Target struct {
	Env    map[string]string
	Name   string
	Desc   string
	Base   string
	Deps   []string
	Cmds   []TargetCmd
	Phony  bool
	Hidden bool
}

// IsPattern reports whether the target is a pattern rule.
func (t *Target) IsPattern() bool {
	return strings.Contains(t.Name, Wildcard)
}

// RuleSet is the dependency graph: a lookup table of explicit targets plus
// the pattern rules in declaration order. It is built once per invocation and
// consulted read-only afterwards. Root is the directory target names are
// interpreted relative to, usually the directory containing the rule script.
type RuleSet struct {
	Targets  map[string]*Target
	Patterns []*Target
	Root     string
}

// NewRuleSet creates an empty RuleSet.
func NewRuleSet() *RuleSet {
	return &RuleSet{
		Targets:  make(map[string]*Target),
		Patterns: []*Target{},
	}
}

// Add registers a target. Pattern rules keep their declaration order; if an
// explicit name is declared in multiple rules the last one wins, which is
// standard make behavior.
func (rs *RuleSet) Add(t *Target) {
	if t.IsPattern() {
		rs.Patterns = append(rs.Patterns, t)
		return
	}

	rs.Targets[t.Name] = t
}

// Visible returns the names of all non-hidden explicit targets.
func (rs *RuleSet) Visible() []string {
	names := make([]string, 0, len(rs.Targets))
	for name, target := range rs.Targets {
		if !target.Hidden {
			names = append(names, name)
		}
	}
	return names
}

type ScriptOption struct {
	DefaultValue starlark.String
	Help         string
}

func (o ScriptOption) Default() string {
	return o.DefaultValue.GoString()
}

// Implement starlark.Value for *Target

// String returns a string representation of the target
func (t *Target) String() string {
	return fmt.Sprintf("<Target %s: %s>", t.Name, t.Desc)
}

// Type always returns "target" to indicate this type
func (t *Target) Type() string {
	return "target"
}

// Freeze doesn't do anything since targets are immutable anyway
func (t *Target) Freeze() {}

// Truth always returns true since a target can't be nil or None
func (t *Target) Truth() starlark.Bool {
	return starlark.True
}

// Hash always returns an error since target is not a hashable type
func (t *Target) Hash() (uint32, error) {
	return 0, eris.New("target is not a hashable type")
}
