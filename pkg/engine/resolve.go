package engine

import (
	"os"
	"path/filepath"
	"strings"
)

// Wildcard is the placeholder token in pattern rule names. The text it
// matches is substituted into the rule's prerequisites and commands when the
// rule is instantiated for a concrete name.
const Wildcard = "%"

// matchPattern matches a concrete name against a pattern rule name and
// returns the text captured by the wildcard.
func matchPattern(pattern, name string) (string, bool) {
	pos := strings.Index(pattern, Wildcard)
	if pos < 0 {
		return "", false
	}

	prefix := pattern[:pos]
	suffix := pattern[pos+len(Wildcard):]
	if len(name) < len(prefix)+len(suffix)+1 {
		return "", false
	}
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
		return "", false
	}

	return name[len(prefix) : len(name)-len(suffix)], true
}

// instantiate produces a concrete target from a pattern rule by substituting
// the matched stem into the name, every prerequisite and every command.
func (t *Target) instantiate(name, stem string) *Target {
	inst := &Target{
		Env:    t.Env,
		Name:   name,
		Desc:   t.Desc,
		Base:   t.Base,
		Phony:  t.Phony,
		Hidden: true,
	}

	inst.Deps = make([]string, len(t.Deps))
	for idx, dep := range t.Deps {
		inst.Deps[idx] = strings.ReplaceAll(dep, Wildcard, stem)
	}

	inst.Cmds = make([]TargetCmd, len(t.Cmds))
	for idx, cmd := range t.Cmds {
		switch cmd := cmd.(type) {
		case CmdScript:
			inst.Cmds[idx] = CmdScript{
				TargetName: name,
				Index:      cmd.Index,
				Content:    strings.ReplaceAll(cmd.Content, Wildcard, stem),
			}
		default:
			inst.Cmds[idx] = cmd
		}
	}

	return inst
}

// Resolve looks up name as an explicit target and falls back to matching it
// against the pattern rules in declaration order. A nil target with a nil
// error means the name is a plain file that exists on disk and has no rule;
// such a prerequisite is treated as satisfied, never as stale.
func (rs *RuleSet) Resolve(name string) (*Target, error) {
	if target, ok := rs.Targets[name]; ok {
		return target, nil
	}

	for _, rule := range rs.Patterns {
		if stem, ok := matchPattern(rule.Name, name); ok {
			return rule.instantiate(name, stem), nil
		}
	}

	info, err := os.Stat(rs.Path(name))
	if err == nil && !info.IsDir() {
		return nil, nil
	}

	return nil, &UnknownTargetError{Name: name}
}

// Path returns the on-disk location of a target or prerequisite name, which
// is interpreted relative to the rule set's root directory.
func (rs *RuleSet) Path(name string) string {
	if filepath.IsAbs(name) || rs.Root == "" {
		return name
	}

	return filepath.Join(rs.Root, name)
}
