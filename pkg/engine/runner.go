package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// buildState tracks a target's progress within a single invocation. A
// target absent from the state map is unvisited; re-entering a target that is
// still visiting is the cycle condition.
type buildState int

const (
	stateUnvisited buildState = iota
	stateVisiting
	stateBuilt
	stateFailed
)

type (
	runtimeCtxKey struct{}
	runtimeCtx    struct {
		state map[string]buildState
	}
)

func getRuntimeCtx(ctx context.Context) *runtimeCtx {
	return ctx.Value(runtimeCtxKey{}).(*runtimeCtx)
}

// Options controls a single engine invocation.
type Options struct {
	// DryRun prints each command without executing anything.
	DryRun bool
	// Force runs every reached target's recipe regardless of staleness.
	Force bool
}

func getTargetEnv(target *Target) expand.Environ {
	envVars := os.Environ()

	for name, value := range target.Env {
		envVars = append(envVars, fmt.Sprintf("%s=%s", name, value))
	}

	return expand.ListEnviron(envVars...)
}

var defaultExecHandler = interp.DefaultExecHandler(2)

func selfExe() string {
	exe, err := os.Executable()
	if err != nil {
		return "smake"
	}

	return exe
}

func rewriteToolArgs(args []string) []string {
	if len(args) > 0 {
		switch args[0] {
		case "mv":
			fallthrough
		case "rm":
			fallthrough
		case "mkdir":
			// always use our cross-platform implementation for these operations to make sure
			// they behave consistently
			return append([]string{selfExe(), "tool"}, args...)
		}
	}

	return args
}

func execHandler(ctx context.Context, args []string) error {
	return defaultExecHandler(ctx, rewriteToolArgs(args))
}

var defaultOpenHandler = interp.DefaultOpenHandler()

func openHandler(ctx context.Context, path string, flag int, perm os.FileMode) (io.ReadWriteCloser, error) {
	if path == "/dev/null" {
		path = os.DevNull
	}

	return defaultOpenHandler(ctx, path, flag, perm)
}

// Build runs the named target and everything it transitively depends on.
// Prerequisites run before their dependents, each at most once per
// invocation, and the whole run aborts on the first failing command.
func Build(ctx context.Context, name string, rules *RuleSet, opts Options) error {
	rctx := runtimeCtx{
		state: make(map[string]buildState),
	}

	ctx = context.WithValue(ctx, runtimeCtxKey{}, &rctx)
	target, err := rules.Resolve(name)
	if err != nil {
		return err
	}

	if target == nil {
		// a plain file with no rule is already up to date
		log(ctx).Debug().Msgf("%s exists and has no rule, nothing to do", name)
		return nil
	}

	return buildTarget(ctx, target, rules, opts)
}

func buildTarget(ctx context.Context, target *Target, rules *RuleSet, opts Options) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	rctx := getRuntimeCtx(ctx)
	switch rctx.state[target.Name] {
	case stateBuilt:
		log(ctx).Debug().Msgf("Target %s already built", target.Name)
		return nil
	case stateVisiting:
		return &CycleError{Name: target.Name}
	}

	rctx.state[target.Name] = stateVisiting

	for _, dep := range target.Deps {
		depTarget, err := rules.Resolve(dep)
		if err != nil {
			rctx.state[target.Name] = stateFailed
			return eris.Wrapf(err, "target %s", target.Name)
		}

		if depTarget == nil {
			// plain file, satisfied as it is
			continue
		}

		err = buildTarget(ctx, depTarget, rules, opts)
		if err != nil {
			rctx.state[target.Name] = stateFailed
			return eris.Wrapf(err, "target %s failed due to its dependency %s", target.Name, dep)
		}
	}

	stale := true
	reason := "build was forced"
	if !opts.Force {
		var err error
		stale, reason, err = isStale(target, rules)
		if err != nil {
			rctx.state[target.Name] = stateFailed
			return err
		}
	}

	if !stale {
		log(ctx).Info().
			Str("target", target.Name).
			Msg("nothing to do")

		rctx.state[target.Name] = stateBuilt
		return nil
	}

	log(ctx).Debug().
		Str("target", target.Name).
		Msgf("building because %s", reason)

	err := runRecipe(ctx, target, rules, opts)
	if err != nil {
		rctx.state[target.Name] = stateFailed
		return err
	}

	rctx.state[target.Name] = stateBuilt
	return nil
}

// isStale determines whether a target's recipe has to run. Phony targets are
// always stale; file targets are stale if their output is missing or older
// than any file-backed prerequisite. Phony prerequisites have no timestamp
// and never make a file target stale on their own.
func isStale(target *Target, rules *RuleSet) (bool, string, error) {
	if target.Phony {
		return true, "it is a phony target", nil
	}

	outPath := rules.Path(target.Name)
	outInfo, err := os.Stat(outPath)
	if err != nil {
		if eris.Is(err, os.ErrNotExist) {
			return true, "the output is missing", nil
		}
		return false, "", eris.Wrapf(err, "failed to check output %s", outPath)
	}

	for _, dep := range target.Deps {
		depTarget, err := rules.Resolve(dep)
		if err != nil {
			return false, "", err
		}

		if depTarget != nil && depTarget.Phony {
			continue
		}

		info, err := os.Stat(rules.Path(dep))
		if err != nil {
			if eris.Is(err, os.ErrNotExist) && depTarget != nil {
				// the dependency ran but left no file behind
				continue
			}
			return false, "", eris.Wrapf(err, "failed to check dependency %s", dep)
		}

		if info.ModTime().After(outInfo.ModTime()) {
			return true, fmt.Sprintf("%s is newer", dep), nil
		}
	}

	return false, "", nil
}

func runRecipe(ctx context.Context, target *Target, rules *RuleSet, opts Options) error {
	if !target.Phony && !opts.DryRun {
		dir := filepath.Dir(rules.Path(target.Name))
		err := os.MkdirAll(dir, 0770)
		if err != nil {
			return eris.Wrapf(err, "failed to create directory %s", dir)
		}
	}

	base := target.Base
	if base == "" || base == "." {
		base = rules.Root
	}

	runner, err := interp.New(
		interp.Dir(base),
		interp.Env(getTargetEnv(target)),
		interp.ExecHandler(execHandler),
		interp.OpenHandler(openHandler),
		interp.StdIO(nil, os.Stdout, os.Stderr),
		interp.Params("-e"),
	)
	if err != nil {
		return eris.Wrap(err, "failed to initialize shell runner")
	}

	parser := syntax.NewParser()
	printer := syntax.NewPrinter(
		syntax.Minify(true),
	)
	strBuffer := strings.Builder{}

	for _, item := range target.Cmds {
		stmts, err := item.ToShellStmts(parser)
		if err != nil {
			return eris.Wrap(err, "failed to parse shell script")
		}
		if stmts != nil {
			for _, stm := range stmts {
				strBuffer.Reset()
				printer.Print(&strBuffer, stm)
				cmdText := strBuffer.String()
				log(ctx).Info().
					Str("target", target.Name).
					Bool("command", true).
					Msg(cmdText)

				if !opts.DryRun {
					// each command gets a fresh shell; variables and cd
					// don't carry over to the next line
					runner.Reset()
					err = runner.Run(ctx, stm)
					if err != nil {
						code := 1
						if status, ok := interp.IsExitStatus(err); ok {
							code = int(status)
						}

						return &CommandFailedError{
							TargetName: target.Name,
							Command:    cmdText,
							ExitCode:   code,
						}
					}

					if runner.Exited() {
						return nil
					}
				}
			}
		} else {
			subTarget, err := item.ToTarget()
			if err != nil {
				return eris.Wrap(err, "failed to retrieve target ref")
			}

			if subTarget != nil {
				err = buildTarget(ctx, subTarget, rules, opts)
				if err != nil {
					return err
				}
			} else {
				return eris.Errorf("unexpected target command %+v", item)
			}
		}

		if err = ctx.Err(); err != nil {
			return err
		}
	}

	return nil
}
