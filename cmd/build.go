package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"smake/pkg/engine"
)

// DefaultScript is the rule script searched for when --file isn't given.
const DefaultScript = "build.star"

var buildCmd = &cobra.Command{
	Use:   "build [target...] [option=value...]",
	Short: "Build the given targets",
	Long: `Resolves each named target against the rule script, runs stale targets in
dependency order and stops at the first failing command. Without target
arguments the visible targets are listed instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, err := cmd.Flags().GetBool("dry")
		if err != nil {
			return err
		}

		force, err := cmd.Flags().GetBool("force")
		if err != nil {
			return err
		}

		scriptFlag, err := cmd.Flags().GetString("file")
		if err != nil {
			return err
		}

		targetArgs := make([]string, 0)
		options := make(map[string]string)
		for _, part := range args {
			pos := strings.Index(part, "=")
			if pos > -1 {
				options[part[:pos]] = part[pos+1:]
			} else {
				targetArgs = append(targetArgs, part)
			}
		}

		logger := zerolog.New(NewConsoleWriter())
		ctx := engine.WithLogger(context.Background(), &logger)

		scriptPath, err := findScript(scriptFlag)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to locate rule script")
			return err
		}

		rules, err := loadRules(ctx, &logger, scriptPath, options)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to load rule script")
			return err
		}

		if len(targetArgs) == 0 {
			listTargets(rules)
			return nil
		}

		for _, name := range targetArgs {
			err = engine.Build(ctx, name, rules, engine.Options{DryRun: dryRun, Force: force})
			if err != nil {
				logger.Error().Err(err).Msgf("Failed target %s", name)
				return err
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().BoolP("dry", "n", false, "dry run; only print the commands, don't execute anything")
	buildCmd.Flags().BoolP("force", "f", false, "force build; always run the requested targets even if they're fresh")
	buildCmd.Flags().String("file", "", "rule script to use instead of the next "+DefaultScript)
}

// findScript returns the path of the rule script, either the --file argument
// or the first build.star found walking up from the working directory.
func findScript(scriptFlag string) (string, error) {
	if scriptFlag != "" {
		_, err := os.Stat(scriptFlag)
		if err != nil {
			return "", eris.Wrapf(err, "failed to check %s", scriptFlag)
		}
		return scriptFlag, nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", eris.Wrap(err, "failed to retrieve the current working directory")
	}

	path := wd
	for {
		scriptPath := filepath.Join(path, DefaultScript)
		_, err := os.Stat(scriptPath)
		if err == nil {
			return scriptPath, nil
		}
		if !eris.Is(err, os.ErrNotExist) {
			return "", eris.Wrapf(err, "failed to check %s", scriptPath)
		}

		parent := filepath.Dir(path)
		if parent == path {
			return "", eris.Errorf("no %s file found", DefaultScript)
		}

		path = parent
	}
}

// loadRules returns the dependency graph, from the configure cache when it is
// still fresh and no options were passed, otherwise by evaluating the script.
func loadRules(ctx context.Context, logger *zerolog.Logger, scriptPath string, options map[string]string) (*engine.RuleSet, error) {
	root := filepath.Dir(scriptPath)
	cachePath := filepath.Join(root, engine.CacheName)

	if len(options) == 0 && engine.CacheFresh(cachePath, scriptPath) {
		_, rules, err := engine.ReadCache(cachePath)
		if err == nil && rules != nil {
			return rules, nil
		}

		logger.Warn().Err(err).Msg("Ignoring unreadable rule cache")
	}

	rules, _, err := engine.LoadRules(ctx, scriptPath, root, options)
	return rules, err
}

func listTargets(rules *engine.RuleSet) {
	fmt.Println("Available targets:")

	names := rules.Visible()
	sort.Strings(names)

	maxNameLen := 0
	for _, name := range names {
		if len(name) > maxNameLen {
			maxNameLen = len(name)
		}
	}

	lineFmt := fmt.Sprintf(" * %%-%ds %%s\n", maxNameLen+3)
	for _, name := range names {
		fmt.Printf(lineFmt, name+":", rules.Targets[name].Desc)
	}
}
