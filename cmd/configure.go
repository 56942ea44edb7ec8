package cmd

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"smake/pkg/engine"
)

var configureCmd = &cobra.Command{
	Use:   "configure [option=value...]",
	Short: "Evaluate the rule script and cache the resulting graph",
	Long: `Evaluates the rule script with the given option values and stores the
resulting dependency graph next to it. Later build invocations reuse the
cached graph as long as the script hasn't changed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		scriptFlag, err := cmd.Flags().GetString("file")
		if err != nil {
			return err
		}

		options := make(map[string]string)
		for _, part := range args {
			pos := strings.Index(part, "=")
			if pos < 0 {
				return eris.Errorf("expected option=value but got %s", part)
			}
			options[part[:pos]] = part[pos+1:]
		}

		logger := zerolog.New(NewConsoleWriter())
		ctx := engine.WithLogger(context.Background(), &logger)

		scriptPath, err := findScript(scriptFlag)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to locate rule script")
			return err
		}

		root := filepath.Dir(scriptPath)
		rules, scriptOptions, err := engine.LoadRules(ctx, scriptPath, root, options)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to load rule script")
			return err
		}

		for name := range options {
			if _, ok := scriptOptions[name]; !ok {
				logger.Warn().Msgf("Option %s isn't declared by the script", name)
			}
		}

		cachePath := filepath.Join(root, engine.CacheName)
		err = engine.WriteCache(cachePath, options, rules)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to write the rule cache")
			return err
		}

		logger.Info().Msgf("Cached %d targets and %d pattern rules", len(rules.Targets), len(rules.Patterns))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configureCmd)
	configureCmd.Flags().String("file", "", "rule script to use instead of the next "+DefaultScript)
}
