package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"smake/pkg/engine"
)

var rootCmd = &cobra.Command{
	Use:   "smake",
	Short: "Minimal make-style build runner",
	Long: `smake parses the first build.star file it finds, builds the dependency
graph it declares and runs the requested targets in dependency order.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI and translates engine errors into exit codes. A failed
// recipe command propagates the command's exit status; unknown targets,
// cycles and script errors exit with 2.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var cmdErr *engine.CommandFailedError
		if errors.As(err, &cmdErr) && cmdErr.ExitCode > 0 {
			os.Exit(cmdErr.ExitCode)
		}

		os.Exit(2)
	}
}
