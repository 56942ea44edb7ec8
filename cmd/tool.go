package cmd

import (
	"github.com/spf13/cobra"
)

var toolCmd = &cobra.Command{
	Use:   "tool",
	Short: "Cross-platform helpers for build recipes",
	Long: `Bundles small helper commands recipes can rely on regardless of platform.
The engine rewrites plain mv, rm and mkdir invocations to these
implementations so they behave the same everywhere.`,
}

func init() {
	rootCmd.AddCommand(toolCmd)
}
