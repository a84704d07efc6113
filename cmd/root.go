// Package cmd provides the root command and CLI setup for archdna.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archdna",
		Short: "Architectural audit engine for C# codebases",
		Long: `Archdna scans a C# codebase without compiling it, builds a semantic
model of its types, namespaces and dependency-injection registrations, and
audits the result against architectural rules: layering, cohesion,
data-access boundaries, async hygiene and more.

Each run emits JSON, Markdown and SARIF report artifacts alongside a
terminal summary.`,
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
