// Command lacewing is the CLI front-end for the workflow automation
// engine: it resolves configuration, wires the Storage Adapter, Tool
// Client, Prompt Handler, LLM Provider, Progress Bus and Executor
// together, and exposes them as a small command tree. Grounded on the
// teacher's cmd/main/main.go init pattern (cobra.OnInitialize, a
// persistent --config flag, rootCmd.AddCommand per subcommand) trimmed to
// spec.md §6's smaller surface.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lacewing/internal/logging"
)

var (
	configHomeFlag string
	debugFlag      bool
	otelEndpoint   string

	rootCmd = &cobra.Command{
		Use:   "lacewing",
		Short: "Run and inspect workflow automations",
		Long: `lacewing executes declarative Workflow/Step documents: it interpolates
templates, dispatches tool calls, prompts for input, and records every
execution to a local (or libsql/Turso-backed) SQLite store.`,
	}
)

func init() {
	cobra.OnInitialize(initLogging)

	rootCmd.PersistentFlags().StringVar(&configHomeFlag, "config-home", "", "override the config home directory (default: LACEWING_CONFIG_HOME or the OS user config dir)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&otelEndpoint, "otel-endpoint", "", "OTLP/HTTP endpoint to export Storage Adapter/Executor spans to (unset disables export)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(workflowsCmd)
	rootCmd.AddCommand(serveCmd)

	workflowsCmd.AddCommand(workflowsListCmd)
	workflowsCmd.AddCommand(workflowsInstallCmd)
}

func initLogging() {
	logging.Initialize(debugFlag)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "lacewing:", err)
		os.Exit(1)
	}
}
