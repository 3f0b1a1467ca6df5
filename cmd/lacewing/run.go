package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"lacewing/internal/executor"
	"lacewing/internal/workflows"
)

var (
	runConfigFlags []string
	runDryRun      bool
	runResumeStep  int

	runCmd = &cobra.Command{
		Use:   "run <workflow-name-or-path>",
		Short: "Run a workflow",
		Long:  "Run a workflow by registered name or by path to a *.workflow.yaml file.",
		Args:  cobra.ExactArgs(1),
		RunE:  runRunCommand,
	}
)

func init() {
	runCmd.Flags().StringArrayVar(&runConfigFlags, "config", nil, "a config_schema value as key=value, repeatable")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "validate and plan the run without dispatching side-effecting steps")
	runCmd.Flags().IntVar(&runResumeStep, "resume", 0, "resume at the given step index instead of starting from step 0")
}

func runRunCommand(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	w, err := resolveWorkflow(a, args[0])
	if err != nil {
		return err
	}

	values, err := parseConfigFlags(runConfigFlags)
	if err != nil {
		return err
	}

	run := executor.RootContext()
	run.DryRun = runDryRun
	run.ResumeFromStep = runResumeStep

	result, err := a.executor.Execute(cmd.Context(), w, executor.Config{Values: values}, run)
	if err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}

	fmt.Printf("execution %s: %s (%d step(s), %dms)\n", result.ExecutionID, result.Status, len(result.Steps), result.DurationMS)
	if result.Error != "" {
		fmt.Printf("error: %s\n", result.Error)
		return fmt.Errorf("workflow %q failed", w.Name)
	}
	return nil
}

// resolveWorkflow loads a workflow by path when target looks like a
// filesystem path to a workflow document, falling back to a registry
// lookup by name otherwise.
func resolveWorkflow(a *app, target string) (*workflows.Workflow, error) {
	if strings.HasSuffix(target, ".workflow.yaml") || strings.HasSuffix(target, ".workflow.yml") {
		loader := workflows.NewLoader("")
		f, err := loader.LoadFile(target)
		if err != nil {
			return nil, fmt.Errorf("failed to load workflow file %q: %w", target, err)
		}
		a.registry.Register(f.Workflow, f.FilePath)
		return f.Workflow, nil
	}
	return a.registry.Lookup(target)
}

// parseConfigFlags turns a list of "key=value" strings into a config map,
// decoding each value as JSON when possible so booleans/numbers/arrays
// survive the command line, and falling back to the raw string otherwise.
func parseConfigFlags(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	values := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --config value %q, expected key=value", pair)
		}
		values[key] = decodeConfigValue(raw)
	}
	return values, nil
}

func decodeConfigValue(raw string) any {
	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err == nil {
		return decoded
	}
	return raw
}
