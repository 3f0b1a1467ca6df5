package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"lacewing/internal/db/repositories"
)

var (
	showTree bool

	showCmd = &cobra.Command{
		Use:   "show <execution-id>",
		Short: "Show one execution's steps and context",
		Args:  cobra.ExactArgs(1),
		RunE:  runShowCommand,
	}
)

func init() {
	showCmd.Flags().BoolVar(&showTree, "tree", false, "include sub-workflow executions recursively")
}

func runShowCommand(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	executionID := args[0]

	if showTree {
		tree, err := a.store.GetExecutionTree(cmd.Context(), executionID)
		if err != nil {
			return fmt.Errorf("failed to load execution tree: %w", err)
		}
		printExecutionTree(tree, 0)
		return nil
	}

	execution, err := a.store.Executions.GetExecution(cmd.Context(), executionID)
	if err != nil {
		return fmt.Errorf("failed to load execution: %w", err)
	}
	steps, err := a.store.Steps.GetSteps(cmd.Context(), executionID)
	if err != nil {
		return fmt.Errorf("failed to load steps: %w", err)
	}
	printExecution(execution, steps)

	context, err := a.store.Contexts.GetContext(cmd.Context(), executionID)
	if err == nil && len(context) > 0 {
		b, _ := json.MarshalIndent(context, "", "  ")
		fmt.Printf("context:\n%s\n", b)
	}
	return nil
}

func printExecution(e *repositories.Execution, steps []repositories.StepResult) {
	fmt.Printf("execution %s\n", e.ID)
	fmt.Printf("  workflow:  %s\n", e.WorkflowName)
	fmt.Printf("  status:    %s\n", e.Status)
	fmt.Printf("  started:   %s\n", e.StartedAt.Format("2006-01-02 15:04:05"))
	if e.Error != "" {
		fmt.Printf("  error:     %s\n", e.Error)
	}
	for _, s := range steps {
		fmt.Printf("  [%d] %-9s  %s  %s\n", s.StepIndex, s.Status, s.Action, s.Description)
		if s.Error != "" {
			fmt.Printf("      error: %s\n", s.Error)
		}
	}
}

func printExecutionTree(tree *repositories.ExecutionTree, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Printf("%s%s  %-9s  %s\n", indent, tree.Execution.ID, tree.Execution.Status, tree.Execution.WorkflowName)
	for _, child := range tree.Children {
		printExecutionTree(child, depth+1)
	}
}
