package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lacewing/internal/db/repositories"
)

var (
	listWorkflowName string
	listStatus       string
	listLimit        int
	listRootOnly     bool

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List executions",
		RunE:  runListCommand,
	}
)

func init() {
	listCmd.Flags().StringVar(&listWorkflowName, "workflow", "", "filter by workflow name")
	listCmd.Flags().StringVar(&listStatus, "status", "", "filter by status (pending/running/paused/completed/failed/cancelled)")
	listCmd.Flags().IntVar(&listLimit, "limit", 50, "maximum number of executions to show")
	listCmd.Flags().BoolVar(&listRootOnly, "root-only", false, "hide sub-workflow executions")
}

func runListCommand(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	filter := repositories.ExecutionFilter{
		WorkflowName: listWorkflowName,
		Status:       repositories.Status(listStatus),
		RootOnly:     listRootOnly,
		Limit:        listLimit,
	}

	executions, err := a.store.Executions.QueryExecutions(cmd.Context(), filter)
	if err != nil {
		return fmt.Errorf("failed to list executions: %w", err)
	}

	if len(executions) == 0 {
		fmt.Println("no executions found")
		return nil
	}

	for _, e := range executions {
		line := fmt.Sprintf("%s  %-9s  %-24s  %s", e.ID, e.Status, e.WorkflowName, e.StartedAt.Format("2006-01-02 15:04:05"))
		if e.DurationMS != nil {
			line += fmt.Sprintf("  %dms", *e.DurationMS)
		}
		fmt.Println(line)
	}
	return nil
}
