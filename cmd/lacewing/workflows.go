package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lacewing/internal/workflows"
)

var (
	workflowsInstallOverwrite bool
	workflowsSearchSubstr     string

	workflowsCmd = &cobra.Command{
		Use:   "workflows",
		Short: "Manage the workflow registry",
	}

	workflowsListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered workflows",
		RunE:  runWorkflowsListCommand,
	}

	workflowsInstallCmd = &cobra.Command{
		Use:   "install <path>",
		Short: "Validate a workflow document and install it into the workflows directory",
		Args:  cobra.ExactArgs(1),
		RunE:  runWorkflowsInstallCommand,
	}

	workflowsUninstallCmd = &cobra.Command{
		Use:   "uninstall <name>",
		Short: "Remove a workflow from the registry",
		Args:  cobra.ExactArgs(1),
		RunE:  runWorkflowsUninstallCommand,
	}
)

func init() {
	workflowsListCmd.Flags().StringVar(&workflowsSearchSubstr, "search", "", "only list workflows whose name or description contains this substring")
	workflowsInstallCmd.Flags().BoolVar(&workflowsInstallOverwrite, "overwrite", false, "replace an already-installed workflow of the same name")
	workflowsCmd.AddCommand(workflowsUninstallCmd)
}

func runWorkflowsListCommand(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	matches := a.registry.Search(workflowsSearchSubstr)
	if len(matches) == 0 {
		fmt.Println("no workflows registered")
		return nil
	}
	for _, w := range matches {
		source, _ := a.registry.Source(w.Name)
		fmt.Printf("%-24s  %s\n", w.Name, w.Description)
		if source != "" {
			fmt.Printf("  %s\n", source)
		}
	}
	return nil
}

func runWorkflowsInstallCommand(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	loader := workflows.NewLoader("")
	f, err := loader.LoadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to load workflow file %q: %w", args[0], err)
	}

	path, err := a.registry.Install(a.paths.WorkflowsDir, f.Workflow, workflowsInstallOverwrite)
	if err != nil {
		return err
	}
	fmt.Printf("installed %q to %s\n", f.Workflow.Name, path)
	return nil
}

func runWorkflowsUninstallCommand(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	name := args[0]
	if _, err := a.registry.Lookup(name); err != nil {
		return err
	}
	a.registry.Unregister(name)
	fmt.Printf("unregistered %q (on-disk workflow document left in place)\n", name)
	return nil
}
