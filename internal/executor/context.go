// Package executor implements the Workflow Executor: the recursive step
// interpreter that is the spec's central algorithm (spec.md §4.7-§4.8).
// Grounded on the teacher's internal/workflows/runtime executor dispatch
// idiom (a registry of namespace handlers invoked per step, since deleted
// from this tree once its Serverless-Workflow state model was replaced),
// rebuilt around the flat ordered-Steps model and recursive sub-workflow
// composition this spec requires.
package executor

import (
	"lacewing/internal/db/repositories"
	"lacewing/internal/value"
)

// RunContext carries everything that differs between a root Execute call
// and a recursive child Execute call triggered by workflow.run. Per
// spec.md §9's redesign note, this is passed by value/reference rather
// than mutating shared executor state across sub-workflows.
type RunContext struct {
	Variables         value.Map
	Depth             int
	ParentExecutionID string
	ParentStepIndex   int
	CallStack         []string
	Trigger           repositories.Trigger
	ResumeFromStep    int
	DryRun            bool
}

// RootContext is the RunContext for a top-level Execute call, exported for
// cmd/lacewing's run command to construct a root invocation.
func RootContext() RunContext {
	return RunContext{
		Variables: value.Map{},
		Trigger:   repositories.Trigger{Type: repositories.TriggerCLI},
	}
}

// Config is the caller-supplied configuration for one Execute call,
// overlaying the workflow's config_schema defaults.
type Config struct {
	Values map[string]any
}

// ExecutionResult is the outcome of Execute, per spec.md §4.7 step 4.
type ExecutionResult struct {
	ExecutionID string
	Status      repositories.Status
	Steps       []repositories.StepResult
	DurationMS  int64
	Context     map[string]any
	Error       string
}
