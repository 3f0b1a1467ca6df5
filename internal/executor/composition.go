package executor

import (
	"context"
	"strings"
	"time"

	"lacewing/internal/db/repositories"
	lwerrors "lacewing/internal/errors"
	"lacewing/internal/progress"
	"lacewing/internal/value"
	"lacewing/internal/workflows"
)

const childExecutionIDKey = "_child_execution_id"

// dispatchWorkflowRun implements spec.md §4.8's sub-workflow composition:
// registry lookup, cycle detection over the call stack, context isolation
// (only the interpolated vars are visible to the child), and child-failure
// propagation as a step failure on the parent.
func (e *Executor) dispatchWorkflowRun(ctx context.Context, executionID string, stepIndex int, parent *workflows.Workflow, run RunContext, parentVars value.Map, params map[string]any) (any, string, error) {
	targetName, _ := params["workflow"].(string)
	if targetName == "" {
		return nil, "", lwerrors.Validation("workflow.run requires a non-empty \"workflow\"")
	}

	chain := append(append([]string{}, run.CallStack...), parent.Name)
	if idx := indexOfString(chain, targetName); idx >= 0 {
		cyclePath := append(append([]string{}, chain[idx:]...), targetName)
		return nil, "", lwerrors.Composition("Circular dependency detected: %s", strings.Join(cyclePath, " → "))
	}

	target, err := e.Registry.Lookup(targetName)
	if err != nil {
		return nil, "", err
	}

	childVars := value.Map{}
	if rawVars, ok := params["vars"].(map[string]any); ok {
		for k, v := range rawVars {
			childVars[k] = v
		}
	}

	childRun := RunContext{
		Variables:         childVars,
		Depth:             run.Depth + 1,
		ParentExecutionID: executionID,
		ParentStepIndex:   stepIndex,
		CallStack:         chain,
		Trigger:           repositories.Trigger{Type: repositories.TriggerWorkflow, Source: parent.Name},
		DryRun:            run.DryRun,
	}
	childCfg := Config{Values: map[string]any(childVars)}

	e.emit(progress.Event{
		Type: progress.ChildStart, WorkflowName: targetName, Timestamp: time.Now().UTC(), Depth: childRun.Depth,
	})

	childResult, err := e.Execute(ctx, target, childCfg, childRun)
	if err != nil {
		e.emit(progress.Event{
			Type: progress.ChildComplete, WorkflowName: targetName, Timestamp: time.Now().UTC(), Depth: childRun.Depth,
			Data: &progress.Data{Error: err.Error()},
		})
		return nil, "", lwerrors.Composition("Child workflow '%s' failed: %s", targetName, err.Error())
	}

	e.emit(progress.Event{
		Type: progress.ChildComplete, ExecutionID: childResult.ExecutionID, WorkflowName: targetName,
		Timestamp: time.Now().UTC(), Depth: childRun.Depth,
	})

	output := map[string]any{}
	for k, v := range childResult.Context {
		if k == childExecutionIDKey {
			continue
		}
		output[k] = v
	}
	return output, childResult.ExecutionID, nil
}

func indexOfString(haystack []string, needle string) int {
	for i, s := range haystack {
		if s == needle {
			return i
		}
	}
	return -1
}
