package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"lacewing/internal/db/repositories"
	lwerrors "lacewing/internal/errors"
	"lacewing/internal/logging"
	"lacewing/internal/progress"
	"lacewing/internal/prompt"
	"lacewing/internal/provider"
	"lacewing/internal/registry"
	"lacewing/internal/template"
	"lacewing/internal/toolclient"
	"lacewing/internal/value"
	"lacewing/internal/workflows"
)

// Executor is the central step interpreter, per spec.md §4.7. One Executor
// instance is shared across concurrently running executions; per-execution
// mutable state lives entirely in RunContext and the local step loop, never
// on the Executor itself (spec.md §9's "avoid shared-mutable executor
// state across sub-workflows").
type Executor struct {
	Store      *repositories.Store
	Registry   *registry.Registry
	ToolClient *toolclient.Client
	Prompts    *prompt.Handler
	Provider   provider.Provider // nil when no LLM provider is configured
	Bus        *progress.Bus
	Logger     *logging.Logger
}

// New constructs an Executor from its collaborators.
func New(store *repositories.Store, reg *registry.Registry, tools *toolclient.Client, prompts *prompt.Handler, llm provider.Provider, bus *progress.Bus, logger *logging.Logger) *Executor {
	return &Executor{Store: store, Registry: reg, ToolClient: tools, Prompts: prompts, Provider: llm, Bus: bus, Logger: logger}
}

// Execute runs w to completion (or failure), per spec.md §4.7's Step 1-4.
func (e *Executor) Execute(ctx context.Context, w *workflows.Workflow, cfg Config, run RunContext) (*ExecutionResult, error) {
	vars := e.initialVariables(w, cfg, run)

	executionID := uuid.NewString()
	startedAt := time.Now().UTC()
	totalSteps := len(w.Steps)

	var parentExecutionID string
	var parentStepIndex *int
	if run.ParentExecutionID != "" {
		parentExecutionID = run.ParentExecutionID
		idx := run.ParentStepIndex
		parentStepIndex = &idx
	}

	exec := &repositories.Execution{
		ID:                executionID,
		WorkflowName:      w.Name,
		Status:            repositories.StatusRunning,
		StartedAt:         startedAt,
		TotalSteps:        &totalSteps,
		ParentExecutionID: parentExecutionID,
		ParentStepIndex:   parentStepIndex,
		Depth:             run.Depth,
		Trigger:           run.Trigger,
		Metadata:          map[string]any{"config": cfg.Values},
	}
	if err := e.Store.Executions.SaveExecution(ctx, exec); err != nil {
		return nil, err
	}

	e.emit(progress.Event{
		Type: progress.ExecutionStart, ExecutionID: executionID, WorkflowName: w.Name,
		Timestamp: startedAt, Depth: run.Depth,
	})

	if e.ToolClient != nil {
		servers := append(append([]string{}, w.MCPsRequired...), "shell")
		_ = e.ToolClient.AutoConnect(ctx, servers)
	}

	var stepResults []repositories.StepResult
	var failure error

	for i := run.ResumeFromStep; i < totalSteps; i++ {
		step := w.Steps[i]
		stepName := step.StableID(i)

		current := i
		_ = e.Store.Executions.UpdateExecution(ctx, executionID, repositories.ExecutionPatch{CurrentStep: &current})

		e.emit(progress.Event{
			Type: progress.StepStart, ExecutionID: executionID, WorkflowName: w.Name, Timestamp: time.Now().UTC(), Depth: run.Depth,
			Data: &progress.Data{StepIndex: i, StepName: stepName, Action: step.Action, Description: step.Description},
		})

		stepStartedAt := time.Now().UTC()

		if step.If != "" {
			ok, err := template.Evaluate(step.If, vars)
			if err != nil {
				failure = lwerrors.Template("failed to evaluate condition for step %s: %v", stepName, err)
				result := failedStepResult(executionID, i, stepName, step, stepStartedAt, failure)
				_ = e.Store.Steps.SaveStepResult(ctx, &result)
				stepResults = append(stepResults, result)
				e.emitStepFailed(executionID, w.Name, run.Depth, i, stepName, step, failure)
				break
			}
			if !ok {
				result := repositories.StepResult{
					ExecutionID: executionID, StepIndex: i, StepName: stepName, Action: step.Action,
					Description: step.Description, Status: repositories.StepSkipped,
					StartedAt: stepStartedAt, SkipReason: step.If,
				}
				completedAt := time.Now().UTC()
				result.CompletedAt = &completedAt
				_ = e.Store.Steps.SaveStepResult(ctx, &result)
				stepResults = append(stepResults, result)
				e.emit(progress.Event{
					Type: progress.StepSkipped, ExecutionID: executionID, WorkflowName: w.Name, Timestamp: completedAt, Depth: run.Depth,
					Data: &progress.Data{StepIndex: i, StepName: stepName, Action: step.Action, Description: step.Description},
				})
				continue
			}
		}

		input, err := template.InterpolateValue(step.Params, vars)
		if err != nil {
			failure = lwerrors.Template("failed to interpolate params for step %s: %v", stepName, err)
			result := failedStepResult(executionID, i, stepName, step, stepStartedAt, failure)
			_ = e.Store.Steps.SaveStepResult(ctx, &result)
			stepResults = append(stepResults, result)
			e.emitStepFailed(executionID, w.Name, run.Depth, i, stepName, step, failure)
			break
		}
		inputMap, _ := input.(map[string]any)

		var output any
		var childExecutionID string
		var retryAttempt int

		if run.DryRun {
			output = map[string]any{"dry_run": true}
		} else {
			output, childExecutionID, retryAttempt, err = e.retryDispatch(ctx, executionID, w, run, vars, step, i)
			if err != nil {
				completedAt := time.Now().UTC()
				result := repositories.StepResult{
					ExecutionID: executionID, StepIndex: i, StepName: stepName, Action: step.Action,
					Description: step.Description, Status: repositories.StepFailed,
					StartedAt: stepStartedAt, CompletedAt: &completedAt,
					Input: inputMap, Error: err.Error(), RetryAttempt: retryAttempt,
				}
				d := completedAt.Sub(stepStartedAt).Milliseconds()
				result.DurationMS = &d
				_ = e.Store.Steps.SaveStepResult(ctx, &result)
				stepResults = append(stepResults, result)
				e.emitStepFailed(executionID, w.Name, run.Depth, i, stepName, step, err)
				failure = err
				break
			}
		}

		completedAt := time.Now().UTC()
		duration := completedAt.Sub(stepStartedAt).Milliseconds()
		result := repositories.StepResult{
			ExecutionID: executionID, StepIndex: i, StepName: stepName, Action: step.Action,
			Description: step.Description, Status: repositories.StepCompleted,
			StartedAt: stepStartedAt, CompletedAt: &completedAt, DurationMS: &duration,
			Input: inputMap, Output: output, ChildExecutionID: childExecutionID, RetryAttempt: retryAttempt,
		}
		_ = e.Store.Steps.SaveStepResult(ctx, &result)
		stepResults = append(stepResults, result)

		e.emit(progress.Event{
			Type: progress.StepComplete, ExecutionID: executionID, WorkflowName: w.Name, Timestamp: completedAt, Depth: run.Depth,
			Data: &progress.Data{StepIndex: i, StepName: stepName, Action: step.Action, Description: step.Description, DurationMS: duration, Output: output, ChildExecutionID: childExecutionID},
		})

		if step.Output != "" {
			vars[step.Output] = output
			_ = e.Store.Contexts.SaveContext(ctx, executionID, vars)
		}

		if w.TimeoutMS > 0 && time.Since(startedAt) > time.Duration(w.TimeoutMS)*time.Millisecond {
			failure = lwerrors.Timeout("workflow %q exceeded its timeout of %dms", w.Name, w.TimeoutMS)
			break
		}
	}

	return e.terminate(ctx, executionID, w.Name, run.Depth, startedAt, stepResults, vars, failure)
}

func (e *Executor) initialVariables(w *workflows.Workflow, cfg Config, run RunContext) value.Map {
	vars := value.Map{}
	for name, param := range w.ConfigSchema {
		if param.Default != nil {
			vars[name] = param.Default
		}
	}
	for k, v := range cfg.Values {
		vars[k] = v
	}
	for k, v := range run.Variables {
		vars[k] = v
	}
	return vars
}

func (e *Executor) terminate(ctx context.Context, executionID, workflowName string, depth int, startedAt time.Time, steps []repositories.StepResult, vars value.Map, failure error) (*ExecutionResult, error) {
	completedAt := time.Now().UTC()
	duration := completedAt.Sub(startedAt).Milliseconds()

	result := &ExecutionResult{
		ExecutionID: executionID,
		Steps:       steps,
		DurationMS:  duration,
		Context:     vars,
	}

	if failure != nil {
		result.Status = repositories.StatusFailed
		result.Error = failure.Error()
		errMsg := failure.Error()
		errStack := fmt.Sprintf("%+v", failure)
		status := repositories.StatusFailed
		_ = e.Store.Executions.UpdateExecution(ctx, executionID, repositories.ExecutionPatch{
			Status: &status, CompletedAt: &completedAt, DurationMS: &duration,
			Error: &errMsg, ErrorStack: &errStack,
		})
		e.emit(progress.Event{
			Type: progress.ExecutionFailed, ExecutionID: executionID, WorkflowName: workflowName,
			Timestamp: completedAt, Depth: depth, Data: &progress.Data{Error: errMsg},
		})
		return result, failure
	}

	status := repositories.StatusCompleted
	result.Status = status
	_ = e.Store.Executions.UpdateExecution(ctx, executionID, repositories.ExecutionPatch{
		Status: &status, CompletedAt: &completedAt, DurationMS: &duration,
	})
	e.emit(progress.Event{
		Type: progress.ExecutionComplete, ExecutionID: executionID, WorkflowName: workflowName,
		Timestamp: completedAt, Depth: depth,
	})
	return result, nil
}

func (e *Executor) emit(ev progress.Event) {
	if e.Bus != nil {
		e.Bus.Publish(ev)
	}
}

func (e *Executor) emitStepFailed(executionID, workflowName string, depth, index int, stepName string, step workflows.Step, err error) {
	e.emit(progress.Event{
		Type: progress.StepFailed, ExecutionID: executionID, WorkflowName: workflowName, Timestamp: time.Now().UTC(), Depth: depth,
		Data: &progress.Data{StepIndex: index, StepName: stepName, Action: step.Action, Description: step.Description, Error: err.Error()},
	})
}

func failedStepResult(executionID string, index int, stepName string, step workflows.Step, startedAt time.Time, err error) repositories.StepResult {
	completedAt := time.Now().UTC()
	d := completedAt.Sub(startedAt).Milliseconds()
	return repositories.StepResult{
		ExecutionID: executionID, StepIndex: index, StepName: stepName, Action: step.Action,
		Description: step.Description, Status: repositories.StepFailed,
		StartedAt: startedAt, CompletedAt: &completedAt, DurationMS: &d, Error: err.Error(),
	}
}

// retryDispatch dispatches step's action, honoring step.Retry: attempts is
// the number of retries after the first try, so at most attempts+1 total
// invocations run (spec.md §8).
func (e *Executor) retryDispatch(ctx context.Context, executionID string, w *workflows.Workflow, run RunContext, vars value.Map, step workflows.Step, index int) (any, string, int, error) {
	attempts := 0
	delay := 0
	if step.Retry != nil {
		attempts = step.Retry.Attempts
		delay = step.Retry.DelayMS
	}

	var lastErr error
	for attempt := 0; attempt <= attempts; attempt++ {
		output, childExecutionID, err := e.dispatch(ctx, executionID, w, run, vars, step, index)
		if err == nil {
			return output, childExecutionID, attempt, nil
		}
		lastErr = err
		if !lwerrors.Retryable(err) {
			return nil, "", attempt, err
		}
		if attempt < attempts {
			if delay > 0 {
				time.Sleep(time.Duration(delay) * time.Millisecond)
			}
			continue
		}
	}
	return nil, "", attempts, lastErr
}
