package executor

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lwdb "lacewing/internal/db"
	"lacewing/internal/db/repositories"
	"lacewing/internal/progress"
	"lacewing/internal/prompt"
	"lacewing/internal/registry"
	"lacewing/internal/toolclient"
	"lacewing/internal/workflows"
)

func newTestExecutor(t *testing.T) (*Executor, *registry.Registry) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	database, err := lwdb.New(path)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, database.Migrate())

	store := repositories.NewStore(database.Conn())
	reg := registry.New()
	tools := toolclient.New(toolclient.ConfigFile{}, nil)
	prompts := prompt.New(fixedResponder{value: "ok"}, nil)
	bus := progress.New(nil)

	return New(store, reg, tools, prompts, nil, bus, nil), reg
}

type fixedResponder struct {
	value any
	err   error
}

func (r fixedResponder) Respond(ctx context.Context, req prompt.Request) (any, error) {
	return r.value, r.err
}

func step(action string, params map[string]any, output string) workflows.Step {
	return workflows.Step{Action: action, Params: params, Output: output}
}

// S1: a linear workflow threads a step's output into a later step's params.
func TestExecute_LinearWorkflowPassesVariablesBetweenSteps(t *testing.T) {
	exec, _ := newTestExecutor(t)
	w := &workflows.Workflow{
		Name: "linear",
		Steps: []workflows.Step{
			step("variable.set", map[string]any{"name": "greeting", "value": "hello"}, "set_result"),
			step("log.info", map[string]any{"message": "{{set_result.value}}"}, "log_result"),
		},
	}

	result, err := exec.Execute(context.Background(), w, Config{}, RunContext{})
	require.NoError(t, err)
	assert.Equal(t, repositories.StatusCompleted, result.Status)
	require.Len(t, result.Steps, 2)
	assert.Equal(t, repositories.StepCompleted, result.Steps[1].Status)
	setResult, ok := result.Context["set_result"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "hello", setResult["value"])
}

// S2: a child workflow only sees the vars explicitly passed to it, never
// the parent's own variable map.
func TestExecute_SubWorkflowContextIsolation(t *testing.T) {
	exec, reg := newTestExecutor(t)
	child := &workflows.Workflow{
		Name: "child",
		Steps: []workflows.Step{
			step("variable.get", map[string]any{"name": "secret"}, "leaked"),
		},
	}
	reg.Register(child, "")

	parent := &workflows.Workflow{
		Name: "parent",
		Steps: []workflows.Step{
			step("variable.set", map[string]any{"name": "secret", "value": "shh"}, "_"),
			step("workflow.run", map[string]any{"workflow": "child", "vars": map[string]any{}}, "child_result"),
		},
	}

	result, err := exec.Execute(context.Background(), parent, Config{}, RunContext{})
	require.Error(t, err)
	assert.Equal(t, repositories.StatusFailed, result.Status)
	assert.Contains(t, result.Error, "Child workflow 'child' failed")
	assert.Contains(t, result.Error, "secret")
}

// S3: a direct A -> B -> A cycle is rejected with the full chain in the
// error message.
func TestExecute_CircularDependencyDetected(t *testing.T) {
	exec, reg := newTestExecutor(t)
	a := &workflows.Workflow{
		Name:  "A",
		Steps: []workflows.Step{step("workflow.run", map[string]any{"workflow": "B"}, "out")},
	}
	b := &workflows.Workflow{
		Name:  "B",
		Steps: []workflows.Step{step("workflow.run", map[string]any{"workflow": "A"}, "out")},
	}
	reg.Register(a, "")
	reg.Register(b, "")

	result, err := exec.Execute(context.Background(), a, Config{}, RunContext{})
	require.Error(t, err)
	assert.Equal(t, repositories.StatusFailed, result.Status)
	assert.Contains(t, result.Error, "Circular dependency detected: A → B → A")
}

// S4: a step configured to retry exhausts its attempts and fails the
// workflow, recording the retry count.
func TestExecute_RetryExhaustionFailsWorkflow(t *testing.T) {
	exec, _ := newTestExecutor(t)
	w := &workflows.Workflow{
		Name: "retrying",
		Steps: []workflows.Step{
			{
				Action: "shell.execute_command",
				Params: map[string]any{"command": "exit 7"},
				Retry:  &workflows.RetryPolicy{Attempts: 2, DelayMS: 0},
			},
		},
	}

	result, err := exec.Execute(context.Background(), w, Config{}, RunContext{})
	require.Error(t, err)
	assert.Equal(t, repositories.StatusFailed, result.Status)
	require.Len(t, result.Steps, 1)
	assert.Equal(t, repositories.StepFailed, result.Steps[0].Status)
	assert.Equal(t, 2, result.Steps[0].RetryAttempt)
	assert.Contains(t, result.Steps[0].Error, "status 7")
}

// S5: a step whose "if" evaluates false is skipped without dispatch, and
// execution proceeds to the next step.
func TestExecute_ConditionalSkip(t *testing.T) {
	exec, _ := newTestExecutor(t)
	w := &workflows.Workflow{
		Name: "conditional",
		Steps: []workflows.Step{
			{
				Action: "log.error",
				Params: map[string]any{"message": "should not run"},
				If:     "false",
			},
			step("variable.set", map[string]any{"name": "ran", "value": true}, "after"),
		},
	}

	result, err := exec.Execute(context.Background(), w, Config{}, RunContext{})
	require.NoError(t, err)
	require.Len(t, result.Steps, 2)
	assert.Equal(t, repositories.StepSkipped, result.Steps[0].Status)
	assert.Equal(t, "false", result.Steps[0].SkipReason)
	assert.Equal(t, repositories.StepCompleted, result.Steps[1].Status)
}

// S6: ten levels of workflow.run nesting complete, and each child's result
// comes back up through step.Output bindings.
func TestExecute_DeepNestingThreadsResultBackUp(t *testing.T) {
	exec, reg := newTestExecutor(t)
	const depth = 10

	leaf := &workflows.Workflow{
		Name: "level-0",
		Steps: []workflows.Step{
			step("variable.set", map[string]any{"name": "level", "value": 0}, "result"),
		},
	}
	reg.Register(leaf, "")

	for i := 1; i < depth; i++ {
		childName := workflowName(i - 1)
		w := &workflows.Workflow{
			Name: workflowName(i),
			Steps: []workflows.Step{
				{
					Action: "workflow.run",
					Params: map[string]any{"workflow": childName, "vars": map[string]any{}},
					Output: "child_result",
				},
			},
		}
		reg.Register(w, "")
	}

	top, err := reg.Lookup(workflowName(depth - 1))
	require.NoError(t, err)

	result, err := exec.Execute(context.Background(), top, Config{}, RunContext{})
	require.NoError(t, err)
	assert.Equal(t, repositories.StatusCompleted, result.Status)

	childResult, ok := result.Context["child_result"].(map[string]any)
	require.True(t, ok)
	assert.NotNil(t, childResult)
}

func workflowName(level int) string {
	return "level-" + strconv.Itoa(level)
}
