package repositories

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lwdb "lacewing/internal/db"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	database, err := lwdb.New(path)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, database.Migrate())
	return NewStore(database.Conn())
}

func sampleExecution(id string) *Execution {
	return &Execution{
		ID:           id,
		WorkflowName: "demo",
		Status:       StatusRunning,
		StartedAt:    time.Now().UTC().Truncate(time.Second),
		Depth:        0,
		Trigger:      Trigger{Type: TriggerCLI},
		Metadata:     map[string]any{"source": "test"},
	}
}

func TestExecutionRepository_SaveThenGetRoundTrips(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	exec := sampleExecution("exec-1")
	require.NoError(t, store.Executions.SaveExecution(ctx, exec))

	got, err := store.Executions.GetExecution(ctx, "exec-1")
	require.NoError(t, err)
	assert.Equal(t, exec.WorkflowName, got.WorkflowName)
	assert.Equal(t, exec.Status, got.Status)
	assert.Equal(t, "test", got.Metadata["source"])
}

func TestExecutionRepository_GetMissingFails(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Executions.GetExecution(context.Background(), "nope")
	assert.Error(t, err)
}

func TestExecutionRepository_UpdatePatchesOnlySuppliedFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	exec := sampleExecution("exec-2")
	require.NoError(t, store.Executions.SaveExecution(ctx, exec))

	completed := StatusCompleted
	require.NoError(t, store.Executions.UpdateExecution(ctx, "exec-2", ExecutionPatch{Status: &completed}))

	got, err := store.Executions.GetExecution(ctx, "exec-2")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, exec.WorkflowName, got.WorkflowName)
}

func TestExecutionRepository_QueryFiltersByWorkflowAndStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Executions.SaveExecution(ctx, sampleExecution("a")))
	other := sampleExecution("b")
	other.WorkflowName = "other"
	other.Status = StatusFailed
	require.NoError(t, store.Executions.SaveExecution(ctx, other))

	results, err := store.Executions.QueryExecutions(ctx, ExecutionFilter{WorkflowName: "demo"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ID)
}

func TestExecutionRepository_QueryRootOnlyExcludesChildren(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Executions.SaveExecution(ctx, sampleExecution("root")))

	child := sampleExecution("child")
	child.ParentExecutionID = "root"
	child.Depth = 1
	require.NoError(t, store.Executions.SaveExecution(ctx, child))

	results, err := store.Executions.QueryExecutions(ctx, ExecutionFilter{RootOnly: true})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "root", results[0].ID)
}

func TestExecutionRepository_GetChildExecutions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Executions.SaveExecution(ctx, sampleExecution("root")))
	child := sampleExecution("child")
	child.ParentExecutionID = "root"
	child.Depth = 1
	require.NoError(t, store.Executions.SaveExecution(ctx, child))

	children, err := store.Executions.GetChildExecutions(ctx, "root")
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "child", children[0].ID)
}

func TestStepRepository_SaveStepResultIsIdempotentUnderReplay(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Executions.SaveExecution(ctx, sampleExecution("exec")))

	step := &StepResult{
		ExecutionID: "exec",
		StepIndex:   0,
		Action:      "log.info",
		Status:      StepRunning,
		StartedAt:   time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, store.Steps.SaveStepResult(ctx, step))

	step.Status = StepCompleted
	step.Output = map[string]any{"ok": true}
	require.NoError(t, store.Steps.SaveStepResult(ctx, step))

	steps, err := store.Steps.GetSteps(ctx, "exec")
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, StepCompleted, steps[0].Status)
}

func TestContextRepository_SaveThenGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Executions.SaveExecution(ctx, sampleExecution("exec")))

	require.NoError(t, store.Contexts.SaveContext(ctx, "exec", map[string]any{"greeting": "hello"}))

	got, err := store.Contexts.GetContext(ctx, "exec")
	require.NoError(t, err)
	assert.Equal(t, "hello", got["greeting"])
}

func TestContextRepository_GetMissingReturnsEmptyMap(t *testing.T) {
	store := newTestStore(t)
	got, err := store.Contexts.GetContext(context.Background(), "never-saved")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_GetExecutionTreeAssemblesChildrenDepthFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Executions.SaveExecution(ctx, sampleExecution("root")))
	child := sampleExecution("child")
	child.ParentExecutionID = "root"
	child.Depth = 1
	require.NoError(t, store.Executions.SaveExecution(ctx, child))
	require.NoError(t, store.Steps.SaveStepResult(ctx, &StepResult{
		ExecutionID: "root", StepIndex: 0, Action: "workflow.run", Status: StepCompleted,
		StartedAt: time.Now().UTC(), ChildExecutionID: "child",
	}))

	tree, err := store.GetExecutionTree(ctx, "root")
	require.NoError(t, err)
	assert.Equal(t, "root", tree.Execution.ID)
	require.Len(t, tree.Steps, 1)
	require.Len(t, tree.Children, 1)
	assert.Equal(t, "child", tree.Children[0].Execution.ID)
}

func TestExecutionRepository_Cleanup_DeletesOldExecutionsAndCascades(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	old := sampleExecution("old")
	old.StartedAt = time.Now().UTC().Add(-48 * time.Hour)
	require.NoError(t, store.Executions.SaveExecution(ctx, old))
	require.NoError(t, store.Contexts.SaveContext(ctx, "old", map[string]any{"x": 1}))
	require.NoError(t, store.Executions.SaveExecution(ctx, sampleExecution("recent")))

	affected, err := store.Executions.Cleanup(ctx, time.Now().UTC().Add(-1*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	_, err = store.Executions.GetExecution(ctx, "old")
	assert.Error(t, err)

	ctxMap, err := store.Contexts.GetContext(ctx, "old")
	require.NoError(t, err)
	assert.Empty(t, ctxMap)

	_, err = store.Executions.GetExecution(ctx, "recent")
	assert.NoError(t, err)
}
