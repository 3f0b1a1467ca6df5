// Package repositories implements the Storage Adapter's operations against
// the executions/steps/contexts schema (spec.md §4.3), one otel-spanned
// method per operation. Grounded on the teacher's repository-per-table
// layout (internal/db/repositories/*.go) and its tracer.Start/span.End/
// span.RecordError idiom observed across its agent_runs.go-style methods.
package repositories

import "time"

// Status mirrors the Execution.status enum of spec.md §3.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// StepStatus mirrors the StepResult.status enum.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
	StepSkipped   StepStatus = "skipped"
)

// TriggerType mirrors Execution.trigger.type.
type TriggerType string

const (
	TriggerCLI      TriggerType = "cli"
	TriggerWorkflow TriggerType = "workflow"
	TriggerAPI      TriggerType = "api"
)

// Trigger records what started an execution.
type Trigger struct {
	Type   TriggerType `json:"type"`
	Source string      `json:"source,omitempty"`
}

// Execution is one row of the executions table.
type Execution struct {
	ID                string         `json:"id"`
	WorkflowName      string         `json:"workflow_name"`
	Status            Status         `json:"status"`
	StartedAt         time.Time      `json:"started_at"`
	CompletedAt       *time.Time     `json:"completed_at,omitempty"`
	DurationMS        *int64         `json:"duration,omitempty"`
	CurrentStep       *int           `json:"current_step,omitempty"`
	TotalSteps        *int           `json:"total_steps,omitempty"`
	Error             string         `json:"error,omitempty"`
	ErrorStack        string         `json:"error_stack,omitempty"`
	ParentExecutionID string         `json:"parent_execution_id,omitempty"`
	ParentStepIndex   *int           `json:"parent_step_index,omitempty"`
	Depth             int            `json:"depth"`
	Trigger           Trigger        `json:"trigger"`
	Metadata          map[string]any `json:"metadata,omitempty"`
}

// ExecutionPatch supplies a partial update to UpdateExecution; only
// non-nil fields change.
type ExecutionPatch struct {
	Status      *Status
	CompletedAt *time.Time
	DurationMS  *int64
	CurrentStep *int
	Error       *string
	ErrorStack  *string
}

// StepResult is one row of the steps table.
type StepResult struct {
	ExecutionID      string     `json:"execution_id"`
	StepIndex        int        `json:"step_index"`
	StepName         string     `json:"step_name,omitempty"`
	Action           string     `json:"action"`
	Description      string     `json:"description,omitempty"`
	Status           StepStatus `json:"status"`
	StartedAt        time.Time  `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	DurationMS       *int64     `json:"duration,omitempty"`
	Input            any        `json:"input,omitempty"`
	Output           any        `json:"output,omitempty"`
	Error            string     `json:"error,omitempty"`
	ErrorStack       string     `json:"error_stack,omitempty"`
	ChildExecutionID string     `json:"child_execution_id,omitempty"`
	RetryAttempt     int        `json:"retry_attempt"`
	SkipReason       string     `json:"skip_reason,omitempty"`
}

// ExecutionFilter parameterizes QueryExecutions.
type ExecutionFilter struct {
	WorkflowName      string
	Status            Status
	StartedAfter      *time.Time
	StartedBefore     *time.Time
	ParentExecutionID string
	RootOnly          bool
	Limit             int
}

// ExecutionTree is the depth-first assembly GetExecutionTree returns.
type ExecutionTree struct {
	Execution Execution        `json:"execution"`
	Steps     []StepResult     `json:"steps"`
	Children  []*ExecutionTree `json:"children"`
}
