// Package workflows defines the Workflow/Step document model, its YAML
// loader, and its validator. Grounded on the teacher's
// internal/workflows/types.go and loader.go idiom (composite validation,
// YAML-to-JSON normalization, checksum) generalized from its
// Serverless-Workflow-subset States model to the flat ordered Steps model
// this spec requires.
package workflows

import "fmt"

// PromptMode controls whether ask-for-input steps may also invoke the LLM
// to reinterpret the raw user response.
type PromptMode string

const (
	PromptModeStatic  PromptMode = "static"
	PromptModeDynamic PromptMode = "dynamic"
	PromptModeBoth    PromptMode = "both"
)

// ParamType is one of the recognized config_schema value types.
type ParamType string

const (
	ParamTypeString  ParamType = "string"
	ParamTypeNumber  ParamType = "number"
	ParamTypeBoolean ParamType = "boolean"
	ParamTypeArray   ParamType = "array"
	ParamTypeEnum    ParamType = "enum"
)

// ConfigParam describes one entry of a workflow's config_schema.
type ConfigParam struct {
	Type        ParamType `json:"type" yaml:"type"`
	Required    bool      `json:"required,omitempty" yaml:"required,omitempty"`
	Default     any       `json:"default,omitempty" yaml:"default,omitempty"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	EnumValues  []string  `json:"enum_values,omitempty" yaml:"enum_values,omitempty"`
}

// RetryPolicy governs re-dispatch of a failed step.
type RetryPolicy struct {
	Attempts int `json:"attempts" yaml:"attempts"`
	DelayMS  int `json:"delay,omitempty" yaml:"delay,omitempty"`
}

// Step is a single action invocation within a Workflow.
type Step struct {
	ID          string         `json:"id,omitempty" yaml:"id,omitempty"`
	Action      string         `json:"action" yaml:"action"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Params      map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
	If          string         `json:"if,omitempty" yaml:"if,omitempty"`
	Output      string         `json:"output,omitempty" yaml:"output,omitempty"`
	Retry       *RetryPolicy   `json:"retry,omitempty" yaml:"retry,omitempty"`
}

// StableID returns Step.ID, synthesizing "step-<index>" when absent.
func (s Step) StableID(index int) string {
	if s.ID != "" {
		return s.ID
	}
	return fmt.Sprintf("step-%d", index)
}

// Workflow is the immutable, validated document the Executor runs.
type Workflow struct {
	Name         string                 `json:"name" yaml:"name"`
	Description  string                 `json:"description,omitempty" yaml:"description,omitempty"`
	Version      string                 `json:"version,omitempty" yaml:"version,omitempty"`
	Author       string                 `json:"author,omitempty" yaml:"author,omitempty"`
	MCPsRequired []string               `json:"mcps_required,omitempty" yaml:"mcps_required,omitempty"`
	ConfigSchema map[string]ConfigParam `json:"config_schema,omitempty" yaml:"config_schema,omitempty"`
	Steps        []Step                 `json:"steps" yaml:"steps"`
	TimeoutMS    int                    `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	PromptMode   PromptMode             `json:"prompt_mode,omitempty" yaml:"prompt_mode,omitempty"`

	// Extra preserves unknown top-level keys verbatim, per the loader's
	// "unknown top-level keys are preserved" requirement.
	Extra map[string]any `json:"-" yaml:"-"`
}

// EffectivePromptMode returns PromptMode, defaulting to "both".
func (w *Workflow) EffectivePromptMode() PromptMode {
	if w.PromptMode == "" {
		return PromptModeBoth
	}
	return w.PromptMode
}

// ValidationIssue is one structured validation failure.
type ValidationIssue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError aggregates every violation found while loading a
// Workflow; the loader never stops at the first mistake.
type ValidationError struct {
	Issues []ValidationIssue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 1 {
		return fmt.Sprintf("workflow validation failed: %s: %s", e.Issues[0].Path, e.Issues[0].Message)
	}
	msg := fmt.Sprintf("workflow validation failed with %d issues:", len(e.Issues))
	for _, issue := range e.Issues {
		msg += fmt.Sprintf("\n  - %s: %s", issue.Path, issue.Message)
	}
	return msg
}
