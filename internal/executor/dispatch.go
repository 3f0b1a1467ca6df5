package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	lwerrors "lacewing/internal/errors"
	"lacewing/internal/logging"
	"lacewing/internal/prompt"
	"lacewing/internal/provider"
	"lacewing/internal/template"
	"lacewing/internal/value"
	"lacewing/internal/workflows"
)

// dispatch routes a step's action to its handler, per spec.md §4.7's action
// dispatch table. The ns.name split distinguishes reserved namespaces
// (prompt, variable, log, ai, workflow) from everything else, which falls
// through to the Tool Client.
func (e *Executor) dispatch(ctx context.Context, executionID string, w *workflows.Workflow, run RunContext, vars value.Map, step workflows.Step, index int) (any, string, error) {
	ns, name, err := splitAction(step.Action)
	if err != nil {
		return nil, "", err
	}

	interpolated, err := interpolateParams(step.Params, vars)
	if err != nil {
		return nil, "", err
	}

	switch ns {
	case "prompt":
		out, err := e.dispatchPrompt(ctx, name, interpolated)
		return out, "", err
	case "variable":
		out, err := e.dispatchVariable(name, interpolated, vars)
		return out, "", err
	case "log":
		out, err := e.dispatchLog(name, interpolated)
		return out, "", err
	case "ai":
		out, err := e.dispatchAI(ctx, name, interpolated)
		return out, "", err
	case "workflow":
		if name != "run" {
			return nil, "", lwerrors.Validation("unknown workflow action %q", step.Action)
		}
		return e.dispatchWorkflowRun(ctx, executionID, index, w, run, vars, interpolated)
	case "shell":
		out, err := e.dispatchShell(ctx, name, interpolated)
		return out, "", err
	default:
		out, err := e.ToolClient.CallTool(ctx, ns, name, interpolated)
		return out, "", err
	}
}

func splitAction(action string) (ns, name string, err error) {
	parts := strings.SplitN(action, ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", lwerrors.Validation("action %q must be of the form \"namespace.name\"", action)
	}
	return parts[0], parts[1], nil
}

func interpolateParams(params map[string]any, vars value.Map) (map[string]any, error) {
	if params == nil {
		return map[string]any{}, nil
	}
	out, err := template.InterpolateValue(params, vars)
	if err != nil {
		return nil, err
	}
	m, ok := out.(map[string]any)
	if !ok {
		return map[string]any{}, nil
	}
	return m, nil
}

func (e *Executor) dispatchPrompt(ctx context.Context, name string, params map[string]any) (any, error) {
	message, _ := params["message"].(string)
	switch name {
	case "ask":
		req := prompt.Request{Message: message, Type: prompt.Text}
		if def, ok := params["default"]; ok {
			req.Default = def
		}
		if dyn, ok := params["dynamic"].(bool); ok {
			req.Dynamic = dyn
		}
		resp, err := e.Prompts.Ask(ctx, req)
		if err != nil {
			return nil, err
		}
		return promptOutput(resp), nil
	case "confirm":
		answer, err := e.Prompts.Confirm(ctx, message, params["default"])
		if err != nil {
			return nil, err
		}
		return map[string]any{"value": answer}, nil
	case "select":
		options, err := stringSlice(params["options"])
		if err != nil {
			return nil, err
		}
		answer, err := e.Prompts.Select(ctx, message, options)
		if err != nil {
			return nil, err
		}
		return map[string]any{"value": answer}, nil
	default:
		return nil, lwerrors.Validation("unknown prompt action %q", name)
	}
}

func promptOutput(resp prompt.Response) map[string]any {
	out := map[string]any{"value": resp.Raw}
	if resp.Interpreted != "" {
		out["interpreted"] = resp.Interpreted
	}
	return out
}

func stringSlice(v any) ([]string, error) {
	raw, ok := v.([]any)
	if !ok {
		return nil, lwerrors.Validation("expected a list of options")
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, lwerrors.Validation("options must be strings")
		}
		out = append(out, s)
	}
	return out, nil
}

func (e *Executor) dispatchVariable(name string, params map[string]any, vars value.Map) (any, error) {
	switch name {
	case "set":
		varName, _ := params["name"].(string)
		if varName == "" {
			return nil, lwerrors.Validation("variable.set requires a non-empty \"name\"")
		}
		vars[varName] = params["value"]
		return map[string]any{"name": varName, "value": params["value"]}, nil
	case "get":
		varName, _ := params["name"].(string)
		val, ok := value.Get(map[string]any(vars), varName)
		if !ok {
			return nil, lwerrors.Validation("variable %q is not set", varName)
		}
		return map[string]any{"name": varName, "value": val}, nil
	default:
		return nil, lwerrors.Validation("unknown variable action %q", name)
	}
}

func (e *Executor) dispatchLog(name string, params map[string]any) (any, error) {
	message := formatLogMessage(params)
	logger := e.Logger
	if logger == nil {
		logger = logging.New(false)
	}
	switch name {
	case "info":
		logger.Info("%s", message)
	case "error":
		logger.Error("%s", message)
	case "debug":
		logger.Debug("%s", message)
	default:
		return nil, lwerrors.Validation("unknown log action %q", name)
	}
	return map[string]any{"message": message}, nil
}

// formatLogMessage renders params["message"], pretty-printing JSON
// objects/arrays and surfacing a "result" key's prose when present, per
// spec.md §4.7's log dispatch rule.
func formatLogMessage(params map[string]any) string {
	msg, ok := params["message"]
	if !ok {
		return ""
	}
	switch v := msg.(type) {
	case string:
		return v
	case map[string]any:
		if result, ok := v["result"].(string); ok {
			return result
		}
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	case []any:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (e *Executor) dispatchAI(ctx context.Context, name string, params map[string]any) (any, error) {
	if e.Provider == nil {
		return nil, lwerrors.Provider("ai.%s requires a configured LLM provider", name)
	}
	switch name {
	case "generate":
		promptText, _ := params["prompt"].(string)
		req := provider.Request{Prompt: promptText}
		if s, ok := params["system"].(string); ok {
			req.System = s
		}
		if m, ok := params["model"].(string); ok {
			req.Model = m
		}
		if t, ok := asFloat(params["temperature"]); ok {
			req.Temperature = &t
		}
		if n, ok := asFloat(params["max_tokens"]); ok {
			req.MaxTokens = int(n)
		}
		resp, err := e.Provider.Generate(ctx, req)
		if err != nil {
			return nil, err
		}
		return map[string]any{"text": resp.Text}, nil
	case "interpret":
		input, _ := params["input"].(string)
		promptContext, _ := params["context"].(string)
		text, err := provider.Interpret(ctx, e.Provider, input, promptContext)
		if err != nil {
			return nil, err
		}
		return map[string]any{"text": text}, nil
	case "summarize":
		text, _ := params["text"].(string)
		maxLength := 0
		if n, ok := asFloat(params["max_length"]); ok {
			maxLength = int(n)
		}
		summary, err := provider.Summarize(ctx, e.Provider, text, maxLength)
		if err != nil {
			return nil, err
		}
		return map[string]any{"text": summary}, nil
	default:
		return nil, lwerrors.Validation("unknown ai action %q", name)
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// dispatchShell runs a shell.* action via the Tool Client and applies
// spec.md §4.7's shell post-processing: a non-zero exit_code raises a step
// failure carrying stderr (falling back to stdout).
func (e *Executor) dispatchShell(ctx context.Context, name string, params map[string]any) (any, error) {
	raw, err := e.ToolClient.CallTool(ctx, "shell", name, params)
	if err != nil {
		return nil, err
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return raw, nil
	}

	exitCode, _ := asFloat(m["exit_code"])
	if exitCode != 0 {
		stderr, _ := m["stderr"].(string)
		stdout, _ := m["stdout"].(string)
		message := stderr
		if message == "" {
			message = stdout
		}
		return nil, lwerrors.Tool("shell command exited with status %d: %s", int(exitCode), message)
	}
	return m, nil
}
