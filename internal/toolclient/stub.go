package toolclient

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// Stub is an in-process deterministic fixture for a well-known server name,
// used when no real tool-server config entry exists. Grounded on the
// teacher's internal/mcp/testing/mock_server.go idea of per-domain mock
// tool sets, reworked into a direct Go dispatch table instead of spinning
// up a loopback MCP server — the spec calls it a "deterministic in-process
// stub", not a second protocol hop. Per spec.md §9, the stub set is
// deliberately minimal. The shell stub is the one exception to the fixture
// rule: it runs real commands (see newShellStub).
type Stub struct {
	tools   []ToolDescriptor
	handler func(ctx context.Context, tool string, args map[string]any) (any, error)
}

// knownStubs covers the handful of well-known servers spec.md §4.4 names
// (version-control, repo-hosting, filesystem) plus the local shell.
var knownStubs = map[string]func() *Stub{
	"git":        newGitStub,
	"github":     newGitHubStub,
	"filesystem": newFilesystemStub,
	"shell":      newShellStub,
}

// LookupStub returns the stub for a well-known server name, if any.
func LookupStub(name string) (*Stub, bool) {
	factory, ok := knownStubs[name]
	if !ok {
		return nil, false
	}
	return factory(), true
}

func (s *Stub) ListTools() []ToolDescriptor { return s.tools }

func (s *Stub) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	return s.handler(ctx, name, args)
}

func newGitStub() *Stub {
	return &Stub{
		tools: []ToolDescriptor{
			{Name: "git_status", Description: "Show the working tree status"},
			{Name: "git_log", Description: "Show recent commit history"},
		},
		handler: func(_ context.Context, tool string, args map[string]any) (any, error) {
			switch tool {
			case "git_status":
				return map[string]any{"branch": "main", "clean": true, "files": []any{}}, nil
			case "git_log":
				return map[string]any{"commits": []any{}}, nil
			default:
				return nil, fmt.Errorf("git stub: unknown tool %q", tool)
			}
		},
	}
}

func newGitHubStub() *Stub {
	return &Stub{
		tools: []ToolDescriptor{
			{Name: "list_pull_requests", Description: "List open pull requests"},
			{Name: "get_repository", Description: "Fetch repository metadata"},
		},
		handler: func(_ context.Context, tool string, args map[string]any) (any, error) {
			switch tool {
			case "list_pull_requests":
				return map[string]any{"pull_requests": []any{}}, nil
			case "get_repository":
				return map[string]any{"name": args["repo"], "default_branch": "main"}, nil
			default:
				return nil, fmt.Errorf("github stub: unknown tool %q", tool)
			}
		},
	}
}

func newFilesystemStub() *Stub {
	return &Stub{
		tools: []ToolDescriptor{
			{Name: "list_files", Description: "List files in a directory"},
			{Name: "read_file", Description: "Read a file's contents"},
		},
		handler: func(_ context.Context, tool string, args map[string]any) (any, error) {
			switch tool {
			case "list_files":
				return map[string]any{"files": []any{}}, nil
			case "read_file":
				return map[string]any{"content": ""}, nil
			default:
				return nil, fmt.Errorf("filesystem stub: unknown tool %q", tool)
			}
		},
	}
}

// newShellStub runs commands against the local shell directly rather than
// through a subprocess tool server — spec.md §4.7 treats "shell" as a
// reserved namespace with its own exit-code/stdout/stderr contract, so the
// stub executes real commands instead of returning fixture data like the
// other stubs.
func newShellStub() *Stub {
	return &Stub{
		tools: []ToolDescriptor{
			{Name: "execute_command", Description: "Run a command in the local shell"},
		},
		handler: func(ctx context.Context, tool string, args map[string]any) (any, error) {
			if tool != "execute_command" {
				return nil, fmt.Errorf("shell stub: unknown tool %q", tool)
			}
			command, _ := args["command"].(string)
			if command == "" {
				return nil, fmt.Errorf("shell stub: \"command\" is required")
			}
			var stdout, stderr bytes.Buffer
			cmd := exec.CommandContext(ctx, "/bin/sh", "-c", command)
			if dir, ok := args["cwd"].(string); ok && dir != "" {
				cmd.Dir = dir
			}
			cmd.Stdout = &stdout
			cmd.Stderr = &stderr

			exitCode := 0
			if err := cmd.Run(); err != nil {
				if exitErr, ok := err.(*exec.ExitError); ok {
					exitCode = exitErr.ExitCode()
				} else {
					return nil, fmt.Errorf("shell stub: %w", err)
				}
			}
			return map[string]any{
				"exit_code": exitCode,
				"stdout":    stdout.String(),
				"stderr":    stderr.String(),
			}, nil
		},
	}
}

// ToolDescriptor mirrors the Tool Protocol's list_tools response shape.
type ToolDescriptor struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	InputSchema any    `json:"input_schema,omitempty"`
}
