// Package toolclient implements the Tool Protocol Client Layer: lifecycle
// and RPC to external tool-server subprocesses, with hybrid real/stub
// dispatch. Grounded on the teacher's internal/mcp/adapter/client_manager.go
// ClientManager (stdio/HTTP/SSE transport selection via
// github.com/mark3labs/mcp-go, idempotent Connect, per-server connection
// map guarded by a RWMutex), generalized from Station's multi-server
// tool-proxy scheme to the spec's single hybrid real-or-stub Connect/CallTool
// surface and its config-file-driven policy.
package toolclient

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/afero"

	lwerrors "lacewing/internal/errors"
	"lacewing/internal/logging"
)

const defaultConnectTimeout = 30 * time.Second

// serverState is either a real mcp-go client or a stub, never both.
type serverState struct {
	mu        sync.Mutex // serializes CallTool per server, per SPEC_FULL's Open-Question resolution
	real      *client.Client
	stub      *Stub
	connected bool
}

// Client implements spec.md §4.4's Tool Client surface.
type Client struct {
	mu      sync.RWMutex
	servers map[string]*serverState
	config  ConfigFile
	logger  *logging.Logger
}

// New constructs a Client against a loaded tool-server config file. Pass an
// empty ConfigFile to run in stub-only mode.
func New(config ConfigFile, logger *logging.Logger) *Client {
	return &Client{
		servers: make(map[string]*serverState),
		config:  config,
		logger:  logger,
	}
}

// NewFromConfigPath loads the config file at path (via fs) and constructs a
// Client, per spec.md §6's "<config-home>/mcp-servers.json".
func NewFromConfigPath(fs afero.Fs, path string, logger *logging.Logger) (*Client, error) {
	cfg, err := LoadConfigFile(fs, path)
	if err != nil {
		return nil, err
	}
	return New(cfg, logger), nil
}

// IsConnected reports whether serverName has an active session.
func (c *Client) IsConnected(serverName string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st, ok := c.servers[serverName]
	return ok && st.connected
}

// Connect establishes a session with serverName, idempotently. It consults
// the config file first; absent an entry, it falls back to the in-process
// stub for well-known server names; absent both, Connect fails.
func (c *Client) Connect(ctx context.Context, serverName string) error {
	c.mu.Lock()
	st, exists := c.servers[serverName]
	if !exists {
		st = &serverState{}
		c.servers[serverName] = st
	}
	c.mu.Unlock()

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.connected {
		return nil
	}

	if cfg, ok := c.config[serverName]; ok {
		return c.connectReal(ctx, serverName, cfg, st)
	}

	if stub, ok := LookupStub(serverName); ok {
		st.stub = stub
		st.connected = true
		return nil
	}

	return lwerrors.Tool("tool server %q has no configuration entry and no built-in stub", serverName)
}

func (c *Client) connectReal(ctx context.Context, serverName string, cfg ServerConfig, st *serverState) error {
	envSlice := make([]string, 0, len(cfg.Env))
	for k, v := range interpolateEnv(cfg.Env) {
		envSlice = append(envSlice, fmt.Sprintf("%s=%s", k, v))
	}

	transportLayer := transport.NewStdio(cfg.Command, envSlice, cfg.Args...)
	mcpClient := client.NewClient(transportLayer)

	ctxWithTimeout, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
	defer cancel()

	if err := mcpClient.Start(ctxWithTimeout); err != nil {
		return lwerrors.ToolWrap(err, "failed to start tool server %q", serverName)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "lacewing", Version: "0.1.0"}

	if _, err := mcpClient.Initialize(ctxWithTimeout, initReq); err != nil {
		mcpClient.Close()
		return lwerrors.ToolWrap(err, "failed to initialize tool server %q", serverName)
	}

	st.real = mcpClient
	st.connected = true
	if c.logger != nil {
		c.logger.Info("connected to tool server %s", serverName)
	}
	return nil
}

// Disconnect closes the session with serverName, if any. It does not error
// on an already-disconnected server.
func (c *Client) Disconnect(serverName string) error {
	c.mu.RLock()
	st, ok := c.servers[serverName]
	c.mu.RUnlock()
	if !ok {
		return nil
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.real != nil {
		if err := st.real.Close(); err != nil && c.logger != nil {
			c.logger.Error("error closing tool server %s: %v", serverName, err)
		}
		st.real = nil
	}
	st.stub = nil
	st.connected = false
	return nil
}

// DisconnectAll closes every session, used on shutdown.
func (c *Client) DisconnectAll() {
	c.mu.RLock()
	names := make([]string, 0, len(c.servers))
	for name := range c.servers {
		names = append(names, name)
	}
	c.mu.RUnlock()
	for _, name := range names {
		_ = c.Disconnect(name)
	}
}

// AutoConnect connects to every named server, continuing past individual
// failures and returning the last error encountered (if any).
func (c *Client) AutoConnect(ctx context.Context, serverNames []string) error {
	var lastErr error
	for _, name := range serverNames {
		if err := c.Connect(ctx, name); err != nil {
			if c.logger != nil {
				c.logger.Error("auto-connect failed for %s: %v", name, err)
			}
			lastErr = err
		}
	}
	return lastErr
}

// ListTools returns the tool descriptors a server exposes.
func (c *Client) ListTools(ctx context.Context, serverName string) ([]ToolDescriptor, error) {
	st, err := c.connectedState(serverName)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.stub != nil {
		return st.stub.ListTools(), nil
	}

	result, err := st.real.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, lwerrors.ToolWrap(err, "failed to list tools from %q", serverName)
	}
	out := make([]ToolDescriptor, 0, len(result.Tools))
	for _, t := range result.Tools {
		out = append(out, ToolDescriptor{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema})
	}
	return out, nil
}

// CallTool invokes toolName on serverName with params and returns the
// decoded JSON result per spec.md §4.4's content-handling rules.
func (c *Client) CallTool(ctx context.Context, serverName, toolName string, params map[string]any) (any, error) {
	st, err := c.connectedState(serverName)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.stub != nil {
		return st.stub.CallTool(ctx, toolName, params)
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = toolName
	req.Params.Arguments = params

	result, err := st.real.CallTool(ctx, req)
	if err != nil {
		st.connected = false
		return nil, lwerrors.ToolWrap(err, "tool call %s.%s failed", serverName, toolName)
	}
	return decodeToolResult(result)
}

func (c *Client) connectedState(serverName string) (*serverState, error) {
	c.mu.RLock()
	st, ok := c.servers[serverName]
	c.mu.RUnlock()
	if !ok || !st.connected {
		return nil, lwerrors.Tool("tool server %q is not connected", serverName)
	}
	return st, nil
}

// decodeToolResult implements spec.md §4.4's content-decoding rule: a
// single text block that parses as JSON is returned parsed; otherwise the
// text is wrapped as {"result": text}. Unknown content types pass through.
func decodeToolResult(result *mcp.CallToolResult) (any, error) {
	if len(result.Content) == 1 {
		if tc, ok := mcp.AsTextContent(result.Content[0]); ok {
			var parsed any
			if err := json.Unmarshal([]byte(tc.Text), &parsed); err == nil {
				return parsed, nil
			}
			return map[string]any{"result": tc.Text}, nil
		}
	}
	return result.Content, nil
}
