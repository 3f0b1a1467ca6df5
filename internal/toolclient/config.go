package toolclient

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
)

// ServerConfig is one entry of the tool-server config file
// (<config-home>/mcp-servers.json), per spec.md §4.4/§6.
type ServerConfig struct {
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// ConfigFile is the full contents of mcp-servers.json: server name -> config.
type ConfigFile map[string]ServerConfig

// LoadConfigFile reads the tool-server config file. A missing file is not
// an error — it yields an empty ConfigFile, which puts every server into
// stub-only mode (spec.md §6: "Absence of the file causes the Tool Client
// to switch to stub-only mode for unknown servers").
func LoadConfigFile(fs afero.Fs, path string) (ConfigFile, error) {
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to check tool config existence: %w", err)
	}
	if !exists {
		return ConfigFile{}, nil
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tool config: %w", err)
	}

	var cfg ConfigFile
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse tool config %s: %w", path, err)
	}
	return cfg, nil
}

// interpolateEnv resolves "${VAR}" entries in a server's env map against the
// process environment, per spec.md §4.4's "Environment interpolation".
// Unset variables resolve to the empty string rather than failing.
func interpolateEnv(env map[string]string) map[string]string {
	out := make(map[string]string, len(env))
	for k, v := range env {
		out[k] = expandEnvVar(v)
	}
	return out
}

func expandEnvVar(v string) string {
	if strings.HasPrefix(v, "${") && strings.HasSuffix(v, "}") {
		name := strings.TrimSuffix(strings.TrimPrefix(v, "${"), "}")
		return os.Getenv(name)
	}
	return v
}
