// Package config resolves runtime configuration: the LLM provider settings
// and the on-disk paths the Storage Adapter and Tool Client read from.
// Grounded on the teacher's viper+afero environment-precedence idiom (env
// vars bound over a file-backed viper instance, afero.Fs swapped in for
// testability), trimmed to spec.md §6's much smaller configuration surface:
// `{provider, api_key, model, base_url}` plus a handful of config-home paths.
package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/viper"

	lwerrors "lacewing/internal/errors"
	"lacewing/internal/provider"
)

const productName = "lacewing"

// Paths collects the filesystem locations the rest of the engine reads
// from or writes to, all rooted at the config-home directory (spec.md §6).
type Paths struct {
	ConfigHome      string
	DatabasePath    string // <config-home>/lacewing.db
	ToolServersPath string // <config-home>/mcp-servers.json
	ConfigJSONPath  string // <config-home>/config.json
	WorkflowsDir    string // <config-home>/workflows
}

// ResolvePaths builds Paths rooted at the user's config-home directory,
// honoring a LACEWING_CONFIG_HOME override for tests and alternate setups.
func ResolvePaths() (Paths, error) {
	home := os.Getenv("LACEWING_CONFIG_HOME")
	if home == "" {
		userConfigDir, err := os.UserConfigDir()
		if err != nil {
			return Paths{}, lwerrors.StorageWrap(err, "failed to resolve user config directory")
		}
		home = filepath.Join(userConfigDir, productName)
	}
	return Paths{
		ConfigHome:      home,
		DatabasePath:    filepath.Join(home, productName+".db"),
		ToolServersPath: filepath.Join(home, "mcp-servers.json"),
		ConfigJSONPath:  filepath.Join(home, "config.json"),
		WorkflowsDir:    filepath.Join(home, "workflows"),
	}, nil
}

// EnsureConfigHome creates the config-home directory tree if absent.
func EnsureConfigHome(fs afero.Fs, p Paths) error {
	if err := fs.MkdirAll(p.ConfigHome, 0o755); err != nil {
		return lwerrors.StorageWrap(err, "failed to create config home %s", p.ConfigHome)
	}
	if err := fs.MkdirAll(p.WorkflowsDir, 0o755); err != nil {
		return lwerrors.StorageWrap(err, "failed to create workflows directory %s", p.WorkflowsDir)
	}
	return nil
}

// LoadProviderConfig resolves the LLM provider configuration per spec.md
// §6's priority order: environment variables, then a .env file in the
// working directory, then <config-home>/config.json.
func LoadProviderConfig(fs afero.Fs, workingDir string, p Paths) (provider.Config, error) {
	v := viper.New()
	v.SetFs(fs)

	if exists, _ := afero.Exists(fs, p.ConfigJSONPath); exists {
		v.SetConfigFile(p.ConfigJSONPath)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return provider.Config{}, lwerrors.StorageWrap(err, "failed to read %s", p.ConfigJSONPath)
		}
	}

	dotenvPath := filepath.Join(workingDir, ".env")
	if exists, _ := afero.Exists(fs, dotenvPath); exists {
		dotenv := viper.New()
		dotenv.SetFs(fs)
		dotenv.SetConfigFile(dotenvPath)
		dotenv.SetConfigType("env")
		if err := dotenv.ReadInConfig(); err == nil {
			// Merged into the config layer (over config.json) rather than
			// applied with Set, so bound environment variables still win.
			_ = v.MergeConfigMap(dotenv.AllSettings())
		}
	}

	v.AutomaticEnv()
	_ = v.BindEnv("provider", "LACEWING_PROVIDER", "LLM_PROVIDER")
	_ = v.BindEnv("api_key", "LACEWING_API_KEY", "ANTHROPIC_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("model", "LACEWING_MODEL", "LLM_MODEL")
	_ = v.BindEnv("base_url", "LACEWING_BASE_URL", "LLM_BASE_URL")

	name := v.GetString("provider")
	if name == "" {
		return provider.Config{}, nil
	}

	return provider.Config{
		Provider: provider.Name(name),
		APIKey:   v.GetString("api_key"),
		Model:    v.GetString("model"),
		BaseURL:  v.GetString("base_url"),
	}, nil
}
