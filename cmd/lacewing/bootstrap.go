package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/afero"

	"lacewing/internal/config"
	lwdb "lacewing/internal/db"
	"lacewing/internal/db/repositories"
	"lacewing/internal/executor"
	"lacewing/internal/logging"
	"lacewing/internal/progress"
	"lacewing/internal/prompt"
	"lacewing/internal/provider"
	"lacewing/internal/registry"
	"lacewing/internal/telemetry"
	"lacewing/internal/toolclient"
)

// app bundles every collaborator a CLI command needs, assembled from
// config.Paths the way the teacher's command handlers open their own
// database/config pair per-invocation (e.g. handlers/runs_handlers.go's
// config.Load/db.New pairing) rather than holding long-lived globals.
type app struct {
	paths    config.Paths
	db       *lwdb.DB
	store    *repositories.Store
	registry *registry.Registry
	tools    *toolclient.Client
	provider provider.Provider
	bus      *progress.Bus
	executor *executor.Executor
	logger   *logging.Logger
	otelStop telemetry.Shutdown
}

func newApp() (*app, error) {
	paths, err := resolvePaths()
	if err != nil {
		return nil, err
	}

	fs := afero.NewOsFs()
	if err := config.EnsureConfigHome(fs, paths); err != nil {
		return nil, err
	}

	logger := logging.New(debugFlag)

	otelStop, err := telemetry.Initialize(context.Background(), otelEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	database, err := lwdb.New(paths.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage adapter: %w", err)
	}
	if err := database.Migrate(); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to migrate storage adapter: %w", err)
	}

	store := repositories.NewStore(database.Conn())

	reg := registry.New()
	if _, err := reg.LoadDirectory(paths.WorkflowsDir); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to load workflows directory: %w", err)
	}

	tools, err := toolclient.NewFromConfigPath(fs, paths.ToolServersPath, logger)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to load tool server config: %w", err)
	}

	workingDir, err := os.Getwd()
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to resolve working directory: %w", err)
	}

	providerCfg, err := config.LoadProviderConfig(fs, workingDir, paths)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to load LLM provider config: %w", err)
	}

	var llm provider.Provider
	if providerCfg.Provider != "" {
		llm, err = provider.New(providerCfg)
		if err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to construct LLM provider: %w", err)
		}
	}

	bus := progress.NewWithLogger(logger)
	responder := prompt.NewTerminal(os.Stdin, os.Stdout)
	prompts := prompt.New(responder, llm)

	exec := executor.New(store, reg, tools, prompts, llm, bus, logger)

	return &app{
		paths:    paths,
		db:       database,
		store:    store,
		registry: reg,
		tools:    tools,
		provider: llm,
		bus:      bus,
		executor: exec,
		logger:   logger,
		otelStop: otelStop,
	}, nil
}

func resolvePaths() (config.Paths, error) {
	if configHomeFlag != "" {
		os.Setenv("LACEWING_CONFIG_HOME", configHomeFlag)
	}
	return config.ResolvePaths()
}

func (a *app) Close() {
	a.tools.DisconnectAll()
	if err := a.otelStop(context.Background()); err != nil {
		a.logger.Error("error shutting down telemetry: %v", err)
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("error closing storage adapter: %v", err)
	}
}
