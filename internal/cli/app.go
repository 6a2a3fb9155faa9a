// Package cli implements the mcpchain command line interface.
//
// Commands are built with Cobra around an [App], which bundles the loaded
// configuration with the catalog, the action registry and the printer. Tests
// construct an App directly with in-memory collaborators.
//
// Commands:
//   - run: execute a chain of entries
//   - plan: resolve a chain without executing it
//   - invoke: run a single entry's action
//   - chains: list manifest chains
//   - catalog list|show|import: inspect and seed the catalog
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"mcpchain/internal/action"
	"mcpchain/internal/catalog"
	"mcpchain/internal/chain"
	"mcpchain/internal/config"
	"mcpchain/internal/logging"
	"mcpchain/internal/manifest"
	"mcpchain/internal/output"
	"mcpchain/internal/router"
)

// App holds the dependencies shared by all commands.
type App struct {
	Config   *config.Config
	Catalog  catalog.Source
	Actions  *action.Registry
	Manifest *manifest.Manifest
	Printer  *output.Printer
	Logger   *slog.Logger
}

// NewApp wires the production collaborators described by cfg.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format, nil)

	source, err := catalog.Open(ctx, catalog.Options{
		Driver: cfg.Catalog.Driver,
		Path:   cfg.Catalog.Path,
		DSN:    cfg.Catalog.DSN,
	})
	if err != nil {
		return nil, err
	}

	var m *manifest.Manifest
	if cfg.Manifest.Path != "" {
		m, err = manifest.ReadFromFile(cfg.Manifest.Path)
		if err != nil {
			source.Close()
			return nil, err
		}
	}

	printer := output.NewPrinter()
	printer.SetTruncateLength(cfg.Output.TruncateLength)

	return &App{
		Config:   cfg,
		Catalog:  source,
		Actions:  NewRegistry(cfg, m),
		Manifest: m,
		Printer:  printer,
		Logger:   logger,
	}, nil
}

// NewRegistry builds the action registry from the configured command actions
// and the manifest bindings.
func NewRegistry(cfg *config.Config, m *manifest.Manifest) *action.Registry {
	registry := action.NewRegistry(action.NewFallback(cfg.Fallback.MinDelay, cfg.Fallback.MaxDelay))

	for name, ac := range cfg.Actions {
		cmd := action.NewCommand(ac.Command, ac.Args...)
		cmd.Env = ac.Env
		cmd.Dir = ac.Dir
		registry.Register(name, cmd)
	}

	if m != nil {
		registry.SetRouter(router.NewRouterFromManifest(m))
	} else {
		registry.SetRouter(router.NewRouter())
	}
	return registry
}

// NewExecutor creates a chain executor configured from the app settings.
func (a *App) NewExecutor() (*chain.Executor, error) {
	policy, err := chain.ParseCarryPolicy(a.Config.Executor.CarryForward)
	if err != nil {
		return nil, err
	}

	executor := chain.NewExecutor(a.Catalog, a.Actions)
	executor.SetStepTimeout(a.Config.Executor.StepTimeout)
	executor.SetStepDelay(a.Config.Executor.StepDelay)
	executor.SetCarryPolicy(policy)
	executor.SetLogger(a.logger())
	return executor, nil
}

// chainEntries picks the entries to run: explicit args, then the named
// manifest chain, then the configured default chain.
func (a *App) chainEntries(args []string, chainName string) ([]string, error) {
	if len(args) > 0 {
		if chainName != "" {
			return nil, fmt.Errorf("pass either entry ids or --chain, not both")
		}
		return args, nil
	}
	if chainName != "" {
		if a.Manifest == nil {
			return nil, fmt.Errorf("--chain %s requires manifest.path to be configured", chainName)
		}
		return a.Manifest.Chain(chainName)
	}
	return a.Config.Chain.Steps, nil
}

func (a *App) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

// Close releases the catalog.
func (a *App) Close() error {
	if a.Catalog == nil {
		return nil
	}
	return a.Catalog.Close()
}
