package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"mcpchain/internal/config"
	"mcpchain/internal/logging"
)

// Exit codes returned by commands.
const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
	ExitCodePartial = 2
)

// NewRootCommand creates the root command with all subcommands attached.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mcpchain",
		Short: "Run chains of MCP servers as sequential pipelines",
		Long: `mcpchain executes an ordered chain of catalog entries (MCP servers).
Each step receives the previous step's output as its input. Failed steps do
not stop the chain; the final summary reports how many steps completed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(logging.WithLogger(cmd.Context(), app.logger()))
		},
	}

	rootCmd.AddCommand(
		newRunCommand(app),
		newPlanCommand(app),
		newInvokeCommand(app),
		newChainsCommand(app),
		newCatalogCommand(app),
	)

	return rootCmd
}

// ExecuteResult is the outcome of running the CLI.
type ExecuteResult struct {
	ExitCode int
	Err      error
}

// RunWithConfig builds the app from cfg and executes the command line args.
func RunWithConfig(ctx context.Context, cfg *config.Config, args []string) ExecuteResult {
	app, err := NewApp(ctx, cfg)
	if err != nil {
		return ExecuteResult{ExitCode: ExitCodeError, Err: err}
	}
	defer app.Close()

	return RunApp(ctx, app, args)
}

// RunApp executes args against an already wired app.
func RunApp(ctx context.Context, app *App, args []string) ExecuteResult {
	cmd := NewRootCommand(app)
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(ctx); err != nil {
		if code, ok := IsExitError(err); ok {
			return ExecuteResult{ExitCode: code, Err: err}
		}
		return ExecuteResult{ExitCode: ExitCodeError, Err: err}
	}
	return ExecuteResult{ExitCode: ExitCodeSuccess}
}

// Execute loads configuration, runs the CLI and exits the process.
// SIGINT and SIGTERM cancel the running chain at the next step boundary.
func Execute() {
	cfg, err := config.NewLoader().Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitCodeError)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	result := RunWithConfig(ctx, cfg, os.Args[1:])
	stop()

	if result.Err != nil {
		if _, ok := IsExitError(result.Err); !ok {
			fmt.Fprintf(os.Stderr, "Error: %v\n", result.Err)
		}
	}
	os.Exit(result.ExitCode)
}
