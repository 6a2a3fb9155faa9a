package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"mcpchain/internal/chain"
	"mcpchain/internal/metrics"
	"mcpchain/internal/output"
)

type runOptions struct {
	chainName    string
	carryForward string
	jsonOutput   bool
	showMetrics  bool
}

func newRunCommand(app *App) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run [entry-id...]",
		Short: "Run a chain of entries",
		Long: `Run a chain of catalog entries in order. Each step receives the previous
step's output as input. A failed step does not stop the chain; the next step
receives null instead.

Entries come from the arguments, from a manifest chain (--chain), or from the
configured default chain.

Exit codes: 0 all steps completed, 2 some steps failed, 1 the run could not start.

Example:
  mcpchain run github filesystem slack
  mcpchain run --chain onboarding`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChain(cmd, app, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.chainName, "chain", "", "run a named chain from the manifest")
	cmd.Flags().StringVar(&opts.carryForward, "carry-forward", "", "input after a failed step: null or last-success")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "print the final run as JSON")
	cmd.Flags().BoolVar(&opts.showMetrics, "metrics", false, "print Prometheus metrics after the run")

	return cmd
}

func runChain(cmd *cobra.Command, app *App, args []string, opts *runOptions) error {
	entryIDs, err := app.chainEntries(args, opts.chainName)
	if err != nil {
		return err
	}

	executor, err := app.NewExecutor()
	if err != nil {
		return err
	}
	if opts.carryForward != "" {
		policy, err := chain.ParseCarryPolicy(opts.carryForward)
		if err != nil {
			return err
		}
		executor.SetCarryPolicy(policy)
	}

	if !opts.jsonOutput {
		executor.SetProgressCallback(newProgressPrinter(app.Printer).update)
	}

	_, err = executor.Start(cmd.Context(), entryIDs)
	if errors.Is(err, chain.ErrEmptyChain) {
		return errors.New("no entries to run: pass entry ids, --chain, or configure chain.steps")
	}
	if err != nil {
		return err
	}

	run := executor.Snapshot()
	if opts.jsonOutput {
		if err := app.Printer.JSON(run); err != nil {
			return err
		}
	} else {
		app.Printer.Summary(run)
	}

	if opts.showMetrics {
		if err := metrics.WriteText(cmd.OutOrStdout()); err != nil {
			return err
		}
	}

	if run.Outcome.Kind != chain.OutcomeSuccess {
		return NewExitError(ExitCodePartial)
	}
	return nil
}

// progressPrinter turns run snapshots into per-step terminal lines.
type progressPrinter struct {
	printer *output.Printer
	seen    []chain.Status
}

func newProgressPrinter(p *output.Printer) *progressPrinter {
	return &progressPrinter{printer: p}
}

func (pp *progressPrinter) update(run chain.Run) {
	if len(run.Steps) == 0 {
		return
	}
	if pp.seen == nil {
		pp.seen = make([]chain.Status, len(run.Steps))
		for i := range pp.seen {
			pp.seen[i] = chain.StatusPending
		}
		pp.printer.RunHeader(run.Steps)
	}

	total := len(run.Steps)
	for i, step := range run.Steps {
		if step.Status == pp.seen[i] {
			continue
		}
		if pp.seen[i] == chain.StatusPending {
			pp.printer.StepStarted(step, i, total)
		}
		if step.Status.IsTerminal() {
			pp.printer.StepFinished(step, i, total)
		}
		pp.seen[i] = step.Status
	}
}
