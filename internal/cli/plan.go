package cli

import (
	"github.com/spf13/cobra"

	"mcpchain/internal/chain"
	"mcpchain/internal/output"
)

func newPlanCommand(app *App) *cobra.Command {
	var chainName string

	cmd := &cobra.Command{
		Use:   "plan [entry-id...]",
		Short: "Show the steps a chain would run",
		Long: `Resolve a chain against the catalog and show each step with the action
that would serve it, without executing anything.

Entries missing from the catalog appear as "Unknown Server"; they would fail
when the chain runs.

Example:
  mcpchain plan github filesystem slack
  mcpchain plan --chain onboarding`,
		RunE: func(cmd *cobra.Command, args []string) error {
			entryIDs, err := app.chainEntries(args, chainName)
			if err != nil {
				return err
			}

			steps, err := chain.Resolve(cmd.Context(), app.Catalog, entryIDs)
			if err != nil {
				return err
			}

			planned := make([]output.PlannedStep, len(steps))
			for i, step := range steps {
				_, name, registered := app.Actions.Resolve(step.EntryID)
				planned[i] = output.PlannedStep{Step: step, Action: name, Registered: registered}
			}
			app.Printer.Plan(planned)
			return nil
		},
	}

	cmd.Flags().StringVar(&chainName, "chain", "", "plan a named chain from the manifest")
	return cmd
}
