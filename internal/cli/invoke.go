package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mcpchain/internal/action"
)

func newInvokeCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "invoke <entry-id> [json-input]",
		Short: "Run the action of a single entry",
		Long: `Run the action serving one catalog entry and print its output.
Useful for testing an action before adding it to a chain.

Example:
  mcpchain invoke github '{"repo":"octo/hello"}'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			entryID := args[0]

			var input any
			if len(args) == 2 {
				if err := json.Unmarshal([]byte(args[1]), &input); err != nil {
					return fmt.Errorf("invalid json input: %w", err)
				}
			}

			ctx := cmd.Context()
			if _, err := app.Catalog.FindEntry(ctx, entryID); err != nil {
				return err
			}

			timeout := app.Config.Executor.StepTimeout
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			_, name, registered := app.Actions.Resolve(entryID)
			app.logger().Debug("invoking action", "entry_id", entryID, "action", name, "registered", registered)

			start := time.Now()
			out, err := app.Actions.Invoke(ctx, entryID, input)
			if err != nil {
				return fmt.Errorf("%s failed after %s: %w", entryID, formatElapsed(start), err)
			}
			if action.IsSimulated(out) {
				app.Printer.Text("%s has no registered action; ran the simulated fallback", entryID)
			}
			return app.Printer.JSON(out)
		},
	}
}

func formatElapsed(start time.Time) string {
	return time.Since(start).Round(time.Millisecond).String()
}
