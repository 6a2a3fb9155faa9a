package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newChainsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "chains",
		Short: "List the chains defined in the manifest",
		Long: `List the named chains of the configured manifest with their entries,
in the order they appear in the file.

Example:
  mcpchain chains`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Manifest == nil {
				return fmt.Errorf("no manifest configured: set manifest.path")
			}

			names := app.Manifest.Chains()
			if len(names) == 0 {
				app.Printer.Text("manifest defines no chains")
				return nil
			}

			chains := make(map[string][]string, len(names))
			for _, name := range names {
				ids, err := app.Manifest.Chain(name)
				if err != nil {
					return err
				}
				chains[name] = ids
			}
			app.Printer.Chains(chains, names)
			return nil
		},
	}
}
