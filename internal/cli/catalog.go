package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mcpchain/internal/catalog"
)

func newCatalogCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and seed the server catalog",
	}

	cmd.AddCommand(
		newCatalogListCommand(app),
		newCatalogShowCommand(app),
		newCatalogImportCommand(app),
	)
	return cmd
}

func newCatalogListCommand(app *App) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := app.Catalog.List(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return app.Printer.JSON(entries)
			}
			app.Printer.Entries(entries)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print entries as JSON")
	return cmd
}

func newCatalogShowCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <entry-id>",
		Short: "Show one catalog entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := app.Catalog.FindEntry(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			app.Printer.Entry(entry)
			return nil
		},
	}
}

func newCatalogImportCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <catalog.yaml>",
		Short: "Copy entries from a YAML catalog into the configured store",
		Long: `Read entries from a YAML catalog file and upsert them into the configured
catalog store. Only writable stores (sqlite) accept imports.

Example:
  mcpchain catalog import servers.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, ok := app.Catalog.(catalog.Upserter)
			if !ok {
				return fmt.Errorf("catalog driver %q does not support imports", app.Config.Catalog.Driver)
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read catalog: %w", err)
			}
			file, err := catalog.ParseFile(data)
			if err != nil {
				return err
			}
			if err := store.Upsert(cmd.Context(), file.Entries...); err != nil {
				return err
			}

			app.logger().Info("catalog imported", "source", args[0], "entries", len(file.Entries))
			app.Printer.Text("imported %d entries from %s", len(file.Entries), args[0])
			return nil
		},
	}
}
