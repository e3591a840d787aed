package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sma-eca-api/pkg/database"
)

// MigrateCmd applies pending schema migrations.
func MigrateCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := app.Database()
			if err != nil {
				return err
			}
			applied, err := database.Migrate(app.Ctx, db)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(app.Out, "Schema is up to date.")
				return nil
			}
			for _, name := range applied {
				fmt.Fprintf(app.Out, "applied %s\n", name)
			}
			return nil
		},
	}
}
