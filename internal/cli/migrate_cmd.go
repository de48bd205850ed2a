package cli

import (
	"context"

	"github.com/spf13/cobra"
)

func newMigrateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Load the stats file, upgrading it to the current schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := app.Stats.MigrateIfNeeded(context.Background())
			if err != nil {
				return err
			}

			cmd.Printf("Schema version: %d\n", state.SchemaVersion)
			cmd.Printf("Daily records:  %d\n", len(state.DailyRecords))
			cmd.Printf("Sessions:       %d\n", len(state.SessionHistory))
			if state.MigratedAt != nil {
				cmd.Printf("Migrated at:    %s", *state.MigratedAt)
				if state.MigrationSourceVersion != nil {
					cmd.Printf(" (from v%d)", *state.MigrationSourceVersion)
				}
				cmd.Println()
			}
			return nil
		},
	}
}
