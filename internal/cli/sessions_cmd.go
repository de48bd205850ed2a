package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/alexanderramin/fokus/internal/cli/formatter"
	"github.com/alexanderramin/fokus/internal/stats"
	"github.com/spf13/cobra"
)

func newSessionsCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recorded focus sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := app.Stats.LoadSessions(context.Background())
			if err != nil {
				return err
			}
			if limit > 0 && len(sessions) > limit {
				sessions = sessions[len(sessions)-limit:]
			}
			cmd.Println(formatter.FormatSessions(sessions))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Show only the N most recent sessions")
	cmd.AddCommand(newSessionsExportCmd(app))

	return cmd
}

func newSessionsExportCmd(app *App) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the session log as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := app.Stats.LoadSessions(context.Background())
			if err != nil {
				return err
			}
			csvOut, err := stats.SessionsCSV(sessions)
			if err != nil {
				return fmt.Errorf("rendering csv: %w", err)
			}

			if out == "" {
				cmd.Print(csvOut)
				return nil
			}
			if err := os.WriteFile(out, []byte(csvOut), 0o600); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}
			cmd.Printf("Exported %d session(s) to %s\n", len(sessions), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Destination file (defaults to stdout)")

	return cmd
}
