package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/alexanderramin/fokus/internal/service"
	"github.com/alexanderramin/fokus/internal/timer"
)

func newTimerCmd(app *App) *cobra.Command {
	var focus, water time.Duration

	cmd := &cobra.Command{
		Use:   "timer",
		Short: "Run a focus session with a live countdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.interactive() {
				return fmt.Errorf("the timer needs an interactive terminal")
			}

			ctx := context.Background()
			now := app.now()

			state, err := app.Stats.MigrateIfNeeded(ctx)
			if err != nil {
				if !errors.Is(err, service.ErrWriteFailed) {
					return err
				}
				cmd.PrintErrln("Warning: stats could not be persisted; continuing in memory.")
			}
			if _, err := app.Stats.RolloverIfNeeded(ctx, now); err != nil && !errors.Is(err, service.ErrWriteFailed) {
				return err
			}

			engine := timer.New()
			engine.SetWaterBreakInterval(water, now)

			resumed := state != nil && engine.Restore(state.Runtime, now)
			if !resumed {
				if err := engine.Start(now, focus); err != nil {
					return err
				}
			}
			if err := app.Stats.SaveRuntimeState(ctx, engine.RuntimePatch()); err != nil && !errors.Is(err, service.ErrWriteFailed) {
				return err
			}

			program := tea.NewProgram(newTimerModel(app, engine, resumed), tea.WithAltScreen())
			_, err = program.Run()
			return err
		},
	}

	cmd.Flags().DurationVar(&focus, "focus", 25*time.Minute, "Focus session length")
	cmd.Flags().DurationVar(&water, "water", 0, "Water break interval (0 disables breaks)")

	return cmd
}
