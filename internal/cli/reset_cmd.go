package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/alexanderramin/fokus/internal/cli/formatter"
)

func newResetCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Erase all statistics and session history",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				if !app.interactive() {
					return fmt.Errorf("refusing to reset without confirmation; pass --yes to skip the prompt")
				}
				confirmed, err := confirmReset()
				if err != nil {
					return err
				}
				if !confirmed {
					cmd.Println("Aborted.")
					return nil
				}
			}

			if err := app.Stats.ResetAllStats(context.Background()); err != nil {
				return err
			}
			cmd.Println("All statistics cleared.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt")

	return cmd
}

func confirmReset() (bool, error) {
	confirmed := false
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Reset all statistics?").
				Description("This permanently erases every daily total and recorded session.").
				Affirmative("Erase everything").
				Negative("Keep my stats").
				Value(&confirmed),
		),
	).WithTheme(fokusHuhTheme())

	if err := form.Run(); err != nil {
		return false, err
	}
	return confirmed, nil
}

// fokusHuhTheme restyles huh prompts with the shared palette.
func fokusHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.FocusedButton = lipgloss.NewStyle().Foreground(formatter.ColorFg).Background(formatter.ColorRed).Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().Foreground(formatter.ColorDim).Padding(0, 1)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}
