package cli

import (
	"time"

	"github.com/alexanderramin/fokus/internal/service"
	"github.com/spf13/cobra"
)

// App holds everything CLI commands need.
type App struct {
	Stats    service.StatsService
	Location *time.Location
	Now      func() time.Time

	// IsInteractive reports whether stdin is a terminal; the timer TUI
	// and confirmation prompts refuse to run without one.
	IsInteractive func() bool
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) location() *time.Location {
	if a.Location != nil {
		return a.Location
	}
	return time.Local
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

// NewRootCmd creates the top-level "fokus" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "fokus",
		Short: "Terminal focus timer with persistent statistics",
	}

	root.AddCommand(
		newTimerCmd(app),
		newStatsCmd(app),
		newSessionsCmd(app),
		newResetCmd(app),
		newMigrateCmd(app),
	)

	return root
}
