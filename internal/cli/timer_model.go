package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexanderramin/fokus/internal/cli/formatter"
	"github.com/alexanderramin/fokus/internal/timer"
)

// tickInterval is deliberately shorter than a second so the displayed
// countdown never visibly skips; remaining time is re-derived from the
// deadline on every tick.
const tickInterval = 250 * time.Millisecond

// syncInterval throttles runtime persistence while the timer runs.
const syncInterval = 5 * time.Second

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

type timerModel struct {
	app    *App
	engine *timer.Engine
	bar    progress.Model

	now      time.Time
	lastSync time.Time
	message  string
	err      error
	quitting bool
}

func newTimerModel(app *App, engine *timer.Engine, resumed bool) timerModel {
	m := timerModel{
		app:    app,
		engine: engine,
		bar:    progress.New(progress.WithDefaultGradient()),
		now:    app.now(),
	}
	m.lastSync = m.now
	if resumed {
		m.message = "Resumed the session that was in flight."
	}
	return m
}

func (m timerModel) Init() tea.Cmd {
	return tickCmd()
}

func (m timerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		width := msg.Width - 12
		if width > 48 {
			width = 48
		}
		if width > 0 {
			m.bar.Width = width
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		return m.handleTick(time.Time(msg))
	}
	return m, nil
}

func (m timerModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	now := m.app.now()
	m.now = now

	switch msg.String() {
	case "q", "ctrl+c":
		m.saveRuntime()
		m.quitting = true
		return m, tea.Quit

	case " ":
		switch m.engine.State() {
		case timer.StateRunning:
			if err := m.engine.Pause(now); err == nil {
				m.message = "Paused."
				m.saveRuntime()
			}
		case timer.StatePaused:
			if err := m.engine.Resume(now); err == nil {
				m.message = "Back to it."
				m.saveRuntime()
			}
		}
		return m, nil

	case "d":
		if m.engine.State() != timer.StateWaterBreak {
			return m, nil
		}
		if _, err := m.app.Stats.RecordWaterBreak(context.Background(), now); err != nil {
			m.err = err
		}
		if err := m.engine.FinishWaterBreak(now); err == nil {
			m.message = "Water break recorded. 💧"
			m.saveRuntime()
		}
		return m, nil

	case "r":
		m.engine.Reset()
		m.saveRuntime()
		m.message = "Timer reset; the session was not recorded."
		return m, nil
	}
	return m, nil
}

func (m timerModel) handleTick(now time.Time) (tea.Model, tea.Cmd) {
	m.now = now

	switch m.engine.Tick(now) {
	case timer.EventCompleted:
		m.completeSession(now)
	case timer.EventWaterBreakDue:
		m.message = "Time to hydrate! Press d when you have had some water."
		m.saveRuntime()
	default:
		if m.engine.State() == timer.StateRunning && now.Sub(m.lastSync) >= syncInterval {
			m.saveRuntime()
			if _, err := m.app.Stats.RolloverIfNeeded(context.Background(), now); err != nil {
				m.err = err
			}
			m.lastSync = now
		}
	}

	if m.quitting {
		return m, nil
	}
	return m, tickCmd()
}

// completeSession records the finished session and clears the
// persisted in-flight block.
func (m *timerModel) completeSession(now time.Time) {
	ctx := context.Background()
	rec, err := m.engine.CompletedSession(now)
	if err != nil {
		m.err = err
		return
	}
	if _, err := m.app.Stats.RecordCompletedSession(ctx, rec); err != nil {
		m.err = err
	}
	m.engine.Reset()
	m.saveRuntime()
	if m.err == nil {
		m.message = "Session complete! 🎉"
	}
}

func (m *timerModel) saveRuntime() {
	if err := m.app.Stats.SaveRuntimeState(context.Background(), m.engine.RuntimePatch()); err != nil {
		m.err = err
	}
}

func (m timerModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	remaining := m.engine.Remaining(m.now)

	b.WriteString(formatter.StyleHeader.Render(formatter.FormatClock(remaining)))
	b.WriteString("\n\n")
	b.WriteString(m.bar.ViewAs(m.engine.Progress(m.now)))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("%s %s", formatter.StyleBold.Render("Status:"), stateLabel(m.engine.State())))
	if elapsed := int(m.engine.ElapsedFocus(m.now) / time.Second); elapsed > 0 {
		b.WriteString(formatter.Dim(fmt.Sprintf("  ·  %s focused", formatter.FormatSeconds(elapsed))))
	}
	b.WriteString("\n")

	if m.message != "" {
		b.WriteString("\n" + formatter.StyleBlue.Render(m.message) + "\n")
	}
	if m.err != nil {
		b.WriteString("\n" + formatter.StyleRed.Render("Warning: "+m.err.Error()) + "\n")
	}

	b.WriteString("\n" + formatter.Dim("space pause/resume · d drank · r reset · q quit"))
	return formatter.RenderBox("focus", b.String())
}

func stateLabel(s timer.State) string {
	switch s {
	case timer.StateRunning:
		return formatter.StyleGreen.Render("Focus time!")
	case timer.StatePaused:
		return formatter.StyleYellow.Render("Paused")
	case timer.StateWaterBreak:
		return formatter.StyleBlue.Render("Water break")
	case timer.StateCompleted:
		return formatter.StyleGreen.Render("Done")
	default:
		return formatter.Dim("Idle")
	}
}
