package cli

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/fokus/internal/testutil"
	"github.com/alexanderramin/fokus/internal/timer"
)

func newTimerFixture(t *testing.T, focus time.Duration) (timerModel, *App, *testutil.Clock) {
	t.Helper()
	app, clock := newTestApp(t)
	engine := timer.New()
	require.NoError(t, engine.Start(clock.Now(), focus))
	return newTimerModel(app, engine, false), app, clock
}

func tick(m timerModel, clock *testutil.Clock) timerModel {
	updated, _ := m.Update(tickMsg(clock.Now()))
	return updated.(timerModel)
}

func key(m timerModel, msg tea.KeyMsg) timerModel {
	updated, _ := m.Update(msg)
	return updated.(timerModel)
}

func TestTimerModel_CompletionRecordsSession(t *testing.T) {
	m, app, clock := newTimerFixture(t, time.Minute)

	clock.Advance(time.Minute)
	m = tick(m, clock)

	require.NoError(t, m.err)
	assert.Contains(t, m.message, "complete")
	assert.Equal(t, timer.StateIdle, m.engine.State())

	sessions, err := app.Stats.LoadSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, 60, sessions[0].DurationSeconds)
	assert.True(t, sessions[0].Completed)

	// The persisted in-flight block was cleared along the way.
	state, err := app.Stats.MigrateIfNeeded(context.Background())
	require.NoError(t, err)
	assert.False(t, state.Runtime.Active())
}

func TestTimerModel_SpaceTogglesPause(t *testing.T) {
	m, app, clock := newTimerFixture(t, 25*time.Minute)

	clock.Advance(time.Minute)
	m = key(m, tea.KeyMsg{Type: tea.KeySpace})
	require.NoError(t, m.err)
	assert.Equal(t, timer.StatePaused, m.engine.State())

	// The pause reached the persisted runtime block.
	state, err := app.Stats.MigrateIfNeeded(context.Background())
	require.NoError(t, err)
	require.NotNil(t, state.Runtime.PausedAt)

	clock.Advance(time.Minute)
	m = key(m, tea.KeyMsg{Type: tea.KeySpace})
	require.NoError(t, m.err)
	assert.Equal(t, timer.StateRunning, m.engine.State())
}

func TestTimerModel_WaterBreakFlow(t *testing.T) {
	app, clock := newTestApp(t)
	engine := timer.New()
	engine.SetWaterBreakInterval(10*time.Minute, clock.Now())
	require.NoError(t, engine.Start(clock.Now(), time.Hour))
	m := newTimerModel(app, engine, false)

	clock.Advance(10 * time.Minute)
	m = tick(m, clock)
	assert.Equal(t, timer.StateWaterBreak, m.engine.State())
	assert.Contains(t, m.message, "hydrate")

	// "d" outside a break does nothing; inside it records and resumes.
	clock.Advance(time.Minute)
	m = key(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	require.NoError(t, m.err)
	assert.Equal(t, timer.StateRunning, m.engine.State())

	agg, err := app.Stats.LoadAggregates(context.Background(), clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, agg.WaterBreaksTaken)
}

func TestTimerModel_ResetDiscardsSession(t *testing.T) {
	m, app, clock := newTimerFixture(t, 25*time.Minute)

	clock.Advance(5 * time.Minute)
	m = key(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	require.NoError(t, m.err)
	assert.Equal(t, timer.StateIdle, m.engine.State())

	sessions, err := app.Stats.LoadSessions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sessions, "a reset session is never recorded")
}

func TestTimerModel_QuitPersistsRuntime(t *testing.T) {
	m, app, clock := newTimerFixture(t, 25*time.Minute)

	clock.Advance(2 * time.Minute)
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	m = updated.(timerModel)
	require.NotNil(t, cmd, "quit issues a command")
	require.NoError(t, m.err)

	state, err := app.Stats.MigrateIfNeeded(context.Background())
	require.NoError(t, err)
	require.True(t, state.Runtime.Active())
	assert.Equal(t, 1500, state.Runtime.CurrentSessionInitialTime)

	// A fresh engine picks the session back up where it left off.
	restored := timer.New()
	require.True(t, restored.Restore(state.Runtime, clock.Now()))
	assert.Equal(t, 1500-120, restored.Remaining(clock.Now()))
}

func TestTimerModel_ViewShowsCountdown(t *testing.T) {
	m, _, clock := newTimerFixture(t, 25*time.Minute)

	clock.Advance(5 * time.Minute)
	m = tick(m, clock)

	view := m.View()
	assert.Contains(t, view, "00:20:00")
	assert.Contains(t, view, "pause/resume")
}
