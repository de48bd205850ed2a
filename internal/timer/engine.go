package timer

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/alexanderramin/fokus/internal/domain"
	"github.com/google/uuid"
)

// ErrInvalidTransition is returned when an operation is not legal in
// the engine's current state.
var ErrInvalidTransition = errors.New("invalid timer transition")

// completionSlack is how close to the deadline a tick may land and
// still count as done. Remaining time is rounded to the nearest whole
// second for display, so anything under half a second is zero anyway.
const completionSlack = 500 * time.Millisecond

// State is the timer lifecycle.
type State int

const (
	StateIdle State = iota
	StateRunning
	StatePaused
	StateWaterBreak
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateWaterBreak:
		return "water break"
	case StateCompleted:
		return "completed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Event is what a Tick observed.
type Event int

const (
	EventNone Event = iota
	EventWaterBreakDue
	EventCompleted
)

// Engine is a deadline-based countdown with pause accounting. It never
// decrements a counter: remaining time is always re-derived from an
// absolute deadline, so slow or missed ticks cannot drift the clock.
// The engine holds no goroutines and no wall clock; callers pass now.
type Engine struct {
	state          State
	initialSeconds int
	remaining      int       // frozen seconds while not running
	deadline       time.Time // zero unless running

	sessionStart     time.Time
	pausedAt         time.Time // set while paused or on a water break
	accumulatedPause time.Duration

	waterInterval  time.Duration // 0 disables water breaks
	nextBreakAt    time.Time     // zero unless scheduled
	breakRemaining time.Duration // frozen remainder while not running
}

// New returns an idle engine.
func New() *Engine { return &Engine{} }

// SetWaterBreakInterval enables periodic water breaks. A non-positive
// interval disables them. Changing the interval while running restarts
// the countdown from now.
func (e *Engine) SetWaterBreakInterval(interval time.Duration, now time.Time) {
	if interval <= 0 {
		e.waterInterval = 0
		e.nextBreakAt = time.Time{}
		e.breakRemaining = 0
		return
	}
	e.waterInterval = interval
	e.breakRemaining = interval
	if e.state == StateRunning {
		e.nextBreakAt = now.Add(interval)
	} else {
		e.nextBreakAt = time.Time{}
	}
}

// Start begins a new session of the given duration.
func (e *Engine) Start(now time.Time, duration time.Duration) error {
	if e.state != StateIdle && e.state != StateCompleted {
		return fmt.Errorf("%w: start from %s", ErrInvalidTransition, e.state)
	}
	seconds := int(duration / time.Second)
	if seconds <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidTransition)
	}
	e.state = StateRunning
	e.initialSeconds = seconds
	e.remaining = seconds
	e.deadline = now.Add(time.Duration(seconds) * time.Second)
	e.sessionStart = now
	e.pausedAt = time.Time{}
	e.accumulatedPause = 0
	if e.waterInterval > 0 {
		e.breakRemaining = e.waterInterval
		e.nextBreakAt = now.Add(e.waterInterval)
	}
	return nil
}

// Pause freezes the countdown and starts counting pause time.
func (e *Engine) Pause(now time.Time) error {
	if e.state != StateRunning {
		return fmt.Errorf("%w: pause from %s", ErrInvalidTransition, e.state)
	}
	e.freeze(now)
	e.state = StatePaused
	return nil
}

// Resume continues a paused session, folding the pause into the
// accumulated total.
func (e *Engine) Resume(now time.Time) error {
	if e.state != StatePaused {
		return fmt.Errorf("%w: resume from %s", ErrInvalidTransition, e.state)
	}
	e.unfreeze(now)
	return nil
}

// FinishWaterBreak resumes the session after a break and schedules the
// next one a full interval out.
func (e *Engine) FinishWaterBreak(now time.Time) error {
	if e.state != StateWaterBreak {
		return fmt.Errorf("%w: finish water break from %s", ErrInvalidTransition, e.state)
	}
	e.breakRemaining = e.waterInterval
	e.unfreeze(now)
	return nil
}

// Tick advances the engine. It only observes time; in any state but
// Running it reports EventNone.
func (e *Engine) Tick(now time.Time) Event {
	if e.state != StateRunning {
		return EventNone
	}
	if e.deadline.Sub(now) < completionSlack {
		e.state = StateCompleted
		e.remaining = 0
		e.deadline = time.Time{}
		e.nextBreakAt = time.Time{}
		return EventCompleted
	}
	if !e.nextBreakAt.IsZero() && !now.Before(e.nextBreakAt) {
		e.freeze(now)
		e.state = StateWaterBreak
		e.breakRemaining = 0
		return EventWaterBreakDue
	}
	return EventNone
}

// Reset abandons the in-flight session and returns to idle.
func (e *Engine) Reset() {
	interval := e.waterInterval
	*e = Engine{waterInterval: interval, breakRemaining: interval}
}

func (e *Engine) freeze(now time.Time) {
	e.remaining = clampSeconds(e.deadline.Sub(now))
	e.deadline = time.Time{}
	e.pausedAt = now
	if !e.nextBreakAt.IsZero() {
		e.breakRemaining = e.nextBreakAt.Sub(now)
		if e.breakRemaining < 0 {
			e.breakRemaining = 0
		}
		e.nextBreakAt = time.Time{}
	}
}

func (e *Engine) unfreeze(now time.Time) {
	if !e.pausedAt.IsZero() {
		e.accumulatedPause += now.Sub(e.pausedAt)
		e.pausedAt = time.Time{}
	}
	e.deadline = now.Add(time.Duration(e.remaining) * time.Second)
	if e.waterInterval > 0 && e.breakRemaining > 0 {
		e.nextBreakAt = now.Add(e.breakRemaining)
	}
	e.state = StateRunning
}

// State returns the current lifecycle state.
func (e *Engine) State() State { return e.state }

// InitialSeconds is the configured session length.
func (e *Engine) InitialSeconds() int { return e.initialSeconds }

// Remaining reports whole seconds left, rounded to the nearest second.
func (e *Engine) Remaining(now time.Time) int {
	if e.state == StateRunning {
		return clampSeconds(e.deadline.Sub(now))
	}
	return e.remaining
}

// Progress reports session completion in [0, 1].
func (e *Engine) Progress(now time.Time) float64 {
	if e.initialSeconds == 0 {
		return 0
	}
	p := float64(e.initialSeconds-e.Remaining(now)) / float64(e.initialSeconds)
	return math.Min(1, math.Max(0, p))
}

// ElapsedFocus is the focused time of the in-flight session: wall time
// since start minus every pause, with the current pause excluded too.
func (e *Engine) ElapsedFocus(now time.Time) time.Duration {
	if e.sessionStart.IsZero() {
		return 0
	}
	end := now
	if !e.pausedAt.IsZero() {
		end = e.pausedAt
	}
	elapsed := end.Sub(e.sessionStart) - e.accumulatedPause
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// CompletedSession builds the record for the session that just
// finished. Valid only in the Completed state.
func (e *Engine) CompletedSession(now time.Time) (domain.SessionRecord, error) {
	if e.state != StateCompleted {
		return domain.SessionRecord{}, fmt.Errorf("%w: no completed session", ErrInvalidTransition)
	}
	endIso := domain.FormatTimestamp(now)
	rec := domain.SessionRecord{
		ID:        uuid.New().String(),
		StartTime: domain.FormatTimestamp(e.sessionStart),
		EndTime:   endIso,
		Type:      domain.SessionTypeFocus,
		Completed: true,
		CreatedAt: endIso,
	}
	// The measured focus time is authoritative even at zero, as when a
	// pause covered the whole session.
	rec.SetDuration(int(e.ElapsedFocus(now) / time.Second))
	return rec, nil
}

// RuntimePatch renders the engine's in-flight block for persistence, so
// a running session survives a restart.
func (e *Engine) RuntimePatch() domain.RuntimePatch {
	patch := domain.RuntimePatch{}
	if e.sessionStart.IsZero() {
		patch.ClearStartTime = true
		patch.ClearPausedAt = true
		zero := 0
		patch.InitialSeconds = &zero
		var zeroMs int64
		patch.AccumulatedPauseMs = &zeroMs
		return patch
	}
	startMs := e.sessionStart.UnixMilli()
	patch.StartTimeMs = &startMs
	initial := e.initialSeconds
	patch.InitialSeconds = &initial
	pauseMs := e.accumulatedPause.Milliseconds()
	patch.AccumulatedPauseMs = &pauseMs
	if e.pausedAt.IsZero() {
		patch.ClearPausedAt = true
	} else {
		pausedMs := e.pausedAt.UnixMilli()
		patch.PausedAtMs = &pausedMs
	}
	return patch
}

// Restore seeds the engine from a persisted in-flight block. A session
// that was running keeps counting against its original deadline; one
// that was paused stays paused. Returns false when there is nothing to
// restore or the session's time is already up.
func (e *Engine) Restore(rt domain.RuntimeState, now time.Time) bool {
	if !rt.Active() || rt.CurrentSessionInitialTime <= 0 {
		return false
	}
	elapsed := rt.ElapsedSeconds(now)
	remaining := rt.CurrentSessionInitialTime - elapsed
	if remaining <= 0 {
		return false
	}

	e.state = StateRunning
	e.initialSeconds = rt.CurrentSessionInitialTime
	e.remaining = remaining
	e.sessionStart = time.UnixMilli(*rt.CurrentSessionStartTime)
	e.accumulatedPause = time.Duration(rt.AccumulatedPauseTime) * time.Millisecond
	if rt.PausedAt != nil {
		e.state = StatePaused
		e.pausedAt = time.UnixMilli(*rt.PausedAt)
		e.deadline = time.Time{}
	} else {
		e.deadline = now.Add(time.Duration(remaining) * time.Second)
	}
	if e.waterInterval > 0 {
		e.breakRemaining = e.waterInterval
		if e.state == StateRunning {
			e.nextBreakAt = now.Add(e.waterInterval)
		}
	}
	return true
}

func clampSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds()))
}
