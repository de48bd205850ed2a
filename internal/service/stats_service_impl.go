package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/alexanderramin/fokus/internal/domain"
	"github.com/alexanderramin/fokus/internal/schema"
	"github.com/alexanderramin/fokus/internal/stats"
	"github.com/alexanderramin/fokus/internal/store"
	"github.com/google/uuid"
)

// taskQueueDepth bounds how many mutations can be waiting; the UI
// issues at most a handful per second.
const taskQueueDepth = 64

type task struct {
	apply func(state *domain.CanonicalState) (bool, error)
	reply chan taskResult
}

type taskResult struct {
	state *domain.CanonicalState
	err   error
}

// statsService implements StatsService over a BlobStore. Every
// mutation is an enqueued unit of work executed by a single worker
// goroutine: load-or-migrate once, apply, persist only when something
// changed, reply with a deep copy. A failed persist leaves the
// in-memory cache authoritative and surfaces ErrWriteFailed.
type statsService struct {
	store    store.BlobStore
	loc      *time.Location
	clock    func() time.Time
	observer UseCaseObserver

	mu    sync.RWMutex
	state *domain.CanonicalState

	tasks     chan task
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// Option configures the stats service.
type Option func(*statsService)

// WithClock injects the time source, for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *statsService) { s.clock = clock }
}

// WithLocation sets the timezone used for all day-key computation.
func WithLocation(loc *time.Location) Option {
	return func(s *statsService) { s.loc = loc }
}

// WithObserver wires execution telemetry for every boundary operation.
func WithObserver(observer UseCaseObserver) Option {
	return func(s *statsService) { s.observer = observer }
}

// NewStatsService builds the service and starts its mutation worker.
func NewStatsService(blobs store.BlobStore, opts ...Option) StatsService {
	s := &statsService{
		store:    blobs,
		loc:      time.Local,
		clock:    time.Now,
		observer: NoopUseCaseObserver{},
		tasks:    make(chan task, taskQueueDepth),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.worker()
	return s
}

func (s *statsService) worker() {
	defer close(s.done)
	for {
		select {
		case t := <-s.tasks:
			t.reply <- s.run(t)
		case <-s.quit:
			// Drain whatever was enqueued before Close.
			for {
				select {
				case t := <-s.tasks:
					t.reply <- s.run(t)
				default:
					return
				}
			}
		}
	}
}

// run executes one queued unit. The worker is the only writer of
// s.state; the lock shields concurrent read-only queries.
func (s *statsService) run(t task) taskResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	loadErr := s.ensureLoadedLocked()

	changed, err := t.apply(s.state)
	if err != nil {
		return taskResult{state: s.state.Clone(), err: err}
	}

	if changed {
		s.state.Touch(s.clock())
		if err := s.persistLocked(); err != nil {
			return taskResult{state: s.state.Clone(), err: err}
		}
		return taskResult{state: s.state.Clone()}
	}
	return taskResult{state: s.state.Clone(), err: loadErr}
}

// ensureLoadedLocked lazily loads and migrates the persisted document
// into the cache. A read failure degrades to a fresh in-memory state
// rather than failing the caller; a migration that changed the shape
// is persisted immediately and any write error reported.
func (s *statsService) ensureLoadedLocked() error {
	if s.state != nil {
		return nil
	}
	now := s.clock()

	raw, err := s.store.Read()
	if err != nil {
		s.state = domain.EmptyState(now, s.loc)
		return nil
	}

	res := schema.Migrate(raw, now, s.loc)
	s.state = res.State
	if res.Changed {
		return s.persistLocked()
	}
	return nil
}

func (s *statsService) persistLocked() error {
	blob, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding state: %v", ErrWriteFailed, err)
	}
	if err := s.store.Write(blob); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return nil
}

// do enqueues a mutation and waits for its result, emitting one
// observer event per call. An enqueued unit always runs to completion
// even if the caller's context expires while waiting.
func (s *statsService) do(ctx context.Context, name string, apply func(*domain.CanonicalState) (bool, error)) (*domain.CanonicalState, error) {
	started := time.Now()
	t := task{apply: apply, reply: make(chan taskResult, 1)}

	select {
	case <-s.quit:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	case s.tasks <- t:
	}

	var res taskResult
	select {
	case res = <-t.reply:
	case <-s.done:
		// The worker exited while we were enqueued. It drains the queue
		// before closing done, so either our reply is already buffered
		// or the task never ran.
		select {
		case res = <-t.reply:
		default:
			return nil, ErrClosed
		}
	}
	s.observer.ObserveUseCase(ctx, UseCaseEvent{
		Name:      name,
		Duration:  time.Since(started),
		Success:   res.err == nil,
		Err:       res.err,
		StartedAt: started,
	})
	return res.state, res.err
}

// view runs a read-only query against the cached state, loading it
// through the queue first if this is the first access.
func (s *statsService) view(ctx context.Context, fn func(*domain.CanonicalState) error) error {
	s.mu.RLock()
	loaded := s.state != nil
	s.mu.RUnlock()
	if !loaded {
		if _, err := s.do(ctx, "load_state", noMutation); err != nil {
			return err
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.state)
}

func noMutation(*domain.CanonicalState) (bool, error) { return false, nil }

func (s *statsService) MigrateIfNeeded(ctx context.Context) (*domain.CanonicalState, error) {
	return s.do(ctx, "migrate_if_needed", noMutation)
}

func (s *statsService) RolloverIfNeeded(ctx context.Context, now time.Time) (bool, error) {
	changed := false
	_, err := s.do(ctx, "rollover_if_needed", func(state *domain.CanonicalState) (bool, error) {
		today := domain.DayKeyAt(now, s.loc)
		if state.LastActiveDateKey == today {
			return false, nil
		}
		state.EnsureDaily(today, now)
		state.LastActiveDateKey = today
		changed = true
		return true, nil
	})
	return changed, err
}

func (s *statsService) RecordCompletedSession(ctx context.Context, session domain.SessionRecord) (bool, error) {
	inserted := false
	_, err := s.do(ctx, "record_completed_session", func(state *domain.CanonicalState) (bool, error) {
		rec := session
		if err := rec.Normalize(s.loc); err != nil {
			return false, nil
		}
		if rec.ID == "" {
			rec.ID = uuid.New().String()
		}
		if state.HasSession(rec.ID) {
			return false, nil
		}

		now := s.clock()
		nowIso := domain.FormatTimestamp(now)

		state.SessionHistory = append(state.SessionHistory, rec)
		state.SortSessions(s.loc)

		for _, chunk := range domain.SplitSessionByDay(rec, s.loc) {
			day := state.EnsureDaily(chunk.DayKey, now)
			day.TotalFocusSeconds += chunk.Seconds
			day.LastUpdatedAt = nowIso
		}

		// A session counts as completed on the day it started, even
		// when it spans midnight; the end day drives the rollover key.
		start, _ := rec.StartAt(s.loc)
		end, _ := rec.EndAt(s.loc)
		startDay := state.EnsureDaily(domain.DayKeyAt(start, s.loc), now)
		startDay.SessionsCount++
		startDay.LastUpdatedAt = nowIso
		state.LastActiveDateKey = domain.DayKeyAt(end, s.loc)

		state.LastSessionSeconds = rec.DurationSeconds
		state.LastSessionRecordedAt = &nowIso

		inserted = true
		return true, nil
	})
	return inserted, err
}

func (s *statsService) RecordWaterBreak(ctx context.Context, at time.Time) (bool, error) {
	recorded := false
	_, err := s.do(ctx, "record_water_break", func(state *domain.CanonicalState) (bool, error) {
		day := state.EnsureDaily(domain.DayKeyAt(at, s.loc), at)
		day.WaterBreaksTaken++
		day.LastUpdatedAt = domain.FormatTimestamp(s.clock())
		state.TotalWaterBreaks++
		recorded = true
		return true, nil
	})
	return recorded, err
}

func (s *statsService) SaveRuntimeState(ctx context.Context, patch domain.RuntimePatch) error {
	_, err := s.do(ctx, "save_runtime_state", func(state *domain.CanonicalState) (bool, error) {
		return state.Runtime.Apply(patch), nil
	})
	return err
}

func (s *statsService) ResetAllStats(ctx context.Context) error {
	_, err := s.do(ctx, "reset_all_stats", func(state *domain.CanonicalState) (bool, error) {
		now := s.clock()
		fresh := domain.EmptyState(now, s.loc)
		resetAt := domain.FormatTimestamp(now)
		fresh.ResetAt = &resetAt
		*state = *fresh
		return true, nil
	})
	return err
}

func (s *statsService) LoadAggregates(ctx context.Context, now time.Time) (stats.Aggregates, error) {
	var agg stats.Aggregates
	err := s.view(ctx, func(state *domain.CanonicalState) error {
		agg = stats.Compute(state, now, s.loc)
		return nil
	})
	return agg, err
}

func (s *statsService) LoadSessions(ctx context.Context) ([]domain.SessionRecord, error) {
	var sessions []domain.SessionRecord
	err := s.view(ctx, func(state *domain.CanonicalState) error {
		sessions = append([]domain.SessionRecord(nil), state.SessionHistory...)
		return nil
	})
	return sessions, err
}

func (s *statsService) GetDaily(ctx context.Context, dayKey string) (domain.DailyRecord, error) {
	var day domain.DailyRecord
	err := s.view(ctx, func(state *domain.CanonicalState) error {
		day = stats.Daily(state, dayKey)
		return nil
	})
	return day, err
}

func (s *statsService) GetRange(ctx context.Context, startKey, endKey string) ([]domain.DailyRecord, error) {
	var days []domain.DailyRecord
	err := s.view(ctx, func(state *domain.CanonicalState) error {
		var rangeErr error
		days, rangeErr = stats.Range(state, startKey, endKey, s.loc)
		return rangeErr
	})
	return days, err
}

func (s *statsService) GetDailyBreakdown(ctx context.Context, startKey, endKey string) ([]stats.DayBreakdown, error) {
	var days []stats.DayBreakdown
	err := s.view(ctx, func(state *domain.CanonicalState) error {
		var rangeErr error
		days, rangeErr = stats.DailyBreakdown(state, startKey, endKey, s.loc)
		return rangeErr
	})
	return days, err
}

func (s *statsService) GetWeeklyAverage(ctx context.Context, weekStartKey string) (int, error) {
	var avg int
	err := s.view(ctx, func(state *domain.CanonicalState) error {
		var avgErr error
		avg, avgErr = stats.WeeklyAverage(state, weekStartKey, s.loc)
		return avgErr
	})
	return avg, err
}

func (s *statsService) GetMonthlyTotals(ctx context.Context, year int, month time.Month) (int, error) {
	var total int
	err := s.view(ctx, func(state *domain.CanonicalState) error {
		total = stats.MonthlyTotal(state, year, month)
		return nil
	})
	return total, err
}

func (s *statsService) GetYearlyTotals(ctx context.Context, year int) (int, error) {
	var total int
	err := s.view(ctx, func(state *domain.CanonicalState) error {
		total = stats.YearlyTotal(state, year)
		return nil
	})
	return total, err
}

func (s *statsService) Close() error {
	s.closeOnce.Do(func() {
		close(s.quit)
		<-s.done
	})
	return nil
}
