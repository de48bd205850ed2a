package service

import (
	"context"
	"errors"
	"time"

	"github.com/alexanderramin/fokus/internal/domain"
	"github.com/alexanderramin/fokus/internal/stats"
)

var (
	// ErrClosed is returned when an operation is submitted after Close.
	ErrClosed = errors.New("stats service closed")

	// ErrWriteFailed marks a mutation that was applied to the in-memory
	// state but could not be persisted. The cache stays authoritative;
	// callers should warn the user about degraded durability.
	ErrWriteFailed = errors.New("persisting state failed")
)

// StatsService is the boundary the timer/UI collaborator talks to. All
// mutating operations are serialized on an internal queue; read-only
// queries go straight to the cached canonical state. Returned state is
// always a deep copy.
type StatsService interface {
	// MigrateIfNeeded loads the persisted document, migrating and
	// re-persisting it when it is not already canonical v2.
	MigrateIfNeeded(ctx context.Context) (*domain.CanonicalState, error)

	// RolloverIfNeeded ensures a daily record exists for now's local
	// day. It reports whether anything changed and is cheap to call
	// every second.
	RolloverIfNeeded(ctx context.Context, now time.Time) (bool, error)

	// LoadAggregates returns the flat dashboard view for now's day.
	LoadAggregates(ctx context.Context, now time.Time) (stats.Aggregates, error)

	// SaveRuntimeState merges a partial update into the persisted
	// in-flight session block.
	SaveRuntimeState(ctx context.Context, patch domain.RuntimePatch) error

	// LoadSessions returns the session history, ordered by start time.
	LoadSessions(ctx context.Context) ([]domain.SessionRecord, error)

	// RecordCompletedSession appends a completed session. It reports
	// false without error when the record is invalid or its id is
	// already present.
	RecordCompletedSession(ctx context.Context, session domain.SessionRecord) (bool, error)

	// RecordWaterBreak counts one water break at the given instant.
	RecordWaterBreak(ctx context.Context, at time.Time) (bool, error)

	// ResetAllStats irreversibly replaces all state with a fresh
	// document. The caller owns user confirmation.
	ResetAllStats(ctx context.Context) error

	GetDaily(ctx context.Context, dayKey string) (domain.DailyRecord, error)
	GetRange(ctx context.Context, startKey, endKey string) ([]domain.DailyRecord, error)

	// GetDailyBreakdown recomputes per-day session statistics over the
	// inclusive range from the session log.
	GetDailyBreakdown(ctx context.Context, startKey, endKey string) ([]stats.DayBreakdown, error)
	GetWeeklyAverage(ctx context.Context, weekStartKey string) (int, error)
	GetMonthlyTotals(ctx context.Context, year int, month time.Month) (int, error)
	GetYearlyTotals(ctx context.Context, year int) (int, error)

	// Close drains the mutation queue and stops the worker.
	Close() error
}
