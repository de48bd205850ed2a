package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alexanderramin/fokus/internal/domain"
)

var sessionCounter atomic.Int64

// SessionOption tweaks a fixture session.
type SessionOption func(*domain.SessionRecord)

func WithID(id string) SessionOption {
	return func(s *domain.SessionRecord) { s.ID = id }
}

func WithDuration(d time.Duration) SessionOption {
	return func(s *domain.SessionRecord) { s.DurationSeconds = int(d / time.Second) }
}

func WithIncomplete() SessionOption {
	return func(s *domain.SessionRecord) { s.Completed = false }
}

// Session builds a completed half-hour focus session starting at start.
// Options are applied after the end time is derived, so WithDuration
// only changes the recorded duration, not the span.
func Session(start time.Time, opts ...SessionOption) domain.SessionRecord {
	end := start.Add(30 * time.Minute)
	s := domain.SessionRecord{
		ID:              fmt.Sprintf("session-%03d", sessionCounter.Add(1)),
		StartTime:       domain.FormatTimestamp(start),
		EndTime:         domain.FormatTimestamp(end),
		DurationSeconds: 1800,
		Type:            domain.SessionTypeFocus,
		Completed:       true,
		CreatedAt:       domain.FormatTimestamp(end),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// SpanningSession builds a completed session over an explicit span.
func SpanningSession(start, end time.Time, opts ...SessionOption) domain.SessionRecord {
	s := Session(start, opts...)
	s.EndTime = domain.FormatTimestamp(end)
	s.DurationSeconds = int(end.Sub(start) / time.Second)
	s.CreatedAt = s.EndTime
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
