package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SessionTypeFocus is the only session type the timer records today.
// The field is kept open-ended so break or custom session kinds can be
// logged without a schema change.
const SessionTypeFocus = "focus"

// ErrInvalidSession marks a session record that fails validation and
// must not be appended to the history.
var ErrInvalidSession = errors.New("invalid session record")

// SessionRecord is one completed focus session in the append-only log.
// Timestamps are stored as ISO-8601 strings to match the persisted
// document; zone-less values are interpreted in the configured location.
type SessionRecord struct {
	ID              string `json:"id"`
	StartTime       string `json:"startTime"`
	EndTime         string `json:"endTime"`
	DurationSeconds int    `json:"durationSeconds"`
	Type            string `json:"type"`
	Completed       bool   `json:"completed"`
	CreatedAt       string `json:"createdAt"`

	// durationExplicit distinguishes a duration the producer supplied,
	// zero included, from an absent one Normalize must derive. A pause
	// that eats a whole session legitimately records zero focused time.
	durationExplicit bool
}

// SetDuration records a duration supplied by the producer. Explicit
// values survive Normalize even at zero; negatives are clamped.
func (s *SessionRecord) SetDuration(seconds int) {
	if seconds < 0 {
		seconds = 0
	}
	s.DurationSeconds = seconds
	s.durationExplicit = true
}

// UnmarshalJSON decodes a session, remembering whether the document
// carried a durationSeconds field at all.
func (s *SessionRecord) UnmarshalJSON(data []byte) error {
	type plain SessionRecord
	aux := struct {
		DurationSeconds *float64 `json:"durationSeconds"`
		*plain
	}{plain: (*plain)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.DurationSeconds != nil {
		s.SetDuration(int(*aux.DurationSeconds))
	}
	return nil
}

// isoLayouts are tried in order when parsing persisted timestamps.
// The original data contains both RFC3339 values and local wall-clock
// values without an offset.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	dayKeyLayout,
}

// ParseTimestamp parses an ISO-8601 timestamp, interpreting zone-less
// values in loc.
func ParseTimestamp(value string, loc *time.Location) (time.Time, error) {
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parsing timestamp %q: unrecognized format", value)
}

// FormatTimestamp renders t the way every persisted timestamp is stored.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// StartAt parses the session's start time.
func (s SessionRecord) StartAt(loc *time.Location) (time.Time, error) {
	return ParseTimestamp(s.StartTime, loc)
}

// EndAt parses the session's end time.
func (s SessionRecord) EndAt(loc *time.Location) (time.Time, error) {
	return ParseTimestamp(s.EndTime, loc)
}

// Normalize validates the record and fills derivable fields: an absent
// duration falls back to the floored wall-clock delta, the type
// defaults to focus, and createdAt defaults to the end time. It returns
// ErrInvalidSession when the times are unparsable or end is not after
// start.
func (s *SessionRecord) Normalize(loc *time.Location) error {
	start, err := s.StartAt(loc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	end, err := s.EndAt(loc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if !end.After(start) {
		return fmt.Errorf("%w: end %s not after start %s", ErrInvalidSession, s.EndTime, s.StartTime)
	}
	if s.DurationSeconds <= 0 && !s.durationExplicit {
		s.DurationSeconds = int(end.Sub(start) / time.Second)
	}
	if s.DurationSeconds < 0 {
		s.DurationSeconds = 0
	}
	// Normalized records always carry a concrete duration, so a
	// re-decode of the persisted document compares equal to this one.
	s.durationExplicit = true
	if s.Type == "" {
		s.Type = SessionTypeFocus
	}
	if s.CreatedAt == "" {
		s.CreatedAt = s.EndTime
	}
	return nil
}

// Chunk is the portion of a session's duration attributable to one
// local calendar day.
type Chunk struct {
	DayKey  string
	Seconds int
}

// SplitSessionByDay walks local-day boundaries from the session's start
// to its end and attributes the whole seconds of each segment to that
// day. The chunk seconds sum to the wall-clock span of the session,
// modulo flooring at each boundary. A session contained in a single day
// yields exactly one chunk. Unparsable or inverted sessions yield nil.
func SplitSessionByDay(s SessionRecord, loc *time.Location) []Chunk {
	start, err := s.StartAt(loc)
	if err != nil {
		return nil
	}
	end, err := s.EndAt(loc)
	if err != nil || !end.After(start) {
		return nil
	}

	var chunks []Chunk
	cursor := start
	for cursor.Before(end) {
		segmentEnd := NextDayStart(cursor, loc)
		if segmentEnd.After(end) {
			segmentEnd = end
		}
		seconds := int(segmentEnd.Sub(cursor) / time.Second)
		if seconds < 0 {
			seconds = 0
		}
		chunks = append(chunks, Chunk{DayKey: DayKeyAt(cursor, loc), Seconds: seconds})
		cursor = segmentEnd
	}
	return chunks
}
