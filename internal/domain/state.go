package domain

import (
	"sort"
	"time"
)

// SchemaVersion is the canonical persisted schema. Every older or
// unversioned shape is migrated up to this on load.
const SchemaVersion = 2

// DailyRecord aggregates one local calendar day.
type DailyRecord struct {
	DateKey           string `json:"dateKey"`
	TotalFocusSeconds int    `json:"totalFocusSeconds"`
	SessionsCount     int    `json:"sessionsCount"`
	WaterBreaksTaken  int    `json:"waterBreaksTaken"`
	LastUpdatedAt     string `json:"lastUpdatedAt"`
}

// RuntimeState describes the single in-flight focus session, persisted
// so a running timer survives an app restart. Instants are epoch
// milliseconds to match the original document; accumulated pause time
// is milliseconds as well.
type RuntimeState struct {
	CurrentSessionStartTime   *int64 `json:"currentSessionStartTime"`
	CurrentSessionInitialTime int    `json:"currentSessionInitialTime"`
	PausedAt                  *int64 `json:"pausedAt"`
	AccumulatedPauseTime      int64  `json:"accumulatedPauseTime"`
}

// Active reports whether a session is in flight.
func (r RuntimeState) Active() bool {
	return r.CurrentSessionStartTime != nil
}

// ElapsedSeconds returns the focused time of the in-flight session:
// wall clock since start minus accumulated pauses, minus the time since
// pausedAt when currently paused.
func (r RuntimeState) ElapsedSeconds(now time.Time) int {
	if r.CurrentSessionStartTime == nil {
		return 0
	}
	nowMs := now.UnixMilli()
	if r.PausedAt != nil && *r.PausedAt < nowMs {
		nowMs = *r.PausedAt
	}
	elapsedMs := nowMs - *r.CurrentSessionStartTime - r.AccumulatedPauseTime
	if elapsedMs < 0 {
		return 0
	}
	return int(elapsedMs / 1000)
}

// RuntimePatch is a partial runtime update. Nil pointer fields leave
// the current value untouched; the Clear flags null a nullable field.
type RuntimePatch struct {
	StartTimeMs        *int64
	ClearStartTime     bool
	InitialSeconds     *int
	PausedAtMs         *int64
	ClearPausedAt      bool
	AccumulatedPauseMs *int64
}

// Apply merges the patch into r and reports whether anything changed.
func (r *RuntimeState) Apply(p RuntimePatch) bool {
	changed := false
	switch {
	case p.ClearStartTime:
		if r.CurrentSessionStartTime != nil {
			r.CurrentSessionStartTime = nil
			changed = true
		}
	case p.StartTimeMs != nil:
		if r.CurrentSessionStartTime == nil || *r.CurrentSessionStartTime != *p.StartTimeMs {
			v := *p.StartTimeMs
			r.CurrentSessionStartTime = &v
			changed = true
		}
	}
	if p.InitialSeconds != nil && r.CurrentSessionInitialTime != *p.InitialSeconds {
		r.CurrentSessionInitialTime = *p.InitialSeconds
		changed = true
	}
	switch {
	case p.ClearPausedAt:
		if r.PausedAt != nil {
			r.PausedAt = nil
			changed = true
		}
	case p.PausedAtMs != nil:
		if r.PausedAt == nil || *r.PausedAt != *p.PausedAtMs {
			v := *p.PausedAtMs
			r.PausedAt = &v
			changed = true
		}
	}
	if p.AccumulatedPauseMs != nil && r.AccumulatedPauseTime != *p.AccumulatedPauseMs {
		r.AccumulatedPauseTime = *p.AccumulatedPauseMs
		changed = true
	}
	return changed
}

// CanonicalState is the single persisted document. All derived views
// are computed from DailyRecords and SessionHistory on demand.
type CanonicalState struct {
	SchemaVersion          int                     `json:"schemaVersion"`
	CreatedAt              string                  `json:"createdAt"`
	UpdatedAt              string                  `json:"updatedAt"`
	MigratedAt             *string                 `json:"migratedAt"`
	MigrationSourceVersion *int                    `json:"migrationSourceVersion"`
	LastActiveDateKey      string                  `json:"lastActiveDateKey"`
	DailyRecords           map[string]*DailyRecord `json:"dailyRecords"`
	SessionHistory         []SessionRecord         `json:"sessionHistory"`
	Runtime                RuntimeState            `json:"runtime"`
	TotalWaterBreaks       int                     `json:"totalWaterBreaks"`
	LastSessionSeconds     int                     `json:"lastSessionSeconds"`
	LastSessionRecordedAt  *string                 `json:"lastSessionRecordedAt"`
	ResetAt                *string                 `json:"resetAt"`
}

// EmptyState builds a fresh canonical state with a zero daily record
// for now's local day, satisfying the at-least-one-record invariant.
func EmptyState(now time.Time, loc *time.Location) *CanonicalState {
	iso := FormatTimestamp(now)
	today := DayKeyAt(now, loc)
	return &CanonicalState{
		SchemaVersion:     SchemaVersion,
		CreatedAt:         iso,
		UpdatedAt:         iso,
		LastActiveDateKey: today,
		DailyRecords: map[string]*DailyRecord{
			today: {DateKey: today, LastUpdatedAt: iso},
		},
		SessionHistory: []SessionRecord{},
	}
}

// Clone deep-copies the state so callers can never reach the shared
// in-memory cache through a returned value. Nil and empty collections
// keep their exact shape, so a clone compares DeepEqual to its source.
func (s *CanonicalState) Clone() *CanonicalState {
	out := *s
	if s.DailyRecords != nil {
		out.DailyRecords = make(map[string]*DailyRecord, len(s.DailyRecords))
		for k, v := range s.DailyRecords {
			rec := *v
			out.DailyRecords[k] = &rec
		}
	}
	if s.SessionHistory != nil {
		out.SessionHistory = make([]SessionRecord, len(s.SessionHistory))
		copy(out.SessionHistory, s.SessionHistory)
	}
	out.MigratedAt = cloneStrPtr(s.MigratedAt)
	out.MigrationSourceVersion = cloneIntPtr(s.MigrationSourceVersion)
	out.LastSessionRecordedAt = cloneStrPtr(s.LastSessionRecordedAt)
	out.ResetAt = cloneStrPtr(s.ResetAt)
	out.Runtime.CurrentSessionStartTime = cloneInt64Ptr(s.Runtime.CurrentSessionStartTime)
	out.Runtime.PausedAt = cloneInt64Ptr(s.Runtime.PausedAt)
	return &out
}

// Touch refreshes the updatedAt stamp.
func (s *CanonicalState) Touch(now time.Time) {
	s.UpdatedAt = FormatTimestamp(now)
}

// EnsureDaily returns the record for dayKey, creating a zero record
// stamped at now when absent.
func (s *CanonicalState) EnsureDaily(dayKey string, now time.Time) *DailyRecord {
	if s.DailyRecords == nil {
		s.DailyRecords = map[string]*DailyRecord{}
	}
	rec, ok := s.DailyRecords[dayKey]
	if !ok {
		rec = &DailyRecord{DateKey: dayKey, LastUpdatedAt: FormatTimestamp(now)}
		s.DailyRecords[dayKey] = rec
	}
	return rec
}

// HasSession reports whether a session with the given id is already in
// the history.
func (s *CanonicalState) HasSession(id string) bool {
	for i := range s.SessionHistory {
		if s.SessionHistory[i].ID == id {
			return true
		}
	}
	return false
}

// SortSessions orders the history by start time ascending. Records
// whose start time cannot be parsed sort by their raw string, which
// keeps the order stable across runs.
func (s *CanonicalState) SortSessions(loc *time.Location) {
	sort.SliceStable(s.SessionHistory, func(i, j int) bool {
		a, errA := s.SessionHistory[i].StartAt(loc)
		b, errB := s.SessionHistory[j].StartAt(loc)
		if errA != nil || errB != nil {
			return s.SessionHistory[i].StartTime < s.SessionHistory[j].StartTime
		}
		return a.Before(b)
	})
}

// LatestDayKey returns the lexicographically greatest day key present
// in DailyRecords, or "" when the map is empty.
func (s *CanonicalState) LatestDayKey() string {
	latest := ""
	for k := range s.DailyRecords {
		if k > latest {
			latest = k
		}
	}
	return latest
}

// SortedDayKeys returns every daily record key in chronological order.
func (s *CanonicalState) SortedDayKeys() []string {
	keys := make([]string, 0, len(s.DailyRecords))
	for k := range s.DailyRecords {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func cloneStrPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneInt64Ptr(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
