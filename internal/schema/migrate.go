// Package schema normalizes any previously persisted stats document
// into the canonical v2 shape. Migrations are re-runnable: applying
// Migrate to its own output is a no-op, the same discipline the app
// relies on to heal partially written or hand-edited state.
package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/alexanderramin/fokus/internal/domain"
)

// Result is the outcome of a migration pass. Changed reports whether
// the canonical state differs from what was read, which is what decides
// whether the caller persists.
type Result struct {
	State   *domain.CanonicalState
	Changed bool
}

// Migrate converts a raw persisted blob into canonical v2 state.
// Absent or unusable input yields a fresh empty state. A v2 document is
// re-normalized in place; anything older is rebuilt field by field with
// migration stamps set. Historical daily totals never shrink: legacy
// per-day aggregates are merged with session-derived totals by maximum.
func Migrate(raw []byte, now time.Time, loc *time.Location) Result {
	if len(raw) == 0 {
		return Result{State: domain.EmptyState(now, loc), Changed: true}
	}

	var loose map[string]any
	if err := json.Unmarshal(raw, &loose); err != nil || loose == nil {
		return Result{State: domain.EmptyState(now, loc), Changed: true}
	}

	if asInt(loose["schemaVersion"]) == domain.SchemaVersion {
		if state, changed, ok := renormalizeV2(raw, now, loc); ok {
			return Result{State: state, Changed: changed}
		}
		// A v2 stamp over a structurally broken document: rebuild.
	}

	return Result{State: rebuild(loose, now, loc), Changed: true}
}

// renormalizeV2 decodes a v2 document strictly and re-runs full
// normalization, reporting whether normalization moved anything.
func renormalizeV2(raw []byte, now time.Time, loc *time.Location) (*domain.CanonicalState, bool, bool) {
	var state domain.CanonicalState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, false, false
	}
	before := state.Clone()
	normalize(&state, now, loc)
	return &state, !reflect.DeepEqual(before, &state), true
}

// rebuild constructs a brand new v2 state from a legacy (v0/v1 or
// unversioned) document.
func rebuild(loose map[string]any, now time.Time, loc *time.Location) *domain.CanonicalState {
	state := domain.EmptyState(now, loc)

	if created := asString(loose["createdAt"]); created != "" {
		if _, err := domain.ParseTimestamp(created, loc); err == nil {
			state.CreatedAt = created
		}
	}

	state.SessionHistory = legacySessions(loose, loc)
	if len(state.SessionHistory) == 0 {
		state.SessionHistory = synthesizeFromDayTotals(loose, loc)
	}
	state.SortSessions(loc)

	// Session-derived daily totals, then max-merge with the legacy flat
	// per-day aggregate map so migration never loses recorded time but
	// also never double counts days the sessions already cover.
	nowIso := domain.FormatTimestamp(now)
	for _, session := range state.SessionHistory {
		start, err := session.StartAt(loc)
		if err != nil {
			continue
		}
		for _, chunk := range domain.SplitSessionByDay(session, loc) {
			rec := state.EnsureDaily(chunk.DayKey, now)
			rec.TotalFocusSeconds += chunk.Seconds
			rec.LastUpdatedAt = nowIso
		}
		startRec := state.EnsureDaily(domain.DayKeyAt(start, loc), now)
		startRec.SessionsCount++
	}
	for dayKey, seconds := range legacyDayTotals(loose) {
		rec := state.EnsureDaily(dayKey, now)
		if seconds > rec.TotalFocusSeconds {
			rec.TotalFocusSeconds = seconds
			rec.LastUpdatedAt = nowIso
		}
	}

	state.TotalWaterBreaks = clampNonNegative(asInt(loose["waterBreaksTaken"]))
	state.LastSessionSeconds = clampNonNegative(asInt(loose["lastSessionSeconds"]))
	if at := asString(loose["lastSessionRecordedAt"]); at != "" {
		state.LastSessionRecordedAt = &at
	}

	state.Runtime = legacyRuntime(loose)

	if key := asString(loose["lastStatsDate"]); domain.IsDayKey(key) {
		state.LastActiveDateKey = key
	} else if latest := state.LatestDayKey(); latest != "" {
		state.LastActiveDateKey = latest
	}

	migratedAt := domain.FormatTimestamp(now)
	sourceVersion := clampNonNegative(asInt(loose["schemaVersion"]))
	state.MigratedAt = &migratedAt
	state.MigrationSourceVersion = &sourceVersion

	normalize(state, now, loc)
	return state
}

// normalize enforces every canonical-state invariant in place: clamped
// non-negative counters, well-formed day keys, a sorted deduplicated
// session history, a consistent lastActiveDateKey and at least one
// daily record.
func normalize(state *domain.CanonicalState, now time.Time, loc *time.Location) {
	state.SchemaVersion = domain.SchemaVersion
	if state.CreatedAt == "" {
		state.CreatedAt = domain.FormatTimestamp(now)
	}
	if state.UpdatedAt == "" {
		state.UpdatedAt = state.CreatedAt
	}

	cleanRecords := make(map[string]*domain.DailyRecord, len(state.DailyRecords))
	for key, rec := range state.DailyRecords {
		if rec == nil || !domain.IsDayKey(key) {
			continue
		}
		rec.DateKey = key
		rec.TotalFocusSeconds = clampNonNegative(rec.TotalFocusSeconds)
		rec.SessionsCount = clampNonNegative(rec.SessionsCount)
		rec.WaterBreaksTaken = clampNonNegative(rec.WaterBreaksTaken)
		if rec.LastUpdatedAt == "" {
			rec.LastUpdatedAt = state.UpdatedAt
		}
		cleanRecords[key] = rec
	}
	state.DailyRecords = cleanRecords

	cleanSessions := make([]domain.SessionRecord, 0, len(state.SessionHistory))
	seen := make(map[string]bool, len(state.SessionHistory))
	for _, session := range state.SessionHistory {
		if err := session.Normalize(loc); err != nil {
			continue
		}
		if session.ID == "" || seen[session.ID] {
			continue
		}
		seen[session.ID] = true
		cleanSessions = append(cleanSessions, session)
	}
	state.SessionHistory = cleanSessions
	state.SortSessions(loc)

	state.TotalWaterBreaks = clampNonNegative(state.TotalWaterBreaks)
	state.LastSessionSeconds = clampNonNegative(state.LastSessionSeconds)
	state.Runtime.CurrentSessionInitialTime = clampNonNegative(state.Runtime.CurrentSessionInitialTime)
	if state.Runtime.AccumulatedPauseTime < 0 {
		state.Runtime.AccumulatedPauseTime = 0
	}

	if !domain.IsDayKey(state.LastActiveDateKey) {
		if latest := state.LatestDayKey(); latest != "" {
			state.LastActiveDateKey = latest
		} else {
			state.LastActiveDateKey = domain.DayKeyAt(now, loc)
		}
	}
	if len(state.DailyRecords) == 0 {
		state.EnsureDaily(state.LastActiveDateKey, now)
	}
}

// legacySessions decodes the loose sessionHistory array, dropping
// records that fail validation. Records without an id get a
// deterministic legacy id so re-running the migration over the same
// blob cannot duplicate them.
func legacySessions(loose map[string]any, loc *time.Location) []domain.SessionRecord {
	items, ok := loose["sessionHistory"].([]any)
	if !ok {
		return []domain.SessionRecord{}
	}
	sessions := make([]domain.SessionRecord, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		session := domain.SessionRecord{
			ID:        asString(entry["id"]),
			StartTime: asString(entry["startTime"]),
			EndTime:   asString(entry["endTime"]),
			Type:      asString(entry["type"]),
			Completed: asBool(entry["completed"]),
			CreatedAt: asString(entry["createdAt"]),
		}
		// A finite durationSeconds is kept as recorded, zero included;
		// only an absent or junk value is rederived by Normalize.
		if seconds, ok := asInt64(entry["durationSeconds"]); ok {
			session.SetDuration(int(seconds))
		}
		if err := session.Normalize(loc); err != nil {
			continue
		}
		if session.ID == "" {
			session.ID = fmt.Sprintf("legacy-%s-%d", session.StartTime, session.DurationSeconds)
		}
		if seen[session.ID] {
			continue
		}
		seen[session.ID] = true
		sessions = append(sessions, session)
	}
	return sessions
}

// synthesizeFromDayTotals rebuilds a minimal session history from a
// legacy per-day aggregate map when no session rows survived: one
// midday pseudo-session per active day, keeping the session log the
// source of truth after migration.
func synthesizeFromDayTotals(loose map[string]any, loc *time.Location) []domain.SessionRecord {
	totals := legacyDayTotals(loose)
	sessions := make([]domain.SessionRecord, 0, len(totals))
	for dayKey, seconds := range totals {
		dayStart, err := domain.ParseDayKey(dayKey, loc)
		if err != nil {
			continue
		}
		start := dayStart.Add(12 * time.Hour)
		end := start.Add(time.Duration(seconds) * time.Second)
		sessions = append(sessions, domain.SessionRecord{
			ID:              "day-" + dayKey,
			StartTime:       domain.FormatTimestamp(start),
			EndTime:         domain.FormatTimestamp(end),
			DurationSeconds: seconds,
			Type:            domain.SessionTypeFocus,
			Completed:       true,
			CreatedAt:       domain.FormatTimestamp(end),
		})
	}
	return sessions
}

// legacyDayTotals extracts the v0/v1 activityByDay map, keeping only
// well-formed keys with positive finite totals.
func legacyDayTotals(loose map[string]any) map[string]int {
	raw, ok := loose["activityByDay"].(map[string]any)
	if !ok {
		return nil
	}
	totals := make(map[string]int, len(raw))
	for key, value := range raw {
		seconds := asInt(value)
		if !domain.IsDayKey(key) || seconds <= 0 {
			continue
		}
		totals[key] = seconds
	}
	return totals
}

// legacyRuntime lifts the flat v0/v1 in-flight session fields into the
// v2 runtime block.
func legacyRuntime(loose map[string]any) domain.RuntimeState {
	var runtime domain.RuntimeState
	if ms, ok := asInt64(loose["currentSessionStartTime"]); ok {
		runtime.CurrentSessionStartTime = &ms
	}
	runtime.CurrentSessionInitialTime = clampNonNegative(asInt(loose["currentSessionInitialTime"]))
	if ms, ok := asInt64(loose["pausedAt"]); ok {
		runtime.PausedAt = &ms
	}
	if ms, ok := asInt64(loose["accumulatedPauseTime"]); ok && ms > 0 {
		runtime.AccumulatedPauseTime = ms
	}
	return runtime
}
