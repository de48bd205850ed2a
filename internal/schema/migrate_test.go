package schema

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/alexanderramin/fokus/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testLoc = time.UTC
	testNow = time.Date(2026, 1, 27, 9, 0, 0, 0, time.UTC)
)

func remarshal(t *testing.T, state *domain.CanonicalState) []byte {
	t.Helper()
	blob, err := json.Marshal(state)
	require.NoError(t, err)
	return blob
}

func TestMigrate_NoPriorState(t *testing.T) {
	res := Migrate(nil, testNow, testLoc)
	assert.True(t, res.Changed)
	assert.Equal(t, domain.SchemaVersion, res.State.SchemaVersion)
	assert.Equal(t, "2026-01-27", res.State.LastActiveDateKey)
	assert.Contains(t, res.State.DailyRecords, "2026-01-27")
}

func TestMigrate_GarbageInput(t *testing.T) {
	for _, raw := range []string{`"a string"`, `42`, `[1,2,3]`, `null`} {
		res := Migrate([]byte(raw), testNow, testLoc)
		assert.True(t, res.Changed, "raw=%s", raw)
		assert.Equal(t, domain.SchemaVersion, res.State.SchemaVersion, "raw=%s", raw)
	}
}

func TestMigrate_LegacyMaxMergesDayTotals(t *testing.T) {
	legacy := map[string]any{
		"schemaVersion": 1,
		"sessionHistory": []map[string]any{
			{
				"id":              "legacy-1",
				"startTime":       "2026-01-26T23:30:00",
				"endTime":         "2026-01-27T00:30:00",
				"durationSeconds": 3600,
			},
		},
		"activityByDay": map[string]int{
			"2026-01-26": 2400,
			"2026-01-27": 300,
		},
		"waterBreaksTaken": 5,
		"lastStatsDate":    "2026-01-27",
	}
	raw, err := json.Marshal(legacy)
	require.NoError(t, err)

	res := Migrate(raw, testNow, testLoc)
	state := res.State

	require.True(t, res.Changed)
	assert.Equal(t, domain.SchemaVersion, state.SchemaVersion)
	// Legacy aggregate wins on the 26th (2400 > session-derived 1800);
	// the session-derived total wins on the 27th (1800 > legacy 300).
	assert.Equal(t, 2400, state.DailyRecords["2026-01-26"].TotalFocusSeconds)
	assert.Equal(t, 1800, state.DailyRecords["2026-01-27"].TotalFocusSeconds)
	assert.Equal(t, 1, state.DailyRecords["2026-01-26"].SessionsCount)
	require.Len(t, state.SessionHistory, 1)
	assert.Equal(t, 5, state.TotalWaterBreaks)
	assert.Equal(t, "2026-01-27", state.LastActiveDateKey)
	require.NotNil(t, state.MigrationSourceVersion)
	assert.Equal(t, 1, *state.MigrationSourceVersion)
	require.NotNil(t, state.MigratedAt)
}

func TestMigrate_Idempotent(t *testing.T) {
	inputs := map[string]string{
		"legacy v1": `{
			"schemaVersion": 1,
			"sessionHistory": [
				{"id":"s-1","startTime":"2026-01-26T10:00:00","endTime":"2026-01-26T10:30:00","durationSeconds":1800},
				{"id":"s-1","startTime":"2026-01-26T10:00:00","endTime":"2026-01-26T10:30:00","durationSeconds":1800},
				{"startTime":"2026-01-26T11:00:00","endTime":"2026-01-26T11:10:00"}
			],
			"activityByDay": {"2026-01-20": 2400, "bogus-key": 100},
			"waterBreaksTaken": -3
		}`,
		"unversioned": `{"totalFocusTimeSeconds": 3600, "activityByDay": {"2026-01-25": 3600}}`,
		"empty":       `{}`,
	}

	for name, raw := range inputs {
		first := Migrate([]byte(raw), testNow, testLoc)
		require.True(t, first.Changed, name)

		second := Migrate(remarshal(t, first.State), testNow.Add(time.Hour), testLoc)
		assert.False(t, second.Changed, "second pass must be a no-op: %s", name)
		assert.Equal(t, first.State, second.State, name)
	}
}

func TestMigrate_LegacyExplicitZeroDurationKept(t *testing.T) {
	raw := []byte(`{
		"schemaVersion": 1,
		"sessionHistory": [
			{"id":"z","startTime":"2026-01-26T10:00:00","endTime":"2026-01-26T10:30:00","durationSeconds":0}
		]
	}`)

	res := Migrate(raw, testNow, testLoc)

	require.Len(t, res.State.SessionHistory, 1)
	assert.Equal(t, 0, res.State.SessionHistory[0].DurationSeconds,
		"a recorded zero is data, not an absence to backfill")

	second := Migrate(remarshal(t, res.State), testNow, testLoc)
	assert.False(t, second.Changed)
}

func TestMigrate_SynthesizesHistoryFromDayTotals(t *testing.T) {
	raw := []byte(`{"schemaVersion":1,"activityByDay":{"2026-01-20":2400,"2026-01-21":600}}`)

	res := Migrate(raw, testNow, testLoc)
	state := res.State

	require.Len(t, state.SessionHistory, 2)
	assert.Equal(t, "day-2026-01-20", state.SessionHistory[0].ID)
	assert.Equal(t, 2400, state.SessionHistory[0].DurationSeconds)
	assert.True(t, state.SessionHistory[0].Completed)
	assert.Equal(t, 2400, state.DailyRecords["2026-01-20"].TotalFocusSeconds)
	assert.Equal(t, 600, state.DailyRecords["2026-01-21"].TotalFocusSeconds)
}

func TestMigrate_LegacyRuntimeIsLifted(t *testing.T) {
	startMs := testNow.Add(-20 * time.Minute).UnixMilli()
	raw := []byte(`{
		"schemaVersion": 1,
		"currentSessionStartTime": ` + jsonInt64(startMs) + `,
		"currentSessionInitialTime": 1500,
		"accumulatedPauseTime": 60000
	}`)

	res := Migrate(raw, testNow, testLoc)
	runtime := res.State.Runtime

	require.NotNil(t, runtime.CurrentSessionStartTime)
	assert.Equal(t, startMs, *runtime.CurrentSessionStartTime)
	assert.Equal(t, 1500, runtime.CurrentSessionInitialTime)
	assert.Equal(t, int64(60000), runtime.AccumulatedPauseTime)
	assert.Nil(t, runtime.PausedAt)
}

func TestMigrate_V2CleanIsUnchanged(t *testing.T) {
	clean := domain.EmptyState(testNow, testLoc)
	res := Migrate(remarshal(t, clean), testNow, testLoc)
	assert.False(t, res.Changed)
	assert.Nil(t, res.State.MigratedAt, "normalization must not stamp migration fields")
}

func TestMigrate_V2NormalizationRepairs(t *testing.T) {
	dirty := domain.EmptyState(testNow, testLoc)
	dirty.TotalWaterBreaks = -4
	dirty.DailyRecords["2026-01-26"] = &domain.DailyRecord{DateKey: "2026-01-26", TotalFocusSeconds: -100}
	dirty.DailyRecords["not-a-day"] = &domain.DailyRecord{DateKey: "not-a-day", TotalFocusSeconds: 50}
	dirty.SessionHistory = []domain.SessionRecord{
		{ID: "dup", StartTime: "2026-01-26T10:00:00", EndTime: "2026-01-26T10:30:00"},
		{ID: "dup", StartTime: "2026-01-26T11:00:00", EndTime: "2026-01-26T11:30:00"},
		{ID: "bad", StartTime: "nope", EndTime: "2026-01-26T12:00:00"},
	}
	dirty.LastActiveDateKey = "garbage"

	res := Migrate(remarshal(t, dirty), testNow, testLoc)
	state := res.State

	require.True(t, res.Changed)
	assert.Equal(t, 0, state.TotalWaterBreaks)
	assert.Equal(t, 0, state.DailyRecords["2026-01-26"].TotalFocusSeconds)
	assert.NotContains(t, state.DailyRecords, "not-a-day")
	require.Len(t, state.SessionHistory, 1)
	assert.Equal(t, "dup", state.SessionHistory[0].ID)
	assert.Equal(t, "2026-01-27", state.LastActiveDateKey, "recomputed from daily records")
}

func jsonInt64(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
