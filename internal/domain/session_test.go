package domain

import (
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeSession(id, start, end string, duration int) SessionRecord {
	return SessionRecord{
		ID:              id,
		StartTime:       start,
		EndTime:         end,
		DurationSeconds: duration,
	}
}

func TestParseTimestamp_ZonelessUsesLocation(t *testing.T) {
	parsed, err := ParseTimestamp("2026-01-26T23:30:00", testLoc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 26, 23, 30, 0, 0, testLoc), parsed)
}

func TestParseTimestamp_RFC3339(t *testing.T) {
	parsed, err := ParseTimestamp("2026-01-26T23:30:00Z", testLoc)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(time.Date(2026, 1, 26, 23, 30, 0, 0, time.UTC)))
}

func TestNormalize_KeepsExplicitDuration(t *testing.T) {
	s := makeSession("s-1", "2026-01-26T10:00:00", "2026-01-26T10:30:00", 1200)
	require.NoError(t, s.Normalize(testLoc))
	assert.Equal(t, 1200, s.DurationSeconds)
	assert.Equal(t, SessionTypeFocus, s.Type)
	assert.Equal(t, s.EndTime, s.CreatedAt)
}

func TestNormalize_DerivesDurationFromDelta(t *testing.T) {
	s := makeSession("s-1", "2026-01-26T10:00:00", "2026-01-26T10:30:00", 0)
	require.NoError(t, s.Normalize(testLoc))
	assert.Equal(t, 1800, s.DurationSeconds)
}

func TestNormalize_KeepsExplicitZeroDuration(t *testing.T) {
	// A session fully eaten by pauses records zero focused seconds;
	// that zero must not be replaced by the wall-clock delta.
	s := makeSession("s-1", "2026-01-26T10:00:00", "2026-01-26T10:30:00", 0)
	s.SetDuration(0)
	require.NoError(t, s.Normalize(testLoc))
	assert.Equal(t, 0, s.DurationSeconds)
}

func TestUnmarshal_DistinguishesZeroFromAbsentDuration(t *testing.T) {
	var explicit SessionRecord
	require.NoError(t, json.Unmarshal(
		[]byte(`{"id":"z","startTime":"2026-01-26T10:00:00","endTime":"2026-01-26T10:30:00","durationSeconds":0}`),
		&explicit))
	require.NoError(t, explicit.Normalize(testLoc))
	assert.Equal(t, 0, explicit.DurationSeconds)

	var absent SessionRecord
	require.NoError(t, json.Unmarshal(
		[]byte(`{"id":"a","startTime":"2026-01-26T10:00:00","endTime":"2026-01-26T10:30:00"}`),
		&absent))
	require.NoError(t, absent.Normalize(testLoc))
	assert.Equal(t, 1800, absent.DurationSeconds)
}

func TestNormalize_RejectsInvertedTimes(t *testing.T) {
	s := makeSession("s-1", "2026-01-26T10:30:00", "2026-01-26T10:00:00", 0)
	err := s.Normalize(testLoc)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestNormalize_RejectsGarbageTimes(t *testing.T) {
	s := makeSession("s-1", "soon", "later", 0)
	assert.ErrorIs(t, s.Normalize(testLoc), ErrInvalidSession)
}

func TestSplitSessionByDay_SingleDay(t *testing.T) {
	s := makeSession("s-1", "2026-01-26T10:00:00", "2026-01-26T11:00:00", 0)
	chunks := SplitSessionByDay(s, testLoc)
	require.Len(t, chunks, 1)
	assert.Equal(t, Chunk{DayKey: "2026-01-26", Seconds: 3600}, chunks[0])
}

func TestSplitSessionByDay_AcrossMidnight(t *testing.T) {
	s := makeSession("s-1", "2026-01-26T23:30:00", "2026-01-27T00:30:00", 0)
	chunks := SplitSessionByDay(s, testLoc)
	require.Len(t, chunks, 2)
	assert.Equal(t, Chunk{DayKey: "2026-01-26", Seconds: 1800}, chunks[0])
	assert.Equal(t, Chunk{DayKey: "2026-01-27", Seconds: 1800}, chunks[1])
}

func TestSplitSessionByDay_SpansMultipleDays(t *testing.T) {
	s := makeSession("s-1", "2026-01-26T23:00:00", "2026-01-29T01:00:00", 0)
	chunks := SplitSessionByDay(s, testLoc)
	require.Len(t, chunks, 4)
	keys := []string{chunks[0].DayKey, chunks[1].DayKey, chunks[2].DayKey, chunks[3].DayKey}
	assert.Equal(t, []string{"2026-01-26", "2026-01-27", "2026-01-28", "2026-01-29"}, keys)
	assert.Equal(t, 86400, chunks[1].Seconds)
}

func TestSplitSessionByDay_InvalidYieldsNil(t *testing.T) {
	s := makeSession("s-1", "garbage", "2026-01-26T11:00:00", 0)
	assert.Nil(t, SplitSessionByDay(s, testLoc))

	inverted := makeSession("s-2", "2026-01-26T11:00:00", "2026-01-26T10:00:00", 0)
	assert.Nil(t, SplitSessionByDay(inverted, testLoc))
}

// TestSplitSessionByDay_Conservation property-tests the invariant that
// chunk seconds sum to the session's wall-clock span within a one
// second flooring tolerance per day boundary.
func TestSplitSessionByDay_Conservation(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 200; trial++ {
		start := time.Date(2026, 1, 1, 0, 0, 0, 0, testLoc).
			Add(time.Duration(rng.Intn(90*24*3600)) * time.Second).
			Add(time.Duration(rng.Intn(1000)) * time.Millisecond)
		span := time.Duration(rng.Intn(3*24*3600)+1) * time.Second
		end := start.Add(span)

		s := SessionRecord{
			ID:        "prop",
			StartTime: start.Format(time.RFC3339Nano),
			EndTime:   end.Format(time.RFC3339Nano),
		}
		chunks := SplitSessionByDay(s, testLoc)
		require.NotEmpty(t, chunks)

		total := 0
		for _, c := range chunks {
			assert.GreaterOrEqual(t, c.Seconds, 0)
			assert.True(t, IsDayKey(c.DayKey))
			total += c.Seconds
		}
		wholeSeconds := int(span / time.Second)
		assert.InDelta(t, wholeSeconds, total, float64(len(chunks)),
			"start=%s span=%s", start, span)
	}
}
