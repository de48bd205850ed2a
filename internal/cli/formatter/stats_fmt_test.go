package formatter

import (
	"testing"

	"github.com/alexanderramin/fokus/internal/domain"
	"github.com/alexanderramin/fokus/internal/stats"
	"github.com/stretchr/testify/assert"
)

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "25m", FormatSeconds(1500))
	assert.Equal(t, "1h 00m", FormatSeconds(3600))
	assert.Equal(t, "2h 05m", FormatSeconds(7500))
	assert.Equal(t, "0m", FormatSeconds(-5))
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "00:25:00", FormatClock(1500))
	assert.Equal(t, "01:01:05", FormatClock(3665))
	assert.Equal(t, "00:00:00", FormatClock(-1))
}

func TestFormatAggregates_ContainsCoreFields(t *testing.T) {
	out := FormatAggregates(stats.Aggregates{
		TotalFocusTimeSeconds: 1800,
		SessionsCompleted:     2,
		WaterBreaksTaken:      1,
		CurrentStreak:         4,
		LastStatsDate:         "2026-02-15",
	}, []string{"Best weekday: Sun (30 min)"})

	assert.Contains(t, out, "30m")
	assert.Contains(t, out, "2026-02-15")
	assert.Contains(t, out, "Best weekday: Sun (30 min)")
	assert.Contains(t, out, "🔥")
}

func TestFormatDays(t *testing.T) {
	out := FormatDays([]domain.DailyRecord{
		{DateKey: "2026-01-26", TotalFocusSeconds: 1800},
		{DateKey: "2026-01-27", TotalFocusSeconds: 0},
	})
	assert.Contains(t, out, "2026-01-26")
	assert.Contains(t, out, "2026-01-27")

	assert.Contains(t, FormatDays(nil), "No activity")
}

func TestFormatSessions(t *testing.T) {
	out := FormatSessions([]domain.SessionRecord{
		{StartTime: "2026-02-15T09:00:00Z", EndTime: "2026-02-15T09:30:00Z", DurationSeconds: 1800, Completed: true},
	})
	assert.Contains(t, out, "2026-02-15T09:00:00Z")
	assert.Contains(t, out, "completed")

	assert.Contains(t, FormatSessions(nil), "No sessions")
}
