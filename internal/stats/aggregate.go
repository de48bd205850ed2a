// Package stats derives every read-side view from canonical state:
// today's totals, streaks, calendar rollups, ranges and insights. All
// functions are pure; nothing here mutates state or touches storage.
package stats

import (
	"math"
	"time"

	"github.com/alexanderramin/fokus/internal/domain"
)

const (
	// StreakThresholdMinutes is the minimum focused time a day needs
	// to count toward the streak.
	StreakThresholdMinutes = 30

	// WeeklyWindowDays is the window used by weekly averages.
	WeeklyWindowDays = 7
)

// Aggregates is the flat view the UI renders on the dashboard. The
// focus totals are today's numbers, not lifetime sums; the activity
// maps are full historical rollups.
type Aggregates struct {
	TotalFocusTimeSeconds int                 `json:"totalFocusTimeSeconds"`
	SessionsCompleted     int                 `json:"sessionsCompleted"`
	WaterBreaksTaken      int                 `json:"waterBreaksTaken"`
	CurrentStreak         int                 `json:"currentStreak"`
	LastStatsDate         string              `json:"lastStatsDate"`
	Runtime               domain.RuntimeState `json:"runtime"`
	ActivityByDay         map[string]int      `json:"activityByDay"`
	ActivityByMonth       map[string]int      `json:"activityByMonth"`
	ActivityByYear        map[string]int      `json:"activityByYear"`
}

// Compute builds the flat aggregate view for now's local day.
func Compute(state *domain.CanonicalState, now time.Time, loc *time.Location) Aggregates {
	today := domain.DayKeyAt(now, loc)
	agg := Aggregates{
		CurrentStreak:   Streak(state, now, loc),
		LastStatsDate:   state.LastActiveDateKey,
		Runtime:         state.Runtime,
		ActivityByDay:   map[string]int{},
		ActivityByMonth: map[string]int{},
		ActivityByYear:  map[string]int{},
	}
	if rec, ok := state.DailyRecords[today]; ok {
		agg.TotalFocusTimeSeconds = rec.TotalFocusSeconds
		agg.SessionsCompleted = rec.SessionsCount
		agg.WaterBreaksTaken = rec.WaterBreaksTaken
	}
	for key, rec := range state.DailyRecords {
		if rec.TotalFocusSeconds == 0 {
			continue
		}
		agg.ActivityByDay[key] += rec.TotalFocusSeconds
		agg.ActivityByMonth[domain.MonthKeyOf(key)] += rec.TotalFocusSeconds
		agg.ActivityByYear[domain.YearKeyOf(key)] += rec.TotalFocusSeconds
	}
	return agg
}

// Streak counts consecutive days, walking backward from now's day,
// whose focused total meets the streak threshold.
func Streak(state *domain.CanonicalState, now time.Time, loc *time.Location) int {
	threshold := StreakThresholdMinutes * 60
	streak := 0
	cursor := domain.DayStart(now, loc)
	for {
		rec, ok := state.DailyRecords[domain.DayKeyAt(cursor, loc)]
		if !ok || rec.TotalFocusSeconds < threshold {
			return streak
		}
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
}

// Daily returns the record for dayKey, synthesizing a zero record for
// days with no activity.
func Daily(state *domain.CanonicalState, dayKey string) domain.DailyRecord {
	if rec, ok := state.DailyRecords[dayKey]; ok {
		return *rec
	}
	return domain.DailyRecord{DateKey: dayKey}
}

// Range returns one record per day from startKey through endKey
// inclusive, in chronological order, with missing days zero-filled.
func Range(state *domain.CanonicalState, startKey, endKey string, loc *time.Location) ([]domain.DailyRecord, error) {
	start, err := domain.ParseDayKey(startKey, loc)
	if err != nil {
		return nil, err
	}
	end, err := domain.ParseDayKey(endKey, loc)
	if err != nil {
		return nil, err
	}

	var out []domain.DailyRecord
	for cursor := start; !cursor.After(end); cursor = cursor.AddDate(0, 0, 1) {
		out = append(out, Daily(state, domain.DayKeyAt(cursor, loc)))
	}
	return out, nil
}

// WeeklyAverage returns the rounded mean focused seconds over the
// seven-day window starting at weekStartKey.
func WeeklyAverage(state *domain.CanonicalState, weekStartKey string, loc *time.Location) (int, error) {
	endKey, err := domain.AddDays(weekStartKey, WeeklyWindowDays-1, loc)
	if err != nil {
		return 0, err
	}
	days, err := Range(state, weekStartKey, endKey, loc)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, day := range days {
		total += day.TotalFocusSeconds
	}
	return int(math.Round(float64(total) / float64(WeeklyWindowDays))), nil
}

// MonthlyTotal sums all daily records in the given month.
func MonthlyTotal(state *domain.CanonicalState, year int, month time.Month) int {
	key := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
	total := 0
	for dayKey, rec := range state.DailyRecords {
		if domain.MonthKeyOf(dayKey) == key {
			total += rec.TotalFocusSeconds
		}
	}
	return total
}

// YearlyTotal sums all daily records in the given year.
func YearlyTotal(state *domain.CanonicalState, year int) int {
	key := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).Format("2006")
	total := 0
	for dayKey, rec := range state.DailyRecords {
		if domain.YearKeyOf(dayKey) == key {
			total += rec.TotalFocusSeconds
		}
	}
	return total
}

// RollingAverage returns, for each day in totals, the rounded mean of
// the trailing window ending on that day (shorter at the head).
func RollingAverage(totals []domain.DailyRecord, window int) []int {
	if window < 1 {
		window = 1
	}
	out := make([]int, len(totals))
	for i := range totals {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		sum := 0
		for _, day := range totals[start : i+1] {
			sum += day.TotalFocusSeconds
		}
		out[i] = int(math.Round(float64(sum) / float64(i+1-start)))
	}
	return out
}
