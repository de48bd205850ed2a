package stats

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/fokus/internal/domain"
)

// maxInsights caps the dashboard insight list.
const maxInsights = 5

// Insights produces short human-readable observations over a
// chronological range of daily records.
func Insights(days []domain.DailyRecord, loc *time.Location) []string {
	if len(days) == 0 {
		return nil
	}

	byWeekday := map[time.Weekday]int{}
	best, worst := days[0], days[0]
	total, activeDays := 0, 0
	for _, day := range days {
		if at, err := domain.ParseDayKey(day.DateKey, loc); err == nil {
			byWeekday[at.Weekday()] += day.TotalFocusSeconds
		}
		if day.TotalFocusSeconds > best.TotalFocusSeconds {
			best = day
		}
		if day.TotalFocusSeconds < worst.TotalFocusSeconds {
			worst = day
		}
		if day.TotalFocusSeconds > 0 {
			activeDays++
		}
		total += day.TotalFocusSeconds
	}

	var insights []string

	var bestWeekday time.Weekday
	bestWeekdaySeconds := -1
	for wd, seconds := range byWeekday {
		if seconds > bestWeekdaySeconds || (seconds == bestWeekdaySeconds && wd < bestWeekday) {
			bestWeekday, bestWeekdaySeconds = wd, seconds
		}
	}
	if bestWeekdaySeconds > 0 {
		insights = append(insights, fmt.Sprintf("Best weekday: %s (%d min)", bestWeekday.String()[:3], bestWeekdaySeconds/60))
	}

	if len(days) >= 2*WeeklyWindowDays {
		last7 := sumSeconds(days[len(days)-WeeklyWindowDays:])
		prev7 := sumSeconds(days[len(days)-2*WeeklyWindowDays : len(days)-WeeklyWindowDays])
		if prev7 > 0 {
			trend := float64(last7-prev7) / float64(prev7) * 100
			insights = append(insights, fmt.Sprintf("Last 7 days vs previous: %+d%%", int(trend)))
		}
	}

	insights = append(insights,
		fmt.Sprintf("Most focused day: %s (%d min)", best.DateKey, best.TotalFocusSeconds/60),
		fmt.Sprintf("Lowest day: %s (%d min)", worst.DateKey, worst.TotalFocusSeconds/60),
		fmt.Sprintf("Active days in range: %d/%d", activeDays, len(days)),
	)

	if len(insights) > maxInsights {
		insights = insights[:maxInsights]
	}
	return insights
}

func sumSeconds(days []domain.DailyRecord) int {
	total := 0
	for _, day := range days {
		total += day.TotalFocusSeconds
	}
	return total
}

// SessionsCSV renders the session log as CSV for export.
func SessionsCSV(sessions []domain.SessionRecord) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.Write([]string{"id", "startTime", "endTime", "durationSeconds", "type", "completed", "createdAt"}); err != nil {
		return "", err
	}
	for _, s := range sessions {
		record := []string{
			s.ID,
			s.StartTime,
			s.EndTime,
			strconv.Itoa(s.DurationSeconds),
			s.Type,
			strconv.FormatBool(s.Completed),
			s.CreatedAt,
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	return sb.String(), w.Error()
}
