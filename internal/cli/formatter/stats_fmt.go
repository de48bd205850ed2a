package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/fokus/internal/domain"
	"github.com/alexanderramin/fokus/internal/stats"
)

// FormatAggregates renders the dashboard view for one day.
func FormatAggregates(agg stats.Aggregates, insights []string) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s  %s\n", StyleBold.Render("Focus today:"), StyleGreen.Render(FormatSeconds(agg.TotalFocusTimeSeconds))))
	b.WriteString(fmt.Sprintf("%s  %d\n", StyleBold.Render("Sessions:   "), agg.SessionsCompleted))
	b.WriteString(fmt.Sprintf("%s  %d\n", StyleBold.Render("Water breaks:"), agg.WaterBreaksTaken))

	streak := fmt.Sprintf("%d day(s)", agg.CurrentStreak)
	if agg.CurrentStreak >= 3 {
		streak = StyleYellow.Render(streak + " 🔥")
	}
	b.WriteString(fmt.Sprintf("%s  %s\n", StyleBold.Render("Streak:     "), streak))

	if len(insights) > 0 {
		b.WriteString("\n")
		for _, line := range insights {
			b.WriteString(fmt.Sprintf("  %s %s\n", StyleBlue.Render("•"), line))
		}
	}

	return RenderBox(agg.LastStatsDate, strings.TrimRight(b.String(), "\n"))
}

// FormatDays renders a chronological range as labeled activity bars.
func FormatDays(days []domain.DailyRecord) string {
	if len(days) == 0 {
		return Dim("No activity recorded.")
	}
	max := 0
	for _, day := range days {
		if day.TotalFocusSeconds > max {
			max = day.TotalFocusSeconds
		}
	}

	var b strings.Builder
	for _, day := range days {
		b.WriteString(fmt.Sprintf("%s  %s  %s\n",
			StyleFg.Render(day.DateKey),
			RenderBar(day.TotalFocusSeconds, max, 24),
			Dim(FormatSeconds(day.TotalFocusSeconds)),
		))
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatBreakdown renders per-day session statistics as an aligned
// table.
func FormatBreakdown(days []stats.DayBreakdown) string {
	if len(days) == 0 {
		return Dim("No activity recorded.")
	}

	var b strings.Builder
	b.WriteString(StyleHeader.Render(fmt.Sprintf("%-10s  %8s  %8s  %8s  %8s", "DAY", "FOCUS", "SESSIONS", "AVG", "LONGEST")))
	b.WriteString("\n")
	for _, day := range days {
		b.WriteString(fmt.Sprintf("%-10s  %8s  %8d  %8s  %8s\n",
			day.DateKey,
			FormatSeconds(day.TotalSeconds),
			day.SessionsCount,
			FormatSeconds(day.AvgSeconds),
			FormatSeconds(day.LongestSeconds),
		))
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatRollingAverages renders the trailing-window mean next to each
// day of a range. Averages must be index-aligned with days.
func FormatRollingAverages(days []domain.DailyRecord, averages []int, window int) string {
	var b strings.Builder
	b.WriteString(StyleHeader.Render(fmt.Sprintf("Trailing %d-day average", window)))
	b.WriteString("\n")
	for i, day := range days {
		avg := 0
		if i < len(averages) {
			avg = averages[i]
		}
		b.WriteString(fmt.Sprintf("%s  %s\n", StyleFg.Render(day.DateKey), Dim(FormatSeconds(avg))))
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatSessions renders the session log as an aligned table.
func FormatSessions(sessions []domain.SessionRecord) string {
	if len(sessions) == 0 {
		return Dim("No sessions recorded yet.")
	}

	var b strings.Builder
	b.WriteString(StyleHeader.Render(fmt.Sprintf("%-22s  %-22s  %9s  %-9s", "START", "END", "DURATION", "STATUS")))
	b.WriteString("\n")
	for _, s := range sessions {
		status := StyleGreen.Render("completed")
		if !s.Completed {
			status = StyleYellow.Render("partial")
		}
		b.WriteString(fmt.Sprintf("%-22s  %-22s  %9s  %s\n",
			s.StartTime, s.EndTime, FormatSeconds(s.DurationSeconds), status))
	}
	return strings.TrimRight(b.String(), "\n")
}
