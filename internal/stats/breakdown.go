package stats

import (
	"math"
	"time"

	"github.com/alexanderramin/fokus/internal/domain"
)

// DayBreakdown is one day of a per-day session summary: focused
// seconds, how many sessions started that day, the mean focused time
// per session and the longest single session.
type DayBreakdown struct {
	DateKey        string `json:"dateKey"`
	TotalSeconds   int    `json:"totalSeconds"`
	SessionsCount  int    `json:"sessionsCount"`
	AvgSeconds     int    `json:"avgSeconds"`
	LongestSeconds int    `json:"longestSeconds"`
}

// DailyBreakdown summarizes the session log per day from startKey
// through endKey inclusive, missing days zero-filled. Seconds of a
// midnight-spanning session land on the day they occurred; the
// session's count and longest-session credit go to its start day.
func DailyBreakdown(state *domain.CanonicalState, startKey, endKey string, loc *time.Location) ([]DayBreakdown, error) {
	start, err := domain.ParseDayKey(startKey, loc)
	if err != nil {
		return nil, err
	}
	end, err := domain.ParseDayKey(endKey, loc)
	if err != nil {
		return nil, err
	}

	index := map[string]int{}
	var out []DayBreakdown
	for cursor := start; !cursor.After(end); cursor = cursor.AddDate(0, 0, 1) {
		key := domain.DayKeyAt(cursor, loc)
		index[key] = len(out)
		out = append(out, DayBreakdown{DateKey: key})
	}

	for _, session := range state.SessionHistory {
		for _, chunk := range domain.SplitSessionByDay(session, loc) {
			if i, ok := index[chunk.DayKey]; ok {
				out[i].TotalSeconds += chunk.Seconds
			}
		}
		startAt, err := session.StartAt(loc)
		if err != nil {
			continue
		}
		i, ok := index[domain.DayKeyAt(startAt, loc)]
		if !ok {
			continue
		}
		out[i].SessionsCount++
		if session.DurationSeconds > out[i].LongestSeconds {
			out[i].LongestSeconds = session.DurationSeconds
		}
	}

	for i := range out {
		if out[i].SessionsCount > 0 {
			out[i].AvgSeconds = int(math.Round(float64(out[i].TotalSeconds) / float64(out[i].SessionsCount)))
		}
	}
	return out, nil
}
