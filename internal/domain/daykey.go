package domain

import (
	"fmt"
	"time"
)

const (
	dayKeyLayout   = "2006-01-02"
	monthKeyLayout = "2006-01"
	yearKeyLayout  = "2006"
)

// DayKeyAt returns the local calendar date key (YYYY-MM-DD) for t in loc.
func DayKeyAt(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dayKeyLayout)
}

// MonthKeyAt returns the YYYY-MM bucket key for t in loc.
func MonthKeyAt(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(monthKeyLayout)
}

// YearKeyAt returns the YYYY bucket key for t in loc.
func YearKeyAt(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(yearKeyLayout)
}

// ParseDayKey parses a YYYY-MM-DD key as midnight in loc.
func ParseDayKey(key string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dayKeyLayout, key, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing day key %q: %w", key, err)
	}
	return t, nil
}

// IsDayKey reports whether key is a well-formed YYYY-MM-DD date.
func IsDayKey(key string) bool {
	_, err := time.ParseInLocation(dayKeyLayout, key, time.UTC)
	return err == nil
}

// AddDays shifts a day key by n calendar days in loc.
func AddDays(key string, n int, loc *time.Location) (string, error) {
	t, err := ParseDayKey(key, loc)
	if err != nil {
		return "", err
	}
	return DayKeyAt(t.AddDate(0, 0, n), loc), nil
}

// DayStart truncates t to midnight of its local calendar day.
func DayStart(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}

// NextDayStart returns midnight of the calendar day after t. Using
// time.Date keeps this correct across DST transitions, where a day is
// not always 24 hours.
func NextDayStart(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day()+1, 0, 0, 0, 0, loc)
}

// MonthKeyOf derives the YYYY-MM bucket from a day key without parsing.
func MonthKeyOf(dayKey string) string {
	if len(dayKey) < len(monthKeyLayout) {
		return dayKey
	}
	return dayKey[:len(monthKeyLayout)]
}

// YearKeyOf derives the YYYY bucket from a day key.
func YearKeyOf(dayKey string) string {
	if len(dayKey) < len(yearKeyLayout) {
		return dayKey
	}
	return dayKey[:len(yearKeyLayout)]
}
