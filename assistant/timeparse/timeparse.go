// Package timeparse resolves the small natural-language date and time
// vocabulary the classifier extracts: relative days, weekday names,
// ISO dates, clock times, and named times of day.
package timeparse

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var ErrUnrecognized = errors.New("unrecognized date or time")

// Default clock time for events scheduled with a date but no time.
const (
	DefaultEventHour   = 15
	DefaultEventMinute = 0
)

var (
	clockPattern     = regexp.MustCompile(`^(\d{1,2}):(\d{2})\s*(am|pm)?$`)
	hourOnlyPattern  = regexp.MustCompile(`^(\d{1,2})\s*(am|pm)$`)
	relativeDateDays = map[string]int{
		"today":     0,
		"tomorrow":  1,
		"yesterday": -1,
		"next week": 7,
		"last week": -7,
	}
	weekdays = map[string]time.Weekday{
		"monday":    time.Monday,
		"tuesday":   time.Tuesday,
		"wednesday": time.Wednesday,
		"thursday":  time.Thursday,
		"friday":    time.Friday,
		"saturday":  time.Saturday,
		"sunday":    time.Sunday,
	}
	namedTimes = map[string][2]int{
		"morning":   {9, 0},
		"afternoon": {14, 0},
		"evening":   {18, 0},
		"night":     {20, 0},
		"noon":      {12, 0},
		"midnight":  {0, 0},
	}
)

// Date resolves raw into a calendar day (midnight) in now's location.
// Weekday names resolve to the next occurrence, never today.
func Date(raw string, now time.Time) (time.Time, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return time.Time{}, ErrUnrecognized
	}

	if days, ok := relativeDateDays[s]; ok {
		return midnight(now).AddDate(0, 0, days), nil
	}

	if target, ok := weekdays[s]; ok {
		ahead := (int(target) - int(now.Weekday()) + 7) % 7
		if ahead == 0 {
			ahead = 7
		}
		return midnight(now).AddDate(0, 0, ahead), nil
	}

	if parsed, err := time.ParseInLocation("2006-01-02", s, now.Location()); err == nil {
		return parsed, nil
	}

	return time.Time{}, ErrUnrecognized
}

// TimeOfDay resolves raw into an hour/minute pair. Accepts HH:MM with an
// optional am/pm suffix, a bare hour with am/pm, and named times
// (morning, afternoon, evening, night, noon, midnight).
func TimeOfDay(raw string) (hour, minute int, err error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return 0, 0, ErrUnrecognized
	}

	if hm, ok := namedTimes[s]; ok {
		return hm[0], hm[1], nil
	}

	if m := clockPattern.FindStringSubmatch(s); m != nil {
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
		hour, err = applyMeridiem(hour, m[3])
		if err != nil || minute > 59 {
			return 0, 0, ErrUnrecognized
		}
		return hour, minute, nil
	}

	if m := hourOnlyPattern.FindStringSubmatch(s); m != nil {
		hour, _ = strconv.Atoi(m[1])
		hour, err = applyMeridiem(hour, m[2])
		if err != nil {
			return 0, 0, ErrUnrecognized
		}
		return hour, 0, nil
	}

	return 0, 0, ErrUnrecognized
}

// At pins a clock time onto a calendar day.
func At(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

func applyMeridiem(hour int, meridiem string) (int, error) {
	switch meridiem {
	case "pm":
		if hour < 1 || hour > 12 {
			return 0, ErrUnrecognized
		}
		if hour != 12 {
			hour += 12
		}
	case "am":
		if hour < 1 || hour > 12 {
			return 0, ErrUnrecognized
		}
		if hour == 12 {
			hour = 0
		}
	default:
		if hour > 23 {
			return 0, ErrUnrecognized
		}
	}
	return hour, nil
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
