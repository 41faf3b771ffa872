package nlp

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const weekdayAlternation = "sunday|monday|tuesday|wednesday|thursday|friday|saturday"

var weekdayIndex = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

type dateRule struct {
	name    string
	pattern *regexp.Regexp
	resolve func(match []string, today time.Time) time.Time
}

type timeRule struct {
	name    string
	pattern *regexp.Regexp
	extract func(match []string) (hour, minute int, ok bool)
}

type locationRule struct {
	name    string
	pattern *regexp.Regexp
}

// Rules are tried top to bottom; the first match in each list wins.
var dateRules = []dateRule{
	{
		name:    "today",
		pattern: regexp.MustCompile(`(?i)\btoday\b`),
		resolve: func(_ []string, today time.Time) time.Time { return today },
	},
	{
		name:    "tomorrow",
		pattern: regexp.MustCompile(`(?i)\btomorrow\b`),
		resolve: func(_ []string, today time.Time) time.Time { return today.AddDate(0, 0, 1) },
	},
	{
		name:    "next week",
		pattern: regexp.MustCompile(`(?i)\bnext\s+week\b`),
		resolve: func(_ []string, today time.Time) time.Time { return today.AddDate(0, 0, 7) },
	},
	{
		name:    "weekday",
		pattern: regexp.MustCompile(`(?i)\b(?:(this|next)\s+)?(` + weekdayAlternation + `)\b`),
		resolve: resolveWeekday,
	},
}

var timeRules = []timeRule{
	{
		name:    "at H[:MM] am|pm",
		pattern: regexp.MustCompile(`(?i)\bat\s+(\d{1,2}):?(\d{2})?\s*(am|pm)\b`),
		extract: func(match []string) (int, int, bool) {
			return meridiemClock(match[1], match[2], match[3])
		},
	},
	{
		name:    "at H am|pm",
		pattern: regexp.MustCompile(`(?i)\bat\s+(\d{1,2})\s*(am|pm)\b`),
		extract: func(match []string) (int, int, bool) {
			return meridiemClock(match[1], "", match[2])
		},
	},
	{
		name:    "at H:MM",
		pattern: regexp.MustCompile(`(?i)\bat\s+(\d{1,2}):(\d{2})\b`),
		extract: bareClock,
	},
}

const locationStop = `today|tomorrow|tonight|next\s+week|this\s+week|` + weekdayAlternation

var (
	strictLocation = locationRule{
		name:    "at <place>",
		pattern: regexp.MustCompile(`(?i)\bat\s+([^0-9\s][^,\n]*?)(?:\s+(?:(?:` + locationStop + `)\b|at\s+\d)|\s*$)`),
	}
	looseLocation = locationRule{
		name:    "at <place> after time",
		pattern: regexp.MustCompile(`(?i)\bat\s+([^0-9][^,\n]*?)(?:\s+(?:` + locationStop + `)\b|\s*$)`),
	}
)

var (
	bareTimePattern  = regexp.MustCompile(`(?i)^\d{1,2}:?\d{0,2}\s*(?:am|pm)?$`)
	timeTokenPattern = regexp.MustCompile(`(?i)\b\d{1,2}(?::\d{2})?\s*(?:am|pm)\b|\b\d{1,2}:\d{2}\b`)
)

// "next <day>" always lands 7 to 13 days out. A bare or "this" weekday is
// the nearest occurrence, today included.
func resolveWeekday(match []string, today time.Time) time.Time {
	target := weekdayIndex[strings.ToLower(match[2])]
	delta := (int(target) - int(today.Weekday()) + 7) % 7
	if strings.EqualFold(match[1], "next") {
		delta += 7
	}
	return today.AddDate(0, 0, delta)
}

func meridiemClock(hourText, minuteText, meridiem string) (int, int, bool) {
	hour, err := strconv.Atoi(hourText)
	if err != nil || hour < 1 || hour > 12 {
		return 0, 0, false
	}
	minute := 0
	if minuteText != "" {
		minute, err = strconv.Atoi(minuteText)
		if err != nil || minute > 59 {
			return 0, 0, false
		}
	}
	hour %= 12
	if strings.EqualFold(meridiem, "pm") {
		hour += 12
	}
	return hour, minute, true
}

// A bare H:MM with hour 1 through 7 is an afternoon time; everything else
// is taken as 24-hour.
func bareClock(match []string) (int, int, bool) {
	hour, err := strconv.Atoi(match[1])
	if err != nil || hour > 23 {
		return 0, 0, false
	}
	minute, err := strconv.Atoi(match[2])
	if err != nil || minute > 59 {
		return 0, 0, false
	}
	if hour >= 1 && hour <= 7 {
		hour += 12
	}
	return hour, minute, true
}

func acceptLocation(capture string) bool {
	if capture == "" {
		return false
	}
	if bareTimePattern.MatchString(capture) {
		return false
	}
	return !timeTokenPattern.MatchString(capture)
}
