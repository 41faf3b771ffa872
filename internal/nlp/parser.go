// Package nlp extracts calendar fields from free-text titles.
package nlp

import (
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/Joseda-hg/lazyplan/internal/model"
)

type Result struct {
	CleanTitle string  `json:"cleanTitle"`
	Date       *string `json:"detectedDate,omitempty"`
	StartTime  *string `json:"detectedTime,omitempty"`
	EndTime    *string `json:"detectedEndTime,omitempty"`
	Location   *string `json:"detectedLocation,omitempty"`
}

func (r Result) HasDate() bool {
	return r.Date != nil
}

func (r Result) HasTime() bool {
	return r.StartTime != nil
}

func (r Result) Empty() bool {
	return r.Date == nil && r.StartTime == nil && r.Location == nil
}

var (
	spaceRun         = regexp.MustCompile(`\s+`)
	spaceBeforePunct = regexp.MustCompile(`\s+([.,!?])`)
	leadingPunct     = regexp.MustCompile(`^[,;:\-]+\s*`)
)

// Parse resolves relative dates against now's calendar day. Detection runs
// date, then time, then location. The returned clean title is a fixpoint:
// parsing it again strips nothing further.
func Parse(title string, now time.Time) Result {
	if strings.TrimSpace(title) == "" {
		return Result{}
	}

	res := pass(title, now)
	for i := 0; i <= len(title); i++ {
		next := pass(res.CleanTitle, now).CleanTitle
		if next == res.CleanTitle {
			break
		}
		res.CleanTitle = next
	}
	return res
}

func pass(title string, now time.Time) Result {
	var res Result
	text := title
	text, res.Date = detectDate(text, now)
	text, res.StartTime, res.EndTime = detectTime(text)
	text, res.Location = detectLocation(text, res.StartTime != nil)
	res.CleanTitle = cleanup(text)
	return res
}

func detectDate(text string, now time.Time) (string, *string) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for _, rule := range dateRules {
		match := rule.pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		date := model.FormatDate(rule.resolve(match, today))
		return rule.pattern.ReplaceAllString(text, " "), &date
	}
	return text, nil
}

func detectTime(text string) (string, *string, *string) {
	for _, rule := range timeRules {
		loc := rule.pattern.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		hour, minute, ok := rule.extract(submatches(text, loc))
		if !ok {
			continue
		}
		start := model.FormatClock(hour, minute)
		end, err := model.AddMinutes(start, 60)
		if err != nil {
			continue
		}
		return text[:loc[0]] + " " + text[loc[1]:], &start, &end
	}
	return text, nil, nil
}

func detectLocation(text string, timeFound bool) (string, *string) {
	rule := strictLocation
	if timeFound {
		rule = looseLocation
	}
	loc := rule.pattern.FindStringSubmatchIndex(text)
	if loc == nil {
		return text, nil
	}
	place := strings.TrimSpace(text[loc[2]:loc[3]])
	if !acceptLocation(place) {
		return text, nil
	}
	return text[:loc[0]] + " " + text[loc[3]:], &place
}

// StripTemporalQualifiers removes relative-time words from an event title
// once the event has a concrete slot.
func StripTemporalQualifiers(title string) string {
	text := title
	for _, pattern := range qualifierPatterns {
		text = pattern.ReplaceAllString(text, " ")
	}
	return cleanup(text)
}

var qualifierPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\btomorrow\b`),
	regexp.MustCompile(`(?i)\btoday\b`),
	regexp.MustCompile(`(?i)\bsometime\s+today\b`),
	regexp.MustCompile(`(?i)\bsometime\b`),
	regexp.MustCompile(`(?i)\bnext\s+week\b`),
	regexp.MustCompile(`(?i)\bthis\s+week\b`),
}

func cleanup(text string) string {
	text = spaceRun.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	text = leadingPunct.ReplaceAllString(text, "")
	text = spaceBeforePunct.ReplaceAllString(text, "$1")
	return capitalize(text)
}

func capitalize(text string) string {
	first, size := utf8.DecodeRuneInString(text)
	if first == utf8.RuneError {
		return text
	}
	return string(unicode.ToUpper(first)) + text[size:]
}

func submatches(text string, loc []int) []string {
	out := make([]string, len(loc)/2)
	for i := range out {
		if loc[2*i] >= 0 {
			out[i] = text[loc[2*i]:loc[2*i+1]]
		}
	}
	return out
}
