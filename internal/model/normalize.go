package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("task not found")
)

// DefaultDuration is applied whenever only one end of a time range is known.
const DefaultDuration = time.Hour

// Normalize folds t into a state that satisfies the record invariants.
// Inconsistent time ranges are repaired rather than rejected.
func Normalize(t *Task, now time.Time) {
	t.Title = strings.TrimSpace(t.Title)
	if t.Type == "" {
		t.Type = TypeTask
	}
	t.Date = trimmedOrNil(t.Date)
	t.StartTime = trimmedOrNil(t.StartTime)
	t.EndTime = trimmedOrNil(t.EndTime)
	t.Location = trimmedOrNil(t.Location)

	if t.Date == nil {
		t.StartTime = nil
		t.EndTime = nil
		t.IsAllDay = false
	} else {
		switch {
		case t.StartTime != nil && t.EndTime == nil:
			if end, err := AddMinutes(*t.StartTime, int(DefaultDuration/time.Minute)); err == nil {
				t.EndTime = &end
			}
		case t.StartTime == nil && t.EndTime != nil:
			if start, err := AddMinutes(*t.EndTime, -int(DefaultDuration/time.Minute)); err == nil {
				t.StartTime = &start
			}
		}
		t.IsAllDay = t.StartTime == nil && t.EndTime == nil
		// Only undated tasks live in the backlog.
		t.IsBacklog = false
	}

	if t.Completed && t.CompletedAt == nil {
		completedAt := now
		t.CompletedAt = &completedAt
	}
	if !t.Completed {
		t.CompletedAt = nil
	}
	if t.Logs == nil {
		t.Logs = []LogEntry{}
	}
}

func Validate(t Task) error {
	if t.Title == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if t.Category == "" {
		return fmt.Errorf("%w: category is required", ErrValidation)
	}
	if !t.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrValidation, t.Category)
	}
	if !t.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrValidation, t.Type)
	}
	if t.Date != nil && !ValidDate(*t.Date) {
		return fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrValidation, *t.Date)
	}
	if t.StartTime != nil && !ValidTime(*t.StartTime) {
		return fmt.Errorf("%w: start time %q must be HH:MM", ErrValidation, *t.StartTime)
	}
	if t.EndTime != nil && !ValidTime(*t.EndTime) {
		return fmt.Errorf("%w: end time %q must be HH:MM", ErrValidation, *t.EndTime)
	}
	for _, entry := range t.Logs {
		if strings.TrimSpace(entry.Content) == "" {
			return fmt.Errorf("%w: log content is required", ErrValidation)
		}
	}
	return nil
}

func ValidDate(value string) bool {
	_, err := time.Parse(DateLayout, value)
	return err == nil
}

func ValidTime(value string) bool {
	_, err := time.Parse(TimeLayout, value)
	return err == nil && len(value) == len(TimeLayout)
}

// AddMinutes shifts an HH:MM clock value, wrapping within the day.
func AddMinutes(clock string, minutes int) (string, error) {
	parsed, err := time.Parse(TimeLayout, clock)
	if err != nil {
		return "", fmt.Errorf("%w: time %q must be HH:MM", ErrValidation, clock)
	}
	total := parsed.Hour()*60 + parsed.Minute() + minutes
	total = ((total % (24 * 60)) + 24*60) % (24 * 60)
	return FormatClock(total/60, total%60), nil
}

func FormatClock(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

func FormatDate(value time.Time) string {
	return value.Format(DateLayout)
}

// ShiftDate moves a YYYY-MM-DD value by days, keeping loc's calendar.
func ShiftDate(date string, days int, loc *time.Location) (string, error) {
	if loc == nil {
		loc = time.Local
	}
	parsed, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return "", fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrValidation, date)
	}
	return FormatDate(parsed.AddDate(0, 0, days)), nil
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
