// Package planner holds the mutation policy: given a record and a user
// action it decides whether the action is legal and which fields change.
package planner

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Joseda-hg/lazyplan/internal/model"
	"github.com/Joseda-hg/lazyplan/internal/nlp"
)

var (
	ErrIllegalTransition = errors.New("illegal transition")
	ErrNotANote          = errors.New("only notes can be taskified")
)

// Slot is a fixed calendar position. Date may be empty when the record
// already has one; End defaults to Start plus one hour.
type Slot struct {
	Date  string `json:"date"`
	Start string `json:"startTime"`
	End   string `json:"endTime"`
}

func illegal(t model.Task, action string) error {
	return fmt.Errorf("%w: cannot %s a %s", ErrIllegalTransition, action, strings.ToLower(model.ModeOf(t).Label()))
}

func ScheduleAt(t model.Task, slot Slot) (model.Patch, error) {
	mode := model.ModeOf(t)
	if mode == model.ModeNote {
		return model.Patch{}, illegal(t, "schedule")
	}
	if !model.ValidTime(slot.Start) {
		return model.Patch{}, fmt.Errorf("%w: start time %q must be HH:MM", model.ErrValidation, slot.Start)
	}
	end := slot.End
	if end == "" {
		var err error
		if end, err = model.AddMinutes(slot.Start, int(model.DefaultDuration/time.Minute)); err != nil {
			return model.Patch{}, err
		}
	} else if !model.ValidTime(end) {
		return model.Patch{}, fmt.Errorf("%w: end time %q must be HH:MM", model.ErrValidation, end)
	}

	patch := model.Patch{
		StartTime: model.SetTo(slot.Start),
		EndTime:   model.SetTo(end),
		IsAllDay:  model.Ptr(false),
	}

	switch {
	case mode.IsUndated():
		if slot.Date == "" {
			return model.Patch{}, fmt.Errorf("%w: a date is required to schedule a task", model.ErrValidation)
		}
	case mode.IsEvent():
		// Concrete slot: relative words in the title are now stale.
		patch.Title = model.Ptr(rewriteTitle(t.Title))
	}
	if slot.Date != "" {
		if !model.ValidDate(slot.Date) {
			return model.Patch{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", model.ErrValidation, slot.Date)
		}
		patch.Date = model.SetTo(slot.Date)
	}
	return patch, nil
}

func MakeFlexible(t model.Task, date string) (model.Patch, error) {
	mode := model.ModeOf(t)
	if mode == model.ModeNote {
		return model.Patch{}, illegal(t, "schedule")
	}
	if mode.IsUndated() && date == "" {
		return model.Patch{}, fmt.Errorf("%w: a date is required to schedule a task", model.ErrValidation)
	}

	patch := model.Patch{
		StartTime: model.Clear[string](),
		EndTime:   model.Clear[string](),
		IsAllDay:  model.Ptr(true),
	}
	if date != "" {
		if !model.ValidDate(date) {
			return model.Patch{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", model.ErrValidation, date)
		}
		patch.Date = model.SetTo(date)
	}
	return patch, nil
}

// ToTask turns an event back into an undated task. An empty category keeps
// the current one.
func ToTask(t model.Task, category model.Category) (model.Patch, error) {
	if !model.ModeOf(t).IsEvent() {
		return model.Patch{}, illegal(t, "unschedule")
	}
	if category == "" {
		category = t.Category
	}
	if !category.Valid() {
		return model.Patch{}, fmt.Errorf("%w: unknown category %q", model.ErrValidation, category)
	}
	return model.Patch{
		Category:  model.Ptr(category),
		Date:      model.Clear[string](),
		StartTime: model.Clear[string](),
		EndTime:   model.Clear[string](),
		Location:  model.Clear[string](),
		IsAllDay:  model.Ptr(false),
	}, nil
}

func Taskify(t model.Task) (model.Patch, error) {
	if t.Type != model.TypeNote {
		return model.Patch{}, ErrNotANote
	}
	return model.Patch{Type: model.Ptr(model.TypeTask)}, nil
}

func MoveToBacklog(t model.Task) (model.Patch, error) {
	if !model.ModeOf(t).IsUndated() {
		return model.Patch{}, illegal(t, "move to backlog")
	}
	return model.Patch{IsBacklog: model.Ptr(true)}, nil
}

func MoveToCurrent(t model.Task) (model.Patch, error) {
	if !model.ModeOf(t).IsUndated() {
		return model.Patch{}, illegal(t, "move to current")
	}
	return model.Patch{IsBacklog: model.Ptr(false)}, nil
}

// SetCompleted stamps completedAt on false→true and clears it on
// true→false. Repeating the current state changes nothing.
func SetCompleted(t model.Task, completed bool, now time.Time) model.Patch {
	patch := model.Patch{Completed: model.Ptr(completed)}
	switch {
	case completed && !t.Completed:
		patch.CompletedAt = model.SetTo(now)
	case !completed && t.Completed:
		patch.CompletedAt = model.Clear[time.Time]()
	}
	return patch
}

func AddLog(t model.Task, content string, now time.Time) (model.Patch, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return model.Patch{}, fmt.Errorf("%w: log content is required", model.ErrValidation)
	}
	logs := append(append([]model.LogEntry{}, t.Logs...), model.LogEntry{
		Timestamp: now.UTC().Format(time.RFC3339),
		Content:   content,
	})
	return model.Patch{Logs: &logs}, nil
}

func rewriteTitle(title string) string {
	rewritten := nlp.StripTemporalQualifiers(title)
	if rewritten == "" {
		return title
	}
	return rewritten
}
