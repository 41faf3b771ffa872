// Package quickadd turns free-text input into a new record, previewing
// detected calendar fields while the user types.
package quickadd

import (
	"fmt"
	"strings"
	"time"

	"github.com/Joseda-hg/lazyplan/internal/model"
	"github.com/Joseda-hg/lazyplan/internal/nlp"
)

type Source string

const (
	SourceTask     Source = "task"
	SourceCalendar Source = "calendar"
	SourceBacklog  Source = "backlog"
)

func ParseSource(value string) (Source, error) {
	switch Source(strings.ToLower(strings.TrimSpace(value))) {
	case "", SourceTask:
		return SourceTask, nil
	case SourceCalendar:
		return SourceCalendar, nil
	case SourceBacklog:
		return SourceBacklog, nil
	}
	return "", fmt.Errorf("%w: unknown source %q", model.ErrValidation, value)
}

// MinParseLength is the trimmed title length a draft must exceed before
// the parser runs.
const MinParseLength = 3

// Draft is the state of the quick-add form as the user left it. Date is
// prefilled with the selected day for calendar sources.
type Draft struct {
	Title     string         `json:"title"`
	Category  model.Category `json:"category"`
	Type      model.Type     `json:"type"`
	Source    Source         `json:"source"`
	Date      string         `json:"date"`
	StartTime string         `json:"startTime"`
	EndTime   string         `json:"endTime"`
	Location  string         `json:"location"`
	Notes     string         `json:"notes"`
}

type Preview struct {
	Parsed             nlp.Result `json:"parsed"`
	Active             bool       `json:"active"`
	WillBecomeEvent    bool       `json:"willBecomeEvent"`
	ShowScheduleFields bool       `json:"showScheduleFields"`
	Lines              []string   `json:"lines"`
}

// DefaultCategory keeps a valid pick. Calendar entries fall back to
// uncategorized; task and backlog entries need an explicit choice.
func DefaultCategory(source Source, current model.Category) model.Category {
	if current.Valid() {
		return current
	}
	if source == SourceCalendar {
		return model.CategoryUncategorized
	}
	return ""
}

func ShowsScheduleFields(source Source) bool {
	return source == SourceCalendar
}

func PreviewFor(draft Draft, now time.Time) Preview {
	preview := Preview{ShowScheduleFields: ShowsScheduleFields(draft.Source)}
	if draft.Type == model.TypeNote || len(strings.TrimSpace(draft.Title)) <= MinParseLength {
		return preview
	}

	res := nlp.Parse(draft.Title, now)
	preview.Active = true
	preview.Parsed = res
	preview.WillBecomeEvent = res.HasDate()
	if res.Date != nil {
		preview.Lines = append(preview.Lines, "date: "+*res.Date)
		preview.Lines = append(preview.Lines, "will become a calendar event")
	}
	if res.StartTime != nil {
		preview.Lines = append(preview.Lines, fmt.Sprintf("time: %s-%s", *res.StartTime, model.Deref(res.EndTime)))
	}
	if res.Location != nil {
		preview.Lines = append(preview.Lines, "location: "+*res.Location)
	}
	return preview
}

// Overlay returns draft with detected non-title fields written over it.
// The title is never touched.
func Overlay(draft Draft, res nlp.Result) Draft {
	out := draft
	if res.Date != nil {
		out.Date = *res.Date
	}
	if res.StartTime != nil {
		out.StartTime = *res.StartTime
		out.EndTime = model.Deref(res.EndTime)
	}
	if res.Location != nil {
		out.Location = *res.Location
	}
	return out
}

// Build re-parses the final title and derives the record to create. A
// detected or entered date makes an event; otherwise the result is a plain
// task and any time is dropped.
func Build(draft Draft, now time.Time) (model.Task, error) {
	title := strings.TrimSpace(draft.Title)
	if title == "" {
		return model.Task{}, fmt.Errorf("%w: title is required", model.ErrValidation)
	}
	category := DefaultCategory(draft.Source, draft.Category)
	if category == "" {
		return model.Task{}, fmt.Errorf("%w: category is required", model.ErrValidation)
	}

	if draft.Type == model.TypeNote {
		task := model.Task{Title: title, Category: category, Type: model.TypeNote, Notes: draft.Notes}
		model.Normalize(&task, now)
		if err := model.Validate(task); err != nil {
			return model.Task{}, err
		}
		return task, nil
	}

	res := nlp.Parse(title, now)
	task := model.Task{
		Title:    res.CleanTitle,
		Category: category,
		Type:     model.TypeTask,
		Notes:    draft.Notes,
	}
	if task.Title == "" {
		task.Title = title
	}

	date := res.Date
	if date == nil && draft.Date != "" {
		date = model.Ptr(draft.Date)
	}
	start, end := res.StartTime, res.EndTime
	if start == nil {
		start, end = optional(draft.StartTime), optional(draft.EndTime)
	}
	location := res.Location
	if location == nil {
		location = optional(draft.Location)
	}

	task.Location = location
	if date != nil {
		task.Date = date
		task.StartTime = start
		task.EndTime = end
		task.IsAllDay = start == nil && end == nil
	} else {
		task.IsBacklog = draft.Source == SourceBacklog
	}

	model.Normalize(&task, now)
	if err := model.Validate(task); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
