package model

import (
	"encoding/json"
	"time"
)

// Nullable distinguishes "leave unchanged" (Set == false) from "set to
// null" (Set == true, Value == nil) in a partial update.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

func SetTo[T any](value T) Nullable[T] {
	return Nullable[T]{Set: true, Value: &value}
}

func Clear[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	n.Value = &value
	return nil
}

// Patch is a partial, full-field update. Rich text and logs are replaced
// whole, never merged.
type Patch struct {
	Title       *string             `json:"title"`
	Category    *Category           `json:"category"`
	Type        *Type               `json:"type"`
	Completed   *bool               `json:"completed"`
	CompletedAt Nullable[time.Time] `json:"completedAt"`
	Date        Nullable[string]    `json:"date"`
	StartTime   Nullable[string]    `json:"startTime"`
	EndTime     Nullable[string]    `json:"endTime"`
	IsAllDay    *bool               `json:"isAllDay"`
	Location    Nullable[string]    `json:"location"`
	Notes       *string             `json:"notes"`
	Logs        *[]LogEntry         `json:"logs"`
	IsBacklog   *bool               `json:"isBacklog"`
}

func (p Patch) Empty() bool {
	return p.Title == nil && p.Category == nil && p.Type == nil && p.Completed == nil &&
		!p.CompletedAt.Set && !p.Date.Set && !p.StartTime.Set && !p.EndTime.Set &&
		p.IsAllDay == nil && !p.Location.Set && p.Notes == nil && p.Logs == nil && p.IsBacklog == nil
}

// Apply merges p into t. A completed flag flipping false→true stamps
// completedAt with now unless the patch carries its own timestamp; the
// reverse flip clears it. The result still needs Normalize.
func Apply(t Task, p Patch, now time.Time) Task {
	out := t.Clone()
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Category != nil {
		out.Category = *p.Category
	}
	if p.Type != nil {
		out.Type = *p.Type
	}
	if p.Completed != nil {
		switch {
		case *p.Completed && !t.Completed:
			completedAt := now
			out.CompletedAt = &completedAt
		case !*p.Completed && t.Completed:
			out.CompletedAt = nil
		}
		out.Completed = *p.Completed
	}
	if p.CompletedAt.Set {
		out.CompletedAt = clonePtr(p.CompletedAt.Value)
	}
	if p.Date.Set {
		out.Date = clonePtr(p.Date.Value)
	}
	if p.StartTime.Set {
		out.StartTime = clonePtr(p.StartTime.Value)
	}
	if p.EndTime.Set {
		out.EndTime = clonePtr(p.EndTime.Value)
	}
	if p.IsAllDay != nil {
		out.IsAllDay = *p.IsAllDay
	}
	if p.Location.Set {
		out.Location = clonePtr(p.Location.Value)
	}
	if p.Notes != nil {
		out.Notes = *p.Notes
	}
	if p.Logs != nil {
		out.Logs = append([]LogEntry{}, (*p.Logs)...)
	}
	if p.IsBacklog != nil {
		out.IsBacklog = *p.IsBacklog
	}
	return out
}

// PatchFrom builds a patch that overwrites every mutable field with t's
// values. Used to restore a snapshot.
func PatchFrom(t Task) Patch {
	logs := append([]LogEntry{}, t.Logs...)
	return Patch{
		Title:       Ptr(t.Title),
		Category:    Ptr(t.Category),
		Type:        Ptr(t.Type),
		Completed:   Ptr(t.Completed),
		CompletedAt: Nullable[time.Time]{Set: true, Value: clonePtr(t.CompletedAt)},
		Date:        Nullable[string]{Set: true, Value: clonePtr(t.Date)},
		StartTime:   Nullable[string]{Set: true, Value: clonePtr(t.StartTime)},
		EndTime:     Nullable[string]{Set: true, Value: clonePtr(t.EndTime)},
		IsAllDay:    Ptr(t.IsAllDay),
		Location:    Nullable[string]{Set: true, Value: clonePtr(t.Location)},
		Notes:       Ptr(t.Notes),
		Logs:        &logs,
		IsBacklog:   Ptr(t.IsBacklog),
	}
}
