package model

import "time"

type Type string

const (
	TypeTask Type = "task"
	TypeNote Type = "note"
)

func (t Type) Valid() bool {
	return t == TypeTask || t == TypeNote
}

type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Category    Category   `json:"category"`
	Type        Type       `json:"type"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt"`
	Date        *string    `json:"date"`
	StartTime   *string    `json:"startTime"`
	EndTime     *string    `json:"endTime"`
	IsAllDay    bool       `json:"isAllDay"`
	Location    *string    `json:"location"`
	Notes       string     `json:"notes"`
	Logs        []LogEntry `json:"logs"`
	IsBacklog   bool       `json:"isBacklog"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Content   string `json:"content"`
}

type HistoryEntry struct {
	ID        int64     `json:"id"`
	TaskID    string    `json:"taskId"`
	EventType string    `json:"eventType"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"createdAt"`
}

// Filter narrows a listing. Zero values match everything.
type Filter struct {
	Category Category `json:"category,omitempty"`
	Date     string   `json:"date,omitempty"`
	HasDate  *bool    `json:"hasDate,omitempty"`
}

// Clone returns a copy that shares no pointers or slices with t.
func (t Task) Clone() Task {
	out := t
	out.CompletedAt = clonePtr(t.CompletedAt)
	out.Date = clonePtr(t.Date)
	out.StartTime = clonePtr(t.StartTime)
	out.EndTime = clonePtr(t.EndTime)
	out.Location = clonePtr(t.Location)
	if t.Logs != nil {
		out.Logs = append([]LogEntry(nil), t.Logs...)
	}
	return out
}

func (t Task) HasDate() bool {
	return t.Date != nil
}

func clonePtr[T any](value *T) *T {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

func Ptr[T any](value T) *T {
	return &value
}

func Deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
