package model

import (
	"errors"
	"testing"
	"time"
)

var testNow = time.Date(2024, time.March, 6, 9, 15, 0, 0, time.UTC)

func TestModeOfCoversEveryCombination(t *testing.T) {
	dates := []*string{nil, Ptr("2024-03-06")}
	times := []*string{nil, Ptr("10:00")}
	types := []Type{TypeTask, TypeNote}
	bools := []bool{false, true}

	for _, typ := range types {
		for _, date := range dates {
			for _, start := range times {
				for _, allDay := range bools {
					for _, backlog := range bools {
						task := Task{Type: typ, Date: date, StartTime: start, IsAllDay: allDay, IsBacklog: backlog}
						mode := ModeOf(task)
						switch {
						case typ == TypeNote:
							if mode != ModeNote {
								t.Fatalf("expected note mode for %+v, got %q", task, mode)
							}
						case date == nil && backlog:
							if mode != ModeBacklog {
								t.Fatalf("expected backlog mode for %+v, got %q", task, mode)
							}
						case date == nil:
							if mode != ModeCurrent {
								t.Fatalf("expected current mode for %+v, got %q", task, mode)
							}
						case allDay:
							if mode != ModeFlexible {
								t.Fatalf("expected flexible mode for %+v, got %q", task, mode)
							}
						default:
							if mode != ModeScheduled {
								t.Fatalf("expected scheduled mode for %+v, got %q", task, mode)
							}
						}
					}
				}
			}
		}
	}
}

func TestNormalizeClearsTimesWithoutDate(t *testing.T) {
	task := Task{Title: " Call ", Category: CategoryFamily, StartTime: Ptr("10:00"), EndTime: Ptr("11:00"), IsAllDay: true}
	Normalize(&task, testNow)

	if task.Title != "Call" {
		t.Fatalf("expected trimmed title, got %q", task.Title)
	}
	if task.StartTime != nil || task.EndTime != nil || task.IsAllDay {
		t.Fatalf("expected undated task to lose times, got %+v", task)
	}
	if task.Type != TypeTask {
		t.Fatalf("expected default type task, got %q", task.Type)
	}
}

func TestNormalizeDropsBacklogFlagOnDatedRecords(t *testing.T) {
	task := Task{Title: "Dentist", Category: CategoryFortress, Date: Ptr("2024-03-06"), StartTime: Ptr("10:00"), IsBacklog: true}
	Normalize(&task, testNow)
	if task.IsBacklog {
		t.Fatalf("expected dated record to leave the backlog, got %+v", task)
	}

	undated := Task{Title: "Learn piano", Category: CategoryFulfillment, IsBacklog: true}
	Normalize(&undated, testNow)
	if !undated.IsBacklog {
		t.Fatalf("expected undated backlog task to keep its flag")
	}
}

func TestNormalizeDerivesMissingEnd(t *testing.T) {
	t.Run("start only", func(t *testing.T) {
		task := Task{Date: Ptr("2024-03-06"), StartTime: Ptr("23:30")}
		Normalize(&task, testNow)
		if Deref(task.EndTime) != "00:30" {
			t.Fatalf("expected end 00:30, got %q", Deref(task.EndTime))
		}
		if task.IsAllDay {
			t.Fatalf("expected timed event not to be all day")
		}
	})

	t.Run("end only", func(t *testing.T) {
		task := Task{Date: Ptr("2024-03-06"), EndTime: Ptr("00:15")}
		Normalize(&task, testNow)
		if Deref(task.StartTime) != "23:15" {
			t.Fatalf("expected start 23:15, got %q", Deref(task.StartTime))
		}
	})

	t.Run("date only", func(t *testing.T) {
		task := Task{Date: Ptr("2024-03-06")}
		Normalize(&task, testNow)
		if !task.IsAllDay {
			t.Fatalf("expected dated task without times to be all day")
		}
	})
}

func TestNormalizeKeepsCompletionConsistent(t *testing.T) {
	task := Task{Completed: true}
	Normalize(&task, testNow)
	if task.CompletedAt == nil || !task.CompletedAt.Equal(testNow) {
		t.Fatalf("expected completedAt to be stamped, got %v", task.CompletedAt)
	}

	stale := testNow.Add(-time.Hour)
	task = Task{Completed: false, CompletedAt: &stale}
	Normalize(&task, testNow)
	if task.CompletedAt != nil {
		t.Fatalf("expected completedAt to be cleared")
	}
}

func TestValidate(t *testing.T) {
	valid := Task{Title: "Run", Category: CategoryFitness, Type: TypeTask}
	if err := Validate(valid); err != nil {
		t.Fatalf("expected valid task, got %v", err)
	}

	cases := map[string]Task{
		"missing title":    {Category: CategoryFitness, Type: TypeTask},
		"missing category": {Title: "Run", Type: TypeTask},
		"bad category":     {Title: "Run", Category: "chores", Type: TypeTask},
		"bad type":         {Title: "Run", Category: CategoryFitness, Type: "event"},
		"bad date":         {Title: "Run", Category: CategoryFitness, Type: TypeTask, Date: Ptr("06/03/2024")},
		"bad time":         {Title: "Run", Category: CategoryFitness, Type: TypeTask, Date: Ptr("2024-03-06"), StartTime: Ptr("9:00")},
		"empty log":        {Title: "Run", Category: CategoryFitness, Type: TypeTask, Logs: []LogEntry{{Content: " "}}},
	}
	for name, task := range cases {
		t.Run(name, func(t *testing.T) {
			if err := Validate(task); !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestApplyCompletionRoundTrip(t *testing.T) {
	task := Task{Title: "Pay rent", Category: CategoryFinance, Type: TypeTask}

	done := Apply(task, Patch{Completed: Ptr(true)}, testNow)
	if !done.Completed || done.CompletedAt == nil || !done.CompletedAt.Equal(testNow) {
		t.Fatalf("expected completion to stamp completedAt, got %+v", done)
	}

	again := Apply(done, Patch{Completed: Ptr(true)}, testNow.Add(time.Hour))
	if !again.CompletedAt.Equal(testNow) {
		t.Fatalf("expected repeated completion to keep original timestamp")
	}

	undone := Apply(done, Patch{Completed: Ptr(false)}, testNow)
	if undone.Completed || undone.CompletedAt != nil {
		t.Fatalf("expected completion round trip to clear completedAt, got %+v", undone)
	}
}

func TestApplyClearsNullableFields(t *testing.T) {
	task := Task{Date: Ptr("2024-03-06"), Location: Ptr("Gym")}
	out := Apply(task, Patch{Date: Clear[string](), Location: Clear[string]()}, testNow)
	if out.Date != nil || out.Location != nil {
		t.Fatalf("expected cleared fields, got %+v", out)
	}
	if task.Date == nil {
		t.Fatalf("expected original task to be untouched")
	}
}

func TestPatchFromRestoresSnapshot(t *testing.T) {
	completedAt := testNow.Add(-24 * time.Hour)
	snapshot := Task{
		Title:       "Team sync",
		Category:    CategoryFulfillment,
		Type:        TypeTask,
		Completed:   true,
		CompletedAt: &completedAt,
		Date:        Ptr("2024-03-07"),
		StartTime:   Ptr("10:00"),
		EndTime:     Ptr("11:00"),
		Logs:        []LogEntry{{Timestamp: "2024-03-05T10:00:00Z", Content: "prep"}},
	}
	changed := Task{Title: "Other", Category: CategoryFrivolous, Type: TypeTask}

	restored := Apply(changed, PatchFrom(snapshot), testNow)
	if restored.Title != "Team sync" || restored.Category != CategoryFulfillment {
		t.Fatalf("expected snapshot values, got %+v", restored)
	}
	if restored.CompletedAt == nil || !restored.CompletedAt.Equal(completedAt) {
		t.Fatalf("expected original completedAt, got %v", restored.CompletedAt)
	}
	if Deref(restored.StartTime) != "10:00" || len(restored.Logs) != 1 {
		t.Fatalf("expected times and logs restored, got %+v", restored)
	}
}

func TestGroupByCategoryOrdersLifeAreas(t *testing.T) {
	tasks := []Task{
		{Title: "b", Category: CategoryFrivolous},
		{Title: "a", Category: CategoryFaith},
		{Title: "c", Category: CategoryFrivolous},
	}
	groups := GroupByCategory(tasks)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Category != CategoryFaith || groups[1].Category != CategoryFrivolous {
		t.Fatalf("unexpected group order: %+v", groups)
	}
	if groups[1].Tasks[0].Title != "b" || groups[1].Tasks[1].Title != "c" {
		t.Fatalf("expected input order kept inside group")
	}
}

func TestSlotLabel(t *testing.T) {
	cases := map[string]string{
		"06:00": "6 AM",
		"12:00": "12 PM",
		"15:00": "3 PM",
		"00:00": "12 AM",
		"15:30": "3:30 PM",
	}
	for input, expected := range cases {
		if got := SlotLabel(input); got != expected {
			t.Fatalf("SlotLabel(%q) = %q, expected %q", input, got, expected)
		}
	}
	if slots := TimeSlots(); len(slots) != 18 || slots[0] != "06:00" || slots[17] != "23:00" {
		t.Fatalf("unexpected slots: %v", slots)
	}
}
