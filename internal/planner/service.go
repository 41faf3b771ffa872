package planner

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Joseda-hg/lazyplan/internal/model"
)

type Store interface {
	Create(ctx context.Context, task model.Task) (model.Task, error)
	Get(ctx context.Context, id string) (model.Task, error)
	Update(ctx context.Context, id string, patch model.Patch) (model.Task, error)
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, filter model.Filter) ([]model.Task, error)
}

type HistoryStore interface {
	ListHistory(ctx context.Context, taskID string) ([]model.HistoryEntry, error)
}

// Outcome carries the full record before and after a mutation. Before is
// what a caller writes back with Revert when an optimistic update has to
// be undone.
type Outcome struct {
	Before model.Task `json:"previous"`
	After  model.Task `json:"task"`
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, now: now}
}

func (s *Service) Now() time.Time {
	return s.now()
}

func (s *Service) Today() string {
	return model.FormatDate(s.now())
}

func (s *Service) Create(ctx context.Context, task model.Task) (model.Task, error) {
	task.ID = ""
	model.Normalize(&task, s.now())
	if err := model.Validate(task); err != nil {
		return model.Task{}, err
	}
	return s.store.Create(ctx, task)
}

func (s *Service) Get(ctx context.Context, id string) (model.Task, error) {
	return s.store.Get(ctx, id)
}

// Edit applies an arbitrary patch, stamping completion with the service
// clock when the patch flips the completed flag.
func (s *Service) Edit(ctx context.Context, id string, patch model.Patch) (Outcome, error) {
	return s.apply(ctx, id, func(t model.Task) (model.Patch, error) {
		if patch.IsBacklog != nil && *patch.IsBacklog {
			dated := t.Date != nil
			if patch.Date.Set {
				dated = patch.Date.Value != nil
			}
			if dated || t.Type == model.TypeNote {
				return model.Patch{}, fmt.Errorf("%w: only undated tasks can move to the backlog", model.ErrValidation)
			}
		}
		if patch.Completed != nil && !patch.CompletedAt.Set {
			patch.CompletedAt = SetCompleted(t, *patch.Completed, s.now()).CompletedAt
		}
		return patch, nil
	})
}

func (s *Service) Delete(ctx context.Context, id string) error {
	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: %s", model.ErrNotFound, id)
	}
	return nil
}

func (s *Service) ScheduleAt(ctx context.Context, id string, slot Slot) (Outcome, error) {
	return s.apply(ctx, id, func(t model.Task) (model.Patch, error) {
		return ScheduleAt(t, slot)
	})
}

func (s *Service) MakeFlexible(ctx context.Context, id, date string) (Outcome, error) {
	return s.apply(ctx, id, func(t model.Task) (model.Patch, error) {
		return MakeFlexible(t, date)
	})
}

func (s *Service) ToTask(ctx context.Context, id string, category model.Category) (Outcome, error) {
	return s.apply(ctx, id, func(t model.Task) (model.Patch, error) {
		return ToTask(t, category)
	})
}

func (s *Service) Unschedule(ctx context.Context, id string) (Outcome, error) {
	return s.ToTask(ctx, id, "")
}

func (s *Service) Taskify(ctx context.Context, id string) (Outcome, error) {
	return s.apply(ctx, id, Taskify)
}

func (s *Service) MoveToBacklog(ctx context.Context, id string) (Outcome, error) {
	return s.apply(ctx, id, MoveToBacklog)
}

func (s *Service) MoveToCurrent(ctx context.Context, id string) (Outcome, error) {
	return s.apply(ctx, id, MoveToCurrent)
}

func (s *Service) SetCompleted(ctx context.Context, id string, completed bool) (Outcome, error) {
	return s.apply(ctx, id, func(t model.Task) (model.Patch, error) {
		return SetCompleted(t, completed, s.now()), nil
	})
}

func (s *Service) ToggleCompleted(ctx context.Context, id string) (Outcome, error) {
	return s.apply(ctx, id, func(t model.Task) (model.Patch, error) {
		return SetCompleted(t, !t.Completed, s.now()), nil
	})
}

func (s *Service) AddLog(ctx context.Context, id, content string) (Outcome, error) {
	return s.apply(ctx, id, func(t model.Task) (model.Patch, error) {
		return AddLog(t, content, s.now())
	})
}

// Revert overwrites the stored record with a snapshot taken earlier.
func (s *Service) Revert(ctx context.Context, snapshot model.Task) (model.Task, error) {
	if snapshot.ID == "" {
		return model.Task{}, fmt.Errorf("%w: snapshot has no id", model.ErrValidation)
	}
	return s.store.Update(ctx, snapshot.ID, model.PatchFrom(snapshot))
}

func (s *Service) apply(ctx context.Context, id string, delta func(model.Task) (model.Patch, error)) (Outcome, error) {
	before, err := s.store.Get(ctx, id)
	if err != nil {
		return Outcome{}, err
	}
	patch, err := delta(before)
	if err != nil {
		return Outcome{Before: before, After: before}, err
	}
	after, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return Outcome{Before: before, After: before}, err
	}
	return Outcome{Before: before, After: after}, nil
}

func (s *Service) List(ctx context.Context, filter model.Filter) ([]model.Task, error) {
	return s.store.List(ctx, filter)
}

// Current returns active undated tasks that are not deferred.
func (s *Service) Current(ctx context.Context) ([]model.Task, error) {
	return s.undated(ctx, model.ModeCurrent)
}

func (s *Service) Backlog(ctx context.Context) ([]model.Task, error) {
	return s.undated(ctx, model.ModeBacklog)
}

func (s *Service) undated(ctx context.Context, mode model.Mode) ([]model.Task, error) {
	tasks, err := s.store.List(ctx, model.Filter{HasDate: model.Ptr(false)})
	if err != nil {
		return nil, err
	}
	out := []model.Task{}
	for _, task := range tasks {
		if !task.Completed && model.ModeOf(task) == mode {
			out = append(out, task)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Category.Index() < out[j].Category.Index()
	})
	return out, nil
}

// Agenda lists the events on date: flexible entries first, then scheduled
// ones by start time.
func (s *Service) Agenda(ctx context.Context, date string) ([]model.Task, error) {
	if !model.ValidDate(date) {
		return nil, fmt.Errorf("%w: date %q must be YYYY-MM-DD", model.ErrValidation, date)
	}
	tasks, err := s.store.List(ctx, model.Filter{Date: date})
	if err != nil {
		return nil, err
	}
	out := []model.Task{}
	for _, task := range tasks {
		if model.ModeOf(task).IsEvent() {
			out = append(out, task)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		left, right := out[i], out[j]
		if left.IsAllDay != right.IsAllDay {
			return left.IsAllDay
		}
		return model.Deref(left.StartTime) < model.Deref(right.StartTime)
	})
	return out, nil
}

func (s *Service) Notes(ctx context.Context) ([]model.Task, error) {
	tasks, err := s.store.List(ctx, model.Filter{})
	if err != nil {
		return nil, err
	}
	out := []model.Task{}
	for _, task := range tasks {
		if task.Type == model.TypeNote {
			out = append(out, task)
		}
	}
	return out, nil
}

// Archive lists completed records, most recently completed first.
func (s *Service) Archive(ctx context.Context) ([]model.Task, error) {
	tasks, err := s.store.List(ctx, model.Filter{})
	if err != nil {
		return nil, err
	}
	out := []model.Task{}
	for _, task := range tasks {
		if task.Completed {
			out = append(out, task)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return completedAt(out[i]).After(completedAt(out[j]))
	})
	return out, nil
}

func (s *Service) History(ctx context.Context, id string) ([]model.HistoryEntry, error) {
	history, ok := s.store.(HistoryStore)
	if !ok {
		return []model.HistoryEntry{}, nil
	}
	return history.ListHistory(ctx, id)
}

func completedAt(task model.Task) time.Time {
	if task.CompletedAt == nil {
		return time.Time{}
	}
	return *task.CompletedAt
}
