package tui

import (
	"context"
	"fmt"

	"github.com/jesseduffield/gocui"

	"github.com/Joseda-hg/lazyplan/internal/model"
	"github.com/Joseda-hg/lazyplan/internal/planner"
)

// transition runs a service mutation on the selected record.
func (u *UI) transition(verb string, action func(ctx context.Context, task model.Task) (planner.Outcome, error)) error {
	if u.inputActive() {
		return nil
	}
	selected := u.selectedTask()
	if selected == nil {
		return nil
	}
	outcome, err := action(context.Background(), *selected)
	if err != nil {
		u.status = err.Error()
		return nil
	}
	return u.recordOutcome(outcome, verb)
}

// recordOutcome keeps the snapshot for undo and refreshes every pane.
func (u *UI) recordOutcome(outcome planner.Outcome, verb string) error {
	u.lastOutcome = &outcome
	u.status = fmt.Sprintf("%s: %s (z to undo)", verb, outcome.After.Title)
	return u.loadAll()
}

func (u *UI) toggleComplete(_ *gocui.Gui, _ *gocui.View) error {
	return u.transition("completion toggled", func(ctx context.Context, task model.Task) (planner.Outcome, error) {
		return u.svc.ToggleCompleted(ctx, task.ID)
	})
}

func (u *UI) toggleBacklog(_ *gocui.Gui, _ *gocui.View) error {
	return u.transition("moved", func(ctx context.Context, task model.Task) (planner.Outcome, error) {
		if model.ModeOf(task) == model.ModeBacklog {
			return u.svc.MoveToCurrent(ctx, task.ID)
		}
		return u.svc.MoveToBacklog(ctx, task.ID)
	})
}

func (u *UI) makeFlexible(_ *gocui.Gui, _ *gocui.View) error {
	return u.transition("flexible on "+u.date, func(ctx context.Context, task model.Task) (planner.Outcome, error) {
		return u.svc.MakeFlexible(ctx, task.ID, u.date)
	})
}

func (u *UI) taskify(_ *gocui.Gui, _ *gocui.View) error {
	return u.transition("taskified", func(ctx context.Context, task model.Task) (planner.Outcome, error) {
		return u.svc.Taskify(ctx, task.ID)
	})
}

func (u *UI) deleteTask(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	selected := u.selectedTask()
	if selected == nil {
		return nil
	}
	if err := u.svc.Delete(context.Background(), selected.ID); err != nil {
		u.status = err.Error()
		return nil
	}
	if u.lastOutcome != nil && u.lastOutcome.Before.ID == selected.ID {
		u.lastOutcome = nil
	}
	u.status = "deleted: " + selected.Title
	return u.loadAll()
}

// undo writes back the snapshot from the last transition.
func (u *UI) undo(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if u.lastOutcome == nil {
		u.status = "nothing to undo"
		return nil
	}
	restored, err := u.svc.Revert(context.Background(), u.lastOutcome.Before)
	if err != nil {
		u.status = err.Error()
		return nil
	}
	u.lastOutcome = nil
	u.status = "restored: " + restored.Title
	return u.loadAll()
}
