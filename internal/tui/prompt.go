package tui

import (
	"context"
	"fmt"
	"strings"

	goerrors "github.com/go-errors/errors"
	"github.com/jesseduffield/gocui"

	"github.com/Joseda-hg/lazyplan/internal/model"
	"github.com/Joseda-hg/lazyplan/internal/planner"
	"github.com/Joseda-hg/lazyplan/internal/quickadd"
)

type quickState struct {
	session       *quickadd.Session
	source        quickadd.Source
	note          bool
	input         string
	categoryIndex int
	preview       quickadd.Preview
}

func (q *quickState) category() model.Category {
	categories := model.Categories()
	if q.categoryIndex < 0 || q.categoryIndex >= len(categories) {
		return ""
	}
	return categories[q.categoryIndex]
}

type quickEditor struct {
	ui *UI
}

const (
	promptSchedule = "schedule"
	promptLog      = "log"
)

type promptState struct {
	kind   string
	taskID string
	title  string
	value  string
}

type promptEditor struct {
	ui *UI
}

// openQuickAdd starts a quick-add session whose source follows the
// focused pane.
func (u *UI) openQuickAdd(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}

	draft := quickadd.Draft{Source: quickadd.SourceTask, Type: model.TypeTask}
	state := &quickState{categoryIndex: -1}
	switch u.focus {
	case viewBacklog:
		draft.Source = quickadd.SourceBacklog
	case viewAgenda:
		draft.Source = quickadd.SourceCalendar
		draft.Date = u.date
	case viewNotes:
		draft.Type = model.TypeNote
		state.note = true
	}
	draft.Category = quickadd.DefaultCategory(draft.Source, "")
	if selected := u.selectedTask(); selected != nil && draft.Category == "" {
		draft.Category = selected.Category
	}
	if draft.Category.Valid() {
		state.categoryIndex = draft.Category.Index()
	}
	state.source = draft.Source

	state.session = quickadd.NewSession(draft, u.parseDelay, u.svc.Now, func(preview quickadd.Preview) {
		u.deliverPreview(state, preview)
	})
	u.quick = state
	return nil
}

// deliverPreview runs on the debouncer's goroutine and hands the result to
// the UI loop.
func (u *UI) deliverPreview(state *quickState, preview quickadd.Preview) {
	if u.gui == nil {
		state.preview = preview
		return
	}
	u.gui.Update(func(*gocui.Gui) error {
		if u.quick == state {
			state.preview = preview
		}
		return nil
	})
}

func (u *UI) submitQuickAdd(gui *gocui.Gui, _ *gocui.View) error {
	if u.quick == nil {
		return nil
	}
	created, err := u.quick.session.Submit(context.Background(), u.svc)
	if err != nil {
		u.status = err.Error()
		return nil
	}
	u.quick = nil
	u.closePopup(gui, viewQuickAdd)
	u.status = fmt.Sprintf("added %s: %s", strings.ToLower(model.ModeOf(created).Label()), created.Title)
	if err := u.loadAll(); err != nil {
		return err
	}
	u.selectCreated(created)
	return u.loadHistory()
}

func (u *UI) cancelQuickAdd(gui *gocui.Gui, _ *gocui.View) error {
	if u.quick == nil {
		return nil
	}
	u.quick.session.Close()
	u.quick = nil
	u.closePopup(gui, viewQuickAdd)
	return nil
}

// selectCreated points the pane that now holds the record at it.
func (u *UI) selectCreated(task model.Task) {
	for _, name := range listViews {
		for i, candidate := range u.listFor(name) {
			if candidate.ID == task.ID {
				u.selected[name] = i
				if name == u.listFocus {
					return
				}
			}
		}
	}
}

func (u *UI) showQuickAdd(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(60, maxX/2)
	height := 10
	x0 := (maxX - width) / 2
	y0 := max((maxY-height)/2, 0)
	view, err := gui.SetView(viewQuickAdd, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Wrap = true
	}
	view.Title = "Quick Add"
	if u.quick.note {
		view.Title = "New Note"
	}
	view.Editable = true
	view.KeybindOnEdit = true
	view.Editor = u.quickEditor
	u.renderQuickAdd(view)
	_, _ = gui.SetCurrentView(viewQuickAdd)
	return nil
}

func (u *UI) renderQuickAdd(view *gocui.View) {
	if u.quick == nil || view == nil {
		return
	}
	view.Clear()
	category := "choose with left/right"
	if c := u.quick.category(); c != "" {
		category = c.DisplayName()
	}
	titleLine := "Title: " + u.quick.input
	fmt.Fprintln(view, titleLine)
	fmt.Fprintf(view, "Category: < %s >\n", category)
	fmt.Fprintf(view, "Source: %s\n", u.quick.source)
	fmt.Fprintln(view)
	for _, line := range quickHints(u.quick) {
		fmt.Fprintln(view, "  "+line)
	}
	view.SetCursor(len([]rune(titleLine)), 0)
}

func quickHints(state *quickState) []string {
	if state.note {
		return []string{"notes are saved as written"}
	}
	if !state.preview.Active {
		return []string{"dates, times and places are detected as you type"}
	}
	if len(state.preview.Lines) == 0 {
		return []string{"nothing detected, will be a plain task"}
	}
	return state.preview.Lines
}

func (e *quickEditor) Edit(view *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) bool {
	ui := e.ui
	if ui == nil || ui.quick == nil {
		return false
	}
	state := ui.quick
	categories := model.Categories()

	switch {
	case key == gocui.KeyArrowRight:
		state.categoryIndex = (state.categoryIndex + 1) % len(categories)
		state.session.SetCategory(state.category())
	case key == gocui.KeyArrowLeft:
		if state.categoryIndex <= 0 {
			state.categoryIndex = len(categories)
		}
		state.categoryIndex--
		state.session.SetCategory(state.category())
	case key == gocui.KeyBackspace || key == gocui.KeyBackspace2:
		runes := []rune(state.input)
		if len(runes) > 0 {
			state.input = string(runes[:len(runes)-1])
			state.session.Type(state.input)
		}
	case key == gocui.KeyCtrlU:
		state.input = ""
		state.session.Type(state.input)
	case key == gocui.KeySpace:
		state.input += " "
		state.session.Type(state.input)
	case ch != 0 && ch != '\n' && ch != '\r' && mod == gocui.ModNone:
		state.input += string(ch)
		state.session.Type(state.input)
	}
	ui.renderQuickAdd(view)
	return true
}

func (u *UI) openSchedule(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	selected := u.selectedTask()
	if selected == nil {
		return nil
	}
	value := model.NextSlot(u.svc.Now())
	if selected.StartTime != nil {
		value = *selected.StartTime
	}
	u.prompt = &promptState{kind: promptSchedule, taskID: selected.ID, title: "Schedule at (HH:MM)", value: value}
	return nil
}

func (u *UI) openLog(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	selected := u.selectedTask()
	if selected == nil {
		return nil
	}
	u.prompt = &promptState{kind: promptLog, taskID: selected.ID, title: "Log entry"}
	return nil
}

func (u *UI) submitPrompt(gui *gocui.Gui, _ *gocui.View) error {
	if u.prompt == nil {
		return nil
	}
	ctx := context.Background()
	prompt := *u.prompt

	var (
		outcome planner.Outcome
		err     error
		verb    string
	)
	switch prompt.kind {
	case promptSchedule:
		slot := planner.Slot{Start: strings.TrimSpace(prompt.value)}
		if task, getErr := u.svc.Get(ctx, prompt.taskID); getErr == nil && !task.HasDate() {
			slot.Date = u.date
		}
		outcome, err = u.svc.ScheduleAt(ctx, prompt.taskID, slot)
		verb = "scheduled"
	case promptLog:
		outcome, err = u.svc.AddLog(ctx, prompt.taskID, prompt.value)
		verb = "logged"
	}
	if err != nil {
		u.status = err.Error()
		return nil
	}

	u.prompt = nil
	u.closePopup(gui, viewPrompt)
	return u.recordOutcome(outcome, verb)
}

func (u *UI) cancelPrompt(gui *gocui.Gui, _ *gocui.View) error {
	u.prompt = nil
	u.closePopup(gui, viewPrompt)
	return nil
}

func (u *UI) showPrompt(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(40, maxX/3)
	height := 2
	x0 := (maxX - width) / 2
	y0 := max((maxY-height)/2, 0)
	view, err := gui.SetView(viewPrompt, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	view.Title = u.prompt.title
	view.Editable = true
	view.KeybindOnEdit = true
	view.Editor = u.promptEditor
	u.renderPrompt(view)
	_, _ = gui.SetCurrentView(viewPrompt)
	return nil
}

func (u *UI) renderPrompt(view *gocui.View) {
	if u.prompt == nil || view == nil {
		return
	}
	view.Clear()
	fmt.Fprint(view, u.prompt.value)
	view.SetCursor(len([]rune(u.prompt.value)), 0)
}

func (e *promptEditor) Edit(view *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) bool {
	ui := e.ui
	if ui == nil || ui.prompt == nil {
		return false
	}
	switch {
	case key == gocui.KeyBackspace || key == gocui.KeyBackspace2:
		runes := []rune(ui.prompt.value)
		if len(runes) > 0 {
			ui.prompt.value = string(runes[:len(runes)-1])
		}
	case key == gocui.KeyCtrlU:
		ui.prompt.value = ""
	case key == gocui.KeySpace:
		ui.prompt.value += " "
	case ch != 0 && ch != '\n' && ch != '\r' && mod == gocui.ModNone:
		ui.prompt.value += string(ch)
	}
	ui.renderPrompt(view)
	return true
}
