package tui

import (
	"context"
	"fmt"
	"strings"

	goerrors "github.com/go-errors/errors"
	"github.com/jesseduffield/gocui"

	"github.com/Joseda-hg/lazyplan/internal/model"
	"github.com/Joseda-hg/lazyplan/internal/planner"
)

type formField struct {
	Label string
	Value string
}

const (
	fieldTitle = iota
	fieldCategory
	fieldLocation
	fieldNotes
)

const (
	formEdit       = "edit"
	formUnschedule = "unschedule"
)

type formState struct {
	kind   string
	task   model.Task
	fields []formField
	index  int
}

type formEditor struct {
	ui *UI
}

func buildFormFields(task model.Task) []formField {
	return []formField{
		{Label: "Title", Value: task.Title},
		{Label: "Category (←→)", Value: string(task.Category)},
		{Label: "Location", Value: model.Deref(task.Location)},
		{Label: "Notes", Value: task.Notes},
	}
}

// parseFormFields returns a patch holding only the fields that changed.
func parseFormFields(task model.Task, fields []formField) (model.Patch, error) {
	var patch model.Patch

	title := strings.TrimSpace(fields[fieldTitle].Value)
	if title == "" {
		return model.Patch{}, fmt.Errorf("%w: title is required", model.ErrValidation)
	}
	if title != task.Title {
		patch.Title = &title
	}

	category, err := model.ParseCategory(fields[fieldCategory].Value)
	if err != nil {
		return model.Patch{}, err
	}
	if category != task.Category {
		patch.Category = &category
	}

	location := strings.TrimSpace(fields[fieldLocation].Value)
	if location != model.Deref(task.Location) {
		if location == "" {
			patch.Location = model.Clear[string]()
		} else {
			patch.Location = model.SetTo(location)
		}
	}

	if notes := fields[fieldNotes].Value; notes != task.Notes {
		patch.Notes = &notes
	}
	return patch, nil
}

func (u *UI) editTask(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	selected := u.selectedTask()
	if selected == nil {
		return nil
	}
	u.form = &formState{kind: formEdit, task: *selected, fields: buildFormFields(*selected)}
	return nil
}

// unschedule turns an event back into a task. Events get a category
// picker first; anything else goes straight to the service, which
// reports why it cannot be unscheduled.
func (u *UI) unschedule(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	selected := u.selectedTask()
	if selected == nil {
		return nil
	}
	if !model.ModeOf(*selected).IsEvent() {
		return u.transition("unscheduled", func(ctx context.Context, task model.Task) (planner.Outcome, error) {
			return u.svc.Unschedule(ctx, task.ID)
		})
	}
	fields := buildFormFields(*selected)
	u.form = &formState{
		kind:   formUnschedule,
		task:   *selected,
		fields: fields[fieldCategory : fieldCategory+1],
	}
	return nil
}

func (u *UI) submitForm(gui *gocui.Gui, _ *gocui.View) error {
	if u.form == nil {
		return nil
	}
	ctx := context.Background()
	form := u.form

	var (
		outcome planner.Outcome
		err     error
		verb    string
	)
	switch form.kind {
	case formEdit:
		var patch model.Patch
		if patch, err = parseFormFields(form.task, form.fields); err != nil {
			u.status = err.Error()
			return nil
		}
		if patch.Empty() {
			return u.cancelForm(gui, nil)
		}
		outcome, err = u.svc.Edit(ctx, form.task.ID, patch)
		verb = "edited"
	case formUnschedule:
		var category model.Category
		if category, err = model.ParseCategory(form.fields[0].Value); err != nil {
			u.status = err.Error()
			return nil
		}
		outcome, err = u.svc.ToTask(ctx, form.task.ID, category)
		verb = "unscheduled"
	}
	if err != nil {
		u.status = err.Error()
		return nil
	}

	u.form = nil
	u.closePopup(gui, viewForm)
	return u.recordOutcome(outcome, verb)
}

func (u *UI) cancelForm(gui *gocui.Gui, _ *gocui.View) error {
	u.form = nil
	u.closePopup(gui, viewForm)
	return nil
}

func (u *UI) nextFormField(_ *gocui.Gui, view *gocui.View) error {
	if u.form == nil {
		return nil
	}
	if u.form.index < len(u.form.fields)-1 {
		u.form.index++
	}
	u.renderForm(view)
	return nil
}

func (u *UI) prevFormField(_ *gocui.Gui, view *gocui.View) error {
	if u.form == nil {
		return nil
	}
	if u.form.index > 0 {
		u.form.index--
	}
	u.renderForm(view)
	return nil
}

func (u *UI) showForm(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(60, maxX/2)
	height := len(u.form.fields) + 3
	x0 := (maxX - width) / 2
	y0 := max((maxY-height)/2, 0)
	view, err := gui.SetView(viewForm, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Wrap = true
	}
	view.Title = "Edit"
	if u.form.kind == formUnschedule {
		view.Title = "Unschedule into"
	}
	view.Editable = true
	view.KeybindOnEdit = true
	view.Editor = u.formEditor
	u.renderForm(view)
	_, _ = gui.SetCurrentView(viewForm)
	return nil
}

func (u *UI) renderForm(view *gocui.View) {
	if u.form == nil || view == nil {
		return
	}
	view.Clear()
	for index, field := range u.form.fields {
		prefix := "  "
		if index == u.form.index {
			prefix = "> "
		}
		value := field.Value
		if isCategoryField(field.Label) {
			value = model.Category(value).DisplayName()
		}
		fmt.Fprintf(view, "%s%s: %s\n", prefix, field.Label, value)
	}
	fmt.Fprintln(view)
	fmt.Fprint(view, "  tab/up/down move | enter save | esc cancel")

	field := u.form.fields[u.form.index]
	cursorX := len([]rune(field.Label+": ")) + len([]rune(field.Value)) + 2
	view.SetCursor(cursorX, u.form.index)
}

func (e *formEditor) Edit(view *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) bool {
	ui := e.ui
	if ui == nil || ui.form == nil {
		return false
	}
	field := &ui.form.fields[ui.form.index]

	if isCategoryField(field.Label) {
		switch key {
		case gocui.KeyArrowRight, gocui.KeySpace:
			field.Value = string(cycleCategory(model.Category(field.Value), 1))
		case gocui.KeyArrowLeft:
			field.Value = string(cycleCategory(model.Category(field.Value), -1))
		}
		ui.renderForm(view)
		return true
	}

	switch {
	case key == gocui.KeyBackspace || key == gocui.KeyBackspace2:
		runes := []rune(field.Value)
		if len(runes) > 0 {
			field.Value = string(runes[:len(runes)-1])
		}
	case key == gocui.KeySpace:
		field.Value += " "
	case key == gocui.KeyCtrlU:
		field.Value = ""
	case ch != 0 && ch != '\n' && ch != '\r' && mod == gocui.ModNone:
		field.Value += string(ch)
	}
	ui.renderForm(view)
	return true
}

func isCategoryField(label string) bool {
	return strings.HasPrefix(label, "Category")
}

func cycleCategory(current model.Category, delta int) model.Category {
	order := model.Categories()
	index := current.Index()
	if index >= len(order) {
		index = 0
	}
	index = (index + delta + len(order)) % len(order)
	return order[index]
}
