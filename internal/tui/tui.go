package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/go-errors/errors"
	"github.com/jesseduffield/gocui"

	"github.com/Joseda-hg/lazyplan/internal/model"
	"github.com/Joseda-hg/lazyplan/internal/planner"
)

const (
	viewHeader   = "header"
	viewFooter   = "footer"
	viewTasks    = "tasks"
	viewBacklog  = "backlog"
	viewAgenda   = "agenda"
	viewNotes    = "notes"
	viewArchive  = "archive"
	viewDetail   = "detail"
	viewQuickAdd = "quickAdd"
	viewPrompt   = "prompt"
	viewForm     = "form"
	viewHelp     = "help"
)

var listViews = []string{viewTasks, viewBacklog, viewAgenda, viewNotes, viewArchive}

var focusOrder = []string{viewTasks, viewBacklog, viewAgenda, viewNotes, viewArchive, viewDetail}

type UI struct {
	svc        *planner.Service
	gui        *gocui.Gui
	parseDelay time.Duration

	current []model.Task
	backlog []model.Task
	agenda  []model.Task
	notes   []model.Task
	archive []model.Task
	history []model.HistoryEntry

	selected map[string]int
	focus    string
	// listFocus is the last list pane focused; the detail pane shows its
	// selection.
	listFocus string
	date      string

	quick        *quickState
	quickEditor  *quickEditor
	prompt       *promptState
	promptEditor *promptEditor
	form         *formState
	formEditor   *formEditor
	helpActive   bool

	lastOutcome *planner.Outcome
	status      string
}

func Run(svc *planner.Service, parseDelay time.Duration) error {
	gui, err := gocui.NewGui(gocui.NewGuiOpts{OutputMode: gocui.OutputNormal})
	if err != nil {
		return err
	}
	defer gui.Close()

	ui := newUI(svc, parseDelay)
	ui.gui = gui
	gui.Mouse = true

	gui.SetManagerFunc(ui.layout)
	if err := ui.bindKeys(gui); err != nil {
		return err
	}
	if err := ui.loadAll(); err != nil {
		return err
	}

	if err := gui.MainLoop(); err != nil && err != gocui.ErrQuit {
		return err
	}
	return nil
}

func newUI(svc *planner.Service, parseDelay time.Duration) *UI {
	ui := &UI{
		svc:        svc,
		parseDelay: parseDelay,
		selected:   make(map[string]int),
		focus:      viewTasks,
		listFocus:  viewTasks,
		date:       svc.Today(),
	}
	ui.quickEditor = &quickEditor{ui: ui}
	ui.promptEditor = &promptEditor{ui: ui}
	ui.formEditor = &formEditor{ui: ui}
	return ui
}

type binding struct {
	view    string
	key     any
	handler func(*gocui.Gui, *gocui.View) error
}

func (u *UI) bindKeys(gui *gocui.Gui) error {
	bindings := []binding{
		{"", gocui.KeyCtrlC, u.forceQuit},
		{"", 'q', u.quit},
		{"", 'r', u.reload},
		{"", 'a', u.openQuickAdd},
		{"", 'e', u.editTask},
		{"", 'x', u.toggleComplete},
		{"", 'b', u.toggleBacklog},
		{"", 'f', u.makeFlexible},
		{"", 's', u.openSchedule},
		{"", 'u', u.unschedule},
		{"", 't', u.taskify},
		{"", 'l', u.openLog},
		{"", 'd', u.deleteTask},
		{"", 'z', u.undo},
		{"", '[', u.prevDay},
		{"", ']', u.nextDay},
		{"", '.', u.today},
		{"", '?', u.toggleHelp},
		{"", gocui.KeyTab, u.switchFocus},
		{"", '1', u.focusTasks},
		{"", '2', u.focusBacklog},
		{"", '3', u.focusAgenda},
		{"", '4', u.focusNotes},
		{"", '5', u.focusArchive},
		{"", '6', u.focusDetail},
		{viewQuickAdd, gocui.KeyEnter, u.submitQuickAdd},
		{viewQuickAdd, gocui.KeyEsc, u.cancelQuickAdd},
		{viewPrompt, gocui.KeyEnter, u.submitPrompt},
		{viewPrompt, gocui.KeyEsc, u.cancelPrompt},
		{viewForm, gocui.KeyEnter, u.submitForm},
		{viewForm, gocui.KeyEsc, u.cancelForm},
		{viewForm, gocui.KeyTab, u.nextFormField},
		{viewForm, gocui.KeyBacktab, u.prevFormField},
		{viewForm, gocui.KeyArrowDown, u.nextFormField},
		{viewForm, gocui.KeyArrowUp, u.prevFormField},
		{viewHelp, gocui.KeyEsc, u.closeHelp},
		{viewHelp, 'q', u.closeHelp},
		{viewHelp, '?', u.closeHelp},
	}
	for _, name := range append(append([]string{}, listViews...), viewDetail) {
		bindings = append(bindings,
			binding{name, gocui.KeyArrowDown, u.moveDown},
			binding{name, 'j', u.moveDown},
			binding{name, gocui.KeyArrowUp, u.moveUp},
			binding{name, 'k', u.moveUp},
		)
	}
	for _, b := range bindings {
		if err := gui.SetKeybinding(b.view, b.key, gocui.ModNone, b.handler); err != nil {
			return err
		}
	}
	for _, name := range listViews {
		name := name
		if err := gui.SetViewClickBinding(&gocui.ViewMouseBinding{ViewName: name, Key: gocui.MouseLeft, Handler: func(opts gocui.ViewMouseBindingOpts) error {
			return u.onListClick(gui, name, opts)
		}}); err != nil {
			return err
		}
	}
	return nil
}

func (u *UI) layout(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	if maxX <= 0 || maxY <= 0 {
		return nil
	}

	headerView, err := gui.SetView(viewHeader, 0, 0, maxX-1, 0, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	headerView.Frame = false
	headerView.Wrap = true
	u.renderHeader(headerView)

	footerY1 := max(maxY-2, 1)
	footerY0 := max(footerY1-2, 1)
	footerView, err := gui.SetView(viewFooter, 0, footerY0, maxX-1, footerY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	footerView.Frame = false
	footerView.Wrap = true
	footerView.FgColor = gocui.ColorDefault | gocui.AttrDim
	u.renderFooter(footerView)

	bodyTop := 1
	bodyBottom := footerY0 - 1
	if bodyBottom < bodyTop {
		return nil
	}

	l := computeLayout(maxX, bodyBottom-bodyTop+1)
	leftX1 := l.leftWidth - 1
	rightX0 := min(leftX1+1, maxX-1)
	rightX1 := maxX - 1

	tasksY1 := bodyTop + l.tasksHeight - 1
	backlogY1 := tasksY1 + l.backlogHeight
	agendaY1 := bodyTop + l.agendaHeight - 1
	archiveY1 := agendaY1 + l.archiveHeight

	panes := []struct {
		name           string
		title          string
		color          gocui.Attribute
		x0, y0, x1, y1 int
	}{
		{viewTasks, "1 Tasks", gocui.ColorRed, 0, bodyTop, leftX1, tasksY1},
		{viewBacklog, "2 Backlog", gocui.ColorYellow, 0, tasksY1 + 1, leftX1, backlogY1},
		{viewNotes, "4 Notes", gocui.ColorMagenta, 0, backlogY1 + 1, leftX1, bodyBottom},
		{viewAgenda, "3 Agenda", gocui.ColorGreen, rightX0, bodyTop, rightX1, agendaY1},
		{viewArchive, "5 Archive", gocui.ColorBlue, rightX0, agendaY1 + 1, rightX1, archiveY1},
		{viewDetail, "6 Detail", gocui.ColorCyan, rightX0, archiveY1 + 1, rightX1, bodyBottom},
	}
	for _, pane := range panes {
		view, err := gui.SetView(pane.name, pane.x0, pane.y0, pane.x1, pane.y1, 0)
		if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
			return err
		}
		if goerrors.Is(err, gocui.ErrUnknownView) {
			view.TitleColor = pane.color
		}
		view.Title = pane.title
		if pane.name == viewAgenda {
			view.Title = fmt.Sprintf("3 Agenda %s", u.date)
		}
		applyViewStyle(view, u.focus == pane.name, pane.name != viewDetail)
		if pane.name == viewDetail {
			u.renderDetail(view)
			continue
		}
		u.renderList(view, pane.name)
	}

	_, _ = gui.SetViewOnTop(viewHeader)
	_, _ = gui.SetViewOnTop(viewFooter)

	if u.quick != nil {
		if err := u.showQuickAdd(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewQuickAdd)
	}

	if u.prompt != nil {
		if err := u.showPrompt(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewPrompt)
	}

	if u.form != nil {
		if err := u.showForm(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewForm)
	}

	if u.helpActive {
		if err := u.showHelp(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewHelp)
	}

	if gui.CurrentView() == nil {
		_, _ = gui.SetCurrentView(u.focus)
	}
	gui.Cursor = u.quick != nil || u.prompt != nil || u.form != nil
	return nil
}

type paneLayout struct {
	leftWidth     int
	tasksHeight   int
	backlogHeight int
	agendaHeight  int
	archiveHeight int
}

func computeLayout(width, height int) paneLayout {
	safeWidth := max(width-2, 20)
	safeHeight := max(height, 9)

	leftWidth := max(safeWidth/2, 26)
	if leftWidth > safeWidth-18 {
		leftWidth = safeWidth / 2
	}

	tasksHeight := max(safeHeight/2, 4)
	backlogHeight := max(safeHeight/4, 3)
	if tasksHeight+backlogHeight > safeHeight-3 {
		backlogHeight = max(safeHeight-tasksHeight-3, 3)
	}

	agendaHeight := max(safeHeight*2/5, 4)
	archiveHeight := max(safeHeight/5, 3)
	if agendaHeight+archiveHeight > safeHeight-4 {
		archiveHeight = max(safeHeight-agendaHeight-4, 3)
	}

	return paneLayout{
		leftWidth:     leftWidth,
		tasksHeight:   tasksHeight,
		backlogHeight: backlogHeight,
		agendaHeight:  agendaHeight,
		archiveHeight: archiveHeight,
	}
}

func (u *UI) loadAll() error {
	ctx := context.Background()
	var err error
	if u.current, err = u.svc.Current(ctx); err != nil {
		return err
	}
	if u.backlog, err = u.svc.Backlog(ctx); err != nil {
		return err
	}
	if u.agenda, err = u.svc.Agenda(ctx, u.date); err != nil {
		return err
	}
	if u.notes, err = u.svc.Notes(ctx); err != nil {
		return err
	}
	if u.archive, err = u.svc.Archive(ctx); err != nil {
		return err
	}
	for _, name := range listViews {
		if u.selected[name] >= len(u.listFor(name)) {
			u.selected[name] = max(len(u.listFor(name))-1, 0)
		}
	}
	return u.loadHistory()
}

func (u *UI) loadHistory() error {
	selected := u.selectedTask()
	if selected == nil {
		u.history = nil
		return nil
	}
	history, err := u.svc.History(context.Background(), selected.ID)
	if err != nil {
		return err
	}
	u.history = history
	return nil
}

func (u *UI) listFor(name string) []model.Task {
	switch name {
	case viewTasks:
		return u.current
	case viewBacklog:
		return u.backlog
	case viewAgenda:
		return u.agenda
	case viewNotes:
		return u.notes
	case viewArchive:
		return u.archive
	}
	return nil
}

func (u *UI) rowsFor(name string) []listRow {
	if name == viewTasks {
		return groupedRows(u.current)
	}
	return plainRows(u.listFor(name))
}

func (u *UI) selectedTask() *model.Task {
	tasks := u.listFor(u.listFocus)
	index := u.selected[u.listFocus]
	if index >= 0 && index < len(tasks) {
		return &tasks[index]
	}
	return nil
}

func (u *UI) renderHeader(view *gocui.View) {
	view.Clear()
	fmt.Fprintf(view, "LazyPlan | Today: %s | Agenda: %s | %d current | %d backlog | %d notes",
		u.svc.Today(), u.date, len(u.current), len(u.backlog), len(u.notes))
}

func (u *UI) renderFooter(view *gocui.View) {
	view.Clear()
	view.SetOrigin(0, 0)
	view.SetCursor(0, 0)

	fmt.Fprintln(view, "a add | e edit | x done | b backlog | f flexible | s schedule | u unschedule | t taskify | l log | d delete | z undo")
	fmt.Fprintln(view, "[ ] day | . today | r reload | tab/1-6 panes | j/k move | ? help | q quit")
	if u.status != "" {
		fmt.Fprint(view, u.status)
	}
}

func (u *UI) renderList(view *gocui.View, name string) {
	view.Clear()
	tasks := u.listFor(name)
	rows := u.rowsFor(name)
	focused := u.focus == name
	selected := u.selected[name]

	for _, row := range rows {
		if row.isHeader() {
			fmt.Fprintf(view, "  %s\n", row.header)
			continue
		}
		prefix := " "
		if row.index == selected {
			if focused {
				prefix = ">"
			} else if u.listFocus == name {
				prefix = "*"
			}
		}
		fmt.Fprintf(view, "%s %s\n", prefix, summaryFor(name, tasks[row.index]))
	}
	if len(rows) == 0 {
		fmt.Fprint(view, emptyLabel(name))
	}
	if focused && len(tasks) > 0 {
		view.SetCursor(0, rowOf(rows, selected))
	}
}

func summaryFor(name string, task model.Task) string {
	switch name {
	case viewBacklog:
		return formatBacklogSummary(task)
	case viewAgenda:
		return formatAgendaSummary(task)
	case viewArchive:
		return formatArchiveSummary(task)
	case viewNotes:
		return task.Title
	}
	return formatTaskSummary(task)
}

func emptyLabel(name string) string {
	switch name {
	case viewAgenda:
		return "  Nothing scheduled"
	case viewArchive:
		return "  Nothing completed yet"
	case viewNotes:
		return "  No notes"
	}
	return "  Nothing here"
}

func (u *UI) renderDetail(view *gocui.View) {
	view.Clear()
	selected := u.selectedTask()
	if selected == nil {
		fmt.Fprint(view, "No task selected")
		return
	}
	lines := detailLines(*selected)
	if len(u.history) > 0 {
		lines = append(lines, "", "History:")
		for _, entry := range u.history {
			lines = append(lines, fmt.Sprintf("  %s | %s | %s", entry.CreatedAt.Local().Format("2006-01-02 15:04"), entry.EventType, entry.Details))
		}
	}
	fmt.Fprint(view, strings.Join(lines, "\n"))
}

func (u *UI) onListClick(gui *gocui.Gui, name string, opts gocui.ViewMouseBindingOpts) error {
	if u.inputActive() {
		return nil
	}
	view, err := gui.View(name)
	if err != nil {
		return nil
	}
	_, y0, _, _ := view.Dimensions()
	_, oy := view.Origin()
	line := max(opts.Y-y0-1+oy, 0)

	rows := u.rowsFor(name)
	if line >= len(rows) || rows[line].isHeader() {
		return u.setFocus(gui, name)
	}
	u.selected[name] = rows[line].index
	return u.setFocus(gui, name)
}

func (u *UI) switchFocus(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	next := focusOrder[0]
	for i, name := range focusOrder {
		if name == u.focus {
			next = focusOrder[(i+1)%len(focusOrder)]
			break
		}
	}
	return u.setFocus(gui, next)
}

func (u *UI) focusTasks(gui *gocui.Gui, _ *gocui.View) error {
	return u.setFocus(gui, viewTasks)
}

func (u *UI) focusBacklog(gui *gocui.Gui, _ *gocui.View) error {
	return u.setFocus(gui, viewBacklog)
}

func (u *UI) focusAgenda(gui *gocui.Gui, _ *gocui.View) error {
	return u.setFocus(gui, viewAgenda)
}

func (u *UI) focusNotes(gui *gocui.Gui, _ *gocui.View) error {
	return u.setFocus(gui, viewNotes)
}

func (u *UI) focusArchive(gui *gocui.Gui, _ *gocui.View) error {
	return u.setFocus(gui, viewArchive)
}

func (u *UI) focusDetail(gui *gocui.Gui, _ *gocui.View) error {
	return u.setFocus(gui, viewDetail)
}

func (u *UI) setFocus(gui *gocui.Gui, name string) error {
	if u.inputActive() {
		return nil
	}
	u.focus = name
	if name != viewDetail {
		u.listFocus = name
	}
	if gui != nil {
		_, _ = gui.SetCurrentView(name)
	}
	return u.loadHistory()
}

func (u *UI) moveDown(_ *gocui.Gui, view *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if u.focus == viewDetail {
		if view != nil {
			view.ScrollDown(1)
		}
		return nil
	}
	if u.selected[u.focus] < len(u.listFor(u.focus))-1 {
		u.selected[u.focus]++
		return u.loadHistory()
	}
	return nil
}

func (u *UI) moveUp(_ *gocui.Gui, view *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if u.focus == viewDetail {
		if view != nil {
			view.ScrollUp(1)
		}
		return nil
	}
	if u.selected[u.focus] > 0 {
		u.selected[u.focus]--
		return u.loadHistory()
	}
	return nil
}

func (u *UI) reload(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.status = ""
	return u.loadAll()
}

func (u *UI) prevDay(gui *gocui.Gui, _ *gocui.View) error {
	return u.shiftDate(-1)
}

func (u *UI) nextDay(gui *gocui.Gui, _ *gocui.View) error {
	return u.shiftDate(1)
}

func (u *UI) today(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.date = u.svc.Today()
	return u.loadAll()
}

func (u *UI) shiftDate(days int) error {
	if u.inputActive() {
		return nil
	}
	next, err := model.ShiftDate(u.date, days, u.svc.Now().Location())
	if err != nil {
		u.status = err.Error()
		return nil
	}
	u.date = next
	u.selected[viewAgenda] = 0
	return u.loadAll()
}

func (u *UI) toggleHelp(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() && !u.helpActive {
		return nil
	}
	u.helpActive = !u.helpActive
	return nil
}

func (u *UI) closeHelp(gui *gocui.Gui, _ *gocui.View) error {
	u.helpActive = false
	u.closePopup(gui, viewHelp)
	return nil
}

func (u *UI) showHelp(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(64, maxX/2)
	height := 22
	x0 := (maxX - width) / 2
	y0 := max((maxY-height)/2, 0)
	view, err := gui.SetView(viewHelp, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Title = "Help"
		view.Wrap = true
	}
	view.Clear()
	fmt.Fprint(view, helpText())
	_, _ = gui.SetCurrentView(viewHelp)
	return nil
}

// closePopup drops a popup view and hands focus back to the pane.
func (u *UI) closePopup(gui *gocui.Gui, name string) {
	if gui == nil {
		return
	}
	_ = gui.DeleteView(name)
	_, _ = gui.SetCurrentView(u.focus)
}

func (u *UI) inputActive() bool {
	return u.quick != nil || u.prompt != nil || u.form != nil || u.helpActive
}

func (u *UI) quit(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	return gocui.ErrQuit
}

func (u *UI) forceQuit(_ *gocui.Gui, _ *gocui.View) error {
	if u.quick != nil {
		u.quick.session.Close()
	}
	return gocui.ErrQuit
}

func helpText() string {
	return strings.Join([]string{
		"Navigation:",
		"  Tab cycle panes",
		"  1 Tasks | 2 Backlog | 3 Agenda | 4 Notes | 5 Archive | 6 Detail",
		"  j/k or arrows move selection",
		"  [ and ] change the agenda day | . back to today",
		"",
		"Quick add:",
		"  a opens quick add for the focused pane",
		"  dates, times and places in the title are detected as you type",
		"  left/right pick a category | enter save | esc cancel",
		"",
		"Actions:",
		"  x toggle done | b backlog/current | f flexible on agenda day",
		"  s schedule at a time | u back to a plain task | t note to task",
		"  e edit title, category, location and notes",
		"  u on an event picks the category it goes back to",
		"  l add a log entry | d delete | z undo last change",
		"",
		"Other:",
		"  r reload | ? help | esc/q close help | q quit",
	}, "\n")
}

func applyViewStyle(view *gocui.View, focused bool, highlight bool) {
	view.Frame = true
	view.Highlight = focused && highlight
	view.HighlightInactive = false
	view.SelBgColor = gocui.ColorBlue
	view.SelFgColor = gocui.ColorBlack
	view.InactiveViewSelBgColor = gocui.ColorDefault
	if focused {
		view.FrameColor = gocui.ColorCyan
	} else {
		view.FrameColor = gocui.ColorDefault
	}
}
