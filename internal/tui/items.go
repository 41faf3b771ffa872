package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Joseda-hg/lazyplan/internal/model"
)

// listRow is one rendered line of a list pane. Header rows carry no task.
type listRow struct {
	header string
	index  int
}

func (r listRow) isHeader() bool {
	return r.header != ""
}

// groupedRows interleaves category headers with the tasks, which must
// already be in life-area order.
func groupedRows(tasks []model.Task) []listRow {
	rows := make([]listRow, 0, len(tasks)+len(model.Categories()))
	var last model.Category
	for i, task := range tasks {
		if i == 0 || task.Category != last {
			rows = append(rows, listRow{header: task.Category.DisplayName()})
			last = task.Category
		}
		rows = append(rows, listRow{index: i})
	}
	return rows
}

func plainRows(tasks []model.Task) []listRow {
	rows := make([]listRow, 0, len(tasks))
	for i := range tasks {
		rows = append(rows, listRow{index: i})
	}
	return rows
}

func rowOf(rows []listRow, selected int) int {
	for line, row := range rows {
		if !row.isHeader() && row.index == selected {
			return line
		}
	}
	return 0
}

func formatTaskSummary(task model.Task) string {
	check := "[ ]"
	if task.Completed {
		check = "[x]"
	}
	summary := fmt.Sprintf("%s %s", check, task.Title)
	if len(task.Logs) > 0 {
		summary += fmt.Sprintf(" (%d logs)", len(task.Logs))
	}
	return summary
}

func formatBacklogSummary(task model.Task) string {
	return fmt.Sprintf("%s | %s", task.Title, task.Category.DisplayName())
}

func formatAgendaSummary(task model.Task) string {
	slot := "All day"
	if task.StartTime != nil {
		slot = model.SlotLabel(*task.StartTime)
	}
	parts := []string{fmt.Sprintf("%-8s %s", slot, task.Title)}
	if task.StartTime != nil {
		parts = append(parts, formatRange(task))
	}
	if task.Location != nil {
		parts = append(parts, "@ "+*task.Location)
	}
	if task.Completed {
		parts = append(parts, "done")
	}
	return strings.Join(parts, " | ")
}

func formatArchiveSummary(task model.Task) string {
	when := "unknown"
	if task.CompletedAt != nil {
		when = task.CompletedAt.Local().Format("2006-01-02 15:04")
	}
	return fmt.Sprintf("%s | %s", task.Title, when)
}

func formatRange(task model.Task) string {
	return fmt.Sprintf("%s-%s", model.Deref(task.StartTime), model.Deref(task.EndTime))
}

func detailLines(task model.Task) []string {
	lines := []string{
		task.Title,
		fmt.Sprintf("Mode: %s", model.ModeOf(task).Label()),
		fmt.Sprintf("Category: %s", task.Category.DisplayName()),
	}
	if task.Date != nil {
		when := *task.Date
		if task.StartTime != nil {
			when += " " + formatRange(task)
		} else {
			when += " (any time)"
		}
		lines = append(lines, "When: "+when)
	}
	if task.Location != nil {
		lines = append(lines, "Where: "+*task.Location)
	}
	if task.Completed && task.CompletedAt != nil {
		lines = append(lines, "Completed: "+task.CompletedAt.Local().Format("2006-01-02 15:04"))
	}
	if strings.TrimSpace(task.Notes) != "" {
		lines = append(lines, "", task.Notes)
	}
	if len(task.Logs) > 0 {
		lines = append(lines, "", "Logs:")
		for _, entry := range task.Logs {
			lines = append(lines, fmt.Sprintf("  %s %s", formatLogTime(entry.Timestamp), entry.Content))
		}
	}
	return lines
}

func formatLogTime(value string) string {
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return value
	}
	return parsed.Local().Format("01-02 15:04")
}
