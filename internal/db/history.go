package db

import (
	"fmt"
	"strings"

	"github.com/Joseda-hg/lazyplan/internal/model"
)

func formatCreatedDetails(task model.Task) string {
	return fmt.Sprintf("created %s '%s' in %s", model.ModeOf(task).Label(), task.Title, task.Category.DisplayName())
}

func formatDeletedDetails(task model.Task) string {
	return fmt.Sprintf("deleted %s '%s'", model.ModeOf(task).Label(), task.Title)
}

func formatTaskDiff(before, after model.Task) string {
	changes := []string{}
	if before.Title != after.Title {
		changes = append(changes, formatChange("title", before.Title, after.Title))
	}
	if before.Category != after.Category {
		changes = append(changes, formatChange("category", string(before.Category), string(after.Category)))
	}
	if before.Type != after.Type {
		changes = append(changes, formatChange("type", string(before.Type), string(after.Type)))
	}
	if before.Completed != after.Completed {
		changes = append(changes, formatChange("completed", fmt.Sprintf("%t", before.Completed), fmt.Sprintf("%t", after.Completed)))
	}
	if model.Deref(before.Date) != model.Deref(after.Date) {
		changes = append(changes, formatChange("date", model.Deref(before.Date), model.Deref(after.Date)))
	}
	if formatRange(before) != formatRange(after) {
		changes = append(changes, formatChange("time", formatRange(before), formatRange(after)))
	}
	if model.Deref(before.Location) != model.Deref(after.Location) {
		changes = append(changes, formatChange("location", model.Deref(before.Location), model.Deref(after.Location)))
	}
	if before.Notes != after.Notes {
		changes = append(changes, "notes edited")
	}
	if len(after.Logs) > len(before.Logs) {
		changes = append(changes, fmt.Sprintf("log added: '%s'", after.Logs[len(after.Logs)-1].Content))
	}
	if before.IsBacklog != after.IsBacklog {
		changes = append(changes, formatChange("backlog", fmt.Sprintf("%t", before.IsBacklog), fmt.Sprintf("%t", after.IsBacklog)))
	}
	if beforeMode, afterMode := model.ModeOf(before), model.ModeOf(after); beforeMode != afterMode {
		changes = append(changes, formatChange("mode", string(beforeMode), string(afterMode)))
	}

	if len(changes) == 0 {
		return "updated: no changes"
	}

	return "updated: " + strings.Join(changes, "; ")
}

func formatChange(field, before, after string) string {
	return fmt.Sprintf("%s: '%s' -> '%s'", field, valueOrNone(before), valueOrNone(after))
}

func valueOrNone(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "none"
	}
	return trimmed
}

func formatRange(task model.Task) string {
	if task.StartTime == nil {
		return ""
	}
	return *task.StartTime + "-" + model.Deref(task.EndTime)
}
