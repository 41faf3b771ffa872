package web

import (
	"github.com/Joseda-hg/lazyplan/internal/model"
)

type taskDetail struct {
	Task    model.Task           `json:"task"`
	Mode    model.Mode           `json:"mode"`
	History []model.HistoryEntry `json:"history"`
}

type flexibleRequest struct {
	Date string `json:"date"`
}

type unscheduleRequest struct {
	Category model.Category `json:"category"`
}

// Completed nil toggles.
type completeRequest struct {
	Completed *bool `json:"completed"`
}

type logRequest struct {
	Content string `json:"content"`
}

type parseRequest struct {
	Title  string `json:"title"`
	Source string `json:"source"`
	Type   string `json:"type"`
}

type categoryResponse struct {
	ID   model.Category `json:"id"`
	Name string         `json:"name"`
}

type agendaResponse struct {
	Date  string       `json:"date"`
	Items []agendaItem `json:"items"`
}

type agendaItem struct {
	model.Task
	Slot string `json:"slot"`
}
