package web

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Joseda-hg/lazyplan/internal/model"
	"github.com/Joseda-hg/lazyplan/internal/planner"
	"github.com/Joseda-hg/lazyplan/internal/quickadd"
)

func (s *Server) listTasks(c *gin.Context) {
	var filter model.Filter
	if date := c.Query("date"); date != "" {
		if !model.ValidDate(date) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid date", "error": "date must be YYYY-MM-DD"})
			return
		}
		filter.Date = date
	} else if c.Query("withDates") == "true" {
		filter.HasDate = model.Ptr(true)
	} else if raw := c.Query("category"); raw != "" {
		category, err := model.ParseCategory(raw)
		if err != nil {
			writeError(c, err)
			return
		}
		filter.Category = category
	}

	tasks, err := s.svc.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (s *Server) listByCategory(c *gin.Context) {
	category, err := model.ParseCategory(c.Param("category"))
	if err != nil {
		writeError(c, err)
		return
	}
	tasks, err := s.svc.List(c.Request.Context(), model.Filter{Category: category})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (s *Server) getTask(c *gin.Context) {
	task, err := s.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	history, err := s.svc.History(c.Request.Context(), task.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, taskDetail{Task: task, Mode: model.ModeOf(task), History: history})
}

func (s *Server) createTask(c *gin.Context) {
	var task model.Task
	if err := c.ShouldBindJSON(&task); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid task data", "error": err.Error()})
		return
	}
	if task.Type == "" {
		task.Type = model.TypeTask
	}
	created, err := s.svc.Create(c.Request.Context(), task)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) patchTask(c *gin.Context) {
	var patch model.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid update data", "error": err.Error()})
		return
	}
	outcome, err := s.svc.Edit(c.Request.Context(), c.Param("id"), patch)
	respondOutcome(c, outcome, err)
}

// revertTask writes a previously returned snapshot back over the record.
func (s *Server) revertTask(c *gin.Context) {
	var snapshot model.Task
	if err := c.ShouldBindJSON(&snapshot); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid task data", "error": err.Error()})
		return
	}
	snapshot.ID = c.Param("id")
	restored, err := s.svc.Revert(c.Request.Context(), snapshot)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, restored)
}

func (s *Server) deleteTask(c *gin.Context) {
	if err := s.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

func (s *Server) taskify(c *gin.Context) {
	outcome, err := s.svc.Taskify(c.Request.Context(), c.Param("id"))
	if errors.Is(err, model.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Note not found"})
		return
	}
	respondOutcome(c, outcome, err)
}

func (s *Server) schedule(c *gin.Context) {
	var slot planner.Slot
	if !bindOptional(c, &slot) {
		return
	}
	outcome, err := s.svc.ScheduleAt(c.Request.Context(), c.Param("id"), slot)
	respondOutcome(c, outcome, err)
}

func (s *Server) flexible(c *gin.Context) {
	var req flexibleRequest
	if !bindOptional(c, &req) {
		return
	}
	if req.Date == "" {
		req.Date = s.svc.Today()
	}
	outcome, err := s.svc.MakeFlexible(c.Request.Context(), c.Param("id"), req.Date)
	respondOutcome(c, outcome, err)
}

func (s *Server) unschedule(c *gin.Context) {
	var req unscheduleRequest
	if !bindOptional(c, &req) {
		return
	}
	outcome, err := s.svc.ToTask(c.Request.Context(), c.Param("id"), req.Category)
	respondOutcome(c, outcome, err)
}

func (s *Server) backlog(c *gin.Context) {
	outcome, err := s.svc.MoveToBacklog(c.Request.Context(), c.Param("id"))
	respondOutcome(c, outcome, err)
}

func (s *Server) current(c *gin.Context) {
	outcome, err := s.svc.MoveToCurrent(c.Request.Context(), c.Param("id"))
	respondOutcome(c, outcome, err)
}

func (s *Server) complete(c *gin.Context) {
	var req completeRequest
	if !bindOptional(c, &req) {
		return
	}
	var (
		outcome planner.Outcome
		err     error
	)
	if req.Completed == nil {
		outcome, err = s.svc.ToggleCompleted(c.Request.Context(), c.Param("id"))
	} else {
		outcome, err = s.svc.SetCompleted(c.Request.Context(), c.Param("id"), *req.Completed)
	}
	respondOutcome(c, outcome, err)
}

func (s *Server) addLog(c *gin.Context) {
	var req logRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid log data", "error": err.Error()})
		return
	}
	outcome, err := s.svc.AddLog(c.Request.Context(), c.Param("id"), req.Content)
	respondOutcome(c, outcome, err)
}

func (s *Server) quickAdd(c *gin.Context) {
	var draft quickadd.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid task data", "error": err.Error()})
		return
	}
	source, err := quickadd.ParseSource(string(draft.Source))
	if err != nil {
		writeError(c, err)
		return
	}
	draft.Source = source
	if draft.Type == "" {
		draft.Type = model.TypeTask
	}

	task, err := quickadd.Build(draft, s.svc.Now())
	if err != nil {
		writeError(c, err)
		return
	}
	created, err := s.svc.Create(c.Request.Context(), task)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// parse previews what quick-add would detect without creating anything.
func (s *Server) parse(c *gin.Context) {
	var req parseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid parse request", "error": err.Error()})
		return
	}
	source, err := quickadd.ParseSource(req.Source)
	if err != nil {
		writeError(c, err)
		return
	}
	draft := quickadd.Draft{Title: req.Title, Source: source, Type: model.Type(strings.ToLower(req.Type))}
	c.JSON(http.StatusOK, quickadd.PreviewFor(draft, s.svc.Now()))
}

func (s *Server) archive(c *gin.Context) {
	tasks, err := s.svc.Archive(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (s *Server) agenda(c *gin.Context) {
	date := c.DefaultQuery("date", s.svc.Today())
	tasks, err := s.svc.Agenda(c.Request.Context(), date)
	if err != nil {
		writeError(c, err)
		return
	}
	items := make([]agendaItem, 0, len(tasks))
	for _, task := range tasks {
		slot := "All day"
		if task.StartTime != nil {
			slot = model.SlotLabel(*task.StartTime)
		}
		items = append(items, agendaItem{Task: task, Slot: slot})
	}
	c.JSON(http.StatusOK, agendaResponse{Date: date, Items: items})
}

func (s *Server) categories(c *gin.Context) {
	out := make([]categoryResponse, 0, len(model.Categories()))
	for _, category := range model.Categories() {
		out = append(out, categoryResponse{ID: category, Name: category.DisplayName()})
	}
	c.JSON(http.StatusOK, out)
}

// bindOptional accepts an empty body as the zero request.
func bindOptional(c *gin.Context, dst any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body", "error": err.Error()})
		return false
	}
	return true
}

func respondOutcome(c *gin.Context, outcome planner.Outcome, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid task data", "error": err.Error()})
	case errors.Is(err, model.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Task not found"})
	case errors.Is(err, planner.ErrNotANote):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Only notes can be taskified"})
	case errors.Is(err, planner.ErrIllegalTransition):
		c.JSON(http.StatusConflict, gin.H{"message": "Illegal transition", "error": err.Error()})
	default:
		log.Printf("[web] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
	}
}
