package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/Joseda-hg/lazyplan/internal/db"
	"github.com/Joseda-hg/lazyplan/internal/model"
	"github.com/Joseda-hg/lazyplan/internal/planner"
)

var testNow = time.Date(2024, time.March, 6, 9, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*gin.Engine, *planner.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	now := func() time.Time { return testNow }
	svc := planner.NewService(db.NewStore(conn).WithClock(now), now)
	opts := DefaultOptions()
	opts.RatePerSecond = 0
	return NewServer(svc, opts).Handler(), svc
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return out
}

func TestQuickAddCreatesEvent(t *testing.T) {
	router, _ := newTestServer(t)

	w := doJSON(t, router, http.MethodPost, "/api/quick-add", map[string]string{
		"title":    "Team sync tomorrow at 10am",
		"category": "fulfillment",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	task := decode[model.Task](t, w)
	if task.Title != "Team sync" || model.Deref(task.Date) != "2024-03-07" {
		t.Fatalf("unexpected task: %+v", task)
	}
	if model.Deref(task.StartTime) != "10:00" || model.Deref(task.EndTime) != "11:00" || task.IsAllDay {
		t.Fatalf("unexpected times: %+v", task)
	}
}

func TestCreateRejectsInvalidTask(t *testing.T) {
	router, _ := newTestServer(t)

	w := doJSON(t, router, http.MethodPost, "/api/tasks", map[string]string{"title": "No category"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	body := decode[map[string]any](t, w)
	if body["message"] != "Invalid task data" {
		t.Fatalf("unexpected message: %v", body["message"])
	}
}

func TestListFilters(t *testing.T) {
	router, svc := newTestServer(t)
	ctx := t.Context()

	if _, err := svc.Create(ctx, model.Task{Title: "Run", Category: model.CategoryFitness}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, model.Task{Title: "Dentist", Category: model.CategoryFortress, Date: model.Ptr("2024-03-08")}); err != nil {
		t.Fatalf("create: %v", err)
	}

	cases := []struct {
		path     string
		expected int
	}{
		{"/api/tasks", 2},
		{"/api/tasks?withDates=true", 1},
		{"/api/tasks?date=2024-03-08", 1},
		{"/api/tasks?category=fitness", 1},
		{"/api/tasks/category/fortress", 1},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			w := doJSON(t, router, http.MethodGet, tc.path, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", w.Code)
			}
			tasks := decode[[]model.Task](t, w)
			if len(tasks) != tc.expected {
				t.Fatalf("expected %d tasks, got %d", tc.expected, len(tasks))
			}
		})
	}

	if w := doJSON(t, router, http.MethodGet, "/api/tasks/category/nonsense", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown category, got %d", w.Code)
	}
}

func TestPatchReturnsPreviousAndRevert(t *testing.T) {
	router, svc := newTestServer(t)

	created, err := svc.Create(t.Context(), model.Task{Title: "Call mom", Category: model.CategoryFamily})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	w := doJSON(t, router, http.MethodPatch, "/api/tasks/"+created.ID, map[string]any{"date": "2024-03-06", "startTime": "17:00"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	outcome := decode[planner.Outcome](t, w)
	if model.ModeOf(outcome.After) != model.ModeScheduled || model.Deref(outcome.After.EndTime) != "18:00" {
		t.Fatalf("expected scheduled event, got %+v", outcome.After)
	}
	if outcome.Before.Date != nil {
		t.Fatalf("expected undated snapshot, got %+v", outcome.Before)
	}

	w = doJSON(t, router, http.MethodPut, "/api/tasks/"+created.ID, outcome.Before)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	restored := decode[model.Task](t, w)
	if model.ModeOf(restored) != model.ModeCurrent {
		t.Fatalf("expected snapshot restored, got %+v", restored)
	}
}

func TestPatchBacklogOnEventIsRejected(t *testing.T) {
	router, svc := newTestServer(t)

	created, err := svc.Create(t.Context(), model.Task{Title: "Dentist", Category: model.CategoryFortress, Date: model.Ptr("2024-03-08"), StartTime: model.Ptr("10:00")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	w := doJSON(t, router, http.MethodPatch, "/api/tasks/"+created.ID, map[string]any{"isBacklog": true})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	task, err := svc.Get(t.Context(), created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if task.IsBacklog || model.ModeOf(task) != model.ModeScheduled {
		t.Fatalf("expected event untouched, got %+v", task)
	}
}

func TestPatchNullClearsField(t *testing.T) {
	router, svc := newTestServer(t)

	created, err := svc.Create(t.Context(), model.Task{Title: "Dentist", Category: model.CategoryFortress, Date: model.Ptr("2024-03-08"), Location: model.Ptr("Clinic")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	w := doJSON(t, router, http.MethodPatch, "/api/tasks/"+created.ID, map[string]any{"location": nil})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	outcome := decode[planner.Outcome](t, w)
	if outcome.After.Location != nil || outcome.After.Date == nil {
		t.Fatalf("expected only location cleared, got %+v", outcome.After)
	}
}

func TestNotFoundAndDelete(t *testing.T) {
	router, svc := newTestServer(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/tasks/missing"},
		{http.MethodPatch, "/api/tasks/missing"},
		{http.MethodDelete, "/api/tasks/missing"},
		{http.MethodPost, "/api/tasks/missing/complete"},
	} {
		var body any
		if tc.method == http.MethodPatch {
			body = map[string]any{"title": "x"}
		}
		w := doJSON(t, router, tc.method, tc.path, body)
		if w.Code != http.StatusNotFound {
			t.Fatalf("%s %s: expected 404, got %d", tc.method, tc.path, w.Code)
		}
	}

	created, err := svc.Create(t.Context(), model.Task{Title: "Scrap", Category: model.CategoryFrivolous})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	w := doJSON(t, router, http.MethodDelete, "/api/tasks/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w := doJSON(t, router, http.MethodGet, "/api/tasks/"+created.ID, nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected deleted task to 404, got %d", w.Code)
	}
}

func TestTaskifyMessages(t *testing.T) {
	router, svc := newTestServer(t)

	w := doJSON(t, router, http.MethodPost, "/api/tasks/missing/taskify", nil)
	if w.Code != http.StatusNotFound || decode[map[string]any](t, w)["message"] != "Note not found" {
		t.Fatalf("expected 'Note not found', got %d %s", w.Code, w.Body.String())
	}

	task, err := svc.Create(t.Context(), model.Task{Title: "Run", Category: model.CategoryFitness})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	w = doJSON(t, router, http.MethodPost, "/api/tasks/"+task.ID+"/taskify", nil)
	if w.Code != http.StatusBadRequest || decode[map[string]any](t, w)["message"] != "Only notes can be taskified" {
		t.Fatalf("expected 'Only notes can be taskified', got %d %s", w.Code, w.Body.String())
	}

	note, err := svc.Create(t.Context(), model.Task{Title: "Idea", Category: model.CategoryFulfillment, Type: model.TypeNote})
	if err != nil {
		t.Fatalf("create note: %v", err)
	}
	w = doJSON(t, router, http.MethodPost, "/api/tasks/"+note.ID+"/taskify", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if outcome := decode[planner.Outcome](t, w); outcome.After.Type != model.TypeTask {
		t.Fatalf("expected task type, got %q", outcome.After.Type)
	}
}

func TestIllegalTransitionIsConflict(t *testing.T) {
	router, svc := newTestServer(t)

	event, err := svc.Create(t.Context(), model.Task{Title: "Dentist", Category: model.CategoryFortress, Date: model.Ptr("2024-03-08")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	w := doJSON(t, router, http.MethodPost, "/api/tasks/"+event.ID+"/backlog", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestTransitionEndpoints(t *testing.T) {
	router, svc := newTestServer(t)

	task, err := svc.Create(t.Context(), model.Task{Title: "sometime today call mom", Category: model.CategoryFamily})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	path := "/api/tasks/" + task.ID

	w := doJSON(t, router, http.MethodPost, path+"/flexible", nil)
	if outcome := decode[planner.Outcome](t, w); w.Code != http.StatusOK || model.Deref(outcome.After.Date) != "2024-03-06" {
		t.Fatalf("expected flexible today, got %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodPost, path+"/schedule", map[string]string{"startTime": "17:00"})
	outcome := decode[planner.Outcome](t, w)
	if w.Code != http.StatusOK || outcome.After.Title != "Call mom" || model.Deref(outcome.After.EndTime) != "18:00" {
		t.Fatalf("expected scheduled event, got %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodPost, path+"/unschedule", nil)
	outcome = decode[planner.Outcome](t, w)
	if w.Code != http.StatusOK || model.ModeOf(outcome.After) != model.ModeCurrent || outcome.After.Category != model.CategoryFamily {
		t.Fatalf("expected plain task, got %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodPost, path+"/backlog", nil)
	if outcome := decode[planner.Outcome](t, w); !outcome.After.IsBacklog {
		t.Fatalf("expected backlog, got %s", w.Body.String())
	}
	w = doJSON(t, router, http.MethodPost, path+"/current", nil)
	if outcome := decode[planner.Outcome](t, w); outcome.After.IsBacklog {
		t.Fatalf("expected current, got %s", w.Body.String())
	}

	w = doJSON(t, router, http.MethodPost, path+"/logs", map[string]string{"content": "called, no answer"})
	if outcome := decode[planner.Outcome](t, w); len(outcome.After.Logs) != 1 {
		t.Fatalf("expected one log entry, got %s", w.Body.String())
	}
	if w := doJSON(t, router, http.MethodPost, path+"/logs", map[string]string{"content": " "}); w.Code != http.StatusBadRequest {
		t.Fatalf("expected empty log to be rejected, got %d", w.Code)
	}

	w = doJSON(t, router, http.MethodPost, path+"/complete", nil)
	outcome = decode[planner.Outcome](t, w)
	if !outcome.After.Completed || outcome.After.CompletedAt == nil {
		t.Fatalf("expected completed, got %s", w.Body.String())
	}

	w = doJSON(t, router, http.MethodGet, "/api/archive", nil)
	if archive := decode[[]model.Task](t, w); len(archive) != 1 {
		t.Fatalf("expected archived task, got %s", w.Body.String())
	}

	w = doJSON(t, router, http.MethodPost, path+"/complete", map[string]bool{"completed": false})
	if outcome := decode[planner.Outcome](t, w); outcome.After.Completed || outcome.After.CompletedAt != nil {
		t.Fatalf("expected uncompleted, got %s", w.Body.String())
	}
}

func TestAgendaAndParse(t *testing.T) {
	router, svc := newTestServer(t)

	if _, err := svc.Create(t.Context(), model.Task{Title: "Standup", Category: model.CategoryFinance, Date: model.Ptr("2024-03-06"), StartTime: model.Ptr("15:00")}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(t.Context(), model.Task{Title: "Anytime", Category: model.CategoryFamily, Date: model.Ptr("2024-03-06")}); err != nil {
		t.Fatalf("create: %v", err)
	}

	w := doJSON(t, router, http.MethodGet, "/api/agenda", nil)
	agenda := decode[agendaResponse](t, w)
	if agenda.Date != "2024-03-06" || len(agenda.Items) != 2 {
		t.Fatalf("unexpected agenda: %s", w.Body.String())
	}
	if agenda.Items[0].Slot != "All day" || agenda.Items[1].Slot != "3 PM" {
		t.Fatalf("unexpected slots: %+v", agenda.Items)
	}
	if w := doJSON(t, router, http.MethodGet, "/api/agenda?date=03/06", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad date, got %d", w.Code)
	}

	w = doJSON(t, router, http.MethodPost, "/api/parse", map[string]string{"title": "Dinner tomorrow at 7pm at Olive Garden"})
	body := decode[map[string]any](t, w)
	parsed, _ := body["parsed"].(map[string]any)
	if parsed["cleanTitle"] != "Dinner" || body["willBecomeEvent"] != true {
		t.Fatalf("unexpected parse preview: %s", w.Body.String())
	}
}

func TestCategories(t *testing.T) {
	router, _ := newTestServer(t)

	w := doJSON(t, router, http.MethodGet, "/api/categories", nil)
	categories := decode[[]categoryResponse](t, w)
	if len(categories) != len(model.Categories()) {
		t.Fatalf("expected %d categories, got %d", len(model.Categories()), len(categories))
	}
	if categories[0].ID != model.Categories()[0] {
		t.Fatalf("expected life-area order, got %+v", categories)
	}
}

func TestRateLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimiter(rate.Limit(1), 1))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	if code := send("127.0.0.1:12345"); code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", code)
	}
	if code := send("127.0.0.1:12345"); code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be limited, got %d", code)
	}
	if code := send("192.168.1.1:12345"); code != http.StatusOK {
		t.Fatalf("expected other client to pass, got %d", code)
	}
}

func TestRateLimiterForgetsIdleClients(t *testing.T) {
	now := testNow
	limits := newVisitorLimits(rate.Limit(1), 1, time.Minute, func() time.Time { return now })

	if !limits.allow("10.0.0.1") || !limits.allow("10.0.0.2") {
		t.Fatalf("expected first requests to pass")
	}
	if limits.allow("10.0.0.1") {
		t.Fatalf("expected burst to be spent")
	}

	now = now.Add(30 * time.Second)
	limits.allow("10.0.0.2")
	now = now.Add(45 * time.Second)
	limits.allow("10.0.0.3")

	if len(limits.visitors) != 2 {
		t.Fatalf("expected idle client to be dropped, got %d visitors", len(limits.visitors))
	}
	if _, ok := limits.visitors["10.0.0.1"]; ok {
		t.Fatalf("expected 10.0.0.1 to be forgotten")
	}
}

func TestRecoveryWithLog(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RecoveryWithLog())
	router.GET("/panic", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}
