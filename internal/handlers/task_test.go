package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tasktracker/internal/repo"
	"tasktracker/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var fixedNow = time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	now := func() time.Time { return fixedNow }

	h := NewTaskHandler(service.NewTaskService(repo.NewMemoryTaskRepo(), nil, now))
	r := gin.New()
	r.Use(Recovery(now), ErrorMapper(now))
	r.NoRoute(NoRoute(now))
	g := r.Group("/tasks")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.GetByID)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)

	r.GET("/boom", func(c *gin.Context) { c.Error(errors.New("pq: connection reset by peer")) })
	r.GET("/panic", func(c *gin.Context) { panic("kaboom") })
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, msg string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, w.Code, w.Body.String())
	}
	var body struct {
		Timestamp time.Time `json:"timestamp"`
		Status    int       `json:"status"`
		Error     string    `json:"error"`
	}
	decode(t, w, &body)
	if body.Status != status || body.Error != msg {
		t.Fatalf("expected {%d %q}, got {%d %q}", status, msg, body.Status, body.Error)
	}
	if !body.Timestamp.Equal(fixedNow) {
		t.Fatalf("expected timestamp %v, got %v", fixedNow, body.Timestamp)
	}
}

func createTask(t *testing.T, r http.Handler, body string) map[string]any {
	t.Helper()
	w := do(r, http.MethodPost, "/tasks", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var task map[string]any
	decode(t, w, &task)
	return task
}

func TestCreateTaskReturnsBodyAndLocation(t *testing.T) {
	r := newTestRouter(t)
	w := do(r, http.MethodPost, "/tasks",
		`{"title":"Buy milk","description":"2 bottles","deadline":"2025-12-31T10:00:00"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("expected json content type, got %q", ct)
	}
	var task map[string]any
	decode(t, w, &task)

	id, _ := task["id"].(string)
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("expected uuid id, got %q", id)
	}
	if task["title"] != "Buy milk" || task["description"] != "2 bottles" {
		t.Fatalf("unexpected task: %v", task)
	}
	if task["completed"] != false {
		t.Fatalf("expected completed=false, got %v", task["completed"])
	}
	if task["deadline"] != "2025-12-31T10:00:00" {
		t.Fatalf("expected deadline echo, got %v", task["deadline"])
	}
	if task["createdAt"] != "2025-12-20T00:00:00" {
		t.Fatalf("expected createdAt from clock, got %v", task["createdAt"])
	}
	if loc := w.Header().Get("Location"); loc != "/tasks/"+id {
		t.Fatalf("expected Location /tasks/%s, got %q", id, loc)
	}
}

func TestCreateTaskValidation(t *testing.T) {
	r := newTestRouter(t)

	expectError(t, do(r, http.MethodPost, "/tasks", `{"title":""}`), http.StatusBadRequest, "title must not be blank")
	expectError(t, do(r, http.MethodPost, "/tasks", `{"description":"no title"}`), http.StatusBadRequest, "title must not be blank")
	expectError(t, do(r, http.MethodPost, "/tasks", `{"title":`), http.StatusBadRequest, "malformed json")
	expectError(t, do(r, http.MethodPost, "/tasks", `{"title":5}`), http.StatusBadRequest, "malformed json")
	expectError(t, do(r, http.MethodPost, "/tasks", `{"title":"x","deadline":"someday"}`), http.StatusBadRequest, "malformed json")
	expectError(t, do(r, http.MethodPost, "/tasks", ""), http.StatusBadRequest, "malformed json")

	w := do(r, http.MethodGet, "/tasks", "")
	if w.Body.String() != "[]" {
		t.Fatalf("expected nothing persisted, got %s", w.Body.String())
	}
}

func TestGetTask(t *testing.T) {
	r := newTestRouter(t)
	created := createTask(t, r, `{"title":"T-get","description":"desc"}`)

	w := do(r, http.MethodGet, "/tasks/"+created["id"].(string), "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var got map[string]any
	decode(t, w, &got)
	if got["id"] != created["id"] || got["title"] != "T-get" || got["deadline"] != nil {
		t.Fatalf("unexpected task: %v", got)
	}

	expectError(t, do(r, http.MethodGet, "/tasks/"+uuid.NewString(), ""), http.StatusNotFound, "task not found")
	expectError(t, do(r, http.MethodGet, "/tasks/not-a-uuid", ""), http.StatusBadRequest, "invalid parameter")
}

func TestListTasks(t *testing.T) {
	r := newTestRouter(t)
	t1, t2 := "List-"+uuid.NewString(), "List-"+uuid.NewString()
	createTask(t, r, `{"title":"`+t1+`"}`)
	createTask(t, r, `{"title":"`+t2+`"}`)

	w := do(r, http.MethodGet, "/tasks", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var list []map[string]any
	decode(t, w, &list)
	seen := map[any]bool{}
	for _, task := range list {
		seen[task["title"]] = true
	}
	if !seen[t1] || !seen[t2] {
		t.Fatalf("expected both titles in %v", list)
	}
}

func TestUpdateTask(t *testing.T) {
	r := newTestRouter(t)
	created := createTask(t, r, `{"title":"Old title","description":"Old desc","deadline":"2025-12-31T10:00:00"}`)
	path := "/tasks/" + created["id"].(string)

	w := do(r, http.MethodPut, path, `{"title":"New title"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var got map[string]any
	decode(t, do(r, http.MethodGet, path, ""), &got)
	if got["title"] != "New title" || got["description"] != "Old desc" ||
		got["completed"] != false || got["deadline"] != "2025-12-31T10:00:00" ||
		got["createdAt"] != created["createdAt"] {
		t.Fatalf("unexpected task after title update: %v", got)
	}

	w = do(r, http.MethodPut, path, `{"description":"New desc","completed":true,"deadline":null}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	decode(t, w, &got)
	if got["description"] != "New desc" || got["completed"] != true || got["deadline"] != "2025-12-31T10:00:00" {
		t.Fatalf("unexpected task after second update: %v", got)
	}
}

func TestUpdateTaskErrors(t *testing.T) {
	r := newTestRouter(t)
	created := createTask(t, r, `{"title":"Keep","description":"desc"}`)
	path := "/tasks/" + created["id"].(string)

	expectError(t, do(r, http.MethodPut, path, `{"title":"  ","completed":true}`), http.StatusBadRequest, "title must not be blank")
	expectError(t, do(r, http.MethodPut, path, `{"completed":"yes"}`), http.StatusBadRequest, "malformed json")
	expectError(t, do(r, http.MethodPut, "/tasks/"+uuid.NewString(), `{"title":"x"}`), http.StatusNotFound, "task not found")
	expectError(t, do(r, http.MethodPut, "/tasks/123", `{"title":"x"}`), http.StatusBadRequest, "invalid parameter")

	var got map[string]any
	decode(t, do(r, http.MethodGet, path, ""), &got)
	if got["title"] != "Keep" || got["completed"] != false {
		t.Fatalf("expected unchanged task, got %v", got)
	}
}

func TestDeleteTask(t *testing.T) {
	r := newTestRouter(t)
	created := createTask(t, r, `{"title":"To delete"}`)
	path := "/tasks/" + created["id"].(string)

	w := do(r, http.MethodDelete, path, "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Fatalf("expected empty body, got %q", w.Body.String())
	}
	expectError(t, do(r, http.MethodGet, path, ""), http.StatusNotFound, "task not found")
	expectError(t, do(r, http.MethodDelete, path, ""), http.StatusNotFound, "task not found")
	expectError(t, do(r, http.MethodDelete, "/tasks/nope", ""), http.StatusBadRequest, "invalid parameter")
}

func TestUnmatchedRouteAndInternalErrors(t *testing.T) {
	r := newTestRouter(t)
	expectError(t, do(r, http.MethodGet, "/nothing/here", ""), http.StatusNotFound, "not found")

	w := do(r, http.MethodGet, "/boom", "")
	expectError(t, w, http.StatusInternalServerError, "internal error")
	if strings.Contains(w.Body.String(), "connection reset") {
		t.Fatalf("internal detail leaked: %s", w.Body.String())
	}

	expectError(t, do(r, http.MethodGet, "/panic", ""), http.StatusInternalServerError, "internal error")
}
