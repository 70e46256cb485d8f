package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukerupert/healthybuddy/internal/auth"
	"github.com/dukerupert/healthybuddy/internal/database"
	"github.com/dukerupert/healthybuddy/internal/domain"
	"github.com/dukerupert/healthybuddy/internal/model"
	"github.com/dukerupert/healthybuddy/internal/session"
	"github.com/dukerupert/healthybuddy/internal/store"
	ws "github.com/dukerupert/healthybuddy/internal/websocket"
)

func setupServer(t *testing.T) http.Handler {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	accounts := store.NewAccountStore(db)
	if err := accounts.SeedDemo(context.Background()); err != nil {
		t.Fatalf("seed demo: %v", err)
	}
	hub := ws.NewHub(logger)
	sessions := session.New(session.Config{}, store.NewKVStore(db), accounts, hub, logger)
	tasks := domain.New(domain.Config{}, hub, logger)
	return New(db, sessions, tasks, accounts, hub, logger).Router()
}

func do(t *testing.T, h http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func login(t *testing.T, h http.Handler, username string) {
	t.Helper()
	rec := do(t, h, "POST", "/api/session/login", map[string]string{"username": username, "password": auth.DemoPassword})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status = %d, body = %s", username, rec.Code, rec.Body.String())
	}
}

func TestHealth(t *testing.T) {
	h := setupServer(t)
	rec := do(t, h, "GET", "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decode[map[string]string](t, rec); got["status"] != "ok" {
		t.Errorf("body = %v", got)
	}
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	h := setupServer(t)
	for _, path := range []string{"/api/tasks", "/api/rewards", "/api/children", "/api/progress", "/api/family", "/ws"} {
		if rec := do(t, h, "GET", path, nil); rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s: status = %d, want 401", path, rec.Code)
		}
	}
}

func TestLoginFailure(t *testing.T) {
	h := setupServer(t)
	rec := do(t, h, "POST", "/api/session/login", map[string]string{"username": "parent1", "password": "nope"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}

	got := decode[struct {
		User *model.User `json:"user"`
	}](t, do(t, h, "GET", "/api/session", nil))
	if got.User != nil {
		t.Errorf("user = %+v, want none", got.User)
	}
}

func TestSessionLifecycle(t *testing.T) {
	h := setupServer(t)

	rec := do(t, h, "POST", "/api/session/signup", map[string]string{
		"username": "dad",
		"email":    "dad@example.com",
		"password": "hunter22",
		"role":     "parent",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	got := decode[struct {
		User    *model.User `json:"user"`
		Loading bool        `json:"loading"`
	}](t, do(t, h, "GET", "/api/session", nil))
	if got.User == nil || got.User.Username != "dad" || got.User.ID == "" || got.User.FamilyID == "" {
		t.Fatalf("session user = %+v", got.User)
	}
	if got.Loading {
		t.Error("loading should be false at rest")
	}

	if rec := do(t, h, "GET", "/api/tasks", nil); rec.Code != http.StatusOK {
		t.Errorf("tasks while signed in: status = %d", rec.Code)
	}
	if rec := do(t, h, "POST", "/api/session/logout", nil); rec.Code != http.StatusNoContent {
		t.Errorf("logout: status = %d", rec.Code)
	}
	if rec := do(t, h, "GET", "/api/tasks", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("tasks after logout: status = %d, want 401", rec.Code)
	}

	// The new account can log in again.
	rec = do(t, h, "POST", "/api/session/login", map[string]string{"username": "dad", "password": "hunter22"})
	if rec.Code != http.StatusOK {
		t.Errorf("re-login: status = %d", rec.Code)
	}
}

func TestSignupInvalid(t *testing.T) {
	h := setupServer(t)
	rec := do(t, h, "POST", "/api/session/signup", map[string]string{"username": "x", "email": "not-an-email", "password": "p", "role": "parent"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestTaskReviewFlow(t *testing.T) {
	h := setupServer(t)
	login(t, h, "parent1")

	rec := do(t, h, "POST", "/api/tasks", map[string]string{
		"title":         "Eat vegetables",
		"assignedTo":    "c1",
		"rewardId":      "r1",
		"proofRequired": "none",
		"recurrence":    "daily",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	task := decode[model.Task](t, rec)
	if task.Completed || len(task.CompletedDates) != 0 || task.FamilyID != auth.DemoFamilyID {
		t.Fatalf("created task = %+v", task)
	}

	rec = do(t, h, "POST", "/api/tasks/"+task.ID+"/complete", map[string]string{"proof": "photo://42"})
	if rec.Code != http.StatusOK {
		t.Fatalf("complete: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	done := decode[model.Task](t, rec)
	if !done.Completed || len(done.CompletedDates) != 1 || done.Status != model.TaskSubmitted {
		t.Fatalf("completed task = %+v", done)
	}

	pending := decode[[]model.Task](t, do(t, h, "GET", "/api/tasks/pending", nil))
	if len(pending) != 1 || pending[0].ID != task.ID {
		t.Errorf("pending = %+v", pending)
	}

	rec = do(t, h, "POST", "/api/tasks/"+task.ID+"/approve", nil, "If-Match", `"1"`)
	if rec.Code != http.StatusConflict {
		t.Errorf("stale approve: status = %d, want 409", rec.Code)
	}
	rec = do(t, h, "POST", "/api/tasks/"+task.ID+"/approve", nil, "If-Match", `"2"`)
	if rec.Code != http.StatusOK {
		t.Fatalf("approve: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := decode[model.Task](t, rec); got.Status != model.TaskApproved {
		t.Errorf("status = %s, want approved", got.Status)
	}

	if rec := do(t, h, "POST", "/api/tasks/"+task.ID+"/decline", nil, "If-Match", "soon"); rec.Code != http.StatusBadRequest {
		t.Errorf("bad If-Match: status = %d, want 400", rec.Code)
	}
	if rec := do(t, h, "POST", "/api/tasks/missing/complete", nil); rec.Code != http.StatusNotFound {
		t.Errorf("complete missing: status = %d, want 404", rec.Code)
	}
	if rec := do(t, h, "GET", "/api/tasks/missing", nil); rec.Code != http.StatusNotFound {
		t.Errorf("get missing: status = %d, want 404", rec.Code)
	}

	summary := decode[struct {
		Daily    []map[string]any `json:"daily"`
		Approved int              `json:"approved"`
	}](t, do(t, h, "GET", "/api/progress", nil))
	if len(summary.Daily) != 1 || summary.Approved != 1 {
		t.Errorf("progress = %+v", summary)
	}
}

func TestCreateTaskValidation(t *testing.T) {
	h := setupServer(t)
	login(t, h, "parent1")

	rec := do(t, h, "POST", "/api/tasks", map[string]string{"assignedTo": "c1", "recurrence": "hourly"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	body := decode[struct {
		Fields map[string]string `json:"fields"`
	}](t, rec)
	if body.Fields["title"] != "required" || body.Fields["recurrence"] != "enum" {
		t.Errorf("fields = %v", body.Fields)
	}

	req := httptest.NewRequest("POST", "/api/tasks", bytes.NewBufferString("{not json"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("malformed JSON: status = %d, want 400", rr.Code)
	}
}

func TestChildCannotManage(t *testing.T) {
	h := setupServer(t)
	login(t, h, "child1")

	if rec := do(t, h, "POST", "/api/tasks", map[string]string{"title": "x", "assignedTo": "c1"}); rec.Code != http.StatusForbidden {
		t.Errorf("child create task: status = %d, want 403", rec.Code)
	}
	if rec := do(t, h, "POST", "/api/rewards", map[string]string{"title": "x"}); rec.Code != http.StatusForbidden {
		t.Errorf("child create reward: status = %d, want 403", rec.Code)
	}
}

func TestRewardsAndChildren(t *testing.T) {
	h := setupServer(t)
	login(t, h, "parent1")

	rec := do(t, h, "POST", "/api/rewards", map[string]string{"title": "Park trip", "description": "Saturday"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create reward: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	reward := decode[model.Reward](t, rec)
	if reward.CreatedBy != "1" {
		t.Errorf("createdBy = %q, want session owner 1", reward.CreatedBy)
	}
	if rec := do(t, h, "PUT", "/api/rewards/"+reward.ID, map[string]string{"title": "Zoo trip"}); rec.Code != http.StatusOK {
		t.Errorf("update reward: status = %d", rec.Code)
	}
	rec = do(t, h, "GET", "/api/rewards/"+reward.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get reward: status = %d", rec.Code)
	}
	if got := decode[model.Reward](t, rec); got.Title != "Zoo trip" {
		t.Errorf("reward title = %q, want Zoo trip", got.Title)
	}
	if rec := do(t, h, "DELETE", "/api/rewards/"+reward.ID, nil); rec.Code != http.StatusNoContent {
		t.Errorf("delete reward: status = %d", rec.Code)
	}
	if rec := do(t, h, "DELETE", "/api/rewards/"+reward.ID, nil); rec.Code != http.StatusNotFound {
		t.Errorf("delete reward twice: status = %d, want 404", rec.Code)
	}
	if rec := do(t, h, "GET", "/api/rewards/"+reward.ID, nil); rec.Code != http.StatusNotFound {
		t.Errorf("get deleted reward: status = %d, want 404", rec.Code)
	}

	rec = do(t, h, "POST", "/api/children", map[string]any{"name": "Alex", "age": 8})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create child: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	child := decode[model.Child](t, rec)

	children := decode[[]model.Child](t, do(t, h, "GET", "/api/children", nil))
	if len(children) != 1 || children[0].ParentID != "1" {
		t.Errorf("children = %+v", children)
	}

	rec = do(t, h, "GET", "/api/children/"+child.ID+"/screen-time", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("screen time: status = %d", rec.Code)
	}
	if st := decode[map[string]any](t, rec); st["blocked"] != false {
		t.Errorf("screen time = %v, want unblocked", st)
	}
	if rec := do(t, h, "GET", "/api/children/missing/screen-time", nil); rec.Code != http.StatusNotFound {
		t.Errorf("screen time missing: status = %d, want 404", rec.Code)
	}
}

func TestFamilyMembers(t *testing.T) {
	h := setupServer(t)

	type member struct {
		ID          string `json:"id"`
		DisplayName string `json:"displayName"`
		Email       string `json:"email"`
		Self        bool   `json:"self"`
	}

	login(t, h, "parent1")
	members := decode[[]member](t, do(t, h, "GET", "/api/family", nil))
	if len(members) != 2 {
		t.Fatalf("members = %+v, want 2", members)
	}
	byID := map[string]member{}
	for _, m := range members {
		byID[m.ID] = m
	}
	if p := byID["1"]; p.DisplayName != "Super Mom" || !p.Self || p.Email != "parent1@example.com" {
		t.Errorf("parent as seen by parent = %+v", p)
	}
	if c := byID["2"]; c.DisplayName != "Alex" || c.Self || c.Email != "child1@example.com" {
		t.Errorf("child as seen by parent = %+v", c)
	}

	do(t, h, "POST", "/api/session/logout", nil)
	login(t, h, "child1")
	members = decode[[]member](t, do(t, h, "GET", "/api/family", nil))
	for _, m := range members {
		if m.Email != "" {
			t.Errorf("child sees email for %s", m.ID)
		}
		if m.Self != (m.ID == "2") {
			t.Errorf("self flag on %s = %v", m.ID, m.Self)
		}
	}
}

func TestLoginRateLimited(t *testing.T) {
	h := setupServer(t)
	var last int
	for i := 0; i <= authAttemptLimit; i++ {
		last = do(t, h, "POST", "/api/session/login", map[string]string{"username": "parent1", "password": "wrong"}).Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("attempt %d: status = %d, want 429", authAttemptLimit+1, last)
	}
}
