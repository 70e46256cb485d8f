package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukerupert/healthybuddy/internal/auth"
	"github.com/dukerupert/healthybuddy/internal/model"
)

type fakeSessions struct {
	ac *auth.AuthContext
}

func (f fakeSessions) Context(ctx context.Context) (context.Context, bool) {
	if f.ac == nil {
		return ctx, false
	}
	return auth.WithAuth(ctx, *f.ac), true
}

func TestRequireSessionNoSession(t *testing.T) {
	handler := RequireSession(fakeSessions{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	req := httptest.NewRequest("GET", "/api/tasks", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] == "" {
		t.Error("expected error message in body")
	}
}

func TestRequireSessionValid(t *testing.T) {
	ac := auth.AuthContext{UserID: "1", FamilyID: "family-1", Username: "parent1", Role: model.RoleParent}

	var got auth.AuthContext
	handler := RequireSession(fakeSessions{ac: &ac})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ok bool
		got, ok = auth.FromContext(r.Context())
		if !ok {
			t.Fatal("expected AuthContext in request context")
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/tasks", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got != ac {
		t.Errorf("AuthContext = %+v, want %+v", got, ac)
	}
}
