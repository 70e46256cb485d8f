package server

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/healthybuddy/internal/auth"
	"github.com/dukerupert/healthybuddy/internal/domain"
	"github.com/dukerupert/healthybuddy/internal/handler"
	"github.com/dukerupert/healthybuddy/internal/middleware"
	"github.com/dukerupert/healthybuddy/internal/session"
	ws "github.com/dukerupert/healthybuddy/internal/websocket"
)

const (
	authAttemptLimit  = 10
	authAttemptWindow = time.Minute
)

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	sessions    *session.Store
	sessionH    *handler.SessionHandler
	taskH       *handler.TaskHandler
	rewardH     *handler.RewardHandler
	childH      *handler.ChildHandler
	progressH   *handler.ProgressHandler
	familyH     *handler.FamilyHandler
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

// New wires the handlers around the two stores. db is only used by the
// health check and may be nil. members backs the family listing.
func New(db *sql.DB, sessions *session.Store, store *domain.Store, members auth.MemberLister, hub *ws.Hub, logger *slog.Logger) *Server {
	httpLogger := logger.With("component", "http")
	return &Server{
		db:          db,
		hub:         hub,
		sessions:    sessions,
		sessionH:    handler.NewSessionHandler(sessions, httpLogger),
		taskH:       handler.NewTaskHandler(store, httpLogger),
		rewardH:     handler.NewRewardHandler(store, httpLogger),
		childH:      handler.NewChildHandler(store, httpLogger),
		progressH:   handler.NewProgressHandler(store, httpLogger),
		familyH:     handler.NewFamilyHandler(members, httpLogger),
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
}

func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.HandleFunc("GET /api/session", s.sessionH.Get)
	outerMux.Handle("POST /api/session/login", s.rateLimited("login", s.sessionH.Login))
	outerMux.Handle("POST /api/session/signup", s.rateLimited("signup", s.sessionH.Signup))
	outerMux.HandleFunc("POST /api/session/logout", s.sessionH.Logout)

	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)
	outerMux.Handle("/", middleware.RequireSession(s.sessions)(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			s.logger.Error("health check", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
	}
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) rateLimited(prefix string, h http.HandlerFunc) http.Handler {
	return middleware.RateLimit(s.rateLimiter, middleware.ByIP(prefix), authAttemptLimit, authAttemptWindow)(h)
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Tasks
	mux.HandleFunc("GET /api/tasks", s.taskH.List)
	mux.HandleFunc("POST /api/tasks", s.taskH.Create)
	mux.HandleFunc("GET /api/tasks/pending", s.taskH.Pending)
	mux.HandleFunc("GET /api/tasks/{id}", s.taskH.Get)
	mux.HandleFunc("POST /api/tasks/{id}/complete", s.taskH.Complete)
	mux.HandleFunc("POST /api/tasks/{id}/decline", s.taskH.Decline)
	mux.HandleFunc("POST /api/tasks/{id}/approve", s.taskH.Approve)
	mux.HandleFunc("POST /api/tasks/{id}/archive", s.taskH.Archive)

	// Rewards
	mux.HandleFunc("GET /api/rewards", s.rewardH.List)
	mux.HandleFunc("POST /api/rewards", s.rewardH.Create)
	mux.HandleFunc("GET /api/rewards/{id}", s.rewardH.Get)
	mux.HandleFunc("PUT /api/rewards/{id}", s.rewardH.Update)
	mux.HandleFunc("DELETE /api/rewards/{id}", s.rewardH.Delete)

	// Children
	mux.HandleFunc("GET /api/children", s.childH.List)
	mux.HandleFunc("POST /api/children", s.childH.Create)
	mux.HandleFunc("PUT /api/children/{id}", s.childH.Update)
	mux.HandleFunc("DELETE /api/children/{id}", s.childH.Delete)
	mux.HandleFunc("GET /api/children/{id}/screen-time", s.childH.ScreenTime)

	mux.HandleFunc("GET /api/progress", s.progressH.Get)
	mux.HandleFunc("GET /api/family", s.familyH.List)

	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))
}
