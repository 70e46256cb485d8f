package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/healthybuddy/internal/model"
	"github.com/dukerupert/healthybuddy/internal/session"
)

type SessionHandler struct {
	sessions *session.Store
	logger   *slog.Logger
}

func NewSessionHandler(sessions *session.Store, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, logger: logger}
}

type sessionResponse struct {
	User    *model.User `json:"user"`
	Loading bool        `json:"loading"`
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionResponse{
		User:    h.sessions.Current(),
		Loading: h.sessions.Loading(),
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if !h.sessions.Login(r.Context(), req.Username, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{User: h.sessions.Current()})
}

func (h *SessionHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req session.SignupRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if !h.sessions.Signup(r.Context(), req) {
		writeError(w, http.StatusBadRequest, "signup failed")
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{User: h.sessions.Current()})
}

func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Logout(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
