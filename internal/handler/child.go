package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/healthybuddy/internal/domain"
	"github.com/dukerupert/healthybuddy/internal/screentime"
)

type ChildHandler struct {
	store  *domain.Store
	logger *slog.Logger
	now    func() time.Time
}

func NewChildHandler(store *domain.Store, logger *slog.Logger) *ChildHandler {
	return &ChildHandler{store: store, logger: logger, now: time.Now}
}

func (h *ChildHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.NewChild
	if !decodeJSON(w, r, &req, false) {
		return
	}
	child, err := h.store.AddChild(r.Context(), req)
	if err != nil {
		writeDomainError(w, h.logger, "create child", err)
		return
	}
	writeJSON(w, http.StatusCreated, child)
}

func (h *ChildHandler) List(w http.ResponseWriter, r *http.Request) {
	children, err := h.store.Children(r.Context())
	if err != nil {
		writeDomainError(w, h.logger, "list children", err)
		return
	}
	writeJSON(w, http.StatusOK, children)
}

func (h *ChildHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.NewChild
	if !decodeJSON(w, r, &req, false) {
		return
	}
	child, err := h.store.UpdateChild(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeDomainError(w, h.logger, "update child", err)
		return
	}
	if child == nil {
		writeError(w, http.StatusNotFound, "child not found")
		return
	}
	writeJSON(w, http.StatusOK, child)
}

func (h *ChildHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ok, err := h.store.DeleteChild(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, h.logger, "delete child", err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "child not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ScreenTime reports whether the child's screen time is blocked right now
// and, if so, until when.
func (h *ChildHandler) ScreenTime(w http.ResponseWriter, r *http.Request) {
	child, err := h.store.Child(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, h.logger, "get child", err)
		return
	}
	if child == nil {
		writeError(w, http.StatusNotFound, "child not found")
		return
	}
	st, err := screentime.Evaluate(child.ScreenTimeBlock, h.now())
	if err != nil {
		h.logger.Warn("malformed screen-time block", "child_id", child.ID, "error", err)
		st = screentime.Status{}
	}
	writeJSON(w, http.StatusOK, st)
}
