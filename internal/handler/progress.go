package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/healthybuddy/internal/domain"
	"github.com/dukerupert/healthybuddy/internal/model"
	"github.com/dukerupert/healthybuddy/internal/progress"
)

type ProgressHandler struct {
	store  *domain.Store
	logger *slog.Logger
	now    func() time.Time
}

func NewProgressHandler(store *domain.Store, logger *slog.Logger) *ProgressHandler {
	return &ProgressHandler{store: store, logger: logger, now: time.Now}
}

// Get summarises daily and weekly progress, optionally for one child
// (?childId=).
func (h *ProgressHandler) Get(w http.ResponseWriter, r *http.Request) {
	var (
		tasks []model.Task
		err   error
	)
	if childID := r.URL.Query().Get("childId"); childID != "" {
		tasks, err = h.store.TasksFor(r.Context(), childID)
	} else {
		tasks, err = h.store.Tasks(r.Context())
	}
	if err != nil {
		writeDomainError(w, h.logger, "load progress", err)
		return
	}
	writeJSON(w, http.StatusOK, progress.Summarize(tasks, h.now()))
}
