package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/healthybuddy/internal/domain"
	"github.com/dukerupert/healthybuddy/internal/model"
)

type TaskHandler struct {
	store  *domain.Store
	logger *slog.Logger
}

func NewTaskHandler(store *domain.Store, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{store: store, logger: logger}
}

// List returns the family's tasks. ?assignedTo= narrows to one child and
// ?open=true to the tasks still to be done.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		tasks []model.Task
		err   error
	)
	q := r.URL.Query()
	switch {
	case q.Get("assignedTo") != "":
		tasks, err = h.store.TasksFor(r.Context(), q.Get("assignedTo"))
	case q.Get("open") == "true":
		tasks, err = h.store.OpenTasks(r.Context())
	default:
		tasks, err = h.store.Tasks(r.Context())
	}
	if err != nil {
		writeDomainError(w, h.logger, "list tasks", err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// Pending returns submitted tasks awaiting a parent's review.
func (h *TaskHandler) Pending(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.store.PendingReview(r.Context())
	if err != nil {
		writeDomainError(w, h.logger, "list pending tasks", err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	task, err := h.store.Task(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, h.logger, "get task", err)
		return
	}
	if task == nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.NewTask
	if !decodeJSON(w, r, &req, false) {
		return
	}
	task, err := h.store.AddTask(r.Context(), req)
	if err != nil {
		writeDomainError(w, h.logger, "create task", err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

type completeRequest struct {
	Proof string `json:"proof"`
}

func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}
	h.transition(w, r, "complete task", func(id string, opts []domain.MutateOption) (*model.Task, error) {
		return h.store.CompleteTask(r.Context(), id, req.Proof, opts...)
	})
}

func (h *TaskHandler) Decline(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "decline task", func(id string, opts []domain.MutateOption) (*model.Task, error) {
		return h.store.DeclineTask(r.Context(), id, opts...)
	})
}

func (h *TaskHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "approve task", func(id string, opts []domain.MutateOption) (*model.Task, error) {
		return h.store.ApproveTask(r.Context(), id, opts...)
	})
}

func (h *TaskHandler) Archive(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "archive task", func(id string, opts []domain.MutateOption) (*model.Task, error) {
		return h.store.ArchiveTask(r.Context(), id, opts...)
	})
}

func (h *TaskHandler) transition(w http.ResponseWriter, r *http.Request, op string, fn func(string, []domain.MutateOption) (*model.Task, error)) {
	opts, err := mutateOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid If-Match")
		return
	}
	task, err := fn(r.PathValue("id"), opts)
	if err != nil {
		writeDomainError(w, h.logger, op, err)
		return
	}
	if task == nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, task)
}
