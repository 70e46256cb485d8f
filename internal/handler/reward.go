package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/healthybuddy/internal/domain"
)

type RewardHandler struct {
	store  *domain.Store
	logger *slog.Logger
}

func NewRewardHandler(store *domain.Store, logger *slog.Logger) *RewardHandler {
	return &RewardHandler{store: store, logger: logger}
}

func (h *RewardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.NewReward
	if !decodeJSON(w, r, &req, false) {
		return
	}
	reward, err := h.store.AddReward(r.Context(), req)
	if err != nil {
		writeDomainError(w, h.logger, "create reward", err)
		return
	}
	writeJSON(w, http.StatusCreated, reward)
}

func (h *RewardHandler) List(w http.ResponseWriter, r *http.Request) {
	rewards, err := h.store.Rewards(r.Context())
	if err != nil {
		writeDomainError(w, h.logger, "list rewards", err)
		return
	}
	writeJSON(w, http.StatusOK, rewards)
}

func (h *RewardHandler) Get(w http.ResponseWriter, r *http.Request) {
	reward, err := h.store.Reward(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, h.logger, "get reward", err)
		return
	}
	if reward == nil {
		writeError(w, http.StatusNotFound, "reward not found")
		return
	}
	writeJSON(w, http.StatusOK, reward)
}

func (h *RewardHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.NewReward
	if !decodeJSON(w, r, &req, false) {
		return
	}
	reward, err := h.store.UpdateReward(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeDomainError(w, h.logger, "update reward", err)
		return
	}
	if reward == nil {
		writeError(w, http.StatusNotFound, "reward not found")
		return
	}
	writeJSON(w, http.StatusOK, reward)
}

func (h *RewardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ok, err := h.store.DeleteReward(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, h.logger, "delete reward", err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "reward not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
