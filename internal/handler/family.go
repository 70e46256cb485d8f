package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/healthybuddy/internal/auth"
	"github.com/dukerupert/healthybuddy/internal/model"
)

type FamilyHandler struct {
	members auth.MemberLister
	logger  *slog.Logger
}

func NewFamilyHandler(members auth.MemberLister, logger *slog.Logger) *FamilyHandler {
	return &FamilyHandler{members: members, logger: logger}
}

type familyMember struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	DisplayName string     `json:"displayName"`
	Role        model.Role `json:"role"`
	Email       string     `json:"email,omitempty"`
	Self        bool       `json:"self"`
}

// List returns the accounts in the caller's family. Emails are only shown
// to parents.
func (h *FamilyHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	familyID := auth.FamilyID(ctx)
	if familyID == "" {
		writeError(w, http.StatusUnauthorized, "not logged in")
		return
	}
	users, err := h.members.ListByFamily(ctx, familyID)
	if err != nil {
		h.logger.Error("list family", "family_id", familyID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list family")
		return
	}

	self := auth.UserID(ctx)
	showEmail := auth.IsParent(ctx)
	members := make([]familyMember, 0, len(users))
	for _, u := range users {
		m := familyMember{
			ID:          u.ID,
			Username:    u.Username,
			DisplayName: u.DisplayName(),
			Role:        u.Role,
			Self:        u.ID == self,
		}
		if showEmail {
			m.Email = u.Email
		}
		members = append(members, m)
	}
	writeJSON(w, http.StatusOK, members)
}
