package auth

import (
	"context"

	"github.com/dukerupert/healthybuddy/internal/model"
)

type contextKey struct{}

// AuthContext identifies the session owner for the domain store.
type AuthContext struct {
	UserID   string
	FamilyID string
	Username string
	Role     model.Role
}

// ForUser builds the AuthContext for an identity.
func ForUser(u model.User) AuthContext {
	return AuthContext{
		UserID:   u.ID,
		FamilyID: u.FamilyID,
		Username: u.Username,
		Role:     u.Role,
	}
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func FamilyID(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return ac.FamilyID
}

func UserID(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return ac.UserID
}

func IsParent(ctx context.Context) bool {
	ac, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return ac.Role == model.RoleParent
}
