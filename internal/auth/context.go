package auth

import (
	"context"

	"github.com/dukerupert/pagequest/internal/model"
)

type contextKey struct{}

// AuthContext identifies the caller. SessionID is set for cookie sessions,
// DeviceTokenID for device bearer tokens.
type AuthContext struct {
	UserID        int64
	Role          model.Role
	ParentID      *int64
	SessionID     int64
	DeviceTokenID int64
}

// FromUser builds the context for an authenticated user.
func FromUser(u *model.User) AuthContext {
	return AuthContext{UserID: u.ID, Role: u.Role, ParentID: u.ParentID}
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func UserID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.UserID
}

func IsParent(ctx context.Context) bool {
	ac, ok := FromContext(ctx)
	return ok && ac.Role == model.RoleParent
}

func IsChild(ctx context.Context) bool {
	ac, ok := FromContext(ctx)
	return ok && ac.Role == model.RoleChild
}

// FamilyID is the ID of the parent that scopes the caller's family: the
// caller itself for a parent, the linked parent for a child. Unlinked
// children have no family and get 0.
func FamilyID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	if ac.Role == model.RoleParent {
		return ac.UserID
	}
	if ac.ParentID != nil {
		return *ac.ParentID
	}
	return 0
}
