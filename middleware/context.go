package middleware

import (
	"context"

	"github.com/upb/campus-eats/models"
)

// Context key type to avoid collisions
type contextKey string

const (
	// UserKey is the context key for the authenticated user
	UserKey contextKey = "user"
)

// GetUserFromContext retrieves the authenticated user from context
func GetUserFromContext(ctx context.Context) *models.User {
	if val := ctx.Value(UserKey); val != nil {
		if user, ok := val.(*models.User); ok {
			return user
		}
	}
	return nil
}

// WithUser adds the authenticated user to the context
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}
