package middleware

import (
	"context"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/upb/campus-eats/models"
	"github.com/upb/campus-eats/session"
	"github.com/upb/campus-eats/utils"
	"go.uber.org/zap"
)

// TokenDecoder turns a signed session token into a session id
type TokenDecoder interface {
	Decode(token string) (string, error)
}

// SessionValidator resolves a session id to its user. nil, nil means no session.
type SessionValidator interface {
	Validate(ctx context.Context, sessionID string) (*models.User, error)
}

// SessionMiddleware guards endpoints that need a logged-in user
type SessionMiddleware struct {
	codec      TokenDecoder
	sessions   SessionValidator
	cookieName string
	logger     *zap.Logger
}

// NewSessionMiddleware creates a new SessionMiddleware
func NewSessionMiddleware(codec TokenDecoder, sessions SessionValidator, cookieName string, logger *zap.Logger) *SessionMiddleware {
	return &SessionMiddleware{
		codec:      codec,
		sessions:   sessions,
		cookieName: cookieName,
		logger:     logger,
	}
}

const notAuthenticated = "Not authenticated"

// RequireSession rejects requests without a live session with 401 and never
// calls next for them. On success the user is attached to the request context.
func (m *SessionMiddleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := chimw.GetReqID(ctx)

		token := session.TokenFromRequest(r, session.CookieOptions{Name: m.cookieName})
		if token == "" {
			_ = utils.WriteUnauthorized(w, notAuthenticated)
			return
		}

		sessionID, err := m.codec.Decode(token)
		if err != nil {
			m.logger.Debug("session token rejected",
				zap.String("request_id", requestID),
				zap.Error(err))
			_ = utils.WriteUnauthorized(w, notAuthenticated)
			return
		}

		user, err := m.sessions.Validate(ctx, sessionID)
		if err != nil {
			m.logger.Error("session validation failed",
				zap.String("request_id", requestID),
				zap.Error(err))
			_ = utils.WriteInternalServerError(w, "")
			return
		}
		if user == nil {
			_ = utils.WriteUnauthorized(w, notAuthenticated)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(ctx, user)))
	})
}

// RequireRole allows the request only when the session user holds one of roles.
// It must run after RequireSession.
func (m *SessionMiddleware) RequireRole(roles ...models.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUserFromContext(r.Context())
			if user == nil {
				_ = utils.WriteUnauthorized(w, notAuthenticated)
				return
			}
			if !user.HasRole(roles...) {
				m.logger.Warn("insufficient role",
					zap.String("request_id", chimw.GetReqID(r.Context())),
					zap.String("user_id", user.ID.String()),
					zap.String("role", string(user.Role)))
				_ = utils.WriteForbidden(w, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
