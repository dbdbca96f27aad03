// Package auth serves the browser side of the OpenID Connect login flow.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/upb/campus-eats/config"
	"github.com/upb/campus-eats/idp"
	"github.com/upb/campus-eats/internal/observability"
	"github.com/upb/campus-eats/models"
	"github.com/upb/campus-eats/services"
	"github.com/upb/campus-eats/session"
	"github.com/upb/campus-eats/utils"
	"go.uber.org/zap"
)

const (
	// StateCookieName is the cookie name for OAuth state (CSRF)
	StateCookieName = "oidc_state"
	// NonceCookieName binds the id token to this browser
	NonceCookieName = "oidc_nonce"
	handshakeMaxAge = 600

	// SessionQueryParam carries the session token to cross-origin frontends
	SessionQueryParam = "session"
)

// Failure codes appended to the login-failed redirect
const (
	FailureIssuerRejected    = "issuer_rejected"
	FailureMissingIdentifier = "missing_identifier"
	FailureInvalidState      = "invalid_state"
	FailureServerError       = "server_error"
)

// IdentityProvider runs the authorization-code handshake
type IdentityProvider interface {
	AuthCodeURL(state, nonce string) string
	Complete(ctx context.Context, code, nonce string) (*idp.ExternalIdentity, error)
}

// IdentityResolver maps an external identity to a local user
type IdentityResolver interface {
	Resolve(ctx context.Context, identity *idp.ExternalIdentity) (*models.User, error)
}

// SessionAuthority issues and destroys sessions
type SessionAuthority interface {
	Establish(ctx context.Context, userID uuid.UUID) (*session.Session, error)
	Destroy(ctx context.Context, sessionID string) error
}

// TokenCodec signs and verifies session tokens
type TokenCodec interface {
	Encode(s *session.Session) (string, error)
	Decode(token string) (string, error)
}

// Handler handles the login, callback and logout endpoints
type Handler struct {
	oidc      config.OIDCConfig
	sess      config.SessionConfig
	provider  IdentityProvider
	directory IdentityResolver
	sessions  SessionAuthority
	codec     TokenCodec
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewHandler creates a new auth handler. provider may be nil when the identity
// provider is not configured; login then fails with 500.
func NewHandler(
	cfg *config.Config,
	provider IdentityProvider,
	directory IdentityResolver,
	sessions SessionAuthority,
	codec TokenCodec,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		oidc:      cfg.OIDC,
		sess:      cfg.Session,
		provider:  provider,
		directory: directory,
		sessions:  sessions,
		codec:     codec,
		metrics:   metrics,
		logger:    logger,
	}
}

// HandleLogin stores state and nonce cookies and redirects to the identity provider
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		h.logger.Error("identity provider not configured")
		_ = utils.WriteInternalServerError(w, "Authentication not configured")
		return
	}

	state, err := generateSecureState()
	if err != nil {
		h.logger.Error("failed to generate state", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to initiate login")
		return
	}
	nonce, err := generateSecureState()
	if err != nil {
		h.logger.Error("failed to generate nonce", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to initiate login")
		return
	}

	h.setHandshakeCookie(w, StateCookieName, state, handshakeMaxAge)
	h.setHandshakeCookie(w, NonceCookieName, nonce, handshakeMaxAge)

	http.Redirect(w, r, h.provider.AuthCodeURL(state, nonce), http.StatusFound)
}

// HandleCallback completes the handshake, resolves the local user, establishes a
// session and redirects to the frontend. Any failure redirects to the
// login-failed URL with an error code.
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.WithRequestID(ctx, h.logger)

	if h.provider == nil {
		logger.Error("identity provider not configured")
		h.fail(w, r, FailureServerError, observability.LoginError)
		return
	}

	// FormValue reads both the query string and a form_post body
	state := r.FormValue("state")
	code := r.FormValue("code")
	providerErr := r.FormValue("error")

	stateCookie, stateErr := r.Cookie(StateCookieName)
	nonceCookie, nonceErr := r.Cookie(NonceCookieName)
	h.setHandshakeCookie(w, StateCookieName, "", -1)
	h.setHandshakeCookie(w, NonceCookieName, "", -1)

	if providerErr != "" {
		err := idp.Rejected(providerErr, r.FormValue("error_description"))
		logger.Warn("identity provider returned an error", zap.Error(err))
		h.fail(w, r, FailureIssuerRejected, observability.LoginRejected)
		return
	}

	if state == "" || stateErr != nil || stateCookie.Value != state || nonceErr != nil || nonceCookie.Value == "" {
		logger.Warn("invalid or expired login state")
		h.fail(w, r, FailureInvalidState, observability.LoginRejected)
		return
	}

	identity, err := h.provider.Complete(ctx, code, nonceCookie.Value)
	if err != nil {
		logger.Warn("authentication handshake failed", zap.Error(err))
		h.failWith(w, r, err)
		return
	}

	user, err := h.directory.Resolve(ctx, identity)
	if err != nil {
		logger.Error("failed to resolve local user",
			zap.String("issuer", identity.Issuer),
			zap.Error(err))
		h.failWith(w, r, err)
		return
	}

	sess, err := h.sessions.Establish(ctx, user.ID)
	if err != nil {
		logger.Error("failed to establish session", zap.Error(err))
		h.failWith(w, r, err)
		return
	}

	token, err := h.codec.Encode(sess)
	if err != nil {
		logger.Error("failed to sign session token", zap.Error(err))
		h.fail(w, r, FailureServerError, observability.LoginError)
		return
	}

	session.SetCookie(w, token, sess.ExpiresAt, h.cookieOptions())
	h.metrics.RecordLogin(observability.LoginSucceeded)
	logger.Info("login succeeded",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)))

	target := h.oidc.FrontEndURL
	if h.sess.InRedirect {
		target = withQuery(target, SessionQueryParam, token)
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// HandleLogout destroys the current session, clears the cookie and redirects to the frontend
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.WithRequestID(ctx, h.logger)

	token := session.TokenFromRequest(r, h.cookieOptions())
	if token != "" {
		if sessionID, err := h.codec.Decode(token); err == nil {
			if err := h.sessions.Destroy(ctx, sessionID); err != nil {
				logger.Error("failed to destroy session", zap.Error(err))
			}
		}
	}

	session.ClearCookie(w, h.cookieOptions())
	http.Redirect(w, r, h.oidc.FrontEndURL, http.StatusFound)
}

func (h *Handler) failWith(w http.ResponseWriter, r *http.Request, err error) {
	switch services.GetErrorType(err) {
	case services.ErrorTypeExternal:
		h.fail(w, r, FailureIssuerRejected, observability.LoginRejected)
	case services.ErrorTypeValidation:
		h.fail(w, r, FailureMissingIdentifier, observability.LoginInvalid)
	default:
		h.fail(w, r, FailureServerError, observability.LoginError)
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, code, result string) {
	h.metrics.RecordLogin(result)
	http.Redirect(w, r, withQuery(h.oidc.LoginFailed, "error", code), http.StatusFound)
}

func (h *Handler) cookieOptions() session.CookieOptions {
	return session.CookieOptions{
		Name:   h.sess.CookieName,
		Secure: h.oidc.SecureCookies(),
	}
}

// setHandshakeCookie writes a short-lived state or nonce cookie. A form_post
// callback is a cross-site POST, so the cookie must be SameSite=None there.
func (h *Handler) setHandshakeCookie(w http.ResponseWriter, name, value string, maxAge int) {
	sameSite := http.SameSiteLaxMode
	secure := h.oidc.SecureCookies()
	if h.oidc.ResponseMode == config.ResponseModeFormPost {
		sameSite = http.SameSiteNoneMode
		secure = true
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	})
}

func withQuery(target, key, value string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}

func generateSecureState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
