package session

import (
	"net/http"
	"strings"
	"time"
)

// CookieOptions controls how the session cookie is issued
type CookieOptions struct {
	Name     string
	Path     string
	Secure   bool
	SameSite http.SameSite
}

func (o CookieOptions) normalize() CookieOptions {
	if o.Name == "" {
		o.Name = "campus_session"
	}
	if o.Path == "" {
		o.Path = "/"
	}
	if o.SameSite == 0 {
		o.SameSite = http.SameSiteLaxMode
	}
	return o
}

// SetCookie issues the session cookie carrying token
func SetCookie(w http.ResponseWriter, token string, expiresAt time.Time, opts CookieOptions) {
	opts = opts.normalize()
	http.SetCookie(w, &http.Cookie{
		Name:     opts.Name,
		Value:    token,
		Path:     opts.Path,
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	})
}

// ClearCookie removes the session cookie from the client
func ClearCookie(w http.ResponseWriter, opts CookieOptions) {
	opts = opts.normalize()
	http.SetCookie(w, &http.Cookie{
		Name:     opts.Name,
		Value:    "",
		Path:     opts.Path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	})
}

// TokenFromCookie returns the session cookie value, or "" when absent
func TokenFromCookie(r *http.Request, opts CookieOptions) string {
	c, err := r.Cookie(opts.normalize().Name)
	if err != nil {
		return ""
	}
	return c.Value
}

// TokenFromRequest returns the bearer token from the Authorization header,
// falling back to the session cookie. The scheme is matched case-insensitively.
func TokenFromRequest(r *http.Request, opts CookieOptions) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		if token = strings.TrimSpace(token); token != "" {
			return token
		}
	}
	return TokenFromCookie(r, opts)
}
