// Package auth turns the browser's stored credential into a per-request
// session.Context and owns the side effects of a failed session check:
// clearing the token and sending the browser back to the login page.
package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"scrappify-bff/internal/session"
	"scrappify-bff/internal/telemetry"
)

// LoginPath is the entry point a rejected browser is sent to.
const LoginPath = "/"

const deviceIDMaxAge = 5 * 365 * 24 * time.Hour

type Middleware struct {
	guard        *session.Guard
	secureCookie bool
}

func NewMiddleware(guard *session.Guard, secureCookie bool) *Middleware {
	return &Middleware{
		guard:        guard,
		secureCookie: secureCookie,
	}
}

// DeviceID makes sure every browser carries a stable random identifier,
// issuing one on first contact.
func (m *Middleware) DeviceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(session.DeviceIDKey); err != nil || c.Value == "" {
			id := uuid.NewString()
			http.SetCookie(w, m.cookie(session.DeviceIDKey, id, deviceIDMaxAge))
			r.AddCookie(&http.Cookie{Name: session.DeviceIDKey, Value: id})
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSession validates the token and injects the session context.
// Invalid sessions never reach next.
func (m *Middleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := tokenFromRequest(r)
		res := m.guard.Validate(token)
		if !res.Valid {
			slog.Warn("Invalid session", "reason", res.Reason, "path", r.URL.Path)
			telemetry.ObserveSession(string(res.Reason))
			m.Reject(w, r, string(res.Reason))
			return
		}
		telemetry.ObserveSession("valid")

		sc := &session.Context{
			Token:    token,
			DeviceID: deviceIDFromRequest(r),
			Claims:   res.Claims,
		}
		next.ServeHTTP(w, r.WithContext(session.WithContext(r.Context(), sc)))
	})
}

// Reject clears the stored token and redirects navigations to the login
// page; API calls get a 401 telling the UI where to go.
func (m *Middleware) Reject(w http.ResponseWriter, r *http.Request, reason string) {
	m.ClearToken(w)

	if strings.Contains(r.Header.Get("Accept"), "text/html") {
		http.Redirect(w, r, LoginPath, http.StatusSeeOther)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":    "session invalid",
		"reason":   reason,
		"redirect": LoginPath,
	})
}

// SetToken stores a backend-issued token. The cookie lives as long as the
// token's own expiry.
func (m *Middleware) SetToken(w http.ResponseWriter, token string, claims *session.Claims) {
	maxAge := time.Until(claims.ExpiresAt())
	if maxAge < time.Second {
		maxAge = time.Second
	}
	http.SetCookie(w, m.cookie(session.TokenKey, token, maxAge))
}

func (m *Middleware) ClearToken(w http.ResponseWriter) {
	c := m.cookie(session.TokenKey, "", 0)
	c.MaxAge = -1
	http.SetCookie(w, c)
}

func (m *Middleware) cookie(name, value string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   m.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

func tokenFromRequest(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if c, err := r.Cookie(session.TokenKey); err == nil {
		return c.Value
	}
	return ""
}

func deviceIDFromRequest(r *http.Request) string {
	if id := r.Header.Get("X-Device-ID"); id != "" {
		return id
	}
	if c, err := r.Cookie(session.DeviceIDKey); err == nil {
		return c.Value
	}
	return ""
}
