package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"scrappify-bff/internal/auth"
	"scrappify-bff/internal/services"
	"scrappify-bff/internal/session"
)

// HomePath is where a freshly authenticated browser lands.
const HomePath = "/homepage"

type userView struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Email          string       `json:"email"`
	Plan           session.Plan `json:"plan"`
	ProfilePicture string       `json:"profilePicture,omitempty"`
	ExpiresAt      time.Time    `json:"expiresAt"`
}

func newUserView(c *session.Claims) userView {
	return userView{
		ID:             c.SubjectID(),
		Name:           c.Name,
		Email:          c.Email,
		Plan:           c.Plan,
		ProfilePicture: c.ProfilePicture,
		ExpiresAt:      c.ExpiresAt().UTC(),
	}
}

// storeToken checks a backend-issued token with the guard before handing
// it to the browser, so a bad token is never persisted.
func (h *Handler) storeToken(w http.ResponseWriter, token string) (*session.Claims, bool) {
	res := h.guard.Validate(token)
	if !res.Valid {
		slog.Error("Backend issued an unusable token", "reason", res.Reason)
		return nil, false
	}
	h.auth.SetToken(w, token, res.Claims)
	return res.Claims, true
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	token, err := h.svc.Login(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		h.credentialsError(w, r, err)
		return
	}

	claims, ok := h.storeToken(w, token)
	if !ok {
		writeError(w, http.StatusBadGateway, "invalid token from authentication service")
		return
	}

	slog.Info("User logged in", "user_id", claims.SubjectID())
	writeJSON(w, http.StatusOK, map[string]any{
		"user":     newUserView(claims),
		"redirect": HomePath,
	})
}

// credentialsError keeps a rejected password (401 upstream) from being
// treated as an expired session.
func (h *Handler) credentialsError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, services.ErrUnauthorized) {
		writeError(w, http.StatusUnauthorized, messageOr(err, "invalid credentials"))
		return
	}
	h.upstreamError(w, r, err)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.Registration
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "name, email and password are required")
		return
	}

	msg, err := h.svc.Register(r.Context(), req)
	if err != nil {
		h.credentialsError(w, r, err)
		return
	}
	if msg == "" {
		msg = "registered"
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": msg})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.auth.ClearToken(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}

	res, err := h.svc.VerifyEmail(r.Context(), token)
	if err != nil {
		h.credentialsError(w, r, err)
		return
	}
	if res.NewToken != "" {
		if _, ok := h.storeToken(w, res.NewToken); !ok {
			writeError(w, http.StatusBadGateway, "invalid token from authentication service")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"email": res.Email, "redirect": "/account"})
}

// GoogleLogin hands the browser to the backend's OAuth flow, which ends at
// OAuthCallback with the session token in the query string.
func (h *Handler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.svc.GoogleAuthURL(), http.StatusFound)
}

func (h *Handler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if _, ok := h.storeToken(w, token); !ok {
		h.auth.ClearToken(w)
		http.Redirect(w, r, auth.LoginPath, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, HomePath, http.StatusSeeOther)
}

func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	sc := session.FromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"user": newUserView(sc.Claims)})
}
