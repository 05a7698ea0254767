package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"scrappify-bff/internal/auth"
	"scrappify-bff/internal/models"
	"scrappify-bff/internal/ratelimit"
	"scrappify-bff/internal/resilience"
	"scrappify-bff/internal/services"
	"scrappify-bff/internal/session"
)

// Backend is the slice of the Scrappify API the gateway uses.
type Backend interface {
	Login(ctx context.Context, email, password string) (string, error)
	Register(ctx context.Context, reg services.Registration) (string, error)
	VerifyEmail(ctx context.Context, token string) (*services.VerifiedEmail, error)
	SendVerificationEmail(ctx context.Context, sc *session.Context) error
	GoogleAuthURL() string

	Search(ctx context.Context, sc *session.Context, query string, stores []string) ([]models.Product, error)
	ProductsByCategory(ctx context.Context, sc *session.Context, category string, stores []string) ([]models.Product, error)
	UncategorizedProducts(ctx context.Context, sc *session.Context) ([]models.Product, error)
	AssignCategory(ctx context.Context, sc *session.Context, productIDs []string, category string) (int, error)
	Product(ctx context.Context, sc *session.Context, id string) (*models.Product, error)

	Favorites(ctx context.Context, sc *session.Context) ([]models.Favorite, error)
	AddFavorite(ctx context.Context, sc *session.Context, productID, alertType string) (*models.Favorite, error)
	RemoveFavorite(ctx context.Context, sc *session.Context, favoriteID string) error
	Notifications(ctx context.Context, sc *session.Context) ([]models.Notification, error)

	ChangePlan(ctx context.Context, sc *session.Context, change services.PlanChange) (*services.AccountUpdate, error)
	ChangePassword(ctx context.Context, sc *session.Context, current, next string) (*services.AccountUpdate, error)
	ChangeProfilePicture(ctx context.Context, sc *session.Context, pic services.Picture) (*services.PictureUpdate, error)
}

type Handler struct {
	svc        Backend
	auth       *auth.Middleware
	guard      *session.Guard
	limiter    ratelimit.Limiter
	favoriteCB *resilience.CircuitBreaker
}

func NewHandler(svc Backend, authMiddleware *auth.Middleware, guard *session.Guard, limiter ratelimit.Limiter) *Handler {
	return &Handler{
		svc:        svc,
		auth:       authMiddleware,
		guard:      guard,
		limiter:    limiter,
		favoriteCB: resilience.NewCircuitBreaker("favorites", 3, 10*time.Second),
	}
}

// upstreamError maps a backend failure onto the gateway response. A 401
// from upstream ends the session exactly like a failed local check.
func (h *Handler) upstreamError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *services.APIError
	switch {
	case errors.Is(err, services.ErrUnauthorized):
		slog.Warn("Upstream rejected session", "path", r.URL.Path)
		h.auth.Reject(w, r, "rejected")
	case errors.Is(err, services.ErrNotFound):
		writeError(w, http.StatusNotFound, messageOr(err, "not found"))
	case errors.As(err, &apiErr) && apiErr.Status < 500:
		writeError(w, apiErr.Status, messageOr(err, http.StatusText(apiErr.Status)))
	case errors.Is(err, context.DeadlineExceeded):
		slog.Error("Upstream timeout", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusGatewayTimeout, "upstream timeout")
	default:
		slog.Error("Upstream failure", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadGateway, "service unavailable")
	}
}

func messageOr(err error, fallback string) string {
	var apiErr *services.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("JSON encode error", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSONBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}

func (h *Handler) rateLimited(w http.ResponseWriter, r *http.Request, sc *session.Context) bool {
	key := "search:" + sc.Claims.SubjectID()
	if sc.Claims.SubjectID() == "" {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		key = "search-ip:" + host
	}
	if h.limiter.Allow(r.Context(), key) {
		return false
	}
	slog.Warn("Rate limit exceeded", "key", key)
	writeError(w, http.StatusTooManyRequests, "Too many requests")
	return true
}
