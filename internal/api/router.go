package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"scrappify-bff/internal/auth"
	"scrappify-bff/internal/services"
	"scrappify-bff/internal/telemetry"
)

// NewRouter mounts the public auth endpoints and the session-protected API.
func NewRouter(h *Handler, authMiddleware *auth.Middleware, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", services.DeviceIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(requestLogger)
	r.Use(telemetry.Middleware)
	r.Use(authMiddleware.DeviceID)

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/auth/google", h.GoogleLogin)
	r.Get("/auth/callback", h.OAuthCallback)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", h.Login)
			r.Post("/register", h.Register)
			r.Post("/logout", h.Logout)
			r.Get("/verify-email", h.VerifyEmail)
		})

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireSession)

			r.Get("/session", h.Session)

			r.Post("/search", h.Search)
			r.Post("/search/filter", h.Filter)
			r.Get("/categories/{category}/products", h.CategoryProducts)
			r.Get("/products/{id}", h.GetProduct)

			r.Route("/favorites", func(r chi.Router) {
				r.Get("/", h.ListFavorites)
				r.Post("/", h.AddFavorite)
				r.Delete("/{id}", h.RemoveFavorite)
			})
			r.Get("/notifications", h.Notifications)

			r.Route("/account", func(r chi.Router) {
				r.Put("/plan", h.ChangePlan)
				r.Put("/password", h.ChangePassword)
				r.Put("/picture", h.ChangeProfilePicture)
				r.Post("/verification-email", h.SendVerificationEmail)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Get("/uncategorized", h.UncategorizedProducts)
				r.Post("/categories", h.AssignCategory)
			})
		})
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := telemetry.NewResponseWriter(w)
		next.ServeHTTP(rw, r)

		slog.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
