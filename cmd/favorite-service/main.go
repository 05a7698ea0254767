// Command favorite-service keeps favorites and price-alert notifications in
// memory, shaped like the Scrappify favorites API.
package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"scrappify-bff/internal/config"
	"scrappify-bff/internal/logging"
	"scrappify-bff/internal/models"
	"scrappify-bff/internal/session"
)

type favorite struct {
	ID        string         `json:"_id"`
	ProductID string         `json:"productId"`
	OfferID   *string        `json:"offerId"`
	Alerts    []models.Alert `json:"alerts"`
}

type favoriteStore struct {
	mu        sync.Mutex
	favorites map[string][]favorite
}

func (s *favoriteStore) list(userID string) []favorite {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]favorite{}, s.favorites[userID]...)
}

func (s *favoriteStore) add(userID string, f favorite) favorite {
	s.mu.Lock()
	defer s.mu.Unlock()
	f.ID = uuid.NewString()
	s.favorites[userID] = append(s.favorites[userID], f)
	return f
}

func (s *favoriteStore) remove(userID, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	favs := s.favorites[userID]
	for i, f := range favs {
		if f.ID == id {
			s.favorites[userID] = append(favs[:i], favs[i+1:]...)
			return true
		}
	}
	return false
}

// userID trusts the token the gateway already checked; only expiry is
// enforced here.
func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	res := session.Validate(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "), time.Now())
	if !res.Valid {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "Token is not valid"})
		return "", false
	}
	return res.Claims.SubjectID(), true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("JSON encode error", "error", err)
	}
}

func main() {
	cfg := config.NewConfig()
	slog.SetDefault(logging.New(os.Stdout, cfg.LogLevel))

	store := &favoriteStore{favorites: map[string][]favorite{}}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/favorites/", func(w http.ResponseWriter, r *http.Request) {
		uid, ok := userID(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"favorites": store.list(uid)})
	})

	mux.HandleFunc("POST /api/favorites/", func(w http.ResponseWriter, r *http.Request) {
		uid, ok := userID(w, r)
		if !ok {
			return
		}
		var req favorite
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == "" || len(req.Alerts) == 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "productId and alerts are required"})
			return
		}
		fav := store.add(uid, req)
		slog.Info("Favorite added", "user_id", uid, "product_id", fav.ProductID, "alert", fav.Alerts[0].Type)
		writeJSON(w, http.StatusCreated, map[string]any{"favorite": fav})
	})

	mux.HandleFunc("DELETE /api/favorites/{id}", func(w http.ResponseWriter, r *http.Request) {
		uid, ok := userID(w, r)
		if !ok {
			return
		}
		if !store.remove(uid, r.PathValue("id")) {
			writeJSON(w, http.StatusNotFound, map[string]string{"msg": "Favorite not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"msg": "Favorite removed"})
	})

	mux.HandleFunc("GET /api/favorites/notifications", func(w http.ResponseWriter, r *http.Request) {
		uid, ok := userID(w, r)
		if !ok {
			return
		}
		var notifications []models.Notification
		for _, f := range store.list(uid) {
			notifications = append(notifications, models.Notification{
				ID:        f.ID,
				Title:     "Price alert",
				Message:   "Watching " + f.ProductID + " for " + f.Alerts[0].Type,
				ProductID: f.ProductID,
				CreatedAt: time.Now().UTC().Format(time.RFC3339),
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"notifications": notifications})
	})

	addr := ":" + envOr("FAVORITE_SERVICE_PORT", "8082")
	slog.Info("Favorite service listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
