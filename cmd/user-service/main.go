// Command user-service is a local stand-in for the Scrappify auth and
// account endpoints. It accepts any credentials and signs tokens with
// DEV_TOKEN_SECRET.
package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"scrappify-bff/internal/config"
	"scrappify-bff/internal/logging"
	"scrappify-bff/internal/session"
)

const tokenTTL = time.Hour

type userStore struct {
	mu     sync.Mutex
	secret []byte
	users  map[string]*session.Claims
}

func (s *userStore) lookup(email string) *session.Claims {
	return s.upsert(email, "")
}

func (s *userStore) upsert(email, name string) *session.Claims {
	s.mu.Lock()
	defer s.mu.Unlock()

	if name == "" {
		name = strings.Split(email, "@")[0]
	}
	u, ok := s.users[email]
	if !ok {
		u = &session.Claims{
			ID:    uuid.NewString(),
			Name:  name,
			Email: email,
			Plan:  session.PlanFreemium,
		}
		s.users[email] = u
	}
	return u
}

func (s *userStore) setPlan(email string, plan session.Plan) *session.Claims {
	u := s.lookup(email)
	s.mu.Lock()
	defer s.mu.Unlock()
	u.Plan = plan
	return u
}

func (s *userStore) setPicture(email, url string) *session.Claims {
	u := s.lookup(email)
	s.mu.Lock()
	defer s.mu.Unlock()
	u.ProfilePicture = url
	return u
}

func (s *userStore) sign(u *session.Claims) (string, error) {
	s.mu.Lock()
	c := *u
	s.mu.Unlock()
	c.Exp = float64(time.Now().Add(tokenTTL).Unix())
	return jwt.NewWithClaims(jwt.SigningMethodHS256, &c).SignedString(s.secret)
}

// caller reads the claims back from the bearer token. Signatures are
// checked because this service issued them.
func (s *userStore) caller(r *http.Request) (*session.Claims, bool) {
	raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	claims := &session.Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return claims, err == nil
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

	store := &userStore{secret: []byte(cfg.DevTokenSecret), users: map[string]*session.Claims{}}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "Invalid credentials"})
			return
		}
		token, err := store.sign(store.lookup(req.Email))
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"msg": err.Error()})
			return
		}
		slog.Info("Login", "email", req.Email)
		writeJSON(w, http.StatusOK, map[string]string{"token": token})
	})

	mux.HandleFunc("POST /api/users/register", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Email is required"})
			return
		}
		store.upsert(req.Email, req.Name)
		writeJSON(w, http.StatusCreated, map[string]string{"msg": "User registered, check your email"})
	})

	mux.HandleFunc("GET /api/auth/verify-email", func(w http.ResponseWriter, r *http.Request) {
		claims := &session.Claims{}
		_, err := jwt.ParseWithClaims(r.URL.Query().Get("token"), claims, func(*jwt.Token) (any, error) {
			return store.secret, nil
		})
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Invalid or expired link"})
			return
		}
		token, err := store.sign(store.lookup(claims.Email))
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"msg": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"email": claims.Email, "newToken": token})
	})

	mux.HandleFunc("POST /api/auth/send-verification-email", func(w http.ResponseWriter, r *http.Request) {
		claims, ok := store.caller(r)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "Unauthorized"})
			return
		}
		slog.Info("Verification email requested", "email", claims.Email)
		writeJSON(w, http.StatusOK, map[string]string{"msg": "Verification email sent"})
	})

	mux.HandleFunc("PUT /api/users/plan", func(w http.ResponseWriter, r *http.Request) {
		claims, ok := store.caller(r)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "Unauthorized"})
			return
		}
		var req struct {
			Plan string `json:"plan"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || session.ParsePlan(req.Plan) == session.PlanUnset {
			writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Unknown plan"})
			return
		}
		token, err := store.sign(store.setPlan(claims.Email, session.ParsePlan(req.Plan)))
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"msg": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Plan updated", "token": token})
	})

	mux.HandleFunc("PUT /api/users/changepassword", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := store.caller(r); !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "Unauthorized"})
			return
		}
		var req struct {
			CurrentPassword string `json:"currentPassword"`
			Password        string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CurrentPassword == "" || req.Password == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "currentPassword and password are required"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Password changed"})
	})

	mux.HandleFunc("POST /api/users/changeProfilePicture", func(w http.ResponseWriter, r *http.Request) {
		claims, ok := store.caller(r)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "Unauthorized"})
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file is required"})
			return
		}
		file.Close()

		url := "/uploads/" + uuid.NewString() + "-" + header.Filename
		token, err := store.sign(store.setPicture(claims.Email, url))
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"user":  map[string]string{"profilePicture": url},
			"token": token,
		})
	})

	addr := ":" + envOr("USER_SERVICE_PORT", "8081")
	slog.Info("User service listening", "addr", addr)
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
