package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AuthServiceURL      string
	ProductServiceURL   string
	FavoritesServiceURL string
	RedisAddr           string
	HTTPPort            string
	AllowedOrigins      []string
	LogLevel            string
	UpstreamTimeout     time.Duration
	SearchRateLimit     int
	CookieSecure        bool
	DevTokenSecret      string
}

// NewConfig reads the environment, after loading a .env file when one is
// present in the working directory. SCRAPPIFY_API_URL is the default base
// for every upstream service.
func NewConfig() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	apiURL := strings.TrimRight(getEnv("SCRAPPIFY_API_URL", "http://localhost:5000"), "/")

	return &Config{
		AuthServiceURL:      strings.TrimRight(getEnv("AUTH_SERVICE_URL", apiURL), "/"),
		ProductServiceURL:   strings.TrimRight(getEnv("PRODUCT_SERVICE_URL", apiURL), "/"),
		FavoritesServiceURL: strings.TrimRight(getEnv("FAVORITES_SERVICE_URL", apiURL), "/"),
		RedisAddr:           getEnv("REDIS_ADDR", ""),
		HTTPPort:            getEnv("HTTP_PORT", "8080"),
		AllowedOrigins:      splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		UpstreamTimeout:     getEnvDuration("UPSTREAM_TIMEOUT", 5*time.Second),
		SearchRateLimit:     getEnvInt("SEARCH_RATE_LIMIT", 10),
		CookieSecure:        getEnvBool("COOKIE_SECURE", false),
		DevTokenSecret:      getEnv("DEV_TOKEN_SECRET", "dev-secret"),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
