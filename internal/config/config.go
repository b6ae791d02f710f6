package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the gateway.
type Config struct {
	Environment        string
	HTTPPort           int
	UpstreamBaseURL    string
	DatabaseURL        string
	SessionStore       string
	SessionTTL         time.Duration
	LogLevel           string
	AllowedOrigins     []string
	FrontendURL        string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

// Load reads configuration from the environment with sensible defaults for
// local development. A .env file in the working directory is honored when
// present.
func Load() (Config, error) {
	_ = godotenv.Load()

	databaseURL, err := getEnvOrFile("DATABASE_URL", "/run/secrets/healthgate_database_url")
	if err != nil {
		return Config{}, err
	}

	googleSecret, err := getEnvOrFile("GOOGLE_CLIENT_SECRET", "/run/secrets/healthgate_google_client_secret")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Environment:        getEnv("APP_ENV", "development"),
		UpstreamBaseURL:    strings.TrimRight(getEnv("UPSTREAM_BASE_URL", "http://localhost:8080"), "/"),
		DatabaseURL:        databaseURL,
		SessionStore:       strings.ToLower(getEnv("SESSION_STORE", "memory")),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", "info")),
		AllowedOrigins:     parseCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		FrontendURL:        strings.TrimSuffix(getEnv("FRONTEND_URL", "http://localhost:3000"), "/"),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: strings.TrimSpace(googleSecret),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
	}

	portValue := getEnv("PORT", getEnv("HTTP_PORT", "4000"))
	port, err := strconv.Atoi(portValue)
	if err != nil {
		return Config{}, fmt.Errorf("invalid port %q: %w", portValue, err)
	}
	cfg.HTTPPort = port

	ttlValue := getEnv("SESSION_TTL", "12h")
	ttl, err := time.ParseDuration(ttlValue)
	if err != nil {
		return Config{}, fmt.Errorf("invalid session TTL %q: %w", ttlValue, err)
	}
	cfg.SessionTTL = ttl

	if cfg.SessionStore == "postgres" && cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("SESSION_STORE is postgres but DATABASE_URL is not set")
	}

	return cfg, nil
}

// HTTPAddress returns the address the HTTP server should bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// UseInMemoryStore returns true if the in-memory session repository should be used.
func (c Config) UseInMemoryStore() bool {
	return c.SessionStore == "memory"
}

// GoogleLoginEnabled reports whether the OAuth flow is configured.
func (c Config) GoogleLoginEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleRedirectURL != ""
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvOrFile(key, defaultPath string) (string, error) {
	if value := os.Getenv(key); value != "" {
		return value, nil
	}

	fileKey := key + "_FILE"
	if path := os.Getenv(fileKey); path != "" {
		return readSecret(path, fileKey)
	}

	if defaultPath != "" {
		return readSecret(defaultPath, key)
	}

	return "", nil
}

func readSecret(path, name string) (string, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("config: reading %s (%s): %w", name, path, err)
	}

	value := strings.TrimSpace(string(contents))
	if value == "" {
		return "", fmt.Errorf("config: %s (%s) is empty", name, path)
	}
	return value, nil
}
