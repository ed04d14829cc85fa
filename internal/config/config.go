package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime configuration loaded from environment variables.
type Config struct {
	APIBaseURL      string
	TokenPath       string
	RequestTimeout  time.Duration
	CacheFreshness  time.Duration
	SearchDebounce  time.Duration
	DefaultPageSize int
	LandingPath     string
	ConfirmDeletes  bool
}

func Load() Config {
	return Config{
		APIBaseURL:      strings.TrimRight(envOr("API_BASE_URL", "http://127.0.0.1:8000"), "/"),
		TokenPath:       envOr("TOKEN_PATH", "storage/auth/token"),
		RequestTimeout:  time.Duration(envOrInt("REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,
		CacheFreshness:  time.Duration(envOrInt("CACHE_FRESH_MILLIS", 1000)) * time.Millisecond,
		SearchDebounce:  time.Duration(envOrInt("SEARCH_DEBOUNCE_MILLIS", 500)) * time.Millisecond,
		DefaultPageSize: envOrInt("DEFAULT_PAGE_SIZE", 10),
		LandingPath:     envOr("LANDING_PATH", "/users"),
		ConfirmDeletes:  envOrBool("CONFIRM_DELETES", true),
	}
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
