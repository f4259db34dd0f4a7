package config

import (
	"os"
	"strconv"
	"time"

	"github.com/danielpatrickdp/limbic-engine/internal/posture"
	"github.com/danielpatrickdp/limbic-engine/internal/push"
)

// #region config

// Config holds the engine's runtime settings. Everything has a documented
// default for local development; env vars override.
type Config struct {
	// BaseURL is the backend the engine syncs against.
	// Env: LIMBIC_BACKEND_URL.
	BaseURL string

	// DBPath is the SQLite file backing persistence and the transition log.
	// Env: LIMBIC_DB.
	DBPath string

	// QueueDepth bounds sends queued while disconnected.
	// Env: LIMBIC_QUEUE_DEPTH.
	QueueDepth int

	Backoff    push.Backoff
	Thresholds posture.Thresholds
}

// Default returns the local-development configuration.
func Default() Config {
	return Config{
		BaseURL:    "http://localhost:8000",
		DBPath:     "limbic_state.db",
		QueueDepth: 64,
		Backoff:    push.DefaultBackoff(),
		Thresholds: posture.DefaultThresholds(),
	}
}

// #endregion config

// #region from-env

// FromEnv builds a Config from the environment over the defaults.
func FromEnv() Config {
	cfg := Default()
	cfg.BaseURL = envOr("LIMBIC_BACKEND_URL", cfg.BaseURL)
	cfg.DBPath = envOr("LIMBIC_DB", cfg.DBPath)
	cfg.QueueDepth = envIntOr("LIMBIC_QUEUE_DEPTH", cfg.QueueDepth)
	cfg.Backoff.Initial = envDurationOr("LIMBIC_BACKOFF_INITIAL", cfg.Backoff.Initial)
	cfg.Backoff.Max = envDurationOr("LIMBIC_BACKOFF_MAX", cfg.Backoff.Max)
	return cfg
}

// #endregion from-env

// #region helpers

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

// #endregion helpers
