package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the companion chat backend.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool

	// Timezone anchors natural-language date resolution and reminder windows.
	// The service is written for Korean elders, so Asia/Seoul is the default.
	Timezone string

	NLUMode       string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	DatabaseURL string

	PushRelayURL   string
	PushRelayToken string

	RemindersEnabled    bool
	ReminderLeadMinutes int
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:            envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:    envOrDefault("APP_METRICS_NAMESPACE", "dolbomi"),
		AllowAnyOrigin:      false,
		Timezone:            envOrDefault("APP_TIMEZONE", "Asia/Seoul"),
		NLUMode:             envOrDefault("NLU_MODE", "auto"),
		OpenAIAPIKey:        trimmedEnv("OPENAI_API_KEY"),
		OpenAIBaseURL:       trimmedEnv("OPENAI_BASE_URL"),
		OpenAIModel:         envOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		DatabaseURL:         trimmedEnv("DATABASE_URL"),
		PushRelayURL:        trimmedEnv("PUSH_RELAY_URL"),
		PushRelayToken:      trimmedEnv("PUSH_RELAY_TOKEN"),
		RemindersEnabled:    true,
		ReminderLeadMinutes: 30,
		ShutdownTimeout:     15 * time.Second,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}
	cfg.RemindersEnabled, err = boolFromEnv("REMINDERS_ENABLED", cfg.RemindersEnabled)
	if err != nil {
		return Config{}, err
	}
	cfg.ReminderLeadMinutes, err = intFromEnv("REMINDER_LEAD_MINUTES", cfg.ReminderLeadMinutes)
	if err != nil {
		return Config{}, err
	}

	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return Config{}, fmt.Errorf("APP_TIMEZONE parse error: %w", err)
	}
	if cfg.ReminderLeadMinutes <= 0 {
		return Config{}, fmt.Errorf("REMINDER_LEAD_MINUTES must be positive")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.NLUMode)) {
	case "auto", "openai", "mock":
	default:
		return Config{}, fmt.Errorf("invalid NLU_MODE: %q (expected auto|openai|mock)", cfg.NLUMode)
	}

	return cfg, nil
}

// Location returns the configured timezone. Load already validated it, so the
// fallback only exists to keep the zero Config usable in tests.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func trimmedEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(trimmedEnv(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
