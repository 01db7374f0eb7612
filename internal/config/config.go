// Package config reads the service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	DatabaseURL string

	ZoneDir      string
	ZoneManifest string

	LogLevel  string
	LogFormat string

	CORSOrigins []string

	RateLimitRPS   float64
	RateLimitBurst int

	SessionTTL   time.Duration
	CookieSecure bool
	MaxUploadMB  int64
}

// DefaultCORSOrigins are the local map UI dev servers.
var DefaultCORSOrigins = []string{
	"http://localhost:5173",
	"http://localhost:5174",
}

// LoadFromEnv builds a Config from environment variables, applying defaults
// for anything unset. Malformed numbers and durations are errors.
func LoadFromEnv() (Config, error) {
	cfg := Config{
		Port:        getenv("PORT", "5050"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		ZoneDir:     getenv("ZONE_DIR", filepath.Join("data", "zones")),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		LogFormat:   getenv("LOG_FORMAT", "json"),
		CORSOrigins: DefaultCORSOrigins,
	}

	cfg.ZoneManifest = getenv("ZONE_MANIFEST", filepath.Join(cfg.ZoneDir, "zones.yaml"))

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}

	var err error
	if cfg.RateLimitRPS, err = parseFloat("RATE_LIMIT_RPS", 20); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitBurst, err = parseInt("RATE_LIMIT_BURST", 40); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = parseDuration("SESSION_TTL", 6*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.CookieSecure, err = parseBool("COOKIE_SECURE", false); err != nil {
		return Config{}, err
	}
	maxUpload, err := parseInt("MAX_UPLOAD_MB", 20)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxUploadMB = int64(maxUpload)

	return cfg, nil
}

// Validate reports settings the HTTP server cannot start without.
func (c Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is empty"))
	}
	if c.ZoneDir == "" {
		errs = append(errs, errors.New("ZONE_DIR is empty"))
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.MaxUploadMB <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_MB must be positive"))
	}
	return errors.Join(errs...)
}

// MaxUploadBytes is the multipart body limit for the converter.
func (c Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return "0.0.0.0:" + c.Port
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func parseInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func parseBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
