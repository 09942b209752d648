package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string

	PayrollBaseURL string
	PayrollAPIKey  string

	VATRate              float64
	WithholdingThreshold float64
	WithholdingRate      float64

	StockLockTTL    time.Duration
	RateLimitWindow time.Duration
	RateLimitMax    int64

	OTLPEndpoint string
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		PayrollBaseURL: strings.TrimSpace(k.String("PAYROLL_BASE_URL")),
		PayrollAPIKey:  k.String("PAYROLL_API_KEY"),

		VATRate:              floatOrDefault(k, "VAT_RATE", 0.15),
		WithholdingThreshold: floatOrDefault(k, "WITHHOLDING_THRESHOLD", 10000),
		WithholdingRate:      floatOrDefault(k, "WITHHOLDING_RATE", 0.03),

		StockLockTTL:    parseDuration(k.String("STOCK_LOCK_TTL"), "10s"),
		RateLimitWindow: parseDuration(k.String("RATE_LIMIT_WINDOW"), "1m"),
		RateLimitMax:    int64OrDefault(k, "RATE_LIMIT_MAX", 120),

		OTLPEndpoint: strings.TrimSpace(k.String("OTEL_EXPORTER_OTLP_ENDPOINT")),
	}

	if cfg.VATRate < 0 || cfg.WithholdingRate < 0 || cfg.WithholdingThreshold < 0 {
		return nil, errors.New("tax rates must not be negative")
	}
	if cfg.AppEnv == "production" {
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required")
		}
		if cfg.RedisURL == "" {
			return nil, errors.New("REDIS_URL is required")
		}
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// IsProduction reports whether the app runs with production requirements.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.AppEnv), "production")
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func floatOrDefault(k *koanf.Koanf, key string, fallback float64) float64 {
	if !k.Exists(key) || strings.TrimSpace(k.String(key)) == "" {
		return fallback
	}
	return k.Float64(key)
}

func int64OrDefault(k *koanf.Koanf, key string, fallback int64) int64 {
	if !k.Exists(key) || strings.TrimSpace(k.String(key)) == "" {
		return fallback
	}
	return k.Int64(key)
}
