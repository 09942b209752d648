package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.InEpsilon(t, 0.15, cfg.VATRate, 1e-9)
	require.InEpsilon(t, 10000.0, cfg.WithholdingThreshold, 1e-9)
	require.InEpsilon(t, 0.03, cfg.WithholdingRate, 1e-9)
	require.Equal(t, 10*time.Second, cfg.StockLockTTL)
	require.Equal(t, int64(120), cfg.RateLimitMax)
}

func TestLoadProductionRequiresBackingServices(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("PORT", "9090")
	t.Setenv("VAT_RATE", "0.2")
	t.Setenv("WITHHOLDING_THRESHOLD", "5000")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.InEpsilon(t, 0.2, cfg.VATRate, 1e-9)
	require.InEpsilon(t, 5000.0, cfg.WithholdingThreshold, 1e-9)
	require.Equal(t, 30*time.Second, cfg.RateLimitWindow)
}

func TestLoadRejectsNegativeRates(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("VAT_RATE", "-0.1")

	_, err := Load()
	require.Error(t, err)
}
