package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "INR", cfg.Checkout.Currency)
	assert.True(t, decimal.NewFromInt(50).Equal(cfg.Checkout.AdvancePercent))
	assert.Equal(t, int64(500), cfg.Checkout.ShippingSlabGrams)
	assert.Equal(t, 48*time.Hour, cfg.Scheduler.StaleOrderAfter)
	assert.Equal(t, "localhost:6379", cfg.GetRedisAddr())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	t.Setenv("CHECKOUT_ADVANCE_PERCENT", "30.5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("SCHEDULER_STALE_ORDER_AFTER", "90m")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "30.5", cfg.Checkout.AdvancePercent.String())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.CORSAllowedOrigins)
	assert.Equal(t, 90*time.Minute, cfg.Scheduler.StaleOrderAfter)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
}

func TestValidate(t *testing.T) {
	t.Setenv("APP_ENV", "test")

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"short jwt secret", func(c *Config) { c.JWT.Secret = "short" }},
		{"missing db host", func(c *Config) { c.Database.Host = "" }},
		{"zero advance", func(c *Config) { c.Checkout.AdvancePercent = decimal.Zero }},
		{"advance over 100", func(c *Config) { c.Checkout.AdvancePercent = decimal.NewFromInt(101) }},
		{"zero slab", func(c *Config) { c.Checkout.ShippingSlabGrams = 0 }},
		{"production without razorpay secret", func(c *Config) { c.App.Environment = "production" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
