package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks variables read by Load so defaults apply
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SERVER_PORT", "SERVER_ENV", "STORE_DRIVER", "DB_PORT", "REDIS_ENABLED", "JWT_SECRET",
		"BASE_FARE_BIKE", "PER_KM_RATE_BIKE", "BASE_FARE_CAR", "PER_KM_RATE_CAR",
		"BASE_FARE_RICKSHA", "PER_KM_RATE_RICKSHA", "CORS_ALLOWED_ORIGINS", "CACHE_TTL_IDEMPOTENCY",
		"RATE_LIMIT_ENABLED", "RATE_LIMIT_BOOKINGS_PER_MINUTE", "RATE_LIMIT_GENERAL_PER_MINUTE",
	} {
		t.Setenv(key, "")
	}
}

// TestLoad_Defaults tests the configuration with no environment overrides
func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, StoreMemory, cfg.Store.Driver)
	assert.Equal(t, RideClassPricing{BaseFare: 100, PerKMRate: 25}, cfg.Pricing.Car)
	assert.Equal(t, RideClassPricing{BaseFare: 50, PerKMRate: 15}, cfg.Pricing.Bike)
	assert.Equal(t, RideClassPricing{BaseFare: 40, PerKMRate: 12}, cfg.Pricing.Ricksha)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTLIdempotency)
	assert.False(t, cfg.Redis.Enabled)
}

// TestLoad_Overrides tests environment parsing
func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("BASE_FARE_CAR", "120.5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("MONGO_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorePostgres, cfg.Store.Driver)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, 120.5, cfg.Pricing.Car.BaseFare)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 3*time.Second, cfg.Mongo.Timeout)
}

// TestValidate tests rejected configurations
func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown store", func(c *Config) { c.Store.Driver = "sqlite" }},
		{"postgres without host", func(c *Config) { c.Store.Driver = StorePostgres; c.Database.Host = "" }},
		{"mongo without uri", func(c *Config) { c.Store.Driver = StoreMongo; c.Mongo.URI = "" }},
		{"default secret in production", func(c *Config) { c.Server.Env = "production" }},
		{"zero per-km rate", func(c *Config) { c.Pricing.Bike.PerKMRate = 0 }},
		{"zero rate limit", func(c *Config) { c.RateLimit.BookingsPerMinute = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			cfg, err := Load()
			require.NoError(t, err)

			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestPricingTable(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)

	table := cfg.Pricing.PricingTable()
	assert.Len(t, table, 3)
	assert.Equal(t, cfg.Pricing.Ricksha, table["ricksha"])
}
