package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"HTTP_ADDR", "STORE_BACKEND", "SEED_PROMOTIONS", "REDIS_ADDR",
		"CORS_ALLOWED_ORIGINS", "RATE_LIMIT_MAX", "RATE_LIMIT_WINDOW",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, StoreMemory, cfg.StoreBackend)
	assert.True(t, cfg.SeedPromotions)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.EqualValues(t, 120, cfg.RateLimitMax)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("STORE_BACKEND", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/tiffin")
	t.Setenv("SEED_PROMOTIONS", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://admin.tiffin.test, https://ops.tiffin.test")
	t.Setenv("RATE_LIMIT_MAX", "30")
	t.Setenv("RATE_LIMIT_WINDOW", "10s")
	t.Setenv("JWT_AUDIENCE", "https://api.tiffin.test")

	cfg := Load()
	assert.Equal(t, StorePostgres, cfg.StoreBackend)
	assert.Equal(t, "postgres://localhost/tiffin", cfg.DatabaseURL)
	assert.False(t, cfg.SeedPromotions)
	assert.Equal(t, []string{"https://admin.tiffin.test", "https://ops.tiffin.test"}, cfg.CORSAllowedOrigins)
	assert.EqualValues(t, 30, cfg.RateLimitMax)
	assert.Equal(t, 10*time.Second, cfg.RateLimitWindow)
	assert.Equal(t, "https://api.tiffin.test", cfg.JWT.Audience)
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("RATE_LIMIT_MAX", "lots")
	t.Setenv("RATE_LIMIT_WINDOW", "-5s")

	cfg := Load()
	assert.EqualValues(t, 120, cfg.RateLimitMax)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
}
