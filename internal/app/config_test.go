package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PORT", "")
	t.Setenv("SHOP_DATABASE_URL", "postgres://shop@localhost/shop")
	t.Setenv("SHOP_GRACEFUL_READINESS_DELAY", "1s")

	cfg, err := loadConfig([]string{"--addr=0.0.0.0:4000"})
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:4000", cfg.Addr)
	assert.Equal(t, "postgres://shop@localhost/shop", cfg.DatabaseURL)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.Origins)
	assert.True(t, cfg.CORS.AllowCredentials)
	assert.Equal(t, time.Second, cfg.Graceful.ReadinessDelay)
	assert.Equal(t, 15*time.Second, cfg.Graceful.ShutdownTimeout)
	assert.Equal(t, 2, cfg.Notify.Pool.Workers)
	assert.Equal(t, 256, cfg.Notify.Pool.QueueSize)
	assert.Empty(t, cfg.Notify.AMQP.URL)
	assert.Equal(t, "order.events", cfg.Notify.AMQP.Exchange)
	assert.Equal(t, "order.created", cfg.Notify.AMQP.RoutingKey)
	assert.Equal(t, 20, cfg.RateLimit.Max)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.False(t, cfg.RateLimit.TrustProxy)
}

func TestLoadConfig_RateLimitFromEnv(t *testing.T) {
	t.Setenv("SHOP_DATABASE_URL", "postgres://shop@localhost/shop")
	t.Setenv("SHOP_RATE_LIMIT_MAX", "5")
	t.Setenv("SHOP_RATE_LIMIT_WINDOW", "30s")
	t.Setenv("SHOP_RATE_LIMIT_TRUST_PROXY", "true")

	cfg, err := loadConfig([]string{"--addr=127.0.0.1:4000"})
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.RateLimit.Max)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	assert.True(t, cfg.RateLimit.TrustProxy)
}

func TestLoadConfig_PlatformFallbacks(t *testing.T) {
	t.Setenv("SHOP_DATABASE_URL", "")
	t.Setenv("DATABASE_URL", "postgres://platform/db")
	t.Setenv("PORT", "9090")

	cfg, err := loadConfig([]string{"--max-body-bytes=2048"})
	require.NoError(t, err)

	assert.Equal(t, "postgres://platform/db", cfg.DatabaseURL)
	assert.Equal(t, "0.0.0.0:9090", cfg.Addr)
	assert.Equal(t, int64(2048), cfg.MaxBodyBytes)
}

func TestLoadConfig_ExplicitAddrWinsOverPort(t *testing.T) {
	t.Setenv("SHOP_DATABASE_URL", "postgres://shop@localhost/shop")
	t.Setenv("SHOP_ADDR", "127.0.0.1:5000")
	t.Setenv("PORT", "9090")

	cfg, err := loadConfig([]string{"--image-base-url=https://cdn.example.com"})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:5000", cfg.Addr)
	assert.Equal(t, "https://cdn.example.com", cfg.ImageBaseURL)
}

func TestLoadConfig_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("SHOP_DATABASE_URL", "")
	t.Setenv("DATABASE_URL", "")

	_, err := loadConfig([]string{"--addr=127.0.0.1:4000"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database URL is required")
}
