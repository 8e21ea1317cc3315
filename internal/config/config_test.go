package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORAGE_DRIVER", "MEMORY")
	t.Setenv("DEFAULT_SEAT_PRICE", "")

	cfg := FromEnv()
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, StorageMemory, cfg.StorageDriver)
	assert.Equal(t, int64(1500), cfg.DefaultSeatPriceCents)
	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.False(t, cfg.EventsEnabled)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("DEFAULT_SEAT_PRICE", "12.5")
	t.Setenv("EVENTS_ENABLED", "yes")
	t.Setenv("RABBITMQ_URL", "amqp://u:p@mq:5672/")

	cfg := FromEnv()
	assert.Equal(t, int64(1250), cfg.DefaultSeatPriceCents)
	assert.True(t, cfg.EventsEnabled)
	assert.Equal(t, "amqp://u:p@mq:5672/", cfg.RabbitURL)
}

func TestParseCents(t *testing.T) {
	cases := map[string]int64{"15": 1500, "15.0": 1500, "12.5": 1250, "0.99": 99, "7.05": 705}
	for in, want := range cases {
		got, err := ParseCents(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, bad := range []string{"", "abc", "1.234", "-3", "1.-5"} {
		_, err := ParseCents(bad)
		assert.Error(t, err, bad)
	}
}

func TestLoadRateLimitConfig_Clamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 1, cfg.RefillTokens)
	assert.Equal(t, 2*time.Second, cfg.RefillInterval)
	assert.Equal(t, 10*time.Second, cfg.TTL)
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	cfg := LoadCacheConfig()
	assert.True(t, cfg.Methods["GET"])
	assert.True(t, cfg.Methods["HEAD"])
	assert.False(t, cfg.Methods["POST"])
	assert.Equal(t, 30*time.Second, cfg.TTL)
}

func TestCacheTTLFor(t *testing.T) {
	t.Setenv("CACHE_TTL_MOVIES", "10s")
	cfg := LoadCacheConfig()
	assert.Equal(t, 10*time.Second, cfg.TTLFor("movies"))
	assert.Equal(t, 30*time.Second, cfg.TTLFor("halls"))
	assert.Equal(t, 5*time.Minute, CacheConfig{}.TTLFor("movies"))
}

func TestRedisOptions(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache:6380")
	t.Setenv("REDIS_DB", "2")
	opts := RedisOptions()
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Nil(t, opts.TLSConfig)
}
