package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.DB.Driver)
	assert.Contains(t, cfg.DB.DSN, "@tcp(localhost:3306)/rndvu")
	assert.Equal(t, 10, cfg.Feed.PageSize)
	assert.Equal(t, 48*time.Hour, cfg.Feed.SkipRetention)
	assert.Equal(t, []string{"*"}, cfg.HTTP.AllowedOrigins)
	assert.False(t, cfg.TestModeAllowed())
}

func TestLoad_NestedPrefixes(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_HOST", "pg")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("FEED_SKIP_RETENTION", "24h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Contains(t, cfg.DB.DSN, "host=pg")
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, "123:abc", cfg.Telegram.BotToken)
	assert.Equal(t, 24*time.Hour, cfg.Feed.SkipRetention)
}

func TestLoad_ExplicitDSNWins(t *testing.T) {
	t.Setenv("DB_DSN", "custom-dsn")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "custom-dsn", cfg.DB.DSN)
}

func TestTestModeNeverInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_ALLOW_TEST_MODE", "true")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Auth.AllowTestMode)
	assert.False(t, cfg.TestModeAllowed())
}

func TestValidate(t *testing.T) {
	t.Setenv("DB_DRIVER", "oracle")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate_ProductionNeedsToken(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	_, err := Load()
	assert.Error(t, err)
}
