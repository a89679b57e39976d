// internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"PORT", "LOBBY_CAPACITY", "LOBBY_TTL", "LOBBY_SWEEP_INTERVAL", "LOBBY_CODE_LENGTH",
	"WS_ORIGIN_PATTERNS", "WS_OUTBOUND_BUFFER", "WS_PING_INTERVAL", "LOG_LEVEL", "LOG_FORMAT",
	"REDIS_ADDR", "REDIS_DB", "LOBBY_EVENTS_QUEUE", "HISTORIAN_BATCH_SIZE", "HISTORIAN_FLUSH_MS",
	"DATABASE_URL", "PG_HOST", "PG_PORT", "PG_DATABASE", "POSTGRES_USER", "POSTGRES_PASSWORD",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, 2, cfg.LobbyCapacity)
	assert.Equal(t, 10*time.Minute, cfg.LobbyTTL)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.Equal(t, 6, cfg.CodeLength)
	assert.Equal(t, []string{"*"}, cfg.OriginPatterns)
	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, "relay_lobby_events", cfg.EventsQueue)
	assert.Equal(t, 500*time.Millisecond, cfg.HistorianFlush)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("LOBBY_CAPACITY", "4")
	t.Setenv("LOBBY_TTL", "90s")
	t.Setenv("WS_ORIGIN_PATTERNS", "example.com, *.example.com ,")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("PG_HOST", "db")
	t.Setenv("POSTGRES_USER", "relay")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("PG_DATABASE", "relay")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr())
	assert.Equal(t, 4, cfg.LobbyCapacity)
	assert.Equal(t, 90*time.Second, cfg.LobbyTTL)
	assert.Equal(t, []string{"example.com", "*.example.com"}, cfg.OriginPatterns)
	assert.Equal(t, logrus.DebugLevel, cfg.LogLevel)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, "postgres://relay:secret@db:5432/relay", cfg.DatabaseURL)
}

func TestLoadDatabaseURLWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://a@b/c")
	t.Setenv("PG_HOST", "ignored")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://a@b/c", cfg.DatabaseURL)
}

func TestLoadRejectsOutOfRangeValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOBBY_CAPACITY", "1")
	t.Setenv("LOBBY_TTL", "-5m")
	t.Setenv("LOG_LEVEL", "loud")

	cfg, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOBBY_CAPACITY")
	assert.Contains(t, err.Error(), "LOBBY_TTL")
	assert.Contains(t, err.Error(), "LOG_LEVEL")
	assert.Equal(t, 2, cfg.LobbyCapacity)
	assert.Equal(t, 10*time.Minute, cfg.LobbyTTL)
	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel)
}

func TestLoadIgnoresUnparseableValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOBBY_CAPACITY", "many")
	t.Setenv("LOBBY_SWEEP_INTERVAL", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.LobbyCapacity)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
}

func TestNewLoggerFormat(t *testing.T) {
	cfg := &Config{LogLevel: logrus.WarnLevel, LogFormat: "json"}
	logger := cfg.NewLogger()
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)
}
