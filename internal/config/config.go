// internal/config/config.go

// Package config loads service settings from the environment. A .env file is
// picked up by the godotenv autoload import in each command.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Config holds every tunable of the relay server and historian.
type Config struct {
	Port string

	LobbyCapacity      int
	LobbyTTL           time.Duration
	SweepInterval      time.Duration
	CodeLength         int
	OriginPatterns     []string
	OutboundBuffer     int
	PingInterval       time.Duration
	LogLevel           logrus.Level
	LogFormat          string
	RedisAddr          string // empty disables event publishing
	RedisDB            int
	EventsQueue        string
	HistorianBatchSize int
	HistorianFlush     time.Duration
	DatabaseURL        string
}

// Load reads the environment. Unparseable values fall back to their defaults;
// parseable but out-of-range values are reported in the returned error and
// also replaced by defaults, so the Config is always usable.
func Load() (*Config, error) {
	var errs []error

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		LobbyCapacity:      getEnvInt("LOBBY_CAPACITY", 2),
		LobbyTTL:           getEnvDuration("LOBBY_TTL", 10*time.Minute),
		SweepInterval:      getEnvDuration("LOBBY_SWEEP_INTERVAL", time.Minute),
		CodeLength:         getEnvInt("LOBBY_CODE_LENGTH", 6),
		OriginPatterns:     splitList(getEnv("WS_ORIGIN_PATTERNS", "*")),
		OutboundBuffer:     getEnvInt("WS_OUTBOUND_BUFFER", 32),
		PingInterval:       getEnvDuration("WS_PING_INTERVAL", 30*time.Second),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "text")),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		EventsQueue:        getEnv("LOBBY_EVENTS_QUEUE", "relay_lobby_events"),
		HistorianBatchSize: getEnvInt("HISTORIAN_BATCH_SIZE", 20),
		HistorianFlush:     time.Duration(getEnvInt("HISTORIAN_FLUSH_MS", 500)) * time.Millisecond,
		DatabaseURL:        databaseURL(),
	}

	level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
		level = logrus.InfoLevel
	}
	cfg.LogLevel = level

	if cfg.LobbyCapacity < 2 {
		errs = append(errs, fmt.Errorf("LOBBY_CAPACITY must be at least 2, got %d", cfg.LobbyCapacity))
		cfg.LobbyCapacity = 2
	}
	if cfg.CodeLength < 4 {
		errs = append(errs, fmt.Errorf("LOBBY_CODE_LENGTH must be at least 4, got %d", cfg.CodeLength))
		cfg.CodeLength = 6
	}
	if cfg.LobbyTTL <= 0 {
		errs = append(errs, fmt.Errorf("LOBBY_TTL must be positive, got %s", cfg.LobbyTTL))
		cfg.LobbyTTL = 10 * time.Minute
	}
	if cfg.SweepInterval <= 0 {
		errs = append(errs, fmt.Errorf("LOBBY_SWEEP_INTERVAL must be positive, got %s", cfg.SweepInterval))
		cfg.SweepInterval = time.Minute
	}
	if cfg.PingInterval <= 0 {
		errs = append(errs, fmt.Errorf("WS_PING_INTERVAL must be positive, got %s", cfg.PingInterval))
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.OutboundBuffer <= 0 {
		errs = append(errs, fmt.Errorf("WS_OUTBOUND_BUFFER must be positive, got %d", cfg.OutboundBuffer))
		cfg.OutboundBuffer = 32
	}
	if cfg.HistorianBatchSize <= 0 {
		errs = append(errs, fmt.Errorf("HISTORIAN_BATCH_SIZE must be positive, got %d", cfg.HistorianBatchSize))
		cfg.HistorianBatchSize = 20
	}
	if cfg.HistorianFlush <= 0 {
		errs = append(errs, fmt.Errorf("HISTORIAN_FLUSH_MS must be positive, got %s", cfg.HistorianFlush))
		cfg.HistorianFlush = 500 * time.Millisecond
	}

	return cfg, errors.Join(errs...)
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(c.LogLevel)
	if c.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// databaseURL prefers DATABASE_URL and otherwise assembles one from the
// individual POSTGRES_*/PG_* variables. Empty when nothing is configured.
func databaseURL() string {
	if u := os.Getenv("DATABASE_URL"); u != "" {
		return u
	}
	host := os.Getenv("PG_HOST")
	if host == "" {
		return ""
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		os.Getenv("POSTGRES_USER"),
		os.Getenv("POSTGRES_PASSWORD"),
		host,
		getEnv("PG_PORT", "5432"),
		os.Getenv("PG_DATABASE"),
	)
}

// getEnv reads an environment variable or returns a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt parses an environment variable as an integer, else the default.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// getEnvDuration parses a Go duration ("90s", "10m"), else the default.
func getEnvDuration(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
