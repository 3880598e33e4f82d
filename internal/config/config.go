package config

import (
	"flag"
	"log/slog"
	"os"
	"strconv"
	"time"
)

type StorageType string

const (
	StorageMemory StorageType = "memory"
	StorageSQLite StorageType = "sqlite"
)

type Config struct {
	PortalPath   string
	Port         int
	PollInterval time.Duration
	Storage      StorageType
	SQLitePath   string
	HistoryTTL   time.Duration
	LogFormat    string
	LogLevel     string
}

// Parse reads flags with PORTAL_* environment fallbacks (main loads .env
// beforehand).
func Parse() *Config {
	cfg := &Config{}

	flag.StringVar(&cfg.PortalPath, "config", envOr("PORTAL_CONFIG", "./portal.yaml"), "Portal configuration file")
	flag.IntVar(&cfg.Port, "port", envIntOr("PORTAL_PORT", 5000), "Web server port")
	flag.DurationVar(&cfg.PollInterval, "poll-interval", envDurationOr("PORTAL_POLL_INTERVAL", 10*time.Second), "Instance probing interval")

	var storageStr string
	flag.StringVar(&storageStr, "storage", envOr("PORTAL_STORAGE", "memory"), "World history storage: memory or sqlite")

	flag.StringVar(&cfg.SQLitePath, "sqlite-path", envOr("PORTAL_SQLITE_PATH", "./worlds.db"), "SQLite database path")
	flag.DurationVar(&cfg.HistoryTTL, "history-ttl", envDurationOr("PORTAL_HISTORY_TTL", 0), "World history retention, 0 keeps forever")
	flag.StringVar(&cfg.LogFormat, "log-format", envOr("PORTAL_LOG_FORMAT", "text"), "Log format: text or json")
	flag.StringVar(&cfg.LogLevel, "log-level", envOr("PORTAL_LOG_LEVEL", "info"), "Log level: debug, info, warn or error")

	flag.Parse()

	cfg.Storage = StorageType(storageStr)
	if cfg.Storage != StorageMemory && cfg.Storage != StorageSQLite {
		cfg.Storage = StorageMemory
	}

	return cfg
}

// Level maps the configured log level onto slog, defaulting to info.
func (c *Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDurationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
