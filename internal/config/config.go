// internal/config/config.go

// Package config assembles the server configuration: built-in defaults
// overridden field by field from QUERYKV_* environment variables.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every server setting.
type Config struct {
	// ListenAddr is the TCP address the server binds.
	ListenAddr string
	// DataDir is the directory holding one snapshot file per collection.
	DataDir string
	// Collections are created empty at startup when no file exists for them.
	Collections []string
	// SnapshotInterval is the period of the background snapshot scheduler.
	SnapshotInterval time.Duration
	// SnapshotsEnabled turns the scheduler off entirely when false.
	SnapshotsEnabled bool
	// MaxConnections caps concurrently served sessions; further clients
	// queue until a session ends.
	MaxConnections int
	// LogLevel is the minimum level emitted by the server logger.
	LogLevel slog.Level
}

// NewDefaultConfig returns the built-in defaults, which work with no
// environment at all.
func NewDefaultConfig() Config {
	return Config{
		ListenAddr:       "127.0.0.1:65535",
		DataDir:          "data",
		Collections:      nil,
		SnapshotInterval: 60 * time.Minute,
		SnapshotsEnabled: true,
		MaxConnections:   1,
		LogLevel:         slog.LevelInfo,
	}
}

// LoadConfig builds the effective configuration. A malformed variable keeps
// its default and warns rather than failing the boot.
func LoadConfig() Config {
	cfg := NewDefaultConfig()
	applyEnvConfig(&cfg)
	return cfg
}

func applyEnvConfig(cfg *Config) {
	if addr := os.Getenv("QUERYKV_LISTEN_ADDR"); addr != "" {
		cfg.ListenAddr = addr
		slog.Info("Overriding listen address from env", "addr", addr)
	}
	if dir := os.Getenv("QUERYKV_DATA_DIR"); dir != "" {
		cfg.DataDir = dir
		slog.Info("Overriding data directory from env", "dir", dir)
	}
	if raw := os.Getenv("QUERYKV_COLLECTIONS"); raw != "" {
		var names []string
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
		cfg.Collections = names
		slog.Info("Overriding preloaded collections from env", "collections", names)
	}
	overrideDuration(&cfg.SnapshotInterval, "QUERYKV_SNAPSHOT_INTERVAL")
	overrideBool(&cfg.SnapshotsEnabled, "QUERYKV_SNAPSHOTS_ENABLED")
	overridePositiveInt(&cfg.MaxConnections, "QUERYKV_MAX_CONNECTIONS")
	overrideLogLevel(&cfg.LogLevel, "QUERYKV_LOG_LEVEL")
}

// overrideDuration applies an env var in Go duration syntax, e.g. "90s" or
// "2h30m". Non-positive durations are rejected with the parse failures.
func overrideDuration(target *time.Duration, envVar string) {
	raw := os.Getenv(envVar)
	if raw == "" {
		return
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		slog.Warn("Invalid duration in env, keeping default", "var", envVar, "value", raw, "default", *target)
		return
	}
	*target = parsed
	slog.Info("Overriding duration from env", "var", envVar, "value", parsed)
}

func overrideBool(target *bool, envVar string) {
	raw := os.Getenv(envVar)
	if raw == "" {
		return
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		slog.Warn("Invalid boolean in env, keeping default", "var", envVar, "value", raw, "default", *target)
		return
	}
	*target = parsed
	slog.Info("Overriding flag from env", "var", envVar, "value", parsed)
}

func overridePositiveInt(target *int, envVar string) {
	raw := os.Getenv(envVar)
	if raw == "" {
		return
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 1 {
		slog.Warn("Invalid count in env, keeping default", "var", envVar, "value", raw, "default", *target)
		return
	}
	*target = parsed
	slog.Info("Overriding count from env", "var", envVar, "value", parsed)
}

func overrideLogLevel(target *slog.Level, envVar string) {
	raw := os.Getenv(envVar)
	if raw == "" {
		return
	}
	switch strings.ToLower(raw) {
	case "debug":
		*target = slog.LevelDebug
	case "info":
		*target = slog.LevelInfo
	case "warn", "warning":
		*target = slog.LevelWarn
	case "error":
		*target = slog.LevelError
	default:
		slog.Warn("Invalid log level in env, keeping default", "var", envVar, "value", raw, "default", *target)
		return
	}
	slog.Info("Overriding log level from env", "var", envVar, "level", *target)
}
