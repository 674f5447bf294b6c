// Package config loads runtime settings from the environment, with an
// optional .env file for local development.
package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// Defaults applied when the environment is silent.
const (
	DefaultDBPath   = "smartlibrary.db"
	DefaultLogLevel = "info"
)

// Config holds the program's runtime settings.
type Config struct {
	DBPath   string
	LogLevel slog.Level
}

// Load reads settings from a .env file (if present) and the process
// environment. Missing values fall back to defaults.
func Load() *Config {
	// A missing .env is fine; env vars still apply.
	_ = godotenv.Load()

	cfg := &Config{
		DBPath:   DefaultDBPath,
		LogLevel: slog.LevelInfo,
	}

	if path := os.Getenv("SMARTLIBRARY_DB"); path != "" {
		cfg.DBPath = path
	}
	cfg.LogLevel = parseLevel(os.Getenv("SMARTLIBRARY_LOG"))

	return cfg
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "", DefaultLogLevel:
		return slog.LevelInfo
	default:
		return slog.LevelInfo
	}
}
