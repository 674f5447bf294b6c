package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SMARTLIBRARY_DB", "")
	t.Setenv("SMARTLIBRARY_LOG", "")

	cfg := Load()
	assert.Equal(t, DefaultDBPath, cfg.DBPath)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SMARTLIBRARY_DB", "/tmp/custom.db")
	t.Setenv("SMARTLIBRARY_LOG", "debug")

	cfg := Load()
	assert.Equal(t, "/tmp/custom.db", cfg.DBPath)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestUnknownLevelFallsBack(t *testing.T) {
	t.Setenv("SMARTLIBRARY_LOG", "loud")
	assert.Equal(t, slog.LevelInfo, Load().LogLevel)
}
