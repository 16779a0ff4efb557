package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/checkersplay/internal/board"
	"github.com/hailam/checkersplay/internal/game"
)

func writeEnv(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, game.DefaultRules(), cfg.Rules())
}

func TestLoadPrecedence(t *testing.T) {
	path := writeEnv(t, `
CHECKERS_ADDR=:9000
CHECKERS_LOG_LEVEL=debug
CHECKERS_STRICT_CAPTURE=true
CHECKERS_MAX_QUIET_PLIES=80
CHECKERS_ALLOWED_ORIGINS=example.com, localhost:3000
UNRELATED=1
`)
	t.Setenv("CHECKERS_ADDR", ":9100")
	t.Setenv("CHECKERS_REPETITION_LIMIT", "3")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9100", cfg.Addr, "environment wins over the file")
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"example.com", "localhost:3000"}, cfg.AllowedOrigins)

	rules := cfg.Rules()
	assert.Equal(t, board.CaptureMandatory, rules.Capture)
	assert.Equal(t, 80, rules.MaxQuietPlies)
	assert.Equal(t, 3, rules.RepetitionLimit)
	assert.False(t, rules.PromotionEndsChain)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  string
	}{
		{"bad bool", "CHECKERS_STRICT_CAPTURE=maybe"},
		{"bad int", "CHECKERS_MAX_QUIET_PLIES=lots"},
		{"negative", "CHECKERS_MAX_QUIET_PLIES=-1"},
		{"repetition of one", "CHECKERS_REPETITION_LIMIT=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeEnv(t, tt.env))
			assert.Error(t, err)
		})
	}
}
