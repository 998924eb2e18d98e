package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yousef/internal/protocol"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"YOUSEF_LISTEN_ADDR", "YOUSEF_ADVERTISE_ADDR", "YOUSEF_SETTINGS_FILE", "DATABASE_URL", "YOUSEF_JOIN_TIMEOUT_MS", "YOUSEF_RATE_LIMIT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Config{
		ListenAddr:  DefaultListenAddr,
		JoinTimeout: DefaultJoinTimeout,
		RateLimit:   DefaultRateLimit,
	}, cfg)
}

func TestLoadFromEnv(t *testing.T) {
	assert := assert.New(t)
	t.Setenv("YOUSEF_LISTEN_ADDR", "127.0.0.1:9000")
	t.Setenv("YOUSEF_ADVERTISE_ADDR", "game.example:9000")
	t.Setenv("DATABASE_URL", "postgres://localhost/yousef")
	t.Setenv("YOUSEF_JOIN_TIMEOUT_MS", "2500")
	t.Setenv("YOUSEF_RATE_LIMIT", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal("127.0.0.1:9000", cfg.ListenAddr)
	assert.Equal("game.example:9000", cfg.AdvertiseAddr)
	assert.Equal("postgres://localhost/yousef", cfg.DatabaseURL)
	assert.Equal(2500*time.Millisecond, cfg.JoinTimeout)
	assert.Equal(0, cfg.RateLimit)
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"YOUSEF_JOIN_TIMEOUT_MS", "soon"},
		{"YOUSEF_JOIN_TIMEOUT_MS", "0"},
		{"YOUSEF_RATE_LIMIT", "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv("YOUSEF_JOIN_TIMEOUT_MS", "")
			t.Setenv("YOUSEF_RATE_LIMIT", "")
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "room.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadSettings(t *testing.T) {
	assert := assert.New(t)

	settings, err := LoadSettings("")
	require.NoError(t, err)
	assert.Equal(protocol.DefaultSettings(), settings)

	path := writeFile(t, "useJokers: true\ncardsPerPlayer: 5\nptsToLose: 60\n")
	settings, err = LoadSettings(path)
	require.NoError(t, err)

	want := protocol.DefaultSettings()
	want.UseJokers = true
	want.CardsPerPlayer = 5
	want.PtsToLose = 60
	assert.Equal(want, settings)
}

func TestLoadSettingsErrors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"missing file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.yaml") }},
		{"not yaml", func(t *testing.T) string { return writeFile(t, "deckCount: [1, 2\n") }},
		{"invalid values", func(t *testing.T) string { return writeFile(t, "deckCount: 0\n") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSettings(tt.path(t))
			assert.Error(t, err)
		})
	}
}
