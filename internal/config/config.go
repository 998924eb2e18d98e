package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"gopkg.in/yaml.v3"

	"yousef/internal/protocol"
)

const (
	DefaultListenAddr  = ":7070"
	DefaultJoinTimeout = 1500 * time.Millisecond
	DefaultRateLimit   = 20
)

// Config is the process configuration read from the environment.
type Config struct {
	ListenAddr    string
	AdvertiseAddr string
	SettingsFile  string
	DatabaseURL   string
	JoinTimeout   time.Duration
	RateLimit     int
}

// Load reads the environment, including any .env file in the working directory.
func Load() (Config, error) {
	cfg := Config{
		ListenAddr:    getenv("YOUSEF_LISTEN_ADDR", DefaultListenAddr),
		AdvertiseAddr: os.Getenv("YOUSEF_ADVERTISE_ADDR"),
		SettingsFile:  os.Getenv("YOUSEF_SETTINGS_FILE"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		JoinTimeout:   DefaultJoinTimeout,
		RateLimit:     DefaultRateLimit,
	}

	if v := os.Getenv("YOUSEF_JOIN_TIMEOUT_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			return Config{}, fmt.Errorf("invalid YOUSEF_JOIN_TIMEOUT_MS %q", v)
		}
		cfg.JoinTimeout = time.Duration(ms) * time.Millisecond
	}
	if v := os.Getenv("YOUSEF_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("invalid YOUSEF_RATE_LIMIT %q", v)
		}
		cfg.RateLimit = n
	}
	return cfg, nil
}

// LoadSettings reads room settings from a YAML file. Keys the file leaves out
// keep their defaults. An empty path returns the defaults.
func LoadSettings(path string) (protocol.Settings, error) {
	settings := protocol.DefaultSettings()
	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return settings, fmt.Errorf("read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("parse settings %s: %w", path, err)
	}
	if err := settings.Validate(); err != nil {
		return settings, err
	}
	return settings, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
