package config

import (
	"errors"
	"os"
	"time"
)

// ErrMissingDatabaseURL is returned when no database DSN is configured.
var ErrMissingDatabaseURL = errors.New("DATABASE_URL is required")

// Logo variant and device policy labels accepted in configuration.
const (
	VariantFull     = "full"
	VariantStripped = "stripped"

	PolicyReject      = "reject"
	PolicyEvictOldest = "evict-oldest"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL  string        `yaml:"database_url" env:"DATABASE_URL"`
	RedisURL     string        `yaml:"redis_url" env:"REDIS_URL"`
	ServerPort   string        `yaml:"server_port" env:"SERVER_PORT"`
	UploadsDir   string        `yaml:"uploads_dir" env:"UPLOADS_DIR"`
	LogoVariant  string        `yaml:"logo_variant" env:"LOGO_VARIANT"`
	DevicePolicy string        `yaml:"device_policy" env:"DEVICE_POLICY"`
	PushInterval time.Duration `yaml:"push_interval" env:"PUSH_INTERVAL"`
	FileBaseURL  string        `yaml:"file_base_url" env:"FILE_BASE_URL"`
}

// Load builds config from environment variables.
// If DATABASE_URL is not set, Load tries to load .env.local and .env from
// the current directory first. DATABASE_URL is required; everything else
// has a default.
func Load() (*Config, error) {
	if os.Getenv("DATABASE_URL") == "" {
		loadEnvFiles()
	}
	c := &Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		RedisURL:     os.Getenv("REDIS_URL"),
		ServerPort:   os.Getenv("SERVER_PORT"),
		UploadsDir:   os.Getenv("UPLOADS_DIR"),
		LogoVariant:  os.Getenv("LOGO_VARIANT"),
		DevicePolicy: os.Getenv("DEVICE_POLICY"),
		FileBaseURL:  os.Getenv("FILE_BASE_URL"),
	}
	if s := os.Getenv("PUSH_INTERVAL"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			c.PushInterval = d
		}
	}
	applyDefaults(c)
	if c.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}
	return c, nil
}

func applyDefaults(c *Config) {
	if c.ServerPort == "" {
		c.ServerPort = "8080"
	}
	if c.UploadsDir == "" {
		c.UploadsDir = "uploads"
	}
	if c.LogoVariant == "" {
		c.LogoVariant = VariantFull
	}
	if c.DevicePolicy == "" {
		c.DevicePolicy = PolicyReject
	}
	if c.PushInterval <= 0 {
		c.PushInterval = 10 * time.Second
	}
}
