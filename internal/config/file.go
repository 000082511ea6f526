package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	DatabaseURL  string `yaml:"database_url"`
	RedisURL     string `yaml:"redis_url"`
	ServerPort   string `yaml:"server_port"`
	UploadsDir   string `yaml:"uploads_dir"`
	LogoVariant  string `yaml:"logo_variant"`
	DevicePolicy string `yaml:"device_policy"`
	PushInterval string `yaml:"push_interval"`
	FileBaseURL  string `yaml:"file_base_url"`
}

// LoadFromFile loads config from a YAML file. database_url is required.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if f.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}
	c := &Config{
		DatabaseURL:  f.DatabaseURL,
		RedisURL:     f.RedisURL,
		ServerPort:   f.ServerPort,
		UploadsDir:   f.UploadsDir,
		LogoVariant:  f.LogoVariant,
		DevicePolicy: f.DevicePolicy,
		FileBaseURL:  f.FileBaseURL,
	}
	if f.PushInterval != "" {
		if d, err := time.ParseDuration(f.PushInterval); err == nil {
			c.PushInterval = d
		}
	}
	applyDefaults(c)
	return c, nil
}
