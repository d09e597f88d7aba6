// Package config loads console configuration from an optional TOML file
// with environment-variable overrides on top.
package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the full console configuration.
type Config struct {
	// Listen is the address the console binds to.
	Listen string `toml:"listen"`
	// PageSize is the default board page size.
	PageSize int            `toml:"page_size"`
	FleetAPI FleetAPIConfig `toml:"fleet_api"`
}

// FleetAPIConfig locates the upstream fleet API.
type FleetAPIConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Default returns the configuration defaults. BaseURL has no default; it
// must come from the file, KONSOLE_API_URL, or a flag.
func Default() Config {
	return Config{
		Listen:   ":8700",
		PageSize: 25,
		FleetAPI: FleetAPIConfig{
			TimeoutSeconds: 15,
		},
	}
}

// Read decodes a Config from r on top of the defaults.
func Read(r io.Reader) (Config, error) {
	cfg := Default()
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Load reads the config file at path (skipped when path is empty), applies
// environment overrides, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to open config file: %w", err)
		}
		defer f.Close()
		cfg, err = Read(f)
		if err != nil {
			return Config{}, fmt.Errorf("reading config from %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("KONSOLE_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("KONSOLE_API_URL"); v != "" {
		c.FleetAPI.BaseURL = v
	}
	if v := os.Getenv("KONSOLE_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.PageSize = n
		}
	}
}

// Validate reports configuration the console cannot start with.
func (c Config) Validate() error {
	if c.FleetAPI.BaseURL == "" {
		return fmt.Errorf("fleet_api.base_url is required (or set KONSOLE_API_URL)")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page_size must be positive, got %d", c.PageSize)
	}
	if c.FleetAPI.TimeoutSeconds <= 0 {
		return fmt.Errorf("fleet_api.timeout_seconds must be positive, got %d", c.FleetAPI.TimeoutSeconds)
	}
	return nil
}

// Timeout returns the upstream request timeout as a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.FleetAPI.TimeoutSeconds) * time.Second
}
