// Package config loads synth.yaml, the optional defaults file for the
// synth CLI.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFile is read from the working directory when no path is given.
const DefaultFile = "synth.yaml"

// Config represents a synth.yaml configuration file.
// All values are optional and act as defaults for command flags.
// CLI flags always override config values.
type Config struct {
	Seed        *uint64     `yaml:"seed"`
	Size        *int        `yaml:"size"`
	Retries     *int        `yaml:"retries"`
	Unique      *bool       `yaml:"unique"`
	MaxAttempts *int        `yaml:"max_attempts"`
	Now         string      `yaml:"now"`
	Store       StoreConfig `yaml:"store"`
	Log         LogConfig   `yaml:"log"`
}

// StoreConfig holds run store defaults.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// LogConfig holds logging defaults.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a YAML config file, expands environment variables, and
// unmarshals into a Config struct. Unknown keys are errors.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("cannot read config file %q: %w", path, err)
	}

	cfg, err := Parse([]byte(ExpandEnv(string(data))))
	if err != nil {
		return nil, fmt.Errorf("invalid config in %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates config YAML. Environment variables are not
// expanded.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Discover loads path, or DefaultFile when path is empty and the file
// exists. With neither it returns an empty Config.
func Discover(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	if _, err := os.Stat(DefaultFile); err == nil {
		return Load(DefaultFile)
	}
	return &Config{}, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Size != nil && *c.Size < 0 {
		return fmt.Errorf("size must be non-negative, got %d", *c.Size)
	}
	if c.Retries != nil && *c.Retries < 0 {
		return fmt.Errorf("retries must be non-negative, got %d", *c.Retries)
	}
	if c.MaxAttempts != nil && *c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be positive, got %d", *c.MaxAttempts)
	}
	if _, _, err := c.NowTime(); err != nil {
		return err
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}
	return nil
}

// NowTime parses the pinned "now" instant, if any.
func (c *Config) NowTime() (time.Time, bool, error) {
	if c.Now == "" {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(time.RFC3339Nano, c.Now)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("now must be an RFC 3339 time: %w", err)
	}
	return t, true, nil
}
