// Package config holds the game server settings: built-in defaults, an
// optional YAML file named by ATOMSIM_CONFIG, then environment overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the game server configuration.
type Config struct {
	Addr        string `yaml:"addr"`
	DBPath      string `yaml:"db"`
	CatalogPath string `yaml:"catalog"` // empty = built-in catalog
	AdminKey    string `yaml:"admin_key"`

	FPS             int     `yaml:"fps"`
	AutosaveSeconds int     `yaml:"autosave_seconds"`
	Speed           float64 `yaml:"speed"`
	Seed            int64   `yaml:"seed"` // 0 = seeded from the clock

	ClickRate  float64 `yaml:"click_rate"` // clicks per second per client, 0 = unlimited
	ClickBurst int     `yaml:"click_burst"`

	LogLevel string `yaml:"log_level"` // debug, info, warn, error
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:            ":8080",
		DBPath:          "data/atoms.db",
		FPS:             60,
		AutosaveSeconds: 30,
		Speed:           1,
		ClickRate:       20,
		ClickBurst:      40,
		LogLevel:        "info",
	}
}

// Load reads the YAML file at path over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// FromEnv resolves the full configuration: defaults, the file named by
// ATOMSIM_CONFIG if set, then ATOMSIM_* variables. The result is validated.
func FromEnv() (Config, error) {
	cfg := Default()
	if path := os.Getenv("ATOMSIM_CONFIG"); path != "" {
		var err error
		if cfg, err = Load(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	setString(&c.Addr, "ATOMSIM_ADDR")
	setString(&c.DBPath, "ATOMSIM_DB")
	setString(&c.CatalogPath, "ATOMSIM_CATALOG")
	setString(&c.AdminKey, "ATOMSIM_ADMIN_KEY")
	setString(&c.LogLevel, "ATOMSIM_LOG_LEVEL")

	var errs []error
	errs = append(errs,
		setInt(&c.FPS, "ATOMSIM_FPS"),
		setInt(&c.AutosaveSeconds, "ATOMSIM_AUTOSAVE"),
		setInt(&c.ClickBurst, "ATOMSIM_CLICK_BURST"),
		setFloat(&c.ClickRate, "ATOMSIM_CLICK_RATE"),
		setFloat(&c.Speed, "ATOMSIM_SPEED"),
	)
	if v := os.Getenv("ATOMSIM_SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("ATOMSIM_SEED: %w", err))
		} else {
			c.Seed = n
		}
	}
	return errors.Join(errs...)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = f
	return nil
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	switch {
	case c.FPS <= 0:
		return fmt.Errorf("fps must be positive, got %d", c.FPS)
	case c.AutosaveSeconds <= 0:
		return fmt.Errorf("autosave_seconds must be positive, got %d", c.AutosaveSeconds)
	case c.Speed < 0:
		return fmt.Errorf("speed must not be negative, got %v", c.Speed)
	case c.ClickRate < 0:
		return fmt.Errorf("click_rate must not be negative, got %v", c.ClickRate)
	case c.DBPath == "":
		return errors.New("db path is empty")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return l, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}

// AutosaveFrames converts the autosave interval to engine frames.
func (c Config) AutosaveFrames() uint64 {
	return uint64(c.AutosaveSeconds) * uint64(c.FPS)
}
