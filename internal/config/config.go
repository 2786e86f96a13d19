// Package config loads pagequest settings from a TOML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all server configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Logging  LoggingConfig  `toml:"logging"`
	Engine   EngineConfig   `toml:"engine"`
	Device   DeviceConfig   `toml:"device"`
}

type ServerConfig struct {
	Port    int    `toml:"port"`
	BaseURL string `toml:"base_url"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// EngineConfig tunes the points engine.
type EngineConfig struct {
	DefaultTimezone   string   `toml:"default_timezone"`
	DeviceStreakBonus bool     `toml:"device_streak_bonus"`
	QuizPassPoints    int      `toml:"quiz_pass_points"`
	QuizCooldown      Duration `toml:"quiz_cooldown"`
}

type DeviceConfig struct {
	RateLimitPerMinute int `toml:"rate_limit_per_minute"`
}

// Duration decodes TOML strings such as "12h".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:    8080,
			BaseURL: "http://localhost:8080",
		},
		Database: DatabaseConfig{
			Path: "pagequest.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Engine: EngineConfig{
			DefaultTimezone: "UTC",
			QuizPassPoints:  50,
			QuizCooldown:    Duration{12 * time.Hour},
		},
		Device: DeviceConfig{
			RateLimitPerMinute: 60,
		},
	}
}

// Path returns $PAGEQUEST_CONFIG, or pagequest.toml in the working
// directory.
func Path() string {
	if p := os.Getenv("PAGEQUEST_CONFIG"); p != "" {
		return p
	}
	return "pagequest.toml"
}

// Load reads the file at path over the defaults, then applies environment
// overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("PAGEQUEST_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PAGEQUEST_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("PAGEQUEST_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("PAGEQUEST_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("PAGEQUEST_TIMEZONE"); v != "" {
		cfg.Engine.DefaultTimezone = v
	}
	return nil
}

// Validate checks values that would otherwise fail later at runtime.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}
	if _, err := time.LoadLocation(c.Engine.DefaultTimezone); err != nil {
		return fmt.Errorf("engine.default_timezone: %w", err)
	}
	if c.Engine.QuizPassPoints < 0 {
		return fmt.Errorf("engine.quiz_pass_points must not be negative")
	}
	if c.Engine.QuizCooldown.Duration < 0 {
		return fmt.Errorf("engine.quiz_cooldown must not be negative")
	}
	return nil
}

// Location returns the parsed default timezone. Call after Validate.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Engine.DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
