package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Engine.QuizPassPoints != 50 {
		t.Errorf("quiz_pass_points = %d, want 50", cfg.Engine.QuizPassPoints)
	}
	if cfg.Engine.QuizCooldown.Duration != 12*time.Hour {
		t.Errorf("quiz_cooldown = %v, want 12h", cfg.Engine.QuizCooldown)
	}
	if cfg.Engine.DeviceStreakBonus {
		t.Error("device_streak_bonus should default to false")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.Path != "pagequest.db" {
		t.Errorf("db path = %q, want pagequest.db", cfg.Database.Path)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pagequest.toml")
	data := `
[server]
port = 9090

[engine]
default_timezone = "UTC"
device_streak_bonus = true
quiz_cooldown = "6h"

[logging]
level = "debug"
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if !cfg.Engine.DeviceStreakBonus {
		t.Error("device_streak_bonus = false, want true")
	}
	if cfg.Engine.QuizCooldown.Duration != 6*time.Hour {
		t.Errorf("quiz_cooldown = %v, want 6h", cfg.Engine.QuizCooldown)
	}
	if cfg.Engine.QuizPassPoints != 50 {
		t.Errorf("quiz_pass_points = %d, want default 50", cfg.Engine.QuizPassPoints)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[server\nport = "), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PAGEQUEST_PORT", "7000")
	t.Setenv("PAGEQUEST_DB_PATH", "/tmp/pq.db")
	t.Setenv("PAGEQUEST_LOG_LEVEL", "warn")
	t.Setenv("PAGEQUEST_TIMEZONE", "UTC")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("port = %d, want 7000", cfg.Server.Port)
	}
	if cfg.Database.Path != "/tmp/pq.db" {
		t.Errorf("db path = %q, want /tmp/pq.db", cfg.Database.Path)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("log level = %q, want warn", cfg.Logging.Level)
	}
}

func TestEnvBadPort(t *testing.T) {
	t.Setenv("PAGEQUEST_PORT", "eighty")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for non-numeric port")
	}
}

func TestValidateTimezone(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Engine.DefaultTimezone = "Mars/Olympus_Mons"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}

func TestPath(t *testing.T) {
	t.Setenv("PAGEQUEST_CONFIG", "/etc/pagequest.toml")
	if got := Path(); got != "/etc/pagequest.toml" {
		t.Errorf("Path() = %q, want /etc/pagequest.toml", got)
	}
}
