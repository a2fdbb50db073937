// Package config loads runtime settings from defaults, an optional YAML file
// and environment variables, in that order of precedence (env wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata" // timezone lookups work on hosts without zoneinfo

	"gopkg.in/yaml.v3"
)

// Config holds all runtime settings
type Config struct {
	DBPath        string        `yaml:"db_path"`
	BackupDir     string        `yaml:"backup_dir"`
	Port          string        `yaml:"port"`
	Password      string        `yaml:"password"`
	LogLevel      string        `yaml:"log_level"`
	Timezone      string        `yaml:"timezone"`
	SweepInterval time.Duration `yaml:"-"`
	SessionTTL    time.Duration `yaml:"-"`

	// TrustedSenders extends the built-in sender allowlist
	TrustedSenders []string `yaml:"trusted_senders"`
	// Merchants adds keyword -> category seed entries
	Merchants map[string]string `yaml:"merchants"`

	Location *time.Location `yaml:"-"`
}

// fileConfig mirrors Config for YAML decoding; durations are strings like "15m"
type fileConfig struct {
	Config        `yaml:",inline"`
	SweepInterval string `yaml:"sweep_interval"`
	SessionTTL    string `yaml:"session_ttl"`
}

const (
	defaultDBPath        = "./data/smsledger.db"
	defaultPort          = "8080"
	defaultSweepInterval = 15 * time.Minute
	defaultSessionTTL    = 30 * 24 * time.Hour
	defaultTimezone      = "Asia/Kolkata"
)

// Default returns the built-in settings
func Default() *Config {
	return &Config{
		DBPath:        defaultDBPath,
		Port:          defaultPort,
		LogLevel:      "info",
		Timezone:      defaultTimezone,
		SweepInterval: defaultSweepInterval,
		SessionTTL:    defaultSessionTTL,
	}
}

// Load builds the configuration from the process environment
func Load() (*Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (*Config, error) {
	cfg := Default()

	if path := getenv("SMSLEDGER_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}

	if cfg.BackupDir == "" {
		cfg.BackupDir = filepath.Join(filepath.Dir(cfg.DBPath), "backups")
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	if cfg.SweepInterval <= 0 {
		return nil, errors.New("sweep interval must be positive")
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	fc := fileConfig{Config: *c}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	sweep, session := c.SweepInterval, c.SessionTTL
	*c = fc.Config
	c.SweepInterval, c.SessionTTL = sweep, session

	if fc.SweepInterval != "" {
		if c.SweepInterval, err = time.ParseDuration(fc.SweepInterval); err != nil {
			return fmt.Errorf("parse sweep_interval: %w", err)
		}
	}
	if fc.SessionTTL != "" {
		if c.SessionTTL, err = time.ParseDuration(fc.SessionTTL); err != nil {
			return fmt.Errorf("parse session_ttl: %w", err)
		}
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.DBPath, "SMSLEDGER_DB_PATH")
	set(&c.BackupDir, "SMSLEDGER_BACKUP_DIR")
	set(&c.Port, "PORT")
	set(&c.Password, "SMSLEDGER_PASSWORD")
	set(&c.LogLevel, "LOG_LEVEL")
	set(&c.Timezone, "SMSLEDGER_TIMEZONE")

	if v := getenv("SMSLEDGER_SWEEP_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse SMSLEDGER_SWEEP_INTERVAL: %w", err)
		}
		c.SweepInterval = d
	}
	return nil
}
