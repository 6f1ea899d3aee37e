// Package config loads server settings from an optional YAML file and
// UKPYTHON_* environment variables. Environment values win over the file.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/robfig/cron/v3"
)

// Config is the server configuration
type Config struct {
	Port    string `yaml:"port" env:"PORT" env-default:"8080"`
	BaseURL string `yaml:"base_url" env:"UKPYTHON_BASE_URL" env-default:"http://localhost:8080"`
	GinMode string `yaml:"gin_mode" env:"GIN_MODE" env-default:"release"`

	DBPath  string `yaml:"db_path" env:"UKPYTHON_DB_PATH" env-default:"ukpython.db"`
	DBDebug bool   `yaml:"db_debug" env:"UKPYTHON_DB_DEBUG" env-default:"false"`

	// DumpDir is the content tree loaded at startup and on ReloadCron.
	DumpDir string `yaml:"dump_dir" env:"UKPYTHON_DUMP_DIR" env-default:"content"`
	// ReloadCron is a five-field cron schedule; empty disables reloading.
	ReloadCron string `yaml:"reload_cron" env:"UKPYTHON_RELOAD_CRON"`
	// Timezone decides which calendar day counts as "today".
	Timezone string `yaml:"timezone" env:"UKPYTHON_TIMEZONE" env-default:"Europe/London"`

	JWTSecret         string `yaml:"jwt_secret" env:"JWT_SECRET" env-default:"ukpython-dev-secret-change-in-production"`
	AdminUsername     string `yaml:"admin_username" env:"UKPYTHON_ADMIN_USERNAME" env-default:"admin"`
	AdminPasswordHash string `yaml:"admin_password_hash" env:"UKPYTHON_ADMIN_PASSWORD_HASH"`

	LogLevel  string `yaml:"log_level" env:"UKPYTHON_LOG_LEVEL" env-default:"info"`
	LogFormat string `yaml:"log_format" env:"UKPYTHON_LOG_FORMAT" env-default:"json"`
}

// Load reads the configuration. path may be empty, in which case only the
// environment is consulted.
func Load(path string) (*Config, error) {
	var cfg Config
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail later at startup
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("db_path is required")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.ReloadCron != "" {
		if _, err := cron.ParseStandard(c.ReloadCron); err != nil {
			return fmt.Errorf("invalid reload_cron %q: %w", c.ReloadCron, err)
		}
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log_format %q: want json or console", c.LogFormat)
	}
	return nil
}

// Location resolves Timezone
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
