// Package config reads the service settings from the environment, with an
// optional .env file in the working directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	CredentialsSQLite = "sqlite"
	CredentialsStatic = "static"
)

type Config struct {
	Port           string
	DBPath         string
	LogLevel       string
	LogFormat      string
	Credentials    string
	SeedDemo       bool
	StorageTimeout time.Duration
	DeclinePolicy  string
}

// Load reads .env when present and then the process environment.
// Variables already set in the environment win over the file.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit env file. Only a missing file is
// ignored; an unreadable or malformed one is an error.
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv, applying defaults for unset keys.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Port:           "8080",
		DBPath:         "healthybuddy.db",
		LogLevel:       "info",
		LogFormat:      "text",
		Credentials:    CredentialsSQLite,
		SeedDemo:       true,
		StorageTimeout: 5 * time.Second,
		DeclinePolicy:  "revert",
	}

	if v := getenv("HB_PORT"); v != "" {
		cfg.Port = v
	}
	if v := getenv("HB_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := getenv("HB_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := getenv("HB_LOG_FORMAT"); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}
	if v := getenv("HB_CREDENTIALS"); v != "" {
		cfg.Credentials = strings.ToLower(v)
	}
	if v := getenv("HB_SEED_DEMO"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("parse HB_SEED_DEMO: %w", err)
		}
		cfg.SeedDemo = b
	}
	if v := getenv("HB_STORAGE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse HB_STORAGE_TIMEOUT: %w", err)
		}
		cfg.StorageTimeout = d
	}
	if v := getenv("HB_DECLINE_POLICY"); v != "" {
		cfg.DeclinePolicy = strings.ToLower(v)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Credentials {
	case CredentialsSQLite, CredentialsStatic:
	default:
		return fmt.Errorf("HB_CREDENTIALS must be %q or %q, got %q", CredentialsSQLite, CredentialsStatic, c.Credentials)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("HB_LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	if c.StorageTimeout <= 0 {
		return fmt.Errorf("HB_STORAGE_TIMEOUT must be positive, got %s", c.StorageTimeout)
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("HB_PORT must be a number, got %q", c.Port)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}
