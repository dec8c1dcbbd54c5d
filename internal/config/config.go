// Package config reads drill settings from an optional .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the drill commands read
type Config struct {
	// sqlite or postgres
	DBType string
	// File path of the sqlite database
	DBPath string
	// Postgres connection string
	DatabaseURL string
	// Directory of set descriptors used by "load" when no directory is given
	SetsDir string

	TelegramToken  string
	TelegramChatID int64

	// Daily reminder time, HH:MM in UTC
	ReminderTime string
	// Items below this estimate count as weak
	ReminderThreshold float64

	LogLevel string
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	dbPath := filepath.Join(".drill", "drill.db")
	if home, err := os.UserHomeDir(); err == nil {
		dbPath = filepath.Join(home, ".drill", "drill.db")
	}
	return &Config{
		DBType:            "sqlite",
		DBPath:            dbPath,
		ReminderTime:      "09:00",
		ReminderThreshold: 0.6,
		LogLevel:          "info",
	}
}

// Load is Read followed by Validate
func Load(envFiles ...string) (*Config, error) {
	cfg, err := Read(envFiles...)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read loads the .env files (a missing file is fine) and then the environment without validating,
// so callers can apply overrides first. With no arguments it reads ".env" in the working directory.
func Read(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return fromEnv(os.LookupEnv)
}

// FromEnv builds a validated config from DefaultConfig and the variables lookup returns
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	cfg, err := fromEnv(lookup)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromEnv(lookup func(string) (string, bool)) (*Config, error) {
	cfg := DefaultConfig()

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("DB_TYPE", &cfg.DBType)
	str("DRILL_DB_PATH", &cfg.DBPath)
	str("DATABASE_URL", &cfg.DatabaseURL)
	str("DRILL_SETS_DIR", &cfg.SetsDir)
	str("TELEGRAM_BOT_TOKEN", &cfg.TelegramToken)
	str("REMINDER_TIME", &cfg.ReminderTime)
	str("LOG_LEVEL", &cfg.LogLevel)

	if v, ok := lookup("TELEGRAM_CHAT_ID"); ok && v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID %q: %w", v, err)
		}
		cfg.TelegramChatID = id
	}
	if v, ok := lookup("REMINDER_THRESHOLD"); ok && v != "" {
		th, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid REMINDER_THRESHOLD %q: %w", v, err)
		}
		cfg.ReminderThreshold = th
	}
	return cfg, nil
}

// Validate checks the values that are not free-form
func (c *Config) Validate() error {
	switch c.DBType {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("invalid DB_TYPE %q: want sqlite or postgres", c.DBType)
	}
	if c.DBType == "postgres" && c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required when DB_TYPE is postgres")
	}
	if _, err := time.Parse("15:04", c.ReminderTime); err != nil {
		return fmt.Errorf("invalid REMINDER_TIME %q: want HH:MM", c.ReminderTime)
	}
	if c.ReminderThreshold < 0 || c.ReminderThreshold > 1 {
		return fmt.Errorf("invalid REMINDER_THRESHOLD %v: want a value in [0, 1]", c.ReminderThreshold)
	}
	return nil
}

// DSN returns the data source for the configured database type
func (c *Config) DSN() string {
	if c.DBType == "postgres" {
		return c.DatabaseURL
	}
	return c.DBPath
}

// RequireTelegram reports whether the bot settings are present
func (c *Config) RequireTelegram() error {
	if c.TelegramToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is not set")
	}
	if c.TelegramChatID == 0 {
		return errors.New("TELEGRAM_CHAT_ID is not set")
	}
	return nil
}
