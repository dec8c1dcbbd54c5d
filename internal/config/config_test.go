package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := FromEnv(env(nil))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DBType)
	assert.Equal(t, "drill.db", filepath.Base(cfg.DBPath))
	assert.Equal(t, "09:00", cfg.ReminderTime)
	assert.Equal(t, 0.6, cfg.ReminderThreshold)
	assert.Equal(t, cfg.DBPath, cfg.DSN())
	assert.Error(t, cfg.RequireTelegram())
}

func TestFromEnv(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"DB_TYPE":            "postgres",
		"DATABASE_URL":       "postgres://drill@localhost/drill?sslmode=disable",
		"TELEGRAM_BOT_TOKEN": "123:abc",
		"TELEGRAM_CHAT_ID":   "-100200",
		"REMINDER_TIME":      "18:30",
		"REMINDER_THRESHOLD": "0.75",
		"LOG_LEVEL":          "debug",
	}))
	require.NoError(t, err)
	assert.Equal(t, "postgres://drill@localhost/drill?sslmode=disable", cfg.DSN())
	assert.Equal(t, int64(-100200), cfg.TelegramChatID)
	assert.Equal(t, "18:30", cfg.ReminderTime)
	assert.Equal(t, 0.75, cfg.ReminderThreshold)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.NoError(t, cfg.RequireTelegram())
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	bad := []map[string]string{
		{"TELEGRAM_CHAT_ID": "me"},
		{"REMINDER_THRESHOLD": "high"},
		{"REMINDER_THRESHOLD": "1.5"},
		{"REMINDER_TIME": "9am"},
		{"DB_TYPE": "mysql"},
		{"DB_TYPE": "postgres"},
	}
	for _, vars := range bad {
		_, err := FromEnv(env(vars))
		assert.Error(t, err, "%v", vars)
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drill.env")
	require.NoError(t, os.WriteFile(path, []byte("DRILL_SETS_DIR=/srv/sets\nREMINDER_TIME=07:15\n"), 0o600))
	t.Setenv("DRILL_SETS_DIR", "")
	t.Setenv("REMINDER_TIME", "")
	os.Unsetenv("DRILL_SETS_DIR")
	os.Unsetenv("REMINDER_TIME")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/sets", cfg.SetsDir)
	assert.Equal(t, "07:15", cfg.ReminderTime)
}

func TestLoadIgnoresMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestReadLeavesValidationToCaller(t *testing.T) {
	t.Setenv("DB_TYPE", "postgres")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Read(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.DBType)
	assert.Error(t, cfg.Validate())

	_, err = Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.Error(t, err)

	cfg.DBType = "sqlite"
	assert.NoError(t, cfg.Validate())
}
