package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/trivial-timesheet/internal/config"
)

func TestLoadWritesTemplateOnFirstRun(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[storage]")

	assert.Equal(t, config.StorageFile, cfg.Storage.Type)
	assert.Equal(t, filepath.Join(dir, "nested", "data"), cfg.Storage.Dir)
	assert.Equal(t, config.DefaultServerAddr, cfg.Server.Addr)

	// The template itself must decode and keep the same defaults.
	again, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadPartialFileGetsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
timezone = "Europe/Berlin"
user = "u1"

[storage]
type = "sqlite"

[s3]
bucket = "reports"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Europe/Berlin", cfg.Timezone)
	assert.Equal(t, "u1", cfg.User)
	assert.Equal(t, config.StorageSQLite, cfg.Storage.Type)
	assert.Equal(t, filepath.Join(dir, "tts.db"), cfg.Storage.SQLitePath)
	assert.Equal(t, "reports", cfg.S3.Bucket)
	assert.Equal(t, config.DefaultFirestoreDatabase, cfg.Firestore.Database)
	assert.Equal(t, config.DefaultTokenURL, cfg.Firestore.TokenURL)
	assert.Equal(t, 60*time.Second, cfg.Server.CacheTTL())
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("timezone = \n"), 0o600))

	cfg, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete the file")
	assert.Equal(t, config.StorageFile, cfg.Storage.Type)
}

func TestRead(t *testing.T) {
	cfg, err := config.Read(strings.NewReader("log_level = \"debug\"\n[server]\naddr = \":9000\"\n"))
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, "", cfg.Storage.Type)
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"nonsense", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := (config.Config{LogLevel: tt.in}).SlogLevel(); got != tt.want {
			t.Errorf("SlogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
