package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("WORDY_CONFIG", "")

	cfg := LoadConfig()
	assert.Equal(t, DBDriverSQLite, cfg.DBDriver)
	assert.Equal(t, StorageBackendLocal, cfg.StorageBackend)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfig_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "wordy.yaml")
	yamlBody := "port: \"9001\"\nstorage_root: /srv/wordy\nenvironment: prod\ncors_origins: \"https://a.example, https://b.example\"\n"
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o644))

	t.Setenv("WORDY_CONFIG", path)
	t.Setenv("PORT", "9002")

	cfg := LoadConfig()
	assert.Equal(t, "9002", cfg.Port, "env overrides yaml")
	assert.Equal(t, "/srv/wordy", cfg.StorageRoot)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins())
}

func TestLoadConfig_BadNumbersFallBack(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("WORDY_CONFIG", "")
	t.Setenv("MAX_UPLOAD_BYTES", "lots")

	cfg := LoadConfig()
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
}
