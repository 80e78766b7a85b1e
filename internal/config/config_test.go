package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipebook/internal/store"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"RECIPEBOOK_API_URL", "RECIPEBOOK_LOG_PATH", "RECIPEBOOK_LOG_LEVEL", "RECIPEBOOK_STALE_RESPONSES", "RECIPEBOOK_CONFIG"} {
		t.Setenv(k, "")
	}
}

func TestLoadOrCreateWritesDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "recipebook", DefaultConfigFileName)

	cfg, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(path), cfg)
	assert.Equal(t, filepath.Join(filepath.Dir(path), DefaultLogFileName), cfg.LogPath)

	_, err = os.Stat(path)
	require.NoError(t, err)

	again, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadOrCreateFillsMissingValues(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), DefaultConfigFileName)
	data := "api_url = \"http://recipes.local:9000\"\nstale_responses = \"apply\"\n\n[keys]\nquit = \"ctrl+q\"\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.Equal(t, "http://recipes.local:9000", cfg.APIURL)
	assert.Equal(t, store.ApplyLastArrival, cfg.StalePolicy())
	assert.Equal(t, "ctrl+q", cfg.Keys.Quit)
	assert.Equal(t, "a", cfg.Keys.Add)
	assert.Equal(t, "enter", cfg.Keys.Confirm)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), DefaultConfigFileName)
	_, err := LoadOrCreate(path)
	require.NoError(t, err)

	t.Setenv("RECIPEBOOK_API_URL", "https://recipes.example.com/api")
	t.Setenv("RECIPEBOOK_LOG_LEVEL", "debug")

	cfg, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.Equal(t, "https://recipes.example.com/api", cfg.APIURL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "drop", cfg.StaleResponses)
}

func TestLoadOrCreateRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"relative url", "api_url = \"127.0.0.1:8000\"\n"},
		{"unknown policy", "stale_responses = \"newest\"\n"},
		{"unknown level", "log_level = \"chatty\"\n"},
		{"broken toml", "api_url = \n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			path := filepath.Join(t.TempDir(), DefaultConfigFileName)
			require.NoError(t, os.WriteFile(path, []byte(tt.data), 0o644))

			_, err := LoadOrCreate(path)
			assert.Error(t, err)
		})
	}
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv("RECIPEBOOK_CONFIG", "/tmp/custom.toml")
	assert.Equal(t, "/tmp/custom.toml", ResolveConfigPath())

	t.Setenv("RECIPEBOOK_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	t.Setenv("HOME", "/tmp/home")
	assert.Contains(t, ResolveConfigPath(), filepath.Join("recipebook", DefaultConfigFileName))
}
