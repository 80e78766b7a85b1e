package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "recipebook.log")

	logger, closer, err := New(path, "debug")
	require.NoError(t, err)
	logger.Debug("first", "feed", "recipes")
	require.NoError(t, closer.Close())

	logger, closer, err = New(path, "warn")
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("second")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=first feed=recipes")
	assert.Contains(t, string(data), "msg=second")
	assert.NotContains(t, string(data), "hidden")
}

func TestNewWithoutPathDiscards(t *testing.T) {
	logger, closer, err := New("", "")
	require.NoError(t, err)
	logger.Error("nowhere")
	assert.NoError(t, closer.Close())
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("WARNING")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}
