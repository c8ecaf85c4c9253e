package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyclonewatch/stormtrack/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	err := os.WriteFile(path, []byte("database:\n  url: postgres://localhost/stormtrack\n"), 0o600)
	require.NoError(t, err)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Schedule.WorkerCount)
	assert.Equal(t, 1, cfg.Fetch.RateLimitPerOrigin)
	assert.Equal(t, 24, cfg.Lifecycle.DormantHours)
	assert.True(t, cfg.Features.RadiiInference)
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	err := os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0o600)
	require.NoError(t, err)

	_, err = config.Load(path)
	require.ErrorIs(t, err, config.ErrInvalidDatabaseURL)
}

func TestLoad_InvalidWorkerCount(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	err := os.WriteFile(path, []byte(
		"database:\n  url: postgres://localhost/stormtrack\nschedule:\n  worker_count: 0\n"), 0o600)
	require.NoError(t, err)

	_, err = config.Load(path)
	require.ErrorIs(t, err, config.ErrInvalidWorkerCount)
}
