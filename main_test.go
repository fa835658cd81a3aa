package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fauxpas/config"
	"fauxpas/logger"
)

// startupEnv points run at an isolated config and restores the global logger.
func startupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.EnvConfigPath, filepath.Join(dir, "config.yaml"))
	t.Setenv(config.EnvHistoryPath, "")
	prev := logger.Logger
	t.Cleanup(func() { logger.Logger = prev })
	return dir
}

func TestRunMalformedConfigIsReported(t *testing.T) {
	dir := startupEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("http: [oops"), 0o644))

	err := run()
	require.Error(t, err)

	var out bytes.Buffer
	reportFatal(&out, err)
	assert.Contains(t, out.String(), "Error: parse config")
}

func TestRunBadLogLevelIsReported(t *testing.T) {
	startupEnv(t)
	t.Setenv(config.EnvLogLevel, "verbose")

	err := run()
	require.Error(t, err)

	var out bytes.Buffer
	reportFatal(&out, err)
	assert.Contains(t, out.String(), "verbose")
}

func TestRunMissingBundleReportsHint(t *testing.T) {
	startupEnv(t)
	t.Setenv(config.EnvLogLevel, "error")
	t.Setenv(config.EnvBundlePath, filepath.Join(t.TempDir(), "missing.json"))

	err := run()
	require.Error(t, err)
	require.NotEmpty(t, errors.GetAllHints(err))

	var out bytes.Buffer
	reportFatal(&out, err)
	assert.Contains(t, out.String(), "missing.json")
	assert.Contains(t, out.String(), "Hint: ")
}
