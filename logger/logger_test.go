package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func restoreLogger(t *testing.T) {
	prev := Logger
	t.Cleanup(func() { Logger = prev })
}

func TestDefaultLoggerIsNoop(t *testing.T) {
	require.NotNil(t, Logger)
	assert.NotPanics(t, func() { Named("test").Infow("hello", FieldStatus, 200) })
}

func TestInitializeWritesFile(t *testing.T) {
	restoreLogger(t)
	path := filepath.Join(t.TempDir(), "fauxpas.log")

	require.NoError(t, Initialize(Config{Level: "debug", Format: "json", File: path}))
	Named("pipeline").Infow("prediction served", FieldClass, "edible")
	Cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"prediction served"`)
	assert.Contains(t, string(data), `"component":"pipeline"`)
}

func TestInitializeRespectsLevel(t *testing.T) {
	restoreLogger(t)
	path := filepath.Join(t.TempDir(), "fauxpas.log")

	require.NoError(t, Initialize(Config{Level: "warn", File: path}))
	Logger.Info("dropped")
	Logger.Warn("kept")
	Cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), "kept")
}

func TestInitializeRejectsBadConfig(t *testing.T) {
	restoreLogger(t)
	Logger = zap.NewNop().Sugar()

	assert.ErrorContains(t, Initialize(Config{Level: "loud"}), `unknown log level "loud"`)
	assert.ErrorContains(t, Initialize(Config{Format: "xml"}), `unknown log format "xml"`)
}
