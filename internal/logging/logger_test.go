package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesToRotatedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, InitLogger(Options{Dir: dir, MaxSizeMB: 1}))

	Info("turn sent model=%s", "gemini-test")
	Error("request failed: %v", "boom")
	Debug("hidden %d", 1)
	Close()

	data, err := os.ReadFile(filepath.Join(dir, logFileName))
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, "[INFO] turn sent model=gemini-test")
	assert.Contains(t, out, "[ERROR] request failed: boom")
	assert.NotContains(t, out, "hidden", "debug lines are dropped unless enabled")
}

func TestDebugEnabled(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, InitLogger(Options{Dir: dir, Debug: true, MaxSizeMB: 1}))

	Debug("visible %d", 2)
	Close()

	data, err := os.ReadFile(filepath.Join(dir, logFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "[DEBUG] visible 2")
}

func TestLoggingBeforeInitIsNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		Info("nothing")
		Debug("nothing")
		Error("nothing")
		Close()
	})
}
