package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultModel, cfg.Model)
	assert.Equal(t, TransportREST, cfg.Transport)
	assert.Equal(t, ShapeSystemInstruction, cfg.RequestShape)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "sdk transport", mutate: func(c *Config) { c.Transport = TransportSDK }},
		{name: "inline shape", mutate: func(c *Config) { c.RequestShape = ShapeInlineTurn }},
		{name: "keyring backend", mutate: func(c *Config) { c.Storage.Backend = BackendKeyring }},
		{name: "no timeout", mutate: func(c *Config) { c.RequestTimeout = 0 }},
		{name: "empty model", mutate: func(c *Config) { c.Model = "" }, wantErr: true},
		{name: "empty base url", mutate: func(c *Config) { c.BaseURL = "" }, wantErr: true},
		{name: "unknown transport", mutate: func(c *Config) { c.Transport = "grpc" }, wantErr: true},
		{name: "unknown shape", mutate: func(c *Config) { c.RequestShape = "both" }, wantErr: true},
		{name: "unknown renderer", mutate: func(c *Config) { c.Renderer = "html" }, wantErr: true},
		{name: "unknown backend", mutate: func(c *Config) { c.Storage.Backend = "sqlite" }, wantErr: true},
		{name: "negative timeout", mutate: func(c *Config) { c.RequestTimeout = -time.Second }, wantErr: true},
		{name: "zero log size", mutate: func(c *Config) { c.Log.MaxSizeMB = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadFromCreatesDefault(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvModel, "")
	t.Setenv(EnvBaseURL, "")

	path := filepath.Join(t.TempDir(), "nested", DefaultConfigFile)

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, cfg.Model)

	_, err = os.Stat(path)
	assert.NoError(t, err, "default config should be written on first load")
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvModel, "")
	t.Setenv(EnvBaseURL, "")

	path := filepath.Join(t.TempDir(), DefaultConfigFile)

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	cfg.Model = "gemini-1.5-pro"
	cfg.RequestShape = ShapeInlineTurn
	cfg.RequestTimeout = 45 * time.Second
	require.NoError(t, Save(cfg))

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "gemini-1.5-pro", loaded.Model)
	assert.Equal(t, ShapeInlineTurn, loaded.RequestShape)
	assert.Equal(t, 45*time.Second, loaded.RequestTimeout)
}

func TestLoadFromRejectsInvalidFile(t *testing.T) {
	t.Chdir(t.TempDir())

	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	require.NoError(t, os.WriteFile(path, []byte("transport: carrier-pigeon\n"), 0644))

	_, err := LoadFrom(path)
	assert.Error(t, err)
}

func TestEnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	// godotenv never overrides a variable that is already set, even to ""
	t.Setenv(EnvBaseURL, "")
	require.NoError(t, os.Unsetenv(EnvBaseURL))

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(EnvBaseURL+"=http://localhost:9999\n"), 0644))
	t.Setenv(EnvModel, "gemini-exp")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), DefaultConfigFile))
	require.NoError(t, err)
	assert.Equal(t, "gemini-exp", cfg.Model)
	assert.Equal(t, "http://localhost:9999", cfg.BaseURL)
}
