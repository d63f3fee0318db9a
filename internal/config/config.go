package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigDir  = ".gemini-terminal"
	DefaultConfigFile = "config.yaml"

	DefaultModel      = "gemini-2.0-flash-exp"
	DefaultBaseURL    = "https://generativelanguage.googleapis.com"
	DefaultAPIVersion = "v1beta"

	EnvModel   = "GEMINI_TERMINAL_MODEL"
	EnvBaseURL = "GEMINI_TERMINAL_BASE_URL"
)

// Transport selects how requests reach the API
const (
	TransportREST = "rest"
	TransportSDK  = "sdk"
)

// Request shapes: where the system prompt goes in the request body
const (
	ShapeSystemInstruction = "system_instruction"
	ShapeInlineTurn        = "inline_turn"
)

// Settings storage backends
const (
	BackendBadger  = "badger"
	BackendKeyring = "keyring"
)

// Message renderers
const (
	RendererBasic   = "basic"
	RendererGlamour = "glamour"
)

// Config represents the application configuration
type Config struct {
	Model          string          `yaml:"model"`
	BaseURL        string          `yaml:"base_url"`
	APIVersion     string          `yaml:"api_version"`
	Transport      string          `yaml:"transport"`
	RequestShape   string          `yaml:"request_shape"`
	Renderer       string          `yaml:"renderer"`
	RequestTimeout time.Duration   `yaml:"request_timeout"`
	Storage        StorageConfig   `yaml:"storage"`
	Log            LogConfig       `yaml:"log"`
	Telemetry      TelemetryConfig `yaml:"telemetry"`

	// path the config was loaded from; empty means the default location
	path string `yaml:"-"`
}

// StorageConfig describes where settings (API key, system prompt) are kept
type StorageConfig struct {
	Backend string `yaml:"backend"`
	// Path of the badger directory. Empty means ~/.gemini-terminal/db
	Path string `yaml:"path"`
}

// LogConfig controls the rotated debug log
type LogConfig struct {
	Debug      bool `yaml:"debug"`
	MaxSizeMB  int  `yaml:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days"`
}

// TelemetryConfig toggles trace/metric export to local files
type TelemetryConfig struct {
	Enabled bool `yaml:"enabled"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:          DefaultModel,
		BaseURL:        DefaultBaseURL,
		APIVersion:     DefaultAPIVersion,
		Transport:      TransportREST,
		RequestShape:   ShapeSystemInstruction,
		Renderer:       RendererBasic,
		RequestTimeout: 2 * time.Minute,
		Storage: StorageConfig{
			Backend: BackendBadger,
		},
		Log: LogConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// GetConfigDir returns ~/.gemini-terminal
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, DefaultConfigDir), nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, DefaultConfigFile), nil
}

// Path returns the file this config is saved to
func (c *Config) Path() (string, error) {
	if c.path != "" {
		return c.path, nil
	}
	return GetConfigPath()
}

// StoragePath returns the badger directory, resolving the default location
func (c *Config) StoragePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "db"), nil
}

// LogDir returns the directory for log, trace and metric files
func (c *Config) LogDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "logs"), nil
}

// Load loads the configuration from the default path
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from file, creating default if not exists.
// A .env file in the working directory and the GEMINI_TERMINAL_* variables
// override the file values.
func LoadFrom(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := DefaultConfig()
	cfg.path = configPath

	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
		// First run: write defaults, but keep going if the directory is read-only
		_ = Save(cfg)
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvModel); v != "" {
		c.Model = v
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.BaseURL = v
	}
}

// Save saves the configuration to file
func Save(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("cannot save invalid config: %w", err)
	}

	configPath, err := cfg.Path()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if c.APIVersion == "" {
		return fmt.Errorf("api_version is required")
	}

	if err := oneOf("transport", c.Transport, TransportREST, TransportSDK); err != nil {
		return err
	}
	if err := oneOf("request_shape", c.RequestShape, ShapeSystemInstruction, ShapeInlineTurn); err != nil {
		return err
	}
	if err := oneOf("renderer", c.Renderer, RendererBasic, RendererGlamour); err != nil {
		return err
	}
	if err := oneOf("storage.backend", c.Storage.Backend, BackendBadger, BackendKeyring); err != nil {
		return err
	}

	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must not be negative, got %s", c.RequestTimeout)
	}

	if c.Log.MaxSizeMB <= 0 {
		return fmt.Errorf("log.max_size_mb must be positive, got %d", c.Log.MaxSizeMB)
	}
	if c.Log.MaxBackups < 0 {
		return fmt.Errorf("log.max_backups must not be negative, got %d", c.Log.MaxBackups)
	}
	if c.Log.MaxAgeDays < 0 {
		return fmt.Errorf("log.max_age_days must not be negative, got %d", c.Log.MaxAgeDays)
	}

	return nil
}

func oneOf(name, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of %v, got %q", name, allowed, value)
}
