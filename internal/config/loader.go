package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/bluejays/teamtrack/internal/logging"
)

// Default values for Config.
const (
	DefaultServerPort     = 8375
	DefaultTokenTTL       = 24 * time.Hour
	DefaultDrillSeconds   = 120
	DefaultDrillGridSize  = 100
	DefaultStoragePath    = "teamtrack.db"
	DefaultLogLevel       = "warn"
	DefaultLogFormat      = "console"
	MaxDrillGridSize      = 400
	configDirName         = ".teamtrack"
	configFileName        = "config.yaml"
	configFilePermissions = 0o600
	configDirPermissions  = 0o755
)

// DefaultServerConfig returns a ServerConfig with sensible default values.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:     DefaultServerPort,
		TokenTTL: DefaultTokenTTL,
	}
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Server: DefaultServerConfig(),
		Drill: DrillConfig{
			DurationSeconds: DefaultDrillSeconds,
			GridSize:        DefaultDrillGridSize,
		},
		Storage: StorageConfig{Path: DefaultStoragePath},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// Dir returns the .teamtrack directory under basePath.
func Dir(basePath string) string {
	return filepath.Join(basePath, configDirName)
}

// Path returns the config file path under basePath.
func Path(basePath string) string {
	return filepath.Join(Dir(basePath), configFileName)
}

// LoadConfig reads .teamtrack/config.yaml from basePath, applies TEAMTRACK_*
// environment overrides and validates the result. A missing file yields the
// defaults.
func LoadConfig(basePath string) (*Config, error) {
	return LoadConfigWithEnv(basePath, nil)
}

// LoadConfigWithEnv is LoadConfig with an explicit environment. A nil map
// reads the process environment.
func LoadConfigWithEnv(basePath string, environ map[string]string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(Path(basePath))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := applyEnv(&cfg, environ); err != nil {
		return nil, err
	}

	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyEnv(cfg *Config, environ map[string]string) error {
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	return nil
}

// SaveConfig writes cfg to .teamtrack/config.yaml under basePath.
func SaveConfig(basePath string, cfg *Config) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	if err := ValidateConfig(cfg); err != nil {
		return err
	}

	if err := os.MkdirAll(Dir(basePath), configDirPermissions); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(Path(basePath), data, configFilePermissions); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ValidateConfig checks that all config values are valid.
func ValidateConfig(cfg *Config) error {
	if err := ValidateServerConfig(&cfg.Server); err != nil {
		return err
	}
	if cfg.Drill.DurationSeconds <= 0 {
		return ValidationError{Field: "drill.duration_seconds", Message: "must be positive"}
	}
	if cfg.Drill.GridSize <= 0 || cfg.Drill.GridSize > MaxDrillGridSize {
		return ValidationError{Field: "drill.grid_size", Message: fmt.Sprintf("must be between 1 and %d", MaxDrillGridSize)}
	}
	if cfg.Storage.Path == "" {
		return ValidationError{Field: "storage.path", Message: "required field is empty"}
	}
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		return ValidationError{Field: "log.level", Message: err.Error()}
	}
	if cfg.Log.Format != logging.FormatConsole && cfg.Log.Format != logging.FormatJSON {
		return ValidationError{Field: "log.format", Message: "must be console or json"}
	}
	return nil
}

// ValidateServerConfig checks that server config values are valid.
func ValidateServerConfig(cfg *ServerConfig) error {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return ValidationError{Field: "server.port", Message: "must be between 0 and 65535"}
	}
	if cfg.TokenTTL <= 0 {
		return ValidationError{Field: "server.token_ttl", Message: "must be positive"}
	}
	return nil
}

// DatabasePath resolves the storage path against basePath.
func (c *Config) DatabasePath(basePath string) string {
	if filepath.IsAbs(c.Storage.Path) {
		return c.Storage.Path
	}
	return filepath.Join(Dir(basePath), c.Storage.Path)
}

// LogLevel returns the parsed log level, warn when unset or invalid.
func (c *Config) LogLevel() logging.Level {
	level, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		return logging.LevelWarn
	}
	return level
}

// IsValidationError checks if an error is a ValidationError.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}
