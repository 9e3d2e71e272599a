package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader handles loading and parsing of ephemera configuration
type Loader struct {
	path  string
	viper *viper.Viper
}

// NewLoader creates a loader for the given file. An empty path selects
// ConfigFileName in the working directory.
func NewLoader(path string) *Loader {
	if path == "" {
		path = ConfigFileName
	}
	return &Loader{
		path:  path,
		viper: viper.New(),
	}
}

// Load reads, parses and validates the configuration file. Top-level
// settings can be overridden with EPHEMERA_* environment variables.
func (l *Loader) Load() (*Config, error) {
	configPath, err := filepath.Abs(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, &ConfigNotFoundError{Path: configPath}
	}

	// Configure viper
	l.viper.SetConfigFile(configPath)
	l.viper.SetConfigType("yaml")
	l.viper.SetEnvPrefix(EnvPrefix)
	l.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.viper.AutomaticEnv()

	// Set defaults from DefaultConfig
	defaults := DefaultConfig()
	l.viper.SetDefault("ready_timeout", defaults.ReadyTimeout)
	l.viper.SetDefault("pull_policy", defaults.PullPolicy)
	l.viper.SetDefault("port_retries", defaults.PortRetries)

	// Read the config file
	if err := l.viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := l.viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.Path = configPath

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath, err)
	}

	return &cfg, nil
}

// ConfigPath returns the path the loader reads.
func (l *Loader) ConfigPath() string {
	return l.path
}

// ConfigNotFoundError is returned when the config file doesn't exist
type ConfigNotFoundError struct {
	Path string
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf("configuration file not found: %s", e.Path)
}

// IsConfigNotFound returns true if the error is a ConfigNotFoundError
func IsConfigNotFound(err error) bool {
	_, ok := err.(*ConfigNotFoundError)
	return ok
}
