// Package config provides configuration management for the btg CLI.
// Settings come from ~/.btg/config.yaml, a .env file in the working
// directory and BTG_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// DefaultAPIURL is the default Bicol Travel Guide API endpoint
	DefaultAPIURL = "https://api.bicoltravelguide.ph"

	// ConfigDirName is the name of the config directory
	ConfigDirName = ".btg"

	// ConfigFileName is the name of the config file, without extension
	ConfigFileName = "config"

	// CredentialsFileName is the default file backing the credential store
	CredentialsFileName = "credentials.json"

	// EnvPrefix prefixes every environment variable read by the CLI
	EnvPrefix = "BTG"
)

// Credential store backends
const (
	StoreFile    = "file"
	StoreKeyring = "keyring"
	StoreMemory  = "memory"
)

// Config represents the CLI settings
type Config struct {
	// APIURL is the base URL of the travel guide API
	APIURL string `mapstructure:"api_url"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	// CredentialStore selects where tokens are kept: file, keyring or memory
	CredentialStore string `mapstructure:"credential_store"`

	// CredentialsPath is the token file used by the file store
	CredentialsPath string `mapstructure:"credentials_path"`

	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// Manager loads configuration from a config directory
type Manager struct {
	configDir string
}

// NewManager creates a new configuration manager rooted at ~/.btg
func NewManager() (*Manager, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	return &Manager{configDir: filepath.Join(homeDir, ConfigDirName)}, nil
}

// NewManagerWithPath creates a new configuration manager with a custom directory
// This is useful for testing
func NewManagerWithPath(configDir string) *Manager {
	return &Manager{configDir: configDir}
}

// ConfigDir returns the directory holding config.yaml
func (m *Manager) ConfigDir() string {
	return m.configDir
}

// Load reads the configuration.
// A missing config file or .env file is not an error.
func (m *Manager) Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()
	v.AddConfigPath(m.configDir)
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")

	v.SetDefault("api_url", DefaultAPIURL)
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "console")
	v.SetDefault("credential_store", StoreFile)
	v.SetDefault("credentials_path", filepath.Join(m.configDir, CredentialsFileName))
	v.SetDefault("request_timeout", 30*time.Second)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file doesn't exist
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	cfg.CredentialsPath, _ = expandHome(cfg.CredentialsPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that cannot fall back to a default
func (c *Config) Validate() error {
	switch c.CredentialStore {
	case StoreFile, StoreKeyring, StoreMemory:
	default:
		return fmt.Errorf("invalid credential_store %q: must be one of %s, %s, %s",
			c.CredentialStore, StoreFile, StoreKeyring, StoreMemory)
	}
	if c.APIURL == "" {
		return errors.New("api_url must not be empty")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("invalid request_timeout %s", c.RequestTimeout)
	}
	return nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path, err
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~")), nil
}
