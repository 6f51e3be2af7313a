// Package config handles the configuration directory, the settings file and
// the paths derived from them.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// AppName is the application directory name.
	AppName = "taskdesk"

	// SettingsFile is the settings filename inside the config directory.
	SettingsFile = "config.toml"

	// DatabaseFile is the sqlite filename used by the sqlite storage backend.
	DatabaseFile = "taskdesk.db"

	// EnvPrefix is the prefix for environment overrides (TASKDESK_API_BASE_URL, ...).
	EnvPrefix = "TASKDESK"
)

// Storage backends for the durable credential.
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	API     APIConfig
	Tasks   TasksConfig
	Storage StorageConfig
}

// APIConfig describes the remote task API.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// TasksConfig holds task list settings.
type TasksConfig struct {
	PageSize int `mapstructure:"page_size"`
}

// settings mirrors the layout of config.toml.
type settings struct {
	API     APIConfig     `mapstructure:"api"`
	Tasks   TasksConfig   `mapstructure:"tasks"`
	Storage StorageConfig `mapstructure:"storage"`
}

// StorageConfig selects where the session credential is persisted.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
}

// New creates a Config for the default or specified config directory and
// loads config.toml from it when present.
// If configDir is empty, uses XDG_CONFIG_HOME/taskdesk or $HOME/.config/taskdesk.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := &Config{Dir: dir}
	if err := cfg.load(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) load() error {
	v := viper.New()

	v.SetDefault("api.base_url", "http://localhost:5000/api")
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("tasks.page_size", 3)
	v.SetDefault("storage.backend", StorageFile)

	v.SetConfigType("toml")
	v.SetConfigFile(c.SettingsPath())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read %s: %w", SettingsFile, err)
		}
	}

	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	c.API, c.Tasks, c.Storage = s.API, s.Tasks, s.Storage
	return c.validate()
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("api.base_url is empty")
	}
	if c.Tasks.PageSize < 1 {
		return fmt.Errorf("tasks.page_size must be positive, got %d", c.Tasks.PageSize)
	}
	switch c.Storage.Backend {
	case StorageFile, StorageSQLite:
	default:
		return fmt.Errorf("unknown storage.backend: %s", c.Storage.Backend)
	}
	return nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// SettingsPath returns the path to config.toml.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.Dir, SettingsFile)
}

// DatabasePath returns the path of the sqlite storage file.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Dir, DatabaseFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}
