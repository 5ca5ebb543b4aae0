// Package config loads application settings from file and environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	API      APIConfig      `mapstructure:"api"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	State    StateConfig    `mapstructure:"state"`
}

// DatabaseConfig holds the local catalog database settings
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// APIConfig holds the remote catalog endpoint settings
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CacheConfig holds search history and asset cache settings
type CacheConfig struct {
	RecentTermLimit int    `mapstructure:"recent_term_limit"`
	AssetDir        string `mapstructure:"asset_dir"`
	AssetEntries    int    `mapstructure:"asset_entries"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// StateConfig holds session state restored between runs
type StateConfig struct {
	LastSearchTerm string `mapstructure:"last_search_term"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: filepath.Join(defaultDataPath(), "skycache.db"),
		},
		API: APIConfig{
			BaseURL: "https://images-api.nasa.gov",
			Timeout: 30 * time.Second,
		},
		Cache: CacheConfig{
			RecentTermLimit: 10,
			AssetDir:        filepath.Join(defaultDataPath(), "assets"),
			AssetEntries:    256,
		},
		Logging: LoggingConfig{
			Level: "INFO",
		},
	}
}

// defaultDataPath returns the default data directory for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "skycache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "skycache")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "skycache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "skycache")
	}
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	cfg := DefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(defaultConfigPath())
	viper.AddConfigPath(".")

	// Environment variable overrides
	viper.SetEnvPrefix("SKYCACHE")
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the current configuration to file
func Save(cfg *Config) error {
	configPath := defaultConfigPath()
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set fields individually to ensure correct key names (snake_case)
	viper.Set("database.path", cfg.Database.Path)
	viper.Set("api.base_url", cfg.API.BaseURL)
	viper.Set("api.timeout", cfg.API.Timeout)
	viper.Set("cache.recent_term_limit", cfg.Cache.RecentTermLimit)
	viper.Set("cache.asset_dir", cfg.Cache.AssetDir)
	viper.Set("cache.asset_entries", cfg.Cache.AssetEntries)
	viper.Set("logging.level", cfg.Logging.Level)
	viper.Set("state.last_search_term", cfg.State.LastSearchTerm)

	configFile := filepath.Join(configPath, "config.yaml")
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveLastSearch persists just the most recent search term so the next
// session can restore it.
func SaveLastSearch(term string) error {
	viper.Set("state.last_search_term", term)

	configPath := defaultConfigPath()
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configFile := filepath.Join(configPath, "config.yaml")
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
