package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the pubproxy CLI
type Config struct {
	// API credential settings
	API APIConfig `yaml:"api" json:"api"`

	// Default filter options applied to fetches
	Fetch FetchConfig `yaml:"fetch" json:"fetch"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// APIConfig holds pubproxy API settings
type APIConfig struct {
	Key     string        `yaml:"key" json:"key"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// FetchConfig holds the default proxy filter options
type FetchConfig struct {
	Level         string   `yaml:"level" json:"level"`
	Protocol      string   `yaml:"protocol" json:"protocol"`
	Countries     []string `yaml:"countries" json:"countries"`
	NotCountries  []string `yaml:"not_countries" json:"not_countries"`
	LastChecked   int      `yaml:"last_checked" json:"last_checked"`
	Port          int      `yaml:"port" json:"port"`
	TimeToConnect int      `yaml:"time_to_connect" json:"time_to_connect"`
	AllowReuse    bool     `yaml:"allow_reuse" json:"allow_reuse"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Timeout: 30 * time.Second,
		},
		Fetch: FetchConfig{
			AllowReuse: false,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if key := os.Getenv("PUBPROXY_API_KEY"); key != "" {
		c.API.Key = key
	}
	if timeout := os.Getenv("PUBPROXY_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid PUBPROXY_TIMEOUT: %w", err)
		}
		c.API.Timeout = d
	}
	if level := os.Getenv("PUBPROXY_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if file := os.Getenv("PUBPROXY_LOG_FILE"); file != "" {
		c.Logging.File = file
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	// Check in order of precedence
	locations := []string{
		".pubproxy.yaml",
		".pubproxy.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "pubproxy", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "pubproxy", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".pubproxy.yaml"),
		filepath.Join(os.Getenv("HOME"), ".pubproxy.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid. Filter options are not
// re-validated here; the pubproxy package owns those rules and rejects
// bad combinations at Fetcher construction.
func (c *Config) Validate() error {
	var errs []error

	if c.API.Timeout <= 0 {
		errs = append(errs, errors.New("API timeout must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if key, ok := flags["api-key"].(string); ok && key != "" {
		c.API.Key = key
	}
	if level, ok := flags["level"].(string); ok && level != "" {
		c.Fetch.Level = level
	}
	if protocol, ok := flags["protocol"].(string); ok && protocol != "" {
		c.Fetch.Protocol = protocol
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".pubproxy.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
