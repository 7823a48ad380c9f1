package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the archiver.
type Config struct {
	// HTTP settings shared by every request
	HTTP HTTPConfig `yaml:"http" json:"http"`

	// Route dump settings
	Dump DumpConfig `yaml:"dump" json:"dump"`

	// Media download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Output is the directory under which per-domain archives are created.
	Output string `yaml:"output" json:"output"`
}

// HTTPConfig holds transport-level configuration.
type HTTPConfig struct {
	Timeout           time.Duration `yaml:"timeout" json:"timeout"`
	VerifyTLS         bool          `yaml:"verify_tls" json:"verify_tls"`
	ForceHTTPS        bool          `yaml:"force_https" json:"force_https"`
	UserAgent         string        `yaml:"user_agent" json:"user_agent"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// DumpConfig holds paginated dump settings.
type DumpConfig struct {
	PageSize       int    `yaml:"page_size" json:"page_size"`
	RetryCount     int    `yaml:"retry_count" json:"retry_count"`
	MaxPages       int    `yaml:"max_pages" json:"max_pages"`
	IncludeUnknown bool   `yaml:"include_unknown" json:"include_unknown"`
	KnownRoutes    string `yaml:"known_routes" json:"known_routes"`
}

// DownloadConfig holds media downloader settings.
type DownloadConfig struct {
	Workers   int    `yaml:"workers" json:"workers"`
	Resume    bool   `yaml:"resume" json:"resume"`
	UseAria2  bool   `yaml:"use_aria2" json:"use_aria2"`
	Aria2Path string `yaml:"aria2_path" json:"aria2_path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultUserAgent is sent with every request. Some WordPress hosts block the
// Go default agent, so a browser string is used.
const DefaultUserAgent = "Mozilla/5.0 (Linux; Android 6.0; Nexus 5 Build/MRA58N) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/67.0.3396.99 Mobile Safari/537.36"

// DefaultConfig returns a Config instance with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:           360 * time.Second,
			VerifyTLS:         true,
			ForceHTTPS:        true,
			UserAgent:         DefaultUserAgent,
			RequestsPerMinute: 120,
		},
		Dump: DumpConfig{
			PageSize:       100,
			RetryCount:     5,
			MaxPages:       10000,
			IncludeUnknown: true,
		},
		Download: DownloadConfig{
			Workers:   5,
			Resume:    true,
			UseAria2:  false,
			Aria2Path: "aria2c",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
		Output: ".",
	}
}

// LoadFromFile loads configuration from a YAML file. An empty path searches
// the default locations; finding none is not an error.
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
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

// findConfigFile searches for a config file in standard locations.
func (c *Config) findConfigFile() string {
	locations := []string{
		".wparchive.yaml",
		".wparchive.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "wparchive", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".wparchive.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// LoadFromEnv applies WPARCHIVE_* environment variable overrides.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("WPARCHIVE_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			c.HTTP.Timeout = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("WPARCHIVE_USER_AGENT"); v != "" {
		c.HTTP.UserAgent = v
	}
	if v := os.Getenv("WPARCHIVE_VERIFY_TLS"); v != "" {
		c.HTTP.VerifyTLS = strings.ToLower(v) != "false"
	}
	if v := os.Getenv("WPARCHIVE_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Dump.PageSize = n
		}
	}
	if v := os.Getenv("WPARCHIVE_RETRY_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Dump.RetryCount = n
		}
	}
	if v := os.Getenv("WPARCHIVE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Download.Workers = n
		}
	}
	if v := os.Getenv("WPARCHIVE_ARIA2_PATH"); v != "" {
		c.Download.Aria2Path = v
	}
	if v := os.Getenv("WPARCHIVE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("WPARCHIVE_OUTPUT"); v != "" {
		c.Output = v
	}

	return nil
}

// MergeFlags merges command line flag values into the configuration.
func (c *Config) MergeFlags(flags map[string]interface{}) {
	if timeout, ok := flags["timeout"].(int); ok && timeout > 0 {
		c.HTTP.Timeout = time.Duration(timeout) * time.Second
	}
	if noVerify, ok := flags["no-verify-ssl"].(bool); ok && noVerify {
		c.HTTP.VerifyTLS = false
	}
	if http, ok := flags["http"].(bool); ok && http {
		c.HTTP.ForceHTTPS = false
	}
	if pageSize, ok := flags["page-size"].(int); ok && pageSize > 0 {
		c.Dump.PageSize = pageSize
	}
	if retryCount, ok := flags["retry-count"].(int); ok && retryCount > 0 {
		c.Dump.RetryCount = retryCount
	}
	if workers, ok := flags["workers"].(int); ok && workers > 0 {
		c.Download.Workers = workers
	}
	if noResume, ok := flags["no-resume"].(bool); ok && noResume {
		c.Download.Resume = false
	}
	if aria2, ok := flags["aria2"].(bool); ok && aria2 {
		c.Download.UseAria2 = true
	}
	if aria2Path, ok := flags["aria2-path"].(string); ok && aria2Path != "" {
		c.Download.Aria2Path = aria2Path
	}
	if knownRoutes, ok := flags["known-routes"].(string); ok && knownRoutes != "" {
		c.Dump.KnownRoutes = knownRoutes
	}
	if includeUnknown, ok := flags["include-unknown"].(bool); ok {
		c.Dump.IncludeUnknown = includeUnknown
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if output, ok := flags["output"].(string); ok && output != "" {
		c.Output = output
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	if c.HTTP.Timeout <= 0 {
		errs = append(errs, errors.New("timeout must be positive"))
	}
	if c.HTTP.UserAgent == "" {
		errs = append(errs, errors.New("user agent is required"))
	}
	if c.Dump.PageSize <= 0 {
		errs = append(errs, errors.New("page size must be positive"))
	}
	if c.Dump.RetryCount <= 0 {
		errs = append(errs, errors.New("retry count must be positive"))
	}
	if c.Dump.MaxPages <= 0 {
		errs = append(errs, errors.New("max pages must be positive"))
	}
	if c.Download.Workers <= 0 {
		errs = append(errs, errors.New("workers must be positive"))
	}
	if c.Download.Workers > 32 {
		errs = append(errs, errors.New("workers should not exceed 32"))
	}
	if c.Download.UseAria2 && c.Download.Aria2Path == "" {
		errs = append(errs, errors.New("aria2 path is required when aria2 is enabled"))
	}
	if c.Output == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Load loads configuration from all sources with proper precedence:
// command line flags > environment variables > .env file > config file > defaults.
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".wparchive.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
