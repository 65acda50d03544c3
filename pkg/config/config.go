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

// Config holds all configuration options for the VK stats collector
type Config struct {
	// VK application and API settings
	VK VKConfig `yaml:"vk" json:"vk"`

	// Statistics gathering settings
	Stats StatsConfig `yaml:"stats" json:"stats"`

	// Export settings
	Export ExportConfig `yaml:"export" json:"export"`

	// Rate limiting and transport retry configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// VKConfig holds VK application and API settings
type VKConfig struct {
	AppID       int      `yaml:"app_id" json:"app_id"`
	Scope       []string `yaml:"scope" json:"scope"`
	APIVersion  string   `yaml:"api_version" json:"api_version"`
	APIBaseURL  string   `yaml:"api_base_url" json:"api_base_url"`
	OAuthURL    string   `yaml:"oauth_url" json:"oauth_url"`
	RedirectURI string   `yaml:"redirect_uri" json:"redirect_uri"`
}

// StatsConfig holds statistics gathering settings
type StatsConfig struct {
	// Mode is one of posts, likers, liked
	Mode string `yaml:"mode" json:"mode"`
	// PostsLimit caps the number of posts to scan; 0 means all
	PostsLimit int `yaml:"posts_limit" json:"posts_limit"`
	// DateLimit is the earliest post date in yyyy/mm/dd format; 0/0/0 means none
	DateLimit string `yaml:"date_limit" json:"date_limit"`
}

// ExportConfig holds export settings
type ExportConfig struct {
	// ResultsDir is the directory report files are written to
	ResultsDir string `yaml:"results_dir" json:"results_dir"`
	// Format is one of csv, txt, all
	Format string `yaml:"format" json:"format"`
}

// RateLimitConfig holds rate limiting and retry configuration
type RateLimitConfig struct {
	// CallInterval is the pause after every successful API call, keeping
	// the client under the provider's per-second ceiling
	CallInterval time.Duration `yaml:"call_interval" json:"call_interval"`
	// RetryDelay is the fixed pause between transport retries
	RetryDelay time.Duration `yaml:"retry_delay" json:"retry_delay"`
	// RequestTimeout bounds a single HTTP request
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		VK: VKConfig{
			AppID:       4589594,
			Scope:       []string{"stats", "groups", "wall"},
			APIVersion:  "5.34",
			APIBaseURL:  "https://api.vk.com",
			OAuthURL:    "https://oauth.vk.com/oauth/authorize",
			RedirectURI: "https://oauth.vk.com/blank.html",
		},
		Stats: StatsConfig{
			Mode:       "posts",
			PostsLimit: 0,
			DateLimit:  "0/0/0",
		},
		Export: ExportConfig{
			ResultsDir: "./results",
			Format:     "all",
		},
		RateLimit: RateLimitConfig{
			CallInterval:   330 * time.Millisecond,
			RetryDelay:     10 * time.Second,
			RequestTimeout: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if appID := os.Getenv("VKSTATS_APP_ID"); appID != "" {
		if val, err := strconv.Atoi(appID); err == nil && val > 0 {
			c.VK.AppID = val
		}
	}
	if apiVersion := os.Getenv("VKSTATS_API_VERSION"); apiVersion != "" {
		c.VK.APIVersion = apiVersion
	}
	if mode := os.Getenv("VKSTATS_MODE"); mode != "" {
		c.Stats.Mode = mode
	}
	if resultsDir := os.Getenv("VKSTATS_RESULTS_DIR"); resultsDir != "" {
		c.Export.ResultsDir = resultsDir
	}
	if format := os.Getenv("VKSTATS_EXPORT_FORMAT"); format != "" {
		c.Export.Format = format
	}
	if logLevel := os.Getenv("VKSTATS_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
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
	locations := []string{
		".vkstats.yaml",
		".vkstats.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "vkstats", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".vkstats.yaml"),
	}
	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.VK.AppID <= 0 {
		errs = append(errs, errors.New("VK app ID must be positive"))
	}
	if c.VK.APIVersion == "" {
		errs = append(errs, errors.New("API version is required"))
	}
	if len(c.VK.Scope) == 0 {
		errs = append(errs, errors.New("at least one access scope is required"))
	}

	validModes := map[string]bool{"posts": true, "likers": true, "liked": true}
	if !validModes[strings.ToLower(c.Stats.Mode)] {
		errs = append(errs, fmt.Errorf("invalid mode %q (must be posts, likers or liked)", c.Stats.Mode))
	}
	if c.Stats.PostsLimit < 0 {
		errs = append(errs, errors.New("posts limit cannot be negative"))
	}

	validFormats := map[string]bool{"csv": true, "txt": true, "all": true}
	if !validFormats[strings.ToLower(c.Export.Format)] {
		errs = append(errs, fmt.Errorf("invalid export format %q (must be csv, txt or all)", c.Export.Format))
	}
	if c.Export.ResultsDir == "" {
		errs = append(errs, errors.New("results directory is required"))
	}

	if c.RateLimit.CallInterval < 0 {
		errs = append(errs, errors.New("call interval cannot be negative"))
	}
	if c.RateLimit.RetryDelay < 0 {
		errs = append(errs, errors.New("retry delay cannot be negative"))
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

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if mode, ok := flags["mode"].(string); ok && mode != "" {
		c.Stats.Mode = mode
	}
	if posts, ok := flags["posts"].(int); ok && posts > 0 {
		c.Stats.PostsLimit = posts
	}
	if date, ok := flags["date"].(string); ok && date != "" {
		c.Stats.DateLimit = date
	}
	if format, ok := flags["format"].(string); ok && format != "" {
		c.Export.Format = format
	}
	if resultsDir, ok := flags["output"].(string); ok && resultsDir != "" {
		c.Export.ResultsDir = resultsDir
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: command line flags > environment variables > .env file >
// config file > defaults.
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".vkstats.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
