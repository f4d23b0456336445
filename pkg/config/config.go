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

	"reelscraper/pkg/logger"
)

// Strategy names recognized by the orchestrator.
const (
	StrategySession = "session"
	StrategyAPI     = "api"
	StrategyEmbed   = "embed"
	StrategyScrape  = "scrape"
	StrategyBrowser = "browser"
)

// Config holds all configuration options for the reel scraper.
type Config struct {
	// Per-strategy descriptors keyed by strategy name
	Strategies map[string]StrategyConfig `yaml:"strategies" json:"strategies"`

	// Orchestrator behaviour
	Orchestrator OrchestratorConfig `yaml:"orchestrator" json:"orchestrator"`

	// Rate limiting applied per outbound strategy
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Authenticated session cookies (optional)
	Session SessionConfig `yaml:"session" json:"session"`

	// Browser automation settings
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Result persistence
	Storage StorageConfig `yaml:"storage" json:"storage"`

	// Logging configuration
	Logging logger.Config `yaml:"logging" json:"logging"`
}

// StrategyConfig is the static descriptor for one extraction strategy.
type StrategyConfig struct {
	Enabled           bool          `yaml:"enabled" json:"enabled"`
	Priority          int           `yaml:"priority" json:"priority"`
	Timeout           time.Duration `yaml:"timeout" json:"timeout"`
	MaxRetries        int           `yaml:"max_retries" json:"max_retries"`
	RetryDelay        time.Duration `yaml:"retry_delay" json:"retry_delay"`
	ContinueOnFailure bool          `yaml:"continue_on_failure" json:"continue_on_failure"`
}

// OrchestratorConfig controls cross-strategy execution.
type OrchestratorConfig struct {
	ParallelExecution    bool          `yaml:"parallel_execution" json:"parallel_execution"`
	StopOnFirstSuccess   bool          `yaml:"stop_on_first_success" json:"stop_on_first_success"`
	GlobalTimeout        time.Duration `yaml:"global_timeout" json:"global_timeout"`
	MinRecordsForSuccess int           `yaml:"min_records_for_success" json:"min_records_for_success"`
	Verbose              bool          `yaml:"verbose" json:"verbose"`
}

// RateLimitConfig holds per-strategy rate limiting configuration.
type RateLimitConfig struct {
	MaxRequests  int           `yaml:"max_requests" json:"max_requests"`
	Window       time.Duration `yaml:"window" json:"window"`
	RequestDelay time.Duration `yaml:"request_delay" json:"request_delay"`
}

// SessionConfig holds the optional authenticated session cookies.
type SessionConfig struct {
	SessionID string `yaml:"session_id" json:"session_id"`
	CSRFToken string `yaml:"csrf_token" json:"csrf_token"`
	UserAgent string `yaml:"user_agent" json:"user_agent"`
}

// BrowserConfig holds browser automation settings.
type BrowserConfig struct {
	Enabled     bool          `yaml:"enabled" json:"enabled"`
	RemoteURL   string        `yaml:"remote_url" json:"remote_url"`
	PageTimeout time.Duration `yaml:"page_timeout" json:"page_timeout"`
}

// StorageConfig holds result persistence settings.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path" json:"database_path"`
}

// DefaultConfig returns a Config instance with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Strategies: map[string]StrategyConfig{
			StrategySession: {
				Enabled:           true,
				Priority:          0,
				Timeout:           15 * time.Second,
				MaxRetries:        2,
				RetryDelay:        2 * time.Second,
				ContinueOnFailure: false,
			},
			StrategyAPI: {
				Enabled:           true,
				Priority:          1,
				Timeout:           15 * time.Second,
				MaxRetries:        3,
				RetryDelay:        2 * time.Second,
				ContinueOnFailure: true,
			},
			StrategyEmbed: {
				Enabled:           true,
				Priority:          3,
				Timeout:           10 * time.Second,
				MaxRetries:        2,
				RetryDelay:        time.Second,
				ContinueOnFailure: true,
			},
			StrategyScrape: {
				Enabled:           true,
				Priority:          4,
				Timeout:           20 * time.Second,
				MaxRetries:        2,
				RetryDelay:        3 * time.Second,
				ContinueOnFailure: true,
			},
			StrategyBrowser: {
				Enabled:           false,
				Priority:          9,
				Timeout:           60 * time.Second,
				MaxRetries:        1,
				RetryDelay:        5 * time.Second,
				ContinueOnFailure: true,
			},
		},
		Orchestrator: OrchestratorConfig{
			ParallelExecution:    false,
			StopOnFirstSuccess:   true,
			GlobalTimeout:        90 * time.Second,
			MinRecordsForSuccess: 1,
			Verbose:              false,
		},
		RateLimit: RateLimitConfig{
			MaxRequests:  30,
			Window:       time.Minute,
			RequestDelay: 2 * time.Second,
		},
		Browser: BrowserConfig{
			Enabled:     false,
			PageTimeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			DatabasePath: "./reels.db",
		},
		Logging: logger.Config{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables.
func (c *Config) LoadFromEnv() error {
	if sessionID := os.Getenv("REELSCRAPER_SESSION_ID"); sessionID != "" {
		c.Session.SessionID = sessionID
	}
	if csrfToken := os.Getenv("REELSCRAPER_CSRF_TOKEN"); csrfToken != "" {
		c.Session.CSRFToken = csrfToken
	}
	if userAgent := os.Getenv("REELSCRAPER_USER_AGENT"); userAgent != "" {
		c.Session.UserAgent = userAgent
	}

	if maxReq := os.Getenv("REELSCRAPER_MAX_REQUESTS"); maxReq != "" {
		if val, err := strconv.Atoi(maxReq); err == nil && val > 0 {
			c.RateLimit.MaxRequests = val
		}
	}
	if delay := os.Getenv("REELSCRAPER_REQUEST_DELAY"); delay != "" {
		if val, err := time.ParseDuration(delay); err == nil && val > 0 {
			c.RateLimit.RequestDelay = val
		}
	}

	if parallel := os.Getenv("REELSCRAPER_PARALLEL"); parallel != "" {
		c.Orchestrator.ParallelExecution = strings.ToLower(parallel) == "true"
	}
	if minRecords := os.Getenv("REELSCRAPER_MIN_RECORDS"); minRecords != "" {
		if val, err := strconv.Atoi(minRecords); err == nil && val > 0 {
			c.Orchestrator.MinRecordsForSuccess = val
		}
	}

	if browserEnabled := os.Getenv("REELSCRAPER_BROWSER_ENABLED"); browserEnabled != "" {
		c.Browser.Enabled = strings.ToLower(browserEnabled) == "true"
	}
	if remoteURL := os.Getenv("REELSCRAPER_BROWSER_URL"); remoteURL != "" {
		c.Browser.RemoteURL = remoteURL
	}

	if dbPath := os.Getenv("REELSCRAPER_DATABASE"); dbPath != "" {
		c.Storage.DatabasePath = dbPath
	}
	if logLevel := os.Getenv("REELSCRAPER_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file.
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

// findConfigFile searches for config file in standard locations.
func (c *Config) findConfigFile() string {
	locations := []string{
		".reelscraper.yaml",
		".reelscraper.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "reelscraper", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".reelscraper.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Strategies) == 0 {
		errs = append(errs, errors.New("at least one strategy must be configured"))
	}
	enabled := 0
	for name, sc := range c.Strategies {
		if sc.Enabled {
			enabled++
		}
		if sc.Timeout <= 0 {
			errs = append(errs, fmt.Errorf("strategy %s: timeout must be positive", name))
		}
		if sc.MaxRetries < 0 {
			errs = append(errs, fmt.Errorf("strategy %s: max retries cannot be negative", name))
		}
	}
	if enabled == 0 {
		errs = append(errs, errors.New("at least one strategy must be enabled"))
	}

	if c.RateLimit.MaxRequests <= 0 {
		errs = append(errs, errors.New("max requests must be positive"))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate limit window must be positive"))
	}

	if c.Orchestrator.GlobalTimeout <= 0 {
		errs = append(errs, errors.New("global timeout must be positive"))
	}
	if c.Orchestrator.MinRecordsForSuccess <= 0 {
		errs = append(errs, errors.New("min records for success must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file.
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

// MergeCommandLineFlags merges command line flags into the configuration.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if sessionID, ok := flags["session-id"].(string); ok && sessionID != "" {
		c.Session.SessionID = sessionID
	}
	if csrfToken, ok := flags["csrf-token"].(string); ok && csrfToken != "" {
		c.Session.CSRFToken = csrfToken
	}
	if parallel, ok := flags["parallel"].(bool); ok && parallel {
		c.Orchestrator.ParallelExecution = true
	}
	if browser, ok := flags["browser"].(bool); ok && browser {
		c.Browser.Enabled = true
		sc := c.Strategies[StrategyBrowser]
		sc.Enabled = true
		c.Strategies[StrategyBrowser] = sc
	}
	if minRecords, ok := flags["min-records"].(int); ok && minRecords > 0 {
		c.Orchestrator.MinRecordsForSuccess = minRecords
	}
	if verbose, ok := flags["verbose"].(bool); ok && verbose {
		c.Orchestrator.Verbose = true
		c.Logging.Level = "debug"
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if dbPath, ok := flags["database"].(string); ok && dbPath != "" {
		c.Storage.DatabasePath = dbPath
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".reelscraper.env"))

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
