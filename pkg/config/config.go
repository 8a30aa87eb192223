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

const envPrefix = "BSKYSCRAPER_"

// Config holds all run parameters. It is built once by Load and then only read.
type Config struct {
	// Bluesky account and service
	Bluesky BlueskyConfig `yaml:"bluesky" json:"bluesky"`

	// Timeline collection parameters
	Collection CollectionConfig `yaml:"collection" json:"collection"`

	// CSV output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Client-side request pacing for the API
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Prometheus endpoint
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
}

// BlueskyConfig holds credentials and the service host
type BlueskyConfig struct {
	Identifier     string        `yaml:"identifier" json:"identifier"`
	Password       string        `yaml:"password" json:"password"`
	Host           string        `yaml:"host" json:"host"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// CollectionConfig controls the fetch-accumulate loop and field selection
type CollectionConfig struct {
	MaxPosts        int           `yaml:"max_posts" json:"max_posts"`
	PostsPerRequest int           `yaml:"posts_per_request" json:"posts_per_request"`
	RateLimitDelay  time.Duration `yaml:"rate_limit_delay" json:"rate_limit_delay"`
	MaxRetries      int           `yaml:"max_retries" json:"max_retries"`
	CollectImages   bool          `yaml:"collect_images" json:"collect_images"`
	CollectReplies  bool          `yaml:"collect_replies" json:"collect_replies"`
	CollectQuotes   bool          `yaml:"collect_quotes" json:"collect_quotes"`
}

// OutputConfig holds output file configuration
type OutputConfig struct {
	Directory        string `yaml:"directory" json:"directory"`
	Filename         string `yaml:"filename" json:"filename"`
	IncludeTimestamp bool   `yaml:"include_timestamp" json:"include_timestamp"`
}

// RateLimitConfig caps how fast the API client may issue requests.
// It sits below the collection delay and only matters for very small delays.
type RateLimitConfig struct {
	RequestsPerWindow int           `yaml:"requests_per_window" json:"requests_per_window"`
	Window            time.Duration `yaml:"window" json:"window"`
	Burst             int           `yaml:"burst" json:"burst"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// MetricsConfig holds the optional Prometheus listener address
type MetricsConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// DefaultConfig returns a Config instance with the stock collection settings
func DefaultConfig() *Config {
	return &Config{
		Bluesky: BlueskyConfig{
			Host:           "https://bsky.social",
			RequestTimeout: 30 * time.Second,
		},
		Collection: CollectionConfig{
			MaxPosts:        100,
			PostsPerRequest: 50,
			RateLimitDelay:  time.Second,
			MaxRetries:      3,
			CollectImages:   true,
			CollectReplies:  true,
			CollectQuotes:   true,
		},
		Output: OutputConfig{
			Directory:        "data",
			Filename:         "bluesky_posts",
			IncludeTimestamp: true,
		},
		RateLimit: RateLimitConfig{
			// 3000 requests per 5 minutes is the documented per-IP ceiling
			RequestsPerWindow: 3000,
			Window:            5 * time.Minute,
			Burst:             10,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // no config file is fine
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

// findConfigFile searches for a config file in the standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".bskyscraper.yaml",
		".bskyscraper.yml",
		filepath.Join(home, ".config", "bskyscraper", "config.yaml"),
		filepath.Join(home, ".config", "bskyscraper", "config.yml"),
		filepath.Join(home, ".bskyscraper.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// LoadFromEnv overrides values with BSKYSCRAPER_* environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	setString(&c.Bluesky.Identifier, "IDENTIFIER")
	setString(&c.Bluesky.Password, "PASSWORD")
	setString(&c.Bluesky.Host, "HOST")
	setString(&c.Output.Directory, "OUTPUT_DIR")
	setString(&c.Output.Filename, "CSV_FILENAME")
	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.Logging.File, "LOG_FILE")
	setString(&c.Metrics.Addr, "METRICS_ADDR")

	errs = append(errs,
		setInt(&c.Collection.MaxPosts, "MAX_POSTS"),
		setInt(&c.Collection.PostsPerRequest, "POSTS_PER_REQUEST"),
		setInt(&c.Collection.MaxRetries, "MAX_RETRIES"),
		setDuration(&c.Collection.RateLimitDelay, "RATE_LIMIT_DELAY"),
		setBool(&c.Output.IncludeTimestamp, "INCLUDE_TIMESTAMP"),
		setBool(&c.Collection.CollectImages, "COLLECT_IMAGES"),
		setBool(&c.Collection.CollectReplies, "COLLECT_REPLIES"),
		setBool(&c.Collection.CollectQuotes, "COLLECT_QUOTES"),
	)

	return errors.Join(errs...)
}

func setString(dst *string, name string) {
	if v := os.Getenv(envPrefix + name); v != "" {
		*dst = v
	}
}

func setInt(dst *int, name string) error {
	v := os.Getenv(envPrefix + name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s%s: %w", envPrefix, name, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, name string) error {
	v := os.Getenv(envPrefix + name)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s%s: %w", envPrefix, name, err)
	}
	*dst = b
	return nil
}

// setDuration accepts Go durations ("1500ms") or plain seconds ("2", "0.5")
func setDuration(dst *time.Duration, name string) error {
	v := os.Getenv(envPrefix + name)
	if v == "" {
		return nil
	}
	d, err := ParseDelay(v)
	if err != nil {
		return fmt.Errorf("%s%s: %w", envPrefix, name, err)
	}
	*dst = d
	return nil
}

// ParseDelay parses a Go duration string or a number of seconds
func ParseDelay(v string) (time.Duration, error) {
	if d, err := time.ParseDuration(v); err == nil {
		return d, nil
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid delay %q", v)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only keys present in the map are applied.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["identifier"].(string); ok && v != "" {
		c.Bluesky.Identifier = v
	}
	if v, ok := flags["password"].(string); ok && v != "" {
		c.Bluesky.Password = v
	}
	if v, ok := flags["host"].(string); ok && v != "" {
		c.Bluesky.Host = v
	}
	if v, ok := flags["max-posts"].(int); ok {
		c.Collection.MaxPosts = v
	}
	if v, ok := flags["posts-per-request"].(int); ok {
		c.Collection.PostsPerRequest = v
	}
	if v, ok := flags["rate-limit-delay"].(time.Duration); ok {
		c.Collection.RateLimitDelay = v
	}
	if v, ok := flags["max-retries"].(int); ok {
		c.Collection.MaxRetries = v
	}
	if v, ok := flags["collect-images"].(bool); ok {
		c.Collection.CollectImages = v
	}
	if v, ok := flags["collect-replies"].(bool); ok {
		c.Collection.CollectReplies = v
	}
	if v, ok := flags["collect-quotes"].(bool); ok {
		c.Collection.CollectQuotes = v
	}
	if v, ok := flags["output-dir"].(string); ok && v != "" {
		c.Output.Directory = v
	}
	if v, ok := flags["filename"].(string); ok && v != "" {
		c.Output.Filename = v
	}
	if v, ok := flags["include-timestamp"].(bool); ok {
		c.Output.IncludeTimestamp = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["metrics-addr"].(string); ok && v != "" {
		c.Metrics.Addr = v
	}
}

// Validate checks the configuration. Credentials are checked separately by
// ValidateCredentials since they may come from the credential store.
func (c *Config) Validate() error {
	var errs []error

	if c.Bluesky.Host == "" {
		errs = append(errs, errors.New("bluesky host is required"))
	}
	if c.Bluesky.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	if c.Collection.MaxPosts <= 0 {
		errs = append(errs, errors.New("max posts must be positive"))
	}
	// app.bsky.feed.getTimeline accepts 1..100
	if c.Collection.PostsPerRequest <= 0 || c.Collection.PostsPerRequest > 100 {
		errs = append(errs, errors.New("posts per request must be between 1 and 100"))
	}
	if c.Collection.RateLimitDelay < 0 {
		errs = append(errs, errors.New("rate limit delay cannot be negative"))
	}
	if c.Collection.MaxRetries <= 0 {
		errs = append(errs, errors.New("max retries must be positive"))
	}

	if c.Output.Directory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Output.Filename == "" {
		errs = append(errs, errors.New("csv filename is required"))
	}
	if strings.ContainsAny(c.Output.Filename, `/\`) {
		errs = append(errs, errors.New("csv filename must not contain path separators"))
	}

	if c.RateLimit.RequestsPerWindow < 0 || c.RateLimit.Burst < 0 {
		errs = append(errs, errors.New("rate limit values cannot be negative"))
	}
	if c.RateLimit.RequestsPerWindow > 0 && c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate limit window must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	return errors.Join(errs...)
}

// ValidateCredentials checks that an identifier and password are present
func (c *Config) ValidateCredentials() error {
	var errs []error
	if c.Bluesky.Identifier == "" {
		errs = append(errs, errors.New("bluesky identifier is required"))
	}
	if c.Bluesky.Password == "" {
		errs = append(errs, errors.New("bluesky password is required"))
	}
	return errors.Join(errs...)
}

// Save writes the configuration as YAML
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Redacted returns a copy with the password masked
func (c Config) Redacted() Config {
	if c.Bluesky.Password != "" {
		c.Bluesky.Password = "********"
	}
	return c
}

// Load loads configuration from all sources with proper precedence.
// Precedence: command line flags > environment > .env file > config file > defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".bskyscraper.env"))

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
