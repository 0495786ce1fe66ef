// Package config loads the stepwise configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the stepwise configuration
type Config struct {
	Title       string          `yaml:"title"`
	Description string          `yaml:"description"`
	Server      ServerConfig    `yaml:"server"`
	AI          AIConfig        `yaml:"ai"`
	Storage     StorageConfig   `yaml:"storage"`
	Workspace   WorkspaceConfig `yaml:"workspace"`
	Courses     CoursesConfig   `yaml:"courses"`
	Features    FeaturesConfig  `yaml:"features"`
	API         *APIConfig      `yaml:"api,omitempty"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port  int    `yaml:"port"`
	Host  string `yaml:"host"`
	Debug bool   `yaml:"debug"`
}

// AIConfig configures the generative step source
type AIConfig struct {
	Model    string       `yaml:"model,omitempty"`     // Model name (default: gemini-2.0-flash)
	APIKey   string       `yaml:"api_key,omitempty"`   // API key, env vars expanded (e.g. "${GEMINI_API_KEY}")
	Timeout  string       `yaml:"timeout,omitempty"`   // Request timeout (e.g. "60s"). Default: 60s
	Retry    *RetryConfig `yaml:"retry,omitempty"`     // Retry configuration
	CacheTTL string       `yaml:"cache_ttl,omitempty"` // TTL for cached generations. Default: disabled
}

// RetryConfig configures retry behavior for generation requests
type RetryConfig struct {
	MaxRetries int    `yaml:"max_retries,omitempty"` // Maximum retry attempts (default: 3)
	BaseDelay  string `yaml:"base_delay,omitempty"`  // Initial delay (e.g. "100ms"). Default: 100ms
	MaxDelay   string `yaml:"max_delay,omitempty"`   // Maximum delay (e.g. "5s"). Default: 5s
}

// StorageConfig selects and configures the completion store
type StorageConfig struct {
	Driver string `yaml:"driver,omitempty"` // "sqlite" (default) or "postgres"
	Path   string `yaml:"path,omitempty"`   // For sqlite: database file (default: ./stepwise.db)
	DSN    string `yaml:"dsn,omitempty"`    // For postgres: connection string, env vars expanded
}

// WorkspaceConfig holds the editor-geometry constants used for guidance
type WorkspaceConfig struct {
	LineHeight     int    `yaml:"line_height,omitempty"`     // Pixel height per line (default: 24)
	TopPadding     int    `yaml:"top_padding,omitempty"`     // Editor top padding px (default: 24)
	ViewportHeight int    `yaml:"viewport_height,omitempty"` // Editor viewport height px (default: 600)
	AdvanceNotice  string `yaml:"advance_notice,omitempty"`  // How long the "advanced" toast lives (default: 2s)
}

// CoursesConfig points at the on-disk course catalog
type CoursesConfig struct {
	Dir string `yaml:"dir,omitempty"` // Courses directory (default: ./courses)
}

// FeaturesConfig holds feature flags
type FeaturesConfig struct {
	HotReload bool `yaml:"hot_reload"`
}

// APIConfig holds REST API configuration
type APIConfig struct {
	Enabled   bool             `yaml:"enabled"` // Enable REST API endpoints (default: false)
	CORS      *CORSConfig      `yaml:"cors,omitempty"`
	RateLimit *RateLimitConfig `yaml:"rate_limit,omitempty"`
	Auth      *AuthConfig      `yaml:"auth,omitempty"`
}

// AuthConfig holds authentication configuration for the API
type AuthConfig struct {
	// APIKey is the required API key for authentication.
	// Supports environment variable expansion (e.g., "${API_KEY}")
	APIKey string `yaml:"api_key,omitempty"`
	// HeaderName is the HTTP header name for the API key (default: "X-API-Key")
	// Also supports "Authorization: Bearer <token>" format when set to "Authorization"
	HeaderName string `yaml:"header_name,omitempty"`
}

// CORSConfig holds CORS configuration for the API
type CORSConfig struct {
	Origins []string `yaml:"origins,omitempty"` // Allowed origins (e.g., ["http://localhost:3000", "*"])
}

// RateLimitConfig holds rate limiting configuration for the API
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty"` // Rate limit in requests per second (default: 10)
	Burst             int     `yaml:"burst,omitempty"`               // Burst size (default: 20)
}

// GetModel returns the configured model name (default: gemini-2.0-flash)
func (c AIConfig) GetModel() string {
	if c.Model == "" {
		return "gemini-2.0-flash"
	}
	return c.Model
}

// GetAPIKey returns the API key with environment variable expansion.
// Falls back to the GEMINI_API_KEY environment variable.
func (c AIConfig) GetAPIKey() string {
	if c.APIKey == "" {
		return os.Getenv("GEMINI_API_KEY")
	}
	return os.ExpandEnv(c.APIKey)
}

// GetTimeout returns the parsed request timeout (default: 60s)
func (c AIConfig) GetTimeout() time.Duration {
	if c.Timeout == "" {
		return 60 * time.Second
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// GetRetryMaxRetries returns the max retries (default: 3, set to 0 to disable retries)
func (c AIConfig) GetRetryMaxRetries() int {
	if c.Retry == nil || c.Retry.MaxRetries < 0 {
		return 3
	}
	return c.Retry.MaxRetries
}

// GetRetryBaseDelay returns the base delay (default: 100ms)
func (c AIConfig) GetRetryBaseDelay() time.Duration {
	if c.Retry == nil || c.Retry.BaseDelay == "" {
		return 100 * time.Millisecond
	}
	d, err := time.ParseDuration(c.Retry.BaseDelay)
	if err != nil {
		return 100 * time.Millisecond
	}
	return d
}

// GetRetryMaxDelay returns the max delay (default: 5s)
func (c AIConfig) GetRetryMaxDelay() time.Duration {
	if c.Retry == nil || c.Retry.MaxDelay == "" {
		return 5 * time.Second
	}
	d, err := time.ParseDuration(c.Retry.MaxDelay)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

// IsCacheEnabled returns true if generation caching is enabled
func (c AIConfig) IsCacheEnabled() bool {
	return c.CacheTTL != ""
}

// GetCacheTTL returns the cache TTL (0 if caching is disabled)
func (c AIConfig) GetCacheTTL() time.Duration {
	if c.CacheTTL == "" {
		return 0
	}
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil {
		return 0
	}
	return d
}

// GetDriver returns the storage driver (default: sqlite)
func (c StorageConfig) GetDriver() string {
	if c.Driver == "" {
		return "sqlite"
	}
	return c.Driver
}

// GetPath returns the sqlite database path (default: ./stepwise.db)
func (c StorageConfig) GetPath() string {
	if c.Path == "" {
		return "./stepwise.db"
	}
	return c.Path
}

// GetDSN returns the postgres DSN with environment variable expansion
func (c StorageConfig) GetDSN() string {
	return os.ExpandEnv(c.DSN)
}

// GetLineHeight returns the pixel height per editor line (default: 24)
func (c WorkspaceConfig) GetLineHeight() int {
	if c.LineHeight <= 0 {
		return 24
	}
	return c.LineHeight
}

// GetTopPadding returns the editor top padding (default: 24)
func (c WorkspaceConfig) GetTopPadding() int {
	if c.TopPadding <= 0 {
		return 24
	}
	return c.TopPadding
}

// GetViewportHeight returns the editor viewport height (default: 600)
func (c WorkspaceConfig) GetViewportHeight() int {
	if c.ViewportHeight <= 0 {
		return 600
	}
	return c.ViewportHeight
}

// GetAdvanceNotice returns how long the advancement toast should live (default: 2s)
func (c WorkspaceConfig) GetAdvanceNotice() time.Duration {
	if c.AdvanceNotice == "" {
		return 2 * time.Second
	}
	d, err := time.ParseDuration(c.AdvanceNotice)
	if err != nil {
		return 2 * time.Second
	}
	return d
}

// GetDir returns the courses directory (default: ./courses)
func (c CoursesConfig) GetDir() string {
	if c.Dir == "" {
		return "./courses"
	}
	return c.Dir
}

// GetCORSOrigins returns the configured CORS origins, or nil if not configured
func (c *APIConfig) GetCORSOrigins() []string {
	if c == nil || c.CORS == nil {
		return nil
	}
	return c.CORS.Origins
}

// GetRateLimitRPS returns the rate limit in requests per second (default: 10)
func (c *APIConfig) GetRateLimitRPS() float64 {
	if c == nil || c.RateLimit == nil || c.RateLimit.RequestsPerSecond <= 0 {
		return 10
	}
	return c.RateLimit.RequestsPerSecond
}

// GetRateLimitBurst returns the burst size (default: 20)
func (c *APIConfig) GetRateLimitBurst() int {
	if c == nil || c.RateLimit == nil || c.RateLimit.Burst <= 0 {
		return 20
	}
	return c.RateLimit.Burst
}

// IsAuthEnabled returns true if API authentication is configured
func (c *APIConfig) IsAuthEnabled() bool {
	if c == nil || c.Auth == nil {
		return false
	}
	return c.Auth.GetAPIKey() != ""
}

// GetAPIKey returns the configured API key with environment variable expansion
func (c *AuthConfig) GetAPIKey() string {
	if c == nil || c.APIKey == "" {
		return ""
	}
	return os.ExpandEnv(c.APIKey)
}

// GetHeaderName returns the header name for authentication (default: "X-API-Key")
func (c *AuthConfig) GetHeaderName() string {
	if c == nil || c.HeaderName == "" {
		return "X-API-Key"
	}
	return c.HeaderName
}

// IsAPIEnabled returns whether the API is enabled
func (c *Config) IsAPIEnabled() bool {
	return c.API != nil && c.API.Enabled
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Title:       "Stepwise",
		Description: "AI-generated interactive coding courses",
		Server: ServerConfig{
			Port:  8080,
			Host:  "localhost",
			Debug: false,
		},
		Features: FeaturesConfig{
			HotReload: true,
		},
	}
}

// Load loads configuration from a YAML file
// If the file doesn't exist, returns the default configuration
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return DefaultConfig(), nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig() // Start with defaults
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// LoadFromDir looks for stepwise.yaml in the given directory.
// If it is not found, returns the default configuration
func LoadFromDir(dir string) (*Config, error) {
	return Load(filepath.Join(dir, "stepwise.yaml"))
}

// Save writes the configuration to a YAML file
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
