package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Env           string             `yaml:"env"` // local, dev, prod
	GitHub        GitHubConfig       `yaml:"github"`
	Search        SearchConfig       `yaml:"search"`
	Notifications NotificationConfig `yaml:"notifications"`
	Age           AgeConfig          `yaml:"age"`
	UI            UIConfig           `yaml:"ui"`
	Logging       LoggingConfig      `yaml:"logging"`
	Metrics       MetricsConfig      `yaml:"metrics"`
}

// GitHubConfig holds GitHub API client settings.
type GitHubConfig struct {
	BaseURL           string  `yaml:"base_url"`
	TimeoutSec        int     `yaml:"timeout_sec"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
	UserAgent         string  `yaml:"user_agent"`
}

// SearchConfig holds the debounce gates used by the search input.
type SearchConfig struct {
	Typing   GateConfig `yaml:"typing"`
	Deleting GateConfig `yaml:"deleting"`
}

// GateConfig holds the admission rules and delay of one debounce gate.
type GateConfig struct {
	DelayMs    int  `yaml:"delay_ms"`
	MinLength  int  `yaml:"min_length"`
	MaxLength  int  `yaml:"max_length"`
	AllowEmpty bool `yaml:"allow_empty"`
}

// NotificationConfig holds notification texts and durations.
type NotificationConfig struct {
	DurationMs         int    `yaml:"duration_ms"`
	ExceededDurationMs int    `yaml:"exceeded_duration_ms"`
	RateLimitWarning   string `yaml:"rate_limit_warning"`
	RateLimitExceeded  string `yaml:"rate_limit_exceeded"`
}

// AgeConfig holds decryption settings.
type AgeConfig struct {
	PrivateKeyPath string `yaml:"private_key_path"`
}

// UIConfig holds terminal UI settings.
type UIConfig struct {
	DemoMode bool `yaml:"demo_mode"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`
}

// MetricsConfig holds the optional Prometheus listener.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables the listener
}

// Load reads configuration from a YAML file. An empty path yields defaults.
// Environment overrides are applied after the file.
func Load(path string) (Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}

		// Substitute env variables of the form ${VAR}
		data = expandEnvVars(data)

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// PathFromEnv returns the config path from GH_SEARCH_CONFIG, if set.
func PathFromEnv() string {
	return os.Getenv("GH_SEARCH_CONFIG")
}

func (c *Config) applyEnv() {
	if v := os.Getenv("ENV"); v != "" {
		c.Env = v
	}
	if v := os.Getenv("GITHUB_API_URL"); v != "" {
		c.GitHub.BaseURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("AGE_PRIVATE_KEY_PATH"); v != "" {
		c.Age.PrivateKeyPath = v
	}
	if os.Getenv("AGE_TOOL_DEMO_MODE") != "" {
		c.UI.DemoMode = true
	}
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Env == "" {
		c.Env = "local"
	}
	if c.GitHub.BaseURL == "" {
		c.GitHub.BaseURL = "https://api.github.com"
	}
	if c.GitHub.TimeoutSec <= 0 {
		c.GitHub.TimeoutSec = 10
	}
	if c.GitHub.RequestsPerSecond <= 0 {
		c.GitHub.RequestsPerSecond = 5
	}
	if c.GitHub.Burst <= 0 {
		c.GitHub.Burst = 5
	}
	if c.GitHub.UserAgent == "" {
		c.GitHub.UserAgent = "age-github-search-tui"
	}
	applyGateDefaults(&c.Search.Typing, 600)
	applyGateDefaults(&c.Search.Deleting, 1000)
	if c.Notifications.DurationMs <= 0 {
		c.Notifications.DurationMs = 3000
	}
	if c.Notifications.ExceededDurationMs <= 0 {
		c.Notifications.ExceededDurationMs = 6000
	}
	if c.Notifications.RateLimitWarning == "" {
		c.Notifications.RateLimitWarning = "Careful, only a few searches left before GitHub's rate limit kicks in."
	}
	if c.Notifications.RateLimitExceeded == "" {
		c.Notifications.RateLimitExceeded = "GitHub's search rate limit is exhausted, please wait a minute."
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.File == "" {
		c.Logging.File = filepath.Join(os.TempDir(), "gh-search-tui.log")
	}
}

func applyGateDefaults(g *GateConfig, delayMs int) {
	if g.DelayMs <= 0 {
		g.DelayMs = delayMs
	}
	if g.MinLength <= 0 {
		g.MinLength = 2
	}
	if g.MaxLength <= 0 {
		g.MaxLength = 50
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	switch c.Env {
	case "local", "dev", "prod":
	default:
		return fmt.Errorf("env must be one of local, dev, prod, got %q", c.Env)
	}
	u, err := url.Parse(c.GitHub.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("github.base_url must be an absolute http(s) URL, got %q", c.GitHub.BaseURL)
	}
	for name, g := range map[string]GateConfig{"typing": c.Search.Typing, "deleting": c.Search.Deleting} {
		if g.MinLength > g.MaxLength {
			return fmt.Errorf("search.%s.min_length (%d) exceeds max_length (%d)", name, g.MinLength, g.MaxLength)
		}
	}
	return nil
}

// Timeout returns the per-request timeout.
func (g GitHubConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSec) * time.Second
}

// Delay returns the gate delay.
func (g GateConfig) Delay() time.Duration {
	return time.Duration(g.DelayMs) * time.Millisecond
}

// Duration returns the default notification lifetime.
func (n NotificationConfig) Duration() time.Duration {
	return time.Duration(n.DurationMs) * time.Millisecond
}

// ExceededDuration returns the lifetime of the rate-limit-exceeded notification.
func (n NotificationConfig) ExceededDuration() time.Duration {
	return time.Duration(n.ExceededDurationMs) * time.Millisecond
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
