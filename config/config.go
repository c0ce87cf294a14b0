// Package config loads pathway's configuration from an optional YAML file
// with PATHWAY_* environment overrides. Secrets are only ever read from the
// file or the environment.
package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/pathway/logging"
	"github.com/hupe1980/pathway/router"
)

// Config holds all pathway configuration.
type Config struct {
	Router   RouterConfig         `yaml:"router"`
	Triggers *router.TriggerTable `yaml:"triggers,omitempty"` // nil uses the built-in table
	Athlete  AthleteConfig        `yaml:"athlete"`
	Swim     SwimConfig           `yaml:"swim"`
	Store    StoreConfig          `yaml:"store"`
	GitHub   GitHubConfig         `yaml:"github"`
	Web      WebConfig            `yaml:"web"`
	Model    ModelConfig          `yaml:"model"`
	Scoring  ScoringConfig        `yaml:"scoring"`
	Logging  LoggingConfig        `yaml:"logging"`
	HTTP     HTTPConfig           `yaml:"http"`
	Schedule ScheduleConfig       `yaml:"schedule"`
}

// RouterConfig tunes agent invocation.
type RouterConfig struct {
	Timeout        string `yaml:"timeout"` // per agent, e.g. "30s"
	Mode           string `yaml:"mode"`    // sequential, concurrent
	MaxConcurrency int    `yaml:"max_concurrency"`
}

// AthleteConfig names the default athlete. The profile fields are stored in
// the profiles table at startup when no profile exists yet.
type AthleteConfig struct {
	Name           string   `yaml:"name"`
	GradYear       int      `yaml:"grad_year"`
	WeightKG       float64  `yaml:"weight_kg"`
	TargetDivision string   `yaml:"target_division"`
	HomeCity       string   `yaml:"home_city"`
	Programs       []string `yaml:"programs"`
}

// SwimConfig overrides the qualifying standards, event -> seconds.
type SwimConfig struct {
	Standards map[string]float64 `yaml:"standards"`
}

// StoreConfig selects the persistence sink.
type StoreConfig struct {
	Driver      string `yaml:"driver"` // memory, postgres, supabase
	PostgresURL string `yaml:"postgres_url"`
	SupabaseURL string `yaml:"supabase_url"`
	SupabaseKey string `yaml:"supabase_key"`
	Timeout     string `yaml:"timeout"`
}

// GitHubConfig configures the repository fetcher.
type GitHubConfig struct {
	Token   string `yaml:"token"`
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

// WebConfig configures the program page fetcher.
type WebConfig struct {
	Timeout string `yaml:"timeout"`
}

// ModelConfig configures the optional coach model.
type ModelConfig struct {
	Provider    string  `yaml:"provider"` // none, openai, anthropic
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	Streaming   bool    `yaml:"streaming"`
}

// ScoringConfig configures the repository heuristics.
type ScoringConfig struct {
	Keywords []string `yaml:"keywords"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level   string `yaml:"level"`   // debug, info, warn, error
	Format  string `yaml:"format"`  // text, json
	Backend string `yaml:"backend"` // slog, zap
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Addr         string `yaml:"addr"`
	ReadTimeout  string `yaml:"read_timeout"`
	WriteTimeout string `yaml:"write_timeout"`
}

// ScheduleConfig lists the recurring queries.
type ScheduleConfig struct {
	Jobs []JobConfig `yaml:"jobs"`
}

// JobConfig is one recurring query.
type JobConfig struct {
	Name    string `yaml:"name"`
	Spec    string `yaml:"spec"` // standard 5-field cron spec or @every/@daily descriptor
	Query   string `yaml:"query"`
	Athlete string `yaml:"athlete"`
}

// Accepted enumerations.
var (
	StoreDrivers    = []string{"memory", "postgres", "supabase"}
	ModelProviders  = []string{"none", "openai", "anthropic"}
	LogFormats      = []string{"text", "json"}
	LoggingBackends = []string{"slog", "zap"}
)

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Router: RouterConfig{
			Timeout:        "30s",
			Mode:           "sequential",
			MaxConcurrency: 4,
		},
		Store:   StoreConfig{Driver: "memory", Timeout: "10s"},
		GitHub:  GitHubConfig{Timeout: "15s"},
		Web:     WebConfig{Timeout: "10s"},
		Model:   ModelConfig{Provider: "none", Temperature: 0.3, MaxTokens: 800},
		Logging: LoggingConfig{Level: "info", Format: "text", Backend: "slog"},
		HTTP: HTTPConfig{
			Addr:         ":8080",
			ReadTimeout:  "15s",
			WriteTimeout: "60s",
		},
	}
}

// Load reads path (optional: a missing file yields defaults) and applies
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Parse decodes YAML on top of the defaults without consulting the environment.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	c.Router.Timeout = getEnv("PATHWAY_ROUTER_TIMEOUT", c.Router.Timeout)
	c.Router.Mode = getEnv("PATHWAY_ROUTER_MODE", c.Router.Mode)
	c.Router.MaxConcurrency = getEnvInt("PATHWAY_ROUTER_MAX_CONCURRENCY", c.Router.MaxConcurrency)

	c.Athlete.Name = getEnv("PATHWAY_ATHLETE", c.Athlete.Name)

	c.Store.Driver = getEnv("PATHWAY_STORE_DRIVER", c.Store.Driver)
	c.Store.PostgresURL = getEnv("PATHWAY_POSTGRES_URL", getEnv("POSTGRES_URL", c.Store.PostgresURL))
	c.Store.SupabaseURL = getEnv("PATHWAY_SUPABASE_URL", getEnv("SUPABASE_URL", c.Store.SupabaseURL))
	c.Store.SupabaseKey = getEnv("PATHWAY_SUPABASE_KEY", getEnv("SUPABASE_KEY", c.Store.SupabaseKey))

	c.GitHub.Token = getEnv("PATHWAY_GITHUB_TOKEN", getEnv("GITHUB_TOKEN", c.GitHub.Token))

	c.Model.Provider = getEnv("PATHWAY_MODEL_PROVIDER", c.Model.Provider)
	c.Model.Model = getEnv("PATHWAY_MODEL", c.Model.Model)
	c.Model.APIKey = getEnv("PATHWAY_MODEL_API_KEY", c.Model.APIKey)
	if c.Model.APIKey == "" {
		switch c.Model.Provider {
		case "openai":
			c.Model.APIKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic":
			c.Model.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}

	c.Logging.Level = getEnv("PATHWAY_LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("PATHWAY_LOG_FORMAT", c.Logging.Format)
	c.Logging.Backend = getEnv("PATHWAY_LOG_BACKEND", c.Logging.Backend)

	c.HTTP.Addr = getEnv("PATHWAY_HTTP_ADDR", c.HTTP.Addr)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if _, err := router.ParseMode(c.Router.Mode); err != nil {
		return err
	}
	if c.Router.MaxConcurrency < 0 {
		return fmt.Errorf("router.max_concurrency must not be negative")
	}
	for field, d := range map[string]string{
		"router.timeout":     c.Router.Timeout,
		"store.timeout":      c.Store.Timeout,
		"github.timeout":     c.GitHub.Timeout,
		"web.timeout":        c.Web.Timeout,
		"http.read_timeout":  c.HTTP.ReadTimeout,
		"http.write_timeout": c.HTTP.WriteTimeout,
	} {
		if d == "" {
			continue
		}
		if _, err := time.ParseDuration(d); err != nil {
			return fmt.Errorf("invalid %s %q: %w", field, d, err)
		}
	}

	if c.Triggers != nil {
		if err := c.Triggers.Validate(nil); err != nil {
			return fmt.Errorf("invalid triggers: %w", err)
		}
	}

	if !slices.Contains(StoreDrivers, c.Store.Driver) {
		return fmt.Errorf("invalid store driver: %s (valid: %v)", c.Store.Driver, StoreDrivers)
	}
	switch c.Store.Driver {
	case "postgres":
		if c.Store.PostgresURL == "" {
			return fmt.Errorf("postgres store requires store.postgres_url (or PATHWAY_POSTGRES_URL)")
		}
	case "supabase":
		if c.Store.SupabaseURL == "" || c.Store.SupabaseKey == "" {
			return fmt.Errorf("supabase store requires store.supabase_url and store.supabase_key (or PATHWAY_SUPABASE_URL, PATHWAY_SUPABASE_KEY)")
		}
	}

	if !slices.Contains(ModelProviders, c.Model.Provider) {
		return fmt.Errorf("invalid model provider: %s (valid: %v)", c.Model.Provider, ModelProviders)
	}
	if c.Model.Provider != "none" && c.Model.APIKey == "" {
		return fmt.Errorf("model provider %s requires an API key (set PATHWAY_MODEL_API_KEY)", c.Model.Provider)
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	if !slices.Contains(LogFormats, c.Logging.Format) {
		return fmt.Errorf("invalid log format: %s (valid: %v)", c.Logging.Format, LogFormats)
	}
	if !slices.Contains(LoggingBackends, c.Logging.Backend) {
		return fmt.Errorf("invalid logging backend: %s (valid: %v)", c.Logging.Backend, LoggingBackends)
	}

	seen := map[string]bool{}
	for i, j := range c.Schedule.Jobs {
		if strings.TrimSpace(j.Name) == "" || strings.TrimSpace(j.Spec) == "" || strings.TrimSpace(j.Query) == "" {
			return fmt.Errorf("schedule.jobs[%d]: name, spec and query are required", i)
		}
		if seen[j.Name] {
			return fmt.Errorf("schedule.jobs[%d]: duplicate job name %q", i, j.Name)
		}
		seen[j.Name] = true
	}
	return nil
}

// RouterTimeout returns the per-agent timeout.
func (c *Config) RouterTimeout() time.Duration { return duration(c.Router.Timeout, router.DefaultTimeout) }

// StoreTimeout returns the sink request timeout.
func (c *Config) StoreTimeout() time.Duration { return duration(c.Store.Timeout, 10*time.Second) }

// GitHubTimeout returns the GitHub request timeout.
func (c *Config) GitHubTimeout() time.Duration { return duration(c.GitHub.Timeout, 15*time.Second) }

// WebTimeout returns the page fetch timeout.
func (c *Config) WebTimeout() time.Duration { return duration(c.Web.Timeout, 10*time.Second) }

// HTTPReadTimeout returns the server read timeout.
func (c *Config) HTTPReadTimeout() time.Duration { return duration(c.HTTP.ReadTimeout, 15*time.Second) }

// HTTPWriteTimeout returns the server write timeout.
func (c *Config) HTTPWriteTimeout() time.Duration {
	return duration(c.HTTP.WriteTimeout, 60*time.Second)
}

// LogLevel returns the parsed log level; invalid values fall back to info.
func (c *Config) LogLevel() logging.LogLevel {
	l, err := logging.ParseLevel(c.Logging.Level)
	if err != nil {
		return logging.LogLevelInfo
	}
	return l
}

func duration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}
