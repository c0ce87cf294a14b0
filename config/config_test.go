package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/pathway/logging"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PATHWAY_ROUTER_TIMEOUT", "PATHWAY_ROUTER_MODE", "PATHWAY_ROUTER_MAX_CONCURRENCY", "PATHWAY_ATHLETE",
		"PATHWAY_STORE_DRIVER", "PATHWAY_POSTGRES_URL", "POSTGRES_URL", "PATHWAY_SUPABASE_URL", "SUPABASE_URL",
		"PATHWAY_SUPABASE_KEY", "SUPABASE_KEY", "PATHWAY_GITHUB_TOKEN", "GITHUB_TOKEN", "PATHWAY_MODEL_PROVIDER",
		"PATHWAY_MODEL", "PATHWAY_MODEL_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "PATHWAY_LOG_LEVEL",
		"PATHWAY_LOG_FORMAT", "PATHWAY_LOG_BACKEND", "PATHWAY_HTTP_ADDR",
	} {
		t.Setenv(k, "")
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 30*time.Second, cfg.RouterTimeout())
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, logging.LogLevelInfo, cfg.LogLevel())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "pathway.yaml")
	doc := `
router:
  timeout: 5s
  mode: concurrent
athlete:
  name: Michael
  weight_kg: 70
  programs:
    - https://state.edu/swim
triggers:
  triggers:
    - name: nutrition
      phrases: [eat, food]
      agents: [diet]
  default: [status]
schedule:
  jobs:
    - name: morning
      spec: "0 7 * * *"
      query: status update
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 5*time.Second, cfg.RouterTimeout())
	assert.Equal(t, "concurrent", cfg.Router.Mode)
	assert.Equal(t, 4, cfg.Router.MaxConcurrency)
	assert.Equal(t, "Michael", cfg.Athlete.Name)
	assert.Equal(t, []string{"https://state.edu/swim"}, cfg.Athlete.Programs)
	require.NotNil(t, cfg.Triggers)
	assert.Equal(t, []string{"diet"}, cfg.Triggers.Triggers[0].Agents)
	assert.Equal(t, []string{"status"}, cfg.Triggers.Default)
	require.Len(t, cfg.Schedule.Jobs, 1)
	assert.Equal(t, "0 7 * * *", cfg.Schedule.Jobs[0].Spec)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("router: [unclosed"), 0o600))
	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PATHWAY_ROUTER_MODE", "concurrent")
	t.Setenv("PATHWAY_ROUTER_MAX_CONCURRENCY", "8")
	t.Setenv("PATHWAY_STORE_DRIVER", "supabase")
	t.Setenv("SUPABASE_URL", "https://example.supabase.co")
	t.Setenv("PATHWAY_SUPABASE_KEY", "from-env")
	t.Setenv("GITHUB_TOKEN", "gh-env")
	t.Setenv("PATHWAY_MODEL_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "ant-env")

	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "concurrent", cfg.Router.Mode)
	assert.Equal(t, 8, cfg.Router.MaxConcurrency)
	assert.Equal(t, "https://example.supabase.co", cfg.Store.SupabaseURL)
	assert.Equal(t, "from-env", cfg.Store.SupabaseKey)
	assert.Equal(t, "gh-env", cfg.GitHub.Token)
	assert.Equal(t, "ant-env", cfg.Model.APIKey)
}

func TestEnvPrefixedWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("GITHUB_TOKEN", "generic")
	t.Setenv("PATHWAY_GITHUB_TOKEN", "specific")
	t.Setenv("PATHWAY_ROUTER_MAX_CONCURRENCY", "lots")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "specific", cfg.GitHub.Token)
	assert.Equal(t, 4, cfg.Router.MaxConcurrency)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"mode", func(c *Config) { c.Router.Mode = "sideways" }, "router.mode"},
		{"timeout", func(c *Config) { c.Router.Timeout = "soon" }, "invalid router.timeout"},
		{"driver", func(c *Config) { c.Store.Driver = "mongo" }, "invalid store driver"},
		{"postgres url", func(c *Config) { c.Store.Driver = "postgres" }, "store.postgres_url"},
		{"supabase key", func(c *Config) { c.Store.Driver = "supabase"; c.Store.SupabaseURL = "https://x" }, "supabase_key"},
		{"provider", func(c *Config) { c.Model.Provider = "gemini" }, "invalid model provider"},
		{"api key", func(c *Config) { c.Model.Provider = "openai" }, "requires an API key"},
		{"level", func(c *Config) { c.Logging.Level = "loud" }, "unknown log level"},
		{"format", func(c *Config) { c.Logging.Format = "xml" }, "invalid log format"},
		{"backend", func(c *Config) { c.Logging.Backend = "logrus" }, "invalid logging backend"},
		{"job fields", func(c *Config) { c.Schedule.Jobs = []JobConfig{{Name: "x"}} }, "name, spec and query are required"},
		{"job dup", func(c *Config) {
			j := JobConfig{Name: "x", Spec: "@daily", Query: "status"}
			c.Schedule.Jobs = []JobConfig{j, j}
		}, "duplicate job name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestValidateTriggersNeedDefault(t *testing.T) {
	cfg, err := Parse([]byte("triggers:\n  triggers:\n    - phrases: [eat]\n      agents: [diet]\n"))
	require.NoError(t, err)
	assert.ErrorContains(t, cfg.Validate(), "routing ambiguity")
}
