package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "supabase", cfg.Store.Driver)
	assert.True(t, cfg.Store.UseTestTables)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 3, cfg.Batch.MaxConcurrentCourses)
	assert.Equal(t, 20, cfg.Batch.CoursesPerMinute)
	assert.Equal(t, 30, cfg.Provider.TimeoutSecs)
	assert.Equal(t, 2, cfg.Waterfall.SuccessThreshold)
	assert.Equal(t, 90, cfg.Waterfall.MinEmailConfidence)
	assert.Equal(t, []string{"General Manager", "Director of Golf", "Head Golf Professional", "Superintendent"}, cfg.Waterfall.TargetTitles)
	assert.Equal(t, "https://api.apollo.io", cfg.Apollo.BaseURL)
	assert.Equal(t, "https://api.hunter.io/v2", cfg.Hunter.BaseURL)
	assert.Equal(t, "https://r.jina.ai", cfg.Jina.BaseURL)
	assert.Equal(t, "https://api.firecrawl.dev/v1", cfg.Firecrawl.BaseURL)
	assert.Equal(t, "sonar-pro", cfg.Perplexity.Model)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Anthropic.HaikuModel)
	assert.InDelta(t, 0.025, cfg.Pricing.Apollo.PerCredit, 1e-9)
	assert.InDelta(t, 0.0245, cfg.Pricing.Hunter.PerRequest, 1e-9)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
  database_url: courses.db
log:
  level: debug
  format: console
waterfall:
  success_threshold: 3
blocklist:
  person_ids: ["abc", "def"]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "courses.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 3, cfg.Waterfall.SuccessThreshold)
	assert.Equal(t, []string{"abc", "def"}, cfg.Blocklist.PersonIDs)
	// Defaults still apply for unset values
	assert.Equal(t, 90, cfg.Waterfall.MinEmailConfidence)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("COURSE_STORE_DRIVER", "postgres")
	t.Setenv("COURSE_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadProviderEnvNames(t *testing.T) {
	chdirTemp(t)

	t.Setenv("APOLLO_API_KEY", "ap-key")
	t.Setenv("HUNTER_API_KEY", "hu-key")
	t.Setenv("FIRECRAWL_API_KEY", "fc-key")
	t.Setenv("JINA_API_KEY", "ji-key")
	t.Setenv("PERPLEXITY_API_KEY", "px-key")
	t.Setenv("BRIGHTDATA_API_TOKEN", "bd-token")
	t.Setenv("ANTHROPIC_API_KEY", "an-key")
	t.Setenv("SUPABASE_URL", "https://proj.supabase.co")
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "srk")
	t.Setenv("SUPABASE_ANON_KEY", "anon")
	t.Setenv("DATABASE_URL", "postgres://localhost/courses")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ap-key", cfg.Apollo.Key)
	assert.Equal(t, "hu-key", cfg.Hunter.Key)
	assert.Equal(t, "fc-key", cfg.Firecrawl.Key)
	assert.Equal(t, "ji-key", cfg.Jina.Key)
	assert.Equal(t, "px-key", cfg.Perplexity.Key)
	assert.Equal(t, "bd-token", cfg.BrightData.Token)
	assert.Equal(t, "an-key", cfg.Anthropic.Key)
	assert.Equal(t, "https://proj.supabase.co", cfg.Supabase.URL)
	assert.Equal(t, "srk", cfg.Supabase.ServiceRoleKey)
	assert.Equal(t, "anon", cfg.Supabase.AnonKey)
	assert.Equal(t, "postgres://localhost/courses", cfg.Store.DatabaseURL)
}

func TestLoadPrefixedEnvWinsOverContractName(t *testing.T) {
	chdirTemp(t)

	t.Setenv("APOLLO_API_KEY", "plain")
	t.Setenv("COURSE_APOLLO_KEY", "prefixed")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "prefixed", cfg.Apollo.Key)
}

func TestLoadMissingCredentialsAreEmpty(t *testing.T) {
	chdirTemp(t)
	t.Setenv("APOLLO_API_KEY", "")
	t.Setenv("HUNTER_API_KEY", "")
	t.Setenv("BRIGHTDATA_API_TOKEN", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.Apollo.Key)
	assert.Empty(t, cfg.Hunter.Key)
	assert.Empty(t, cfg.BrightData.Token)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "file:courses.db"
	cfg.Anthropic.Key = "sk-ant-key"
	cfg.Waterfall.SuccessThreshold = 2
	cfg.Waterfall.MinEmailConfidence = 90
	cfg.Provider.TimeoutSecs = 30
	cfg.Batch.MaxConcurrentCourses = 3
	return cfg
}

func TestValidateEnrich_AllPresent(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("enrich"))
}

func TestValidateEnrich_MissingFields(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.DatabaseURL = ""
	cfg.Anthropic.Key = ""

	err := cfg.Validate("enrich")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")
	assert.Contains(t, err.Error(), "anthropic.key is required")
}

func TestValidateEnrich_Supabase(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "supabase"

	err := cfg.Validate("enrich")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "supabase.url is required")

	cfg.Supabase.URL = "https://proj.supabase.co"
	cfg.Supabase.AnonKey = "anon"
	assert.NoError(t, cfg.Validate("enrich"))
}

func TestValidateBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Batch.MaxConcurrentCourses = 0
	err := cfg.Validate("enrich")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_concurrent_courses must be between 1 and 20")

	cfg.Batch.MaxConcurrentCourses = 3
	cfg.Waterfall.MinEmailConfidence = 101
	err = cfg.Validate("enrich")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "min_email_confidence")

	cfg.Waterfall.MinEmailConfidence = 90
	cfg.Waterfall.SuccessThreshold = 0
	err = cfg.Validate("enrich")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "success_threshold")
}

func TestValidateMigrate(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("migrate"))

	cfg.Store.Driver = "supabase"
	err := cfg.Validate("migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres or sqlite")
}

func TestValidateUnknownDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"
	err := cfg.Validate("enrich")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be one of")
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
