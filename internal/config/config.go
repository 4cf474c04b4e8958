package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Apollo     ApolloConfig     `yaml:"apollo" mapstructure:"apollo"`
	Hunter     HunterConfig     `yaml:"hunter" mapstructure:"hunter"`
	Jina       JinaConfig       `yaml:"jina" mapstructure:"jina"`
	Firecrawl  FirecrawlConfig  `yaml:"firecrawl" mapstructure:"firecrawl"`
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	BrightData BrightDataConfig `yaml:"brightdata" mapstructure:"brightdata"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Supabase   SupabaseConfig   `yaml:"supabase" mapstructure:"supabase"`
	Pricing    PricingConfig    `yaml:"pricing" mapstructure:"pricing"`
	Provider   ProviderConfig   `yaml:"provider" mapstructure:"provider"`
	Waterfall  WaterfallConfig  `yaml:"waterfall" mapstructure:"waterfall"`
	Blocklist  BlocklistConfig  `yaml:"blocklist" mapstructure:"blocklist"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the persistence backend.
type StoreConfig struct {
	Driver        string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL   string `yaml:"database_url" mapstructure:"database_url"`
	UseTestTables bool   `yaml:"use_test_tables" mapstructure:"use_test_tables"`
}

// ApolloConfig holds Apollo B2B contact database settings.
type ApolloConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// HunterConfig holds Hunter domain email search settings.
type HunterConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// JinaConfig holds Jina AI Reader settings.
type JinaConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	SearchBaseURL string `yaml:"search_base_url" mapstructure:"search_base_url"`
}

// FirecrawlConfig holds Firecrawl API settings (fallback reader and search).
type FirecrawlConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// PerplexityConfig holds Perplexity API settings.
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// BrightDataConfig holds Bright Data Web Unlocker / SERP settings.
type BrightDataConfig struct {
	Token        string `yaml:"token" mapstructure:"token"`
	BaseURL      string `yaml:"base_url" mapstructure:"base_url"`
	UnlockerZone string `yaml:"unlocker_zone" mapstructure:"unlocker_zone"`
	SERPZone     string `yaml:"serp_zone" mapstructure:"serp_zone"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	HaikuModel  string `yaml:"haiku_model" mapstructure:"haiku_model"`
	SonnetModel string `yaml:"sonnet_model" mapstructure:"sonnet_model"`
}

// SupabaseConfig holds Supabase PostgREST credentials.
type SupabaseConfig struct {
	URL            string `yaml:"url" mapstructure:"url"`
	ServiceRoleKey string `yaml:"service_role_key" mapstructure:"service_role_key"`
	AnonKey        string `yaml:"anon_key" mapstructure:"anon_key"`
}

// PricingConfig holds per-provider pricing rates.
type PricingConfig struct {
	Anthropic  map[string]ModelPricing `yaml:"anthropic" mapstructure:"anthropic"`
	Jina       JinaPricing             `yaml:"jina" mapstructure:"jina"`
	Perplexity PerplexityPricing       `yaml:"perplexity" mapstructure:"perplexity"`
	Firecrawl  FirecrawlPricing        `yaml:"firecrawl" mapstructure:"firecrawl"`
	Apollo     ApolloPricing           `yaml:"apollo" mapstructure:"apollo"`
	Hunter     HunterPricing           `yaml:"hunter" mapstructure:"hunter"`
	BrightData BrightDataPricing       `yaml:"brightdata" mapstructure:"brightdata"`
}

// ModelPricing holds per-model token pricing (USD per million tokens).
type ModelPricing struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// JinaPricing holds Jina Reader pricing.
type JinaPricing struct {
	PerMTok float64 `yaml:"per_mtok" mapstructure:"per_mtok"`
}

// PerplexityPricing holds Perplexity pricing.
type PerplexityPricing struct {
	PerQuery float64 `yaml:"per_query" mapstructure:"per_query"`
}

// FirecrawlPricing holds Firecrawl pricing.
type FirecrawlPricing struct {
	PlanMonthly     float64 `yaml:"plan_monthly" mapstructure:"plan_monthly"`
	CreditsIncluded float64 `yaml:"credits_included" mapstructure:"credits_included"`
}

// ApolloPricing converts Apollo credits to dollars.
type ApolloPricing struct {
	PerCredit float64 `yaml:"per_credit" mapstructure:"per_credit"`
}

// HunterPricing holds Hunter per-request pricing.
type HunterPricing struct {
	PerRequest float64 `yaml:"per_request" mapstructure:"per_request"`
}

// BrightDataPricing holds Bright Data per-request pricing.
type BrightDataPricing struct {
	PerRequest float64 `yaml:"per_request" mapstructure:"per_request"`
}

// ProviderConfig holds adapter-wide settings.
type ProviderConfig struct {
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// WaterfallConfig configures the contact waterfall.
type WaterfallConfig struct {
	ConfigPath         string   `yaml:"config_path" mapstructure:"config_path"`
	SuccessThreshold   int      `yaml:"success_threshold" mapstructure:"success_threshold"`
	MinEmailConfidence int      `yaml:"min_email_confidence" mapstructure:"min_email_confidence"`
	TargetTitles       []string `yaml:"target_titles" mapstructure:"target_titles"`
}

// BlocklistConfig configures the duplicate-person block-list.
type BlocklistConfig struct {
	Path      string   `yaml:"path" mapstructure:"path"`
	PersonIDs []string `yaml:"person_ids" mapstructure:"person_ids"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrentCourses int `yaml:"max_concurrent_courses" mapstructure:"max_concurrent_courses"`
	CoursesPerMinute     int `yaml:"courses_per_minute" mapstructure:"courses_per_minute"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// envBindings maps config keys to the unprefixed environment variable names
// operators already use for provider credentials.
var envBindings = map[string]string{
	"apollo.key":                "APOLLO_API_KEY",
	"hunter.key":                "HUNTER_API_KEY",
	"firecrawl.key":             "FIRECRAWL_API_KEY",
	"jina.key":                  "JINA_API_KEY",
	"perplexity.key":            "PERPLEXITY_API_KEY",
	"brightdata.token":          "BRIGHTDATA_API_TOKEN",
	"anthropic.key":             "ANTHROPIC_API_KEY",
	"supabase.url":              "SUPABASE_URL",
	"supabase.service_role_key": "SUPABASE_SERVICE_ROLE_KEY",
	"supabase.anon_key":         "SUPABASE_ANON_KEY",
	"store.database_url":        "DATABASE_URL",
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("COURSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		// Prefixed form first so COURSE_APOLLO_KEY still wins over APOLLO_API_KEY.
		if err := v.BindEnv(key, "COURSE_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", env)
		}
	}

	// Defaults
	v.SetDefault("store.driver", "supabase")
	v.SetDefault("store.use_test_tables", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("batch.max_concurrent_courses", 3)
	v.SetDefault("batch.courses_per_minute", 20)
	v.SetDefault("provider.timeout_secs", 30)
	v.SetDefault("waterfall.success_threshold", 2)
	v.SetDefault("waterfall.min_email_confidence", 90)
	v.SetDefault("waterfall.target_titles", []string{"General Manager", "Director of Golf", "Head Golf Professional", "Superintendent"})
	v.SetDefault("blocklist.path", "blocklist.yaml")
	v.SetDefault("apollo.base_url", "https://api.apollo.io")
	v.SetDefault("hunter.base_url", "https://api.hunter.io/v2")
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("jina.search_base_url", "https://s.jina.ai")
	v.SetDefault("firecrawl.base_url", "https://api.firecrawl.dev/v1")
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar-pro")
	v.SetDefault("brightdata.base_url", "https://api.brightdata.com")
	v.SetDefault("brightdata.unlocker_zone", "web_unlocker1")
	v.SetDefault("brightdata.serp_zone", "serp_api1")
	v.SetDefault("anthropic.haiku_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.sonnet_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("pricing.jina.per_mtok", 0.02)
	v.SetDefault("pricing.perplexity.per_query", 0.005)
	v.SetDefault("pricing.firecrawl.plan_monthly", 19.00)
	v.SetDefault("pricing.firecrawl.credits_included", 3000)
	v.SetDefault("pricing.apollo.per_credit", 0.025)
	v.SetDefault("pricing.hunter.per_request", 0.0245)
	v.SetDefault("pricing.brightdata.per_request", 0.0015)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "enrich":
		errs = append(errs, c.validateStore()...)
		if c.Anthropic.Key == "" {
			errs = append(errs, "anthropic.key is required (tier classification)")
		}
		if c.Waterfall.SuccessThreshold < 1 {
			errs = append(errs, "waterfall.success_threshold must be >= 1")
		}
		if c.Waterfall.MinEmailConfidence < 0 || c.Waterfall.MinEmailConfidence > 100 {
			errs = append(errs, "waterfall.min_email_confidence must be between 0 and 100")
		}
		if c.Provider.TimeoutSecs <= 0 {
			errs = append(errs, "provider.timeout_secs must be > 0")
		}
		if c.Batch.MaxConcurrentCourses < 1 || c.Batch.MaxConcurrentCourses > 20 {
			errs = append(errs, "batch.max_concurrent_courses must be between 1 and 20")
		}
	case "migrate":
		if c.Store.Driver == "supabase" {
			errs = append(errs, "migrate requires store.driver postgres or sqlite")
		}
		errs = append(errs, c.validateStore()...)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateStore() []string {
	switch c.Store.Driver {
	case "supabase":
		var errs []string
		if c.Supabase.URL == "" {
			errs = append(errs, "supabase.url is required")
		}
		if c.Supabase.ServiceRoleKey == "" && c.Supabase.AnonKey == "" {
			errs = append(errs, "supabase.service_role_key or supabase.anon_key is required")
		}
		return errs
	case "postgres", "sqlite":
		if c.Store.DatabaseURL == "" {
			return []string{"store.database_url is required"}
		}
		return nil
	}
	return []string{"store.driver must be one of supabase, postgres, sqlite"}
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
