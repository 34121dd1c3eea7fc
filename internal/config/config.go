package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration. It is loaded once at
// process start and passed by value or pointer to each stage; nothing
// mutates it afterwards.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Google     GoogleConfig     `yaml:"google" mapstructure:"google"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Gemini     GeminiConfig     `yaml:"gemini" mapstructure:"gemini"`
	Geo        GeoConfig        `yaml:"geo" mapstructure:"geo"`
	Retry      RetryConfig      `yaml:"retry" mapstructure:"retry"`
	Discovery  DiscoveryConfig  `yaml:"discovery" mapstructure:"discovery"`
	Quality    QualityConfig    `yaml:"quality" mapstructure:"quality"`
	Enrichment EnrichmentConfig `yaml:"enrichment" mapstructure:"enrichment"`
	Reviews    ReviewsConfig    `yaml:"reviews" mapstructure:"reviews"`
	Build      BuildConfig      `yaml:"build" mapstructure:"build"`
	Partners   []PartnerConfig  `yaml:"partners" mapstructure:"partners"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the canonical store.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// GoogleConfig holds Google Places API settings.
type GoogleConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// GeminiConfig holds Google Gemini settings.
type GeminiConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// GeoConfig points at the region/settlement/keyword catalog.
type GeoConfig struct {
	CatalogPath string `yaml:"catalog_path" mapstructure:"catalog_path"`
}

// RetryConfig is the backoff schedule shared by discovery and enrichment.
type RetryConfig struct {
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier" mapstructure:"multiplier"`
	JitterFraction   float64 `yaml:"jitter_fraction" mapstructure:"jitter_fraction"`
}

// DiscoveryConfig configures the discovery stage.
type DiscoveryConfig struct {
	Workers            int     `yaml:"workers" mapstructure:"workers"`
	RateLimit          float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	MaxPagesPerCell    int     `yaml:"max_pages_per_cell" mapstructure:"max_pages_per_cell"`
	RequestTimeoutSecs int     `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
}

// RequestTimeout returns the per-call timeout.
func (c DiscoveryConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSecs) * time.Second
}

// QualityConfig configures the quality analyzer.
type QualityConfig struct {
	GenericNames  []string `yaml:"generic_names" mapstructure:"generic_names"`
	MinNameLength int      `yaml:"min_name_length" mapstructure:"min_name_length"`
	ReportPath    string   `yaml:"report_path" mapstructure:"report_path"`
}

// EnrichmentConfig configures the content enrichment stage.
type EnrichmentConfig struct {
	Provider              string   `yaml:"provider" mapstructure:"provider"`
	Workers               int      `yaml:"workers" mapstructure:"workers"`
	RateLimit             float64  `yaml:"rate_limit" mapstructure:"rate_limit"`
	MaxAttempts           int      `yaml:"max_attempts" mapstructure:"max_attempts"`
	MaxValidationAttempts int      `yaml:"max_validation_attempts" mapstructure:"max_validation_attempts"`
	FailureCooldownHours  int      `yaml:"failure_cooldown_hours" mapstructure:"failure_cooldown_hours"`
	RequestTimeoutSecs    int      `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
	MaxTokens             int64    `yaml:"max_tokens" mapstructure:"max_tokens"`
	MinWords              int      `yaml:"min_words" mapstructure:"min_words"`
	MaxWords              int      `yaml:"max_words" mapstructure:"max_words"`
	BannedPhrases         []string `yaml:"banned_phrases" mapstructure:"banned_phrases"`
	SimilarityWindow      int      `yaml:"similarity_window" mapstructure:"similarity_window"`
	SimilarityThreshold   float64  `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
}

// FailureCooldown returns how long a failed record is left alone.
func (c EnrichmentConfig) FailureCooldown() time.Duration {
	return time.Duration(c.FailureCooldownHours) * time.Hour
}

// RequestTimeout returns the per-call timeout.
func (c EnrichmentConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSecs) * time.Second
}

// ReviewsConfig locates the static and live review sources.
type ReviewsConfig struct {
	StaticPath  string `yaml:"static_path" mapstructure:"static_path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// BuildConfig configures artifact generation.
type BuildConfig struct {
	OutputDir      string `yaml:"output_dir" mapstructure:"output_dir"`
	BaseURL        string `yaml:"base_url" mapstructure:"base_url"`
	MaxPerChunk    int    `yaml:"max_per_chunk" mapstructure:"max_per_chunk"`
	ExcludeFlagged bool   `yaml:"exclude_flagged" mapstructure:"exclude_flagged"`
}

// PartnerConfig is one affiliate partner entry.
type PartnerConfig struct {
	Slug         string   `yaml:"slug" mapstructure:"slug"`
	Name         string   `yaml:"name" mapstructure:"name"`
	URL          string   `yaml:"url" mapstructure:"url"`
	Active       bool     `yaml:"active" mapstructure:"active"`
	ServiceTypes []string `yaml:"service_types" mapstructure:"service_types"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DIRECTORY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

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

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.path", "directory.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("google.key", "")
	v.SetDefault("google.base_url", "https://places.googleapis.com/v1")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("gemini.key", "")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("geo.catalog_path", "catalog.yaml")
	v.SetDefault("retry.max_attempts", 4)
	v.SetDefault("retry.initial_backoff_ms", 500)
	v.SetDefault("retry.max_backoff_ms", 30000)
	v.SetDefault("retry.multiplier", 2.0)
	v.SetDefault("retry.jitter_fraction", 0.25)
	v.SetDefault("discovery.workers", 4)
	v.SetDefault("discovery.rate_limit", 5.0)
	v.SetDefault("discovery.max_pages_per_cell", 3)
	v.SetDefault("discovery.request_timeout_secs", 15)
	v.SetDefault("quality.generic_names", []string{
		"laundromat", "laundry", "coin laundry", "laundry service", "wash and fold",
		"dry cleaner", "dry cleaners", "self service laundry", "laundromat near me",
	})
	v.SetDefault("quality.min_name_length", 4)
	v.SetDefault("quality.report_path", "quality_report.json")
	v.SetDefault("enrichment.provider", "anthropic")
	v.SetDefault("enrichment.workers", 3)
	v.SetDefault("enrichment.rate_limit", 2.0)
	v.SetDefault("enrichment.max_attempts", 3)
	v.SetDefault("enrichment.max_validation_attempts", 3)
	v.SetDefault("enrichment.failure_cooldown_hours", 72)
	v.SetDefault("enrichment.request_timeout_secs", 90)
	v.SetDefault("enrichment.max_tokens", 1500)
	v.SetDefault("enrichment.min_words", 180)
	v.SetDefault("enrichment.max_words", 900)
	v.SetDefault("enrichment.banned_phrases", []string{
		"as an ai", "in conclusion", "nestled in", "look no further", "whether you're",
		"in today's fast-paced", "hidden gem", "one-stop shop", "[insert", "lorem ipsum",
	})
	v.SetDefault("enrichment.similarity_window", 50)
	v.SetDefault("enrichment.similarity_threshold", 0.55)
	v.SetDefault("reviews.static_path", "reviews.json")
	v.SetDefault("reviews.database_url", "")
	v.SetDefault("build.output_dir", "dist")
	v.SetDefault("build.base_url", "")
	v.SetDefault("build.max_per_chunk", 10000)
	v.SetDefault("build.exclude_flagged", false)
}

// Validate checks that the settings required by the named stage are present.
func (c *Config) Validate(stage string) error {
	if c.Store.Path == "" {
		return eris.New("config: store.path is required")
	}
	switch stage {
	case "discovery":
		if c.Google.Key == "" {
			return eris.New("config: google.key is required for discovery (DIRECTORY_GOOGLE_KEY)")
		}
		if c.Geo.CatalogPath == "" {
			return eris.New("config: geo.catalog_path is required for discovery")
		}
	case "enrichment":
		switch c.Enrichment.Provider {
		case "anthropic":
			if c.Anthropic.Key == "" {
				return eris.New("config: anthropic.key is required for enrichment (DIRECTORY_ANTHROPIC_KEY)")
			}
		case "gemini":
			if c.Gemini.Key == "" {
				return eris.New("config: gemini.key is required for enrichment (DIRECTORY_GEMINI_KEY)")
			}
		default:
			return eris.Errorf("config: unknown enrichment.provider %q", c.Enrichment.Provider)
		}
	case "build":
		if c.Build.OutputDir == "" {
			return eris.New("config: build.output_dir is required")
		}
		if c.Build.BaseURL == "" {
			return eris.New("config: build.base_url is required")
		}
		if c.Build.MaxPerChunk <= 0 {
			return eris.New("config: build.max_per_chunk must be positive")
		}
	}
	return nil
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
