package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Finder    FinderConfig    `mapstructure:"finder"`
	Pricing   PricingConfig   `mapstructure:"pricing"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

// CatalogConfig configures the Market Catalog Client's upstream transport.
type CatalogConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LLMConfig configures the chat-completion client shared by the planner
// and the finder's classification stage.
type LLMConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int64         `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// FinderConfig holds settings for the Related-Bet Finder's discovery
// pipeline. Only RequestDeadline is read (by the dependencies handler); the
// finder uses its own built-in constants for result counts, concurrency and
// batch size, so the other fields have no effect.
type FinderConfig struct {
	RequestDeadline     time.Duration `mapstructure:"request_deadline"`
	DefaultMaxResults   int           `mapstructure:"default_max_results"`
	DefaultMinResults   int           `mapstructure:"default_min_results"`
	MarketConcurrency   int           `mapstructure:"market_concurrency"`
	ClassifyConcurrency int           `mapstructure:"classify_concurrency"`
	ClassifyBatchSize   int           `mapstructure:"classify_batch_size"`
}

// PricingConfig holds the Compact Pricing Engine's defaults, applied at
// the HTTP decoding layer so an explicit zero in a request body is always
// distinguishable from an absent field.
type PricingConfig struct {
	DefaultEpsilon    float64 `mapstructure:"default_epsilon"`
	DefaultVolatility float64 `mapstructure:"default_volatility"`
}

// RateLimitConfig configures the per-key limiter guarding the LLM- and
// catalog-backed endpoints.
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PMR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)

	v.SetDefault("catalog.base_url", "https://gamma-api.polymarket.com")
	v.SetDefault("catalog.timeout", "15s")

	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.timeout", "20s")

	v.SetDefault("finder.request_deadline", "60s")
	v.SetDefault("finder.default_max_results", 4)
	v.SetDefault("finder.default_min_results", 3)
	v.SetDefault("finder.market_concurrency", 4)
	v.SetDefault("finder.classify_concurrency", 2)
	v.SetDefault("finder.classify_batch_size", 10)

	v.SetDefault("pricing.default_epsilon", 0.01)
	v.SetDefault("pricing.default_volatility", 1.0)

	v.SetDefault("rate_limit.requests_per_second", 2.0)
	v.SetDefault("rate_limit.burst", 5)

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
