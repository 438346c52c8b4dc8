// Package config loads lecsum settings from an optional YAML file, a .env
// file and LECSUM_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/abhisek/lecsum/internal/grading"
	"github.com/abhisek/lecsum/internal/llm"
	"github.com/abhisek/lecsum/internal/logging"
	"github.com/abhisek/lecsum/internal/quizgen"
	"github.com/abhisek/lecsum/internal/retryquiz"
	"github.com/abhisek/lecsum/internal/search"
	"github.com/abhisek/lecsum/internal/store"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "LECSUM"

// Config is the full application configuration.
type Config struct {
	LLM     llm.Config
	Search  search.Config
	Store   store.Config
	QuizGen quizgen.Config
	Grading grading.Config
	Retry   retryquiz.Config
	Logging logging.Config
	Metrics MetricsConfig
	Tracing TracingConfig
}

// MetricsConfig controls pushing pipeline metrics after each command.
type MetricsConfig struct {
	// PushgatewayURL disables pushing when empty.
	PushgatewayURL string
	Job            string
}

// TracingConfig controls span export.
type TracingConfig struct {
	Enabled  bool
	Endpoint string
}

// Options locates the configuration sources.
type Options struct {
	// File is an explicit config file. Empty searches for lecsum.yaml in
	// the working directory and the user config directory.
	File string

	// EnvFile is loaded into the process environment before reading.
	// Empty means ".env"; a missing file is ignored.
	EnvFile string
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		LLM:     llm.DefaultConfig(),
		Search:  search.DefaultConfig(),
		Store:   store.DefaultConfig(),
		QuizGen: quizgen.DefaultConfig(),
		Grading: grading.DefaultConfig(),
		Retry:   retryquiz.DefaultConfig(),
		Logging: logging.DefaultConfig(),
		Metrics: MetricsConfig{Job: "lecsum"},
		Tracing: TracingConfig{Endpoint: "http://localhost:14268/api/traces"},
	}
}

// Load reads configuration. Later sources win: defaults, config file,
// environment (including .env).
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	v := viper.New()
	setDefaults(v, Default())
	bindEnv(v)

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", opts.File, err)
		}
	} else {
		v.SetConfigName("lecsum")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "lecsum"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section except the LLM provider, whose credentials
// are only needed by commands that generate or grade.
func (c *Config) Validate() error {
	for _, check := range []func() error{
		c.Search.Validate,
		c.QuizGen.Validate,
		c.Grading.Validate,
		c.Retry.Validate,
		c.Logging.Validate,
	} {
		if err := check(); err != nil {
			return err
		}
	}
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("store.driver must be sqlite or postgres, got %q", c.Store.Driver)
	}
	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return fmt.Errorf("tracing.endpoint is required when tracing is enabled")
	}
	return nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("llm.anthropic.model", d.LLM.Anthropic.Model)
	v.SetDefault("llm.openai.model", d.LLM.OpenAI.Model)
	v.SetDefault("llm.gemini.model", d.LLM.Gemini.Model)
	v.SetDefault("llm.openrouter.model", d.LLM.OpenRouter.Model)
	v.SetDefault("llm.rate_limit.requests_per_second", d.LLM.RateLimit.RequestsPerSecond)
	v.SetDefault("llm.rate_limit.burst", d.LLM.RateLimit.Burst)
	v.SetDefault("llm.timeout", d.LLM.Timeout)

	v.SetDefault("search.provider", d.Search.Provider)
	v.SetDefault("search.google.base_url", d.Search.Google.BaseURL)
	v.SetDefault("search.google.num", d.Search.Google.Num)

	v.SetDefault("store.driver", d.Store.Driver)

	v.SetDefault("quizgen.item_count", d.QuizGen.ItemCount)
	v.SetDefault("quizgen.max_tokens", d.QuizGen.MaxTokens)
	v.SetDefault("quizgen.temperature", d.QuizGen.Temperature)
	v.SetDefault("quizgen.critique_temperature", d.QuizGen.CritiqueTemperature)
	v.SetDefault("quizgen.max_recent_questions", d.QuizGen.MaxRecentQuestions)

	v.SetDefault("grading.max_tokens", d.Grading.MaxTokens)
	v.SetDefault("grading.enrich_max_tokens", d.Grading.EnrichMaxTokens)
	v.SetDefault("grading.temperature", d.Grading.Temperature)
	v.SetDefault("grading.search_timeout", d.Grading.SearchTimeout)
	v.SetDefault("grading.max_search_results", d.Grading.MaxSearchResults)

	v.SetDefault("retryquiz.variants_per_item", d.Retry.VariantsPerItem)
	v.SetDefault("retryquiz.concurrency", d.Retry.Concurrency)
	v.SetDefault("retryquiz.max_tokens", d.Retry.MaxTokens)
	v.SetDefault("retryquiz.temperature", d.Retry.Temperature)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", d.Logging.MaxAgeDays)
	v.SetDefault("logging.compress", d.Logging.Compress)

	v.SetDefault("metrics.job", d.Metrics.Job)
	v.SetDefault("tracing.endpoint", d.Tracing.Endpoint)
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Provider keys also come from the vendors' standard variables.
	v.BindEnv("llm.anthropic.api_key", "LECSUM_LLM_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	v.BindEnv("llm.openai.api_key", "LECSUM_LLM_OPENAI_API_KEY", "OPENAI_API_KEY")
	v.BindEnv("llm.gemini.api_key", "LECSUM_LLM_GEMINI_API_KEY", "GEMINI_API_KEY")
	v.BindEnv("llm.openrouter.api_key", "LECSUM_LLM_OPENROUTER_API_KEY", "OPENROUTER_API_KEY")
	v.BindEnv("search.google.api_key", "LECSUM_SEARCH_GOOGLE_API_KEY", "GOOGLE_API_KEY")
	v.BindEnv("search.google.cx", "LECSUM_SEARCH_GOOGLE_CX", "GOOGLE_CSE_ID")
}

func fromViper(v *viper.Viper) *Config {
	cfg := Default()

	cfg.LLM.Anthropic = llm.AnthropicConfig{
		APIKey:  v.GetString("llm.anthropic.api_key"),
		Model:   v.GetString("llm.anthropic.model"),
		BaseURL: v.GetString("llm.anthropic.base_url"),
	}
	cfg.LLM.OpenAI = llm.OpenAIConfig{
		APIKey:  v.GetString("llm.openai.api_key"),
		Model:   v.GetString("llm.openai.model"),
		BaseURL: v.GetString("llm.openai.base_url"),
	}
	cfg.LLM.Gemini = llm.GeminiConfig{
		APIKey: v.GetString("llm.gemini.api_key"),
		Model:  v.GetString("llm.gemini.model"),
	}
	cfg.LLM.OpenRouter = llm.OpenRouterConfig{
		APIKey:  v.GetString("llm.openrouter.api_key"),
		Model:   v.GetString("llm.openrouter.model"),
		BaseURL: v.GetString("llm.openrouter.base_url"),
	}
	cfg.LLM.RateLimit = llm.RateLimitConfig{
		RequestsPerSecond: v.GetFloat64("llm.rate_limit.requests_per_second"),
		Burst:             v.GetInt("llm.rate_limit.burst"),
	}
	cfg.LLM.Timeout = v.GetDuration("llm.timeout")
	if p := v.GetString("llm.provider"); p != "" {
		cfg.LLM.Provider = p
	} else {
		cfg.LLM.Provider = cfg.LLM.DiscoverProvider()
	}

	cfg.Search.Provider = v.GetString("search.provider")
	cfg.Search.Google = search.GoogleConfig{
		APIKey:   v.GetString("search.google.api_key"),
		CX:       v.GetString("search.google.cx"),
		BaseURL:  v.GetString("search.google.base_url"),
		Num:      v.GetInt("search.google.num"),
		Language: v.GetString("search.google.language"),
	}

	cfg.Store = store.Config{
		Driver: v.GetString("store.driver"),
		DSN:    v.GetString("store.dsn"),
	}

	cfg.QuizGen = quizgen.Config{
		ItemCount:           v.GetInt("quizgen.item_count"),
		MaxTokens:           v.GetInt("quizgen.max_tokens"),
		Temperature:         v.GetFloat64("quizgen.temperature"),
		CritiqueTemperature: v.GetFloat64("quizgen.critique_temperature"),
		MaxRecentQuestions:  v.GetInt("quizgen.max_recent_questions"),
	}

	cfg.Grading = grading.Config{
		MaxTokens:        v.GetInt("grading.max_tokens"),
		EnrichMaxTokens:  v.GetInt("grading.enrich_max_tokens"),
		Temperature:      v.GetFloat64("grading.temperature"),
		SearchTimeout:    v.GetDuration("grading.search_timeout"),
		MaxSearchResults: v.GetInt("grading.max_search_results"),
	}

	cfg.Retry = retryquiz.Config{
		VariantsPerItem: v.GetInt("retryquiz.variants_per_item"),
		Concurrency:     v.GetInt("retryquiz.concurrency"),
		MaxTokens:       v.GetInt("retryquiz.max_tokens"),
		Temperature:     v.GetFloat64("retryquiz.temperature"),
	}

	cfg.Logging = logging.Config{
		Level:      v.GetString("logging.level"),
		File:       v.GetString("logging.file"),
		MaxSizeMB:  v.GetInt("logging.max_size_mb"),
		MaxBackups: v.GetInt("logging.max_backups"),
		MaxAgeDays: v.GetInt("logging.max_age_days"),
		Compress:   v.GetBool("logging.compress"),
	}

	cfg.Metrics = MetricsConfig{
		PushgatewayURL: v.GetString("metrics.pushgateway_url"),
		Job:            v.GetString("metrics.job"),
	}
	cfg.Tracing = TracingConfig{
		Enabled:  v.GetBool("tracing.enabled"),
		Endpoint: v.GetString("tracing.endpoint"),
	}
	return &cfg
}
