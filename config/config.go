package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	AI        AIConfig
	Cache     CacheConfig
	Analysis  AnalysisConfig
	RateLimit RateLimitConfig
	NATS      NATSConfig
	Log       LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// AIConfig holds the model server configuration. An empty model name
// means that capability is not provided.
type AIConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	PromptModel       string        `mapstructure:"prompt_model"`
	SummarizerModel   string        `mapstructure:"summarizer_model"`
	WriterModel       string        `mapstructure:"writer_model"`
	RewriterModel     string        `mapstructure:"rewriter_model"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	Debug             bool          `mapstructure:"debug"`
}

// CacheConfig holds key-value store configuration
type CacheConfig struct {
	Type       string `mapstructure:"type"` // "memory" or "sqlite"
	SQLitePath string `mapstructure:"sqlite_path"`
}

// AnalysisConfig tunes the analysis engine and coordinator
type AnalysisConfig struct {
	SummarizeThreshold int    `mapstructure:"summarize_threshold"`
	DedupeInFlight     bool   `mapstructure:"dedupe_inflight"`
	DefaultMode        string `mapstructure:"default_mode"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"`
}

// NATSConfig holds the optional NATS transport configuration. Empty URL disables it.
type NATSConfig struct {
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/shopsmart/")

	// Environment variable settings
	v.SetEnvPrefix("SHOPSMART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads ./.env into the process environment without
// overriding variables that are already set
func loadEnvFile() error {
	if _, err := os.Stat(".env"); os.IsNotExist(err) {
		return nil
	}
	return gotenv.Load(".env")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"chrome-extension://*"})

	// AI defaults
	v.SetDefault("ai.base_url", "http://localhost:11434")
	v.SetDefault("ai.prompt_model", "llama3.2")
	v.SetDefault("ai.summarizer_model", "llama3.2")
	v.SetDefault("ai.writer_model", "")
	v.SetDefault("ai.rewriter_model", "")
	v.SetDefault("ai.timeout", "60s")
	v.SetDefault("ai.requests_per_minute", 60)
	v.SetDefault("ai.debug", false)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.sqlite_path", "")

	// Analysis defaults
	v.SetDefault("analysis.summarize_threshold", 500)
	v.SetDefault("analysis.dedupe_inflight", false)
	v.SetDefault("analysis.default_mode", "eco")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)

	// NATS defaults
	v.SetDefault("nats.url", "")
	v.SetDefault("nats.subject_prefix", "shopsmart")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Cache.Type != "memory" && config.Cache.Type != "sqlite" {
		return fmt.Errorf("cache type must be 'memory' or 'sqlite', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "sqlite" && config.Cache.SQLitePath == "" {
		return fmt.Errorf("SQLite path is required when cache type is 'sqlite' (set SHOPSMART_CACHE_SQLITE_PATH)")
	}

	if config.Analysis.DefaultMode != "eco" && config.Analysis.DefaultMode != "trust" {
		return fmt.Errorf("default mode must be 'eco' or 'trust', got: %s", config.Analysis.DefaultMode)
	}

	if config.Analysis.SummarizeThreshold < 0 {
		return fmt.Errorf("summarize threshold must not be negative, got: %d", config.Analysis.SummarizeThreshold)
	}

	if config.AI.BaseURL == "" && config.AI.PromptModel != "" {
		return fmt.Errorf("AI base URL is required when a prompt model is set")
	}

	if config.NATS.URL != "" && config.NATS.SubjectPrefix == "" {
		return fmt.Errorf("NATS subject prefix is required when NATS is enabled")
	}

	return nil
}
