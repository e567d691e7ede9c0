package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers accepted in STORAGE_DRIVER.
const (
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
)

type Config struct {
	AppPort      int    `mapstructure:"APP_PORT"`
	DatabasePath string `mapstructure:"DATABASE_PATH"`
	LogLevel     string `mapstructure:"LOG_LEVEL"`

	StorageDriver string `mapstructure:"STORAGE_DRIVER"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	RedisPrefix   string `mapstructure:"REDIS_PREFIX"`

	ChatAPIURL          string `mapstructure:"CHAT_API_URL"`
	ChatAPIKey          string `mapstructure:"CHAT_API_KEY"`
	ChatModel           string `mapstructure:"CHAT_MODEL"`
	InitialSystemPrompt string `mapstructure:"INITIAL_SYSTEM_PROMPT"`

	// An empty probe URL means the chat endpoint itself is probed.
	ConnectivityProbeURL string        `mapstructure:"CONNECTIVITY_PROBE_URL"`
	ConnectivityTimeout  time.Duration `mapstructure:"CONNECTIVITY_TIMEOUT"`
	ConnectivityCacheTTL time.Duration `mapstructure:"CONNECTIVITY_CACHE_TTL"`
	OfflineReplyDelay    time.Duration `mapstructure:"OFFLINE_REPLY_DELAY"`

	// Messages per second accepted on the submit endpoint. Zero disables the limit.
	SubmitRateLimit float64 `mapstructure:"SUBMIT_RATE_LIMIT"`
	SubmitRateBurst int     `mapstructure:"SUBMIT_RATE_BURST"`
}

const defaultSystemPrompt = "You are Lifeline, a calm survival and emergency assistant. " +
	"Give short, numbered, practical steps. Always tell the user to contact emergency services when life is at risk."

func LoadConfig() (*Config, error) {
	viper.SetDefault("APP_PORT", 8000)
	viper.SetDefault("DATABASE_PATH", "/data/lifeline.db")
	viper.SetDefault("LOG_LEVEL", "INFO")
	viper.SetDefault("STORAGE_DRIVER", StorageSQLite)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_PREFIX", "lifeline:")
	viper.SetDefault("CHAT_API_URL", "https://api.openai.com/v1/chat/completions")
	viper.SetDefault("CHAT_API_KEY", "")
	viper.SetDefault("CHAT_MODEL", "gpt-4o-mini")
	viper.SetDefault("INITIAL_SYSTEM_PROMPT", defaultSystemPrompt)
	viper.SetDefault("CONNECTIVITY_PROBE_URL", "")
	viper.SetDefault("CONNECTIVITY_TIMEOUT", 3*time.Second)
	viper.SetDefault("CONNECTIVITY_CACHE_TTL", 15*time.Second)
	viper.SetDefault("OFFLINE_REPLY_DELAY", 500*time.Millisecond)
	viper.SetDefault("SUBMIT_RATE_LIMIT", 1.0)
	viper.SetDefault("SUBMIT_RATE_BURST", 3)

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./backend")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects combinations the application cannot start with.
func (c *Config) Validate() error {
	switch strings.ToLower(c.StorageDriver) {
	case StorageSQLite:
	case StorageRedis:
		// Clearing history deletes every key under the prefix.
		if c.RedisPrefix == "" {
			return fmt.Errorf("REDIS_PREFIX must not be empty with the redis storage driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.ChatAPIURL == "" {
		return fmt.Errorf("CHAT_API_URL must not be empty")
	}
	if c.ChatModel == "" {
		return fmt.Errorf("CHAT_MODEL must not be empty")
	}
	if c.SubmitRateLimit < 0 || c.SubmitRateBurst < 0 {
		return fmt.Errorf("submit rate limit must not be negative")
	}
	return nil
}

// ProbeURL is the URL used for connectivity checks.
func (c *Config) ProbeURL() string {
	if c.ConnectivityProbeURL != "" {
		return c.ConnectivityProbeURL
	}
	return c.ChatAPIURL
}
