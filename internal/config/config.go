package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Dataset source kinds.
const (
	SourceHTTP   = "http"
	SourceFile   = "file"
	SourceSQLite = "sqlite"
)

// Config represents the complete application configuration
type Config struct {
	Dataset  DatasetConfig  `mapstructure:"dataset"`
	Viewer   ViewerConfig   `mapstructure:"viewer"`
	Server   ServerConfig   `mapstructure:"server"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// DatasetConfig describes where the catalog and price history are read from
type DatasetConfig struct {
	Source          string        `mapstructure:"source"` // http, file or sqlite
	EventsURL       string        `mapstructure:"events_url"`
	PriceHistoryURL string        `mapstructure:"price_history_url"`
	Dir             string        `mapstructure:"dir"`
	DBPath          string        `mapstructure:"db_path"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// ViewerConfig holds catalog view behavior
type ViewerConfig struct {
	PageSize    int           `mapstructure:"page_size"`
	SessionTTL  time.Duration `mapstructure:"session_ttl"`
	MaxSessions int           `mapstructure:"max_sessions"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// TelegramConfig holds operator notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
// An empty path loads defaults and environment overrides only.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("POLYSOCCER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Dataset defaults
	v.SetDefault("dataset.source", SourceHTTP)
	v.SetDefault("dataset.events_url", "http://localhost:8000/polymarket-soccer-analytics/events.json")
	v.SetDefault("dataset.price_history_url", "http://localhost:8000/polymarket-soccer-analytics/price_history.json")
	v.SetDefault("dataset.dir", "./data")
	v.SetDefault("dataset.db_path", "./data/polysoccer.db")
	v.SetDefault("dataset.timeout", "30s")

	// Viewer defaults
	v.SetDefault("viewer.page_size", 500)
	v.SetDefault("viewer.session_ttl", "30m")
	v.SetDefault("viewer.max_sessions", 10000)

	// Server defaults
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Dataset config
	switch c.Dataset.Source {
	case SourceHTTP:
		if c.Dataset.EventsURL == "" {
			return fmt.Errorf("dataset.events_url is required for the http source")
		}
		if c.Dataset.PriceHistoryURL == "" {
			return fmt.Errorf("dataset.price_history_url is required for the http source")
		}
	case SourceFile:
		if c.Dataset.Dir == "" {
			return fmt.Errorf("dataset.dir is required for the file source")
		}
	case SourceSQLite:
		if c.Dataset.DBPath == "" {
			return fmt.Errorf("dataset.db_path is required for the sqlite source")
		}
	default:
		return fmt.Errorf("dataset.source must be one of: http, file, sqlite")
	}
	if c.Dataset.Timeout < 1*time.Second {
		return fmt.Errorf("dataset.timeout must be at least 1 second")
	}

	// Validate Viewer config
	if c.Viewer.PageSize < 1 {
		return fmt.Errorf("viewer.page_size must be at least 1")
	}
	if c.Viewer.SessionTTL < 1*time.Minute {
		return fmt.Errorf("viewer.session_ttl must be at least 1 minute")
	}
	if c.Viewer.MaxSessions < 1 {
		return fmt.Errorf("viewer.max_sessions must be at least 1")
	}

	// Validate Server config
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.read_timeout and server.write_timeout must be positive")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
