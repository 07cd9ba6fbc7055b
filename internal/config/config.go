package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Host         string        `yaml:"host" default:"0.0.0.0"`
		Port         int           `yaml:"port" default:"8080" validate:"min=1,max=65535"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"60s"`
	} `yaml:"server"`
	DataSource struct {
		Provider  string `yaml:"provider" default:"yahoo" validate:"oneof=yahoo rest mock"`
		BaseURL   string `yaml:"base_url" validate:"required_if=Provider rest"`
		APIKey    string `yaml:"api_key"`
		RateLimit int    `yaml:"rate_limit" default:"2" validate:"min=1"`
	} `yaml:"data_source"`
	Screener struct {
		PeriodsPerYear int    `yaml:"periods_per_year" default:"252" validate:"min=1"`
		DefaultTickers string `yaml:"default_tickers" default:"AAPL, MSFT, TSLA"`
		DefaultStart   string `yaml:"default_start" default:"2023-01-01" validate:"datetime=2006-01-02"`
	} `yaml:"screener"`
	FX struct {
		DefaultPair string `yaml:"default_pair" default:"USD" validate:"oneof=USD CNY EUR JPY"`
		DefaultDays int    `yaml:"default_days" default:"180" validate:"min=30,max=365"`
	} `yaml:"fx"`
	Schedule struct {
		ScreenerCron string `yaml:"screener_cron" default:"0 0 8 * * 1"`
		FXCron       string `yaml:"fx_cron" default:"0 0 9 * * 1-5"`
	} `yaml:"schedule"`
	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
	} `yaml:"log"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error; defaults fill whatever is left unset.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("MARKETLENS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("MARKETLENS_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("MARKET_DATA_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("MARKET_DATA_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("CRON_SCREENER"); v != "" {
		cfg.Schedule.ScreenerCron = v
	}
	if v := os.Getenv("CRON_FX"); v != "" {
		cfg.Schedule.FXCron = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// TelegramEnabled reports whether reports can be pushed to Telegram.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
