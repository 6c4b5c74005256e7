package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Asset struct {
		CoinID     string `yaml:"coin_id"`
		VsCurrency string `yaml:"vs_currency"`
	} `yaml:"asset"`
	Provider struct {
		BaseURL      string        `yaml:"base_url"`
		Timeout      time.Duration `yaml:"timeout"`
		CushionDelay time.Duration `yaml:"cushion_delay"`
		Retry        struct {
			MaxAttempts     int           `yaml:"max_attempts"`
			InitialInterval time.Duration `yaml:"initial_interval"`
			MaxInterval     time.Duration `yaml:"max_interval"`
		} `yaml:"retry"`
	} `yaml:"provider"`
	Ledger struct {
		Path       string `yaml:"path"`
		MaxRecords int    `yaml:"max_records"`
	} `yaml:"ledger"`
	Schedule struct {
		DailyCron string `yaml:"daily_cron"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Log struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
	} `yaml:"log"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies .env and environment
// variable overrides and fills defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	// .env is optional
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"COIN_ID":            &c.Asset.CoinID,
		"VS_CURRENCY":        &c.Asset.VsCurrency,
		"COINGECKO_BASE_URL": &c.Provider.BaseURL,
		"LEDGER_PATH":        &c.Ledger.Path,
		"CRON_DAILY":         &c.Schedule.DailyCron,
		"TELEGRAM_BOT_TOKEN": &c.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":   &c.Telegram.ChatID,
		"SQLITE_PATH":        &c.Database.SQLitePath,
		"LOG_LEVEL":          &c.Log.Level,
		"LOG_FILE":           &c.Log.File,
		"METRICS_ADDR":       &c.Metrics.Addr,
		"HTTPS_PROXY":        &c.Proxy,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("LEDGER_MAX_RECORDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LEDGER_MAX_RECORDS: %w", err)
		}
		c.Ledger.MaxRecords = n
	}
	if v := os.Getenv("CUSHION_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CUSHION_DELAY: %w", err)
		}
		c.Provider.CushionDelay = d
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Asset.CoinID == "" {
		c.Asset.CoinID = "nillion"
	}
	if c.Asset.VsCurrency == "" {
		c.Asset.VsCurrency = "usd"
	}
	if c.Provider.BaseURL == "" {
		c.Provider.BaseURL = "https://api.coingecko.com/api/v3"
	}
	if c.Provider.Timeout == 0 {
		c.Provider.Timeout = 30 * time.Second
	}
	// a negative cushion disables the delay
	if c.Provider.CushionDelay == 0 {
		c.Provider.CushionDelay = 3 * time.Second
	}
	if c.Provider.Retry.MaxAttempts == 0 {
		c.Provider.Retry.MaxAttempts = 4
	}
	if c.Provider.Retry.InitialInterval == 0 {
		c.Provider.Retry.InitialInterval = 2 * time.Second
	}
	if c.Provider.Retry.MaxInterval == 0 {
		c.Provider.Retry.MaxInterval = 30 * time.Second
	}
	if c.Ledger.Path == "" {
		c.Ledger.Path = "chart_data/daily.json"
	}
	if c.Ledger.MaxRecords == 0 {
		c.Ledger.MaxRecords = 30
	}
	if c.Schedule.DailyCron == "" {
		c.Schedule.DailyCron = "0 30 1 * * *"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 10
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 5
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Asset.CoinID == "" {
		return fmt.Errorf("asset.coin_id is required")
	}
	if c.Asset.VsCurrency == "" {
		return fmt.Errorf("asset.vs_currency is required")
	}
	if c.Ledger.Path == "" {
		return fmt.Errorf("ledger.path is required")
	}
	if c.Ledger.MaxRecords < 1 {
		return fmt.Errorf("ledger.max_records must be positive")
	}
	if c.Provider.Retry.MaxAttempts < 1 {
		return fmt.Errorf("provider.retry.max_attempts must be at least 1")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// TelegramEnabled reports whether notifications are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
