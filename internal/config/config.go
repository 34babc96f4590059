package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/camuig/signal-desk/internal/signals"
)

type Config struct {
	Data     DataConfig     `yaml:"data"`
	Desk     DeskConfig     `yaml:"desk"`
	Web      WebConfig      `yaml:"web"`
	Market   MarketConfig   `yaml:"market"`
	Telegram TelegramConfig `yaml:"telegram"`
	DeepSeek DeepSeekConfig `yaml:"deepseek"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type DataConfig struct {
	// Signals and ClosedTrades are file paths or http(s) URLs.
	Signals      string `yaml:"signals"`
	ClosedTrades string `yaml:"closed_trades"`
	StatePath    string `yaml:"state_path"`
}

type DeskConfig struct {
	DryRun             bool   `yaml:"dry_run"`
	ConfidenceBoundary string `yaml:"confidence_boundary"` // inclusive | half_open
	SignalSort         string `yaml:"signal_sort"`
	ClosedSort         string `yaml:"closed_sort"`
	ClosedView         string `yaml:"closed_view"` // usd | pct
}

type WebConfig struct {
	Port int `yaml:"port"`
	// EditorPasswordSHA256 enables the editor gate on mutating routes.
	EditorPasswordSHA256 string `yaml:"editor_password_sha256"`
}

type MarketConfig struct {
	Provider string        `yaml:"provider"` // finnhub | tinkoff | none
	Finnhub  FinnhubConfig `yaml:"finnhub"`
	Tinkoff  TinkoffConfig `yaml:"tinkoff"`
}

type FinnhubConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     *int   `yaml:"max_retries"` // 0 disables retries
}

type TinkoffConfig struct {
	Token     string `yaml:"token"`
	Sandbox   bool   `yaml:"sandbox"`
	AccountID string `yaml:"account_id"`
}

type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

type DeepSeekConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads a YAML config file. A missing file yields the defaults so the
// desk can start with no configuration at all.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("read config file: %w", err)
	}

	applyEnv(cfg)
	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if cfg.Market.Finnhub.APIKey == "" {
		cfg.Market.Finnhub.APIKey = firstEnv("FINNHUB_API_KEY", "API_KEY")
	}
	if cfg.Market.Tinkoff.Token == "" {
		cfg.Market.Tinkoff.Token = os.Getenv("TINKOFF_TOKEN")
	}
	if cfg.DeepSeek.APIKey == "" {
		cfg.DeepSeek.APIKey = os.Getenv("DEEPSEEK_API_KEY")
	}
	if cfg.Telegram.BotToken == "" {
		cfg.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func setDefaults(cfg *Config) {
	if cfg.Data.Signals == "" {
		cfg.Data.Signals = "signals.json"
	}
	if cfg.Data.ClosedTrades == "" {
		cfg.Data.ClosedTrades = "closed_trades.json"
	}
	if cfg.Data.StatePath == "" {
		cfg.Data.StatePath = "data/signal-desk.db"
	}
	if cfg.Desk.ConfidenceBoundary == "" {
		cfg.Desk.ConfidenceBoundary = "inclusive"
	}
	if cfg.Desk.SignalSort == "" {
		cfg.Desk.SignalSort = signals.SortNewest
	}
	if cfg.Desk.ClosedView == "" {
		cfg.Desk.ClosedView = string(signals.UnitUSD)
	}
	if cfg.Web.Port == 0 {
		cfg.Web.Port = 8080
	}
	if cfg.Market.Provider == "" {
		cfg.Market.Provider = "finnhub"
	}
	if cfg.Market.Finnhub.BaseURL == "" {
		cfg.Market.Finnhub.BaseURL = "https://finnhub.io/api/v1"
	}
	if cfg.Market.Finnhub.TimeoutSeconds == 0 {
		cfg.Market.Finnhub.TimeoutSeconds = 15
	}
	if cfg.Market.Finnhub.MaxRetries == nil {
		retries := 3
		cfg.Market.Finnhub.MaxRetries = &retries
	}
	if cfg.DeepSeek.BaseURL == "" {
		cfg.DeepSeek.BaseURL = "https://api.deepseek.com/v1"
	}
	if cfg.DeepSeek.Model == "" {
		cfg.DeepSeek.Model = "deepseek-chat"
	}
	if cfg.DeepSeek.TimeoutSeconds == 0 {
		cfg.DeepSeek.TimeoutSeconds = 60
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

func (c *Config) Validate() error {
	if _, err := signals.ParseBoundaryPolicy(c.Desk.ConfidenceBoundary); err != nil {
		return fmt.Errorf("desk.confidence_boundary: %w", err)
	}
	if _, err := signals.ParseUnit(c.Desk.ClosedView); err != nil {
		return fmt.Errorf("desk.closed_view: %w", err)
	}
	if c.Web.Port < 0 || c.Web.Port > 65535 {
		return fmt.Errorf("invalid web.port %d", c.Web.Port)
	}
	if r := c.Market.Finnhub.MaxRetries; r != nil && *r < 0 {
		return fmt.Errorf("invalid market.finnhub.max_retries %d", *r)
	}
	switch c.Market.Provider {
	case "finnhub", "none":
	case "tinkoff":
		if c.Market.Tinkoff.Token == "" {
			return fmt.Errorf("market.tinkoff.token is required when market.provider is tinkoff")
		}
	default:
		return fmt.Errorf("unknown market.provider %q", c.Market.Provider)
	}
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == 0 {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}
	return nil
}

func (c *Config) FinnhubMaxRetries() int {
	if c.Market.Finnhub.MaxRetries == nil {
		return 3
	}
	return *c.Market.Finnhub.MaxRetries
}

func (c *Config) BoundaryPolicy() signals.BoundaryPolicy {
	p, _ := signals.ParseBoundaryPolicy(c.Desk.ConfidenceBoundary)
	return p
}

func (c *Config) ClosedViewUnit() signals.Unit {
	u, err := signals.ParseUnit(c.Desk.ClosedView)
	if err != nil {
		return signals.UnitUSD
	}
	return u
}

func (c *Config) FinnhubTimeout() time.Duration {
	return time.Duration(c.Market.Finnhub.TimeoutSeconds) * time.Second
}

func (c *Config) DeepSeekTimeout() time.Duration {
	return time.Duration(c.DeepSeek.TimeoutSeconds) * time.Second
}

// DraftingEnabled reports whether the LLM drafting endpoint has credentials.
func (c *Config) DraftingEnabled() bool {
	return c.DeepSeek.APIKey != ""
}
