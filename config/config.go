package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	ExchangeConfig     ExchangeConfig     `json:"exchange"`
	TradingConfig      TradingConfig      `json:"trading"`
	StrategiesConfig   []StrategyConfig   `json:"strategies"`
	DatabaseConfig     DatabaseConfig     `json:"database"`
	RedisConfig        RedisConfig        `json:"redis"`
	ServerConfig       ServerConfig       `json:"server"`
	NotificationConfig NotificationConfig `json:"notification"`
	LoggingConfig      LoggingConfig      `json:"logging"`
}

// ExchangeConfig holds market data source configuration.
// Only public endpoints are used; paper trading needs no API keys.
type ExchangeConfig struct {
	BaseURL   string `json:"base_url"`
	WSBaseURL string `json:"ws_base_url"`
	MockMode  bool   `json:"mock_mode"` // Use simulated data when the exchange API is unavailable
}

type TradingConfig struct {
	Pair                string  `json:"pair"`                  // e.g. "BTC/USDT"
	Timeframe           string  `json:"timeframe"`             // e.g. "15m"
	ScanIntervalSecs    int     `json:"scan_interval_secs"`    // Seconds between analysis cycles
	StartingBalance     float64 `json:"starting_balance"`      // Paper balance in quote currency
	PositionSizePercent float64 `json:"position_size_percent"` // % of balance per trade
	MaxOpenTrades       int     `json:"max_open_trades"`
	SignalCooldownSecs  int     `json:"signal_cooldown_secs"` // Min seconds between accepted signals
	MinConfidence       int     `json:"min_confidence"`       // Acceptance floor (1-5)
	CandleLimit         int     `json:"candle_limit"`         // Candles fetched per cycle
}

// StrategyConfig holds per-strategy enablement and tunable parameters.
type StrategyConfig struct {
	Name       string             `json:"name"`
	Enabled    bool               `json:"enabled"`
	Parameters map[string]float64 `json:"parameters"`
}

type DatabaseConfig struct {
	Enabled bool   `json:"enabled"`
	URL     string `json:"url"`
}

// RedisConfig holds Redis configuration for market data caching
type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int    `json:"port"`
	Host            string `json:"host"`
	AllowedOrigins  string `json:"allowed_origins"`
	ReadTimeout     int    `json:"read_timeout"`     // Seconds
	WriteTimeout    int    `json:"write_timeout"`    // Seconds
	ShutdownTimeout int    `json:"shutdown_timeout"` // Seconds
}

type NotificationConfig struct {
	Enabled  bool           `json:"enabled"`
	Telegram TelegramConfig `json:"telegram"`
	Discord  DiscordConfig  `json:"discord"`
}

type TelegramConfig struct {
	Enabled  bool   `json:"enabled"`
	BotToken string `json:"bot_token"`
	ChatID   string `json:"chat_id"`
}

type DiscordConfig struct {
	Enabled    bool   `json:"enabled"`
	WebhookURL string `json:"webhook_url"`
}

type LoggingConfig struct {
	Level      string `json:"level"`  // DEBUG, INFO, WARN, ERROR
	Output     string `json:"output"` // stdout, stderr, or file path
	JSONFormat bool   `json:"json_format"`
}

func Load(filename string) (*Config, error) {
	cfg, err := loadFromFile(filename)
	if err != nil {
		// If no config file, start with defaults
		cfg = &Config{}
	}

	applyDefaults(cfg)
	applyEnvOverrides(cfg)

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.ExchangeConfig.BaseURL == "" {
		cfg.ExchangeConfig.BaseURL = "https://api.bybit.com"
	}
	if cfg.ExchangeConfig.WSBaseURL == "" {
		cfg.ExchangeConfig.WSBaseURL = "wss://stream.bybit.com/v5/public/spot"
	}
	if cfg.TradingConfig.Pair == "" {
		cfg.TradingConfig.Pair = "BTC/USDT"
	}
	if cfg.TradingConfig.Timeframe == "" {
		cfg.TradingConfig.Timeframe = "15m"
	}
	if cfg.TradingConfig.ScanIntervalSecs <= 0 {
		cfg.TradingConfig.ScanIntervalSecs = 60
	}
	if cfg.TradingConfig.StartingBalance <= 0 {
		cfg.TradingConfig.StartingBalance = 10000
	}
	if cfg.TradingConfig.PositionSizePercent <= 0 {
		cfg.TradingConfig.PositionSizePercent = 5
	}
	if cfg.TradingConfig.MaxOpenTrades <= 0 {
		cfg.TradingConfig.MaxOpenTrades = 3
	}
	if cfg.TradingConfig.SignalCooldownSecs <= 0 {
		cfg.TradingConfig.SignalCooldownSecs = 300
	}
	if cfg.TradingConfig.MinConfidence <= 0 {
		cfg.TradingConfig.MinConfidence = 3
	}
	if cfg.TradingConfig.CandleLimit <= 0 {
		cfg.TradingConfig.CandleLimit = 250
	}
	if len(cfg.StrategiesConfig) == 0 {
		cfg.StrategiesConfig = DefaultStrategies()
	}
}

// DefaultStrategies returns the built-in strategy set with its default tuning.
func DefaultStrategies() []StrategyConfig {
	return []StrategyConfig{
		{
			Name:    "technical_analysis",
			Enabled: true,
			Parameters: map[string]float64{
				"rsi_oversold":   30,
				"rsi_overbought": 70,
				"min_score":      2.5,
			},
		},
		{
			Name:    "price_action",
			Enabled: true,
			Parameters: map[string]float64{
				"min_score":          2,
				"breakout_threshold": 0.005,
			},
		},
		{
			Name:    "trend_following",
			Enabled: true,
			Parameters: map[string]float64{
				"min_score":     2.5,
				"adx_threshold": 25,
			},
		},
		{
			Name:    "scalping",
			Enabled: true,
			Parameters: map[string]float64{
				"min_score":        2,
				"rsi_oversold":     20,
				"rsi_overbought":   80,
				"quick_tp_percent": 0.3,
				"min_volume_ratio": 1.5,
			},
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	cfg.ExchangeConfig.BaseURL = getEnvOrDefault("EXCHANGE_BASE_URL", cfg.ExchangeConfig.BaseURL)
	cfg.ExchangeConfig.WSBaseURL = getEnvOrDefault("EXCHANGE_WS_URL", cfg.ExchangeConfig.WSBaseURL)
	if v := os.Getenv("MOCK_MODE"); v != "" {
		cfg.ExchangeConfig.MockMode = v == "true"
	}

	cfg.TradingConfig.Pair = getEnvOrDefault("TRADING_PAIR", cfg.TradingConfig.Pair)
	cfg.TradingConfig.Timeframe = getEnvOrDefault("TRADING_TIMEFRAME", cfg.TradingConfig.Timeframe)
	cfg.TradingConfig.ScanIntervalSecs = getEnvIntOrDefault("TRADING_SCAN_INTERVAL", cfg.TradingConfig.ScanIntervalSecs)
	cfg.TradingConfig.StartingBalance = getEnvFloatOrDefault("TRADING_STARTING_BALANCE", cfg.TradingConfig.StartingBalance)
	cfg.TradingConfig.PositionSizePercent = getEnvFloatOrDefault("TRADING_POSITION_SIZE_PERCENT", cfg.TradingConfig.PositionSizePercent)
	cfg.TradingConfig.MaxOpenTrades = getEnvIntOrDefault("TRADING_MAX_OPEN_TRADES", cfg.TradingConfig.MaxOpenTrades)
	cfg.TradingConfig.SignalCooldownSecs = getEnvIntOrDefault("TRADING_SIGNAL_COOLDOWN", cfg.TradingConfig.SignalCooldownSecs)
	cfg.TradingConfig.MinConfidence = getEnvIntOrDefault("TRADING_MIN_CONFIDENCE", cfg.TradingConfig.MinConfidence)

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseConfig.Enabled = true
		cfg.DatabaseConfig.URL = v
	}

	if v := os.Getenv("REDIS_ENABLED"); v != "" {
		cfg.RedisConfig.Enabled = v == "true"
	}
	cfg.RedisConfig.Address = getEnvOrDefault("REDIS_ADDRESS", cfg.RedisConfig.Address)
	cfg.RedisConfig.Password = getEnvOrDefault("REDIS_PASSWORD", cfg.RedisConfig.Password)
	cfg.RedisConfig.DB = getEnvIntOrDefault("REDIS_DB", cfg.RedisConfig.DB)

	cfg.ServerConfig.Port = getEnvIntOrDefault("WEB_PORT", defaultInt(cfg.ServerConfig.Port, 8080))
	cfg.ServerConfig.Host = getEnvOrDefault("WEB_HOST", defaultString(cfg.ServerConfig.Host, "0.0.0.0"))
	cfg.ServerConfig.AllowedOrigins = getEnvOrDefault("SERVER_ALLOWED_ORIGINS", defaultString(cfg.ServerConfig.AllowedOrigins, "*"))
	cfg.ServerConfig.ReadTimeout = getEnvIntOrDefault("SERVER_READ_TIMEOUT", defaultInt(cfg.ServerConfig.ReadTimeout, 30))
	cfg.ServerConfig.WriteTimeout = getEnvIntOrDefault("SERVER_WRITE_TIMEOUT", defaultInt(cfg.ServerConfig.WriteTimeout, 30))
	cfg.ServerConfig.ShutdownTimeout = getEnvIntOrDefault("SERVER_SHUTDOWN_TIMEOUT", defaultInt(cfg.ServerConfig.ShutdownTimeout, 10))

	if v := os.Getenv("NOTIFICATIONS_ENABLED"); v != "" {
		cfg.NotificationConfig.Enabled = v == "true"
	}
	if v := os.Getenv("TELEGRAM_ENABLED"); v != "" {
		cfg.NotificationConfig.Telegram.Enabled = v == "true"
	}
	cfg.NotificationConfig.Telegram.BotToken = getEnvOrDefault("TELEGRAM_BOT_TOKEN", cfg.NotificationConfig.Telegram.BotToken)
	cfg.NotificationConfig.Telegram.ChatID = getEnvOrDefault("TELEGRAM_CHAT_ID", cfg.NotificationConfig.Telegram.ChatID)
	if v := os.Getenv("DISCORD_ENABLED"); v != "" {
		cfg.NotificationConfig.Discord.Enabled = v == "true"
	}
	cfg.NotificationConfig.Discord.WebhookURL = getEnvOrDefault("DISCORD_WEBHOOK_URL", cfg.NotificationConfig.Discord.WebhookURL)

	cfg.LoggingConfig.Level = getEnvOrDefault("LOG_LEVEL", defaultString(cfg.LoggingConfig.Level, "INFO"))
	cfg.LoggingConfig.Output = getEnvOrDefault("LOG_OUTPUT", defaultString(cfg.LoggingConfig.Output, "stdout"))
	if v := os.Getenv("LOG_JSON"); v != "" {
		cfg.LoggingConfig.JSONFormat = v == "true"
	}
}

func loadFromFile(filename string) (*Config, error) {
	file, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return &config, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func defaultInt(v, fallback int) int {
	if v == 0 {
		return fallback
	}
	return v
}

// GenerateSampleConfig creates a sample configuration file
func GenerateSampleConfig(filename string) error {
	config := Config{
		ExchangeConfig: ExchangeConfig{
			BaseURL:   "https://api.bybit.com",
			WSBaseURL: "wss://stream.bybit.com/v5/public/spot",
			MockMode:  true,
		},
		TradingConfig: TradingConfig{
			Pair:                "BTC/USDT",
			Timeframe:           "15m",
			ScanIntervalSecs:    60,
			StartingBalance:     10000,
			PositionSizePercent: 5,
			MaxOpenTrades:       3,
			SignalCooldownSecs:  300,
			MinConfidence:       3,
			CandleLimit:         250,
		},
		StrategiesConfig: DefaultStrategies(),
		DatabaseConfig: DatabaseConfig{
			Enabled: false,
			URL:     "postgres://localhost:5432/mentor_bot",
		},
		RedisConfig: RedisConfig{
			Enabled:  false,
			Address:  "localhost:6379",
			PoolSize: 10,
		},
		ServerConfig: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			AllowedOrigins:  "*",
			ReadTimeout:     30,
			WriteTimeout:    30,
			ShutdownTimeout: 10,
		},
		NotificationConfig: NotificationConfig{
			Enabled: false,
		},
		LoggingConfig: LoggingConfig{
			Level:      "INFO",
			Output:     "stdout",
			JSONFormat: true,
		},
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filename, data, 0644)
}
