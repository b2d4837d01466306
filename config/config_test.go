package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("does-not-exist.json")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.TradingConfig.Pair != "BTC/USDT" {
		t.Errorf("Pair = %q, want BTC/USDT", cfg.TradingConfig.Pair)
	}
	if cfg.TradingConfig.StartingBalance != 10000 {
		t.Errorf("StartingBalance = %v, want 10000", cfg.TradingConfig.StartingBalance)
	}
	if cfg.TradingConfig.MaxOpenTrades != 3 {
		t.Errorf("MaxOpenTrades = %v, want 3", cfg.TradingConfig.MaxOpenTrades)
	}
	if cfg.TradingConfig.MinConfidence != 3 {
		t.Errorf("MinConfidence = %v, want 3", cfg.TradingConfig.MinConfidence)
	}
	if cfg.ServerConfig.Port != 8080 {
		t.Errorf("Port = %v, want 8080", cfg.ServerConfig.Port)
	}
	if len(cfg.StrategiesConfig) != 4 {
		t.Fatalf("expected 4 default strategies, got %d", len(cfg.StrategiesConfig))
	}

	names := []string{"technical_analysis", "price_action", "trend_following", "scalping"}
	for i, want := range names {
		if cfg.StrategiesConfig[i].Name != want {
			t.Errorf("strategy %d = %q, want %q", i, cfg.StrategiesConfig[i].Name, want)
		}
		if !cfg.StrategiesConfig[i].Enabled {
			t.Errorf("strategy %q should be enabled by default", want)
		}
	}
}

func TestLoadReadsFileValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{
		"trading": {"pair": "ETH/USDT", "starting_balance": 500},
		"server": {"port": 9999}
	}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TradingConfig.Pair != "ETH/USDT" {
		t.Errorf("Pair = %q, want ETH/USDT", cfg.TradingConfig.Pair)
	}
	if cfg.TradingConfig.StartingBalance != 500 {
		t.Errorf("StartingBalance = %v, want 500", cfg.TradingConfig.StartingBalance)
	}
	if cfg.ServerConfig.Port != 9999 {
		t.Errorf("Port = %v, want 9999", cfg.ServerConfig.Port)
	}
	// Unset fields still get defaults.
	if cfg.TradingConfig.Timeframe != "15m" {
		t.Errorf("Timeframe = %q, want default 15m", cfg.TradingConfig.Timeframe)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TRADING_PAIR", "SOL/USDT")
	t.Setenv("TRADING_MIN_CONFIDENCE", "4")
	t.Setenv("MOCK_MODE", "true")
	t.Setenv("DATABASE_URL", "postgres://localhost/mentor")

	cfg, err := Load("does-not-exist.json")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TradingConfig.Pair != "SOL/USDT" {
		t.Errorf("Pair = %q, want SOL/USDT", cfg.TradingConfig.Pair)
	}
	if cfg.TradingConfig.MinConfidence != 4 {
		t.Errorf("MinConfidence = %v, want 4", cfg.TradingConfig.MinConfidence)
	}
	if !cfg.ExchangeConfig.MockMode {
		t.Error("MockMode should be enabled via env")
	}
	if !cfg.DatabaseConfig.Enabled || cfg.DatabaseConfig.URL != "postgres://localhost/mentor" {
		t.Errorf("DATABASE_URL should enable the database: %+v", cfg.DatabaseConfig)
	}
}
