package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"crypto-mentor-bot/config"
	"crypto-mentor-bot/internal/events"
	"crypto-mentor-bot/internal/explainer"
	"crypto-mentor-bot/internal/logging"
	"crypto-mentor-bot/internal/market"
	"crypto-mentor-bot/internal/strategy"
)

// One-shot analysis: fetch the market, run the strategies once, print what
// the mentor would say. Useful for eyeballing a pair without running the bot.
func main() {
	configPath := flag.String("config", "config.json", "path to config file")
	pair := flag.String("pair", "", "trading pair (defaults to configured pair)")
	timeframe := flag.String("timeframe", "", "candle timeframe (defaults to configured timeframe)")
	mock := flag.Bool("mock", false, "use simulated market data")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if *pair != "" {
		cfg.TradingConfig.Pair = *pair
	}
	if *timeframe != "" {
		cfg.TradingConfig.Timeframe = *timeframe
	}
	if *mock {
		cfg.ExchangeConfig.MockMode = true
	}

	logger := logging.NewWriter(os.Stderr, logging.WARN, false)

	var source market.DataSource
	if cfg.ExchangeConfig.MockMode {
		source = market.NewMockFeed()
	} else {
		source = market.NewBybitClient(cfg.ExchangeConfig.BaseURL)
	}
	engine := market.NewEngine(source, nil, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	candles, snap, err := engine.GetSnapshot(ctx, cfg.TradingConfig.Pair, cfg.TradingConfig.Timeframe, cfg.TradingConfig.CandleLimit)
	if err != nil {
		log.Fatalf("failed to fetch market data: %v", err)
	}

	fmt.Printf("%s %s  price %.2f  RSI %.1f  ADX %.1f\n\n",
		cfg.TradingConfig.Pair, cfg.TradingConfig.Timeframe, snap.Price, snap.RSI, snap.ADX)

	// Cooldown off so a single run always evaluates.
	cfg.TradingConfig.SignalCooldownSecs = 0
	orch := strategy.NewOrchestrator(cfg, events.NewEventBus(), logger)

	sig, err := orch.AnalyzeAll(candles, snap, cfg.TradingConfig.Pair, cfg.TradingConfig.Timeframe)
	if err != nil {
		log.Fatalf("analysis failed: %v", err)
	}
	if sig == nil {
		fmt.Println("No signal. The strategies see nothing worth trading right now.")
		return
	}

	entry := explainer.GenerateEntryExplanation(sig)
	fmt.Println(entry.FullText)
}
