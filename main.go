package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"crypto-mentor-bot/config"
	"crypto-mentor-bot/internal/api"
	"crypto-mentor-bot/internal/bot"
	"crypto-mentor-bot/internal/cache"
	"crypto-mentor-bot/internal/database"
	"crypto-mentor-bot/internal/events"
	"crypto-mentor-bot/internal/logging"
	"crypto-mentor-bot/internal/market"
	"crypto-mentor-bot/internal/notification"
	"crypto-mentor-bot/internal/strategy"
	"crypto-mentor-bot/internal/trader"
)

func main() {
	configPath := flag.String("config", "config.json", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := logging.New(&logging.Config{
		Level:      cfg.LoggingConfig.Level,
		Output:     cfg.LoggingConfig.Output,
		JSONFormat: cfg.LoggingConfig.JSONFormat,
	})
	logger.Info("starting crypto mentor bot",
		"pair", cfg.TradingConfig.Pair,
		"timeframe", cfg.TradingConfig.Timeframe,
		"mock_mode", cfg.ExchangeConfig.MockMode)

	eventBus := events.NewEventBus()

	// Redis cache is optional; the engine works without it.
	var cacheSvc *cache.CacheService
	if cfg.RedisConfig.Enabled {
		zlog := zerolog.New(os.Stdout).With().Timestamp().Logger()
		cacheSvc, err = cache.NewCacheService(cfg.RedisConfig, zlog)
		if err != nil {
			logger.Warn("cache unavailable, continuing without it", "error", err)
			cacheSvc = nil
		}
	}

	var source market.DataSource
	if cfg.ExchangeConfig.MockMode {
		logger.Info("mock mode enabled, using simulated market data")
		source = market.NewMockFeed()
	} else {
		source = market.NewBybitClient(cfg.ExchangeConfig.BaseURL)
	}
	engine := market.NewEngine(source, cacheSvc, logger)

	// Database is optional; without it all state lives in memory.
	var repo *database.Repository
	var db *database.DB
	if cfg.DatabaseConfig.Enabled {
		db, err = database.NewDB(cfg.DatabaseConfig.URL, logger)
		if err != nil {
			logger.Error("database connection failed, continuing without persistence", "error", err)
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := db.RunMigrations(ctx); err != nil {
				cancel()
				logger.Fatal("database migrations failed", "error", err)
			}
			cancel()
			repo = database.NewRepository(db)
		}
	}

	// Persisted strategy configs override file defaults.
	if repo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		stored, err := repo.LoadStrategyConfigs(ctx)
		cancel()
		if err != nil {
			logger.Warn("failed to load strategy configs", "error", err)
		} else if len(stored) > 0 {
			cfg.StrategiesConfig = stored
			logger.Info("loaded strategy configs from database", "count", len(stored))
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := repo.SaveStrategyConfigs(ctx, cfg.StrategiesConfig); err != nil {
				logger.Warn("failed to seed strategy configs", "error", err)
			}
			cancel()
		}
	}

	var recorder trader.Recorder
	if repo != nil {
		recorder = repo
	}
	paperTrader := trader.New(
		cfg.TradingConfig.StartingBalance,
		cfg.TradingConfig.PositionSizePercent,
		cfg.TradingConfig.MaxOpenTrades,
		eventBus, recorder, logger,
	)

	// Resume the previous session if the database holds one.
	if repo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		restoreState(ctx, repo, paperTrader, logger)
		cancel()
	}

	orchestrator := strategy.NewOrchestrator(cfg, eventBus, logger)

	if cfg.NotificationConfig.Enabled {
		notifyManager := notification.NewManager(cfg.NotificationConfig, logger)
		notifyManager.SubscribeToBus(eventBus)
		logger.Info("notifications enabled")
	}

	var stream *market.Stream
	if !cfg.ExchangeConfig.MockMode {
		stream = market.NewStream(cfg.ExchangeConfig.WSBaseURL, cfg.TradingConfig.Pair, logger)
	}

	tradingBot := bot.New(cfg, engine, orchestrator, paperTrader, stream, eventBus, logger)
	tradingBot.Start()

	server := api.NewServer(cfg, engine, orchestrator, paperTrader, tradingBot, repo, eventBus, logger)
	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("API server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown signal received")

	tradingBot.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ServerConfig.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if db != nil {
		db.Close()
	}
	if cacheSvc != nil {
		cacheSvc.Close()
	}
	logger.Info("goodbye")
}

// restoreState rehydrates the paper trader from a previous session.
func restoreState(ctx context.Context, repo *database.Repository, paperTrader *trader.PaperTrader, logger *logging.Logger) {
	portfolio, found, err := repo.LoadPortfolio(ctx)
	if err != nil {
		logger.Warn("failed to load portfolio", "error", err)
		return
	}
	if !found {
		return
	}

	open, err := repo.GetOpenTrades(ctx)
	if err != nil {
		logger.Warn("failed to load open trades", "error", err)
		open = nil
	}
	lastID, err := repo.MaxTradeID(ctx)
	if err != nil {
		logger.Warn("failed to load last trade id", "error", err)
	}

	paperTrader.Restore(portfolio, open, lastID)
	logger.Info("restored previous session",
		"balance", portfolio.Balance,
		"total_trades", portfolio.TotalTrades,
		"open_trades", len(open))
}
