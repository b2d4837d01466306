package bot

import (
	"context"
	"sync"
	"time"

	"crypto-mentor-bot/config"
	"crypto-mentor-bot/internal/events"
	"crypto-mentor-bot/internal/logging"
	"crypto-mentor-bot/internal/market"
	"crypto-mentor-bot/internal/strategy"
	"crypto-mentor-bot/internal/trader"
)

// TradingBot drives the scan cycle: fetch market data, check open trades,
// run the strategies, execute accepted signals. One bot watches one pair.
type TradingBot struct {
	cfg          *config.Config
	engine       *market.Engine
	orchestrator *strategy.Orchestrator
	trader       *trader.PaperTrader
	stream       *market.Stream // nil in mock mode
	bus          *events.EventBus
	log          *logging.Logger

	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	cycles   int64
	lastScan time.Time
}

// New creates the trading bot. stream may be nil when no live websocket
// feed is available (mock mode).
func New(cfg *config.Config, engine *market.Engine, orch *strategy.Orchestrator, paperTrader *trader.PaperTrader, stream *market.Stream, bus *events.EventBus, log *logging.Logger) *TradingBot {
	return &TradingBot{
		cfg:          cfg,
		engine:       engine,
		orchestrator: orch,
		trader:       paperTrader,
		stream:       stream,
		bus:          bus,
		log:          log.WithComponent("bot"),
	}
}

// Start launches the scan loop and the live price stream. It returns
// immediately; Stop shuts both down.
func (b *TradingBot) Start() {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.running = true
	b.mu.Unlock()

	b.log.Info("bot started",
		"pair", b.cfg.TradingConfig.Pair,
		"timeframe", b.cfg.TradingConfig.Timeframe,
		"scan_interval_secs", b.cfg.TradingConfig.ScanIntervalSecs)
	b.bus.Publish(events.Event{Type: events.EventBotStarted, Data: map[string]interface{}{
		"pair":      b.cfg.TradingConfig.Pair,
		"timeframe": b.cfg.TradingConfig.Timeframe,
	}})

	if b.stream != nil {
		b.stream.AddListener(func(pair string, price float64) {
			b.trader.CheckOpenTrades(ctx, pair, price)
			b.bus.PublishTickUpdate(pair, price, len(b.trader.OpenTrades()), b.trader.Portfolio().Balance)
		})
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.stream.Run(ctx)
		}()
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.run(ctx)
	}()
}

// Stop shuts the bot down and waits for the loops to exit.
func (b *TradingBot) Stop() {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return
	}
	b.running = false
	cancel := b.cancel
	b.mu.Unlock()

	cancel()
	b.wg.Wait()
	b.bus.Publish(events.Event{Type: events.EventBotStopped, Data: map[string]interface{}{}})
	b.log.Info("bot stopped")
}

// IsRunning reports whether the scan loop is active.
func (b *TradingBot) IsRunning() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

// Status returns loop counters for the API.
func (b *TradingBot) Status() map[string]interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	return map[string]interface{}{
		"running":   b.running,
		"cycles":    b.cycles,
		"last_scan": b.lastScan,
		"pair":      b.cfg.TradingConfig.Pair,
		"timeframe": b.cfg.TradingConfig.Timeframe,
	}
}

func (b *TradingBot) run(ctx context.Context) {
	interval := time.Duration(b.cfg.TradingConfig.ScanIntervalSecs) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// First scan right away instead of waiting a full interval.
	b.scan(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.scan(ctx)
		}
	}
}

// scan runs one full analysis cycle.
func (b *TradingBot) scan(ctx context.Context) {
	b.mu.Lock()
	b.cycles++
	cycle := b.cycles
	b.lastScan = time.Now()
	b.mu.Unlock()

	// Every log line a cycle produces shares one trace id.
	log := b.log.WithTraceID(logging.GenerateTraceID())
	ctx = logging.NewContext(ctx, log)

	pair := b.cfg.TradingConfig.Pair
	timeframe := b.cfg.TradingConfig.Timeframe

	candles, snap, err := b.engine.GetSnapshot(ctx, pair, timeframe, b.cfg.TradingConfig.CandleLimit)
	if err != nil {
		log.Error("scan failed to fetch market data", "cycle", cycle, "error", err)
		b.bus.PublishError("bot", "market data fetch failed", err)
		return
	}

	b.bus.PublishPriceUpdate(pair, snap.Price)

	// Settle any position the latest price has already resolved.
	b.trader.CheckOpenTrades(ctx, pair, snap.Price)

	sig, err := b.orchestrator.AnalyzeAll(candles, snap, pair, timeframe)
	if err != nil {
		log.Error("analysis cycle aborted", "cycle", cycle, "error", err)
		b.bus.PublishError("bot", "analysis failed", err)
		return
	}
	if sig == nil {
		log.Debug("no signal", "cycle", cycle, "pair", pair, "price", snap.Price)
		return
	}

	b.trader.ExecuteTrade(ctx, sig)
}
