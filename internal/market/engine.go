package market

import (
	"context"

	"crypto-mentor-bot/internal/cache"
	"crypto-mentor-bot/internal/logging"
)

// DataSource provides raw market data. Implemented by BybitClient for live
// data and MockFeed for offline mode.
type DataSource interface {
	GetKlines(pair, timeframe string, limit int) ([]Candle, error)
	GetPrice(pair string) (float64, error)
}

// Engine is the market data facade used by the rest of the bot. It fetches
// candles from the configured source, computes indicator snapshots, and
// writes the results through to Redis when a cache is available.
type Engine struct {
	source DataSource
	cache  *cache.CacheService // nil when Redis is disabled
	log    *logging.Logger
}

// NewEngine creates a market data engine. cacheSvc may be nil.
func NewEngine(source DataSource, cacheSvc *cache.CacheService, log *logging.Logger) *Engine {
	return &Engine{
		source: source,
		cache:  cacheSvc,
		log:    log.WithComponent("market"),
	}
}

// GetCandles fetches the candle series for a pair, oldest first.
func (e *Engine) GetCandles(ctx context.Context, pair, timeframe string, limit int) ([]Candle, error) {
	candles, err := e.source.GetKlines(pair, timeframe, limit)
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		key := cache.CandlesKey(Symbol(pair), timeframe)
		if cerr := e.cache.SetJSON(ctx, key, candles, cache.DefaultCandlesTTL); cerr != nil {
			e.log.Debug("candle cache write skipped", "error", cerr)
		}
	}

	return candles, nil
}

// GetSnapshot fetches candles and computes the indicator snapshot from them.
// Both are returned so a caller runs its strategies against exactly the
// series the snapshot was derived from.
func (e *Engine) GetSnapshot(ctx context.Context, pair, timeframe string, limit int) ([]Candle, *Snapshot, error) {
	candles, err := e.GetCandles(ctx, pair, timeframe, limit)
	if err != nil {
		return nil, nil, err
	}

	snap, err := BuildSnapshot(candles)
	if err != nil {
		return nil, nil, err
	}

	if e.cache != nil {
		key := cache.SnapshotKey(Symbol(pair), timeframe)
		if cerr := e.cache.SetJSON(ctx, key, snap, cache.DefaultSnapshotTTL); cerr != nil {
			e.log.Debug("snapshot cache write skipped", "error", cerr)
		}
	}

	return candles, snap, nil
}

// CachedSnapshot returns the last cached snapshot, if Redis holds one.
func (e *Engine) CachedSnapshot(ctx context.Context, pair, timeframe string) (*Snapshot, bool) {
	if e.cache == nil {
		return nil, false
	}
	var snap Snapshot
	if err := e.cache.GetJSON(ctx, cache.SnapshotKey(Symbol(pair), timeframe), &snap); err != nil {
		return nil, false
	}
	return &snap, true
}

// GetPrice returns the current price for a pair.
func (e *Engine) GetPrice(ctx context.Context, pair string) (float64, error) {
	price, err := e.source.GetPrice(pair)
	if err != nil {
		return 0, err
	}

	if e.cache != nil {
		if cerr := e.cache.Set(ctx, cache.PriceKey(Symbol(pair)), price, cache.DefaultPriceTTL); cerr != nil {
			e.log.Debug("price cache write skipped", "error", cerr)
		}
	}

	return price, nil
}
