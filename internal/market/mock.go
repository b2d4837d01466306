package market

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// MockFeed provides simulated market data for development and offline mode.
// Prices follow a random walk seeded from realistic base levels.
type MockFeed struct {
	mu         sync.RWMutex
	prices     map[string]float64
	lastUpdate time.Time
	rng        *rand.Rand
}

// NewMockFeed creates a new mock data feed
func NewMockFeed() *MockFeed {
	return &MockFeed{
		prices: map[string]float64{
			"BTCUSDT": 64500.00,
			"ETHUSDT": 3400.00,
			"SOLUSDT": 145.00,
			"XRPUSDT": 0.52,
			"ADAUSDT": 0.45,
		},
		lastUpdate: time.Now(),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// updatePrices adds small random variations to simulate market movement
func (m *MockFeed) updatePrices() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if time.Since(m.lastUpdate) < time.Second {
		return
	}

	for symbol, price := range m.prices {
		// Random walk: -0.5% to +0.5% change
		change := (m.rng.Float64() - 0.5) * 0.01
		m.prices[symbol] = price * (1 + change)
	}
	m.lastUpdate = time.Now()
}

func (m *MockFeed) basePrice(pair string) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.prices[Symbol(pair)]; ok {
		return p
	}
	return 100.0
}

// GetKlines returns simulated candlestick data, oldest first.
func (m *MockFeed) GetKlines(pair, timeframe string, limit int) ([]Candle, error) {
	m.updatePrices()

	base := m.basePrice(pair)
	intervalMs := timeframeMillis(timeframe)
	now := time.Now().UnixMilli()

	m.mu.Lock()
	defer m.mu.Unlock()

	candles := make([]Candle, limit)
	// Walk backwards from the current price so the last candle matches it.
	price := base
	for i := limit - 1; i >= 0; i-- {
		openTime := now - int64(limit-i)*intervalMs

		volatility := 0.01
		close := price
		change := (m.rng.Float64() - 0.5) * volatility
		open := close / (1 + change)

		high := math.Max(open, close) * (1 + m.rng.Float64()*volatility*0.5)
		low := math.Min(open, close) * (1 - m.rng.Float64()*volatility*0.5)
		volume := 500 + m.rng.Float64()*2000

		candles[i] = Candle{
			OpenTime:  openTime,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     close,
			Volume:    volume,
			CloseTime: openTime + intervalMs - 1,
		}
		price = open
	}

	return candles, nil
}

// GetPrice returns the simulated current price for a pair.
func (m *MockFeed) GetPrice(pair string) (float64, error) {
	m.updatePrices()
	return m.basePrice(pair), nil
}
