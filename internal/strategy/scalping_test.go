package strategy

import (
	"testing"

	"crypto-mentor-bot/internal/market"
)

// sellOffCandles builds n candles with steadily falling closes so the fast
// RSI pins to the floor.
func sellOffCandles(n int) []market.Candle {
	candles := make([]market.Candle, n)
	for i := range candles {
		close := 100 - 0.5*float64(i)
		candles[i] = market.Candle{
			OpenTime: int64(i) * 60_000,
			Open:     close + 0.5,
			High:     close + 0.7,
			Low:      close - 0.2,
			Close:    close,
			Volume:   100,
		}
	}
	return candles
}

func TestScalpingFastRSIOversoldBuy(t *testing.T) {
	s := NewScalpingStrategy()
	candles := sellOffCandles(30)
	price := candles[29].Close // 85.5

	snap := neutralSnapshot(price)
	snap.BBLower = price * 0.9
	snap.BBUpper = price * 1.1
	snap.Volume = 200
	snap.AvgVolume = 100

	sig, err := s.Analyze(candles, snap, "BTC/USDT", "15m")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig == nil {
		t.Fatal("expected a signal, got nil")
	}
	if sig.Action != ActionBuy {
		t.Errorf("expected BUY, got %s", sig.Action)
	}
	// Fast RSI extreme +1.5, volume burst +1, micro support +0.5 = 3.
	if sig.Confidence != 3 {
		t.Errorf("expected confidence 3, got %d", sig.Confidence)
	}
	// Quick percentage targets: +0.3% up, -0.21% down.
	if sig.TakeProfit != 85.76 {
		t.Errorf("expected take profit 85.76, got %v", sig.TakeProfit)
	}
	if sig.StopLoss != 85.32 {
		t.Errorf("expected stop loss 85.32, got %v", sig.StopLoss)
	}
	// RSI extreme, volume surge, and micro support each teach something.
	if len(sig.LearningPoints) != 3 {
		t.Errorf("expected 3 learning points, got %d: %v", len(sig.LearningPoints), sig.LearningPoints)
	}
}

func TestScalpingFastRSIOverboughtSell(t *testing.T) {
	s := NewScalpingStrategy()

	candles := make([]market.Candle, 30)
	for i := range candles {
		close := 100 + 0.5*float64(i)
		candles[i] = market.Candle{
			OpenTime: int64(i) * 60_000,
			Open:     close - 0.5,
			High:     close + 0.2,
			Low:      close - 0.7,
			Close:    close,
			Volume:   100,
		}
	}
	price := candles[29].Close // 114.5

	snap := neutralSnapshot(price)
	snap.BBUpper = price // touching the upper band
	snap.BBLower = price * 0.9

	sig, err := s.Analyze(candles, snap, "BTC/USDT", "15m")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig == nil {
		t.Fatal("expected a signal, got nil")
	}
	if sig.Action != ActionSell {
		t.Errorf("expected SELL, got %s", sig.Action)
	}
	if sig.Confidence < 2 {
		t.Errorf("expected confidence of at least 2, got %d", sig.Confidence)
	}
	if sig.TakeProfit >= price {
		t.Errorf("SELL take profit must be below entry, got %v at price %v", sig.TakeProfit, price)
	}
	if sig.StopLoss <= price {
		t.Errorf("SELL stop loss must be above entry, got %v at price %v", sig.StopLoss, price)
	}
	// Three reasons fire (RSI extreme, upper band touch, micro resistance)
	// but only the first two carry a learning point.
	if len(sig.Reasons) != 3 {
		t.Errorf("expected 3 reasons, got %d: %v", len(sig.Reasons), sig.Reasons)
	}
	if len(sig.LearningPoints) != 2 {
		t.Errorf("expected 2 learning points, got %d: %v", len(sig.LearningPoints), sig.LearningPoints)
	}
}

func TestScalpingNeutralMarketNoSignal(t *testing.T) {
	s := NewScalpingStrategy()
	candles := flatCandles(30, 100)

	sig, err := s.Analyze(candles, neutralSnapshot(100.5), "BTC/USDT", "15m")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig != nil {
		t.Errorf("expected no signal in a balanced market, got %s", sig.Action)
	}
}

func TestScalpingInsufficientHistory(t *testing.T) {
	s := NewScalpingStrategy()

	sig, err := s.Analyze(sellOffCandles(20), neutralSnapshot(90), "BTC/USDT", "15m")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig != nil {
		t.Error("expected no signal with fewer than 30 candles")
	}
}
