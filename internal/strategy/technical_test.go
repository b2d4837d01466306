package strategy

import (
	"testing"
)

func TestTechnicalOversoldBounceSignal(t *testing.T) {
	s := NewTechnicalStrategy()
	candles := flatCandles(60, 100)

	snap := neutralSnapshot(100)
	snap.RSI = 25
	snap.MACDHistogram = 0.5
	snap.PrevMACDHistogram = -0.1
	snap.EMA9 = 101
	snap.EMA21 = 100
	snap.PrevEMA9 = 101
	snap.PrevEMA21 = 100
	snap.Support = 95
	snap.Resistance = 105

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
	// RSI +1, fresh MACD cross +1, sustained EMA alignment +0.5 = 2.5,
	// truncated to 2.
	if sig.Confidence != 2 {
		t.Errorf("expected confidence 2, got %d", sig.Confidence)
	}
	if sig.StopLoss != 94 {
		t.Errorf("expected stop at support minus half ATR (94), got %v", sig.StopLoss)
	}
	if sig.TakeProfit != 105 {
		t.Errorf("expected target at resistance (105), got %v", sig.TakeProfit)
	}
	if len(sig.Reasons) < 2 {
		t.Errorf("expected at least 2 reasons, got %d", len(sig.Reasons))
	}
	if len(sig.LearningPoints) == 0 {
		t.Error("expected learning points on an emitted signal")
	}
}

func TestTechnicalOverboughtSellSignal(t *testing.T) {
	s := NewTechnicalStrategy()
	candles := flatCandles(60, 100)

	snap := neutralSnapshot(100)
	snap.RSI = 75
	snap.MACDHistogram = -0.5
	snap.PrevMACDHistogram = 0.1
	snap.EMA9 = 99
	snap.EMA21 = 100
	snap.PrevEMA9 = 100.5
	snap.PrevEMA21 = 100
	snap.Support = 95
	snap.Resistance = 105

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
	// RSI +1, fresh bearish MACD cross +1, fresh death cross +1 = 3.
	if sig.Confidence != 3 {
		t.Errorf("expected confidence 3, got %d", sig.Confidence)
	}
	if sig.StopLoss != 106 {
		t.Errorf("expected stop at resistance plus half ATR (106), got %v", sig.StopLoss)
	}
	if sig.TakeProfit != 95 {
		t.Errorf("expected target at support (95), got %v", sig.TakeProfit)
	}
}

func TestTechnicalNeutralMarketNoSignal(t *testing.T) {
	s := NewTechnicalStrategy()
	candles := flatCandles(60, 100)

	sig, err := s.Analyze(candles, neutralSnapshot(100), "BTC/USDT", "15m")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig != nil {
		t.Errorf("expected no signal in a neutral market, got %s with confidence %d", sig.Action, sig.Confidence)
	}
}

func TestTechnicalInsufficientHistory(t *testing.T) {
	s := NewTechnicalStrategy()
	candles := flatCandles(40, 100)

	snap := neutralSnapshot(100)
	snap.RSI = 10

	sig, err := s.Analyze(candles, snap, "BTC/USDT", "15m")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig != nil {
		t.Error("expected no signal with fewer than 50 candles")
	}
}

func TestTechnicalConfigureOverridesThresholds(t *testing.T) {
	s := NewTechnicalStrategy()
	s.Configure(map[string]float64{"min_score": 10})

	candles := flatCandles(60, 100)
	snap := neutralSnapshot(100)
	snap.RSI = 10
	snap.MACDHistogram = 0.5
	snap.PrevMACDHistogram = -0.1
	snap.EMA9 = 101
	snap.PrevEMA9 = 101
	snap.EMA21 = 100
	snap.PrevEMA21 = 99

	sig, err := s.Analyze(candles, snap, "BTC/USDT", "15m")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig != nil {
		t.Error("expected raised min_score to suppress the signal")
	}
}
