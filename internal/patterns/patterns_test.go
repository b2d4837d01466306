package patterns

import (
	"testing"

	"crypto-mentor-bot/internal/market"
)

func TestDetectBullishEngulfing(t *testing.T) {
	prev := market.Candle{Open: 100, Close: 95, High: 100.5, Low: 94.5}
	last := market.Candle{Open: 94, Close: 101, High: 101.5, Low: 93.5}

	p := Detect(prev, last)
	if p == nil {
		t.Fatal("expected a pattern, got nil")
	}
	if p.Type != BullishEngulfing {
		t.Errorf("expected bullish engulfing, got %s", p.Type)
	}
	if p.Direction != "BUY" {
		t.Errorf("expected BUY direction, got %s", p.Direction)
	}
	if p.Weight != 1.5 {
		t.Errorf("expected weight 1.5, got %v", p.Weight)
	}
}

func TestDetectBearishEngulfing(t *testing.T) {
	prev := market.Candle{Open: 95, Close: 100, High: 100.5, Low: 94.5}
	last := market.Candle{Open: 101, Close: 94, High: 101.5, Low: 93.5}

	p := Detect(prev, last)
	if p == nil {
		t.Fatal("expected a pattern, got nil")
	}
	if p.Type != BearishEngulfing {
		t.Errorf("expected bearish engulfing, got %s", p.Type)
	}
	if p.Direction != "SELL" {
		t.Errorf("expected SELL direction, got %s", p.Direction)
	}
}

func TestDetectHammer(t *testing.T) {
	prev := market.Candle{Open: 100, Close: 100.2, High: 100.3, Low: 99.9}
	last := market.Candle{Open: 100, Close: 100.5, High: 100.6, Low: 98}

	p := Detect(prev, last)
	if p == nil {
		t.Fatal("expected a pattern, got nil")
	}
	if p.Type != Hammer {
		t.Errorf("expected hammer, got %s", p.Type)
	}
	if p.Direction != "BUY" {
		t.Errorf("expected BUY direction, got %s", p.Direction)
	}
	if p.Weight != 1 {
		t.Errorf("expected weight 1, got %v", p.Weight)
	}
}

func TestDetectShootingStar(t *testing.T) {
	prev := market.Candle{Open: 100, Close: 100.2, High: 100.3, Low: 99.9}
	last := market.Candle{Open: 100.5, Close: 100, High: 103, Low: 99.9}

	p := Detect(prev, last)
	if p == nil {
		t.Fatal("expected a pattern, got nil")
	}
	if p.Type != ShootingStar {
		t.Errorf("expected shooting star, got %s", p.Type)
	}
	if p.Direction != "SELL" {
		t.Errorf("expected SELL direction, got %s", p.Direction)
	}
}

func TestDetectDoji(t *testing.T) {
	prev := market.Candle{Open: 100, Close: 101, High: 101.2, Low: 99.8}
	last := market.Candle{Open: 100, Close: 100.05, High: 101, Low: 99}

	p := Detect(prev, last)
	if p == nil {
		t.Fatal("expected a pattern, got nil")
	}
	if p.Type != Doji {
		t.Errorf("expected doji, got %s", p.Type)
	}
	if p.Direction != "BUY" {
		t.Errorf("expected BUY bias for a doji closing above open, got %s", p.Direction)
	}
	if p.Weight != 0.5 {
		t.Errorf("expected weight 0.5, got %v", p.Weight)
	}
}

func TestDetectNoPattern(t *testing.T) {
	prev := market.Candle{Open: 101, Close: 100, High: 101.2, Low: 99.8}
	last := market.Candle{Open: 100, Close: 102, High: 102.5, Low: 99.5}

	if p := Detect(prev, last); p != nil {
		t.Errorf("expected no pattern, got %s", p.Type)
	}
}

func TestEngulfingHasPriorityOverDoji(t *testing.T) {
	// The last candle engulfs the previous body; even if it also had doji
	// geometry, engulfing wins because it is checked first.
	prev := market.Candle{Open: 100, Close: 99.5, High: 100.2, Low: 99.3}
	last := market.Candle{Open: 99.4, Close: 100.1, High: 100.3, Low: 99.2}

	p := Detect(prev, last)
	if p == nil {
		t.Fatal("expected a pattern, got nil")
	}
	if p.Type != BullishEngulfing {
		t.Errorf("expected bullish engulfing to take priority, got %s", p.Type)
	}
}
