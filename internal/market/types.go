package market

import (
	"fmt"
	"math"
	"time"
)

// Candle represents a single OHLCV candle. Series are ordered oldest first.
type Candle struct {
	OpenTime  int64   `json:"open_time"` // Unix milliseconds
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
	CloseTime int64   `json:"close_time"`
}

// Time returns the candle open time.
func (c Candle) Time() time.Time {
	return time.Unix(c.OpenTime/1000, 0)
}

// IsBullish reports whether the candle closed above its open.
func (c Candle) IsBullish() bool {
	return c.Close > c.Open
}

// Body returns the absolute candle body size.
func (c Candle) Body() float64 {
	return math.Abs(c.Close - c.Open)
}

// Range returns the high-low range.
func (c Candle) Range() float64 {
	return c.High - c.Low
}

// UpperWick returns the size of the upper shadow.
func (c Candle) UpperWick() float64 {
	return c.High - math.Max(c.Open, c.Close)
}

// LowerWick returns the size of the lower shadow.
func (c Candle) LowerWick() float64 {
	return math.Min(c.Open, c.Close) - c.Low
}

// Snapshot is the indicator state computed from a candle series at a point
// in time. All strategies read from the same snapshot within a cycle.
type Snapshot struct {
	Price             float64 `json:"price"`
	RSI               float64 `json:"rsi"`
	MACD              float64 `json:"macd"`
	MACDSignal        float64 `json:"macd_signal"`
	MACDHistogram     float64 `json:"macd_histogram"`
	PrevMACDHistogram float64 `json:"prev_macd_histogram"`
	EMA9              float64 `json:"ema_9"`
	EMA21             float64 `json:"ema_21"`
	EMA50             float64 `json:"ema_50"`
	EMA200            float64 `json:"ema_200"`
	PrevEMA9          float64 `json:"prev_ema_9"`
	PrevEMA21         float64 `json:"prev_ema_21"`
	BBUpper           float64 `json:"bb_upper"`
	BBMiddle          float64 `json:"bb_middle"`
	BBLower           float64 `json:"bb_lower"`
	Volume            float64 `json:"volume"`
	AvgVolume         float64 `json:"avg_volume"`
	ATR               float64 `json:"atr"`
	ADX               float64 `json:"adx"`
	Support           float64 `json:"support"`
	Resistance        float64 `json:"resistance"`
}

// Validate checks the snapshot for contract violations. A snapshot that
// fails validation must not reach the strategies; the producing layer is
// broken, not the market.
func (s *Snapshot) Validate() error {
	if s == nil {
		return fmt.Errorf("snapshot is nil")
	}
	if s.Price <= 0 {
		return fmt.Errorf("snapshot price must be positive, got %v", s.Price)
	}
	fields := map[string]float64{
		"price":               s.Price,
		"rsi":                 s.RSI,
		"macd":                s.MACD,
		"macd_signal":         s.MACDSignal,
		"macd_histogram":      s.MACDHistogram,
		"prev_macd_histogram": s.PrevMACDHistogram,
		"ema_9":               s.EMA9,
		"ema_21":              s.EMA21,
		"ema_50":              s.EMA50,
		"ema_200":             s.EMA200,
		"prev_ema_9":          s.PrevEMA9,
		"prev_ema_21":         s.PrevEMA21,
		"bb_upper":            s.BBUpper,
		"bb_middle":           s.BBMiddle,
		"bb_lower":            s.BBLower,
		"volume":              s.Volume,
		"avg_volume":          s.AvgVolume,
		"atr":                 s.ATR,
		"adx":                 s.ADX,
		"support":             s.Support,
		"resistance":          s.Resistance,
	}
	for name, v := range fields {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("snapshot field %s is not finite: %v", name, v)
		}
	}
	return nil
}
