package patterns

import (
	"crypto-mentor-bot/internal/market"
)

// PatternType represents different candlestick patterns
type PatternType string

const (
	BullishEngulfing PatternType = "bullish_engulfing"
	BearishEngulfing PatternType = "bearish_engulfing"
	Hammer           PatternType = "hammer"
	ShootingStar     PatternType = "shooting_star"
	Doji             PatternType = "doji"
)

// Pattern is a detected candlestick pattern with its scoring weight.
type Pattern struct {
	Type      PatternType
	Direction string // "BUY" or "SELL"
	Weight    float64
}

// Detect checks the last two candles against the supported patterns in
// fixed priority order and returns the first match, or nil. At most one
// pattern is reported per candle pair.
func Detect(prev, last market.Candle) *Pattern {
	if isBullishEngulfing(prev, last) {
		return &Pattern{Type: BullishEngulfing, Direction: "BUY", Weight: 1.5}
	}
	if isBearishEngulfing(prev, last) {
		return &Pattern{Type: BearishEngulfing, Direction: "SELL", Weight: 1.5}
	}
	if isHammer(last) {
		return &Pattern{Type: Hammer, Direction: "BUY", Weight: 1}
	}
	if isShootingStar(last) {
		return &Pattern{Type: ShootingStar, Direction: "SELL", Weight: 1}
	}
	if isDoji(last) {
		direction := "SELL"
		if last.Close > last.Open {
			direction = "BUY"
		}
		return &Pattern{Type: Doji, Direction: direction, Weight: 0.5}
	}
	return nil
}

// isBullishEngulfing checks for a green candle whose body fully contains
// the previous red candle's body.
func isBullishEngulfing(prev, last market.Candle) bool {
	return prev.Close < prev.Open &&
		last.Close > last.Open &&
		last.Close > prev.Open &&
		last.Open < prev.Close
}

// isBearishEngulfing checks the mirror case: a red candle engulfing the
// previous green body.
func isBearishEngulfing(prev, last market.Candle) bool {
	return prev.Close > prev.Open &&
		last.Close < last.Open &&
		last.Close < prev.Open &&
		last.Open > prev.Close
}

// isHammer checks for a long lower wick with a small body near the top.
func isHammer(c market.Candle) bool {
	body := c.Body()
	return c.LowerWick() > body*2 && c.UpperWick() < body*0.5 && c.Range() > 0
}

// isShootingStar checks for a long upper wick with a small body near the
// bottom.
func isShootingStar(c market.Candle) bool {
	body := c.Body()
	return c.UpperWick() > body*2 && c.LowerWick() < body*0.5 && c.Range() > 0
}

// isDoji checks for a body under 10% of the candle range.
func isDoji(c market.Candle) bool {
	totalRange := c.Range()
	if totalRange <= 0 {
		totalRange = 0.001
	}
	return c.Body() < totalRange*0.1
}
