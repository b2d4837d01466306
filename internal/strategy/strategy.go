package strategy

import (
	"math"
	"time"

	"crypto-mentor-bot/internal/market"
)

// Action is the trade direction of a signal.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// Signal is a directional trade recommendation. It is constructed once and
// never mutated; merging builds a new Signal.
type Signal struct {
	Action         Action           `json:"action"`
	Pair           string           `json:"pair"`
	Timeframe      string           `json:"timeframe"`
	Strategy       string           `json:"strategy"` // single name, or " + "-joined after merge
	Price          float64          `json:"price"`
	Confidence     int              `json:"confidence"` // 1..5
	StopLoss       float64          `json:"stop_loss"`
	TakeProfit     float64          `json:"take_profit"`
	Reasons        []string         `json:"reasons"`
	LearningPoints []string         `json:"learning_points"`
	Indicators     *market.Snapshot `json:"indicators,omitempty"`
	RiskReward     float64          `json:"risk_reward,omitempty"`
	Timestamp      time.Time        `json:"timestamp"`
}

// Strategy is a pure signal generator. Analyze inspects the shared snapshot
// and candle window and returns a Signal, or nil when conditions are not
// met. Insufficient history is not an error; implementations return
// (nil, nil) for it.
type Strategy interface {
	Name() string
	Description() string
	Analyze(candles []market.Candle, snap *market.Snapshot, pair, timeframe string) (*Signal, error)
	Configure(params map[string]float64)
}

// emitConfidence quantizes an accumulated score for an emitted signal:
// truncated, not rounded, and capped at 5.
func emitConfidence(score float64) int {
	c := int(score)
	if c > 5 {
		return 5
	}
	return c
}

// riskReward returns reward/risk magnitude, 0 when the stop equals entry.
func riskReward(price, stopLoss, takeProfit float64) float64 {
	risk := math.Abs(price - stopLoss)
	if risk == 0 {
		return 0
	}
	return math.Abs(takeProfit-price) / risk
}

// param reads a tunable with a fallback default.
func param(params map[string]float64, key string, def float64) float64 {
	if v, ok := params[key]; ok {
		return v
	}
	return def
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
