package strategy

import (
	"fmt"
	"math"
	"time"

	"crypto-mentor-bot/internal/market"
)

// ScalpingStrategy hunts quick mean-reversion moves: a fast RSI(7) at an
// extreme, a Bollinger band touch, a volume burst, and short-range
// support/resistance over the last 20 candles. Targets are small fixed
// percentages rather than structural levels.
type ScalpingStrategy struct {
	params map[string]float64
}

func NewScalpingStrategy() *ScalpingStrategy {
	return &ScalpingStrategy{
		params: map[string]float64{
			"min_score":        2,
			"rsi_oversold":     20,
			"rsi_overbought":   80,
			"quick_tp_percent": 0.3,
			"min_volume_ratio": 1.5,
		},
	}
}

func (s *ScalpingStrategy) Name() string {
	return "scalping"
}

func (s *ScalpingStrategy) Description() string {
	return "Fast RSI(7) extremes, Bollinger touches, volume bursts for quick in-and-out trades"
}

func (s *ScalpingStrategy) Configure(params map[string]float64) {
	for k, v := range params {
		s.params[k] = v
	}
}

func (s *ScalpingStrategy) Analyze(candles []market.Candle, snap *market.Snapshot, pair, timeframe string) (*Signal, error) {
	if len(candles) < 30 {
		return nil, nil
	}

	minScore := param(s.params, "min_score", 2)
	oversold := param(s.params, "rsi_oversold", 20)
	overbought := param(s.params, "rsi_overbought", 80)
	tpPct := param(s.params, "quick_tp_percent", 0.3) / 100
	minVolumeRatio := param(s.params, "min_volume_ratio", 1.5)

	price := snap.Price

	// Scalping runs on a faster RSI than the shared snapshot's RSI(14).
	fastRSI := market.CalculateRSI(candles, 7)

	var reasons, learning []string
	score := 0.0
	var action Action

	if fastRSI < oversold {
		action = ActionBuy
		score += 1.5
		reasons = append(reasons, fmt.Sprintf(
			"Fast RSI(7) = %.2f is at an extreme low (below %.0f). Short-term selling is exhausted and a quick bounce is likely.",
			fastRSI, oversold))
		learning = append(learning,
			"Scalpers use a faster RSI period (7 instead of 14) to catch short-lived extremes. The moves it catches are small and fast, so targets must be small and fast too.")
	} else if fastRSI > overbought {
		action = ActionSell
		score += 1.5
		reasons = append(reasons, fmt.Sprintf(
			"Fast RSI(7) = %.2f is at an extreme high (above %.0f). Short-term buying is exhausted and a quick dip is likely.",
			fastRSI, overbought))
		learning = append(learning,
			"An RSI(7) above 80 flags a short burst of buying that usually cools off within a few candles. Scalpers fade it and get out quickly.")
	}

	if price <= snap.BBLower*1.002 && action != ActionSell {
		action = ActionBuy
		score += 1
		reasons = append(reasons, fmt.Sprintf(
			"Price (%.2f) is touching the lower Bollinger Band (%.2f), primed for a snap back to the middle.",
			price, snap.BBLower))
		learning = append(learning,
			"A band touch alone is weak, but combined with an RSI extreme it marks the spots where quick reversals cluster.")
	} else if price >= snap.BBUpper*0.998 && action != ActionBuy {
		action = ActionSell
		score += 1
		reasons = append(reasons, fmt.Sprintf(
			"Price (%.2f) is touching the upper Bollinger Band (%.2f), primed for a snap back to the middle.",
			price, snap.BBUpper))
		learning = append(learning,
			"A touch of the upper band usually pulls back toward the middle band. Take the quick scalp profit there; getting greedy is how scalps turn into losses.")
	}

	volumeRatio := 1.0
	if snap.AvgVolume > 0 {
		volumeRatio = snap.Volume / snap.AvgVolume
	}
	if volumeRatio > minVolumeRatio {
		score += 1
		reasons = append(reasons, fmt.Sprintf(
			"Volume is running at %.1fx average. Scalps need liquidity to enter and exit without slippage.", volumeRatio))
		learning = append(learning,
			"A volume surge means large players are moving. Volume spiking while price rises is institutional buying; spiking while price falls is institutional selling. Scalpers follow that flow instead of fighting it.")
	}

	// Micro support/resistance over the recent window.
	recent := candles[len(candles)-20:]
	microHigh := recent[0].High
	microLow := recent[0].Low
	for _, c := range recent[1:] {
		microHigh = math.Max(microHigh, c.High)
		microLow = math.Min(microLow, c.Low)
	}

	if math.Abs(price-microLow)/price < 0.003 && action != ActionSell {
		if action == "" {
			action = ActionBuy
		}
		score += 0.5
		reasons = append(reasons, fmt.Sprintf(
			"Price is hugging the 20-candle low (%.2f), a micro support scalpers lean on.", microLow))
		learning = append(learning,
			"Micro support and resistance come from the last 20 candles, not the daily chart. For a trade measured in minutes, those short-range levels are the ones that matter.")
	} else if math.Abs(price-microHigh)/price < 0.003 && action != ActionBuy {
		if action == "" {
			action = ActionSell
		}
		score += 0.5
		reasons = append(reasons, fmt.Sprintf(
			"Price is hugging the 20-candle high (%.2f), a micro resistance scalpers fade.", microHigh))
	}

	if score < minScore || action == "" {
		return nil, nil
	}

	// Percentage targets; a scalp's stop is tighter than its target.
	slPct := tpPct * 0.7
	var sl, tp float64
	if action == ActionBuy {
		sl = round2(price * (1 - slPct))
		tp = round2(price * (1 + tpPct))
	} else {
		sl = round2(price * (1 + slPct))
		tp = round2(price * (1 - tpPct))
	}

	return &Signal{
		Action:         action,
		Pair:           pair,
		Timeframe:      timeframe,
		Strategy:       s.Name(),
		Price:          price,
		Confidence:     emitConfidence(score),
		StopLoss:       sl,
		TakeProfit:     tp,
		Reasons:        reasons,
		LearningPoints: learning,
		Indicators:     snap,
		RiskReward:     riskReward(price, sl, tp),
		Timestamp:      time.Now(),
	}, nil
}
