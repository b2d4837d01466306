package strategy

import (
	"fmt"
	"time"

	"crypto-mentor-bot/internal/market"
)

// TrendFollowingStrategy trades with the established trend: EMA ribbon
// alignment, ADX trend strength, and higher-high/higher-low market
// structure. It needs the full 200-candle history for the slow EMA.
type TrendFollowingStrategy struct {
	params map[string]float64
}

func NewTrendFollowingStrategy() *TrendFollowingStrategy {
	return &TrendFollowingStrategy{
		params: map[string]float64{
			"min_score":     2.5,
			"adx_threshold": 25,
		},
	}
}

func (s *TrendFollowingStrategy) Name() string {
	return "trend_following"
}

func (s *TrendFollowingStrategy) Description() string {
	return "EMA ribbon alignment, ADX strength, higher-highs/higher-lows structure"
}

func (s *TrendFollowingStrategy) Configure(params map[string]float64) {
	for k, v := range params {
		s.params[k] = v
	}
}

func (s *TrendFollowingStrategy) Analyze(candles []market.Candle, snap *market.Snapshot, pair, timeframe string) (*Signal, error) {
	if len(candles) < 200 {
		return nil, nil
	}

	minScore := param(s.params, "min_score", 2.5)
	adxThreshold := param(s.params, "adx_threshold", 25)

	price := snap.Price

	var reasons, learning []string
	score := 0.0
	var bias Action

	// EMA ribbon: fully stacked EMAs are the cleanest trend picture.
	if snap.EMA9 > snap.EMA21 && snap.EMA21 > snap.EMA50 && snap.EMA50 > snap.EMA200 {
		bias = ActionBuy
		score += 2
		reasons = append(reasons, fmt.Sprintf(
			"The EMA ribbon is perfectly stacked bullish: EMA9 (%.2f) > EMA21 (%.2f) > EMA50 (%.2f) > EMA200 (%.2f). All timeframes agree the trend is up.",
			snap.EMA9, snap.EMA21, snap.EMA50, snap.EMA200))
		learning = append(learning,
			"When every EMA sits above the slower one beneath it, buyers are in control across every horizon. The trend is your friend; trade in its direction until the ribbon breaks.")
	} else if snap.EMA9 < snap.EMA21 && snap.EMA21 < snap.EMA50 && snap.EMA50 < snap.EMA200 {
		bias = ActionSell
		score += 2
		reasons = append(reasons, fmt.Sprintf(
			"The EMA ribbon is perfectly stacked bearish: EMA9 (%.2f) < EMA21 (%.2f) < EMA50 (%.2f) < EMA200 (%.2f). All timeframes agree the trend is down.",
			snap.EMA9, snap.EMA21, snap.EMA50, snap.EMA200))
		learning = append(learning,
			"A fully inverted EMA ribbon means sellers dominate every horizon. Fighting a stacked downtrend is how accounts get destroyed.")
	}

	// ADX measures trend strength, not direction. A weak reading argues
	// against taking any trend trade at all.
	if snap.ADX > adxThreshold {
		score += 1
		reasons = append(reasons, fmt.Sprintf(
			"ADX = %.1f (above %.0f), confirming a strong directional trend is in progress.", snap.ADX, adxThreshold))
		learning = append(learning,
			"ADX above 25 means the trend has real strength behind it. Below 20 the market is choppy and trend strategies bleed money.")
	} else {
		score -= 1
		reasons = append(reasons, fmt.Sprintf(
			"ADX = %.1f is weak, the market may be ranging rather than trending.", snap.ADX))
		learning = append(learning,
			"A low ADX means the market is not trending, just chopping sideways. Trend strategies throw off false signals in these conditions; switch to mean reversion or wait for a trend to develop.")
	}

	// Market structure from swing pivots.
	highs, lows := swingPoints(candles)
	if len(highs) >= 3 && len(lows) >= 3 {
		h := highs[len(highs)-3:]
		l := lows[len(lows)-3:]
		if h[0] < h[1] && h[1] < h[2] && l[0] < l[1] && l[1] < l[2] {
			if bias == "" || bias == ActionBuy {
				bias = ActionBuy
				score += 1.5
				reasons = append(reasons,
					"Market structure shows higher highs and higher lows, the textbook definition of an uptrend.")
				learning = append(learning,
					"An uptrend is a staircase of higher highs and higher lows. As long as each pullback bottoms above the previous one, the structure is intact.")
			}
		} else if h[0] > h[1] && h[1] > h[2] && l[0] > l[1] && l[1] > l[2] {
			if bias == "" || bias == ActionSell {
				bias = ActionSell
				score += 1.5
				reasons = append(reasons,
					"Market structure shows lower highs and lower lows, the textbook definition of a downtrend.")
				learning = append(learning,
					"A downtrend is a staircase of lower highs and lower lows. Every bounce that tops below the previous high confirms sellers are still in charge.")
			}
		}
	}

	if bias == ActionBuy && price > snap.EMA21 {
		score += 0.5
		reasons = append(reasons, fmt.Sprintf(
			"Price (%.2f) is holding above EMA21 (%.2f), the trend's dynamic support.", price, snap.EMA21))
		learning = append(learning,
			"In an uptrend the EMA21 often acts as dynamic support where price bounces. Waiting for a pullback to the EMA21 before entering is called buying the dip in an uptrend.")
	}

	if score < minScore || bias == "" {
		return nil, nil
	}

	// Stop behind the EMA50, target at a fixed 2:1 reward-to-risk.
	var sl float64
	if bias == ActionBuy {
		sl = round2(price * 0.98)
		if snap.ATR > 0 {
			sl = round2(snap.EMA50 - snap.ATR*0.5)
		}
	} else {
		sl = round2(price * 1.02)
		if snap.ATR > 0 {
			sl = round2(snap.EMA50 + snap.ATR*0.5)
		}
	}

	var tp float64
	if bias == ActionBuy {
		tp = round2(price + (price-sl)*2)
	} else {
		tp = round2(price - (sl-price)*2)
	}

	return &Signal{
		Action:         bias,
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

// swingPoints extracts swing highs and lows by checking every 5th candle
// against a 10-candle window around it. The coarse step keeps only the
// dominant pivots.
func swingPoints(candles []market.Candle) (highs, lows []float64) {
	for i := 5; i < len(candles)-5; i += 5 {
		window := candles[i-5 : i+5]

		maxHigh := window[0].High
		minLow := window[0].Low
		for _, c := range window[1:] {
			if c.High > maxHigh {
				maxHigh = c.High
			}
			if c.Low < minLow {
				minLow = c.Low
			}
		}

		if candles[i].High == maxHigh {
			highs = append(highs, candles[i].High)
		}
		if candles[i].Low == minLow {
			lows = append(lows, candles[i].Low)
		}
	}
	return highs, lows
}
