package strategy

import (
	"fmt"
	"math"
	"time"

	"crypto-mentor-bot/internal/market"
	"crypto-mentor-bot/internal/patterns"
)

// PriceActionStrategy reads raw candles: candlestick patterns, reactions at
// support/resistance, breakouts, and the volume behind them. At most one
// candlestick pattern contributes per cycle; a breakout overrides any
// direction established before it.
type PriceActionStrategy struct {
	params map[string]float64
}

func NewPriceActionStrategy() *PriceActionStrategy {
	return &PriceActionStrategy{
		params: map[string]float64{
			"min_score":          2,
			"breakout_threshold": 0.005,
		},
	}
}

func (s *PriceActionStrategy) Name() string {
	return "price_action"
}

func (s *PriceActionStrategy) Description() string {
	return "Candlestick patterns, support/resistance, breakout detection"
}

func (s *PriceActionStrategy) Configure(params map[string]float64) {
	for k, v := range params {
		s.params[k] = v
	}
}

func (s *PriceActionStrategy) Analyze(candles []market.Candle, snap *market.Snapshot, pair, timeframe string) (*Signal, error) {
	if len(candles) < 30 {
		return nil, nil
	}

	minScore := param(s.params, "min_score", 2)
	breakoutThreshold := param(s.params, "breakout_threshold", 0.005)

	price := snap.Price
	last := candles[len(candles)-1]
	prev := candles[len(candles)-2]

	var reasons, learning []string
	score := 0.0
	var action Action

	if p := patterns.Detect(prev, last); p != nil {
		action = Action(p.Direction)
		score += p.Weight
		switch p.Type {
		case patterns.BullishEngulfing:
			reasons = append(reasons,
				"Bullish engulfing pattern: this green candle completely swallowed the previous red candle's body. Buyers overwhelmed the sellers.")
			learning = append(learning,
				"An engulfing pattern shows a sudden shift in control. When a green candle engulfs the red one before it, buyers absorbed all the selling and pushed higher.")
		case patterns.BearishEngulfing:
			reasons = append(reasons,
				"Bearish engulfing pattern: this red candle completely swallowed the previous green candle's body. Sellers overwhelmed the buyers.")
			learning = append(learning,
				"A bearish engulfing candle means sellers absorbed all the buying pressure and forced price down. It often marks the top of a short-term move.")
		case patterns.Hammer:
			reasons = append(reasons,
				"Hammer candle: a long lower wick shows price was pushed down hard but buyers bought it right back up.")
			learning = append(learning,
				"A hammer's long lower wick is a footprint of rejection. Sellers tried to push price down and failed, which often precedes a bounce.")
		case patterns.ShootingStar:
			reasons = append(reasons,
				"Shooting star candle: a long upper wick shows buyers pushed price up but sellers slammed it back down.")
			learning = append(learning,
				"A shooting star's long upper wick shows the rally was rejected. Buyers ran out of strength at that level.")
		case patterns.Doji:
			reasons = append(reasons,
				"Doji candle: open and close are nearly equal, the market is undecided and a reversal may be brewing.")
			learning = append(learning,
				"A doji represents balance between buyers and sellers. On its own it is weak evidence; it matters most at a key level after a strong move.")
		}
	}

	// Proximity to a key level is always worth explaining; it only counts
	// toward the score when it does not flip a direction a pattern already
	// set.
	if snap.Support > 0 && math.Abs(price-snap.Support)/price < 0.01 {
		reasons = append(reasons, fmt.Sprintf(
			"Price (%.2f) is sitting right on support at %.2f. This level has held before and buyers tend to defend it.",
			price, snap.Support))
		learning = append(learning,
			"Support is a price floor where buyers have stepped in repeatedly. Buying near support gives a tight stop just below the level, which keeps risk small.")
		if action != ActionSell {
			action = ActionBuy
			score += 1.5
		}
	} else if snap.Resistance > 0 && math.Abs(price-snap.Resistance)/price < 0.01 {
		reasons = append(reasons, fmt.Sprintf(
			"Price (%.2f) is pressing against resistance at %.2f. This ceiling has rejected price before.",
			price, snap.Resistance))
		learning = append(learning,
			"Resistance is a price ceiling where sellers have taken profit repeatedly. Price often stalls or reverses there unless it breaks through with force.")
		if action != ActionBuy {
			action = ActionSell
			score += 1.5
		}
	}

	// A confirmed breakout takes over the direction regardless of what the
	// pattern said.
	if snap.Resistance > 0 && last.Close > snap.Resistance*(1+breakoutThreshold) && prev.Close <= snap.Resistance {
		action = ActionBuy
		score += 2
		reasons = append(reasons, fmt.Sprintf(
			"Breakout! Price closed at %.2f, clearly above resistance at %.2f. The ceiling just broke.",
			last.Close, snap.Resistance))
		learning = append(learning,
			"When price breaks above resistance decisively, the old ceiling becomes the new floor. Trapped sellers covering their positions add fuel to the move.")
	} else if snap.Support > 0 && last.Close < snap.Support*(1-breakoutThreshold) && prev.Close >= snap.Support {
		action = ActionSell
		score += 2
		reasons = append(reasons, fmt.Sprintf(
			"Breakdown! Price closed at %.2f, clearly below support at %.2f. The floor just gave way.",
			last.Close, snap.Support))
		learning = append(learning,
			"When support breaks, stop losses below it trigger and accelerate the fall. The old floor then acts as resistance on any bounce.")
	}

	if action != "" && snap.Volume > snap.AvgVolume*1.5 {
		score += 1
		reasons = append(reasons, fmt.Sprintf(
			"Volume is %.1fx the average, confirming the price action with real participation.",
			snap.Volume/snap.AvgVolume))
		learning = append(learning,
			"In price action, volume confirms intention. A breakout without volume is usually a fake breakout; a bounce off support on heavy volume is a bounce with force behind it.")
	}

	if score < minScore || action == "" {
		return nil, nil
	}

	atr := snap.ATR
	if atr <= 0 {
		atr = price * 0.005
	}

	var sl, tp float64
	if action == ActionBuy {
		sl = round2(snap.Support - atr)
		tp = round2(price * 1.02)
		if snap.Resistance > price {
			tp = round2(snap.Resistance)
		}
	} else {
		sl = round2(snap.Resistance + atr)
		tp = round2(price * 0.98)
		if snap.Support > 0 && snap.Support < price {
			tp = round2(snap.Support)
		}
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
