package strategy

import (
	"fmt"
	"time"

	"crypto-mentor-bot/internal/market"
)

// TechnicalStrategy scores indicator confluence: RSI extremes, MACD
// histogram crossings, EMA 9/21 crossovers, Bollinger band proximity, and
// volume surges. BUY and SELL evidence is scored separately; a side must
// clear the threshold and strictly beat the other side to emit.
type TechnicalStrategy struct {
	params map[string]float64
}

func NewTechnicalStrategy() *TechnicalStrategy {
	return &TechnicalStrategy{
		params: map[string]float64{
			"rsi_oversold":   30,
			"rsi_overbought": 70,
			"min_score":      2.5,
		},
	}
}

func (s *TechnicalStrategy) Name() string {
	return "technical_analysis"
}

func (s *TechnicalStrategy) Description() string {
	return "RSI, MACD, EMA crossover, Bollinger Bands, Volume analysis"
}

func (s *TechnicalStrategy) Configure(params map[string]float64) {
	for k, v := range params {
		s.params[k] = v
	}
}

func (s *TechnicalStrategy) Analyze(candles []market.Candle, snap *market.Snapshot, pair, timeframe string) (*Signal, error) {
	if len(candles) < 50 {
		return nil, nil
	}

	oversold := param(s.params, "rsi_oversold", 30)
	overbought := param(s.params, "rsi_overbought", 70)
	minScore := param(s.params, "min_score", 2.5)

	price := snap.Price

	// ── BUY side ──
	var buyReasons, buyLearning []string
	buyScore := 0.0

	if snap.RSI < oversold {
		buyReasons = append(buyReasons, fmt.Sprintf(
			"RSI(14) = %.2f is in oversold territory (below %.0f). Selling has been heavy and the price may be ready to bounce.",
			snap.RSI, oversold))
		buyLearning = append(buyLearning,
			"RSI below 30 means oversold, like a compressed spring that can snap back. Never rely on RSI alone; look for other confirmation.")
		buyScore += 1
	}

	if snap.MACDHistogram > 0 && snap.PrevMACDHistogram <= 0 {
		buyReasons = append(buyReasons, fmt.Sprintf(
			"MACD histogram just crossed into positive (%.4f), a momentum shift to bullish. MACD line (%.4f) crossed above the signal line (%.4f).",
			snap.MACDHistogram, snap.MACD, snap.MACDSignal))
		buyLearning = append(buyLearning,
			"A MACD crossover marks a momentum change. When the histogram flips from negative to positive, buyers are starting to take over from sellers.")
		buyScore += 1
	} else if snap.MACDHistogram > 0 {
		buyReasons = append(buyReasons, fmt.Sprintf(
			"MACD histogram is positive (%.4f), momentum still bullish.", snap.MACDHistogram))
		buyScore += 0.5
	}

	if snap.EMA9 > snap.EMA21 && snap.PrevEMA9 <= snap.PrevEMA21 {
		buyReasons = append(buyReasons, fmt.Sprintf(
			"EMA 9 (%.2f) just crossed above EMA 21 (%.2f), a golden crossover. The short-term trend has turned bullish.",
			snap.EMA9, snap.EMA21))
		buyLearning = append(buyLearning,
			"EMA crossover: when the fast EMA (9) crosses above the slow EMA (21), the short-term trend has flipped bullish. The wider the gap between them, the stronger the trend.")
		buyScore += 1
	} else if snap.EMA9 > snap.EMA21 {
		buyScore += 0.5
	}

	if price <= snap.BBLower*1.01 { // Within 1% of lower band
		buyReasons = append(buyReasons, fmt.Sprintf(
			"Price (%.2f) is close to the lower Bollinger Band (%.2f). Price is stretched to the downside, potential mean reversion.",
			price, snap.BBLower))
		buyLearning = append(buyLearning,
			"Bollinger Bands visualize volatility. When price touches the lower band it behaves like an overstretched rubber band with a tendency to snap back toward the middle band.")
		buyScore += 1
	}

	if snap.Volume > snap.AvgVolume*1.5 {
		buyReasons = append(buyReasons, fmt.Sprintf(
			"Volume (%.2f) spiked %.1fx above the average (%.2f), strong buying interest.",
			snap.Volume, snap.Volume/snap.AvgVolume, snap.AvgVolume))
		buyLearning = append(buyLearning,
			"Volume is the energy behind a move. A price move on low volume carries little conviction; high volume confirms that many traders back the move.")
		buyScore += 1
	}

	// ── SELL side ──
	var sellReasons, sellLearning []string
	sellScore := 0.0

	if snap.RSI > overbought {
		sellReasons = append(sellReasons, fmt.Sprintf(
			"RSI(14) = %.2f is in overbought territory (above %.0f). Buying has been heavy and the price may pull back.",
			snap.RSI, overbought))
		sellLearning = append(sellLearning,
			"RSI above 70 means overbought and a pullback becomes likely. In a strong uptrend RSI can stay overbought for a long time, so wait for additional confirmation.")
		sellScore += 1
	}

	if snap.MACDHistogram < 0 && snap.PrevMACDHistogram >= 0 {
		sellReasons = append(sellReasons, fmt.Sprintf(
			"MACD histogram just crossed into negative (%.4f), a momentum shift to bearish.", snap.MACDHistogram))
		sellLearning = append(sellLearning,
			"A bearish MACD crossover means buyer momentum has faded and sellers are starting to take over.")
		sellScore += 1
	} else if snap.MACDHistogram < 0 {
		sellScore += 0.5
	}

	if snap.EMA9 < snap.EMA21 && snap.PrevEMA9 >= snap.PrevEMA21 {
		sellReasons = append(sellReasons, fmt.Sprintf(
			"EMA 9 (%.2f) just crossed below EMA 21 (%.2f), a death cross. The short-term trend has turned bearish.",
			snap.EMA9, snap.EMA21))
		sellLearning = append(sellLearning,
			"Death cross: when the fast EMA drops below the slow EMA, sellers have taken over and price is likely to fall further.")
		sellScore += 1
	} else if snap.EMA9 < snap.EMA21 {
		sellScore += 0.5
	}

	if price >= snap.BBUpper*0.99 {
		sellReasons = append(sellReasons, fmt.Sprintf(
			"Price (%.2f) is near the upper Bollinger Band (%.2f), stretched to the upside.", price, snap.BBUpper))
		sellLearning = append(sellLearning,
			"Price at the upper Bollinger Band is fully extended; it usually retraces back toward the middle band.")
		sellScore += 1
	}

	if snap.Volume > snap.AvgVolume*1.5 && sellScore >= 1 {
		sellReasons = append(sellReasons, fmt.Sprintf(
			"Volume spiked %.1fx above average, heavy selling pressure.", snap.Volume/snap.AvgVolume))
		sellScore += 1
	}

	// ── Decide: BUY, SELL, or nothing ──

	if buyScore >= minScore && buyScore > sellScore {
		sl := round2(price * 0.99)
		if snap.ATR > 0 {
			sl = round2(snap.Support - snap.ATR*0.5)
		}
		tp := round2(price * 1.02)
		if snap.Resistance > price {
			tp = round2(snap.Resistance)
		}
		return &Signal{
			Action:         ActionBuy,
			Pair:           pair,
			Timeframe:      timeframe,
			Strategy:       s.Name(),
			Price:          price,
			Confidence:     emitConfidence(buyScore),
			StopLoss:       sl,
			TakeProfit:     tp,
			Reasons:        buyReasons,
			LearningPoints: buyLearning,
			Indicators:     snap,
			RiskReward:     riskReward(price, sl, tp),
			Timestamp:      time.Now(),
		}, nil
	}

	if sellScore >= minScore && sellScore > buyScore {
		sl := round2(price * 1.01)
		if snap.ATR > 0 {
			sl = round2(snap.Resistance + snap.ATR*0.5)
		}
		tp := round2(price * 0.98)
		if snap.Support < price {
			tp = round2(snap.Support)
		}
		return &Signal{
			Action:         ActionSell,
			Pair:           pair,
			Timeframe:      timeframe,
			Strategy:       s.Name(),
			Price:          price,
			Confidence:     emitConfidence(sellScore),
			StopLoss:       sl,
			TakeProfit:     tp,
			Reasons:        sellReasons,
			LearningPoints: sellLearning,
			Indicators:     snap,
			RiskReward:     riskReward(price, sl, tp),
			Timestamp:      time.Now(),
		}, nil
	}

	return nil, nil
}
