package explainer

import (
	"sort"
	"strings"
)

// Concept is a glossary entry for one trading idea, written the way a
// mentor would explain it to a beginner.
type Concept struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Short       string `json:"short"`
	Explanation string `json:"explanation"`
	Formula     string `json:"formula"`
}

var concepts = map[string]Concept{
	"rsi": {
		Key:   "rsi",
		Name:  "RSI (Relative Strength Index)",
		Short: "Measures momentum: has price risen or fallen too far, too fast",
		Explanation: "RSI measures the speed and magnitude of price moves on a 0-100 scale.\n\n" +
			"- RSI < 30 = OVERSOLD. Price has fallen a lot and may bounce.\n" +
			"- RSI > 70 = OVERBOUGHT. Price has risen a lot and may pull back.\n" +
			"- RSI = 50 = Neutral.\n\n" +
			"Analogy: a rubber band. Stretch it too far (an RSI extreme) and it snaps back toward the middle.\n\n" +
			"TIPS:\n" +
			"- RSI is not a buy/sell signal on its own. Use it as confirmation.\n" +
			"- In a strong uptrend RSI can stay above 70 for a long time.\n" +
			"- RSI divergence (price rising while RSI falls) is a strong warning signal.",
		Formula: "RSI = 100 - (100 / (1 + RS)), where RS = Average Gain / Average Loss",
	},
	"macd": {
		Key:   "macd",
		Name:  "MACD (Moving Average Convergence Divergence)",
		Short: "Detects shifts in momentum and trend direction",
		Explanation: "MACD shows the relationship between two moving averages. It has 3 parts:\n\n" +
			"1. MACD Line = EMA(12) - EMA(26)\n" +
			"2. Signal Line = EMA(9) of the MACD Line\n" +
			"3. Histogram = MACD Line - Signal Line\n\n" +
			"Signals:\n" +
			"- MACD crossing ABOVE the signal line = BULLISH (momentum turning up)\n" +
			"- MACD crossing BELOW the signal line = BEARISH (momentum turning down)\n" +
			"- A growing histogram = strengthening momentum\n\n" +
			"Analogy: a car. MACD shows whether the car is accelerating or braking; the histogram is how hard you are pressing the pedal.",
		Formula: "MACD = EMA(12) - EMA(26), Signal = EMA(9) of MACD",
	},
	"ema": {
		Key:   "ema",
		Name:  "EMA (Exponential Moving Average)",
		Short: "An average price that weights recent data more heavily",
		Explanation: "An EMA responds faster to recent price moves than a simple moving average.\n\n" +
			"Common EMAs:\n" +
			"- EMA 9 = very short term (scalping)\n" +
			"- EMA 21 = short-term trend\n" +
			"- EMA 50 = medium-term trend\n" +
			"- EMA 200 = long-term trend (the institutional level)\n\n" +
			"Signals:\n" +
			"- Price ABOVE an EMA = bullish trend\n" +
			"- Price BELOW an EMA = bearish trend\n" +
			"- Fast EMA crossing above a slow EMA = golden cross (bullish)\n" +
			"- Fast EMA crossing below a slow EMA = death cross (bearish)\n\n" +
			"Analogy: EMAs are the GPS of the trend. EMA 200 is the highway heading (big picture); EMA 9 is the side street (short term).",
		Formula: "EMA = Price x k + Previous EMA x (1-k), where k = 2/(period+1)",
	},
	"bollinger_bands": {
		Key:   "bollinger_bands",
		Name:  "Bollinger Bands",
		Short: "Measures volatility and flags price extremes",
		Explanation: "Bollinger Bands consist of 3 lines:\n" +
			"1. Middle Band = SMA(20)\n" +
			"2. Upper Band = SMA(20) + 2 standard deviations\n" +
			"3. Lower Band = SMA(20) - 2 standard deviations\n\n" +
			"Price stays inside the bands about 95% of the time; moving outside them is an extreme.\n\n" +
			"Signals:\n" +
			"- Price touching the lower band = potential buy (oversold)\n" +
			"- Price touching the upper band = potential sell (overbought)\n" +
			"- Bands squeezing tight = low volatility, a breakout is brewing\n" +
			"- Bands expanding = high volatility\n\n" +
			"Analogy: a highway. The middle band is the center line, the outer bands are the guardrails. Price normally stays between them; hitting a rail means something big is happening.",
		Formula: "Upper = SMA(20) + 2 stddev, Lower = SMA(20) - 2 stddev",
	},
	"support_resistance": {
		Key:   "support_resistance",
		Name:  "Support & Resistance",
		Short: "Price levels where buyers or sellers keep stepping in",
		Explanation: "Support is a price floor: a level where price keeps bouncing up because buyers step in (a demand zone).\n\n" +
			"Resistance is a price ceiling: a level where price keeps getting rejected because sellers step in (a supply zone).\n\n" +
			"Why S/R matters:\n" +
			"- Many traders watch the same levels, so they become self-fulfilling.\n" +
			"- The more times a level is tested without breaking, the stronger it is.\n" +
			"- When support breaks it becomes new resistance, and vice versa.\n\n" +
			"TIPS:\n" +
			"- S/R is a ZONE, not an exact price.\n" +
			"- Combine S/R with other indicators for confirmation.\n" +
			"- Do not buy exactly at support; wait for a confirmation candle.",
		Formula: "Manual identification based on price history",
	},
	"candlestick_patterns": {
		Key:   "candlestick_patterns",
		Name:  "Candlestick Patterns",
		Short: "Candle shapes that hint at the next move",
		Explanation: "Every candle tells the story of a fight between buyers and sellers:\n\n" +
			"BULLISH PATTERNS (pointing up):\n" +
			"- Hammer: long lower wick, small body on top. Sellers failed to push price down.\n" +
			"- Bullish Engulfing: a big green candle swallows the red one before it. Buyers took over.\n" +
			"- Morning Star: red, doji, green across 3 candles. An upward reversal.\n\n" +
			"BEARISH PATTERNS (pointing down):\n" +
			"- Shooting Star: long upper wick, small body at the bottom. Buyers failed to push price up.\n" +
			"- Bearish Engulfing: a big red candle swallows the green one before it. Sellers took over.\n" +
			"- Evening Star: green, doji, red. A downward reversal.\n\n" +
			"NEUTRAL:\n" +
			"- Doji: a tiny body. The market is undecided; wait for confirmation.\n\n" +
			"TIP: patterns matter most at S/R levels. A hammer at support is VERY bullish; a shooting star at resistance is VERY bearish.",
		Formula: "Visual pattern recognition",
	},
	"adx": {
		Key:   "adx",
		Name:  "ADX (Average Directional Index)",
		Short: "Measures the STRENGTH of a trend, not its direction",
		Explanation: "ADX measures trend strength, NOT direction, on a 0-100 scale:\n\n" +
			"- ADX < 20 = no trend (sideways, choppy market)\n" +
			"- ADX 20-40 = moderate trend\n" +
			"- ADX 40-60 = strong trend\n" +
			"- ADX > 60 = very strong trend (rare)\n\n" +
			"Use ADX to:\n" +
			"- Pick the right strategy: high ADX favors trend following, low ADX favors mean reversion.\n" +
			"- Filter false signals: with a low ADX, many signals turn out fake.\n" +
			"- Spot trend exhaustion: a falling ADX means the trend may be ending.\n\n" +
			"Analogy: ADX is the trend's speedometer. It does not show the direction, only how fast you are going.",
		Formula: "ADX = SMA(DX, 14), where DX = |+DI - -DI| / |+DI + -DI| x 100",
	},
	"risk_reward": {
		Key:   "risk_reward",
		Name:  "Risk:Reward Ratio",
		Short: "How much you stand to gain versus how much you risk losing",
		Explanation: "The risk:reward ratio compares potential loss with potential profit:\n\n" +
			"Example: buy BTC at $67,000\n" +
			"- Stop Loss: $66,500 (risk = $500)\n" +
			"- Take Profit: $68,000 (reward = $1,000)\n" +
			"- R:R = 1:2 (risk $1 for a potential $2)\n\n" +
			"GOLDEN RULE:\n" +
			"- Minimum R:R = 1:1.5, better 1:2 or 1:3.\n" +
			"- With 1:2 you can be wrong 60% of the time and STILL profit\n" +
			"  (40 wins x $2 = $80, 60 losses x $1 = $60, net +$20).\n\n" +
			"TIPS:\n" +
			"- ALWAYS set the R:R before entering the trade.\n" +
			"- Never move the stop loss further into the red.\n" +
			"- A good R:R plus a 40-50% win rate makes a profitable trader.",
		Formula: "R:R = (Take Profit - Entry) / (Entry - Stop Loss)",
	},
	"volume": {
		Key:   "volume",
		Name:  "Volume",
		Short: "How much is being traded: the energy behind price",
		Explanation: "Volume is the number of units traded in a period.\n\n" +
			"Why volume matters:\n" +
			"- Volume CONFIRMS price moves.\n" +
			"- Price up + high volume = STRONG rally (many buyers behind it).\n" +
			"- Price up + low volume = WEAK rally (few believers).\n" +
			"- Breakout + high volume = a REAL breakout.\n" +
			"- Breakout + low volume = likely a FAKE breakout.\n\n" +
			"Analogy: volume is the force behind a punch. Price is the direction of the punch; volume is its power. A weak punch cannot break through the defense (resistance).",
		Formula: "Volume = total units traded in period",
	},
}

// GetConcept looks up a concept by key, case insensitive.
func GetConcept(name string) (Concept, bool) {
	c, ok := concepts[strings.ToLower(name)]
	return c, ok
}

// AllConcepts returns every concept, sorted by key for stable output.
func AllConcepts() []Concept {
	keys := make([]string, 0, len(concepts))
	for k := range concepts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Concept, 0, len(keys))
	for _, k := range keys {
		out = append(out, concepts[k])
	}
	return out
}

// SearchConcepts matches the query against keys, names, and summaries.
func SearchConcepts(query string) []Concept {
	query = strings.ToLower(query)
	var results []Concept
	for _, c := range AllConcepts() {
		if strings.Contains(c.Key, query) ||
			strings.Contains(strings.ToLower(c.Name), query) ||
			strings.Contains(strings.ToLower(c.Short), query) {
			results = append(results, c)
		}
	}
	return results
}
