package market

import (
	"fmt"
	"math"
	"sort"
)

// ============================================================================
// MOVING AVERAGES
// ============================================================================

// CalculateSMA calculates Simple Moving Average over the last period closes
func CalculateSMA(candles []Candle, period int) float64 {
	if len(candles) < period || period <= 0 {
		return 0
	}

	sum := 0.0
	startIdx := len(candles) - period

	for i := startIdx; i < len(candles); i++ {
		sum += candles[i].Close
	}

	return sum / float64(period)
}

// CalculateEMASeries calculates an EMA series over the given values.
// Entries before the first full period are NaN; the series is seeded with
// the SMA of the first period.
func CalculateEMASeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	if period <= 0 || len(values) < period {
		return out
	}

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	ema := sum / float64(period)
	out[period-1] = ema

	multiplier := 2.0 / float64(period+1)
	for i := period; i < len(values); i++ {
		ema = (values[i]-ema)*multiplier + ema
		out[i] = ema
	}

	return out
}

// CalculateEMA calculates the latest Exponential Moving Average of closes
func CalculateEMA(candles []Candle, period int) float64 {
	if len(candles) < period {
		return 0
	}
	series := CalculateEMASeries(Closes(candles), period)
	return series[len(series)-1]
}

// Closes extracts the close series from candles
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// ============================================================================
// RSI (Relative Strength Index)
// ============================================================================

// CalculateRSISeries calculates a Wilder-smoothed RSI series over the given
// values. Entries before index period are NaN.
func CalculateRSISeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	if period <= 0 || len(values) < period+1 {
		return out
	}

	gains := 0.0
	losses := 0.0
	for i := 1; i <= period; i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			gains += change
		} else {
			losses += -change
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	out[period] = rsiFromAverages(avgGain, avgLoss)

	for i := period + 1; i < len(values); i++ {
		change := values[i] - values[i-1]
		gain := 0.0
		loss := 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiFromAverages(avgGain, avgLoss)
	}

	return out
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// CalculateRSI calculates the latest Relative Strength Index of closes
func CalculateRSI(candles []Candle, period int) float64 {
	if len(candles) < period+1 {
		return 50.0 // Neutral RSI
	}
	series := CalculateRSISeries(Closes(candles), period)
	return series[len(series)-1]
}

// ============================================================================
// MACD (Moving Average Convergence Divergence)
// ============================================================================

// MACDResult holds MACD indicator values
type MACDResult struct {
	MACD          float64
	Signal        float64
	Histogram     float64
	PrevHistogram float64
}

// CalculateMACD calculates the MACD line, signal line, and histogram. The
// signal line is a true EMA of the MACD line, not an approximation, so a
// fresh histogram sign flip is detectable from consecutive values.
func CalculateMACD(candles []Candle, fastPeriod, slowPeriod, signalPeriod int) *MACDResult {
	if len(candles) < slowPeriod+signalPeriod {
		return &MACDResult{}
	}

	closes := Closes(candles)
	fastEMA := CalculateEMASeries(closes, fastPeriod)
	slowEMA := CalculateEMASeries(closes, slowPeriod)

	// MACD line is defined where the slow EMA is.
	macdLine := make([]float64, 0, len(closes)-slowPeriod+1)
	for i := slowPeriod - 1; i < len(closes); i++ {
		macdLine = append(macdLine, fastEMA[i]-slowEMA[i])
	}

	signalSeries := CalculateEMASeries(macdLine, signalPeriod)

	last := len(macdLine) - 1
	result := &MACDResult{
		MACD:      macdLine[last],
		Signal:    signalSeries[last],
		Histogram: macdLine[last] - signalSeries[last],
	}
	if last >= 1 && !math.IsNaN(signalSeries[last-1]) {
		result.PrevHistogram = macdLine[last-1] - signalSeries[last-1]
	}

	return result
}

// ============================================================================
// BOLLINGER BANDS
// ============================================================================

// BollingerBandsResult holds Bollinger Bands values
type BollingerBandsResult struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// CalculateBollingerBands calculates Bollinger Bands
func CalculateBollingerBands(candles []Candle, period int, stdDevMultiplier float64) *BollingerBandsResult {
	if len(candles) < period {
		return &BollingerBandsResult{}
	}

	middle := CalculateSMA(candles, period)

	variance := 0.0
	startIdx := len(candles) - period
	for i := startIdx; i < len(candles); i++ {
		diff := candles[i].Close - middle
		variance += diff * diff
	}
	stdDev := math.Sqrt(variance / float64(period))

	return &BollingerBandsResult{
		Upper:  middle + (stdDev * stdDevMultiplier),
		Middle: middle,
		Lower:  middle - (stdDev * stdDevMultiplier),
	}
}

// ============================================================================
// ATR (Average True Range)
// ============================================================================

// CalculateATR calculates Wilder-smoothed Average True Range
func CalculateATR(candles []Candle, period int) float64 {
	trs := trueRanges(candles)
	if period <= 0 || len(trs) < period {
		return 0
	}

	atr := 0.0
	for i := 0; i < period; i++ {
		atr += trs[i]
	}
	atr /= float64(period)

	for i := period; i < len(trs); i++ {
		atr = (atr*float64(period-1) + trs[i]) / float64(period)
	}

	return atr
}

func trueRanges(candles []Candle) []float64 {
	if len(candles) < 2 {
		return nil
	}
	trs := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		high := candles[i].High
		low := candles[i].Low
		prevClose := candles[i-1].Close

		tr := math.Max(high-low, math.Max(math.Abs(high-prevClose), math.Abs(low-prevClose)))
		trs = append(trs, tr)
	}
	return trs
}

// ============================================================================
// ADX (Average Directional Index)
// ============================================================================

// CalculateADX calculates the Average Directional Index using Wilder's
// smoothing of directional movement. Returns 0 when history is too short.
func CalculateADX(candles []Candle, period int) float64 {
	if period <= 0 || len(candles) < 2*period+1 {
		return 0
	}

	n := len(candles) - 1
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	trs := trueRanges(candles)

	for i := 1; i < len(candles); i++ {
		upMove := candles[i].High - candles[i-1].High
		downMove := candles[i-1].Low - candles[i].Low
		if upMove > downMove && upMove > 0 {
			plusDM[i-1] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM[i-1] = downMove
		}
	}

	smoothTR := 0.0
	smoothPlus := 0.0
	smoothMinus := 0.0
	for i := 0; i < period; i++ {
		smoothTR += trs[i]
		smoothPlus += plusDM[i]
		smoothMinus += minusDM[i]
	}

	var dxs []float64
	appendDX := func() {
		if smoothTR == 0 {
			dxs = append(dxs, 0)
			return
		}
		plusDI := 100 * smoothPlus / smoothTR
		minusDI := 100 * smoothMinus / smoothTR
		sum := plusDI + minusDI
		if sum == 0 {
			dxs = append(dxs, 0)
			return
		}
		dxs = append(dxs, 100*math.Abs(plusDI-minusDI)/sum)
	}
	appendDX()

	for i := period; i < n; i++ {
		smoothTR = smoothTR - smoothTR/float64(period) + trs[i]
		smoothPlus = smoothPlus - smoothPlus/float64(period) + plusDM[i]
		smoothMinus = smoothMinus - smoothMinus/float64(period) + minusDM[i]
		appendDX()
	}

	if len(dxs) < period {
		return 0
	}

	adx := 0.0
	for i := 0; i < period; i++ {
		adx += dxs[i]
	}
	adx /= float64(period)
	for i := period; i < len(dxs); i++ {
		adx = (adx*float64(period-1) + dxs[i]) / float64(period)
	}

	return adx
}

// ============================================================================
// VOLUME ANALYSIS
// ============================================================================

// CalculateAverageVolume calculates average volume over a period
func CalculateAverageVolume(candles []Candle, period int) float64 {
	if len(candles) == 0 {
		return 0
	}
	if len(candles) < period {
		period = len(candles)
	}

	sum := 0.0
	startIdx := len(candles) - period
	for i := startIdx; i < len(candles); i++ {
		sum += candles[i].Volume
	}

	return sum / float64(period)
}

// ============================================================================
// SUPPORT AND RESISTANCE
// ============================================================================

// FindSupportResistance derives support and resistance levels from low and
// high percentiles of the recent range. Percentiles are used instead of the
// raw extremes so a single wick does not define the level.
func FindSupportResistance(candles []Candle, lookback int) (support float64, resistance float64) {
	if len(candles) == 0 {
		return 0, 0
	}
	if len(candles) < lookback {
		lookback = len(candles)
	}

	startIdx := len(candles) - lookback
	lows := make([]float64, 0, lookback)
	highs := make([]float64, 0, lookback)
	for i := startIdx; i < len(candles); i++ {
		lows = append(lows, candles[i].Low)
		highs = append(highs, candles[i].High)
	}

	return percentile(lows, 10), percentile(highs, 90)
}

// percentile computes the p-th percentile with linear interpolation.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// ============================================================================
// SNAPSHOT
// ============================================================================

// minSnapshotCandles is the history needed before a snapshot makes sense:
// MACD(12,26,9) needs 35 closes, ADX(14) needs 29.
const minSnapshotCandles = 40

// BuildSnapshot computes the full indicator snapshot from a candle series.
// Longer-period fields (EMA 200) are zero when history is too short for
// them; strategies enforce their own history requirements.
func BuildSnapshot(candles []Candle) (*Snapshot, error) {
	if len(candles) < minSnapshotCandles {
		return nil, fmt.Errorf("need at least %d candles for a snapshot, got %d", minSnapshotCandles, len(candles))
	}

	closes := Closes(candles)
	last := candles[len(candles)-1]

	macd := CalculateMACD(candles, 12, 26, 9)
	bb := CalculateBollingerBands(candles, 20, 2)

	ema9 := CalculateEMASeries(closes, 9)
	ema21 := CalculateEMASeries(closes, 21)

	snap := &Snapshot{
		Price:             last.Close,
		RSI:               CalculateRSI(candles, 14),
		MACD:              macd.MACD,
		MACDSignal:        macd.Signal,
		MACDHistogram:     macd.Histogram,
		PrevMACDHistogram: macd.PrevHistogram,
		EMA9:              ema9[len(ema9)-1],
		EMA21:             ema21[len(ema21)-1],
		PrevEMA9:          ema9[len(ema9)-2],
		PrevEMA21:         ema21[len(ema21)-2],
		EMA50:             CalculateEMA(candles, 50),
		EMA200:            CalculateEMA(candles, 200),
		BBUpper:           bb.Upper,
		BBMiddle:          bb.Middle,
		BBLower:           bb.Lower,
		Volume:            last.Volume,
		AvgVolume:         CalculateAverageVolume(candles, 20),
		ATR:               CalculateATR(candles, 14),
		ADX:               CalculateADX(candles, 14),
	}
	snap.Support, snap.Resistance = FindSupportResistance(candles, 50)

	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return snap, nil
}
