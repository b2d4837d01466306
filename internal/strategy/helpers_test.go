package strategy

import (
	"crypto-mentor-bot/internal/market"
)

// flatCandles builds n neutral candles around a price with alternating small
// up and down closes, so momentum indicators stay neutral.
func flatCandles(n int, price float64) []market.Candle {
	candles := make([]market.Candle, n)
	for i := range candles {
		close := price
		open := price + 1
		if i%2 == 0 {
			close = price + 1
			open = price
		}
		candles[i] = market.Candle{
			OpenTime: int64(i) * 60_000,
			Open:     open,
			High:     price + 1.2,
			Low:      price - 0.2,
			Close:    close,
			Volume:   100,
		}
	}
	return candles
}

// trendingCandles builds n candles whose closes move by step each candle,
// strictly monotonic so no swing pivots form.
func trendingCandles(n int, start, step float64) []market.Candle {
	candles := make([]market.Candle, n)
	for i := range candles {
		close := start + step*float64(i)
		candles[i] = market.Candle{
			OpenTime: int64(i) * 60_000,
			Open:     close - step,
			High:     close + 0.2,
			Low:      close - 0.2,
			Close:    close,
			Volume:   100,
		}
	}
	return candles
}

// neutralSnapshot builds a snapshot with no actionable readings at the
// given price.
func neutralSnapshot(price float64) *market.Snapshot {
	return &market.Snapshot{
		Price:             price,
		RSI:               50,
		MACD:              0,
		MACDSignal:        0,
		MACDHistogram:     0,
		PrevMACDHistogram: 0,
		EMA9:              price,
		EMA21:             price,
		EMA50:             price,
		EMA200:            price,
		PrevEMA9:          price,
		PrevEMA21:         price,
		BBUpper:           price * 1.03,
		BBMiddle:          price,
		BBLower:           price * 0.97,
		Volume:            100,
		AvgVolume:         100,
		ATR:               2,
		ADX:               20,
		Support:           price * 0.95,
		Resistance:        price * 1.05,
	}
}
