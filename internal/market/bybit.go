package market

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// BybitClient fetches market data from Bybit's public v5 REST API.
// Paper trading only needs public endpoints, so no request signing is done.
type BybitClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewBybitClient(baseURL string) *BybitClient {
	if baseURL == "" {
		baseURL = "https://api.bybit.com"
	}
	return &BybitClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Symbol converts a pair like "BTC/USDT" into the exchange symbol "BTCUSDT".
func Symbol(pair string) string {
	return strings.ReplaceAll(pair, "/", "")
}

// intervalCode maps a timeframe like "15m" or "4h" to Bybit's interval code.
func intervalCode(timeframe string) string {
	switch timeframe {
	case "1m":
		return "1"
	case "3m":
		return "3"
	case "5m":
		return "5"
	case "15m":
		return "15"
	case "30m":
		return "30"
	case "1h":
		return "60"
	case "2h":
		return "120"
	case "4h":
		return "240"
	case "6h":
		return "360"
	case "12h":
		return "720"
	case "1d":
		return "D"
	case "1w":
		return "W"
	default:
		return "15"
	}
}

type bybitResponse struct {
	RetCode int             `json:"retCode"`
	RetMsg  string          `json:"retMsg"`
	Result  json.RawMessage `json:"result"`
}

type bybitKlineResult struct {
	Symbol string     `json:"symbol"`
	List   [][]string `json:"list"`
}

type bybitTickerResult struct {
	List []struct {
		Symbol       string `json:"symbol"`
		LastPrice    string `json:"lastPrice"`
		Volume24h    string `json:"volume24h"`
		Turnover24h  string `json:"turnover24h"`
		Price24hPcnt string `json:"price24hPcnt"`
	} `json:"list"`
}

// GetKlines fetches candlestick data, oldest first.
func (c *BybitClient) GetKlines(pair, timeframe string, limit int) ([]Candle, error) {
	params := url.Values{}
	params.Set("category", "spot")
	params.Set("symbol", Symbol(pair))
	params.Set("interval", intervalCode(timeframe))
	params.Set("limit", strconv.Itoa(limit))

	endpoint := fmt.Sprintf("%s/v5/market/kline?%s", c.baseURL, params.Encode())

	result, err := c.get(endpoint)
	if err != nil {
		return nil, err
	}

	var klines bybitKlineResult
	if err := json.Unmarshal(result, &klines); err != nil {
		return nil, fmt.Errorf("error parsing klines: %w", err)
	}

	// Bybit returns newest first; reverse into chronological order.
	candles := make([]Candle, len(klines.List))
	intervalMs := timeframeMillis(timeframe)
	for i, raw := range klines.List {
		if len(raw) < 6 {
			return nil, fmt.Errorf("unexpected kline shape: %v", raw)
		}
		openTime := parseInt(raw[0])
		candles[len(klines.List)-1-i] = Candle{
			OpenTime:  openTime,
			Open:      parseFloat(raw[1]),
			High:      parseFloat(raw[2]),
			Low:       parseFloat(raw[3]),
			Close:     parseFloat(raw[4]),
			Volume:    parseFloat(raw[5]),
			CloseTime: openTime + intervalMs - 1,
		}
	}

	return candles, nil
}

// GetPrice fetches the current last traded price for a pair.
func (c *BybitClient) GetPrice(pair string) (float64, error) {
	params := url.Values{}
	params.Set("category", "spot")
	params.Set("symbol", Symbol(pair))

	endpoint := fmt.Sprintf("%s/v5/market/tickers?%s", c.baseURL, params.Encode())

	result, err := c.get(endpoint)
	if err != nil {
		return 0, err
	}

	var tickers bybitTickerResult
	if err := json.Unmarshal(result, &tickers); err != nil {
		return 0, fmt.Errorf("error parsing tickers: %w", err)
	}
	if len(tickers.List) == 0 {
		return 0, fmt.Errorf("no ticker data for %s", pair)
	}

	return parseFloat(tickers.List[0].LastPrice), nil
}

func (c *BybitClient) get(endpoint string) (json.RawMessage, error) {
	resp, err := c.httpClient.Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("error fetching %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error: %s", string(body))
	}

	var envelope bybitResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("error parsing response: %w", err)
	}
	if envelope.RetCode != 0 {
		return nil, fmt.Errorf("API error %d: %s", envelope.RetCode, envelope.RetMsg)
	}

	return envelope.Result, nil
}

func timeframeMillis(timeframe string) int64 {
	switch timeframe {
	case "1m":
		return 60_000
	case "3m":
		return 3 * 60_000
	case "5m":
		return 5 * 60_000
	case "15m":
		return 15 * 60_000
	case "30m":
		return 30 * 60_000
	case "1h":
		return 60 * 60_000
	case "2h":
		return 2 * 60 * 60_000
	case "4h":
		return 4 * 60 * 60_000
	case "6h":
		return 6 * 60 * 60_000
	case "12h":
		return 12 * 60 * 60_000
	case "1d":
		return 24 * 60 * 60_000
	case "1w":
		return 7 * 24 * 60 * 60_000
	default:
		return 15 * 60_000
	}
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func parseInt(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}
