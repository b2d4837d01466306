package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"crypto-mentor-bot/config"
	"crypto-mentor-bot/internal/bot"
	"crypto-mentor-bot/internal/events"
	"crypto-mentor-bot/internal/logging"
	"crypto-mentor-bot/internal/market"
	"crypto-mentor-bot/internal/strategy"
	"crypto-mentor-bot/internal/trader"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	cfg, err := config.Load("does-not-exist.json")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	cfg.ExchangeConfig.MockMode = true

	log := logging.NewWriter(io.Discard, logging.ERROR, false)
	bus := events.NewEventBus()
	engine := market.NewEngine(market.NewMockFeed(), nil, log)
	paperTrader := trader.New(10000, 5, 3, bus, nil, log)
	orch := strategy.NewOrchestrator(cfg, bus, log)
	tradingBot := bot.New(cfg, engine, orch, paperTrader, nil, bus, log)

	return NewServer(cfg, engine, orch, paperTrader, tradingBot, nil, bus, log)
}

func doRequest(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var payload map[string]interface{}
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
			t.Fatalf("response is not JSON: %v\n%s", err, w.Body.String())
		}
	}
	return w, payload
}

func TestRootStatus(t *testing.T) {
	s := testServer(t)

	w, payload := doRequest(t, s, http.MethodGet, "/", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if payload["running"] != false {
		t.Errorf("running = %v, want false before Start", payload["running"])
	}
	if payload["mode"] != "paper" {
		t.Errorf("mode = %v", payload["mode"])
	}
}

func TestDashboardFreshState(t *testing.T) {
	s := testServer(t)

	w, payload := doRequest(t, s, http.MethodGet, "/api/dashboard", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	portfolio, ok := payload["portfolio"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing portfolio: %v", payload)
	}
	if portfolio["balance"] != float64(10000) {
		t.Errorf("balance = %v, want 10000", portfolio["balance"])
	}
	if portfolio["total_trades"] != float64(0) {
		t.Errorf("total_trades = %v, want 0", portfolio["total_trades"])
	}
}

func TestGetStrategies(t *testing.T) {
	s := testServer(t)

	w, payload := doRequest(t, s, http.MethodGet, "/api/strategies", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	strategies, ok := payload["strategies"].([]interface{})
	if !ok || len(strategies) != 4 {
		t.Fatalf("expected 4 strategies, got %v", payload["strategies"])
	}
}

func TestUpdateStrategy(t *testing.T) {
	s := testServer(t)

	w, payload := doRequest(t, s, http.MethodPut, "/api/strategies/technical_analysis", `{"enabled": false}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %v", w.Code, payload)
	}
	updated, ok := payload["strategy"].(map[string]interface{})
	if !ok || updated["enabled"] != false {
		t.Errorf("strategy not disabled: %v", payload)
	}

	// The orchestrator reload drops the disabled strategy.
	active := s.orchestrator.Strategies()
	for _, st := range active {
		if st["name"] == "technical_analysis" {
			t.Error("disabled strategy still active after reload")
		}
	}

	w, _ = doRequest(t, s, http.MethodPut, "/api/strategies/nope", `{"enabled": false}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown strategy status = %d, want 404", w.Code)
	}
}

func TestTradesEmptyInMemory(t *testing.T) {
	s := testServer(t)

	w, payload := doRequest(t, s, http.MethodGet, "/api/trades?status=CLOSED", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if payload["count"] != float64(0) {
		t.Errorf("count = %v, want 0", payload["count"])
	}
}

func TestMarketIndicatorsMockMode(t *testing.T) {
	s := testServer(t)

	w, payload := doRequest(t, s, http.MethodGet, "/api/market/indicators", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %v", w.Code, payload)
	}
	indicators, ok := payload["indicators"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing indicators: %v", payload)
	}
	if price, _ := indicators["price"].(float64); price <= 0 {
		t.Errorf("price = %v, want > 0", indicators["price"])
	}
}

func TestLearnEndpoints(t *testing.T) {
	s := testServer(t)

	w, payload := doRequest(t, s, http.MethodGet, "/api/learn/concepts", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	concepts, ok := payload["concepts"].([]interface{})
	if !ok || len(concepts) == 0 {
		t.Fatalf("no concepts returned: %v", payload)
	}

	w, payload = doRequest(t, s, http.MethodGet, "/api/learn/concepts/rsi", "")
	if w.Code != http.StatusOK {
		t.Fatalf("concept status = %d", w.Code)
	}
	if name, _ := payload["name"].(string); name == "" {
		t.Errorf("concept payload missing name: %v", payload)
	}

	w, _ = doRequest(t, s, http.MethodGet, "/api/learn/concepts/nonexistent", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown concept status = %d, want 404", w.Code)
	}

	w, _ = doRequest(t, s, http.MethodGet, "/api/learn/search", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("search without q status = %d, want 400", w.Code)
	}
}
