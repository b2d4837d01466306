package strategy

import (
	"io"
	"testing"
	"time"

	"crypto-mentor-bot/config"
	"crypto-mentor-bot/internal/logging"
	"crypto-mentor-bot/internal/market"
)

// stubStrategy returns a canned signal, error, or panic.
type stubStrategy struct {
	name     string
	signal   *Signal
	err      error
	panicMsg string
}

func (s *stubStrategy) Name() string        { return s.name }
func (s *stubStrategy) Description() string { return "stub" }
func (s *stubStrategy) Configure(map[string]float64) {}
func (s *stubStrategy) Analyze([]market.Candle, *market.Snapshot, string, string) (*Signal, error) {
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	return s.signal, s.err
}

func stubSignal(name string, action Action, confidence int) *Signal {
	return &Signal{
		Action:     action,
		Pair:       "BTC/USDT",
		Timeframe:  "15m",
		Strategy:   name,
		Price:      100,
		Confidence: confidence,
		StopLoss:   98,
		TakeProfit: 104,
		Reasons:    []string{name + " reason"},
		Timestamp:  time.Now(),
	}
}

func testOrchestrator(minConfidence int, strategies ...Strategy) *Orchestrator {
	return &Orchestrator{
		log:           logging.NewWriter(io.Discard, logging.ERROR, false),
		active:        strategies,
		cooldown:      300 * time.Second,
		minConfidence: minConfidence,
	}
}

func TestNewOrchestratorBuildsConfigOrder(t *testing.T) {
	cfg := &config.Config{StrategiesConfig: config.DefaultStrategies()}
	cfg.TradingConfig.SignalCooldownSecs = 300
	cfg.TradingConfig.MinConfidence = 3

	o := NewOrchestrator(cfg, nil, logging.NewWriter(io.Discard, logging.ERROR, false))

	got := o.Strategies()
	want := []string{"technical_analysis", "price_action", "trend_following", "scalping"}
	if len(got) != len(want) {
		t.Fatalf("expected %d active strategies, got %d", len(want), len(got))
	}
	for i, name := range want {
		if got[i]["name"] != name {
			t.Errorf("strategy %d: expected %s, got %s", i, name, got[i]["name"])
		}
	}
}

func TestReloadReplacesActiveSet(t *testing.T) {
	cfg := &config.Config{StrategiesConfig: config.DefaultStrategies()}
	cfg.TradingConfig.SignalCooldownSecs = 300
	cfg.TradingConfig.MinConfidence = 3

	o := NewOrchestrator(cfg, nil, logging.NewWriter(io.Discard, logging.ERROR, false))
	o.Reload([]config.StrategyConfig{
		{Name: "scalping", Enabled: true},
		{Name: "no_such_strategy", Enabled: true},
		{Name: "technical_analysis", Enabled: false},
	})

	got := o.Strategies()
	if len(got) != 1 || got[0]["name"] != "scalping" {
		t.Errorf("expected only scalping after reload, got %v", got)
	}
}

func TestMergeSingleSignalPassesThrough(t *testing.T) {
	sig := stubSignal("a", ActionBuy, 4)
	merged := Merge([]*Signal{sig})
	if merged != sig {
		t.Error("a single signal should pass through unchanged")
	}
}

func TestMergeBuildsConfluenceSignal(t *testing.T) {
	a := stubSignal("a", ActionBuy, 3)
	b := stubSignal("b", ActionBuy, 4)
	b.StopLoss = 97
	b.TakeProfit = 106
	c := stubSignal("c", ActionBuy, 2)

	merged := Merge([]*Signal{a, b, c})
	if merged.Strategy != "a + b + c" {
		t.Errorf("expected joined strategy names, got %q", merged.Strategy)
	}
	// Base confidence 4 plus 2 agreeing strategies = 6, capped at 5.
	if merged.Confidence != 5 {
		t.Errorf("expected confidence capped at 5, got %d", merged.Confidence)
	}
	// Stops come from the highest-confidence contributor.
	if merged.StopLoss != 97 || merged.TakeProfit != 106 {
		t.Errorf("expected stops from the strongest signal, got SL=%v TP=%v", merged.StopLoss, merged.TakeProfit)
	}
	// Reasons: confluence header first, then contributors in input order.
	if len(merged.Reasons) != 4 {
		t.Fatalf("expected 4 reasons, got %d", len(merged.Reasons))
	}
	if merged.Reasons[1] != "a reason" || merged.Reasons[2] != "b reason" || merged.Reasons[3] != "c reason" {
		t.Errorf("contributor reasons out of order: %v", merged.Reasons)
	}
}

func TestMergeConfidenceTieKeepsFirst(t *testing.T) {
	a := stubSignal("a", ActionSell, 3)
	a.StopLoss = 103
	b := stubSignal("b", ActionSell, 3)
	b.StopLoss = 110

	merged := Merge([]*Signal{a, b})
	if merged.StopLoss != 103 {
		t.Errorf("tied confidence must anchor on the earlier signal, got SL=%v", merged.StopLoss)
	}
	if merged.Confidence != 4 {
		t.Errorf("expected confidence 3+1=4, got %d", merged.Confidence)
	}
}

func TestAnalyzeAllCountBeatsConfidence(t *testing.T) {
	o := testOrchestrator(1,
		&stubStrategy{name: "a", signal: stubSignal("a", ActionBuy, 5)},
		&stubStrategy{name: "b", signal: stubSignal("b", ActionSell, 1)},
		&stubStrategy{name: "c", signal: stubSignal("c", ActionSell, 1)},
	)

	sig, err := o.AnalyzeAll(flatCandles(60, 100), neutralSnapshot(100), "BTC/USDT", "15m")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig == nil {
		t.Fatal("expected a signal, got nil")
	}
	if sig.Action != ActionSell {
		t.Errorf("two weak SELLs must beat one strong BUY, got %s", sig.Action)
	}
	if sig.Confidence != 2 {
		t.Errorf("expected merged confidence 2, got %d", sig.Confidence)
	}
}

func TestAnalyzeAllEqualCountsUseConfidenceSum(t *testing.T) {
	o := testOrchestrator(3,
		&stubStrategy{name: "a", signal: stubSignal("a", ActionBuy, 5)},
		&stubStrategy{name: "b", signal: stubSignal("b", ActionSell, 2)},
	)

	sig, err := o.AnalyzeAll(flatCandles(60, 100), neutralSnapshot(100), "BTC/USDT", "15m")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig == nil {
		t.Fatal("expected a signal, got nil")
	}
	if sig.Action != ActionBuy {
		t.Errorf("expected stronger BUY conviction to win, got %s", sig.Action)
	}
	if sig.Confidence != 5 {
		t.Errorf("expected confidence 5, got %d", sig.Confidence)
	}
}

func TestAnalyzeAllFullTieStandsAside(t *testing.T) {
	o := testOrchestrator(1,
		&stubStrategy{name: "a", signal: stubSignal("a", ActionBuy, 3)},
		&stubStrategy{name: "b", signal: stubSignal("b", ActionSell, 3)},
	)

	sig, err := o.AnalyzeAll(flatCandles(60, 100), neutralSnapshot(100), "BTC/USDT", "15m")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig != nil {
		t.Errorf("a perfectly conflicted market must yield no signal, got %s", sig.Action)
	}
}

func TestAnalyzeAllCooldownAfterAcceptance(t *testing.T) {
	o := testOrchestrator(3,
		&stubStrategy{name: "a", signal: stubSignal("a", ActionBuy, 4)},
	)

	first, err := o.AnalyzeAll(flatCandles(60, 100), neutralSnapshot(100), "BTC/USDT", "15m")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first == nil {
		t.Fatal("expected the first cycle to emit a signal")
	}

	second, err := o.AnalyzeAll(flatCandles(60, 100), neutralSnapshot(100), "BTC/USDT", "15m")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second != nil {
		t.Error("expected the cooldown to suppress the second cycle")
	}
}

func TestAnalyzeAllRejectionDoesNotStartCooldown(t *testing.T) {
	weak := &stubStrategy{name: "a", signal: stubSignal("a", ActionBuy, 1)}
	o := testOrchestrator(3, weak)

	sig, err := o.AnalyzeAll(flatCandles(60, 100), neutralSnapshot(100), "BTC/USDT", "15m")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig != nil {
		t.Fatal("expected the weak signal to be rejected")
	}

	// A rejection must not block the next cycle.
	weak.signal = stubSignal("a", ActionBuy, 4)
	sig, err = o.AnalyzeAll(flatCandles(60, 100), neutralSnapshot(100), "BTC/USDT", "15m")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig == nil {
		t.Error("expected a strong signal right after a rejection")
	}
}

func TestAnalyzeAllIsolatesPanics(t *testing.T) {
	o := testOrchestrator(3,
		&stubStrategy{name: "a", panicMsg: "boom"},
		&stubStrategy{name: "b", signal: stubSignal("b", ActionBuy, 4)},
	)

	sig, err := o.AnalyzeAll(flatCandles(60, 100), neutralSnapshot(100), "BTC/USDT", "15m")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig == nil {
		t.Fatal("a panicking strategy must not take down the cycle")
	}
	if sig.Strategy != "b" {
		t.Errorf("expected the surviving strategy's signal, got %q", sig.Strategy)
	}
}

func TestAnalyzeAllTreatsErrorsAsNoSignal(t *testing.T) {
	o := testOrchestrator(3,
		&stubStrategy{name: "a", err: io.ErrUnexpectedEOF},
		&stubStrategy{name: "b", signal: stubSignal("b", ActionSell, 4)},
	)

	sig, err := o.AnalyzeAll(flatCandles(60, 100), neutralSnapshot(100), "BTC/USDT", "15m")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig == nil || sig.Strategy != "b" {
		t.Error("a failing strategy must count as no signal, not abort the cycle")
	}
}

func TestAnalyzeAllRejectsInvalidSnapshot(t *testing.T) {
	o := testOrchestrator(3,
		&stubStrategy{name: "a", signal: stubSignal("a", ActionBuy, 4)},
	)

	snap := neutralSnapshot(100)
	snap.Price = 0

	if _, err := o.AnalyzeAll(flatCandles(60, 100), snap, "BTC/USDT", "15m"); err == nil {
		t.Error("expected an error for a snapshot with no price")
	}
}
