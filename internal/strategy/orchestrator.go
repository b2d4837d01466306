package strategy

import (
	"fmt"
	"sync"
	"time"

	"crypto-mentor-bot/config"
	"crypto-mentor-bot/internal/events"
	"crypto-mentor-bot/internal/logging"
	"crypto-mentor-bot/internal/market"
)

// Registry builds the full set of known strategies. Order matters: it fixes
// the evaluation and merge order for a cycle, so results are reproducible
// for the same snapshot.
func Registry() []Strategy {
	return []Strategy{
		NewTechnicalStrategy(),
		NewPriceActionStrategy(),
		NewTrendFollowingStrategy(),
		NewScalpingStrategy(),
	}
}

// Orchestrator runs the enabled strategies concurrently over one shared
// snapshot and merges agreeing signals into a single confluence signal.
type Orchestrator struct {
	log *logging.Logger
	bus *events.EventBus

	mu             sync.Mutex
	active         []Strategy
	cooldown       time.Duration
	minConfidence  int
	lastSignalTime time.Time
}

// NewOrchestrator wires the enabled strategies from config, preserving the
// config order. Unknown strategy names are logged and skipped.
func NewOrchestrator(cfg *config.Config, bus *events.EventBus, log *logging.Logger) *Orchestrator {
	o := &Orchestrator{
		log:           log.WithComponent("orchestrator"),
		bus:           bus,
		cooldown:      time.Duration(cfg.TradingConfig.SignalCooldownSecs) * time.Second,
		minConfidence: cfg.TradingConfig.MinConfidence,
	}
	o.active = o.buildActive(cfg.StrategiesConfig)
	return o
}

func (o *Orchestrator) buildActive(configs []config.StrategyConfig) []Strategy {
	registry := Registry()
	byName := make(map[string]Strategy, len(registry))
	for _, s := range registry {
		byName[s.Name()] = s
	}

	var active []Strategy
	for _, sc := range configs {
		if !sc.Enabled {
			continue
		}
		s, ok := byName[sc.Name]
		if !ok {
			o.log.Warn("unknown strategy in config, skipping", "name", sc.Name)
			continue
		}
		if len(sc.Parameters) > 0 {
			s.Configure(sc.Parameters)
		}
		active = append(active, s)
	}
	return active
}

// Reload replaces the active strategy set from new configs. Fresh instances
// are built so stale parameters from the previous set cannot leak through.
func (o *Orchestrator) Reload(configs []config.StrategyConfig) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.active = o.buildActive(configs)
	o.log.Info("strategies reloaded", "active", len(o.active))
}

// Strategies returns the names and descriptions of the active strategies,
// in evaluation order.
func (o *Orchestrator) Strategies() []map[string]string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]map[string]string, 0, len(o.active))
	for _, s := range o.active {
		out = append(out, map[string]string{
			"name":        s.Name(),
			"description": s.Description(),
		})
	}
	return out
}

// AnalyzeAll runs one full analysis cycle. It returns at most one signal;
// nil means no actionable setup this cycle. An invalid snapshot is a
// programming error upstream and aborts the cycle.
func (o *Orchestrator) AnalyzeAll(candles []market.Candle, snap *market.Snapshot, pair, timeframe string) (*Signal, error) {
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("invalid snapshot: %w", err)
	}

	o.mu.Lock()
	active := make([]Strategy, len(o.active))
	copy(active, o.active)
	cooldown := o.cooldown
	minConfidence := o.minConfidence
	last := o.lastSignalTime
	o.mu.Unlock()

	if !last.IsZero() && time.Since(last) < cooldown {
		o.log.Debug("in cooldown, skipping analysis",
			"remaining", (cooldown - time.Since(last)).Round(time.Second).String())
		return nil, nil
	}

	if len(active) == 0 {
		return nil, nil
	}

	// Each strategy gets the same immutable snapshot; a failure in one must
	// never take down the others.
	results := make([]*Signal, len(active))
	var wg sync.WaitGroup
	for i, s := range active {
		wg.Add(1)
		go func(i int, s Strategy) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					o.log.Error("strategy panicked", "strategy", s.Name(), "panic", fmt.Sprintf("%v", r))
				}
			}()
			sig, err := s.Analyze(candles, snap, pair, timeframe)
			if err != nil {
				o.log.Warn("strategy failed", "strategy", s.Name(), "error", err)
				return
			}
			results[i] = sig
		}(i, s)
	}
	wg.Wait()

	var buys, sells []*Signal
	for _, sig := range results {
		if sig == nil {
			continue
		}
		switch sig.Action {
		case ActionBuy:
			buys = append(buys, sig)
		case ActionSell:
			sells = append(sells, sig)
		}
	}

	if len(buys) == 0 && len(sells) == 0 {
		return nil, nil
	}

	var winner []*Signal
	switch {
	case len(buys) > len(sells):
		winner = buys
	case len(sells) > len(buys):
		winner = sells
	default:
		// Equal counts on both sides: the stronger conviction wins, a full
		// tie means the market is genuinely conflicted and we stand aside.
		buySum, sellSum := confidenceSum(buys), confidenceSum(sells)
		switch {
		case buySum > sellSum:
			winner = buys
		case sellSum > buySum:
			winner = sells
		default:
			o.log.Info("conflicting signals with equal conviction, standing aside",
				"buy", len(buys), "sell", len(sells))
			return nil, nil
		}
	}

	merged := Merge(winner)

	if merged.Confidence < minConfidence {
		o.log.Info("signal below confidence floor, rejected",
			"strategy", merged.Strategy, "action", string(merged.Action), "confidence", merged.Confidence)
		if o.bus != nil {
			o.bus.Publish(events.Event{
				Type: events.EventSignalRejected,
				Data: map[string]interface{}{
					"strategy":   merged.Strategy,
					"pair":       merged.Pair,
					"action":     string(merged.Action),
					"confidence": merged.Confidence,
					"reason":     "below minimum confidence",
				},
			})
		}
		return nil, nil
	}

	o.mu.Lock()
	o.lastSignalTime = time.Now()
	o.mu.Unlock()

	o.log.Info("signal accepted",
		"strategy", merged.Strategy, "pair", merged.Pair, "action", string(merged.Action),
		"confidence", merged.Confidence, "price", merged.Price)
	if o.bus != nil {
		o.bus.PublishSignal(merged.Strategy, merged.Pair, string(merged.Action),
			merged.Price, merged.Confidence, merged.StopLoss, merged.TakeProfit)
	}

	return merged, nil
}

// Merge combines same-direction signals into one confluence signal. The
// highest-confidence signal (earliest wins ties) anchors price, stops, and
// indicators; each additional agreeing strategy adds one confidence point,
// capped at 5.
func Merge(signals []*Signal) *Signal {
	if len(signals) == 0 {
		return nil
	}
	if len(signals) == 1 {
		return signals[0]
	}

	base := signals[0]
	for _, sig := range signals[1:] {
		if sig.Confidence > base.Confidence {
			base = sig
		}
	}

	names := make([]string, 0, len(signals))
	var reasons, learning []string
	for _, sig := range signals {
		names = append(names, sig.Strategy)
		reasons = append(reasons, sig.Reasons...)
		learning = append(learning, sig.LearningPoints...)
	}

	confidence := base.Confidence + (len(signals) - 1)
	if confidence > 5 {
		confidence = 5
	}

	header := fmt.Sprintf(
		"CONFLUENCE: %d independent strategies agree on %s. When different analysis styles reach the same conclusion, the setup is much stronger.",
		len(signals), base.Action)
	headerLearning := "Confluence is the heart of high-probability trading. One indicator can lie; several independent methods agreeing at the same moment rarely do."

	return &Signal{
		Action:         base.Action,
		Pair:           base.Pair,
		Timeframe:      base.Timeframe,
		Strategy:       joinNames(names),
		Price:          base.Price,
		Confidence:     confidence,
		StopLoss:       base.StopLoss,
		TakeProfit:     base.TakeProfit,
		Reasons:        append([]string{header}, reasons...),
		LearningPoints: append([]string{headerLearning}, learning...),
		Indicators:     base.Indicators,
		RiskReward:     base.RiskReward,
		Timestamp:      time.Now(),
	}
}

func confidenceSum(signals []*Signal) int {
	total := 0
	for _, sig := range signals {
		total += sig.Confidence
	}
	return total
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += " + "
		}
		out += n
	}
	return out
}
