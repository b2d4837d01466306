package trader

import (
	"context"
	"math"
	"sync"
	"time"

	"crypto-mentor-bot/internal/events"
	"crypto-mentor-bot/internal/explainer"
	"crypto-mentor-bot/internal/logging"
	"crypto-mentor-bot/internal/strategy"
)

// Trade statuses.
const (
	StatusOpen   = "OPEN"
	StatusClosed = "CLOSED"
)

// Close reasons recorded on exit.
const (
	CloseReasonStopLoss   = "STOP_LOSS"
	CloseReasonTakeProfit = "TAKE_PROFIT"
	CloseReasonManual     = "MANUAL"
)

// Trade is a simulated position. Money never moves; only the ledger does.
type Trade struct {
	ID              int64      `json:"id"`
	Pair            string     `json:"pair"`
	Side            string     `json:"side"`
	EntryPrice      float64    `json:"entry_price"`
	ExitPrice       float64    `json:"exit_price,omitempty"`
	Quantity        float64    `json:"quantity"`
	StopLoss        float64    `json:"stop_loss"`
	TakeProfit      float64    `json:"take_profit"`
	Status          string     `json:"status"`
	PnL             float64    `json:"pnl"`
	PnLPercent      float64    `json:"pnl_percent"`
	Strategy        string     `json:"strategy"`
	Timeframe       string     `json:"timeframe"`
	ConfluenceScore int        `json:"confluence_score"`
	CloseReason     string     `json:"close_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	ClosedAt        *time.Time `json:"closed_at,omitempty"`
}

// Portfolio is the running paper account state.
type Portfolio struct {
	Balance       float64   `json:"balance"`
	TotalPnL      float64   `json:"total_pnl"`
	TotalTrades   int       `json:"total_trades"`
	WinningTrades int       `json:"winning_trades"`
	LosingTrades  int       `json:"losing_trades"`
	BestTradePnL  float64   `json:"best_trade_pnl"`
	WorstTradePnL float64   `json:"worst_trade_pnl"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// WinRate returns the winning percentage over all closed trades.
func (p Portfolio) WinRate() float64 {
	if p.TotalTrades == 0 {
		return 0
	}
	return math.Round(float64(p.WinningTrades)/float64(p.TotalTrades)*1000) / 10
}

// Recorder persists trade lifecycle records. Implementations must tolerate
// being called from the bot loop; failures are logged, not fatal, since the
// in-memory state is authoritative.
type Recorder interface {
	RecordOpen(ctx context.Context, trade *Trade, entry *explainer.EntryExplanation) error
	RecordClose(ctx context.Context, trade *Trade, analysis *explainer.ExitAnalysis) error
	RecordPortfolio(ctx context.Context, p Portfolio) error
}

// PaperTrader opens and closes simulated positions from accepted signals.
// In-memory state is the source of truth; the Recorder is best-effort
// persistence.
type PaperTrader struct {
	positionSizePercent float64
	maxOpenTrades       int

	log      *logging.Logger
	bus      *events.EventBus
	recorder Recorder // nil when the database is disabled

	mu        sync.RWMutex
	nextID    int64
	open      []*Trade
	closed    []*Trade
	portfolio Portfolio
}

// New creates a paper trader with the given starting balance.
func New(startingBalance, positionSizePercent float64, maxOpenTrades int, bus *events.EventBus, recorder Recorder, log *logging.Logger) *PaperTrader {
	return &PaperTrader{
		positionSizePercent: positionSizePercent,
		maxOpenTrades:       maxOpenTrades,
		log:                 log.WithComponent("trader"),
		bus:                 bus,
		recorder:            recorder,
		nextID:              1,
		portfolio: Portfolio{
			Balance:   startingBalance,
			UpdatedAt: time.Now(),
		},
	}
}

// Restore replaces the trader's state with persisted values, used at startup
// when the database holds a previous session.
func (t *PaperTrader) Restore(portfolio Portfolio, open []*Trade, lastID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.portfolio = portfolio
	t.open = open
	if lastID >= t.nextID {
		t.nextID = lastID + 1
	}
}

// ExecuteTrade opens a paper position from a signal. It returns nil when the
// trade is skipped: too many open positions, or a position already exists in
// the pair.
func (t *PaperTrader) ExecuteTrade(ctx context.Context, sig *strategy.Signal) *Trade {
	t.mu.Lock()

	if len(t.open) >= t.maxOpenTrades {
		t.mu.Unlock()
		t.log.Info("max open trades reached, skipping signal", "pair", sig.Pair, "max", t.maxOpenTrades)
		return nil
	}
	for _, tr := range t.open {
		if tr.Pair == sig.Pair {
			t.mu.Unlock()
			t.log.Info("position already open in pair, skipping signal", "pair", sig.Pair)
			return nil
		}
	}

	amount := t.portfolio.Balance * t.positionSizePercent / 100
	trade := &Trade{
		ID:              t.nextID,
		Pair:            sig.Pair,
		Side:            string(sig.Action),
		EntryPrice:      sig.Price,
		Quantity:        amount / sig.Price,
		StopLoss:        sig.StopLoss,
		TakeProfit:      sig.TakeProfit,
		Status:          StatusOpen,
		Strategy:        sig.Strategy,
		Timeframe:       sig.Timeframe,
		ConfluenceScore: sig.Confidence,
		CreatedAt:       time.Now(),
	}
	t.nextID++
	t.open = append(t.open, trade)
	t.mu.Unlock()

	log := logging.FromContext(ctx, t.log)
	log.Info("trade opened",
		"id", trade.ID, "pair", trade.Pair, "side", trade.Side,
		"entry", trade.EntryPrice, "confidence", trade.ConfluenceScore)

	entry := explainer.GenerateEntryExplanation(sig)
	if t.recorder != nil {
		if err := t.recorder.RecordOpen(ctx, trade, entry); err != nil {
			log.Warn("failed to persist trade open", "id", trade.ID, "error", err)
		}
	}
	if t.bus != nil {
		t.bus.PublishTradeOpened(trade.ID, trade.Pair, trade.Side, trade.EntryPrice, trade.Quantity)
	}

	return trade
}

// CheckOpenTrades closes any open position in the pair whose stop loss or
// take profit has been touched. Exits fill at the level itself, not the
// observed price, simulating a resting exit order.
func (t *PaperTrader) CheckOpenTrades(ctx context.Context, pair string, currentPrice float64) {
	t.mu.RLock()
	candidates := make([]*Trade, 0, len(t.open))
	for _, tr := range t.open {
		if tr.Pair == pair {
			candidates = append(candidates, tr)
		}
	}
	t.mu.RUnlock()

	for _, tr := range candidates {
		exitPrice, reason, hit := exitLevel(tr, currentPrice)
		if hit {
			t.CloseTrade(ctx, tr.ID, exitPrice, reason)
		}
	}
}

func exitLevel(tr *Trade, price float64) (float64, string, bool) {
	if tr.Side == string(strategy.ActionBuy) {
		if tr.StopLoss > 0 && price <= tr.StopLoss {
			return tr.StopLoss, CloseReasonStopLoss, true
		}
		if tr.TakeProfit > 0 && price >= tr.TakeProfit {
			return tr.TakeProfit, CloseReasonTakeProfit, true
		}
		return 0, "", false
	}
	if tr.StopLoss > 0 && price >= tr.StopLoss {
		return tr.StopLoss, CloseReasonStopLoss, true
	}
	if tr.TakeProfit > 0 && price <= tr.TakeProfit {
		return tr.TakeProfit, CloseReasonTakeProfit, true
	}
	return 0, "", false
}

// CloseTrade settles an open trade at the given price, updates the
// portfolio, and records the post-trade analysis. Returns the closed trade,
// or nil if no open trade has that ID.
func (t *PaperTrader) CloseTrade(ctx context.Context, id int64, exitPrice float64, reason string) *Trade {
	t.mu.Lock()

	idx := -1
	for i, tr := range t.open {
		if tr.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		t.mu.Unlock()
		return nil
	}
	trade := t.open[idx]
	t.open = append(t.open[:idx], t.open[idx+1:]...)

	var pnl, pnlPercent float64
	if trade.Side == string(strategy.ActionBuy) {
		pnl = (exitPrice - trade.EntryPrice) * trade.Quantity
		pnlPercent = (exitPrice - trade.EntryPrice) / trade.EntryPrice * 100
	} else {
		pnl = (trade.EntryPrice - exitPrice) * trade.Quantity
		pnlPercent = (trade.EntryPrice - exitPrice) / trade.EntryPrice * 100
	}
	pnl = round2(pnl)
	pnlPercent = round2(pnlPercent)

	now := time.Now()
	trade.ExitPrice = exitPrice
	trade.PnL = pnl
	trade.PnLPercent = pnlPercent
	trade.Status = StatusClosed
	trade.CloseReason = reason
	trade.ClosedAt = &now
	t.closed = append(t.closed, trade)

	t.portfolio.Balance += pnl
	t.portfolio.TotalPnL += pnl
	t.portfolio.TotalTrades++
	if pnl > 0 {
		t.portfolio.WinningTrades++
		if pnl > t.portfolio.BestTradePnL {
			t.portfolio.BestTradePnL = pnl
		}
	} else {
		t.portfolio.LosingTrades++
		if pnl < t.portfolio.WorstTradePnL {
			t.portfolio.WorstTradePnL = pnl
		}
	}
	t.portfolio.UpdatedAt = now
	portfolio := t.portfolio
	t.mu.Unlock()

	log := logging.FromContext(ctx, t.log)
	log.Info("trade closed",
		"id", trade.ID, "pair", trade.Pair, "reason", reason,
		"pnl", trade.PnL, "pnl_percent", trade.PnLPercent, "balance", round2(portfolio.Balance))

	// Rebuild the signal shape for the mentor's post-trade review.
	sig := &strategy.Signal{
		Action:     strategy.Action(trade.Side),
		Pair:       trade.Pair,
		Timeframe:  trade.Timeframe,
		Strategy:   trade.Strategy,
		Price:      trade.EntryPrice,
		Confidence: trade.ConfluenceScore,
		StopLoss:   trade.StopLoss,
		TakeProfit: trade.TakeProfit,
	}
	analysis := explainer.GenerateExitExplanation(sig, exitPrice, trade.PnL, trade.PnLPercent)

	if t.recorder != nil {
		if err := t.recorder.RecordClose(ctx, trade, analysis); err != nil {
			log.Warn("failed to persist trade close", "id", trade.ID, "error", err)
		}
		if err := t.recorder.RecordPortfolio(ctx, portfolio); err != nil {
			log.Warn("failed to persist portfolio", "error", err)
		}
	}
	if t.bus != nil {
		t.bus.PublishTradeClosed(trade.ID, trade.Pair, trade.EntryPrice, exitPrice, trade.PnL, trade.PnLPercent, reason)
	}

	return trade
}

// OpenTrades returns a copy of the open positions, newest first.
func (t *PaperTrader) OpenTrades() []*Trade {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Trade, len(t.open))
	for i, tr := range t.open {
		out[len(t.open)-1-i] = tr
	}
	return out
}

// ClosedTrades returns a copy of the closed trades, oldest first.
func (t *PaperTrader) ClosedTrades() []*Trade {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Trade, len(t.closed))
	copy(out, t.closed)
	return out
}

// Portfolio returns the current account state.
func (t *PaperTrader) Portfolio() Portfolio {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.portfolio
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
