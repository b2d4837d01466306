package trader

import (
	"context"
	"io"
	"testing"

	"crypto-mentor-bot/internal/logging"
	"crypto-mentor-bot/internal/strategy"
)

func testTrader() *PaperTrader {
	log := logging.NewWriter(io.Discard, logging.ERROR, false)
	return New(10000, 5, 3, nil, nil, log)
}

func buySignal(pair string, price, sl, tp float64) *strategy.Signal {
	return &strategy.Signal{
		Action:     strategy.ActionBuy,
		Pair:       pair,
		Timeframe:  "15m",
		Strategy:   "technical_analysis",
		Price:      price,
		Confidence: 4,
		StopLoss:   sl,
		TakeProfit: tp,
	}
}

func TestExecuteTradeSizesPosition(t *testing.T) {
	tr := testTrader()

	trade := tr.ExecuteTrade(context.Background(), buySignal("BTC/USDT", 50000, 49000, 52000))
	if trade == nil {
		t.Fatal("expected a trade to open")
	}
	// 5% of 10000 = 500 at 50000 = 0.01 units.
	if trade.Quantity != 0.01 {
		t.Errorf("expected quantity 0.01, got %v", trade.Quantity)
	}
	if trade.Status != StatusOpen {
		t.Errorf("expected OPEN status, got %s", trade.Status)
	}
	if len(tr.OpenTrades()) != 1 {
		t.Errorf("expected 1 open trade, got %d", len(tr.OpenTrades()))
	}
}

func TestExecuteTradeRejectsDuplicatePair(t *testing.T) {
	tr := testTrader()
	ctx := context.Background()

	if tr.ExecuteTrade(ctx, buySignal("BTC/USDT", 50000, 49000, 52000)) == nil {
		t.Fatal("first trade should open")
	}
	if tr.ExecuteTrade(ctx, buySignal("BTC/USDT", 50100, 49000, 52000)) != nil {
		t.Error("second trade in the same pair must be rejected")
	}
}

func TestExecuteTradeEnforcesMaxOpen(t *testing.T) {
	tr := testTrader()
	ctx := context.Background()

	for i, pair := range []string{"BTC/USDT", "ETH/USDT", "SOL/USDT"} {
		if tr.ExecuteTrade(ctx, buySignal(pair, 100, 95, 110)) == nil {
			t.Fatalf("trade %d should open", i+1)
		}
	}
	if tr.ExecuteTrade(ctx, buySignal("XRP/USDT", 1, 0.9, 1.2)) != nil {
		t.Error("fourth trade must be rejected at the cap of 3")
	}
}

func TestCheckOpenTradesFillsAtTakeProfitLevel(t *testing.T) {
	tr := testTrader()
	ctx := context.Background()

	tr.ExecuteTrade(ctx, buySignal("BTC/USDT", 50000, 49000, 52000))
	// Price gaps past the target; the exit still fills at the level.
	tr.CheckOpenTrades(ctx, "BTC/USDT", 53000)

	closed := tr.ClosedTrades()
	if len(closed) != 1 {
		t.Fatalf("expected 1 closed trade, got %d", len(closed))
	}
	if closed[0].ExitPrice != 52000 {
		t.Errorf("expected exit at the take profit level 52000, got %v", closed[0].ExitPrice)
	}
	if closed[0].CloseReason != CloseReasonTakeProfit {
		t.Errorf("expected TAKE_PROFIT close reason, got %s", closed[0].CloseReason)
	}
	// 0.01 units, 2000 move = +20.
	if closed[0].PnL != 20 {
		t.Errorf("expected pnl 20, got %v", closed[0].PnL)
	}

	p := tr.Portfolio()
	if p.Balance != 10020 {
		t.Errorf("expected balance 10020, got %v", p.Balance)
	}
	if p.WinningTrades != 1 || p.TotalTrades != 1 {
		t.Errorf("portfolio counters wrong: %+v", p)
	}
	if p.WinRate() != 100 {
		t.Errorf("expected 100%% win rate, got %v", p.WinRate())
	}
}

func TestCheckOpenTradesStopLossOnSellSide(t *testing.T) {
	tr := testTrader()
	ctx := context.Background()

	sig := buySignal("BTC/USDT", 50000, 51000, 48000)
	sig.Action = strategy.ActionSell
	tr.ExecuteTrade(ctx, sig)

	// A SELL position is stopped out when price rises through the stop.
	tr.CheckOpenTrades(ctx, "BTC/USDT", 51500)

	closed := tr.ClosedTrades()
	if len(closed) != 1 {
		t.Fatalf("expected 1 closed trade, got %d", len(closed))
	}
	if closed[0].ExitPrice != 51000 {
		t.Errorf("expected exit at the stop level 51000, got %v", closed[0].ExitPrice)
	}
	if closed[0].CloseReason != CloseReasonStopLoss {
		t.Errorf("expected STOP_LOSS close reason, got %s", closed[0].CloseReason)
	}
	// SELL pnl: (50000-51000) * 0.01 = -10.
	if closed[0].PnL != -10 {
		t.Errorf("expected pnl -10, got %v", closed[0].PnL)
	}

	p := tr.Portfolio()
	if p.LosingTrades != 1 {
		t.Errorf("expected 1 losing trade, got %d", p.LosingTrades)
	}
	if p.WorstTradePnL != -10 {
		t.Errorf("expected worst trade -10, got %v", p.WorstTradePnL)
	}
}

func TestCheckOpenTradesIgnoresOtherPairs(t *testing.T) {
	tr := testTrader()
	ctx := context.Background()

	tr.ExecuteTrade(ctx, buySignal("BTC/USDT", 50000, 49000, 52000))
	tr.CheckOpenTrades(ctx, "ETH/USDT", 1)

	if len(tr.OpenTrades()) != 1 {
		t.Error("a price tick in another pair must not touch the position")
	}
}

func TestCloseTradeManually(t *testing.T) {
	tr := testTrader()
	ctx := context.Background()

	trade := tr.ExecuteTrade(ctx, buySignal("BTC/USDT", 50000, 49000, 52000))
	closed := tr.CloseTrade(ctx, trade.ID, 50500, CloseReasonManual)
	if closed == nil {
		t.Fatal("expected the trade to close")
	}
	if closed.PnL != 5 {
		t.Errorf("expected pnl 5, got %v", closed.PnL)
	}

	if tr.CloseTrade(ctx, trade.ID, 50500, CloseReasonManual) != nil {
		t.Error("closing twice must be a no-op")
	}
}
