package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"crypto-mentor-bot/config"
	"crypto-mentor-bot/internal/explainer"
	"crypto-mentor-bot/internal/trader"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Repository provides data access methods. It implements trader.Recorder.
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// HealthCheck performs a database health check
func (r *Repository) HealthCheck(ctx context.Context) error {
	return r.db.Pool.Ping(ctx)
}

// ============================================================================
// TRADE LIFECYCLE (trader.Recorder)
// ============================================================================

// RecordOpen persists a newly opened trade with its entry explanation and
// the market snapshot that produced it.
func (r *Repository) RecordOpen(ctx context.Context, t *trader.Trade, entry *explainer.EntryExplanation) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO trades (id, pair, side, entry_price, quantity, stop_loss, take_profit,
		                    status, strategy, timeframe, confluence_score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		t.ID, t.Pair, t.Side, t.EntryPrice, t.Quantity, t.StopLoss, t.TakeProfit,
		t.Status, t.Strategy, t.Timeframe, t.ConfluenceScore, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}

	reasons, err := json.Marshal(entry.Reasons)
	if err != nil {
		return err
	}
	learning, err := json.Marshal(entry.LearningPoints)
	if err != nil {
		return err
	}
	var indicators []byte
	if entry.Indicators != nil {
		if indicators, err = json.Marshal(entry.Indicators); err != nil {
			return err
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO trade_explanations (trade_id, reasons, indicators, setup_description, learning_points, risk_reward)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, reasons, indicators, entry.FullText, learning, entry.Setup.RiskReward,
	)
	if err != nil {
		return fmt.Errorf("insert explanation: %w", err)
	}

	if snap := entry.Indicators; snap != nil {
		_, err = tx.Exec(ctx, `
			INSERT INTO market_snapshots (trade_id, pair, price, rsi, macd, macd_signal,
			                              ema_9, ema_21, ema_50, ema_200, volume, avg_volume,
			                              bb_upper, bb_lower, atr, adx, support_level, resistance_level)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
			t.ID, t.Pair, snap.Price, snap.RSI, snap.MACD, snap.MACDSignal,
			snap.EMA9, snap.EMA21, snap.EMA50, snap.EMA200, snap.Volume, snap.AvgVolume,
			snap.BBUpper, snap.BBLower, snap.ATR, snap.ADX, snap.Support, snap.Resistance,
		)
		if err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// RecordClose updates a closed trade and stores the post-trade analysis.
func (r *Repository) RecordClose(ctx context.Context, t *trader.Trade, analysis *explainer.ExitAnalysis) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE trades
		SET exit_price = $2, pnl = $3, pnl_percent = $4, status = $5, close_reason = $6, closed_at = $7
		WHERE id = $1`,
		t.ID, t.ExitPrice, t.PnL, t.PnLPercent, t.Status, t.CloseReason, t.ClosedAt,
	)
	if err != nil {
		return fmt.Errorf("update trade: %w", err)
	}

	right, err := json.Marshal(analysis.WhatWentRight)
	if err != nil {
		return err
	}
	wrong, err := json.Marshal(analysis.WhatWentWrong)
	if err != nil {
		return err
	}
	improvements, err := json.Marshal(analysis.Improvements)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO post_analyses (trade_id, result_summary, what_went_right, what_went_wrong, improvements, lesson)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, analysis.ResultSummary, right, wrong, improvements, analysis.Lesson,
	)
	if err != nil {
		return fmt.Errorf("insert post analysis: %w", err)
	}

	return tx.Commit(ctx)
}

// RecordPortfolio upserts the single portfolio row.
func (r *Repository) RecordPortfolio(ctx context.Context, p trader.Portfolio) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO portfolio (id, balance, total_pnl, total_trades, winning_trades,
		                       losing_trades, best_trade_pnl, worst_trade_pnl, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			balance = EXCLUDED.balance,
			total_pnl = EXCLUDED.total_pnl,
			total_trades = EXCLUDED.total_trades,
			winning_trades = EXCLUDED.winning_trades,
			losing_trades = EXCLUDED.losing_trades,
			best_trade_pnl = EXCLUDED.best_trade_pnl,
			worst_trade_pnl = EXCLUDED.worst_trade_pnl,
			updated_at = EXCLUDED.updated_at`,
		p.Balance, p.TotalPnL, p.TotalTrades, p.WinningTrades,
		p.LosingTrades, p.BestTradePnL, p.WorstTradePnL, p.UpdatedAt,
	)
	return err
}

// LoadPortfolio returns the persisted portfolio, or found=false when the
// table is empty (first run).
func (r *Repository) LoadPortfolio(ctx context.Context) (trader.Portfolio, bool, error) {
	var p trader.Portfolio
	err := r.db.Pool.QueryRow(ctx, `
		SELECT balance, total_pnl, total_trades, winning_trades, losing_trades,
		       best_trade_pnl, worst_trade_pnl, updated_at
		FROM portfolio WHERE id = 1`,
	).Scan(&p.Balance, &p.TotalPnL, &p.TotalTrades, &p.WinningTrades, &p.LosingTrades,
		&p.BestTradePnL, &p.WorstTradePnL, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return p, false, nil
	}
	if err != nil {
		return p, false, err
	}
	return p, true, nil
}

// ============================================================================
// TRADE QUERIES
// ============================================================================

// GetOpenTrades returns all open trades, used to restore state at startup.
func (r *Repository) GetOpenTrades(ctx context.Context) ([]*trader.Trade, error) {
	return r.queryTrades(ctx, `
		SELECT `+tradeColumns+` FROM trades WHERE status = 'OPEN' ORDER BY created_at`)
}

// MaxTradeID returns the highest trade id ever assigned, 0 when empty.
func (r *Repository) MaxTradeID(ctx context.Context) (int64, error) {
	var id int64
	err := r.db.Pool.QueryRow(ctx, `SELECT COALESCE(MAX(id), 0) FROM trades`).Scan(&id)
	return id, err
}

// GetTrades returns trade history, newest first, with optional filters.
func (r *Repository) GetTrades(ctx context.Context, status, strategyFilter string, limit, offset int) ([]*trader.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades`
	var conds []string
	var args []interface{}

	if status != "" {
		args = append(args, strings.ToUpper(status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if strategyFilter != "" {
		args = append(args, "%"+strategyFilter+"%")
		conds = append(conds, fmt.Sprintf("strategy LIKE $%d", len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	return r.queryTrades(ctx, query, args...)
}

const tradeColumns = `id, pair, side, entry_price, exit_price, quantity, stop_loss, take_profit,
	status, pnl, pnl_percent, strategy, timeframe, confluence_score, close_reason, created_at, closed_at`

func (r *Repository) queryTrades(ctx context.Context, query string, args ...interface{}) ([]*trader.Trade, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []*trader.Trade
	for rows.Next() {
		t := &trader.Trade{}
		var exitPrice, pnl, pnlPercent *float64
		var closeReason *string
		err := rows.Scan(
			&t.ID, &t.Pair, &t.Side, &t.EntryPrice, &exitPrice, &t.Quantity,
			&t.StopLoss, &t.TakeProfit, &t.Status, &pnl, &pnlPercent,
			&t.Strategy, &t.Timeframe, &t.ConfluenceScore, &closeReason,
			&t.CreatedAt, &t.ClosedAt,
		)
		if err != nil {
			return nil, err
		}
		if exitPrice != nil {
			t.ExitPrice = *exitPrice
		}
		if pnl != nil {
			t.PnL = *pnl
		}
		if pnlPercent != nil {
			t.PnLPercent = *pnlPercent
		}
		if closeReason != nil {
			t.CloseReason = *closeReason
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// TradeDetail bundles a trade with its stored teaching records.
type TradeDetail struct {
	Trade       *trader.Trade    `json:"trade"`
	Explanation *ExplanationRow  `json:"explanation,omitempty"`
	PostAnalysis *PostAnalysisRow `json:"post_analysis,omitempty"`
}

// ExplanationRow is the stored entry explanation for a trade.
type ExplanationRow struct {
	FullText       string          `json:"full_text"`
	Reasons        []string        `json:"reasons"`
	LearningPoints []string        `json:"learning_points"`
	RiskReward     float64         `json:"risk_reward"`
	Indicators     json.RawMessage `json:"indicators,omitempty"`
}

// PostAnalysisRow is the stored post-trade review for a trade.
type PostAnalysisRow struct {
	ResultSummary string   `json:"result_summary"`
	WhatWentRight []string `json:"what_went_right"`
	WhatWentWrong []string `json:"what_went_wrong"`
	Improvements  []string `json:"improvements"`
	Lesson        string   `json:"lesson"`
}

// GetTradeDetail returns one trade with its explanation and post-analysis.
func (r *Repository) GetTradeDetail(ctx context.Context, id int64) (*TradeDetail, error) {
	trades, err := r.queryTrades(ctx, `SELECT `+tradeColumns+` FROM trades WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(trades) == 0 {
		return nil, ErrNotFound
	}
	detail := &TradeDetail{Trade: trades[0]}

	var exp ExplanationRow
	var reasons, learning []byte
	err = r.db.Pool.QueryRow(ctx, `
		SELECT setup_description, reasons, learning_points, COALESCE(risk_reward, 0), indicators
		FROM trade_explanations WHERE trade_id = $1`, id,
	).Scan(&exp.FullText, &reasons, &learning, &exp.RiskReward, &exp.Indicators)
	if err == nil {
		if err := json.Unmarshal(reasons, &exp.Reasons); err == nil {
			_ = json.Unmarshal(learning, &exp.LearningPoints)
			detail.Explanation = &exp
		}
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	var pa PostAnalysisRow
	var right, wrong, improvements []byte
	err = r.db.Pool.QueryRow(ctx, `
		SELECT result_summary, what_went_right, what_went_wrong, improvements, lesson
		FROM post_analyses WHERE trade_id = $1`, id,
	).Scan(&pa.ResultSummary, &right, &wrong, &improvements, &pa.Lesson)
	if err == nil {
		_ = json.Unmarshal(right, &pa.WhatWentRight)
		_ = json.Unmarshal(wrong, &pa.WhatWentWrong)
		_ = json.Unmarshal(improvements, &pa.Improvements)
		detail.PostAnalysis = &pa
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	return detail, nil
}

// ============================================================================
// STRATEGY CONFIGS
// ============================================================================

// SaveStrategyConfigs upserts the strategy configuration rows.
func (r *Repository) SaveStrategyConfigs(ctx context.Context, configs []config.StrategyConfig) error {
	for _, sc := range configs {
		params, err := json.Marshal(sc.Parameters)
		if err != nil {
			return err
		}
		_, err = r.db.Pool.Exec(ctx, `
			INSERT INTO strategy_configs (name, enabled, parameters, updated_at)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (name) DO UPDATE SET
				enabled = EXCLUDED.enabled,
				parameters = EXCLUDED.parameters,
				updated_at = NOW()`,
			sc.Name, sc.Enabled, params,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// LoadStrategyConfigs returns the persisted strategy configurations, or nil
// when none have been stored yet.
func (r *Repository) LoadStrategyConfigs(ctx context.Context) ([]config.StrategyConfig, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT name, enabled, parameters FROM strategy_configs ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []config.StrategyConfig
	for rows.Next() {
		var sc config.StrategyConfig
		var params []byte
		if err := rows.Scan(&sc.Name, &sc.Enabled, &params); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(params, &sc.Parameters); err != nil {
			return nil, err
		}
		configs = append(configs, sc)
	}
	return configs, rows.Err()
}
