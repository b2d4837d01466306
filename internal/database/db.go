package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"crypto-mentor-bot/internal/logging"
)

// DB wraps the PostgreSQL connection pool
type DB struct {
	Pool *pgxpool.Pool
	log  *logging.Logger
}

// NewDB creates a new database connection from a postgres URL.
func NewDB(url string, log *logging.Logger) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	db := &DB{Pool: pool, log: log.WithComponent("database")}
	db.log.Info("connected to PostgreSQL")
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
		db.log.Info("database connection closed")
	}
}

// RunMigrations creates the schema if it does not exist.
func (db *DB) RunMigrations(ctx context.Context) error {
	db.log.Info("running database migrations")

	migrations := []string{
		`CREATE TABLE IF NOT EXISTS trades (
			id BIGINT PRIMARY KEY,
			pair VARCHAR(20) NOT NULL,
			side VARCHAR(4) NOT NULL,
			entry_price DOUBLE PRECISION NOT NULL,
			exit_price DOUBLE PRECISION,
			quantity DOUBLE PRECISION NOT NULL,
			stop_loss DOUBLE PRECISION,
			take_profit DOUBLE PRECISION,
			status VARCHAR(10) NOT NULL DEFAULT 'OPEN',
			pnl DOUBLE PRECISION,
			pnl_percent DOUBLE PRECISION,
			strategy VARCHAR(200) NOT NULL,
			timeframe VARCHAR(5) NOT NULL,
			confluence_score INTEGER DEFAULT 0,
			close_reason VARCHAR(20),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			closed_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_status ON trades(status)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_pair ON trades(pair)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_created_at ON trades(created_at)`,

		`CREATE TABLE IF NOT EXISTS trade_explanations (
			id BIGSERIAL PRIMARY KEY,
			trade_id BIGINT NOT NULL REFERENCES trades(id) ON DELETE CASCADE,
			reasons JSONB NOT NULL,
			indicators JSONB,
			setup_description TEXT NOT NULL,
			learning_points JSONB NOT NULL,
			risk_reward DOUBLE PRECISION,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trade_explanations_trade_id ON trade_explanations(trade_id)`,

		`CREATE TABLE IF NOT EXISTS post_analyses (
			id BIGSERIAL PRIMARY KEY,
			trade_id BIGINT NOT NULL REFERENCES trades(id) ON DELETE CASCADE,
			result_summary TEXT NOT NULL,
			what_went_right JSONB,
			what_went_wrong JSONB,
			improvements JSONB,
			lesson TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_post_analyses_trade_id ON post_analyses(trade_id)`,

		`CREATE TABLE IF NOT EXISTS market_snapshots (
			id BIGSERIAL PRIMARY KEY,
			trade_id BIGINT NOT NULL REFERENCES trades(id) ON DELETE CASCADE,
			pair VARCHAR(20) NOT NULL,
			price DOUBLE PRECISION NOT NULL,
			rsi DOUBLE PRECISION,
			macd DOUBLE PRECISION,
			macd_signal DOUBLE PRECISION,
			ema_9 DOUBLE PRECISION,
			ema_21 DOUBLE PRECISION,
			ema_50 DOUBLE PRECISION,
			ema_200 DOUBLE PRECISION,
			volume DOUBLE PRECISION,
			avg_volume DOUBLE PRECISION,
			bb_upper DOUBLE PRECISION,
			bb_lower DOUBLE PRECISION,
			atr DOUBLE PRECISION,
			adx DOUBLE PRECISION,
			support_level DOUBLE PRECISION,
			resistance_level DOUBLE PRECISION,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_market_snapshots_trade_id ON market_snapshots(trade_id)`,

		`CREATE TABLE IF NOT EXISTS portfolio (
			id SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
			balance DOUBLE PRECISION NOT NULL,
			total_pnl DOUBLE PRECISION NOT NULL DEFAULT 0,
			total_trades INTEGER NOT NULL DEFAULT 0,
			winning_trades INTEGER NOT NULL DEFAULT 0,
			losing_trades INTEGER NOT NULL DEFAULT 0,
			best_trade_pnl DOUBLE PRECISION NOT NULL DEFAULT 0,
			worst_trade_pnl DOUBLE PRECISION NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS strategy_configs (
			name VARCHAR(50) PRIMARY KEY,
			enabled BOOLEAN NOT NULL DEFAULT TRUE,
			parameters JSONB NOT NULL DEFAULT '{}',
			description TEXT,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	db.log.Info("database migrations complete")
	return nil
}
