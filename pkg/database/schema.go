package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is applied idempotently on startup
var schema = []string{
	`CREATE SCHEMA IF NOT EXISTS market`,
	`CREATE TABLE IF NOT EXISTS market.daily_bars (
		symbol      TEXT        NOT NULL,
		trade_date  DATE        NOT NULL,
		open_price  DOUBLE PRECISION NOT NULL,
		high_price  DOUBLE PRECISION NOT NULL,
		low_price   DOUBLE PRECISION NOT NULL,
		close_price DOUBLE PRECISION NOT NULL,
		volume      BIGINT      NOT NULL DEFAULT 0,
		PRIMARY KEY (symbol, trade_date)
	)`,
	`CREATE SCHEMA IF NOT EXISTS audit`,
	`CREATE TABLE IF NOT EXISTS audit.backtest_runs (
		id                BIGSERIAL   PRIMARY KEY,
		run_date          DATE        NOT NULL,
		strategy_key      TEXT        NOT NULL,
		strategy_name     TEXT        NOT NULL,
		config_hash       TEXT        NOT NULL,
		symbol            TEXT        NOT NULL,
		start_date        DATE        NOT NULL,
		end_date          DATE        NOT NULL,
		trading_days      INT         NOT NULL,
		total_return      DOUBLE PRECISION NOT NULL,
		annualized_return DOUBLE PRECISION NOT NULL,
		volatility        DOUBLE PRECISION NOT NULL,
		sharpe            DOUBLE PRECISION NOT NULL,
		max_drawdown      DOUBLE PRECISION NOT NULL,
		trades            INT         NOT NULL,
		win_rate          DOUBLE PRECISION NOT NULL,
		total_cost        DOUBLE PRECISION NOT NULL,
		summary           JSONB       NOT NULL,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (run_date, strategy_key, config_hash, symbol)
	)`,
}

// EnsureSchema creates the market and audit tables if they are missing
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
