package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrRunNotFound is returned when no run matches the query
var ErrRunNotFound = errors.New("backtest run not found")

// Repository persists backtest run summaries
// ⭐ SSOT: Audit 데이터 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new audit repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveRun upserts run keyed by (run_date, strategy_key, config_hash, symbol)
func (r *Repository) SaveRun(ctx context.Context, run Run) error {
	summaryJSON, err := json.Marshal(run.Summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	s := run.Summary
	query := `
		INSERT INTO audit.backtest_runs (
			run_date, strategy_key, strategy_name, config_hash, symbol,
			start_date, end_date, trading_days,
			total_return, annualized_return, volatility, sharpe, max_drawdown,
			trades, win_rate, total_cost, summary
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (run_date, strategy_key, config_hash, symbol) DO UPDATE SET
			strategy_name = EXCLUDED.strategy_name,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			trading_days = EXCLUDED.trading_days,
			total_return = EXCLUDED.total_return,
			annualized_return = EXCLUDED.annualized_return,
			volatility = EXCLUDED.volatility,
			sharpe = EXCLUDED.sharpe,
			max_drawdown = EXCLUDED.max_drawdown,
			trades = EXCLUDED.trades,
			win_rate = EXCLUDED.win_rate,
			total_cost = EXCLUDED.total_cost,
			summary = EXCLUDED.summary
	`

	_, err = r.pool.Exec(ctx, query,
		run.RunDate, run.StrategyKey, run.StrategyName, run.ConfigHash, run.Symbol,
		s.StartDate, s.EndDate, s.TradingDays,
		s.TotalReturn, s.AnnualizedReturn, s.Volatility, s.Sharpe, s.MaxDrawdown,
		s.Trades, s.WinRate, s.TotalCost, summaryJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.StrategyKey, err)
	}
	return nil
}

// GetLatestRun returns the most recent run of strategyKey on symbol
func (r *Repository) GetLatestRun(ctx context.Context, strategyKey, symbol string) (*Run, error) {
	query := `
		SELECT id, run_date, strategy_key, strategy_name, config_hash, symbol, summary, created_at
		FROM audit.backtest_runs
		WHERE strategy_key = $1 AND symbol = $2
		ORDER BY run_date DESC, created_at DESC
		LIMIT 1
	`

	run, err := scanRun(r.pool.QueryRow(ctx, query, strategyKey, symbol))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s/%s: %w", strategyKey, symbol, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns every run recorded for runDate, best total return first
func (r *Repository) ListRuns(ctx context.Context, runDate time.Time) ([]Run, error) {
	query := `
		SELECT id, run_date, strategy_key, strategy_name, config_hash, symbol, summary, created_at
		FROM audit.backtest_runs
		WHERE run_date = $1
		ORDER BY total_return DESC
	`

	rows, err := r.pool.Query(ctx, query, runDate)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

func scanRun(row pgx.Row) (*Run, error) {
	var run Run
	var summaryJSON []byte
	if err := row.Scan(
		&run.ID, &run.RunDate, &run.StrategyKey, &run.StrategyName,
		&run.ConfigHash, &run.Symbol, &summaryJSON, &run.CreatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(summaryJSON, &run.Summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal summary: %w", err)
	}
	return &run, nil
}
