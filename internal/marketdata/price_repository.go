package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/quantsim/internal/contracts"
)

// PriceRepository reads daily bars from PostgreSQL
// ⭐ SSOT: 가격 데이터 조회는 여기서만
type PriceRepository struct {
	pool *pgxpool.Pool
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(pool *pgxpool.Pool) *PriceRepository {
	return &PriceRepository{pool: pool}
}

// LoadSeries implements Source
func (r *PriceRepository) LoadSeries(ctx context.Context, symbol string, from, to time.Time) (*contracts.Series, error) {
	bars, err := r.GetBars(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no bars for %s between %s and %s: %w",
			symbol, from.Format("2006-01-02"), to.Format("2006-01-02"), contracts.ErrInsufficientData)
	}
	return contracts.NewSeries(symbol, bars)
}

// GetBars retrieves bars for a symbol within a date range, oldest first
func (r *PriceRepository) GetBars(ctx context.Context, symbol string, from, to time.Time) ([]contracts.Bar, error) {
	query := `
		SELECT trade_date, open_price, high_price, low_price, close_price, volume
		FROM market.daily_bars
		WHERE symbol = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, symbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("query bars: %w", err)
	}
	defer rows.Close()

	var bars []contracts.Bar
	for rows.Next() {
		var b contracts.Bar
		if err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// GetLatestDate returns the most recent trade date stored for symbol
func (r *PriceRepository) GetLatestDate(ctx context.Context, symbol string) (time.Time, error) {
	var date time.Time
	err := r.pool.QueryRow(ctx,
		`SELECT MAX(trade_date) FROM market.daily_bars WHERE symbol = $1`, symbol,
	).Scan(&date)
	if err != nil {
		return time.Time{}, fmt.Errorf("get latest date: %w", err)
	}
	return date, nil
}

// SaveBars upserts bars for symbol
func (r *PriceRepository) SaveBars(ctx context.Context, symbol string, bars []contracts.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	query := `
		INSERT INTO market.daily_bars (symbol, trade_date, open_price, high_price, low_price, close_price, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (symbol, trade_date) DO UPDATE SET
			open_price = EXCLUDED.open_price,
			high_price = EXCLUDED.high_price,
			low_price = EXCLUDED.low_price,
			close_price = EXCLUDED.close_price,
			volume = EXCLUDED.volume
	`

	for _, b := range bars {
		if _, err := r.pool.Exec(ctx, query, symbol, b.Date, b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			return fmt.Errorf("save bar %s: %w", b.Date.Format("2006-01-02"), err)
		}
	}
	return nil
}
