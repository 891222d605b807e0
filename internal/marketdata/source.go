// Package marketdata loads daily bar series for backtesting.
package marketdata

import (
	"context"
	"time"

	"github.com/wonny/quantsim/internal/contracts"
)

// Source loads a validated bar series for one symbol
type Source interface {
	LoadSeries(ctx context.Context, symbol string, from, to time.Time) (*contracts.Series, error)
}
