package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/quantsim/internal/marketdata"
	"github.com/wonny/quantsim/internal/strategyconfig"
	"github.com/wonny/quantsim/pkg/redis"
)

const testStrategies = `
meta: {id: service_test}
backtest: {symbol: TEST}
strategies:
  - {name: hold, type: buy_and_hold}
  - {name: cross, type: ma_cross, short_period: 5, long_period: 20}
  - {name: vol, type: volatility_target}
  - name: blend
    type: composite
    allocations:
      - {strategy: hold, weight: 0.5}
      - {strategy: vol, weight: 0.5}
  - name: switch
    type: regime_switch
    regime: {low: hold, medium: cross, high: vol}
`

func newTestService(t *testing.T) *Service {
	t.Helper()
	cfg, err := strategyconfig.Parse([]byte(testStrategies))
	require.NoError(t, err)

	svc, err := New(Options{
		Strategies: cfg,
		Source:     marketdata.SampleSource{Config: marketdata.SampleConfig{Days: 300, Seed: 5}},
		Cache:      redis.NewCache(redis.Disabled(), "test", time.Minute),
	})
	require.NoError(t, err)
	return svc
}

func TestNew_RequiresSource(t *testing.T) {
	cfg, err := strategyconfig.Parse([]byte(testStrategies))
	require.NoError(t, err)

	_, err = New(Options{Strategies: cfg})
	assert.Error(t, err)
}

func TestService_Strategies(t *testing.T) {
	svc := newTestService(t)

	infos := svc.Strategies()
	require.Len(t, infos, 5)
	assert.Equal(t, "blend", infos[0].Key)
	assert.Equal(t, strategyconfig.TypeComposite, infos[0].Type)
	assert.Len(t, svc.ConfigHash(), 64)
}

func TestService_Run(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		key        string
		regime     bool
		components int
	}{
		{key: "hold"},
		{key: "cross"},
		{key: "blend", components: 2},
		{key: "switch", regime: true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			out, err := svc.Run(ctx, Request{Strategy: tt.key})
			require.NoError(t, err)

			assert.Equal(t, tt.key, out.Key)
			assert.Equal(t, "TEST", out.Report.Symbol)
			assert.Equal(t, 300, out.Report.Summary.TradingDays)
			assert.False(t, out.Cached)
			assert.Len(t, out.Components, tt.components)
			assert.Equal(t, tt.regime, out.Regime != nil)
			if tt.regime {
				total := 0
				for _, n := range out.Regime.DaysPerRegime {
					total += n
				}
				assert.Equal(t, 300, total)
			}
		})
	}
}

func TestService_RunUnknownStrategy(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Run(context.Background(), Request{Strategy: "nope"})
	assert.True(t, errors.Is(err, ErrUnknownStrategy))
}

func TestService_RunAll(t *testing.T) {
	svc := newTestService(t)

	outcomes, err := svc.RunAll(context.Background(), Request{Symbol: "ALT"})
	require.NoError(t, err)
	require.Len(t, outcomes, 5)
	for _, out := range outcomes {
		assert.Equal(t, "ALT", out.Report.Symbol)
	}

	ranked := Rank(outcomes)
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Report.Summary.Sharpe, ranked[i].Report.Summary.Sharpe)
	}

	// without an audit repository Record does nothing
	assert.NoError(t, svc.Record(context.Background(), time.Now(), outcomes))
}

func TestService_LoadSeriesWindow(t *testing.T) {
	svc := newTestService(t)

	from := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2023, 3, 31, 0, 0, 0, 0, time.UTC)
	series, err := svc.LoadSeries(context.Background(), Request{From: from, To: to})
	require.NoError(t, err)
	assert.Equal(t, 23, series.Len())
}
