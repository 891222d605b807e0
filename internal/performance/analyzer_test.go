package performance

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/quantsim/internal/backtest"
	"github.com/wonny/quantsim/internal/contracts"
	"github.com/wonny/quantsim/internal/marketdata"
	"github.com/wonny/quantsim/internal/strategy"
)

var day0 = time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)

// pathOf builds simulated bars from cumulative values; closes track the same path
func pathOf(cums ...float64) []contracts.SimulatedBar {
	bars := make([]contracts.SimulatedBar, len(cums))
	for i, c := range cums {
		bars[i] = contracts.SimulatedBar{
			Date:             day0.AddDate(0, 0, i),
			Close:            100 * c,
			Weight:           1,
			CumulativeReturn: c,
			PortfolioValue:   1000 * c,
		}
		if i > 0 {
			bars[i].StrategyReturn = c/cums[i-1] - 1
		}
	}
	return bars
}

func TestSummarize_Drawdown(t *testing.T) {
	a := NewAnalyzer(nil)
	s := a.Summarize(pathOf(1, 1.2, 0.9, 1.0, 1.3), 1000)

	assert.InDelta(t, 0.3, s.TotalReturn, 1e-12)
	assert.InDelta(t, -0.25, s.MaxDrawdown, 1e-12)
	assert.Equal(t, 2, s.MaxDrawdownDuration)
	assert.InDelta(t, s.AnnualizedReturn/0.25, s.Calmar, 1e-9)
	assert.InDelta(t, 0.0, s.ExcessReturn, 1e-12)
	assert.InDelta(t, 1300.0, s.FinalValue, 1e-9)
}

func TestSummarize_ConstantPrices(t *testing.T) {
	a := NewAnalyzer(nil)
	bars := pathOf(1, 1, 1, 1, 1)
	for i := range bars {
		bars[i].Weight = 0
	}
	s := a.Summarize(bars, 1000)

	assert.Equal(t, 0.0, s.TotalReturn)
	assert.Equal(t, 0.0, s.Volatility)
	assert.Equal(t, 0.0, s.Sharpe)
	assert.Equal(t, 0.0, s.MaxDrawdown)
	assert.Equal(t, 0.0, s.Calmar)
	assert.Equal(t, 0, s.MaxDrawdownDuration)
}

func TestAnnualize(t *testing.T) {
	a := NewAnalyzer(nil)
	assert.InDelta(t, 0.10, a.annualize(0.10, 252), 1e-12)
	assert.InDelta(t, math.Pow(1.21, 0.5)-1, a.annualize(0.21, 504), 1e-12)
	assert.Equal(t, 0.0, a.annualize(0.5, 0))
	assert.Equal(t, 0.0, a.annualize(-1, 100))
}

func TestVolatility_ExcludesIdleFlatBars(t *testing.T) {
	a := NewAnalyzer(nil)
	bars := []contracts.SimulatedBar{
		{StrategyReturn: 0, Weight: 0},
		{StrategyReturn: 0, Weight: 0},
		{StrategyReturn: 0.01, Weight: 1},
		{StrategyReturn: -0.01, Weight: 1},
	}
	// sample stdev of {0.01, -0.01} = sqrt(0.0002)
	assert.InDelta(t, math.Sqrt(0.0002)*math.Sqrt(252), a.calculateVolatility(bars), 1e-12)
}

func TestSharpe(t *testing.T) {
	a := NewAnalyzer(nil)
	assert.InDelta(t, (0.12-0.02)/0.2, a.calculateSharpe(0.12, 0.2), 1e-12)
	assert.Equal(t, 0.0, a.calculateSharpe(0.12, 0))
	assert.InDelta(t, 0.6, a.WithRiskFreeRate(0).calculateSharpe(0.12, 0.2), 1e-12)
}

func TestExtractTrades(t *testing.T) {
	closes := []float64{10, 11, 12, 12, 9, 8}
	signals := []contracts.Signal{contracts.Buy, contracts.Hold, contracts.Sell, contracts.Buy, contracts.Sell, contracts.Sell}
	bars := make([]contracts.SimulatedBar, len(closes))
	for i := range bars {
		bars[i] = contracts.SimulatedBar{Date: day0.AddDate(0, 0, i), Close: closes[i], Signal: signals[i]}
	}

	trades := ExtractTrades(bars)
	require.Len(t, trades, 2)
	assert.Equal(t, 2.0, trades[0].PnL)
	assert.Equal(t, -3.0, trades[1].PnL)

	a := NewAnalyzer(nil)
	wins, rate := a.calculateWinRate(trades)
	assert.Equal(t, 1, wins)
	assert.Equal(t, 0.5, rate)
	assert.InDelta(t, 2.0/3.0, a.calculateProfitLossRatio(trades), 1e-12)
}

func TestExtractTrades_LaterBuyMovesEntry(t *testing.T) {
	bars := []contracts.SimulatedBar{
		{Close: 10, Signal: contracts.Buy},
		{Close: 20, Signal: contracts.Buy},
		{Close: 15, Signal: contracts.Sell},
	}
	trades := ExtractTrades(bars)
	require.Len(t, trades, 1)
	assert.Equal(t, 20.0, trades[0].EntryPrice)
	assert.False(t, trades[0].Won())
}

func TestProfitLossRatio_NoLosses(t *testing.T) {
	a := NewAnalyzer(nil)
	assert.Equal(t, 0.0, a.calculateProfitLossRatio([]Trade{{PnL: 5}}))
	assert.Equal(t, 0.0, a.calculateProfitLossRatio(nil))
}

func TestYearly(t *testing.T) {
	dates := []time.Time{
		time.Date(2022, 12, 29, 0, 0, 0, 0, time.UTC),
		time.Date(2022, 12, 30, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 1, 4, 0, 0, 0, 0, time.UTC),
	}
	bars := pathOf(1, 1.1, 1.21, 1.331)
	for i := range bars {
		bars[i].Date = dates[i]
	}

	years := NewAnalyzer(nil).Yearly(bars, 1000)
	require.Len(t, years, 2)

	assert.Equal(t, 2022, years[0].Year)
	assert.Equal(t, 2, years[0].TradingDays)
	assert.InDelta(t, 0.1, years[0].TotalReturn, 1e-12)

	assert.Equal(t, 2023, years[1].Year)
	assert.InDelta(t, 0.1, years[1].TotalReturn, 1e-12)
	assert.InDelta(t, 1210.0, years[1].InitialValue, 1e-9)
}

func TestAnalyze_BuyAndHold(t *testing.T) {
	series, err := marketdata.GenerateSample(marketdata.SampleConfig{Days: 600, Seed: 11})
	require.NoError(t, err)
	strat, err := strategy.NewBuyAndHold(strategy.DefaultCosts())
	require.NoError(t, err)

	result, err := backtest.NewRunner(backtest.NewSimulator(100000), nil).Run(context.Background(), strat, series)
	require.NoError(t, err)

	report, err := NewAnalyzer(nil).Analyze(result)
	require.NoError(t, err)

	assert.Equal(t, "BuyAndHold", report.Strategy)
	assert.InDelta(t, report.Summary.BenchmarkReturn, report.Summary.TotalReturn, 1e-9)
	assert.InDelta(t, 0, report.Summary.ExcessReturn, 1e-9)
	assert.LessOrEqual(t, report.Summary.MaxDrawdown, 0.0)
	assert.Greater(t, report.Summary.Volatility, 0.0)
	assert.Equal(t, 0, report.Summary.Trades)
	assert.GreaterOrEqual(t, len(report.Yearly), 3)

	days := 0
	for _, y := range report.Yearly {
		days += y.TradingDays
	}
	assert.Equal(t, series.Len(), days)
}

func TestAnalyze_Empty(t *testing.T) {
	_, err := NewAnalyzer(nil).Analyze(&backtest.Result{})
	assert.ErrorIs(t, err, contracts.ErrInsufficientData)
	_, err = NewAnalyzer(nil).Analyze(nil)
	assert.ErrorIs(t, err, contracts.ErrInsufficientData)
	_, err = NewAnalyzer(nil).Analyze(&backtest.Result{Bars: pathOf(1)})
	assert.ErrorIs(t, err, contracts.ErrInsufficientData)
}
