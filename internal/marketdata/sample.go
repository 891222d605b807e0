package marketdata

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/wonny/quantsim/internal/contracts"
)

// SampleConfig drives the synthetic bar generator
type SampleConfig struct {
	Symbol     string
	Start      time.Time
	Days       int // number of trading bars
	Seed       int64
	StartPrice float64
	DailyVol   float64 // 일간 변동성
	Drift      float64 // 일간 추세
}

// DefaultSampleConfig returns one year of bars from 2023-01-02 with 2% daily noise and a slight up-drift
func DefaultSampleConfig() SampleConfig {
	return SampleConfig{
		Symbol:     "SAMPLE",
		Start:      time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC),
		Days:       252,
		Seed:       42,
		StartPrice: 100,
		DailyVol:   0.02,
		Drift:      0.0003,
	}
}

// GenerateSample builds a deterministic weekday-only random walk.
// Zero fields in cfg fall back to DefaultSampleConfig.
func GenerateSample(cfg SampleConfig) (*contracts.Series, error) {
	def := DefaultSampleConfig()
	if cfg.Symbol == "" {
		cfg.Symbol = def.Symbol
	}
	if cfg.Start.IsZero() {
		cfg.Start = def.Start
	}
	if cfg.Days <= 0 {
		cfg.Days = def.Days
	}
	if cfg.StartPrice <= 0 {
		cfg.StartPrice = def.StartPrice
	}
	if cfg.DailyVol <= 0 {
		cfg.DailyVol = def.DailyVol
	}
	if cfg.Drift == 0 {
		cfg.Drift = def.Drift
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	bars := make([]contracts.Bar, 0, cfg.Days)
	price := cfg.StartPrice

	for date := cfg.Start; len(bars) < cfg.Days; date = date.AddDate(0, 0, 1) {
		if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
			continue
		}

		price *= 1 + rng.NormFloat64()*cfg.DailyVol + cfg.Drift
		if price <= 0 {
			price = 0.01
		}

		open := price * (1 + rng.NormFloat64()*0.005)
		high := math.Max(open, price) * (1 + math.Abs(rng.NormFloat64()*0.01))
		low := math.Min(open, price) * (1 - math.Abs(rng.NormFloat64()*0.01))
		volume := int64(math.Abs(1_000_000 + rng.NormFloat64()*200_000))

		bars = append(bars, contracts.Bar{Date: date, Open: open, High: high, Low: low, Close: price, Volume: volume})
	}

	return contracts.NewSeries(cfg.Symbol, bars)
}

// SampleSource serves generated bars regardless of the requested range
type SampleSource struct {
	Config SampleConfig
}

// LoadSeries implements Source. The date range filters the generated bars.
func (s SampleSource) LoadSeries(ctx context.Context, symbol string, from, to time.Time) (*contracts.Series, error) {
	cfg := s.Config
	cfg.Symbol = symbol
	series, err := GenerateSample(cfg)
	if err != nil {
		return nil, err
	}
	if from.IsZero() && to.IsZero() {
		return series, nil
	}

	var bars []contracts.Bar
	for _, b := range series.Bars() {
		if (from.IsZero() || !b.Date.Before(from)) && (to.IsZero() || !b.Date.After(to)) {
			bars = append(bars, b)
		}
	}
	return contracts.NewSeries(symbol, bars)
}
