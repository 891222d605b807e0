package strategy

import (
	"context"
	"fmt"

	"github.com/wonny/quantsim/internal/contracts"
	"github.com/wonny/quantsim/internal/indicator"
)

// MACrossConfig configures the moving-average crossover generator
type MACrossConfig struct {
	ShortPeriod int
	LongPeriod  int
	Costs       contracts.Costs
}

// MACross emits BUY on a golden cross and SELL on a death cross of two SMAs.
type MACross struct {
	cfg MACrossConfig
}

// NewMACross validates cfg and builds the generator
func NewMACross(cfg MACrossConfig) (*MACross, error) {
	if err := validatePeriods(cfg.ShortPeriod, cfg.LongPeriod); err != nil {
		return nil, err
	}
	if err := cfg.Costs.Validate(); err != nil {
		return nil, err
	}
	return &MACross{cfg: cfg}, nil
}

func (s *MACross) Name() string {
	return fmt.Sprintf("MA-Cross(%d,%d)", s.cfg.ShortPeriod, s.cfg.LongPeriod)
}

func (s *MACross) Parameters() map[string]any {
	return costParams(map[string]any{
		"short_period": s.cfg.ShortPeriod,
		"long_period":  s.cfg.LongPeriod,
	}, s.cfg.Costs)
}

func (s *MACross) Costs() contracts.Costs { return s.cfg.Costs }

func (s *MACross) Decide(ctx context.Context, series *contracts.Series) ([]contracts.Decision, error) {
	if err := checkSeries(ctx, series); err != nil {
		return nil, err
	}

	closes := series.Closes()
	short := indicator.SMA(closes, s.cfg.ShortPeriod)
	long := indicator.SMA(closes, s.cfg.LongPeriod)

	out := holds(series.Len())
	for i := 1; i < series.Len(); i++ {
		prevS, ok1 := short.At(i - 1)
		prevL, ok2 := long.At(i - 1)
		currS, ok3 := short.At(i)
		currL, ok4 := long.At(i)
		if !ok1 || !ok2 || !ok3 || !ok4 {
			continue
		}

		switch {
		case prevS <= prevL && currS > currL:
			out[i] = contracts.SignalDecision(contracts.Buy) // 골든크로스
		case prevS >= prevL && currS < currL:
			out[i] = contracts.SignalDecision(contracts.Sell) // 데드크로스
		}
	}
	return out, nil
}
