package strategy

import (
	"context"
	"fmt"

	"github.com/wonny/quantsim/internal/contracts"
	"github.com/wonny/quantsim/internal/indicator"
)

// TrendFollowingConfig configures the trend-following generator
type TrendFollowingConfig struct {
	ShortPeriod int
	LongPeriod  int
	Costs       contracts.Costs
}

// DefaultTrendFollowingConfig returns the 50/200 setup with slippage
func DefaultTrendFollowingConfig() TrendFollowingConfig {
	return TrendFollowingConfig{
		ShortPeriod: 50,
		LongPeriod:  200,
		Costs:       contracts.Costs{Commission: DefaultCommission, Slippage: DefaultSlippage},
	}
}

// TrendFollowing enters when price > short SMA > long SMA and exits only when
// price closes below the long SMA. Anything in between holds.
type TrendFollowing struct {
	cfg TrendFollowingConfig
}

// NewTrendFollowing validates cfg and builds the generator
func NewTrendFollowing(cfg TrendFollowingConfig) (*TrendFollowing, error) {
	if err := validatePeriods(cfg.ShortPeriod, cfg.LongPeriod); err != nil {
		return nil, err
	}
	if err := cfg.Costs.Validate(); err != nil {
		return nil, err
	}
	return &TrendFollowing{cfg: cfg}, nil
}

func (s *TrendFollowing) Name() string {
	return fmt.Sprintf("TrendFollowing(%d,%d)", s.cfg.ShortPeriod, s.cfg.LongPeriod)
}

func (s *TrendFollowing) Parameters() map[string]any {
	return costParams(map[string]any{
		"short_period": s.cfg.ShortPeriod,
		"long_period":  s.cfg.LongPeriod,
	}, s.cfg.Costs)
}

func (s *TrendFollowing) Costs() contracts.Costs { return s.cfg.Costs }

func (s *TrendFollowing) Decide(ctx context.Context, series *contracts.Series) ([]contracts.Decision, error) {
	if err := checkSeries(ctx, series); err != nil {
		return nil, err
	}

	closes := series.Closes()
	short := indicator.SMA(closes, s.cfg.ShortPeriod)
	long := indicator.SMA(closes, s.cfg.LongPeriod)

	out := holds(series.Len())
	inPosition := false
	for i := s.cfg.LongPeriod; i < series.Len(); i++ {
		maS, ok1 := short.At(i)
		maL, ok2 := long.At(i)
		if !ok1 || !ok2 {
			continue
		}
		price := closes[i]

		if !inPosition && price > maS && maS > maL {
			out[i] = contracts.SignalDecision(contracts.Buy)
			inPosition = true
		} else if inPosition && price < maL {
			// 장기선 이탈 시에만 청산
			out[i] = contracts.SignalDecision(contracts.Sell)
			inPosition = false
		}
	}
	return out, nil
}
