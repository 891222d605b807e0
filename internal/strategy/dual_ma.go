package strategy

import (
	"context"
	"fmt"

	"github.com/wonny/quantsim/internal/contracts"
	"github.com/wonny/quantsim/internal/indicator"
)

// DualMAConfig configures the dual moving-average trend generator
type DualMAConfig struct {
	ShortPeriod int
	LongPeriod  int
	Costs       contracts.Costs
}

// DualMA buys when the short SMA is above the long SMA and price crosses up
// through the short SMA; it exits when price falls below the short SMA or the
// short SMA falls below the long SMA.
type DualMA struct {
	cfg DualMAConfig
}

// NewDualMA validates cfg and builds the generator
func NewDualMA(cfg DualMAConfig) (*DualMA, error) {
	if err := validatePeriods(cfg.ShortPeriod, cfg.LongPeriod); err != nil {
		return nil, err
	}
	if err := cfg.Costs.Validate(); err != nil {
		return nil, err
	}
	return &DualMA{cfg: cfg}, nil
}

func (s *DualMA) Name() string {
	return fmt.Sprintf("Dual-MA(%d,%d)", s.cfg.ShortPeriod, s.cfg.LongPeriod)
}

func (s *DualMA) Parameters() map[string]any {
	return costParams(map[string]any{
		"short_period": s.cfg.ShortPeriod,
		"long_period":  s.cfg.LongPeriod,
	}, s.cfg.Costs)
}

func (s *DualMA) Costs() contracts.Costs { return s.cfg.Costs }

func (s *DualMA) Decide(ctx context.Context, series *contracts.Series) ([]contracts.Decision, error) {
	if err := checkSeries(ctx, series); err != nil {
		return nil, err
	}

	closes := series.Closes()
	short := indicator.SMA(closes, s.cfg.ShortPeriod)
	long := indicator.SMA(closes, s.cfg.LongPeriod)

	out := holds(series.Len())
	inPosition := false
	for i := s.cfg.LongPeriod; i < series.Len(); i++ {
		currS, ok1 := short.At(i)
		currL, ok2 := long.At(i)
		prevS, ok3 := short.At(i - 1)
		if !ok1 || !ok2 || !ok3 {
			continue
		}
		price, prevPrice := closes[i], closes[i-1]

		if !inPosition && currS > currL && prevPrice <= prevS && price > currS {
			out[i] = contracts.SignalDecision(contracts.Buy)
			inPosition = true
		} else if inPosition && (price < currS || currS < currL) {
			out[i] = contracts.SignalDecision(contracts.Sell)
			inPosition = false
		}
	}
	return out, nil
}
