package strategy

import (
	"context"
	"fmt"

	"github.com/wonny/quantsim/internal/contracts"
	"github.com/wonny/quantsim/internal/indicator"
)

// RSIConfig configures the RSI mean-reversion generator
type RSIConfig struct {
	Period     int
	Oversold   float64
	Overbought float64
	Costs      contracts.Costs
}

// DefaultRSIConfig returns RSI(14) with 30/70 bands
func DefaultRSIConfig() RSIConfig {
	return RSIConfig{Period: 14, Oversold: 30, Overbought: 70, Costs: DefaultCosts()}
}

// RSI buys when RSI leaves the oversold zone and sells when it leaves the overbought zone.
type RSI struct {
	cfg RSIConfig
}

// NewRSI validates cfg and builds the generator
func NewRSI(cfg RSIConfig) (*RSI, error) {
	if cfg.Period < 1 {
		return nil, contracts.ConfigError{Field: "period", Message: "must be >= 1"}
	}
	if cfg.Oversold >= cfg.Overbought {
		return nil, contracts.ConfigError{Field: "oversold", Message: "must be < overbought"}
	}
	if cfg.Oversold < 0 || cfg.Overbought > 100 {
		return nil, contracts.ConfigError{Field: "overbought", Message: "thresholds must lie in [0, 100]"}
	}
	if err := cfg.Costs.Validate(); err != nil {
		return nil, err
	}
	return &RSI{cfg: cfg}, nil
}

func (s *RSI) Name() string {
	return fmt.Sprintf("RSI(%d,%.0f,%.0f)", s.cfg.Period, s.cfg.Oversold, s.cfg.Overbought)
}

func (s *RSI) Parameters() map[string]any {
	return costParams(map[string]any{
		"period":     s.cfg.Period,
		"oversold":   s.cfg.Oversold,
		"overbought": s.cfg.Overbought,
	}, s.cfg.Costs)
}

func (s *RSI) Costs() contracts.Costs { return s.cfg.Costs }

func (s *RSI) Decide(ctx context.Context, series *contracts.Series) ([]contracts.Decision, error) {
	if err := checkSeries(ctx, series); err != nil {
		return nil, err
	}

	rsi := indicator.RSI(series.Closes(), s.cfg.Period)

	out := holds(series.Len())
	inPosition := false
	for i := s.cfg.Period + 1; i < series.Len(); i++ {
		curr, ok1 := rsi.At(i)
		prev, ok2 := rsi.At(i - 1)
		if !ok1 || !ok2 {
			continue
		}

		if !inPosition && prev <= s.cfg.Oversold && curr > s.cfg.Oversold {
			out[i] = contracts.SignalDecision(contracts.Buy)
			inPosition = true
		} else if inPosition && prev >= s.cfg.Overbought && curr < s.cfg.Overbought {
			out[i] = contracts.SignalDecision(contracts.Sell)
			inPosition = false
		}
	}
	return out, nil
}
