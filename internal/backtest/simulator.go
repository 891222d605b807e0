package backtest

import (
	"fmt"
	"math"

	"github.com/wonny/quantsim/internal/contracts"
)

// DefaultInitialCapital is the starting portfolio value when none is configured
const DefaultInitialCapital = 100000.0

// Simulator turns per-bar decisions into a portfolio path.
// ⭐ SSOT: 비중/비용/누적수익률 계산은 여기서만
//
// The weight decided at the close of bar i only earns bar i+1's return.
type Simulator struct {
	initialCapital float64
}

// NewSimulator creates a simulator. Non-positive capital falls back to DefaultInitialCapital.
func NewSimulator(initialCapital float64) *Simulator {
	if initialCapital <= 0 {
		initialCapital = DefaultInitialCapital
	}
	return &Simulator{initialCapital: initialCapital}
}

// InitialCapital returns the starting portfolio value
func (s *Simulator) InitialCapital() float64 { return s.initialCapital }

// Simulate runs the portfolio state machine over series with one decision per bar.
// At least two bars are required to produce a return.
func (s *Simulator) Simulate(series *contracts.Series, decisions []contracts.Decision, costs contracts.Costs) (*Result, error) {
	if series == nil || series.Len() < 2 {
		return nil, contracts.ErrInsufficientData
	}
	if len(decisions) != series.Len() {
		return nil, fmt.Errorf("decision count %d does not match bar count %d", len(decisions), series.Len())
	}
	if err := costs.Validate(); err != nil {
		return nil, err
	}

	result := &Result{
		Symbol:         series.Symbol(),
		Costs:          costs,
		InitialCapital: s.initialCapital,
		Bars:           make([]contracts.SimulatedBar, series.Len()),
	}

	prevWeight := 0.0
	cumulative := 1.0

	for i := 0; i < series.Len(); i++ {
		bar := series.At(i)
		d := decisions[i]

		weight, err := nextWeight(prevWeight, d)
		if err != nil {
			return nil, contracts.DataQualityError{Index: i, Message: err.Error()}
		}

		sb := contracts.SimulatedBar{
			Date:       bar.Date,
			Close:      bar.Close,
			Signal:     d.Signal,
			Weight:     weight,
			HeldWeight: prevWeight,
		}

		// 첫 바는 수익률/비용 없음
		if i > 0 {
			sb.DailyReturn = series.Return(i)
			sb.StrategyReturn = prevWeight * sb.DailyReturn

			delta := math.Abs(weight - prevWeight)
			if delta > costs.RebalanceThreshold {
				sb.Cost = delta * costs.Rate()
				sb.StrategyReturn -= sb.Cost
				sb.Rebalanced = true
				result.Rebalances++
				result.TotalCost += sb.Cost
			}

			if math.IsNaN(sb.StrategyReturn) || math.IsInf(sb.StrategyReturn, 0) {
				return nil, contracts.DataQualityError{Index: i, Message: "non-finite strategy return"}
			}
			cumulative *= 1 + sb.StrategyReturn
		}

		sb.CumulativeReturn = cumulative
		sb.PortfolioValue = s.initialCapital * cumulative
		result.Bars[i] = sb

		prevWeight = weight
	}

	return result, nil
}

// nextWeight resolves the weight held after a decision.
// Continuous decisions set it directly; discrete ones only flip between flat and fully invested.
func nextWeight(prev float64, d contracts.Decision) (float64, error) {
	if d.HasWeight {
		if math.IsNaN(d.Weight) || math.IsInf(d.Weight, 0) || d.Weight < 0 {
			return 0, fmt.Errorf("invalid target weight %v", d.Weight)
		}
		return d.Weight, nil
	}

	switch {
	case d.Signal == contracts.Buy && prev == 0:
		return 1, nil
	case d.Signal == contracts.Sell && prev > 0:
		return 0, nil
	default:
		return prev, nil
	}
}
