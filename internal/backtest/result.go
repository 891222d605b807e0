package backtest

import (
	"github.com/wonny/quantsim/internal/contracts"
)

// Result is a completed simulation of one strategy over one series
type Result struct {
	Strategy       string                   `json:"strategy"`
	Symbol         string                   `json:"symbol"`
	Parameters     map[string]any           `json:"parameters"`
	Costs          contracts.Costs          `json:"costs"`
	InitialCapital float64                  `json:"initial_capital"`
	Bars           []contracts.SimulatedBar `json:"bars"`
	Rebalances     int                      `json:"rebalances"`
	TotalCost      float64                  `json:"total_cost"` // 누적 비용 (수익률 단위)
}

// Weights returns the decided weight of every bar
func (r *Result) Weights() []float64 {
	out := make([]float64, len(r.Bars))
	for i, b := range r.Bars {
		out[i] = b.Weight
	}
	return out
}

// FinalValue returns the last portfolio value
func (r *Result) FinalValue() float64 {
	if len(r.Bars) == 0 {
		return r.InitialCapital
	}
	return r.Bars[len(r.Bars)-1].PortfolioValue
}

// TotalReturn returns final cumulative return minus one
func (r *Result) TotalReturn() float64 {
	if len(r.Bars) == 0 {
		return 0
	}
	return r.Bars[len(r.Bars)-1].CumulativeReturn - 1
}
