package strategy

import (
	"context"

	"github.com/wonny/quantsim/internal/contracts"
)

// BuyAndHold is fully invested from the first bar. Used as a benchmark and as a
// composer/regime component.
type BuyAndHold struct {
	costs contracts.Costs
}

// NewBuyAndHold builds the benchmark strategy
func NewBuyAndHold(costs contracts.Costs) (*BuyAndHold, error) {
	if err := costs.Validate(); err != nil {
		return nil, err
	}
	return &BuyAndHold{costs: costs}, nil
}

func (s *BuyAndHold) Name() string { return "BuyAndHold" }

func (s *BuyAndHold) Parameters() map[string]any { return costParams(map[string]any{}, s.costs) }

func (s *BuyAndHold) Costs() contracts.Costs { return s.costs }

func (s *BuyAndHold) Decide(ctx context.Context, series *contracts.Series) ([]contracts.Decision, error) {
	if err := checkSeries(ctx, series); err != nil {
		return nil, err
	}

	out := make([]contracts.Decision, series.Len())
	for i := range out {
		out[i] = contracts.WeightDecision(contracts.Hold, 1.0)
	}
	out[0].Signal = contracts.Buy
	return out, nil
}
