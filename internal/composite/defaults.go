package composite

import (
	"github.com/wonny/quantsim/internal/backtest"
	"github.com/wonny/quantsim/internal/strategy"
	"github.com/wonny/quantsim/pkg/logger"
)

// NewDefault builds the reference blend: 40% trend following, 40% volatility
// target and 20% buy-and-hold.
func NewDefault(runner *backtest.Runner, log *logger.Logger) (*Composer, error) {
	trend, err := strategy.NewTrendFollowing(strategy.DefaultTrendFollowingConfig())
	if err != nil {
		return nil, err
	}
	vol, err := strategy.NewVolatilityTarget(strategy.DefaultVolatilityTargetConfig())
	if err != nil {
		return nil, err
	}
	hold, err := strategy.NewBuyAndHold(strategy.DefaultCosts())
	if err != nil {
		return nil, err
	}

	return New(Config{
		Name: "Combined(Trend40/VolTarget40/Hold20)",
		Allocations: []Allocation{
			{Strategy: trend, Weight: 0.4},
			{Strategy: vol, Weight: 0.4},
			{Strategy: hold, Weight: 0.2},
		},
		Costs: DefaultCosts(),
	}, runner, log)
}
