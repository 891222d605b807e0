package regime

import (
	"github.com/wonny/quantsim/internal/backtest"
	"github.com/wonny/quantsim/internal/strategy"
	"github.com/wonny/quantsim/pkg/logger"
)

// NewDefaultSwitch holds in calm markets, follows the 50/200 trend in normal
// markets and targets 15% volatility in turbulent ones.
func NewDefaultSwitch(runner *backtest.Runner, log *logger.Logger) (*Switch, error) {
	low, err := strategy.NewBuyAndHold(strategy.DefaultCosts())
	if err != nil {
		return nil, err
	}
	medium, err := strategy.NewTrendFollowing(strategy.DefaultTrendFollowingConfig())
	if err != nil {
		return nil, err
	}
	high, err := strategy.NewVolatilityTarget(strategy.DefaultVolatilityTargetConfig())
	if err != nil {
		return nil, err
	}

	return NewSwitch(SwitchConfig{
		Classifier: DefaultClassifierConfig(),
		Low:        low,
		Medium:     medium,
		High:       high,
		Costs:      DefaultSwitchCosts(),
	}, runner, log)
}
