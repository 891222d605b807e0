package contracts

import "time"

// Signal is a discrete trading instruction
type Signal int

const (
	Hold Signal = 0
	Buy  Signal = 1
	Sell Signal = -1
)

// String returns the signal label
func (s Signal) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "HOLD"
	}
}

// Decision is one bar's output of a strategy: a discrete signal and, for
// continuous strategies, a target weight in [0, maxWeight].
type Decision struct {
	Signal    Signal  `json:"signal"`
	Weight    float64 `json:"weight,omitempty"`
	HasWeight bool    `json:"has_weight"`
}

// HoldDecision is the decision emitted during warm-up or when nothing changes
func HoldDecision() Decision { return Decision{Signal: Hold} }

// SignalDecision wraps a discrete signal
func SignalDecision(s Signal) Decision { return Decision{Signal: s} }

// WeightDecision sets a continuous target weight
func WeightDecision(s Signal, w float64) Decision {
	return Decision{Signal: s, Weight: w, HasWeight: true}
}

// Costs holds the transaction cost model of a strategy
type Costs struct {
	Commission         float64 `json:"commission" yaml:"commission"`                   // 수수료율
	Slippage           float64 `json:"slippage" yaml:"slippage"`                       // 슬리피지율
	RebalanceThreshold float64 `json:"rebalance_threshold" yaml:"rebalance_threshold"` // |Δw| 초과 시에만 비용 부과
}

// Rate returns commission + slippage
func (c Costs) Rate() float64 { return c.Commission + c.Slippage }

// Validate checks that all rates are non-negative
func (c Costs) Validate() error {
	if c.Commission < 0 {
		return ConfigError{"costs.commission", "must be >= 0"}
	}
	if c.Slippage < 0 {
		return ConfigError{"costs.slippage", "must be >= 0"}
	}
	if c.RebalanceThreshold < 0 {
		return ConfigError{"costs.rebalance_threshold", "must be >= 0"}
	}
	return nil
}

// SimulatedBar is one bar of a completed simulation
type SimulatedBar struct {
	Date             time.Time `json:"date"`
	Close            float64   `json:"close"`
	Signal           Signal    `json:"signal"`
	Weight           float64   `json:"weight"`      // 해당 바 종가 기준 결정된 비중
	HeldWeight       float64   `json:"held_weight"` // 해당 바 수익률에 적용된 비중 (직전 바 결정)
	DailyReturn      float64   `json:"daily_return"`
	StrategyReturn   float64   `json:"strategy_return"`
	Cost             float64   `json:"cost"`
	Rebalanced       bool      `json:"rebalanced"`
	CumulativeReturn float64   `json:"cumulative_return"` // 1.0 = 원금
	PortfolioValue   float64   `json:"portfolio_value"`
}

// InPosition reports whether a non-zero weight is held after this bar
func (b SimulatedBar) InPosition() bool { return b.Weight > 0 }
