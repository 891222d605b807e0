package strategyconfig

// Config는 백테스트 전략 정의 파일 전체
type Config struct {
	Meta       Meta           `yaml:"meta" json:"meta"`
	Backtest   Backtest       `yaml:"backtest" json:"backtest"`
	Strategies []StrategySpec `yaml:"strategies" json:"strategies"`
}

// Meta 메타 정보
type Meta struct {
	ID          string `yaml:"id" json:"id"`
	Version     string `yaml:"version" json:"version"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Backtest holds run-level settings; zero values fall back to environment config
type Backtest struct {
	Symbol         string  `yaml:"symbol,omitempty" json:"symbol,omitempty"`
	InitialCapital float64 `yaml:"initial_capital,omitempty" json:"initial_capital,omitempty"`
	From           string  `yaml:"from,omitempty" json:"from,omitempty"` // YYYY-MM-DD
	To             string  `yaml:"to,omitempty" json:"to,omitempty"`     // YYYY-MM-DD
}

// Strategy types
const (
	TypeMACross          = "ma_cross"
	TypeDualMA           = "dual_ma"
	TypeRSI              = "rsi"
	TypeTrendFollowing   = "trend_following"
	TypeVolatilityTarget = "volatility_target"
	TypeBuyAndHold       = "buy_and_hold"
	TypeComposite        = "composite"
	TypeRegimeSwitch     = "regime_switch"
)

// StrategySpec defines one named strategy. Only the fields of its type are used.
type StrategySpec struct {
	Name string `yaml:"name" json:"name"`
	Type string `yaml:"type" json:"type"`

	// ma_cross, dual_ma, trend_following
	ShortPeriod int `yaml:"short_period,omitempty" json:"short_period,omitempty"`
	LongPeriod  int `yaml:"long_period,omitempty" json:"long_period,omitempty"`

	// rsi, volatility_target
	// nil float fields keep the type's default; an explicit 0 is kept
	Period     int      `yaml:"period,omitempty" json:"period,omitempty"`
	Oversold   *float64 `yaml:"oversold,omitempty" json:"oversold,omitempty"`
	Overbought *float64 `yaml:"overbought,omitempty" json:"overbought,omitempty"`

	// volatility_target
	TargetVol *float64 `yaml:"target_vol,omitempty" json:"target_vol,omitempty"`
	MaxWeight *float64 `yaml:"max_weight,omitempty" json:"max_weight,omitempty"`
	MinWeight *float64 `yaml:"min_weight,omitempty" json:"min_weight,omitempty"`

	// composite
	Allocations []AllocationSpec `yaml:"allocations,omitempty" json:"allocations,omitempty"`

	// regime_switch
	Regime *RegimeSpec `yaml:"regime,omitempty" json:"regime,omitempty"`

	Costs *CostsSpec `yaml:"costs,omitempty" json:"costs,omitempty"`
}

// AllocationSpec references another strategy by name
type AllocationSpec struct {
	Strategy string  `yaml:"strategy" json:"strategy"`
	Weight   float64 `yaml:"weight" json:"weight"`
}

// RegimeSpec maps volatility regimes to strategy names
type RegimeSpec struct {
	VolatilityPeriod int      `yaml:"volatility_period,omitempty" json:"volatility_period,omitempty"`
	LowThreshold     *float64 `yaml:"low_threshold,omitempty" json:"low_threshold,omitempty"`
	HighThreshold    *float64 `yaml:"high_threshold,omitempty" json:"high_threshold,omitempty"`
	Low              string   `yaml:"low" json:"low"`
	Medium           string   `yaml:"medium" json:"medium"`
	High             string   `yaml:"high" json:"high"`
}

// CostsSpec overrides the type's default cost model; nil fields keep the default
type CostsSpec struct {
	Commission         *float64 `yaml:"commission,omitempty" json:"commission,omitempty"`
	Slippage           *float64 `yaml:"slippage,omitempty" json:"slippage,omitempty"`
	RebalanceThreshold *float64 `yaml:"rebalance_threshold,omitempty" json:"rebalance_threshold,omitempty"`
}

// References returns the strategy names this spec depends on
func (s StrategySpec) References() []string {
	var refs []string
	for _, a := range s.Allocations {
		refs = append(refs, a.Strategy)
	}
	if s.Regime != nil {
		refs = append(refs, s.Regime.Low, s.Regime.Medium, s.Regime.High)
	}
	return refs
}

// AllocationSum returns the sum of composite weights
func (s StrategySpec) AllocationSum() float64 {
	sum := 0.0
	for _, a := range s.Allocations {
		sum += a.Weight
	}
	return sum
}

// Find returns the spec named name
func (c *Config) Find(name string) (StrategySpec, bool) {
	for _, s := range c.Strategies {
		if s.Name == name {
			return s, true
		}
	}
	return StrategySpec{}, false
}
