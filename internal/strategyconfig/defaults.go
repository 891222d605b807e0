package strategyconfig

// Default returns the reference strategy set: every generator with its standard
// parameters, the 40/40/20 blend and the volatility regime switch.
func Default() *Config {
	return &Config{
		Meta: Meta{ID: "default", Version: "1", Description: "built-in reference strategies"},
		Strategies: []StrategySpec{
			{Name: "ma_cross", Type: TypeMACross, ShortPeriod: 5, LongPeriod: 20},
			{Name: "dual_ma", Type: TypeDualMA, ShortPeriod: 5, LongPeriod: 20},
			{Name: "rsi", Type: TypeRSI, Period: 14, Oversold: float(30), Overbought: float(70)},
			{Name: "trend", Type: TypeTrendFollowing, ShortPeriod: 50, LongPeriod: 200},
			{Name: "vol_target", Type: TypeVolatilityTarget, Period: 20, TargetVol: float(0.15), MaxWeight: float(1), MinWeight: float(0.1)},
			{Name: "buy_hold", Type: TypeBuyAndHold},
			{Name: "combined", Type: TypeComposite, Allocations: []AllocationSpec{
				{Strategy: "trend", Weight: 0.4},
				{Strategy: "vol_target", Weight: 0.4},
				{Strategy: "buy_hold", Weight: 0.2},
			}},
			{Name: "regime", Type: TypeRegimeSwitch, Regime: &RegimeSpec{
				VolatilityPeriod: 20, LowThreshold: float(0.15), HighThreshold: float(0.25),
				Low: "buy_hold", Medium: "trend", High: "vol_target",
			}},
		},
	}
}

func float(v float64) *float64 { return &v }
