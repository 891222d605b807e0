package strategyconfig

import (
	"fmt"
	"math"
	"time"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

var knownTypes = map[string]bool{
	TypeMACross:          true,
	TypeDualMA:           true,
	TypeRSI:              true,
	TypeTrendFollowing:   true,
	TypeVolatilityTarget: true,
	TypeBuyAndHold:       true,
	TypeComposite:        true,
	TypeRegimeSwitch:     true,
}

// Validate checks structural constraints. Parameter ranges are checked again by
// the strategy constructors when the file is built.
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.ID == "" {
		return ValidationError{"meta.id", "required"}
	}

	// === Backtest ===
	if cfg.Backtest.InitialCapital < 0 {
		return ValidationError{"backtest.initial_capital", "must be >= 0"}
	}
	from, err := parseDate(cfg.Backtest.From)
	if err != nil {
		return ValidationError{"backtest.from", err.Error()}
	}
	to, err := parseDate(cfg.Backtest.To)
	if err != nil {
		return ValidationError{"backtest.to", err.Error()}
	}
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		return ValidationError{"backtest", "from must be before to"}
	}

	// === Strategies ===
	if len(cfg.Strategies) == 0 {
		return ValidationError{"strategies", "must not be empty"}
	}

	names := make(map[string]bool, len(cfg.Strategies))
	for i, s := range cfg.Strategies {
		field := fmt.Sprintf("strategies[%d]", i)
		if s.Name == "" {
			return ValidationError{field + ".name", "required"}
		}
		if names[s.Name] {
			return ValidationError{field + ".name", fmt.Sprintf("duplicate name %q", s.Name)}
		}
		names[s.Name] = true

		if !knownTypes[s.Type] {
			return ValidationError{field + ".type", fmt.Sprintf("unknown type %q", s.Type)}
		}
		if err := validateSpec(field, s); err != nil {
			return err
		}
	}

	for i, s := range cfg.Strategies {
		for _, ref := range s.References() {
			if !names[ref] {
				return ValidationError{fmt.Sprintf("strategies[%d]", i), fmt.Sprintf("references undefined strategy %q", ref)}
			}
		}
	}

	return checkCycles(cfg)
}

func validateSpec(field string, s StrategySpec) error {
	switch s.Type {
	case TypeComposite:
		if len(s.Allocations) == 0 {
			return ValidationError{field + ".allocations", "must not be empty"}
		}
		for j, a := range s.Allocations {
			if a.Weight < 0 {
				return ValidationError{fmt.Sprintf("%s.allocations[%d].weight", field, j), "must be >= 0"}
			}
		}
	case TypeRegimeSwitch:
		if s.Regime == nil {
			return ValidationError{field + ".regime", "required"}
		}
		if s.Regime.Low == "" || s.Regime.Medium == "" || s.Regime.High == "" {
			return ValidationError{field + ".regime", "low, medium and high are required"}
		}
	default:
		if len(s.Allocations) > 0 || s.Regime != nil {
			return ValidationError{field, fmt.Sprintf("type %s does not take allocations or regime", s.Type)}
		}
	}

	if s.Costs != nil {
		for name, v := range map[string]*float64{
			"commission":          s.Costs.Commission,
			"slippage":            s.Costs.Slippage,
			"rebalance_threshold": s.Costs.RebalanceThreshold,
		} {
			if v != nil && *v < 0 {
				return ValidationError{field + ".costs." + name, "must be >= 0"}
			}
		}
	}
	return nil
}

// checkCycles rejects composites or regimes that reference themselves
func checkCycles(cfg *Config) error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(cfg.Strategies))

	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		switch state[name] {
		case visiting:
			return ValidationError{"strategies", fmt.Sprintf("reference cycle: %v", append(path, name))}
		case done:
			return nil
		}
		state[name] = visiting
		spec, _ := cfg.Find(name)
		for _, ref := range spec.References() {
			if err := visit(ref, append(path, name)); err != nil {
				return err
			}
		}
		state[name] = done
		return nil
	}

	for _, s := range cfg.Strategies {
		if err := visit(s.Name, nil); err != nil {
			return err
		}
	}
	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	for _, s := range cfg.Strategies {
		if s.Type == TypeComposite && math.Abs(s.AllocationSum()-1) > 0.001 {
			warnings = append(warnings, Warning{
				Code:    "ALLOCATION_SUM",
				Message: fmt.Sprintf("%s: allocations sum to %.4f, weights are used as given", s.Name, s.AllocationSum()),
			})
		}
		if s.Costs != nil && s.Costs.Commission != nil && *s.Costs.Commission > 0.01 {
			warnings = append(warnings, Warning{
				Code:    "HIGH_COMMISSION",
				Message: fmt.Sprintf("%s: commission above 1%% per trade", s.Name),
			})
		}
	}

	return warnings
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("must be YYYY-MM-DD")
	}
	return t, nil
}

// DateRange returns the parsed backtest window; zero values mean unbounded
func (c *Config) DateRange() (time.Time, time.Time) {
	from, _ := parseDate(c.Backtest.From)
	to, _ := parseDate(c.Backtest.To)
	return from, to
}
