// Package strategy holds the signal generators that turn a bar series into
// per-bar trading decisions.
package strategy

import (
	"context"
	"fmt"
	"sort"

	"github.com/wonny/quantsim/internal/contracts"
)

const (
	DefaultCommission = 0.001
	DefaultSlippage   = 0.0005
)

// Strategy produces one decision per bar. Implementations are immutable once
// constructed and safe to call from several goroutines.
type Strategy interface {
	// Name returns a human-readable label including key parameters.
	Name() string

	// Parameters returns a read-only snapshot of the configuration.
	Parameters() map[string]any

	// Costs returns the transaction cost model applied when simulating this strategy.
	Costs() contracts.Costs

	// Decide evaluates the whole series. The result has exactly one decision per bar
	// and decision i only depends on bars 0..i.
	Decide(ctx context.Context, series *contracts.Series) ([]contracts.Decision, error)
}

// DefaultCosts is the commission-only model used by discrete strategies
func DefaultCosts() contracts.Costs {
	return contracts.Costs{Commission: DefaultCommission}
}

// Registry holds named strategies for lookup and enumeration.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{strategies: make(map[string]Strategy)}
}

// Register adds a strategy under key. Duplicate keys are rejected.
func (r *Registry) Register(key string, s Strategy) error {
	if _, exists := r.strategies[key]; exists {
		return fmt.Errorf("strategy %q already registered", key)
	}
	r.strategies[key] = s
	return nil
}

// Get retrieves a strategy by key.
func (r *Registry) Get(key string) (Strategy, bool) {
	s, ok := r.strategies[key]
	return s, ok
}

// List returns the sorted registry keys.
func (r *Registry) List() []string {
	keys := make([]string, 0, len(r.strategies))
	for k := range r.strategies {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// holds returns n HOLD decisions, the starting point of every discrete generator
func holds(n int) []contracts.Decision {
	out := make([]contracts.Decision, n)
	for i := range out {
		out[i] = contracts.HoldDecision()
	}
	return out
}

func checkSeries(ctx context.Context, series *contracts.Series) error {
	if series == nil || series.Len() == 0 {
		return contracts.ErrInsufficientData
	}
	return ctx.Err()
}

func validatePeriods(short, long int) error {
	if short < 1 {
		return contracts.ConfigError{Field: "short_period", Message: "must be >= 1"}
	}
	if short >= long {
		return contracts.ConfigError{Field: "short_period", Message: fmt.Sprintf("must be < long_period (%d >= %d)", short, long)}
	}
	return nil
}

func costParams(p map[string]any, c contracts.Costs) map[string]any {
	p["commission"] = c.Commission
	p["slippage"] = c.Slippage
	p["rebalance_threshold"] = c.RebalanceThreshold
	return p
}
