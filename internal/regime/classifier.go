// Package regime classifies market volatility and switches between strategies per regime.
package regime

import (
	"fmt"

	"github.com/wonny/quantsim/internal/contracts"
	"github.com/wonny/quantsim/internal/indicator"
)

// Regime is the volatility state of a bar
type Regime int

const (
	// Undetermined marks bars before the volatility warm-up; they route to the medium strategy
	Undetermined Regime = iota
	Low
	Medium
	High
)

// String returns the regime label
func (r Regime) String() string {
	switch r {
	case Low:
		return "LOW"
	case Medium:
		return "MEDIUM"
	case High:
		return "HIGH"
	default:
		return "UNDETERMINED"
	}
}

// MarshalText renders the label in JSON
func (r Regime) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// ClassifierConfig holds the volatility window and thresholds
type ClassifierConfig struct {
	Period        int
	LowThreshold  float64
	HighThreshold float64
}

// DefaultClassifierConfig uses 20-day volatility with 15% / 25% cut-offs
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{Period: 20, LowThreshold: 0.15, HighThreshold: 0.25}
}

// Classifier labels each bar from lagged realized volatility only. It keeps no
// state between bars, so the label of bar i depends on returns [i-period, i-1].
type Classifier struct {
	cfg ClassifierConfig
}

// NewClassifier validates cfg
func NewClassifier(cfg ClassifierConfig) (*Classifier, error) {
	if cfg.Period < 2 {
		return nil, contracts.ConfigError{Field: "volatility_period", Message: "must be >= 2"}
	}
	if cfg.LowThreshold <= 0 || cfg.LowThreshold >= cfg.HighThreshold {
		return nil, contracts.ConfigError{Field: "low_threshold",
			Message: fmt.Sprintf("require 0 < low (%v) < high (%v)", cfg.LowThreshold, cfg.HighThreshold)}
	}
	return &Classifier{cfg: cfg}, nil
}

// Config returns the classifier configuration
func (c *Classifier) Config() ClassifierConfig { return c.cfg }

// Label maps one volatility reading to a regime
func (c *Classifier) Label(vol float64) Regime {
	switch {
	case vol < c.cfg.LowThreshold:
		return Low
	case vol > c.cfg.HighThreshold:
		return High
	default:
		return Medium
	}
}

// Classify labels every bar and returns the volatility line used
func (c *Classifier) Classify(series *contracts.Series) ([]Regime, indicator.Line) {
	vol := indicator.LaggedVolatility(series.Returns(), c.cfg.Period)

	out := make([]Regime, series.Len())
	for i := range out {
		v, ok := vol.At(i)
		if !ok {
			out[i] = Undetermined
			continue
		}
		out[i] = c.Label(v)
	}
	return out, vol
}
