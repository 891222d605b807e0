package contracts

import (
	"errors"
	"fmt"
)

// ErrInsufficientData is returned when a series is empty or too short to evaluate.
var ErrInsufficientData = errors.New("insufficient data")

// ConfigError reports an invalid strategy or simulation parameter.
// Raised at construction time, never mid-run.
type ConfigError struct {
	Field   string
	Message string
}

func (e ConfigError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Message)
}

// DataQualityError reports a bar or derived value that cannot be simulated
// (non-positive close, NaN or Inf return, unordered dates).
type DataQualityError struct {
	Index   int
	Message string
}

func (e DataQualityError) Error() string {
	return fmt.Sprintf("data quality error at bar %d: %s", e.Index, e.Message)
}
