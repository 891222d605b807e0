package indicator

import (
	"fmt"
	"math"

	"github.com/wonny/quantsim/internal/contracts"
)

// TradingDaysPerYear is the annualization factor for daily data
const TradingDaysPerYear = 252

// Kind identifies a single-line indicator
type Kind int

const (
	KindSMA Kind = iota + 1
	KindEMA
	KindRSI
	KindVolatility
	KindATR
)

// String returns the indicator label, e.g. "SMA"
func (k Kind) String() string {
	switch k {
	case KindSMA:
		return "SMA"
	case KindEMA:
		return "EMA"
	case KindRSI:
		return "RSI"
	case KindVolatility:
		return "HV"
	case KindATR:
		return "ATR"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Spec names one indicator line over a period
type Spec struct {
	Kind   Kind
	Period int
}

// String returns e.g. "SMA50"
func (s Spec) String() string { return fmt.Sprintf("%s%d", s.Kind, s.Period) }

// Compute evaluates spec over the series.
// ⭐ SSOT: 전략은 지표를 직접 계산하지 않고 이 패키지를 통해서만 사용
func Compute(series *contracts.Series, spec Spec) (Line, error) {
	if spec.Period < 1 {
		return Line{}, contracts.ConfigError{Field: spec.Kind.String() + ".period", Message: "must be >= 1"}
	}

	switch spec.Kind {
	case KindSMA:
		return SMA(series.Closes(), spec.Period), nil
	case KindEMA:
		return EMA(series.Closes(), spec.Period), nil
	case KindRSI:
		return RSI(series.Closes(), spec.Period), nil
	case KindVolatility:
		return LaggedVolatility(series.Returns(), spec.Period), nil
	case KindATR:
		return ATR(series.Bars(), spec.Period), nil
	default:
		return Line{}, contracts.ConfigError{Field: "kind", Message: fmt.Sprintf("unknown indicator %d", int(spec.Kind))}
	}
}

// SMA is the simple moving average of the last period closes, defined from index period-1
func SMA(closes []float64, period int) Line {
	line := newLine(len(closes))
	if period < 1 {
		return line
	}

	var sum float64
	for i, c := range closes {
		sum += c
		if i >= period {
			sum -= closes[i-period]
		}
		if i >= period-1 {
			line.set(i, sum/float64(period))
		}
	}
	return line
}

// EMA is seeded with the SMA of the first period closes at index period-1,
// then folded left to right with multiplier 2/(period+1).
func EMA(closes []float64, period int) Line {
	line := newLine(len(closes))
	if period < 1 || len(closes) < period {
		return line
	}

	var sum float64
	for i := 0; i < period; i++ {
		sum += closes[i]
	}
	ema := sum / float64(period)
	line.set(period-1, ema)

	multiplier := 2.0 / (float64(period) + 1.0)
	for i := period; i < len(closes); i++ {
		ema = (closes[i]-ema)*multiplier + ema
		line.set(i, ema)
	}
	return line
}

// RSI uses simple average gain and loss over the last period price changes.
// Defined from index period. Zero average loss yields 100.
func RSI(closes []float64, period int) Line {
	line := newLine(len(closes))
	if period < 1 {
		return line
	}

	changes := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		changes[i] = closes[i] - closes[i-1]
	}

	for i := period; i < len(closes); i++ {
		var gain, loss float64
		for j := i - period + 1; j <= i; j++ {
			if changes[j] > 0 {
				gain += changes[j]
			} else {
				loss -= changes[j]
			}
		}

		avgGain := gain / float64(period)
		avgLoss := loss / float64(period)
		if avgLoss == 0 {
			line.set(i, 100)
			continue
		}
		rs := avgGain / avgLoss
		line.set(i, 100-100/(1+rs))
	}
	return line
}

// LaggedVolatility is the annualized sample standard deviation of the returns in
// [i-period, i-1]. It never includes bar i's own return. Defined from index period.
func LaggedVolatility(returns []float64, period int) Line {
	line := newLine(len(returns))
	if period < 1 {
		return line
	}

	annualization := math.Sqrt(TradingDaysPerYear)
	for i := period; i < len(returns); i++ {
		line.set(i, sampleStdDev(returns[i-period:i])*annualization)
	}
	return line
}

// ATR is the simple average of the true range over the last period bars, defined from index period
func ATR(bars []contracts.Bar, period int) Line {
	line := newLine(len(bars))
	if period < 1 {
		return line
	}

	tr := make([]float64, len(bars))
	for i := 1; i < len(bars); i++ {
		curr, prev := bars[i], bars[i-1]
		tr[i] = math.Max(curr.High-curr.Low,
			math.Max(math.Abs(curr.High-prev.Close), math.Abs(curr.Low-prev.Close)))
	}

	for i := period; i < len(bars); i++ {
		var sum float64
		for j := i - period + 1; j <= i; j++ {
			sum += tr[j]
		}
		line.set(i, sum/float64(period))
	}
	return line
}

// sampleStdDev returns the n-1 standard deviation; fewer than two samples yields 0
func sampleStdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}

	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))

	var variance float64
	for _, x := range xs {
		d := x - mean
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(xs)-1))
}
