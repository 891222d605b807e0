package performance

import (
	"fmt"
	"math"
	"time"

	"github.com/wonny/quantsim/internal/backtest"
	"github.com/wonny/quantsim/internal/contracts"
	"github.com/wonny/quantsim/internal/indicator"
	"github.com/wonny/quantsim/pkg/logger"
)

// DefaultRiskFreeRate is the annual risk-free rate used for Sharpe
const DefaultRiskFreeRate = 0.02

// Analyzer computes performance statistics from a simulated path
// ⭐ SSOT: 성과 지표 계산은 여기서만
type Analyzer struct {
	riskFreeRate float64
	logger       *logger.Logger
}

// NewAnalyzer creates an analyzer with the default risk-free rate
func NewAnalyzer(log *logger.Logger) *Analyzer {
	if log == nil {
		log = logger.NewNop()
	}
	return &Analyzer{riskFreeRate: DefaultRiskFreeRate, logger: log.Module("performance")}
}

// WithRiskFreeRate returns a copy of the analyzer using rate
func (a *Analyzer) WithRiskFreeRate(rate float64) *Analyzer {
	cp := *a
	cp.riskFreeRate = rate
	return &cp
}

// Report is the full analysis of one simulation
type Report struct {
	Strategy string        `json:"strategy"`
	Symbol   string        `json:"symbol"`
	Summary  Summary       `json:"summary"`
	Yearly   []YearlyStats `json:"yearly"`
}

// Summary holds the metrics of a contiguous span of bars.
// Returns and drawdowns are fractions (0.05 = 5%); drawdown is <= 0.
type Summary struct {
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	TradingDays int       `json:"trading_days"`

	// 수익률
	InitialValue     float64 `json:"initial_value"`
	FinalValue       float64 `json:"final_value"`
	TotalReturn      float64 `json:"total_return"`
	AnnualizedReturn float64 `json:"annualized_return"`

	// 리스크 지표
	Volatility          float64 `json:"volatility"`
	Sharpe              float64 `json:"sharpe"`
	MaxDrawdown         float64 `json:"max_drawdown"`
	MaxDrawdownDuration int     `json:"max_drawdown_duration"` // bars
	Calmar              float64 `json:"calmar"`

	// 트레이딩 지표
	Trades          int     `json:"trades"`
	WinningTrades   int     `json:"winning_trades"`
	WinRate         float64 `json:"win_rate"`
	ProfitLossRatio float64 `json:"profit_loss_ratio"`
	Rebalances      int     `json:"rebalances"`
	TotalCost       float64 `json:"total_cost"`

	// 비교
	BenchmarkReturn float64 `json:"benchmark_return"`
	ExcessReturn    float64 `json:"excess_return"`
}

// Analyze computes the summary and yearly breakdown of result
func (a *Analyzer) Analyze(result *backtest.Result) (*Report, error) {
	if result == nil || len(result.Bars) < 2 {
		return nil, contracts.ErrInsufficientData
	}

	report := &Report{
		Strategy: result.Strategy,
		Symbol:   result.Symbol,
		Summary:  a.Summarize(result.Bars, result.InitialCapital),
		Yearly:   a.Yearly(result.Bars, result.InitialCapital),
	}

	a.logger.WithFields(map[string]interface{}{
		"strategy":     report.Strategy,
		"total_return": fmt.Sprintf("%.2f%%", report.Summary.TotalReturn*100),
		"sharpe":       fmt.Sprintf("%.2f", report.Summary.Sharpe),
		"max_drawdown": fmt.Sprintf("%.2f%%", report.Summary.MaxDrawdown*100),
		"trades":       report.Summary.Trades,
	}).Debug("Performance analysis completed")

	return report, nil
}

// Summarize computes all metrics over bars. Returns are measured relative to the
// cumulative value of the first bar, so any contiguous slice can be summarized.
func (a *Analyzer) Summarize(bars []contracts.SimulatedBar, initialCapital float64) Summary {
	if len(bars) == 0 {
		return Summary{}
	}

	first, last := bars[0], bars[len(bars)-1]
	s := Summary{
		StartDate:    first.Date,
		EndDate:      last.Date,
		TradingDays:  len(bars),
		InitialValue: initialCapital * first.CumulativeReturn,
		FinalValue:   last.PortfolioValue,
	}

	s.TotalReturn = a.calculateTotalReturn(bars)
	s.AnnualizedReturn = a.annualize(s.TotalReturn, len(bars))

	s.Volatility = a.calculateVolatility(bars)
	s.Sharpe = a.calculateSharpe(s.AnnualizedReturn, s.Volatility)
	s.MaxDrawdown = a.calculateMaxDrawdown(bars)
	s.MaxDrawdownDuration = a.calculateMaxDrawdownDuration(bars)
	s.Calmar = a.calculateCalmar(s.AnnualizedReturn, s.MaxDrawdown)

	trades := ExtractTrades(bars)
	s.Trades = len(trades)
	s.WinningTrades, s.WinRate = a.calculateWinRate(trades)
	s.ProfitLossRatio = a.calculateProfitLossRatio(trades)

	for _, b := range bars {
		if b.Rebalanced {
			s.Rebalances++
		}
		s.TotalCost += b.Cost
	}

	s.BenchmarkReturn = last.Close/first.Close - 1
	s.ExcessReturn = s.TotalReturn - s.BenchmarkReturn

	return s
}

// calculateTotalReturn is end cumulative value over start cumulative value minus one
func (a *Analyzer) calculateTotalReturn(bars []contracts.SimulatedBar) float64 {
	start := bars[0].CumulativeReturn
	if start == 0 {
		return 0
	}
	return bars[len(bars)-1].CumulativeReturn/start - 1
}

// annualize converts a total return over days bars to a geometric annual rate
func (a *Analyzer) annualize(totalReturn float64, days int) float64 {
	if days == 0 || totalReturn <= -1 {
		return 0
	}
	years := float64(days) / indicator.TradingDaysPerYear
	return math.Pow(1+totalReturn, 1/years) - 1
}

// calculateVolatility is the annualized sample stdev of strategy returns over bars
// that either moved or held a position. Flat idle bars are excluded.
func (a *Analyzer) calculateVolatility(bars []contracts.SimulatedBar) float64 {
	returns := make([]float64, 0, len(bars))
	for _, b := range bars {
		if b.StrategyReturn != 0 || b.InPosition() {
			returns = append(returns, b.StrategyReturn)
		}
	}
	if len(returns) < 2 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns) - 1)

	return math.Sqrt(variance) * math.Sqrt(indicator.TradingDaysPerYear)
}

// calculateSharpe returns 0 when volatility is 0
func (a *Analyzer) calculateSharpe(annualReturn, volatility float64) float64 {
	if volatility == 0 {
		return 0
	}
	return (annualReturn - a.riskFreeRate) / volatility
}

// calculateMaxDrawdown returns the deepest peak-to-trough decline (<= 0)
func (a *Analyzer) calculateMaxDrawdown(bars []contracts.SimulatedBar) float64 {
	peak := 0.0
	maxDD := 0.0
	for _, b := range bars {
		v := b.CumulativeReturn
		if v > peak {
			peak = v
		}
		if peak == 0 {
			continue
		}
		if dd := (v - peak) / peak; dd < maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// calculateMaxDrawdownDuration is the longest run of bars spent below a previous peak
func (a *Analyzer) calculateMaxDrawdownDuration(bars []contracts.SimulatedBar) int {
	peak := 0.0
	current, longest := 0, 0
	for _, b := range bars {
		if b.CumulativeReturn >= peak {
			peak = b.CumulativeReturn
			current = 0
			continue
		}
		current++
		if current > longest {
			longest = current
		}
	}
	return longest
}

// calculateCalmar returns 0 when there was no drawdown
func (a *Analyzer) calculateCalmar(annualReturn, maxDrawdown float64) float64 {
	if maxDrawdown == 0 {
		return 0
	}
	return annualReturn / math.Abs(maxDrawdown)
}
