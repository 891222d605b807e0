package commands

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/wonny/quantsim/internal/indicator"
	"github.com/wonny/quantsim/internal/performance"
	"github.com/wonny/quantsim/internal/service"
)

// ═══════════════════════════════════════════════════════════
// 출력 포맷 (모든 커맨드 공통)
// ═══════════════════════════════════════════════════════════

const (
	heavyRule = "═══════════════════════════════════════════════════════════════════════════════════════════"
	lightRule = "───────────────────────────────────────────────────────────────────────────────────────────"
)

func pct(v float64) string { return fmt.Sprintf("%.2f%%", v*100) }

func printRunHeader(outcomes []*service.Outcome, configHash string) {
	fmt.Println()
	fmt.Println(heavyRule)
	fmt.Println("  Backtest Report")
	fmt.Println(lightRule)
	if len(outcomes) > 0 {
		s := outcomes[0].Report.Summary
		fmt.Printf("  Symbol    : %s\n", outcomes[0].Report.Symbol)
		fmt.Printf("  Period    : %s ~ %s (%d bars)\n",
			s.StartDate.Format("2006-01-02"), s.EndDate.Format("2006-01-02"), s.TradingDays)
		fmt.Printf("  Benchmark : %s (buy and hold, no costs)\n", pct(s.BenchmarkReturn))
	}
	fmt.Printf("  Config    : %s\n", shortHash(configHash))
	fmt.Println(heavyRule)
}

func printSummaryTable(outcomes []*service.Outcome) {
	fmt.Printf("%-36s %9s %9s %8s %7s %9s %6s %7s %8s\n",
		"Strategy", "Total", "CAGR", "Vol", "Sharpe", "MaxDD", "Trades", "WinRate", "Cost")
	fmt.Println(lightRule)
	for _, out := range outcomes {
		s := out.Report.Summary
		name := out.Report.Strategy
		if len(name) > 36 {
			name = name[:33] + "..."
		}
		cached := ""
		if out.Cached {
			cached = " *"
		}
		fmt.Printf("%-36s %9s %9s %8s %7.2f %9s %6d %7s %8.4f%s\n",
			name, pct(s.TotalReturn), pct(s.AnnualizedReturn), pct(s.Volatility),
			s.Sharpe, pct(s.MaxDrawdown), s.Trades, pct(s.WinRate), s.TotalCost, cached)
	}
	fmt.Println(lightRule)
}

func printDetails(out *service.Outcome, yearly bool) {
	if out.Regime == nil && len(out.Components) == 0 && !yearly {
		return
	}

	fmt.Printf("\n[%s] %s\n", out.Key, out.Report.Strategy)

	if out.Regime != nil {
		regimes := make([]string, 0, len(out.Regime.DaysPerRegime))
		for r := range out.Regime.DaysPerRegime {
			regimes = append(regimes, r)
		}
		sort.Strings(regimes)
		parts := make([]string, len(regimes))
		for i, r := range regimes {
			parts[i] = fmt.Sprintf("%s=%d", r, out.Regime.DaysPerRegime[r])
		}
		fmt.Printf("  Regimes   : %s, %d switches\n", strings.Join(parts, " "), out.Regime.Switches)
	}

	for _, c := range out.Components {
		fmt.Printf("  Component : %-32s %9s  final %.0f\n", c.Strategy, pct(c.TotalReturn), c.FinalValue)
	}

	if yearly {
		printYearly(out.Report.Yearly)
	}
}

func printYearly(years []performance.YearlyStats) {
	fmt.Printf("  %-6s %9s %8s %7s %9s %6s\n", "Year", "Return", "Vol", "Sharpe", "MaxDD", "Trades")
	for _, y := range years {
		fmt.Printf("  %-6d %9s %8s %7.2f %9s %6d\n",
			y.Year, pct(y.TotalReturn), pct(y.Volatility), y.Sharpe, pct(y.MaxDrawdown), y.Trades)
	}
}

func printIndicatorRows(symbol string, cols []indicator.Column, rows []indicator.Row) {
	fmt.Println()
	fmt.Printf("  Indicators: %s\n", symbol)
	fmt.Println(lightRule)
	fmt.Printf("  %-10s %10s", "Date", "Close")
	for _, c := range cols {
		fmt.Printf(" %11s", c.Name)
	}
	fmt.Println()
	for _, r := range rows {
		fmt.Printf("  %-10s %10.2f", r.Date.Format("2006-01-02"), r.Close)
		for _, c := range cols {
			if v := r.Values[c.Name]; v != nil {
				fmt.Printf(" %11.4f", *v)
			} else {
				fmt.Printf(" %11s", "-")
			}
		}
		fmt.Println()
	}
}

func printStrategyList(infos []service.StrategyInfo, configHash string) {
	fmt.Println()
	fmt.Println(heavyRule)
	fmt.Printf("  Strategies (config %s)\n", shortHash(configHash))
	fmt.Println(lightRule)
	for _, info := range infos {
		fmt.Printf("  %-14s %-18s %s\n", info.Key, info.Type, info.Name)
	}
	fmt.Println(heavyRule)
}

func printCompletion(n int, d time.Duration) {
	fmt.Println()
	fmt.Printf("✅ %d strategies completed in %.2fs\n", n, d.Seconds())
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
