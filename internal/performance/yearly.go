package performance

import (
	"github.com/wonny/quantsim/internal/contracts"
)

// YearlyStats is the Summary restricted to one calendar year
type YearlyStats struct {
	Year int `json:"year"`
	Summary
}

// Yearly splits bars by calendar year and summarizes each year independently.
// A year's return is its last cumulative value over its first minus one.
func (a *Analyzer) Yearly(bars []contracts.SimulatedBar, initialCapital float64) []YearlyStats {
	var out []YearlyStats

	start := 0
	for i := 1; i <= len(bars); i++ {
		if i < len(bars) && bars[i].Date.Year() == bars[start].Date.Year() {
			continue
		}
		out = append(out, YearlyStats{
			Year:    bars[start].Date.Year(),
			Summary: a.Summarize(bars[start:i], initialCapital),
		})
		start = i
	}
	return out
}
