package performance

import (
	"time"

	"github.com/wonny/quantsim/internal/contracts"
)

// Trade is a completed round trip from a BUY close to the next SELL close
type Trade struct {
	EntryDate  time.Time `json:"entry_date"`
	ExitDate   time.Time `json:"exit_date"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	PnL        float64   `json:"pnl"` // 가격 단위 손익
}

// Won reports whether the exit was above the entry
func (t Trade) Won() bool { return t.ExitPrice > t.EntryPrice }

// ExtractTrades pairs every BUY with the following SELL. A later BUY before the
// SELL moves the entry; a SELL with no open entry is ignored.
func ExtractTrades(bars []contracts.SimulatedBar) []Trade {
	var trades []Trade
	var open *contracts.SimulatedBar

	for i := range bars {
		b := &bars[i]
		switch b.Signal {
		case contracts.Buy:
			open = b
		case contracts.Sell:
			if open == nil {
				continue
			}
			trades = append(trades, Trade{
				EntryDate:  open.Date,
				ExitDate:   b.Date,
				EntryPrice: open.Close,
				ExitPrice:  b.Close,
				PnL:        b.Close - open.Close,
			})
			open = nil
		}
	}
	return trades
}

// calculateWinRate returns the winning count and the fraction of winners
func (a *Analyzer) calculateWinRate(trades []Trade) (int, float64) {
	if len(trades) == 0 {
		return 0, 0
	}
	wins := 0
	for _, t := range trades {
		if t.Won() {
			wins++
		}
	}
	return wins, float64(wins) / float64(len(trades))
}

// calculateProfitLossRatio is average win over average loss; 0 without losses
func (a *Analyzer) calculateProfitLossRatio(trades []Trade) float64 {
	var totalWin, totalLoss float64
	var winCount, lossCount int

	for _, t := range trades {
		if t.PnL > 0 {
			totalWin += t.PnL
			winCount++
		} else {
			totalLoss -= t.PnL
			lossCount++
		}
	}

	if lossCount == 0 || totalLoss == 0 {
		return 0
	}
	avgWin := 0.0
	if winCount > 0 {
		avgWin = totalWin / float64(winCount)
	}
	return avgWin / (totalLoss / float64(lossCount))
}
