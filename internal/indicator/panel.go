package indicator

import (
	"time"

	"github.com/wonny/quantsim/internal/contracts"
)

// Column is one named indicator line
type Column struct {
	Name string
	Line Line
}

// Row is one bar of a panel; undefined values are nil
type Row struct {
	Date   time.Time           `json:"date"`
	Close  float64             `json:"close"`
	Values map[string]*float64 `json:"values"`
}

// Panel is the standard indicator set shown for a symbol
func Panel(series *contracts.Series) []Column {
	closes := series.Closes()

	cols := make([]Column, 0, 12)
	for _, spec := range []Spec{
		{KindSMA, 20}, {KindSMA, 50}, {KindSMA, 200},
		{KindEMA, 20}, {KindRSI, 14}, {KindVolatility, 20}, {KindATR, 14},
	} {
		line, _ := Compute(series, spec) // periods are constant and valid
		cols = append(cols, Column{Name: spec.String(), Line: line})
	}

	macd := MACD(closes, 12, 26, 9)
	bb := Bollinger(closes, 20, 2)
	return append(cols,
		Column{"MACD", macd.MACD},
		Column{"MACD.signal", macd.Signal},
		Column{"MACD.hist", macd.Histogram},
		Column{"BB.upper", bb.Upper},
		Column{"BB.lower", bb.Lower},
	)
}

// Rows returns the last n bars of cols; n <= 0 returns every bar
func Rows(series *contracts.Series, cols []Column, n int) []Row {
	start := 0
	if n > 0 && n < series.Len() {
		start = series.Len() - n
	}

	rows := make([]Row, 0, series.Len()-start)
	for i := start; i < series.Len(); i++ {
		bar := series.At(i)
		row := Row{Date: bar.Date, Close: bar.Close, Values: make(map[string]*float64, len(cols))}
		for _, c := range cols {
			if v, ok := c.Line.At(i); ok {
				v := v
				row.Values[c.Name] = &v
			} else {
				row.Values[c.Name] = nil
			}
		}
		rows = append(rows, row)
	}
	return rows
}
