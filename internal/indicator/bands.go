package indicator

import "math"

// MACDLines holds the DIF, DEA (signal) and histogram lines
type MACDLines struct {
	MACD      Line
	Signal    Line
	Histogram Line
}

// MACD computes DIF = EMA(fast) - EMA(slow), DEA = EMA(signal) of DIF seeded with
// the mean of its first signal values, and histogram = DIF - DEA.
func MACD(closes []float64, fast, slow, signal int) MACDLines {
	n := len(closes)
	out := MACDLines{MACD: newLine(n), Signal: newLine(n), Histogram: newLine(n)}
	if fast < 1 || slow < 1 || signal < 1 {
		return out
	}

	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)
	for i := 0; i < n; i++ {
		f, okF := fastEMA.At(i)
		s, okS := slowEMA.At(i)
		if okF && okS {
			out.MACD.set(i, f-s)
		}
	}

	start := out.MACD.FirstValid()
	if start < 0 || n < start+signal {
		return out
	}

	var sum float64
	for i := start; i < start+signal; i++ {
		v, _ := out.MACD.At(i)
		sum += v
	}
	dea := sum / float64(signal)
	out.Signal.set(start+signal-1, dea)

	multiplier := 2.0 / (float64(signal) + 1.0)
	for i := start + signal; i < n; i++ {
		dif, _ := out.MACD.At(i)
		dea = (dif-dea)*multiplier + dea
		out.Signal.set(i, dea)
	}

	for i := 0; i < n; i++ {
		dif, okD := out.MACD.At(i)
		dea, okS := out.Signal.At(i)
		if okD && okS {
			out.Histogram.set(i, dif-dea)
		}
	}
	return out
}

// BollingerBands holds the middle, upper and lower bands plus relative width
type BollingerBands struct {
	Middle Line
	Upper  Line
	Lower  Line
	Width  Line
}

// Bollinger uses the population standard deviation of the window around the SMA
func Bollinger(closes []float64, period int, numStd float64) BollingerBands {
	n := len(closes)
	out := BollingerBands{Middle: newLine(n), Upper: newLine(n), Lower: newLine(n), Width: newLine(n)}
	if period < 1 {
		return out
	}

	ma := SMA(closes, period)
	for i := period - 1; i < n; i++ {
		mid, ok := ma.At(i)
		if !ok {
			continue
		}
		var sumSquares float64
		for j := i - period + 1; j <= i; j++ {
			d := closes[j] - mid
			sumSquares += d * d
		}
		std := math.Sqrt(sumSquares / float64(period))

		out.Middle.set(i, mid)
		out.Upper.set(i, mid+numStd*std)
		out.Lower.set(i, mid-numStd*std)
		out.Width.set(i, 2*numStd*std/mid)
	}
	return out
}
