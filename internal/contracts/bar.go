package contracts

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// Bar is one daily OHLCV observation of the traded asset
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Series is an immutable, date-ordered sequence of bars.
// ⭐ SSOT: 모든 전략/시뮬레이터 입력은 Series를 통해서만 전달
type Series struct {
	symbol  string
	bars    []Bar
	returns []float64
}

// NewSeries validates bars and precomputes daily close-to-close returns.
// Dates must be strictly increasing and closes finite and positive.
func NewSeries(symbol string, bars []Bar) (*Series, error) {
	owned := make([]Bar, len(bars))
	copy(owned, bars)

	returns := make([]float64, len(owned))
	for i, b := range owned {
		if math.IsNaN(b.Close) || math.IsInf(b.Close, 0) || b.Close <= 0 {
			return nil, DataQualityError{Index: i, Message: fmt.Sprintf("close must be finite and positive, got %v", b.Close)}
		}
		if i == 0 {
			continue
		}
		if !b.Date.After(owned[i-1].Date) {
			return nil, DataQualityError{Index: i, Message: "dates must be strictly increasing"}
		}
		returns[i] = b.Close/owned[i-1].Close - 1
	}

	return &Series{symbol: symbol, bars: owned, returns: returns}, nil
}

// Symbol returns the instrument identifier (may be empty)
func (s *Series) Symbol() string { return s.symbol }

// Len returns the number of bars
func (s *Series) Len() int { return len(s.bars) }

// At returns bar i
func (s *Series) At(i int) Bar { return s.bars[i] }

// Bars returns a copy of the underlying bars
func (s *Series) Bars() []Bar {
	out := make([]Bar, len(s.bars))
	copy(out, s.bars)
	return out
}

// Closes returns a copy of the close prices
func (s *Series) Closes() []float64 {
	out := make([]float64, len(s.bars))
	for i, b := range s.bars {
		out[i] = b.Close
	}
	return out
}

// Return returns the daily return of bar i. Bar 0 has no prior close and returns 0.
func (s *Series) Return(i int) float64 { return s.returns[i] }

// Returns returns a copy of the daily returns (index 0 is always 0)
func (s *Series) Returns() []float64 {
	out := make([]float64, len(s.returns))
	copy(out, s.returns)
	return out
}

// Clone returns an independent copy of the series
func (s *Series) Clone() *Series {
	return &Series{
		symbol:  s.symbol,
		bars:    s.Bars(),
		returns: s.Returns(),
	}
}

// Fingerprint identifies the series contents for cache keys. Every bar's date and
// prices feed a sha256 digest, so a corrected interior bar changes the result.
func (s *Series) Fingerprint() string {
	h := sha256.New()
	var buf [8]byte
	for _, b := range s.bars {
		binary.BigEndian.PutUint64(buf[:], uint64(b.Date.Unix()))
		h.Write(buf[:])
		for _, v := range [4]float64{b.Open, b.High, b.Low, b.Close} {
			binary.BigEndian.PutUint64(buf[:], math.Float64bits(v))
			h.Write(buf[:])
		}
		binary.BigEndian.PutUint64(buf[:], uint64(b.Volume))
		h.Write(buf[:])
	}
	return fmt.Sprintf("%s:%d:%x", s.symbol, len(s.bars), h.Sum(nil))
}
