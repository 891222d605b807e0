package contracts

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func barsFromCloses(closes ...float64) []Bar {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]Bar, len(closes))
	for i, c := range closes {
		bars[i] = Bar{Date: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}
	return bars
}

func TestNewSeries(t *testing.T) {
	tests := []struct {
		name    string
		bars    []Bar
		wantErr bool
	}{
		{name: "valid", bars: barsFromCloses(10, 11, 12)},
		{name: "empty allowed", bars: nil},
		{name: "zero close", bars: barsFromCloses(10, 0, 12), wantErr: true},
		{name: "negative close", bars: barsFromCloses(-1), wantErr: true},
		{name: "nan close", bars: barsFromCloses(10, math.NaN()), wantErr: true},
		{name: "inf close", bars: barsFromCloses(math.Inf(1)), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSeries("QQQ", tt.bars)
			if tt.wantErr {
				var dq DataQualityError
				require.Error(t, err)
				assert.True(t, errors.As(err, &dq))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.bars), s.Len())
		})
	}
}

func TestNewSeries_UnorderedDates(t *testing.T) {
	bars := barsFromCloses(10, 11)
	bars[1].Date = bars[0].Date

	_, err := NewSeries("QQQ", bars)
	var dq DataQualityError
	require.ErrorAs(t, err, &dq)
	assert.Equal(t, 1, dq.Index)
}

func TestSeries_Returns(t *testing.T) {
	s, err := NewSeries("QQQ", barsFromCloses(10, 11, 9.9))
	require.NoError(t, err)

	assert.Equal(t, 0.0, s.Return(0))
	assert.InDelta(t, 0.1, s.Return(1), 1e-12)
	assert.InDelta(t, -0.1, s.Return(2), 1e-12)
	assert.Equal(t, []float64{10, 11, 9.9}, s.Closes())
}

func TestSeries_CloneIsIndependent(t *testing.T) {
	input := barsFromCloses(10, 11)
	s, err := NewSeries("QQQ", input)
	require.NoError(t, err)

	input[0].Close = 999
	clone := s.Clone()
	bars := clone.Bars()
	bars[1].Close = 1

	assert.Equal(t, 10.0, s.At(0).Close)
	assert.Equal(t, 11.0, clone.At(1).Close)
	assert.Equal(t, s.Fingerprint(), clone.Fingerprint())
}

func TestSeries_Fingerprint(t *testing.T) {
	base, err := NewSeries("QQQ", barsFromCloses(10, 11, 12, 13))
	require.NoError(t, err)
	interior, err := NewSeries("QQQ", barsFromCloses(10, 50, 5, 13))
	require.NoError(t, err)
	same, err := NewSeries("QQQ", barsFromCloses(10, 11, 12, 13))
	require.NoError(t, err)
	other, err := NewSeries("SPY", barsFromCloses(10, 11, 12, 13))
	require.NoError(t, err)

	assert.Equal(t, base.Fingerprint(), same.Fingerprint())
	assert.NotEqual(t, base.Fingerprint(), interior.Fingerprint())
	assert.NotEqual(t, base.Fingerprint(), other.Fingerprint())
	assert.True(t, strings.HasPrefix(base.Fingerprint(), "QQQ:4:"))
}

func TestCosts_Validate(t *testing.T) {
	assert.NoError(t, Costs{Commission: 0.001, Slippage: 0.0005}.Validate())
	assert.Error(t, Costs{Commission: -0.001}.Validate())
	assert.Error(t, Costs{RebalanceThreshold: -1}.Validate())
	assert.InDelta(t, 0.0015, Costs{Commission: 0.001, Slippage: 0.0005}.Rate(), 1e-12)
}

func TestSignal_String(t *testing.T) {
	assert.Equal(t, "BUY", Buy.String())
	assert.Equal(t, "SELL", Sell.String())
	assert.Equal(t, "HOLD", Hold.String())
}
