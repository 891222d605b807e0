package regime

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/quantsim/internal/backtest"
	"github.com/wonny/quantsim/internal/contracts"
	"github.com/wonny/quantsim/internal/marketdata"
	"github.com/wonny/quantsim/internal/strategy"
)

func newRunner() *backtest.Runner {
	return backtest.NewRunner(backtest.NewSimulator(100000), nil)
}

func seriesOf(t *testing.T, closes []float64) *contracts.Series {
	t.Helper()
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]contracts.Bar, len(closes))
	for i, c := range closes {
		bars[i] = contracts.Bar{Date: start.AddDate(0, 0, i), Close: c}
	}
	s, err := contracts.NewSeries("TEST", bars)
	require.NoError(t, err)
	return s
}

// constant weight leg, used to see which strategy the switch selected
type fixed struct {
	name   string
	weight float64
}

func (f fixed) Name() string               { return f.name }
func (f fixed) Parameters() map[string]any { return map[string]any{} }
func (f fixed) Costs() contracts.Costs     { return contracts.Costs{} }
func (f fixed) Decide(_ context.Context, s *contracts.Series) ([]contracts.Decision, error) {
	out := make([]contracts.Decision, s.Len())
	for i := range out {
		out[i] = contracts.WeightDecision(contracts.Hold, f.weight)
	}
	return out, nil
}

func TestClassifier_Label(t *testing.T) {
	c, err := NewClassifier(DefaultClassifierConfig())
	require.NoError(t, err)

	tests := []struct {
		vol  float64
		want Regime
	}{
		{0.10, Low},
		{0.15, Medium},
		{0.20, Medium},
		{0.25, Medium},
		{0.30, High},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.Label(tt.vol), "vol %v", tt.vol)
	}
}

func TestNewClassifier_Invalid(t *testing.T) {
	_, err := NewClassifier(ClassifierConfig{Period: 20, LowThreshold: 0.3, HighThreshold: 0.2})
	var cfgErr contracts.ConfigError
	assert.True(t, errors.As(err, &cfgErr))

	_, err = NewClassifier(ClassifierConfig{Period: 1, LowThreshold: 0.1, HighThreshold: 0.2})
	assert.Error(t, err)
}

func TestClassify_WarmUpIsUndetermined(t *testing.T) {
	c, _ := NewClassifier(ClassifierConfig{Period: 3, LowThreshold: 0.15, HighThreshold: 0.25})
	regimes, vol := c.Classify(seriesOf(t, []float64{100, 100, 100, 100, 100}))

	assert.Equal(t, []Regime{Undetermined, Undetermined, Undetermined, Low, Low}, regimes)
	_, ok := vol.At(2)
	assert.False(t, ok)
}

// Changing prices before the lag window must not change later labels.
func TestClassify_Memoryless(t *testing.T) {
	c, _ := NewClassifier(ClassifierConfig{Period: 3, LowThreshold: 0.15, HighThreshold: 0.25})

	a := []float64{100, 130, 90, 100, 101, 100, 102, 101, 100}
	b := []float64{100, 100, 100, 100, 101, 100, 102, 101, 100}
	ra, _ := c.Classify(seriesOf(t, a))
	rb, _ := c.Classify(seriesOf(t, b))

	// bar i uses returns i-3..i-1; from bar 7 the windows only cover identical returns
	assert.Equal(t, ra[7:], rb[7:])
	assert.NotEqual(t, ra[4], rb[4])
}

func TestSwitch_SelectsLegPerRegime(t *testing.T) {
	calm := make([]float64, 10)
	for i := range calm {
		calm[i] = 100
	}
	// calm for 10 bars, then large swings
	closes := append(calm, 130, 90, 130, 90, 130)
	series := seriesOf(t, closes)

	sw, err := NewSwitch(SwitchConfig{
		Classifier: ClassifierConfig{Period: 3, LowThreshold: 0.15, HighThreshold: 0.25},
		Low:        fixed{"low", 1.0},
		Medium:     fixed{"medium", 0.5},
		High:       fixed{"high", 0.2},
		Costs:      DefaultSwitchCosts(),
	}, newRunner(), nil)
	require.NoError(t, err)

	res, err := sw.Run(context.Background(), series)
	require.NoError(t, err)

	for i, r := range res.Regimes {
		want := map[Regime]float64{Undetermined: 0.5, Low: 1.0, Medium: 0.5, High: 0.2}[r]
		assert.Equal(t, want, res.Bars[i].Weight, "bar %d regime %s", i, r)
	}
	assert.Equal(t, Undetermined, res.Regimes[0])
	assert.Equal(t, Low, res.Regimes[9])
	assert.Equal(t, High, res.Regimes[len(closes)-1])
	assert.GreaterOrEqual(t, res.Switches, 2)
	assert.Equal(t, 3, res.DaysPerRegime["UNDETERMINED"])
	assert.Len(t, res.Subs, 3)
	assert.Nil(t, res.Volatility[0])
	require.NotNil(t, res.Volatility[len(closes)-1])
}

func TestSwitch_Default(t *testing.T) {
	series, err := marketdata.GenerateSample(marketdata.SampleConfig{Days: 400, Seed: 5})
	require.NoError(t, err)

	sw, err := NewDefaultSwitch(newRunner(), nil)
	require.NoError(t, err)

	res, err := sw.Run(context.Background(), series)
	require.NoError(t, err)
	assert.Len(t, res.Bars, series.Len())

	total := 0
	for _, n := range res.DaysPerRegime {
		total += n
	}
	assert.Equal(t, series.Len(), total)
	assert.Equal(t, 0.01, sw.Costs().RebalanceThreshold)

	var s strategy.Strategy = sw
	assert.Equal(t, "BuyAndHold", s.Parameters()["low"])
}

func TestNewSwitch_MissingLeg(t *testing.T) {
	_, err := NewSwitch(SwitchConfig{Classifier: DefaultClassifierConfig(), Low: fixed{"low", 1}}, newRunner(), nil)
	var cfgErr contracts.ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestNewSwitch_NilRunner(t *testing.T) {
	_, err := NewSwitch(SwitchConfig{
		Classifier: DefaultClassifierConfig(),
		Low:        fixed{"low", 1},
		Medium:     fixed{"medium", 0.5},
		High:       fixed{"high", 0},
	}, nil, nil)
	var cfgErr contracts.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "runner", cfgErr.Field)
}

func TestSwitch_SingleBar(t *testing.T) {
	s, err := NewSwitch(SwitchConfig{
		Classifier: DefaultClassifierConfig(),
		Low:        fixed{"low", 1},
		Medium:     fixed{"medium", 0.5},
		High:       fixed{"high", 0},
	}, newRunner(), nil)
	require.NoError(t, err)

	_, err = s.Run(context.Background(), seriesOf(t, []float64{100}))
	assert.ErrorIs(t, err, contracts.ErrInsufficientData)
}

func TestRegime_JSON(t *testing.T) {
	data, err := json.Marshal([]Regime{Low, High, Undetermined})
	require.NoError(t, err)
	assert.JSONEq(t, `["LOW","HIGH","UNDETERMINED"]`, string(data))
}
