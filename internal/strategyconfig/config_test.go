package strategyconfig

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/quantsim/internal/backtest"
	"github.com/wonny/quantsim/internal/composite"
	"github.com/wonny/quantsim/internal/marketdata"
	"github.com/wonny/quantsim/internal/regime"
	"github.com/wonny/quantsim/internal/strategy"
)

const minimalYAML = `
meta:
  id: test
strategies:
  - name: hold
    type: buy_and_hold
`

func TestLoad_ReferenceFile(t *testing.T) {
	path := "../../config/strategies.yaml"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("config file not found")
	}

	cfg, raw, err := Load(path)
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
	assert.Equal(t, "qqq_reference", cfg.Meta.ID)
	assert.Len(t, cfg.Strategies, 8)

	hash, err := Hash(cfg)
	require.NoError(t, err)
	assert.Len(t, hash, 64)

	hash2, _ := Hash(cfg)
	assert.Equal(t, hash, hash2, "hash not deterministic")
}

func TestParse_UnknownFieldRejected(t *testing.T) {
	_, err := Parse([]byte(minimalYAML + "    short_perod: 5\n"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{
			name:  "missing meta id",
			yaml:  "strategies:\n  - name: a\n    type: buy_and_hold\n",
			field: "meta.id",
		},
		{
			name:  "no strategies",
			yaml:  "meta:\n  id: x\n",
			field: "strategies",
		},
		{
			name: "unknown type",
			yaml: `
meta: {id: x}
strategies:
  - {name: a, type: momentum}
`,
			field: "strategies[0].type",
		},
		{
			name: "duplicate name",
			yaml: `
meta: {id: x}
strategies:
  - {name: a, type: buy_and_hold}
  - {name: a, type: rsi}
`,
			field: "strategies[1].name",
		},
		{
			name: "undefined reference",
			yaml: `
meta: {id: x}
strategies:
  - name: c
    type: composite
    allocations:
      - {strategy: missing, weight: 1}
`,
			field: "strategies[0]",
		},
		{
			name: "regime without legs",
			yaml: `
meta: {id: x}
strategies:
  - name: r
    type: regime_switch
    regime: {low: a}
`,
			field: "strategies[0].regime",
		},
		{
			name: "cycle",
			yaml: `
meta: {id: x}
strategies:
  - name: a
    type: composite
    allocations: [{strategy: b, weight: 1}]
  - name: b
    type: composite
    allocations: [{strategy: a, weight: 1}]
`,
			field: "strategies",
		},
		{
			name: "negative cost",
			yaml: `
meta: {id: x}
strategies:
  - name: a
    type: buy_and_hold
    costs: {slippage: -0.1}
`,
			field: "strategies[0].costs.slippage",
		},
		{
			name: "bad date",
			yaml: `
meta: {id: x}
backtest: {from: 2020/01/01}
strategies:
  - {name: a, type: buy_and_hold}
`,
			field: "backtest.from",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)

			var verr ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestWarn_AllocationSum(t *testing.T) {
	cfg, err := Parse([]byte(`
meta: {id: x}
strategies:
  - {name: a, type: buy_and_hold}
  - {name: b, type: rsi}
  - name: c
    type: composite
    allocations:
      - {strategy: a, weight: 0.5}
      - {strategy: b, weight: 0.3}
`))
	require.NoError(t, err)

	warnings := Warn(cfg)
	require.Len(t, warnings, 1)
	assert.Equal(t, "ALLOCATION_SUM", warnings[0].Code)
}

func TestHashSpec_OnlyCoversReferencedStrategies(t *testing.T) {
	base := `
meta: {id: x}
strategies:
  - {name: a, type: buy_and_hold}
  - {name: b, type: rsi, period: %s}
`
	cfg1, err := Parse([]byte(fmt.Sprintf(base, "14")))
	require.NoError(t, err)
	cfg2, err := Parse([]byte(fmt.Sprintf(base, "10")))
	require.NoError(t, err)

	h1, err := HashSpec(cfg1, "a")
	require.NoError(t, err)
	h2, err := HashSpec(cfg2, "a")
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	h1, _ = HashSpec(cfg1, "b")
	h2, _ = HashSpec(cfg2, "b")
	assert.NotEqual(t, h1, h2)

	_, err = HashSpec(cfg1, "nope")
	assert.Error(t, err)
}

func TestBuilder_Build(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
meta: {id: x}
strategies:
  - {name: fast, type: ma_cross}
  - {name: trend, type: trend_following, short_period: 10, long_period: 30}
  - {name: vol, type: volatility_target, costs: {rebalance_threshold: 0.2}}
  - {name: hold, type: buy_and_hold}
  - name: blend
    type: composite
    allocations:
      - {strategy: trend, weight: 0.5}
      - {strategy: hold, weight: 0.5}
  - name: switch
    type: regime_switch
    regime: {low: hold, medium: blend, high: vol}
`), 0o644))

	cfg, _, err := Load(path)
	require.NoError(t, err)

	runner := backtest.NewRunner(backtest.NewSimulator(backtest.DefaultInitialCapital), nil)
	reg, err := NewBuilder(runner, nil).Build(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"blend", "fast", "hold", "switch", "trend", "vol"}, reg.List())

	fast, _ := reg.Get("fast")
	assert.Equal(t, "MA-Cross(5,20)", fast.Name())
	assert.Equal(t, strategy.DefaultCosts(), fast.Costs())

	vol, _ := reg.Get("vol")
	assert.InDelta(t, 0.2, vol.Costs().RebalanceThreshold, 1e-12)
	assert.InDelta(t, strategy.DefaultSlippage, vol.Costs().Slippage, 1e-12)

	blend, _ := reg.Get("blend")
	require.IsType(t, &composite.Composer{}, blend)
	assert.Equal(t, "blend", blend.Name())

	sw, _ := reg.Get("switch")
	require.IsType(t, &regime.Switch{}, sw)

	series, err := marketdata.GenerateSample(marketdata.DefaultSampleConfig())
	require.NoError(t, err)
	for _, key := range reg.List() {
		s, _ := reg.Get(key)
		result, err := runner.Run(context.Background(), s, series)
		require.NoError(t, err, key)
		assert.Len(t, result.Bars, series.Len(), key)
	}
}

func TestBuilder_InvalidParameters(t *testing.T) {
	cfg, err := Parse([]byte(`
meta: {id: x}
strategies:
  - {name: bad, type: ma_cross, short_period: 30, long_period: 10}
`))
	require.NoError(t, err)

	_, err = NewBuilder(nil, nil).Build(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"bad"`)
}

func TestBuilder_ExplicitZeroParameters(t *testing.T) {
	cfg, err := Parse([]byte(`
meta: {id: x}
strategies:
  - {name: vt, type: volatility_target, min_weight: 0}
  - {name: vt_default, type: volatility_target}
  - {name: rsi, type: rsi, oversold: 0, overbought: 70}
`))
	require.NoError(t, err)

	reg, err := NewBuilder(nil, nil).Build(cfg)
	require.NoError(t, err)

	tests := []struct {
		key   string
		param string
		want  float64
	}{
		{"vt", "min_weight", 0},
		{"vt_default", "min_weight", 0.1},
		{"rsi", "oversold", 0},
		{"rsi", "overbought", 70},
	}
	for _, tt := range tests {
		t.Run(tt.key+"/"+tt.param, func(t *testing.T) {
			s, ok := reg.Get(tt.key)
			require.True(t, ok)
			assert.Equal(t, tt.want, s.Parameters()[tt.param])
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))
	assert.Empty(t, Warn(cfg))

	reg, err := NewBuilder(nil, nil).Build(cfg)
	require.NoError(t, err)
	assert.Len(t, reg.List(), 8)

	combined, _ := reg.Get("combined")
	assert.Equal(t, "combined", combined.Name())
}

func TestDefault_MatchesReferenceFile(t *testing.T) {
	path := "../../config/strategies.yaml"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("config file not found")
	}
	file, _, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Strategies, file.Strategies)
}
