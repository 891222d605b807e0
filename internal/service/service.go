// Package service wires configured strategies, market data, analysis, caching
// and the audit trail into the backtest operations used by the CLI, the API
// and the scheduler.
package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/quantsim/internal/audit"
	"github.com/wonny/quantsim/internal/backtest"
	"github.com/wonny/quantsim/internal/composite"
	"github.com/wonny/quantsim/internal/contracts"
	"github.com/wonny/quantsim/internal/marketdata"
	"github.com/wonny/quantsim/internal/performance"
	"github.com/wonny/quantsim/internal/regime"
	"github.com/wonny/quantsim/internal/strategy"
	"github.com/wonny/quantsim/internal/strategyconfig"
	"github.com/wonny/quantsim/pkg/logger"
	"github.com/wonny/quantsim/pkg/redis"
)

// maxParallelRuns bounds RunAll concurrency
const maxParallelRuns = 4

// Options configures a Service. Cache and Audit are optional.
type Options struct {
	Strategies   *strategyconfig.Config
	Source       marketdata.Source
	Runner       *backtest.Runner
	Analyzer     *performance.Analyzer
	Cache        *redis.Cache
	Audit        *audit.Repository
	Symbol       string  // used when neither the request nor the file names one
	LookbackDays int     // window ending today when no dates are given; 0 loads everything
	Commission   float64 // default commission rate; 0 keeps the built-in one
	Logger       *logger.Logger
}

// Service runs configured strategies end to end
type Service struct {
	opts       Options
	registry   *strategy.Registry
	configHash string
	logger     *logger.Logger
	now        func() time.Time
}

// Request selects what to backtest. Zero values fall back to the strategy file
// and then to Options.
type Request struct {
	Strategy string    `json:"strategy"`
	Symbol   string    `json:"symbol,omitempty"`
	From     time.Time `json:"from,omitempty"`
	To       time.Time `json:"to,omitempty"`
}

// Outcome is the analyzed result of one strategy run
type Outcome struct {
	Key         string              `json:"key"`
	ConfigHash  string              `json:"config_hash"`
	Fingerprint string              `json:"fingerprint"`
	Report      *performance.Report `json:"report"`
	Regime      *RegimeStats        `json:"regime,omitempty"`
	Components  []ComponentReturn   `json:"components,omitempty"`
	Cached      bool                `json:"cached"`
}

// RegimeStats summarizes a regime switch run
type RegimeStats struct {
	Switches      int            `json:"switches"`
	DaysPerRegime map[string]int `json:"days_per_regime"`
}

// ComponentReturn is the standalone result of one sub-strategy
type ComponentReturn struct {
	Strategy    string  `json:"strategy"`
	TotalReturn float64 `json:"total_return"`
	FinalValue  float64 `json:"final_value"`
}

// StrategyInfo describes a registered strategy
type StrategyInfo struct {
	Key        string         `json:"key"`
	Name       string         `json:"name"`
	Type       string         `json:"type"`
	Parameters map[string]any `json:"parameters"`
}

// New builds every strategy in opts.Strategies
func New(opts Options) (*Service, error) {
	if opts.Strategies == nil {
		return nil, contracts.ConfigError{Field: "strategies", Message: "required"}
	}
	if opts.Source == nil {
		return nil, contracts.ConfigError{Field: "source", Message: "required"}
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.Runner == nil {
		opts.Runner = backtest.NewRunner(backtest.NewSimulator(backtest.DefaultInitialCapital), opts.Logger)
	}
	if opts.Analyzer == nil {
		opts.Analyzer = performance.NewAnalyzer(opts.Logger)
	}

	registry, err := strategyconfig.NewBuilder(opts.Runner, opts.Logger).
		WithCommission(opts.Commission).
		Build(opts.Strategies)
	if err != nil {
		return nil, err
	}
	hash, err := strategyconfig.Hash(opts.Strategies)
	if err != nil {
		return nil, err
	}

	return &Service{
		opts:       opts,
		registry:   registry,
		configHash: hash,
		logger:     opts.Logger.Module("service"),
		now:        time.Now,
	}, nil
}

// ConfigHash identifies the loaded strategy file
func (s *Service) ConfigHash() string { return s.configHash }

// Strategies lists registered strategies sorted by key
func (s *Service) Strategies() []StrategyInfo {
	keys := s.registry.List()
	out := make([]StrategyInfo, 0, len(keys))
	for _, key := range keys {
		strat, _ := s.registry.Get(key)
		spec, _ := s.opts.Strategies.Find(key)
		out = append(out, StrategyInfo{
			Key:        key,
			Name:       strat.Name(),
			Type:       spec.Type,
			Parameters: strat.Parameters(),
		})
	}
	return out
}

// LoadSeries resolves the request's symbol and window and loads bars
func (s *Service) LoadSeries(ctx context.Context, req Request) (*contracts.Series, error) {
	symbol := req.Symbol
	if symbol == "" {
		symbol = s.opts.Strategies.Backtest.Symbol
	}
	if symbol == "" {
		symbol = s.opts.Symbol
	}
	if symbol == "" {
		return nil, contracts.ConfigError{Field: "symbol", Message: "required"}
	}

	from, to := req.From, req.To
	if from.IsZero() && to.IsZero() {
		from, to = s.opts.Strategies.DateRange()
	}
	if from.IsZero() && to.IsZero() && s.opts.LookbackDays > 0 {
		to = s.now().UTC().Truncate(24 * time.Hour)
		from = to.AddDate(0, 0, -s.opts.LookbackDays)
	}

	return s.opts.Source.LoadSeries(ctx, symbol, from, to)
}

// Run backtests one strategy, consulting the cache first
func (s *Service) Run(ctx context.Context, req Request) (*Outcome, error) {
	series, err := s.LoadSeries(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.RunOn(ctx, req.Strategy, series)
}

// RunOn backtests the strategy registered under key on an already loaded series
func (s *Service) RunOn(ctx context.Context, key string, series *contracts.Series) (*Outcome, error) {
	strat, ok := s.registry.Get(key)
	if !ok {
		return nil, fmt.Errorf("strategy %q: %w", key, ErrUnknownStrategy)
	}

	specHash, err := strategyconfig.HashSpec(s.opts.Strategies, key)
	if err != nil {
		return nil, err
	}
	cacheKey := redis.BacktestKey(key, specHash, series.Fingerprint())

	var cached Outcome
	found, err := s.opts.Cache.Get(ctx, cacheKey, &cached)
	if err != nil {
		s.logger.WithError(err).Warn("Backtest cache read failed")
	}
	if found {
		cached.Cached = true
		return &cached, nil
	}

	out := &Outcome{Key: key, ConfigHash: specHash, Fingerprint: series.Fingerprint()}

	var result *backtest.Result
	switch st := strat.(type) {
	case *regime.Switch:
		res, err := st.Run(ctx, series)
		if err != nil {
			return nil, err
		}
		result = res.Result
		out.Regime = &RegimeStats{Switches: res.Switches, DaysPerRegime: res.DaysPerRegime}
	case *composite.Composer:
		res, err := st.Run(ctx, series)
		if err != nil {
			return nil, err
		}
		result = res.Result
		for _, sub := range res.Subs {
			out.Components = append(out.Components, ComponentReturn{
				Strategy:    sub.Strategy,
				TotalReturn: sub.TotalReturn(),
				FinalValue:  sub.FinalValue(),
			})
		}
	default:
		result, err = s.opts.Runner.Run(ctx, strat, series)
		if err != nil {
			return nil, err
		}
	}

	out.Report, err = s.opts.Analyzer.Analyze(result)
	if err != nil {
		return nil, fmt.Errorf("%s: analyze: %w", key, err)
	}

	if err := s.opts.Cache.Set(ctx, cacheKey, out); err != nil {
		s.logger.WithError(err).Warn("Backtest cache write failed")
	}
	return out, nil
}

// RunAll backtests every registered strategy on the same series.
// Outcomes are ordered by strategy key.
func (s *Service) RunAll(ctx context.Context, req Request) ([]*Outcome, error) {
	series, err := s.LoadSeries(ctx, req)
	if err != nil {
		return nil, err
	}

	keys := s.registry.List()
	outcomes := make([]*Outcome, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelRuns)
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			out, err := s.RunOn(gctx, key, series.Clone())
			if err != nil {
				return err
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// Record stores outcomes in the audit trail. It is a no-op without a repository.
func (s *Service) Record(ctx context.Context, runDate time.Time, outcomes []*Outcome) error {
	if s.opts.Audit == nil {
		return nil
	}
	for _, out := range outcomes {
		if err := s.opts.Audit.SaveRun(ctx, audit.NewRun(runDate, out.Key, out.ConfigHash, out.Report)); err != nil {
			return err
		}
	}
	s.logger.WithFields(map[string]interface{}{
		"run_date": runDate.Format("2006-01-02"),
		"runs":     len(outcomes),
	}).Info("Backtest runs recorded")
	return nil
}

// Rank orders outcomes by Sharpe, best first
func Rank(outcomes []*Outcome) []*Outcome {
	ranked := append([]*Outcome(nil), outcomes...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Report.Summary.Sharpe > ranked[j].Report.Summary.Sharpe
	})
	return ranked
}
