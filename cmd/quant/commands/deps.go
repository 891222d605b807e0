package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/wonny/quantsim/internal/audit"
	"github.com/wonny/quantsim/internal/backtest"
	"github.com/wonny/quantsim/internal/marketdata"
	"github.com/wonny/quantsim/internal/performance"
	"github.com/wonny/quantsim/internal/service"
	"github.com/wonny/quantsim/internal/strategyconfig"
	"github.com/wonny/quantsim/pkg/config"
	"github.com/wonny/quantsim/pkg/database"
	"github.com/wonny/quantsim/pkg/logger"
	"github.com/wonny/quantsim/pkg/redis"
)

// deps holds everything a command needs; close releases connections
type deps struct {
	cfg     *config.Config
	log     *logger.Logger
	db      *database.DB // nil without DATABASE_URL or in sample mode
	svc     *service.Service
	closers []func()
}

// depOptions adjusts bootstrap per command
type depOptions struct {
	strategyFile string
	sample       *marketdata.SampleConfig // non-nil forces generated bars
}

func (d *deps) close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

// loadStrategies reads the explicit file, else the configured one, else the built-in set
func loadStrategies(explicit, configured string, log *logger.Logger) (*strategyconfig.Config, error) {
	path := explicit
	if path == "" {
		path = configured
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			log.WithField("path", path).Warn("Strategy file not found, using built-in strategies")
			return strategyconfig.Default(), nil
		}
	}

	strategies, _, err := strategyconfig.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load strategies: %w", err)
	}
	return strategies, nil
}

// bootstrap loads config and wires storage, cache and the backtest service
func bootstrap(ctx context.Context, opts depOptions) (*deps, error) {
	cfg, err := config.LoadFile(envFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	log := logger.New(cfg)
	d := &deps{cfg: cfg, log: log}

	strategies, err := loadStrategies(opts.strategyFile, cfg.Backtest.StrategyFile, log)
	if err != nil {
		return nil, err
	}

	capital := cfg.Backtest.InitialCapital
	if strategies.Backtest.InitialCapital > 0 {
		capital = strategies.Backtest.InitialCapital
	}
	runner := backtest.NewRunner(backtest.NewSimulator(capital), log)

	svcOpts := service.Options{
		Strategies:   strategies,
		Runner:       runner,
		Analyzer:     performance.NewAnalyzer(log),
		Symbol:       cfg.Backtest.Symbol,
		LookbackDays: cfg.Backtest.LookbackDays,
		Logger:       log,
		Commission:   cfg.Backtest.Commission,
	}

	if opts.sample == nil && cfg.HasDatabase() {
		db, err := database.New(ctx, cfg.Database)
		if err != nil {
			d.close()
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		d.db = db
		d.closers = append(d.closers, db.Close)
		if err := database.EnsureSchema(ctx, db.Pool); err != nil {
			d.close()
			return nil, err
		}
		svcOpts.Source = marketdata.NewPriceRepository(db.Pool)
		svcOpts.Audit = audit.NewRepository(db.Pool)
		log.Info("Connected to database")
	} else {
		sample := marketdata.DefaultSampleConfig()
		if opts.sample != nil {
			sample = *opts.sample
		}
		svcOpts.Source = marketdata.SampleSource{Config: sample}
		svcOpts.LookbackDays = 0
		log.Info("Using generated sample bars")
	}

	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		// 캐시는 선택 사항: 연결 실패 시 비활성화하고 진행
		log.WithError(err).Warn("Redis unavailable, caching disabled")
		rc = redis.Disabled()
	}
	d.closers = append(d.closers, func() { _ = rc.Close() })
	svcOpts.Cache = redis.NewCache(rc, "quantsim", cfg.Redis.CacheTTL)

	d.svc, err = service.New(svcOpts)
	if err != nil {
		d.close()
		return nil, err
	}
	return d, nil
}
