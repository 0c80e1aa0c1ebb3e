// Package backtest orchestrates the full pipeline: signal filtering,
// parallel candidate generation, portfolio replay and metric reduction.
package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/smpss92118/stock/internal/config"
	"github.com/smpss92118/stock/internal/core"
	"github.com/smpss92118/stock/internal/market"
	"github.com/smpss92118/stock/internal/metrics"
	"github.com/smpss92118/stock/internal/portfolio"
	"github.com/smpss92118/stock/internal/sim"
	"github.com/smpss92118/stock/internal/stats"
	"go.uber.org/zap"
)

// Result is the complete output of one backtest run.
type Result struct {
	Policy     string
	Candidates int
	Portfolio  portfolio.Result
	Summary    stats.Summary

	// Unlimited holds the no-constraint baseline when requested.
	Unlimited *stats.Summary
}

// Engine runs backtests for one parameter set at a time. It is safe to call
// Run concurrently; each run owns its portfolio state.
type Engine struct {
	cfg     config.BacktestConfig
	logger  *zap.Logger
	metrics *metrics.Registry
}

// New creates an Engine. metrics may be nil when observability is disabled.
func New(cfg config.BacktestConfig, logger *zap.Logger, reg *metrics.Registry) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{cfg: cfg, logger: logger, metrics: reg}
}

// PolicyFromConfig builds the exit policy selected by the config.
func PolicyFromConfig(cfg config.ExitConfig) (sim.ExitPolicy, error) {
	switch cfg.Mode {
	case "fixed":
		return sim.FixedExit{RMultiple: cfg.RMultiple, TimeExitDays: cfg.TimeExitDays}, nil
	case "trailing":
		return sim.TrailingExit{TriggerR: cfg.TriggerR, Indicator: cfg.TrailMA, Ladder: cfg.Ladder}, nil
	default:
		return nil, core.WrapError(core.ErrBadPolicy, fmt.Errorf("unknown exit mode %q", cfg.Mode))
	}
}

// Run executes one backtest under the engine's configured policy.
func (e *Engine) Run(ctx context.Context, series map[string]*market.PriceSeries, signals []core.Signal) (*Result, error) {
	policy, err := PolicyFromConfig(e.cfg.Exit)
	if err != nil {
		return nil, err
	}
	return e.RunPolicy(ctx, series, signals, policy)
}

// RunPolicy executes one backtest under an explicit exit policy. Grid sweeps
// use this to vary the policy without re-deriving the rest of the config.
func (e *Engine) RunPolicy(ctx context.Context, series map[string]*market.PriceSeries, signals []core.Signal, policy sim.ExitPolicy) (*Result, error) {
	start := time.Now()

	if len(series) == 0 {
		e.recordRun("error", start)
		return nil, core.ErrEmptySeries
	}

	if e.metrics != nil {
		var invalid int
		for _, s := range signals {
			if !s.IsValid() {
				invalid++
			}
		}
		if invalid > 0 {
			e.metrics.RecordFilteredSignals(invalid)
		}
	}

	cost := sim.CostModel{
		Enabled: e.cfg.Costs.Enabled,
		FeeRate: e.cfg.Costs.FeeRate,
		TaxRate: e.cfg.Costs.TaxRate,
	}
	gen := sim.NewGenerator(policy, cost, e.cfg.EntryWindowDays, e.cfg.Workers, e.logger)

	candidates, err := gen.Generate(ctx, series, signals)
	if err != nil {
		e.recordRun("error", start)
		return nil, err
	}
	if e.metrics != nil {
		e.metrics.RecordCandidates(policy.Label(), len(candidates))
	}

	simulator, err := portfolio.NewSimulator(portfolio.Config{
		InitialCapital:  e.cfg.InitialCapital,
		MaxPositions:    e.cfg.MaxPositions,
		PositionSizePct: e.cfg.PositionSizePct,
	}, e.logger)
	if err != nil {
		e.recordRun("error", start)
		return nil, err
	}

	pf := simulator.Run(candidates)
	if e.metrics != nil {
		e.metrics.RecordAdmissions(pf.Admitted, pf.Dropped)
	}

	res := &Result{
		Policy:     policy.Label(),
		Candidates: len(candidates),
		Portfolio:  pf,
		Summary:    stats.Calculate(pf, e.cfg.InitialCapital, e.cfg.RiskFreeRate),
	}

	if e.cfg.Unlimited {
		unl := stats.Calculate(simulator.RunUnlimited(candidates), e.cfg.InitialCapital, e.cfg.RiskFreeRate)
		res.Unlimited = &unl
	}

	e.recordRun("success", start)
	e.logger.Info("backtest complete",
		zap.String("policy", res.Policy),
		zap.Int("candidates", res.Candidates),
		zap.Int("trades", res.Summary.TradeCount),
		zap.Float64("win_rate", res.Summary.WinRate),
		zap.Float64("sharpe", res.Summary.Sharpe),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

func (e *Engine) recordRun(status string, start time.Time) {
	if e.metrics != nil {
		e.metrics.RecordBacktest(status, time.Since(start).Seconds())
	}
}
