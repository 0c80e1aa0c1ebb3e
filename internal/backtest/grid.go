package backtest

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/smpss92118/stock/internal/config"
	"github.com/smpss92118/stock/internal/core"
	"github.com/smpss92118/stock/internal/market"
	"github.com/smpss92118/stock/internal/sim"
)

// GridResult pairs one parameter combination with its run result.
type GridResult struct {
	Policy sim.ExitPolicy
	Result *Result
}

// ExpandGrid enumerates every exit policy in the sweep: the fixed-exit
// cross product plus the trailing cross product.
func ExpandGrid(g config.GridConfig) []sim.ExitPolicy {
	var policies []sim.ExitPolicy
	for _, r := range g.RMultiples {
		for _, t := range g.TimeExits {
			policies = append(policies, sim.FixedExit{RMultiple: r, TimeExitDays: t})
		}
	}
	for _, trig := range g.TriggerRs {
		for _, ma := range g.TrailMAs {
			policies = append(policies, sim.TrailingExit{TriggerR: trig, Indicator: ma, Ladder: g.Ladder})
		}
	}
	return policies
}

// RunGrid evaluates every policy of the sweep as an independent portfolio
// run. Cells share the immutable inputs but nothing else, so they fan out
// across a bounded pool. Results come back sorted by Sharpe, best first.
func (e *Engine) RunGrid(ctx context.Context, series map[string]*market.PriceSeries, signals []core.Signal, grid config.GridConfig) ([]GridResult, error) {
	policies := ExpandGrid(grid)
	if len(policies) == 0 {
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("parameter grid expands to zero cells"))
	}

	parallelism := grid.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}

	results := make([]GridResult, len(policies))
	errs := make([]error, len(policies))

	sem := make(chan struct{}, parallelism)
	var wg sync.WaitGroup
	for i, policy := range policies {
		wg.Add(1)
		go func(i int, policy sim.ExitPolicy) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			res, err := e.RunPolicy(ctx, series, signals, policy)
			if err != nil {
				errs[i] = err
				return
			}
			if e.metrics != nil {
				e.metrics.RecordGridCell()
			}
			results[i] = GridResult{Policy: policy, Result: res}
		}(i, policy)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Individual cell failures surface in logs; a sweep where every cell
	// failed is reported as a whole.
	out := results[:0]
	var firstErr error
	for i := range results {
		if errs[i] != nil {
			if firstErr == nil {
				firstErr = errs[i]
			}
			continue
		}
		out = append(out, results[i])
	}
	if len(out) == 0 {
		return nil, firstErr
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Result.Summary.Sharpe > out[j].Result.Summary.Sharpe
	})
	return out, nil
}
