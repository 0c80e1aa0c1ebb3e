package sim

import (
	"fmt"
	"math"

	"github.com/smpss92118/stock/internal/core"
	"github.com/smpss92118/stock/internal/market"
)

// ExitResult is the realized exit of a filled trade.
type ExitResult struct {
	Index int     // bar index of the exit day
	Price float64 // raw exit price before cost adjustment
}

// SimulateExit walks the price path from the entry day (inclusive) under the
// given policy and returns where and at what price the trade unwinds. Running
// out of data is not an error; the trade exits at the final close.
func SimulateExit(series *market.PriceSeries, entryIdx int, sig core.Signal, policy ExitPolicy) (ExitResult, error) {
	if entryIdx < 0 || entryIdx >= series.Len() {
		return ExitResult{}, core.WrapError(core.ErrBadPolicy,
			fmt.Errorf("entry index %d out of range [0,%d)", entryIdx, series.Len()))
	}
	if sig.Risk() <= 0 {
		return ExitResult{}, core.ErrBadPolicy
	}

	switch p := policy.(type) {
	case FixedExit:
		return simulateFixed(series, entryIdx, sig, p), nil
	case TrailingExit:
		return simulateTrailing(series, entryIdx, sig, p)
	default:
		return ExitResult{}, core.ErrBadPolicy
	}
}

// simulateFixed scans a bounded window for the stop or the R-multiple
// target. When both are touched on the same day the stop wins; intraday
// ordering is unknowable from daily bars, so the loss is assumed.
func simulateFixed(series *market.PriceSeries, entryIdx int, sig core.Signal, p FixedExit) ExitResult {
	entry := sig.BuyPrice
	risk := sig.Risk()
	target := entry + risk*p.RMultiple

	end := series.Len()
	if p.TimeExitDays > 0 && entryIdx+p.TimeExitDays < end {
		end = entryIdx + p.TimeExitDays
	}

	for i := entryIdx; i < end; i++ {
		c := series.Candles[i]
		if c.Low <= sig.StopPrice {
			return ExitResult{Index: i, Price: sig.StopPrice}
		}
		if c.High >= target {
			return ExitResult{Index: i, Price: target}
		}
	}

	// Time exit or end of data: close of the window's last day.
	return ExitResult{Index: end - 1, Price: series.Candles[end-1].Close}
}

// simulateTrailing walks forward with no bound other than available data.
// The stop only ever rises: breakeven at the trigger, then the greater of
// the ladder stop and the trailing indicator each day.
func simulateTrailing(series *market.PriceSeries, entryIdx int, sig core.Signal, p TrailingExit) (ExitResult, error) {
	trail, err := series.Indicator(p.Indicator)
	if err != nil {
		return ExitResult{}, core.WrapError(core.ErrBadPolicy, err)
	}

	entry := sig.BuyPrice
	risk := sig.Risk()
	trigger := entry + risk*p.TriggerR

	currentStop := sig.StopPrice
	trailingActive := false

	for i := entryIdx; i < series.Len(); i++ {
		c := series.Candles[i]

		if c.Low <= currentStop {
			if c.High < currentStop {
				// Gapped down through the stop; a stop order would have
				// filled near the open, approximated by the close.
				return ExitResult{Index: i, Price: c.Close}, nil
			}
			return ExitResult{Index: i, Price: currentStop}, nil
		}

		if !trailingActive && c.High >= trigger {
			trailingActive = true
			currentStop = math.Max(currentStop, entry) // breakeven
		}

		if trailingActive {
			if p.Ladder {
				profitR := (c.High - entry) / risk
				if above := profitR - p.TriggerR; above > 0 {
					ladderStop := entry + math.Floor(above)*risk
					currentStop = math.Max(currentStop, ladderStop)
				}
			}
			if m := trail[i]; !math.IsNaN(m) {
				currentStop = math.Max(currentStop, m)
			}
		}
	}

	// Path exhausted without a stop hit.
	last := series.Len() - 1
	return ExitResult{Index: last, Price: series.Candles[last].Close}, nil
}
