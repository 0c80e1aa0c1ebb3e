package sim

import (
	"github.com/smpss92118/stock/internal/core"
	"github.com/smpss92118/stock/internal/market"
)

// DefaultEntryWindowDays bounds how long a limit order waits for a fill.
const DefaultEntryWindowDays = 30

// ResolveEntry scans forward from the signal date for the first day whose
// high reaches the buy price, and reports the entry bar index. The scan
// starts the day after the signal and covers at most window trading days.
// A miss is a normal outcome: the breakout never triggered.
func ResolveEntry(series *market.PriceSeries, sig core.Signal, window int) (int, bool) {
	if window <= 0 {
		window = DefaultEntryWindowDays
	}

	sigIdx, ok := series.Index(sig.Date)
	if !ok {
		return 0, false
	}
	// Signal on the final bar can never fill.
	if sigIdx >= series.Len()-1 {
		return 0, false
	}

	end := sigIdx + window
	if end > series.Len()-1 {
		end = series.Len() - 1
	}
	for i := sigIdx + 1; i <= end; i++ {
		if series.Candles[i].High >= sig.BuyPrice {
			return i, true
		}
	}
	return 0, false
}
