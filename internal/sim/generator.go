package sim

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/smpss92118/stock/internal/core"
	"github.com/smpss92118/stock/internal/market"
	"go.uber.org/zap"
)

// Candidate is a fully resolved trade before capital constraints: the entry
// filled, the exit simulated and costs applied. Immutable once produced.
type Candidate struct {
	Symbol      string
	EntryDate   time.Time
	ExitDate    time.Time
	EntryPrice  float64
	ExitPrice   float64
	NetReturn   float64
	HoldingDays int
}

// Generator resolves signals into candidates, one symbol per task. Symbols
// are independent price paths, so resolution fans out across a worker pool
// and joins before portfolio replay.
type Generator struct {
	policy  ExitPolicy
	cost    CostModel
	window  int
	workers int
	logger  *zap.Logger
}

// NewGenerator creates a Generator. workers <= 0 selects GOMAXPROCS.
func NewGenerator(policy ExitPolicy, cost CostModel, entryWindow, workers int, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if entryWindow <= 0 {
		entryWindow = DefaultEntryWindowDays
	}
	return &Generator{
		policy:  policy,
		cost:    cost,
		window:  entryWindow,
		workers: workers,
		logger:  logger,
	}
}

// Generate resolves all signals against their symbols' price series and
// returns the merged candidates sorted by entry date (stable on ties).
// Invalid signals and symbols without usable history are skipped; they never
// abort the batch.
func (g *Generator) Generate(ctx context.Context, series map[string]*market.PriceSeries, signals []core.Signal) ([]Candidate, error) {
	bySymbol := make(map[string][]core.Signal)
	var filtered int
	for _, sig := range signals {
		if !sig.IsValid() {
			filtered++
			continue
		}
		bySymbol[sig.Symbol] = append(bySymbol[sig.Symbol], sig)
	}
	if filtered > 0 {
		g.logger.Debug("filtered invalid signals", zap.Int("count", filtered))
	}

	symbols := make([]string, 0, len(bySymbol))
	for sym := range bySymbol {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	jobs := make(chan string)
	results := make(chan []Candidate, len(symbols))

	var wg sync.WaitGroup
	for w := 0; w < g.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sym := range jobs {
				results <- g.resolveSymbol(series[sym], sym, bySymbol[sym])
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, sym := range symbols {
			select {
			case <-ctx.Done():
				return
			case jobs <- sym:
			}
		}
	}()

	wg.Wait()
	close(results)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var all []Candidate
	for batch := range results {
		all = append(all, batch...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].EntryDate.Equal(all[j].EntryDate) {
			return all[i].Symbol < all[j].Symbol
		}
		return all[i].EntryDate.Before(all[j].EntryDate)
	})
	return all, nil
}

// resolveSymbol runs entry and exit simulation for every signal of one
// symbol. Owns its output slice; no shared state crosses the pool boundary.
func (g *Generator) resolveSymbol(ps *market.PriceSeries, symbol string, sigs []core.Signal) []Candidate {
	if ps == nil {
		g.logger.Debug("no price series for symbol", zap.String("symbol", symbol))
		return nil
	}

	out := make([]Candidate, 0, len(sigs))
	for _, sig := range sigs {
		entryIdx, ok := ResolveEntry(ps, sig, g.window)
		if !ok {
			continue // breakout never triggered
		}

		exit, err := SimulateExit(ps, entryIdx, sig, g.policy)
		if err != nil {
			g.logger.Warn("exit simulation failed",
				zap.String("symbol", symbol),
				zap.Time("signal_date", sig.Date),
				zap.Error(err),
			)
			continue
		}

		out = append(out, Candidate{
			Symbol:      symbol,
			EntryDate:   ps.Candles[entryIdx].Date,
			ExitDate:    ps.Candles[exit.Index].Date,
			EntryPrice:  sig.BuyPrice,
			ExitPrice:   exit.Price,
			NetReturn:   g.cost.NetReturn(sig.BuyPrice, exit.Price),
			HoldingDays: exit.Index - entryIdx,
		})
	}
	return out
}
