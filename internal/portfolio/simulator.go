// Package portfolio replays trade candidates chronologically under fixed
// capital and slot budgets, producing executed trades and an equity curve.
package portfolio

import (
	"fmt"
	"sort"
	"time"

	"github.com/smpss92118/stock/internal/core"
	"github.com/smpss92118/stock/internal/sim"
	"go.uber.org/zap"
)

// Config holds the capital-management parameters of one run.
type Config struct {
	InitialCapital  float64
	MaxPositions    int
	PositionSizePct float64
}

// DefaultConfig mirrors the research defaults: 1M capital, 10 slots, 10%
// equity per position.
func DefaultConfig() Config {
	return Config{
		InitialCapital:  1_000_000,
		MaxPositions:    10,
		PositionSizePct: 0.10,
	}
}

// Validate fails fast on unusable parameters so a bad config cannot
// silently produce an empty result.
func (c Config) Validate() error {
	if c.InitialCapital <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("initial_capital must be positive, got %v", c.InitialCapital))
	}
	if c.MaxPositions <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("max_positions must be positive, got %d", c.MaxPositions))
	}
	if c.PositionSizePct <= 0 || c.PositionSizePct > 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("position_size_pct must be in (0,1], got %v", c.PositionSizePct))
	}
	return nil
}

// Position is an open slot during replay. It is owned exclusively by the
// simulator and converted to cash when its exit date is reached.
type Position struct {
	Symbol             string
	EntryDate          time.Time
	ExitDate           time.Time
	CapitalCommitted   float64
	ExpectedReturnCash float64
}

// ExecutedTrade is the realized, append-only record of an admitted candidate.
type ExecutedTrade struct {
	Symbol           string
	EntryDate        time.Time
	ExitDate         time.Time
	CapitalCommitted float64
	ProfitCash       float64
	NetReturn        float64
}

// EquityPoint is one day of the realized equity curve.
type EquityPoint struct {
	Date   time.Time
	Equity float64
}

// Result is the full output of one portfolio replay.
type Result struct {
	Trades      []ExecutedTrade
	EquityCurve []EquityPoint
	Admitted    int
	Dropped     int
}

// Simulator sequences candidates under global capital constraints. One
// simulator run owns its state; concurrent runs need separate calls, never
// shared Results.
type Simulator struct {
	cfg    Config
	logger *zap.Logger
}

// NewSimulator validates the config and returns a Simulator.
func NewSimulator(cfg Config, logger *zap.Logger) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulator{cfg: cfg, logger: logger}, nil
}

// Run replays candidates in entry-date order with limited capital.
//
// Capital released by a position whose exit date equals the current entry
// date is available the same day. The research scripts disagreed on this
// tie-break; same-day availability is the chosen semantics, which permits
// same-day round-trips.
func (s *Simulator) Run(candidates []sim.Candidate) Result {
	ordered := sortedByEntry(candidates)

	cash := s.cfg.InitialCapital
	var open []Position // ordered by exit date for FIFO release
	var committed float64

	res := Result{}

	for _, c := range ordered {
		today := c.EntryDate

		// 1. Release capital from matured positions.
		released := 0
		for released < len(open) && !open[released].ExitDate.After(today) {
			cash += open[released].ExpectedReturnCash
			committed -= open[released].CapitalCommitted
			released++
		}
		if released > 0 {
			open = append(open[:0], open[released:]...)
		}

		// 2. Size off current total equity so growth compounds.
		totalEquity := cash + committed
		positionSize := totalEquity * s.cfg.PositionSizePct

		// 3. Admission: a free slot and enough uncommitted cash.
		if len(open) >= s.cfg.MaxPositions || cash < positionSize {
			res.Dropped++
			continue
		}

		cash -= positionSize
		committed += positionSize
		profit := positionSize * c.NetReturn

		pos := Position{
			Symbol:             c.Symbol,
			EntryDate:          c.EntryDate,
			ExitDate:           c.ExitDate,
			CapitalCommitted:   positionSize,
			ExpectedReturnCash: positionSize + profit,
		}
		insertByExit(&open, pos)

		res.Admitted++
		res.Trades = append(res.Trades, ExecutedTrade{
			Symbol:           c.Symbol,
			EntryDate:        c.EntryDate,
			ExitDate:         c.ExitDate,
			CapitalCommitted: positionSize,
			ProfitCash:       profit,
			NetReturn:        c.NetReturn,
		})
	}

	res.EquityCurve = buildEquityCurve(res.Trades, s.cfg.InitialCapital)

	s.logger.Debug("portfolio replay finished",
		zap.Int("candidates", len(ordered)),
		zap.Int("admitted", res.Admitted),
		zap.Int("dropped", res.Dropped),
	)
	return res
}

// RunUnlimited admits every candidate with a fixed slice of the initial
// capital, ignoring slot and cash constraints. Used as a baseline to measure
// how much the capital budget costs.
func (s *Simulator) RunUnlimited(candidates []sim.Candidate) Result {
	ordered := sortedByEntry(candidates)
	size := s.cfg.InitialCapital * s.cfg.PositionSizePct

	res := Result{Admitted: len(ordered)}
	for _, c := range ordered {
		res.Trades = append(res.Trades, ExecutedTrade{
			Symbol:           c.Symbol,
			EntryDate:        c.EntryDate,
			ExitDate:         c.ExitDate,
			CapitalCommitted: size,
			ProfitCash:       size * c.NetReturn,
			NetReturn:        c.NetReturn,
		})
	}
	res.EquityCurve = buildEquityCurve(res.Trades, s.cfg.InitialCapital)
	return res
}

func sortedByEntry(candidates []sim.Candidate) []sim.Candidate {
	ordered := make([]sim.Candidate, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].EntryDate.Before(ordered[j].EntryDate)
	})
	return ordered
}

func insertByExit(open *[]Position, pos Position) {
	i := sort.Search(len(*open), func(i int) bool {
		return (*open)[i].ExitDate.After(pos.ExitDate)
	})
	*open = append(*open, Position{})
	copy((*open)[i+1:], (*open)[i:])
	(*open)[i] = pos
}

// buildEquityCurve books realized profit on each trade's exit date and
// accumulates over the calendar span from the first entry to the last exit.
func buildEquityCurve(trades []ExecutedTrade, initialCapital float64) []EquityPoint {
	if len(trades) == 0 {
		return nil
	}

	minDate := trades[0].EntryDate
	maxDate := trades[0].ExitDate
	dailyPnL := make(map[time.Time]float64)
	for _, t := range trades {
		if t.EntryDate.Before(minDate) {
			minDate = t.EntryDate
		}
		if t.ExitDate.After(maxDate) {
			maxDate = t.ExitDate
		}
		dailyPnL[t.ExitDate] += t.ProfitCash
	}

	var curve []EquityPoint
	equity := initialCapital
	for d := minDate; !d.After(maxDate); d = d.AddDate(0, 0, 1) {
		equity += dailyPnL[d]
		curve = append(curve, EquityPoint{Date: d, Equity: equity})
	}
	return curve
}
