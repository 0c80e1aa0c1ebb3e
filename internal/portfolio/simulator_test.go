package portfolio

import (
	"testing"
	"time"

	"github.com/smpss92118/stock/internal/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d-1)
}

func cand(symbol string, entry, exit int, netReturn float64) sim.Candidate {
	return sim.Candidate{
		Symbol:    symbol,
		EntryDate: day(entry),
		ExitDate:  day(exit),
		NetReturn: netReturn,
	}
}

func newSim(t *testing.T, cfg Config) *Simulator {
	t.Helper()
	s, err := NewSimulator(cfg, nil)
	require.NoError(t, err)
	return s
}

func TestSimulator_TwoCandidates(t *testing.T) {
	s := newSim(t, DefaultConfig())

	candidates := []sim.Candidate{
		cand("2330", 2, 10, 0.05),
		cand("2317", 3, 5, -0.02),
	}

	res := s.Run(candidates)

	require.Len(t, res.Trades, 2)
	assert.Equal(t, 2, res.Admitted)
	assert.Equal(t, 0, res.Dropped)

	// First slice is 10% of initial equity.
	assert.InDelta(t, 100_000, res.Trades[0].CapitalCommitted, 1e-6)
	assert.InDelta(t, 5_000, res.Trades[0].ProfitCash, 1e-6)

	// Second is sized off total equity at its own entry (still 1M: 900k cash
	// + 100k committed).
	assert.InDelta(t, 100_000, res.Trades[1].CapitalCommitted, 1e-6)
	assert.InDelta(t, -2_000, res.Trades[1].ProfitCash, 1e-6)

	// Equity curve spans first entry to last exit, booking P&L on exits.
	require.NotEmpty(t, res.EquityCurve)
	assert.True(t, res.EquityCurve[0].Date.Equal(day(2)))
	last := res.EquityCurve[len(res.EquityCurve)-1]
	assert.True(t, last.Date.Equal(day(10)))
	assert.InDelta(t, 1_003_000, last.Equity, 1e-6)
}

func TestSimulator_MaxPositionsNeverExceeded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPositions = 3
	s := newSim(t, cfg)

	// Eight overlapping candidates entering on the same day.
	var candidates []sim.Candidate
	for i := 0; i < 8; i++ {
		candidates = append(candidates, cand("SYM", 2, 20, 0.10))
	}

	res := s.Run(candidates)
	assert.Equal(t, 3, res.Admitted)
	assert.Equal(t, 5, res.Dropped)
}

func TestSimulator_CashConstraint(t *testing.T) {
	cfg := Config{InitialCapital: 1_000_000, MaxPositions: 10, PositionSizePct: 0.60}
	s := newSim(t, cfg)

	candidates := []sim.Candidate{
		cand("A", 2, 20, 0.10),
		cand("B", 3, 20, 0.10), // equity still 1M, size 600k > 400k cash
	}

	res := s.Run(candidates)
	assert.Equal(t, 1, res.Admitted)
	assert.Equal(t, 1, res.Dropped)
}

func TestSimulator_SameDayReleaseAllowsReentry(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPositions = 1
	s := newSim(t, cfg)

	candidates := []sim.Candidate{
		cand("A", 2, 5, 0.04),
		cand("B", 5, 9, 0.03), // enters the day A matures
	}

	res := s.Run(candidates)
	assert.Equal(t, 2, res.Admitted, "capital released on the entry day should be usable")
}

func TestSimulator_SizingCompounds(t *testing.T) {
	s := newSim(t, DefaultConfig())

	candidates := []sim.Candidate{
		cand("A", 2, 5, 0.50),  // +50k, equity 1.05M once released
		cand("B", 10, 15, 0.0), // sized off grown equity
	}

	res := s.Run(candidates)
	require.Len(t, res.Trades, 2)
	assert.InDelta(t, 105_000, res.Trades[1].CapitalCommitted, 1e-6)
}

func TestSimulator_EquityConservation(t *testing.T) {
	s := newSim(t, DefaultConfig())

	candidates := []sim.Candidate{
		cand("A", 2, 6, 0.08),
		cand("B", 3, 9, -0.03),
		cand("C", 4, 12, 0.12),
		cand("D", 7, 14, 0.02),
	}

	res := s.Run(candidates)
	require.Len(t, res.Trades, 4)

	// Replaying cash flow by hand must land on the final curve value:
	// initial capital plus every realized profit.
	var totalProfit float64
	for _, tr := range res.Trades {
		totalProfit += tr.ProfitCash
	}
	last := res.EquityCurve[len(res.EquityCurve)-1]
	assert.InDelta(t, 1_000_000+totalProfit, last.Equity, 1e-6)

	// And the curve itself books each exit exactly once.
	booked := make(map[time.Time]float64)
	for _, tr := range res.Trades {
		booked[tr.ExitDate] += tr.ProfitCash
	}
	prev := 1_000_000.0
	for _, pt := range res.EquityCurve {
		assert.InDelta(t, prev+booked[pt.Date], pt.Equity, 1e-6)
		prev = pt.Equity
	}
}

func TestSimulator_RunUnlimited(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPositions = 1
	s := newSim(t, cfg)

	var candidates []sim.Candidate
	for i := 0; i < 5; i++ {
		candidates = append(candidates, cand("SYM", 2, 20, 0.10))
	}

	res := s.RunUnlimited(candidates)
	assert.Equal(t, 5, res.Admitted)
	for _, tr := range res.Trades {
		assert.InDelta(t, 100_000, tr.CapitalCommitted, 1e-6)
	}
}

func TestNewSimulator_InvalidConfig(t *testing.T) {
	bad := []Config{
		{InitialCapital: 0, MaxPositions: 10, PositionSizePct: 0.1},
		{InitialCapital: 1_000_000, MaxPositions: 0, PositionSizePct: 0.1},
		{InitialCapital: 1_000_000, MaxPositions: 10, PositionSizePct: 0},
		{InitialCapital: 1_000_000, MaxPositions: 10, PositionSizePct: 1.5},
	}
	for i, cfg := range bad {
		_, err := NewSimulator(cfg, nil)
		assert.Error(t, err, "config %d should be rejected", i)
	}
}
