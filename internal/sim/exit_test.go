package sim

import (
	"errors"
	"math"
	"testing"

	"github.com/smpss92118/stock/internal/core"
	"github.com/smpss92118/stock/internal/market"
)

func TestSimulateFixed_StopWinsSameDayTie(t *testing.T) {
	// Entry 100, stop 95, 2R target 110. The second bar touches both levels;
	// the stop outcome must be assumed.
	ps := seriesFrom(t, [][3]float64{
		{104, 99, 100},
		{111, 94, 105},
	})
	sig := core.Signal{Symbol: "TEST", Date: day(1), BuyPrice: 100, StopPrice: 95}

	res, err := SimulateExit(ps, 0, sig, FixedExit{RMultiple: 2, TimeExitDays: 20})
	if err != nil {
		t.Fatalf("SimulateExit() error = %v", err)
	}
	if res.Price != 95 {
		t.Errorf("exit price = %v, want 95 (stop wins tie)", res.Price)
	}
	if res.Index != 1 {
		t.Errorf("exit index = %d, want 1", res.Index)
	}
}

func TestSimulateFixed_TargetHit(t *testing.T) {
	ps := seriesFrom(t, [][3]float64{
		{104, 99, 100},
		{106, 100, 105},
		{112, 104, 111}, // touches 110 target, low stays above stop
	})
	sig := core.Signal{Symbol: "TEST", Date: day(1), BuyPrice: 100, StopPrice: 95}

	res, err := SimulateExit(ps, 0, sig, FixedExit{RMultiple: 2, TimeExitDays: 20})
	if err != nil {
		t.Fatalf("SimulateExit() error = %v", err)
	}
	if res.Price != 110 {
		t.Errorf("exit price = %v, want 110", res.Price)
	}
	if res.Index != 2 {
		t.Errorf("exit index = %d, want 2", res.Index)
	}
}

func TestSimulateFixed_TimeExit(t *testing.T) {
	bars := make([][3]float64, 10)
	for i := range bars {
		bars[i] = [3]float64{104, 99, 100 + float64(i)}
	}
	ps := seriesFrom(t, bars)
	sig := core.Signal{Symbol: "TEST", Date: day(1), BuyPrice: 100, StopPrice: 95}

	res, err := SimulateExit(ps, 0, sig, FixedExit{RMultiple: 3, TimeExitDays: 5})
	if err != nil {
		t.Fatalf("SimulateExit() error = %v", err)
	}
	// Window covers bars 0..4 from entry inclusive; exit at bar 4 close.
	if res.Index != 4 {
		t.Errorf("exit index = %d, want 4", res.Index)
	}
	if res.Price != 104 {
		t.Errorf("exit price = %v, want 104 (close of last window day)", res.Price)
	}
}

func TestSimulateFixed_NoTimeLimitRunsToEndOfData(t *testing.T) {
	bars := make([][3]float64, 8)
	for i := range bars {
		bars[i] = [3]float64{104, 99, 101}
	}
	ps := seriesFrom(t, bars)
	sig := core.Signal{Symbol: "TEST", Date: day(1), BuyPrice: 100, StopPrice: 95}

	res, err := SimulateExit(ps, 0, sig, FixedExit{RMultiple: 4, TimeExitDays: 0})
	if err != nil {
		t.Fatalf("SimulateExit() error = %v", err)
	}
	if res.Index != 7 {
		t.Errorf("exit index = %d, want 7 (final bar)", res.Index)
	}
	if res.Price != 101 {
		t.Errorf("exit price = %v, want final close 101", res.Price)
	}
}

func TestSimulateTrailing_BreakevenAfterTrigger(t *testing.T) {
	// Risk 10, trigger 1R at 110. Bar 1 triggers, bar 2 falls back through
	// breakeven: exit at entry price.
	ps := seriesFrom(t, [][3]float64{
		{105, 96, 100},
		{112, 101, 111}, // trigger
		{108, 99, 100},  // low <= breakeven stop 100
	})
	sig := core.Signal{Symbol: "TEST", Date: day(1), BuyPrice: 100, StopPrice: 90}

	res, err := SimulateExit(ps, 0, sig, TrailingExit{TriggerR: 1, Indicator: market.IndicatorMA20})
	if err != nil {
		t.Fatalf("SimulateExit() error = %v", err)
	}
	if res.Price != 100 {
		t.Errorf("exit price = %v, want breakeven 100", res.Price)
	}
	if res.Index != 2 {
		t.Errorf("exit index = %d, want 2", res.Index)
	}
}

func TestSimulateTrailing_IndicatorRaisesStopMonotonically(t *testing.T) {
	bars := make([][3]float64, 22)
	for i := 0; i < 19; i++ {
		bars[i] = [3]float64{109, 100, 108}
	}
	bars[19] = [3]float64{120, 110, 120} // trigger day, ma20 becomes 108.6
	bars[20] = [3]float64{121, 109, 120} // ma20 rises to 109.2
	bars[21] = [3]float64{121, 109, 120} // low 109 <= stop 109.2

	ps := seriesFrom(t, bars)
	sig := core.Signal{Symbol: "TEST", Date: day(1), BuyPrice: 100, StopPrice: 90}

	res, err := SimulateExit(ps, 0, sig, TrailingExit{TriggerR: 1, Indicator: market.IndicatorMA20})
	if err != nil {
		t.Fatalf("SimulateExit() error = %v", err)
	}
	if res.Index != 21 {
		t.Fatalf("exit index = %d, want 21", res.Index)
	}
	// Exit at the trailed stop, which followed ma20 upward and never fell.
	if math.Abs(res.Price-109.2) > 1e-9 {
		t.Errorf("exit price = %v, want 109.2 (trailed ma20)", res.Price)
	}
}

func TestSimulateTrailing_GapDownExitsAtClose(t *testing.T) {
	ps := seriesFrom(t, [][3]float64{
		{100, 96, 98},
		{90, 85, 88}, // gaps entirely below the 95 stop
	})
	sig := core.Signal{Symbol: "TEST", Date: day(1), BuyPrice: 98, StopPrice: 95}

	res, err := SimulateExit(ps, 0, sig, TrailingExit{TriggerR: 2, Indicator: market.IndicatorMA20})
	if err != nil {
		t.Fatalf("SimulateExit() error = %v", err)
	}
	if res.Price != 88 {
		t.Errorf("exit price = %v, want close 88 on gap-down", res.Price)
	}
}

func TestSimulateTrailing_Ladder(t *testing.T) {
	// Risk 10, trigger 1R. Bar 1 reaches 3.5R: ladder stop = entry + 2R.
	ps := seriesFrom(t, [][3]float64{
		{100, 95, 100},
		{135, 100, 130},
		{125, 119, 122}, // low 119 <= ladder stop 120
	})
	sig := core.Signal{Symbol: "TEST", Date: day(1), BuyPrice: 100, StopPrice: 90}

	res, err := SimulateExit(ps, 0, sig, TrailingExit{TriggerR: 1, Indicator: market.IndicatorMA20, Ladder: true})
	if err != nil {
		t.Fatalf("SimulateExit() error = %v", err)
	}
	if res.Price != 120 {
		t.Errorf("exit price = %v, want ladder stop 120", res.Price)
	}

	// Without the ladder the short series has no ma20 values, so the stop
	// stays at breakeven and the trade runs to the final close.
	res, err = SimulateExit(ps, 0, sig, TrailingExit{TriggerR: 1, Indicator: market.IndicatorMA20})
	if err != nil {
		t.Fatalf("SimulateExit() error = %v", err)
	}
	if res.Price != 122 {
		t.Errorf("exit price = %v, want final close 122", res.Price)
	}
}

func TestSimulateTrailing_ExhaustionExitsAtFinalClose(t *testing.T) {
	ps := seriesFrom(t, [][3]float64{
		{105, 98, 100},
		{106, 99, 103},
		{107, 100, 105},
	})
	sig := core.Signal{Symbol: "TEST", Date: day(1), BuyPrice: 100, StopPrice: 90}

	res, err := SimulateExit(ps, 0, sig, TrailingExit{TriggerR: 3, Indicator: market.IndicatorMA20})
	if err != nil {
		t.Fatalf("SimulateExit() error = %v", err)
	}
	if res.Index != 2 || res.Price != 105 {
		t.Errorf("exit = %d@%v, want final close 2@105", res.Index, res.Price)
	}
}

func TestSimulateExit_Errors(t *testing.T) {
	ps := flatSeries(t, 5, 100)

	badRisk := core.Signal{Symbol: "TEST", Date: day(1), BuyPrice: 95, StopPrice: 95}
	if _, err := SimulateExit(ps, 0, badRisk, FixedExit{RMultiple: 2}); !errors.Is(err, core.ErrBadPolicy) {
		t.Errorf("expected ErrBadPolicy for zero risk, got %v", err)
	}

	sig := core.Signal{Symbol: "TEST", Date: day(1), BuyPrice: 100, StopPrice: 95}
	if _, err := SimulateExit(ps, 99, sig, FixedExit{RMultiple: 2}); !errors.Is(err, core.ErrBadPolicy) {
		t.Errorf("expected ErrBadPolicy for bad index, got %v", err)
	}
	if _, err := SimulateExit(ps, 0, sig, TrailingExit{TriggerR: 1, Indicator: "ma999"}); !errors.Is(err, core.ErrBadPolicy) {
		t.Errorf("expected ErrBadPolicy for unknown indicator, got %v", err)
	}
}
