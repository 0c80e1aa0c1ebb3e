package sim

import (
	"testing"
	"time"

	"github.com/smpss92118/stock/internal/core"
	"github.com/smpss92118/stock/internal/market"
)

func day(d int) time.Time {
	// Spread across months so d can exceed 31.
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d-1)
}

// flatSeries builds n candles at a constant price level.
func flatSeries(t *testing.T, n int, price float64) *market.PriceSeries {
	t.Helper()
	cs := make([]core.Candle, n)
	for i := range cs {
		cs[i] = core.Candle{Date: day(i + 1), Open: price, High: price, Low: price, Close: price, Volume: 1}
	}
	ps, err := market.NewPriceSeries("TEST", cs)
	if err != nil {
		t.Fatalf("NewPriceSeries() error = %v", err)
	}
	return ps
}

// seriesFrom builds a series from explicit (high, low, close) triples with
// open = close.
func seriesFrom(t *testing.T, bars [][3]float64) *market.PriceSeries {
	t.Helper()
	cs := make([]core.Candle, len(bars))
	for i, b := range bars {
		cs[i] = core.Candle{Date: day(i + 1), Open: b[2], High: b[0], Low: b[1], Close: b[2], Volume: 1}
	}
	ps, err := market.NewPriceSeries("TEST", cs)
	if err != nil {
		t.Fatalf("NewPriceSeries() error = %v", err)
	}
	return ps
}

func TestResolveEntry_FillsOnFirstQualifyingDay(t *testing.T) {
	ps := seriesFrom(t, [][3]float64{
		{100, 98, 99},  // signal day
		{101, 99, 100}, // high below buy
		{103, 100, 102}, // first touch
		{105, 102, 104},
	})
	sig := core.Signal{Symbol: "TEST", Date: day(1), BuyPrice: 102, StopPrice: 97}

	idx, ok := ResolveEntry(ps, sig, 30)
	if !ok {
		t.Fatal("expected a fill")
	}
	if idx != 2 {
		t.Errorf("entry index = %d, want 2", idx)
	}
}

func TestResolveEntry_SignalDayHighDoesNotFill(t *testing.T) {
	// The scan starts the day after the signal; the signal day's own high
	// must not fill the order.
	ps := seriesFrom(t, [][3]float64{
		{110, 98, 99}, // signal day touches buy level
		{100, 97, 98},
		{100, 97, 98},
	})
	sig := core.Signal{Symbol: "TEST", Date: day(1), BuyPrice: 105, StopPrice: 95}

	if _, ok := ResolveEntry(ps, sig, 30); ok {
		t.Error("expected no fill from the signal day itself")
	}
}

func TestResolveEntry_WindowBound(t *testing.T) {
	bars := make([][3]float64, 40)
	for i := range bars {
		bars[i] = [3]float64{100, 98, 99}
	}
	bars[35] = [3]float64{120, 98, 110} // breakout after the 30-day window

	ps := seriesFrom(t, bars)
	sig := core.Signal{Symbol: "TEST", Date: day(1), BuyPrice: 115, StopPrice: 95}

	if _, ok := ResolveEntry(ps, sig, 30); ok {
		t.Error("fill outside the 30-day window should be rejected")
	}
	if idx, ok := ResolveEntry(ps, sig, 36); !ok || idx != 35 {
		t.Errorf("wider window should fill at 35, got %d,%v", idx, ok)
	}
}

func TestResolveEntry_SignalOnLastDay(t *testing.T) {
	ps := flatSeries(t, 5, 100)
	sig := core.Signal{Symbol: "TEST", Date: day(5), BuyPrice: 99, StopPrice: 95}

	if _, ok := ResolveEntry(ps, sig, 30); ok {
		t.Error("signal on the final bar can never fill")
	}
}

func TestResolveEntry_UnknownSignalDate(t *testing.T) {
	ps := flatSeries(t, 5, 100)
	sig := core.Signal{Symbol: "TEST", Date: day(99), BuyPrice: 99, StopPrice: 95}

	if _, ok := ResolveEntry(ps, sig, 30); ok {
		t.Error("signal date missing from the series should not fill")
	}
}
