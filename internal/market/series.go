// Package market holds per-symbol price history and its derived indicators.
package market

import (
	"sort"
	"time"

	"github.com/smpss92118/stock/internal/core"
	"github.com/smpss92118/stock/internal/indicator"
)

// Indicator column names available for trailing stops.
const (
	IndicatorMA20 = "ma20"
	IndicatorMA50 = "ma50"
)

// PriceSeries is an ordered daily OHLCV history for one symbol, with rolling
// moving averages precomputed and a date->index map to avoid linear scans.
type PriceSeries struct {
	Symbol  string
	Candles []core.Candle

	indicators map[string][]float64
	index      map[time.Time]int
}

// NewPriceSeries builds a series from raw candles. Candles with missing or
// NaN fields are dropped; remaining candles are sorted by date. An entirely
// empty input is a programmer error and fails fast, while an input whose
// rows are all unusable maps to ErrNoData so the caller can skip the symbol.
func NewPriceSeries(symbol string, candles []core.Candle) (*PriceSeries, error) {
	if len(candles) == 0 {
		return nil, core.ErrEmptySeries
	}

	clean := make([]core.Candle, 0, len(candles))
	for _, c := range candles {
		if c.IsValid() {
			c.Date = core.Day(c.Date)
			clean = append(clean, c)
		}
	}
	if len(clean) == 0 {
		return nil, core.ErrNoData
	}

	sort.SliceStable(clean, func(i, j int) bool {
		return clean[i].Date.Before(clean[j].Date)
	})

	closes := make([]float64, len(clean))
	idx := make(map[time.Time]int, len(clean))
	for i, c := range clean {
		closes[i] = c.Close
		idx[c.Date] = i
	}

	return &PriceSeries{
		Symbol:  symbol,
		Candles: clean,
		indicators: map[string][]float64{
			IndicatorMA20: indicator.RollingMean(closes, 20),
			IndicatorMA50: indicator.RollingMean(closes, 50),
		},
		index: idx,
	}, nil
}

// BuildSeries converts raw candle tables into indexed price series.
// Symbols whose rows are all unusable are skipped; the batch fails only
// when nothing at all survives.
func BuildSeries(tables map[string][]core.Candle) (map[string]*PriceSeries, error) {
	out := make(map[string]*PriceSeries, len(tables))
	for sym, candles := range tables {
		ps, err := NewPriceSeries(sym, candles)
		if err != nil {
			continue
		}
		out[sym] = ps
	}
	if len(out) == 0 {
		return nil, core.ErrNoData
	}
	return out, nil
}

// Len returns the number of candles.
func (s *PriceSeries) Len() int {
	return len(s.Candles)
}

// Index returns the position of a trading day in the series.
func (s *PriceSeries) Index(date time.Time) (int, bool) {
	i, ok := s.index[core.Day(date)]
	return i, ok
}

// Indicator returns an indicator column aligned with Candles.
func (s *PriceSeries) Indicator(name string) ([]float64, error) {
	col, ok := s.indicators[name]
	if !ok {
		return nil, core.ErrUnknownField
	}
	return col, nil
}
