package core

import (
	"math"
	"time"
)

// Candle represents one daily OHLCV bar. Candles are immutable and ordered
// by date within a symbol.
type Candle struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// IsValid checks that the candle carries usable price data.
func (c Candle) IsValid() bool {
	for _, v := range []float64{c.Open, c.High, c.Low, c.Close} {
		if math.IsNaN(v) || v <= 0 {
			return false
		}
	}
	return !c.Date.IsZero() && c.High >= c.Low
}

// Signal is a pattern-breakout signal produced by an upstream detector.
// BuyPrice is the limit entry level, StopPrice the initial protective stop.
type Signal struct {
	Symbol    string
	Date      time.Time
	BuyPrice  float64
	StopPrice float64
}

// Risk returns the per-share risk unit (1R) of the signal.
func (s Signal) Risk() float64 {
	return s.BuyPrice - s.StopPrice
}

// IsValid reports whether the signal can be simulated. Signals with
// non-positive risk or missing fields are filtered before simulation.
func (s Signal) IsValid() bool {
	if s.Symbol == "" || s.Date.IsZero() {
		return false
	}
	if math.IsNaN(s.BuyPrice) || math.IsNaN(s.StopPrice) {
		return false
	}
	return s.BuyPrice > 0 && s.StopPrice > 0 && s.BuyPrice > s.StopPrice
}

// Day truncates a time to its calendar day in UTC. All simulation dates are
// compared at day granularity.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
