// Package sim turns pattern signals into realized trade candidates by
// replaying entries and exits over historical price paths.
package sim

import "fmt"

// ExitPolicy selects how a filled trade is unwound. It is a closed union:
// exactly FixedExit and TrailingExit implement it, and SimulateExit matches
// exhaustively over the two.
type ExitPolicy interface {
	// Label is a short human-readable parameter summary used in reports.
	Label() string

	exitPolicy()
}

// FixedExit exits at a fixed R-multiple profit target, at the initial stop,
// or at the close of a bounded holding window, whichever comes first.
// TimeExitDays counts candles from the entry day inclusive; a value <= 0
// means no time limit (the trade runs to the end of available data).
type FixedExit struct {
	RMultiple    float64
	TimeExitDays int
}

func (p FixedExit) Label() string {
	if p.TimeExitDays <= 0 {
		return fmt.Sprintf("fixed R=%.1f T=none", p.RMultiple)
	}
	return fmt.Sprintf("fixed R=%.1f T=%d", p.RMultiple, p.TimeExitDays)
}

func (FixedExit) exitPolicy() {}

// TrailingExit holds the initial stop until unrealized profit reaches
// TriggerR risk units, then moves the stop to breakeven and trails it under
// an indicator column (for example ma20). With Ladder set, the stop is also
// raised one full R for every whole R of profit beyond the trigger, taking
// whichever stop is higher.
type TrailingExit struct {
	TriggerR  float64
	Indicator string
	Ladder    bool
}

func (p TrailingExit) Label() string {
	if p.Ladder {
		return fmt.Sprintf("trailing trig=%.1fR trail=%s ladder", p.TriggerR, p.Indicator)
	}
	return fmt.Sprintf("trailing trig=%.1fR trail=%s", p.TriggerR, p.Indicator)
}

func (TrailingExit) exitPolicy() {}
