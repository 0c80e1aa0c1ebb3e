package sim

// Taiwan exchange transaction cost defaults. Fee applies to both legs, the
// securities transaction tax to the sell leg only.
const (
	DefaultFeeRate = 0.001
	DefaultTaxRate = 0.003
)

// CostModel converts raw entry/exit prices into a net return. Slippage is
// one exchange tick against the trader on each leg. With Enabled false the
// model degrades to the raw price return.
type CostModel struct {
	Enabled bool
	FeeRate float64
	TaxRate float64
}

// DefaultCostModel returns the full-cost model with exchange defaults.
func DefaultCostModel() CostModel {
	return CostModel{Enabled: true, FeeRate: DefaultFeeRate, TaxRate: DefaultTaxRate}
}

// TickSize returns the exchange tick for a price band (TWSE rules).
func TickSize(price float64) float64 {
	switch {
	case price < 10:
		return 0.01
	case price < 50:
		return 0.05
	case price < 100:
		return 0.1
	case price < 500:
		return 0.5
	case price < 1000:
		return 1.0
	default:
		return 5.0
	}
}

// NetReturn computes the net fractional return of a round trip:
//
//	cost     = (entry + 1 tick) * (1 + fee)
//	proceeds = (exit − 1 tick) * (1 − fee − tax)
//	net      = (proceeds − cost) / cost
func (m CostModel) NetReturn(entryPrice, exitPrice float64) float64 {
	if !m.Enabled {
		return (exitPrice - entryPrice) / entryPrice
	}

	realEntry := entryPrice + TickSize(entryPrice)
	realExit := exitPrice - TickSize(exitPrice)

	cost := realEntry * (1 + m.FeeRate)
	proceeds := realExit * (1 - m.FeeRate - m.TaxRate)
	return (proceeds - cost) / cost
}
