// Package stats reduces executed trades and equity curves to summary risk
// and performance figures. Every function is pure.
package stats

import (
	"math"
	"sort"

	"github.com/smpss92118/stock/internal/portfolio"
)

// TradingDaysPerYear is the annualization base for the Sharpe ratio.
const TradingDaysPerYear = 252

// Summary is the scalar metrics record of one portfolio run.
type Summary struct {
	TradeCount       int
	WinRate          float64 // fraction in [0,1]
	TotalProfit      float64
	FinalEquity      float64
	AnnualizedReturn float64
	Sharpe           float64
	MaxDrawdown      float64 // always <= 0
	MaxWinStreak     int
	MaxLossStreak    int
}

// Calculate reduces a portfolio result to a Summary. riskFreeRate is annual
// (for example 0.02); it is scaled to a daily rate internally.
func Calculate(res portfolio.Result, initialCapital, riskFreeRate float64) Summary {
	s := Summary{
		TradeCount:  len(res.Trades),
		FinalEquity: initialCapital,
	}
	if len(res.Trades) == 0 {
		return s
	}

	var wins int
	for _, t := range res.Trades {
		s.TotalProfit += t.ProfitCash
		if t.NetReturn > 0 {
			wins++
		}
	}
	s.WinRate = float64(wins) / float64(len(res.Trades))

	if len(res.EquityCurve) > 0 {
		s.FinalEquity = res.EquityCurve[len(res.EquityCurve)-1].Equity
		s.AnnualizedReturn = annualizedReturn(res.EquityCurve, initialCapital)
		s.Sharpe = sharpe(dailyReturns(res.EquityCurve), riskFreeRate/TradingDaysPerYear)
		s.MaxDrawdown = maxDrawdown(res.EquityCurve)
	}

	s.MaxWinStreak, s.MaxLossStreak = streaks(res.Trades)
	return s
}

// annualizedReturn compounds the total return over the calendar span of the
// curve: (final/initial)^(365.25/days) - 1, or 0 when the span is empty.
func annualizedReturn(curve []portfolio.EquityPoint, initialCapital float64) float64 {
	days := curve[len(curve)-1].Date.Sub(curve[0].Date).Hours() / 24
	if days <= 0 || initialCapital <= 0 {
		return 0
	}
	final := curve[len(curve)-1].Equity
	if final <= 0 {
		return -1
	}
	return math.Pow(final/initialCapital, 365.25/days) - 1
}

// dailyReturns is the day-over-day percentage change of the curve, with a
// leading zero for the first day.
func dailyReturns(curve []portfolio.EquityPoint) []float64 {
	returns := make([]float64, len(curve))
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev != 0 {
			returns[i] = curve[i].Equity/prev - 1
		}
	}
	return returns
}

// sharpe annualizes mean daily excess return over the sample standard
// deviation. Zero variance yields exactly zero.
func sharpe(returns []float64, riskFreeDaily float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	std := math.Sqrt(variance / float64(len(returns)-1))
	if std == 0 {
		return 0
	}

	return (mean - riskFreeDaily) / std * math.Sqrt(TradingDaysPerYear)
}

// maxDrawdown is the most negative excursion below the running equity peak.
func maxDrawdown(curve []portfolio.EquityPoint) float64 {
	var maxDD float64
	peak := curve[0].Equity
	for _, pt := range curve {
		if pt.Equity > peak {
			peak = pt.Equity
		}
		if peak > 0 {
			dd := (pt.Equity - peak) / peak
			if dd < maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// streaks returns the longest winning and losing runs over trades ordered
// by exit date.
func streaks(trades []portfolio.ExecutedTrade) (maxWin, maxLoss int) {
	ordered := make([]portfolio.ExecutedTrade, len(trades))
	copy(ordered, trades)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ExitDate.Before(ordered[j].ExitDate)
	})

	var curWin, curLoss int
	for _, t := range ordered {
		if t.NetReturn > 0 {
			curWin++
			curLoss = 0
			if curWin > maxWin {
				maxWin = curWin
			}
		} else {
			curLoss++
			curWin = 0
			if curLoss > maxLoss {
				maxLoss = curLoss
			}
		}
	}
	return maxWin, maxLoss
}
