package indicator

import "math"

// SMA calculates Simple Moving Average
// Returns slice of length: len(prices) - period + 1
func SMA(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return []float64{}
	}

	result := make([]float64, 0, len(prices)-period+1)

	// Calculate first SMA
	var sum float64
	for i := 0; i < period; i++ {
		sum += prices[i]
	}
	result = append(result, sum/float64(period))

	// Rolling calculation
	for i := period; i < len(prices); i++ {
		sum = sum - prices[i-period] + prices[i]
		result = append(result, sum/float64(period))
	}

	return result
}

// RollingMean calculates a moving average aligned to the input: the result
// has the same length as prices, with NaN for the first period-1 slots where
// the window is incomplete. Trailing-stop logic indexes this by bar.
func RollingMean(prices []float64, period int) []float64 {
	result := make([]float64, len(prices))
	for i := range result {
		result[i] = math.NaN()
	}

	sma := SMA(prices, period)
	for i, v := range sma {
		result[period-1+i] = v
	}
	return result
}
