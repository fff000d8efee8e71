package signals

import "math"

// sma returns the simple moving average of the last window values, or false
// when the series is shorter than the window.
func sma(prices []float64, window int) (float64, bool) {
	if window <= 0 || len(prices) < window {
		return 0, false
	}
	var sum float64
	for _, p := range prices[len(prices)-window:] {
		sum += p
	}
	return sum / float64(window), true
}

// atrPercent approximates the average true range as a fraction of price
// using closes only: the mean absolute daily return over the window, scaled
// by 1.253 to map mean absolute deviation onto standard deviation. Returns
// false when the series is too short.
func atrPercent(prices []float64, window int) (float64, bool) {
	if window <= 0 || len(prices) < window+1 {
		return 0, false
	}

	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			continue
		}
		returns = append(returns, prices[i]/prices[i-1]-1)
	}
	if len(returns) < window {
		return 0, false
	}

	var sum float64
	for _, r := range returns[len(returns)-window:] {
		sum += math.Abs(r)
	}
	mad := sum / float64(window)

	return mad * 1.253, true
}
