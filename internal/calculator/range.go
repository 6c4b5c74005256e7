package calculator

import "math"

// priceRange scans prices and returns the high and low. Callers guarantee at
// least one price.
func priceRange(prices []float64) (high, low float64) {
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, p := range prices {
		if p > high {
			high = p
		}
		if p < low {
			low = p
		}
	}
	return high, low
}
