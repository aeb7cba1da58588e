package calculate

// WilliamsR calculates Williams %R:
// -100·(highest high - close)/(highest high - lowest low), zero range floored to 1.
func WilliamsR(high, low, close []float64, length int) []float64 {
	highest := Highest(high, length)
	lowest := Lowest(low, length)

	out := make([]float64, len(close))
	for i := range close {
		out[i] = -100 * (highest[i] - close[i]) / floorDenominator(highest[i]-lowest[i])
	}
	return out
}
