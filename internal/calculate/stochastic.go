package calculate

// Stochastic calculates the stochastic oscillator. The raw value is
// 100·(close - lowest low)/(highest high - lowest low) over period bars,
// with a zero range floored to 1. %K is its kWindow mean and %D the
// dWindow mean of %K.
func Stochastic(high, low, close []float64, period, kWindow, dWindow int) (k, d []float64) {
	highest := Highest(high, period)
	lowest := Lowest(low, period)

	raw := make([]float64, len(close))
	for i := range close {
		raw[i] = 100 * (close[i] - lowest[i]) / floorDenominator(highest[i]-lowest[i])
	}

	k = SMA(raw, kWindow)
	d = SMA(k, dWindow)
	return k, d
}
