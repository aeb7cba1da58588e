package calculate

// Bollinger calculates Bollinger Bands: SMA(period) ± k·stddev(period).
func Bollinger(values []float64, period int, k float64) (upper, middle, lower []float64) {
	middle = SMA(values, period)
	sd := StdDev(values, period)

	upper = make([]float64, len(values))
	lower = make([]float64, len(values))
	for i := range values {
		upper[i] = middle[i] + sd[i]*k
		lower[i] = middle[i] - sd[i]*k
	}
	return upper, middle, lower
}
