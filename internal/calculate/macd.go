package calculate

// MACD calculates the MACD line (EMA(fast) - EMA(slow)), its signal line
// (EMA of the MACD line) and the histogram (line - signal).
func MACD(values []float64, fastPeriod, slowPeriod, signalPeriod int) (macd, signal, histogram []float64) {
	fast := EMA(values, fastPeriod)
	slow := EMA(values, slowPeriod)

	macd = make([]float64, len(values))
	for i := range values {
		macd[i] = fast[i] - slow[i]
	}

	signal = EMA(macd, signalPeriod)
	histogram = make([]float64, len(values))
	for i := range values {
		histogram[i] = macd[i] - signal[i]
	}
	return macd, signal, histogram
}
