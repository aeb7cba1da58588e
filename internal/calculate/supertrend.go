package calculate

// Supertrend calculates the lower supertrend band (h+l)/2 - multiplier·ATR.
// The line never flips to the upper band; strategies written against it
// rely on that.
func Supertrend(high, low, close []float64, length int, multiplier float64) []float64 {
	atr := ATR(high, low, close, length)
	out := make([]float64, len(close))
	for i := range close {
		out[i] = (high[i]+low[i])/2 - multiplier*atr[i]
	}
	return out
}
