package calculate

import "math"

// TrueRange is max(high-low, |high-prevClose|, |low-prevClose|); the first
// bar has no previous close and uses high-low.
func TrueRange(high, low, close []float64) []float64 {
	out := make([]float64, len(close))
	for i := range close {
		highLow := high[i] - low[i]
		if i == 0 {
			out[i] = highLow
			continue
		}
		highPrevClose := math.Abs(high[i] - close[i-1])
		lowPrevClose := math.Abs(low[i] - close[i-1])
		out[i] = math.Max(highLow, math.Max(highPrevClose, lowPrevClose))
	}
	return out
}

// ATR calculates the average true range as the rolling mean of the true
// range over length bars.
func ATR(high, low, close []float64, length int) []float64 {
	return SMA(TrueRange(high, low, close), length)
}
