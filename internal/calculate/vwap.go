package calculate

import "math"

// VWAP calculates the cumulative volume weighted average of the typical
// price (h+l+c)/3. Entries are NaN until any volume has traded.
func VWAP(high, low, close, volume []float64) []float64 {
	out := make([]float64, len(close))
	var pv, vol float64
	for i := range close {
		typical := (high[i] + low[i] + close[i]) / 3
		pv += typical * volume[i]
		vol += volume[i]
		if vol == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = pv / vol
	}
	return out
}
