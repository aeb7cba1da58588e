package calculate

import "math"

// EMA calculates the exponential moving average with smoothing factor
// 2/(period+1), seeded with the first defined value. Entries before the
// period-th defined value are NaN; undefined inputs carry the previous
// average forward.
func EMA(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period <= 0 {
		return out
	}

	multiplier := 2.0 / float64(period+1)
	start := -1
	var ema float64
	for i, v := range values {
		if start < 0 {
			if math.IsNaN(v) {
				continue
			}
			start = i
			ema = v
		} else if !math.IsNaN(v) {
			ema = (v-ema)*multiplier + ema
		}
		if i-start >= period-1 {
			out[i] = ema
		}
	}
	return out
}
