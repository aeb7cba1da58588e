package calculate

import "math"

// RSI calculates the relative strength index from the mean positive and
// negative deltas over the trailing period deltas. With no losses in the
// window the value is 100 when there were gains and 50 otherwise.
func RSI(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period <= 0 || len(values) <= period {
		return out
	}

	gains := make([]float64, len(values))
	losses := make([]float64, len(values))
	gains[0], losses[0] = math.NaN(), math.NaN()
	for i := 1; i < len(values); i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	avgGain := SMA(gains, period)
	avgLoss := SMA(losses, period)
	for i := period; i < len(values); i++ {
		g, l := avgGain[i], avgLoss[i]
		if math.IsNaN(g) || math.IsNaN(l) {
			continue
		}
		if l == 0 {
			if g > 0 {
				out[i] = 100
			} else {
				out[i] = 50
			}
			continue
		}
		out[i] = 100 - 100/(1+g/l)
	}
	return out
}
