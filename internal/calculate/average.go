// Package calculate holds the indicator library. Every function takes
// ordered series and returns a series aligned index-for-index with its
// input; entries without enough history are NaN.
package calculate

import "math"

// Nz replaces NaN (and ±Inf) with def.
func Nz(v, def float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}

// NzSeries replaces every undefined entry of values with def, in a copy.
func NzSeries(values []float64, def float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = Nz(v, def)
	}
	return out
}

// Last returns the final entry of a series, NaN when empty.
func Last(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return values[len(values)-1]
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// SMA calculates the simple moving average over period values.
func SMA(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period <= 0 {
		return out
	}

	var sum float64
	nans := 0
	for i, v := range values {
		if math.IsNaN(v) {
			nans++
		} else {
			sum += v
		}
		if i >= period {
			old := values[i-period]
			if math.IsNaN(old) {
				nans--
			} else {
				sum -= old
			}
		}
		if i >= period-1 && nans == 0 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// StdDev calculates the rolling population standard deviation.
func StdDev(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period <= 0 {
		return out
	}
	means := SMA(values, period)
	for i := period - 1; i < len(values); i++ {
		if math.IsNaN(means[i]) {
			continue
		}
		var variance float64
		for j := i - period + 1; j <= i; j++ {
			d := values[j] - means[i]
			variance += d * d
		}
		out[i] = math.Sqrt(variance / float64(period))
	}
	return out
}

// Highest returns the rolling maximum over period values.
func Highest(values []float64, period int) []float64 {
	return rollingExtreme(values, period, func(a, b float64) bool { return a > b })
}

// Lowest returns the rolling minimum over period values.
func Lowest(values []float64, period int) []float64 {
	return rollingExtreme(values, period, func(a, b float64) bool { return a < b })
}

func rollingExtreme(values []float64, period int, better func(a, b float64) bool) []float64 {
	out := nanSeries(len(values))
	if period <= 0 {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		best := values[i-period+1]
		for j := i - period + 2; j <= i; j++ {
			if better(values[j], best) {
				best = values[j]
			}
		}
		out[i] = best
	}
	return out
}

// shift moves a series by n positions: positive n shifts forward (later
// indices), negative n shifts back. Vacated entries are NaN.
func shift(values []float64, n int) []float64 {
	out := nanSeries(len(values))
	for i := range values {
		j := i - n
		if j >= 0 && j < len(values) {
			out[i] = values[j]
		}
	}
	return out
}

// floorDenominator keeps zero ranges from dividing by zero. Strategies may
// depend on the resulting values, so the floor is 1, not epsilon.
func floorDenominator(d float64) float64 {
	if d == 0 {
		return 1
	}
	return d
}
