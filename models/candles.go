package models

import "sort"

// DedupCandles returns a copy of candles sorted by timestamp, keeping the
// first candle seen for every timestamp.
func DedupCandles(candles []Candle) []Candle {
	if len(candles) == 0 {
		return nil
	}

	sorted := make([]Candle, len(candles))
	copy(sorted, candles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	out := sorted[:1]
	for _, c := range sorted[1:] {
		if c.Timestamp.Equal(out[len(out)-1].Timestamp) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Closes extracts close prices
func Closes(candles []Candle) []float64 {
	return series(candles, func(c Candle) float64 { return c.Close })
}

// Opens extracts open prices
func Opens(candles []Candle) []float64 {
	return series(candles, func(c Candle) float64 { return c.Open })
}

// Highs extracts high prices
func Highs(candles []Candle) []float64 {
	return series(candles, func(c Candle) float64 { return c.High })
}

// Lows extracts low prices
func Lows(candles []Candle) []float64 {
	return series(candles, func(c Candle) float64 { return c.Low })
}

// Volumes extracts volumes
func Volumes(candles []Candle) []float64 {
	return series(candles, func(c Candle) float64 { return c.Volume })
}

func series(candles []Candle, pick func(Candle) float64) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = pick(c)
	}
	return out
}
