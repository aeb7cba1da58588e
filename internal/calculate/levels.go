package calculate

import (
	"math"
	"sort"
)

const (
	// swing points closer than this fraction of price share a level
	levelTolerance = 0.0002
	maxLevels      = 3
	levelLookback  = 20
	recentCloses   = 10
)

type priceLevel struct {
	price    float64
	strength int
}

// SupportResistance finds swing-low supports below and swing-high
// resistances above close[index] using candles up to index. Every swing and
// every recent close near a level adds to its strength; each side keeps the
// three strongest levels, nearest first.
func SupportResistance(high, low, close []float64, index int) (support, resistance []float64) {
	if index < levelLookback-1 || index >= len(close) || len(high) != len(close) || len(low) != len(close) {
		return nil, nil
	}
	current := close[index]
	tol := current * levelTolerance
	if tol <= 0 {
		return nil, nil
	}
	level := func(v float64) float64 {
		return math.Round(v/tol) * tol
	}

	touches := make(map[float64]int)
	for i := 2; i <= index-2; i++ {
		if low[i] < low[i-1] && low[i] < low[i-2] && low[i] < low[i+1] && low[i] < low[i+2] {
			touches[level(low[i])]++
		}
		if high[i] > high[i-1] && high[i] > high[i-2] && high[i] > high[i+1] && high[i] > high[i+2] {
			touches[level(high[i])]++
		}
	}

	for i := index - recentCloses + 1; i <= index; i++ {
		for price := range touches {
			if math.Abs(close[i]-price) < tol*2 {
				touches[price]++
			}
		}
	}

	var below, above []priceLevel
	for price, n := range touches {
		switch {
		case price < current:
			below = append(below, priceLevel{price, n})
		case price > current:
			above = append(above, priceLevel{price, n})
		}
	}

	support = strongest(below, func(a, b float64) bool { return a > b })
	resistance = strongest(above, func(a, b float64) bool { return a < b })
	return support, resistance
}

func strongest(levels []priceLevel, nearer func(a, b float64) bool) []float64 {
	if len(levels) == 0 {
		return nil
	}
	sort.Slice(levels, func(i, j int) bool {
		if levels[i].strength != levels[j].strength {
			return levels[i].strength > levels[j].strength
		}
		return nearer(levels[i].price, levels[j].price)
	})
	if len(levels) > maxLevels {
		levels = levels[:maxLevels]
	}

	out := make([]float64, len(levels))
	for i, l := range levels {
		out[i] = l.price
	}
	sort.Slice(out, func(i, j int) bool { return nearer(out[i], out[j]) })
	return out
}
