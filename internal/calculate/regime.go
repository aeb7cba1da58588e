package calculate

import "math"

// Regime describes the market state at one candle.
type Regime struct {
	Type       string  // TRENDING, RANGING, CHOPPY, VOLATILE or UNKNOWN
	Direction  string  // BULLISH, BEARISH or NEUTRAL
	Strength   float64 // 0..1
	Volatility string  // HIGH, LOW or NORMAL
	Structure  string  // TRENDING_UP, TRENDING_DOWN, RANGE_BOUND, BREAKOUT, BREAKDOWN or UNKNOWN
}

const regimeLookback = 20

// ClassifyRegime classifies the market at index from ADX(14), the ATR(10)
// to ATR(30) ratio and weighted 5/10/20-bar momentum. Fewer than 21
// candles up to index give UNKNOWN.
func ClassifyRegime(high, low, close []float64, index int) Regime {
	regime := Regime{Type: "UNKNOWN", Direction: "NEUTRAL", Volatility: "NORMAL", Structure: "UNKNOWN"}
	if index < regimeLookback || index >= len(close) {
		return regime
	}

	h, l, c := high[:index+1], low[:index+1], close[:index+1]
	adxSeries, plusSeries, minusSeries := ADX(h, l, c, 14)
	adx, plusDI, minusDI := Nz(Last(adxSeries), 0), Nz(Last(plusSeries), 0), Nz(Last(minusSeries), 0)
	atr10 := Last(ATR(h, l, c, 10))
	atr30 := Last(ATR(h, l, c, 30))

	volatilityRatio := 1.0
	if atr30 > 0 && !math.IsNaN(atr10) {
		volatilityRatio = atr10 / atr30
	}
	switch {
	case volatilityRatio > 1.5:
		regime.Volatility = "HIGH"
	case volatilityRatio < 0.7:
		regime.Volatility = "LOW"
	}

	change := func(bars int) float64 {
		prev := c[index-bars]
		if prev == 0 {
			return 0
		}
		return (c[index] - prev) / prev
	}
	momentum := change(5)*0.5 + change(10)*0.3 + change(20)*0.2
	switch {
	case momentum > 0:
		regime.Direction = "BULLISH"
	case momentum < 0:
		regime.Direction = "BEARISH"
	}

	trendStructure := "TRENDING_UP"
	if minusDI > plusDI {
		trendStructure = "TRENDING_DOWN"
	}

	if adx > 25 {
		regime.Type = "TRENDING"
		regime.Structure = trendStructure
		regime.Strength = math.Min(adx/50, 1)
		return regime
	}

	rangeHeight := Last(Highest(h, regimeLookback)) - Last(Lowest(l, regimeLookback))
	if atr10 > 0 && rangeHeight/atr10 < 5 {
		regime.Type = "RANGING"
		regime.Structure = "RANGE_BOUND"
		regime.Strength = math.Max(0, math.Min((30-adx)/30, 1))
		return regime
	}

	var flips int
	up := c[index-regimeLookback+1] > c[index-regimeLookback]
	for i := index - regimeLookback + 2; i <= index; i++ {
		current := c[i] > c[i-1]
		if current != up {
			flips++
			up = current
		}
	}

	switch {
	case flips > 8:
		regime.Type = "CHOPPY"
		regime.Strength = math.Min(float64(flips)/15, 1)
	case volatilityRatio > 1.8:
		regime.Type = "VOLATILE"
		regime.Strength = math.Min(volatilityRatio/3, 1)
		switch {
		case momentum > 0.02:
			regime.Structure = "BREAKOUT"
		case momentum < -0.02:
			regime.Structure = "BREAKDOWN"
		}
	default:
		// mild trend, capped below a confirmed one
		regime.Type = "TRENDING"
		regime.Structure = trendStructure
		regime.Strength = math.Min(adx/30, 0.7)
	}
	return regime
}
