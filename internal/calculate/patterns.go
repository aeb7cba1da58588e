package calculate

import "math"

// Candle pattern names reported by CandlePatterns.
const (
	PatternBullishEngulfing = "BULLISH_ENGULFING"
	PatternBearishEngulfing = "BEARISH_ENGULFING"
	PatternHammer           = "HAMMER"
	PatternShootingStar     = "SHOOTING_STAR"
	PatternThreeSoldiers    = "THREE_WHITE_SOLDIERS"
	PatternThreeCrows       = "THREE_BLACK_CROWS"
	PatternDoji             = "DOJI"
	PatternBullishMomentum  = "STRONG_BULLISH_MOMENTUM"
	PatternBearishMomentum  = "STRONG_BEARISH_MOMENTUM"
	PatternMorningStar      = "MORNING_STAR"
	PatternEveningStar      = "EVENING_STAR"
)

// patternWindow is the number of candles the body-size average covers.
const patternWindow = 5

// CandlePatterns identifies price action patterns ending at index. Needs
// at least five candles up to index; returns nil otherwise.
func CandlePatterns(open, high, low, close []float64, index int) []string {
	if index < patternWindow-1 || index >= len(close) {
		return nil
	}

	body := func(i int) float64 { return math.Abs(close[i] - open[i]) }
	bullish := func(i int) bool { return close[i] > open[i] }

	var avgBody float64
	for i := index - patternWindow + 1; i <= index; i++ {
		avgBody += body(i)
	}
	avgBody /= patternWindow

	c3, c4, c5 := index-2, index-1, index
	body4, body5 := body(c4), body(c5)
	upperWick := high[c5] - math.Max(open[c5], close[c5])
	lowerWick := math.Min(open[c5], close[c5]) - low[c5]

	var patterns []string

	if bullish(c5) && !bullish(c4) && open[c5] < close[c4] && close[c5] > open[c4] && body5 > body4*1.2 {
		patterns = append(patterns, PatternBullishEngulfing)
	}
	if !bullish(c5) && bullish(c4) && open[c5] > close[c4] && close[c5] < open[c4] && body5 > body4*1.2 {
		patterns = append(patterns, PatternBearishEngulfing)
	}

	// Pin bars
	if lowerWick > body5*2 && upperWick < body5*0.5 {
		patterns = append(patterns, PatternHammer)
	}
	if upperWick > body5*2 && lowerWick < body5*0.5 {
		patterns = append(patterns, PatternShootingStar)
	}

	if bullish(c3) && bullish(c4) && bullish(c5) {
		patterns = append(patterns, PatternThreeSoldiers)
	}
	if !bullish(c3) && !bullish(c4) && !bullish(c5) {
		patterns = append(patterns, PatternThreeCrows)
	}

	if body5 < avgBody*0.3 && (upperWick > body5 || lowerWick > body5) {
		patterns = append(patterns, PatternDoji)
	}

	if body5 > avgBody*1.5 && lowerWick < body5*0.2 && upperWick < body5*0.2 {
		if bullish(c5) {
			patterns = append(patterns, PatternBullishMomentum)
		} else {
			patterns = append(patterns, PatternBearishMomentum)
		}
	}

	// Stars: a large body, a small body gapping away from it, then a large
	// body closing beyond the first candle's midpoint.
	midpoint := open[c3] + (close[c3]-open[c3])/2
	smallMiddle := body4 < avgBody*0.3
	if bullish(c3) && body(c3) > avgBody && smallMiddle && open[c4] > close[c3] &&
		!bullish(c5) && body5 > avgBody && close[c5] < midpoint {
		patterns = append(patterns, PatternEveningStar)
	}
	if !bullish(c3) && body(c3) > avgBody && smallMiddle && open[c4] < close[c3] &&
		bullish(c5) && body5 > avgBody && close[c5] > midpoint {
		patterns = append(patterns, PatternMorningStar)
	}

	return patterns
}
