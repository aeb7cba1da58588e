package calculate

// Ichimoku periods and displacement.
const (
	TenkanPeriod     = 9
	KijunPeriod      = 26
	SenkouBPeriod    = 52
	IchimokuDisplace = 26
)

// IchimokuCloud holds the five Ichimoku lines, aligned with the input.
type IchimokuCloud struct {
	Tenkan []float64
	Kijun  []float64
	SpanA  []float64
	SpanB  []float64
	Chikou []float64
}

// Ichimoku calculates the cloud from 9/26/52-bar high-low midpoints. Span A
// and Span B are shifted forward 26 bars, Chikou is the close shifted back
// 26 bars.
func Ichimoku(high, low, close []float64) IchimokuCloud {
	tenkan := midpoint(high, low, TenkanPeriod)
	kijun := midpoint(high, low, KijunPeriod)

	spanA := make([]float64, len(close))
	for i := range close {
		spanA[i] = (tenkan[i] + kijun[i]) / 2
	}

	return IchimokuCloud{
		Tenkan: tenkan,
		Kijun:  kijun,
		SpanA:  shift(spanA, IchimokuDisplace),
		SpanB:  shift(midpoint(high, low, SenkouBPeriod), IchimokuDisplace),
		Chikou: shift(close, -IchimokuDisplace),
	}
}

func midpoint(high, low []float64, period int) []float64 {
	highest := Highest(high, period)
	lowest := Lowest(low, period)
	out := make([]float64, len(high))
	for i := range high {
		out[i] = (highest[i] + lowest[i]) / 2
	}
	return out
}
