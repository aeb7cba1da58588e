package calculate

import (
	"math"

	"github.com/Alias1177/SignalLab/models"
)

// Snapshot is every library indicator with default parameters, read at a
// single candle. Undefined values are NaN.
type Snapshot struct {
	Index      int
	Close      float64
	SMA20      float64
	EMA20      float64
	RSI14      float64
	MACD       float64
	MACDSignal float64
	MACDHist   float64
	BBUpper    float64
	BBMiddle   float64
	BBLower    float64
	StochK     float64
	StochD     float64
	ATR14      float64
	ADX14      float64
	PlusDI     float64
	MinusDI    float64
	WilliamsR  float64
	VWAP       float64
	Tenkan     float64
	Kijun      float64
	Supertrend float64
	OBV        float64
}

// CalculateSnapshot computes all indicators over candles[:index+1].
func CalculateSnapshot(candles []models.Candle, index int) *Snapshot {
	if index < 0 || index >= len(candles) {
		return nil
	}

	window := candles[:index+1]
	high, low, close, volume := models.Highs(window), models.Lows(window), models.Closes(window), models.Volumes(window)

	macd, macdSignal, macdHist := MACD(close, 12, 26, 9)
	bbUpper, bbMiddle, bbLower := Bollinger(close, 20, 2)
	stochK, stochD := Stochastic(high, low, close, 14, 3, 3)
	adx, plusDI, minusDI := ADX(high, low, close, 14)
	cloud := Ichimoku(high, low, close)

	return &Snapshot{
		Index:      index,
		Close:      close[index],
		SMA20:      Last(SMA(close, 20)),
		EMA20:      Last(EMA(close, 20)),
		RSI14:      Last(RSI(close, 14)),
		MACD:       Last(macd),
		MACDSignal: Last(macdSignal),
		MACDHist:   Last(macdHist),
		BBUpper:    Last(bbUpper),
		BBMiddle:   Last(bbMiddle),
		BBLower:    Last(bbLower),
		StochK:     Last(stochK),
		StochD:     Last(stochD),
		ATR14:      Last(ATR(high, low, close, 14)),
		ADX14:      Last(adx),
		PlusDI:     Last(plusDI),
		MinusDI:    Last(minusDI),
		WilliamsR:  Last(WilliamsR(high, low, close, 14)),
		VWAP:       Last(VWAP(high, low, close, volume)),
		Tenkan:     Last(cloud.Tenkan),
		Kijun:      Last(cloud.Kijun),
		Supertrend: Last(Supertrend(high, low, close, 10, 3)),
		OBV:        Last(OBV(close, volume)),
	}
}

// Defined reports how many snapshot values carry enough history.
func (s *Snapshot) Defined() int {
	values := []float64{s.SMA20, s.EMA20, s.RSI14, s.MACD, s.MACDSignal, s.MACDHist,
		s.BBUpper, s.BBMiddle, s.BBLower, s.StochK, s.StochD, s.ATR14, s.ADX14,
		s.PlusDI, s.MinusDI, s.WilliamsR, s.VWAP, s.Tenkan, s.Kijun, s.Supertrend, s.OBV}
	count := 0
	for _, v := range values {
		if !math.IsNaN(v) {
			count++
		}
	}
	return count
}
