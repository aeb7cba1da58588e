package calculate

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/SignalLab/models"
)

func generateTestCandles(count int, generator func(i int) models.Candle) []models.Candle {
	candles := make([]models.Candle, count)
	for i := 0; i < count; i++ {
		candles[i] = generator(i)
	}
	return candles
}

func risingSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + float64(i)
	}
	return out
}

func assertNaNPrefix(t *testing.T, values []float64, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		assert.Truef(t, math.IsNaN(values[i]), "index %d should be NaN, got %v", i, values[i])
	}
}

func TestSMA(t *testing.T) {
	got := SMA([]float64{1, 2, 3, 4, 5}, 3)
	require.Len(t, got, 5)
	assertNaNPrefix(t, got, 2)
	assert.InDelta(t, 2.0, got[2], 1e-9)
	assert.InDelta(t, 3.0, got[3], 1e-9)
	assert.InDelta(t, 4.0, got[4], 1e-9)

	assertNaNPrefix(t, SMA([]float64{1, 2}, 0), 2)
	assertNaNPrefix(t, SMA([]float64{1, 2}, 5), 2)
}

func TestEMA(t *testing.T) {
	got := EMA([]float64{1, 2, 3, 4, 5}, 3)
	assertNaNPrefix(t, got, 2)
	assert.InDelta(t, 2.25, got[2], 1e-9)
	assert.InDelta(t, 3.125, got[3], 1e-9)
	assert.InDelta(t, 4.0625, got[4], 1e-9)
}

func TestEMASkipsLeadingNaN(t *testing.T) {
	got := EMA([]float64{math.NaN(), math.NaN(), 2, 4}, 2)
	assertNaNPrefix(t, got, 3)
	// seeded at 2, multiplier 2/3
	assert.InDelta(t, 2+(4-2)*2.0/3.0, got[3], 1e-9)
}

func TestRSI(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		check  func(t *testing.T, rsi []float64)
	}{
		{
			name:   "rising series converges to 100",
			values: risingSeries(40),
			check: func(t *testing.T, rsi []float64) {
				assertNaNPrefix(t, rsi, 14)
				for i := 14; i < len(rsi); i++ {
					assert.InDelta(t, 100.0, rsi[i], 1e-9)
				}
			},
		},
		{
			name:   "flat series is neutral",
			values: []float64{5, 5, 5, 5, 5, 5},
			check: func(t *testing.T, rsi []float64) {
				assert.InDelta(t, 50.0, rsi[5], 1e-9)
			},
		},
		{
			name:   "falling series is zero",
			values: []float64{10, 9, 8, 7, 6, 5},
			check: func(t *testing.T, rsi []float64) {
				assert.InDelta(t, 0.0, rsi[5], 1e-9)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			period := 14
			if len(tt.values) < 20 {
				period = 3
			}
			tt.check(t, RSI(tt.values, period))
		})
	}
}

func TestRSIBounded(t *testing.T) {
	values := make([]float64, 200)
	for i := range values {
		values[i] = 100 + 10*math.Sin(float64(i)/3) + float64(i%7)
	}
	for _, v := range RSI(values, 14) {
		if math.IsNaN(v) {
			continue
		}
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}
}

func TestMACDHistogram(t *testing.T) {
	macd, signal, hist := MACD(risingSeries(60), 12, 26, 9)
	assertNaNPrefix(t, macd, 25)
	assertNaNPrefix(t, signal, 33)
	for i := 33; i < 60; i++ {
		assert.InDelta(t, macd[i]-signal[i], hist[i], 1e-9)
	}
	// fast EMA leads on a rising series
	assert.Greater(t, macd[59], 0.0)
}

func TestBollinger(t *testing.T) {
	upper, middle, lower := Bollinger([]float64{2, 4, 4, 4, 5, 5, 7, 9}, 8, 2)
	assert.InDelta(t, 5.0, middle[7], 1e-9)
	// population stddev of the series is 2
	assert.InDelta(t, 9.0, upper[7], 1e-9)
	assert.InDelta(t, 1.0, lower[7], 1e-9)
}

func TestZeroRangeFloors(t *testing.T) {
	flat := []float64{10, 10, 10, 10, 10, 10}

	k, d := Stochastic(flat, flat, flat, 3, 2, 2)
	assert.InDelta(t, 0.0, k[5], 1e-9)
	assert.InDelta(t, 0.0, d[5], 1e-9)

	w := WilliamsR(flat, flat, flat, 3)
	assert.InDelta(t, 0.0, w[5], 1e-9)
	assert.False(t, math.IsInf(w[5], 0))
}

func TestATR(t *testing.T) {
	high := []float64{12, 13, 15}
	low := []float64{10, 11, 12}
	close := []float64{11, 12, 14}

	tr := TrueRange(high, low, close)
	assert.Equal(t, []float64{2, 2, 3}, tr)

	atr := ATR(high, low, close, 2)
	assert.True(t, math.IsNaN(atr[0]))
	assert.InDelta(t, 2.0, atr[1], 1e-9)
	assert.InDelta(t, 2.5, atr[2], 1e-9)
}

func TestADXUptrend(t *testing.T) {
	candles := generateTestCandles(60, func(i int) models.Candle {
		base := 100 + float64(i)*2
		return models.Candle{High: base + 1, Low: base - 1, Close: base}
	})
	adx, plusDI, minusDI := ADX(models.Highs(candles), models.Lows(candles), models.Closes(candles), 14)

	assertNaNPrefix(t, adx, 27)
	require.False(t, math.IsNaN(adx[27]))
	assert.Greater(t, plusDI[59], minusDI[59])
	assert.InDelta(t, 100.0, adx[59], 1e-6)
}

func TestVWAP(t *testing.T) {
	high := []float64{11, 12, 13}
	low := []float64{9, 10, 11}
	close := []float64{10, 11, 12}
	volume := []float64{0, 100, 300}

	got := VWAP(high, low, close, volume)
	assert.True(t, math.IsNaN(got[0]))
	assert.InDelta(t, 11.0, got[1], 1e-9)
	assert.InDelta(t, (11*100+12*300)/400.0, got[2], 1e-9)
}

func TestIchimokuShifts(t *testing.T) {
	candles := generateTestCandles(80, func(i int) models.Candle {
		base := float64(i)
		return models.Candle{High: base + 1, Low: base - 1, Close: base}
	})
	high, low, close := models.Highs(candles), models.Lows(candles), models.Closes(candles)
	cloud := Ichimoku(high, low, close)

	assertNaNPrefix(t, cloud.Tenkan, TenkanPeriod-1)
	assert.InDelta(t, 50.0-4, cloud.Tenkan[50], 1e-9)

	// span A at i is the tenkan/kijun midpoint from 26 bars earlier
	assertNaNPrefix(t, cloud.SpanA, KijunPeriod-1+IchimokuDisplace)
	assert.InDelta(t, (cloud.Tenkan[40]+cloud.Kijun[40])/2, cloud.SpanA[66], 1e-9)
	assertNaNPrefix(t, cloud.SpanB, SenkouBPeriod-1+IchimokuDisplace)

	assert.InDelta(t, close[36], cloud.Chikou[10], 1e-9)
	for i := 80 - IchimokuDisplace; i < 80; i++ {
		assert.True(t, math.IsNaN(cloud.Chikou[i]))
	}
}

func TestSupertrendNeverFlips(t *testing.T) {
	high := []float64{11, 12, 13, 9, 8}
	low := []float64{9, 10, 11, 7, 6}
	close := []float64{10, 11, 12, 8, 7}

	got := Supertrend(high, low, close, 2, 3)
	atr := ATR(high, low, close, 2)
	for i := 1; i < len(close); i++ {
		assert.InDelta(t, (high[i]+low[i])/2-3*atr[i], got[i], 1e-9)
	}
}

func TestOBV(t *testing.T) {
	got := OBV([]float64{10, 11, 11, 9}, []float64{100, 50, 30, 20})
	assert.Equal(t, []float64{100, 150, 150, 130}, got)
	assert.Empty(t, OBV(nil, nil))
}

func TestNz(t *testing.T) {
	assert.Equal(t, 0.0, Nz(math.NaN(), 0))
	assert.Equal(t, 50.0, Nz(math.NaN(), 50))
	assert.Equal(t, 1.0, Nz(math.Inf(1), 1))
	assert.Equal(t, 3.5, Nz(3.5, 0))
	assert.Equal(t, []float64{0, 2}, NzSeries([]float64{math.NaN(), 2}, 0))
}

func TestCalculateSnapshot(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := generateTestCandles(100, func(i int) models.Candle {
		base := 100 + float64(i%10) + float64(i)/5
		return models.Candle{
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			Open:      base - 0.5,
			High:      base + 1,
			Low:       base - 1,
			Close:     base,
			Volume:    1000 + float64(i),
		}
	})

	snap := CalculateSnapshot(candles, 99)
	require.NotNil(t, snap)
	assert.Equal(t, 21, snap.Defined())
	assert.Equal(t, candles[99].Close, snap.Close)

	early := CalculateSnapshot(candles, 5)
	require.NotNil(t, early)
	assert.Less(t, early.Defined(), 21)

	assert.Nil(t, CalculateSnapshot(candles, 100))
}
