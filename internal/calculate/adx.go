package calculate

import "math"

// ADX calculates the average directional index together with +DI and -DI
// using Wilder smoothing. Zero denominators (smoothed true range, DI sum)
// are floored to 1.
func ADX(high, low, close []float64, length int) (adx, plusDI, minusDI []float64) {
	n := len(close)
	adx, plusDI, minusDI = nanSeries(n), nanSeries(n), nanSeries(n)
	if length <= 0 || n <= length {
		return adx, plusDI, minusDI
	}

	tr := TrueRange(high, low, close)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		upMove := high[i] - high[i-1]
		downMove := low[i-1] - low[i]
		if upMove > downMove && upMove > 0 {
			plusDM[i] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM[i] = downMove
		}
	}

	// Initial smoothed sums over bars 1..length
	var sTR, sPlus, sMinus float64
	for i := 1; i <= length; i++ {
		sTR += tr[i]
		sPlus += plusDM[i]
		sMinus += minusDM[i]
	}

	dx := nanSeries(n)
	period := float64(length)
	for i := length; i < n; i++ {
		if i > length {
			sTR = sTR - sTR/period + tr[i]
			sPlus = sPlus - sPlus/period + plusDM[i]
			sMinus = sMinus - sMinus/period + minusDM[i]
		}
		denom := floorDenominator(sTR)
		plusDI[i] = 100 * sPlus / denom
		minusDI[i] = 100 * sMinus / denom
		dx[i] = 100 * math.Abs(plusDI[i]-minusDI[i]) / floorDenominator(plusDI[i]+minusDI[i])
	}

	first := 2*length - 1
	if first >= n {
		return adx, plusDI, minusDI
	}
	var sum float64
	for i := length; i <= first; i++ {
		sum += dx[i]
	}
	adx[first] = sum / period
	for i := first + 1; i < n; i++ {
		adx[i] = (adx[i-1]*(period-1) + dx[i]) / period
	}
	return adx, plusDI, minusDI
}
