// Package arena runs compiled strategy modules in batch mode: one sandbox
// call per candle series instead of one per candle.
package arena

import (
	"strings"

	"github.com/Alias1177/SignalLab/internal/calculate"
	"github.com/Alias1177/SignalLab/models"
)

// Indicator is the series passed to a batch module next to the close.
type Indicator struct {
	Name    string
	Compute func(candles []models.Candle) []float64
}

type keywordIndicator struct {
	keywords  []string
	indicator Indicator
}

// indicatorTable is matched in order; the first keyword found in the
// strategy name wins.
var indicatorTable = []keywordIndicator{
	{[]string{"rsi"}, Indicator{"RSI(14)", func(c []models.Candle) []float64 {
		return calculate.RSI(models.Closes(c), 14)
	}}},
	{[]string{"macd"}, Indicator{"MACD(12,26,9)", func(c []models.Candle) []float64 {
		line, _, _ := calculate.MACD(models.Closes(c), 12, 26, 9)
		return line
	}}},
	{[]string{"bollinger", "bb"}, Indicator{"BB(20,2)", func(c []models.Candle) []float64 {
		_, middle, _ := calculate.Bollinger(models.Closes(c), 20, 2)
		return middle
	}}},
	{[]string{"stoch"}, Indicator{"STOCH(14,3,3)", func(c []models.Candle) []float64 {
		k, _ := calculate.Stochastic(models.Highs(c), models.Lows(c), models.Closes(c), 14, 3, 3)
		return k
	}}},
	{[]string{"atr"}, Indicator{"ATR(14)", func(c []models.Candle) []float64 {
		return calculate.ATR(models.Highs(c), models.Lows(c), models.Closes(c), 14)
	}}},
	{[]string{"adx"}, Indicator{"ADX(14)", func(c []models.Candle) []float64 {
		adx, _, _ := calculate.ADX(models.Highs(c), models.Lows(c), models.Closes(c), 14)
		return adx
	}}},
	{[]string{"williams"}, Indicator{"WILLR(14)", func(c []models.Candle) []float64 {
		return calculate.WilliamsR(models.Highs(c), models.Lows(c), models.Closes(c), 14)
	}}},
	{[]string{"vwap"}, Indicator{"VWAP", func(c []models.Candle) []float64 {
		return calculate.VWAP(models.Highs(c), models.Lows(c), models.Closes(c), models.Volumes(c))
	}}},
	{[]string{"ichimoku"}, Indicator{"ICHIMOKU_TENKAN(9)", func(c []models.Candle) []float64 {
		return calculate.Ichimoku(models.Highs(c), models.Lows(c), models.Closes(c)).Tenkan
	}}},
	{[]string{"supertrend"}, Indicator{"SUPERTREND(10,3)", func(c []models.Candle) []float64 {
		return calculate.Supertrend(models.Highs(c), models.Lows(c), models.Closes(c), 10, 3)
	}}},
	{[]string{"ema"}, Indicator{"EMA(20)", func(c []models.Candle) []float64 {
		return calculate.EMA(models.Closes(c), 20)
	}}},
	{[]string{"sma", "ma"}, Indicator{"SMA(20)", func(c []models.Candle) []float64 {
		return calculate.SMA(models.Closes(c), 20)
	}}},
}

// SelectIndicator picks the indicator for a strategy by case-insensitive
// keyword match on its name, defaulting to RSI(14).
func SelectIndicator(strategyName string) Indicator {
	name := strings.ToLower(strategyName)
	for _, entry := range indicatorTable {
		for _, kw := range entry.keywords {
			if strings.Contains(name, kw) {
				return entry.indicator
			}
		}
	}
	return indicatorTable[0].indicator
}
