package backtest

import (
	"math"

	"github.com/Alias1177/SignalLab/models"
)

const (
	// annualization factor applied to per-candle returns
	tradingDays = 252

	// sortinoNoDownside is reported when no return was negative
	sortinoNoDownside = 100.0
	// sortinoFallbackFactor scales Sharpe when downside deviation is unavailable
	sortinoFallbackFactor = 2.0
)

// PeriodReturns converts an equity series into per-period simple returns.
// Periods starting from zero equity are skipped.
func PeriodReturns(equity []float64) []float64 {
	var returns []float64
	for i := 1; i < len(equity); i++ {
		if equity[i-1] == 0 {
			continue
		}
		returns = append(returns, (equity[i]-equity[i-1])/equity[i-1])
	}
	return returns
}

// SharpeRatio is mean/stddev·√252 over the returns, 0 when there are fewer
// than two returns or no variation.
func SharpeRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	m := mean(returns)
	sd := stdDev(returns, m)
	if sd == 0 {
		return 0
	}
	return m / sd * math.Sqrt(tradingDays)
}

// SortinoRatio is mean/downside-stddev·√252. Without negative returns it
// reports 100; with fewer than two returns or a zero downside deviation the
// result is twice sharpe.
func SortinoRatio(returns []float64, sharpe float64) float64 {
	if len(returns) < 2 {
		return sharpe * sortinoFallbackFactor
	}

	m := mean(returns)
	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}

	if len(downside) == 0 {
		return sortinoNoDownside
	}

	sd := stdDev(downside, mean(downside))
	if sd == 0 {
		return sharpe * sortinoFallbackFactor
	}
	return m / sd * math.Sqrt(tradingDays)
}

// MaxDrawdown returns the largest peak-to-trough decline in percent.
func MaxDrawdown(equity []float64) float64 {
	if len(equity) == 0 {
		return 0
	}

	maxDrawdown := 0.0
	peak := equity[0]
	for _, e := range equity {
		if e > peak {
			peak = e
		}
		if peak <= 0 {
			continue
		}
		drawdown := (peak - e) / peak
		if drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}
	return maxDrawdown * 100
}

// TradeStats summarises the realised sells of a trade log.
type TradeStats struct {
	Closed       int
	Winning      int
	Losing       int
	WinRate      float64
	ProfitFactor float64
}

// CalculateTradeStats counts winning and losing sells. Profit factor is
// gross profit over gross loss, or gross profit when nothing was lost.
func CalculateTradeStats(trades []models.Trade) TradeStats {
	var stats TradeStats
	var grossProfit, grossLoss float64
	for _, t := range trades {
		if t.Type != models.TradeSell || t.PnL == nil {
			continue
		}
		stats.Closed++
		switch pnl := *t.PnL; {
		case pnl > 0:
			stats.Winning++
			grossProfit += pnl
		case pnl < 0:
			stats.Losing++
			grossLoss -= pnl
		}
	}

	if stats.Closed > 0 {
		stats.WinRate = float64(stats.Winning) / float64(stats.Closed) * 100
	}
	if grossLoss > 0 {
		stats.ProfitFactor = grossProfit / grossLoss
	} else {
		stats.ProfitFactor = grossProfit
	}
	return stats
}

// calculateMetrics fills the summary fields of result from its equity
// curve and trade log.
func calculateMetrics(result *models.BacktestResult) {
	equity := make([]float64, len(result.EquityCurve))
	for i, p := range result.EquityCurve {
		equity[i] = p.Equity
	}

	if len(equity) > 0 {
		result.FinalEquity = equity[len(equity)-1]
	} else {
		result.FinalEquity = result.InitialCapital
	}
	if result.InitialCapital != 0 {
		result.TotalReturnPct = (result.FinalEquity - result.InitialCapital) / result.InitialCapital * 100
	}

	stats := CalculateTradeStats(result.Trades)
	result.TotalTrades = stats.Closed
	result.WinningTrades = stats.Winning
	result.LosingTrades = stats.Losing
	result.WinRate = stats.WinRate
	result.ProfitFactor = stats.ProfitFactor

	returns := PeriodReturns(equity)
	result.MaxDrawdown = MaxDrawdown(equity)
	result.SharpeRatio = SharpeRatio(returns)
	result.SortinoRatio = SortinoRatio(returns, result.SharpeRatio)
}

// Helper functions
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

// stdDev is the population standard deviation around mean.
func stdDev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sumSquaredDiff float64
	for _, v := range values {
		diff := v - mean
		sumSquaredDiff += diff * diff
	}

	return math.Sqrt(sumSquaredDiff / float64(len(values)))
}
