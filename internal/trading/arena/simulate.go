package arena

import (
	"github.com/Alias1177/SignalLab/internal/trading/backtest"
	"github.com/Alias1177/SignalLab/internal/trading/risk"
	"github.com/Alias1177/SignalLab/models"
)

// Simulate replays batch signals: enter long on a buy signal while flat,
// exit on any other signal while long and close whatever is open at the
// last candle. There are no take-profit or stop-loss exits.
func Simulate(signals []int32, candles []models.Candle, initialCapital float64) models.ArenaMetrics {
	metrics := models.ArenaMetrics{
		InitialCapital: initialCapital,
		FinalEquity:    initialCapital,
		Trades:         []models.Trade{},
	}

	n := len(signals)
	if len(candles) < n {
		n = len(candles)
	}
	if n == 0 {
		return metrics
	}

	var cash, shares, entry float64 = initialCapital, 0, 0
	long := false
	equity := make([]float64, 0, n)

	sell := func(c models.Candle, reason models.ExitReason) {
		pnl, pnlPct := risk.RealizedPnL(entry, c.Close, shares)
		cash += shares * c.Close
		metrics.Trades = append(metrics.Trades, models.Trade{
			Type:      models.TradeSell,
			Price:     c.Close,
			Timestamp: c.Timestamp,
			Shares:    shares,
			PnL:       &pnl,
			PnLPct:    &pnlPct,
			Balance:   cash,
			Reason:    reason,
		})
		shares, entry, long = 0, 0, false
	}

	last := n - 1
	for i := 0; i < n; i++ {
		c, s := candles[i], signals[i]
		switch s {
		case SignalBuy:
			metrics.BuySignals++
		case SignalSell:
			metrics.SellSignals++
		default:
			metrics.HoldSignals++
		}

		equity = append(equity, cash+shares*c.Close)

		switch {
		case long && i == last:
			sell(c, models.ExitEndOfBacktest)
		case long && s != SignalBuy:
			sell(c, models.ExitSignalFlip)
		case !long && s == SignalBuy && i < last:
			size := risk.PositionSize(cash, c.Close)
			if size == 0 {
				continue
			}
			shares, entry, cash, long = size, c.Close, 0, true
			metrics.Trades = append(metrics.Trades, models.Trade{
				Type:      models.TradeBuy,
				Price:     c.Close,
				Timestamp: c.Timestamp,
				Shares:    size,
				Balance:   shares * c.Close,
			})
		}
	}

	metrics.FinalEquity = equity[len(equity)-1]
	if initialCapital != 0 {
		metrics.TotalReturnPct = (metrics.FinalEquity - initialCapital) / initialCapital * 100
	}

	stats := backtest.CalculateTradeStats(metrics.Trades)
	metrics.TotalTrades = stats.Closed
	metrics.WinningTrades = stats.Winning
	metrics.WinRate = stats.WinRate
	metrics.MaxDrawdown = backtest.MaxDrawdown(equity)
	metrics.SharpeRatio = backtest.SharpeRatio(backtest.PeriodReturns(equity))
	return metrics
}
