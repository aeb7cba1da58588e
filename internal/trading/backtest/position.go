package backtest

import (
	"github.com/Alias1177/SignalLab/internal/trading/risk"
	"github.com/Alias1177/SignalLab/models"
)

// position is the single long/flat position of a run.
type position struct {
	cash   float64
	shares float64
	entry  float64
	long   bool
}

func (p *position) equity(price float64) float64 {
	return p.cash + p.shares*price
}

// open converts all cash to shares at the candle close.
func (p *position) open(c models.Candle) (models.Trade, bool) {
	shares := risk.PositionSize(p.cash, c.Close)
	if shares == 0 {
		return models.Trade{}, false
	}

	p.shares = shares
	p.entry = c.Close
	p.cash = 0
	p.long = true

	return models.Trade{
		Type:      models.TradeBuy,
		Price:     c.Close,
		Timestamp: c.Timestamp,
		Shares:    shares,
		Balance:   p.equity(c.Close),
	}, true
}

// close liquidates the position at the candle close.
func (p *position) close(c models.Candle, reason models.ExitReason) models.Trade {
	shares := p.shares
	pnl, pnlPct := risk.RealizedPnL(p.entry, c.Close, shares)

	p.cash += shares * c.Close
	p.shares = 0
	p.entry = 0
	p.long = false

	return models.Trade{
		Type:      models.TradeSell,
		Price:     c.Close,
		Timestamp: c.Timestamp,
		Shares:    shares,
		PnL:       &pnl,
		PnLPct:    &pnlPct,
		Balance:   p.cash,
		Reason:    reason,
	}
}
