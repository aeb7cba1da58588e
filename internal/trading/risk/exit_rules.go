// Package risk holds position sizing and exit rules for a single long
// position.
package risk

import "github.com/Alias1177/SignalLab/models"

// ExitRules are take-profit and stop-loss thresholds as fractions of the
// entry price (0.05 = 5%). Non-positive values disable the rule.
type ExitRules struct {
	TakeProfitPct float64 `json:"take_profit_pct" yaml:"take_profit_pct"`
	StopLossPct   float64 `json:"stop_loss_pct" yaml:"stop_loss_pct"`
}

// TakeProfitPrice returns the price at or above which a position is closed
// in profit, 0 when disabled.
func (r ExitRules) TakeProfitPrice(entry float64) float64 {
	if r.TakeProfitPct <= 0 {
		return 0
	}
	return entry * (1 + r.TakeProfitPct)
}

// StopLossPrice returns the price at or below which a position is closed
// at a loss, 0 when disabled.
func (r ExitRules) StopLossPrice(entry float64) float64 {
	if r.StopLossPct <= 0 {
		return 0
	}
	return entry * (1 - r.StopLossPct)
}

// Check reports whether price hits take-profit or stop-loss for a long
// position opened at entry. Take-profit wins when both apply.
func (r ExitRules) Check(entry, price float64) (models.ExitReason, bool) {
	if tp := r.TakeProfitPrice(entry); tp > 0 && price >= tp {
		return models.ExitTakeProfit, true
	}
	if sl := r.StopLossPrice(entry); sl > 0 && price <= sl {
		return models.ExitStopLoss, true
	}
	return "", false
}

// PositionSize converts all available cash into shares at price.
func PositionSize(cash, price float64) float64 {
	if price <= 0 || cash <= 0 {
		return 0
	}
	return cash / price
}

// RealizedPnL returns the profit of closing shares bought at entry, in
// cash and as a percentage of the entry price.
func RealizedPnL(entry, exit, shares float64) (pnl, pnlPct float64) {
	pnl = (exit - entry) * shares
	if entry != 0 {
		pnlPct = (exit - entry) / entry * 100
	}
	return pnl, pnlPct
}
