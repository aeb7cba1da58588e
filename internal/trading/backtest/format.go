package backtest

import (
	"fmt"

	"github.com/Alias1177/SignalLab/models"
)

// FormatResults creates a human-readable summary of backtest results
func FormatResults(results *models.BacktestResult) string {
	if results == nil {
		return "No backtest results available"
	}

	output := "\n===== BACKTEST RESULTS =====\n"
	if results.Failure != "" {
		output += fmt.Sprintf("Run failed: %s\n", results.Failure)
	}
	output += fmt.Sprintf("Initial capital: %.2f\n", results.InitialCapital)
	output += fmt.Sprintf("Final equity: %.2f\n", results.FinalEquity)
	output += fmt.Sprintf("Total return: %.2f%%\n", results.TotalReturnPct)
	output += fmt.Sprintf("Total trades: %d\n", results.TotalTrades)
	output += fmt.Sprintf("Winning trades: %d (%.2f%%)\n", results.WinningTrades, results.WinRate)
	output += fmt.Sprintf("Losing trades: %d\n", results.LosingTrades)
	output += fmt.Sprintf("Profit factor: %.2f\n", results.ProfitFactor)
	output += fmt.Sprintf("Maximum drawdown: %.2f%%\n", results.MaxDrawdown)
	output += fmt.Sprintf("Sharpe ratio: %.2f\n", results.SharpeRatio)
	output += fmt.Sprintf("Sortino ratio: %.2f\n", results.SortinoRatio)

	if len(results.Trades) > 0 {
		output += "\nTrades:\n"
		for _, t := range results.Trades {
			if t.Type == models.TradeBuy {
				output += fmt.Sprintf("- %s BUY  %.4f @ %.4f\n", t.Timestamp.Format("2006-01-02 15:04"), t.Shares, t.Price)
				continue
			}
			sign := ""
			if t.PnL != nil && *t.PnL > 0 {
				sign = "+"
			}
			output += fmt.Sprintf("- %s SELL %.4f @ %.4f %s%.2f%% (%s)\n",
				t.Timestamp.Format("2006-01-02 15:04"), t.Shares, t.Price, sign, derefOr(t.PnLPct, 0), t.Reason)
		}
	}

	return output
}

func derefOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
