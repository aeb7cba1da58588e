package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Alias1177/SignalLab/models"
)

func TestExitRulesCheck(t *testing.T) {
	rules := ExitRules{TakeProfitPct: 0.1, StopLossPct: 0.05}

	tests := []struct {
		name   string
		rules  ExitRules
		price  float64
		want   models.ExitReason
		exited bool
	}{
		{"take profit at threshold", rules, 110, models.ExitTakeProfit, true},
		{"take profit above", rules, 130, models.ExitTakeProfit, true},
		{"stop loss at threshold", rules, 95, models.ExitStopLoss, true},
		{"stop loss below", rules, 50, models.ExitStopLoss, true},
		{"inside band", rules, 100, "", false},
		{"disabled rules", ExitRules{}, 1000, "", false},
		{"disabled stop", ExitRules{TakeProfitPct: 0.1}, 1, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reason, ok := tt.rules.Check(100, tt.price)
			assert.Equal(t, tt.exited, ok)
			assert.Equal(t, tt.want, reason)
		})
	}
}

func TestPositionSize(t *testing.T) {
	assert.Equal(t, 100.0, PositionSize(10000, 100))
	assert.Equal(t, 0.0, PositionSize(10000, 0))
	assert.Equal(t, 0.0, PositionSize(0, 100))
}

func TestRealizedPnL(t *testing.T) {
	pnl, pct := RealizedPnL(100, 90, 100)
	assert.InDelta(t, -1000.0, pnl, 1e-9)
	assert.InDelta(t, -10.0, pct, 1e-9)

	pnl, pct = RealizedPnL(80, 120, 112.5)
	assert.InDelta(t, 4500.0, pnl, 1e-9)
	assert.InDelta(t, 50.0, pct, 1e-9)
}
