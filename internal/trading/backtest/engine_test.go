package backtest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/SignalLab/internal/signal"
	"github.com/Alias1177/SignalLab/models"
)

var baseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type signalMap map[string]*models.SignalDefinition

func (m signalMap) GetSignal(ctx context.Context, id string) (*models.SignalDefinition, error) {
	if s, ok := m[id]; ok {
		return s, nil
	}
	return nil, models.ErrSignalNotFound
}

type candleFunc func(ctx context.Context, symbol, interval string, days int) ([]models.Candle, error)

func (f candleFunc) Candles(ctx context.Context, symbol, interval string, days int) ([]models.Candle, error) {
	return f(ctx, symbol, interval, days)
}

// erroringEvaluator fails every evaluation.
type erroringEvaluator struct{}

func (erroringEvaluator) Evaluate(ctx context.Context, sig *models.SignalDefinition, candles []models.Candle, index int, opts signal.Options) models.EvaluationResult {
	return models.ErrorResult(errors.New("boom"))
}

func generateTestCandles(closes ...float64) []models.Candle {
	candles := make([]models.Candle, len(closes))
	for i, c := range closes {
		candles[i] = models.Candle{
			Timestamp: baseTime.Add(time.Duration(i) * 24 * time.Hour),
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    1000,
		}
	}
	return candles
}

func formulaSignals(defs map[string]string) signalMap {
	m := signalMap{}
	for id, code := range defs {
		m[id] = &models.SignalDefinition{ID: id, Kind: models.KindFormula, Code: code}
	}
	return m
}

func newTestEngine(signals signalMap) *Engine {
	return NewEngine(signal.NewEvaluator(nil, 0, nil), signals, nil)
}

func stack(ids ...string) []models.StackEntry {
	entries := make([]models.StackEntry, len(ids))
	for i, id := range ids {
		entries[i] = models.StackEntry{SignalID: id}
	}
	return entries
}

func TestFourCandleScenario(t *testing.T) {
	e := newTestEngine(formulaSignals(map[string]string{"s": "idx == 0 or idx == 2"}))
	res := e.Run(context.Background(), stack("s"), generateTestCandles(100, 90, 80, 120), 0, 0, 10000)

	require.Empty(t, res.Failure)
	require.Len(t, res.Trades, 4)

	assert.Equal(t, models.TradeBuy, res.Trades[0].Type)
	assert.Equal(t, 100.0, res.Trades[0].Price)

	assert.Equal(t, models.TradeSell, res.Trades[1].Type)
	assert.Equal(t, 90.0, res.Trades[1].Price)
	assert.Equal(t, models.ExitSignalLost, res.Trades[1].Reason)
	assert.InDelta(t, -10.0, *res.Trades[1].PnLPct, 1e-9)

	assert.Equal(t, 80.0, res.Trades[2].Price)

	assert.Equal(t, 120.0, res.Trades[3].Price)
	assert.Equal(t, models.ExitEndOfBacktest, res.Trades[3].Reason)
	assert.InDelta(t, 50.0, *res.Trades[3].PnLPct, 1e-9)

	assert.Equal(t, 2, res.TotalTrades)
	assert.InDelta(t, 50.0, res.WinRate, 1e-9)
	assert.InDelta(t, 13500.0, res.FinalEquity, 1e-6)
	assert.InDelta(t, 35.0, res.TotalReturnPct, 1e-6)
	assert.InDelta(t, 10.0, res.MaxDrawdown, 1e-6)
	assert.Len(t, res.EquityCurve, 4)
}

func TestTakeProfitAndStopLoss(t *testing.T) {
	e := newTestEngine(formulaSignals(map[string]string{"always": "True"}))
	res := e.Run(context.Background(), stack("always"), generateTestCandles(100, 111, 100, 94, 95), 0.1, 0.05, 1000)

	require.Len(t, res.Trades, 4)
	assert.Equal(t, models.ExitTakeProfit, res.Trades[1].Reason)
	assert.Equal(t, models.ExitStopLoss, res.Trades[3].Reason)
	assert.Equal(t, 1, res.WinningTrades)
	assert.Equal(t, 1, res.LosingTrades)
}

func TestForcedCloseAtLastCandle(t *testing.T) {
	e := newTestEngine(formulaSignals(map[string]string{"always": "True"}))
	res := e.Run(context.Background(), stack("always"), generateTestCandles(10, 11, 12, 13, 14), 0, 0, 100)

	require.Len(t, res.Trades, 2)
	last := res.Trades[1]
	assert.Equal(t, models.ExitEndOfBacktest, last.Reason)
	assert.Equal(t, baseTime.Add(4*24*time.Hour), last.Timestamp)
	assert.InDelta(t, 140.0, res.FinalEquity, 1e-9)
}

func TestTradesAlternate(t *testing.T) {
	closes := make([]float64, 120)
	for i := range closes {
		closes[i] = 100 + float64((i*37)%23) - float64(i%5)
	}
	e := newTestEngine(formulaSignals(map[string]string{
		"trend": "close > MA('close', 5)",
		"calm":  "RSI(14) < 80",
	}))
	res := e.Run(context.Background(), stack("trend", "calm"), generateTestCandles(closes...), 0.03, 0.02, 5000)

	require.NotEmpty(t, res.Trades)
	for i, tr := range res.Trades {
		want := models.TradeBuy
		if i%2 == 1 {
			want = models.TradeSell
		}
		assert.Equal(t, want, tr.Type, "trade %d", i)
	}
	assert.Equal(t, models.TradeSell, res.Trades[len(res.Trades)-1].Type)
	assert.Equal(t, len(res.Trades)/2, res.TotalTrades)
}

func TestRunIsIdempotent(t *testing.T) {
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 50 + float64(i%9)*1.5 + float64(i)/4
	}
	candles := generateTestCandles(closes...)
	e := newTestEngine(formulaSignals(map[string]string{"s": "close > MA(10)"}))

	first := e.Run(context.Background(), stack("s"), candles, 0.05, 0.03, 10000)
	second := e.Run(context.Background(), stack("s"), candles, 0.05, 0.03, 10000)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated run differs (-first +second):\n%s", diff)
	}
}

func TestInversion(t *testing.T) {
	e := newTestEngine(formulaSignals(map[string]string{"never": "False"}))
	res := e.Run(context.Background(), []models.StackEntry{{SignalID: "never", Invert: true}}, generateTestCandles(1, 2, 3), 0, 0, 100)
	assert.Len(t, res.Trades, 2)
}

func TestErrorIsNeverInverted(t *testing.T) {
	e := NewEngine(erroringEvaluator{}, formulaSignals(map[string]string{"s": "True"}), nil)
	res := e.Run(context.Background(), []models.StackEntry{{SignalID: "s", Invert: true}}, generateTestCandles(1, 2, 3, 4), 0, 0, 100)

	assert.Empty(t, res.Trades)
	assert.Empty(t, res.Failure)
	assert.Equal(t, 100.0, res.FinalEquity)
}

func TestZeroActivityResults(t *testing.T) {
	e := newTestEngine(formulaSignals(map[string]string{"s": "True"}))

	tests := []struct {
		name    string
		stack   []models.StackEntry
		candles []models.Candle
		failure string
	}{
		{"no candles", stack("s"), nil, "insufficient market data"},
		{"single candle", stack("s"), generateTestCandles(100), "insufficient market data"},
		{"duplicates collapse to one", stack("s"), append(generateTestCandles(100), generateTestCandles(101)...), "insufficient market data"},
		{"missing signal", stack("s", "ghost"), generateTestCandles(1, 2, 3), "signal not found"},
		{"empty stack", nil, generateTestCandles(1, 2, 3), "empty signal stack"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := e.Run(context.Background(), tt.stack, tt.candles, 0, 0, 500)
			assert.Contains(t, res.Failure, tt.failure)
			require.NotEmpty(t, res.Log)
			assert.Contains(t, res.Log[0], tt.failure)
			assert.Empty(t, res.Trades)
			assert.Equal(t, 0, res.TotalTrades)
			assert.Equal(t, 500.0, res.FinalEquity)
			assert.Equal(t, 0.0, res.TotalReturnPct)
		})
	}
}

func TestEntryWithoutIDIsFalse(t *testing.T) {
	e := newTestEngine(formulaSignals(map[string]string{"s": "True"}))
	res := e.Run(context.Background(), []models.StackEntry{{SignalID: "s"}, {}}, generateTestCandles(1, 2, 3), 0, 0, 100)

	assert.Empty(t, res.Failure)
	assert.Empty(t, res.Trades)
}

func TestDebugDoesNotChangeOutcome(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64((i*7)%11)
	}
	candles := generateTestCandles(closes...)
	signals := formulaSignals(map[string]string{"a": "close > MA(5)", "b": "RSI(7) > 40"})

	plain := newTestEngine(signals)
	debug := newTestEngine(signals)
	debug.SetDebug(true)

	want := plain.Run(context.Background(), stack("a", "b"), candles, 0, 0, 1000)
	got := debug.Run(context.Background(), stack("a", "b"), candles, 0, 0, 1000)

	assert.Equal(t, want.Trades, got.Trades)
	assert.Equal(t, want.FinalEquity, got.FinalEquity)
	assert.Greater(t, len(got.Log), len(want.Log))

	var traced bool
	for _, l := range got.Log {
		if strings.HasPrefix(l, "MA(close,5)=") {
			traced = true
			break
		}
	}
	assert.True(t, traced)
}

func TestRunSymbol(t *testing.T) {
	signals := formulaSignals(map[string]string{"s": "True"})
	failing := candleFunc(func(ctx context.Context, symbol, interval string, days int) ([]models.Candle, error) {
		return nil, errors.New("upstream unavailable")
	})
	empty := candleFunc(func(ctx context.Context, symbol, interval string, days int) ([]models.Candle, error) {
		return nil, nil
	})
	ok := candleFunc(func(ctx context.Context, symbol, interval string, days int) ([]models.Candle, error) {
		return generateTestCandles(10, 12), nil
	})

	e := NewEngine(signal.NewEvaluator(nil, 0, nil), signals, failing)
	res := e.RunSymbol(context.Background(), stack("s"), "AAPL", "1day", 30, 0, 0, 100)
	assert.Contains(t, res.Failure, "upstream unavailable")

	e = NewEngine(signal.NewEvaluator(nil, 0, nil), signals, empty)
	res = e.RunSymbol(context.Background(), stack("s"), "AAPL", "1day", 30, 0, 0, 100)
	assert.Contains(t, res.Failure, models.ErrNoCandles.Error())

	e = NewEngine(signal.NewEvaluator(nil, 0, nil), signals, ok)
	res = e.RunSymbol(context.Background(), stack("s"), "AAPL", "1day", 30, 0, 0, 100)
	assert.Empty(t, res.Failure)
	assert.InDelta(t, 120.0, res.FinalEquity, 1e-9)
}

func TestFormatResults(t *testing.T) {
	e := newTestEngine(formulaSignals(map[string]string{"s": "idx == 0 or idx == 2"}))
	out := FormatResults(e.Run(context.Background(), stack("s"), generateTestCandles(100, 90, 80, 120), 0, 0, 10000))

	assert.Contains(t, out, "===== BACKTEST RESULTS =====")
	assert.Contains(t, out, "Total trades: 2")
	assert.Contains(t, out, "Signal Lost")
	assert.Contains(t, out, "+50.00%")
	assert.Equal(t, "No backtest results available", FormatResults(nil))
}

func TestIdleRunReportsSortinoSentinel(t *testing.T) {
	e := newTestEngine(formulaSignals(map[string]string{"never": "False"}))
	res := e.Run(context.Background(), stack("never"), generateTestCandles(100, 101, 99, 100), 0, 0, 1000)

	assert.Equal(t, 0, res.TotalTrades)
	assert.Equal(t, 0.0, res.SharpeRatio)
	assert.Equal(t, 100.0, res.SortinoRatio)
}
