// Package backtest replays a signal stack over historical candles with a
// single long/flat position.
package backtest

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/SignalLab/internal/signal"
	"github.com/Alias1177/SignalLab/internal/trading/risk"
	"github.com/Alias1177/SignalLab/models"
)

// SignalEvaluator evaluates one signal at one candle.
type SignalEvaluator interface {
	Evaluate(ctx context.Context, sig *models.SignalDefinition, candles []models.Candle, index int, opts signal.Options) models.EvaluationResult
}

// Engine handles backtesting operations
type Engine struct {
	evaluator SignalEvaluator
	signals   models.SignalSource
	candles   models.CandleSource
	debug     bool
	logger    zerolog.Logger
}

// NewEngine creates a new backtesting engine. candles may be nil when only
// Run is used.
func NewEngine(evaluator SignalEvaluator, signals models.SignalSource, candles models.CandleSource) *Engine {
	return &Engine{
		evaluator: evaluator,
		signals:   signals,
		candles:   candles,
		logger:    log.With().Str("component", "backtest").Logger(),
	}
}

// SetDebug enables per-candle evaluation traces in the result log. Every
// stack entry is evaluated in debug mode, without short-circuiting.
func (e *Engine) SetDebug(debug bool) {
	e.debug = debug
}

type stackSignal struct {
	def    *models.SignalDefinition // nil entries always evaluate false
	invert bool
}

// RunSymbol fetches candles for symbol and runs the stack over them.
func (e *Engine) RunSymbol(ctx context.Context, stack []models.StackEntry, symbol, interval string, days int, tpPct, slPct, initialCapital float64) *models.BacktestResult {
	if e.candles == nil {
		return zeroActivity(initialCapital, "no market data source configured")
	}

	candles, err := e.candles.Candles(ctx, symbol, interval, days)
	if err == nil && len(candles) == 0 {
		err = models.ErrNoCandles
	}
	if err != nil {
		e.logger.Warn().Err(err).Str("symbol", symbol).Str("interval", interval).Msg("no market data for backtest")
		return zeroActivity(initialCapital, fmt.Sprintf("no market data for %s %s: %v", symbol, interval, err))
	}

	return e.Run(ctx, stack, candles, tpPct, slPct, initialCapital)
}

// Run executes a backtest over candles. Data problems never return an
// error: they produce a result without trades whose Failure and Log
// describe the problem.
func (e *Engine) Run(ctx context.Context, stack []models.StackEntry, candles []models.Candle, tpPct, slPct, initialCapital float64) *models.BacktestResult {
	candles = models.DedupCandles(candles)
	if len(candles) < 2 {
		return zeroActivity(initialCapital, fmt.Sprintf("insufficient market data: %d candles", len(candles)))
	}

	entries, err := e.resolveStack(ctx, stack)
	if err != nil {
		e.logger.Warn().Err(err).Msg("cannot resolve signal stack")
		return zeroActivity(initialCapital, err.Error())
	}

	var trace *signal.Trace
	if e.debug {
		trace = signal.NewTrace()
	}

	result := &models.BacktestResult{
		InitialCapital: initialCapital,
		Trades:         []models.Trade{},
		EquityCurve:    make([]models.EquityPoint, 0, len(candles)),
	}
	rules := risk.ExitRules{TakeProfitPct: tpPct, StopLossPct: slPct}
	pos := &position{cash: initialCapital}
	last := len(candles) - 1

	for i, c := range candles {
		stackTrue := false
		if i < last {
			stackTrue = e.evaluateStack(ctx, entries, candles, i, pos.long, trace)
		}

		result.EquityCurve = append(result.EquityCurve, models.EquityPoint{
			Timestamp: c.Timestamp,
			Equity:    pos.equity(c.Close),
			Price:     c.Close,
		})

		if !pos.long {
			if stackTrue {
				if trade, ok := pos.open(c); ok {
					result.Trades = append(result.Trades, trade)
					result.Log = append(result.Log, fmt.Sprintf("[%d %s] BUY %.6f @ %.4f",
						i, c.Timestamp.Format("2006-01-02 15:04"), trade.Shares, trade.Price))
				}
			}
			continue
		}

		var reason models.ExitReason
		switch {
		case i == last:
			reason = models.ExitEndOfBacktest
		case !stackTrue:
			reason = models.ExitSignalLost
		default:
			reason, _ = rules.Check(pos.entry, c.Close)
		}
		if reason == "" {
			continue
		}

		trade := pos.close(c, reason)
		result.Trades = append(result.Trades, trade)
		result.Log = append(result.Log, fmt.Sprintf("[%d %s] SELL %.6f @ %.4f pnl=%.2f (%.2f%%) %s",
			i, c.Timestamp.Format("2006-01-02 15:04"), trade.Shares, trade.Price, *trade.PnL, *trade.PnLPct, reason))
	}

	if trace != nil {
		result.Log = append(result.Log, trace.Lines()...)
	}

	calculateMetrics(result)

	e.logger.Debug().
		Int("candles", len(candles)).
		Int("trades", result.TotalTrades).
		Float64("return_pct", result.TotalReturnPct).
		Msg("backtest completed")
	return result
}

// resolveStack loads every signal of the stack. Entries without an id are
// kept as always-false; unknown ids abort the run.
func (e *Engine) resolveStack(ctx context.Context, stack []models.StackEntry) ([]stackSignal, error) {
	if len(stack) == 0 {
		return nil, errors.New("empty signal stack")
	}

	entries := make([]stackSignal, 0, len(stack))
	for i, entry := range stack {
		if entry.SignalID == "" {
			e.logger.Warn().Int("entry", i).Msg("stack entry without signal id, treating as false")
			entries = append(entries, stackSignal{invert: entry.Invert})
			continue
		}

		def, err := e.signals.GetSignal(ctx, entry.SignalID)
		if err == nil && def == nil {
			err = models.ErrSignalNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("resolving signal %s: %w", entry.SignalID, err)
		}
		entries = append(entries, stackSignal{def: def, invert: entry.Invert})
	}
	return entries, nil
}

// evaluateStack AND-combines the stack at index i.
func (e *Engine) evaluateStack(ctx context.Context, entries []stackSignal, candles []models.Candle, i int, active bool, trace *signal.Trace) bool {
	all := true
	for _, entry := range entries {
		res := models.ResultOf(false)
		if entry.def != nil {
			res = e.evaluator.Evaluate(ctx, entry.def, candles, i, signal.Options{Active: active, Trace: trace})
		}
		if res.IsError() {
			e.logger.Debug().Err(res.Err).Int("index", i).Msg("signal evaluation failed, treating as false")
		}

		passed := res.Passed(entry.invert)
		if trace != nil && entry.def != nil {
			trace.Printf("[%d] %s=%s invert=%t passed=%t", i, entry.def.ID, res.Outcome, entry.invert, passed)
		}
		if !passed {
			all = false
			if trace == nil {
				break
			}
		}
	}
	return all
}

func zeroActivity(initialCapital float64, failure string) *models.BacktestResult {
	return &models.BacktestResult{
		InitialCapital: initialCapital,
		FinalEquity:    initialCapital,
		Trades:         []models.Trade{},
		Log:            []string{failure},
		Failure:        failure,
	}
}
