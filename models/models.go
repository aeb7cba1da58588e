package models

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// Candle represents a single price candle
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume,omitempty"`
}

// SignalKind selects the backend a signal is evaluated with.
type SignalKind string

const (
	KindFormula SignalKind = "FORMULA"
	KindScript  SignalKind = "SCRIPT"
	KindWasm    SignalKind = "WASM"
	KindBuy     SignalKind = "BUY"
	KindSell    SignalKind = "SELL"
	KindUnknown SignalKind = "UNKNOWN"
)

// ParseSignalKind maps a stored kind string to a SignalKind, case-insensitively.
func ParseSignalKind(s string) SignalKind {
	switch k := SignalKind(strings.ToUpper(strings.TrimSpace(s))); k {
	case KindFormula, KindScript, KindWasm, KindBuy, KindSell:
		return k
	default:
		return KindUnknown
	}
}

// Mode is the execution mode a signal was authored for.
type Mode string

const (
	ModeSimulation Mode = "simulation"
	ModePaper      Mode = "paper"
	ModeLive       Mode = "live"
)

// SignalDefinition is a user-authored trading rule. Read-only to the engine.
type SignalDefinition struct {
	ID   string     `json:"id" yaml:"id"`
	Kind SignalKind `json:"kind" yaml:"kind"`
	Code string     `json:"code" yaml:"code"` // base64 module bytes for WASM
	Name string     `json:"name" yaml:"name"`
	Mode Mode       `json:"mode" yaml:"mode"`
}

// ModuleBytes decodes the compiled module carried by a WASM signal.
func (s SignalDefinition) ModuleBytes() ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s.Code))
	if err != nil {
		return nil, fmt.Errorf("decoding module for signal %s: %w", s.ID, err)
	}
	return b, nil
}

// StackEntry references a signal in a manifest, optionally inverted.
type StackEntry struct {
	SignalID string `json:"signal_id" yaml:"signal_id"`
	Invert   bool   `json:"invert" yaml:"invert"`
}

// Outcome is the tri-state value of a single evaluation.
type Outcome int

const (
	ResultFalse Outcome = iota
	ResultTrue
	ResultError
)

func (o Outcome) String() string {
	switch o {
	case ResultTrue:
		return "true"
	case ResultFalse:
		return "false"
	default:
		return "error"
	}
}

// EvaluationResult is the outcome of evaluating one signal at one candle.
type EvaluationResult struct {
	Outcome Outcome
	Err     error
}

// ResultOf wraps a boolean outcome.
func ResultOf(v bool) EvaluationResult {
	if v {
		return EvaluationResult{Outcome: ResultTrue}
	}
	return EvaluationResult{Outcome: ResultFalse}
}

// ErrorResult wraps a failed evaluation.
func ErrorResult(err error) EvaluationResult {
	return EvaluationResult{Outcome: ResultError, Err: err}
}

// IsTrue reports a clean true outcome.
func (r EvaluationResult) IsTrue() bool { return r.Outcome == ResultTrue }

// IsError reports a failed evaluation.
func (r EvaluationResult) IsError() bool { return r.Outcome == ResultError }

// Passed applies a stack entry's invert flag. An error collapses to false
// before inversion, so a broken signal can never pass.
func (r EvaluationResult) Passed(invert bool) bool {
	if r.Outcome == ResultError {
		return false
	}
	v := r.Outcome == ResultTrue
	if invert {
		return !v
	}
	return v
}

// TradeType is the side of a simulation event.
type TradeType string

const (
	TradeBuy  TradeType = "buy"
	TradeSell TradeType = "sell"
)

// ExitReason explains why a long position was closed.
type ExitReason string

const (
	ExitEndOfBacktest ExitReason = "End of Backtest"
	ExitSignalLost    ExitReason = "Signal Lost"
	ExitTakeProfit    ExitReason = "Take Profit"
	ExitStopLoss      ExitReason = "Stop Loss"
	ExitSignalFlip    ExitReason = "Signal Exit"
)

// Trade is one entry of the append-only simulation log.
type Trade struct {
	Type      TradeType  `json:"type"`
	Price     float64    `json:"price"`
	Timestamp time.Time  `json:"timestamp"`
	Shares    float64    `json:"shares"`
	PnL       *float64   `json:"pnl,omitempty"`
	PnLPct    *float64   `json:"pnl_pct,omitempty"`
	Balance   float64    `json:"balance"`
	Reason    ExitReason `json:"reason,omitempty"`
}

// EquityPoint is the marked-to-market portfolio value at one candle.
type EquityPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Equity    float64   `json:"equity"`
	Price     float64   `json:"price,omitempty"`
}

// BacktestResult stores the outcome of one backtest run
type BacktestResult struct {
	InitialCapital float64       `json:"initial_capital"`
	FinalEquity    float64       `json:"final_equity"`
	TotalReturnPct float64       `json:"total_return_pct"`
	WinRate        float64       `json:"win_rate"`
	MaxDrawdown    float64       `json:"max_drawdown"`
	SharpeRatio    float64       `json:"sharpe_ratio"`
	SortinoRatio   float64       `json:"sortino_ratio"`
	ProfitFactor   float64       `json:"profit_factor"`
	TotalTrades    int           `json:"total_trades"` // completed sells
	WinningTrades  int           `json:"winning_trades"`
	LosingTrades   int           `json:"losing_trades"`
	Trades         []Trade       `json:"trades"`
	EquityCurve    []EquityPoint `json:"equity_curve,omitempty"`
	Log            []string      `json:"log,omitempty"`
	Failure        string        `json:"failure,omitempty"`
}

// ArenaMetrics summarises a batch (Arena) run. Sortino is not computed in
// this mode.
type ArenaMetrics struct {
	InitialCapital float64 `json:"initial_capital"`
	FinalEquity    float64 `json:"final_equity"`
	TotalReturnPct float64 `json:"total_return_pct"`
	WinRate        float64 `json:"win_rate"`
	MaxDrawdown    float64 `json:"max_drawdown"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	TotalTrades    int     `json:"total_trades"`
	WinningTrades  int     `json:"winning_trades"`
	BuySignals     int     `json:"buy_signals"`
	SellSignals    int     `json:"sell_signals"`
	HoldSignals    int     `json:"hold_signals"`
	Trades         []Trade `json:"trades,omitempty"`
}
