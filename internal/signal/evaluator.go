// Package signal evaluates user-authored signal definitions against a
// candle series at a given index.
package signal

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/SignalLab/internal/sandbox"
	"github.com/Alias1177/SignalLab/models"
)

// DefaultMaxSteps bounds a single formula or script evaluation.
const DefaultMaxSteps = 1_000_000

// Options carry per-call evaluation context. Debug output is enabled when
// Trace is set.
type Options struct {
	Active bool // a position is currently open
	Symbol string
	Trace  *Trace

	// NoOrders evaluates live signals without submitting orders.
	NoOrders bool
	// OnOrder is called from the submission goroutine when a live order
	// started by this evaluation finishes. Throttled triggers never call it.
	OnOrder OrderFunc
}

type backend interface {
	evaluate(ctx context.Context, sig *models.SignalDefinition, candles []models.Candle, index int, opts Options) (bool, error)
}

// Evaluator dispatches a signal to the backend matching its kind.
type Evaluator struct {
	formula *formulaBackend
	script  *scriptBackend
	wasm    *wasmBackend
	live    *LiveTrigger
	logger  zerolog.Logger
}

// NewEvaluator creates an evaluator. live may be nil, in which case live
// signals never trigger orders.
func NewEvaluator(host *sandbox.Host, maxSteps uint64, live *LiveTrigger) *Evaluator {
	if maxSteps == 0 {
		maxSteps = DefaultMaxSteps
	}
	return &Evaluator{
		formula: &formulaBackend{maxSteps: maxSteps},
		script:  &scriptBackend{maxSteps: maxSteps},
		wasm:    &wasmBackend{host: host},
		live:    live,
		logger:  log.With().Str("component", "signal").Logger(),
	}
}

func (e *Evaluator) backendFor(kind models.SignalKind) backend {
	switch kind {
	case models.KindFormula:
		return e.formula
	case models.KindScript:
		return e.script
	case models.KindWasm:
		if e.wasm.host == nil {
			return nil
		}
		return e.wasm
	default:
		return nil
	}
}

// Evaluate runs sig against candles at index. Evaluation failures are
// returned as an error result, never as a panic.
func (e *Evaluator) Evaluate(ctx context.Context, sig *models.SignalDefinition, candles []models.Candle, index int, opts Options) (result models.EvaluationResult) {
	if sig == nil {
		return models.ErrorResult(fmt.Errorf("nil signal"))
	}
	if index < 0 || index >= len(candles) {
		return models.ErrorResult(fmt.Errorf("signal %s: index %d out of range [0,%d)", sig.ID, index, len(candles)))
	}

	b := e.backendFor(sig.Kind)
	if b == nil {
		e.logger.Warn().Str("signal", sig.ID).Str("kind", string(sig.Kind)).Msg("no evaluator for signal kind, treating as false")
		return models.ResultOf(false)
	}

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("signal %s: panic during evaluation: %v", sig.ID, r)
			e.logger.Error().Err(err).Int("index", index).Msg("evaluation panicked")
			opts.Trace.Printf("error: %v", err)
			result = models.ErrorResult(err)
		}
	}()

	ok, err := b.evaluate(ctx, sig, candles, index, opts)
	if err != nil {
		err = fmt.Errorf("signal %s (%s): %w", sig.ID, sig.Kind, err)
		e.logger.Debug().Err(err).Int("index", index).Msg("evaluation failed")
		opts.Trace.Printf("error@%d: %v", index, err)
		return models.ErrorResult(err)
	}

	if ok && e.live != nil && !opts.NoOrders && sig.Mode == models.ModeLive && index == len(candles)-1 {
		if e.live.Fire(ctx, sig, opts.Symbol, opts.Active, opts.OnOrder) {
			opts.Trace.Printf("live order triggered for %s", sig.ID)
		}
	}
	return models.ResultOf(ok)
}
