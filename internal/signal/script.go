package signal

import (
	"context"
	"fmt"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/Alias1177/SignalLab/models"
)

const resultGlobal = "result"

type scriptBackend struct {
	maxSteps uint64
}

// evaluate executes a multi-statement script. The script sees the candle
// columns up to and including index and signals by assigning result.
func (b *scriptBackend) evaluate(ctx context.Context, sig *models.SignalDefinition, candles []models.Candle, index int, opts Options) (bool, error) {
	thread, stop := newThread(ctx, "script:"+sig.ID, b.maxSteps, opts.Trace)
	defer stop()

	window := candles[:index+1]
	timestamps := make([]starlark.Value, len(window))
	for i, c := range window {
		timestamps[i] = starlark.MakeInt64(c.Timestamp.Unix())
	}

	predeclared := safeBuiltins()
	predeclared["ta"] = newTAModule(index, opts.Trace)
	predeclared["data"] = starlarkstruct.FromStringDict(starlark.String("data"), starlark.StringDict{
		"open":      toList(models.Opens(window)),
		"high":      toList(models.Highs(window)),
		"low":       toList(models.Lows(window)),
		"close":     toList(models.Closes(window)),
		"volume":    toList(models.Volumes(window)),
		"timestamp": starlark.NewList(timestamps),
	})
	predeclared["idx"] = starlark.MakeInt(index)
	predeclared["is_active"] = starlark.Bool(opts.Active)
	predeclared[resultGlobal] = starlark.False

	globals, err := starlark.ExecFileOptions(scriptOptions, thread, "script", sig.Code, predeclared)
	if err != nil {
		return false, err
	}

	if opts.Trace.Enabled() {
		for _, name := range globals.Keys() {
			opts.Trace.Printf("var %s = %s", name, globals[name].String())
		}
	}

	result, ok := globals[resultGlobal]
	if !ok {
		return false, nil
	}
	return bool(result.Truth()), nil
}

// newTAModule exposes the indicator library to scripts. Every call logs
// its value at idx to the trace.
func newTAModule(idx int, trace *Trace) *starlarkstruct.Module {
	t := &taModule{idx: idx, trace: trace}
	return &starlarkstruct.Module{
		Name: "ta",
		Members: starlark.StringDict{
			"sma":        starlark.NewBuiltin("ta.sma", t.periodic(smaFn)),
			"ema":        starlark.NewBuiltin("ta.ema", t.periodic(emaFn)),
			"rsi":        starlark.NewBuiltin("ta.rsi", t.periodic(rsiFn)),
			"stddev":     starlark.NewBuiltin("ta.stddev", t.periodic(stddevFn)),
			"highest":    starlark.NewBuiltin("ta.highest", t.periodic(highestFn)),
			"lowest":     starlark.NewBuiltin("ta.lowest", t.periodic(lowestFn)),
			"macd":       starlark.NewBuiltin("ta.macd", t.macd),
			"bollinger":  starlark.NewBuiltin("ta.bollinger", t.bollinger),
			"stochastic": starlark.NewBuiltin("ta.stochastic", t.stochastic),
			"atr":        starlark.NewBuiltin("ta.atr", t.atr),
			"adx":        starlark.NewBuiltin("ta.adx", t.adx),
			"williams_r": starlark.NewBuiltin("ta.williams_r", t.williamsR),
			"vwap":       starlark.NewBuiltin("ta.vwap", t.vwap),
			"ichimoku":   starlark.NewBuiltin("ta.ichimoku", t.ichimoku),
			"supertrend": starlark.NewBuiltin("ta.supertrend", t.supertrend),
			"obv":        starlark.NewBuiltin("ta.obv", t.obv),
			"patterns":   starlark.NewBuiltin("ta.patterns", t.patterns),
			"regime":     starlark.NewBuiltin("ta.regime", t.regime),
			"levels":     starlark.NewBuiltin("ta.levels", t.levels),
		},
	}
}

func (t *taModule) logAt(name string, series ...[]float64) {
	if !t.trace.Enabled() {
		return
	}
	for i, s := range series {
		v := "n/a"
		if t.idx < len(s) {
			v = fmt.Sprintf("%.6f", s[t.idx])
		}
		if len(series) == 1 {
			t.trace.Printf("%s=%s@%d", name, v, t.idx)
			continue
		}
		t.trace.Printf("%s[%d]=%s@%d", name, i, v, t.idx)
	}
}

func tuple(series ...[]float64) starlark.Tuple {
	out := make(starlark.Tuple, len(series))
	for i, s := range series {
		out[i] = toList(s)
	}
	return out
}
