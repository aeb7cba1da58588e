package signal

import (
	"context"
	"fmt"

	"go.starlark.net/resolve"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/Alias1177/SignalLab/internal/calculate"
	"github.com/Alias1177/SignalLab/models"
)

const defaultHelperPeriod = 14

// formulaUniverse lists the Starlark builtins a formula may use besides its
// row bindings.
var formulaUniverse = map[string]bool{
	"True": true, "False": true, "None": true,
	"abs": true, "max": true, "min": true,
}

type formulaBackend struct {
	maxSteps uint64
}

// evaluate computes a single boolean expression over the current row.
func (b *formulaBackend) evaluate(ctx context.Context, sig *models.SignalDefinition, candles []models.Candle, index int, opts Options) (bool, error) {
	thread, stop := newThread(ctx, "formula:"+sig.ID, b.maxSteps, opts.Trace)
	defer stop()

	c := candles[index]
	env := starlark.StringDict{
		"open":      starlark.Float(c.Open),
		"high":      starlark.Float(c.High),
		"low":       starlark.Float(c.Low),
		"close":     starlark.Float(c.Close),
		"volume":    starlark.Float(c.Volume),
		"timestamp": starlark.MakeInt64(c.Timestamp.Unix()),
		"idx":       starlark.MakeInt(index),
		"MA":        rowHelper("MA", candles, index, opts.Trace, calculate.SMA, 0),
		"RSI":       rowHelper("RSI", candles, index, opts.Trace, calculate.RSI, 50),
	}

	fileOpts := &syntax.FileOptions{}
	expr, err := fileOpts.ParseExpr("formula", sig.Code, 0)
	if err != nil {
		return false, err
	}
	if _, err := resolve.ExprOptions(fileOpts, expr, env.Has, func(name string) bool { return formulaUniverse[name] }); err != nil {
		return false, err
	}

	v, err := starlark.EvalExprOptions(fileOpts, thread, expr, env)
	if err != nil {
		return false, err
	}
	return bool(v.Truth()), nil
}

type seriesFunc func(values []float64, period int) []float64

// rowHelper builds MA/RSI style helpers. The first argument is either a
// column name or, when numeric and above 1, a period applied to close.
// Undefined values are replaced with def.
func rowHelper(name string, candles []models.Candle, index int, trace *Trace, fn seriesFunc, def float64) *starlark.Builtin {
	return starlark.NewBuiltin(name, func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var source starlark.Value = starlark.String("close")
		period := defaultHelperPeriod
		if err := starlark.UnpackArgs(b.Name(), args, kwargs, "source?", &source, "period?", &period); err != nil {
			return nil, err
		}

		column := "close"
		switch x := source.(type) {
		case starlark.String:
			column = string(x)
		case starlark.Int, starlark.Float:
			f, _ := starlark.AsFloat(x)
			period = defaultHelperPeriod
			if f > 1 {
				period = int(f)
			}
		default:
			return nil, fmt.Errorf("%s: first argument must be a column or period, got %s", b.Name(), source.Type())
		}

		values, err := candleColumn(candles[:index+1], column)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.Name(), err)
		}

		v := calculate.Nz(calculate.Last(fn(values, period)), def)
		trace.Printf("%s(%s,%d)=%.6f@%d", name, column, period, v, index)
		return starlark.Float(v), nil
	})
}

func candleColumn(candles []models.Candle, name string) ([]float64, error) {
	switch name {
	case "open":
		return models.Opens(candles), nil
	case "high":
		return models.Highs(candles), nil
	case "low":
		return models.Lows(candles), nil
	case "close":
		return models.Closes(candles), nil
	case "volume":
		return models.Volumes(candles), nil
	default:
		return nil, fmt.Errorf("unknown column %q", name)
	}
}
