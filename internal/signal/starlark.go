package signal

import (
	"context"
	"fmt"
	"math"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/Alias1177/SignalLab/internal/calculate"
)

var scriptOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
}

// newThread creates a step-limited thread that is cancelled with ctx.
// print output goes to the trace. The returned func releases the
// cancellation hook.
func newThread(ctx context.Context, name string, maxSteps uint64, trace *Trace) (*starlark.Thread, func() bool) {
	thread := &starlark.Thread{
		Name: name,
		Print: func(_ *starlark.Thread, msg string) {
			trace.Printf("print: %s", msg)
		},
		Load: func(_ *starlark.Thread, module string) (starlark.StringDict, error) {
			return nil, fmt.Errorf("load of %q is not allowed", module)
		},
	}
	thread.SetMaxExecutionSteps(maxSteps)
	stop := context.AfterFunc(ctx, func() {
		thread.Cancel(ctx.Err().Error())
	})
	return thread, stop
}

func floatList(name string, v starlark.Value) ([]float64, error) {
	iterable, ok := v.(starlark.Iterable)
	if !ok {
		return nil, fmt.Errorf("%s: want list of numbers, got %s", name, v.Type())
	}

	var out []float64
	iter := iterable.Iterate()
	defer iter.Done()
	var x starlark.Value
	for iter.Next(&x) {
		f, ok := starlark.AsFloat(x)
		if !ok {
			return nil, fmt.Errorf("%s: element %d is %s, not a number", name, len(out), x.Type())
		}
		out = append(out, f)
	}
	return out, nil
}

func toList(values []float64) *starlark.List {
	elems := make([]starlark.Value, len(values))
	for i, v := range values {
		elems[i] = starlark.Float(v)
	}
	return starlark.NewList(elems)
}

// number unpacks both Starlark ints and floats.
type number float64

func (n *number) Unpack(v starlark.Value) error {
	f, ok := starlark.AsFloat(v)
	if !ok {
		return fmt.Errorf("got %s, want number", v.Type())
	}
	*n = number(f)
	return nil
}

// safeBuiltins are the helpers available to scripts besides Starlark's
// own universe.
func safeBuiltins() starlark.StringDict {
	return starlark.StringDict{
		"round": starlark.NewBuiltin("round", builtinRound),
		"sum":   starlark.NewBuiltin("sum", builtinSum),
		"mean":  starlark.NewBuiltin("mean", builtinMean),
		"nz":    starlark.NewBuiltin("nz", builtinNz),
		"is_nan": starlark.NewBuiltin("is_nan", func(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var x number
			if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &x); err != nil {
				return nil, err
			}
			return starlark.Bool(math.IsNaN(float64(x))), nil
		}),
	}
}

func builtinRound(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var x number
	precision := 0
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "x", &x, "precision?", &precision); err != nil {
		return nil, err
	}
	multiplier := math.Pow(10, float64(precision))
	return starlark.Float(math.Round(float64(x)*multiplier) / multiplier), nil
}

func builtinSum(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var values starlark.Value
	if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &values); err != nil {
		return nil, err
	}
	list, err := floatList(fn.Name(), values)
	if err != nil {
		return nil, err
	}
	var total float64
	for _, v := range list {
		total += v
	}
	return starlark.Float(total), nil
}

func builtinMean(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var values starlark.Value
	if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &values); err != nil {
		return nil, err
	}
	list, err := floatList(fn.Name(), values)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return starlark.Float(math.NaN()), nil
	}
	var total float64
	for _, v := range list {
		total += v
	}
	return starlark.Float(total / float64(len(list))), nil
}

func builtinNz(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var x, def number
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "x", &x, "default?", &def); err != nil {
		return nil, err
	}
	return starlark.Float(calculate.Nz(float64(x), float64(def))), nil
}

func errLength(name string) error {
	return fmt.Errorf("%s: input series have different lengths", name)
}
