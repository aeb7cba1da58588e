package signal

import (
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/Alias1177/SignalLab/internal/calculate"
)

type taModule struct {
	idx   int
	trace *Trace
}

type builtinFunc func(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error)

var (
	smaFn     seriesFunc = calculate.SMA
	emaFn     seriesFunc = calculate.EMA
	rsiFn     seriesFunc = calculate.RSI
	stddevFn  seriesFunc = calculate.StdDev
	highestFn seriesFunc = calculate.Highest
	lowestFn  seriesFunc = calculate.Lowest
)

// periodic wraps f(values, period).
func (t *taModule) periodic(f seriesFunc) builtinFunc {
	return func(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var values starlark.Value
		period := defaultHelperPeriod
		if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "values", &values, "period?", &period); err != nil {
			return nil, err
		}
		list, err := floatList(fn.Name(), values)
		if err != nil {
			return nil, err
		}
		out := f(list, period)
		t.logAt(fn.Name(), out)
		return toList(out), nil
	}
}

// hlc unpacks high, low, close lists followed by optional parameters.
func hlc(fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple, extra ...interface{}) (high, low, close []float64, err error) {
	var h, l, c starlark.Value
	pairs := append([]interface{}{"high", &h, "low", &l, "close", &c}, extra...)
	if err = starlark.UnpackArgs(fn.Name(), args, kwargs, pairs...); err != nil {
		return nil, nil, nil, err
	}
	if high, err = floatList(fn.Name(), h); err != nil {
		return nil, nil, nil, err
	}
	if low, err = floatList(fn.Name(), l); err != nil {
		return nil, nil, nil, err
	}
	if close, err = floatList(fn.Name(), c); err != nil {
		return nil, nil, nil, err
	}
	if len(high) != len(close) || len(low) != len(close) {
		return nil, nil, nil, errLength(fn.Name())
	}
	return high, low, close, nil
}

func (t *taModule) macd(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var values starlark.Value
	fast, slow, signal := 12, 26, 9
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "values", &values, "fast?", &fast, "slow?", &slow, "signal?", &signal); err != nil {
		return nil, err
	}
	list, err := floatList(fn.Name(), values)
	if err != nil {
		return nil, err
	}
	line, sig, hist := calculate.MACD(list, fast, slow, signal)
	t.logAt(fn.Name(), line, sig, hist)
	return tuple(line, sig, hist), nil
}

func (t *taModule) bollinger(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var values starlark.Value
	period := 20
	k := number(2)
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "values", &values, "period?", &period, "k?", &k); err != nil {
		return nil, err
	}
	list, err := floatList(fn.Name(), values)
	if err != nil {
		return nil, err
	}
	upper, middle, lower := calculate.Bollinger(list, period, float64(k))
	t.logAt(fn.Name(), upper, middle, lower)
	return tuple(upper, middle, lower), nil
}

func (t *taModule) stochastic(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	period, kWindow, dWindow := 14, 3, 3
	high, low, close, err := hlc(fn, args, kwargs, "period?", &period, "k?", &kWindow, "d?", &dWindow)
	if err != nil {
		return nil, err
	}
	k, d := calculate.Stochastic(high, low, close, period, kWindow, dWindow)
	t.logAt(fn.Name(), k, d)
	return tuple(k, d), nil
}

func (t *taModule) atr(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	length := 14
	high, low, close, err := hlc(fn, args, kwargs, "length?", &length)
	if err != nil {
		return nil, err
	}
	out := calculate.ATR(high, low, close, length)
	t.logAt(fn.Name(), out)
	return toList(out), nil
}

func (t *taModule) adx(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	length := 14
	high, low, close, err := hlc(fn, args, kwargs, "length?", &length)
	if err != nil {
		return nil, err
	}
	adx, plusDI, minusDI := calculate.ADX(high, low, close, length)
	t.logAt(fn.Name(), adx, plusDI, minusDI)
	return tuple(adx, plusDI, minusDI), nil
}

func (t *taModule) williamsR(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	length := 14
	high, low, close, err := hlc(fn, args, kwargs, "length?", &length)
	if err != nil {
		return nil, err
	}
	out := calculate.WilliamsR(high, low, close, length)
	t.logAt(fn.Name(), out)
	return toList(out), nil
}

func (t *taModule) vwap(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var v starlark.Value
	high, low, close, err := hlc(fn, args, kwargs, "volume", &v)
	if err != nil {
		return nil, err
	}
	volume, err := floatList(fn.Name(), v)
	if err != nil {
		return nil, err
	}
	if len(volume) != len(close) {
		return nil, errLength(fn.Name())
	}
	out := calculate.VWAP(high, low, close, volume)
	t.logAt(fn.Name(), out)
	return toList(out), nil
}

func (t *taModule) ichimoku(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	high, low, close, err := hlc(fn, args, kwargs)
	if err != nil {
		return nil, err
	}
	cloud := calculate.Ichimoku(high, low, close)
	t.logAt(fn.Name(), cloud.Tenkan, cloud.Kijun, cloud.SpanA, cloud.SpanB, cloud.Chikou)
	return starlarkstruct.FromStringDict(starlark.String("ichimoku"), starlark.StringDict{
		"tenkan": toList(cloud.Tenkan),
		"kijun":  toList(cloud.Kijun),
		"span_a": toList(cloud.SpanA),
		"span_b": toList(cloud.SpanB),
		"chikou": toList(cloud.Chikou),
	}), nil
}

func (t *taModule) supertrend(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	length := 10
	multiplier := number(3)
	high, low, close, err := hlc(fn, args, kwargs, "length?", &length, "multiplier?", &multiplier)
	if err != nil {
		return nil, err
	}
	out := calculate.Supertrend(high, low, close, length, float64(multiplier))
	t.logAt(fn.Name(), out)
	return toList(out), nil
}

func (t *taModule) obv(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var c, v starlark.Value
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "close", &c, "volume", &v); err != nil {
		return nil, err
	}
	close, err := floatList(fn.Name(), c)
	if err != nil {
		return nil, err
	}
	volume, err := floatList(fn.Name(), v)
	if err != nil {
		return nil, err
	}
	if len(volume) != len(close) {
		return nil, errLength(fn.Name())
	}
	out := calculate.OBV(close, volume)
	t.logAt(fn.Name(), out)
	return toList(out), nil
}

// patterns returns the candle pattern names at idx.
func (t *taModule) patterns(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var o, h, l, c starlark.Value
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "open", &o, "high", &h, "low", &l, "close", &c); err != nil {
		return nil, err
	}
	var lists [4][]float64
	for i, v := range []starlark.Value{o, h, l, c} {
		list, err := floatList(fn.Name(), v)
		if err != nil {
			return nil, err
		}
		if i > 0 && len(list) != len(lists[0]) {
			return nil, errLength(fn.Name())
		}
		lists[i] = list
	}

	found := calculate.CandlePatterns(lists[0], lists[1], lists[2], lists[3], t.idx)
	if t.trace.Enabled() {
		t.trace.Printf("%s=%v@%d", fn.Name(), found, t.idx)
	}
	out := make([]starlark.Value, len(found))
	for i, p := range found {
		out[i] = starlark.String(p)
	}
	return starlark.NewList(out), nil
}

// regime classifies the market at idx.
func (t *taModule) regime(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	high, low, close, err := hlc(fn, args, kwargs)
	if err != nil {
		return nil, err
	}
	r := calculate.ClassifyRegime(high, low, close, t.idx)
	if t.trace.Enabled() {
		t.trace.Printf("%s=%s/%s strength=%.2f@%d", fn.Name(), r.Type, r.Direction, r.Strength, t.idx)
	}
	return starlarkstruct.FromStringDict(starlark.String("regime"), starlark.StringDict{
		"type":       starlark.String(r.Type),
		"direction":  starlark.String(r.Direction),
		"strength":   starlark.Float(r.Strength),
		"volatility": starlark.String(r.Volatility),
		"structure":  starlark.String(r.Structure),
	}), nil
}

// levels returns the nearest support and resistance levels at idx.
func (t *taModule) levels(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	high, low, close, err := hlc(fn, args, kwargs)
	if err != nil {
		return nil, err
	}
	support, resistance := calculate.SupportResistance(high, low, close, t.idx)
	if t.trace.Enabled() {
		t.trace.Printf("%s=support%v resistance%v@%d", fn.Name(), support, resistance, t.idx)
	}
	return starlarkstruct.FromStringDict(starlark.String("levels"), starlark.StringDict{
		"support":    toList(support),
		"resistance": toList(resistance),
	}), nil
}
