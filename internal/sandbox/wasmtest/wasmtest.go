// Package wasmtest assembles tiny WebAssembly modules for tests. Each
// builder returns a complete binary following the strategy calling
// conventions.
package wasmtest

const (
	typeF64 = 0x7c
	typeI32 = 0x7f

	kindFunc   = 0x00
	kindMemory = 0x02
)

var header = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

var candleParams = []byte{typeF64, typeF64, typeF64, typeF64, typeF64}

// Compare returns a module whose evaluate(o,h,l,c,v) yields 1 when the
// parameter at index a is greater than the parameter at index b.
func Compare(a, b byte) []byte {
	return evaluateModule([]byte{
		0x20, a, // local.get a
		0x20, b, // local.get b
		0x64, // f64.gt
		0x0b,
	})
}

// CloseAboveOpen returns a module signalling 1 on bullish candles.
func CloseAboveOpen() []byte {
	return Compare(3, 0)
}

// Constant returns a module whose evaluate always yields v.
func Constant(v int32) []byte {
	body := append([]byte{0x41}, sleb(v)...)
	return evaluateModule(append(body, 0x0b))
}

// Trap returns a module whose evaluate executes unreachable.
func Trap() []byte {
	return evaluateModule([]byte{0x00, 0x0b})
}

// Spin returns a module whose evaluate never returns.
func Spin() []byte {
	return evaluateModule([]byte{
		0x03, 0x40, // loop
		0x0c, 0x00, // br 0
		0x0b,
		0x00, // unreachable
		0x0b,
	})
}

// Abort returns a module importing env.abort and calling it from evaluate.
func Abort() []byte {
	abortType := funcType([]byte{typeI32, typeI32, typeI32, typeI32}, nil)
	evalType := funcType(candleParams, []byte{typeI32})

	body := []byte{
		0x41, 0x00, 0x41, 0x00, 0x41, 0x00, 0x41, 0x00,
		0x10, 0x00, // call 0
		0x00,
		0x0b,
	}
	return module(
		section(1, vec(abortType, evalType)),
		section(2, vec(importFunc("env", "abort", 0))),
		section(3, vec([]byte{0x01})),
		section(7, vec(export("evaluate", kindFunc, 1))),
		section(10, vec(code(nil, body))),
	)
}

// WASI returns a module importing wasi_snapshot_preview1.fd_write without
// calling it; evaluate always yields 1.
func WASI() []byte {
	fdWriteType := funcType([]byte{typeI32, typeI32, typeI32, typeI32}, []byte{typeI32})
	evalType := funcType(candleParams, []byte{typeI32})

	return module(
		section(1, vec(fdWriteType, evalType)),
		section(2, vec(importFunc("wasi_snapshot_preview1", "fd_write", 0))),
		section(3, vec([]byte{0x01})),
		section(7, vec(export("evaluate", kindFunc, 1))),
		section(10, vec(code(nil, []byte{0x41, 0x01, 0x0b}))),
	)
}

// BatchCloseAboveIndicator returns a module exporting memory (one page) and
// process_batch(in, out, n). For every candle i it reads the [close,
// indicator] f64 pair at in+16i and stores 1 at out+4i when close is above
// the indicator, -1 otherwise.
func BatchCloseAboveIndicator() []byte {
	return batchCloseAboveIndicator([]byte{0x00, 0x01})
}

// BatchFixedMemory is BatchCloseAboveIndicator with its memory capped at
// one page, so it cannot hold more than a few thousand candles.
func BatchFixedMemory() []byte {
	return batchCloseAboveIndicator([]byte{0x01, 0x01, 0x01})
}

// batchCloseAboveIndicator builds the batch module around the given
// encoded memory limits.
func batchCloseAboveIndicator(limits []byte) []byte {
	pairAddr := []byte{
		0x20, 0x00, // local.get in
		0x20, 0x03, // local.get i
		0x41, 0x04, // i32.const 4
		0x74, // i32.shl
		0x6a, // i32.add
	}

	body := []byte{
		0x02, 0x40, // block
		0x03, 0x40, // loop
		0x20, 0x03, 0x20, 0x02, 0x4e, // i >= n
		0x0d, 0x01, // br_if 1
		0x20, 0x01, 0x20, 0x03, 0x41, 0x02, 0x74, 0x6a, // out + i<<2
		0x41, 0x01, // i32.const 1
		0x41, 0x7f, // i32.const -1
	}
	body = append(body, pairAddr...)
	body = append(body, 0x2b, 0x03, 0x00) // f64.load close
	body = append(body, pairAddr...)
	body = append(body, 0x2b, 0x03, 0x08) // f64.load indicator
	body = append(body,
		0x64,             // f64.gt
		0x1b,             // select
		0x36, 0x02, 0x00, // i32.store
		0x20, 0x03, 0x41, 0x01, 0x6a, 0x21, 0x03, // i++
		0x0c, 0x00, // br 0
		0x0b, // end loop
		0x0b, // end block
		0x0b,
	)

	batchType := funcType([]byte{typeI32, typeI32, typeI32}, nil)
	return module(
		section(1, vec(batchType)),
		section(3, vec([]byte{0x00})),
		section(5, vec(limits)),
		section(7, vec(
			export("process_batch", kindFunc, 0),
			export("memory", kindMemory, 0),
		)),
		section(10, vec(code([]byte{0x01, 0x01, typeI32}, body))),
	)
}

// BatchWithoutMemory returns a module exporting process_batch but no memory.
func BatchWithoutMemory() []byte {
	batchType := funcType([]byte{typeI32, typeI32, typeI32}, nil)
	return module(
		section(1, vec(batchType)),
		section(3, vec([]byte{0x00})),
		section(7, vec(export("process_batch", kindFunc, 0))),
		section(10, vec(code(nil, []byte{0x0b}))),
	)
}

func evaluateModule(body []byte) []byte {
	return module(
		section(1, vec(funcType(candleParams, []byte{typeI32}))),
		section(3, vec([]byte{0x00})),
		section(7, vec(export("evaluate", kindFunc, 0))),
		section(10, vec(code(nil, body))),
	)
}

func module(sections ...[]byte) []byte {
	out := append([]byte{}, header...)
	for _, s := range sections {
		out = append(out, s...)
	}
	return out
}

func section(id byte, content []byte) []byte {
	out := append([]byte{id}, uleb(uint32(len(content)))...)
	return append(out, content...)
}

func vec(items ...[]byte) []byte {
	out := uleb(uint32(len(items)))
	for _, item := range items {
		out = append(out, item...)
	}
	return out
}

func funcType(params, results []byte) []byte {
	out := []byte{0x60, byte(len(params))}
	out = append(out, params...)
	out = append(out, byte(len(results)))
	return append(out, results...)
}

func name(s string) []byte {
	return append(uleb(uint32(len(s))), s...)
}

func export(n string, kind byte, index uint32) []byte {
	out := append(name(n), kind)
	return append(out, uleb(index)...)
}

func importFunc(mod, field string, typeIndex uint32) []byte {
	out := append(name(mod), name(field)...)
	out = append(out, kindFunc)
	return append(out, uleb(typeIndex)...)
}

// code wraps a function body; locals is an encoded locals vector, nil for none.
func code(locals, body []byte) []byte {
	if locals == nil {
		locals = []byte{0x00}
	}
	fn := append(append([]byte{}, locals...), body...)
	return append(uleb(uint32(len(fn))), fn...)
}

func uleb(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			out = append(out, b|0x80)
			continue
		}
		return append(out, b)
	}
}

func sleb(v int32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}
