package signal

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"

	"github.com/Alias1177/SignalLab/internal/sandbox"
	"github.com/Alias1177/SignalLab/models"
)

const evaluateExport = "evaluate"

type wasmBackend struct {
	host *sandbox.Host
}

// evaluate calls evaluate(open, high, low, close, volume) on a fresh
// instance. Only a return value of 1 is true.
func (b *wasmBackend) evaluate(ctx context.Context, sig *models.SignalDefinition, candles []models.Candle, index int, opts Options) (bool, error) {
	wasm, err := sig.ModuleBytes()
	if err != nil {
		return false, err
	}

	inst, err := b.host.Instantiate(ctx, wasm)
	if err != nil {
		return false, err
	}
	defer inst.Close()

	c := candles[index]
	results, err := inst.Call(evaluateExport,
		api.EncodeF64(c.Open),
		api.EncodeF64(c.High),
		api.EncodeF64(c.Low),
		api.EncodeF64(c.Close),
		api.EncodeF64(c.Volume),
	)
	if err != nil {
		return false, err
	}
	if len(results) == 0 {
		return false, fmt.Errorf("%s returned no value", evaluateExport)
	}

	v := api.DecodeI32(results[0])
	opts.Trace.Printf("%s(%g,%g,%g,%g,%g)=%d@%d", evaluateExport, c.Open, c.High, c.Low, c.Close, c.Volume, v, index)
	return v == 1, nil
}
