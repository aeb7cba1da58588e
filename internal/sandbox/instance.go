package sandbox

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

const (
	// PageSize is the WebAssembly linear memory page size.
	PageSize = 65536

	memoryExport = "memory"
)

// Instance is a single instantiated module with its own runtime.
type Instance struct {
	ctx     context.Context
	cancel  context.CancelFunc
	runtime wazero.Runtime
	module  api.Module
}

// Call invokes an exported function.
func (i *Instance) Call(name string, params ...uint64) ([]uint64, error) {
	fn := i.module.ExportedFunction(name)
	if fn == nil {
		return nil, fault("call "+name, fmt.Errorf("%w: function %q", ErrExportMissing, name))
	}

	results, err := fn.Call(i.ctx, params...)
	if err != nil {
		return nil, fault("call "+name, err)
	}
	return results, nil
}

func (i *Instance) memory() (api.Memory, error) {
	mem := i.module.ExportedMemory(memoryExport)
	if mem == nil {
		return nil, fault("memory", fmt.Errorf("%w: memory %q", ErrExportMissing, memoryExport))
	}
	return mem, nil
}

// EnsureMemory grows the exported memory in whole pages until it holds at
// least size bytes.
func (i *Instance) EnsureMemory(size uint64) error {
	mem, err := i.memory()
	if err != nil {
		return err
	}

	current := uint64(mem.Size())
	if current >= size {
		return nil
	}
	pages := (size - current + PageSize - 1) / PageSize
	if _, ok := mem.Grow(uint32(pages)); !ok {
		return fault("grow", fmt.Errorf("cannot grow memory by %d pages", pages))
	}
	return nil
}

// WriteFloat64s writes values as consecutive little-endian f64 from offset.
func (i *Instance) WriteFloat64s(offset uint32, values []float64) error {
	mem, err := i.memory()
	if err != nil {
		return err
	}
	for n, v := range values {
		if !mem.WriteFloat64Le(offset+uint32(n*8), v) {
			return fault("write", fmt.Errorf("offset %d out of range", offset+uint32(n*8)))
		}
	}
	return nil
}

// ReadInt32s reads n consecutive little-endian i32 from offset.
func (i *Instance) ReadInt32s(offset uint32, n int) ([]int32, error) {
	mem, err := i.memory()
	if err != nil {
		return nil, err
	}
	out := make([]int32, n)
	for k := range out {
		v, ok := mem.ReadUint32Le(offset + uint32(k*4))
		if !ok {
			return nil, fault("read", fmt.Errorf("offset %d out of range", offset+uint32(k*4)))
		}
		out[k] = int32(v)
	}
	return out, nil
}

// Close tears down the module and its runtime.
func (i *Instance) Close() {
	if i.runtime != nil {
		_ = i.runtime.Close(context.Background())
	}
	i.cancel()
}
