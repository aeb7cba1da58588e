// Package sandbox runs untrusted WebAssembly strategy modules. Every call
// gets its own runtime and module instance; only the compilation cache is
// shared between calls.
package sandbox

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

// DefaultTimeout bounds a single instantiate-and-call cycle.
const DefaultTimeout = 2 * time.Second

// Host creates isolated module instances.
type Host struct {
	cache   wazero.CompilationCache
	timeout time.Duration
	logger  zerolog.Logger
}

// NewHost creates a host whose instances live at most timeout.
func NewHost(timeout time.Duration) *Host {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Host{
		cache:   wazero.NewCompilationCache(),
		timeout: timeout,
		logger:  log.With().Str("component", "sandbox").Logger(),
	}
}

// Close releases the compilation cache.
func (h *Host) Close(ctx context.Context) error {
	return h.cache.Close(ctx)
}

// Instantiate compiles and instantiates wasm in a fresh runtime. The
// instance must be closed by the caller.
func (h *Host) Instantiate(ctx context.Context, wasm []byte) (*Instance, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)

	cfg := wazero.NewRuntimeConfig().
		WithCloseOnContextDone(true).
		WithCompilationCache(h.cache)
	runtime := wazero.NewRuntimeWithConfig(ctx, cfg)

	inst := &Instance{ctx: ctx, cancel: cancel, runtime: runtime}
	if err := h.instantiateHostModules(ctx, runtime); err != nil {
		inst.Close()
		return nil, fault("instantiate", err)
	}

	compiled, err := runtime.CompileModule(ctx, wasm)
	if err != nil {
		inst.Close()
		return nil, fault("compile", err)
	}

	mod, err := runtime.InstantiateModule(ctx, compiled,
		wazero.NewModuleConfig().WithName("").WithStartFunctions("_initialize"))
	if err != nil {
		inst.Close()
		return nil, fault("instantiate", err)
	}
	inst.module = mod

	h.logger.Debug().
		Int("bytes", len(wasm)).
		Int("exports", len(compiled.ExportedFunctions())).
		Msg("module instantiated")
	return inst, nil
}

// instantiateHostModules provides the imports AssemblyScript and WASI
// toolchains emit. env.abort terminates the call with an error.
func (h *Host) instantiateHostModules(ctx context.Context, runtime wazero.Runtime) error {
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, runtime); err != nil {
		return fmt.Errorf("wasi: %w", err)
	}

	_, err := runtime.NewHostModuleBuilder("env").
		NewFunctionBuilder().
		WithFunc(func(ctx context.Context, m api.Module, msg, file, line, col uint32) {
			panic(fmt.Sprintf("abort called at %d:%d", line, col))
		}).
		Export("abort").
		Instantiate(ctx)
	if err != nil {
		return fmt.Errorf("env: %w", err)
	}
	return nil
}
