package sandbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero/api"

	"github.com/Alias1177/SignalLab/internal/sandbox/wasmtest"
)

func candleParams(o, h, l, c, v float64) []uint64 {
	return []uint64{api.EncodeF64(o), api.EncodeF64(h), api.EncodeF64(l), api.EncodeF64(c), api.EncodeF64(v)}
}

func newTestHost(t *testing.T, timeout time.Duration) *Host {
	t.Helper()
	h := NewHost(timeout)
	t.Cleanup(func() { _ = h.Close(context.Background()) })
	return h
}

func TestInstanceCall(t *testing.T) {
	h := newTestHost(t, time.Second)

	tests := []struct {
		name   string
		wasm   []byte
		params []uint64
		want   int32
	}{
		{"bullish candle", wasmtest.CloseAboveOpen(), candleParams(100, 110, 95, 105, 1000), 1},
		{"bearish candle", wasmtest.CloseAboveOpen(), candleParams(100, 110, 95, 99, 1000), 0},
		{"constant", wasmtest.Constant(-300), candleParams(0, 0, 0, 0, 0), -300},
		{"wasi imports", wasmtest.WASI(), candleParams(0, 0, 0, 0, 0), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst, err := h.Instantiate(context.Background(), tt.wasm)
			require.NoError(t, err)
			defer inst.Close()

			results, err := inst.Call("evaluate", tt.params...)
			require.NoError(t, err)
			require.Len(t, results, 1)
			assert.Equal(t, tt.want, api.DecodeI32(results[0]))
		})
	}
}

func TestInstanceFaults(t *testing.T) {
	h := newTestHost(t, 2*time.Second)

	tests := []struct {
		name   string
		wasm   []byte
		call   string
		wantOp string
	}{
		{"trap", wasmtest.Trap(), "evaluate", "call evaluate"},
		{"abort", wasmtest.Abort(), "evaluate", "call evaluate"},
		{"missing export", wasmtest.CloseAboveOpen(), "process_batch", "call process_batch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst, err := h.Instantiate(context.Background(), tt.wasm)
			require.NoError(t, err)
			defer inst.Close()

			_, err = inst.Call(tt.call, candleParams(1, 1, 1, 1, 1)...)
			require.Error(t, err)

			var f *Fault
			require.True(t, errors.As(err, &f))
			assert.Equal(t, tt.wantOp, f.Op)
		})
	}
}

func TestCallTimeout(t *testing.T) {
	h := newTestHost(t, 200*time.Millisecond)

	inst, err := h.Instantiate(context.Background(), wasmtest.Spin())
	require.NoError(t, err)
	defer inst.Close()

	start := time.Now()
	_, err = inst.Call("evaluate", candleParams(1, 1, 1, 1, 1)...)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)

	var f *Fault
	assert.True(t, errors.As(err, &f))
}

func TestInstantiateInvalidModule(t *testing.T) {
	h := newTestHost(t, time.Second)

	_, err := h.Instantiate(context.Background(), []byte("not wasm"))
	var f *Fault
	require.True(t, errors.As(err, &f))
	assert.Equal(t, "compile", f.Op)
}

func TestMemoryRoundTrip(t *testing.T) {
	h := newTestHost(t, time.Second)

	inst, err := h.Instantiate(context.Background(), wasmtest.BatchCloseAboveIndicator())
	require.NoError(t, err)
	defer inst.Close()

	// three pages worth of pairs forces growth past the initial page
	n := 3 * PageSize / 20
	size := uint64(n*16 + n*4)
	require.NoError(t, inst.EnsureMemory(size))

	pairs := make([]float64, 0, n*2)
	for i := 0; i < n; i++ {
		pairs = append(pairs, float64(i%2), 0.5)
	}
	require.NoError(t, inst.WriteFloat64s(0, pairs))

	out := uint32(n * 16)
	_, err = inst.Call("process_batch", api.EncodeI32(0), api.EncodeI32(int32(out)), api.EncodeI32(int32(n)))
	require.NoError(t, err)

	signals, err := inst.ReadInt32s(out, n)
	require.NoError(t, err)
	for i, sig := range signals {
		want := int32(-1)
		if i%2 == 1 {
			want = 1
		}
		require.Equal(t, want, sig, "signal %d", i)
	}
}

func TestMemoryMissing(t *testing.T) {
	h := newTestHost(t, time.Second)

	inst, err := h.Instantiate(context.Background(), wasmtest.BatchWithoutMemory())
	require.NoError(t, err)
	defer inst.Close()

	err = inst.EnsureMemory(16)
	assert.ErrorIs(t, err, ErrExportMissing)
}

func TestEnsureMemoryBeyondMaximum(t *testing.T) {
	h := newTestHost(t, time.Second)

	inst, err := h.Instantiate(context.Background(), wasmtest.BatchFixedMemory())
	require.NoError(t, err)
	defer inst.Close()

	require.NoError(t, inst.EnsureMemory(PageSize))

	err = inst.EnsureMemory(PageSize + 1)
	var f *Fault
	require.True(t, errors.As(err, &f), "got %v", err)
	assert.Equal(t, "grow", f.Op)
}
