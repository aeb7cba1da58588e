package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/SignalLab/models"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := fromEnv()
	require.NoError(t, err)

	assert.Equal(t, "1h", cfg.Interval)
	assert.Equal(t, 10000.0, cfg.InitialCapital)
	assert.Equal(t, 2*time.Second, cfg.SandboxTimeout())
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout())
	assert.Equal(t, 4, cfg.ArenaWorkers)
	assert.False(t, cfg.DatabaseEnabled())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("SYMBOL", "BTC/USD")
	t.Setenv("TAKE_PROFIT_PCT", "0.05")
	t.Setenv("SANDBOX_TIMEOUT_MS", "250")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")
	t.Setenv("MARKET_DATA_FALLBACK", "yes")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("BACKTEST_DAYS", "not-a-number")

	cfg, err := fromEnv()
	require.NoError(t, err)

	assert.Equal(t, "BTC/USD", cfg.Symbol)
	assert.Equal(t, 0.05, cfg.TakeProfitPct)
	assert.Equal(t, 250*time.Millisecond, cfg.SandboxTimeout())
	assert.Equal(t, int64(-100123), cfg.TelegramChatID)
	assert.True(t, cfg.MarketDataFallback)
	assert.True(t, cfg.DatabaseEnabled())
	assert.Equal(t, 30, cfg.BacktestDays)
}

func TestFromEnvInvalid(t *testing.T) {
	t.Setenv("INITIAL_CAPITAL", "-5")
	t.Setenv("ARENA_WORKERS", "0")

	_, err := fromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INITIAL_CAPITAL")
	assert.Contains(t, err.Error(), "ARENA_WORKERS")
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadSweep(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "strategy.wasm", "\x00asm")
	path := writeFile(t, dir, "sweep.yaml", `
strategy: RSI reversal
module: strategy.wasm
symbols: [AAPL, MSFT]
intervals: [1h, 1day]
`)

	sweep, err := LoadSweep(path)
	require.NoError(t, err)
	assert.Equal(t, "RSI reversal", sweep.Strategy)
	assert.Equal(t, []byte("\x00asm"), sweep.Module)
	assert.Equal(t, []string{"AAPL", "MSFT"}, sweep.Symbols)
	assert.Equal(t, 10000.0, sweep.Capital)
	assert.Equal(t, 30, sweep.Days)
}

func TestLoadSweepErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"no module", "symbols: [A]\nintervals: [1h]\n"},
		{"no symbols", "module: m.wasm\nintervals: [1h]\n"},
		{"missing module file", "module: nope.wasm\nsymbols: [A]\nintervals: [1h]\n"},
		{"bad yaml", "symbols: [A\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSweep(writeFile(t, dir, "sweep.yaml", tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadSignals(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bull.wasm", "\x00asm\x01")
	path := writeFile(t, dir, "signals.yaml", `
signals:
  - id: trend
    kind: formula
    code: close > MA(20)
  - id: bull
    kind: wasm
    module_file: bull.wasm
    mode: LIVE
stack:
  - signal_id: trend
  - signal_id: bull
    invert: true
`)

	defs, stack, err := LoadSignals(path)
	require.NoError(t, err)
	require.Len(t, defs, 2)

	assert.Equal(t, models.KindFormula, defs[0].Kind)
	assert.Equal(t, models.ModeSimulation, defs[0].Mode)
	assert.Equal(t, models.KindWasm, defs[1].Kind)
	assert.Equal(t, models.ModeLive, defs[1].Mode)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("\x00asm\x01")), defs[1].Code)

	assert.Equal(t, []models.StackEntry{{SignalID: "trend"}, {SignalID: "bull", Invert: true}}, stack)
}

func TestLoadSignalsDefaultStack(t *testing.T) {
	path := writeFile(t, t.TempDir(), "signals.yaml", `
signals:
  - {id: a, kind: script, code: "result = True"}
  - {id: b, kind: nonsense, code: ""}
`)

	defs, stack, err := LoadSignals(path)
	require.NoError(t, err)
	assert.Equal(t, models.KindUnknown, defs[1].Kind)
	assert.Equal(t, []models.StackEntry{{SignalID: "a"}, {SignalID: "b"}}, stack)
}

func TestLoadSignalsDuplicate(t *testing.T) {
	path := writeFile(t, t.TempDir(), "signals.yaml", "signals:\n  - {id: a}\n  - {id: a}\n")
	_, _, err := LoadSignals(path)
	assert.ErrorContains(t, err, "duplicate")
}
