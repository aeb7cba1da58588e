package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/SignalLab/internal/config"
	"github.com/Alias1177/SignalLab/internal/marketdata"
	"github.com/Alias1177/SignalLab/models"
)

func TestSetupLogger(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	SetupLogger("warn")
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	SetupLogger("nonsense")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestSignalsInMemory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signals.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
signals:
  - {id: up, kind: formula, code: "close > open"}
`), 0o600))

	store, stack, closeStore, err := Signals(context.Background(), &config.Config{SignalsFile: path})
	require.NoError(t, err)
	defer closeStore()

	assert.Equal(t, []models.StackEntry{{SignalID: "up"}}, stack)
	assert.Equal(t, []string{"up"}, SignalIDs(stack))

	sig, err := store.GetSignal(context.Background(), "up")
	require.NoError(t, err)
	assert.Equal(t, models.KindFormula, sig.Kind)
}

func TestSignalsMissingFile(t *testing.T) {
	_, _, _, err := Signals(context.Background(), &config.Config{SignalsFile: "/nonexistent/signals.yaml"})
	assert.Error(t, err)
}

func TestPollCacheTTL(t *testing.T) {
	tests := []struct {
		interval string
		want     time.Duration
	}{
		{"1min", 30 * time.Second},
		{"5min", 150 * time.Second},
		{"1h", marketdata.DefaultCacheTTL},
		{"bogus", marketdata.DefaultCacheTTL},
	}

	for _, tt := range tests {
		t.Run(tt.interval, func(t *testing.T) {
			ttl := PollCacheTTL(tt.interval)
			assert.Equal(t, tt.want, ttl)
			if step, ok := models.IntervalDuration(tt.interval); ok {
				assert.Less(t, ttl, step)
			}
		})
	}
}
