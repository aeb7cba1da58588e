package database

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/SignalLab/models"
)

func TestConnectionParamsDSN(t *testing.T) {
	p := ConnectionParams{Host: "db", Port: "5432", User: "lab", Password: "pw", DBName: "signals"}
	assert.Equal(t, "host=db port=5432 user=lab password=pw dbname=signals sslmode=disable", p.DSN())

	p.SSLMode = "require"
	assert.Contains(t, p.DSN(), "sslmode=require")
}

func TestMemoryStoreSignals(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(models.SignalDefinition{ID: "a", Kind: models.KindFormula, Code: "close > open"})

	sig, err := store.GetSignal(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "close > open", sig.Code)

	sig.Code = "mutated"
	again, _ := store.GetSignal(ctx, "a")
	assert.Equal(t, "close > open", again.Code)

	_, err = store.GetSignal(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrSignalNotFound)

	require.NoError(t, store.SaveSignal(ctx, &models.SignalDefinition{ID: "a", Code: "close < open"}))
	sig, _ = store.GetSignal(ctx, "a")
	assert.Equal(t, "close < open", sig.Code)
}

func TestMemoryStoreRuns(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for _, label := range []string{"first", "second", "third"} {
		run, err := NewRun(RunBacktest, label, []string{"a"}, map[string]float64{"final_equity": 1000})
		require.NoError(t, err)
		require.NoError(t, store.SaveRun(ctx, run))
	}
	arena, err := NewRun(RunArena, "AAPL 1h", nil, models.ArenaMetrics{FinalEquity: 5})
	require.NoError(t, err)
	require.NoError(t, store.SaveRun(ctx, arena))

	runs, err := store.RecentRuns(ctx, RunBacktest, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "third", runs[0].Label)
	assert.Equal(t, "second", runs[1].Label)
	assert.NotEqual(t, runs[0].ID, runs[1].ID)

	arenaRuns, _ := store.RecentRuns(ctx, RunArena, 10)
	require.Len(t, arenaRuns, 1)
	var metrics models.ArenaMetrics
	require.NoError(t, json.Unmarshal(arenaRuns[0].Summary, &metrics))
	assert.Equal(t, 5.0, metrics.FinalEquity)
}

func TestNewRunRejectsUnmarshalable(t *testing.T) {
	_, err := NewRun(RunBacktest, "bad", nil, make(chan int))
	assert.Error(t, err)
}
