package database

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RunKind labels a stored run.
type RunKind string

const (
	RunBacktest RunKind = "backtest"
	RunArena    RunKind = "arena"
)

// Run is a stored backtest or arena outcome.
type Run struct {
	ID        uuid.UUID
	Kind      RunKind
	Label     string
	SignalIDs []string
	Summary   json.RawMessage
	CreatedAt time.Time
}

// NewRun builds a run with a fresh id, marshalling summary to JSON.
func NewRun(kind RunKind, label string, signalIDs []string, summary any) (Run, error) {
	raw, err := json.Marshal(summary)
	if err != nil {
		return Run{}, err
	}
	return Run{
		ID:        uuid.New(),
		Kind:      kind,
		Label:     label,
		SignalIDs: signalIDs,
		Summary:   raw,
		CreatedAt: time.Now().UTC(),
	}, nil
}
