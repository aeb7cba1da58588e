package database

import (
	"context"
	"fmt"
	"sync"

	"github.com/Alias1177/SignalLab/models"
)

// MemoryStore keeps signals and runs in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	signals map[string]models.SignalDefinition
	runs    []Run
}

// NewMemoryStore creates a store holding signals.
func NewMemoryStore(signals ...models.SignalDefinition) *MemoryStore {
	s := &MemoryStore{signals: make(map[string]models.SignalDefinition, len(signals))}
	for _, sig := range signals {
		s.signals[sig.ID] = sig
	}
	return s
}

// GetSignal returns a copy of the stored definition.
func (s *MemoryStore) GetSignal(ctx context.Context, id string) (*models.SignalDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sig, ok := s.signals[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrSignalNotFound, id)
	}
	return &sig, nil
}

// SaveSignal inserts or replaces sig.
func (s *MemoryStore) SaveSignal(ctx context.Context, sig *models.SignalDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signals[sig.ID] = *sig
	return nil
}

// SaveRun appends run.
func (s *MemoryStore) SaveRun(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, run)
	return nil
}

// RecentRuns lists the latest runs of kind, newest first.
func (s *MemoryStore) RecentRuns(ctx context.Context, kind RunKind, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Run
	for i := len(s.runs) - 1; i >= 0 && len(out) < limit; i-- {
		if s.runs[i].Kind == kind {
			out = append(out, s.runs[i])
		}
	}
	return out, nil
}
