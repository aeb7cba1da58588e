package database

import (
	"context"

	"github.com/Alias1177/SignalLab/models"
)

// Store is implemented by DB and MemoryStore.
type Store interface {
	models.SignalSource
	SaveSignal(ctx context.Context, sig *models.SignalDefinition) error
	SaveRun(ctx context.Context, run Run) error
	RecentRuns(ctx context.Context, kind RunKind, limit int) ([]Run, error)
}

var (
	_ Store = (*DB)(nil)
	_ Store = (*MemoryStore)(nil)
)
