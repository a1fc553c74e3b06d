// Package store persists pipeline runs and their result tables.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/civic-pulse/internal/config"
	"github.com/sells-group/civic-pulse/internal/model"
)

// Store defines the persistence interface for pipeline results. Result
// tables are write-once per run; a rerun creates a new run id and a full
// new set of rows.
type Store interface {
	// Runs
	CreateRun(ctx context.Context) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, result *model.Result) error
	FailRun(ctx context.Context, runID string) error
	ListRuns(ctx context.Context, limit int) ([]model.Run, error)

	// Result tables
	SaveResult(ctx context.Context, runID string, result *model.Result) error
	LatestResult(ctx context.Context) (*model.Result, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// New creates a store from configuration.
func New(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite":
		return NewSQLite(cfg.DatabaseURL)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
