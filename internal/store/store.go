// Package store persists batch run history.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/gramscope/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for run history.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, total int) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, summary *model.RunSummary) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Per-identifier outcomes
	InsertRecords(ctx context.Context, runID string, recs []model.RecordSummary) error
	ListRecords(ctx context.Context, runID string) ([]model.RecordSummary, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Config selects and configures the store backend.
type Config struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// Open creates a Store for the configured driver. Driver "off" yields a nil
// store; callers treat that as history disabled.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "off":
		return nil, nil
	case "sqlite", "":
		path := cfg.Path
		if path == "" {
			path = "gramscope.db"
		}
		return NewSQLite(path)
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, eris.New("store: postgres driver requires database_url")
		}
		return NewPostgres(ctx, cfg.DatabaseURL, cfg.MaxConns, cfg.MinConns)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
