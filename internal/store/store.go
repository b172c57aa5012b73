// Package store provides the run-history storage interface and SQLite
// implementation. Split artifacts on disk are the source of truth; the
// store exists so past runs stay queryable without re-reading CSVs.
package store

import (
	"context"

	"github.com/cxrdata/cxrsplit/internal/model"
)

// RecordRunParams holds everything recorded for one split run.
type RecordRunParams struct {
	Metadata   *model.SplitMetadata
	Patients   map[string]*model.PatientRecord
	Assignment model.Assignment
}

// ListRunsParams holds parameters for listing past runs.
type ListRunsParams struct {
	Limit int
}

// Store defines the run-history storage interface.
type Store interface {
	// RecordRun persists a run and its full patient assignment table.
	RecordRun(ctx context.Context, p RecordRunParams) (*model.RunRecord, error)

	// ListRuns lists recorded runs, newest first.
	ListRuns(ctx context.Context, p ListRunsParams) ([]model.RunRecord, error)

	// GetRun retrieves one run together with its assignments.
	GetRun(ctx context.Context, id string) (*model.RunRecord, []model.RunAssignment, error)

	// Close closes the store.
	Close() error
}
