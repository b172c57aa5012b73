package store

import (
	"context"
	"os"
)

// Stats holds run-history database statistics.
type Stats struct {
	DBPath           string `json:"db_path"`
	DBSizeBytes      int64  `json:"db_size_bytes"`
	TotalRuns        int    `json:"total_runs"`
	ValidRuns        int    `json:"valid_runs"`
	TotalAssignments int    `json:"total_assignments"`
	LatestRunID      string `json:"latest_run_id,omitempty"`
}

// Stats returns run-history statistics.
func (s *SQLiteStore) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath}

	// DB file size
	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&st.TotalRuns)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE overall_valid = 1`).Scan(&st.ValidRuns)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM assignments`).Scan(&st.TotalAssignments)
	s.db.QueryRowContext(ctx, `SELECT id FROM runs ORDER BY created_at DESC, id DESC LIMIT 1`).Scan(&st.LatestRunID)

	return st, nil
}
