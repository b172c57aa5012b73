package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/cxrdata/cxrsplit/internal/model"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	entropy *rand.Rand
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id            TEXT PRIMARY KEY,
		created_at    TEXT NOT NULL,
		seed          INTEGER NOT NULL,
		train_ratio   REAL NOT NULL,
		val_ratio     REAL NOT NULL,
		test_ratio    REAL NOT NULL,
		index_path    TEXT,
		n_patients    INTEGER NOT NULL,
		n_images      INTEGER NOT NULL,
		overall_valid INTEGER NOT NULL,
		metadata      TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);

	CREATE TABLE IF NOT EXISTS assignments (
		run_id        TEXT NOT NULL REFERENCES runs(id),
		patient_id    TEXT NOT NULL,
		source        TEXT NOT NULL,
		split         TEXT NOT NULL,
		primary_label TEXT NOT NULL,
		n_images      INTEGER NOT NULL,
		PRIMARY KEY (run_id, patient_id)
	);
	CREATE INDEX IF NOT EXISTS idx_assignments_patient ON assignments(patient_id);
	CREATE INDEX IF NOT EXISTS idx_assignments_split ON assignments(run_id, split);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) RecordRun(ctx context.Context, p RecordRunParams) (*model.RunRecord, error) {
	md := p.Metadata
	if md == nil {
		return nil, fmt.Errorf("metadata is required")
	}

	id := s.newID()
	createdAt := md.GeneratedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	nImages := md.Train.Images + md.Val.Images + md.Test.Images

	mdJSON, err := json.Marshal(md)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, seed, train_ratio, val_ratio, test_ratio, index_path, n_patients, n_images, overall_valid, metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, createdAt.Format(time.RFC3339), md.Seed, md.TrainRatio, md.ValRatio, md.TestRatio,
		md.IndexPath, len(p.Assignment), nImages, boolInt(md.OverallValid), string(mdJSON))
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}

	ids := make([]string, 0, len(p.Assignment))
	for pid := range p.Assignment {
		ids = append(ids, pid)
	}
	sort.Strings(ids)

	for _, pid := range ids {
		rec := p.Patients[pid]
		if rec == nil {
			return nil, fmt.Errorf("assignment references unknown patient %q", pid)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO assignments (run_id, patient_id, source, split, primary_label, n_images)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			id, pid, string(rec.Source), string(p.Assignment[pid]), string(rec.PrimaryLabel), len(rec.Images))
		if err != nil {
			return nil, fmt.Errorf("insert assignment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &model.RunRecord{
		ID:           id,
		CreatedAt:    createdAt,
		Seed:         md.Seed,
		TrainRatio:   md.TrainRatio,
		ValRatio:     md.ValRatio,
		TestRatio:    md.TestRatio,
		IndexPath:    md.IndexPath,
		Patients:     len(p.Assignment),
		Images:       nImages,
		OverallValid: md.OverallValid,
	}, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, p ListRunsParams) ([]model.RunRecord, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, seed, train_ratio, val_ratio, test_ratio, index_path, n_patients, n_images, overall_valid
		 FROM runs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []model.RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*model.RunRecord, []model.RunAssignment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, seed, train_ratio, val_ratio, test_ratio, index_path, n_patients, n_images, overall_valid
		 FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, fmt.Errorf("run not found: %s", id)
		}
		return nil, nil, err
	}

	var mdJSON sql.NullString
	s.db.QueryRowContext(ctx, `SELECT metadata FROM runs WHERE id = ?`, id).Scan(&mdJSON)
	if mdJSON.Valid {
		r.Metadata = mdJSON.String
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, patient_id, source, split, primary_label, n_images
		 FROM assignments WHERE run_id = ? ORDER BY patient_id`, id)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var asgs []model.RunAssignment
	for rows.Next() {
		var a model.RunAssignment
		var src, split, label string
		if err := rows.Scan(&a.RunID, &a.PatientID, &src, &split, &label, &a.Images); err != nil {
			return nil, nil, err
		}
		a.Source = model.Source(src)
		a.Split = model.Split(split)
		a.PrimaryLabel = model.DiseaseLabel(label)
		asgs = append(asgs, a)
	}
	return &r, asgs, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (model.RunRecord, error) {
	var r model.RunRecord
	var createdAt string
	var indexPath sql.NullString
	var valid int

	err := row.Scan(&r.ID, &createdAt, &r.Seed, &r.TrainRatio, &r.ValRatio, &r.TestRatio,
		&indexPath, &r.Patients, &r.Images, &valid)
	if err != nil {
		return r, err
	}

	r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if indexPath.Valid {
		r.IndexPath = indexPath.String
	}
	r.OverallValid = valid != 0
	return r, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
