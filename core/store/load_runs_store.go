package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofrs/uuid/v5"
)

const (
	LoadStatusOK     = "ok"
	LoadStatusFailed = "failed"
)

// LoadRun is the audit trail of one CSV load. It lives outside the
// incidents table, so it survives reloads.
type LoadRun struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	Status      string    `json:"status"`
	Accepted    int       `json:"accepted"`
	Discarded   int       `json:"discarded"`
	Inserted    int       `json:"inserted"`
	RowCount    int64     `json:"row_count"`
	MaxSeverity *int64    `json:"max_severity,omitempty"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}

type LoadRunsStore interface {
	Record(ctx context.Context, run *LoadRun) error
	ListRecent(ctx context.Context, limit int) ([]LoadRun, error)
}

type loadRunsStore struct {
	db      *sql.DB
	dialect Dialect
}

func NewLoadRunsStore(db *sql.DB) LoadRunsStore {
	return &loadRunsStore{db: db, dialect: DialectOf(db)}
}

func (s *loadRunsStore) Record(ctx context.Context, run *LoadRun) error {
	if run.ID == "" {
		run.ID = uuid.Must(uuid.NewV4()).String()
	}
	if run.Status == "" {
		run.Status = LoadStatusOK
	}
	var maxSeverity any
	if run.MaxSeverity != nil {
		maxSeverity = *run.MaxSeverity
	}
	_, err := s.db.ExecContext(ctx, rebind(s.dialect, `
		INSERT INTO load_runs(id, source, status, accepted, discarded, inserted, row_count, max_severity, error, started_at, finished_at)
		VALUES(?,?,?,?,?,?,?,?,?,?,?)`),
		run.ID, run.Source, run.Status, run.Accepted, run.Discarded, run.Inserted, run.RowCount, maxSeverity, run.Error, run.StartedAt.UTC(), run.FinishedAt.UTC())
	return err
}

func (s *loadRunsStore) ListRecent(ctx context.Context, limit int) ([]LoadRun, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, rebind(s.dialect, `
		SELECT id, source, status, accepted, discarded, inserted, row_count, max_severity, error, started_at, finished_at
		FROM load_runs ORDER BY started_at DESC LIMIT ?`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []LoadRun{}
	for rows.Next() {
		var run LoadRun
		var maxSeverity sql.NullInt64
		if err := rows.Scan(&run.ID, &run.Source, &run.Status, &run.Accepted, &run.Discarded, &run.Inserted, &run.RowCount, &maxSeverity, &run.Error, &run.StartedAt, &run.FinishedAt); err != nil {
			return nil, err
		}
		if maxSeverity.Valid {
			v := maxSeverity.Int64
			run.MaxSeverity = &v
		}
		out = append(out, run)
	}
	return out, rows.Err()
}
