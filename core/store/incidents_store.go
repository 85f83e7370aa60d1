package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"incidentdash/core/incidents"
	"incidentdash/core/utils"
)

var ErrNotFound = errors.New("not found")

// StorageTypeError reports a typed column that received a value it cannot
// hold, e.g. a non-numeric incident_id.
type StorageTypeError struct {
	Column string
	Value  string
	Err    error
}

func (e *StorageTypeError) Error() string {
	return fmt.Sprintf("column %s: value %q is not an integer", e.Column, e.Value)
}

func (e *StorageTypeError) Unwrap() error { return e.Err }

type IncidentRecord struct {
	IncidentID int64  `json:"incident_id"`
	Date       string `json:"date"`
	Category   string `json:"category"`
	Grade      string `json:"grade"`
	Severity   int64  `json:"severity"`
	System     int64  `json:"system"`
}

type IncidentsStore interface {
	CreateOrReplace(ctx context.Context) error
	InsertIgnore(ctx context.Context, row incidents.Row) (bool, error)
	// ReplaceAll recreates the table and inserts rows in one transaction.
	ReplaceAll(ctx context.Context, rows []incidents.Row) (int, error)

	QueryByCategory(ctx context.Context, category string, field incidents.Field) ([]incidents.Observation, error)
	DistinctCategories(ctx context.Context) ([]string, error)

	CountIncidents(ctx context.Context) (int64, error)
	MaxSeverity(ctx context.Context) (*int64, error)
	Sample(ctx context.Context, limit int) ([]IncidentRecord, error)
	GetIncident(ctx context.Context, id int64) (*IncidentRecord, error)
}

var incidentsTableDDL = map[Dialect]string{
	DialectSQLite: `CREATE TABLE IF NOT EXISTS incidents (
		incident_id INTEGER PRIMARY KEY,
		date TEXT NOT NULL,
		category INTEGER,
		grade INTEGER,
		severity INTEGER,
		system INTEGER
	)`,
	DialectPostgres: `CREATE TABLE IF NOT EXISTS incidents (
		incident_id BIGINT PRIMARY KEY,
		date TEXT NOT NULL,
		category TEXT,
		grade TEXT,
		severity BIGINT,
		system BIGINT
	)`,
}

const insertIncidentSQL = `
	INSERT INTO incidents(incident_id, date, category, grade, severity, system)
	VALUES(?,?,?,?,?,?)
	ON CONFLICT(incident_id) DO NOTHING`

type incidentsStore struct {
	db      *sql.DB
	dialect Dialect
	logger  *utils.Logger
}

func NewIncidentsStore(db *sql.DB, logger *utils.Logger) IncidentsStore {
	return &incidentsStore{db: db, dialect: DialectOf(db), logger: logger}
}

func (s *incidentsStore) CreateOrReplace(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := s.recreate(ctx, tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *incidentsStore) recreate(ctx context.Context, ex execer) error {
	if _, err := ex.ExecContext(ctx, `DROP TABLE IF EXISTS incidents`); err != nil {
		return fmt.Errorf("drop incidents: %w", err)
	}
	if _, err := ex.ExecContext(ctx, incidentsTableDDL[s.dialect]); err != nil {
		return fmt.Errorf("create incidents: %w", err)
	}
	return nil
}

func (s *incidentsStore) InsertIgnore(ctx context.Context, row incidents.Row) (bool, error) {
	return s.insertIgnore(ctx, s.db, row)
}

func (s *incidentsStore) ReplaceAll(ctx context.Context, rows []incidents.Row) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	if err := s.recreate(ctx, tx); err != nil {
		tx.Rollback()
		return 0, err
	}
	inserted := 0
	for i := range rows {
		ok, err := s.insertIgnore(ctx, tx, rows[i])
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("row %d: %w", i+1, err)
		}
		if ok {
			inserted++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

func (s *incidentsStore) insertIgnore(ctx context.Context, ex execer, row incidents.Row) (bool, error) {
	id, err := integerColumn("incident_id", row.IncidentID)
	if err != nil {
		return false, err
	}
	severity, err := integerColumn("severity", row.Severity)
	if err != nil {
		return false, err
	}
	system, err := integerColumn("system", row.System)
	if err != nil {
		return false, err
	}
	res, err := ex.ExecContext(ctx, rebind(s.dialect, insertIncidentSQL),
		id, strings.TrimSpace(row.Date), strings.TrimSpace(row.Category), strings.TrimSpace(row.Grade), severity, system)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func integerColumn(column, raw string) (int64, error) {
	val := strings.TrimSpace(raw)
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, &StorageTypeError{Column: column, Value: raw, Err: err}
	}
	return n, nil
}

func (s *incidentsStore) QueryByCategory(ctx context.Context, category string, field incidents.Field) ([]incidents.Observation, error) {
	if _, err := incidents.ParseField(string(field)); err != nil {
		return nil, err
	}
	// field is from the closed set above, so the column name is safe to splice.
	query := fmt.Sprintf(`SELECT date, %s FROM incidents WHERE category = ? ORDER BY incident_id`, field.Column())
	rows, err := s.db.QueryContext(ctx, rebind(s.dialect, query), strings.TrimSpace(category))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []incidents.Observation{}
	undated := 0
	for rows.Next() {
		var rawDate, value sql.NullString
		if err := rows.Scan(&rawDate, &value); err != nil {
			return nil, err
		}
		// rows without a date cannot be placed on the chart
		if strings.TrimSpace(rawDate.String) == "" {
			undated++
			continue
		}
		date, err := incidents.ParseDate(rawDate.String)
		if err != nil {
			return nil, err
		}
		out = append(out, incidents.Observation{Date: date, Value: value.String})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if undated > 0 {
		s.logger.Debugf("category %q: skipped %d rows without a date", category, undated)
	}
	return out, nil
}

func (s *incidentsStore) DistinctCategories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT category FROM incidents WHERE category IS NOT NULL ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var c sql.NullString
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		if c.Valid {
			out = append(out, c.String)
		}
	}
	return out, rows.Err()
}

func (s *incidentsStore) CountIncidents(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM incidents`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// MaxSeverity is nil for an empty table.
func (s *incidentsStore) MaxSeverity(ctx context.Context) (*int64, error) {
	var n sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(severity) FROM incidents`).Scan(&n); err != nil {
		return nil, err
	}
	if !n.Valid {
		return nil, nil
	}
	v := n.Int64
	return &v, nil
}

func (s *incidentsStore) Sample(ctx context.Context, limit int) ([]IncidentRecord, error) {
	if limit <= 0 {
		limit = 3
	}
	rows, err := s.db.QueryContext(ctx, rebind(s.dialect, `
		SELECT incident_id, date, category, grade, severity, system
		FROM incidents ORDER BY incident_id LIMIT ?`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []IncidentRecord
	for rows.Next() {
		rec, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *incidentsStore) GetIncident(ctx context.Context, id int64) (*IncidentRecord, error) {
	row := s.db.QueryRowContext(ctx, rebind(s.dialect, `
		SELECT incident_id, date, category, grade, severity, system
		FROM incidents WHERE incident_id = ?`), id)
	rec, err := scanIncident(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIncident(sc rowScanner) (IncidentRecord, error) {
	var rec IncidentRecord
	var category, grade sql.NullString
	var severity, system sql.NullInt64
	if err := sc.Scan(&rec.IncidentID, &rec.Date, &category, &grade, &severity, &system); err != nil {
		return IncidentRecord{}, err
	}
	rec.Category = category.String
	rec.Grade = grade.String
	rec.Severity = severity.Int64
	rec.System = system.Int64
	return rec, nil
}
