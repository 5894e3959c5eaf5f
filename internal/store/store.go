// Package store persists well assignments so plate runs can be queried
// without re-reading acquisition files.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Assignment is one scene's well.
type Assignment struct {
	Scene     int     `json:"scene"`
	SceneName string  `json:"scene_name,omitempty"`
	Position  int     `json:"position"`
	XUM       float64 `json:"x_um"`
	YUM       float64 `json:"y_um"`
	Row       string  `json:"row"`
	Col       string  `json:"col"`
}

// Run is the analysis of one acquisition file.
type Run struct {
	Source      string       `json:"source"`
	Plate       string       `json:"plate"`
	AnalyzedAt  time.Time    `json:"analyzed_at"`
	Assignments []Assignment `json:"assignments"`
}

// Store saves and loads runs. A run replaces any earlier run for the same source.
type Store interface {
	SaveRun(ctx context.Context, run Run) error
	LoadRun(ctx context.Context, source string) (Run, error)
	Sources(ctx context.Context) ([]string, error)
	Close() error
}

// ErrNotFound is returned by LoadRun for an unknown source.
var ErrNotFound = errors.New("run not found")

// Open selects a backend by DSN: postgres:// or postgresql:// URLs use
// Postgres, anything else is a SQLite file path (an optional sqlite://
// prefix is stripped).
func Open(ctx context.Context, dsn string) (Store, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		pg, err := NewPostgres(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return pg, nil
	}
	lite, err := NewSQLite(ctx, strings.TrimPrefix(dsn, "sqlite://"))
	if err != nil {
		return nil, err
	}
	return lite, nil
}

// dialect captures the SQL differences between backends.
type dialect struct {
	name        string
	realType    string
	placeholder func(n int) string
}

// sqlStore implements Store over database/sql.
type sqlStore struct {
	db *sql.DB
	d  dialect
}

func (s *sqlStore) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			source TEXT PRIMARY KEY,
			plate TEXT NOT NULL,
			analyzed_at TEXT NOT NULL
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS assignments (
			source TEXT NOT NULL,
			scene INTEGER NOT NULL,
			scene_name TEXT NOT NULL,
			position INTEGER NOT NULL,
			x_um %[1]s NOT NULL,
			y_um %[1]s NOT NULL,
			row_label TEXT NOT NULL,
			col_label TEXT NOT NULL,
			PRIMARY KEY (source, scene)
		)`, s.d.realType),
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: migrate: %w", s.d.name, err)
		}
	}
	return nil
}

func (s *sqlStore) bind(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString(s.d.placeholder(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlStore) SaveRun(ctx context.Context, run Run) (retErr error) {
	if run.Source == "" {
		return fmt.Errorf("run source is required")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", s.d.name, err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	analyzed := run.AnalyzedAt.UTC().Format(time.RFC3339Nano)
	if _, err := tx.ExecContext(ctx, s.bind(`INSERT INTO runs(source, plate, analyzed_at) VALUES(?, ?, ?)
		ON CONFLICT(source) DO UPDATE SET plate = excluded.plate, analyzed_at = excluded.analyzed_at`),
		run.Source, run.Plate, analyzed); err != nil {
		return fmt.Errorf("%s: upsert run %s: %w", s.d.name, run.Source, err)
	}
	if _, err := tx.ExecContext(ctx, s.bind(`DELETE FROM assignments WHERE source = ?`), run.Source); err != nil {
		return fmt.Errorf("%s: clear assignments %s: %w", s.d.name, run.Source, err)
	}
	insert := s.bind(`INSERT INTO assignments(source, scene, scene_name, position, x_um, y_um, row_label, col_label)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)`)
	for _, a := range run.Assignments {
		if _, err := tx.ExecContext(ctx, insert,
			run.Source, a.Scene, a.SceneName, a.Position, a.XUM, a.YUM, a.Row, a.Col); err != nil {
			return fmt.Errorf("%s: insert scene %d: %w", s.d.name, a.Scene, err)
		}
	}
	return tx.Commit()
}

func (s *sqlStore) LoadRun(ctx context.Context, source string) (Run, error) {
	run := Run{Source: source}
	var analyzed string
	err := s.db.QueryRowContext(ctx, s.bind(`SELECT plate, analyzed_at FROM runs WHERE source = ?`), source).
		Scan(&run.Plate, &analyzed)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, source)
	}
	if err != nil {
		return Run{}, fmt.Errorf("%s: select run: %w", s.d.name, err)
	}
	if run.AnalyzedAt, err = time.Parse(time.RFC3339Nano, analyzed); err != nil {
		return Run{}, fmt.Errorf("%s: run %s: bad timestamp %q: %w", s.d.name, source, analyzed, err)
	}

	rows, err := s.db.QueryContext(ctx, s.bind(`SELECT scene, scene_name, position, x_um, y_um, row_label, col_label
		FROM assignments WHERE source = ? ORDER BY scene`), source)
	if err != nil {
		return Run{}, fmt.Errorf("%s: select assignments: %w", s.d.name, err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.Scene, &a.SceneName, &a.Position, &a.XUM, &a.YUM, &a.Row, &a.Col); err != nil {
			return Run{}, fmt.Errorf("%s: scan: %w", s.d.name, err)
		}
		run.Assignments = append(run.Assignments, a)
	}
	return run, rows.Err()
}

func (s *sqlStore) Sources(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT source FROM runs ORDER BY source`)
	if err != nil {
		return nil, fmt.Errorf("%s: select sources: %w", s.d.name, err)
	}
	defer func() { _ = rows.Close() }()
	var out []string
	for rows.Next() {
		var src string
		if err := rows.Scan(&src); err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, rows.Err()
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}
