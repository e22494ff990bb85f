// Package sqldriver implements the archive driver shared by the SQL
// backed archives. The backend packages open the connection, create the
// schema and pick the dialect.
package sqldriver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spectralworks/specmatch/pkg/archive"
)

// Dialect selects the placeholder style of the backing database.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

// Driver implements archive.Driver over a database/sql connection.
type Driver struct {
	DB      *sql.DB
	Dialect Dialect
}

const runColumns = "id, created_at, status, error, workflow, query_count, reference_count, score_count, score_data"

// SaveRun stores a run record, replacing any record with the same ID.
func (d *Driver) SaveRun(ctx context.Context, run *archive.Run) error {
	if run == nil {
		return errors.New("cannot store nil run")
	}
	if run.ID == "" {
		return errors.New("cannot store run without an ID")
	}

	query := d.rebind(`INSERT INTO runs (` + runColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			created_at = excluded.created_at,
			status = excluded.status,
			error = excluded.error,
			workflow = excluded.workflow,
			query_count = excluded.query_count,
			reference_count = excluded.reference_count,
			score_count = excluded.score_count,
			score_data = excluded.score_data`)

	_, err := d.DB.ExecContext(ctx, query,
		run.ID, run.CreatedAt, run.Status, run.Error, run.Workflow,
		run.QueryCount, run.ReferenceCount, run.ScoreCount, run.ScoreData,
	)
	if err != nil {
		return fmt.Errorf("saving run %s: %w", run.ID, err)
	}

	return nil
}

// GetRun retrieves a run by its ID.
func (d *Driver) GetRun(ctx context.Context, id string) (*archive.Run, error) {
	row := d.DB.QueryRowContext(ctx, d.rebind("SELECT "+runColumns+" FROM runs WHERE id = ?"), id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, archive.NotFoundError{RunID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("getting run %s: %w", id, err)
	}

	return run, nil
}

// ListRuns returns all stored runs, newest first.
func (d *Driver) ListRuns(ctx context.Context) ([]*archive.Run, error) {
	rows, err := d.DB.QueryContext(ctx, "SELECT "+runColumns+" FROM runs ORDER BY created_at DESC, id")
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []*archive.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// Close closes the underlying database connection.
func (d *Driver) Close() error {
	return d.DB.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*archive.Run, error) {
	var run archive.Run
	err := row.Scan(
		&run.ID, &run.CreatedAt, &run.Status, &run.Error, &run.Workflow,
		&run.QueryCount, &run.ReferenceCount, &run.ScoreCount, &run.ScoreData,
	)
	if err != nil {
		return nil, err
	}

	return &run, nil
}

// rebind rewrites ? placeholders into the numbered form when the dialect
// requires it.
func (d *Driver) rebind(query string) string {
	if d.Dialect != Postgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r != '?' {
			b.WriteRune(r)
			continue
		}
		n++
		b.WriteString("$" + strconv.Itoa(n))
	}

	return b.String()
}
