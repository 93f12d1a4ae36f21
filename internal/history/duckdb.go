// Package history keeps a log of upload attempts in DuckDB. Chart data is
// never stored, only the attempt and its outcome.
package history

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/data-explorer/client/internal/models"
	"github.com/marcboeker/go-duckdb"
)

// Store is a DuckDB-backed attempt log.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open opens or creates the history database at dbPath. An empty path opens
// an in-memory database.
func Open(dbPath string, threads int) (*Store, error) {
	if dbPath != "" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}
	if threads <= 0 {
		threads = 1
	}

	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		pragmas := []string{
			fmt.Sprintf("PRAGMA threads=%d", threads),
			"PRAGMA enable_progress_bar=false",
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS attempts (
			id          VARCHAR PRIMARY KEY,
			source      VARCHAR NOT NULL,
			label       VARCHAR NOT NULL,
			file_name   VARCHAR,
			size_bytes  BIGINT NOT NULL,
			status      VARCHAR NOT NULL,
			chart_count INTEGER NOT NULL,
			reason      VARCHAR,
			started_at  TIMESTAMP NOT NULL,
			finished_at TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create attempts table: %w", err)
	}

	slog.Info("history store opened", "path", dbPath)
	return &Store{db: db, dbPath: dbPath}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Start records a new attempt.
func (s *Store) Start(ctx context.Context, a models.Attempt) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attempts (id, source, label, file_name, size_bytes, status, chart_count, reason, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Source, a.Label, a.FileName, a.SizeBytes, string(a.Status), a.ChartCount, a.Reason, a.StartedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting attempt %s: %w", a.ID, err)
	}
	return nil
}

// Finish stores the outcome of attempt id.
func (s *Store) Finish(ctx context.Context, id string, status models.AttemptStatus, chartCount int, reason string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE attempts SET status = ?, chart_count = ?, reason = ?, finished_at = ?
		WHERE id = ?`,
		string(status), chartCount, reason, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating attempt %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("attempt not found: %s", id)
	}
	return nil
}

// Recent returns up to limit attempts, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]models.Attempt, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, label, file_name, size_bytes, status, chart_count, reason, started_at, finished_at
		FROM attempts
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying attempts: %w", err)
	}
	defer rows.Close()

	attempts := make([]models.Attempt, 0, limit)
	for rows.Next() {
		var (
			a        models.Attempt
			status   string
			fileName sql.NullString
			reason   sql.NullString
			finished sql.NullTime
		)
		if err := rows.Scan(&a.ID, &a.Source, &a.Label, &fileName, &a.SizeBytes, &status,
			&a.ChartCount, &reason, &a.StartedAt, &finished); err != nil {
			return nil, fmt.Errorf("scanning attempt: %w", err)
		}
		a.Status = models.AttemptStatus(status)
		a.FileName = fileName.String
		a.Reason = reason.String
		if finished.Valid {
			t := finished.Time
			a.FinishedAt = &t
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
