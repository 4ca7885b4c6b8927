package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fbz-tec/storexport/internal/logger"
	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore persists jobs in a single-file SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (creating if needed) the job database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create job store directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{db: db, path: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	logger.Debug("SQLite job store ready: %s", path)
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS export_jobs (
		id TEXT PRIMARY KEY,
		revision INTEGER NOT NULL,
		state TEXT NOT NULL,
		data TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_export_jobs_updated ON export_jobs(updated_at);
	`)
	return err
}

func (s *SQLiteStore) Create(ctx context.Context, job *Job) error {
	job.Revision = 1
	data, err := encode(job)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO export_jobs (id, revision, state, data, updated_at) VALUES (?, ?, ?, ?, ?)`,
		job.ID, job.Revision, string(job.State), string(data), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to insert job %s: %w", job.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Job, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM export_jobs WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load job %s: %w", id, err)
	}
	return decode([]byte(data))
}

func (s *SQLiteStore) Save(ctx context.Context, job *Job) error {
	expected := job.Revision
	job.Revision++
	data, err := encode(job)
	if err != nil {
		job.Revision = expected
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE export_jobs SET revision = ?, state = ?, data = ?, updated_at = ? WHERE id = ? AND revision = ?`,
		job.Revision, string(job.State), string(data), time.Now().Unix(), job.ID, expected)
	if err != nil {
		job.Revision = expected
		return fmt.Errorf("failed to save job %s: %w", job.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		job.Revision = expected
		return fmt.Errorf("failed to save job %s: %w", job.ID, err)
	}
	if n == 1 {
		return nil
	}

	job.Revision = expected
	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM export_jobs WHERE id = ?`, job.ID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return ErrConflict
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM export_jobs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete job %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
