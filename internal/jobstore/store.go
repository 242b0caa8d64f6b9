package jobstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/flowmatic/jobenv/internal/fileutil"
	"github.com/flowmatic/jobenv/internal/sentinel"

	// Register the pure-Go SQLite driver (no CGO required).
	_ "modernc.org/sqlite"
)

// ErrJobNotFound is returned by Get when no record exists for the id.
const ErrJobNotFound = sentinel.Error("job not found")

// State is the lifecycle state of a job record.
type State string

// Job states. A job moves Pending → Running → Finished; Failed is terminal
// from any state.
const (
	StatePending  State = "PENDING"
	StateRunning  State = "RUNNING"
	StateFinished State = "FINISHED"
	StateFailed   State = "FAILED"
)

// Record is one persisted job.
type Record struct {
	ID          string
	Name        string
	Parallelism int
	State       State
	SubmittedAt time.Time
}

// Store is a SQLite-backed job record store. Safe for concurrent use;
// database/sql serializes access over its connection pool.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	parallelism  INTEGER NOT NULL,
	state        TEXT NOT NULL,
	submitted_at INTEGER NOT NULL
);`

// Open creates (or reopens) the store at path and ensures the schema exists.
// The parent directory is created if missing.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := fileutil.EnsureDirForFile(path); err != nil {
		return nil, fmt.Errorf("prepare store dir: %w", err)
	}

	// WAL with a busy timeout handles the coordinator and task-manager
	// goroutines writing concurrently. NORMAL synchronous is safe because
	// the database is ephemeral test data; crash durability is irrelevant.
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(10000)&_pragma=synchronous(NORMAL)",
		path,
	)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create jobs schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Insert adds a new job record.
func (s *Store) Insert(ctx context.Context, r Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, name, parallelism, state, submitted_at) VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.Name, r.Parallelism, string(r.State), r.SubmittedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert job %s: %w", r.ID, err)
	}
	return nil
}

// UpdateState transitions the record with the given id to state.
// Returns ErrJobNotFound if the id is unknown.
func (s *Store) UpdateState(ctx context.Context, id string, state State) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET state = ? WHERE id = ?`, string(state), id)
	if err != nil {
		return fmt.Errorf("update job %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update job %s: rows affected: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("update job %s: %w", id, ErrJobNotFound)
	}
	return nil
}

// Get fetches one record by id. Returns ErrJobNotFound if no record exists.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	var (
		r  Record
		ms int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, parallelism, state, submitted_at FROM jobs WHERE id = ?`, id,
	).Scan(&r.ID, &r.Name, &r.Parallelism, (*string)(&r.State), &ms)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("get job %s: %w", id, ErrJobNotFound)
	}
	if err != nil {
		return Record{}, fmt.Errorf("get job %s: %w", id, err)
	}
	r.SubmittedAt = time.UnixMilli(ms)
	return r, nil
}

// List returns all records in submission order.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, parallelism, state, submitted_at FROM jobs ORDER BY submitted_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var out []Record
	for rows.Next() {
		var (
			r  Record
			ms int64
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.Parallelism, (*string)(&r.State), &ms); err != nil {
			return nil, fmt.Errorf("scan job row: %w", err)
		}
		r.SubmittedAt = time.UnixMilli(ms)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return out, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close job store: %w", err)
	}
	return nil
}
