package runs

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const timeLayout = "2006-01-02 15:04:05.000"

// Repository handles run persistence
type Repository struct {
	runsDB *sql.DB
	log    zerolog.Logger
}

// NewRepository creates a new runs repository
func NewRepository(runsDB *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		runsDB: runsDB,
		log:    log.With().Str("repo", "runs").Logger(),
	}
}

// Create inserts a new run record
func (r *Repository) Create(run *Run) (*Run, error) {
	query := `
		INSERT INTO runs (
			id, algorithm, num_qubits, backend, duration_ms, result_json, snapshot, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	_, err := r.runsDB.Exec(
		query,
		run.ID,
		run.Algorithm,
		run.NumQubits,
		run.Backend,
		run.DurationMS,
		string(run.Result),
		run.Snapshot,
		run.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}

	return run, nil
}

// GetByID retrieves a run by its ID. Returns nil when no run matches.
func (r *Repository) GetByID(id string) (*Run, error) {
	query := `
		SELECT id, algorithm, num_qubits, backend, duration_ms, result_json, snapshot, created_at
		FROM runs
		WHERE id = ?
	`

	run, err := scanRun(r.runsDB.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// GetRecent retrieves the most recent runs, optionally filtered by
// algorithm name.
func (r *Repository) GetRecent(limit int, algorithm string) ([]Run, error) {
	if limit < 1 {
		limit = 50
	}

	query := `
		SELECT id, algorithm, num_qubits, backend, duration_ms, result_json, snapshot, created_at
		FROM runs
	`
	args := []interface{}{}
	if algorithm != "" {
		query += " WHERE algorithm = ?"
		args = append(args, algorithm)
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.runsDB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var result []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		result = append(result, *run)
	}
	return result, rows.Err()
}

// Count returns the total number of persisted runs
func (r *Repository) Count() (int, error) {
	var count int
	if err := r.runsDB.QueryRow("SELECT COUNT(*) FROM runs").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return count, nil
}

// DeleteOlderThan removes runs created before the cutoff and reports how
// many rows were deleted.
func (r *Repository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result, err := r.runsDB.Exec(
		"DELETE FROM runs WHERE created_at < ?",
		cutoff.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old runs: %w", err)
	}
	return result.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var resultJSON string
	var createdAt string

	err := row.Scan(
		&run.ID,
		&run.Algorithm,
		&run.NumQubits,
		&run.Backend,
		&run.DurationMS,
		&resultJSON,
		&run.Snapshot,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	run.Result = []byte(resultJSON)
	run.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return &run, nil
}
