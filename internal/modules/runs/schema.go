package runs

import "database/sql"

// RunsSchema creates the runs table in runs.db
const RunsSchema = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    algorithm TEXT NOT NULL,
    num_qubits INTEGER NOT NULL,
    backend TEXT,
    duration_ms REAL NOT NULL,
    result_json TEXT NOT NULL,
    snapshot BLOB,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_algorithm ON runs(algorithm);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

// InitSchema ensures the runs table exists
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(RunsSchema)
	return err
}
