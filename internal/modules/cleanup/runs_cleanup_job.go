// Package cleanup provides data cleanup and maintenance functionality.
package cleanup

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/LukhasAI/quantum-engine/internal/database"
	"github.com/LukhasAI/quantum-engine/internal/modules/runs"
)

// RunsCleanupJob prunes run records older than the retention window and
// performs WAL maintenance on the runs database. Runs daily.
type RunsCleanupJob struct {
	runsDB        *database.DB
	repo          *runs.Repository
	retentionDays int
	log           zerolog.Logger
}

// NewRunsCleanupJob creates a new runs cleanup job
func NewRunsCleanupJob(runsDB *database.DB, repo *runs.Repository, retentionDays int, log zerolog.Logger) *RunsCleanupJob {
	return &RunsCleanupJob{
		runsDB:        runsDB,
		repo:          repo,
		retentionDays: retentionDays,
		log:           log.With().Str("job", "runs_cleanup").Logger(),
	}
}

// Name returns the job name for scheduler
func (j *RunsCleanupJob) Name() string {
	return "runs_cleanup"
}

// Run executes the cleanup job
func (j *RunsCleanupJob) Run() error {
	j.log.Info().Int("retention_days", j.retentionDays).Msg("Starting runs cleanup job")

	cutoff := time.Now().UTC().AddDate(0, 0, -j.retentionDays)
	deleted, err := j.repo.DeleteOlderThan(cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune old runs: %w", err)
	}

	remaining, err := j.repo.Count()
	if err != nil {
		return fmt.Errorf("failed to count remaining runs: %w", err)
	}

	// Checkpoint the WAL after bulk deletion to keep the file small.
	if err := j.runsDB.WALCheckpoint("TRUNCATE"); err != nil {
		j.log.Error().Err(err).Msg("WAL checkpoint failed (non-fatal)")
	}

	// Reclaim space only when the prune actually removed rows.
	if deleted > 0 {
		if err := j.runsDB.Vacuum(); err != nil {
			j.log.Error().Err(err).Msg("Vacuum failed (non-fatal)")
		}
	}

	j.log.Info().
		Int64("deleted", deleted).
		Int("remaining", remaining).
		Time("cutoff", cutoff).
		Msg("Runs cleanup job completed")

	return nil
}
