package cleanup

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LukhasAI/quantum-engine/internal/database"
	"github.com/LukhasAI/quantum-engine/internal/modules/runs"
)

func setupJob(t *testing.T, retentionDays int) (*RunsCleanupJob, *runs.Repository) {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "runs.db"),
		Profile: database.ProfileArchive,
		Name:    "runs",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, runs.InitSchema(db.Conn()))

	repo := runs.NewRepository(db.Conn(), zerolog.Nop())
	return NewRunsCleanupJob(db, repo, retentionDays, zerolog.Nop()), repo
}

func TestRunsCleanupJob_Name(t *testing.T) {
	job, _ := setupJob(t, 30)
	assert.Equal(t, "runs_cleanup", job.Name())
}

func TestRunsCleanupJob_PrunesExpiredRuns(t *testing.T) {
	job, repo := setupJob(t, 30)

	now := time.Now().UTC()
	_, err := repo.Create(&runs.Run{
		ID:        "expired",
		Algorithm: "bell_pair",
		NumQubits: 2,
		Result:    []byte(`{}`),
		CreatedAt: now.AddDate(0, 0, -45),
	})
	require.NoError(t, err)
	_, err = repo.Create(&runs.Run{
		ID:        "fresh",
		Algorithm: "bell_pair",
		NumQubits: 2,
		Result:    []byte(`{}`),
		CreatedAt: now.AddDate(0, 0, -5),
	})
	require.NoError(t, err)

	require.NoError(t, job.Run())

	expired, err := repo.GetByID("expired")
	require.NoError(t, err)
	assert.Nil(t, expired)

	fresh, err := repo.GetByID("fresh")
	require.NoError(t, err)
	assert.NotNil(t, fresh)
}

func TestRunsCleanupJob_EmptyDatabase(t *testing.T) {
	job, repo := setupJob(t, 30)

	require.NoError(t, job.Run())

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
