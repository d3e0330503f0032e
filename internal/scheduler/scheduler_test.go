package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	runs atomic.Int32
	err  error
}

func (j *countingJob) Run() error {
	j.runs.Add(1)
	return j.err
}

func (j *countingJob) Name() string { return "counting" }

func TestAddJob_InvalidSchedule(t *testing.T) {
	s := New(zerolog.Nop())
	err := s.AddJob("not a schedule", &countingJob{})
	assert.Error(t, err)
}

func TestAddJob_RunsOnSchedule(t *testing.T) {
	s := New(zerolog.Nop())

	job := &countingJob{}
	require.NoError(t, s.AddJob("@every 50ms", job))

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return job.runs.Load() >= 1
	}, 3*time.Second, 10*time.Millisecond)
}

func TestStop_WaitsForRunningJobs(t *testing.T) {
	s := New(zerolog.Nop())

	job := &countingJob{}
	require.NoError(t, s.AddJob("@every 50ms", job))

	s.Start()
	assert.Eventually(t, func() bool {
		return job.runs.Load() >= 1
	}, 3*time.Second, 10*time.Millisecond)

	s.Stop()
	after := job.runs.Load()
	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, after, job.runs.Load(), "No new runs after Stop")
}
