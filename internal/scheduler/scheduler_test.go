package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogaspar/ballast/pkg/logger"
)

type fakeJob struct {
	name     string
	schedule string
	failures int
	runs     int
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return j.schedule }

func (j *fakeJob) Run(ctx context.Context) error {
	j.runs++
	if j.runs <= j.failures {
		return errors.New("boom")
	}
	return nil
}

func TestAddJob_RejectsDuplicateName(t *testing.T) {
	s := New(logger.NewNop())

	require.NoError(t, s.AddJob(&fakeJob{name: "cycle", schedule: "@daily"}))
	err := s.AddJob(&fakeJob{name: "cycle", schedule: "@hourly"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestAddJob_RejectsBadCronExpression(t *testing.T) {
	s := New(logger.NewNop())

	err := s.AddJob(&fakeJob{name: "cycle", schedule: "not a cron spec"})
	require.Error(t, err)
}

func TestRunJob_RetriesUntilSuccess(t *testing.T) {
	s := New(logger.NewNop())
	s.retryDelay = 0

	job := &fakeJob{name: "cycle", schedule: "@daily", failures: 2}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("cycle"))

	assert.Equal(t, 3, job.runs)
	history := s.History("cycle")
	require.Len(t, history, 1)
	assert.True(t, history[0].Success)
	assert.Empty(t, history[0].Error)
}

func TestRunJob_RecordsFailureAfterRetries(t *testing.T) {
	s := New(logger.NewNop())
	s.retryDelay = 0
	s.maxRetries = 1

	job := &fakeJob{name: "cycle", schedule: "@daily", failures: 10}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("cycle"))

	assert.Equal(t, 2, job.runs)
	history := s.History("cycle")
	require.Len(t, history, 1)
	assert.False(t, history[0].Success)
	assert.Equal(t, "boom", history[0].Error)
}

func TestRunJob_UnknownName(t *testing.T) {
	s := New(logger.NewNop())

	err := s.RunJob("missing")
	require.Error(t, err)
}

func TestHistory_IsBounded(t *testing.T) {
	s := New(logger.NewNop())
	s.retryDelay = 0

	job := &fakeJob{name: "cycle", schedule: "@daily"}
	require.NoError(t, s.AddJob(job))

	for i := 0; i < historyLimit+10; i++ {
		require.NoError(t, s.RunJob("cycle"))
	}

	assert.Len(t, s.History("cycle"), historyLimit)
}
