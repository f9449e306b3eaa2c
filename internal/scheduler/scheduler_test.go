package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/kfin/pkg/logger"
)

type stubJob struct {
	name     string
	schedule string
	failures int // fail this many times before succeeding
	runs     int
}

func (j *stubJob) Name() string     { return j.name }
func (j *stubJob) Schedule() string { return j.schedule }

func (j *stubJob) Run(_ context.Context) error {
	j.runs++
	if j.runs <= j.failures {
		return errors.New("transient failure")
	}
	return nil
}

func TestRegister_DuplicateRejected(t *testing.T) {
	s := New(logger.NewNop())

	job := &stubJob{name: "price", schedule: "@daily"}
	require.NoError(t, s.Register(job))

	err := s.Register(&stubJob{name: "price", schedule: "@daily"})
	assert.ErrorContains(t, err, "already registered")
}

func TestRegister_BadCronExpression(t *testing.T) {
	s := New(logger.NewNop())

	err := s.Register(&stubJob{name: "bad", schedule: "not a cron"})
	assert.Error(t, err)
}

func TestTrigger_UnknownJob(t *testing.T) {
	s := New(logger.NewNop())
	assert.ErrorContains(t, s.Trigger("missing"), "not found")
}

func TestExecute_RetriesThenSucceeds(t *testing.T) {
	s := New(logger.NewNop())
	s.retryDelay = time.Millisecond

	job := &stubJob{name: "flaky", schedule: "@daily", failures: 2}
	s.execute(context.Background(), job)

	runs := s.History("flaky")
	require.Len(t, runs, 1)
	assert.True(t, runs[0].Success)
	assert.Equal(t, 3, runs[0].Attempts)
}

func TestExecute_FailureRecorded(t *testing.T) {
	s := New(logger.NewNop())
	s.retryDelay = time.Millisecond
	s.maxRetries = 1

	job := &stubJob{name: "broken", schedule: "@daily", failures: 10}
	s.execute(context.Background(), job)

	runs := s.History("broken")
	require.Len(t, runs, 1)
	assert.False(t, runs[0].Success)
	assert.Equal(t, "transient failure", runs[0].Error)
}

func TestJobs_ListsSchedules(t *testing.T) {
	s := New(logger.NewNop())
	require.NoError(t, s.Register(&stubJob{name: "price", schedule: "@daily"}))

	jobs := s.Jobs()
	assert.Equal(t, map[string]string{"price": "@daily"}, jobs)
}
