package inmemory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/dompet/internal/domain"
	"github.com/dvloznov/dompet/internal/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJob(userID string) *jobs.AdviceJob {
	return &jobs.AdviceJob{
		UserID: userID,
		From:   civil.Date{Year: 2026, Month: time.May, Day: 1},
		To:     civil.Date{Year: 2026, Month: time.May, Day: 31},
	}
}

func waitForStatus(t *testing.T, store *Store, jobID string, status jobs.JobStatus) *jobs.AdviceJob {
	t.Helper()
	var got *jobs.AdviceJob
	require.Eventually(t, func() bool {
		job, err := store.GetJob(context.Background(), jobID)
		if err != nil {
			return false
		}
		got = job
		return job.Status == status
	}, 2*time.Second, 5*time.Millisecond)
	return got
}

func TestQueue_PublishFillsDefaults(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store, WithMaxRetries(4))
	defer q.Close()

	job := newJob("alice")
	require.NoError(t, q.PublishAdvice(context.Background(), job))

	assert.NotEmpty(t, job.JobID)
	assert.Equal(t, jobs.JobStatusPending, job.Status)
	assert.Equal(t, 4, job.MaxRetries)
	assert.False(t, job.CreatedAt.IsZero())

	saved, err := store.GetJob(context.Background(), job.JobID)
	require.NoError(t, err)
	assert.Equal(t, "alice", saved.UserID)
}

func TestQueue_ProcessesJob(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store, WithWorkers(3))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, q.Start(ctx, func(ctx context.Context, job *jobs.AdviceJob) error {
		job.Result = &domain.Advice{Summary: "ok"}
		return nil
	}))

	job := newJob("alice")
	require.NoError(t, q.PublishAdvice(ctx, job))

	done := waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
	require.NotNil(t, done.Result)
	assert.Equal(t, "ok", done.Result.Summary)
	assert.NotNil(t, done.StartedAt)
	assert.NotNil(t, done.CompletedAt)
	assert.Empty(t, done.Error)

	require.NoError(t, q.Stop(context.Background()))
}

func TestQueue_RetriesThenSucceeds(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store, WithBackoff(time.Millisecond), WithMaxRetries(2))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls int32
	require.NoError(t, q.Start(ctx, func(ctx context.Context, job *jobs.AdviceJob) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("model overloaded")
		}
		return nil
	}))

	job := newJob("alice")
	require.NoError(t, q.PublishAdvice(ctx, job))

	done := waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
	assert.Equal(t, 2, done.RetryCount)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

	require.NoError(t, q.Stop(context.Background()))
}

func TestQueue_FailsAfterMaxRetries(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store, WithBackoff(time.Millisecond), WithMaxRetries(1))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls int32
	require.NoError(t, q.Start(ctx, func(ctx context.Context, job *jobs.AdviceJob) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("no transactions table")
	}))

	job := newJob("alice")
	require.NoError(t, q.PublishAdvice(ctx, job))

	failed := waitForStatus(t, store, job.JobID, jobs.JobStatusFailed)
	assert.Equal(t, "no transactions table", failed.Error)
	assert.Equal(t, 1, failed.RetryCount)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))

	require.NoError(t, q.Stop(context.Background()))
}

func TestQueue_Closed(t *testing.T) {
	q := NewQueue(1, nil)
	require.NoError(t, q.Close())
	require.NoError(t, q.Close(), "closing twice is a no-op")

	assert.ErrorIs(t, q.PublishAdvice(context.Background(), newJob("alice")), jobs.ErrQueueClosed)
	assert.ErrorIs(t, q.Start(context.Background(), func(context.Context, *jobs.AdviceJob) error { return nil }), jobs.ErrQueueClosed)
}

func TestQueue_PublishHonoursContext(t *testing.T) {
	q := NewQueue(0, nil)
	defer q.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, q.PublishAdvice(ctx, newJob("alice")), context.Canceled)
}
