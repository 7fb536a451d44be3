package inmemory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dvloznov/dompet/internal/domain"
	"github.com/dvloznov/dompet/internal/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveAndGet(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	assert.Error(t, s.SaveJob(ctx, &jobs.AdviceJob{}), "job ID is required")

	started := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	job := &jobs.AdviceJob{JobID: "j1", UserID: "alice", Status: jobs.JobStatusRunning, StartedAt: &started, Result: &domain.Advice{Summary: "a"}}
	require.NoError(t, s.SaveJob(ctx, job))

	// Later changes by the caller do not leak into the store.
	job.Status = jobs.JobStatusFailed
	started = started.Add(time.Hour)
	job.Result.Summary = "changed"

	got, err := s.GetJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, jobs.JobStatusRunning, got.Status)
	assert.Equal(t, 9, got.StartedAt.Hour())
	assert.Equal(t, "a", got.Result.Summary)

	_, err = s.GetJob(ctx, "missing")
	assert.ErrorIs(t, err, jobs.ErrJobNotFound)
}

func TestStore_ListJobs(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		user := "alice"
		if i == 4 {
			user = "bob"
		}
		status := jobs.JobStatusCompleted
		if i%2 == 1 {
			status = jobs.JobStatusFailed
		}
		require.NoError(t, s.SaveJob(ctx, &jobs.AdviceJob{
			JobID:     fmt.Sprintf("j%d", i),
			UserID:    user,
			Status:    status,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	tests := []struct {
		name   string
		filter jobs.JobFilter
		want   []string
	}{
		{name: "all", filter: jobs.JobFilter{}, want: []string{"j4", "j3", "j2", "j1", "j0"}},
		{name: "by user", filter: jobs.JobFilter{UserID: "alice"}, want: []string{"j3", "j2", "j1", "j0"}},
		{name: "by status", filter: jobs.JobFilter{UserID: "alice", Status: jobs.JobStatusFailed}, want: []string{"j3", "j1"}},
		{name: "limit", filter: jobs.JobFilter{Limit: 2}, want: []string{"j4", "j3"}},
		{name: "offset", filter: jobs.JobFilter{Offset: 3}, want: []string{"j1", "j0"}},
		{name: "offset past end", filter: jobs.JobFilter{Offset: 10}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListJobs(ctx, tt.filter)
			require.NoError(t, err)
			ids := []string{}
			for _, j := range got {
				ids = append(ids, j.JobID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}
