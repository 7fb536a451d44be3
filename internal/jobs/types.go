package jobs

import (
	"context"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/dompet/internal/domain"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeAdvice represents a financial advice generation job.
	JobTypeAdvice JobType = "advice"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job completed successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job failed.
	JobStatusFailed JobStatus = "failed"
	// JobStatusRetrying indicates the job failed and is being retried.
	JobStatusRetrying JobStatus = "retrying"
)

// DefaultMaxRetries is used when a job is published without MaxRetries.
const DefaultMaxRetries = 2

// AdviceJob represents a request to summarize a user's transactions over a
// date range and ask the model for advice.
type AdviceJob struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"jobId"`

	// UserID is the owner of the transactions being analyzed.
	UserID string `json:"userId"`

	// From and To bound the analyzed period, inclusive.
	From civil.Date `json:"from"`
	To   civil.Date `json:"to"`

	// Status is the current status of the job.
	Status JobStatus `json:"status"`

	// CreatedAt is when the job was created.
	CreatedAt time.Time `json:"createdAt"`

	// StartedAt is when the job started processing.
	StartedAt *time.Time `json:"startedAt,omitempty"`

	// CompletedAt is when the job completed (success or failure).
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	// Error contains error details if the job failed.
	Error string `json:"error,omitempty"`

	// RetryCount is the number of times this job has been retried.
	RetryCount int `json:"retryCount"`

	// MaxRetries is the maximum number of retries allowed.
	MaxRetries int `json:"maxRetries"`

	// Result is set once the job completes.
	Result *domain.Advice `json:"result,omitempty"`
}

// Type returns the job type.
func (j *AdviceJob) Type() JobType {
	return JobTypeAdvice
}

// Done reports whether the job reached a terminal status.
func (j *AdviceJob) Done() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// Publisher defines the interface for publishing jobs to a queue.
type Publisher interface {
	// PublishAdvice publishes an advice job.
	PublishAdvice(ctx context.Context, job *AdviceJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs from the queue.
	// The handler function is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler processes a job. It may set job.Result.
// It should return an error if the job failed and should be retried.
type JobHandler func(ctx context.Context, job *AdviceJob) error

// JobStore defines the interface for storing and retrieving job status.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *AdviceJob) error

	// GetJob retrieves a job by ID. It returns ErrJobNotFound when missing.
	GetJob(ctx context.Context, jobID string) (*AdviceJob, error)

	// ListJobs retrieves jobs with optional filtering, newest first.
	ListJobs(ctx context.Context, filter JobFilter) ([]*AdviceJob, error)
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	// UserID filters jobs by owner.
	UserID string

	// Status filters jobs by status.
	Status JobStatus

	// Limit limits the number of results.
	Limit int

	// Offset for pagination.
	Offset int
}
