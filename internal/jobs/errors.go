package jobs

import "errors"

var (
	// ErrJobNotFound is returned when a job ID is unknown.
	ErrJobNotFound = errors.New("job not found")

	// ErrQueueClosed is returned when publishing to or starting a stopped queue.
	ErrQueueClosed = errors.New("queue is closed")
)
