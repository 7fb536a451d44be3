package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/dompet/internal/api/middleware"
	"github.com/dvloznov/dompet/internal/jobs"
	"github.com/dvloznov/dompet/internal/logger"
)

// JobsHandler handles advice job endpoints.
type JobsHandler struct {
	publisher jobs.Publisher
	store     jobs.JobStore
	today     func() civil.Date
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(publisher jobs.Publisher, store jobs.JobStore, today func() civil.Date) *JobsHandler {
	return &JobsHandler{publisher: publisher, store: store, today: today}
}

// RequestAdvice handles POST /api/advice. Missing dates default to the current month.
func (h *JobsHandler) RequestAdvice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	from, to, ok := dateRange(r, h.today())
	if !ok {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid start_date or end_date format")
		return
	}
	if to.Before(from) {
		middleware.WriteError(w, http.StatusBadRequest, "end_date is before start_date")
		return
	}

	job := &jobs.AdviceJob{
		UserID: middleware.UserID(ctx),
		From:   from,
		To:     to,
	}
	log := logger.FromContext(ctx)
	if err := h.publisher.PublishAdvice(ctx, job); err != nil {
		log.Error().Err(err).Msg("Failed to enqueue advice job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue advice job")
		return
	}

	log.Info().Str("job_id", job.JobID).Msg("Advice job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"jobId":  job.JobID,
		"status": string(job.Status),
	})
}

// GetJob handles GET /api/jobs/{id}. Jobs of other users are reported as not found.
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	ctx := r.Context()

	job, err := h.store.GetJob(ctx, jobID)
	if err != nil || job.UserID != middleware.UserID(ctx) {
		if err != nil && !errors.Is(err, jobs.ErrJobNotFound) {
			log := logger.FromContext(ctx)
			log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		}
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	filter := jobs.JobFilter{
		UserID: middleware.UserID(ctx),
		Status: jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}
