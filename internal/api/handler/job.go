package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tomaz/vidsent/internal/api/middleware"
	"github.com/tomaz/vidsent/internal/domain"
	"github.com/tomaz/vidsent/internal/service"
	"github.com/tomaz/vidsent/internal/store"
)

// JobIndex is the relational side of job bookkeeping the API uses:
// fast listing without scanning object storage.
type JobIndex interface {
	Upsert(ctx context.Context, rec *domain.JobRecord) error
	List(ctx context.Context, limit, offset int) ([]domain.JobRecord, error)
	CountByStatus(ctx context.Context) (map[domain.JobStatus]int64, error)
}

// JobHandler handles job submission and retrieval endpoints.
type JobHandler struct {
	jobs     *store.JobStore
	index    JobIndex
	queue    service.Enqueuer
	newQueue string
}

// NewJobHandler creates a new job handler.
// Parameters:
//   - jobs: job document store.
//   - index: relational job index, may be nil.
//   - queue: queue the new jobs are announced on.
//   - newQueue: name of the intake queue.
// Returns:
//   - *JobHandler: initialized handler.
func NewJobHandler(jobs *store.JobStore, index JobIndex, queue service.Enqueuer, newQueue string) *JobHandler {
	return &JobHandler{
		jobs:     jobs,
		index:    index,
		queue:    queue,
		newQueue: newQueue,
	}
}

type createJobRequest struct {
	URL string `json:"url"`
	ID  string `json:"id"`
}

// Create handles POST /. It registers a job and announces it on the
// intake queue. A caller-supplied id makes resubmission idempotent at
// the storage level: the same id overwrites the same documents.
func (h *JobHandler) Create(c *gin.Context) {
	var req createJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}
	if req.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Field 'url' is required",
		})
		return
	}

	jobID := req.ID
	if jobID == "" {
		jobID = uuid.New().String()
	}

	ctx := c.Request.Context()
	job := &domain.Job{
		ID:     jobID,
		URL:    req.URL,
		Status: domain.JobStatusCreated,
	}
	if err := h.jobs.Put(ctx, job); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to register job: " + err.Error(),
		})
		return
	}

	// The index is a convenience view; losing a row only degrades the
	// listing endpoint.
	if h.index != nil {
		if err := h.index.Upsert(ctx, &domain.JobRecord{
			ID:     jobID,
			URL:    req.URL,
			Status: domain.JobStatusCreated,
		}); err != nil {
			middleware.GetLogger(c).Warnf("Failed to index job %s: %v", jobID, err)
		}
	}

	if err := h.queue.Enqueue(ctx, h.newQueue, service.EncodeJobMessage(jobID)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to enqueue job: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":  jobID,
		"url": req.URL,
	})
}

// Get handles GET /?id=<id>&action=<action>. Without an action it
// returns the job record; summary, metadata and transcript select the
// per-job documents.
func (h *JobHandler) Get(c *gin.Context) {
	jobID := c.Query("id")
	if jobID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Query parameter 'id' is required",
		})
		return
	}

	ctx := c.Request.Context()

	var result interface{}
	var err error
	switch action := c.Query("action"); action {
	case "":
		result, err = h.jobs.Get(ctx, jobID)
	case "summary":
		result, err = h.jobs.GetSummary(ctx, jobID)
	case "metadata":
		result, err = h.jobs.GetVideoMetadata(ctx, jobID)
	case "transcript":
		var transcript *domain.Transcript
		transcript, err = h.jobs.GetTranscript(ctx, jobID)
		if err == nil {
			result = gin.H{"full-text": transcript}
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Unknown action: " + action,
		})
		return
	}

	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load job data: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// List handles GET /jobs, newest first.
func (h *JobHandler) List(c *gin.Context) {
	if h.index == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Job listing is not available",
		})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	ctx := c.Request.Context()
	records, err := h.index.List(ctx, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list jobs: " + err.Error(),
		})
		return
	}

	// Best-effort extra; the listing is still useful without it.
	statusCounts, err := h.index.CountByStatus(ctx)
	if err != nil {
		middleware.GetLogger(c).Warnf("Failed to count jobs by status: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"jobs":          records,
		"count":         len(records),
		"status_counts": statusCounts,
	})
}
