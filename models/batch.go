package models

import (
	"sync"
	"time"
)

// BatchRequest is the payload for POST /api/v1/extractions/batch
// (multi-site extraction mode).
type BatchRequest struct {
	// URLs is the list of target pages to harvest. Required.
	URLs []string `json:"urls" binding:"required,min=1,max=20"`

	// Options contains shared extraction options applied to all URLs.
	Options BatchOptions `json:"options"`
}

// BatchOptions are the shared settings applied to every URL in a batch.
type BatchOptions struct {
	MatchingMechanism string `json:"matching_mechanism,omitempty" binding:"omitempty,oneof=default original"`
	MaxScroll         int    `json:"max_scroll,omitempty" binding:"omitempty,min=0,max=200000"`
	Timeout           int    `json:"timeout,omitempty" binding:"omitempty,min=1,max=500"`
	Stealth           *bool  `json:"stealth,omitempty"`
}

// BatchResponse is the immediate response for POST /api/v1/extractions/batch.
type BatchResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Total  int    `json:"total"`
}

// BatchStatusResponse is the response for GET /api/v1/extractions/batch/:id.
type BatchStatusResponse struct {
	ID        string             `json:"id"`
	Status    string             `json:"status"`
	Completed int                `json:"completed"`
	Total     int                `json:"total"`
	Results   []*ExtractResponse `json:"results,omitempty"`
}

// BatchJob tracks an in-progress multi-site extraction. Worker goroutines
// record results through SetResult while status polls read a Snapshot, so
// all mutable fields are guarded by the mutex.
type BatchJob struct {
	ID        string
	Total     int
	CreatedAt int64 // unix timestamp

	mu        sync.Mutex
	status    string // "processing", "completed", "failed", "partial"
	completed int
	results   []*ExtractResponse
}

// NewBatchJob creates a job in the "processing" state with a result slot
// per URL.
func NewBatchJob(id string, total int) *BatchJob {
	return &BatchJob{
		ID:        id,
		Total:     total,
		CreatedAt: time.Now().Unix(),
		status:    "processing",
		results:   make([]*ExtractResponse, total),
	}
}

// SetResult records the outcome for one URL slot and bumps the completion
// counter.
func (j *BatchJob) SetResult(idx int, resp *ExtractResponse) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.results[idx] = resp
	j.completed++
}

// Finish moves the job to its terminal status.
func (j *BatchJob) Finish(status string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = status
}

// Snapshot returns a consistent view of the job for status responses. The
// results slice is copied so callers can marshal it while workers keep
// writing.
func (j *BatchJob) Snapshot() BatchStatusResponse {
	j.mu.Lock()
	defer j.mu.Unlock()
	results := make([]*ExtractResponse, len(j.results))
	copy(results, j.results)
	return BatchStatusResponse{
		ID:        j.ID,
		Status:    j.status,
		Completed: j.completed,
		Total:     j.Total,
		Results:   results,
	}
}
