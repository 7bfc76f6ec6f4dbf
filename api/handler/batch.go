package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/harvest/models"
	"github.com/use-agent/harvest/scraper"
	"github.com/use-agent/harvest/webhook"
)

// batchStore holds all in-flight and completed batch jobs.
var batchStore sync.Map

func init() {
	// Background goroutine to expire batch jobs older than 1 hour.
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			cutoff := time.Now().Add(-1 * time.Hour).Unix()
			batchStore.Range(func(key, value any) bool {
				job := value.(*models.BatchJob)
				if job.CreatedAt < cutoff {
					batchStore.Delete(key)
				}
				return true
			})
		}
	}()
}

// PostBatch returns a handler for POST /api/v1/extractions/batch
// (multi-site mode). It validates the request, creates a batch job, and
// launches goroutines to extract each URL concurrently. Each URL gets its
// own session, registered in the store so downloads keep working.
func PostBatch(sc *scraper.Scraper, store *SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.BatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		jobID := "batch-" + randomID()
		job := models.NewBatchJob(jobID, len(req.URLs))
		batchStore.Store(jobID, job)

		go runBatch(sc, store, job, req)

		c.JSON(http.StatusOK, models.BatchResponse{
			ID:     jobID,
			Status: "processing",
			Total:  len(req.URLs),
		})
	}
}

// GetBatch returns a handler for GET /api/v1/extractions/batch/:id.
func GetBatch() gin.HandlerFunc {
	return func(c *gin.Context) {
		jobID := c.Param("id")
		val, ok := batchStore.Load(jobID)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeNotFound,
					Message: "batch job not found",
				},
			})
			return
		}

		job := val.(*models.BatchJob)
		c.JSON(http.StatusOK, job.Snapshot())
	}
}

// runBatch processes all URLs in a batch job with concurrency limited by a
// semaphore sized to the page pool.
func runBatch(sc *scraper.Scraper, store *SessionStore, job *models.BatchJob, req models.BatchRequest) {
	maxConcurrent := sc.Stats().MaxPages
	if maxConcurrent <= 0 {
		maxConcurrent = 5
	}
	sem := make(chan struct{}, maxConcurrent)

	var wg sync.WaitGroup
	var completed atomic.Int32
	var failed atomic.Int32

	for i, rawURL := range req.URLs {
		wg.Add(1)
		go func(idx int, targetURL string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			resp := extractOne(sc, store, targetURL, req.Options)
			job.SetResult(idx, resp)

			if resp.Success {
				completed.Add(1)
			} else {
				failed.Add(1)
			}
		}(i, rawURL)
	}

	wg.Wait()

	failedCount := int(failed.Load())
	completedCount := int(completed.Load())

	var status string
	switch {
	case failedCount == job.Total:
		status = "failed"
	case failedCount > 0:
		status = "partial"
	default:
		status = "completed"
	}
	job.Finish(status)

	slog.Info("batch job finished",
		"id", job.ID,
		"status", status,
		"completed", completedCount,
		"failed", failedCount,
		"total", job.Total,
	)
}

// extractOne runs a full extraction for one batch URL in its own session.
func extractOne(sc *scraper.Scraper, store *SessionStore, targetURL string, opts models.BatchOptions) *models.ExtractResponse {
	totalStart := time.Now()

	ereq := &models.ExtractRequest{
		URL:               targetURL,
		MatchingMechanism: opts.MatchingMechanism,
		MaxScroll:         opts.MaxScroll,
		Timeout:           opts.Timeout,
		Stealth:           opts.Stealth,
	}
	ereq.Defaults()

	session := models.NewSession(targetURL, ereq.MatchingMechanism)
	store.Register(session)
	sink := &webhook.LogSink{SessionID: session.GroupName}

	result, err := sc.DoExtract(context.Background(), ereq, session, sink)
	if err != nil {
		extractErr, ok := err.(*models.ExtractError)
		if !ok {
			extractErr = models.NewExtractError(models.ErrCodeInternal, err.Error(), err)
		}
		return &models.ExtractResponse{
			Success: false,
			Error:   extractErr.ToDetail(),
			Timing: models.TimingInfo{
				TotalMs: time.Since(totalStart).Milliseconds(),
			},
		}
	}

	timing := result.Timing
	if ereq.MatchingMechanism == "original" {
		if origResult, origErr := sc.MatchOriginal(context.Background(), session, targetURL, sink); origErr == nil {
			timing.FetchMs += origResult.Timing.FetchMs
		} else {
			slog.Warn("batch: original resolution pass failed",
				"url", targetURL, "error", origErr,
			)
		}
	}
	timing.TotalMs = time.Since(totalStart).Milliseconds()

	return &models.ExtractResponse{
		Success:   true,
		Title:     result.Title,
		GroupName: session.GroupName,
		Assets:    session.Assets,
		Timing:    timing,
	}
}

// randomID generates a short random hex string for job IDs.
func randomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
