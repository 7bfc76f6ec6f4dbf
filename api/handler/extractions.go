package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/harvest/cache"
	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/models"
	"github.com/use-agent/harvest/scraper"
	"github.com/use-agent/harvest/webhook"
)

// Extract returns a handler for POST /api/v1/extractions.
//
// Orchestration flow:
//  1. Parse & validate request, apply defaults.
//  2. Cache lookup (metadata only; buffers are never cached).
//  3. Open a session — this supersedes the previous interactive session.
//  4. Scraper.DoExtract → scroll, harvest, fetch, classify.
//  5. "original" mechanism: second resolution pass over the same session.
//  6. Fill Timing, cache store, return 200.
func Extract(sc *scraper.Scraper, cc *cache.Cache, store *SessionStore, whCfg config.WebhookConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		var req models.ExtractRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ExtractResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		req.Defaults()

		if cc != nil && req.MaxAge > 0 {
			cacheKey := cache.Key(req.URL, req.MatchingMechanism)
			if cached, hit := cc.Get(cacheKey, req.MaxAge); hit {
				cached.CacheStatus = "hit"
				cached.Timing = models.TimingInfo{
					TotalMs: time.Since(totalStart).Milliseconds(),
				}
				c.JSON(http.StatusOK, cached)
				return
			}
		}

		session := store.Open(req.URL, req.MatchingMechanism)
		sink := sinkFor(&req, session, whCfg)

		result, err := sc.DoExtract(c.Request.Context(), &req, session, sink)
		if err != nil {
			respondError(c, err, models.TimingInfo{
				TotalMs: time.Since(totalStart).Milliseconds(),
			})
			return
		}

		timing := result.Timing
		if req.MatchingMechanism == "original" {
			origResult, origErr := sc.MatchOriginal(c.Request.Context(), session, req.URL, sink)
			if origErr != nil {
				respondError(c, origErr, models.TimingInfo{
					TotalMs: time.Since(totalStart).Milliseconds(),
				})
				return
			}
			timing.FetchMs += origResult.Timing.FetchMs
		}
		timing.TotalMs = time.Since(totalStart).Milliseconds()

		resp := &models.ExtractResponse{
			Success:   true,
			Title:     result.Title,
			GroupName: session.GroupName,
			Assets:    session.Assets,
			Timing:    timing,
		}

		if cc != nil && req.MaxAge > 0 {
			cc.Set(cache.Key(req.URL, req.MatchingMechanism), resp)
			resp.CacheStatus = "miss"
		}

		c.JSON(http.StatusOK, resp)
	}
}

// MatchOriginal returns a handler for POST /api/v1/extractions/original.
// It re-resolves the current session's assets to full-resolution originals
// and appends whatever new assets that pass produces.
func MatchOriginal(sc *scraper.Scraper, store *SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		var req models.MatchOriginalRequest
		if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
			c.JSON(http.StatusBadRequest, models.ExtractResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		session, ok := store.Current()
		if !ok {
			c.JSON(http.StatusNotFound, models.ExtractResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeNotFound,
					Message: "no extraction session; run an extraction first",
				},
			})
			return
		}

		pageURL := req.PageURL
		if pageURL == "" {
			pageURL = session.TargetURL
		}

		result, err := sc.MatchOriginal(c.Request.Context(), session, pageURL, &webhook.LogSink{SessionID: session.GroupName})
		if err != nil {
			respondError(c, err, models.TimingInfo{
				TotalMs: time.Since(totalStart).Milliseconds(),
			})
			return
		}

		timing := result.Timing
		timing.TotalMs = time.Since(totalStart).Milliseconds()

		c.JSON(http.StatusOK, &models.ExtractResponse{
			Success:   true,
			GroupName: session.GroupName,
			Assets:    session.Assets,
			Timing:    timing,
		})
	}
}

// sinkFor picks the progress transport: webhook when the request names one,
// otherwise the structured log.
func sinkFor(req *models.ExtractRequest, session *models.Session, whCfg config.WebhookConfig) models.ProgressSink {
	if req.WebhookURL != "" {
		return &webhook.Sink{
			Config:    whCfg,
			URL:       req.WebhookURL,
			Secret:    req.WebhookSecret,
			SessionID: session.GroupName,
		}
	}
	return &webhook.LogSink{SessionID: session.GroupName}
}

// respondError maps an ExtractError to the correct HTTP status code and
// writes a structured JSON error response.
func respondError(c *gin.Context, err error, timing models.TimingInfo) {
	extractErr, ok := err.(*models.ExtractError)
	if !ok {
		extractErr = models.NewExtractError(models.ErrCodeInternal, err.Error(), err)
	}

	c.JSON(mapErrorToStatus(extractErr), models.ExtractResponse{
		Success: false,
		Error:   extractErr.ToDetail(),
		Timing:  timing,
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ExtractError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation:
		return http.StatusBadGateway // 502
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeNotFound:
		return http.StatusNotFound // 404
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
