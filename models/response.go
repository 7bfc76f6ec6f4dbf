package models

// ExtractResponse is the response for POST /api/v1/extractions and
// /api/v1/extractions/original. Buffers are never serialized; they stay
// in the session store until explicitly downloaded.
type ExtractResponse struct {
	// Success indicates whether the extraction completed without a
	// session-level failure. Partial per-item failures still succeed.
	Success bool `json:"success"`

	// Title is the target page's document title.
	Title string `json:"title,omitempty"`

	// GroupName is the buffer group name ("{domain}-{epochMillis}") used
	// for archive downloads.
	GroupName string `json:"group_name,omitempty"`

	// Assets is the metadata for every successfully classified image.
	Assets []*Asset `json:"data"`

	// Timing provides duration breakdowns for the operation.
	Timing TimingInfo `json:"timing"`

	// CacheStatus indicates whether the response was served from cache.
	// Values: "hit", "miss", or empty (caching not requested).
	CacheStatus string `json:"cache_status,omitempty"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// TimingInfo breaks down the time spent in each pipeline phase.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`

	// NavigationMs is the time spent navigating and rendering the page.
	NavigationMs int64 `json:"navigation_ms"`

	// ScrollMs is the time spent in the scroll stabilizer.
	ScrollMs int64 `json:"scroll_ms"`

	// FetchMs is the time spent retrieving and classifying candidates.
	FetchMs int64 `json:"fetch_ms"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status    string    `json:"status"` // "healthy" or "degraded"
	Uptime    string    `json:"uptime"`
	PoolStats PoolStats `json:"pool_stats"`
	Version   string    `json:"version"`
}

// PoolStats reports the state of the browser page pool.
type PoolStats struct {
	MaxPages    int `json:"max_pages"`
	ActivePages int `json:"active_pages"`
}
