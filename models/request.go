package models

// ExtractRequest is the payload for POST /api/v1/extractions.
type ExtractRequest struct {
	// URL is the target page to harvest images from. Required.
	URL string `json:"url" binding:"required,url"`

	// MatchingMechanism selects the candidate matching strategy.
	// "default": harvest the rendered DOM only.
	// "original": harvest, then run the original-URL resolver as a second pass.
	MatchingMechanism string `json:"matching_mechanism,omitempty" binding:"omitempty,oneof=default original"`

	// MaxScroll is the maximum scroll distance in pixels used to reveal
	// lazy-loaded content. Default: 20000.
	MaxScroll int `json:"max_scroll,omitempty" binding:"omitempty,min=0,max=200000"`

	// Timeout is the maximum duration in seconds for page navigation and
	// rendering. Zero means the server's configured default (300s).
	// Max: 500.
	Timeout int `json:"timeout,omitempty" binding:"omitempty,min=1,max=500"`

	// Stealth enables anti-bot-detection evasions. Default: true.
	Stealth *bool `json:"stealth,omitempty"`

	// MaxAge enables cached metadata responses younger than this many
	// milliseconds. 0 disables cache lookup.
	MaxAge int `json:"max_age,omitempty" binding:"omitempty,min=0"`

	// WebhookURL, when set, receives progress events for this extraction.
	WebhookURL    string `json:"webhook_url,omitempty" binding:"omitempty,url"`
	WebhookSecret string `json:"webhook_secret,omitempty"`
}

// Defaults applies default values to unset fields.
func (r *ExtractRequest) Defaults() {
	if r.MatchingMechanism == "" {
		r.MatchingMechanism = "default"
	}
	if r.MaxScroll == 0 {
		r.MaxScroll = 20000
	}
	// Timeout stays zero here; the scraper substitutes its configured
	// default so the knob remains server-side.
	if r.Stealth == nil {
		t := true
		r.Stealth = &t
	}
}

// MatchOriginalRequest is the payload for POST /api/v1/extractions/original.
// It re-resolves the current session's assets to full-resolution originals.
type MatchOriginalRequest struct {
	// PageURL overrides the originating page URL used to pick the
	// resolution strategy. Defaults to the current session's target URL.
	PageURL string `json:"page_url,omitempty" binding:"omitempty,url"`
}

// DownloadSingleRequest is the payload for POST /api/v1/download/single.
type DownloadSingleRequest struct {
	ImageID string `json:"image_id" binding:"required"`
}

// DownloadArchiveRequest is the payload for POST /api/v1/download/archive.
type DownloadArchiveRequest struct {
	ImageIDs []string `json:"image_ids" binding:"required,min=1"`
}
