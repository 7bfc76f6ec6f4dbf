package scraper

import "github.com/use-agent/harvest/models"

// ExtractResult carries the page-level metadata of a finished extraction.
// The assets themselves accumulate on the session.
type ExtractResult struct {
	// Title is the page title.
	Title string

	// CandidateCount is the number of deduplicated candidate URLs the
	// harvest pass produced, before fetching.
	CandidateCount int

	// Timing breaks down where the extraction spent its time.
	Timing models.TimingInfo
}
