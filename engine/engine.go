// Package engine provides the per-item retrieval engines used by the fetch
// scheduler. Each candidate URL is fetched through its own isolated context:
// a direct HTTP request with a Chrome TLS fingerprint, or a full browser
// navigation for hosts that block direct fetches. A per-domain memory keeps
// the engine that last worked for a host at the front of the order.
package engine

import (
	"context"
	"time"
)

// Engine is the interface all retrieval engines implement.
type Engine interface {
	// Name returns the engine identifier (e.g. "http", "browser").
	Name() string

	// Fetch retrieves the raw bytes for the given request.
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// FetchRequest contains everything an engine needs to retrieve one URL.
type FetchRequest struct {
	URL     string
	Headers map[string]string
	Timeout time.Duration

	// Referer is sent so CDNs with hotlink protection accept the request.
	Referer string
}

// FetchResult is the output of a successful retrieval.
type FetchResult struct {
	// ContentType is the response's declared content type, used by the
	// scheduler to accept or reject the item.
	ContentType string

	// Body is the raw response bytes.
	Body []byte

	EngineName string
}
