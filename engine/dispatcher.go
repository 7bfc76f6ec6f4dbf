package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
)

// Dispatcher tries retrieval engines in order until one succeeds. Unlike a
// page scrape, image retrieval runs with heavy batch parallelism, so engines
// are tried sequentially rather than raced: racing every candidate URL would
// double the request load on the target host.
//
// A per-domain memory moves the engine that last worked for a host to the
// front, so hosts that need the browser path pay the HTTP round-trip only
// once per TTL.
type Dispatcher struct {
	engines []Engine
	memory  *DomainMemory
}

// NewDispatcher creates a Dispatcher trying engines in the given order.
func NewDispatcher(engines []Engine, memory *DomainMemory) *Dispatcher {
	return &Dispatcher{engines: engines, memory: memory}
}

// Dispatch retrieves req.URL with the first engine that succeeds. All
// engines failing returns the last error.
func (d *Dispatcher) Dispatch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	domain := extractDomain(req.URL)

	var lastErr error
	for _, eng := range d.ordered(domain) {
		result, err := eng.Fetch(ctx, req)
		if err != nil {
			slog.Debug("engine failed", "engine", eng.Name(), "url", req.URL, "error", err)
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		d.memory.Set(domain, eng.Name())
		return result, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("dispatcher: no engines configured")
	}
	return nil, fmt.Errorf("dispatcher: all engines failed for %s: %w", req.URL, lastErr)
}

// ordered returns the engine order for a domain, with the remembered
// last-successful engine first.
func (d *Dispatcher) ordered(domain string) []Engine {
	remembered := d.memory.Get(domain)
	if remembered == "" {
		return d.engines
	}
	ordered := make([]Engine, 0, len(d.engines))
	for _, eng := range d.engines {
		if eng.Name() == remembered {
			ordered = append(ordered, eng)
		}
	}
	for _, eng := range d.engines {
		if eng.Name() != remembered {
			ordered = append(ordered, eng)
		}
	}
	return ordered
}

// extractDomain parses the hostname from a URL string.
func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}
