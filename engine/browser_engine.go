package engine

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// PageFunc lends a fresh browser page to the engine and is injected from
// main.go to avoid a circular import (engine/ -> scraper/). The returned
// release function must be called exactly once.
type PageFunc func() (page *rod.Page, release func(), err error)

// BrowserEngine retrieves image bytes by navigating a real browser page to
// the URL and capturing the document response body over CDP. It is the slow
// path for hosts that reject direct HTTP fetches (cookie walls, JS
// challenges, strict hotlink protection).
type BrowserEngine struct {
	newPage PageFunc
}

// NewBrowserEngine creates a BrowserEngine backed by the given page source.
func NewBrowserEngine(newPage PageFunc) *BrowserEngine {
	return &BrowserEngine{newPage: newPage}
}

func (e *BrowserEngine) Name() string { return "browser" }

func (e *BrowserEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if e.newPage == nil {
		return nil, fmt.Errorf("browser: page source not configured")
	}

	page, release, err := e.newPage()
	if err != nil {
		return nil, fmt.Errorf("browser: acquire page: %w", err)
	}
	defer release()

	p := page.Context(ctx)

	if len(req.Headers) > 0 || req.Referer != "" {
		headers := make([]string, 0, (len(req.Headers)+1)*2)
		if req.Referer != "" {
			headers = append(headers, "Referer", req.Referer)
		}
		for k, v := range req.Headers {
			headers = append(headers, k, v)
		}
		if _, err := p.SetExtraHeaders(headers); err != nil {
			return nil, fmt.Errorf("browser: set headers: %w", err)
		}
	}

	// The response body must be captured from the network event of the
	// document request; the listener has to be registered before Navigate
	// or in-flight responses are missed.
	var contentType string
	var requestID proto.NetworkRequestID
	wait := p.EachEvent(func(ev *proto.NetworkResponseReceived) bool {
		if ev.Type == proto.NetworkResourceTypeDocument {
			contentType = ev.Response.MIMEType
			requestID = ev.RequestID
			return true
		}
		return false
	})

	if err := p.Navigate(req.URL); err != nil {
		return nil, fmt.Errorf("browser: navigate: %w", err)
	}
	wait()

	if err := p.WaitLoad(); err != nil {
		return nil, fmt.Errorf("browser: wait load: %w", err)
	}

	body, err := proto.NetworkGetResponseBody{RequestID: requestID}.Call(p)
	if err != nil {
		return nil, fmt.Errorf("browser: read response body: %w", err)
	}

	data := []byte(body.Body)
	if body.Base64Encoded {
		data, err = base64.StdEncoding.DecodeString(body.Body)
		if err != nil {
			return nil, fmt.Errorf("browser: decode response body: %w", err)
		}
	}

	return &FetchResult{
		ContentType: contentType,
		Body:        data,
		EngineName:  e.Name(),
	}, nil
}
