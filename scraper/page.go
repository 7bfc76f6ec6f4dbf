package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/harvest/models"
)

// DoExtract runs the full extraction pipeline for one target URL and fills
// the session's asset and buffer collections.
//
// Lifecycle (numbered steps match the inline comments):
//
//  1. Timeout guard          – hard deadline on navigation + rendering
//  2. Acquire page           – borrow a tab from the pool (or create one)
//  3. DEFER: cleanup         – about:blank + return to pool (leak prevention)
//  4. Stealth injection      – mask navigator.webdriver etc. (before navigation!)
//  5. Hijack mount           – drop ad/tracker requests (before navigation!)
//  6. Viewport + context     – desktop viewport, bind request context
//  7. Navigate               – the only fatal failure point of the session
//  8. Settle                 – DOM stable + fixed settle delay for late JS
//  9. Scroll stabilizer      – reveal lazy-loaded content
//  10. Harvest               – collect candidate URLs from DOM + styles
//  11. Fetch schedule        – retrieve + classify candidates in batches
//
// Steps 4-5 must precede step 7: stealth JS and request interception only
// take effect for navigations that happen after they are installed.
func (s *Scraper) DoExtract(ctx context.Context, req *models.ExtractRequest, session *models.Session, sink models.ProgressSink) (*ExtractResult, error) {
	if sink == nil {
		sink = models.NopSink{}
	}
	session.State = models.SessionRunning

	// ── 1. Timeout guard (navigation + rendering only; the fetch phase
	// has its own per-item deadlines) ─────────────────────────────────
	navCtx, cancel := context.WithTimeout(ctx, s.sessionTimeout(req.Timeout))
	defer cancel()

	// ── 2. Acquire page from pool ─────────────────────────────────────
	s.activePages.Add(1)
	defer s.activePages.Add(-1)

	page, acquireErr := s.pagePool.Get(func() (*rod.Page, error) {
		return s.browser.Page(proto.TargetCreateTarget{})
	})
	if acquireErr != nil {
		session.State = models.SessionFailed
		return nil, models.NewExtractError(
			models.ErrCodeBrowserCrash,
			"failed to acquire page from pool",
			acquireErr,
		)
	}

	// ── 3. CRITICAL DEFER: prevent DOM memory leak + guarantee pool return
	defer func() {
		if navErr := page.Navigate("about:blank"); navErr != nil {
			slog.Warn("cleanup: failed to navigate to about:blank",
				"error", navErr,
			)
		}
		s.pagePool.Put(page)
	}()

	publish(sink, models.StageSessionOpened, session.TargetURL, "")

	// ── 4. Stealth injection ──────────────────────────────────────────
	if req.Stealth != nil && *req.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth",
				"error", evalErr,
			)
		}
	}

	// ── 5. Mount hijack router (drops ad/tracker requests) ────────────
	router := setupHijack(page, s.extractCfg.BlockAds)
	if router != nil {
		defer func() { _ = router.Stop() }()
	}

	// ── 6. Desktop viewport + request context ─────────────────────────
	_ = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             1600,
		Height:            1000,
		DeviceScaleFactor: 1,
	})
	p := page.Context(navCtx)

	// ── 7. Navigate: the only session-fatal failure ───────────────────
	navStart := time.Now()
	if navErr := p.Navigate(req.URL); navErr != nil {
		session.State = models.SessionFailed
		return nil, categorizeError(navErr, "navigation to target URL failed")
	}

	// ── 8. Settle: DOM stable, then a fixed delay for late-loading JS ──
	if stableErr := p.WaitDOMStable(300*time.Millisecond, 0.1); stableErr != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM",
			"error", stableErr,
		)
	}
	select {
	case <-time.After(s.extractCfg.SettleDelay):
	case <-navCtx.Done():
		session.State = models.SessionFailed
		return nil, categorizeError(navCtx.Err(), "page settle interrupted")
	}
	navigationMs := time.Since(navStart).Milliseconds()
	publish(sink, models.StagePageLoaded, session.TargetURL, "")

	title := evalStringOrEmpty(p, `() => document.title`)

	// ── 9. Scroll to stability ────────────────────────────────────────
	publish(sink, models.StageScrolling, session.TargetURL, "")
	scrollStart := time.Now()
	maxScroll := req.MaxScroll
	if maxScroll <= 0 {
		maxScroll = s.extractCfg.MaxScroll
	}
	if scrollErr := s.stabilizeScroll(p, maxScroll); scrollErr != nil {
		slog.Warn("scroll stabilizer failed, harvesting current DOM",
			"url", req.URL, "error", scrollErr,
		)
	}
	scrollMs := time.Since(scrollStart).Milliseconds()

	// ── 10. Harvest candidates ────────────────────────────────────────
	origin, originErr := pageOrigin(req.URL)
	if originErr != nil {
		session.State = models.SessionFailed
		return nil, models.NewExtractError(models.ErrCodeInvalidInput, "unparsable target URL", originErr)
	}
	candidates, harvestErr := s.harvestCandidates(p, origin)
	if harvestErr != nil {
		session.State = models.SessionFailed
		return nil, categorizeError(harvestErr, "candidate harvesting failed")
	}
	publish(sink, models.StageHarvesting, session.TargetURL,
		fmt.Sprintf("%d candidates", len(candidates)))
	slog.Info("candidates harvested", "url", req.URL, "count", len(candidates))

	// ── 11. Fetch + classify in throttled batches ─────────────────────
	fetchStart := time.Now()
	if fetchErr := s.fetchAll(ctx, candidates, fetchOptions{
		referer:     req.URL,
		allowBinary: false,
	}, session, sink); fetchErr != nil {
		session.State = models.SessionFailed
		return nil, categorizeError(fetchErr, "fetch phase interrupted")
	}
	fetchMs := time.Since(fetchStart).Milliseconds()

	session.State = models.SessionCompleted
	publish(sink, models.StageDone, session.TargetURL,
		fmt.Sprintf("%d assets", len(session.Assets)))

	return &ExtractResult{
		Title:          title,
		CandidateCount: len(candidates),
		Timing: models.TimingInfo{
			NavigationMs: navigationMs,
			ScrollMs:     scrollMs,
			FetchMs:      fetchMs,
		},
	}, nil
}

// MatchOriginal runs the second-pass original-image resolution over the
// session's already-extracted assets: the strategy table derives candidate
// originals (via URL transforms, page-script queries, or both), and the
// merged, deduplicated set goes back through the fetch scheduler with the
// generic-binary content types whitelisted.
func (s *Scraper) MatchOriginal(ctx context.Context, session *models.Session, pageURL string, sink models.ProgressSink) (*ExtractResult, error) {
	if sink == nil {
		sink = models.NopSink{}
	}
	if pageURL == "" {
		pageURL = session.TargetURL
	}

	res := s.strategies.Resolve(pageURL, session.Assets)
	slog.Info("original resolution strategy selected",
		"strategy", res.Strategy, "pageURL", pageURL, "transformed", len(res.URLs))

	urls := res.URLs
	if res.Script != "" {
		scriptURLs, err := s.queryPage(ctx, pageURL, res.Script)
		if err != nil {
			return nil, err
		}
		urls = append(urls, scriptURLs...)
	}
	urls = dedupAgainstSession(urls, session)

	publish(sink, models.StageHarvesting, pageURL,
		fmt.Sprintf("%d original candidates", len(urls)))

	fetchStart := time.Now()
	if fetchErr := s.fetchAll(ctx, urls, fetchOptions{
		referer:     pageURL,
		allowBinary: true,
	}, session, sink); fetchErr != nil {
		return nil, categorizeError(fetchErr, "original fetch phase interrupted")
	}

	publish(sink, models.StageDone, pageURL,
		fmt.Sprintf("%d assets", len(session.Assets)))

	return &ExtractResult{
		CandidateCount: len(urls),
		Timing:         models.TimingInfo{FetchMs: time.Since(fetchStart).Milliseconds()},
	}, nil
}

// queryPage navigates a pooled page to pageURL and evaluates a resolver
// script payload, returning its URL array.
func (s *Scraper) queryPage(ctx context.Context, pageURL, script string) ([]string, error) {
	navCtx, cancel := context.WithTimeout(ctx, s.extractCfg.MaxTimeout)
	defer cancel()

	s.activePages.Add(1)
	defer s.activePages.Add(-1)

	page, err := s.pagePool.Get(func() (*rod.Page, error) {
		return s.browser.Page(proto.TargetCreateTarget{})
	})
	if err != nil {
		return nil, models.NewExtractError(models.ErrCodeBrowserCrash, "failed to acquire page from pool", err)
	}
	defer func() {
		_ = page.Navigate("about:blank")
		s.pagePool.Put(page)
	}()

	p := page.Context(navCtx)
	if err := p.Navigate(pageURL); err != nil {
		return nil, categorizeError(err, "navigation for original resolution failed")
	}
	_ = p.WaitDOMStable(300*time.Millisecond, 0.1)

	res, err := p.Eval(script)
	if err != nil {
		return nil, categorizeError(err, "original resolution script failed")
	}
	return stringsFromJSON(res.Value), nil
}

// dedupAgainstSession drops candidates already fetched into the session,
// then applies exact-string dedup.
func dedupAgainstSession(urls []string, session *models.Session) []string {
	seen := make(map[string]struct{}, len(session.Assets))
	for _, a := range session.Assets {
		seen[a.SourceURL] = struct{}{}
	}
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// pageOrigin returns the protocol+domain prefix used to absolutize
// relative candidate URLs.
func pageOrigin(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("URL %q has no scheme or host", rawURL)
	}
	return u.Scheme + "://" + u.Host, nil
}

// sessionTimeout converts the request's timeout in seconds to the effective
// navigation deadline: the configured default when the request leaves it
// unset, clamped to the configured maximum.
func (s *Scraper) sessionTimeout(seconds int) time.Duration {
	timeout := time.Duration(seconds) * time.Second
	if timeout <= 0 {
		timeout = s.extractCfg.DefaultTimeout
	}
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	if s.extractCfg.MaxTimeout > 0 && timeout > s.extractCfg.MaxTimeout {
		timeout = s.extractCfg.MaxTimeout
	}
	return timeout
}

// publish emits a progress event with the stage's checkpoint percentage.
func publish(sink models.ProgressSink, stage models.Stage, targetURL, detail string) {
	sink.Publish(models.ProgressEvent{
		Stage:     stage,
		Percent:   stage.Percent(),
		TargetURL: targetURL,
		Detail:    detail,
	})
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors (useful for optional metadata extraction).
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// categorizeError wraps raw errors into typed ExtractErrors so the API layer
// can map them to appropriate HTTP status codes.
func categorizeError(err error, msg string) *models.ExtractError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewExtractError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewExtractError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewExtractError(models.ErrCodeNavigation, msg, err)
	}
}
