package scraper

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/engine"
	"github.com/use-agent/harvest/models"
)

func TestAcceptableContentType_ImageAlwaysAccepted(t *testing.T) {
	for _, ct := range []string{"image/jpeg", "image/png; charset=binary", "IMAGE/WEBP"} {
		if !acceptableContentType(ct, false) {
			t.Errorf("content type %q should be accepted", ct)
		}
	}
}

func TestAcceptableContentType_BinaryOnlyWhenAllowed(t *testing.T) {
	binaries := []string{"application/octet-stream", "application/binary", "application/x-binary"}
	for _, ct := range binaries {
		if acceptableContentType(ct, false) {
			t.Errorf("content type %q should be rejected without allowBinary", ct)
		}
		if !acceptableContentType(ct, true) {
			t.Errorf("content type %q should be accepted with allowBinary", ct)
		}
	}
}

func TestAcceptableContentType_HTMLRejected(t *testing.T) {
	if acceptableContentType("text/html", true) {
		t.Error("text/html should never be accepted")
	}
}

func TestDisplayName_LastSegmentQueryStripped(t *testing.T) {
	got := displayName("https://cdn.example.com/photos/sunset.jpg?w=1200&q=80", "fallback-id")
	if got != "sunset" {
		t.Errorf("displayName = %q, want %q", got, "sunset")
	}
}

func TestDisplayName_NoExtensionFallsBackToID(t *testing.T) {
	got := displayName("https://cdn.example.com/photos/sunset", "fallback-id")
	if got != "fallback-id" {
		t.Errorf("displayName = %q, want fallback id", got)
	}
}

func TestDisplayName_DataURLUsesID(t *testing.T) {
	got := displayName("data:image/svg+xml,%3Csvg%3E", "fallback-id")
	if got != "fallback-id" {
		t.Errorf("displayName = %q, want fallback id", got)
	}
}

func TestDecodeDataURL_Base64(t *testing.T) {
	data, err := decodeDataURL("data:image/png;base64,aGVsbG8=")
	if err != nil {
		t.Fatalf("decodeDataURL: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("decoded %q, want %q", data, "hello")
	}
}

func TestDecodeDataURL_PercentEncoded(t *testing.T) {
	data, err := decodeDataURL("data:image/svg+xml,%3Csvg%20width%3D%2210%22%3E%3C%2Fsvg%3E")
	if err != nil {
		t.Fatalf("decodeDataURL: %v", err)
	}
	if !strings.Contains(string(data), `<svg width="10">`) {
		t.Errorf("decoded payload missing SVG markup: %q", data)
	}
}

func TestDecodeDataURL_Malformed(t *testing.T) {
	if _, err := decodeDataURL("data:image/png"); err == nil {
		t.Error("data URL without a comma should fail")
	}
}

func TestDedupAgainstSession(t *testing.T) {
	session := models.NewSession("https://example.com", "default")
	session.Append(
		&models.Asset{ID: "a", SourceURL: "https://example.com/a.png"},
		&models.AssetBuffer{ID: "a"},
	)

	urls := []string{
		"https://example.com/a.png",
		"https://example.com/b.png",
		"https://example.com/b.png",
		"",
	}
	got := dedupAgainstSession(urls, session)
	if len(got) != 1 || got[0] != "https://example.com/b.png" {
		t.Errorf("dedupAgainstSession = %v, want only b.png", got)
	}
}

func TestPageOrigin(t *testing.T) {
	origin, err := pageOrigin("https://www.example.com/gallery/page?x=1")
	if err != nil {
		t.Fatalf("pageOrigin: %v", err)
	}
	if origin != "https://www.example.com" {
		t.Errorf("pageOrigin = %q", origin)
	}

	if _, err := pageOrigin("not a url"); err == nil {
		t.Error("pageOrigin should reject URLs without scheme or host")
	}
}

// scheduledEngine records scheduling observations: the high-water mark of
// concurrent fetches, and whether any item of batch k+1 started before all
// of batch k completed. Item URLs carry their index so the engine can
// derive the batch number.
type scheduledEngine struct {
	batchSize int

	mu        sync.Mutex
	active    int
	peak      int
	done      map[int]int
	violation string
}

func (e *scheduledEngine) Name() string { return "fake" }

func (e *scheduledEngine) Fetch(ctx context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
	idx := itemIndex(req.URL)
	batch := idx / e.batchSize

	e.mu.Lock()
	e.active++
	if e.active > e.peak {
		e.peak = e.active
	}
	if batch > 0 && e.done[batch-1] < e.batchSize && e.violation == "" {
		e.violation = fmt.Sprintf("item %d started with only %d/%d of the previous batch settled",
			idx, e.done[batch-1], e.batchSize)
	}
	e.mu.Unlock()

	e.mu.Lock()
	e.active--
	e.done[batch]++
	e.mu.Unlock()

	return &engine.FetchResult{
		ContentType: "image/png",
		Body:        []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A},
	}, nil
}

func itemIndex(u string) int {
	seg := u[strings.LastIndexByte(u, '-')+1:]
	seg = strings.TrimSuffix(seg, ".png")
	n, _ := strconv.Atoi(seg)
	return n
}

func TestFetchAll_SchedulesInThrottledBatches(t *testing.T) {
	fake := &scheduledEngine{batchSize: 100, done: make(map[int]int)}
	mem := engine.NewDomainMemory(time.Hour)
	t.Cleanup(mem.Stop)

	s := &Scraper{
		extractCfg: config.ExtractConfig{
			BatchSize:   100,
			ItemTimeout: time.Minute,
		},
		dispatcher: engine.NewDispatcher([]engine.Engine{fake}, mem),
	}

	urls := make([]string, 250)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://cdn.test/img-%d.png", i)
	}

	session := models.NewSession("https://site.test", "default")
	start := time.Now()
	err := s.fetchAll(context.Background(), urls, fetchOptions{referer: "https://site.test"}, session, models.NopSink{})
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("fetchAll: %v", err)
	}

	if len(session.Assets) != 250 || len(session.Buffers) != 250 {
		t.Fatalf("got %d assets, %d buffers, want 250 each", len(session.Assets), len(session.Buffers))
	}
	for _, a := range session.Assets {
		if _, ok := session.Buffer(a.ID); !ok {
			t.Fatalf("asset %s has no paired buffer", a.ID)
		}
	}

	if fake.peak > 100 {
		t.Errorf("concurrent fetches peaked at %d, batch size is the cap", fake.peak)
	}
	if fake.violation != "" {
		t.Error(fake.violation)
	}

	// Three batches mean two inter-batch pauses, each the residue of a
	// random 500-1000ms interval minus the (near-instant) batch duration.
	if elapsed < 900*time.Millisecond {
		t.Errorf("elapsed %v, want at least two ~500ms inter-batch pauses", elapsed)
	}
	if elapsed > 4*time.Second {
		t.Errorf("elapsed %v, inter-batch pauses should cap near 1s each", elapsed)
	}
}

func TestFetchAll_ContextCancellationStopsScheduling(t *testing.T) {
	fake := &scheduledEngine{batchSize: 10, done: make(map[int]int)}
	mem := engine.NewDomainMemory(time.Hour)
	t.Cleanup(mem.Stop)

	s := &Scraper{
		extractCfg: config.ExtractConfig{
			BatchSize:   10,
			ItemTimeout: time.Minute,
		},
		dispatcher: engine.NewDispatcher([]engine.Engine{fake}, mem),
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	urls := []string{"https://cdn.test/img-0.png"}
	session := models.NewSession("https://site.test", "default")
	if err := s.fetchAll(ctx, urls, fetchOptions{}, session, models.NopSink{}); err == nil {
		t.Fatal("expected context error from canceled fetch")
	}
	if len(session.Assets) != 0 {
		t.Errorf("canceled run appended %d assets", len(session.Assets))
	}
}
