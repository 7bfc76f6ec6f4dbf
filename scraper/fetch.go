package scraper

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"math/rand"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/use-agent/harvest/candidate"
	"github.com/use-agent/harvest/engine"
	"github.com/use-agent/harvest/imaging"
	"github.com/use-agent/harvest/models"
)

type fetchOptions struct {
	referer string
	// allowBinary widens content-type acceptance to generic binary types.
	// Used for original-image resolution where CDNs often mislabel assets.
	allowBinary bool
}

// fetchOutcome is the per-candidate result slot. Outcomes are written by
// worker goroutines into distinct slice indices and merged into the session
// only after the batch barrier, so the session itself has a single writer.
type fetchOutcome struct {
	asset   *models.Asset
	buffer  *models.AssetBuffer
	skipped bool
}

var extensionPattern = regexp.MustCompile(`\.\w+$`)

// fetchAll retrieves every candidate in fixed-size batches. The batch size
// bounds concurrent connections; between batches the scheduler sleeps for
// whatever remains of a random 500-1000ms interval after subtracting the
// batch's own duration.
func (s *Scraper) fetchAll(ctx context.Context, candidates []string, opts fetchOptions, session *models.Session, sink models.ProgressSink) error {
	batchSize := s.extractCfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	batches := (len(candidates) + batchSize - 1) / batchSize

	for bi := 0; bi < batches; bi++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := bi * batchSize
		end := start + batchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		batch := candidates[start:end]
		batchStart := time.Now()

		outcomes := make([]fetchOutcome, len(batch))
		var wg sync.WaitGroup
		for i, cu := range batch {
			wg.Add(1)
			go func(i int, cu string) {
				defer wg.Done()
				outcomes[i] = s.fetchOne(ctx, cu, opts)
			}(i, cu)
		}
		wg.Wait()

		for _, o := range outcomes {
			if o.skipped || o.asset == nil {
				continue
			}
			session.Append(o.asset, o.buffer)
		}

		sink.Publish(models.ProgressEvent{
			Stage:     models.StageFetching,
			Percent:   50 + 40*(bi+1)/batches,
			TargetURL: session.TargetURL,
			Detail:    fmt.Sprintf("batch %d/%d, %d assets", bi+1, batches, len(session.Assets)),
		})

		if bi+1 < batches {
			interval := time.Duration(500+rand.Intn(500)) * time.Millisecond
			if wait := interval - time.Since(batchStart); wait > 0 {
				select {
				case <-time.After(wait):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
	return nil
}

// fetchOne retrieves and classifies a single candidate. Any failure skips
// the candidate without affecting the rest of the batch.
func (s *Scraper) fetchOne(ctx context.Context, candidateURL string, opts fetchOptions) fetchOutcome {
	itemTimeout := s.extractCfg.ItemTimeout
	if itemTimeout <= 0 {
		itemTimeout = 180 * time.Second
	}
	itemCtx, cancel := context.WithTimeout(ctx, itemTimeout)
	defer cancel()

	var data []byte
	if candidate.IsDataURL(candidateURL) {
		decoded, err := decodeDataURL(candidateURL)
		if err != nil {
			slog.Debug("data URL decode failed", "error", err)
			return fetchOutcome{skipped: true}
		}
		data = decoded
	} else {
		result, err := s.dispatcher.Dispatch(itemCtx, &engine.FetchRequest{
			URL:     candidateURL,
			Referer: opts.referer,
			Timeout: itemTimeout,
		})
		if err != nil {
			slog.Debug("candidate fetch failed", "url", candidateURL, "error", err)
			return fetchOutcome{skipped: true}
		}
		if !acceptableContentType(result.ContentType, opts.allowBinary) {
			slog.Debug("candidate rejected by content type",
				"url", candidateURL, "content_type", result.ContentType)
			return fetchOutcome{skipped: true}
		}
		data = result.Body
	}

	if len(data) == 0 {
		return fetchOutcome{skipped: true}
	}

	info, stored, err := imaging.Classify(data)
	if err != nil {
		slog.Debug("candidate classification failed", "url", candidateURL, "error", err)
		return fetchOutcome{skipped: true}
	}

	id := uuid.NewString()
	name := displayName(candidateURL, id)
	asset := &models.Asset{
		ID:        id,
		SourceURL: candidateURL,
		Name:      name,
		Format:    info.Format,
		Width:     info.Width,
		Height:    info.Height,
		PixelArea: info.PixelArea,
		ByteSize:  len(stored),
	}
	buffer := &models.AssetBuffer{
		ID:     id,
		Name:   name,
		Format: info.Format,
		Data:   stored,
	}
	return fetchOutcome{asset: asset, buffer: buffer}
}

// acceptableContentType accepts image/* plus, when allowBinary is set, the
// generic binary types some image CDNs serve originals under.
func acceptableContentType(ct string, allowBinary bool) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if strings.HasPrefix(ct, "image/") {
		return true
	}
	if !allowBinary {
		return false
	}
	switch ct {
	case "application/octet-stream", "application/binary", "application/x-binary":
		return true
	}
	return false
}

// displayName derives a human-readable name from the candidate URL: the last
// path segment with query and extension stripped. Data URLs and extension-less
// paths fall back to the asset ID.
func displayName(candidateURL, id string) string {
	if candidate.IsDataURL(candidateURL) {
		return id
	}
	seg := candidateURL
	if i := strings.IndexByte(seg, '?'); i >= 0 {
		seg = seg[:i]
	}
	if i := strings.LastIndexByte(seg, '/'); i >= 0 {
		seg = seg[i+1:]
	}
	if seg == "" || !extensionPattern.MatchString(seg) {
		return id
	}
	return extensionPattern.ReplaceAllString(seg, "")
}

// decodeDataURL extracts the payload of a data: URL, handling both base64
// and percent-encoded forms.
func decodeDataURL(u string) ([]byte, error) {
	comma := strings.IndexByte(u, ',')
	if comma < 0 {
		return nil, fmt.Errorf("malformed data URL")
	}
	meta, payload := u[5:comma], u[comma+1:]
	if strings.HasSuffix(meta, ";base64") {
		return base64.StdEncoding.DecodeString(payload)
	}
	decoded, err := url.PathUnescape(payload)
	if err != nil {
		return nil, err
	}
	return []byte(decoded), nil
}
