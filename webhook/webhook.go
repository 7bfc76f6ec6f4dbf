package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/models"
)

// Event is the payload sent to webhook endpoints.
type Event struct {
	Type      string      `json:"type"` // e.g. "extract.progress", "extract.completed", "extract.failed"
	SessionID string      `json:"session_id"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// Deliver sends a webhook event synchronously.
// The request body is signed with HMAC-SHA256 if secret is non-empty.
// Header: X-Harvest-Signature: sha256=<hex>
func Deliver(ctx context.Context, url, secret string, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Harvest-Webhook/1.0")

	if secret != "" {
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(body)
		sig := hex.EncodeToString(mac.Sum(nil))
		req.Header.Set("X-Harvest-Signature", "sha256="+sig)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// DeliverAsync sends a webhook event asynchronously, retrying on a backoff
// ladder of 1s, 5s, 30s. cfg.MaxRetries caps the number of retries after
// the first attempt and cfg.Timeout bounds each HTTP delivery; zero values
// fall back to 3 retries and 10s.
func DeliverAsync(cfg config.WebhookConfig, url, secret string, event *Event) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	go func() {
		for attempt, delay := range retryDelays(cfg.MaxRetries) {
			if delay > 0 {
				time.Sleep(delay)
			}
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			err := Deliver(ctx, url, secret, event)
			cancel()
			if err == nil {
				slog.Info("webhook delivered",
					"url", url,
					"event", event.Type,
					"session_id", event.SessionID,
					"attempt", attempt+1,
				)
				return
			}
			slog.Warn("webhook delivery failed",
				"url", url,
				"event", event.Type,
				"session_id", event.SessionID,
				"attempt", attempt+1,
				"error", err,
			)
		}
		slog.Error("webhook delivery exhausted all retries",
			"url", url,
			"event", event.Type,
			"session_id", event.SessionID,
		)
	}()
}

// retryDelays builds the attempt schedule: an immediate first attempt, then
// maxRetries waits climbing the 1s/5s/30s ladder. Retries beyond the ladder
// hold at 30s.
func retryDelays(maxRetries int) []time.Duration {
	if maxRetries < 0 {
		maxRetries = 0
	} else if maxRetries == 0 {
		maxRetries = 3
	}
	ladder := []time.Duration{1 * time.Second, 5 * time.Second, 30 * time.Second}
	delays := make([]time.Duration, 0, maxRetries+1)
	delays = append(delays, 0)
	for i := 0; i < maxRetries; i++ {
		if i < len(ladder) {
			delays = append(delays, ladder[i])
		} else {
			delays = append(delays, ladder[len(ladder)-1])
		}
	}
	return delays
}

// Sink forwards extraction progress events to a webhook endpoint.
// It implements models.ProgressSink; delivery is fire-and-forget so
// slow endpoints never stall the extraction itself.
type Sink struct {
	Config    config.WebhookConfig
	URL       string
	Secret    string
	SessionID string
}

// Publish sends one progress milestone.
func (s *Sink) Publish(ev models.ProgressEvent) {
	DeliverAsync(s.Config, s.URL, s.Secret, &Event{
		Type:      "extract.progress",
		SessionID: s.SessionID,
		Timestamp: time.Now().UnixMilli(),
		Data:      ev,
	})
}

// LogSink mirrors progress events into the structured log. It is the
// default sink when a request carries no webhook URL.
type LogSink struct {
	SessionID string
}

// Publish logs one progress milestone.
func (s *LogSink) Publish(ev models.ProgressEvent) {
	slog.Info("extraction progress",
		"session_id", s.SessionID,
		"stage", string(ev.Stage),
		"percent", ev.Percent,
		"url", ev.TargetURL,
		"detail", ev.Detail,
	)
}
