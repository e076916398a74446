package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/CLillis357/VigilantIE/internal/config"
	"github.com/CLillis357/VigilantIE/internal/domain"
)

var _ Notifier = (*Webhook)(nil)

// Webhook POSTs the alert as JSON, retrying with linear back-off.
type Webhook struct {
	logger     *slog.Logger
	url        string
	http       *http.Client
	maxRetries int
	backoff    time.Duration
}

func NewWebhook(logger *slog.Logger, cfg config.WebhookConfig) *Webhook {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 3
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = time.Second
	}
	return &Webhook{
		logger:     logger,
		url:        cfg.URL,
		http:       &http.Client{Timeout: timeout},
		maxRetries: retries,
		backoff:    backoff,
	}
}

func (w *Webhook) Name() string { return "webhook" }

func (w *Webhook) Notify(ctx context.Context, ev domain.AlertEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	var reason string
	for attempt := 1; attempt <= w.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create webhook request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := w.http.Do(req)
		if err == nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
			_ = resp.Body.Close()
			return nil
		}
		if resp != nil {
			_ = resp.Body.Close()
		}

		if err != nil {
			reason = err.Error()
		} else {
			reason = resp.Status
		}

		w.logger.Warn("webhook failed",
			slog.Int("attempt", attempt),
			slog.String("url", w.url),
			slog.String("alert_id", ev.ID.String()),
			slog.String("reason", reason),
		)

		if attempt == w.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * w.backoff):
		}
	}

	return fmt.Errorf("webhook gave up after %d attempts: %s", w.maxRetries, reason)
}
