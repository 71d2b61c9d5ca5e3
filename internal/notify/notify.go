// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

// Package notify sends sync outcome notifications to an outbound webhook.
package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/beaconkpi/internal/config"
	"github.com/tomtom215/beaconkpi/internal/logging"
	"github.com/tomtom215/beaconkpi/internal/metrics"
)

// Event identifies what a notification reports.
type Event string

const (
	EventSyncFailed    Event = "sync.failed"
	EventSyncRecovered Event = "sync.recovered"
	EventSyncSucceeded Event = "sync.succeeded"
)

// Notification is one outbound message.
type Notification struct {
	Event   Event          `json:"event"`
	Title   string         `json:"title"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Notifier delivers notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Nop discards notifications. It is used when no webhook is configured.
type Nop struct{}

func (Nop) Notify(context.Context, Notification) error { return nil }

// payload is the JSON body posted to the webhook. Text duplicates the
// message for chat webhooks that only read a top-level "text" field.
type payload struct {
	Event     Event          `json:"event"`
	Timestamp time.Time      `json:"timestamp"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Text      string         `json:"text"`
	Details   map[string]any `json:"details,omitempty"`
}

// Webhook posts notifications as JSON. Sends are paced by a token bucket so
// a flapping sync cannot flood the receiving channel.
type Webhook struct {
	url     string
	client  *http.Client
	limiter *rate.Limiter
	now     func() time.Time
}

// ErrInvalidWebhookURL is returned for URLs without an http(s) scheme and host.
var ErrInvalidWebhookURL = errors.New("webhook URL must be an absolute http or https URL")

// New returns a Webhook for cfg, or Nop when no URL is configured.
func New(cfg *config.NotifyConfig) (Notifier, error) {
	if cfg.WebhookURL == "" {
		return Nop{}, nil
	}
	return NewWebhook(cfg.WebhookURL, cfg.Timeout, cfg.RateLimit)
}

// NewWebhook returns a Webhook. A non-positive interval disables pacing.
func NewWebhook(rawURL string, timeout, interval time.Duration) (*Webhook, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrInvalidWebhookURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Webhook{
		url:     rawURL,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, 1),
		now:     time.Now,
	}, nil
}

// Notify posts n. Any non-2xx response is an error.
func (w *Webhook) Notify(ctx context.Context, n Notification) error {
	err := w.send(ctx, n)
	result := "success"
	if err != nil {
		result = "failure"
		logging.Warn().Err(err).Str("event", string(n.Event)).Msg("Sync notification failed")
	}
	metrics.NotificationsSent.WithLabelValues(string(n.Event), result).Inc()
	return err
}

func (w *Webhook) send(ctx context.Context, n Notification) error {
	if err := w.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("notification rate limit: %w", err)
	}

	body, err := json.Marshal(payload{
		Event:     n.Event,
		Timestamp: w.now().UTC(),
		Title:     n.Title,
		Message:   n.Message,
		Text:      n.Title + ": " + n.Message,
		Details:   n.Details,
	})
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "BeaconKPI-Sync/1.0")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
