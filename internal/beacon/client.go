// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

// Package beacon is the HTTP client for the Beacon CRM developer API.
//
// The API has shipped two response shapes over its lifetime: the documented
// one ({"data": [...], "meta": {...}}) and an older one ({"results": [...]}
// or a bare list). Client accepts both and walks pages until one of the
// termination rules in FetchAll fires.
package beacon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/beaconkpi/internal/config"
	"github.com/tomtom215/beaconkpi/internal/logging"
	"github.com/tomtom215/beaconkpi/internal/metrics"
	"github.com/tomtom215/beaconkpi/internal/syncerr"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "https://api.beaconcrm.org/v1/account/{account_id}"

const (
	defaultPerPage  = 50
	defaultMaxPages = 200
	defaultTimeout  = 45 * time.Second

	// maxAttempts counts the first request, so 429/5xx get three retries.
	maxAttempts = 4

	// defaultMaxRetryDelay caps both the backoff and a server Retry-After.
	defaultMaxRetryDelay = 30 * time.Second

	// maxErrorBody bounds the response text carried in APIError.
	maxErrorBody = 500

	// maxPageBody bounds a single decoded page.
	maxPageBody = 32 << 20
)

var (
	// ErrMissingAPIKey is returned when no API key is configured.
	ErrMissingAPIKey = errors.New("missing BEACON_API_KEY")

	// ErrMissingAccountID is returned when the base URL needs an account id
	// and none is configured.
	ErrMissingAccountID = errors.New("missing BEACON_ACCOUNT_ID for base URL template")
)

// Fetcher is the subset of Client used by the sync pipeline.
type Fetcher interface {
	FetchAll(ctx context.Context, endpoint string) ([]any, error)
}

// Client talks to one Beacon account.
type Client struct {
	baseURL  string
	apiKey   string
	perPage  int
	maxPages int

	client  *http.Client
	limiter *rate.Limiter
	breaker *circuitBreaker

	retryBaseDelay time.Duration
	maxRetryDelay  time.Duration

	log zerolog.Logger
}

// NewClient builds a client from configuration. A missing API key or account
// id is a fatal configuration error.
func NewClient(cfg *config.BeaconConfig) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, syncerr.Fatal("beacon client", ErrMissingAPIKey)
	}

	base, err := ResolveBaseURL(cfg.BaseURL, cfg.AccountID)
	if err != nil {
		return nil, syncerr.Fatal("beacon client", err)
	}

	perPage := cfg.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	log := logging.WithComponent("beacon")
	return &Client{
		baseURL:        base,
		apiKey:         cfg.APIKey,
		perPage:        perPage,
		maxPages:       maxPages,
		client:         &http.Client{Timeout: timeout},
		limiter:        rate.NewLimiter(limit, 1),
		breaker:        newCircuitBreaker("beacon-api", log),
		retryBaseDelay: time.Second,
		maxRetryDelay:  defaultMaxRetryDelay,
		log:            log,
	}, nil
}

// ResolveBaseURL substitutes {account_id} into base (DefaultBaseURL when
// blank) and trims the trailing slash.
func ResolveBaseURL(base, accountID string) (string, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		base = DefaultBaseURL
	}
	if strings.Contains(base, "{account_id}") {
		accountID = strings.TrimSpace(accountID)
		if accountID == "" {
			return "", ErrMissingAccountID
		}
		base = strings.ReplaceAll(base, "{account_id}", accountID)
	}
	return strings.TrimRight(base, "/"), nil
}

// EntityURL joins a resolved base URL and an endpoint. An endpoint starting
// with "/" is appended verbatim; otherwise it goes under /entities.
func EntityURL(base, endpoint string) string {
	switch {
	case strings.HasPrefix(endpoint, "/"):
		return base + endpoint
	case strings.HasSuffix(base, "/entities"):
		return base + "/" + endpoint
	default:
		return base + "/entities/" + endpoint
	}
}

// APIError is a non-2xx response from Beacon.
type APIError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("beacon API error %d for %s: %s", e.StatusCode, e.Endpoint, e.Body)
}

// Kind reports 429 and gateway failures as retryable and everything else
// as fatal.
func (e *APIError) Kind() syncerr.Kind {
	if retryableStatus(e.StatusCode) {
		return syncerr.KindRetryable
	}
	return syncerr.KindFatal
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// response is one decoded HTTP round trip.
type response struct {
	StatusCode int
	Payload    any
	Body       []byte
	Elapsed    time.Duration
	RetryAfter time.Duration
}

// FetchAll returns every record of endpoint, walking pages of perPage.
//
// After each page the walk stops, in order, when the page is empty, when it
// is short, when the cumulative count reaches the reported total, or when
// the reported current page reaches the reported page count. It never
// requests more than maxPages pages.
func (c *Client) FetchAll(ctx context.Context, endpoint string) ([]any, error) {
	start := time.Now()
	defer func() {
		metrics.BeaconFetchDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	var all []any
	page := 1
	for ; page <= c.maxPages; page++ {
		resp, err := c.fetchPage(ctx, endpoint, page, c.perPage)
		if err != nil {
			return nil, err
		}

		records := ExtractResultList(resp.Payload)
		if len(records) == 0 {
			break
		}
		all = append(all, records...)
		metrics.BeaconRecordsFetched.WithLabelValues(endpoint).Add(float64(len(records)))

		if len(records) < c.perPage {
			break
		}
		if total, ok := ExtractTotalCount(resp.Payload); ok && len(all) >= total {
			break
		}
		if current, pages, ok := ExtractPageProgress(resp.Payload); ok && current >= pages {
			break
		}
	}

	if page > c.maxPages {
		c.log.Warn().Str("endpoint", endpoint).Int("max_pages", c.maxPages).Int("records", len(all)).
			Msg("Beacon fetch stopped at page limit")
	}

	c.log.Debug().Str("endpoint", endpoint).Int("records", len(all)).Dur("elapsed", time.Since(start)).
		Msg("Beacon fetch complete")

	if all == nil {
		all = []any{}
	}
	return all, nil
}

// fetchPage runs requestPage through the circuit breaker.
func (c *Client) fetchPage(ctx context.Context, endpoint string, page, perPage int) (*response, error) {
	return c.breaker.execute(func() (*response, error) {
		return c.requestPage(ctx, endpoint, page, perPage)
	})
}

// requestPage requests one page, retrying 429/5xx with exponential backoff
// (1s, 2s, 4s) or the server's Retry-After, both capped at maxRetryDelay.
// Any other status >= 400 fails immediately.
func (c *Client) requestPage(ctx context.Context, endpoint string, page, perPage int) (*response, error) {
	var resp *response
	for attempt := 0; attempt < maxAttempts; attempt++ {
		var err error
		resp, err = c.do(ctx, endpoint, page, perPage)
		if err != nil {
			return nil, err
		}
		if !retryableStatus(resp.StatusCode) {
			break
		}
		if attempt == maxAttempts-1 {
			break
		}

		metrics.BeaconRequestRetries.WithLabelValues(endpoint).Inc()
		delay := c.retryDelay(attempt, resp.RetryAfter)
		c.log.Debug().Str("endpoint", endpoint).Int("page", page).Int("status", resp.StatusCode).
			Dur("delay", delay).Msg("Beacon request throttled, retrying")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &APIError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       truncateBody(resp.Body),
		}
	}
	if err := decodePayload(resp); err != nil {
		return nil, syncerr.Retryable("decode "+endpoint+" page "+strconv.Itoa(page), err)
	}
	return resp, nil
}

// retryDelay returns the wait before retry attempt+1.
func (c *Client) retryDelay(attempt int, retryAfter time.Duration) time.Duration {
	delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))
	if retryAfter > 0 {
		delay = retryAfter
	}
	return min(delay, c.maxRetryDelay)
}

// parseRetryAfter reads a Retry-After value given in seconds or as an HTTP
// date. Missing, malformed or past values return 0.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

// do performs a single paced GET. The body is read but not decoded.
func (c *Client) do(ctx context.Context, endpoint string, page, perPage int) (*response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("sort_by", "created_at")
	params.Set("sort_direction", "desc")
	reqURL := EntityURL(c.baseURL, endpoint) + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, syncerr.Fatal("build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Beacon-Application", "developer_api")

	started := time.Now()
	httpResp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, syncerr.Retryable("GET "+endpoint, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxPageBody))
	if err != nil {
		return nil, syncerr.Retryable("read "+endpoint, err)
	}

	metrics.BeaconRequests.WithLabelValues(endpoint, strconv.Itoa(httpResp.StatusCode)).Inc()

	return &response{
		StatusCode: httpResp.StatusCode,
		Body:       body,
		Elapsed:    time.Since(started),
		RetryAfter: parseRetryAfter(httpResp.Header.Get("Retry-After"), time.Now()),
	}, nil
}

func decodePayload(resp *response) error {
	if len(resp.Body) == 0 {
		resp.Payload = nil
		return nil
	}
	return json.Unmarshal(resp.Body, &resp.Payload)
}

func truncateBody(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		s = strings.ToValidUTF8(s[:maxErrorBody], "")
	}
	if s == "" {
		return "no details"
	}
	return s
}

// ExtractResultList returns the records of a page: the payload itself when
// it is a list, else its "results" list, else its "data" list, else empty.
func ExtractResultList(payload any) []any {
	switch v := payload.(type) {
	case []any:
		return v
	case map[string]any:
		if list, ok := v["results"].([]any); ok {
			return list
		}
		if list, ok := v["data"].([]any); ok {
			return list
		}
	}
	return nil
}

// ExtractTotalCount returns meta.total, falling back to a top-level total.
func ExtractTotalCount(payload any) (int, bool) {
	m, ok := payload.(map[string]any)
	if !ok {
		return 0, false
	}
	if meta, ok := m["meta"].(map[string]any); ok {
		if total, ok := asInt(meta["total"]); ok {
			return total, true
		}
	}
	return asInt(m["total"])
}

// ExtractPageProgress returns (current_page, total_pages) from meta, falling
// back to the top level. Both must be present at the same level.
func ExtractPageProgress(payload any) (current, total int, ok bool) {
	m, isMap := payload.(map[string]any)
	if !isMap {
		return 0, 0, false
	}
	if meta, isMeta := m["meta"].(map[string]any); isMeta {
		c, cok := asInt(meta["current_page"])
		t, tok := asInt(meta["total_pages"])
		if cok && tok {
			return c, t, true
		}
	}
	c, cok := asInt(m["current_page"])
	t, tok := asInt(m["total_pages"])
	if cok && tok {
		return c, t, true
	}
	return 0, 0, false
}

// asInt accepts JSON numbers that hold a whole value.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	}
	return 0, false
}
