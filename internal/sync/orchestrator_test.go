// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package sync

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/beaconkpi/internal/attendance"
	"github.com/tomtom215/beaconkpi/internal/audit"
	"github.com/tomtom215/beaconkpi/internal/beacon"
	"github.com/tomtom215/beaconkpi/internal/logging"
	"github.com/tomtom215/beaconkpi/internal/notify"
	"github.com/tomtom215/beaconkpi/internal/syncerr"
	"github.com/tomtom215/beaconkpi/internal/warehouse"
)

// fakeFetcher serves canned records per endpoint. failures holds errors
// returned, in order, before the endpoint starts succeeding.
type fakeFetcher struct {
	mu       sync.Mutex
	records  map[string][]any
	failures map[string][]error
	calls    map[string]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		records: map[string][]any{
			"person": {
				map[string]any{"entity": map[string]any{"id": 1.0, "name": map[string]any{"full": "Ada Lovelace"}, "type": "Volunteer", "c_region": []any{"North"}}},
				map[string]any{"entity": map[string]any{"id": 2.0, "type": []any{"Donor"}}},
				map[string]any{"entity": map[string]any{"id": 1.0, "type": "Volunteer, Steering", "c_region": []any{"North"}}},
			},
			"organization": {map[string]any{"id": "o1", "type": []any{"Charity"}}},
			"event":        {map[string]any{"id": "e1", "type": "Walk", "start_date": "2025-03-01", "c_region": []any{"North"}}},
			"payment":      {map[string]any{"id": "pay1", "amount": 10.0, "payment_date": "2025-01-01"}},
			"subscription": {map[string]any{"id": "pay1", "amount": 99.0}, map[string]any{"id": "sub2", "amount": 5.0}},
			"grant":        {map[string]any{"id": "g1", "stage": "Won", "amount": 500.0}},
		},
		failures: map[string][]error{},
		calls:    map[string]int{},
	}
}

func (f *fakeFetcher) FetchAll(ctx context.Context, endpoint string) ([]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[endpoint]++
	if errs := f.failures[endpoint]; len(errs) > 0 {
		f.failures[endpoint] = errs[1:]
		return nil, errs[0]
	}
	records, ok := f.records[endpoint]
	if !ok {
		return nil, &beacon.APIError{Endpoint: endpoint, StatusCode: 404, Body: "not found"}
	}
	return records, nil
}

func (f *fakeFetcher) callCount(endpoint string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[endpoint]
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, msg notify.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return n.err
}

func (n *recordingNotifier) events() []notify.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notify.Event, 0, len(n.sent))
	for _, s := range n.sent {
		out = append(out, s.Event)
	}
	return out
}

type countingInvalidator struct{ n int }

func (c *countingInvalidator) Invalidate() { c.n++ }

type recordingArchiver struct {
	names []string
	err   error
}

func (a *recordingArchiver) Archive(_ context.Context, name string, _ any) error {
	a.names = append(a.names, name)
	return a.err
}

type harness struct {
	orch     *Orchestrator
	fetcher  *fakeFetcher
	store    *warehouse.MemoryStore
	audit    *audit.Logger
	notifier *recordingNotifier
	cache    *countingInvalidator
	archiver *recordingArchiver
	progress []string
	waits    []time.Duration
}

func newHarness(t *testing.T, mutate func(*Options)) *harness {
	t.Helper()
	h := &harness{
		fetcher:  newFakeFetcher(),
		store:    warehouse.NewMemoryStore(),
		audit:    audit.NewLogger(audit.NewMemoryStore()),
		notifier: &recordingNotifier{},
		cache:    &countingInvalidator{},
		archiver: &recordingArchiver{},
	}
	opts := Options{
		Fetcher:     h.fetcher,
		Upserter:    warehouse.NewUpserter(h.store, 0, 0),
		Audit:       h.audit,
		Notifier:    h.notifier,
		Cache:       h.cache,
		Archiver:    h.archiver,
		Progress:    func(_ int, msg string) { h.progress = append(h.progress, msg) },
		MaxAttempts: 2,
		RetryDelay:  30 * time.Second,
	}
	if mutate != nil {
		mutate(&opts)
	}
	orch, err := NewOrchestrator(opts)
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	orch.wait = func(_ context.Context, d time.Duration) error {
		h.waits = append(h.waits, d)
		return nil
	}
	h.orch = orch
	return h
}

func (h *harness) actions(t *testing.T) []string {
	t.Helper()
	events, err := h.audit.Query(context.Background(), audit.QueryFilter{Limit: 100})
	if err != nil {
		t.Fatalf("audit query: %v", err)
	}
	// Query is newest first; return chronological order.
	out := make([]string, len(events))
	for i, e := range events {
		out[len(events)-1-i] = e.Action
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNewOrchestrator_RequiresDependencies(t *testing.T) {
	t.Parallel()

	store := warehouse.NewMemoryStore()
	full := Options{
		Fetcher:  newFakeFetcher(),
		Upserter: warehouse.NewUpserter(store, 0, 0),
		Audit:    audit.NewLogger(audit.NewMemoryStore()),
	}

	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"fetcher", func(o *Options) { o.Fetcher = nil }},
		{"upserter", func(o *Options) { o.Upserter = nil }},
		{"audit", func(o *Options) { o.Audit = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			opts := full
			tt.mutate(&opts)
			if _, err := NewOrchestrator(opts); !errors.Is(err, ErrMissingDependency) {
				t.Errorf("err = %v, want ErrMissingDependency", err)
			}
		})
	}

	o, err := NewOrchestrator(full)
	if err != nil {
		t.Fatal(err)
	}
	if o.opts.MaxAttempts != DefaultMaxAttempts || o.opts.RetryDelay != DefaultRetryDelay {
		t.Errorf("defaults not applied: %+v", o.opts)
	}
	if o.State() != StateIdle {
		t.Errorf("initial state = %s", o.State())
	}
}

func TestRun_Success(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	summary, err := h.orch.Run(context.Background(), TriggerCLI)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// person 1 appears twice and dedups; pay1 from payments wins over the
	// subscription with the same id.
	if summary.People != 2 || summary.Organisations != 1 || summary.Events != 1 || summary.Payments != 2 || summary.Grants != 1 {
		t.Errorf("summary counts = %+v", summary)
	}
	if summary.Records() != 7 {
		t.Errorf("records = %d", summary.Records())
	}
	for _, key := range []string{"people", "organisations", "events", "payments", "subscriptions", "grants"} {
		if _, ok := summary.FetchBreakdownMS[key]; !ok {
			t.Errorf("fetch breakdown missing %q", key)
		}
	}
	if _, ok := summary.FetchBreakdownMS[attendanceKey]; ok {
		t.Error("attendance timing recorded without a resolver")
	}
	if h.orch.State() != StateCompleted {
		t.Errorf("state = %s", h.orch.State())
	}

	rows, err := h.store.ReadRows(context.Background(), warehouse.PaymentsTable, warehouse.Window{})
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range rows {
		if r.ID == "pay1" && r.Payload["amount"] != 10.0 {
			t.Errorf("pay1 amount = %v, payment should win over subscription", r.Payload["amount"])
		}
	}

	wantActions := []string{audit.ActionSyncStarted, audit.ActionSyncCompleted}
	if got := h.actions(t); !equalStrings(got, wantActions) {
		t.Errorf("audit actions = %v, want %v", got, wantActions)
	}
	if h.cache.n != 1 {
		t.Errorf("cache invalidated %d times, want 1", h.cache.n)
	}
	if len(h.archiver.names) != 1 || !strings.HasPrefix(h.archiver.names[0], "sync-summary-") {
		t.Errorf("archived = %v", h.archiver.names)
	}
	if len(h.notifier.events()) != 0 {
		t.Errorf("unexpected notifications %v", h.notifier.events())
	}

	perf, err := h.audit.SyncPerformance(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if perf.SampleSize != 1 || perf.Latest.Trigger != TriggerCLI || perf.Latest.RecordsUpserted != 7 {
		t.Errorf("performance = %+v latest=%+v", perf, perf.Latest)
	}
}

func TestRun_ProgressMessages(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	if _, err := h.orch.Run(context.Background(), TriggerManual); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"5% | Starting Beacon API sync...",
		"5% | Fetching Beacon people (1 of 6 datasets)...",
		"12% | Fetched Beacon people: 3 records.",
		"55% | Transforming Beacon records...",
		"68% | Preparing import: 0 out of 7 records synced.",
		"72% | Upserting people (2) and organisations (1)...",
		"76% | People upserted: 2 out of 7 records synced.",
		"84% | Upserting events (1) and payments (2)...",
		"94% | Upserting grants (1)...",
		"97% | Grants upserted: 7 out of 7 records synced.",
		"100% | Beacon API sync complete. 7 out of 7 records synced.",
	}
	for _, msg := range want {
		found := false
		for _, got := range h.progress {
			if got == msg {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing progress message %q", msg)
		}
	}
	if last := h.progress[len(h.progress)-1]; !strings.HasPrefix(last, "100% | ") {
		t.Errorf("last progress = %q", last)
	}
}

func TestRun_RetryThenSuccess(t *testing.T) {
	t.Parallel()

	h := newHarness(t, func(o *Options) { o.MaxAttempts = 3 })
	h.fetcher.failures["event"] = []error{
		&beacon.APIError{Endpoint: "event", StatusCode: 503, Body: "unavailable"},
	}
	// A failed sync earlier in the trail makes this run a recovery.
	if err := h.audit.Log(context.Background(), audit.ActionSyncFailed, map[string]any{"error": "boom"}); err != nil {
		t.Fatal(err)
	}

	summary, err := h.orch.Run(context.Background(), TriggerScheduled)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Events != 1 {
		t.Errorf("events = %d", summary.Events)
	}
	if h.fetcher.callCount("person") != 2 {
		t.Errorf("people fetched %d times, want 2 (whole sync restarts)", h.fetcher.callCount("person"))
	}
	if len(h.waits) != 1 || h.waits[0] != 30*time.Second {
		t.Errorf("waits = %v", h.waits)
	}

	want := []string{
		audit.ActionSyncFailed,
		audit.ActionSyncStarted, audit.ActionSyncRetryScheduled,
		audit.ActionSyncStarted, audit.ActionSyncCompleted,
	}
	if got := h.actions(t); !equalStrings(got, want) {
		t.Errorf("audit actions = %v, want %v", got, want)
	}

	retries, err := h.audit.Query(context.Background(), audit.QueryFilter{Actions: []string{audit.ActionSyncRetryScheduled}})
	if err != nil || len(retries) != 1 {
		t.Fatalf("retry events = %v, %v", retries, err)
	}
	d := retries[0].Details
	if d["error_kind"] != "retryable" || d["delay_seconds"] != 30.0 || d["attempt"] != 1.0 || d["max_attempts"] != 3.0 {
		t.Errorf("retry details = %v", d)
	}

	if got := h.notifier.events(); len(got) != 1 || got[0] != notify.EventSyncRecovered {
		t.Errorf("notifications = %v, want [recovered]", got)
	}
}

func TestRun_ExhaustsRetries(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	h.fetcher.failures["grant"] = []error{
		syncerr.Retryable("beacon request", errors.New("connection reset")),
		syncerr.Retryable("beacon request", errors.New("connection reset")),
	}

	_, err := h.orch.Run(context.Background(), TriggerManual)
	if err == nil {
		t.Fatal("expected error")
	}
	if !syncerr.IsRetryable(err) {
		t.Errorf("error kind lost: %v", err)
	}
	if h.orch.State() != StateFailed {
		t.Errorf("state = %s", h.orch.State())
	}

	want := []string{
		audit.ActionSyncStarted, audit.ActionSyncRetryScheduled,
		audit.ActionSyncStarted, audit.ActionSyncFailed,
	}
	if got := h.actions(t); !equalStrings(got, want) {
		t.Errorf("audit actions = %v, want %v", got, want)
	}

	failed, _ := h.audit.Query(context.Background(), audit.QueryFilter{Actions: []string{audit.ActionSyncFailed}})
	if len(failed) != 1 || failed[0].Details["attempts"] != 2.0 || failed[0].Details["error_kind"] != "retryable" {
		t.Errorf("failed event = %+v", failed)
	}
	if got := h.notifier.events(); len(got) != 1 || got[0] != notify.EventSyncFailed {
		t.Errorf("notifications = %v", got)
	}
	if h.cache.n != 0 || len(h.archiver.names) != 0 {
		t.Error("failed sync must not invalidate the cache or archive")
	}
	if h.store.Len(warehouse.GrantsTable) != 0 {
		t.Error("grants should not be written")
	}
}

func TestRun_FatalErrorIsNotRetried(t *testing.T) {
	t.Parallel()

	h := newHarness(t, func(o *Options) { o.MaxAttempts = 5 })
	h.fetcher.failures["person"] = []error{
		&beacon.APIError{Endpoint: "person", StatusCode: 401, Body: "unauthorized"},
	}

	_, err := h.orch.Run(context.Background(), TriggerManual)
	var apiErr *beacon.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 401 {
		t.Fatalf("err = %v, want 401 APIError", err)
	}
	if len(h.waits) != 0 {
		t.Errorf("fatal error waited for retry: %v", h.waits)
	}
	if got := h.actions(t); !equalStrings(got, []string{audit.ActionSyncStarted, audit.ActionSyncFailed}) {
		t.Errorf("audit actions = %v", got)
	}
}

func TestRun_CancelledDuringRetryWait(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	h.fetcher.failures["person"] = []error{syncerr.Retryable("beacon request", errors.New("timeout"))}

	ctx, cancel := context.WithCancel(context.Background())
	h.orch.wait = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}

	if _, err := h.orch.Run(ctx, TriggerManual); err == nil {
		t.Fatal("expected error")
	}
	// The failure is recorded even though ctx is cancelled.
	got := h.actions(t)
	if len(got) == 0 || got[len(got)-1] != audit.ActionSyncFailed {
		t.Errorf("audit actions = %v, want trailing failure", got)
	}
	if h.fetcher.callCount("person") != 1 {
		t.Errorf("person fetched %d times after cancellation", h.fetcher.callCount("person"))
	}
}

func TestRun_NotifyOnSuccess(t *testing.T) {
	t.Parallel()

	h := newHarness(t, func(o *Options) { o.NotifyOnSuccess = true })
	h.notifier.err = errors.New("webhook down")
	h.archiver.err = errors.New("bucket missing")

	if _, err := h.orch.Run(context.Background(), TriggerManual); err != nil {
		t.Fatalf("notification or archive failure must not fail the sync: %v", err)
	}
	if got := h.notifier.events(); len(got) != 1 || got[0] != notify.EventSyncSucceeded {
		t.Errorf("notifications = %v", got)
	}
}

func TestRun_LinksAttendance(t *testing.T) {
	t.Parallel()

	h := newHarness(t, func(o *Options) {
		o.Attendance = attendance.NewResolver("", attendance.DefaultChain(true))
	})
	h.fetcher.records["event_attendee"] = []any{
		map[string]any{"id": "a1", "event_id": "e1", "person_id": 1.0},
		map[string]any{"id": "a2", "event_id": "e1", "person_id": 2.0},
		map[string]any{"id": "a3", "event_id": "missing", "person_id": 2.0},
	}

	summary, err := h.orch.Run(context.Background(), TriggerManual)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := summary.FetchBreakdownMS[attendanceKey]; !ok {
		t.Error("attendance timing missing")
	}

	rows, err := h.store.ReadRows(context.Background(), warehouse.EventsTable, warehouse.Window{})
	if err != nil || len(rows) != 1 {
		t.Fatalf("events = %v, %v", rows, err)
	}
	if got := rows[0].Payload["number_of_attendees"]; got != 2.0 {
		t.Errorf("number_of_attendees = %v, want 2", got)
	}
	ids, _ := rows[0].Payload["participant_ids"].([]any)
	if len(ids) != 2 {
		t.Errorf("participant_ids = %v", rows[0].Payload["participant_ids"])
	}
}

func TestRun_AttendanceUnavailableDoesNotFail(t *testing.T) {
	t.Parallel()

	h := newHarness(t, func(o *Options) {
		o.Attendance = attendance.NewResolver("custom_attendance", attendance.DefaultChain(false))
	})
	if _, err := h.orch.Run(context.Background(), TriggerManual); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if h.fetcher.callCount("custom_attendance") != 1 {
		t.Error("override endpoint should be tried first")
	}
}

// Not parallel: swaps the global logger.
func TestRun_LogsWithComponentAndCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	prev := logging.Logger()
	logging.SetLogger(logging.NewTestLogger(&buf))
	defer logging.SetLogger(prev)

	h := newHarness(t, nil)
	h.fetcher.failures["person"] = []error{
		&beacon.APIError{Endpoint: "person", StatusCode: 401, Body: "unauthorized"},
	}

	ctx := logging.ContextWithCorrelationID(context.Background(), "run-1234")
	if _, err := h.orch.Run(ctx, TriggerManual); err == nil {
		t.Fatal("expected failure")
	}

	out := buf.String()
	for _, want := range []string{`"component":"sync"`, `"correlation_id":"run-1234"`, `"error_kind":"fatal"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s:\n%s", want, out)
		}
	}
}
