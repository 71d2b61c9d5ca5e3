// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/beaconkpi/internal/attendance"
	"github.com/tomtom215/beaconkpi/internal/audit"
	"github.com/tomtom215/beaconkpi/internal/beacon"
	"github.com/tomtom215/beaconkpi/internal/logging"
	"github.com/tomtom215/beaconkpi/internal/metrics"
	"github.com/tomtom215/beaconkpi/internal/notify"
	"github.com/tomtom215/beaconkpi/internal/syncerr"
	"github.com/tomtom215/beaconkpi/internal/transform"
	"github.com/tomtom215/beaconkpi/internal/warehouse"
)

const (
	// DefaultMaxAttempts is the number of whole-sync attempts when unset.
	DefaultMaxAttempts = 2

	// DefaultRetryDelay is the wait between attempts when unset.
	DefaultRetryDelay = 30 * time.Second

	attendanceKey = "attendance"
)

// ErrMissingDependency is returned by NewOrchestrator when a required
// collaborator is nil.
var ErrMissingDependency = errors.New("sync orchestrator: missing dependency")

// ProgressFunc receives progress updates. message already carries the
// "NN% | " prefix.
type ProgressFunc func(percent int, message string)

// Archiver stores a copy of a completed sync summary.
type Archiver interface {
	Archive(ctx context.Context, name string, v any) error
}

// Invalidator drops derived data after a warehouse write.
type Invalidator interface {
	Invalidate()
}

// dataset is one entry of the fetch plan.
type dataset struct {
	key      string
	endpoint string
}

// fetchPlan is fetched in order. Subscriptions are merged into payments.
var fetchPlan = []dataset{
	{"people", "person"},
	{"organisations", "organization"},
	{"events", "event"},
	{"payments", "payment"},
	{"subscriptions", "subscription"},
	{"grants", "grant"},
}

// Options configures an Orchestrator. Fetcher, Upserter and Audit are
// required.
type Options struct {
	Fetcher    beacon.Fetcher
	Attendance *attendance.Resolver // nil skips attendance resolution
	Upserter   *warehouse.Upserter
	Audit      *audit.Logger
	Notifier   notify.Notifier
	Cache      Invalidator
	Archiver   Archiver
	Progress   ProgressFunc

	MaxAttempts     int
	RetryDelay      time.Duration
	NotifyOnSuccess bool
}

// Orchestrator runs Beacon syncs. Run is not safe for concurrent use;
// Manager serializes runs.
type Orchestrator struct {
	opts Options
	log  zerolog.Logger

	mu    sync.RWMutex
	state State

	now  func() time.Time
	wait func(ctx context.Context, d time.Duration) error
}

// NewOrchestrator validates opts and fills defaults.
func NewOrchestrator(opts Options) (*Orchestrator, error) {
	switch {
	case opts.Fetcher == nil:
		return nil, fmt.Errorf("%w: fetcher", ErrMissingDependency)
	case opts.Upserter == nil:
		return nil, fmt.Errorf("%w: upserter", ErrMissingDependency)
	case opts.Audit == nil:
		return nil, fmt.Errorf("%w: audit logger", ErrMissingDependency)
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Nop{}
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	return &Orchestrator{
		opts:  opts,
		log:   logging.WithComponent("sync"),
		state: StateIdle,
		now:   time.Now,
		wait:  sleepContext,
	}, nil
}

// logCtx returns the sync component logger carrying the run's correlation id.
func (o *Orchestrator) logCtx(ctx context.Context) *zerolog.Logger {
	return logging.FromContext(ctx, o.log)
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// SetProgress replaces the progress callback. Call it before the first Run.
func (o *Orchestrator) SetProgress(fn ProgressFunc) {
	o.opts.Progress = fn
}

// Run performs a full sync, retrying the whole sync on retryable errors.
// On failure the returned error keeps its syncerr kind.
func (o *Orchestrator) Run(ctx context.Context, trigger string) (*Summary, error) {
	if trigger == "" {
		trigger = TriggerManual
	}
	started := o.now()
	log := o.logCtx(ctx)

	for attempt := 1; ; attempt++ {
		summary, err := o.attempt(ctx, trigger, attempt)
		if err == nil {
			o.complete(ctx, trigger, attempt, summary)
			return summary, nil
		}

		kind := syncerr.Classify(err)
		if kind == syncerr.KindRetryable && attempt < o.opts.MaxAttempts && ctx.Err() == nil {
			o.scheduleRetry(ctx, attempt, err, kind)
			if werr := o.wait(ctx, o.opts.RetryDelay); werr != nil {
				log.Warn().Err(werr).Msg("Sync retry wait interrupted")
				return nil, o.fail(ctx, trigger, attempt, started, err, kind)
			}
			continue
		}
		return nil, o.fail(ctx, trigger, attempt, started, err, kind)
	}
}

// attempt runs one pass of fetch, transform and upsert.
func (o *Orchestrator) attempt(ctx context.Context, trigger string, attempt int) (*Summary, error) {
	started := o.now()
	o.transition(ctx, StateStarted)
	o.record(ctx, audit.ActionSyncStarted, map[string]any{
		"source":       audit.SourceBeacon,
		"trigger":      trigger,
		"attempt":      attempt,
		"max_attempts": o.opts.MaxAttempts,
	})
	o.report(5, "Starting Beacon API sync...")

	// FETCHING
	o.transition(ctx, StateFetching)
	fetchStarted := o.now()
	datasets := make(map[string][]any, len(fetchPlan))
	breakdown := make(map[string]int64, len(fetchPlan)+1)
	for i, ds := range fetchPlan {
		from := 5 + i*45/len(fetchPlan)
		to := 5 + (i+1)*45/len(fetchPlan)
		o.report(from, fmt.Sprintf("Fetching Beacon %s (%d of %d datasets)...", ds.key, i+1, len(fetchPlan)))

		t0 := o.now()
		records, err := o.opts.Fetcher.FetchAll(ctx, ds.endpoint)
		breakdown[ds.key] = o.now().Sub(t0).Milliseconds()
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", ds.key, err)
		}
		datasets[ds.key] = records
		o.report(to, fmt.Sprintf("Fetched Beacon %s: %d records.", ds.key, len(records)))
	}

	var attendanceRecords []any
	if o.opts.Attendance != nil {
		o.report(50, "Looking for Beacon attendance records...")
		t0 := o.now()
		if records, endpoint, ok := o.opts.Attendance.Discover(ctx, o.opts.Fetcher); ok {
			attendanceRecords = records
			o.logCtx(ctx).Debug().Str("endpoint", endpoint).Msg("Using attendance records")
		}
		breakdown[attendanceKey] = o.now().Sub(t0).Milliseconds()
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	fetchMS := o.now().Sub(fetchStarted).Milliseconds()

	// TRANSFORMING
	o.transition(ctx, StateTransforming)
	o.report(55, "Transforming Beacon records...")
	transformStarted := o.now()
	set := o.transform(datasets, transform.Timestamp(started))
	if len(attendanceRecords) > 0 {
		stats := o.opts.Attendance.Link(set.Events.Payloads(), set.People.Payloads(), attendanceRecords)
		o.logCtx(ctx).Info().Int("records", stats.Records).Int("linked", stats.Linked).
			Int("unmatched", stats.Unmatched).Int("events_updated", stats.EventsUpdated).
			Msg("Attendance linked to events")
	}
	transformMS := o.now().Sub(transformStarted).Milliseconds()

	// UPSERTING
	o.transition(ctx, StateUpserting)
	upsertStarted := o.now()
	counts, err := o.upsert(ctx, set)
	if err != nil {
		return nil, err
	}
	upsertMS := o.now().Sub(upsertStarted).Milliseconds()

	return &Summary{
		People:              counts[transform.People],
		Organisations:       counts[transform.Organisations],
		Events:              counts[transform.Events],
		Payments:            counts[transform.Payments],
		Grants:              counts[transform.Grants],
		SyncedAt:            transform.Timestamp(started),
		FetchDurationMS:     fetchMS,
		TransformDurationMS: transformMS,
		UpsertDurationMS:    upsertMS,
		TotalDurationMS:     o.now().Sub(started).Milliseconds(),
		FetchBreakdownMS:    breakdown,
	}, nil
}

func (o *Orchestrator) transform(datasets map[string][]any, updatedAt string) *transform.Set {
	return &transform.Set{
		People:        transform.Build(transform.People, datasets["people"], updatedAt),
		Organisations: transform.Build(transform.Organisations, datasets["organisations"], updatedAt),
		Events:        transform.Build(transform.Events, datasets["events"], updatedAt),
		Payments:      transform.Income(datasets["payments"], datasets["subscriptions"], updatedAt),
		Grants:        transform.Build(transform.Grants, datasets["grants"], updatedAt),
	}
}

// upsertStep is one progress-reporting unit of the upsert phase.
type upsertStep struct {
	kind     transform.Kind
	announce int    // percent for the group announcement, 0 for none
	done     int    // percent once the kind is written
	label    string // progress label
}

var upsertSteps = []upsertStep{
	{transform.People, 72, 76, "People"},
	{transform.Organisations, 0, 80, "Organisations"},
	{transform.Events, 84, 88, "Events"},
	{transform.Payments, 0, 92, "Payments"},
	{transform.Grants, 94, 97, "Grants"},
}

func (o *Orchestrator) upsert(ctx context.Context, set *transform.Set) (map[transform.Kind]int, error) {
	total := set.Total()
	synced := 0
	counts := make(map[transform.Kind]int, len(transform.Kinds))

	o.report(68, fmt.Sprintf("Preparing import: %d out of %d records synced.", synced, total))
	for i, step := range upsertSteps {
		if step.announce > 0 {
			o.report(step.announce, announcement(set, upsertSteps[i:]))
		}
		rows := set.Batch(step.kind).Rows()
		if len(rows) == 0 {
			continue
		}
		table, ok := warehouse.TableFor(step.kind)
		if !ok {
			return nil, syncerr.Fatal("upsert", fmt.Errorf("%w: %s", warehouse.ErrUnknownTable, step.kind))
		}
		n, err := o.opts.Upserter.Upsert(ctx, table, rows)
		if err != nil {
			return nil, err
		}
		counts[step.kind] = n
		synced += n
		o.report(step.done, fmt.Sprintf("%s upserted: %d out of %d records synced.", step.label, synced, total))
	}
	return counts, nil
}

// announcement names the kinds written until the next announcing step,
// e.g. "Upserting people (10) and organisations (4)...".
func announcement(set *transform.Set, steps []upsertStep) string {
	msg := "Upserting"
	for i, s := range steps {
		if i > 0 && s.announce > 0 {
			break
		}
		if i > 0 {
			msg += " and"
		}
		msg += fmt.Sprintf(" %s (%d)", s.kind, set.Batch(s.kind).Len())
	}
	return msg + "..."
}

func (o *Orchestrator) complete(ctx context.Context, trigger string, attempts int, s *Summary) {
	o.transition(ctx, StateCompleted)
	log := o.logCtx(ctx)

	// Must be read before the completion event below is written.
	previous, err := o.opts.Audit.PreviousSyncOutcome(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Could not read previous sync outcome")
	}

	details := s.details()
	details["source"] = audit.SourceBeacon
	details["trigger"] = trigger
	details["attempts"] = attempts
	o.record(ctx, audit.ActionSyncCompleted, details)

	if previous == audit.OutcomeFailed {
		o.notify(ctx, notify.Notification{
			Event:   notify.EventSyncRecovered,
			Title:   "Beacon sync recovered",
			Message: fmt.Sprintf("Beacon sync completed after a previous failure: %d records synced.", s.Records()),
			Details: details,
		})
	}
	if o.opts.NotifyOnSuccess {
		o.notify(ctx, notify.Notification{
			Event:   notify.EventSyncSucceeded,
			Title:   "Beacon sync completed",
			Message: fmt.Sprintf("Beacon sync completed: %d records synced in %dms.", s.Records(), s.TotalDurationMS),
			Details: details,
		})
	}

	if o.opts.Cache != nil {
		o.opts.Cache.Invalidate()
	}

	metrics.SyncAttempts.WithLabelValues("completed").Inc()
	metrics.RecordSyncOperation(time.Duration(s.TotalDurationMS)*time.Millisecond, s.Records(), nil, "")

	if o.opts.Archiver != nil {
		name := "sync-summary-" + s.SyncedAt
		if err := o.opts.Archiver.Archive(ctx, name, s); err != nil {
			log.Warn().Err(err).Str("name", name).Msg("Failed to archive sync summary")
		}
	}

	log.Info().Str("trigger", trigger).Int("attempts", attempts).Int("records", s.Records()).
		Int64("total_duration_ms", s.TotalDurationMS).Msg("Beacon sync completed")
	o.report(100, fmt.Sprintf("Beacon API sync complete. %d out of %d records synced.", s.Records(), s.Records()))
}

func (o *Orchestrator) scheduleRetry(ctx context.Context, attempt int, err error, kind syncerr.Kind) {
	o.transition(ctx, StateRetryScheduled)
	delay := o.opts.RetryDelay
	o.logCtx(ctx).Warn().Err(err).Int("attempt", attempt).Int("max_attempts", o.opts.MaxAttempts).
		Dur("delay", delay).Msg("Beacon sync attempt failed, retry scheduled")

	o.record(ctx, audit.ActionSyncRetryScheduled, map[string]any{
		"attempt":       attempt,
		"max_attempts":  o.opts.MaxAttempts,
		"delay_seconds": int(delay.Seconds()),
		"error":         err.Error(),
		"error_kind":    kind.String(),
	})
	metrics.SyncAttempts.WithLabelValues("retry_scheduled").Inc()
	metrics.SyncErrors.WithLabelValues(kind.String()).Inc()
	o.report(0, fmt.Sprintf("Sync attempt %d of %d failed, retrying in %s...", attempt, o.opts.MaxAttempts, delay))
}

// fail records the terminal failure and returns err. The audit write and
// notification use a context that survives cancellation of ctx.
func (o *Orchestrator) fail(ctx context.Context, trigger string, attempts int, started time.Time, err error, kind syncerr.Kind) error {
	o.transition(ctx, StateFailed)
	detached := context.WithoutCancel(ctx)

	details := map[string]any{
		"source":     audit.SourceBeacon,
		"trigger":    trigger,
		"error":      err.Error(),
		"error_kind": kind.String(),
		"attempts":   attempts,
	}
	o.record(detached, audit.ActionSyncFailed, details)
	o.notify(detached, notify.Notification{
		Event:   notify.EventSyncFailed,
		Title:   "Beacon sync failed",
		Message: fmt.Sprintf("Beacon sync failed after %d attempt(s): %v", attempts, err),
		Details: details,
	})

	metrics.SyncAttempts.WithLabelValues("failed").Inc()
	metrics.RecordSyncOperation(o.now().Sub(started), 0, err, kind.String())
	o.logCtx(ctx).Error().Err(err).Str("error_kind", kind.String()).Int("attempts", attempts).
		Msg("Beacon sync failed")
	o.report(100, "Beacon API sync failed.")
	return err
}

func (o *Orchestrator) transition(ctx context.Context, to State) {
	o.mu.Lock()
	from := o.state
	o.state = to
	o.mu.Unlock()

	metrics.SetSyncState(string(to))
	o.logCtx(ctx).Debug().Str("from", string(from)).Str("to", string(to)).Msg("Sync state transition")
}

// record writes an audit event. Failures are logged by the audit logger and
// never fail the sync.
func (o *Orchestrator) record(ctx context.Context, action string, details map[string]any) {
	_ = o.opts.Audit.Log(ctx, action, details)
}

func (o *Orchestrator) notify(ctx context.Context, n notify.Notification) {
	if err := o.opts.Notifier.Notify(ctx, n); err != nil {
		o.logCtx(ctx).Warn().Err(err).Str("event", string(n.Event)).Msg("Failed to send sync notification")
	}
}

func (o *Orchestrator) report(percent int, message string) {
	if o.opts.Progress == nil {
		return
	}
	percent = min(max(percent, 0), 100)
	o.opts.Progress(percent, fmt.Sprintf("%d%% | %s", percent, message))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
