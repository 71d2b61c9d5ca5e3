// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/beaconkpi/internal/logging"
)

// Logger writes audit events synchronously, so a caller that returns after
// logging knows the event is stored.
type Logger struct {
	store Store
	now   func() time.Time

	mu     sync.Mutex
	states map[string]string
}

// NewLogger returns a Logger backed by store.
func NewLogger(store Store) *Logger {
	return &Logger{store: store, now: time.Now, states: make(map[string]string)}
}

// Record fills in missing id, timestamp, actor and region, then saves event.
func (l *Logger) Record(ctx context.Context, event *Event) error {
	if event == nil {
		return ErrNilEvent
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = l.now().UTC()
	}
	if event.Actor == "" {
		event.Actor = SystemActor
	}
	if event.Region == "" {
		event.Region = GlobalRegion
	}
	if event.Details == nil {
		event.Details = map[string]any{}
	}

	if err := l.store.Save(ctx, event); err != nil {
		logging.Error().Err(err).Str("action", event.Action).Msg("Failed to save audit event")
		return fmt.Errorf("audit %q: %w", event.Action, err)
	}
	logging.Debug().Str("action", event.Action).Str("id", event.ID).Msg("Audit event recorded")
	return nil
}

// Log records action by the system actor.
func (l *Logger) Log(ctx context.Context, action string, details map[string]any) error {
	return l.Record(ctx, &Event{Action: action, Details: details})
}

// LogStateChange records action only when details differ from the last
// payload logged under key. It reports whether an event was written.
func (l *Logger) LogStateChange(ctx context.Context, key, action string, details map[string]any) (bool, error) {
	if details == nil {
		details = map[string]any{}
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return false, fmt.Errorf("encode state %s: %w", key, err)
	}
	marker := string(raw)

	l.mu.Lock()
	if l.states[key] == marker {
		l.mu.Unlock()
		return false, nil
	}
	l.states[key] = marker
	l.mu.Unlock()

	if err := l.Log(ctx, action, details); err != nil {
		return false, err
	}
	return true, nil
}

// Query proxies to the store.
func (l *Logger) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	return l.store.Query(ctx, filter)
}

// Count proxies to the store.
func (l *Logger) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	return l.store.Count(ctx, filter)
}

// Outcome is the result of the most recent sync.
type Outcome string

const (
	OutcomeNone      Outcome = ""
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
)

// PreviousSyncOutcome returns the outcome of the latest completed or failed
// sync. Callers read it before writing the next completion event.
func (l *Logger) PreviousSyncOutcome(ctx context.Context) (Outcome, error) {
	events, err := l.store.Query(ctx, QueryFilter{
		Actions: []string{ActionSyncCompleted, ActionSyncFailed},
		Limit:   1,
	})
	if err != nil {
		return OutcomeNone, fmt.Errorf("previous sync outcome: %w", err)
	}
	if len(events) == 0 {
		return OutcomeNone, nil
	}
	if events[0].Action == ActionSyncFailed {
		return OutcomeFailed, nil
	}
	return OutcomeCompleted, nil
}
