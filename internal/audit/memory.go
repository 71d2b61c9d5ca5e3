// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package audit

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/goccy/go-json"
)

// MemoryStore keeps events in memory for tests and local runs. Like the
// SQL store it is append-only: nothing is ever dropped, and data is lost on
// restart.
type MemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save stores a copy of event. Details are round-tripped through JSON so
// reads see the same types as the SQL store returns.
func (s *MemoryStore) Save(_ context.Context, event *Event) error {
	if event == nil {
		return ErrNilEvent
	}
	stored := *event
	raw, err := json.Marshal(event.Details)
	if err != nil {
		return fmt.Errorf("encode audit details: %w", err)
	}
	stored.Details = nil
	if err := json.Unmarshal(raw, &stored.Details); err != nil {
		return fmt.Errorf("decode audit details: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, stored)
	return nil
}

// Query returns matching events, newest first.
func (s *MemoryStore) Query(_ context.Context, filter QueryFilter) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := filter.limit()
	skipped := 0
	var out []Event
	for i := len(s.events) - 1; i >= 0; i-- {
		if !matches(&s.events[i], &filter) {
			continue
		}
		if skipped < filter.Offset {
			skipped++
			continue
		}
		out = append(out, s.events[i])
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Count returns the number of matching events.
func (s *MemoryStore) Count(_ context.Context, filter QueryFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for i := range s.events {
		if matches(&s.events[i], &filter) {
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored events.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

func matches(e *Event, f *QueryFilter) bool {
	if len(f.Actions) > 0 && !slices.Contains(f.Actions, e.Action) {
		return false
	}
	if f.Actor != "" && e.Actor != f.Actor {
		return false
	}
	if f.Region != "" && e.Region != f.Region {
		return false
	}
	if f.Start != nil && e.CreatedAt.Before(*f.Start) {
		return false
	}
	if f.End != nil && e.CreatedAt.After(*f.End) {
		return false
	}
	if f.SearchText != "" {
		needle := strings.ToLower(f.SearchText)
		details, _ := json.Marshal(e.Details)
		if !strings.Contains(strings.ToLower(e.Action), needle) &&
			!strings.Contains(strings.ToLower(e.Actor), needle) &&
			!strings.Contains(strings.ToLower(string(details)), needle) {
			return false
		}
	}
	return true
}
