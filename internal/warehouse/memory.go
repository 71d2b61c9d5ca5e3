// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package warehouse

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/beaconkpi/internal/transform"
)

// MemoryStore keeps rows in maps. Payloads are deep-copied through JSON so
// callers cannot mutate stored rows, matching the SQL backends.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string]map[string]StoredRow
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[string]map[string]StoredRow)}
}

func (m *MemoryStore) UpsertRows(ctx context.Context, table Table, rows []transform.Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := TableFor(table.Kind); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTable, table.Name)
	}

	stored := make([]StoredRow, 0, len(rows))
	for _, r := range rows {
		payload, err := copyPayload(r.Payload)
		if err != nil {
			return fmt.Errorf("encode payload for %s %s: %w", table.Name, r.ID, err)
		}
		sr := StoredRow{ID: r.ID, Payload: payload, Date: copyString(r.Date), UpdatedAt: r.UpdatedAt}
		if table.HasRegion {
			sr.Region = copyString(r.Region)
		}
		stored = append(stored, sr)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.tables[table.Name]
	if t == nil {
		t = make(map[string]StoredRow)
		m.tables[table.Name] = t
	}
	for _, sr := range stored {
		t[sr.ID] = sr
	}
	return nil
}

func (m *MemoryStore) ReadRows(ctx context.Context, table Table, w Window) ([]StoredRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]StoredRow, 0, len(m.tables[table.Name]))
	for _, sr := range m.tables[table.Name] {
		if !w.Contains(sr.Date) {
			continue
		}
		payload, err := copyPayload(sr.Payload)
		if err != nil {
			return nil, err
		}
		sr.Payload = payload
		out = append(out, sr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) LatestUpdate(ctx context.Context) (time.Time, bool, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest time.Time
	found := false
	for _, t := range m.tables {
		for _, sr := range t {
			ts, err := time.Parse(time.RFC3339Nano, sr.UpdatedAt)
			if err != nil {
				continue
			}
			if !found || ts.After(latest) {
				latest, found = ts, true
			}
		}
	}
	return latest, found, nil
}

// Len returns the number of rows stored in table.
func (m *MemoryStore) Len(table Table) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tables[table.Name])
}

func (m *MemoryStore) Close() error { return nil }

func copyPayload(p map[string]any) (map[string]any, error) {
	if p == nil {
		return map[string]any{}, nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func copyString(p *string) *string {
	if p == nil {
		return nil
	}
	s := *p
	return &s
}
