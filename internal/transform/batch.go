// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package transform

// Batch holds canonical rows keyed by id. Rows keep the position of the
// first occurrence of their id; Put replaces the content.
type Batch struct {
	order []string
	rows  map[string]Row
}

// NewBatch returns an empty batch.
func NewBatch() *Batch {
	return &Batch{rows: make(map[string]Row)}
}

// Put stores r, replacing any earlier row with the same id.
func (b *Batch) Put(r Row) {
	if _, exists := b.rows[r.ID]; !exists {
		b.order = append(b.order, r.ID)
	}
	b.rows[r.ID] = r
}

// PutIfAbsent stores r only when its id is new and reports whether it did.
func (b *Batch) PutIfAbsent(r Row) bool {
	if _, exists := b.rows[r.ID]; exists {
		return false
	}
	b.order = append(b.order, r.ID)
	b.rows[r.ID] = r
	return true
}

// Get returns the row for id.
func (b *Batch) Get(id string) (Row, bool) {
	r, ok := b.rows[id]
	return r, ok
}

// Len returns the number of distinct ids.
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.order)
}

// Rows returns the rows in first-seen id order.
func (b *Batch) Rows() []Row {
	if b == nil {
		return nil
	}
	out := make([]Row, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.rows[id])
	}
	return out
}

// Payloads returns the payload maps keyed by id. The maps are shared with
// the batch, so edits are visible in Rows.
func (b *Batch) Payloads() map[string]map[string]any {
	out := make(map[string]map[string]any, len(b.rows))
	for id, r := range b.rows {
		out[id] = r.Payload
	}
	return out
}

// Set is one complete transformed sync.
type Set struct {
	People        *Batch
	Organisations *Batch
	Events        *Batch
	Payments      *Batch
	Grants        *Batch
}

// Batch returns the batch for kind.
func (s *Set) Batch(kind Kind) *Batch {
	switch kind {
	case People:
		return s.People
	case Organisations:
		return s.Organisations
	case Events:
		return s.Events
	case Payments:
		return s.Payments
	case Grants:
		return s.Grants
	}
	return nil
}

// Total returns the number of rows across all kinds.
func (s *Set) Total() int {
	n := 0
	for _, k := range Kinds {
		n += s.Batch(k).Len()
	}
	return n
}
