// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package warehouse

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/beaconkpi/internal/syncerr"
	"github.com/tomtom215/beaconkpi/internal/transform"
)

// fakeStore records chunk sizes and fails according to upsertFunc.
type fakeStore struct {
	chunks     []int
	upsertFunc func(n int) error
}

func (f *fakeStore) UpsertRows(_ context.Context, _ Table, rows []transform.Row) error {
	f.chunks = append(f.chunks, len(rows))
	if f.upsertFunc != nil {
		return f.upsertFunc(len(rows))
	}
	return nil
}

func (f *fakeStore) ReadRows(context.Context, Table, Window) ([]StoredRow, error) { return nil, nil }

func (f *fakeStore) LatestUpdate(context.Context) (time.Time, bool, error) {
	return time.Time{}, false, nil
}

func (f *fakeStore) Close() error { return nil }

func makeRows(n int) []transform.Row {
	rows := make([]transform.Row, n)
	for i := range rows {
		rows[i] = transform.Row{ID: fmt.Sprintf("r%d", i), Payload: map[string]any{}}
	}
	return rows
}

func TestUpserter_WritesInChunks(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	n, err := NewUpserter(store, 200, 25).Upsert(context.Background(), PeopleTable, makeRows(450))
	if err != nil || n != 450 {
		t.Fatalf("Upsert = %d, %v", n, err)
	}
	if fmt.Sprint(store.chunks) != "[200 200 50]" {
		t.Errorf("chunks = %v", store.chunks)
	}
}

func TestUpserter_ShrinksOnTimeout(t *testing.T) {
	t.Parallel()

	// Chunks larger than 50 time out.
	store := &fakeStore{upsertFunc: func(n int) error {
		if n > 50 {
			return fmt.Errorf("%w: canceling statement", ErrStatementTimeout)
		}
		return nil
	}}
	n, err := NewUpserter(store, 200, 25).Upsert(context.Background(), EventsTable, makeRows(120))
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if n != 120 {
		t.Errorf("written = %d, want 120", n)
	}
	if fmt.Sprint(store.chunks) != "[120 100 50 50 20]" {
		t.Errorf("chunks = %v", store.chunks)
	}
}

func TestUpserter_FloorRetriesAreBounded(t *testing.T) {
	t.Parallel()

	store := &fakeStore{upsertFunc: func(int) error { return ErrStatementTimeout }}
	n, err := NewUpserter(store, 100, 25).Upsert(context.Background(), PaymentsTable, makeRows(100))
	if err == nil {
		t.Fatal("expected error")
	}
	if n != 0 {
		t.Errorf("written = %d, want 0", n)
	}
	if !syncerr.IsRetryable(err) {
		t.Errorf("err %v should be retryable", err)
	}
	// 100, 50, then the floor size once plus three retries.
	if fmt.Sprint(store.chunks) != "[100 50 25 25 25 25]" {
		t.Errorf("chunks = %v", store.chunks)
	}
}

func TestUpserter_OtherErrorsStopImmediately(t *testing.T) {
	t.Parallel()

	calls := 0
	store := &fakeStore{upsertFunc: func(int) error {
		calls++
		if calls == 2 {
			return errors.New("permission denied for table beacon_grants")
		}
		return nil
	}}
	n, err := NewUpserter(store, 10, 5).Upsert(context.Background(), GrantsTable, makeRows(30))
	if err == nil {
		t.Fatal("expected error")
	}
	if n != 10 {
		t.Errorf("written = %d, want 10", n)
	}
	if !strings.Contains(err.Error(), "beacon_grants at offset 10") {
		t.Errorf("error lacks table and offset: %v", err)
	}
	if len(store.chunks) != 2 {
		t.Errorf("calls = %d, want 2", len(store.chunks))
	}
}

func TestUpserter_EmptyAndCancelled(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	if n, err := NewUpserter(store, 0, 0).Upsert(context.Background(), PeopleTable, nil); n != 0 || err != nil {
		t.Errorf("empty upsert = %d, %v", n, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewUpserter(store, 0, 0).Upsert(ctx, PeopleTable, makeRows(3)); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if len(store.chunks) != 0 {
		t.Errorf("store called %d times", len(store.chunks))
	}
}

func TestUpserter_UpsertSet(t *testing.T) {
	t.Parallel()

	mem := NewMemoryStore()
	set := &transform.Set{
		People:        transform.NewBatch(),
		Organisations: transform.NewBatch(),
		Events:        transform.NewBatch(),
		Payments:      transform.NewBatch(),
		Grants:        transform.NewBatch(),
	}
	set.People.Put(transform.Row{ID: "p1", Payload: map[string]any{"id": "p1"}})
	set.Events.Put(transform.Row{ID: "e1", Payload: map[string]any{"id": "e1"}, Region: strp("North")})
	set.Events.Put(transform.Row{ID: "e2", Payload: map[string]any{"id": "e2"}})

	counts, err := NewUpserter(mem, 0, 0).UpsertSet(context.Background(), set)
	if err != nil {
		t.Fatalf("UpsertSet: %v", err)
	}
	if counts[transform.People] != 1 || counts[transform.Events] != 2 || counts[transform.Grants] != 0 {
		t.Errorf("counts = %v", counts)
	}
	if mem.Len(EventsTable) != 2 {
		t.Errorf("events stored = %d", mem.Len(EventsTable))
	}
}
