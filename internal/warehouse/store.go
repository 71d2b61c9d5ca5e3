// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

// Package warehouse persists canonical Beacon rows.
//
// Three SQL backends share one implementation: DuckDB for single-node
// deployments, Postgres (including Supabase) through pgx, and pure-Go SQLite
// for local development and tests. MemoryStore backs unit tests that do not
// care about SQL.
//
// Writes go through Upserter, which chunks rows and shrinks the chunk size
// when the database reports a statement timeout.
package warehouse

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/beaconkpi/internal/syncerr"
	"github.com/tomtom215/beaconkpi/internal/transform"
)

// readBatchSize is the page size used when reading rows back.
const readBatchSize = 1000

// ErrStatementTimeout marks a write the database cancelled for running too
// long. It is retryable.
var ErrStatementTimeout = syncerr.Retryable("warehouse", errors.New("statement timeout"))

// ErrUnknownTable is returned for a Table not in Tables.
var ErrUnknownTable = errors.New("unknown warehouse table")

// Store is a warehouse backend.
type Store interface {
	// UpsertRows writes rows in one statement, keyed on id.
	UpsertRows(ctx context.Context, table Table, rows []transform.Row) error

	// ReadRows returns the rows whose date column falls inside w.
	ReadRows(ctx context.Context, table Table, w Window) ([]StoredRow, error)

	// LatestUpdate returns the newest updated_at across all tables. The
	// boolean is false when every table is empty.
	LatestUpdate(ctx context.Context) (time.Time, bool, error)

	Close() error
}

// Window is an inclusive range over a table's date column. Bounds are ISO
// 8601 strings compared lexically, so "2025-03-31T23:59:59.999999" includes
// every timestamp on that day. An empty bound is open.
type Window struct {
	Start string
	End   string
}

// Contains reports whether date falls inside w. Rows without a date only
// match an unbounded window.
func (w Window) Contains(date *string) bool {
	if w.Start == "" && w.End == "" {
		return true
	}
	if date == nil {
		return false
	}
	if w.Start != "" && *date < w.Start {
		return false
	}
	if w.End != "" && *date > w.End {
		return false
	}
	return true
}

// StoredRow is a row as read back from the warehouse.
type StoredRow struct {
	ID        string
	Payload   map[string]any
	Date      *string
	Region    *string
	UpdatedAt string
}

// Record returns the payload with the table's columns filled into missing
// fields: the date column under its own name and, for events, the scalar
// region as a one-element c_region list.
func (r StoredRow) Record(table Table) map[string]any {
	payload := r.Payload
	if payload == nil {
		payload = make(map[string]any)
	}
	if r.Date != nil && *r.Date != "" && isBlank(payload[table.DateColumn]) {
		payload[table.DateColumn] = *r.Date
	}
	if table.HasRegion && r.Region != nil && *r.Region != "" && isBlank(payload["c_region"]) {
		payload["c_region"] = []any{*r.Region}
	}
	return payload
}

// Records applies Record to every row.
func Records(table Table, rows []StoredRow) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Record(table))
	}
	return out
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	}
	return false
}
