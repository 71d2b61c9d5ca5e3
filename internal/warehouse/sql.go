// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/beaconkpi/internal/logging"
	"github.com/tomtom215/beaconkpi/internal/metrics"
	"github.com/tomtom215/beaconkpi/internal/transform"
)

// SQLStore is a Store over database/sql.
type SQLStore struct {
	db               *sql.DB
	dialect          *dialect
	statementTimeout time.Duration
}

var _ Store = (*SQLStore)(nil)

// DB returns the underlying pool. The audit trail and case-study store share it.
func (s *SQLStore) DB() *sql.DB { return s.db }

// Driver returns the backend name (duckdb, postgres or sqlite).
func (s *SQLStore) Driver() string { return s.dialect.name }

// Rebind rewrites ? placeholders into the backend's argument syntax.
func (s *SQLStore) Rebind(query string) string { return s.dialect.rebind(query) }

// Close closes the pool.
func (s *SQLStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping verifies the connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// UpsertRows writes rows with one INSERT ... ON CONFLICT (id) DO UPDATE.
// Timeouts are reported as ErrStatementTimeout.
func (s *SQLStore) UpsertRows(ctx context.Context, table Table, rows []transform.Row) error {
	if len(rows) == 0 {
		return nil
	}
	if _, ok := TableFor(table.Kind); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTable, table.Name)
	}

	args := make([]any, 0, len(rows)*len(table.columns()))
	for _, r := range rows {
		payload, err := json.Marshal(r.Payload)
		if err != nil {
			return fmt.Errorf("encode payload for %s %s: %w", table.Name, r.ID, err)
		}
		args = append(args, r.ID, string(payload), nullable(r.Date))
		if table.HasRegion {
			args = append(args, nullable(r.Region))
		}
		args = append(args, r.UpdatedAt)
	}

	stmtCtx, cancel := s.statementContext(ctx)
	defer cancel()

	start := time.Now()
	_, err := s.db.ExecContext(stmtCtx, s.upsertSQL(table, len(rows)), args...)
	metrics.RecordWarehouseQuery("upsert", table.Name, time.Since(start))
	if err == nil {
		return nil
	}

	if ctx.Err() == nil && (s.dialect.isStatementTimeout(err) || errors.Is(stmtCtx.Err(), context.DeadlineExceeded)) {
		return fmt.Errorf("%w: %w", ErrStatementTimeout, err)
	}
	return fmt.Errorf("upsert %d rows into %s: %w", len(rows), table.Name, err)
}

func (s *SQLStore) statementContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.statementTimeout > 0 && s.dialect.ctxDeadline {
		return context.WithTimeout(ctx, s.statementTimeout)
	}
	return context.WithCancel(ctx)
}

func (s *SQLStore) upsertSQL(table Table, n int) string {
	cols := table.columns()

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", table.Name, strings.Join(cols, ", "))
	arg := 0
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j, col := range cols {
			if j > 0 {
				b.WriteString(", ")
			}
			arg++
			b.WriteString(s.dialect.placeholder(arg))
			if col == "payload" {
				b.WriteString(s.dialect.jsonCast)
			}
		}
		b.WriteByte(')')
	}

	b.WriteString(" ON CONFLICT (id) DO UPDATE SET ")
	for i, col := range cols[1:] {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s = excluded.%s", col, col)
	}
	return b.String()
}

// ReadRows pages through the table in batches of 1000, ordered by id.
func (s *SQLStore) ReadRows(ctx context.Context, table Table, w Window) ([]StoredRow, error) {
	if _, ok := TableFor(table.Kind); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, table.Name)
	}

	selectCols := []string{"id", s.dialect.jsonSelect, table.DateColumn}
	if table.HasRegion {
		selectCols = append(selectCols, "region")
	}
	selectCols = append(selectCols, "updated_at")

	var where []string
	var args []any
	if w.Start != "" {
		where = append(where, table.DateColumn+" >= ?")
		args = append(args, w.Start)
	}
	if w.End != "" {
		where = append(where, table.DateColumn+" <= ?")
		args = append(args, w.End)
	}
	whereSQL := ""
	if len(where) > 0 {
		whereSQL = " WHERE " + strings.Join(where, " AND ")
	}

	start := time.Now()
	defer func() { metrics.RecordWarehouseQuery("read", table.Name, time.Since(start)) }()

	var out []StoredRow
	for offset := 0; ; offset += readBatchSize {
		query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY id LIMIT %d OFFSET %d",
			strings.Join(selectCols, ", "), table.Name, whereSQL, readBatchSize, offset)

		batch, err := s.readBatch(ctx, table, s.Rebind(query), args)
		if err != nil {
			return nil, fmt.Errorf("read %s at offset %d: %w", table.Name, offset, err)
		}
		out = append(out, batch...)
		if len(batch) < readBatchSize {
			return out, nil
		}
	}
}

func (s *SQLStore) readBatch(ctx context.Context, table Table, query string, args []any) ([]StoredRow, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoredRow
	for rows.Next() {
		var (
			id, payload       string
			date, region, upd sql.NullString
		)
		dest := []any{&id, &payload, &date}
		if table.HasRegion {
			dest = append(dest, &region)
		}
		dest = append(dest, &upd)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		row := StoredRow{ID: id, Date: stringPtr(date), Region: stringPtr(region), UpdatedAt: upd.String}
		if err := json.Unmarshal([]byte(payload), &row.Payload); err != nil || row.Payload == nil {
			logging.Warn().Str("table", table.Name).Str("id", id).Err(err).Msg("Unreadable payload, keeping id only")
			row.Payload = map[string]any{"id": id}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// LatestUpdate returns MAX(updated_at) across the five tables.
func (s *SQLStore) LatestUpdate(ctx context.Context) (time.Time, bool, error) {
	var latest time.Time
	found := false
	for _, t := range Tables {
		var raw sql.NullString
		if err := s.db.QueryRowContext(ctx, "SELECT MAX(updated_at) FROM "+t.Name).Scan(&raw); err != nil {
			return time.Time{}, false, fmt.Errorf("latest update in %s: %w", t.Name, err)
		}
		if !raw.Valid || raw.String == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339Nano, raw.String)
		if err != nil {
			logging.Warn().Str("table", t.Name).Str("updated_at", raw.String).Msg("Unparseable updated_at")
			continue
		}
		if !found || ts.After(latest) {
			latest, found = ts, true
		}
	}
	return latest, found, nil
}

func nullable(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
