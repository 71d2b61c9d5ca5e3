// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/beaconkpi/internal/logging"
)

// SQLDB is the slice of a warehouse connection the audit store needs.
type SQLDB interface {
	DB() *sql.DB
	Rebind(query string) string
}

// SQLStore keeps audit_logs in the warehouse database. Timestamps are
// fixed-width UTC text so ordering and range filters behave the same on
// DuckDB, Postgres and SQLite.
type SQLStore struct {
	conn SQLDB
}

var _ Store = (*SQLStore)(nil)

// NewSQLStore returns a store over conn. Call CreateTable before use.
func NewSQLStore(conn SQLDB) *SQLStore {
	return &SQLStore{conn: conn}
}

// CreateTable creates audit_logs and its indexes if missing.
func (s *SQLStore) CreateTable(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS audit_logs (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			action TEXT NOT NULL,
			actor TEXT NOT NULL,
			region TEXT,
			details TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_logs_created_at ON audit_logs(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_logs_action ON audit_logs(action)`,
	}
	for _, stmt := range statements {
		if _, err := s.conn.DB().ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute audit schema statement: %w", err)
		}
	}
	logging.Info().Msg("Audit log table created/verified")
	return nil
}

// Save inserts event.
func (s *SQLStore) Save(ctx context.Context, event *Event) error {
	if event == nil {
		return ErrNilEvent
	}
	details, err := json.Marshal(event.Details)
	if err != nil {
		return fmt.Errorf("encode audit details: %w", err)
	}

	query := s.conn.Rebind(`INSERT INTO audit_logs (id, created_at, action, actor, region, details) VALUES (?, ?, ?, ?, ?, ?)`)
	if _, err := s.conn.DB().ExecContext(ctx, query,
		event.ID, formatTime(event.CreatedAt), event.Action, event.Actor, event.Region, string(details)); err != nil {
		return fmt.Errorf("failed to save audit event: %w", err)
	}
	return nil
}

// Query returns matching events, newest first.
func (s *SQLStore) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	where, args := buildWhere(filter)
	query := fmt.Sprintf(
		"SELECT id, created_at, action, actor, region, details FROM audit_logs%s ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d",
		where, filter.limit(), max(filter.Offset, 0))

	rows, err := s.conn.DB().QueryContext(ctx, s.conn.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e               Event
			createdAt       string
			region, details sql.NullString
		)
		if err := rows.Scan(&e.ID, &createdAt, &e.Action, &e.Actor, &region, &details); err != nil {
			logging.Warn().Err(err).Msg("Failed to scan audit event row")
			continue
		}
		e.Region = region.String
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			e.CreatedAt = ts
		}
		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &e.Details); err != nil {
				logging.Warn().Err(err).Str("id", e.ID).Msg("Unreadable audit details")
			}
		}
		if e.Details == nil {
			e.Details = map[string]any{}
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit events: %w", err)
	}
	return events, nil
}

// Count returns the number of matching events.
func (s *SQLStore) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	where, args := buildWhere(filter)
	var n int64
	if err := s.conn.DB().QueryRowContext(ctx, s.conn.Rebind("SELECT COUNT(*) FROM audit_logs"+where), args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count audit events: %w", err)
	}
	return n, nil
}

func buildWhere(f QueryFilter) (string, []any) {
	var conds []string
	var args []any

	if len(f.Actions) > 0 {
		placeholders := make([]string, len(f.Actions))
		for i, a := range f.Actions {
			placeholders[i] = "?"
			args = append(args, a)
		}
		conds = append(conds, "action IN ("+strings.Join(placeholders, ", ")+")")
	}
	if f.Actor != "" {
		conds = append(conds, "actor = ?")
		args = append(args, f.Actor)
	}
	if f.Region != "" {
		conds = append(conds, "region = ?")
		args = append(args, f.Region)
	}
	if f.Start != nil {
		conds = append(conds, "created_at >= ?")
		args = append(args, formatTime(*f.Start))
	}
	if f.End != nil {
		conds = append(conds, "created_at <= ?")
		args = append(args, formatTime(*f.End))
	}
	if f.SearchText != "" {
		like := "%" + strings.ToLower(f.SearchText) + "%"
		conds = append(conds, "(LOWER(action) LIKE ? OR LOWER(actor) LIKE ? OR LOWER(details) LIKE ?)")
		args = append(args, like, like, like)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
