// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package warehouse

import (
	"context"
	"fmt"
	"strings"

	"github.com/tomtom215/beaconkpi/internal/logging"
)

// Migration is one versioned schema change. Migrations are append-only.
type Migration struct {
	Version     int
	Name        string
	Description string
	Statements  func(d *dialect) []string
}

const schemaMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

var migrations = []Migration{
	{
		Version:     1,
		Name:        "create_beacon_tables",
		Description: "Create the five Beacon entity tables",
		Statements: func(d *dialect) []string {
			stmts := make([]string, 0, len(Tables))
			for _, t := range Tables {
				stmts = append(stmts, createTableSQL(d, t))
			}
			return stmts
		},
	},
}

func createTableSQL(d *dialect, t Table) string {
	cols := []string{
		"id TEXT PRIMARY KEY",
		"payload " + d.jsonType + " NOT NULL",
		t.DateColumn + " TEXT",
	}
	if t.HasRegion {
		cols = append(cols, "region TEXT")
	}
	cols = append(cols, "updated_at TEXT NOT NULL")
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", t.Name, strings.Join(cols, ",\n\t"))
}

// migrate applies migrations not yet recorded in schema_migrations.
func (s *SQLStore) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaMigrationsTable); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied, err := s.appliedVersions(ctx)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		for _, stmt := range m.Statements(s.dialect) {
			if _, err := s.db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migration v%d (%s): %w", m.Version, m.Name, err)
			}
		}
		if _, err := s.db.ExecContext(ctx,
			s.Rebind("INSERT INTO schema_migrations (version, name, description) VALUES (?, ?, ?)"),
			m.Version, m.Name, m.Description); err != nil {
			return fmt.Errorf("record migration v%d: %w", m.Version, err)
		}
		logging.Info().Int("version", m.Version).Str("name", m.Name).Msg("Applied warehouse migration")
	}
	return nil
}

func (s *SQLStore) appliedVersions(ctx context.Context) (map[int]bool, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan migration version: %w", err)
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// Migrations returns the applied schema versions.
func (s *SQLStore) Migrations(ctx context.Context) ([]int, error) {
	applied, err := s.appliedVersions(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]int, 0, len(applied))
	for _, m := range migrations {
		if applied[m.Version] {
			out = append(out, m.Version)
		}
	}
	return out, nil
}
