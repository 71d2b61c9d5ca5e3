// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package casestudy

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tomtom215/beaconkpi/internal/logging"
)

// SQLDB is the slice of a warehouse connection the store needs.
type SQLDB interface {
	DB() *sql.DB
	Rebind(query string) string
}

// SQLStore keeps case_studies in the warehouse database. date_added is
// fixed-width text, so range filters compare lexically on every driver.
type SQLStore struct {
	conn SQLDB
}

var _ Store = (*SQLStore)(nil)

// NewSQLStore returns a store over conn. Call CreateTable before use.
func NewSQLStore(conn SQLDB) *SQLStore {
	return &SQLStore{conn: conn}
}

// CreateTable creates case_studies if missing.
func (s *SQLStore) CreateTable(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS case_studies (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			region TEXT NOT NULL,
			date_added TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_case_studies_region ON case_studies(region)`,
	}
	for _, stmt := range statements {
		if _, err := s.conn.DB().ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute case study schema statement: %w", err)
		}
	}
	logging.Info().Msg("Case study table created/verified")
	return nil
}

func (s *SQLStore) Add(ctx context.Context, cs *CaseStudy) error {
	if cs == nil {
		return ErrInvalid
	}
	query := s.conn.Rebind(`INSERT INTO case_studies (id, title, content, region, date_added) VALUES (?, ?, ?, ?, ?)`)
	if _, err := s.conn.DB().ExecContext(ctx, query, cs.ID, cs.Title, cs.Content, cs.Region, cs.DateAdded); err != nil {
		return fmt.Errorf("failed to save case study: %w", err)
	}
	return nil
}

func (s *SQLStore) List(ctx context.Context, f Filter) ([]CaseStudy, error) {
	var conds []string
	var args []any
	if f.Region != "" && f.Region != GlobalRegion {
		conds = append(conds, "region = ?")
		args = append(args, f.Region)
	}
	if f.Start != nil {
		conds = append(conds, "date_added >= ?")
		args = append(args, f.Start.Format(DateLayout))
	}
	if f.End != nil {
		conds = append(conds, "date_added <= ?")
		args = append(args, f.End.Format(DateLayout))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	query := s.conn.Rebind("SELECT id, title, content, region, date_added FROM case_studies" + where +
		" ORDER BY date_added DESC, id DESC")
	rows, err := s.conn.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query case studies: %w", err)
	}
	defer rows.Close()

	studies := []CaseStudy{}
	for rows.Next() {
		var cs CaseStudy
		if err := rows.Scan(&cs.ID, &cs.Title, &cs.Content, &cs.Region, &cs.DateAdded); err != nil {
			return nil, fmt.Errorf("failed to scan case study: %w", err)
		}
		studies = append(studies, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating case studies: %w", err)
	}
	return studies, nil
}

// Close is a no-op; the warehouse owns the connection.
func (s *SQLStore) Close() error { return nil }
