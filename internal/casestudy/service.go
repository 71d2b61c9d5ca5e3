// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package casestudy

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/beaconkpi/internal/audit"
	"github.com/tomtom215/beaconkpi/internal/config"
	"github.com/tomtom215/beaconkpi/internal/logging"
)

// Store backends accepted in config.CaseStudyConfig.Store.
const (
	StoreWarehouse = "warehouse"
	StoreBadger    = "badger"
)

// Open returns the configured backend. conn is only used by the warehouse
// backend.
func Open(ctx context.Context, cfg config.CaseStudyConfig, conn SQLDB) (Store, error) {
	switch cfg.Store {
	case "", StoreWarehouse:
		if conn == nil {
			return nil, fmt.Errorf("case study store %q needs a warehouse connection", StoreWarehouse)
		}
		s := NewSQLStore(conn)
		if err := s.CreateTable(ctx); err != nil {
			return nil, err
		}
		return s, nil
	case StoreBadger:
		return OpenBadger(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown case study store %q", cfg.Store)
	}
}

// Service adds case studies and records each addition in the audit trail.
type Service struct {
	store Store
	audit *audit.Logger
	now   func() time.Time
}

// NewService returns a Service. auditLog may be nil.
func NewService(store Store, auditLog *audit.Logger) *Service {
	return &Service{store: store, audit: auditLog, now: time.Now}
}

// Add stores a new case study on behalf of actor.
func (s *Service) Add(ctx context.Context, in Input, actor string) (*CaseStudy, error) {
	cs, err := New(in, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.store.Add(ctx, cs); err != nil {
		return nil, err
	}

	if s.audit != nil {
		err := s.audit.Record(ctx, &audit.Event{
			Action:  audit.ActionCaseStudyAdded,
			Actor:   actor,
			Region:  cs.Region,
			Details: map[string]any{"id": cs.ID, "title": cs.Title},
		})
		if err != nil {
			logging.Warn().Err(err).Str("id", cs.ID).Msg("Failed to audit case study")
		}
	}
	return cs, nil
}

// List returns matching case studies, newest first.
func (s *Service) List(ctx context.Context, f Filter) ([]CaseStudy, error) {
	return s.store.List(ctx, f)
}
