// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package kpi

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/beaconkpi/internal/logging"
	"github.com/tomtom215/beaconkpi/internal/transform"
	"github.com/tomtom215/beaconkpi/internal/warehouse"
)

// SourceWarehouse marks reports computed from warehouse tables.
const SourceWarehouse = "warehouse"

// Service computes reports from the warehouse.
type Service struct {
	store warehouse.Store
	cache *ReportCache
	now   func() time.Time
}

// NewService returns a Service reading from store. A nil cache disables
// caching.
func NewService(store warehouse.Store, c *ReportCache) *Service {
	return &Service{store: store, cache: c, now: time.Now}
}

// Report returns the KPI report for region over w.
func (s *Service) Report(ctx context.Context, region string, w Window) (*Report, error) {
	if region == "" {
		region = GlobalRegion
	}
	in, err := s.Load(ctx, w)
	if err != nil {
		return nil, err
	}

	var key string
	if s.cache != nil {
		key = Key(region, in)
		if r, ok := s.cache.Get(key); ok {
			return r, nil
		}
	}

	report := computeAt(region, in, s.now())
	report.Source = SourceWarehouse
	if s.cache != nil {
		s.cache.Set(key, report)
	}

	logging.Ctx(ctx).Debug().Str("region", region).Str("window", w.String()).
		Int("region_events", report.Debug.RegionEvents).Msg("KPI report computed")
	return report, nil
}

// Load reads the five canonical collections inside w.
func (s *Service) Load(ctx context.Context, w Window) (Input, error) {
	bounds := w.Bounds()
	read := func(kind transform.Kind) ([]map[string]any, error) {
		table, ok := warehouse.TableFor(kind)
		if !ok {
			return nil, fmt.Errorf("%w: %s", warehouse.ErrUnknownTable, kind)
		}
		rows, err := s.store.ReadRows(ctx, table, bounds)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", table.Name, err)
		}
		return warehouse.Records(table, rows), nil
	}

	var in Input
	var err error
	if in.People, err = read(transform.People); err != nil {
		return Input{}, err
	}
	if in.Organisations, err = read(transform.Organisations); err != nil {
		return Input{}, err
	}
	if in.Events, err = read(transform.Events); err != nil {
		return Input{}, err
	}
	if in.Payments, err = read(transform.Payments); err != nil {
		return Input{}, err
	}
	if in.Grants, err = read(transform.Grants); err != nil {
		return Input{}, err
	}
	return in, nil
}

// LastRefresh returns the newest updated_at across the warehouse tables.
func (s *Service) LastRefresh(ctx context.Context) (time.Time, bool, error) {
	return s.store.LatestUpdate(ctx)
}

// Invalidate clears cached reports.
func (s *Service) Invalidate() {
	if s.cache != nil {
		s.cache.Invalidate()
	}
}
