// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

// Package app wires configuration into the warehouse, audit trail, report
// service and sync pipeline. The three commands share it so a one-shot sync
// behaves exactly like a scheduled one.
package app

import (
	"context"
	"fmt"

	"github.com/tomtom215/beaconkpi/internal/archive"
	"github.com/tomtom215/beaconkpi/internal/attendance"
	"github.com/tomtom215/beaconkpi/internal/audit"
	"github.com/tomtom215/beaconkpi/internal/beacon"
	"github.com/tomtom215/beaconkpi/internal/casestudy"
	"github.com/tomtom215/beaconkpi/internal/config"
	"github.com/tomtom215/beaconkpi/internal/csvimport"
	"github.com/tomtom215/beaconkpi/internal/kpi"
	"github.com/tomtom215/beaconkpi/internal/logging"
	"github.com/tomtom215/beaconkpi/internal/notify"
	"github.com/tomtom215/beaconkpi/internal/sync"
	"github.com/tomtom215/beaconkpi/internal/warehouse"
)

// App holds the components built from one Config.
type App struct {
	Config    *config.Config
	Warehouse *warehouse.SQLStore
	Audit     *audit.Logger
	Cache     *kpi.ReportCache
	Reports   *kpi.Service
	Upserter  *warehouse.Upserter
	Importer  *csvimport.Importer
}

// Open connects the warehouse, prepares the audit table and builds the
// report and import services.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := warehouse.Open(ctx, &cfg.Warehouse)
	if err != nil {
		return nil, err
	}

	auditStore := audit.NewSQLStore(store)
	if err := auditStore.CreateTable(ctx); err != nil {
		closeStore(store)
		return nil, fmt.Errorf("prepare audit trail: %w", err)
	}
	auditLog := audit.NewLogger(auditStore)

	reportCache := kpi.NewReportCache(cfg.Cache.ReportTTL)
	upserter := warehouse.NewUpserter(store, cfg.Sync.ChunkSize, cfg.Sync.MinChunkSize)

	return &App{
		Config:    cfg,
		Warehouse: store,
		Audit:     auditLog,
		Cache:     reportCache,
		Reports:   kpi.NewService(store, reportCache),
		Upserter:  upserter,
		Importer:  csvimport.NewImporter(upserter, auditLog, reportCache),
	}, nil
}

// Close releases the warehouse connection.
func (a *App) Close() error {
	return a.Warehouse.Close()
}

// Broadcaster receives sync progress and outcomes. *websocket.Hub
// implements it.
type Broadcaster interface {
	SyncProgress(percent int, message string)
	SyncCompleted(summary any)
	SyncFailed(err error)
}

// Syncer is the sync pipeline built by NewSyncer.
type Syncer struct {
	Beacon       *beacon.Client
	Orchestrator *sync.Orchestrator
	Manager      *sync.Manager
}

// NewSyncer builds the Beacon client and the orchestrator around it. A
// missing API key is a fatal configuration error. hub may be nil.
func (a *App) NewSyncer(ctx context.Context, hub Broadcaster) (*Syncer, error) {
	cfg := a.Config

	client, err := beacon.NewClient(&cfg.Beacon)
	if err != nil {
		return nil, err
	}

	notifier, err := notify.New(&cfg.Notify)
	if err != nil {
		return nil, fmt.Errorf("sync notifications: %w", err)
	}

	opts := sync.Options{
		Fetcher:         client,
		Attendance:      attendance.NewResolver(cfg.Beacon.AttendanceEndpoint, attendance.DefaultChain(cfg.Beacon.AttendanceHeuristics)),
		Upserter:        a.Upserter,
		Audit:           a.Audit,
		Notifier:        notifier,
		Cache:           a.Cache,
		MaxAttempts:     cfg.Sync.MaxAttempts,
		RetryDelay:      cfg.Sync.RetryDelay,
		NotifyOnSuccess: cfg.Notify.OnSuccess,
	}
	if hub != nil {
		opts.Progress = hub.SyncProgress
	}

	if cfg.Archive.Enabled() {
		archiver, err := archive.New(ctx, cfg.Archive)
		if err != nil {
			logging.Warn().Err(err).Msg("Sync summary archive disabled")
		} else {
			opts.Archiver = archiver
		}
	}

	orchestrator, err := sync.NewOrchestrator(opts)
	if err != nil {
		return nil, err
	}

	var runner sync.Runner = orchestrator
	if hub != nil {
		runner = &broadcastRunner{runner: orchestrator, hub: hub}
	}

	return &Syncer{
		Beacon:       client,
		Orchestrator: orchestrator,
		Manager:      sync.NewManager(runner, &cfg.Sync),
	}, nil
}

// OpenCaseStudies opens the configured case-study store and its service.
func (a *App) OpenCaseStudies(ctx context.Context) (*casestudy.Service, casestudy.Store, error) {
	store, err := casestudy.Open(ctx, a.Config.CaseStudies, a.Warehouse)
	if err != nil {
		return nil, nil, err
	}
	return casestudy.NewService(store, a.Audit), store, nil
}

// broadcastRunner tells websocket clients how each sync ended.
type broadcastRunner struct {
	runner sync.Runner
	hub    Broadcaster
}

func (b *broadcastRunner) Run(ctx context.Context, trigger string) (*sync.Summary, error) {
	summary, err := b.runner.Run(ctx, trigger)
	if err != nil {
		b.hub.SyncFailed(err)
		return nil, err
	}
	b.hub.SyncCompleted(summary)
	return summary, nil
}

func closeStore(store *warehouse.SQLStore) {
	if err := store.Close(); err != nil {
		logging.Warn().Err(err).Msg("Failed to close warehouse")
	}
}

// LoggingConfig maps the logging section onto the logger defaults, so
// timestamps and stderr output stay on unless overridden.
func LoggingConfig(cfg config.LoggingConfig) logging.Config {
	lc := logging.DefaultConfig()
	if cfg.Level != "" {
		lc.Level = cfg.Level
	}
	if cfg.Format != "" {
		lc.Format = cfg.Format
	}
	lc.Caller = cfg.Caller
	return lc
}
