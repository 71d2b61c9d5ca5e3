// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

// Package main runs the long-lived Beacon KPI server: scheduled Beacon
// syncs, the KPI and case-study HTTP API, and the sync progress websocket,
// all under a suture supervisor tree.
//
// # Startup
//
//  1. .env (if present) and configuration (koanf: defaults, CONFIG_PATH file, env)
//  2. Warehouse connection and migrations (duckdb, postgres or sqlite)
//  3. Audit trail, report cache, case-study store
//  4. Beacon client and sync orchestrator (skipped without BEACON_API_KEY;
//     CSV import still works)
//  5. Supervisor tree: websocket hub, sync manager, HTTP server
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the tree. A running sync is canceled and its
// failure audited; the HTTP server drains for up to 10s.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	_ "github.com/tomtom215/beaconkpi/docs" // Import generated swagger docs
	"github.com/tomtom215/beaconkpi/internal/api"
	"github.com/tomtom215/beaconkpi/internal/app"
	"github.com/tomtom215/beaconkpi/internal/config"
	"github.com/tomtom215/beaconkpi/internal/logging"
	"github.com/tomtom215/beaconkpi/internal/supervisor"
	"github.com/tomtom215/beaconkpi/internal/supervisor/services"
	ws "github.com/tomtom215/beaconkpi/internal/websocket"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Warn().Err(err).Msg("Failed to read .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(app.LoggingConfig(cfg.Logging))
	logging.Info().Str("warehouse", cfg.Warehouse.Driver).Msg("Starting Beacon KPI server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx, cancel, cfg); err != nil {
		logging.Err(err).Msg("Server stopped with error")
		os.Exit(1)
	}
	logging.Info().Msg("Application stopped gracefully")
}

func run(ctx context.Context, cancel context.CancelFunc, cfg *config.Config) error {
	a, err := app.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logging.Err(err).Msg("Error closing warehouse")
		}
	}()

	caseStudies, caseStore, err := a.OpenCaseStudies(ctx)
	if err != nil {
		return fmt.Errorf("case studies: %w", err)
	}
	defer func() {
		if err := caseStore.Close(); err != nil {
			logging.Err(err).Msg("Error closing case-study store")
		}
	}()

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())

	hub := ws.NewHub()
	tree.AddSyncService(services.NewWebSocketHubService(hub))

	deps := api.Deps{
		Reports:     a.Reports,
		Importer:    a.Importer,
		CaseStudies: caseStudies,
		Warehouse:   a.Warehouse,
		Audit:       a.Audit,
		WebSocket:   ws.NewHandler(hub, cfg.Server.CORSOrigins),
	}

	syncer, err := a.NewSyncer(ctx, hub)
	if err != nil {
		// Without API credentials the server still serves reports and CSV
		// imports.
		logging.Warn().Err(err).Msg("Beacon API sync disabled")
		deps.Sync = idleSync{}
	} else {
		deps.Sync = syncer.Manager
		deps.Smoke = syncer.Beacon
		tree.AddSyncService(services.NewSyncService(syncer.Manager))
	}

	handler := api.NewHandler(deps)
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           api.NewRouter(handler, api.MiddlewareConfigFrom(&cfg.Server)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	var treeErr error
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Err(err).Msg("Supervisor tree error")
			treeErr = err
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}
	return treeErr
}
