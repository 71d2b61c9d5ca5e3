// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

// Command beaconsync runs one Beacon to warehouse sync and prints the
// summary as JSON. It exits 1 when the sync fails; the failure has already
// been written to the audit trail by then.
//
//	beaconsync            # sync now
//	beaconsync -smoke     # single-record check of the person endpoint
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"

	"github.com/tomtom215/beaconkpi/internal/app"
	"github.com/tomtom215/beaconkpi/internal/config"
	"github.com/tomtom215/beaconkpi/internal/logging"
	"github.com/tomtom215/beaconkpi/internal/sync"
)

func main() {
	smoke := flag.Bool("smoke", false, "run the Beacon smoke test instead of a sync")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Warn().Err(err).Msg("Failed to read .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}
	logging.Init(app.LoggingConfig(cfg.Logging))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *smoke, os.Stdout); err != nil {
		logging.Err(err).Msg("Beacon sync failed")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, smoke bool, out io.Writer) error {
	a, err := app.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logging.Warn().Err(err).Msg("Error closing warehouse")
		}
	}()

	syncer, err := a.NewSyncer(ctx, nil)
	if err != nil {
		return err
	}

	var result any
	if smoke {
		result, err = syncer.Beacon.SmokeTest(ctx)
	} else {
		result, err = syncer.Manager.TriggerSync(ctx, sync.TriggerCLI)
	}
	if err != nil {
		return err
	}
	return writeJSON(out, result)
}

func writeJSON(out io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}
