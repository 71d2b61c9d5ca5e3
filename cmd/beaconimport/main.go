// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

// Command beaconimport loads the five Beacon CSV exports (people.csv,
// organization.csv, event.csv, payment.csv, grant.csv) into the warehouse.
//
//	beaconimport -dir ./exports
//
// All five files must be present; nothing is written otherwise.
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
	"github.com/tomtom215/beaconkpi/internal/csvimport"
	"github.com/tomtom215/beaconkpi/internal/logging"
)

func main() {
	dir := flag.String("dir", ".", "directory holding the CSV exports")
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

	if err := run(ctx, cfg, *dir, os.Stdout); err != nil {
		logging.Err(err).Str("dir", *dir).Msg("CSV import failed")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, dir string, out io.Writer) error {
	a, err := app.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logging.Warn().Err(err).Msg("Error closing warehouse")
		}
	}()

	counts, err := a.Importer.Import(ctx, csvimport.FilesIn(dir))
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(counts, "", "  ")
	if err != nil {
		return fmt.Errorf("encode counts: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}
