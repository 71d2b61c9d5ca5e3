// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/beaconkpi/internal/beacon"
	"github.com/tomtom215/beaconkpi/internal/config"
	"github.com/tomtom215/beaconkpi/internal/logging"
	"github.com/tomtom215/beaconkpi/internal/sync"
	"github.com/tomtom215/beaconkpi/internal/warehouse"
)

func testConfig() *config.Config {
	return &config.Config{
		Beacon: config.BeaconConfig{
			AccountID: "acct",
			BaseURL:   "https://api.beaconcrm.org/v1/account/{account_id}",
			PerPage:   50,
			MaxPages:  10,
			Timeout:   5 * time.Second,
		},
		Sync: config.SyncConfig{
			MaxAttempts:  2,
			RetryDelay:   30 * time.Second,
			ChunkSize:    200,
			MinChunkSize: 25,
		},
		Warehouse: config.WarehouseConfig{Driver: warehouse.DriverSQLite, DSN: ":memory:"},
		Cache:     config.CacheConfig{ReportTTL: time.Minute},
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a, err := Open(ctx, testConfig())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })

	if err := a.Audit.Log(ctx, "Test Event", nil); err != nil {
		t.Fatalf("audit table not ready: %v", err)
	}
	if _, ok, err := a.Reports.LastRefresh(ctx); err != nil || ok {
		t.Fatalf("LastRefresh on empty warehouse = %v, %v", ok, err)
	}

	svc, store, err := a.OpenCaseStudies(ctx)
	if err != nil || svc == nil {
		t.Fatalf("OpenCaseStudies: %v", err)
	}
	_ = store.Close()
}

func TestNewSyncer_RequiresAPIKey(t *testing.T) {
	t.Parallel()

	a, err := Open(context.Background(), testConfig())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = a.Close() })

	if _, err := a.NewSyncer(context.Background(), nil); !errors.Is(err, beacon.ErrMissingAPIKey) {
		t.Fatalf("err = %v, want ErrMissingAPIKey", err)
	}

	a.Config.Beacon.APIKey = "secret"
	s, err := a.NewSyncer(context.Background(), nil)
	if err != nil {
		t.Fatalf("NewSyncer: %v", err)
	}
	if s.Manager == nil || s.Beacon == nil {
		t.Fatalf("incomplete syncer %+v", s)
	}
}

type fakeRunner struct {
	summary *sync.Summary
	err     error
}

func (f fakeRunner) Run(context.Context, string) (*sync.Summary, error) {
	return f.summary, f.err
}

type recordingHub struct {
	completed []any
	failed    []error
}

func (h *recordingHub) SyncProgress(int, string)  {}
func (h *recordingHub) SyncCompleted(summary any) { h.completed = append(h.completed, summary) }
func (h *recordingHub) SyncFailed(err error)      { h.failed = append(h.failed, err) }

func TestBroadcastRunner(t *testing.T) {
	t.Parallel()

	hub := &recordingHub{}
	ok := &broadcastRunner{runner: fakeRunner{summary: &sync.Summary{People: 3}}, hub: hub}
	if _, err := ok.Run(context.Background(), sync.TriggerManual); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("beacon down")
	bad := &broadcastRunner{runner: fakeRunner{err: boom}, hub: hub}
	if _, err := bad.Run(context.Background(), sync.TriggerManual); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}

	if len(hub.completed) != 1 || len(hub.failed) != 1 {
		t.Fatalf("completed = %d failed = %d", len(hub.completed), len(hub.failed))
	}
}

func TestLoggingConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   config.LoggingConfig
		want logging.Config
	}{
		{
			name: "empty keeps defaults",
			in:   config.LoggingConfig{},
			want: logging.DefaultConfig(),
		},
		{
			name: "overrides level format and caller",
			in:   config.LoggingConfig{Level: "debug", Format: "console", Caller: true},
			want: func() logging.Config {
				c := logging.DefaultConfig()
				c.Level, c.Format, c.Caller = "debug", "console", true
				return c
			}(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := LoggingConfig(tt.in)
			if got != tt.want {
				t.Errorf("LoggingConfig = %+v, want %+v", got, tt.want)
			}
			if !got.Timestamp {
				t.Error("timestamps disabled")
			}
		})
	}
}
