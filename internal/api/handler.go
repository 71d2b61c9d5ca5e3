// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/tomtom215/beaconkpi/internal/audit"
	"github.com/tomtom215/beaconkpi/internal/beacon"
	"github.com/tomtom215/beaconkpi/internal/casestudy"
	"github.com/tomtom215/beaconkpi/internal/csvimport"
	"github.com/tomtom215/beaconkpi/internal/kpi"
	"github.com/tomtom215/beaconkpi/internal/sync"
	"github.com/tomtom215/beaconkpi/internal/transform"
)

// ErrSyncDisabled is returned by a SyncController that cannot reach Beacon,
// typically because no API key is configured.
var ErrSyncDisabled = errors.New("beacon API sync is disabled")

// ReportService computes KPI reports.
type ReportService interface {
	Report(ctx context.Context, region string, w kpi.Window) (*kpi.Report, error)
	LastRefresh(ctx context.Context) (time.Time, bool, error)
}

// SyncController starts syncs and reports on the last one.
type SyncController interface {
	TriggerAsync(trigger string) error
	Syncing() bool
	LastSyncTime() time.Time
	LastSummary() *sync.Summary
	LastError() error
}

// SmokeTester checks the Beacon API.
type SmokeTester interface {
	SmokeTest(ctx context.Context) (*beacon.SmokeResult, error)
}

// CSVImporter loads Beacon CSV exports.
type CSVImporter interface {
	ImportReaders(ctx context.Context, readers map[transform.Kind]io.Reader) (*csvimport.Counts, error)
}

// CaseStudies stores and lists case studies.
type CaseStudies interface {
	Add(ctx context.Context, in casestudy.Input, actor string) (*casestudy.CaseStudy, error)
	List(ctx context.Context, f casestudy.Filter) ([]casestudy.CaseStudy, error)
}

// Pinger checks the warehouse connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services behind the handlers. Smoke, Importer, CaseStudies
// and WebSocket may be nil; their routes then answer 503.
type Deps struct {
	Reports     ReportService
	Sync        SyncController
	Smoke       SmokeTester
	Importer    CSVImporter
	CaseStudies CaseStudies
	Warehouse   Pinger
	Audit       *audit.Logger
	WebSocket   http.Handler

	// MaxUploadBytes caps a CSV upload request. Defaults to 64 MiB.
	MaxUploadBytes int64
}

// Handler serves the HTTP API.
type Handler struct {
	reports     ReportService
	sync        SyncController
	smoke       SmokeTester
	importer    CSVImporter
	caseStudies CaseStudies
	warehouse   Pinger
	audit       *audit.Logger
	ws          http.Handler
	maxUpload   int64
	startTime   time.Time
	now         func() time.Time
}

const defaultMaxUploadBytes = 64 << 20

// NewHandler creates a Handler. Reports, Sync, Warehouse and Audit are
// required.
func NewHandler(d Deps) *Handler {
	maxUpload := d.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}
	return &Handler{
		reports:     d.Reports,
		sync:        d.Sync,
		smoke:       d.Smoke,
		importer:    d.Importer,
		caseStudies: d.CaseStudies,
		warehouse:   d.Warehouse,
		audit:       d.Audit,
		ws:          d.WebSocket,
		maxUpload:   maxUpload,
		startTime:   time.Now(),
		now:         time.Now,
	}
}

// actor names the user behind a request for audit events.
func actor(r *http.Request) string {
	if a := r.Header.Get("X-Actor"); a != "" && len(a) <= 100 {
		return sanitizeLogValue(a)
	}
	return audit.SystemActor
}

func unavailable(w http.ResponseWriter, r *http.Request, what string) {
	respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, what+" is not configured", nil)
}
