// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

// Package csvimport loads Beacon CSV exports into the warehouse.
//
// Five files are expected, one per canonical collection. Column names are
// matched through candidate lists, so exports from different Beacon report
// templates import without configuration. Rows without an id are dropped;
// repeated ids keep the last row.
package csvimport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/beaconkpi/internal/audit"
	"github.com/tomtom215/beaconkpi/internal/logging"
	"github.com/tomtom215/beaconkpi/internal/syncerr"
	"github.com/tomtom215/beaconkpi/internal/transform"
	"github.com/tomtom215/beaconkpi/internal/warehouse"
)

// ErrImportInProgress is returned when Import is called while another
// import is running.
var ErrImportInProgress = errors.New("csv import already in progress")

// ErrInvalidExport marks an upload that is missing a file or is not a
// readable CSV export.
var ErrInvalidExport = errors.New("invalid csv export")

// FileNames are the export file names, keyed by collection.
var FileNames = map[transform.Kind]string{
	transform.People:        "people.csv",
	transform.Organisations: "organization.csv",
	transform.Events:        "event.csv",
	transform.Payments:      "payment.csv",
	transform.Grants:        "grant.csv",
}

// Files holds the path of each export.
type Files map[transform.Kind]string

// FilesIn returns the standard export paths inside dir.
func FilesIn(dir string) Files {
	files := make(Files, len(FileNames))
	for kind, name := range FileNames {
		files[kind] = filepath.Join(dir, name)
	}
	return files
}

// Counts is the result of an import.
type Counts struct {
	People        int    `json:"people"`
	Organisations int    `json:"organisations"`
	Events        int    `json:"events"`
	Payments      int    `json:"payments"`
	Grants        int    `json:"grants"`
	ImportedAt    string `json:"imported_at"`
}

// Total returns the number of rows imported.
func (c *Counts) Total() int {
	return c.People + c.Organisations + c.Events + c.Payments + c.Grants
}

// Invalidator drops derived data after a warehouse write.
type Invalidator interface {
	Invalidate()
}

// Importer writes CSV exports through the chunked upserter.
type Importer struct {
	upserter *warehouse.Upserter
	audit    *audit.Logger
	cache    Invalidator
	now      func() time.Time
	log      zerolog.Logger

	mu      sync.Mutex
	running bool
}

// NewImporter returns an Importer. auditLog and cache may be nil.
func NewImporter(upserter *warehouse.Upserter, auditLog *audit.Logger, cache Invalidator) *Importer {
	return &Importer{
		upserter: upserter,
		audit:    auditLog,
		cache:    cache,
		now:      time.Now,
		log:      logging.WithComponent("csvimport"),
	}
}

// Import reads every file in files and upserts the rows. All five files
// must exist; a missing one fails the import before anything is written.
func (i *Importer) Import(ctx context.Context, files Files) (*Counts, error) {
	for _, kind := range transform.Kinds {
		path, ok := files[kind]
		if !ok || path == "" {
			return nil, i.failed(ctx, syncerr.Fatalf("csv import", "missing file for %s", kind))
		}
		if _, err := os.Stat(path); err != nil {
			return nil, i.failed(ctx, syncerr.Fatalf("csv import", "missing file: %s", path))
		}
	}

	readers := make(map[transform.Kind]io.Reader, len(files))
	for _, kind := range transform.Kinds {
		f, err := os.Open(files[kind])
		if err != nil {
			return nil, i.failed(ctx, syncerr.Fatal("csv import", err))
		}
		defer i.closeQuietly(f)
		readers[kind] = f
	}
	return i.ImportReaders(ctx, readers)
}

// ImportReaders imports already opened exports, such as multipart uploads.
// Every collection must have a reader.
func (i *Importer) ImportReaders(ctx context.Context, readers map[transform.Kind]io.Reader) (*Counts, error) {
	i.mu.Lock()
	if i.running {
		i.mu.Unlock()
		return nil, ErrImportInProgress
	}
	i.running = true
	i.mu.Unlock()
	defer func() {
		i.mu.Lock()
		i.running = false
		i.mu.Unlock()
	}()

	started := i.now()
	updatedAt := transform.Timestamp(started)

	set := &transform.Set{}
	batches := map[transform.Kind]**transform.Batch{
		transform.People:        &set.People,
		transform.Organisations: &set.Organisations,
		transform.Events:        &set.Events,
		transform.Payments:      &set.Payments,
		transform.Grants:        &set.Grants,
	}
	for _, kind := range transform.Kinds {
		r, ok := readers[kind]
		if !ok || r == nil {
			return nil, i.failed(ctx, syncerr.Fatalf("csv import", "%w: missing %s for %s", ErrInvalidExport, FileNames[kind], kind))
		}
		rows, err := ReadRows(r)
		if err != nil {
			return nil, i.failed(ctx, syncerr.Fatal("csv import "+FileNames[kind], fmt.Errorf("%w: %w", ErrInvalidExport, err)))
		}
		*batches[kind] = MapRows(kind, rows, updatedAt)
		i.log.Debug().Str("file", FileNames[kind]).Int("rows", len(rows)).
			Int("distinct", set.Batch(kind).Len()).Msg("CSV export parsed")
	}

	written, err := i.upserter.UpsertSet(ctx, set)
	if err != nil {
		return nil, i.failed(ctx, err)
	}

	counts := &Counts{
		People:        written[transform.People],
		Organisations: written[transform.Organisations],
		Events:        written[transform.Events],
		Payments:      written[transform.Payments],
		Grants:        written[transform.Grants],
		ImportedAt:    transform.Timestamp(i.now()),
	}

	if i.audit != nil {
		_ = i.audit.Log(ctx, audit.ActionCSVImportCompleted, map[string]any{
			"source":        audit.SourceCSV,
			"people":        counts.People,
			"organisations": counts.Organisations,
			"events":        counts.Events,
			"payments":      counts.Payments,
			"grants":        counts.Grants,
			"imported_at":   counts.ImportedAt,
			"duration_ms":   i.now().Sub(started).Milliseconds(),
		})
	}
	if i.cache != nil {
		i.cache.Invalidate()
	}

	logging.FromContext(ctx, i.log).Info().Int("records", counts.Total()).Msg("CSV import completed")
	return counts, nil
}

func (i *Importer) failed(ctx context.Context, err error) error {
	logging.FromContext(ctx, i.log).Error().Err(err).Msg("CSV import failed")
	if i.audit != nil {
		_ = i.audit.Log(context.WithoutCancel(ctx), audit.ActionCSVImportFailed, map[string]any{
			"source": audit.SourceCSV,
			"error":  err.Error(),
		})
	}
	return fmt.Errorf("csv import: %w", err)
}

func (i *Importer) closeQuietly(c io.Closer) {
	if err := c.Close(); err != nil {
		i.log.Warn().Err(err).Msg("Failed to close CSV file")
	}
}
