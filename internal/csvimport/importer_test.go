// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package csvimport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/beaconkpi/internal/audit"
	"github.com/tomtom215/beaconkpi/internal/logging"
	"github.com/tomtom215/beaconkpi/internal/syncerr"
	"github.com/tomtom215/beaconkpi/internal/transform"
	"github.com/tomtom215/beaconkpi/internal/warehouse"
)

var exportFixtures = map[transform.Kind]string{
	transform.People:        "Record ID,Created date,Region,Type\np1,2025-01-05,North,Volunteer\np2,2025-02-05,South,Participant\n",
	transform.Organisations: "Record ID;Created date;Region;Type\no1;2025-01-10;North;University\n",
	transform.Events:        "Record ID,Start date,Location (region),Type,Number of attendees\ne1,2025-03-01,North,Walk,12\n",
	transform.Payments:      "Record ID,Payment date,Amount (value)\npay1,2025-03-02,20\npay2,2025-03-03,30\n",
	transform.Grants:        "Record ID,Close date,Amount granted (value),Stage\ng1,2025-04-01,1000,Won\n",
}

type countingInvalidator struct{ n int }

func (c *countingInvalidator) Invalidate() { c.n++ }

func newTestImporter(t *testing.T) (*Importer, *warehouse.MemoryStore, *audit.MemoryStore, *countingInvalidator) {
	t.Helper()
	store := warehouse.NewMemoryStore()
	auditStore := audit.NewMemoryStore()
	inv := &countingInvalidator{}
	imp := NewImporter(warehouse.NewUpserter(store, 0, 0), audit.NewLogger(auditStore), inv)
	imp.now = func() time.Time { return time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC) }
	return imp, store, auditStore, inv
}

func writeExports(t *testing.T, dir string) {
	t.Helper()
	for kind, body := range exportFixtures {
		if err := os.WriteFile(filepath.Join(dir, FileNames[kind]), []byte(body), 0o600); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
	}
}

func TestImport(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeExports(t, dir)
	imp, store, auditStore, inv := newTestImporter(t)

	counts, err := imp.Import(context.Background(), FilesIn(dir))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	want := Counts{People: 2, Organisations: 1, Events: 1, Payments: 2, Grants: 1, ImportedAt: "2025-06-01T10:00:00.000000Z"}
	if *counts != want {
		t.Errorf("counts = %+v, want %+v", *counts, want)
	}
	if counts.Total() != 7 {
		t.Errorf("Total = %d, want 7", counts.Total())
	}
	if n := store.Len(warehouse.PeopleTable); n != 2 {
		t.Errorf("people rows = %d, want 2", n)
	}
	if inv.n != 1 {
		t.Errorf("cache invalidated %d times, want 1", inv.n)
	}

	events, err := auditStore.Query(context.Background(), audit.QueryFilter{Actions: []string{audit.ActionCSVImportCompleted}})
	if err != nil {
		t.Fatalf("audit query: %v", err)
	}
	if len(events) != 1 || events[0].Details["source"] != audit.SourceCSV {
		t.Errorf("audit events = %+v", events)
	}

	rows, err := store.ReadRows(context.Background(), warehouse.EventsTable, warehouse.Window{})
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	if len(rows) != 1 || rows[0].Region == nil || *rows[0].Region != "North" {
		t.Errorf("event rows = %+v", rows)
	}
}

func TestImport_MissingFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeExports(t, dir)
	missing := filepath.Join(dir, FileNames[transform.Grants])
	if err := os.Remove(missing); err != nil {
		t.Fatal(err)
	}
	imp, store, auditStore, inv := newTestImporter(t)

	_, err := imp.Import(context.Background(), FilesIn(dir))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), missing) {
		t.Errorf("error %q does not name %s", err, missing)
	}
	if syncerr.IsRetryable(err) {
		t.Error("missing file should be fatal")
	}
	if store.Len(warehouse.PeopleTable) != 0 {
		t.Error("nothing should be written when a file is missing")
	}
	if inv.n != 0 {
		t.Error("cache should not be invalidated on failure")
	}
	if auditStore.Len() != 1 {
		t.Errorf("audit events = %d, want 1 failure", auditStore.Len())
	}
}

func TestImportReaders_MissingReader(t *testing.T) {
	t.Parallel()

	imp, _, _, _ := newTestImporter(t)
	readers := map[transform.Kind]io.Reader{
		transform.People: strings.NewReader(exportFixtures[transform.People]),
	}
	_, err := imp.ImportReaders(context.Background(), readers)
	if !errors.Is(err, ErrInvalidExport) {
		t.Fatalf("err = %v, want ErrInvalidExport", err)
	}
}

func TestImportReaders_InProgress(t *testing.T) {
	t.Parallel()

	imp, _, _, _ := newTestImporter(t)
	imp.running = true

	if _, err := imp.ImportReaders(context.Background(), nil); err != ErrImportInProgress {
		t.Fatalf("err = %v, want ErrImportInProgress", err)
	}
}

// Not parallel: swaps the global logger.
func TestImport_LogsWithComponent(t *testing.T) {
	var buf bytes.Buffer
	prev := logging.Logger()
	logging.SetLogger(logging.NewTestLogger(&buf))
	defer logging.SetLogger(prev)

	dir := t.TempDir()
	writeExports(t, dir)
	imp, _, _, _ := newTestImporter(t)

	ctx := logging.ContextWithCorrelationID(context.Background(), "imp-42")
	if _, err := imp.Import(ctx, FilesIn(dir)); err != nil {
		t.Fatalf("Import: %v", err)
	}

	out := buf.String()
	for _, want := range []string{`"component":"csvimport"`, `"correlation_id":"imp-42"`, `"records":7`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s:\n%s", want, out)
		}
	}
}
