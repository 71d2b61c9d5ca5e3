// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	gosync "sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/beaconkpi/internal/audit"
	"github.com/tomtom215/beaconkpi/internal/beacon"
	"github.com/tomtom215/beaconkpi/internal/casestudy"
	"github.com/tomtom215/beaconkpi/internal/csvimport"
	"github.com/tomtom215/beaconkpi/internal/kpi"
	"github.com/tomtom215/beaconkpi/internal/sync"
	"github.com/tomtom215/beaconkpi/internal/transform"
)

var fixedNow = time.Date(2025, time.May, 14, 9, 30, 0, 0, time.UTC)

type fakeReports struct {
	mu      gosync.Mutex
	region  string
	window  kpi.Window
	err     error
	refresh time.Time
}

func (f *fakeReports) Report(_ context.Context, region string, w kpi.Window) (*kpi.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.region, f.window = region, w
	if f.err != nil {
		return nil, f.err
	}
	return &kpi.Report{Region: region, LastUpdated: "2025-05-01T00:00:00.000000Z"}, nil
}

func (f *fakeReports) LastRefresh(context.Context) (time.Time, bool, error) {
	return f.refresh, !f.refresh.IsZero(), nil
}

type fakeSync struct {
	busy    bool
	trigger string
}

func (f *fakeSync) TriggerAsync(trigger string) error {
	if f.busy {
		return sync.ErrSyncInProgress
	}
	f.trigger = trigger
	return nil
}
func (f *fakeSync) Syncing() bool              { return f.busy }
func (f *fakeSync) LastSyncTime() time.Time    { return time.Time{} }
func (f *fakeSync) LastSummary() *sync.Summary { return nil }
func (f *fakeSync) LastError() error           { return nil }

type fakeSmoke struct {
	err error
}

func (f *fakeSmoke) SmokeTest(context.Context) (*beacon.SmokeResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &beacon.SmokeResult{StatusCode: 200, Endpoint: "person", RecordsInPage: 1}, nil
}

type fakeImporter struct {
	err    error
	bodies map[transform.Kind]string
}

func (f *fakeImporter) ImportReaders(_ context.Context, readers map[transform.Kind]io.Reader) (*csvimport.Counts, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.bodies = map[transform.Kind]string{}
	for k, r := range readers {
		b, _ := io.ReadAll(r)
		f.bodies[k] = string(b)
	}
	return &csvimport.Counts{People: 1, Organisations: 1, Events: 1, Payments: 1, Grants: 1}, nil
}

type fakeCaseStudies struct {
	added  []casestudy.Input
	actor  string
	filter casestudy.Filter
}

func (f *fakeCaseStudies) Add(_ context.Context, in casestudy.Input, actor string) (*casestudy.CaseStudy, error) {
	f.added = append(f.added, in)
	f.actor = actor
	return casestudy.New(in, fixedNow)
}

func (f *fakeCaseStudies) List(_ context.Context, filter casestudy.Filter) ([]casestudy.CaseStudy, error) {
	f.filter = filter
	return nil, nil
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

type fixture struct {
	reports *fakeReports
	sync    *fakeSync
	smoke   *fakeSmoke
	imports *fakeImporter
	studies *fakeCaseStudies
	ping    *fakePinger
	audit   *audit.Logger
	router  http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		reports: &fakeReports{},
		sync:    &fakeSync{},
		smoke:   &fakeSmoke{},
		imports: &fakeImporter{},
		studies: &fakeCaseStudies{},
		ping:    &fakePinger{},
		audit:   audit.NewLogger(audit.NewMemoryStore()),
	}
	h := NewHandler(Deps{
		Reports:     f.reports,
		Sync:        f.sync,
		Smoke:       f.smoke,
		Importer:    f.imports,
		CaseStudies: f.studies,
		Warehouse:   f.ping,
		Audit:       f.audit,
	})
	h.now = func() time.Time { return fixedNow }
	f.router = NewRouter(h, MiddlewareConfig{RateLimitDisabled: true})
	return f
}

func (f *fixture) do(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return rec, resp
}

func TestHealth(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec, resp := f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil))
	if rec.Code != http.StatusOK || resp.Status != "success" {
		t.Fatalf("live = %d %+v", rec.Code, resp)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing request id")
	}

	rec, _ = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("ready = %d", rec.Code)
	}

	f.ping.err = errors.New("connection refused")
	rec, resp = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable || resp.Error == nil || resp.Error.Code != ErrCodeServiceUnavailable {
		t.Fatalf("ready with failing ping = %d %+v", rec.Code, resp.Error)
	}
	if strings.Contains(rec.Body.String(), "connection refused") {
		t.Error("internal error leaked to client")
	}
}

func TestKPIReport(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantCode   string
		wantRegion string
		wantWindow string
	}{
		{name: "defaults to global all time", query: "", wantStatus: 200, wantRegion: "Global", wantWindow: "all time"},
		{name: "region and quarter", query: "region=North+West&timeframe=Quarter&year=2024&quarter=Q2",
			wantStatus: 200, wantRegion: "North West", wantWindow: "2024-04-01 to 2024-06-30"},
		{name: "month defaults to current year", query: "timeframe=Month&month=2",
			wantStatus: 200, wantRegion: "Global", wantWindow: "2025-02-01 to 2025-02-28"},
		{name: "custom range alias", query: "timeframe=Custom+Range&start=2025-01-01&end=2025-01-31",
			wantStatus: 200, wantRegion: "Global", wantWindow: "2025-01-01 to 2025-01-31"},
		{name: "bad year", query: "timeframe=Year&year=abc", wantStatus: 400, wantCode: ErrCodeBadRequest},
		{name: "unknown timeframe", query: "timeframe=Fortnight", wantStatus: 400, wantCode: ErrCodeValidation},
		{name: "bad date", query: "timeframe=Custom&start=01/02/2025", wantStatus: 400, wantCode: ErrCodeValidation},
		{name: "end before start", query: "timeframe=Custom&start=2025-02-01&end=2025-01-01", wantStatus: 400, wantCode: ErrCodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			rec, resp := f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/kpi?"+tt.query, nil))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantCode != "" {
				if resp.Error == nil || resp.Error.Code != tt.wantCode {
					t.Fatalf("error = %+v, want code %s", resp.Error, tt.wantCode)
				}
				return
			}
			if f.reports.region != tt.wantRegion {
				t.Errorf("region = %q, want %q", f.reports.region, tt.wantRegion)
			}
			if got := f.reports.window.String(); got != tt.wantWindow {
				t.Errorf("window = %q, want %q", got, tt.wantWindow)
			}
		})
	}
}

func TestKPIReport_AuditsFilterChangesOnce(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	for _, q := range []string{"region=Wales", "region=Wales", "region=Wales&timeframe=Year"} {
		rec, _ := f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/kpi?"+q, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status %d", q, rec.Code)
		}
	}

	events, err := f.audit.Query(context.Background(), audit.QueryFilter{Actions: []string{audit.ActionFilterChanged}})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("filter events = %d, want 2", len(events))
	}
}

func TestKPIReport_ServiceError(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.reports.err = errors.New("disk on fire")
	rec, resp := f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/kpi", nil))
	if rec.Code != http.StatusInternalServerError || resp.Error.Code != ErrCodeDatabaseError {
		t.Fatalf("got %d %+v", rec.Code, resp.Error)
	}
	if strings.Contains(rec.Body.String(), "disk on fire") {
		t.Error("internal error leaked to client")
	}
}

func TestKPILastRefresh(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec, _ := f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/kpi/last-refresh", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"updated_at":null`) {
		t.Fatalf("empty warehouse: %d %s", rec.Code, rec.Body.String())
	}

	f.reports.refresh = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	rec, _ = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/kpi/last-refresh", nil))
	if !strings.Contains(rec.Body.String(), `"updated_at":"2025-05-01T12:00:00Z"`) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestTriggerSync(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec, _ := f.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil))
	if rec.Code != http.StatusAccepted || f.sync.trigger != sync.TriggerManual {
		t.Fatalf("status = %d, trigger = %q", rec.Code, f.sync.trigger)
	}

	f.sync.busy = true
	rec, resp := f.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil))
	if rec.Code != http.StatusConflict || resp.Error.Code != ErrCodeConflict {
		t.Fatalf("busy: %d %+v", rec.Code, resp.Error)
	}

	rec, _ = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/sync", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"running"`) {
		t.Fatalf("status: %d %s", rec.Code, rec.Body.String())
	}
}

func TestSmokeTest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantAction string
	}{
		{name: "passes", wantStatus: http.StatusOK, wantAction: audit.ActionSmokeTestPassed},
		{name: "beacon rejects key", err: &beacon.APIError{Endpoint: "person", StatusCode: 401, Body: "no details"},
			wantStatus: http.StatusBadGateway, wantAction: audit.ActionSmokeTestFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			f.smoke.err = tt.err
			req := httptest.NewRequest(http.MethodPost, "/api/v1/sync/smoke-test", nil)
			req.Header.Set("X-Actor", "ops@example.org")
			rec, resp := f.do(t, req)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.err != nil && resp.Error.Details["status_code"] != float64(401) {
				t.Errorf("details = %+v", resp.Error.Details)
			}

			events, err := f.audit.Query(context.Background(), audit.QueryFilter{})
			if err != nil {
				t.Fatal(err)
			}
			if len(events) != 2 || events[0].Action != tt.wantAction || events[1].Action != audit.ActionSmokeTestStarted {
				t.Fatalf("audit = %+v", events)
			}
			if events[0].Actor != "ops@example.org" {
				t.Errorf("actor = %q", events[0].Actor)
			}
		})
	}
}

func TestSyncPerformance(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if err := f.audit.Log(context.Background(), audit.ActionSyncCompleted, map[string]any{
		"source": audit.SourceBeacon, "total_duration_ms": 1200,
	}); err != nil {
		t.Fatal(err)
	}

	rec, _ := f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/sync/performance", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"sample_size":1`) {
		t.Fatalf("got %d %s", rec.Code, rec.Body.String())
	}
}

func multipartUpload(t *testing.T, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for field, content := range fields {
		part, err := mw.CreateFormFile(field, field+".csv")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/import/csv", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestImportCSV(t *testing.T) {
	t.Parallel()

	all := map[string]string{
		"people":       "id,first_name\n1,Ann\n",
		"organization": "id,name\n2,Org\n",
		"event":        "id,type\n3,Workshop\n",
		"payment":      "id,amount\n4,10\n",
		"grant":        "id,value\n5,100\n",
	}

	t.Run("all files", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		rec, _ := f.do(t, multipartUpload(t, all))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		if f.imports.bodies[transform.Organisations] != all["organization"] {
			t.Errorf("organisation body = %q", f.imports.bodies[transform.Organisations])
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		partial := map[string]string{"people": all["people"]}
		rec, resp := f.do(t, multipartUpload(t, partial))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
		missing, _ := resp.Error.Details["missing"].([]any)
		if len(missing) != 4 {
			t.Errorf("missing = %v", resp.Error.Details["missing"])
		}
	})

	errorCases := []struct {
		name string
		err  error
		want int
	}{
		{"in progress", csvimport.ErrImportInProgress, http.StatusConflict},
		{"unreadable export", errors.Join(csvimport.ErrInvalidExport, io.ErrUnexpectedEOF), http.StatusBadRequest},
		{"warehouse failure", errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			f.imports.err = tc.err
			rec, _ := f.do(t, multipartUpload(t, all))
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}

	t.Run("not multipart", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		rec, _ := f.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/import/csv", strings.NewReader("x")))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}

func TestCaseStudies(t *testing.T) {
	t.Parallel()

	t.Run("add", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		body := `{"title":"Garden project","content":"Volunteers built beds.","region":"Wales","date":"2025-03-02"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/case-studies", strings.NewReader(body))
		req.Header.Set("X-Actor", "editor")
		rec, _ := f.do(t, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		if len(f.studies.added) != 1 || f.studies.actor != "editor" {
			t.Fatalf("added = %+v actor = %q", f.studies.added, f.studies.actor)
		}
		if d := f.studies.added[0].Date; d == nil || d.Format(dateLayout) != "2025-03-02" {
			t.Errorf("date = %v", d)
		}
	})

	t.Run("validation", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/case-studies", strings.NewReader(`{"title":"","region":"Wales"}`))
		rec, resp := f.do(t, req)
		if rec.Code != http.StatusBadRequest || resp.Error.Code != ErrCodeValidation {
			t.Fatalf("got %d %+v", rec.Code, resp.Error)
		}
		if len(f.studies.added) != 0 {
			t.Error("invalid case study stored")
		}
	})

	t.Run("list filter", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		rec, _ := f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/case-studies?region=Wales&start=2025-01-01&end=2025-01-31", nil))
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"data":[]`) {
			t.Fatalf("got %d %s", rec.Code, rec.Body.String())
		}
		got := f.studies.filter
		if got.Region != "Wales" || got.Start == nil || got.End == nil {
			t.Fatalf("filter = %+v", got)
		}
		wantEnd := time.Date(2025, 1, 31, 23, 59, 59, 999999999, time.UTC)
		if !got.End.Equal(wantEnd) {
			t.Errorf("end = %v, want %v", got.End, wantEnd)
		}
	})

	t.Run("bad date", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		rec, _ := f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/case-studies?start=yesterday", nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}

func TestAuditEvents(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	for _, action := range []string{audit.ActionSyncStarted, audit.ActionSyncCompleted, audit.ActionCSVImportFailed} {
		if err := f.audit.Log(ctx, action, nil); err != nil {
			t.Fatal(err)
		}
	}

	rec, _ := f.do(t, httptest.NewRequest(http.MethodGet,
		"/api/v1/audit?action=Data+Sync+Started&action=CSV+Import+Failed&limit=10", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var page struct {
		Data AuditPage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatal(err)
	}
	if page.Data.Total != 2 || len(page.Data.Events) != 2 {
		t.Fatalf("page = %+v", page.Data)
	}

	rec, _ = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/audit?limit=-1", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("negative limit: %d", rec.Code)
	}
}

func TestUnconfiguredServices(t *testing.T) {
	t.Parallel()

	h := NewHandler(Deps{
		Reports:   &fakeReports{},
		Sync:      &fakeSync{},
		Warehouse: fakePinger{},
		Audit:     audit.NewLogger(audit.NewMemoryStore()),
	})
	router := NewRouter(h, MiddlewareConfig{RateLimitDisabled: true})

	for _, path := range []string{"/api/v1/sync/smoke-test", "/api/v1/import/csv"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s = %d, want 503", path, rec.Code)
		}
	}
}

func TestRouter_NotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec, resp := f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))
	if rec.Code != http.StatusNotFound || resp.Error.Code != "NOT_FOUND" {
		t.Fatalf("got %d %+v", rec.Code, resp.Error)
	}
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	h := NewHandler(Deps{
		Reports:   &fakeReports{},
		Sync:      &fakeSync{},
		Warehouse: fakePinger{},
		Audit:     audit.NewLogger(audit.NewMemoryStore()),
	})
	router := NewRouter(h, MiddlewareConfig{RateLimitRequests: 2, RateLimitWindow: time.Minute})

	var last int
	for range 3 {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/kpi/last-refresh", nil))
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("third request = %d, want 429", last)
	}
}
