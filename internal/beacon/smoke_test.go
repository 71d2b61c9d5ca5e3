// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package beacon

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSmokeTest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		payload    any
		wantChecks SmokeChecks
		wantMeta   SmokeMeta
		wantCount  int
	}{
		{
			name: "documented shape",
			payload: map[string]any{
				"data": []any{map[string]any{"id": "p1"}},
				"meta": map[string]any{"current_page": 1, "per_page": 1, "total": 240, "total_pages": 240},
			},
			wantChecks: SmokeChecks{
				HasRecordsArray: true, HasDataArray: true, HasMeta: true,
				RequiredMetaPresent: true, DocsCompliantShape: true,
			},
			wantMeta:  SmokeMeta{CurrentPage: 1, PerPage: 1, Total: 240, TotalPages: 240},
			wantCount: 1,
		},
		{
			name:    "legacy results shape",
			payload: map[string]any{"results": []any{map[string]any{"id": "p1"}}, "total": 3},
			wantChecks: SmokeChecks{
				HasRecordsArray: true, LegacyCompatibleShape: true,
			},
			wantMeta:  SmokeMeta{CurrentPage: 1, PerPage: 1, Total: 3, TotalPages: 3},
			wantCount: 1,
		},
		{
			name: "data with partial meta",
			payload: map[string]any{
				"data": []any{},
				"meta": map[string]any{"current_page": 1},
			},
			wantChecks: SmokeChecks{
				HasRecordsArray: true, HasDataArray: true, HasMeta: true, LegacyCompatibleShape: true,
			},
			wantMeta:  SmokeMeta{CurrentPage: 1, PerPage: 1, Total: 0, TotalPages: 1},
			wantCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/entities/person" || r.URL.Query().Get("per_page") != "1" {
					t.Errorf("unexpected request %s", r.URL)
				}
				writeJSON(t, w, tt.payload)
			}))
			defer server.Close()

			c := newTestClient(t, server.URL, 50)
			got, err := c.SmokeTest(context.Background())
			if err != nil {
				t.Fatalf("SmokeTest: %v", err)
			}
			if got.Checks != tt.wantChecks {
				t.Errorf("checks = %+v, want %+v", got.Checks, tt.wantChecks)
			}
			if got.Meta != tt.wantMeta {
				t.Errorf("meta = %+v, want %+v", got.Meta, tt.wantMeta)
			}
			if got.RecordsInPage != tt.wantCount || got.Endpoint != "person" || got.StatusCode != http.StatusOK {
				t.Errorf("unexpected result %+v", got)
			}
		})
	}
}

func TestSmokeTest_Failures(t *testing.T) {
	t.Parallel()

	t.Run("http error", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		_, err := newTestClient(t, server.URL, 50).SmokeTest(context.Background())
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusForbidden {
			t.Fatalf("err = %v, want 403 APIError", err)
		}
		if apiErr.Body != "no details" {
			t.Errorf("body = %q", apiErr.Body)
		}
	})

	t.Run("no records array", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, map[string]any{"meta": map[string]any{}})
		}))
		defer server.Close()

		_, err := newTestClient(t, server.URL, 50).SmokeTest(context.Background())
		if !errors.Is(err, ErrNoRecordsArray) {
			t.Fatalf("err = %v, want ErrNoRecordsArray", err)
		}
	})
}
