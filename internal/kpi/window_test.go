// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package kpi

import (
	"errors"
	"testing"
	"time"
)

func TestParseWindow(t *testing.T) {
	t.Parallel()

	// A Wednesday.
	today := time.Date(2025, 5, 14, 16, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		params    WindowParams
		wantStart string
		wantEnd   string
	}{
		{"all time by default", WindowParams{}, "", ""},
		{"all time", WindowParams{Timeframe: AllTime}, "", ""},
		{"year", WindowParams{Timeframe: Year, Year: 2024}, "2024-01-01", "2024-12-31T23:59:59.999999"},
		{"year defaults to current", WindowParams{Timeframe: Year}, "2025-01-01", "2025-12-31T23:59:59.999999"},
		{"quarter with Q prefix", WindowParams{Timeframe: Quarter, Year: 2024, Quarter: "Q1"}, "2024-01-01", "2024-03-31T23:59:59.999999"},
		{"quarter as number", WindowParams{Timeframe: Quarter, Year: 2024, Quarter: "4"}, "2024-10-01", "2024-12-31T23:59:59.999999"},
		{"quarter defaults to current", WindowParams{Timeframe: Quarter}, "2025-04-01", "2025-06-30T23:59:59.999999"},
		{"leap february", WindowParams{Timeframe: Month, Year: 2024, Month: 2}, "2024-02-01", "2024-02-29T23:59:59.999999"},
		{"december", WindowParams{Timeframe: Month, Year: 2023, Month: 12}, "2023-12-01", "2023-12-31T23:59:59.999999"},
		{"current week", WindowParams{Timeframe: Week}, "2025-05-12", "2025-05-18T23:59:59.999999"},
		{"week start adjusted to monday", WindowParams{Timeframe: Week, WeekStart: "2025-05-04"}, "2025-04-28", "2025-05-04T23:59:59.999999"},
		{"custom", WindowParams{Timeframe: Custom, Start: "2025-01-01", End: "2025-03-01"}, "2025-01-01", "2025-03-01T23:59:59.999999"},
		{"custom range alias defaults to last 30 days", WindowParams{Timeframe: "Custom Range"}, "2025-04-14", "2025-05-14T23:59:59.999999"},
		{"custom single day", WindowParams{Timeframe: Custom, Start: "2025-02-02", End: "2025-02-02"}, "2025-02-02", "2025-02-02T23:59:59.999999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w, err := ParseWindow(tt.params, today)
			if err != nil {
				t.Fatalf("ParseWindow: %v", err)
			}
			b := w.Bounds()
			if b.Start != tt.wantStart || b.End != tt.wantEnd {
				t.Errorf("bounds = [%q, %q], want [%q, %q]", b.Start, b.End, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestParseWindow_Errors(t *testing.T) {
	t.Parallel()

	today := time.Date(2025, 5, 14, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		params WindowParams
		want   error
	}{
		{"unknown timeframe", WindowParams{Timeframe: "Fortnight"}, ErrUnknownTimeframe},
		{"bad quarter", WindowParams{Timeframe: Quarter, Quarter: "Q5"}, ErrInvalidWindow},
		{"bad month", WindowParams{Timeframe: Month, Month: 13}, ErrInvalidWindow},
		{"bad week start", WindowParams{Timeframe: Week, WeekStart: "14/05/2025"}, ErrInvalidWindow},
		{"end before start", WindowParams{Timeframe: Custom, Start: "2025-03-02", End: "2025-03-01"}, ErrInvalidWindow},
		{"range too long", WindowParams{Timeframe: Custom, Start: "2025-01-01", End: "2025-04-04"}, ErrInvalidWindow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := ParseWindow(tt.params, today); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseWindow_CustomRangeLimitIsInclusive(t *testing.T) {
	t.Parallel()

	today := time.Date(2025, 5, 14, 0, 0, 0, 0, time.UTC)
	// 2025-01-01 + 92 days = 2025-04-03
	if _, err := ParseWindow(WindowParams{Timeframe: Custom, Start: "2025-01-01", End: "2025-04-03"}, today); err != nil {
		t.Errorf("92-day range rejected: %v", err)
	}
}

func TestWindowBounds_IncludesWholeLastDay(t *testing.T) {
	t.Parallel()

	w, err := ParseWindow(WindowParams{Timeframe: Month, Year: 2025, Month: 3}, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	b := w.Bounds()
	for _, date := range []string{"2025-03-01", "2025-03-01T00:00:00", "2025-03-31", "2025-03-31T18:30:00Z"} {
		d := date
		if !b.Contains(&d) {
			t.Errorf("%s should be inside %s", date, w)
		}
	}
	for _, date := range []string{"2025-02-28T23:59:59", "2025-04-01", "2025-04-01T00:00:00"} {
		d := date
		if b.Contains(&d) {
			t.Errorf("%s should be outside %s", date, w)
		}
	}
}
