// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package kpi

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/beaconkpi/internal/warehouse"
)

// Timeframe presets.
const (
	AllTime = "All Time"
	Year    = "Year"
	Quarter = "Quarter"
	Month   = "Month"
	Week    = "Week"
	Custom  = "Custom"

	// MaxCustomDays caps a custom range at roughly three months.
	MaxCustomDays = 92

	dateLayout  = "2006-01-02"
	endOfDayISO = "T23:59:59.999999"
)

var (
	ErrUnknownTimeframe = errors.New("unknown timeframe")
	ErrInvalidWindow    = errors.New("invalid date window")
)

// WindowParams are the raw timeframe selections, typically query parameters.
// Unset fields default relative to today.
type WindowParams struct {
	Timeframe string `json:"timeframe" validate:"omitempty,oneof='All Time' Year Quarter Month Week Custom 'Custom Range'"`
	Year      int    `json:"year,omitempty" validate:"omitempty,min=1900,max=9999"`
	Quarter   string `json:"quarter,omitempty" validate:"omitempty,oneof=Q1 Q2 Q3 Q4 1 2 3 4"`
	Month     int    `json:"month,omitempty" validate:"omitempty,min=1,max=12"`
	WeekStart string `json:"week_start,omitempty" validate:"omitempty,isodate"`
	Start     string `json:"start,omitempty" validate:"omitempty,isodate"`
	End       string `json:"end,omitempty" validate:"omitempty,isodate"`
}

// Window is a resolved reporting period. Start and End are calendar days and
// both are inclusive; nil bounds mean all time.
type Window struct {
	Preset string     `json:"timeframe"`
	Start  *time.Time `json:"start_date,omitempty"`
	End    *time.Time `json:"end_date,omitempty"`
}

// AllTimeWindow applies no date filter.
func AllTimeWindow() Window {
	return Window{Preset: AllTime}
}

// ParseWindow resolves p against today.
func ParseWindow(p WindowParams, today time.Time) (Window, error) {
	today = day(today)
	year := p.Year
	if year == 0 {
		year = today.Year()
	}

	switch strings.TrimSpace(p.Timeframe) {
	case "", AllTime:
		return AllTimeWindow(), nil

	case Year:
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return bounded(Year, start, time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)), nil

	case Quarter:
		q := (int(today.Month())-1)/3 + 1
		if p.Quarter != "" {
			parsed, err := parseQuarter(p.Quarter)
			if err != nil {
				return Window{}, err
			}
			q = parsed
		}
		firstMonth := time.Month((q-1)*3 + 1)
		start := time.Date(year, firstMonth, 1, 0, 0, 0, 0, time.UTC)
		return bounded(Quarter, start, start.AddDate(0, 3, -1)), nil

	case Month:
		m := p.Month
		if m == 0 {
			m = int(today.Month())
		}
		if m < 1 || m > 12 {
			return Window{}, fmt.Errorf("%w: month %d", ErrInvalidWindow, m)
		}
		start := time.Date(year, time.Month(m), 1, 0, 0, 0, 0, time.UTC)
		return bounded(Month, start, start.AddDate(0, 1, -1)), nil

	case Week:
		start := today
		if p.WeekStart != "" {
			parsed, err := parseDate(p.WeekStart)
			if err != nil {
				return Window{}, err
			}
			start = parsed
		}
		start = monday(start)
		return bounded(Week, start, start.AddDate(0, 0, 6)), nil

	case Custom, "Custom Range":
		start := today.AddDate(0, 0, -30)
		end := today
		var err error
		if p.Start != "" {
			if start, err = parseDate(p.Start); err != nil {
				return Window{}, err
			}
		}
		if p.End != "" {
			if end, err = parseDate(p.End); err != nil {
				return Window{}, err
			}
		}
		if end.Before(start) {
			return Window{}, fmt.Errorf("%w: end date must be on or after start date", ErrInvalidWindow)
		}
		if int(end.Sub(start).Hours()/24) > MaxCustomDays {
			return Window{}, fmt.Errorf("%w: date range must be %d days or less", ErrInvalidWindow, MaxCustomDays)
		}
		return bounded(Custom, start, end), nil

	default:
		return Window{}, fmt.Errorf("%w: %q", ErrUnknownTimeframe, p.Timeframe)
	}
}

// Bounds converts w to a warehouse filter. The end bound covers the whole
// final day.
func (w Window) Bounds() warehouse.Window {
	var b warehouse.Window
	if w.Start != nil {
		b.Start = w.Start.Format(dateLayout)
	}
	if w.End != nil {
		b.End = w.End.Format(dateLayout) + endOfDayISO
	}
	return b
}

func (w Window) String() string {
	if w.Start == nil || w.End == nil {
		return "all time"
	}
	return w.Start.Format(dateLayout) + " to " + w.End.Format(dateLayout)
}

func bounded(preset string, start, end time.Time) Window {
	return Window{Preset: preset, Start: &start, End: &end}
}

func parseQuarter(s string) (int, error) {
	trimmed := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "Q")
	q, err := strconv.Atoi(trimmed)
	if err != nil || q < 1 || q > 4 {
		return 0, fmt.Errorf("%w: quarter %q", ErrInvalidWindow, s)
	}
	return q, nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q: %w", ErrInvalidWindow, s, err)
	}
	return t, nil
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func monday(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}
