// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

// Package audit records an append-only trail of sync, import and
// administrative actions.
//
// The trail is also read back: the sync orchestrator looks up the previous
// outcome to send "recovered" notifications, and the API reports sync
// performance from completed-sync details.
package audit

import (
	"context"
	"errors"
	"time"
)

// Actions written by this module. The strings are stable because operators
// search for them.
const (
	ActionSyncStarted        = "Data Sync Started"
	ActionSyncCompleted      = "Data Sync Completed"
	ActionSyncFailed         = "Data Sync Failed"
	ActionSyncRetryScheduled = "Data Sync Retry Scheduled"

	ActionSmokeTestStarted = "Beacon Smoke Test Started"
	ActionSmokeTestPassed  = "Beacon Smoke Test Passed"
	ActionSmokeTestFailed  = "Beacon Smoke Test Failed"

	ActionCSVImportCompleted = "CSV Import Completed"
	ActionCSVImportFailed    = "CSV Import Failed"

	ActionCaseStudyAdded = "Case Study Added"
	ActionFilterChanged  = "Dashboard Filter Changed"
)

// Defaults for events written without an actor or region.
const (
	SystemActor   = "System"
	GlobalRegion  = "Global"
	SourceBeacon  = "beacon_api"
	SourceCSV     = "csv_upload"
	timeLayout    = "2006-01-02T15:04:05.000000Z"
	defaultLimit  = 100
	maxQueryLimit = 1000
)

// ErrNilEvent is returned by Save for a nil event.
var ErrNilEvent = errors.New("audit event cannot be nil")

// Event is one audit record.
type Event struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	Action    string         `json:"action"`
	Actor     string         `json:"actor"`
	Region    string         `json:"region"`
	Details   map[string]any `json:"details"`
}

// Store persists audit events.
type Store interface {
	Save(ctx context.Context, event *Event) error

	// Query returns matching events, newest first.
	Query(ctx context.Context, filter QueryFilter) ([]Event, error)

	Count(ctx context.Context, filter QueryFilter) (int64, error)
}

// QueryFilter selects audit events. Zero fields do not filter.
type QueryFilter struct {
	Actions []string   `json:"actions,omitempty"`
	Actor   string     `json:"actor,omitempty"`
	Region  string     `json:"region,omitempty"`
	Start   *time.Time `json:"start,omitempty"`
	End     *time.Time `json:"end,omitempty"`

	// SearchText matches action, actor or details, case-insensitively.
	SearchText string `json:"search_text,omitempty"`

	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

func (f QueryFilter) limit() int {
	switch {
	case f.Limit <= 0:
		return defaultLimit
	case f.Limit > maxQueryLimit:
		return maxQueryLimit
	}
	return f.Limit
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
