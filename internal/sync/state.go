// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package sync

// State is an orchestrator state.
type State string

const (
	StateIdle           State = "IDLE"
	StateStarted        State = "STARTED"
	StateFetching       State = "FETCHING"
	StateTransforming   State = "TRANSFORMING"
	StateUpserting      State = "UPSERTING"
	StateCompleted      State = "COMPLETED"
	StateRetryScheduled State = "RETRY_SCHEDULED"
	StateFailed         State = "FAILED"
)

// Terminal reports whether s ends a run.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Triggers recorded with each run.
const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
	TriggerCLI       = "cli"
)
