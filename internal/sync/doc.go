// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

/*
Package sync copies Beacon CRM data into the warehouse.

Key Components:

  - Orchestrator: runs one sync (fetch, transform, upsert) with whole-sync
    retries, audit events, notifications and progress reporting
  - Manager: schedules syncs on an interval and rejects overlapping runs

State Machine:

	STARTED -> FETCHING -> TRANSFORMING -> UPSERTING -> COMPLETED
	   ^                                      |
	   +---------- RETRY_SCHEDULED <----------+  (retryable, attempts left)
	                                          |
	                                          +-> FAILED

Any error during fetch, transform or upsert is classified with
syncerr.Classify. Retryable errors restart the whole sync from STARTED
after the configured delay; there is no resume inside a resource kind.
Every terminal outcome is in the audit trail before Run returns.

Progress:

Progress messages use the "NN% | message" format. Fetching covers 5-50%,
transforming 55%, upserting 68-97%.
*/
package sync
