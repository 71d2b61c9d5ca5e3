// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

/*
Package websocket pushes sync progress to dashboards in real time.

The Hub owns the set of connected clients. The sync orchestrator reports
progress through Hub.SyncProgress, which matches the orchestrator's
progress callback, and the hub fans each message out to every client.

# Message Types

  - sync_progress: percent (0-100) and a human-readable step message
  - sync_completed: the summary of a finished sync
  - sync_failed: the error of a sync that exhausted its attempts
  - ping / pong: client keepalive

# Lifecycle

RunWithContext runs the hub until its context is cancelled, then closes
every client. It is meant to run under the supervisor tree.

A client whose send buffer is full is dropped rather than blocking the
broadcast for everyone else.
*/
package websocket
