// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

// Package services adapts the sync manager, websocket hub and HTTP server
// to suture.Service. Each wrapper depends on a small interface rather than
// the concrete type so it can be tested with fakes.
package services
