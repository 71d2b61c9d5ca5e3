// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

/*
Package middleware provides the HTTP middleware shared by every API route.

  - RequestID: propagates or generates X-Request-ID and seeds the logging
    context with request and correlation ids
  - PrometheusMetrics: counts requests and observes latency per chi route
    pattern, so ids in paths never become label values

Both are func(http.Handler) http.Handler and are installed with chi's Use.
*/
package middleware
