// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

/*
Package api exposes the KPI reports and sync controls over HTTP using the
chi router.

# Routes

	GET  /api/v1/health/live          process is up
	GET  /api/v1/health/ready         warehouse reachable
	GET  /api/v1/kpi                  KPI report for a region and timeframe
	GET  /api/v1/kpi/last-refresh     newest updated_at across the warehouse
	POST /api/v1/sync                 start a manual sync (202, 409 if running)
	POST /api/v1/sync/smoke-test      single-record Beacon check
	GET  /api/v1/sync/performance     latest and average sync timings
	POST /api/v1/import/csv           multipart upload of the five exports
	GET  /api/v1/case-studies         list, filtered by region and dates
	POST /api/v1/case-studies         add a case study
	GET  /api/v1/audit                recent audit events
	GET  /api/v1/ws                   sync progress websocket
	GET  /metrics                     Prometheus metrics
	GET  /swagger/index.html          Swagger UI (doc.json is generated by swag)

# Response Format

Every JSON response uses the same envelope:

	{
	  "status": "success" | "error",
	  "data": ...,
	  "metadata": {"timestamp": "...", "query_time_ms": 12},
	  "error": {"code": "...", "message": "...", "details": {...}}
	}

# Middleware

Global: request id, real IP, panic recovery, CORS. API routes add
security headers, Prometheus instrumentation and per-IP rate limiting; the
upload and sync routes use a stricter limit.

Authentication is out of scope; deploy behind an authenticating proxy. The
optional X-Actor header names the user in audit events.
*/
package api
