// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

// Swagger general API information. Regenerate docs/ with:
//
//	swag init -g cmd/server/docs.go -d ./,./internal/api --parseDependency --parseInternal
//
// @title Beacon KPI API
// @version 1.0
// @description Beacon CRM sync controls and regional KPI reporting
//
// @contact.name GitHub Repository
// @contact.url https://github.com/tomtom215/beaconkpi/issues
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
//
// @tag.name Core
// @tag.description Health checks
//
// @tag.name KPI
// @tag.description Regional KPI reports and warehouse freshness
//
// @tag.name Sync
// @tag.description Beacon sync trigger, status, smoke test and timings
//
// @tag.name Import
// @tag.description Beacon CSV export upload
//
// @tag.name Case Studies
// @tag.description Regional case studies
//
// @tag.name Audit
// @tag.description Audit trail queries
package main
