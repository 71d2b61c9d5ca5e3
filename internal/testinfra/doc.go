// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

//go:build integration

// Package testinfra starts throwaway containers for integration tests.
//
// Tests that use it carry the integration build tag and skip when Docker
// is unavailable:
//
//	go test -tags integration ./internal/warehouse/...
package testinfra
