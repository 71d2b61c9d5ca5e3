// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package main

import (
	"fmt"
	"time"

	"github.com/tomtom215/beaconkpi/internal/api"
	"github.com/tomtom215/beaconkpi/internal/sync"
)

var errSyncDisabled = fmt.Errorf("%w: BEACON_API_KEY is not set", api.ErrSyncDisabled)

// idleSync stands in for the sync manager when no API key is configured.
type idleSync struct{}

func (idleSync) TriggerAsync(string) error  { return errSyncDisabled }
func (idleSync) Syncing() bool              { return false }
func (idleSync) LastSyncTime() time.Time    { return time.Time{} }
func (idleSync) LastSummary() *sync.Summary { return nil }
func (idleSync) LastError() error           { return errSyncDisabled }
