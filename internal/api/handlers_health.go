// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package api

import (
	"context"
	"net/http"
	"time"
)

const readyTimeout = 2 * time.Second

// HealthStatus is the body of the readiness check.
type HealthStatus struct {
	Status        string     `json:"status"`
	Warehouse     bool       `json:"warehouse_connected"`
	Syncing       bool       `json:"syncing"`
	LastSync      *time.Time `json:"last_sync,omitempty"`
	LastSyncError string     `json:"last_sync_error,omitempty"`
	Uptime        float64    `json:"uptime_seconds"`
}

// HealthLive reports that the process is serving requests.
// @Summary Liveness check
// @Tags Core
// @Produce json
// @Success 200 {object} Response
// @Router /health/live [get]
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondOK(w, r, http.StatusOK, map[string]string{"status": "alive"}, h.now())
}

// HealthReady pings the warehouse. An unreachable warehouse is a 503.
// @Summary Readiness check
// @Tags Core
// @Produce json
// @Success 200 {object} Response{data=HealthStatus}
// @Failure 503 {object} Response
// @Router /health/ready [get]
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	start := h.now()

	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	status := HealthStatus{
		Status:  "ready",
		Syncing: h.sync.Syncing(),
		Uptime:  time.Since(h.startTime).Seconds(),
	}
	if last := h.sync.LastSyncTime(); !last.IsZero() {
		status.LastSync = &last
	}
	if err := h.sync.LastError(); err != nil {
		status.LastSyncError = err.Error()
	}

	if err := h.warehouse.Ping(ctx); err != nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Warehouse unavailable", err)
		return
	}
	status.Warehouse = true
	respondOK(w, r, http.StatusOK, status, start)
}
