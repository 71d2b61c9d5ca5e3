// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/beaconkpi/internal/audit"
	"github.com/tomtom215/beaconkpi/internal/beacon"
	"github.com/tomtom215/beaconkpi/internal/logging"
	"github.com/tomtom215/beaconkpi/internal/sync"
)

// SyncStatus is the body of POST /sync and GET /sync.
type SyncStatus struct {
	Status      string        `json:"status"`
	Syncing     bool          `json:"syncing"`
	LastSync    *time.Time    `json:"last_sync,omitempty"`
	LastSummary *sync.Summary `json:"last_summary,omitempty"`
	LastError   string        `json:"last_error,omitempty"`
}

// TriggerSync starts a manual sync in the background. Progress is streamed
// over the websocket; a sync already running is a 409.
// @Summary Trigger a Beacon sync
// @Tags Sync
// @Produce json
// @Param X-Actor header string false "User recorded in the audit trail"
// @Success 202 {object} Response{data=SyncStatus}
// @Failure 409 {object} Response
// @Failure 429 {object} Response
// @Failure 503 {object} Response
// @Router /sync [post]
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	start := h.now()
	if err := h.sync.TriggerAsync(sync.TriggerManual); err != nil {
		if errors.Is(err, sync.ErrSyncInProgress) {
			respondError(w, r, http.StatusConflict, ErrCodeConflict, "A sync is already in progress", nil)
			return
		}
		if errors.Is(err, ErrSyncDisabled) {
			respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Beacon API sync is not configured", nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Failed to start sync", err)
		return
	}
	logging.Ctx(r.Context()).Info().Str("actor", actor(r)).Msg("Manual sync triggered")
	respondOK(w, r, http.StatusAccepted, SyncStatus{Status: "started", Syncing: true}, start)
}

// SyncStatusHandler reports whether a sync is running and how the last one
// ended.
// @Summary Sync status
// @Tags Sync
// @Produce json
// @Success 200 {object} Response{data=SyncStatus}
// @Router /sync [get]
func (h *Handler) SyncStatusHandler(w http.ResponseWriter, r *http.Request) {
	start := h.now()
	status := SyncStatus{
		Status:      "idle",
		Syncing:     h.sync.Syncing(),
		LastSummary: h.sync.LastSummary(),
	}
	if status.Syncing {
		status.Status = "running"
	}
	if last := h.sync.LastSyncTime(); !last.IsZero() {
		status.LastSync = &last
	}
	if err := h.sync.LastError(); err != nil {
		status.LastError = err.Error()
	}
	respondOK(w, r, http.StatusOK, status, start)
}

// SmokeTest checks the Beacon person endpoint and audits the outcome.
// @Summary Beacon API smoke test
// @Description Requests a single person record and reports whether the response follows the documented shape
// @Tags Sync
// @Produce json
// @Param X-Actor header string false "User recorded in the audit trail"
// @Success 200 {object} Response{data=beacon.SmokeResult}
// @Failure 502 {object} Response
// @Failure 503 {object} Response
// @Router /sync/smoke-test [post]
func (h *Handler) SmokeTest(w http.ResponseWriter, r *http.Request) {
	if h.smoke == nil {
		unavailable(w, r, "Beacon API")
		return
	}
	start := h.now()
	who := actor(r)

	h.recordAudit(r, audit.ActionSmokeTestStarted, who, map[string]any{"source": audit.SourceBeacon})

	result, err := h.smoke.SmokeTest(r.Context())
	if err != nil {
		h.recordAudit(r, audit.ActionSmokeTestFailed, who, map[string]any{
			"source": audit.SourceBeacon,
			"error":  err.Error(),
		})
		details := map[string]any{"error": err.Error()}
		var apiErr *beacon.APIError
		if errors.As(err, &apiErr) {
			details["status_code"] = apiErr.StatusCode
		}
		respondErrorDetails(w, r, http.StatusBadGateway, ErrCodeExternalServiceFail, "Beacon smoke test failed", details)
		return
	}

	h.recordAudit(r, audit.ActionSmokeTestPassed, who, map[string]any{
		"source":           audit.SourceBeacon,
		"response_time_ms": result.ResponseTimeMS,
		"total":            result.Meta.Total,
		"docs_compliant":   result.Checks.DocsCompliantShape,
	})
	respondOK(w, r, http.StatusOK, result, start)
}

// SyncPerformance reports the latest completed API sync and the recent
// average duration.
// @Summary Sync performance
// @Tags Sync
// @Produce json
// @Success 200 {object} Response{data=audit.Performance}
// @Failure 500 {object} Response
// @Router /sync/performance [get]
func (h *Handler) SyncPerformance(w http.ResponseWriter, r *http.Request) {
	start := h.now()
	perf, err := h.audit.SyncPerformance(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeDatabaseError, "Failed to read sync performance", err)
		return
	}
	respondOK(w, r, http.StatusOK, perf, start)
}

func (h *Handler) recordAudit(r *http.Request, action, who string, details map[string]any) {
	err := h.audit.Record(r.Context(), &audit.Event{
		Action:  action,
		Actor:   who,
		Region:  audit.GlobalRegion,
		Details: details,
	})
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Str("action", action).Msg("Failed to record audit event")
	}
}
