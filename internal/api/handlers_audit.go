// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package api

import (
	"net/http"
	"strings"

	"github.com/tomtom215/beaconkpi/internal/audit"
)

// AuditPage is the body of GET /audit.
type AuditPage struct {
	Events []audit.Event `json:"events"`
	Total  int64         `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// AuditEvents lists audit events, newest first. ?action= may repeat.
// @Summary Query the audit trail
// @Tags Audit
// @Produce json
// @Param action query []string false "Action filter (repeatable)" collectionFormat(multi)
// @Param actor query string false "Actor"
// @Param region query string false "Region"
// @Param search query string false "Free-text search in details"
// @Param start query string false "Inclusive start date (YYYY-MM-DD)"
// @Param end query string false "Inclusive end date (YYYY-MM-DD)"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} Response{data=AuditPage}
// @Failure 400 {object} Response
// @Failure 500 {object} Response
// @Router /audit [get]
func (h *Handler) AuditEvents(w http.ResponseWriter, r *http.Request) {
	start := h.now()
	q := r.URL.Query()

	limit, err := intParam(q, "limit")
	if err != nil || limit < 0 {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "invalid limit parameter", nil)
		return
	}
	offset, err := intParam(q, "offset")
	if err != nil || offset < 0 {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "invalid offset parameter", nil)
		return
	}

	filter := audit.QueryFilter{
		Actor:      strings.TrimSpace(q.Get("actor")),
		Region:     strings.TrimSpace(q.Get("region")),
		SearchText: strings.TrimSpace(q.Get("search")),
		Limit:      limit,
		Offset:     offset,
	}
	for _, a := range q["action"] {
		if a = strings.TrimSpace(a); a != "" {
			filter.Actions = append(filter.Actions, a)
		}
	}
	if filter.Start, err = dateParam(q.Get("start"), false); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "start must be YYYY-MM-DD", nil)
		return
	}
	if filter.End, err = dateParam(q.Get("end"), true); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "end must be YYYY-MM-DD", nil)
		return
	}

	events, err := h.audit.Query(r.Context(), filter)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeDatabaseError, "Failed to query audit events", err)
		return
	}
	total, err := h.audit.Count(r.Context(), filter)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeDatabaseError, "Failed to count audit events", err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	respondOK(w, r, http.StatusOK, AuditPage{Events: events, Total: total, Limit: limit, Offset: offset}, start)
}
