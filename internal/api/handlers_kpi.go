// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package api

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/beaconkpi/internal/audit"
	"github.com/tomtom215/beaconkpi/internal/kpi"
	"github.com/tomtom215/beaconkpi/internal/logging"
	"github.com/tomtom215/beaconkpi/internal/validation"
)

const maxRegionLength = 100

// LastRefresh is the body of GET /kpi/last-refresh.
type LastRefresh struct {
	UpdatedAt *time.Time `json:"updated_at"`
}

// KPIReport serves the KPI report for ?region= and the timeframe
// parameters. A missing region means Global.
// @Summary Regional KPI report
// @Description Computes governance, partnership, delivery, income and comms KPIs for a region over a time window
// @Tags KPI
// @Produce json
// @Param region query string false "Region name (default Global)"
// @Param timeframe query string false "All Time, Year, Quarter, Month, Week or Custom"
// @Param year query int false "Year for Year, Quarter and Month timeframes"
// @Param quarter query string false "Quarter (Q1-Q4 or 1-4)"
// @Param month query int false "Month (1-12)"
// @Param week_start query string false "Week start date (YYYY-MM-DD)"
// @Param start query string false "Custom range start (YYYY-MM-DD)"
// @Param end query string false "Custom range end (YYYY-MM-DD)"
// @Success 200 {object} Response{data=kpi.Report}
// @Failure 400 {object} Response
// @Failure 500 {object} Response
// @Router /kpi [get]
func (h *Handler) KPIReport(w http.ResponseWriter, r *http.Request) {
	start := h.now()
	q := r.URL.Query()

	region := strings.TrimSpace(q.Get("region"))
	if region == "" {
		region = audit.GlobalRegion
	}
	if len(region) > maxRegionLength {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "region is too long", nil)
		return
	}

	params, err := windowParams(q)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}
	if err := validation.ValidateStruct(&params); err != nil {
		respondValidation(w, r, err)
		return
	}

	window, err := kpi.ParseWindow(params, h.now())
	if err != nil {
		if errors.Is(err, kpi.ErrUnknownTimeframe) || errors.Is(err, kpi.ErrInvalidWindow) {
			respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Failed to resolve timeframe", err)
		return
	}

	h.recordFilter(r, region, window)

	report, err := h.reports.Report(r.Context(), region, window)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeDatabaseError, "Failed to compute KPI report", err)
		return
	}
	respondOK(w, r, http.StatusOK, report, start)
}

// recordFilter audits a dashboard filter change once per distinct
// selection.
func (h *Handler) recordFilter(r *http.Request, region string, window kpi.Window) {
	details := map[string]any{
		"region":    region,
		"timeframe": window.Preset,
		"window":    window.String(),
		"actor":     actor(r),
	}
	if _, err := h.audit.LogStateChange(r.Context(), "kpi_filter:"+region, audit.ActionFilterChanged, details); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Failed to audit filter change")
	}
}

// KPILastRefresh reports the newest warehouse updated_at, or null when the
// warehouse is empty.
// @Summary Last warehouse refresh
// @Tags KPI
// @Produce json
// @Success 200 {object} Response{data=LastRefresh}
// @Failure 500 {object} Response
// @Router /kpi/last-refresh [get]
func (h *Handler) KPILastRefresh(w http.ResponseWriter, r *http.Request) {
	start := h.now()
	at, ok, err := h.reports.LastRefresh(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeDatabaseError, "Failed to read last refresh", err)
		return
	}
	var body LastRefresh
	if ok {
		body.UpdatedAt = &at
	}
	respondOK(w, r, http.StatusOK, body, start)
}

func windowParams(q url.Values) (kpi.WindowParams, error) {
	p := kpi.WindowParams{
		Timeframe: strings.TrimSpace(q.Get("timeframe")),
		Quarter:   strings.TrimSpace(q.Get("quarter")),
		WeekStart: strings.TrimSpace(q.Get("week_start")),
		Start:     strings.TrimSpace(q.Get("start")),
		End:       strings.TrimSpace(q.Get("end")),
	}
	var err error
	if p.Year, err = intParam(q, "year"); err != nil {
		return p, err
	}
	if p.Month, err = intParam(q, "month"); err != nil {
		return p, err
	}
	return p, nil
}

func intParam(q url.Values, name string) (int, error) {
	s := strings.TrimSpace(q.Get(name))
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New("invalid " + name + " parameter")
	}
	return n, nil
}

func respondValidation(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.RequestValidationError
	if errors.As(err, &verr) {
		respondErrorDetails(w, r, http.StatusBadRequest, ErrCodeValidation, verr.Error(), verr.Details())
		return
	}
	respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "Invalid request", err)
}
