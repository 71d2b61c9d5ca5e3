// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/beaconkpi/internal/casestudy"
	"github.com/tomtom215/beaconkpi/internal/validation"
)

const (
	dateLayout         = "2006-01-02"
	maxCaseStudyBody   = 1 << 20
	endOfDayAdjustment = 24*time.Hour - time.Nanosecond
)

// CaseStudyRequest is the body of POST /case-studies. Date is YYYY-MM-DD
// and defaults to today.
type CaseStudyRequest struct {
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content" validate:"required,max=20000"`
	Region  string `json:"region" validate:"required,max=100"`
	Date    string `json:"date,omitempty" validate:"omitempty,isodate"`
}

// ListCaseStudies lists case studies for ?region=, between the optional
// inclusive ?start= and ?end= dates.
// @Summary List case studies
// @Tags Case Studies
// @Produce json
// @Param region query string false "Exact region match; empty or Global returns all"
// @Param start query string false "Inclusive start date (YYYY-MM-DD)"
// @Param end query string false "Inclusive end date (YYYY-MM-DD)"
// @Success 200 {object} Response{data=[]casestudy.CaseStudy}
// @Failure 400 {object} Response
// @Failure 503 {object} Response
// @Router /case-studies [get]
func (h *Handler) ListCaseStudies(w http.ResponseWriter, r *http.Request) {
	if h.caseStudies == nil {
		unavailable(w, r, "Case studies")
		return
	}
	start := h.now()
	q := r.URL.Query()

	filter := casestudy.Filter{Region: strings.TrimSpace(q.Get("region"))}
	var err error
	if filter.Start, err = dateParam(q.Get("start"), false); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "start must be YYYY-MM-DD", nil)
		return
	}
	if filter.End, err = dateParam(q.Get("end"), true); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "end must be YYYY-MM-DD", nil)
		return
	}
	if filter.Start != nil && filter.End != nil && filter.End.Before(*filter.Start) {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "end is before start", nil)
		return
	}

	studies, err := h.caseStudies.List(r.Context(), filter)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeDatabaseError, "Failed to list case studies", err)
		return
	}
	if studies == nil {
		studies = []casestudy.CaseStudy{}
	}
	respondOK(w, r, http.StatusOK, studies, start)
}

// AddCaseStudy stores a case study and audits it under the X-Actor user.
// @Summary Add a case study
// @Tags Case Studies
// @Accept json
// @Produce json
// @Param X-Actor header string false "User recorded in the audit trail"
// @Param request body CaseStudyRequest true "Case study"
// @Success 201 {object} Response{data=casestudy.CaseStudy}
// @Failure 400 {object} Response
// @Failure 503 {object} Response
// @Router /case-studies [post]
func (h *Handler) AddCaseStudy(w http.ResponseWriter, r *http.Request) {
	if h.caseStudies == nil {
		unavailable(w, r, "Case studies")
		return
	}
	start := h.now()

	var req CaseStudyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCaseStudyBody)).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON body", err)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		respondValidation(w, r, err)
		return
	}

	in := casestudy.Input{Title: req.Title, Content: req.Content, Region: req.Region}
	if req.Date != "" {
		d, err := time.Parse(dateLayout, req.Date)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "date must be YYYY-MM-DD", nil)
			return
		}
		in.Date = &d
	}

	cs, err := h.caseStudies.Add(r.Context(), in, actor(r))
	if err != nil {
		if errors.Is(err, casestudy.ErrInvalid) {
			respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, ErrCodeDatabaseError, "Failed to save case study", err)
		return
	}
	respondOK(w, r, http.StatusCreated, cs, start)
}

// dateParam parses an optional YYYY-MM-DD value. endOfDay moves the bound
// to the last instant of that day.
func dateParam(s string, endOfDay bool) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(endOfDayAdjustment)
	}
	return &t, nil
}
