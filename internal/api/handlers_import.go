// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package api

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/tomtom215/beaconkpi/internal/csvimport"
	"github.com/tomtom215/beaconkpi/internal/transform"
)

// uploadFields maps multipart field names to the export they carry.
var uploadFields = []struct {
	field string
	kind  transform.Kind
}{
	{"people", transform.People},
	{"organization", transform.Organisations},
	{"event", transform.Events},
	{"payment", transform.Payments},
	{"grant", transform.Grants},
}

// ImportCSV loads the five Beacon exports from a multipart upload. Every
// field is required.
// @Summary Import Beacon CSV exports
// @Description Upserts the people, organization, event, payment and grant exports into the warehouse
// @Tags Import
// @Accept multipart/form-data
// @Produce json
// @Param people formData file true "People export"
// @Param organization formData file true "Organization export"
// @Param event formData file true "Event export"
// @Param payment formData file true "Payment export"
// @Param grant formData file true "Grant export"
// @Success 200 {object} Response{data=csvimport.Counts}
// @Failure 400 {object} Response
// @Failure 409 {object} Response
// @Failure 413 {object} Response
// @Failure 500 {object} Response
// @Router /import/csv [post]
func (h *Handler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	if h.importer == nil {
		unavailable(w, r, "CSV import")
		return
	}
	start := h.now()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, http.StatusRequestEntityTooLarge, ErrCodeBadRequest, "Upload is too large", nil)
			return
		}
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Expected a multipart form upload", err)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	readers := make(map[transform.Kind]io.Reader, len(uploadFields))
	var missing []string
	for _, f := range uploadFields {
		file, _, err := r.FormFile(f.field)
		if err != nil {
			missing = append(missing, f.field)
			continue
		}
		defer closeFile(file)
		readers[f.kind] = file
	}
	if len(missing) > 0 {
		respondErrorDetails(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Missing CSV files",
			map[string]any{"missing": missing})
		return
	}

	counts, err := h.importer.ImportReaders(r.Context(), readers)
	if err != nil {
		switch {
		case errors.Is(err, csvimport.ErrImportInProgress):
			respondError(w, r, http.StatusConflict, ErrCodeConflict, "A CSV import is already in progress", nil)
		case errors.Is(err, csvimport.ErrInvalidExport):
			respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), err)
		default:
			respondError(w, r, http.StatusInternalServerError, ErrCodeDatabaseError, "CSV import failed", err)
		}
		return
	}
	respondOK(w, r, http.StatusOK, counts, start)
}

func closeFile(f multipart.File) {
	_ = f.Close()
}
