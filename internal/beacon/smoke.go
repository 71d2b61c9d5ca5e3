// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package beacon

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/beaconkpi/internal/syncerr"
)

const smokeEndpoint = "person"

// ErrNoRecordsArray means the response had neither data[] nor results[].
var ErrNoRecordsArray = errors.New("beacon smoke test response does not include a records array (expected either data[] or results[])")

// SmokeResult describes a single-record check of the person endpoint.
type SmokeResult struct {
	StatusCode     int         `json:"status_code"`
	ResponseTimeMS int64       `json:"response_time_ms"`
	Endpoint       string      `json:"endpoint"`
	RecordsInPage  int         `json:"records_in_page"`
	Meta           SmokeMeta   `json:"meta"`
	Checks         SmokeChecks `json:"checks"`
}

// SmokeMeta is the pagination metadata reported or, when absent, derived.
type SmokeMeta struct {
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
	TotalPages  int `json:"total_pages"`
}

// SmokeChecks records which response shape Beacon returned.
type SmokeChecks struct {
	HasRecordsArray       bool `json:"has_records_array"`
	HasDataArray          bool `json:"has_data_array"`
	HasMeta               bool `json:"has_meta"`
	RequiredMetaPresent   bool `json:"required_meta_present"`
	DocsCompliantShape    bool `json:"docs_compliant_shape"`
	LegacyCompatibleShape bool `json:"legacy_compatible_shape"`
}

var requiredMetaKeys = []string{"current_page", "per_page", "total"}

// SmokeTest requests one person record without retries and reports whether
// the response follows the documented shape. Legacy shapes pass with a
// warning; a response without any records array fails.
func (c *Client) SmokeTest(ctx context.Context) (*SmokeResult, error) {
	const page, perPage = 1, 1

	resp, err := c.do(ctx, smokeEndpoint, page, perPage)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &APIError{Endpoint: smokeEndpoint, StatusCode: resp.StatusCode, Body: truncateBody(resp.Body)}
	}
	if err := decodePayload(resp); err != nil {
		return nil, syncerr.Fatal("decode smoke test response", err)
	}

	checks, records := inspectShape(resp.Payload)
	if !checks.HasRecordsArray {
		return nil, syncerr.Fatal("beacon smoke test", ErrNoRecordsArray)
	}

	meta := SmokeMeta{CurrentPage: page, PerPage: perPage, Total: len(records)}
	if current, pages, ok := ExtractPageProgress(resp.Payload); ok {
		meta.CurrentPage = current
		meta.TotalPages = pages
	}
	if total, ok := ExtractTotalCount(resp.Payload); ok {
		meta.Total = total
	}
	if m, ok := resp.Payload.(map[string]any); ok {
		if rawMeta, ok := m["meta"].(map[string]any); ok {
			if pp, ok := asInt(rawMeta["per_page"]); ok {
				meta.PerPage = pp
			}
		}
	}
	if meta.TotalPages == 0 {
		meta.TotalPages = max(1, (meta.Total+perPage-1)/perPage)
	}

	result := &SmokeResult{
		StatusCode:     resp.StatusCode,
		ResponseTimeMS: resp.Elapsed.Milliseconds(),
		Endpoint:       smokeEndpoint,
		RecordsInPage:  len(records),
		Meta:           meta,
		Checks:         checks,
	}

	if checks.DocsCompliantShape {
		c.log.Info().Int64("response_time_ms", result.ResponseTimeMS).Int("total", meta.Total).
			Msg("Beacon smoke test passed with documented response shape")
	} else {
		c.log.Warn().Int64("response_time_ms", result.ResponseTimeMS).Bool("has_meta", checks.HasMeta).
			Msg("Beacon smoke test passed with legacy response shape")
	}
	return result, nil
}

func inspectShape(payload any) (SmokeChecks, []any) {
	var checks SmokeChecks
	var records []any

	switch v := payload.(type) {
	case []any:
		checks.HasRecordsArray = true
		records = v
	case map[string]any:
		_, hasResults := v["results"].([]any)
		_, checks.HasDataArray = v["data"].([]any)
		checks.HasRecordsArray = hasResults || checks.HasDataArray
		records = ExtractResultList(v)

		meta, hasMeta := v["meta"].(map[string]any)
		checks.HasMeta = hasMeta
		if hasMeta {
			checks.RequiredMetaPresent = true
			for _, k := range requiredMetaKeys {
				if _, ok := meta[k]; !ok {
					checks.RequiredMetaPresent = false
					break
				}
			}
		}
	}

	checks.DocsCompliantShape = checks.HasDataArray && checks.HasMeta && checks.RequiredMetaPresent
	checks.LegacyCompatibleShape = checks.HasRecordsArray && !checks.DocsCompliantShape
	return checks, records
}
