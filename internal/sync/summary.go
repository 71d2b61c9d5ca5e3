// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package sync

// Summary is the result of a completed sync. Counts are distinct rows
// upserted per kind; durations are milliseconds.
type Summary struct {
	People              int              `json:"people"`
	Organisations       int              `json:"organisations"`
	Events              int              `json:"events"`
	Payments            int              `json:"payments"`
	Grants              int              `json:"grants"`
	SyncedAt            string           `json:"synced_at"`
	FetchDurationMS     int64            `json:"fetch_duration_ms"`
	TransformDurationMS int64            `json:"transform_duration_ms"`
	UpsertDurationMS    int64            `json:"upsert_duration_ms"`
	TotalDurationMS     int64            `json:"total_duration_ms"`
	FetchBreakdownMS    map[string]int64 `json:"fetch_breakdown_ms"`
}

// Records returns the total number of rows upserted.
func (s *Summary) Records() int {
	return s.People + s.Organisations + s.Events + s.Payments + s.Grants
}

// details flattens s into audit event details.
func (s *Summary) details() map[string]any {
	breakdown := make(map[string]any, len(s.FetchBreakdownMS))
	for k, v := range s.FetchBreakdownMS {
		breakdown[k] = v
	}
	return map[string]any{
		"people":                s.People,
		"organisations":         s.Organisations,
		"events":                s.Events,
		"payments":              s.Payments,
		"grants":                s.Grants,
		"synced_at":             s.SyncedAt,
		"fetch_duration_ms":     s.FetchDurationMS,
		"transform_duration_ms": s.TransformDurationMS,
		"upsert_duration_ms":    s.UpsertDurationMS,
		"total_duration_ms":     s.TotalDurationMS,
		"fetch_breakdown_ms":    breakdown,
	}
}
