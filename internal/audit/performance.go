// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/beaconkpi/internal/normalize"
)

const (
	performanceScan   = 100
	performanceWindow = 10
)

// SyncRun is the timing of one completed API sync.
type SyncRun struct {
	At              time.Time        `json:"at"`
	Trigger         string           `json:"trigger"`
	Attempts        int              `json:"attempts"`
	TotalMS         int64            `json:"total_duration_ms"`
	FetchMS         int64            `json:"fetch_duration_ms"`
	TransformMS     int64            `json:"transform_duration_ms"`
	UpsertMS        int64            `json:"upsert_duration_ms"`
	FetchBreakdown  map[string]int64 `json:"fetch_breakdown_ms,omitempty"`
	RecordsUpserted int64            `json:"records_upserted"`
}

// Performance summarises recent completed syncs.
type Performance struct {
	Latest         *SyncRun `json:"latest,omitempty"`
	AverageTotalMS float64  `json:"average_total_ms"`
	SampleSize     int      `json:"sample_size"`
}

// SyncPerformance returns the latest completed Beacon API sync and the
// average total duration of the last ten. CSV imports are excluded.
func (l *Logger) SyncPerformance(ctx context.Context) (*Performance, error) {
	events, err := l.store.Query(ctx, QueryFilter{
		Actions: []string{ActionSyncCompleted},
		Limit:   performanceScan,
	})
	if err != nil {
		return nil, fmt.Errorf("sync performance: %w", err)
	}

	var runs []SyncRun
	for _, e := range events {
		if normalize.String(e.Details["source"]) != SourceBeacon {
			continue
		}
		runs = append(runs, runFromEvent(e))
		if len(runs) == performanceWindow {
			break
		}
	}

	perf := &Performance{SampleSize: len(runs)}
	if len(runs) == 0 {
		return perf, nil
	}

	perf.Latest = &runs[0]
	var total int64
	for _, r := range runs {
		total += r.TotalMS
	}
	perf.AverageTotalMS = float64(total) / float64(len(runs))
	return perf, nil
}

func runFromEvent(e Event) SyncRun {
	d := e.Details
	run := SyncRun{
		At:          e.CreatedAt,
		Trigger:     normalize.String(d["trigger"]),
		Attempts:    normalize.ToInt(d["attempts"]),
		TotalMS:     int64(normalize.ToInt(d["total_duration_ms"])),
		FetchMS:     int64(normalize.ToInt(d["fetch_duration_ms"])),
		TransformMS: int64(normalize.ToInt(d["transform_duration_ms"])),
		UpsertMS:    int64(normalize.ToInt(d["upsert_duration_ms"])),
	}
	for _, k := range []string{"people", "organisations", "events", "payments", "grants"} {
		run.RecordsUpserted += int64(normalize.ToInt(d[k]))
	}
	if breakdown, ok := d["fetch_breakdown_ms"].(map[string]any); ok {
		run.FetchBreakdown = make(map[string]int64, len(breakdown))
		for k, v := range breakdown {
			run.FetchBreakdown[k] = int64(normalize.ToInt(v))
		}
	}
	return run
}
