// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package kpi

import (
	"time"

	"github.com/tomtom215/beaconkpi/internal/cache"
)

// DefaultReportTTL is how long a computed report is reused.
const DefaultReportTTL = 5 * time.Minute

// ReportCache holds computed reports keyed by region and a hash of the
// input snapshot. Any change to the inputs yields a new key, so stale
// entries only live until their TTL or the next Invalidate.
type ReportCache struct {
	c *cache.Cache[*Report]
}

// NewReportCache returns a cache with the given TTL; zero uses
// DefaultReportTTL.
func NewReportCache(ttl time.Duration) *ReportCache {
	if ttl <= 0 {
		ttl = DefaultReportTTL
	}
	return &ReportCache{c: cache.New[*Report](ttl, cache.DefaultCapacity)}
}

// Key returns the cache key for region over in.
func Key(region string, in Input) string {
	return cache.GenerateKey("kpi:"+region, in)
}

func (rc *ReportCache) Get(key string) (*Report, bool) {
	return rc.c.Get(key)
}

func (rc *ReportCache) Set(key string, r *Report) {
	rc.c.Set(key, r)
}

// Invalidate drops every cached report. Called after any warehouse write.
func (rc *ReportCache) Invalidate() {
	rc.c.Clear()
}

// Stats returns the underlying cache statistics.
func (rc *ReportCache) Stats() cache.Stats {
	return rc.c.GetStats()
}
