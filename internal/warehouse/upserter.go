// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package warehouse

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/beaconkpi/internal/logging"
	"github.com/tomtom215/beaconkpi/internal/metrics"
	"github.com/tomtom215/beaconkpi/internal/transform"
)

const (
	DefaultChunkSize    = 200
	DefaultMinChunkSize = 25

	// maxFloorRetries bounds retries of a chunk that still times out at the
	// minimum size.
	maxFloorRetries = 3
)

// Upserter writes rows in chunks and halves the chunk size whenever the
// store reports a statement timeout. A smaller size sticks for the rest of
// the call.
type Upserter struct {
	store        Store
	chunkSize    int
	minChunkSize int
}

// NewUpserter returns an Upserter. Non-positive sizes fall back to 200 and 25.
func NewUpserter(store Store, chunkSize, minChunkSize int) *Upserter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if minChunkSize <= 0 {
		minChunkSize = DefaultMinChunkSize
	}
	if minChunkSize > chunkSize {
		minChunkSize = chunkSize
	}
	return &Upserter{store: store, chunkSize: chunkSize, minChunkSize: minChunkSize}
}

// Upsert writes rows to table and returns how many were written. On success
// that is len(rows). Errors other than timeouts stop the write immediately
// and carry the table name and chunk offset.
func (u *Upserter) Upsert(ctx context.Context, table Table, rows []transform.Row) (int, error) {
	size := u.chunkSize
	written := 0
	floorTimeouts := 0

	for offset := 0; offset < len(rows); {
		if err := ctx.Err(); err != nil {
			return written, fmt.Errorf("upsert %s at offset %d: %w", table.Name, offset, err)
		}

		end := min(offset+size, len(rows))
		err := u.store.UpsertRows(ctx, table, rows[offset:end])
		if err == nil {
			written += end - offset
			offset = end
			floorTimeouts = 0
			continue
		}

		if !errors.Is(err, ErrStatementTimeout) {
			return written, fmt.Errorf("upsert %s at offset %d: %w", table.Name, offset, err)
		}

		if size > u.minChunkSize {
			next := max(size/2, u.minChunkSize)
			logging.Warn().Str("table", table.Name).Int("offset", offset).Int("from", size).Int("to", next).
				Msg("Statement timeout, shrinking upsert chunk")
			metrics.WarehouseChunkShrinks.WithLabelValues(table.Name).Inc()
			size = next
			continue
		}

		floorTimeouts++
		if floorTimeouts > maxFloorRetries {
			return written, fmt.Errorf("upsert %s at offset %d: chunk of %d rows timed out %d times: %w",
				table.Name, offset, size, floorTimeouts, err)
		}
		logging.Warn().Str("table", table.Name).Int("offset", offset).Int("chunk", size).Int("retry", floorTimeouts).
			Msg("Statement timeout at minimum chunk size, retrying")
	}

	metrics.WarehouseRowsUpserted.WithLabelValues(table.Name).Add(float64(written))
	return written, nil
}

// UpsertSet writes every batch of set in table order and returns the counts
// keyed by kind.
func (u *Upserter) UpsertSet(ctx context.Context, set *transform.Set) (map[transform.Kind]int, error) {
	counts := make(map[transform.Kind]int, len(Tables))
	for _, t := range Tables {
		n, err := u.Upsert(ctx, t, set.Batch(t.Kind).Rows())
		counts[t.Kind] = n
		if err != nil {
			return counts, err
		}
	}
	return counts, nil
}
