// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package casestudy

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/beaconkpi/internal/logging"
)

const badgerKeyPrefix = "case_study:"

// BadgerStore keeps case studies as JSON values under case_study:<id>.
type BadgerStore struct {
	db *badger.DB
}

var _ Store = (*BadgerStore)(nil)

// OpenBadger opens (or creates) a Badger directory at path. An empty path
// opens an in-memory database.
func OpenBadger(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for case studies: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Add(_ context.Context, cs *CaseStudy) error {
	if cs == nil {
		return ErrInvalid
	}
	data, err := json.Marshal(cs)
	if err != nil {
		return fmt.Errorf("marshal case study: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(badgerKeyPrefix+cs.ID), data); err != nil {
			return fmt.Errorf("set case study: %w", err)
		}
		return nil
	})
}

func (s *BadgerStore) List(ctx context.Context, f Filter) ([]CaseStudy, error) {
	studies := []CaseStudy{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(badgerKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var cs CaseStudy
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &cs)
			})
			if err != nil {
				logging.Warn().Err(err).Str("key", string(it.Item().Key())).Msg("Unreadable case study")
				continue
			}
			if f.matches(&cs) {
				studies = append(studies, cs)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list case studies: %w", err)
	}
	sortNewestFirst(studies)
	return studies, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
