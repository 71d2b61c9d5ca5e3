// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

// Package casestudy stores the short impact stories regional staff attach
// to their dashboards.
//
// Two backends exist: SQLStore keeps case_studies next to the Beacon tables
// in the warehouse, BadgerStore keeps them in a local Badger directory for
// deployments without a shared database. Both use ULID ids, so ids sort in
// creation order.
package casestudy

import (
	"context"
	"crypto/rand"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// DateLayout is the stored form of DateAdded.
const DateLayout = "2006-01-02 15:04:05"

// GlobalRegion lists case studies from every region.
const GlobalRegion = "Global"

var (
	// ErrNotFound is returned when a case study does not exist.
	ErrNotFound = errors.New("case study not found")

	// ErrInvalid is returned for a case study without a title, content or
	// region.
	ErrInvalid = errors.New("case study requires title, content and region")
)

// CaseStudy is one stored story.
type CaseStudy struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Region    string `json:"region"`
	DateAdded string `json:"date_added"`
}

// Input is a new case study as submitted by a user.
type Input struct {
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content" validate:"required,max=20000"`
	Region  string `json:"region" validate:"required,max=100"`

	// Date defaults to now. Only the calendar day of a date-only value is
	// kept, at midnight.
	Date *time.Time `json:"date,omitempty"`
}

// Filter selects case studies. Start and End are inclusive; nil is open.
type Filter struct {
	Region string
	Start  *time.Time
	End    *time.Time
}

func (f Filter) matches(cs *CaseStudy) bool {
	if f.Region != "" && f.Region != GlobalRegion && cs.Region != f.Region {
		return false
	}
	if f.Start == nil && f.End == nil {
		return true
	}
	added, err := time.Parse(DateLayout, cs.DateAdded)
	if err != nil {
		return false
	}
	if f.Start != nil && added.Before(*f.Start) {
		return false
	}
	if f.End != nil && added.After(*f.End) {
		return false
	}
	return true
}

// Store persists case studies.
type Store interface {
	Add(ctx context.Context, cs *CaseStudy) error

	// List returns matching case studies, newest first.
	List(ctx context.Context, f Filter) ([]CaseStudy, error)

	Close() error
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// New builds a case study from in, stamping an id and the date added.
func New(in Input, now time.Time) (*CaseStudy, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	in.Region = strings.TrimSpace(in.Region)
	if in.Title == "" || in.Content == "" || in.Region == "" {
		return nil, ErrInvalid
	}

	added := now
	if in.Date != nil {
		added = *in.Date
	}

	entropyMu.Lock()
	id, err := ulid.New(ulid.Timestamp(now), entropy)
	entropyMu.Unlock()
	if err != nil {
		return nil, err
	}

	return &CaseStudy{
		ID:        id.String(),
		Title:     in.Title,
		Content:   in.Content,
		Region:    in.Region,
		DateAdded: added.Format(DateLayout),
	}, nil
}

func sortNewestFirst(studies []CaseStudy) {
	sort.SliceStable(studies, func(i, j int) bool {
		if studies[i].DateAdded != studies[j].DateAdded {
			return studies[i].DateAdded > studies[j].DateAdded
		}
		return studies[i].ID > studies[j].ID
	})
}
