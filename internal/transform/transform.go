// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

// Package transform maps extracted Beacon entities to canonical warehouse
// rows and collapses duplicate ids within a batch.
package transform

import (
	"strings"
	"time"

	"github.com/tomtom215/beaconkpi/internal/normalize"
)

// Kind names a canonical entity collection.
type Kind string

const (
	People        Kind = "people"
	Organisations Kind = "organisations"
	Events        Kind = "events"
	Payments      Kind = "payments"
	Grants        Kind = "grants"
)

// Kinds lists the canonical collections in upsert order.
var Kinds = []Kind{People, Organisations, Events, Payments, Grants}

// Row is one canonical warehouse row.
type Row struct {
	ID      string         `json:"id"`
	Payload map[string]any `json:"payload"`

	// Date is the value of the kind's date column (created_at, start_date,
	// payment_date or close_date).
	Date *string `json:"date,omitempty"`

	// Region is the first region tag. Only events carry it.
	Region *string `json:"region,omitempty"`

	UpdatedAt string `json:"updated_at"`
}

// Timestamp formats t the way updated_at and synced_at are stored.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000Z")
}

// deriveFunc fills kind-specific fields on a sanitized entity that already
// has its id set, and returns the date column value.
type deriveFunc func(entity map[string]any) (date *string, region *string)

var derivers = map[Kind]deriveFunc{
	People:        derivePerson,
	Organisations: deriveOrganisation,
	Events:        deriveEvent,
	Payments:      derivePayment,
	Grants:        deriveGrant,
}

// ToRow builds the canonical row for one raw API record. It returns false
// when the record has no id.
func ToRow(kind Kind, record any, updatedAt string) (Row, bool) {
	entity, ok := normalize.Sanitize(normalize.ExtractEntity(record)).(map[string]any)
	if !ok {
		return Row{}, false
	}
	id := normalize.ID(entity["id"])
	if id == "" {
		return Row{}, false
	}
	entity["id"] = id

	derive, ok := derivers[kind]
	if !ok {
		return Row{}, false
	}
	date, region := derive(entity)

	return Row{
		ID:        id,
		Payload:   entity,
		Date:      date,
		Region:    region,
		UpdatedAt: updatedAt,
	}, true
}

// Build transforms records of one kind into a last-write-wins batch.
func Build(kind Kind, records []any, updatedAt string) *Batch {
	b := NewBatch()
	for _, rec := range records {
		if row, ok := ToRow(kind, rec, updatedAt); ok {
			b.Put(row)
		}
	}
	return b
}

// Income merges payments and subscriptions into one payment batch.
// Payments dedup last-write-wins among themselves; a subscription only
// fills an id that no payment claimed.
func Income(payments, subscriptions []any, updatedAt string) *Batch {
	b := Build(Payments, payments, updatedAt)
	for _, rec := range subscriptions {
		if row, ok := ToRow(Payments, rec, updatedAt); ok {
			b.PutIfAbsent(row)
		}
	}
	return b
}

// regionList materializes c_region as a list, falling back to every other
// region-bearing field when c_region is empty.
func regionList(entity map[string]any) []string {
	if normalize.Truthy(entity["c_region"]) {
		if tags := normalize.ToList(entity["c_region"]); len(tags) > 0 {
			return tags
		}
	}
	return normalize.RegionTags(entity)
}

func derivePerson(e map[string]any) (*string, *string) {
	created := normalize.CleanTimestamp(e["created_at"])
	e["created_at"] = strPtrValue(created)
	e["type"] = normalize.ToList(e["type"])
	e["c_region"] = regionList(e)
	return created, nil
}

func deriveOrganisation(e map[string]any) (*string, *string) {
	created := normalize.CleanTimestamp(e["created_at"])
	e["created_at"] = strPtrValue(created)
	if list, ok := e["type"].([]any); ok {
		parts := make([]string, 0, len(list))
		for _, v := range list {
			if s := strings.TrimSpace(normalize.String(v)); s != "" {
				parts = append(parts, s)
			}
		}
		e["type"] = strings.Join(parts, ", ")
	}
	e["c_region"] = regionList(e)
	return created, nil
}

func deriveEvent(e map[string]any) (*string, *string) {
	start := normalize.CleanTimestamp(normalize.Coalesce(e["start_date"], e["date"], e["created_at"]))
	e["start_date"] = strPtrValue(start)

	tags := regionList(e)
	e["c_region"] = tags
	e["type"] = normalize.Coalesce(e["type"], e["event_type"], e["category"])
	e["number_of_attendees"] = normalize.Coalesce(e["number_of_attendees"], e["attendees"], e["participant_count"])

	var region *string
	if len(tags) > 0 {
		first := tags[0]
		region = &first
	}
	return start, region
}

func derivePayment(e map[string]any) (*string, *string) {
	paid := normalize.CleanTimestamp(normalize.Coalesce(e["payment_date"], e["date"], e["created_at"]))
	e["payment_date"] = strPtrValue(paid)
	e["amount"] = normalize.Coalesce(e["amount"], e["value"])
	return paid, nil
}

func deriveGrant(e map[string]any) (*string, *string) {
	closed := normalize.CleanTimestamp(normalize.Coalesce(e["close_date"], e["award_date"], e["created_at"]))
	e["close_date"] = strPtrValue(closed)
	e["amount"] = normalize.Coalesce(e["amount"], e["amount_granted"], e["value"])
	e["stage"] = normalize.Coalesce(e["stage"], e["status"])
	return closed, nil
}

// strPtrValue returns *p, or nil (not a typed nil) when p is nil, so the
// payload marshals to JSON null.
func strPtrValue(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
