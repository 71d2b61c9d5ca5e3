// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package warehouse

import (
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Supported drivers.
const (
	DriverDuckDB   = "duckdb"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// pgQueryCanceled is the SQLSTATE Postgres returns when statement_timeout
// cancels a query.
const pgQueryCanceled = "57014"

// dialect holds the SQL differences between backends.
type dialect struct {
	name        string
	sqlDriver   string // database/sql driver name
	jsonType    string
	jsonCast    string // appended to the payload placeholder on insert
	jsonSelect  string // payload expression in SELECT lists
	dollarArgs  bool   // $1, $2 instead of ?
	ctxDeadline bool   // enforce statement timeouts with a context deadline
}

var dialects = map[string]*dialect{
	DriverDuckDB: {
		name: DriverDuckDB, sqlDriver: "duckdb",
		jsonType: "TEXT", jsonSelect: "payload", ctxDeadline: true,
	},
	DriverPostgres: {
		name: DriverPostgres, sqlDriver: "pgx",
		jsonType: "JSONB", jsonCast: "::jsonb", jsonSelect: "payload::text", dollarArgs: true,
	},
	DriverSQLite: {
		name: DriverSQLite, sqlDriver: "sqlite",
		jsonType: "TEXT", jsonSelect: "payload", ctxDeadline: true,
	},
}

func (d *dialect) placeholder(n int) string {
	if d.dollarArgs {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// rebind rewrites ? placeholders for dialects that number their arguments.
// Queries must not contain literal question marks.
func (d *dialect) rebind(query string) string {
	if !d.dollarArgs || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString(d.placeholder(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// isStatementTimeout recognises a server-side cancellation. DuckDB and SQLite
// report context interrupts only in the message text.
func (d *dialect) isStatementTimeout(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgQueryCanceled
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "statement timeout") ||
		strings.Contains(msg, "canceling statement") ||
		strings.Contains(msg, "interrupt")
}
