// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // registers "duckdb"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	_ "modernc.org/sqlite"             // registers "sqlite"

	"github.com/tomtom215/beaconkpi/internal/config"
	"github.com/tomtom215/beaconkpi/internal/logging"
	"github.com/tomtom215/beaconkpi/internal/syncerr"
)

const memoryDSN = ":memory:"

// Open connects to the configured backend and applies pending migrations.
func Open(ctx context.Context, cfg *config.WarehouseConfig) (*SQLStore, error) {
	d, ok := dialects[cfg.Driver]
	if !ok {
		return nil, syncerr.Fatalf("open warehouse", "unsupported driver %q", cfg.Driver)
	}

	var (
		conn *sql.DB
		err  error
	)
	switch d.name {
	case DriverDuckDB:
		conn, err = openDuckDB(cfg)
	case DriverPostgres:
		conn, err = sql.Open(d.sqlDriver, postgresDSN(cfg.DSN, cfg.StatementTimeout))
	case DriverSQLite:
		conn, err = openSQLite(cfg.DSN)
	}
	if err != nil {
		return nil, syncerr.Fatal("open warehouse", err)
	}

	configureConnectionPool(conn, d.name, cfg.DSN)

	store := &SQLStore{db: conn, dialect: d, statementTimeout: cfg.StatementTimeout}
	if err := conn.PingContext(ctx); err != nil {
		closeQuietly(store)
		return nil, syncerr.Retryable("ping warehouse", err)
	}
	if err := store.migrate(ctx); err != nil {
		closeQuietly(store)
		return nil, syncerr.Fatal("migrate warehouse", err)
	}

	logging.Info().Str("driver", d.name).Msg("Warehouse connected")
	return store, nil
}

func openDuckDB(cfg *config.WarehouseConfig) (*sql.DB, error) {
	path := cfg.DSN
	if path == memoryDSN {
		path = ""
	}
	if path != "" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create warehouse directory %s: %w", dir, err)
			}
		}
	}

	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "1GB"
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		path, threads, maxMemory)
	return sql.Open("duckdb", connStr)
}

func openSQLite(dsn string) (*sql.DB, error) {
	if dsn != "" && dsn != memoryDSN && !strings.HasPrefix(dsn, "file:") {
		if dir := filepath.Dir(dsn); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create warehouse directory %s: %w", dir, err)
			}
		}
	}
	if dsn == "" {
		dsn = memoryDSN
	}
	return sql.Open("sqlite", dsn)
}

// postgresDSN adds statement_timeout as a runtime parameter. pgx passes
// unknown connection settings to the server.
func postgresDSN(dsn string, timeout time.Duration) string {
	if timeout <= 0 {
		return dsn
	}
	ms := strconv.FormatInt(timeout.Milliseconds(), 10)

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err == nil {
			q := u.Query()
			q.Set("statement_timeout", ms)
			u.RawQuery = q.Encode()
			return u.String()
		}
	}
	return strings.TrimSpace(dsn) + " statement_timeout=" + ms
}

func configureConnectionPool(conn *sql.DB, driver, dsn string) {
	if driver == DriverSQLite {
		// Each SQLite connection to :memory: is a separate database.
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
		conn.SetConnMaxLifetime(0)
		conn.SetConnMaxIdleTime(0)
		return
	}

	conn.SetMaxOpenConns(runtime.NumCPU())
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(time.Hour)
	conn.SetConnMaxIdleTime(5 * time.Minute)
	if driver == DriverDuckDB && (dsn == "" || dsn == memoryDSN) {
		conn.SetConnMaxLifetime(0)
		conn.SetConnMaxIdleTime(0)
	}
}

type closer interface{ Close() error }

func closeQuietly(c closer) {
	if c != nil {
		_ = c.Close()
	}
}
