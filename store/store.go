// Copyright (c) 2026 Recordkit Team
// Recordkit - generic record services on top of Bun
// This source code is licensed under the MIT license found in the LICENSE file.

// Package store opens and maintains the databases recordkit services run
// against. It hides *sql.DB plumbing behind a long-lived *bun.DB with the
// dialect matching the configured backend.
package store // import "github.com/maxisioux/recordkit/store"

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/maxisioux/recordkit/internal/logging"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	// SQL drivers required for integration tests and runtime.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// sqlOpenFunc allows tests to override database opening behavior.
var sqlOpenFunc = sql.Open

// Open opens a database for the given type ("sqlite", "postgres",
// "mysql") and DSN and returns a long-lived *bun.DB with the matching
// dialect. The connection pool is configured with conservative defaults
// that can be overridden via RECORDKIT_DB_MAX_OPEN_CONNS,
// RECORDKIT_DB_MAX_IDLE_CONNS and RECORDKIT_DB_CONN_MAX_LIFETIME
// (duration, e.g. "5m").
func Open(dbType, dsn string) (*bun.DB, error) {
	driverName := dbType
	// The pgx stdlib registers driver name "pgx"; map "postgres" to that driver.
	if dbType == "postgres" {
		driverName = "pgx"
	}

	start := time.Now()
	sqlDB, err := sqlOpenFunc(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	const (
		defaultMaxOpenConns    = 25
		defaultMaxIdleConns    = 25
		defaultConnMaxLifetime = 5 * time.Minute
	)

	maxOpen := defaultMaxOpenConns
	if v := os.Getenv("RECORDKIT_DB_MAX_OPEN_CONNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			maxOpen = n
		}
	}
	maxIdle := defaultMaxIdleConns
	if v := os.Getenv("RECORDKIT_DB_MAX_IDLE_CONNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			maxIdle = n
		}
	}
	lifetime := defaultConnMaxLifetime
	if v := os.Getenv("RECORDKIT_DB_CONN_MAX_LIFETIME"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			lifetime = d
		}
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(lifetime)

	var bdb *bun.DB
	switch dbType {
	case "sqlite":
		bdb = bun.NewDB(sqlDB, sqlitedialect.New())
	case "postgres":
		bdb = bun.NewDB(sqlDB, pgdialect.New())
	case "mysql":
		bdb = bun.NewDB(sqlDB, mysqldialect.New())
	default:
		_ = sqlDB.Close()
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}

	logging.Debugf("store: opened %s database in %s", dbType, time.Since(start))
	return bdb, nil
}
