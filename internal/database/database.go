// Package database centralises sqlx connection helpers for the MySQL session
// backend.  The driver is go-sql-driver/mysql, which also works with MariaDB.
//
// Public entry points:
//
//	Open(ctx, dsn)                            – conservative pool sizes.
//	OpenWithOptions(ctx, dsn, maxOpen, maxIdle) – fine-grained control.
//
// Both helpers Ping the database before returning so callers can fail fast
// during bootstrap.  Callers should Close() the returned *sqlx.DB when no
// longer needed.
package database

import (
	"context"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// Open returns a *sqlx.DB with sane defaults: 15 max open, 5 idle, and a
// 30-minute connection lifetime.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	return OpenWithOptions(ctx, dsn, 15, 5)
}

// OpenWithOptions lets callers tune maxOpen and maxIdle per pool.
func OpenWithOptions(ctx context.Context, dsn string, maxOpen, maxIdle int) (*sqlx.DB, error) {
	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
