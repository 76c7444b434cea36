// internal/session/mysql.go
//
// MySQL backend on sqlx.
//
// Context
//   One row per (sid, key).  `updated_at` is refreshed on every write so
//   Purge can drop sessions a browser has abandoned.  The schema is shipped
//   via Migrations() and applied by cmd/web when driver == mysql.
//
//------------------------------------------------------------------------------

package session

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

const (
	mysqlGet = `SELECT v FROM session_kv WHERE sid = ? AND k = ?`
	mysqlSet = `INSERT INTO session_kv (sid, k, v, updated_at) VALUES (?, ?, ?, NOW()) ` +
		`ON DUPLICATE KEY UPDATE v = VALUES(v), updated_at = NOW()`
	mysqlDel   = `DELETE FROM session_kv WHERE sid = ? AND k IN (?)`
	mysqlPurge = `DELETE FROM session_kv WHERE updated_at < ?`
)

// MySQL stores sessions in the `session_kv` table.
type MySQL struct {
	db *sqlx.DB
}

// NewMySQL wraps an open pool.  Close closes the pool.
func NewMySQL(db *sqlx.DB) *MySQL { return &MySQL{db: db} }

// Migrations returns the DDL required by this backend.
func (m *MySQL) Migrations() []string {
	return []string{`CREATE TABLE IF NOT EXISTS session_kv (
	sid        CHAR(36)     NOT NULL,
	k          VARCHAR(32)  NOT NULL,
	v          MEDIUMTEXT   NOT NULL,
	updated_at DATETIME     NOT NULL,
	PRIMARY KEY (sid, k),
	KEY idx_session_kv_updated (updated_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`}
}

// Migrate applies Migrations in order.
func (m *MySQL) Migrate(ctx context.Context) error {
	for _, ddl := range m.Migrations() {
		if _, err := m.db.ExecContext(ctx, ddl); err != nil {
			return err
		}
	}
	return nil
}

func (m *MySQL) Get(ctx context.Context, sid, key string) (string, bool, error) {
	var v string
	err := m.db.GetContext(ctx, &v, mysqlGet, sid, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (m *MySQL) Set(ctx context.Context, sid, key, val string) error {
	_, err := m.db.ExecContext(ctx, mysqlSet, sid, key, val)
	return err
}

func (m *MySQL) Remove(ctx context.Context, sid string, keys ...string) error {
	q, args, err := sqlx.In(mysqlDel, sid, keys)
	if err != nil {
		return err
	}
	_, err = m.db.ExecContext(ctx, m.db.Rebind(q), args...)
	return err
}

// Purge deletes rows not written since before and reports how many went.
func (m *MySQL) Purge(ctx context.Context, before time.Time) (int64, error) {
	res, err := m.db.ExecContext(ctx, mysqlPurge, before.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (m *MySQL) Close() error { return m.db.Close() }
