// internal/session/mysql_test.go
//
// Unit-tests for the MySQL backend using sqlmock.
//
// Run: go test ./internal/session -v

package session

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func newMockMySQL(t *testing.T) (*MySQL, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewMySQL(sqlx.NewDb(db, "mysql")), mock
}

func TestMySQLGet(t *testing.T) {
	m, mock := newMockMySQL(t)

	mock.ExpectQuery(regexp.QuoteMeta(mysqlGet)).
		WithArgs("sid-1", KeyToken).
		WillReturnRows(sqlmock.NewRows([]string{"v"}).AddRow("tok"))

	v, ok, err := m.Get(context.Background(), "sid-1", KeyToken)
	if err != nil || !ok || v != "tok" {
		t.Fatalf("Get = %q, %v, %v", v, ok, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestMySQLGetMissing(t *testing.T) {
	m, mock := newMockMySQL(t)

	mock.ExpectQuery(regexp.QuoteMeta(mysqlGet)).
		WithArgs("sid-1", KeyUser).
		WillReturnError(sql.ErrNoRows)

	_, ok, err := m.Get(context.Background(), "sid-1", KeyUser)
	if err != nil || ok {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestMySQLSetUpserts(t *testing.T) {
	m, mock := newMockMySQL(t)

	mock.ExpectExec(regexp.QuoteMeta(mysqlSet)).
		WithArgs("sid-1", KeyToken, "tok").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := m.Set(context.Background(), "sid-1", KeyToken, "tok"); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestMySQLRemoveExpandsKeys(t *testing.T) {
	m, mock := newMockMySQL(t)

	mock.ExpectExec(`DELETE FROM session_kv WHERE sid = \? AND k IN \(\?, \?\)`).
		WithArgs("sid-1", KeyToken, KeyUser).
		WillReturnResult(sqlmock.NewResult(0, 2))

	if err := m.Remove(context.Background(), "sid-1", KeyToken, KeyUser); err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestMySQLPurge(t *testing.T) {
	m, mock := newMockMySQL(t)
	cutoff := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(mysqlPurge)).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 7))

	n, err := m.Purge(context.Background(), cutoff)
	if err != nil || n != 7 {
		t.Fatalf("Purge = %d, %v", n, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestMySQLMigrate(t *testing.T) {
	m, mock := newMockMySQL(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS session_kv`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := m.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}
