package store

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	sqlite3 "github.com/mattn/go-sqlite3"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateKey   = errors.New("already exists")
)

// pgReadOnlySQLState is SQLSTATE 25006 (read_only_sql_transaction).
const pgReadOnlySQLState = "25006"

// IsReadOnlyError reports whether err means the storage replica rejected a
// write because it is opened read-only. Expected during certain maintenance
// windows; only the connection-configuration step in InitDB swallows it.
func IsReadOnlyError(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgReadOnlySQLState {
		return true
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrReadonly {
		return true
	}

	return strings.Contains(err.Error(), "readonly database")
}
