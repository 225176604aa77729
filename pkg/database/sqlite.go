package database

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLiteDriver is the driver name registered by modernc.org/sqlite.
const SQLiteDriver = "sqlite"

func init() {
	sqlx.BindDriver(SQLiteDriver, sqlx.QUESTION)
}

// NewSQLite opens a file-backed SQLite database for the console adapter and tests.
//
// Writers are serialised through a single connection and immediate transactions, which gives
// the same exclusive-registration semantics the Postgres row locks provide.
func NewSQLite(path string) (*sqlx.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	dsn := filepath.Clean(path) +
		"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_txlock=immediate"
	db, err := sqlx.Open(SQLiteDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return db, nil
}
