package tags

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps tag sets in a SQLite database file.
type SQLiteStore struct {
	sqlStore
}

// OpenSQLite opens (or creates) the tag database at the given path.
func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open tag db: %w", err)
	}

	if err := migrate(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate tag db: %w", err)
	}

	return &SQLiteStore{sqlStore{db: db, name: "sqlite"}}, nil
}
