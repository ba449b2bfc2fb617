package sqlitedb

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

// OpenDb opens a connection with the DB. A single connection is used, the
// sqlite driver does not support concurrent writers.
func OpenDb(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(driverName, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %v", err)
	}
	db.SetMaxOpenConns(1)

	return db, nil
}

func extractDB(config ...interface{}) (*sql.DB, error) {
	if len(config) != 1 {
		return nil, fmt.Errorf("invalid config: expected 1 argument, got %d", len(config))
	}
	db, ok := config[0].(*sql.DB)
	if !ok {
		return nil, fmt.Errorf("expected *sql.DB but got %T", config[0])
	}
	return db, nil
}
