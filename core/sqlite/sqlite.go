// Package sqlite opens the SQLite databases used by the translation memory.
//
// Build modes:
//   - Default (CGO_ENABLED=0): pure Go modernc.org/sqlite, driver name "sqlite"
//   - CGO mode (-tags cgo_sqlite): github.com/mattn/go-sqlite3, driver name "sqlite3"
//
// Use Open instead of sql.Open so the driver matching the build is used.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
)

// DriverName returns the SQL driver name of the build.
func DriverName() string {
	return driverName
}

// DriverType returns "cgo" for mattn/go-sqlite3 and "purego" for
// modernc.org/sqlite.
func DriverType() string {
	return driverType
}

// IsCGO returns true if the CGO implementation is being used.
func IsCGO() bool {
	return driverType == "cgo"
}

// Open opens a SQLite database. The pool holds a single connection, so
// connection-scoped pragmas and ":memory:" databases behave as one
// database. Foreign keys are enabled and writers wait for a busy database
// instead of failing at once.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 5000"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}
	return db, nil
}

// OpenReadOnly opens a SQLite database in read-only mode.
func OpenReadOnly(path string) (*sql.DB, error) {
	dsn := path
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	return sql.Open(driverName, dsn+"?mode=ro")
}

// Info contains information about the SQLite driver configuration.
type Info struct {
	DriverName string `json:"driver_name" yaml:"driver_name"`
	DriverType string `json:"driver_type" yaml:"driver_type"`
	IsCGO      bool   `json:"is_cgo" yaml:"is_cgo"`
	Package    string `json:"package" yaml:"package"`
}

// GetInfo returns information about the current SQLite configuration.
func GetInfo() Info {
	return Info{
		DriverName: driverName,
		DriverType: driverType,
		IsCGO:      IsCGO(),
		Package:    driverPackage,
	}
}
