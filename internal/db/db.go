// Package db implements the Storage Adapter's connection lifecycle: driver
// selection between local SQLite and remote libsql/Turso, pragma tuning,
// and the migration entrypoint used by internal/db/repositories. Grounded
// on the teacher's internal/db/db.go dual-driver dispatch, restructured
// around the spec's error taxonomy (internal/errors.StorageWrap) instead of
// bare fmt.Errorf wrapping.
package db

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"

	lwerrors "lacewing/internal/errors"
	"lacewing/internal/logging"
)

// DB wraps the Storage Adapter's underlying *sql.DB connection.
type DB struct {
	conn *sql.DB
}

// pragma is one SQLite tuning statement applied after a local connection is
// established, per spec.md §5's single-writer/WAL concurrency model.
type pragma struct {
	statement string
	purpose   string
}

var localPragmas = []pragma{
	{"PRAGMA foreign_keys = ON", "enable foreign key constraints"},
	{"PRAGMA journal_mode = WAL", "enable WAL mode"},
	{"PRAGMA busy_timeout = 30000", "set busy timeout"},
	{"PRAGMA synchronous = NORMAL", "set synchronous mode"},
	{"PRAGMA cache_size = -64000", "set cache size"},
}

// New opens the Storage Adapter's connection. A databaseURL beginning with
// libsql://, http://, or https:// is treated as a remote Turso/libsql
// database; anything else is a local SQLite file path.
func New(databaseURL string) (*DB, error) {
	if isRemoteDSN(databaseURL) {
		return openRemote(databaseURL)
	}
	return openLocal(databaseURL)
}

func isRemoteDSN(databaseURL string) bool {
	return strings.HasPrefix(databaseURL, "libsql://") ||
		strings.HasPrefix(databaseURL, "http://") ||
		strings.HasPrefix(databaseURL, "https://")
}

func openRemote(databaseURL string) (*DB, error) {
	conn, err := sql.Open("libsql", databaseURL)
	if err != nil {
		return nil, lwerrors.StorageWrap(err, "failed to open libsql database")
	}
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(10)
	conn.SetConnMaxLifetime(5 * time.Minute)

	if err := conn.Ping(); err != nil {
		return nil, lwerrors.StorageWrap(err, "failed to connect to libsql database")
	}
	logging.Info("connected to remote storage adapter backend")
	return &DB{conn: conn}, nil
}

// openLocal opens a local SQLite file, retrying the initial ping with
// exponential backoff since a concurrently-starting process may briefly
// hold the file lock.
func openLocal(databaseURL string) (*DB, error) {
	dbDir := filepath.Dir(databaseURL)
	if dbDir != "." && dbDir != "" {
		if err := os.MkdirAll(dbDir, 0o755); err != nil {
			return nil, lwerrors.StorageWrap(err, "failed to create database directory %s", dbDir)
		}
	}

	const maxAttempts = 5
	const baseDelay = 100 * time.Millisecond

	var conn *sql.DB
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		conn, err = sql.Open("sqlite", databaseURL)
		if err != nil {
			return nil, lwerrors.StorageWrap(err, "failed to open database")
		}
		conn.SetMaxOpenConns(10)
		conn.SetMaxIdleConns(5)

		if err = conn.Ping(); err == nil {
			break
		}
		conn.Close()
		if attempt == maxAttempts-1 {
			return nil, lwerrors.StorageWrap(err, "failed to ping database after %d attempts", maxAttempts)
		}
		time.Sleep(baseDelay * time.Duration(1<<uint(attempt)))
	}

	for _, p := range localPragmas {
		if _, err := conn.Exec(p.statement); err != nil {
			return nil, lwerrors.StorageWrap(err, "failed to %s", p.purpose)
		}
	}
	logging.Info("connected to local storage adapter backend at %s", databaseURL)
	return &DB{conn: conn}, nil
}

// Close drains the connection pool and closes it, favoring a fast shutdown
// over draining in-flight connections.
func (db *DB) Close() error {
	db.conn.SetMaxOpenConns(0)
	db.conn.SetMaxIdleConns(0)
	db.conn.SetConnMaxLifetime(0)
	return db.conn.Close()
}

// Conn exposes the underlying *sql.DB for repository construction.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Migrate applies every pending embedded migration.
func (db *DB) Migrate() error {
	return RunMigrations(db.conn)
}
