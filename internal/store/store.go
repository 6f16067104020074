// Package store implements the Store interface the core consumes at admin
// boundaries (spec §4.6): typed CRUD keyed by a caller-supplied key field, no
// runtime reflection for key extraction (the Reflection-driven CRUD design
// note). Grounded on the teacher's store/store.go: same ordered-migrations
// list, same WAL/busy_timeout pragmas, same modernc.org/sqlite driver.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Read/Update/Delete when the key does not exist.
var ErrNotFound = errors.New("store: not found")

// ErrAlreadyExists is returned by Create when the key is already taken.
var ErrAlreadyExists = errors.New("store: already exists")

// Store is the abstract typed-CRUD surface spec §4.6 defines. table and
// keyField are caller-chosen namespacing strings (e.g. "bans", "player_id");
// key is the value extracted by the caller, never looked up by reflection.
// obj is marshaled to JSON for storage; callers read it back with Read and
// unmarshal into their own concrete type.
type Store interface {
	Create(ctx context.Context, table, keyField, key string, obj any) error
	Read(ctx context.Context, table, keyField, key string, out any) error
	Update(ctx context.Context, table, keyField, key string, obj any) error
	Delete(ctx context.Context, table, keyField, key string) error

	// List enumerates every record's raw JSON payload in table. It is a
	// pragmatic addition beyond the core's four key-addressed operations:
	// bootstrap needs to read every persisted ban back on boot (spec §5
	// "Persisted state"), which a single-key Read cannot express.
	List(ctx context.Context, table string) ([]json.RawMessage, error)

	// Flush is called by the core on graceful shutdown (spec §4.6
	// "Durability"). The SQLite implementation has nothing to buffer, so
	// this is a no-op that still satisfies the interface contract for
	// implementations that do batch writes.
	Flush(ctx context.Context) error

	Close() error
}

// migrations holds the ordered DDL list; index i is version i+1. A single
// generic table backs every (table, keyField) namespace so no per-type
// schema or reflection is needed — the caller's table/keyField strings are
// just namespacing, not SQL identifiers.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS records (
		table_name TEXT NOT NULL,
		key_field  TEXT NOT NULL,
		key_value  TEXT NOT NULL,
		payload    TEXT NOT NULL,
		updated_at INTEGER NOT NULL DEFAULT (unixepoch()),
		PRIMARY KEY (table_name, key_field, key_value)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_records_table ON records(table_name)`,
	`PRAGMA journal_mode=WAL`,
}

// SQLiteStore is the concrete Store backed by modernc.org/sqlite (pure Go,
// no cgo).
type SQLiteStore struct {
	db  *sql.DB
	log *slog.Logger
}

// Open opens (or creates) the database at path and applies pending
// migrations. Use ":memory:" for ephemeral storage, matching the teacher's
// store.New convention.
func Open(path string, log *slog.Logger) (*SQLiteStore, error) {
	return OpenEncrypted(path, log, "")
}

// OpenEncrypted is Open plus an encryption-key pass-through (SPEC_FULL §9's
// "encryption key placeholder" config knob). modernc.org/sqlite is a pure-Go
// driver with no at-rest encryption of its own, so a non-empty key is
// accepted and logged rather than silently ignored, leaving a named place to
// wire a SQLCipher-compatible driver later without another signature change.
func OpenEncrypted(path string, log *slog.Logger, encryptionKey string) (*SQLiteStore, error) {
	if log == nil {
		log = slog.Default()
	}
	if encryptionKey != "" {
		log.Warn("encryption key configured but at-rest encryption is not implemented by the sqlite driver in use; proceeding unencrypted")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)

	if _, err := db.Exec(`PRAGMA busy_timeout=5000`); err != nil {
		log.Warn("store: busy_timeout pragma failed", "err", err)
	}

	s := &SQLiteStore{db: db, log: log}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var current int
	if err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for i, stmt := range migrations {
		v := i + 1
		if v <= current {
			continue
		}
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", v, err)
		}
		if _, err := s.db.Exec(`INSERT INTO schema_migrations(version) VALUES(?)`, v); err != nil {
			return fmt.Errorf("record migration %d: %w", v, err)
		}
		s.log.Debug("store: applied migration", "version", v)
	}
	return nil
}

func (s *SQLiteStore) Create(ctx context.Context, table, keyField, key string, obj any) error {
	payload, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records(table_name, key_field, key_value, payload) VALUES(?,?,?,?)`,
		table, keyField, key, string(payload))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (s *SQLiteStore) Read(ctx context.Context, table, keyField, key string, out any) error {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM records WHERE table_name=? AND key_field=? AND key_value=?`,
		table, keyField, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(payload), out)
}

func (s *SQLiteStore) Update(ctx context.Context, table, keyField, key string, obj any) error {
	payload, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE records SET payload=?, updated_at=unixepoch() WHERE table_name=? AND key_field=? AND key_value=?`,
		string(payload), table, keyField, key)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, table, keyField, key string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM records WHERE table_name=? AND key_field=? AND key_value=?`,
		table, keyField, key)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, table string) ([]json.RawMessage, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM records WHERE table_name=? ORDER BY rowid`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []json.RawMessage
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		out = append(out, json.RawMessage(payload))
	}
	return out, rows.Err()
}

// Flush is a no-op: every Create/Update/Delete above is a committed
// statement, so there is nothing buffered to force out.
func (s *SQLiteStore) Flush(context.Context) error { return nil }

func (s *SQLiteStore) Close() error { return s.db.Close() }

func isUniqueViolation(err error) bool {
	// modernc.org/sqlite wraps the sqlite3 result code in its error string;
	// there is no typed sentinel exported for "UNIQUE constraint failed".
	return err != nil && (contains(err.Error(), "UNIQUE constraint") || contains(err.Error(), "constraint failed"))
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
