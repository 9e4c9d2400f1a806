// Package cache persists generative-text responses keyed by query
// fingerprint and volume, alongside an append-only audit log of attempts.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const timeFormat = time.RFC3339Nano

// Entry is one recorded lookup attempt
type Entry struct {
	Fingerprint string
	Volume      int
	Series      string
	Payload     string
	Success     bool
	Timestamp   time.Time
}

// Store is the lookup cache used by the orchestrator
type Store interface {
	Get(ctx context.Context, fingerprint string, volume int) (Entry, bool, error)
	Put(ctx context.Context, entry Entry) error
}

// DB is a SQLite backed Store. It is safe for concurrent use.
type DB struct {
	conn *sql.DB
	now  func() time.Time
}

// Open opens (creating if needed) the cache database at dbPath
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	// a single connection serializes writers so concurrent Puts never see SQLITE_BUSY
	conn.SetMaxOpenConns(1)

	for name, ddl := range map[string]string{
		"responses":    createResponsesTable,
		"api_calls":    createAPICallsTable,
		"interactions": createInteractionsTable,
	} {
		if _, err := conn.Exec(ddl); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create %s schema: %w", name, err)
		}
	}

	return &DB{conn: conn, now: time.Now}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Get returns the newest attempt stored for (fingerprint, volume)
func (db *DB) Get(ctx context.Context, fingerprint string, volume int) (Entry, bool, error) {
	entry := Entry{Fingerprint: fingerprint, Volume: volume}
	var createdAt string

	err := db.conn.QueryRowContext(ctx, selectResponse, fingerprint, volume).
		Scan(&entry.Series, &entry.Payload, &entry.Success, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	entry.Timestamp, err = time.Parse(timeFormat, createdAt)
	if err != nil {
		return Entry{}, false, fmt.Errorf("failed to parse cache timestamp %q: %w", createdAt, err)
	}
	return entry, true, nil
}

// Put records an attempt. The slot for the key is overwritten and an audit
// row is appended in the same transaction.
func (db *DB) Put(ctx context.Context, entry Entry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = db.now()
	}
	ts := entry.Timestamp.UTC().Format(timeFormat)

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, upsertResponse,
		entry.Fingerprint, entry.Volume, entry.Series, entry.Payload, entry.Success, ts); err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	if _, err := tx.ExecContext(ctx, insertAPICall,
		entry.Fingerprint, entry.Volume, entry.Series, entry.Success, ts); err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Delete removes the cached slot for one key, leaving the audit log intact.
// It reports whether a slot existed.
func (db *DB) Delete(ctx context.Context, fingerprint string, volume int) (bool, error) {
	res, err := db.conn.ExecContext(ctx, deleteResponse, fingerprint, volume)
	if err != nil {
		return false, fmt.Errorf("failed to delete cache entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to count deleted entries: %w", err)
	}
	return n > 0, nil
}

// DeleteFailed removes every cached failure so those volumes are retried
func (db *DB) DeleteFailed(ctx context.Context) (int64, error) {
	res, err := db.conn.ExecContext(ctx, deleteFailedResponses)
	if err != nil {
		return 0, fmt.Errorf("failed to delete failed entries: %w", err)
	}
	return res.RowsAffected()
}
