package eventlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ink1ing/rambooster/pkg/memstats"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// tsLayout keeps every fractional digit so that string comparison of stored
// timestamps matches chronological order.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

const eventsSchema = `CREATE TABLE IF NOT EXISTS events (
	ts TEXT PRIMARY KEY,
	action TEXT,
	before_json TEXT,
	after_json TEXT,
	delta_mb INTEGER,
	pressure TEXT,
	details_json TEXT
)`

// SQLiteBackend stores entries in a single SQLite database.
type SQLiteBackend struct {
	db     *sql.DB
	path   string
	logger *log.Logger
	mu     sync.RWMutex
}

// NewSQLiteBackend opens or creates the database at path and ensures the
// events table exists.
func NewSQLiteBackend(path string, logger *log.Logger) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", path+"?_busy_timeout=10000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			logger.Warnf("Failed to set pragma %s: %v", p, err)
		}
	}

	if _, err := db.Exec(eventsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create events table: %w", err)
	}

	return &SQLiteBackend{db: db, path: path, logger: logger}, nil
}

// Name returns the backend name.
func (b *SQLiteBackend) Name() string {
	return BackendSQLite
}

// Append inserts the entry. Snapshots and details are stored as JSON text.
func (b *SQLiteBackend) Append(ctx context.Context, e Entry) error {
	beforeJSON, err := marshalJSON(e.Before)
	if err != nil {
		return err
	}
	afterJSON, err := marshalJSON(e.After)
	if err != nil {
		return err
	}
	detailsJSON, err := marshalJSON(e.Details)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	_, err = b.db.ExecContext(ctx, `
		INSERT INTO events (ts, action, before_json, after_json, delta_mb, pressure, details_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.Timestamp.UTC().Format(tsLayout), e.Action, beforeJSON, afterJSON, e.DeltaMb, string(e.Pressure), detailsJSON)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// Query returns matching entries in chronological order.
func (b *SQLiteBackend) Query(ctx context.Context, f Filter) ([]Entry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	query := "SELECT ts, action, before_json, after_json, delta_mb, pressure, details_json FROM events"
	var (
		whereClauses []string
		args         []any
	)

	if !f.Since.IsZero() {
		whereClauses = append(whereClauses, "ts >= ?")
		args = append(args, f.Since.UTC().Format(tsLayout))
	}
	if !f.Until.IsZero() {
		whereClauses = append(whereClauses, "ts <= ?")
		args = append(args, f.Until.UTC().Format(tsLayout))
	}
	if f.Action != "" {
		whereClauses = append(whereClauses, "action = ?")
		args = append(args, f.Action)
	}

	for i, clause := range whereClauses {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}

	// Most recent first so LIMIT keeps the newest entries, then reversed
	// below to hand back chronological order.
	query += " ORDER BY ts DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var ts, pressure, beforeJSON, afterJSON, detailsJSON string
		if err := rows.Scan(&ts, &e.Action, &beforeJSON, &afterJSON, &e.DeltaMb, &pressure, &detailsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}

		e.Timestamp, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("failed to parse event timestamp %q: %w", ts, err)
		}
		e.Pressure = memstats.PressureLevel(pressure)
		if err := json.Unmarshal([]byte(beforeJSON), &e.Before); err != nil {
			return nil, fmt.Errorf("failed to decode before snapshot: %w", err)
		}
		if err := json.Unmarshal([]byte(afterJSON), &e.After); err != nil {
			return nil, fmt.Errorf("failed to decode after snapshot: %w", err)
		}
		if err := json.Unmarshal([]byte(detailsJSON), &e.Details); err != nil {
			return nil, fmt.Errorf("failed to decode details: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration for events: %w", err)
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Prune deletes entries older than the cutoff and returns how many rows were
// removed.
func (b *SQLiteBackend) Prune(ctx context.Context, olderThan time.Time) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	res, err := b.db.ExecContext(ctx, "DELETE FROM events WHERE ts < ?", olderThan.UTC().Format(tsLayout))
	if err != nil {
		return 0, fmt.Errorf("failed to prune events: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(deleted), nil
}

// Clear deletes every entry and returns how many rows were removed.
func (b *SQLiteBackend) Clear(ctx context.Context) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	res, err := b.db.ExecContext(ctx, "DELETE FROM events")
	if err != nil {
		return 0, fmt.Errorf("failed to clear events: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(deleted), nil
}

// Size returns the size in bytes of the database file.
func (b *SQLiteBackend) Size() (int64, error) {
	info, err := os.Stat(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to stat database: %w", err)
	}
	return info.Size(), nil
}

// Files reports the database file itself.
func (b *SQLiteBackend) Files() ([]FileInfo, error) {
	size, err := b.Size()
	if err != nil {
		return nil, err
	}
	return []FileInfo{{Name: filepath.Base(b.path), Size: size}}, nil
}

// Close closes the database.
func (b *SQLiteBackend) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

func marshalJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal event field: %w", err)
	}
	return string(data), nil
}
