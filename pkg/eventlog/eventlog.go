// Package eventlog records every remediation the agent performs, so that
// `rambo log` can answer "what did this tool do to my machine and when".
package eventlog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ink1ing/rambooster/pkg/memstats"
	log "github.com/sirupsen/logrus"
)

// Action tags stored with each entry.
const (
	ActionManualBoost     = "manual_boost"
	ActionAutoBoost       = "auto_boost"
	ActionAggressiveBoost = "aggressive_boost"
	ActionKill            = "kill"
	ActionPurge           = "purge"
)

// Backend names accepted by Open.
const (
	BackendJSONL  = "jsonl"
	BackendSQLite = "sqlite"
)

// Entry is one logged remediation event. Before and After are nil when the
// action had no measurable memory snapshot around it.
type Entry struct {
	Timestamp time.Time              `json:"ts"`
	Action    string                 `json:"action"`
	Before    *memstats.MemSnapshot  `json:"before"`
	After     *memstats.MemSnapshot  `json:"after"`
	DeltaMb   int64                  `json:"delta_mb"`
	Pressure  memstats.PressureLevel `json:"pressure"`
	Details   map[string]any         `json:"details"`
}

// Filter narrows a Query. Zero values mean "no constraint". Limit caps the
// result to the most recent entries.
type Filter struct {
	Since  time.Time
	Until  time.Time
	Action string
	Limit  int
}

// FileInfo describes one storage file on disk.
type FileInfo struct {
	Name string
	Size int64
}

// Backend persists and retrieves entries. Prune and Clear report how many
// files (JSONL) or rows (SQLite) were removed.
type Backend interface {
	Append(ctx context.Context, e Entry) error
	Query(ctx context.Context, f Filter) ([]Entry, error)
	Prune(ctx context.Context, olderThan time.Time) (int, error)
	Clear(ctx context.Context) (int, error)
	Size() (int64, error)
	Files() ([]FileInfo, error)
	Name() string
	Close() error
}

// Open creates the backend named by backend inside dir, creating dir if
// needed. An empty backend name selects JSONL.
func Open(backend, dir string, logger *log.Logger) (Backend, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	switch backend {
	case "", BackendJSONL:
		return NewJSONLBackend(dir, logger), nil
	case BackendSQLite:
		return NewSQLiteBackend(filepath.Join(dir, "events.db"), logger)
	default:
		return nil, fmt.Errorf("unknown log backend %q", backend)
	}
}

// DayRange returns the UTC day containing t as a [since, until] pair suitable
// for a Filter covering that whole day.
func DayRange(t time.Time) (time.Time, time.Time) {
	day := t.UTC().Truncate(24 * time.Hour)
	return day, day.Add(24*time.Hour - time.Nanosecond)
}
