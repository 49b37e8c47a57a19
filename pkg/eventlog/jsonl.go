package eventlog

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const jsonlExt = ".jsonl"

// JSONLBackend writes entries as one JSON object per line into per-day files
// named YYYY-MM-DD.jsonl. Days roll over at UTC midnight. Files are opened in
// append mode for each write, so concurrent daemon and CLI processes can share
// a directory.
type JSONLBackend struct {
	dir    string
	logger *log.Logger
	mu     sync.Mutex
}

// NewJSONLBackend creates a backend storing files under dir.
func NewJSONLBackend(dir string, logger *log.Logger) *JSONLBackend {
	return &JSONLBackend{dir: dir, logger: logger}
}

// Name returns the backend name.
func (b *JSONLBackend) Name() string {
	return BackendJSONL
}

// Append writes the entry to the file for its UTC day.
func (b *JSONLBackend) Append(ctx context.Context, e Entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	path := filepath.Join(b.dir, dayFile(e.Timestamp))
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", path, err)
	}

	if _, err := file.Write(append(data, '\n')); err != nil {
		file.Close()
		return fmt.Errorf("failed to write to file %s: %w", path, err)
	}

	return file.Close()
}

// Query scans the day files overlapping the filter range and returns matching
// entries in chronological order.
func (b *JSONLBackend) Query(ctx context.Context, f Filter) ([]Entry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	days, err := b.dayFiles()
	if err != nil {
		return nil, err
	}

	var out []Entry
	for day, name := range days {
		if !f.Since.IsZero() && !day.Add(24*time.Hour).After(f.Since) {
			continue
		}
		if !f.Until.IsZero() && day.After(f.Until) {
			continue
		}

		entries, err := b.readFile(filepath.Join(b.dir, name))
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
				continue
			}
			if !f.Until.IsZero() && e.Timestamp.After(f.Until) {
				continue
			}
			if f.Action != "" && e.Action != f.Action {
				continue
			}
			out = append(out, e)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[len(out)-f.Limit:]
	}
	return out, nil
}

// Prune deletes whole day files older than the UTC day of olderThan and
// returns how many were removed. The file for the cutoff day itself is kept
// because it can still hold entries inside the retention window.
func (b *JSONLBackend) Prune(ctx context.Context, olderThan time.Time) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	days, err := b.dayFiles()
	if err != nil {
		return 0, err
	}

	cutoff := olderThan.UTC().Truncate(24 * time.Hour)
	deleted := 0
	for day, name := range days {
		if !day.Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(b.dir, name)); err != nil {
			return deleted, fmt.Errorf("failed to remove %s: %w", name, err)
		}
		deleted++
	}
	return deleted, nil
}

// Clear removes every day file and returns how many were deleted.
func (b *JSONLBackend) Clear(ctx context.Context) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	days, err := b.dayFiles()
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, name := range days {
		if err := os.Remove(filepath.Join(b.dir, name)); err != nil {
			return deleted, fmt.Errorf("failed to remove %s: %w", name, err)
		}
		deleted++
	}
	return deleted, nil
}

// Size returns the total size in bytes of all day files.
func (b *JSONLBackend) Size() (int64, error) {
	files, err := b.Files()
	if err != nil {
		return 0, err
	}

	var total int64
	for _, f := range files {
		total += f.Size
	}
	return total, nil
}

// Files lists the day files sorted by name, which for the YYYY-MM-DD naming
// is also chronological.
func (b *JSONLBackend) Files() ([]FileInfo, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read log directory %s: %w", b.dir, err)
	}

	var out []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), jsonlExt) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		out = append(out, FileInfo{Name: entry.Name(), Size: info.Size()})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Close is a no-op; files are opened per write.
func (b *JSONLBackend) Close() error {
	return nil
}

// dayFiles maps each parsable day file in the directory to its file name.
// Files that do not follow the YYYY-MM-DD.jsonl naming are ignored.
func (b *JSONLBackend) dayFiles() (map[time.Time]string, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read log directory %s: %w", b.dir, err)
	}

	out := make(map[time.Time]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), jsonlExt) {
			continue
		}
		day, err := time.ParseInLocation("2006-01-02", strings.TrimSuffix(entry.Name(), jsonlExt), time.UTC)
		if err != nil {
			continue
		}
		out[day] = entry.Name()
	}
	return out, nil
}

func (b *JSONLBackend) readFile(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()

	var out []Entry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			b.logger.Warnf("Skipping malformed log line in %s: %v", filepath.Base(path), err)
			continue
		}
		out = append(out, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return out, nil
}

func dayFile(t time.Time) string {
	return t.UTC().Format("2006-01-02") + jsonlExt
}
