package procs

import (
	"context"
	"sort"

	"github.com/shirou/gopsutil/v4/process"
	log "github.com/sirupsen/logrus"
)

// ProcessRecord is one enumerated process. Records are rebuilt from scratch
// on every refresh; there is no identity tracking across calls.
type ProcessRecord struct {
	Pid         int32   `json:"pid"`
	Name        string  `json:"name"`
	Cmd         string  `json:"cmd"`
	RssMb       uint64  `json:"rss_mb"`
	CPUPercent  float64 `json:"cpu_percent"`
	IsFrontmost bool    `json:"is_frontmost"`
}

// Inventory enumerates running processes with their memory, CPU and
// foreground attributes.
type Inventory struct {
	logger *log.Logger

	// swappable for tests
	processes   func(ctx context.Context) ([]*process.Process, error)
	frontmostFn func(ctx context.Context) int32
}

// NewInventory creates a process inventory.
func NewInventory(logger *log.Logger) *Inventory {
	return &Inventory{
		logger:      logger,
		processes:   process.ProcessesWithContext,
		frontmostFn: frontmostPid,
	}
}

// List returns a full refresh of the process table. At most one record is
// tagged frontmost. An unreadable table is a soft failure: the result is
// empty, not an error, and callers must tolerate emptiness.
func (inv *Inventory) List(ctx context.Context) []ProcessRecord {
	procs, err := inv.processes(ctx)
	if err != nil {
		inv.logger.Warnf("process table unreadable: %v", err)
		return nil
	}

	frontmost := inv.frontmostFn(ctx)

	records := make([]ProcessRecord, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			// Process exited between enumeration and inspection
			continue
		}

		rec := ProcessRecord{
			Pid:         p.Pid,
			Name:        name,
			IsFrontmost: frontmost != 0 && p.Pid == frontmost,
		}

		if cmd, err := p.CmdlineWithContext(ctx); err == nil {
			rec.Cmd = cmd
		}
		if memInfo, err := p.MemoryInfoWithContext(ctx); err == nil && memInfo != nil {
			rec.RssMb = memInfo.RSS / bytesPerMb
		}
		if cpu, err := p.CPUPercentWithContext(ctx); err == nil {
			rec.CPUPercent = cpu
		}

		records = append(records, rec)
	}

	return records
}

const bytesPerMb = 1024 * 1024

// TopByRSS returns the n records with the greatest RSS. The sort is stable
// with an ascending-pid tie break, so equal-RSS inputs order
// deterministically.
func TopByRSS(records []ProcessRecord, n int) []ProcessRecord {
	if n <= 0 {
		return nil
	}

	sorted := make([]ProcessRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].RssMb != sorted[j].RssMb {
			return sorted[i].RssMb > sorted[j].RssMb
		}
		return sorted[i].Pid < sorted[j].Pid
	})

	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}
