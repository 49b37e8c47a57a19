package memstats

import "fmt"

// BytesPerMb is the conversion factor between raw byte counters and MB values.
const BytesPerMb = 1024 * 1024

// PressureLevel is a qualitative classification of memory scarcity
type PressureLevel string

const (
	// Normal means no remediation is warranted
	Normal PressureLevel = "normal"
	// Warning means memory is getting scarce and a remediation may help
	Warning PressureLevel = "warning"
	// Critical means the system is close to exhausting reclaimable memory
	Critical PressureLevel = "critical"
)

// MemSnapshot is an immutable view of the host memory counters at one read
// instant, converted to MB. It carries no identity beyond the read itself.
type MemSnapshot struct {
	TotalMb      uint64        `json:"total_mb"`
	FreeMb       uint64        `json:"free_mb"`
	ActiveMb     uint64        `json:"active_mb"`
	InactiveMb   uint64        `json:"inactive_mb"`
	WiredMb      uint64        `json:"wired_mb"`
	CompressedMb uint64        `json:"compressed_mb"`
	Pressure     PressureLevel `json:"pressure"`
}

// DeriveStrategy derives a pressure level from a snapshot's counters.
// Strategies must be pure: identical counter fields yield identical levels.
type DeriveStrategy func(s MemSnapshot) PressureLevel

// DeriveFull classifies pressure from free, inactive and compressed memory.
// Inactive pages are counted as available since the kernel reclaims them
// on demand; a growing compressor footprint is an early scarcity signal.
func DeriveFull(s MemSnapshot) PressureLevel {
	if s.TotalMb == 0 {
		return Normal
	}

	availableRatio := float64(s.FreeMb+s.InactiveMb) / float64(s.TotalMb)
	compressedRatio := float64(s.CompressedMb) / float64(s.TotalMb)

	switch {
	case availableRatio < 0.05 || compressedRatio > 0.30:
		return Critical
	case availableRatio < 0.15 || compressedRatio > 0.20:
		return Warning
	default:
		return Normal
	}
}

// DeriveFreeOnly classifies pressure from the free/total ratio alone, for
// platforms that do not report inactive or compressor counters.
func DeriveFreeOnly(s MemSnapshot) PressureLevel {
	if s.TotalMb == 0 {
		return Normal
	}

	freeRatio := float64(s.FreeMb) / float64(s.TotalMb)

	switch {
	case freeRatio < 0.05:
		return Critical
	case freeRatio < 0.15:
		return Warning
	default:
		return Normal
	}
}

// StrategyByName resolves a configured strategy name.
func StrategyByName(name string) (DeriveStrategy, error) {
	switch name {
	case "", "full":
		return DeriveFull, nil
	case "free_only":
		return DeriveFreeOnly, nil
	default:
		return nil, fmt.Errorf("unknown pressure strategy %q", name)
	}
}

// StatsError reports a failed memory counter read. The read that produced it
// is lost, but the process keeps running; callers retry on their next cycle.
type StatsError struct {
	Err error
}

func (e *StatsError) Error() string {
	return fmt.Sprintf("failed to read memory counters: %v", e.Err)
}

func (e *StatsError) Unwrap() error {
	return e.Err
}
