package memstats

import (
	"context"

	"github.com/shirou/gopsutil/v4/mem"
	log "github.com/sirupsen/logrus"
)

// Provider reads host memory counters and derives a pressure level.
// Reads are side-effect free and cheap enough for sub-5-second polling.
type Provider struct {
	strategy DeriveStrategy
	logger   *log.Logger

	// swappable for tests
	virtualMemory  func(ctx context.Context) (*mem.VirtualMemoryStat, error)
	compressedRead func(ctx context.Context) (uint64, error)
}

// NewProvider creates a provider using the given derivation strategy.
func NewProvider(strategy DeriveStrategy, logger *log.Logger) *Provider {
	return &Provider{
		strategy:       strategy,
		logger:         logger,
		virtualMemory:  mem.VirtualMemoryWithContext,
		compressedRead: readCompressedBytes,
	}
}

// Read returns a snapshot of the current memory counters with the derived
// pressure level filled in. A failed counter query returns a StatsError.
func (p *Provider) Read(ctx context.Context) (MemSnapshot, error) {
	vm, err := p.virtualMemory(ctx)
	if err != nil {
		return MemSnapshot{}, &StatsError{Err: err}
	}

	snap := MemSnapshot{
		TotalMb:    vm.Total / BytesPerMb,
		FreeMb:     vm.Free / BytesPerMb,
		ActiveMb:   vm.Active / BytesPerMb,
		InactiveMb: vm.Inactive / BytesPerMb,
		WiredMb:    vm.Wired / BytesPerMb,
	}

	// The compressor counter is not part of the portable counter set.
	// Missing or unreadable means zero, which the strategies tolerate.
	compressed, err := p.compressedRead(ctx)
	if err != nil {
		p.logger.Debugf("compressor counter unavailable: %v", err)
	} else {
		snap.CompressedMb = compressed / BytesPerMb
	}

	snap.Pressure = p.strategy(snap)
	return snap, nil
}
