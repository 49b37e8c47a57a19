package memstats

import (
	"context"
	"errors"
	"testing"

	"github.com/shirou/gopsutil/v4/mem"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(total, free, inactive, compressed uint64) MemSnapshot {
	return MemSnapshot{
		TotalMb:      total,
		FreeMb:       free,
		InactiveMb:   inactive,
		CompressedMb: compressed,
	}
}

func TestDeriveFull(t *testing.T) {
	tests := []struct {
		name     string
		snap     MemSnapshot
		expected PressureLevel
	}{
		{
			name:     "plenty of memory",
			snap:     snapshot(16384, 4000, 1000, 1000),
			expected: Normal,
		},
		{
			name:     "low available memory",
			snap:     snapshot(16384, 1000, 1000, 1000),
			expected: Warning,
		},
		{
			name:     "nearly exhausted",
			snap:     snapshot(16384, 500, 100, 1000),
			expected: Critical,
		},
		{
			name:     "heavy compressor use",
			snap:     snapshot(16384, 4000, 1000, 5000),
			expected: Critical,
		},
		{
			name:     "moderate compressor use",
			snap:     snapshot(16384, 4000, 1000, 3500),
			expected: Warning,
		},
		{
			name:     "zero total",
			snap:     snapshot(0, 0, 0, 0),
			expected: Normal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeriveFull(tt.snap))
		})
	}
}

func TestDeriveFullIsPure(t *testing.T) {
	snap := snapshot(16384, 1000, 1000, 1000)
	first := DeriveFull(snap)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, DeriveFull(snap))
	}
}

func TestDeriveFreeOnly(t *testing.T) {
	tests := []struct {
		name     string
		snap     MemSnapshot
		expected PressureLevel
	}{
		{name: "plenty free", snap: snapshot(16384, 8000, 0, 0), expected: Normal},
		{name: "below 15 percent", snap: snapshot(16384, 2000, 0, 0), expected: Warning},
		{name: "below 5 percent", snap: snapshot(16384, 500, 0, 0), expected: Critical},
		{name: "zero total", snap: snapshot(0, 0, 0, 0), expected: Normal},
		{name: "inactive is ignored", snap: snapshot(16384, 500, 8000, 0), expected: Critical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeriveFreeOnly(tt.snap))
		})
	}
}

func TestStrategyByName(t *testing.T) {
	s, err := StrategyByName("full")
	require.NoError(t, err)
	assert.Equal(t, Critical, s(snapshot(16384, 4000, 1000, 5000)))

	s, err = StrategyByName("free_only")
	require.NoError(t, err)
	assert.Equal(t, Normal, s(snapshot(16384, 4000, 1000, 5000)))

	s, err = StrategyByName("")
	require.NoError(t, err)
	assert.NotNil(t, s)

	_, err = StrategyByName("bogus")
	assert.Error(t, err)
}

func TestParseVMStatCompressed(t *testing.T) {
	out := []byte(`Mach Virtual Memory Statistics: (page size of 16384 bytes)
Pages free:                               53421.
Pages active:                            312480.
Pages inactive:                          298101.
Pages speculative:                         4120.
Pages throttled:                              0.
Pages wired down:                        140030.
Pages purgeable:                           8112.
"Translation faults":                 930122001.
Pages occupied by compressor:            123456.
Pages used by VM compressor:              45678.
`)

	got, err := parseVMStatCompressed(out)
	require.NoError(t, err)
	assert.Equal(t, uint64(123456*16384), got)
}

func TestParseVMStatCompressedMissingPageSize(t *testing.T) {
	_, err := parseVMStatCompressed([]byte("Pages occupied by compressor: 10.\n"))
	assert.Error(t, err)
}

func TestProviderRead(t *testing.T) {
	logger := logrus.New()
	mb := uint64(BytesPerMb)

	t.Run("fills snapshot and derives pressure", func(t *testing.T) {
		p := NewProvider(DeriveFull, logger)
		p.virtualMemory = func(ctx context.Context) (*mem.VirtualMemoryStat, error) {
			return &mem.VirtualMemoryStat{
				Total:    16384 * mb,
				Free:     4000 * mb,
				Active:   6000 * mb,
				Inactive: 1000 * mb,
				Wired:    2000 * mb,
			}, nil
		}
		p.compressedRead = func(ctx context.Context) (uint64, error) {
			return 1000 * mb, nil
		}

		snap, err := p.Read(context.Background())
		require.NoError(t, err)
		assert.Equal(t, uint64(16384), snap.TotalMb)
		assert.Equal(t, uint64(4000), snap.FreeMb)
		assert.Equal(t, uint64(1000), snap.CompressedMb)
		assert.Equal(t, Normal, snap.Pressure)
	})

	t.Run("counter failure returns StatsError", func(t *testing.T) {
		p := NewProvider(DeriveFull, logger)
		p.virtualMemory = func(ctx context.Context) (*mem.VirtualMemoryStat, error) {
			return nil, errors.New("host_statistics failed")
		}

		_, err := p.Read(context.Background())
		require.Error(t, err)
		var statsErr *StatsError
		assert.ErrorAs(t, err, &statsErr)
	})

	t.Run("compressor failure degrades to zero", func(t *testing.T) {
		p := NewProvider(DeriveFull, logger)
		p.virtualMemory = func(ctx context.Context) (*mem.VirtualMemoryStat, error) {
			return &mem.VirtualMemoryStat{Total: 16384 * mb, Free: 4000 * mb, Inactive: 1000 * mb}, nil
		}
		p.compressedRead = func(ctx context.Context) (uint64, error) {
			return 0, errors.New("not supported")
		}

		snap, err := p.Read(context.Background())
		require.NoError(t, err)
		assert.Equal(t, uint64(0), snap.CompressedMb)
		assert.Equal(t, Normal, snap.Pressure)
	})
}
