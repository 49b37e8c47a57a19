//go:build !darwin

package memstats

import "context"

// readCompressedBytes is a no-op on platforms without a memory compressor
// counter; callers fall back to the free-only derivation strategy.
func readCompressedBytes(ctx context.Context) (uint64, error) {
	return 0, nil
}
