//go:build darwin

package memstats

import (
	"context"
	"fmt"
	"os/exec"
)

// readCompressedBytes reports the byte size of the memory compressor pool.
// vm_stat is the only unprivileged interface that exposes it.
func readCompressedBytes(ctx context.Context) (uint64, error) {
	out, err := exec.CommandContext(ctx, "vm_stat").Output()
	if err != nil {
		return 0, fmt.Errorf("vm_stat: %w", err)
	}
	return parseVMStatCompressed(out)
}
