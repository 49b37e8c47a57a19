package memstats

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// parseVMStatCompressed extracts the compressor pool size in bytes from
// vm_stat output: the "Pages occupied by compressor" row times the page
// size the header reports.
func parseVMStatCompressed(out []byte) (uint64, error) {
	var pageSize, compressorPages uint64

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()

		// Header: "Mach Virtual Memory Statistics: (page size of 16384 bytes)"
		if strings.Contains(line, "page size of") {
			fields := strings.Fields(line)
			for i, f := range fields {
				if f == "of" && i+1 < len(fields) {
					if v, err := strconv.ParseUint(fields[i+1], 10, 64); err == nil {
						pageSize = v
					}
				}
			}
			continue
		}

		if strings.HasPrefix(line, "Pages occupied by compressor:") {
			value := strings.TrimSpace(strings.TrimPrefix(line, "Pages occupied by compressor:"))
			value = strings.TrimSuffix(value, ".")
			v, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				return 0, fmt.Errorf("parse compressor pages %q: %w", value, err)
			}
			compressorPages = v
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}

	if pageSize == 0 {
		return 0, fmt.Errorf("vm_stat output missing page size")
	}
	return compressorPages * pageSize, nil
}
