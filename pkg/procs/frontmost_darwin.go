//go:build darwin

package procs

import (
	"context"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

var lsappinfoPidRe = regexp.MustCompile(`"?pid"?\s*=\s*(\d+)`)

// frontmostPid resolves the pid of the frontmost application via lsappinfo.
// Returns 0 when detection fails (headless session, sandbox, missing tool).
func frontmostPid(ctx context.Context) int32 {
	front, err := exec.CommandContext(ctx, "lsappinfo", "front").Output()
	if err != nil {
		return 0
	}
	asn := strings.TrimSpace(string(front))
	if asn == "" {
		return 0
	}

	info, err := exec.CommandContext(ctx, "lsappinfo", "info", "-only", "pid", asn).Output()
	if err != nil {
		return 0
	}

	m := lsappinfoPidRe.FindSubmatch(info)
	if m == nil {
		return 0
	}
	pid, err := strconv.ParseInt(string(m[1]), 10, 32)
	if err != nil {
		return 0
	}
	return int32(pid)
}
