// Package candidates filters a process inventory into actionable reclaim
// targets. The filter is a coarse threshold/allow/deny gate, deliberately
// separate from safety classification: callers classify the survivors and
// drop Dangerous/Forbidden (Risky only under explicit opt-in) afterwards.
package candidates

import (
	"slices"

	"github.com/ink1ing/rambooster/pkg/procs"
)

// Select returns the records that qualify for remediation: RSS at or above
// the threshold, not frontmost, not denied, and when the allowlist is
// non-empty, a member of it.
func Select(inventory []procs.ProcessRecord, rssThresholdMb uint64, allow, deny []string) []procs.ProcessRecord {
	var selected []procs.ProcessRecord
	for _, rec := range inventory {
		if rec.RssMb < rssThresholdMb {
			continue
		}
		if rec.IsFrontmost {
			continue
		}
		if slices.Contains(deny, rec.Name) {
			continue
		}
		if len(allow) > 0 && !slices.Contains(allow, rec.Name) {
			continue
		}
		selected = append(selected, rec)
	}
	return selected
}
