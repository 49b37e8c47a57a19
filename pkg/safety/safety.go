package safety

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/ink1ing/rambooster/pkg/procs"
)

// Tier is the termination-risk classification of a process.
type Tier string

const (
	// Safe processes can be terminated without special confirmation
	Safe Tier = "safe"
	// Risky processes are likely in active use
	Risky Tier = "risky"
	// Dangerous processes may destabilize the system if terminated
	Dangerous Tier = "dangerous"
	// Forbidden processes are never terminated regardless of caller intent
	Forbidden Tier = "forbidden"
)

// Verdict carries the tier with a human-readable reason and any advisory
// warnings. Rendering and confirmation prompts are the caller's concern.
type Verdict struct {
	Tier     Tier
	Reason   string
	Warnings []string
}

// systemProcesses must never be terminated.
var systemProcesses = []string{
	"kernel_task",
	"launchd",
	"WindowServer",
	"loginwindow",
	"SystemUIServer",
	"Dock",
	"Finder",
	"Activity Monitor",
	"sudo",
	"su",
	"ssh",
	"sshd",
	"systemd",
	"init",
	"kthread",
	"migration",
	"rcu_gp",
	"rcu_par_gp",
	"watchdog",
	"systemd-logind",
	"systemd-networkd",
	"systemd-resolved",
}

// criticalKeywords flag names of processes that belong to OS subsystems.
// Matching is case-insensitive substring.
var criticalKeywords = []string{
	"kernel",
	"system",
	"apple",
	"security",
	"coreaudio",
	"bluetooth",
	"wifi",
}

var ownPid = int32(os.Getpid())

// Classify assigns a termination-risk tier to a process. The rule cascade is
// ordered and the first match wins: the denylist and low-PID/self rules take
// precedence over the frontmost rule.
func Classify(rec procs.ProcessRecord) Verdict {
	if slices.Contains(systemProcesses, rec.Name) {
		return Verdict{
			Tier:   Forbidden,
			Reason: fmt.Sprintf("system process %q must not be terminated", rec.Name),
		}
	}

	lowerName := strings.ToLower(rec.Name)
	for _, keyword := range criticalKeywords {
		if strings.Contains(lowerName, keyword) {
			return Verdict{
				Tier:   Dangerous,
				Reason: fmt.Sprintf("process %q matches critical keyword %q", rec.Name, keyword),
			}
		}
	}

	if rec.Pid == 0 {
		return Verdict{
			Tier:   Forbidden,
			Reason: "cannot terminate process with PID 0",
		}
	}

	if rec.Pid < 100 {
		return Verdict{
			Tier:     Dangerous,
			Reason:   fmt.Sprintf("low PID %d indicates a system process", rec.Pid),
			Warnings: []string{fmt.Sprintf("low PID %d suggests system process", rec.Pid)},
		}
	}

	if rec.Pid == ownPid {
		return Verdict{
			Tier:   Forbidden,
			Reason: "cannot terminate own process",
		}
	}

	if rec.IsFrontmost {
		return Verdict{
			Tier:     Risky,
			Reason:   "process is currently being used",
			Warnings: []string{"process is currently in the foreground"},
		}
	}

	verdict := Verdict{
		Tier:   Safe,
		Reason: "process appears safe to terminate",
	}
	if rec.RssMb > 1000 {
		verdict.Warnings = append(verdict.Warnings, fmt.Sprintf("high memory usage: %d MB", rec.RssMb))
	}
	return verdict
}

// FilterSafe keeps Safe-tier processes, keeps Risky only when allowRisky is
// set, and always drops Dangerous and Forbidden.
func FilterSafe(records []procs.ProcessRecord, allowRisky bool) []procs.ProcessRecord {
	var kept []procs.ProcessRecord
	for _, rec := range records {
		switch Classify(rec).Tier {
		case Safe:
			kept = append(kept, rec)
		case Risky:
			if allowRisky {
				kept = append(kept, rec)
			}
		}
	}
	return kept
}
