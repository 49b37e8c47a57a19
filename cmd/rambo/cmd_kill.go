package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ink1ing/rambooster/pkg/eventlog"
	"github.com/ink1ing/rambooster/pkg/procs"
	"github.com/ink1ing/rambooster/pkg/safety"
	"github.com/spf13/cobra"
)

// killRuling is the confirmation path a safety verdict demands.
type killRuling int

const (
	killRefused killRuling = iota
	killNeedsPrompt
	killProceed
)

// killPolicy decides how a kill request may proceed. Forbidden processes
// are refused no matter which flags are set. Dangerous processes require
// both --force and --yes so the intent is stated twice. Everything else
// prompts unless --yes was given.
func killPolicy(tier safety.Tier, force, yes bool) killRuling {
	switch tier {
	case safety.Forbidden:
		return killRefused
	case safety.Dangerous:
		if force && yes {
			return killProceed
		}
		return killRefused
	default:
		if yes {
			return killProceed
		}
		return killNeedsPrompt
	}
}

func runKill(cmd *cobra.Command, args []string) {
	pid64, err := strconv.ParseInt(args[0], 10, 32)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid PID %q\n", args[0])
		os.Exit(1)
	}
	pid := int32(pid64)

	a := newAgent()
	defer a.Close()
	ctx := context.Background()

	if !a.Config.EnableTermination {
		fmt.Fprintln(os.Stderr, "Process termination is disabled; set enable_termination: true to use kill.")
		os.Exit(1)
	}

	rec, ok := findProcess(a.Inventory.List(ctx), pid)
	if !ok {
		fmt.Fprintf(os.Stderr, "Process with PID %d not found.\n", pid)
		os.Exit(1)
	}

	verdict := safety.Classify(rec)
	fmt.Printf("Process: %s (PID %d)\n", rec.Name, rec.Pid)
	fmt.Printf("Memory:  %d MB\n", rec.RssMb)
	fmt.Printf("Tier:    %s\n", verdict.Tier)
	fmt.Printf("Reason:  %s\n", verdict.Reason)
	for _, w := range verdict.Warnings {
		fmt.Printf("  - %s\n", w)
	}

	switch killPolicy(verdict.Tier, killForce, killYes) {
	case killRefused:
		if verdict.Tier == safety.Forbidden {
			fmt.Fprintln(os.Stderr, "\nRefusing to terminate a forbidden process.")
		} else {
			fmt.Fprintln(os.Stderr, "\nTerminating a dangerous process requires both --force and --yes.")
		}
		os.Exit(1)
	case killNeedsPrompt:
		if !confirm(os.Stdin, fmt.Sprintf("\nTerminate %s?", rec.Name)) {
			fmt.Println("Aborted.")
			return
		}
	}

	if !a.Executor.Terminate(ctx, pid, killForce) {
		fmt.Fprintf(os.Stderr, "Failed to terminate %s (PID %d).\n", rec.Name, pid)
		os.Exit(1)
	}
	appendEntry(ctx, a, eventlog.Entry{
		Timestamp: time.Now(),
		Action:    eventlog.ActionKill,
		Details: map[string]any{
			"pid":     rec.Pid,
			"name":    rec.Name,
			"rss_mb":  rec.RssMb,
			"tier":    string(verdict.Tier),
			"trigger": "cli",
		},
	})
	fmt.Printf("Terminated %s (PID %d), releasing about %d MB.\n", rec.Name, pid, rec.RssMb)
}

func findProcess(records []procs.ProcessRecord, pid int32) (procs.ProcessRecord, bool) {
	for _, rec := range records {
		if rec.Pid == pid {
			return rec, true
		}
	}
	return procs.ProcessRecord{}, false
}
