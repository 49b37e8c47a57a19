package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ink1ing/rambooster/pkg/eventlog"
	"github.com/spf13/cobra"
)

func runLogShow(cmd *cobra.Command, args []string) {
	dur, err := time.ParseDuration(logSince)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid --since duration %q\n", logSince)
		os.Exit(1)
	}

	a := newAgent()
	defer a.Close()

	entries, err := a.Log.Query(context.Background(), eventlog.Filter{
		Since:  time.Now().Add(-dur),
		Action: logAction,
		Limit:  logLimit,
	})
	if err != nil {
		fatal(err)
	}
	if len(entries) == 0 {
		fmt.Println("No log entries found.")
		return
	}
	for _, e := range entries {
		printEntry(e)
	}
}

func printEntry(e eventlog.Entry) {
	fmt.Printf("[%s] Action: %s\n", e.Timestamp.Format(time.RFC3339), e.Action)
	if e.DeltaMb != 0 {
		fmt.Printf("  Delta: %d MB\n", e.DeltaMb)
	}
	if e.Pressure != "" {
		fmt.Printf("  Pressure: %s\n", e.Pressure)
	}
	if len(e.Details) > 0 {
		if details, err := json.Marshal(e.Details); err == nil {
			fmt.Printf("  Details: %s\n", details)
		}
	}
}

func runLogPrune(cmd *cobra.Command, args []string) {
	a := newAgent()
	defer a.Close()

	cutoff := time.Now().AddDate(0, 0, -a.Config.LogRetentionDays)
	n, err := a.Log.Prune(context.Background(), cutoff)
	if err != nil {
		fatal(err)
	}
	if n == 0 {
		fmt.Println("No old log entries to clean up.")
		return
	}
	fmt.Printf("Pruned entries older than %d days (%d removed).\n", a.Config.LogRetentionDays, n)
}

func runLogClear(cmd *cobra.Command, args []string) {
	a := newAgent()
	defer a.Close()

	if !clearYes && !confirm(os.Stdin, "Delete all event log entries?") {
		fmt.Println("Aborted.")
		return
	}
	n, err := a.Log.Clear(context.Background())
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Cleared the event log (%d removed).\n", n)
}

func runLogPath(cmd *cobra.Command, args []string) {
	a := newAgent()
	defer a.Close()

	dir, err := a.Config.ExpandedLogDir()
	if err != nil {
		fatal(err)
	}
	fmt.Println(dir)
}

func runLogSize(cmd *cobra.Command, args []string) {
	a := newAgent()
	defer a.Close()

	size, err := a.Log.Size()
	if err != nil {
		fatal(err)
	}
	files, err := a.Log.Files()
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Backend: %s\n", a.Log.Name())
	fmt.Printf("Total:   %.1f KB in %d files\n", float64(size)/1024, len(files))
	for _, f := range files {
		fmt.Printf("  %s (%.1f KB)\n", f.Name, float64(f.Size)/1024)
	}
}
