package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ink1ing/rambooster/pkg/agent"
	"github.com/ink1ing/rambooster/pkg/escalate"
	"github.com/ink1ing/rambooster/pkg/eventlog"
	"github.com/spf13/cobra"
)

func runBoost(cmd *cobra.Command, args []string) {
	a := newAgent()
	defer a.Close()
	ctx := context.Background()

	// The throttle gate starts empty in each process. Seed it with the
	// newest boost in the event log so back-to-back invocations are still
	// throttled.
	if last := lastBoostTime(ctx, a.Log); !last.IsZero() {
		a.Gate.Record(last)
	}
	if !boostForce && !a.Gate.TryAcquire(time.Now(), a.Config.ThrottleInterval()) {
		since := time.Since(a.Gate.Last()).Round(time.Second)
		wait := (a.Config.ThrottleInterval() - time.Since(a.Gate.Last())).Round(time.Second)
		fmt.Fprintf(os.Stderr, "Boost throttled: last boost was %s ago. Retry in %s or rerun with --force.\n", since, wait)
		os.Exit(1)
	}

	a.Executor.RequestPermission = boostRequestPermission

	if boostAggressive {
		runAggressiveBoost(ctx, a)
		return
	}

	if !boostJSON {
		fmt.Println("Boosting memory... This may take a moment.")
	}
	result, err := a.Executor.Boost(ctx)
	if err != nil {
		fatal(err)
	}
	a.Gate.Record(time.Now())
	appendEntry(ctx, a, eventlog.Entry{
		Timestamp: time.Now(),
		Action:    eventlog.ActionManualBoost,
		Before:    &result.Before,
		After:     &result.After,
		DeltaMb:   result.DeltaMb,
		Pressure:  result.Before.Pressure,
		Details:   map[string]any{"trigger": "cli"},
	})

	if boostJSON {
		printJSON(result)
		return
	}
	fmt.Printf("Time taken: %.2fs\n", result.Duration.Seconds())
	if result.DeltaMb >= 0 {
		fmt.Printf("Memory freed: %d MB\n", result.DeltaMb)
	} else {
		fmt.Printf("Memory increased: %d MB\n", -result.DeltaMb)
	}
	fmt.Printf("\nBefore: %d MB free\n", result.Before.FreeMb)
	fmt.Printf("After:  %d MB free\n", result.After.FreeMb)
}

func runAggressiveBoost(ctx context.Context, a *agent.Agent) {
	if !a.Config.EnableTermination {
		fmt.Fprintln(os.Stderr, "Aggressive boost terminates processes; set enable_termination: true to use it.")
		os.Exit(1)
	}

	before, readErr := a.Provider.Read(ctx)

	if !boostJSON {
		fmt.Println("Running aggressive boost: purge, terminate, purge...")
	}
	outcome, err := newEscalator(a).Run(ctx, escalate.DefaultScript())
	if err != nil {
		fatal(err)
	}
	a.Gate.Record(time.Now())

	entry := eventlog.Entry{
		Timestamp: time.Now(),
		Action:    eventlog.ActionAggressiveBoost,
		DeltaMb:   outcome.TotalDeltaMb,
		Details: map[string]any{
			"trigger":    "cli",
			"terminated": outcome.Terminated,
			"attempted":  outcome.Attempted,
		},
	}
	if readErr == nil {
		entry.Before = &before
		entry.Pressure = before.Pressure
	}
	appendEntry(ctx, a, entry)

	if boostJSON {
		printJSON(outcome)
		return
	}
	fmt.Printf("Memory freed: %d MB\n", outcome.TotalDeltaMb)
	fmt.Printf("Terminated:   %d of %d processes\n", outcome.Terminated, outcome.Attempted)
}

// newEscalator builds the aggressive script interpreter over the shared
// assembly.
func newEscalator(a *agent.Agent) *escalate.Procedure {
	return escalate.New(a.Executor, agent.InventoryLister{Inventory: a.Inventory}, a.Executor, a.Logger, escalate.Config{
		AllowRisky: a.Config.AllowRisky,
		Targets:    a.Config.Targets,
		Protected:  a.Config.Protected,
	})
}

// lastBoostTime finds the most recent boost of any kind in the event log.
// A zero time means the log records none.
func lastBoostTime(ctx context.Context, backend eventlog.Backend) time.Time {
	var last time.Time
	actions := []string{eventlog.ActionManualBoost, eventlog.ActionAutoBoost, eventlog.ActionAggressiveBoost}
	for _, action := range actions {
		entries, err := backend.Query(ctx, eventlog.Filter{Action: action, Limit: 1})
		if err != nil || len(entries) == 0 {
			continue
		}
		if entries[0].Timestamp.After(last) {
			last = entries[0].Timestamp
		}
	}
	return last
}

// appendEntry records a remediation outcome. A logging failure is reported
// but never fails the remediation itself.
func appendEntry(ctx context.Context, a *agent.Agent, e eventlog.Entry) {
	if err := a.Log.Append(ctx, e); err != nil {
		a.Logger.Warnf("Failed to append event log entry: %v", err)
	}
}
