package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/ink1ing/rambooster/pkg/candidates"
	"github.com/ink1ing/rambooster/pkg/procs"
	"github.com/ink1ing/rambooster/pkg/safety"
	"github.com/spf13/cobra"
)

// suggestion is a termination candidate annotated with its safety verdict.
type suggestion struct {
	procs.ProcessRecord
	Tier   safety.Tier `json:"tier"`
	Reason string      `json:"reason"`
}

func buildSuggestions(records []procs.ProcessRecord, thresholdMb uint64, targets, protected []string) []suggestion {
	selected := candidates.Select(records, thresholdMb, targets, protected)
	ranked := procs.TopByRSS(selected, len(selected))
	out := make([]suggestion, 0, len(ranked))
	for _, rec := range ranked {
		verdict := safety.Classify(rec)
		out = append(out, suggestion{ProcessRecord: rec, Tier: verdict.Tier, Reason: verdict.Reason})
	}
	return out
}

func runSuggest(cmd *cobra.Command, args []string) {
	a := newAgent()
	defer a.Close()
	ctx := context.Background()

	threshold := a.Config.RssThresholdMb
	if cmd.Flags().Changed("threshold") {
		threshold = suggestThreshold
	}

	all := buildSuggestions(a.Inventory.List(ctx), threshold, a.Config.Targets, a.Config.Protected)
	if suggestTop > 0 && len(all) > suggestTop {
		all = all[:suggestTop]
	}

	if suggestJSON {
		printJSON(all)
		return
	}
	if len(all) == 0 {
		fmt.Println("No candidate processes found to terminate.")
		return
	}
	fmt.Printf("Processes above %d MB, largest first:\n\n", threshold)
	fmt.Printf("%-6s %-25s %10s  %-9s %s\n", "PID", "Name", "RSS (MB)", "Tier", "Reason")
	fmt.Printf("%-6s %-25s %10s  %-9s %s\n", strings.Repeat("-", 6), strings.Repeat("-", 25), strings.Repeat("-", 10), strings.Repeat("-", 9), strings.Repeat("-", 24))
	for _, s := range all {
		fmt.Printf("%-6d %-25s %10d  %-9s %s\n", s.Pid, truncateName(s.Name), s.RssMb, s.Tier, s.Reason)
	}
	fmt.Println("\nOnly the safe tier is eligible for automatic termination.")
}
