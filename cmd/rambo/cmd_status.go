package main

import (
	"context"
	"fmt"

	"github.com/ink1ing/rambooster/pkg/memstats"
	"github.com/ink1ing/rambooster/pkg/procs"
	"github.com/spf13/cobra"
)

type statusReport struct {
	Memory    memstats.MemSnapshot  `json:"memory"`
	Processes []procs.ProcessRecord `json:"processes"`
}

func runStatus(cmd *cobra.Command, args []string) {
	a := newAgent()
	defer a.Close()
	ctx := context.Background()

	snap, err := a.Provider.Read(ctx)
	if err != nil {
		fatal(err)
	}
	top := procs.TopByRSS(a.Inventory.List(ctx), statusTop)

	if statusJSON {
		printJSON(statusReport{Memory: snap, Processes: top})
		return
	}
	printSnapshot(snap)
	fmt.Printf("\n--- Top %d Processes by Memory ---\n", len(top))
	printProcessTable(top)
}
