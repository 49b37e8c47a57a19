package main

import (
	"context"
	"time"

	"github.com/ink1ing/rambooster/pkg/agent"
	"github.com/ink1ing/rambooster/pkg/escalate"
	"github.com/ink1ing/rambooster/pkg/eventlog"
	"github.com/ink1ing/rambooster/pkg/orchestrator"
	"github.com/ink1ing/rambooster/pkg/remedy"
	"github.com/ink1ing/rambooster/pkg/tui"
	"github.com/spf13/cobra"
)

func runTui(cmd *cobra.Command, args []string) {
	a := newAgent()
	defer a.Close()
	ctx := context.Background()

	session := tui.Session{
		Booster:           loggingBooster{agent: a},
		Lister:            a.Inventory,
		RssThresholdMb:    a.Config.RssThresholdMb,
		EnableTermination: a.Config.EnableTermination,
		AllowRisky:        a.Config.AllowRisky,
		Targets:           a.Config.Targets,
		Protected:         a.Config.Protected,
	}
	if a.Config.EnableTermination {
		session.Sweeper = orchestrator.NewTerminationSweep(
			agent.InventoryLister{Inventory: a.Inventory},
			a.Executor,
			a.Log,
			a.Logger,
			orchestrator.SweepConfig{
				RssThresholdMb: a.Config.RssThresholdMb,
				MaxTargets:     3,
				AllowRisky:     a.Config.AllowRisky,
				Targets:        a.Config.Targets,
				Protected:      a.Config.Protected,
			},
		)
		session.Escalator = loggingEscalator{agent: a}
	}

	if err := tui.Run(ctx, session); err != nil {
		fatal(err)
	}
}

// loggingBooster records each interactive boost in the event log so TUI
// sessions show up in 'rambo log show' like CLI boosts do.
type loggingBooster struct {
	agent *agent.Agent
}

func (b loggingBooster) Boost(ctx context.Context) (remedy.RemediationResult, error) {
	result, err := b.agent.Executor.Boost(ctx)
	if err != nil {
		return result, err
	}
	b.agent.Gate.Record(time.Now())
	appendEntry(ctx, b.agent, eventlog.Entry{
		Timestamp: time.Now(),
		Action:    eventlog.ActionManualBoost,
		Before:    &result.Before,
		After:     &result.After,
		DeltaMb:   result.DeltaMb,
		Pressure:  result.Before.Pressure,
		Details:   map[string]any{"trigger": "tui"},
	})
	return result, nil
}

type loggingEscalator struct {
	agent *agent.Agent
}

func (e loggingEscalator) Run(ctx context.Context, script []escalate.Stage) (escalate.Outcome, error) {
	outcome, err := newEscalator(e.agent).Run(ctx, script)
	if err != nil {
		return outcome, err
	}
	e.agent.Gate.Record(time.Now())
	appendEntry(ctx, e.agent, eventlog.Entry{
		Timestamp: time.Now(),
		Action:    eventlog.ActionAggressiveBoost,
		DeltaMb:   outcome.TotalDeltaMb,
		Details: map[string]any{
			"trigger":    "tui",
			"terminated": outcome.Terminated,
			"attempted":  outcome.Attempted,
		},
	})
	return outcome, nil
}
