package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ink1ing/rambooster/pkg/eventlog"
	"github.com/ink1ing/rambooster/pkg/hotkey"
	"github.com/spf13/cobra"
)

func runHotkey(cmd *cobra.Command, args []string) {
	a := newAgent()
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		a.Logger.Infof("Received %s, shutting down", sig)
		cancel()
	}()

	listener := hotkey.NewNoopListener(a.Logger)
	if listener.Supported() {
		fmt.Printf("Listening for %s. Press Ctrl+C to stop.\n", hotkey.DefaultBinding)
	} else {
		fmt.Printf("Global hotkey capture is not available in this build; %s stays inactive.\n", hotkey.DefaultBinding)
	}

	fire := func() {
		result, err := a.Executor.Boost(ctx)
		if err != nil {
			a.Logger.Errorf("Hotkey boost failed: %v", err)
			return
		}
		a.Gate.Record(time.Now())
		appendEntry(ctx, a, eventlog.Entry{
			Timestamp: time.Now(),
			Action:    eventlog.ActionManualBoost,
			Before:    &result.Before,
			After:     &result.After,
			DeltaMb:   result.DeltaMb,
			Pressure:  result.Before.Pressure,
			Details:   map[string]any{"trigger": "hotkey"},
		})
		a.Logger.Infof("Hotkey boost freed %d MB", result.DeltaMb)
	}

	if err := listener.Run(ctx, fire); err != nil && !errors.Is(err, context.Canceled) {
		fatal(err)
	}
}
