// Package agent wires configuration, logging, and the remediation stack into
// the one assembly the CLI and the daemon share.
package agent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path"
	"runtime"
	"syscall"
	"time"

	"github.com/ink1ing/rambooster/pkg/config"
	"github.com/ink1ing/rambooster/pkg/eventlog"
	"github.com/ink1ing/rambooster/pkg/memstats"
	"github.com/ink1ing/rambooster/pkg/monitor"
	"github.com/ink1ing/rambooster/pkg/orchestrator"
	"github.com/ink1ing/rambooster/pkg/procs"
	"github.com/ink1ing/rambooster/pkg/remedy"
	"github.com/ink1ing/rambooster/pkg/throttle"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// daemonSweepTargets caps how many processes one automatic sweep may kill.
const daemonSweepTargets = 3

type Agent struct {
	Logger    *log.Logger
	Config    config.Config
	Provider  *memstats.Provider
	Inventory *procs.Inventory
	Executor  *remedy.Executor
	Gate      *throttle.Gate
	Log       eventlog.Backend
	// Time the agent started
	StartTime string
}

// CreateAgent loads the configuration from viper and assembles the full
// stack, including the event log backend.
func CreateAgent() (*Agent, error) {
	logger := log.New()
	logger.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
		CallerPrettyfier: func(f *runtime.Frame) (string, string) {
			filename := path.Base(f.File)
			return "", fmt.Sprintf(" %s:%d", filename, f.Line)
		},
	})
	logger.SetReportCaller(true)

	cfg, err := config.ConfigFromViper(nil)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if viper.GetBool("debug") || cfg.Debug {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.InfoLevel)
	}

	strategy, err := memstats.StrategyByName(cfg.PressureStrategy)
	if err != nil {
		return nil, err
	}

	logDir, err := cfg.ExpandedLogDir()
	if err != nil {
		return nil, err
	}
	backend, err := eventlog.Open(cfg.LogBackend, logDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}

	provider := memstats.NewProvider(strategy, logger)
	return &Agent{
		Logger:    logger,
		Config:    cfg,
		Provider:  provider,
		Inventory: procs.NewInventory(logger),
		Executor:  remedy.NewExecutor(provider, remedy.NewSystemPurger(logger), logger),
		Gate:      throttle.NewGate(),
		Log:       backend,
		StartTime: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// Close releases the event log backend.
func (a *Agent) Close() error {
	return a.Log.Close()
}

// InventoryLister adapts the soft-failing inventory to the fallible lister
// contract the sweep and escalation procedures accept.
type InventoryLister struct {
	Inventory *procs.Inventory
}

func (l InventoryLister) List(ctx context.Context) ([]procs.ProcessRecord, error) {
	return l.Inventory.List(ctx), nil
}

// RunDaemon runs the pressure monitor and the orchestrator until the context
// is canceled or a termination signal arrives. A signal shutdown returns nil.
func (a *Agent) RunDaemon(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			a.Logger.Infof("Received %s, shutting down", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	defer func() {
		if err := a.Log.Close(); err != nil {
			a.Logger.Warnf("Failed to close event log: %v", err)
		}
	}()

	var sweeper orchestrator.Sweeper
	if a.Config.EnableTermination {
		sweeper = orchestrator.NewTerminationSweep(
			InventoryLister{Inventory: a.Inventory},
			a.Executor,
			a.Log,
			a.Logger,
			orchestrator.SweepConfig{
				RssThresholdMb: a.Config.RssThresholdMb,
				MaxTargets:     daemonSweepTargets,
				AllowRisky:     a.Config.AllowRisky,
				Targets:        a.Config.Targets,
				Protected:      a.Config.Protected,
			},
		)
	}

	mon := monitor.New(a.Provider, a.Config.ThrottleInterval(), a.Logger)
	orch := orchestrator.New(a.Executor, a.Gate, a.Log, a.Logger, orchestrator.Config{
		ThrottleInterval: a.Config.ThrottleInterval(),
		Sweeper:          sweeper,
	})

	a.Logger.Infof("Daemon starting: strategy=%s throttle=%s poll=%s log=%s",
		a.Config.PressureStrategy, a.Config.ThrottleInterval(), a.Config.PollInterval(), a.Log.Name())

	events := make(chan monitor.PressureEvent, 1)
	monErr := make(chan error, 1)
	go func() {
		monErr <- mon.Run(ctx, events)
	}()

	err := orch.Run(ctx, events)
	<-monErr

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
