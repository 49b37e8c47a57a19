package orchestrator

import (
	"context"
	"time"

	"github.com/ink1ing/rambooster/pkg/candidates"
	"github.com/ink1ing/rambooster/pkg/eventlog"
	"github.com/ink1ing/rambooster/pkg/memstats"
	"github.com/ink1ing/rambooster/pkg/procs"
	"github.com/ink1ing/rambooster/pkg/safety"
	log "github.com/sirupsen/logrus"
)

// ProcessLister enumerates running processes.
type ProcessLister interface {
	List(ctx context.Context) ([]procs.ProcessRecord, error)
}

// Terminator attempts to stop one process and reports whether it is
// confirmed gone.
type Terminator interface {
	Terminate(ctx context.Context, pid int32, force bool) bool
}

// SweepConfig bounds what a termination sweep may touch.
type SweepConfig struct {
	RssThresholdMb uint64
	MaxTargets     int
	AllowRisky     bool
	Targets        []string
	Protected      []string
}

// TerminationSweep kills the largest expendable processes after a boost.
// Kills are never forced here; anything that survives SIGTERM is left alone.
type TerminationSweep struct {
	lister  ProcessLister
	term    Terminator
	backend eventlog.Backend
	logger  *log.Logger
	config  SweepConfig
}

// NewTerminationSweep creates a sweep over the given process source.
func NewTerminationSweep(lister ProcessLister, term Terminator, backend eventlog.Backend, logger *log.Logger, config SweepConfig) *TerminationSweep {
	return &TerminationSweep{
		lister:  lister,
		term:    term,
		backend: backend,
		logger:  logger,
		config:  config,
	}
}

// Sweep selects candidates, drops unsafe tiers, and terminates the top
// consumers by RSS. It returns how many processes are confirmed gone.
func (s *TerminationSweep) Sweep(ctx context.Context, level memstats.PressureLevel) (int, error) {
	records, err := s.lister.List(ctx)
	if err != nil {
		return 0, err
	}

	selected := candidates.Select(records, s.config.RssThresholdMb, s.config.Targets, s.config.Protected)
	safe := safety.FilterSafe(selected, s.config.AllowRisky)
	targets := procs.TopByRSS(safe, s.config.MaxTargets)
	if len(targets) == 0 {
		s.logger.Debugf("Termination sweep found no expendable processes")
		return 0, nil
	}

	terminated := 0
	for _, target := range targets {
		if !s.term.Terminate(ctx, target.Pid, false) {
			s.logger.Warnf("Process %s (pid %d) survived termination sweep", target.Name, target.Pid)
			continue
		}
		terminated++
		s.logger.Infof("Terminated %s (pid %d, %d MB)", target.Name, target.Pid, target.RssMb)
		if err := s.backend.Append(ctx, eventlog.Entry{
			Timestamp: time.Now(),
			Action:    eventlog.ActionKill,
			Pressure:  level,
			Details: map[string]any{
				"pid":     target.Pid,
				"name":    target.Name,
				"rss_mb":  target.RssMb,
				"trigger": "auto_sweep",
			},
		}); err != nil {
			s.logger.Warnf("Failed to append kill event: %v", err)
		}
	}
	return terminated, nil
}
