// Package orchestrator consumes pressure events and decides when a
// remediation actually runs. It is the only writer of throttle state in the
// daemon, so an automatic boost and a hotkey boost can never stack.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/ink1ing/rambooster/pkg/eventlog"
	"github.com/ink1ing/rambooster/pkg/memstats"
	"github.com/ink1ing/rambooster/pkg/monitor"
	"github.com/ink1ing/rambooster/pkg/remedy"
	"github.com/ink1ing/rambooster/pkg/throttle"
	log "github.com/sirupsen/logrus"
)

// Booster runs one full remediation and reports what it freed.
type Booster interface {
	Boost(ctx context.Context) (remedy.RemediationResult, error)
}

// Sweeper terminates expendable processes after a successful boost.
type Sweeper interface {
	Sweep(ctx context.Context, level memstats.PressureLevel) (int, error)
}

// Config holds orchestrator configuration.
type Config struct {
	// ThrottleInterval is the minimum time between automatic boosts.
	ThrottleInterval time.Duration
	// Sweeper, when set, runs after each successful boost.
	Sweeper Sweeper
}

// Orchestrator reacts to pressure events with throttled boosts.
type Orchestrator struct {
	booster  Booster
	gate     *throttle.Gate
	gateMu   sync.Mutex
	backend  eventlog.Backend
	logger   *log.Logger
	interval time.Duration
	sweeper  Sweeper

	now func() time.Time
}

// New creates an orchestrator. The gate is shared with any other boost
// trigger in the process; the orchestrator guards it with its own mutex.
func New(booster Booster, gate *throttle.Gate, backend eventlog.Backend, logger *log.Logger, config Config) *Orchestrator {
	return &Orchestrator{
		booster:  booster,
		gate:     gate,
		backend:  backend,
		logger:   logger,
		interval: config.ThrottleInterval,
		sweeper:  config.Sweeper,
		now:      time.Now,
	}
}

// Run consumes events until the context is canceled or the source channel is
// closed. Remediations run inline, so they never overlap.
func (o *Orchestrator) Run(ctx context.Context, events <-chan monitor.PressureEvent) error {
	o.logger.Infof("Starting orchestrator (throttle interval: %v)", o.interval)

	for {
		select {
		case <-ctx.Done():
			o.logger.Println("Orchestrator shutting down")
			return ctx.Err()

		case ev, ok := <-events:
			if !ok {
				o.logger.Println("Pressure event source closed")
				return nil
			}
			o.handle(ctx, ev)
		}
	}
}

func (o *Orchestrator) handle(ctx context.Context, ev monitor.PressureEvent) {
	if ev.Level == memstats.Normal {
		return
	}

	o.gateMu.Lock()
	defer o.gateMu.Unlock()

	now := o.now()
	if !o.gate.TryAcquire(now, o.interval) {
		o.logger.Debugf("Skipping remediation under %s pressure, last boost was %v ago",
			ev.Level, now.Sub(o.gate.Last()).Round(time.Second))
		return
	}

	o.logger.Infof("Memory pressure %s, starting boost", ev.Level)
	result, err := o.booster.Boost(ctx)
	if err != nil {
		// The gate stays unrecorded so the next event retries immediately.
		o.logger.Errorf("Automatic boost failed: %v", err)
		o.append(ctx, eventlog.Entry{
			Timestamp: now,
			Action:    eventlog.ActionAutoBoost,
			Pressure:  ev.Level,
			Details:   map[string]any{"error": err.Error()},
		})
		return
	}
	o.gate.Record(o.now())

	o.logger.Infof("Boost freed %d MB in %v", result.DeltaMb, result.Duration.Round(time.Millisecond))
	o.append(ctx, eventlog.Entry{
		Timestamp: now,
		Action:    eventlog.ActionAutoBoost,
		Before:    &result.Before,
		After:     &result.After,
		DeltaMb:   result.DeltaMb,
		Pressure:  ev.Level,
		Details:   map[string]any{"duration_ms": result.Duration.Milliseconds()},
	})

	if o.sweeper == nil {
		return
	}
	terminated, err := o.sweeper.Sweep(ctx, ev.Level)
	if err != nil {
		o.logger.Warnf("Termination sweep failed: %v", err)
		return
	}
	if terminated > 0 {
		o.logger.Infof("Termination sweep reclaimed %d processes", terminated)
	}
}

// append records an entry, logging instead of failing: a broken event log
// must not stop remediation.
func (o *Orchestrator) append(ctx context.Context, e eventlog.Entry) {
	if err := o.backend.Append(ctx, e); err != nil {
		o.logger.Warnf("Failed to append %s event: %v", e.Action, err)
	}
}
