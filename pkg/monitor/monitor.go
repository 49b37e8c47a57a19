// Package monitor polls memory pressure in the background and publishes
// every derived level to the orchestrator's event channel.
package monitor

import (
	"context"
	"time"

	"github.com/ink1ing/rambooster/pkg/memstats"
	log "github.com/sirupsen/logrus"
)

// minPollInterval is the floor for the polling cadence.
const minPollInterval = 5 * time.Second

// PressureEvent is one observed pressure reading. Events are best effort:
// transient excursions between polls go unreported, and consumers must not
// infer absence of pressure between events.
type PressureEvent struct {
	Snapshot memstats.MemSnapshot
	Level    memstats.PressureLevel
	At       time.Time
}

func NewPressureEvent(snap memstats.MemSnapshot) PressureEvent {
	return PressureEvent{
		Snapshot: snap,
		Level:    snap.Pressure,
		At:       time.Now(),
	}
}

// StatsReader is the slice of the memory provider the monitor needs.
type StatsReader interface {
	Read(ctx context.Context) (memstats.MemSnapshot, error)
}

// PollInterval derives the polling cadence from the remediation cool-down:
// a tenth of it, floored at 5s, so the loop observes transitions well
// before it is allowed to act again.
func PollInterval(coolDown time.Duration) time.Duration {
	interval := coolDown / 10
	if interval < minPollInterval {
		interval = minPollInterval
	}
	return interval
}

// Monitor is the single background pressure poller.
type Monitor struct {
	Reader   StatsReader
	Interval time.Duration
	Logger   *log.Logger
}

// New creates a monitor polling at the cadence derived from coolDown.
func New(reader StatsReader, coolDown time.Duration, logger *log.Logger) *Monitor {
	return &Monitor{
		Reader:   reader,
		Interval: PollInterval(coolDown),
		Logger:   logger,
	}
}

// Run polls until publishing fails because the receiver is gone (context
// canceled). That is the only exit: counter read failures are logged and the
// poll is skipped. The returned error is fatal to the orchestrator.
func (m *Monitor) Run(ctx context.Context, out chan<- PressureEvent) error {
	m.Logger.Infof("pressure monitor started (interval: %v)", m.Interval)

	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()

	if err := m.poll(ctx, out); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := m.poll(ctx, out); err != nil {
				return err
			}
		}
	}
}

func (m *Monitor) poll(ctx context.Context, out chan<- PressureEvent) error {
	snap, err := m.Reader.Read(ctx)
	if err != nil {
		m.Logger.Warnf("pressure poll skipped: %v", err)
		return nil
	}

	m.Logger.Debugf("pressure %s (free: %d MB, compressed: %d MB)",
		snap.Pressure, snap.FreeMb, snap.CompressedMb)

	select {
	case out <- NewPressureEvent(snap):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
