package remedy

import (
	"context"
	"time"

	"github.com/ink1ing/rambooster/pkg/memstats"
	"github.com/shirou/gopsutil/v4/process"
	log "github.com/sirupsen/logrus"
)

// StatsReader is the slice of the memory provider the executor needs.
type StatsReader interface {
	Read(ctx context.Context) (memstats.MemSnapshot, error)
}

// RemediationResult captures the memory effect of one boost.
type RemediationResult struct {
	Before   memstats.MemSnapshot `json:"before"`
	After    memstats.MemSnapshot `json:"after"`
	DeltaMb  int64                `json:"delta_mb"`
	Duration time.Duration        `json:"duration_ns"`
}

// Executor performs the reclaim primitives: cache purge and process
// termination. It holds no policy: throttling and safety classification are
// the caller's responsibility.
type Executor struct {
	reader StatsReader
	purger Purger
	logger *log.Logger

	// RequestPermission permits an interactive sudo prompt as the last
	// purge escalation stage.
	RequestPermission bool

	grace      time.Duration
	forceDelay time.Duration

	// swappable for tests
	sendTerm  func(ctx context.Context, pid int32) error
	sendKill  func(ctx context.Context, pid int32) error
	pidExists func(ctx context.Context, pid int32) (bool, error)
}

// NewExecutor creates an executor with the standard 2 second grace period.
func NewExecutor(reader StatsReader, purger Purger, logger *log.Logger) *Executor {
	return &Executor{
		reader:     reader,
		purger:     purger,
		logger:     logger,
		grace:      2 * time.Second,
		forceDelay: 500 * time.Millisecond,
		sendTerm: func(ctx context.Context, pid int32) error {
			proc, err := process.NewProcessWithContext(ctx, pid)
			if err != nil {
				return err
			}
			return proc.TerminateWithContext(ctx)
		},
		sendKill: func(ctx context.Context, pid int32) error {
			proc, err := process.NewProcessWithContext(ctx, pid)
			if err != nil {
				return err
			}
			return proc.KillWithContext(ctx)
		},
		pidExists: process.PidExistsWithContext,
	}
}

// Purge runs the cache-purge operation and reports how long it took.
func (e *Executor) Purge(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := e.purger.Purge(ctx, e.RequestPermission); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}

// Terminate sends a graceful stop signal, waits the grace period, and
// re-checks liveness. A confirmed-alive process is force-killed only when
// force is set; a liveness check error counts as gone. Returns whether the
// process is confirmed terminated. The grace wait blocks the calling
// goroutine.
func (e *Executor) Terminate(ctx context.Context, pid int32, force bool) bool {
	if err := e.sendTerm(ctx, pid); err != nil {
		e.logger.Debugf("SIGTERM to %d failed: %v", pid, err)
		return false
	}

	if !e.sleep(ctx, e.grace) {
		return false
	}

	if !e.alive(ctx, pid) {
		return true
	}

	if !force {
		e.logger.Debugf("process %d survived SIGTERM", pid)
		return false
	}

	if err := e.sendKill(ctx, pid); err != nil {
		e.logger.Debugf("SIGKILL to %d failed: %v", pid, err)
		return false
	}
	if !e.sleep(ctx, e.forceDelay) {
		return false
	}
	return !e.alive(ctx, pid)
}

// Boost composes read-purge-read and reports the free-memory delta. The
// first failing stage's error propagates untouched; throttle state is never
// modified here.
func (e *Executor) Boost(ctx context.Context) (RemediationResult, error) {
	before, err := e.reader.Read(ctx)
	if err != nil {
		return RemediationResult{}, err
	}

	duration, err := e.Purge(ctx)
	if err != nil {
		return RemediationResult{}, err
	}

	after, err := e.reader.Read(ctx)
	if err != nil {
		return RemediationResult{}, err
	}

	if before.TotalMb != after.TotalMb {
		e.logger.Warnf("total memory changed during boost: %d MB -> %d MB", before.TotalMb, after.TotalMb)
	}

	return RemediationResult{
		Before:   before,
		After:    after,
		DeltaMb:  int64(after.FreeMb) - int64(before.FreeMb),
		Duration: duration,
	}, nil
}

func (e *Executor) alive(ctx context.Context, pid int32) bool {
	exists, err := e.pidExists(ctx, pid)
	if err != nil {
		return false
	}
	return exists
}

func (e *Executor) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
