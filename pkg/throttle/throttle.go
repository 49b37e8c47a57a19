// Package throttle enforces a minimum interval between remediations.
package throttle

import "time"

// Gate tracks the last successful remediation instant. It is deliberately
// not synchronized: the pressure-driven path and any manual trigger share
// one gate, and the caller must hold its own lock around the
// check-then-record sequence so the pair is a single critical section.
type Gate struct {
	last time.Time
}

// NewGate returns a gate with no prior remediation recorded.
func NewGate() *Gate {
	return &Gate{}
}

// TryAcquire reports whether a remediation may run at now. It always passes
// when nothing has been recorded yet.
func (g *Gate) TryAcquire(now time.Time, minInterval time.Duration) bool {
	if g.last.IsZero() {
		return true
	}
	return now.Sub(g.last) >= minInterval
}

// Record stores now as the last remediation instant. Called only after a
// successful remediation; the stored instant never moves backwards.
func (g *Gate) Record(now time.Time) {
	if now.After(g.last) {
		g.last = now
	}
}

// Last returns the recorded instant (zero when none).
func (g *Gate) Last() time.Time {
	return g.last
}
