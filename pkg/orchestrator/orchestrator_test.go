package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ink1ing/rambooster/pkg/eventlog"
	"github.com/ink1ing/rambooster/pkg/memstats"
	"github.com/ink1ing/rambooster/pkg/monitor"
	"github.com/ink1ing/rambooster/pkg/remedy"
	"github.com/ink1ing/rambooster/pkg/throttle"
	log "github.com/sirupsen/logrus"
)

// mockBooster replays canned results per call.
type mockBooster struct {
	mu      sync.Mutex
	calls   int
	results []remedy.RemediationResult
	errs    []error
}

func (m *mockBooster) Boost(ctx context.Context) (remedy.RemediationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.calls
	m.calls++

	var result remedy.RemediationResult
	if i < len(m.results) {
		result = m.results[i]
	}
	var err error
	if i < len(m.errs) {
		err = m.errs[i]
	}
	return result, err
}

func (m *mockBooster) GetCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockBackend records appended entries in memory.
type mockBackend struct {
	mu        sync.Mutex
	entries   []eventlog.Entry
	appendErr error
}

func (m *mockBackend) Append(ctx context.Context, e eventlog.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockBackend) Query(ctx context.Context, f eventlog.Filter) ([]eventlog.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]eventlog.Entry(nil), m.entries...), nil
}

func (m *mockBackend) Prune(ctx context.Context, olderThan time.Time) (int, error) { return 0, nil }
func (m *mockBackend) Clear(ctx context.Context) (int, error)                      { return 0, nil }
func (m *mockBackend) Size() (int64, error)                                        { return 0, nil }
func (m *mockBackend) Files() ([]eventlog.FileInfo, error)                         { return nil, nil }
func (m *mockBackend) Name() string                                                { return "mock" }
func (m *mockBackend) Close() error                                                { return nil }

func (m *mockBackend) GetEntries() []eventlog.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]eventlog.Entry(nil), m.entries...)
}

// mockSweeper counts invocations.
type mockSweeper struct {
	mu        sync.Mutex
	calls     int
	lastLevel memstats.PressureLevel
	n         int
	err       error
}

func (m *mockSweeper) Sweep(ctx context.Context, level memstats.PressureLevel) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastLevel = level
	return m.n, m.err
}

func (m *mockSweeper) GetCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func testOrchestratorLogger() *log.Logger {
	logger := log.New()
	logger.SetLevel(log.ErrorLevel)
	return logger
}

func pressureEvent(level memstats.PressureLevel) monitor.PressureEvent {
	snap := memstats.MemSnapshot{TotalMb: 16384, FreeMb: 500, Pressure: level}
	return monitor.NewPressureEvent(snap)
}

func boostResult(deltaMb int64) remedy.RemediationResult {
	return remedy.RemediationResult{
		Before:  memstats.MemSnapshot{TotalMb: 16384, FreeMb: 500},
		After:   memstats.MemSnapshot{TotalMb: 16384, FreeMb: 500 + uint64(deltaMb)},
		DeltaMb: deltaMb,
	}
}

// drain pushes events into a closed-ended channel and runs the orchestrator
// to completion, so tests need no sleeps.
func drain(t *testing.T, o *Orchestrator, events ...monitor.PressureEvent) {
	t.Helper()

	ch := make(chan monitor.PressureEvent, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)

	if err := o.Run(context.Background(), ch); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestOrchestrator_BoostsOnWarning(t *testing.T) {
	booster := &mockBooster{results: []remedy.RemediationResult{boostResult(1200)}}
	backend := &mockBackend{}
	o := New(booster, throttle.NewGate(), backend, testOrchestratorLogger(), Config{ThrottleInterval: time.Hour})

	drain(t, o, pressureEvent(memstats.Warning))

	if booster.GetCalls() != 1 {
		t.Errorf("expected 1 boost, got %d", booster.GetCalls())
	}

	entries := backend.GetEntries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Action != eventlog.ActionAutoBoost {
		t.Errorf("expected action %s, got %s", eventlog.ActionAutoBoost, e.Action)
	}
	if e.DeltaMb != 1200 {
		t.Errorf("expected delta 1200, got %d", e.DeltaMb)
	}
	if e.Pressure != memstats.Warning {
		t.Errorf("expected pressure warning, got %s", e.Pressure)
	}
	if e.Before == nil || e.After == nil {
		t.Error("expected before and after snapshots on success entry")
	}
}

func TestOrchestrator_DiscardsNormal(t *testing.T) {
	booster := &mockBooster{}
	backend := &mockBackend{}
	o := New(booster, throttle.NewGate(), backend, testOrchestratorLogger(), Config{ThrottleInterval: time.Hour})

	drain(t, o, pressureEvent(memstats.Normal), pressureEvent(memstats.Normal))

	if booster.GetCalls() != 0 {
		t.Errorf("expected no boosts for normal pressure, got %d", booster.GetCalls())
	}
	if len(backend.GetEntries()) != 0 {
		t.Errorf("expected no log entries, got %d", len(backend.GetEntries()))
	}
}

func TestOrchestrator_ThrottlesBackToBackEvents(t *testing.T) {
	booster := &mockBooster{results: []remedy.RemediationResult{boostResult(800), boostResult(800)}}
	backend := &mockBackend{}
	o := New(booster, throttle.NewGate(), backend, testOrchestratorLogger(), Config{ThrottleInterval: time.Hour})

	drain(t, o, pressureEvent(memstats.Critical), pressureEvent(memstats.Critical))

	if booster.GetCalls() != 1 {
		t.Errorf("expected second event to be throttled, got %d boosts", booster.GetCalls())
	}
	if len(backend.GetEntries()) != 1 {
		t.Errorf("expected 1 log entry, got %d", len(backend.GetEntries()))
	}
}

func TestOrchestrator_FailedBoostDoesNotRecordThrottle(t *testing.T) {
	booster := &mockBooster{
		results: []remedy.RemediationResult{{}, boostResult(600)},
		errs:    []error{errors.New("purge exploded"), nil},
	}
	backend := &mockBackend{}
	o := New(booster, throttle.NewGate(), backend, testOrchestratorLogger(), Config{ThrottleInterval: time.Hour})

	drain(t, o, pressureEvent(memstats.Warning), pressureEvent(memstats.Warning))

	if booster.GetCalls() != 2 {
		t.Errorf("expected failed boost to leave the gate open, got %d boosts", booster.GetCalls())
	}

	entries := backend.GetEntries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	if entries[0].Details["error"] != "purge exploded" {
		t.Errorf("expected error detail on failure entry, got %v", entries[0].Details)
	}
	if entries[0].Before != nil {
		t.Error("expected no snapshots on failure entry")
	}
	if entries[1].DeltaMb != 600 {
		t.Errorf("expected success entry after retry, got %+v", entries[1])
	}
}

func TestOrchestrator_SweepAfterSuccessfulBoost(t *testing.T) {
	booster := &mockBooster{results: []remedy.RemediationResult{boostResult(400)}}
	sweeper := &mockSweeper{n: 2}
	o := New(booster, throttle.NewGate(), &mockBackend{}, testOrchestratorLogger(),
		Config{ThrottleInterval: time.Hour, Sweeper: sweeper})

	drain(t, o, pressureEvent(memstats.Critical))

	if sweeper.GetCalls() != 1 {
		t.Errorf("expected 1 sweep, got %d", sweeper.GetCalls())
	}
	if sweeper.lastLevel != memstats.Critical {
		t.Errorf("expected sweep to see critical pressure, got %s", sweeper.lastLevel)
	}
}

func TestOrchestrator_NoSweepAfterFailedBoost(t *testing.T) {
	booster := &mockBooster{errs: []error{errors.New("nope")}}
	sweeper := &mockSweeper{}
	o := New(booster, throttle.NewGate(), &mockBackend{}, testOrchestratorLogger(),
		Config{ThrottleInterval: time.Hour, Sweeper: sweeper})

	drain(t, o, pressureEvent(memstats.Warning))

	if sweeper.GetCalls() != 0 {
		t.Errorf("expected no sweep after failed boost, got %d", sweeper.GetCalls())
	}
}

func TestOrchestrator_RunStopsOnContextCancel(t *testing.T) {
	o := New(&mockBooster{}, throttle.NewGate(), &mockBackend{}, testOrchestratorLogger(), Config{ThrottleInterval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := o.Run(ctx, make(chan monitor.PressureEvent))
	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestOrchestrator_BrokenEventLogDoesNotStopBoosts(t *testing.T) {
	booster := &mockBooster{results: []remedy.RemediationResult{boostResult(300)}}
	backend := &mockBackend{appendErr: errors.New("disk full")}
	o := New(booster, throttle.NewGate(), backend, testOrchestratorLogger(), Config{ThrottleInterval: time.Hour})

	drain(t, o, pressureEvent(memstats.Warning))

	if booster.GetCalls() != 1 {
		t.Errorf("expected boost despite append failure, got %d", booster.GetCalls())
	}
}
