package remedy

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/ink1ing/rambooster/pkg/memstats"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sequenceReader struct {
	snapshots []memstats.MemSnapshot
	errs      []error
	calls     int
}

func (r *sequenceReader) Read(ctx context.Context) (memstats.MemSnapshot, error) {
	i := r.calls
	r.calls++
	if i < len(r.errs) && r.errs[i] != nil {
		return memstats.MemSnapshot{}, r.errs[i]
	}
	return r.snapshots[i], nil
}

type failingPurger struct {
	err error
}

func (p failingPurger) Purge(ctx context.Context, interactive bool) error {
	return p.err
}

func TestClassifyExecError(t *testing.T) {
	t.Run("nil passes through", func(t *testing.T) {
		assert.NoError(t, classifyExecError(nil))
	})

	t.Run("non-zero exit becomes ExecutionFailedError", func(t *testing.T) {
		err := exec.Command("sh", "-c", "exit 3").Run()
		require.Error(t, err)

		classified := classifyExecError(err)
		var execFailed *ExecutionFailedError
		require.ErrorAs(t, classified, &execFailed)
		assert.Equal(t, 3, execFailed.ExitCode)
	})

	t.Run("missing binary becomes ErrCommandNotFound", func(t *testing.T) {
		err := exec.Command("definitely-not-a-real-binary-rambo").Run()
		require.Error(t, err)
		assert.ErrorIs(t, classifyExecError(err), ErrCommandNotFound)
	})

	t.Run("missing absolute path becomes ErrCommandNotFound", func(t *testing.T) {
		err := exec.Command("/nonexistent/purge").Run()
		require.Error(t, err)
		assert.ErrorIs(t, classifyExecError(err), ErrCommandNotFound)
	})

	t.Run("other errors stay wrapped", func(t *testing.T) {
		classified := classifyExecError(errors.New("pipe broke"))
		assert.Error(t, classified)
		assert.NotErrorIs(t, classified, ErrCommandNotFound)
	})
}

func TestExecutionFailedErrorNeedsPermission(t *testing.T) {
	assert.True(t, (&ExecutionFailedError{ExitCode: 1}).NeedsPermission())
	assert.True(t, (&ExecutionFailedError{ExitCode: 256}).NeedsPermission())
	assert.False(t, (&ExecutionFailedError{ExitCode: 3}).NeedsPermission())
}

func TestSystemPurgerMissingBinary(t *testing.T) {
	p := NewSystemPurger(logrus.New())
	p.Path = "/nonexistent/purge"

	err := p.Purge(context.Background(), false)
	assert.ErrorIs(t, err, ErrCommandNotFound)
}

func newTestExecutor(reader StatsReader, purger Purger) *Executor {
	e := NewExecutor(reader, purger, logrus.New())
	e.grace = 10 * time.Millisecond
	e.forceDelay = 5 * time.Millisecond
	return e
}

func TestTerminate(t *testing.T) {
	ctx := context.Background()

	t.Run("graceful termination succeeds", func(t *testing.T) {
		e := newTestExecutor(nil, NoopPurger{})
		killCalled := false
		e.sendTerm = func(ctx context.Context, pid int32) error { return nil }
		e.sendKill = func(ctx context.Context, pid int32) error { killCalled = true; return nil }
		e.pidExists = func(ctx context.Context, pid int32) (bool, error) { return false, nil }

		assert.True(t, e.Terminate(ctx, 1234, true))
		assert.False(t, killCalled)
	})

	t.Run("survivor without force is not killed", func(t *testing.T) {
		e := newTestExecutor(nil, NoopPurger{})
		killCalled := false
		e.sendTerm = func(ctx context.Context, pid int32) error { return nil }
		e.sendKill = func(ctx context.Context, pid int32) error { killCalled = true; return nil }
		e.pidExists = func(ctx context.Context, pid int32) (bool, error) { return true, nil }

		assert.False(t, e.Terminate(ctx, 1234, false))
		assert.False(t, killCalled)
	})

	t.Run("confirmed-alive survivor is force killed", func(t *testing.T) {
		e := newTestExecutor(nil, NoopPurger{})
		var killed bool
		e.sendTerm = func(ctx context.Context, pid int32) error { return nil }
		e.sendKill = func(ctx context.Context, pid int32) error { killed = true; return nil }
		e.pidExists = func(ctx context.Context, pid int32) (bool, error) {
			// alive after the grace period, gone after the kill
			return !killed, nil
		}

		assert.True(t, e.Terminate(ctx, 1234, true))
		assert.True(t, killed)
	})

	t.Run("kill-resistant process reports failure", func(t *testing.T) {
		e := newTestExecutor(nil, NoopPurger{})
		e.sendTerm = func(ctx context.Context, pid int32) error { return nil }
		e.sendKill = func(ctx context.Context, pid int32) error { return nil }
		e.pidExists = func(ctx context.Context, pid int32) (bool, error) { return true, nil }

		assert.False(t, e.Terminate(ctx, 1234, true))
	})

	t.Run("failed signal send reports failure", func(t *testing.T) {
		e := newTestExecutor(nil, NoopPurger{})
		e.sendTerm = func(ctx context.Context, pid int32) error { return errors.New("no such process") }

		assert.False(t, e.Terminate(ctx, 1234, true))
	})

	t.Run("liveness check error counts as gone", func(t *testing.T) {
		e := newTestExecutor(nil, NoopPurger{})
		killCalled := false
		e.sendTerm = func(ctx context.Context, pid int32) error { return nil }
		e.sendKill = func(ctx context.Context, pid int32) error { killCalled = true; return nil }
		e.pidExists = func(ctx context.Context, pid int32) (bool, error) {
			return false, errors.New("lookup failed")
		}

		assert.True(t, e.Terminate(ctx, 1234, true))
		assert.False(t, killCalled)
	})
}

func TestBoost(t *testing.T) {
	ctx := context.Background()

	t.Run("delta is after minus before free", func(t *testing.T) {
		reader := &sequenceReader{snapshots: []memstats.MemSnapshot{
			{TotalMb: 16384, FreeMb: 1000},
			{TotalMb: 16384, FreeMb: 3500},
		}}
		e := newTestExecutor(reader, NoopPurger{})

		result, err := e.Boost(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2500), result.DeltaMb)
		assert.Equal(t, uint64(1000), result.Before.FreeMb)
		assert.Equal(t, uint64(3500), result.After.FreeMb)
	})

	t.Run("delta can be negative", func(t *testing.T) {
		reader := &sequenceReader{snapshots: []memstats.MemSnapshot{
			{TotalMb: 16384, FreeMb: 3000},
			{TotalMb: 16384, FreeMb: 2000},
		}}
		e := newTestExecutor(reader, NoopPurger{})

		result, err := e.Boost(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(-1000), result.DeltaMb)
	})

	t.Run("first read failure propagates", func(t *testing.T) {
		statsErr := &memstats.StatsError{Err: errors.New("counters gone")}
		reader := &sequenceReader{errs: []error{statsErr}, snapshots: []memstats.MemSnapshot{{}}}
		e := newTestExecutor(reader, NoopPurger{})

		_, err := e.Boost(ctx)
		var got *memstats.StatsError
		assert.ErrorAs(t, err, &got)
	})

	t.Run("purge failure propagates untouched", func(t *testing.T) {
		reader := &sequenceReader{snapshots: []memstats.MemSnapshot{
			{TotalMb: 16384, FreeMb: 1000},
			{TotalMb: 16384, FreeMb: 1000},
		}}
		purgeErr := &ExecutionFailedError{ExitCode: 1}
		e := newTestExecutor(reader, failingPurger{err: purgeErr})

		_, err := e.Boost(ctx)
		var got *ExecutionFailedError
		require.ErrorAs(t, err, &got)
		assert.Equal(t, 1, got.ExitCode)
		// second read never happens
		assert.Equal(t, 1, reader.calls)
	})
}
