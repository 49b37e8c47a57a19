package remedy

import (
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
)

// ErrCommandNotFound means the purge binary is absent. Retrying cannot help
// until the host configuration changes.
var ErrCommandNotFound = errors.New("purge command not found")

// ExecutionFailedError means the purge command ran but exited non-zero,
// usually a privilege or policy failure. Exit codes 1 and 256 indicate
// sudo wanted a password.
type ExecutionFailedError struct {
	ExitCode int
}

func (e *ExecutionFailedError) Error() string {
	return fmt.Sprintf("purge exited with status %d", e.ExitCode)
}

// NeedsPermission reports whether the exit code looks like a declined or
// missing sudo grant rather than a hard failure.
func (e *ExecutionFailedError) NeedsPermission() bool {
	return e.ExitCode == 1 || e.ExitCode == 256
}

// classifyExecError maps an os/exec error into the purge error taxonomy.
// Anything that is neither a missing binary nor a non-zero exit is a
// transient IO failure and stays wrapped.
func classifyExecError(err error) error {
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExecutionFailedError{ExitCode: exitErr.ExitCode()}
	}

	// PATH lookup misses surface as exec.ErrNotFound, absolute-path
	// spawns as a plain ENOENT
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return ErrCommandNotFound
	}

	return fmt.Errorf("purge io error: %w", err)
}
