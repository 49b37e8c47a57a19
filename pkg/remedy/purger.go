package remedy

import (
	"context"
	"errors"
	"os"
	"os/exec"

	log "github.com/sirupsen/logrus"
)

// DefaultPurgePath is where macOS installs the purge binary.
const DefaultPurgePath = "/usr/sbin/purge"

// Purger is the privileged purge capability. Implementations decide how the
// cache-purge operation reaches the OS; the executor owns timing and
// composition.
type Purger interface {
	// Purge evicts reclaimable cached memory. interactive permits a terminal
	// password prompt as the last resort; non-interactive attempts must
	// never block on input.
	Purge(ctx context.Context, interactive bool) error
}

// SystemPurger invokes the purge binary, escalating in stages: unprivileged
// first, then non-interactive sudo, then interactive sudo when allowed.
type SystemPurger struct {
	Path   string
	logger *log.Logger
}

func NewSystemPurger(logger *log.Logger) *SystemPurger {
	return &SystemPurger{Path: DefaultPurgePath, logger: logger}
}

func (p *SystemPurger) Purge(ctx context.Context, interactive bool) error {
	err := classifyExecError(exec.CommandContext(ctx, p.Path).Run())
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrCommandNotFound) {
		// sudo cannot conjure an absent binary
		return err
	}

	p.logger.Debugf("unprivileged purge failed (%v), retrying with sudo -n", err)
	err = classifyExecError(exec.CommandContext(ctx, "sudo", "-n", p.Path).Run())
	if err == nil {
		return nil
	}
	if !interactive {
		return err
	}

	p.logger.Warn("non-interactive purge failed, requesting sudo password")
	cmd := exec.CommandContext(ctx, "sudo", p.Path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return classifyExecError(cmd.Run())
}

// NoopPurger succeeds without touching the OS. Used for dry runs and for
// platforms without a purge operation.
type NoopPurger struct{}

func (NoopPurger) Purge(ctx context.Context, interactive bool) error {
	return nil
}
