// Package launchagent installs the daemon as a macOS launchd user agent and
// reports its state.
package launchagent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"howett.net/plist"
)

// Label identifies the agent in launchd and names the plist file.
const Label = "com.rambo.daemon"

var (
	// ErrNotInstalled reports that no agent plist exists for the label.
	ErrNotInstalled = errors.New("launch agent not installed")
	// ErrUnsupported reports that launchd is not available on this platform.
	ErrUnsupported = errors.New("launch agents are only supported on darwin")
)

// Definition is the launchd job rendered into the agent plist.
type Definition struct {
	Label             string   `plist:"Label"`
	ProgramArguments  []string `plist:"ProgramArguments"`
	RunAtLoad         bool     `plist:"RunAtLoad"`
	KeepAlive         bool     `plist:"KeepAlive"`
	StandardOutPath   string   `plist:"StandardOutPath"`
	StandardErrorPath string   `plist:"StandardErrorPath"`
	ThrottleInterval  int      `plist:"ThrottleInterval"`
}

// NewDefinition builds the job definition for the given daemon executable.
// throttleSeconds doubles as launchd's respawn throttle so a crash-looping
// daemon cannot restart faster than it would boost.
func NewDefinition(executable string, throttleSeconds int) (Definition, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Definition{}, fmt.Errorf("failed to resolve home directory: %w", err)
	}

	logsDir := filepath.Join(home, "Library", "Logs")
	return Definition{
		Label:             Label,
		ProgramArguments:  []string{executable, "daemon", "run"},
		RunAtLoad:         true,
		KeepAlive:         true,
		StandardOutPath:   filepath.Join(logsDir, "rambo-daemon.log"),
		StandardErrorPath: filepath.Join(logsDir, "rambo-daemon-error.log"),
		ThrottleInterval:  throttleSeconds,
	}, nil
}

// Render serializes the definition as an XML plist.
func (d Definition) Render() ([]byte, error) {
	return plist.MarshalIndent(d, plist.XMLFormat, "\t")
}

// Status describes what launchd knows about the agent.
type Status struct {
	Installed bool
	Loaded    bool
	Pid       int
}

// Manager writes the agent plist and drives launchctl.
type Manager struct {
	agentsDir string
	logger    *log.Logger
	launchctl func(ctx context.Context, args ...string) ([]byte, error)
}

// PlistPath is where the agent plist lives for this manager.
func (m *Manager) PlistPath() string {
	return filepath.Join(m.agentsDir, Label+".plist")
}

// Install writes the plist and loads the agent so it survives logout.
func (m *Manager) Install(ctx context.Context, def Definition) error {
	if err := os.MkdirAll(m.agentsDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", m.agentsDir, err)
	}

	data, err := def.Render()
	if err != nil {
		return fmt.Errorf("failed to render plist: %w", err)
	}

	path := m.PlistPath()
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	m.logger.Infof("Wrote launch agent plist to %s", path)

	out, err := m.launchctl(ctx, "load", "-w", path)
	if err != nil {
		return fmt.Errorf("launchctl load failed: %w (%s)", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Uninstall unloads the agent and removes its plist. A failed unload is only
// logged; the plist is removed either way so a half-loaded agent does not
// come back at next login.
func (m *Manager) Uninstall(ctx context.Context) error {
	path := m.PlistPath()
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return ErrNotInstalled
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if out, err := m.launchctl(ctx, "unload", path); err != nil {
		m.logger.Warnf("launchctl unload failed (agent may not be running): %v (%s)", err, strings.TrimSpace(string(out)))
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	m.logger.Infof("Removed launch agent plist %s", path)
	return nil
}

// CurrentStatus reports whether the agent is installed, loaded, and running.
func (m *Manager) CurrentStatus(ctx context.Context) (Status, error) {
	if _, err := os.Stat(m.PlistPath()); err != nil {
		if os.IsNotExist(err) {
			return Status{}, nil
		}
		return Status{}, fmt.Errorf("failed to stat %s: %w", m.PlistPath(), err)
	}

	out, err := m.launchctl(ctx, "list")
	if err != nil {
		return Status{Installed: true}, fmt.Errorf("launchctl list failed: %w", err)
	}

	status := Status{Installed: true}
	status.Loaded, status.Pid = findJob(string(out), Label)
	return status, nil
}

// findJob scans launchctl list output (PID, Status, Label columns) for the
// given label. A "-" in the PID column means loaded but not running.
func findJob(out, label string) (bool, int) {
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 || fields[2] != label {
			continue
		}
		pid, err := strconv.Atoi(fields[0])
		if err != nil {
			return true, 0
		}
		return true, pid
	}
	return false, 0
}
