//go:build darwin

package launchagent

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// NewManager returns a Manager for the current user's LaunchAgents directory.
func NewManager(logger *log.Logger) (*Manager, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home directory: %w", err)
	}

	return &Manager{
		agentsDir: filepath.Join(home, "Library", "LaunchAgents"),
		logger:    logger,
		launchctl: runLaunchctl,
	}, nil
}

func runLaunchctl(ctx context.Context, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, "launchctl", args...).CombinedOutput()
}
