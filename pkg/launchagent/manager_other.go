//go:build !darwin

package launchagent

import (
	log "github.com/sirupsen/logrus"
)

// NewManager is unsupported off darwin; launchd does not exist elsewhere.
func NewManager(logger *log.Logger) (*Manager, error) {
	return nil, ErrUnsupported
}
